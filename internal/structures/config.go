package structures

import (
	"net/http"
	"time"
)

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

type Route struct {
	Url     string
	Handler http.Handler
}

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type StravaConfig struct {
	ClientID     string        `yaml:"clientId" validate:"required"`
	ClientSecret string        `yaml:"clientSecret" validate:"required"`
	RefreshToken string        `yaml:"refreshToken" validate:"required"`
	BaseURL      string        `yaml:"baseUrl"`
	TokenURL     string        `yaml:"tokenUrl"`
	PerPage      int           `yaml:"perPage" validate:"required|min:1|max:200"`
	PageDelay    time.Duration `yaml:"pageDelay"`
	Timeout      time.Duration `yaml:"timeout"`
}

type SnapshotConfig struct {
	FilePath string `yaml:"filePath" validate:"required|unixPath"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type RefreshConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	Strava    StravaConfig   `yaml:"strava"`
	Snapshot  SnapshotConfig `yaml:"snapshot"`
	WebServer Server         `yaml:"webServer"`
	Logger    LoggerConfig   `yaml:"logger"`
	Cache     CacheConfig    `yaml:"cache"`
	Metrics   MetricsConfig  `yaml:"metrics"`
	Refresh   RefreshConfig  `yaml:"refresh"`
}
