package providers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"enduro/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	v.SetDefault("strava.baseUrl", "https://www.strava.com/api/v3")
	v.SetDefault("strava.tokenUrl", "https://www.strava.com/oauth/token")
	v.SetDefault("strava.perPage", 200)
	v.SetDefault("strava.pageDelay", 500*time.Millisecond)
	v.SetDefault("strava.timeout", 30*time.Second)
	v.SetDefault("cache.ttl", time.Minute)

	v.BindEnv("logger.level", "ENDURO_LOG_LEVEL")
	v.BindEnv("strava.clientId", "ENDURO_STRAVA_CLIENT_ID")
	v.BindEnv("strava.clientSecret", "ENDURO_STRAVA_CLIENT_SECRET")
	v.BindEnv("strava.refreshToken", "ENDURO_STRAVA_REFRESH_TOKEN")
	v.BindEnv("snapshot.filePath", "ENDURO_SNAPSHOT_PATH")
	v.BindEnv("cache.enabled", "ENDURO_CACHE_ENABLED")
	v.BindEnv("cache.size", "ENDURO_CACHE_SIZE")
	v.BindEnv("refresh.enabled", "ENDURO_REFRESH_ENABLED")
	v.BindEnv("refresh.interval", "ENDURO_REFRESH_INTERVAL")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "EnduroSyncDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
