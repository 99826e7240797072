package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"enduro/internal/structures"
)

func validConfig() *structures.Config {
	conf := &structures.Config{}
	conf.Strava.ClientID = "12345"
	conf.Strava.ClientSecret = "secret"
	conf.Strava.RefreshToken = "refresh"
	conf.Strava.PerPage = 200
	conf.Snapshot.FilePath = "/var/lib/enduro/activities.snap"
	conf.WebServer.Host = "127.0.0.1"
	conf.WebServer.Port = 8080
	conf.Logger.Level = "info"
	conf.Logger.Mode = 0644
	conf.Logger.Dir = "/var/log/enduro"
	return conf
}

func TestCnfValidator_ValidConfig(t *testing.T) {
	assert.NoError(t, NewCnfValidator(validConfig()).Validate())
}

func TestCnfValidator_MissingCredentials(t *testing.T) {
	conf := validConfig()
	conf.Strava.ClientID = ""
	assert.Error(t, NewCnfValidator(conf).Validate())
}

func TestCnfValidator_PerPageOutOfRange(t *testing.T) {
	conf := validConfig()
	conf.Strava.PerPage = 500
	assert.Error(t, NewCnfValidator(conf).Validate())
}

func TestCnfValidator_InvalidLogLevel(t *testing.T) {
	conf := validConfig()
	conf.Logger.Level = "loud"
	assert.Error(t, NewCnfValidator(conf).Validate())
}

func TestCnfValidator_MissingSnapshotPath(t *testing.T) {
	conf := validConfig()
	conf.Snapshot.FilePath = ""
	assert.Error(t, NewCnfValidator(conf).Validate())
}

func TestCnfValidator_InvalidPort(t *testing.T) {
	conf := validConfig()
	conf.WebServer.Port = 0
	assert.Error(t, NewCnfValidator(conf).Validate())
}
