package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraconfig "github.com/Eninte/ai-resource-navigator/infrastructure/config"
)

func validConfig() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.Security.TokenSecret = "token-secret"
	cfg.Security.SessionSecret = "session-secret"
	return cfg
}

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	assert.Equal(t, defaultServiceName, cfg.Service.Name)
	assert.Equal(t, defaultServicePort, cfg.Service.Port)
	assert.Equal(t, "default-salt", cfg.Security.IPSalt)
	assert.Equal(t, 2*time.Hour, cfg.Security.TokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.Security.SessionTTL)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 5*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, BackendMemory, cfg.RateLimit.Backend)
	assert.Equal(t, 10, cfg.RateLimit.SubmitMax)
	assert.Equal(t, time.Hour, cfg.RateLimit.SubmitWindow)
	assert.Equal(t, 5, cfg.RateLimit.LoginMaxFailures)
	assert.Equal(t, time.Hour, cfg.RateLimit.LoginLockDuration)
	assert.Equal(t, 100, cfg.Listing.RandomPoolSize)
	assert.Equal(t, 50, cfg.Clicks.FlushThreshold)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Service.Port = 70000 }, "service.port"},
		{"missing token secret", func(c *Config) { c.Security.TokenSecret = "" }, "security.token_secret"},
		{"missing session secret", func(c *Config) { c.Security.SessionSecret = "" }, "security.session_secret"},
		{"secrets optional in debug", func(c *Config) {
			c.Service.Debug = true
			c.Security.TokenSecret = ""
			c.Security.SessionSecret = ""
		}, ""},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"unknown backend", func(c *Config) { c.RateLimit.Backend = "memcached" }, "rate_limit.backend"},
		{"redis backend without redis", func(c *Config) { c.RateLimit.Backend = BackendRedis }, "rate_limit.backend"},
		{"redis backend with redis", func(c *Config) {
			c.RateLimit.Backend = BackendRedis
			c.Redis.Enabled = true
		}, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			var ve *infraconfig.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestSecretsFallBackInDebug(t *testing.T) {
	cfg := validConfig()
	cfg.Security.TokenSecret = ""
	assert.Empty(t, cfg.TokenSecret())

	cfg.Service.Debug = true
	assert.Equal(t, DevSecret, cfg.TokenSecret())
	assert.Equal(t, "session-secret", cfg.SessionSecret())
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5433, User: "nav", Password: "p@ss", Name: "navigator", SSLMode: "disable"}

	assert.Equal(t, "host=db port=5433 user=nav password=p@ss dbname=navigator sslmode=disable", db.DSN())
	assert.Equal(t, "postgres://nav:p%40ss@db:5433/navigator?sslmode=disable", db.MigrateURL())

	db.URL = "postgres://override"
	assert.Equal(t, "postgres://override", db.DSN())
	assert.Equal(t, "postgres://override", db.MigrateURL())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
service:
  port: 8080
database:
  driver: memory
  query_timeout: 3s
rate_limit:
  submit_max: 3
`), 0o600))
	t.Setenv("IP_SALT", "pepper")
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Service.Port)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 3*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, 3, cfg.RateLimit.SubmitMax)
	assert.Equal(t, "pepper", cfg.Security.IPSalt)
	assert.Equal(t, time.Hour, cfg.RateLimit.SubmitWindow)
}
