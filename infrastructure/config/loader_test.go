package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eninte/ai-resource-navigator/infrastructure/config"
)

type nested struct {
	Timeout time.Duration `env:"NAV_TEST_TIMEOUT" yaml:"timeout"`
	Hosts   []string      `env:"NAV_TEST_HOSTS"   yaml:"hosts"`
}

type sample struct {
	Name   string `env:"NAV_TEST_NAME"  yaml:"name"`
	Port   int    `env:"NAV_TEST_PORT"  yaml:"port"`
	Debug  bool   `env:"NAV_TEST_DEBUG" yaml:"debug"`
	Nested nested `yaml:"nested"`
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadWithDefaults_YAMLThenDefaultsThenEnv(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("NAV_TEST_PORT", "9090")
	t.Setenv("NAV_TEST_TIMEOUT", "3s")
	t.Setenv("NAV_TEST_HOSTS", "a, b")

	path := writeFile(t, "name: from-yaml\nport: 8080\n")

	cfg, err := config.LoadWithDefaults(path, func(s *sample) {
		if s.Name == "" {
			s.Name = "default"
		}
		s.Debug = true
	})
	require.NoError(t, err)

	assert.Equal(t, "from-yaml", cfg.Name)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 3*time.Second, cfg.Nested.Timeout)
	assert.Equal(t, []string{"a", "b"}, cfg.Nested.Hosts)
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := config.Load[sample](filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Name)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	_, err := config.Load[sample](writeFile(t, "name: [unterminated"))
	require.Error(t, err)
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, "config.yml", config.GetConfigPath("config.yml"))

	t.Setenv("CONFIG_PATH", "/etc/nav.yml")
	assert.Equal(t, "/etc/nav.yml", config.GetConfigPath("config.yml"))
}

func TestValidators(t *testing.T) {
	t.Parallel()

	require.NoError(t, config.ValidatePort("service.port", 8080))
	require.EqualError(t, config.ValidatePort("service.port", 0), "service.port: must be between 1 and 65535")
	require.EqualError(t, config.ValidateRequired("security.token_secret", " "), "security.token_secret: is required")
	require.NoError(t, config.ValidateOneOf("database.driver", "sqlite", "postgres", "sqlite"))
	require.Error(t, config.ValidateLogLevel("logging.level", "loud"))
}
