package config

import (
	"fmt"
	"net/url"
	"time"

	infraconfig "github.com/Eninte/ai-resource-navigator/infrastructure/config"
	"github.com/Eninte/ai-resource-navigator/infrastructure/profiling"
)

// Default configuration values.
const (
	defaultServiceName = "ai-resource-navigator"
	defaultServicePort = 3000
	defaultVersion     = "0.1.0"

	defaultIPSalt     = "default-salt"
	defaultTokenTTL   = 2 * time.Hour
	defaultSessionTTL = 24 * time.Hour

	defaultDBDriver       = DriverSQLite
	defaultDBHost         = "localhost"
	defaultDBPort         = 5432
	defaultDBName         = "navigator"
	defaultDBUser         = "postgres"
	defaultDBSSLMode      = "disable"
	defaultSQLitePath     = "data/navigator.db"
	defaultMaxOpenConns   = 10
	defaultMaxIdleConns   = 5
	defaultConnMaxLife    = 30 * time.Minute
	defaultQueryTimeout   = 5 * time.Second
	defaultRedisAddress   = "localhost:6379"
	defaultLimiterBackend = BackendMemory

	defaultSubmitMax          = 10
	defaultSubmitWindow       = time.Hour
	defaultLoginMaxFailures   = 5
	defaultLoginFailureWindow = time.Hour
	defaultLoginLockDuration  = time.Hour
	defaultRedirectRPS        = 5.0
	defaultRedirectBurst      = 10

	defaultRandomPoolSize   = 100
	defaultBreakerThreshold = 5
	defaultBreakerOpen      = 30 * time.Second

	defaultClickBufferSize     = 1000
	defaultClickFlushInterval  = 2 * time.Second
	defaultClickFlushThreshold = 50

	defaultLoggingLevel = "info"
	defaultLoggingFmt   = "json"
	defaultMetricsPath  = "/metrics"
	defaultPprofPort    = 6060
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Rate limiter backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds the application configuration.
type Config struct {
	Service   ServiceConfig    `yaml:"service"`
	Security  SecurityConfig   `yaml:"security"`
	Database  DatabaseConfig   `yaml:"database"`
	Redis     RedisConfig      `yaml:"redis"`
	RateLimit RateLimitConfig  `yaml:"rate_limit"`
	Listing   ListingConfig    `yaml:"listing"`
	Clicks    ClicksConfig     `yaml:"clicks"`
	Logging   LoggingConfig    `yaml:"logging"`
	Metrics   MetricsConfig    `yaml:"metrics"`
	Profiling profiling.Config `yaml:"profiling"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Port        int      `env:"NAVIGATOR_PORT"   yaml:"port"`
	Debug       bool     `env:"APP_DEBUG"        yaml:"debug"`
	CORSOrigins []string `env:"CORS_ORIGINS"     yaml:"cors_origins"`
	Environment string   `env:"APP_ENV"          yaml:"environment"`
}

// SecurityConfig holds secrets and credential settings.
type SecurityConfig struct {
	IPSalt            string        `env:"IP_SALT"             yaml:"ip_salt"`
	TokenSecret       string        `env:"URL_SIGNING_SECRET"  yaml:"token_secret"`
	SessionSecret     string        `env:"JWT_SECRET"          yaml:"session_secret"`
	TokenTTL          time.Duration `yaml:"token_ttl"`
	SessionTTL        time.Duration `yaml:"session_ttl"`
	AdminPassword     string        `env:"ADMIN_PASSWORD"      yaml:"admin_password"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH" yaml:"admin_password_hash"`
	SecureCookies     bool          `env:"SECURE_COOKIES"      yaml:"secure_cookies"`
}

// DatabaseConfig selects and configures the store.
type DatabaseConfig struct {
	Driver          string        `env:"DATABASE_DRIVER"   yaml:"driver"`
	URL             string        `env:"DATABASE_URL"      yaml:"url"`
	Host            string        `env:"POSTGRES_HOST"     yaml:"host"`
	Port            int           `env:"POSTGRES_PORT"     yaml:"port"`
	User            string        `env:"POSTGRES_USER"     yaml:"user"`
	Password        string        `env:"POSTGRES_PASSWORD" yaml:"password"`
	Name            string        `env:"POSTGRES_DB"       yaml:"name"`
	SSLMode         string        `env:"POSTGRES_SSLMODE"  yaml:"sslmode"`
	Path            string        `env:"SQLITE_PATH"       yaml:"path"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
}

// DSN returns the PostgreSQL connection string. DATABASE_URL wins when set.
func (d *DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// MigrateURL returns the DSN in URL form for golang-migrate.
func (d *DatabaseConfig) MigrateURL() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

// RedisConfig configures the optional shared limiter backend.
type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED"  yaml:"enabled"`
	Address  string `env:"REDIS_ADDRESS"  yaml:"address"`
	Password string `env:"REDIS_PASSWORD" yaml:"password"`
	DB       int    `env:"REDIS_DB"       yaml:"db"`
}

// RateLimitConfig holds admission control policy.
type RateLimitConfig struct {
	Backend            string        `env:"RATE_LIMIT_BACKEND" yaml:"backend"`
	SubmitMax          int           `yaml:"submit_max"`
	SubmitWindow       time.Duration `yaml:"submit_window"`
	LoginMaxFailures   int           `yaml:"login_max_failures"`
	LoginFailureWindow time.Duration `yaml:"login_failure_window"`
	LoginLockDuration  time.Duration `yaml:"login_lock_duration"`
	RedirectRPS        float64       `yaml:"redirect_rps"`
	RedirectBurst      int           `yaml:"redirect_burst"`
}

// ListingConfig tunes the listing engine.
type ListingConfig struct {
	RandomPoolSize          int           `yaml:"random_pool_size"`
	BreakerFailureThreshold int           `yaml:"breaker_failure_threshold"`
	BreakerOpenTimeout      time.Duration `yaml:"breaker_open_timeout"`
}

// ClicksConfig tunes click buffering.
type ClicksConfig struct {
	BufferSize     int           `yaml:"buffer_size"`
	FlushInterval  time.Duration `yaml:"flush_interval"`
	FlushThreshold int           `yaml:"flush_threshold"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// MetricsConfig holds Prometheus configuration.
type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return infraconfig.LoadWithDefaults[Config](path, setDefaults)
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setSecurityDefaults(&cfg.Security)
	setDatabaseDefaults(&cfg.Database)
	setRedisDefaults(&cfg.Redis)
	setRateLimitDefaults(&cfg.RateLimit)
	setListingDefaults(&cfg.Listing)
	setClicksDefaults(&cfg.Clicks)
	setLoggingDefaults(&cfg.Logging)
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = defaultMetricsPath
	}
	if cfg.Profiling.PprofPort == 0 {
		cfg.Profiling.PprofPort = defaultPprofPort
	}
	if cfg.Profiling.Environment == "" {
		cfg.Profiling.Environment = cfg.Service.Environment
	}
}

func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
	if svc.Port == 0 {
		svc.Port = defaultServicePort
	}
	if svc.Environment == "" {
		svc.Environment = "development"
	}
}

func setSecurityDefaults(sec *SecurityConfig) {
	if sec.IPSalt == "" {
		sec.IPSalt = defaultIPSalt
	}
	if sec.TokenTTL == 0 {
		sec.TokenTTL = defaultTokenTTL
	}
	if sec.SessionTTL == 0 {
		sec.SessionTTL = defaultSessionTTL
	}
}

func setDatabaseDefaults(db *DatabaseConfig) {
	if db.Driver == "" {
		db.Driver = defaultDBDriver
	}
	if db.Host == "" {
		db.Host = defaultDBHost
	}
	if db.Port == 0 {
		db.Port = defaultDBPort
	}
	if db.User == "" {
		db.User = defaultDBUser
	}
	if db.Name == "" {
		db.Name = defaultDBName
	}
	if db.SSLMode == "" {
		db.SSLMode = defaultDBSSLMode
	}
	if db.Path == "" {
		db.Path = defaultSQLitePath
	}
	if db.MaxOpenConns == 0 {
		db.MaxOpenConns = defaultMaxOpenConns
	}
	if db.MaxIdleConns == 0 {
		db.MaxIdleConns = defaultMaxIdleConns
	}
	if db.ConnMaxLifetime == 0 {
		db.ConnMaxLifetime = defaultConnMaxLife
	}
	if db.QueryTimeout == 0 {
		db.QueryTimeout = defaultQueryTimeout
	}
}

func setRedisDefaults(r *RedisConfig) {
	if r.Address == "" {
		r.Address = defaultRedisAddress
	}
}

func setRateLimitDefaults(rl *RateLimitConfig) {
	if rl.Backend == "" {
		rl.Backend = defaultLimiterBackend
	}
	if rl.SubmitMax == 0 {
		rl.SubmitMax = defaultSubmitMax
	}
	if rl.SubmitWindow == 0 {
		rl.SubmitWindow = defaultSubmitWindow
	}
	if rl.LoginMaxFailures == 0 {
		rl.LoginMaxFailures = defaultLoginMaxFailures
	}
	if rl.LoginFailureWindow == 0 {
		rl.LoginFailureWindow = defaultLoginFailureWindow
	}
	if rl.LoginLockDuration == 0 {
		rl.LoginLockDuration = defaultLoginLockDuration
	}
	if rl.RedirectRPS == 0 {
		rl.RedirectRPS = defaultRedirectRPS
	}
	if rl.RedirectBurst == 0 {
		rl.RedirectBurst = defaultRedirectBurst
	}
}

func setListingDefaults(l *ListingConfig) {
	if l.RandomPoolSize == 0 {
		l.RandomPoolSize = defaultRandomPoolSize
	}
	if l.BreakerFailureThreshold == 0 {
		l.BreakerFailureThreshold = defaultBreakerThreshold
	}
	if l.BreakerOpenTimeout == 0 {
		l.BreakerOpenTimeout = defaultBreakerOpen
	}
}

func setClicksDefaults(c *ClicksConfig) {
	if c.BufferSize == 0 {
		c.BufferSize = defaultClickBufferSize
	}
	if c.FlushInterval == 0 {
		c.FlushInterval = defaultClickFlushInterval
	}
	if c.FlushThreshold == 0 {
		c.FlushThreshold = defaultClickFlushThreshold
	}
}

func setLoggingDefaults(log *LoggingConfig) {
	if log.Level == "" {
		log.Level = defaultLoggingLevel
	}
	if log.Format == "" {
		log.Format = defaultLoggingFmt
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := infraconfig.ValidatePort("service.port", c.Service.Port); err != nil {
		return err
	}
	if !c.Service.Debug {
		if err := infraconfig.ValidateRequired("security.token_secret", c.Security.TokenSecret); err != nil {
			return err
		}
		if err := infraconfig.ValidateRequired("security.session_secret", c.Security.SessionSecret); err != nil {
			return err
		}
	}
	if err := infraconfig.ValidateOneOf("database.driver", c.Database.Driver,
		DriverPostgres, DriverSQLite, DriverMemory); err != nil {
		return err
	}
	if err := infraconfig.ValidateOneOf("rate_limit.backend", c.RateLimit.Backend,
		BackendMemory, BackendRedis); err != nil {
		return err
	}
	if c.RateLimit.Backend == BackendRedis && !c.Redis.Enabled {
		return &infraconfig.ValidationError{
			Field:   "rate_limit.backend",
			Message: "redis backend requires redis.enabled",
		}
	}
	if c.RateLimit.SubmitMax < 1 || c.RateLimit.LoginMaxFailures < 1 {
		return &infraconfig.ValidationError{
			Field:   "rate_limit",
			Message: "submit_max and login_max_failures must be positive",
		}
	}
	if err := infraconfig.ValidateOneOf("logging.format", c.Logging.Format, "json", "console"); err != nil {
		return err
	}
	return infraconfig.ValidateLogLevel("logging.level", c.Logging.Level)
}

// DevSecret is used for token and session signing in debug mode when no
// secret is configured.
const DevSecret = "dev-secret-key-change-in-prod-123456789"

// TokenSecret returns the redirect signing secret, falling back to
// DevSecret in debug mode.
func (c *Config) TokenSecret() string {
	if c.Security.TokenSecret == "" && c.Service.Debug {
		return DevSecret
	}
	return c.Security.TokenSecret
}

// SessionSecret returns the admin session secret, falling back to
// DevSecret in debug mode.
func (c *Config) SessionSecret() string {
	if c.Security.SessionSecret == "" && c.Service.Debug {
		return DevSecret
	}
	return c.Security.SessionSecret
}
