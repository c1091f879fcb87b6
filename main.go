package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Eninte/ai-resource-navigator/infrastructure/circuitbreaker"
	infraconfig "github.com/Eninte/ai-resource-navigator/infrastructure/config"
	"github.com/Eninte/ai-resource-navigator/infrastructure/health"
	"github.com/Eninte/ai-resource-navigator/infrastructure/logger"
	"github.com/Eninte/ai-resource-navigator/infrastructure/profiling"
	infraredis "github.com/Eninte/ai-resource-navigator/infrastructure/redis"
	"github.com/Eninte/ai-resource-navigator/infrastructure/retry"
	"github.com/Eninte/ai-resource-navigator/internal/adminauth"
	"github.com/Eninte/ai-resource-navigator/internal/api"
	"github.com/Eninte/ai-resource-navigator/internal/audit"
	"github.com/Eninte/ai-resource-navigator/internal/click"
	"github.com/Eninte/ai-resource-navigator/internal/config"
	"github.com/Eninte/ai-resource-navigator/internal/handler"
	"github.com/Eninte/ai-resource-navigator/internal/iphash"
	"github.com/Eninte/ai-resource-navigator/internal/listing"
	"github.com/Eninte/ai-resource-navigator/internal/metrics"
	"github.com/Eninte/ai-resource-navigator/internal/middleware"
	"github.com/Eninte/ai-resource-navigator/internal/moderation"
	"github.com/Eninte/ai-resource-navigator/internal/ratelimit"
	"github.com/Eninte/ai-resource-navigator/internal/redirect"
	"github.com/Eninte/ai-resource-navigator/internal/store"
	"github.com/Eninte/ai-resource-navigator/internal/store/memstore"
	"github.com/Eninte/ai-resource-navigator/internal/store/sqlstore"
)

const (
	// dbConnectAttempts covers a database container that is still starting.
	dbConnectAttempts = 5

	limiterCleanupInterval  = time.Minute
	throttleCleanupInterval = 5 * time.Minute
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	profiling.StartPprofServer(cfg.Profiling, log)
	profiler, err := profiling.StartPyroscope(cfg.Service.Name, cfg.Service.Version, cfg.Profiling, log)
	if err != nil {
		log.Warn("Continuous profiling disabled", logger.Error(err))
	}
	defer func() { _ = profiler.Stop() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to open store", logger.Error(err))
		return 1
	}
	defer func() { _ = st.Close() }()

	return runServer(ctx, cfg, log, st)
}

// loadConfig loads and validates configuration.
func loadConfig() (*config.Config, error) {
	configPath := infraconfig.GetConfigPath("config.yml")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, nil
}

// createLogger creates a logger instance from configuration.
func createLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(logger.String("service", cfg.Service.Name)), nil
}

// openStore connects the configured store driver.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, error) {
	db := &cfg.Database
	switch db.Driver {
	case config.DriverPostgres:
		var s *sqlstore.Store
		err := retry.Do(ctx, retry.Config{
			MaxAttempts:  dbConnectAttempts,
			InitialDelay: time.Second,
			OnRetry: func(attempt int, delay time.Duration, err error) {
				log.Warn("Database not ready, retrying",
					logger.Int("attempt", attempt),
					logger.Duration("delay", delay),
					logger.Error(err),
				)
			},
		}, func(ctx context.Context) error {
			var openErr error
			s, openErr = sqlstore.OpenPostgres(ctx, db.DSN(), sqlstore.PoolConfig{
				MaxOpenConns:    db.MaxOpenConns,
				MaxIdleConns:    db.MaxIdleConns,
				ConnMaxLifetime: db.ConnMaxLifetime,
			})
			return openErr
		})
		if err != nil {
			return nil, err
		}
		log.Info("Database connected",
			logger.String("driver", db.Driver),
			logger.String("host", db.Host),
			logger.Int("port", db.Port),
			logger.String("database", db.Name),
		)
		return s, nil
	case config.DriverSQLite:
		if dir := filepath.Dir(db.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		s, err := sqlstore.OpenSQLite(ctx, db.Path)
		if err != nil {
			return nil, err
		}
		log.Info("Database connected",
			logger.String("driver", db.Driver),
			logger.String("path", db.Path),
		)
		return s, nil
	default:
		log.Warn("Using in-memory store, data is lost on restart")
		return memstore.New(), nil
	}
}

// connectRedis returns nil when redis is disabled.
func connectRedis(ctx context.Context, cfg *config.Config, log logger.Logger) (*goredis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil //nolint:nilnil // redis is optional
	}
	client, err := infraredis.NewClient(ctx, infraredis.Config{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	log.Info("Redis connected", logger.String("address", cfg.Redis.Address))
	return client, nil
}

// limiterStore picks the counter backend shared by the submit limiter and
// the login guard.
func limiterStore(ctx context.Context, cfg *config.Config, rdb *goredis.Client) ratelimit.Store {
	if cfg.RateLimit.Backend == config.BackendRedis && rdb != nil {
		return ratelimit.NewRedisStore(rdb)
	}
	mem := ratelimit.NewMemoryStore()
	go mem.CleanupLoop(ctx, limiterCleanupInterval)
	return mem
}

// runServer creates all dependencies and starts the HTTP server.
func runServer(ctx context.Context, cfg *config.Config, log logger.Logger, st store.Store) int {
	rdb, err := connectRedis(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to redis", logger.Error(err))
		return 1
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	var m *metrics.Provider
	if cfg.Metrics.Enabled {
		m = metrics.NewProvider()
	}

	breaker := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.Listing.BreakerFailureThreshold,
		OpenTimeout:      cfg.Listing.BreakerOpenTimeout,
		OnStateChange: func(from, to circuitbreaker.State) {
			log.Warn("Store circuit state changed",
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
			m.SetBreakerState("store", int(to))
		},
	})
	engine := listing.NewEngine(st, listing.Config{
		QueryTimeout:   cfg.Database.QueryTimeout,
		RandomPoolSize: cfg.Listing.RandomPoolSize,
		Breaker:        breaker,
		Metrics:        m,
	}, log)

	tokens, err := redirect.NewService(cfg.TokenSecret(), cfg.Security.TokenTTL)
	if err != nil {
		log.Error("Failed to create redirect token service", logger.Error(err))
		return 1
	}
	sessions, err := adminauth.NewSessionManager(cfg.SessionSecret(), cfg.Security.SessionTTL)
	if err != nil {
		log.Error("Failed to create session manager", logger.Error(err))
		return 1
	}
	passwords := adminauth.NewPasswordVerifier(cfg.Security.AdminPasswordHash, cfg.Security.AdminPassword)
	log.Info("Admin password configured", logger.String("mode", passwords.Mode()))

	limits := limiterStore(ctx, cfg, rdb)
	hasher := iphash.New(cfg.Security.IPSalt)
	rec := audit.NewRecorder(st, m)

	clicks := click.NewRecorder(st, click.Config{
		BufferSize:     cfg.Clicks.BufferSize,
		FlushInterval:  cfg.Clicks.FlushInterval,
		FlushThreshold: cfg.Clicks.FlushThreshold,
	}, log, m)
	clicks.Start()
	defer clicks.Stop()

	throttle := middleware.NewThrottle("redirect", cfg.RateLimit.RedirectRPS, cfg.RateLimit.RedirectBurst, m)
	go throttle.CleanupLoop(ctx, throttleCleanupInterval)

	checker := health.NewChecker()
	checker.Register("database", health.PingCheck(st.Ping))
	checker.Register("driver", health.StaticCheck(health.StatusInfo, cfg.Database.Driver))
	if rdb != nil {
		checker.Register("redis", health.PingCheck(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
	}
	checker.Register("memory", health.MemoryCheck())

	handlers := api.Handlers{
		Resources: handler.NewResourceHandler(engine, st, tokens, log),
		Redirect:  handler.NewRedirectHandler(st, tokens, clicks, hasher, log, m),
		Submit: handler.NewSubmitHandler(st, ratelimit.NewLimiter(limits), handler.SubmitPolicy{
			Max:    cfg.RateLimit.SubmitMax,
			Window: cfg.RateLimit.SubmitWindow,
		}, hasher, log, m),
		Admin: handler.NewAdminHandler(handler.AdminDeps{
			Store:      st,
			Moderation: moderation.NewService(st, rec, m),
			Sessions:   sessions,
			Passwords:  passwords,
			LoginGuard: ratelimit.NewLoginGuard(limits, ratelimit.LoginPolicy{
				MaxFailures:   cfg.RateLimit.LoginMaxFailures,
				FailureWindow: cfg.RateLimit.LoginFailureWindow,
				LockDuration:  cfg.RateLimit.LoginLockDuration,
			}),
			Audit:         rec,
			Hasher:        hasher,
			Logger:        log,
			Metrics:       m,
			SecureCookies: cfg.Security.SecureCookies,
		}),
		Health: handler.NewHealthHandler(cfg.Service.Version, cfg.Database.Driver, checker),
	}

	server := api.NewServer(handlers, api.RouteOptions{
		Sessions:    sessions,
		Throttle:    throttle,
		Metrics:     m,
		MetricsPath: cfg.Metrics.Path,
	}, cfg, log, st.Ping)

	log.Info("Navigator starting",
		logger.Int("port", cfg.Service.Port),
		logger.String("driver", cfg.Database.Driver),
		logger.String("rate_limit_backend", cfg.RateLimit.Backend),
		logger.Bool("metrics", cfg.Metrics.Enabled),
	)

	if err = server.RunWithGracefulShutdown(ctx); err != nil {
		log.Error("Server error", logger.Error(err))
		return 1
	}

	log.Info("Navigator exited cleanly")
	return 0
}
