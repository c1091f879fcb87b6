package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq" // postgres driver
	"modernc.org/sqlite"
)

const (
	pingTimeout      = 5 * time.Second
	unicodeLowerFunc = "unicode_lower"
)

var (
	registerLowerOnce sync.Once
	errRegisterLower  error
)

// registerUnicodeLower installs unicode_lower for every sqlite connection
// opened by this process.
func registerUnicodeLower() error {
	registerLowerOnce.Do(func() {
		errRegisterLower = sqlite.RegisterDeterministicScalarFunction(unicodeLowerFunc, 1,
			func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				switch v := args[0].(type) {
				case string:
					return strings.ToLower(v), nil
				case []byte:
					return strings.ToLower(string(v)), nil
				default:
					return v, nil
				}
			})
	})
	return errRegisterLower
}

// PoolConfig sizes the connection pool. Zero values keep the driver
// defaults.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenPostgres connects to dsn and verifies the connection. The schema is
// expected to be migrated already.
func OpenPostgres(ctx context.Context, dsn string, pool PoolConfig) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if err = ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := New(db, Postgres)
	if err = s.SeedCategories(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema. A single connection serialises writers.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if err := registerUnicodeLower(); err != nil {
		return nil, fmt.Errorf("register %s: %w", unicodeLowerFunc, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err = ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", "PRAGMA foreign_keys=ON"} {
		if _, err = db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", pragma, err)
		}
	}
	for _, stmt := range sqliteSchema {
		if _, err = db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite schema: %w", err)
		}
	}

	s := New(db, SQLite)
	if err = s.SeedCategories(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func ping(ctx context.Context, db *sql.DB) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}
