// Command migrate applies the PostgreSQL schema in ./migrations. SQLite
// stores create their schema when opened and need no migrations.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	infraconfig "github.com/Eninte/ai-resource-navigator/infrastructure/config"
	"github.com/Eninte/ai-resource-navigator/internal/config"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

const migrationsPath = "file://migrations"

const usage = "Usage: migrate <up|down|version|force VERSION>"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, usage)
		return exitFailure
	}

	action, err := parseAction(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usage)
		return exitFailure
	}

	cfg, err := config.Load(infraconfig.GetConfigPath("config.yml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return exitFailure
	}
	if cfg.Database.Driver != config.DriverPostgres {
		fmt.Printf("Driver %q manages its own schema, nothing to migrate\n", cfg.Database.Driver)
		return exitSuccess
	}

	m, err := migrate.New(migrationsPath, cfg.Database.MigrateURL())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create migrate instance: %v\n", err)
		return exitFailure
	}
	defer func() { _, _ = m.Close() }()

	if err = action(m); err != nil {
		fmt.Fprintf(os.Stderr, "Migration %s failed: %v\n", args[0], err)
		return exitFailure
	}
	return exitSuccess
}

type action func(m *migrate.Migrate) error

// parseAction validates args before any connection is made.
func parseAction(args []string) (action, error) {
	switch args[0] {
	case "up":
		return step("up", (*migrate.Migrate).Up), nil
	case "down":
		return step("down", (*migrate.Migrate).Down), nil
	case "version":
		return printVersion, nil
	case "force":
		if len(args) < 2 {
			return nil, errors.New("force needs a version")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("invalid version %q", args[1])
		}
		return func(m *migrate.Migrate) error {
			if err := m.Force(v); err != nil {
				return err
			}
			fmt.Printf("Forced version %d\n", v)
			return nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown command %q", args[0])
	}
}

func step(name string, fn func(*migrate.Migrate) error) action {
	return func(m *migrate.Migrate) error {
		err := fn(m)
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("No migrations to apply")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("Migration %s completed successfully\n", name)
		return nil
	}
}

func printVersion(m *migrate.Migrate) error {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("No migrations applied")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("Version %d (dirty: %t)\n", version, dirty)
	return nil
}
