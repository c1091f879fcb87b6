package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Eninte/ai-resource-navigator/internal/config"
	"github.com/Eninte/ai-resource-navigator/internal/domain"
	"github.com/Eninte/ai-resource-navigator/internal/listing"
	"github.com/Eninte/ai-resource-navigator/internal/store"
	"github.com/Eninte/ai-resource-navigator/internal/store/sqlstore"
)

var allStatuses = []domain.Status{
	domain.StatusPending, domain.StatusPublished, domain.StatusRejected, domain.StatusDelisted,
}

func seedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the built-in resource catalogue into the configured database",
		Long: `Seed copies the built-in catalogue into the database as published
resources. Entries whose URL already exists in any status are skipped, so
running it twice is harmless.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			s, err := openSQLStore(cmd.Context(), &cfg.Database)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			inserted, skipped, err := seedResources(cmd.Context(), s, time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d resources, skipped %d existing\n", inserted, skipped)
			return nil
		},
	}
}

func openSQLStore(ctx context.Context, db *config.DatabaseConfig) (*sqlstore.Store, error) {
	switch db.Driver {
	case config.DriverPostgres:
		return sqlstore.OpenPostgres(ctx, db.DSN(), sqlstore.PoolConfig{})
	case config.DriverSQLite:
		return sqlstore.OpenSQLite(ctx, db.Path)
	default:
		return nil, fmt.Errorf("driver %q cannot be seeded", db.Driver)
	}
}

// seedResources inserts every catalogue entry whose URL is not stored yet.
func seedResources(ctx context.Context, s store.Store, now time.Time) (inserted, skipped int, err error) {
	for _, r := range listing.FallbackResources(now) {
		exists, err := s.URLExists(ctx, r.URL, allStatuses...)
		if err != nil {
			return inserted, skipped, fmt.Errorf("check %s: %w", r.URL, err)
		}
		if exists {
			skipped++
			continue
		}
		r.ID = domain.NewID()
		r.Source = "seed"
		if err = s.CreateResource(ctx, &r); err != nil {
			return inserted, skipped, err
		}
		inserted++
	}
	return inserted, skipped, nil
}
