package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Eninte/ai-resource-navigator/internal/domain"
	"github.com/Eninte/ai-resource-navigator/internal/store"
)

func statsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print published resource counts per category",
		Args:  cobra.NoArgs,
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

			return renderStats(cmd.Context(), cmd.OutOrStdout(), s)
		},
	}
}

type statsRow struct {
	slug  string
	name  string
	count int
}

// collectStats returns one row per active category plus any uncatalogued
// slug that still has published resources.
func collectStats(ctx context.Context, s store.Store) ([]statsRow, error) {
	counts, err := s.CountByCategory(ctx, domain.StatusPublished)
	if err != nil {
		return nil, fmt.Errorf("count resources: %w", err)
	}
	categories, err := s.ListCategories(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	rows := make([]statsRow, 0, len(categories))
	seen := make(map[string]bool, len(categories))
	for _, c := range categories {
		seen[c.Slug] = true
		rows = append(rows, statsRow{c.Slug, c.Name, counts[c.Slug]})
	}
	var extra []string
	for slug := range counts {
		if !seen[slug] {
			extra = append(extra, slug)
		}
	}
	sort.Strings(extra)
	for _, slug := range extra {
		rows = append(rows, statsRow{slug, domain.CategoryName(slug), counts[slug]})
	}
	return rows, nil
}

func renderStats(ctx context.Context, out io.Writer, s store.Store) error {
	rows, err := collectStats(ctx, s)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Slug", "Name", "Published"})

	total := 0
	for _, r := range rows {
		t.AppendRow(table.Row{r.slug, r.name, r.count})
		total += r.count
	}
	t.AppendFooter(table.Row{"", "Total", total})
	t.Render()
	return nil
}
