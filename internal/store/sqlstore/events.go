package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Eninte/ai-resource-navigator/internal/domain"
)

// clickBatchSize bounds the rows per INSERT statement.
const clickBatchSize = 50

// InsertClicks writes clicks in multi-row INSERTs inside one transaction.
func (s *Store) InsertClicks(ctx context.Context, clicks []domain.Click) error {
	if len(clicks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin click insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for start := 0; start < len(clicks); start += clickBatchSize {
		end := min(start+clickBatchSize, len(clicks))
		b := s.d.newBuilder("INSERT INTO clicks (id, resource_id, ip_hash, user_agent, referrer, created_at) VALUES ")
		for i, c := range clicks[start:end] {
			if i > 0 {
				b.write(", ")
			}
			if c.ID == "" {
				c.ID = domain.NewID()
			}
			if c.CreatedAt.IsZero() {
				c.CreatedAt = time.Now().UTC()
			}
			b.write("(" + strings.Join([]string{
				b.arg(c.ID), b.arg(c.ResourceID), b.arg(c.IPHash),
				b.arg(c.UserAgent), b.arg(c.Referrer), b.arg(s.d.timeArg(c.CreatedAt)),
			}, ", ") + ")")
		}
		if _, err = tx.ExecContext(ctx, b.String(), b.args...); err != nil {
			return fmt.Errorf("insert clicks: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit clicks: %w", err)
	}
	return nil
}

func (s *Store) InsertAdminLog(ctx context.Context, entry *domain.AdminLog) error {
	if entry.ID == "" {
		entry.ID = domain.NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	details := entry.Details
	if len(details) == 0 {
		details = json.RawMessage(`{}`)
	}

	b := s.d.newBuilder("INSERT INTO admin_logs (id, action, ip_hash, resource_id, details, created_at) VALUES (")
	b.write(strings.Join([]string{
		b.arg(entry.ID), b.arg(string(entry.Action)), b.arg(entry.IPHash),
		b.arg(nullString(entry.ResourceID)), b.arg(string(details)), b.arg(s.d.timeArg(entry.CreatedAt)),
	}, ", ") + ")")

	if _, err := s.db.ExecContext(ctx, b.String(), b.args...); err != nil {
		return fmt.Errorf("insert admin log: %w", err)
	}
	return nil
}

// adminLogRow maps an admin_logs row.
type adminLogRow struct {
	ID         string         `db:"id"`
	Action     string         `db:"action"`
	IPHash     string         `db:"ip_hash"`
	ResourceID sql.NullString `db:"resource_id"`
	Details    []byte         `db:"details"`
	CreatedAt  nullTime       `db:"created_at"`
}

func (s *Store) ListAdminLogs(ctx context.Context, limit, offset int) ([]domain.AdminLog, error) {
	b := s.d.newBuilder("SELECT id, action, ip_hash, resource_id, details, created_at FROM admin_logs " +
		"ORDER BY created_at DESC, id DESC")
	b.limitOffset(limit, offset)

	var rows []adminLogRow
	if err := s.db.SelectContext(ctx, &rows, b.String(), b.args...); err != nil {
		return nil, fmt.Errorf("list admin logs: %w", err)
	}

	out := make([]domain.AdminLog, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.AdminLog{
			ID:         r.ID,
			Action:     domain.Action(r.Action),
			IPHash:     r.IPHash,
			ResourceID: r.ResourceID.String,
			Details:    json.RawMessage(r.Details),
			CreatedAt:  r.CreatedAt.Time,
		})
	}
	return out, nil
}

func (s *Store) CountAdminLogs(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM admin_logs"); err != nil {
		return 0, fmt.Errorf("count admin logs: %w", err)
	}
	return n, nil
}

type categoryRow struct {
	Slug         string `db:"slug"`
	Name         string `db:"name"`
	DisplayOrder int    `db:"display_order"`
	IsActive     bool   `db:"is_active"`
}

func (s *Store) ListCategories(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	q := "SELECT slug, name, display_order, is_active FROM categories"
	if activeOnly {
		q += " WHERE is_active = TRUE"
	}
	q += " ORDER BY display_order ASC, slug ASC"

	var rows []categoryRow
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	out := make([]domain.Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Category{
			Slug:         r.Slug,
			Name:         r.Name,
			DisplayOrder: r.DisplayOrder,
			IsActive:     r.IsActive,
		})
	}
	return out, nil
}

// SeedCategories inserts the built-in categories, leaving existing rows
// untouched.
func (s *Store) SeedCategories(ctx context.Context) error {
	for _, c := range domain.Categories() {
		b := s.d.newBuilder("INSERT INTO categories (slug, name, display_order, is_active) VALUES (")
		b.write(strings.Join([]string{b.arg(c.Slug), b.arg(c.Name), b.arg(c.DisplayOrder), b.arg(c.IsActive)}, ", "))
		b.write(") ON CONFLICT (slug) DO NOTHING")
		if _, err := s.db.ExecContext(ctx, b.String(), b.args...); err != nil {
			return fmt.Errorf("seed category %s: %w", c.Slug, err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
