package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Eninte/ai-resource-navigator/internal/domain"
	"github.com/Eninte/ai-resource-navigator/internal/store"
)

const resourceColumns = "id, name, description, url, category, price, is_open_source, status, source, " +
	"submitter_ip, created_at, published_at, global_sticky_order, category_sticky_order"

// Store implements store.Store on a sqlx-wrapped pool.
type Store struct {
	db *sqlx.DB
	d  Dialect
}

var _ store.Store = (*Store)(nil)

// New wraps an open database. The caller owns schema management.
func New(db *sql.DB, d Dialect) *Store {
	return &Store{db: sqlx.NewDb(db, d.Name), d: d}
}

// DB exposes the pool for diagnostics.
func (s *Store) DB() *sql.DB {
	return s.db.DB
}

// Dialect returns the SQL dialect in use.
func (s *Store) Dialect() Dialect {
	return s.d
}

func (s *Store) where(b *builder, f store.Filter) {
	var conds []string
	if f.Status != "" {
		conds = append(conds, "status = "+b.arg(string(f.Status)))
	}
	if f.Category != "" && f.Category != store.AllCategories {
		conds = append(conds, "category = "+b.arg(f.Category))
	}
	if f.Search != "" {
		pattern := likePattern(f.Search)
		lower := b.d.lower
		conds = append(conds, fmt.Sprintf(
			`(%s(name) LIKE %s ESCAPE '\' OR %s(COALESCE(description, '')) LIKE %s ESCAPE '\')`,
			lower, b.arg(pattern), lower, b.arg(pattern),
		))
	}
	if len(conds) > 0 {
		b.write(" WHERE " + strings.Join(conds, " AND "))
	}
}

func orderClause(o store.Order) string {
	const sticky = " ORDER BY global_sticky_order DESC, category_sticky_order DESC, "
	switch o {
	case store.OrderName:
		return sticky + "name ASC, id ASC"
	case store.OrderCreated:
		return sticky + "created_at DESC, id ASC"
	default:
		return sticky + "published_at DESC NULLS LAST, id ASC"
	}
}

func (s *Store) ListResources(ctx context.Context, opts store.ListOptions) ([]domain.Resource, error) {
	b := s.d.newBuilder("SELECT " + resourceColumns + " FROM resources")
	s.where(b, opts.Filter)
	b.write(orderClause(opts.Order))
	b.limitOffset(opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, b.String(), b.args...)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]domain.Resource, 0)
	for rows.Next() {
		r, scanErr := scanResource(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, *r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resources: %w", err)
	}
	return out, nil
}

func (s *Store) CountResources(ctx context.Context, f store.Filter) (int, error) {
	b := s.d.newBuilder("SELECT COUNT(*) FROM resources")
	s.where(b, f)

	var n int
	if err := s.db.QueryRowContext(ctx, b.String(), b.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count resources: %w", err)
	}
	return n, nil
}

func (s *Store) GetResource(ctx context.Context, id string) (*domain.Resource, error) {
	b := s.d.newBuilder("SELECT " + resourceColumns + " FROM resources WHERE id = ")
	b.write(b.arg(id))

	r, err := scanResource(s.db.QueryRowContext(ctx, b.String(), b.args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resource %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) CreateResource(ctx context.Context, r *domain.Resource) error {
	if r.ID == "" {
		r.ID = domain.NewID()
	}
	if r.Source == "" {
		r.Source = "web"
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	b := s.d.newBuilder("INSERT INTO resources (" + resourceColumns + ") VALUES (")
	vals := []string{
		b.arg(r.ID), b.arg(r.Name), b.arg(nullString(r.Description)), b.arg(r.URL), b.arg(r.Category),
		b.arg(string(r.Price)), b.arg(r.IsOpenSource), b.arg(string(r.Status)), b.arg(r.Source),
		b.arg(nullString(r.SubmitterIPHash)), b.arg(s.d.timeArg(r.CreatedAt)), b.arg(s.d.nullTimeArg(r.PublishedAt)),
		b.arg(r.GlobalStickyOrder), b.arg(r.CategoryStickyOrder),
	}
	b.write(strings.Join(vals, ", ") + ")")

	if _, err := s.db.ExecContext(ctx, b.String(), b.args...); err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

func (s *Store) UpdateResource(ctx context.Context, r *domain.Resource) error {
	b := s.d.newBuilder("UPDATE resources SET ")
	b.write("status = " + b.arg(string(r.Status)))
	b.write(", category = " + b.arg(r.Category))
	b.write(", published_at = " + b.arg(s.d.nullTimeArg(r.PublishedAt)))
	b.write(", global_sticky_order = " + b.arg(r.GlobalStickyOrder))
	b.write(", category_sticky_order = " + b.arg(r.CategoryStickyOrder))
	b.write(" WHERE id = " + b.arg(r.ID))

	res, err := s.db.ExecContext(ctx, b.String(), b.args...)
	if err != nil {
		return fmt.Errorf("update resource: %w", err)
	}
	return requireAffected(res, r.ID)
}

func (s *Store) DeleteResource(ctx context.Context, id string) error {
	b := s.d.newBuilder("DELETE FROM resources WHERE id = ")
	b.write(b.arg(id))

	res, err := s.db.ExecContext(ctx, b.String(), b.args...)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	return requireAffected(res, id)
}

func (s *Store) URLExists(ctx context.Context, url string, statuses ...domain.Status) (bool, error) {
	b := s.d.newBuilder("SELECT COUNT(*) FROM resources WHERE url = ")
	b.write(b.arg(url))
	if len(statuses) > 0 {
		ph := make([]string, len(statuses))
		for i, st := range statuses {
			ph[i] = b.arg(string(st))
		}
		b.write(" AND status IN (" + strings.Join(ph, ", ") + ")")
	}

	var n int
	if err := s.db.QueryRowContext(ctx, b.String(), b.args...).Scan(&n); err != nil {
		return false, fmt.Errorf("check url: %w", err)
	}
	return n > 0, nil
}

func (s *Store) CountByCategory(ctx context.Context, status domain.Status) (map[string]int, error) {
	b := s.d.newBuilder("SELECT category, COUNT(*) FROM resources WHERE status = ")
	b.write(b.arg(string(status)) + " GROUP BY category")

	rows, err := s.db.QueryContext(ctx, b.String(), b.args...)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			category string
			n        int
		)
		if err = rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts[category] = n
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category counts: %w", err)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResource(row rowScanner) (*domain.Resource, error) {
	var (
		r           domain.Resource
		description sql.NullString
		submitter   sql.NullString
		price       string
		status      string
		createdAt   nullTime
		publishedAt nullTime
	)
	err := row.Scan(
		&r.ID, &r.Name, &description, &r.URL, &r.Category, &price, &r.IsOpenSource, &status, &r.Source,
		&submitter, &createdAt, &publishedAt, &r.GlobalStickyOrder, &r.CategoryStickyOrder,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan resource: %w", err)
	}

	r.Description = description.String
	r.SubmitterIPHash = submitter.String
	r.Price = domain.PriceTier(price)
	r.Status = domain.Status(status)
	r.CreatedAt = createdAt.Time
	r.PublishedAt = publishedAt.ptr()
	return &r, nil
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("resource %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
