// Package sqlstore implements store.Store over database/sql for postgres
// (lib/pq) and sqlite (modernc.org/sqlite). The two differ in placeholder
// syntax, open-ended OFFSET, case folding and schema management.
package sqlstore

import (
	"strconv"
	"strings"
)

// Dialect captures the SQL differences between backends.
type Dialect struct {
	Name string
	// numbered selects $1-style placeholders instead of ?.
	numbered bool
	// offsetNeedsLimit is set when OFFSET is only valid after a LIMIT.
	offsetNeedsLimit bool
	// lower is the SQL function folding case for search.
	lower string
}

var (
	Postgres = Dialect{Name: "postgres", numbered: true, lower: "LOWER"}
	// SQLite's built-in lower() folds ASCII only, so search goes through
	// unicode_lower, registered by OpenSQLite.
	SQLite   = Dialect{Name: "sqlite", offsetNeedsLimit: true, lower: unicodeLowerFunc}
)

// builder accumulates a statement and its arguments.
type builder struct {
	d    Dialect
	sb   strings.Builder
	args []any
}

func (d Dialect) newBuilder(prefix string) *builder {
	b := &builder{d: d}
	b.sb.WriteString(prefix)
	return b
}

func (b *builder) write(s string) *builder {
	b.sb.WriteString(s)
	return b
}

// arg appends v and returns its placeholder.
func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	if b.d.numbered {
		return "$" + strconv.Itoa(len(b.args))
	}
	return "?"
}

func (b *builder) limitOffset(limit, offset int) {
	if limit > 0 {
		b.write(" LIMIT " + b.arg(limit))
	} else if offset > 0 && b.d.offsetNeedsLimit {
		b.write(" LIMIT -1")
	}
	if offset > 0 {
		b.write(" OFFSET " + b.arg(offset))
	}
}

func (b *builder) String() string {
	return b.sb.String()
}

// likePattern escapes LIKE wildcards in q and wraps it for a substring
// match.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(q)) + "%"
}
