package sqlstore

// sqliteSchema is applied at open. Postgres uses the migrations directory.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS resources (
	id                    TEXT PRIMARY KEY,
	name                  TEXT NOT NULL,
	description           TEXT,
	url                   TEXT NOT NULL,
	category              TEXT NOT NULL DEFAULT 'uncategorized',
	price                 TEXT NOT NULL DEFAULT 'Freemium',
	is_open_source        BOOLEAN NOT NULL DEFAULT 0,
	status                TEXT NOT NULL DEFAULT 'pending',
	source                TEXT NOT NULL DEFAULT 'web',
	submitter_ip          TEXT,
	created_at            DATETIME NOT NULL,
	published_at          DATETIME,
	global_sticky_order   INTEGER NOT NULL DEFAULT 0,
	category_sticky_order INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE INDEX IF NOT EXISTS idx_resources_status_category ON resources (status, category)`,
	`CREATE INDEX IF NOT EXISTS idx_resources_url ON resources (url)`,
	`CREATE TABLE IF NOT EXISTS categories (
	slug          TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	display_order INTEGER NOT NULL DEFAULT 0,
	is_active     BOOLEAN NOT NULL DEFAULT 1
)`,
	`CREATE TABLE IF NOT EXISTS clicks (
	id          TEXT PRIMARY KEY,
	resource_id TEXT NOT NULL,
	ip_hash     TEXT NOT NULL,
	user_agent  TEXT NOT NULL DEFAULT '',
	referrer    TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_clicks_resource ON clicks (resource_id)`,
	`CREATE TABLE IF NOT EXISTS admin_logs (
	id          TEXT PRIMARY KEY,
	action      TEXT NOT NULL,
	ip_hash     TEXT NOT NULL,
	resource_id TEXT,
	details     TEXT NOT NULL DEFAULT '{}',
	created_at  DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_admin_logs_created ON admin_logs (created_at)`,
}
