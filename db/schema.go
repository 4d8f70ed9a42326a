// ABOUTME: Database schema definitions
// ABOUTME: Creates the item property, sync state and submission log tables
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS item_properties (
	item_key TEXT NOT NULL,
	name TEXT NOT NULL,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (item_key, name)
);

CREATE TABLE IF NOT EXISTS sync_state (
	service TEXT PRIMARY KEY,
	last_sync_time DATETIME,
	last_item_key TEXT,
	status TEXT CHECK(status IN ('idle', 'syncing', 'error')),
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sync_log (
	id TEXT PRIMARY KEY,
	item_key TEXT NOT NULL,
	entry_id TEXT NOT NULL,
	global_id TEXT NOT NULL,
	activity_type TEXT NOT NULL,
	response TEXT,
	submitted_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sync_log_item ON sync_log(item_key);
CREATE INDEX IF NOT EXISTS idx_sync_log_submitted ON sync_log(submitted_at DESC);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
