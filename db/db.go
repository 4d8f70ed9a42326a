// ABOUTME: Opens the local SQLite database that backs properties and the sync log
// ABOUTME: One WAL-mode connection, schema applied on every open
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "github.com/mattn/go-sqlite3"
)

// dsnOptions: WAL so the MCP server and the CLI can read while the other
// writes; busy_timeout rides out their brief write overlap.
const dsnOptions = "?_journal_mode=WAL&_busy_timeout=5000"

// DefaultPath returns the database location under the XDG data directory.
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, "timeline", "timeline.db")
}

// OpenDatabase creates path's directory if needed and returns a ready database.
func OpenDatabase(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	database, err := sql.Open("sqlite3", path+dsnOptions)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection avoids "database is locked".
	database.SetMaxOpenConns(1)

	if err := InitSchema(database); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return database, nil
}
