// ABOUTME: SQLite-backed property store for classification fields
// ABOUTME: Stages writes in memory and commits them in one transaction on Save
package db

import (
	"context"
	"database/sql"
	"fmt"
)

// PropertyBag is the custom property bag of one item, keyed by item key.
type PropertyBag struct {
	db      *sql.DB
	itemKey string
	values  map[string]string
	dirty   map[string]bool
}

// LoadPropertyBag reads all saved properties for itemKey.
func LoadPropertyBag(ctx context.Context, db *sql.DB, itemKey string) (*PropertyBag, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, value FROM item_properties WHERE item_key = ?`, itemKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer func() { _ = rows.Close() }()

	bag := &PropertyBag{
		db:      db,
		itemKey: itemKey,
		values:  make(map[string]string),
		dirty:   make(map[string]bool),
	}
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		bag.values[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating properties: %w", err)
	}

	return bag, nil
}

func (b *PropertyBag) Get(key string) (string, bool) {
	v, ok := b.values[key]
	return v, ok
}

func (b *PropertyBag) Set(key, value string) {
	b.values[key] = value
	b.dirty[key] = true
}

// Save upserts every property set since the last save.
func (b *PropertyBag) Save(ctx context.Context) error {
	if len(b.dirty) == 0 {
		return nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for key := range b.dirty {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO item_properties (item_key, name, value, updated_at)
			VALUES (?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(item_key, name) DO UPDATE SET
				value = excluded.value,
				updated_at = CURRENT_TIMESTAMP
		`, b.itemKey, key, b.values[key])
		if err != nil {
			return fmt.Errorf("failed to save property %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit properties: %w", err)
	}
	b.dirty = make(map[string]bool)
	return nil
}

// PropertyItemKeys returns every item key with saved properties.
func PropertyItemKeys(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT item_key FROM item_properties ORDER BY item_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query item keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan item key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
