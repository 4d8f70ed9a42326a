// ABOUTME: Database operations for sync_state and sync_log tables
// ABOUTME: Tracks submit status and records every accepted Timeline submission
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// TimelineService is the sync_state row used for Timeline submissions.
const TimelineService = "timeline"

// Sync status values; the sync_state CHECK constraint allows only these.
const (
	StatusIdle    = "idle"
	StatusSyncing = "syncing"
	StatusError   = "error"
)

// SyncState is the bookkeeping row for one service.
type SyncState struct {
	Service     string    `json:"service"`
	Status      string    `json:"status"`
	LastSyncAt  time.Time `json:"last_sync_at,omitzero"`
	LastItemKey string    `json:"last_item_key,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Submission is one accepted payload in the sync log.
type Submission struct {
	ID           string    `json:"id"`
	ItemKey      string    `json:"item_key"`
	EntryID      string    `json:"entry_id"`
	GlobalID     string    `json:"global_id"`
	ActivityType string    `json:"activity_type"`
	Response     string    `json:"response,omitempty"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// LoadSyncState returns the service's row, or nil if it has never synced.
func LoadSyncState(db *sql.DB, service string) (*SyncState, error) {
	state := SyncState{Service: service}
	var lastSync sql.NullTime

	err := db.QueryRow(`
		SELECT status, last_sync_time, COALESCE(last_item_key, ''), COALESCE(error_message, ''), updated_at
		FROM sync_state WHERE service = ?
	`, service).Scan(&state.Status, &lastSync, &state.LastItemKey, &state.LastError, &state.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to load sync state: %w", err)
	}

	if lastSync.Valid {
		state.LastSyncAt = lastSync.Time
	}
	return &state, nil
}

// SetSyncStatus moves service to status. An empty lastError clears it.
func SetSyncStatus(db *sql.DB, service, status, lastError string) error {
	_, err := db.Exec(`
		INSERT INTO sync_state (service, status, error_message)
		VALUES (?, ?, NULLIF(?, ''))
		ON CONFLICT(service) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, service, status, lastError)
	if err != nil {
		return fmt.Errorf("failed to set sync status %q: %w", status, err)
	}
	return nil
}

// MarkSynced stamps the last submitted item and returns service to idle.
func MarkSynced(db *sql.DB, service, itemKey string) error {
	_, err := db.Exec(`
		INSERT INTO sync_state (service, status, last_sync_time, last_item_key)
		VALUES (?, 'idle', CURRENT_TIMESTAMP, ?)
		ON CONFLICT(service) DO UPDATE SET
			status = 'idle',
			last_sync_time = CURRENT_TIMESTAMP,
			last_item_key = excluded.last_item_key,
			error_message = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, service, itemKey)
	if err != nil {
		return fmt.Errorf("failed to mark synced: %w", err)
	}
	return nil
}

// CreateSubmission inserts a sync log row, assigning a ULID when ID is empty.
func CreateSubmission(db *sql.DB, sub *Submission) error {
	if sub.ID == "" {
		sub.ID = ulid.Make().String()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}

	_, err := db.Exec(`
		INSERT INTO sync_log (id, item_key, entry_id, global_id, activity_type, response, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sub.ID, sub.ItemKey, sub.EntryID, sub.GlobalID, sub.ActivityType, sub.Response, sub.SubmittedAt)

	if err != nil {
		return fmt.Errorf("failed to create sync log: %w", err)
	}

	return nil
}

// CountSubmissions returns how many times an item has been submitted.
func CountSubmissions(db *sql.DB, itemKey string) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM sync_log WHERE item_key = ?`, itemKey).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count, nil
}

// RecentSubmissions returns the newest submissions first.
func RecentSubmissions(db *sql.DB, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := db.Query(`
		SELECT id, item_key, entry_id, global_id, activity_type, response, submitted_at
		FROM sync_log
		ORDER BY submitted_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []Submission
	for rows.Next() {
		var sub Submission
		var response sql.NullString
		if err := rows.Scan(&sub.ID, &sub.ItemKey, &sub.EntryID, &sub.GlobalID, &sub.ActivityType, &response, &sub.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		sub.Response = response.String
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}

	return subs, nil
}

// Ledger records submit progress for the Timeline service.
type Ledger struct {
	db *sql.DB
}

// NewLedger wraps db for submit bookkeeping.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) Begin() error {
	return SetSyncStatus(l.db, TimelineService, StatusSyncing, "")
}

func (l *Ledger) Fail(message string) error {
	return SetSyncStatus(l.db, TimelineService, StatusError, message)
}

// Complete logs the submission and returns the service to idle.
func (l *Ledger) Complete(sub Submission) error {
	if err := CreateSubmission(l.db, &sub); err != nil {
		return err
	}
	return MarkSynced(l.db, TimelineService, sub.ItemKey)
}
