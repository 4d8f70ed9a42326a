// ABOUTME: Tests for sync state and submission log operations
// ABOUTME: Covers status transitions, ledger bookkeeping and recent submissions
package db

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, InitSchema(db))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLoadSyncStateMissing(t *testing.T) {
	db := setupTestDB(t)

	state, err := LoadSyncState(db, TimelineService)
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestSetSyncStatus(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, SetSyncStatus(db, TimelineService, StatusSyncing, ""))
	state, err := LoadSyncState(db, TimelineService)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, TimelineService, state.Service)
	assert.Equal(t, StatusSyncing, state.Status)
	assert.Empty(t, state.LastError)
	assert.True(t, state.LastSyncAt.IsZero())

	require.NoError(t, SetSyncStatus(db, TimelineService, StatusError, "Error: 500 - boom"))
	state, err = LoadSyncState(db, TimelineService)
	require.NoError(t, err)
	assert.Equal(t, StatusError, state.Status)
	assert.Equal(t, "Error: 500 - boom", state.LastError)
}

func TestSetSyncStatusRejectsUnknownStatus(t *testing.T) {
	db := setupTestDB(t)
	assert.Error(t, SetSyncStatus(db, TimelineService, "paused", ""))
}

func TestLedgerLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)

	require.NoError(t, ledger.Begin())
	require.NoError(t, ledger.Fail("Error: offline"))

	require.NoError(t, ledger.Begin())
	require.NoError(t, ledger.Complete(Submission{
		ItemKey:      "/tmp/review.ics",
		EntryID:      "AAMk-1",
		GlobalID:     "event-123@example.com",
		ActivityType: "Customer Meeting",
		Response:     "accepted",
	}))

	state, err := LoadSyncState(db, TimelineService)
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, state.Status)
	assert.Empty(t, state.LastError, "completion clears the previous error")
	assert.Equal(t, "/tmp/review.ics", state.LastItemKey)
	assert.False(t, state.LastSyncAt.IsZero())

	count, err := CountSubmissions(db, "/tmp/review.ics")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecentSubmissions(t *testing.T) {
	db := setupTestDB(t)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, key := range []string{"a.ics", "b.ics", "c.ics"} {
		sub := &Submission{
			ItemKey:      key,
			EntryID:      "entry-" + key,
			GlobalID:     "global-" + key,
			ActivityType: "Training",
			SubmittedAt:  base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, CreateSubmission(db, sub))
		assert.Len(t, sub.ID, 26, "ULID assigned")
	}

	subs, err := RecentSubmissions(db, 2)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "c.ics", subs[0].ItemKey)
	assert.Equal(t, "b.ics", subs[1].ItemKey)
	assert.Equal(t, "global-c.ics", subs[0].GlobalID)
}
