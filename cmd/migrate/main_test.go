// ABOUTME: Tests for the property backend migration tool
// ABOUTME: Copies between a temp SQLite database and a badger-backed charm client
package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harperreed/timeline/charm"
	"github.com/harperreed/timeline/db"
	"github.com/harperreed/timeline/form"
	"github.com/harperreed/timeline/models"
)

func setupBackends(t *testing.T) (sqliteBackend, charmBackend) {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "timeline.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return sqliteBackend{database}, charmBackend{charm.NewTestClient(t)}
}

func TestMigrateSQLiteToCharm(t *testing.T) {
	from, dest := setupBackends(t)
	ctx := context.Background()

	state := models.FormState{ActivityType: "Training", EngagementType: "Workshop", CustomerEventText: "Acme", CLevel: true}
	for _, key := range []string{"/tmp/review.ics", "google:evt1"} {
		bag, err := from.Open(ctx, key)
		if err != nil {
			t.Fatal(err)
		}
		if err := form.Save(ctx, bag, state); err != nil {
			t.Fatal(err)
		}
	}

	copied, err := migrate(ctx, from, dest, false)
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if copied != 2 {
		t.Errorf("expected 2 items copied, got %d", copied)
	}

	bag, err := dest.Open(ctx, "google:evt1")
	if err != nil {
		t.Fatal(err)
	}
	if got := form.Load(bag); got != state {
		t.Errorf("expected %+v after migration, got %+v", state, got)
	}
}

func TestMigrateDryRunWritesNothing(t *testing.T) {
	from, dest := setupBackends(t)
	ctx := context.Background()

	bag, err := dest.Open(ctx, "a.ics")
	if err != nil {
		t.Fatal(err)
	}
	bag.Set(models.PropActivityType, "PTO")
	if err := bag.Save(ctx); err != nil {
		t.Fatal(err)
	}

	copied, err := migrate(ctx, dest, from, true)
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if copied != 1 {
		t.Errorf("expected 1 item reported, got %d", copied)
	}

	keys, err := from.Keys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Errorf("dry run should not write, found %v", keys)
	}
}

func TestBackupFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "timeline.db")

	if err := backupFile(path); err != nil {
		t.Fatalf("missing database should not fail: %v", err)
	}

	if err := os.WriteFile(path, []byte("data"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := backupFile(path); err != nil {
		t.Fatalf("backup failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "timeline.db.backup.") {
			found = true
		}
	}
	if !found {
		t.Error("expected a backup file")
	}
}
