// ABOUTME: Migration utility for moving saved classifications between property backends
// ABOUTME: Copies every item's properties from SQLite to Charm KV or back, with dry-run and backup

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/harperreed/timeline/charm"
	"github.com/harperreed/timeline/db"
	"github.com/harperreed/timeline/logging"
	"github.com/harperreed/timeline/mailitem"
	"github.com/harperreed/timeline/models"
	"github.com/harperreed/timeline/sync"
)

// backend enumerates and opens per-item property bags.
type backend interface {
	Name() string
	Keys(ctx context.Context) ([]string, error)
	Open(ctx context.Context, itemKey string) (mailitem.PropertyStore, error)
}

type sqliteBackend struct{ db *sql.DB }

func (b sqliteBackend) Name() string { return sync.BackendSQLite }

func (b sqliteBackend) Keys(ctx context.Context) ([]string, error) {
	return db.PropertyItemKeys(ctx, b.db)
}

func (b sqliteBackend) Open(ctx context.Context, itemKey string) (mailitem.PropertyStore, error) {
	return db.LoadPropertyBag(ctx, b.db, itemKey)
}

type charmBackend struct{ client *charm.Client }

func (b charmBackend) Name() string { return sync.BackendCharm }

func (b charmBackend) Keys(context.Context) ([]string, error) {
	return charm.PropertyItemKeys(b.client)
}

func (b charmBackend) Open(_ context.Context, itemKey string) (mailitem.PropertyStore, error) {
	return charm.LoadPropertyBag(b.client, itemKey)
}

func main() {
	dbPath := flag.String("db", db.DefaultPath(), "Path to database file")
	to := flag.String("to", "", "Destination backend: sqlite or charm (required)")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Back up the database before writing to it")
	flag.Parse()

	log := logging.Default()

	if *to != sync.BackendSQLite && *to != sync.BackendCharm {
		log.Fatal("-to must be sqlite or charm")
	}

	if *backup && !*dryRun && *to == sync.BackendSQLite {
		if err := backupFile(*dbPath); err != nil {
			log.Fatal("backup failed", "err", err)
		}
	}

	database, err := db.OpenDatabase(*dbPath)
	if err != nil {
		log.Fatal("failed to open database", "err", err)
	}
	defer func() { _ = database.Close() }()

	client, err := charm.GetClient()
	if err != nil {
		log.Fatal("failed to open charm KV", "err", err)
	}

	var from, dest backend = sqliteBackend{database}, charmBackend{client}
	if *to == sync.BackendSQLite {
		from, dest = dest, from
	}

	copied, err := migrate(context.Background(), from, dest, *dryRun)
	if err != nil {
		log.Fatal("migration failed", "err", err)
	}

	log.Info("migration completed", "from", from.Name(), "to", dest.Name(), "items", copied, "dry_run", *dryRun)
	if !*dryRun {
		log.Info("set property_backend to use it", "command", "timeline config set --backend "+dest.Name())
	}
}

func backupFile(path string) error {
	input, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read database: %w", err)
	}

	backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
	if err := os.WriteFile(backupPath, input, 0600); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	logging.Default().Info("backup created", "path", backupPath)
	return nil
}

// migrate copies the classification properties of every item in from into
// dest, overwriting what dest holds for the same names. It returns the
// number of items copied.
func migrate(ctx context.Context, from, dest backend, dryRun bool) (int, error) {
	log := logging.Default()

	keys, err := from.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list %s items: %w", from.Name(), err)
	}

	copied := 0
	for _, key := range keys {
		src, err := from.Open(ctx, key)
		if err != nil {
			return copied, fmt.Errorf("failed to read %s: %w", key, err)
		}

		if dryRun {
			log.Info("[DRY RUN] would copy", "item", key)
			copied++
			continue
		}

		dst, err := dest.Open(ctx, key)
		if err != nil {
			return copied, fmt.Errorf("failed to open %s in %s: %w", key, dest.Name(), err)
		}
		for _, name := range models.PropertyNames {
			if v, ok := src.Get(name); ok {
				dst.Set(name, v)
			}
		}
		if err := dst.Save(ctx); err != nil {
			return copied, fmt.Errorf("failed to save %s: %w", key, err)
		}
		copied++
	}

	return copied, nil
}
