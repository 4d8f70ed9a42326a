// ABOUTME: Resolves a source argument to an appointment item and its property store
// ABOUTME: Handles .ics files, .eml invites and google:<eventID> references
package sync

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harperreed/timeline/charm"
	"github.com/harperreed/timeline/db"
	"github.com/harperreed/timeline/mailitem"
)

// Source is an opened appointment with the bag holding its classification.
type Source struct {
	Item  mailitem.Item
	Store mailitem.PropertyStore
}

// Opener opens sources. File items keep properties in the configured
// backend; Google events keep them in their extended properties.
type Opener struct {
	DB       *sql.DB
	Backend  string
	Charm    func() (*charm.Client, error)
	Calendar func(ctx context.Context) (*calendar.Service, error)
	// Location reads floating file times; it should match the zone dates
	// are rendered in. Nil means time.Local.
	Location *time.Location
}

// Open resolves source.
func (o *Opener) Open(ctx context.Context, source string) (*Source, error) {
	if eventID, ok := ParseGoogleSource(source); ok {
		return o.openGoogle(ctx, eventID)
	}

	var item mailitem.Item
	var err error
	switch strings.ToLower(filepath.Ext(source)) {
	case ".ics", ".ical":
		item, err = mailitem.OpenICS(source, mailitem.WithFloatingLocation(o.Location))
	case ".eml":
		item, err = mailitem.OpenEML(source, mailitem.WithFloatingLocation(o.Location))
	default:
		return nil, fmt.Errorf("unsupported source %q (expected .ics, .eml or google:<eventID>)", source)
	}
	if err != nil {
		return nil, err
	}

	store, err := o.propertyStore(ctx, item.Key())
	if err != nil {
		return nil, err
	}
	return &Source{Item: item, Store: store}, nil
}

func (o *Opener) openGoogle(ctx context.Context, eventID string) (*Source, error) {
	if o.Calendar == nil {
		return nil, fmt.Errorf("google calendar is not configured")
	}
	svc, err := o.Calendar(ctx)
	if err != nil {
		return nil, err
	}

	item, err := OpenGoogleItem(ctx, svc, "primary", eventID)
	if err != nil {
		return nil, err
	}
	return &Source{Item: item, Store: item.Properties()}, nil
}

func (o *Opener) propertyStore(ctx context.Context, itemKey string) (mailitem.PropertyStore, error) {
	switch o.Backend {
	case BackendCharm:
		if o.Charm == nil {
			return nil, fmt.Errorf("charm backend is not configured")
		}
		client, err := o.Charm()
		if err != nil {
			return nil, fmt.Errorf("failed to open charm backend: %w", err)
		}
		return charm.LoadPropertyBag(client, itemKey)
	case BackendSQLite, "":
		if o.DB == nil {
			return nil, fmt.Errorf("database is not open")
		}
		return db.LoadPropertyBag(ctx, o.DB, itemKey)
	default:
		return nil, fmt.Errorf("unknown property backend %q", o.Backend)
	}
}
