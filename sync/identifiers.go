// ABOUTME: Entry and global identifier resolution for an appointment item
// ABOUTME: Saves the item once when it has no entry ID; reads UID headers for the global ID
package sync

import (
	"context"

	"github.com/harperreed/timeline/logging"
	"github.com/harperreed/timeline/mailitem"
)

// Header names that may carry the cross-system calendar UID, in priority order.
var globalIDHeaders = []string{"UID", "vcal-uid"}

// ResolveEntryID returns the item's identifier, saving the item once to
// obtain one if needed. A failed save yields an empty identifier.
func ResolveEntryID(ctx context.Context, item mailitem.Saver) string {
	if id := item.ItemID(); id != "" {
		return id
	}

	id, err := item.Save(ctx)
	if err != nil {
		logging.Default().Warn("item save did not produce an entry id", "err", err)
		return ""
	}
	return id
}

// ResolveGlobalID returns the first UID header present, or entryID.
func ResolveGlobalID(ctx context.Context, lookup mailitem.HeaderLookup, entryID string) string {
	headers, err := lookup.AllHeaders(ctx)
	if err != nil {
		logging.Default().Warn("header lookup failed", "err", err)
		return entryID
	}

	for _, name := range globalIDHeaders {
		if v, ok := headers.Get(name); ok && v != "" {
			return v
		}
	}
	return entryID
}
