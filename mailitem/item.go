// ABOUTME: Collaborator interfaces for the host mail item
// ABOUTME: Property bag, item accessor, header lookup, identifier save and user profile
package mailitem

import (
	"context"
	"strings"
	"time"
)

// PropertyStore is the custom property bag of a single item.
// Set only stages a value; Save persists everything staged.
type PropertyStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Save(ctx context.Context) error
}

// Organizer is who the item says organized the appointment.
type Organizer struct {
	EmailAddress string
	DisplayName  string
}

// String prefers the email address over the display name.
func (o Organizer) String() string {
	if o.EmailAddress != "" {
		return o.EmailAddress
	}
	return o.DisplayName
}

// Accessor reads appointment fields from an item.
type Accessor interface {
	Subject(ctx context.Context) (string, error)
	Location(ctx context.Context) (string, error)
	Start(ctx context.Context) (time.Time, error)
	End(ctx context.Context) (time.Time, error)
	Organizer(ctx context.Context) (Organizer, error)
	Body(ctx context.Context) (string, error)
}

// HeaderLookup exposes the item's internet headers.
type HeaderLookup interface {
	AllHeaders(ctx context.Context) (Headers, error)
}

// Saver gives access to the host-assigned item identifier.
// ItemID is empty until the item has been saved at least once.
type Saver interface {
	ItemID() string
	Save(ctx context.Context) (string, error)
}

// Item is everything a sync needs from one appointment.
// Key identifies the item locally and scopes its property bag.
type Item interface {
	Key() string
	Accessor
	HeaderLookup
	Saver
}

// UserProfile describes the mailbox owner.
type UserProfile interface {
	EmailAddress(ctx context.Context) (string, error)
}

// StaticProfile is a UserProfile with a fixed address.
type StaticProfile string

// EmailAddress returns the configured address.
func (p StaticProfile) EmailAddress(context.Context) (string, error) {
	return string(p), nil
}

// Headers maps header names to their first value.
type Headers map[string]string

// Get returns the named header. Exact matches win; otherwise the name is
// compared case-insensitively.
func (h Headers) Get(name string) (string, bool) {
	if v, ok := h[name]; ok {
		return v, true
	}
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
