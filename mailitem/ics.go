// ABOUTME: Appointment item backed by an iCalendar (.ics) file
// ABOUTME: Reads the first VEVENT and persists a minted entry ID back into the file
package mailitem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"
	"github.com/google/uuid"
)

// PropEntryID holds the identifier minted by Save.
const PropEntryID = "X-TIMELINE-ENTRY-ID"

// ErrNoEvent is returned when a calendar carries no VEVENT.
var ErrNoEvent = errors.New("no VEVENT found")

// ICSItem is an appointment read from a .ics file.
type ICSItem struct {
	path  string
	cal   *ical.Calendar
	event *ical.Component
	loc   *time.Location
}

// ParseOption adjusts how calendar data is read.
type ParseOption func(*parseOptions)

type parseOptions struct {
	loc *time.Location
}

// WithFloatingLocation sets the zone for date-times that carry neither a
// UTC marker nor a TZID. The default is time.Local.
func WithFloatingLocation(loc *time.Location) ParseOption {
	return func(o *parseOptions) {
		if loc != nil {
			o.loc = loc
		}
	}
}

func buildParseOptions(opts []ParseOption) parseOptions {
	o := parseOptions{loc: time.Local}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// OpenICS parses the file at path.
func OpenICS(path string, opts ...ParseOption) (*ICSItem, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open calendar file: %w", err)
	}
	defer func() { _ = f.Close() }()

	item, err := ParseICS(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", abs, err)
	}
	item.path = abs
	return item, nil
}

// ParseICS reads a calendar from r. The returned item has no backing file,
// so Save mints an identifier without persisting it.
func ParseICS(r io.Reader, opts ...ParseOption) (*ICSItem, error) {
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		return nil, err
	}

	event := firstEvent(cal)
	if event == nil {
		return nil, ErrNoEvent
	}

	return &ICSItem{cal: cal, event: event, loc: buildParseOptions(opts).loc}, nil
}

func firstEvent(cal *ical.Calendar) *ical.Component {
	for _, child := range cal.Children {
		if child.Name == ical.CompEvent {
			return child
		}
	}
	return nil
}

// Key is the absolute file path, or the event UID for in-memory calendars.
func (i *ICSItem) Key() string {
	if i.path != "" {
		return i.path
	}
	return i.text(ical.PropUID)
}

func (i *ICSItem) text(name string) string {
	prop := i.event.Props.Get(name)
	if prop == nil {
		return ""
	}
	v, err := prop.Text()
	if err != nil {
		return prop.Value
	}
	return v
}

func (i *ICSItem) Subject(context.Context) (string, error)  { return i.text(ical.PropSummary), nil }
func (i *ICSItem) Location(context.Context) (string, error) { return i.text(ical.PropLocation), nil }
func (i *ICSItem) Body(context.Context) (string, error)     { return i.text(ical.PropDescription), nil }

func (i *ICSItem) Start(context.Context) (time.Time, error) {
	return i.dateTime(ical.PropDateTimeStart)
}

func (i *ICSItem) End(context.Context) (time.Time, error) {
	return i.dateTime(ical.PropDateTimeEnd)
}

func (i *ICSItem) dateTime(name string) (time.Time, error) {
	prop := i.event.Props.Get(name)
	if prop == nil {
		return time.Time{}, nil
	}
	t, err := parseDateTime(i.cal, prop, i.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return t, nil
}

// Organizer reads ORGANIZER;CN=...:mailto:...
func (i *ICSItem) Organizer(context.Context) (Organizer, error) {
	return parseOrganizerProp(i.event.Props.Get(ical.PropOrganizer)), nil
}

func parseOrganizerProp(prop *ical.Prop) Organizer {
	if prop == nil {
		return Organizer{}
	}
	var org Organizer
	if strings.HasPrefix(strings.ToLower(prop.Value), "mailto:") {
		org.EmailAddress = prop.Value[len("mailto:"):]
	}
	org.DisplayName = prop.Params.Get("CN")
	return org
}

// AllHeaders exposes the event UID under the UID header name.
func (i *ICSItem) AllHeaders(context.Context) (Headers, error) {
	headers := Headers{}
	if uid := i.text(ical.PropUID); uid != "" {
		headers["UID"] = uid
	}
	return headers, nil
}

// ItemID is the identifier minted by a previous Save.
func (i *ICSItem) ItemID() string {
	return i.text(PropEntryID)
}

// Save mints an entry identifier and writes it into the file.
func (i *ICSItem) Save(context.Context) (string, error) {
	if id := i.ItemID(); id != "" {
		return id, nil
	}

	id := uuid.New().String()
	i.event.Props.SetText(PropEntryID, id)

	if i.path == "" {
		return id, nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(i.cal); err != nil {
		delete(i.event.Props, PropEntryID)
		return "", fmt.Errorf("failed to encode calendar: %w", err)
	}

	tmp := i.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0600); err != nil {
		delete(i.event.Props, PropEntryID)
		return "", fmt.Errorf("failed to write calendar: %w", err)
	}
	if err := os.Rename(tmp, i.path); err != nil {
		_ = os.Remove(tmp)
		delete(i.event.Props, PropEntryID)
		return "", fmt.Errorf("failed to replace calendar: %w", err)
	}

	return id, nil
}
