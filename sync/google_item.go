// ABOUTME: Google Calendar events as appointment items
// ABOUTME: Reads event fields, keeps classification in private extended properties
package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harperreed/timeline/mailitem"
)

// GoogleSourcePrefix marks a source argument as a Google Calendar event ID.
const GoogleSourcePrefix = "google:"

const allDayLayout = "2006-01-02"

// GoogleItem is a Calendar event. Its entry ID is the event ID and its UID
// header is the iCalUID.
type GoogleItem struct {
	svc        *calendar.Service
	calendarID string
	event      *calendar.Event
}

// OpenGoogleItem fetches eventID from calendarID ("primary" when empty).
func OpenGoogleItem(ctx context.Context, svc *calendar.Service, calendarID, eventID string) (*GoogleItem, error) {
	if calendarID == "" {
		calendarID = "primary"
	}

	event, err := svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event %s: %w", eventID, err)
	}

	return &GoogleItem{svc: svc, calendarID: calendarID, event: event}, nil
}

// Event returns the underlying calendar event.
func (g *GoogleItem) Event() *calendar.Event {
	return g.event
}

func (g *GoogleItem) Key() string {
	return GoogleSourcePrefix + g.event.Id
}

func (g *GoogleItem) Subject(context.Context) (string, error)  { return g.event.Summary, nil }
func (g *GoogleItem) Location(context.Context) (string, error) { return g.event.Location, nil }
func (g *GoogleItem) Body(context.Context) (string, error)     { return g.event.Description, nil }

func (g *GoogleItem) Start(context.Context) (time.Time, error) {
	return eventTime(g.event.Start)
}

func (g *GoogleItem) End(context.Context) (time.Time, error) {
	return eventTime(g.event.End)
}

func eventTime(dt *calendar.EventDateTime) (time.Time, error) {
	if dt == nil {
		return time.Time{}, nil
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse event time %q: %w", dt.DateTime, err)
		}
		return t, nil
	}
	if dt.Date != "" {
		loc := time.Local
		if dt.TimeZone != "" {
			if l, err := time.LoadLocation(dt.TimeZone); err == nil {
				loc = l
			}
		}
		t, err := time.ParseInLocation(allDayLayout, dt.Date, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse event date %q: %w", dt.Date, err)
		}
		return t, nil
	}
	return time.Time{}, nil
}

func (g *GoogleItem) Organizer(context.Context) (mailitem.Organizer, error) {
	if g.event.Organizer == nil {
		return mailitem.Organizer{}, nil
	}
	return mailitem.Organizer{
		EmailAddress: g.event.Organizer.Email,
		DisplayName:  g.event.Organizer.DisplayName,
	}, nil
}

func (g *GoogleItem) AllHeaders(context.Context) (mailitem.Headers, error) {
	headers := mailitem.Headers{}
	if g.event.ICalUID != "" {
		headers["UID"] = g.event.ICalUID
	}
	return headers, nil
}

func (g *GoogleItem) ItemID() string {
	return g.event.Id
}

// Save inserts the event when it has never been stored.
func (g *GoogleItem) Save(ctx context.Context) (string, error) {
	if g.event.Id != "" {
		return g.event.Id, nil
	}

	created, err := g.svc.Events.Insert(g.calendarID, g.event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to insert event: %w", err)
	}
	g.event = created
	return created.Id, nil
}

// Properties returns the event's private extended properties as a store.
func (g *GoogleItem) Properties() *EventProperties {
	return &EventProperties{item: g, staged: make(map[string]string)}
}

// EventProperties is a PropertyStore over private extended properties.
type EventProperties struct {
	item   *GoogleItem
	staged map[string]string
}

func (p *EventProperties) Get(key string) (string, bool) {
	if v, ok := p.staged[key]; ok {
		return v, true
	}
	ext := p.item.event.ExtendedProperties
	if ext == nil || ext.Private == nil {
		return "", false
	}
	v, ok := ext.Private[key]
	return v, ok
}

func (p *EventProperties) Set(key, value string) {
	p.staged[key] = value
}

// Save patches staged values into the event.
func (p *EventProperties) Save(ctx context.Context) error {
	if len(p.staged) == 0 {
		return nil
	}
	if p.item.event.Id == "" {
		return fmt.Errorf("event has no id")
	}

	patch := &calendar.Event{
		ExtendedProperties: &calendar.EventExtendedProperties{Private: p.staged},
	}
	updated, err := p.item.svc.Events.Patch(p.item.calendarID, p.item.event.Id, patch).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to patch event properties: %w", err)
	}

	p.item.event = updated
	p.staged = make(map[string]string)
	return nil
}

// GoogleProfile reports the owner as the primary calendar's ID, which is
// the account's email address.
type GoogleProfile struct {
	svc *calendar.Service
}

// NewGoogleProfile wraps svc.
func NewGoogleProfile(svc *calendar.Service) *GoogleProfile {
	return &GoogleProfile{svc: svc}
}

func (p *GoogleProfile) EmailAddress(ctx context.Context) (string, error) {
	cal, err := p.svc.Calendars.Get("primary").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to read primary calendar: %w", err)
	}
	return cal.Id, nil
}

// ParseGoogleSource returns the event ID for a "google:<id>" source.
func ParseGoogleSource(source string) (string, bool) {
	id, ok := strings.CutPrefix(source, GoogleSourcePrefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
