// ABOUTME: Tests for Google Calendar items and extended-property storage
// ABOUTME: Serves a fake Calendar API over httptest
package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/harperreed/timeline/form"
	"github.com/harperreed/timeline/models"
)

type fakeCalendar struct {
	event   *calendar.Event
	patches []*calendar.Event
}

func (f *fakeCalendar) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/calendars/primary"):
		_ = json.NewEncoder(w).Encode(&calendar.Calendar{Id: "owner@example.com"})
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/events/"+f.event.Id):
		_ = json.NewEncoder(w).Encode(f.event)
	case r.Method == http.MethodPatch && strings.HasSuffix(r.URL.Path, "/events/"+f.event.Id):
		var patch calendar.Event
		_ = json.NewDecoder(r.Body).Decode(&patch)
		f.patches = append(f.patches, &patch)
		if f.event.ExtendedProperties == nil {
			f.event.ExtendedProperties = &calendar.EventExtendedProperties{Private: map[string]string{}}
		}
		for k, v := range patch.ExtendedProperties.Private {
			f.event.ExtendedProperties.Private[k] = v
		}
		_ = json.NewEncoder(w).Encode(f.event)
	default:
		http.NotFound(w, r)
	}
}

func newFakeCalendar(t *testing.T) (*fakeCalendar, *calendar.Service) {
	t.Helper()
	fake := &fakeCalendar{event: &calendar.Event{
		Id:          "evt1",
		ICalUID:     "evt1@google.com",
		Summary:     "Quarterly review",
		Location:    "Room 4",
		Description: "Agenda",
		Start:       &calendar.EventDateTime{DateTime: "2025-03-03T09:15:00Z"},
		End:         &calendar.EventDateTime{DateTime: "2025-03-03T10:15:00Z"},
		Organizer:   &calendar.EventOrganizer{Email: "jane.doe@example.com", DisplayName: "Jane Doe"},
	}}

	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	svc, err := calendar.NewService(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	return fake, svc
}

func TestGoogleItemAccessors(t *testing.T) {
	_, svc := newFakeCalendar(t)
	ctx := context.Background()

	item, err := OpenGoogleItem(ctx, svc, "", "evt1")
	require.NoError(t, err)

	assert.Equal(t, "google:evt1", item.Key())
	assert.Equal(t, "evt1", item.ItemID())

	subject, _ := item.Subject(ctx)
	assert.Equal(t, "Quarterly review", subject)

	start, err := item.Start(ctx)
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2025, 3, 3, 9, 15, 0, 0, time.UTC)))

	org, err := item.Organizer(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", org.String())

	headers, err := item.AllHeaders(ctx)
	require.NoError(t, err)
	assert.Equal(t, "evt1@google.com", ResolveGlobalID(ctx, item, item.ItemID()))
	assert.Len(t, headers, 1)

	id, err := item.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, "evt1", id, "stored events are not re-inserted")
}

func TestGoogleItemMissingEvent(t *testing.T) {
	_, svc := newFakeCalendar(t)

	_, err := OpenGoogleItem(context.Background(), svc, "primary", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch event missing")
}

func TestEventPropertiesRoundTrip(t *testing.T) {
	fake, svc := newFakeCalendar(t)
	ctx := context.Background()

	item, err := OpenGoogleItem(ctx, svc, "primary", "evt1")
	require.NoError(t, err)

	store := item.Properties()
	state := models.FormState{ActivityType: "Training", EngagementType: "Workshop", CustomerEventText: "Acme", CLevel: true}
	require.NoError(t, form.Save(ctx, store, state))
	require.Len(t, fake.patches, 1)
	assert.Equal(t, "true", fake.patches[0].ExtendedProperties.Private[models.PropClevel])

	reopened, err := OpenGoogleItem(ctx, svc, "primary", "evt1")
	require.NoError(t, err)
	assert.Equal(t, state, form.Load(reopened.Properties()))
}

func TestEventPropertiesEmptySaveIsNoop(t *testing.T) {
	fake, svc := newFakeCalendar(t)
	item, err := OpenGoogleItem(context.Background(), svc, "primary", "evt1")
	require.NoError(t, err)

	require.NoError(t, item.Properties().Save(context.Background()))
	assert.Empty(t, fake.patches)
}

func TestGoogleProfile(t *testing.T) {
	_, svc := newFakeCalendar(t)

	email, err := NewGoogleProfile(svc).EmailAddress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", email)
}

func TestEventTimeAllDay(t *testing.T) {
	got, err := eventTime(&calendar.EventDateTime{Date: "2025-03-03", TimeZone: "UTC"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), got)

	got, err = eventTime(nil)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = eventTime(&calendar.EventDateTime{DateTime: "tomorrow"})
	assert.Error(t, err)
}

func TestParseGoogleSource(t *testing.T) {
	id, ok := ParseGoogleSource("google:evt1")
	assert.True(t, ok)
	assert.Equal(t, "evt1", id)

	_, ok = ParseGoogleSource("google:")
	assert.False(t, ok)
	_, ok = ParseGoogleSource("invite.ics")
	assert.False(t, ok)
}
