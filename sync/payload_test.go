// ABOUTME: Tests for Timeline payload normalization
// ABOUTME: Covers organizer parsing, date layout, body sanitizing, PTO override and JSON shape
package sync

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/timeline/models"
)

func TestParseOrganizer(t *testing.T) {
	tests := []struct {
		name      string
		organizer string
		want      Author
	}{
		{"empty", "", Author{Alias: "no alias", FirstName: "External", LastName: "External"}},
		{"email", "jane.doe@example.com", Author{Alias: "jane.doe@example.com", FirstName: "", LastName: "jane.doe"}},
		{"display name", "Jane Doe", Author{Alias: "no alias", FirstName: "Jane", LastName: "Doe"}},
		{"three tokens", "Mary Ann Smith", Author{Alias: "no alias", FirstName: "Mary", LastName: "Ann Smith"}},
		{"single token", "Reception", Author{Alias: "no alias", FirstName: "External", LastName: "Reception"}},
		{"double space keeps empty token", "Jane  Doe", Author{Alias: "no alias", FirstName: "Jane", LastName: " Doe"}},
		{"display name with at sign", "Team @ HQ", Author{Alias: "Team @ HQ", FirstName: "", LastName: "Team "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOrganizer(tt.organizer))
		})
	}
}

func TestFormatDate(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	ts := time.Date(2025, 3, 3, 8, 5, 9, 999, time.UTC)

	assert.Equal(t, "03/03/2025 08:05:09", FormatDate(ts, time.UTC))
	assert.Equal(t, "03/03/2025 09:05:09", FormatDate(ts, berlin))
	assert.Equal(t, "", FormatDate(time.Time{}, time.UTC))

	newYear := time.Date(2024, 12, 31, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "01/01/2025 00:30:00", FormatDate(newYear, berlin))
}

func TestSanitizeBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"quotes braces and newline", "He said \"hi\"\n{x}", "He said  hi   x "},
		{"crlf run collapses", "a\r\n\r\nb", "a b"},
		{"brackets", "[1,2]", " 1,2 "},
		{"plain", "nothing to do", "nothing to do"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeBody(tt.body))
		})
	}
}

func TestSanitizeBodyTruncates(t *testing.T) {
	long := strings.Repeat("x", 300)
	assert.Len(t, SanitizeBody(long), MaxNoteLength)

	// é is one UTF-16 unit but two bytes.
	accented := strings.Repeat("é", 300)
	got := SanitizeBody(accented)
	assert.Equal(t, MaxNoteLength, len(utf16.Encode([]rune(got))))

	// An emoji is two units; one straddling the limit is dropped whole.
	straddle := strings.Repeat("a", 254) + "😀" + "tail"
	got = SanitizeBody(straddle)
	assert.Equal(t, strings.Repeat("a", 254), got)
}

func fixedClock() time.Time {
	return time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 7200))
}

func sampleRecord() models.AppointmentRecord {
	return models.AppointmentRecord{
		Subject:         "Quarterly review",
		Location:        "Room 4",
		Body:            "Agenda:\n- \"numbers\"",
		Start:           time.Date(2025, 3, 3, 9, 15, 0, 0, time.UTC),
		End:             time.Date(2025, 3, 3, 10, 15, 0, 0, time.UTC),
		Organizer:       "jane.doe@example.com",
		EntryID:         "AAMk-1",
		GlobalID:        "event-123@example.com",
		ActivityType:    "Customer Meeting",
		EngagementType:  "Demo",
		CustomerEvent:   "Acme kickoff",
		OnSite:          true,
		CustInteraction: false,
		CLevel:          true,
	}
}

func TestNormalize(t *testing.T) {
	p := Normalize(sampleRecord(), "owner@example.com", WithClock(fixedClock), WithLocation(time.UTC))

	assert.Equal(t, "AAMk-1", p.EntryID)
	assert.Equal(t, "event-123@example.com", p.GlobalID)
	assert.Equal(t, "jane.doe@example.com", p.Organizer)
	assert.Equal(t, "jane.doe@example.com", p.AuthorAlias)
	assert.Equal(t, "", p.AuthorFirstname)
	assert.Equal(t, "jane.doe", p.AuthorLastname)
	assert.Equal(t, "owner@example.com", p.OwnerEmail)
	assert.Equal(t, "Acme kickoff", p.Subject, "customer event is the outgoing subject")
	assert.Equal(t, "03/03/2025 09:15:00", p.Start)
	assert.Equal(t, "03/03/2025 10:15:00", p.End)
	assert.Equal(t, "Room 4", p.Location)
	assert.Equal(t, "2025-03-01T10:00:00Z", p.CreationTime)
	assert.Equal(t, "Customer Meeting", p.ActivityType)
	assert.Equal(t, "Demo", p.EngagementType)
	assert.Equal(t, "true", p.OnSite)
	assert.Equal(t, "false", p.CustInteraction)
	assert.Equal(t, "true", p.Clevel)
	assert.Equal(t, "Agenda: -  numbers ", p.Note)
}

func TestNormalizeSubjectFallsBackToItemSubject(t *testing.T) {
	record := sampleRecord()
	record.CustomerEvent = ""

	p := Normalize(record, "owner@example.com", WithClock(fixedClock))
	assert.Equal(t, "Quarterly review", p.Subject)
}

func TestNormalizePTOOverride(t *testing.T) {
	record := sampleRecord()
	record.ActivityType = models.ActivityPTO
	record.CustomerEvent = "Client visit"
	record.EngagementType = "Workshop"

	p := Normalize(record, "owner@example.com", WithClock(fixedClock))
	assert.Equal(t, "Personal Time OFF", p.Subject)
	assert.Equal(t, "", p.EngagementType)
	assert.Equal(t, "PTO", p.ActivityType)
}

func TestNormalizeFlagsAreStrings(t *testing.T) {
	for _, flags := range [][3]bool{{false, false, false}, {true, true, true}, {true, false, true}} {
		record := models.AppointmentRecord{OnSite: flags[0], CustInteraction: flags[1], CLevel: flags[2]}
		text, err := Marshal(Normalize(record, "", WithClock(fixedClock)))
		require.NoError(t, err)

		var raw map[string]any
		require.NoError(t, json.Unmarshal([]byte(text), &raw))
		for _, key := range []string{"OnSite", "CustInteraction", "Clevel"} {
			v, ok := raw[key].(string)
			require.True(t, ok, "%s must be a JSON string, got %T", key, raw[key])
			assert.Contains(t, []string{"true", "false"}, v)
		}
	}
}

func TestNormalizeEmptyOrganizer(t *testing.T) {
	record := sampleRecord()
	record.Organizer = ""

	p := Normalize(record, "owner@example.com", WithClock(fixedClock))
	assert.Equal(t, "", p.Organizer)
	assert.Equal(t, "no alias", p.AuthorAlias)
	assert.Equal(t, "External", p.AuthorFirstname)
	assert.Equal(t, "External", p.AuthorLastname)
}

func TestMarshalKeepsMarkupUnescaped(t *testing.T) {
	record := sampleRecord()
	record.Location = "R&D <lab>"

	text, err := Marshal(Normalize(record, "owner@example.com", WithClock(fixedClock)))
	require.NoError(t, err)
	assert.Contains(t, text, `"Location":"R&D <lab>"`)
	assert.True(t, strings.HasPrefix(text, `{"EntryID":"AAMk-1","globalID":"event-123@example.com"`))
	assert.False(t, strings.HasSuffix(text, "\n"))
}
