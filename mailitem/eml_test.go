// ABOUTME: Tests for the meeting invite (.eml) appointment item
// ABOUTME: Verifies header exposure, calendar part parsing and body fallback
package mailitem

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleInvite = "From: Jane Doe <jane.doe@example.com>\r\n" +
	"To: owner@example.com\r\n" +
	"Subject: Invitation: Quarterly review\r\n" +
	"Message-Id: <msg-42@example.com>\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=\"b1\"\r\n" +
	"\r\n" +
	"--b1\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Please join the review.\r\n" +
	"--b1\r\n" +
	"Content-Type: text/calendar; method=REQUEST; charset=utf-8\r\n" +
	"\r\n" +
	sampleICS +
	"--b1--\r\n"

func TestParseEMLInvite(t *testing.T) {
	ctx := context.Background()
	item, err := ParseEML(strings.NewReader(sampleInvite))
	require.NoError(t, err)

	subject, _ := item.Subject(ctx)
	assert.Equal(t, "Invitation: Quarterly review", subject)

	location, _ := item.Location(ctx)
	assert.Equal(t, "Room 4", location)

	start, err := item.Start(ctx)
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2025, 3, 3, 9, 15, 0, 0, time.UTC)))

	body, _ := item.Body(ctx)
	assert.Contains(t, body, "Please join the review.")

	org, _ := item.Organizer(ctx)
	assert.Equal(t, "jane.doe@example.com", org.String())

	assert.Equal(t, "msg-42@example.com", item.ItemID())
	assert.Equal(t, "msg-42@example.com", item.Key())

	headers, err := item.AllHeaders(ctx)
	require.NoError(t, err)
	uid, ok := headers.Get("vcal-uid")
	assert.True(t, ok)
	assert.Equal(t, "event-123@example.com", uid)
	_, ok = headers.Get("UID")
	assert.False(t, ok, "the message itself carries no UID header")

	subj, ok := headers.Get("subject")
	assert.True(t, ok)
	assert.Equal(t, "Invitation: Quarterly review", subj)
}

func TestParseEMLWithoutCalendarOrMessageID(t *testing.T) {
	ctx := context.Background()
	msg := "From: Bob <bob@example.com>\r\n" +
		"Subject: Lunch\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"See you at noon.\r\n"

	item, err := ParseEML(strings.NewReader(msg))
	require.NoError(t, err)

	start, err := item.Start(ctx)
	require.NoError(t, err)
	assert.True(t, start.IsZero())

	org, _ := item.Organizer(ctx)
	assert.Equal(t, "bob@example.com", org.EmailAddress)
	assert.Equal(t, "Bob", org.DisplayName)

	assert.Empty(t, item.ItemID())
	id, err := item.Save(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, item.ItemID())
}

func TestParseEMLOutlookInvite(t *testing.T) {
	ctx := context.Background()
	invite := strings.Replace(sampleInvite, sampleICS, outlookICS, 1)

	item, err := ParseEML(strings.NewReader(invite))
	require.NoError(t, err)

	start, err := item.Start(ctx)
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2025, 3, 3, 8, 15, 0, 0, time.UTC)), "got %s", start)

	end, err := item.End(ctx)
	require.NoError(t, err)
	assert.True(t, end.Equal(time.Date(2025, 7, 1, 8, 15, 0, 0, time.UTC)), "got %s", end)
}

func TestParseEMLFloatingLocation(t *testing.T) {
	zone := time.FixedZone("test", 3600)
	floating := strings.Replace(sampleICS, "DTSTART:20250303T091500Z", "DTSTART:20250303T091500", 1)
	invite := strings.Replace(sampleInvite, sampleICS, floating, 1)

	item, err := ParseEML(strings.NewReader(invite), WithFloatingLocation(zone))
	require.NoError(t, err)

	start, err := item.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "09:15", start.In(zone).Format("15:04"))
}

func TestEMLSaveIsStable(t *testing.T) {
	ctx := context.Background()
	noMessageID := strings.Replace(sampleInvite, "Message-Id: <msg-42@example.com>\r\n", "", 1)

	save := func(msg string) string {
		t.Helper()
		item, err := ParseEML(strings.NewReader(msg))
		require.NoError(t, err)
		id, err := item.Save(ctx)
		require.NoError(t, err)
		return id
	}

	first := save(noMessageID)
	assert.Equal(t, first, save(noMessageID), "re-reading the same message keeps its identifier")

	resent := strings.Replace(noMessageID, "Please join the review.", "Updated agenda attached.", 1)
	assert.Equal(t, first, save(resent), "the calendar UID decides the identifier")

	plain := "From: Bob <bob@example.com>\r\nSubject: Lunch\r\nContent-Type: text/plain\r\n\r\nSee you at noon.\r\n"
	other := "From: Bob <bob@example.com>\r\nSubject: Dinner\r\nContent-Type: text/plain\r\n\r\nSee you at eight.\r\n"
	assert.Equal(t, save(plain), save(plain))
	assert.NotEqual(t, save(plain), save(other))
	assert.NotEqual(t, first, save(plain))
}
