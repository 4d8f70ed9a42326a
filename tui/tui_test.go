// ABOUTME: Tests for the task pane model
// ABOUTME: Drives key messages through Update and checks form state and sync status
package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/timeline/db"
	"github.com/harperreed/timeline/mailitem"
	"github.com/harperreed/timeline/models"
	"github.com/harperreed/timeline/sync"
)

type stubTransport struct {
	status models.Status
	bodies []string
}

func (s *stubTransport) Send(_ context.Context, body string) (models.Status, error) {
	s.bodies = append(s.bodies, body)
	return s.status, nil
}

var testActivities = []string{"Customer Meeting", "Training", models.ActivityPTO}

func testItem() *mailitem.MemoryItem {
	return &mailitem.MemoryItem{
		ItemKey:     "review.ics",
		ID:          "AAMk-1",
		SubjectText: "Quarterly review",
		StartTime:   time.Date(2025, 3, 3, 9, 15, 0, 0, time.UTC),
		EndTime:     time.Date(2025, 3, 3, 10, 15, 0, 0, time.UTC),
	}
}

func newTestModel(t *testing.T, saved map[string]string, transport sync.Transport) Model {
	t.Helper()
	if transport == nil {
		transport = &stubTransport{status: models.SuccessStatus("ok")}
	}
	return NewModel(context.Background(), Options{
		Item:       testItem(),
		Store:      mailitem.NewMemoryProperties(saved),
		Syncer:     sync.NewSyncer(transport, mailitem.StaticProfile("owner@example.com")),
		Activities: testActivities,
	})
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	return press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

var (
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keySpace = tea.KeyMsg{Type: tea.KeySpace}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
)

func TestNewModelEmpty(t *testing.T) {
	m := newTestModel(t, nil, nil)

	assert.Equal(t, models.FormState{}, m.State())
	assert.False(t, m.SyncEnabled())
	assert.Equal(t, FieldActivity, m.focus)
	assert.Contains(t, m.View(), "Quarterly review")
	assert.Contains(t, m.View(), "(choose)")
}

func TestNewModelLoadsPTO(t *testing.T) {
	m := newTestModel(t, map[string]string{
		models.PropActivityType:   models.ActivityPTO,
		models.PropEngagementType: "Demo",
		models.PropCustomerEvent:  "Vacation",
		models.PropOnSite:         "true",
	}, nil)

	d := m.Decision()
	assert.True(t, d.EngagementTypeDisabled)
	assert.True(t, d.SubmitEnabled)
	assert.Equal(t, "", m.State().EngagementType, "engagement cleared for PTO")
	assert.True(t, m.State().OnSite)
	assert.Contains(t, m.View(), "not used for PTO")
}

func TestNewModelKeepsUnknownActivity(t *testing.T) {
	m := newTestModel(t, map[string]string{models.PropActivityType: "Legacy"}, nil)
	assert.Equal(t, "Legacy", m.State().ActivityType)
}

func TestActivityCycling(t *testing.T) {
	m := newTestModel(t, nil, nil)

	m = press(t, m, keyRight)
	assert.Equal(t, "Customer Meeting", m.State().ActivityType)

	m = press(t, m, keyRight, keyRight)
	assert.Equal(t, models.ActivityPTO, m.State().ActivityType)
	assert.True(t, m.Decision().EngagementTypeDisabled)

	m = press(t, m, keyRight)
	assert.Equal(t, "", m.State().ActivityType, "wraps back to unset")
	assert.False(t, m.Decision().EngagementTypeDisabled)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, models.ActivityPTO, m.State().ActivityType)
}

func TestSubmitGate(t *testing.T) {
	m := newTestModel(t, nil, nil)

	m = press(t, m, keyRight)
	assert.False(t, m.SyncEnabled(), "no event text yet")

	m = press(t, m, keyTab)
	require.Equal(t, FieldEngagement, m.focus)
	m = typeText(t, m, "Demo")
	assert.False(t, m.SyncEnabled())

	m = press(t, m, keyTab)
	require.Equal(t, FieldCustomerEvent, m.focus)
	m = typeText(t, m, " ")
	assert.True(t, m.SyncEnabled(), "whitespace counts as content")

	assert.Equal(t, "Demo", m.State().EngagementType)
	assert.Equal(t, " ", m.State().CustomerEventText)
}

func TestFocusSkipsLockedEngagement(t *testing.T) {
	m := newTestModel(t, map[string]string{models.PropActivityType: models.ActivityPTO}, nil)

	m = press(t, m, keyTab)
	assert.Equal(t, FieldCustomerEvent, m.focus)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, FieldActivity, m.focus)
}

func TestToggles(t *testing.T) {
	m := newTestModel(t, nil, nil)

	m = press(t, m, keyTab, keyTab, keyTab)
	require.Equal(t, FieldOnSite, m.focus)
	m = press(t, m, keySpace)
	assert.True(t, m.State().OnSite)

	m = press(t, m, keyTab, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.True(t, m.State().CustInteraction)

	m = press(t, m, keyTab, keySpace, keySpace)
	assert.False(t, m.State().CLevel)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.False(t, m.State().CLevel, "other keys do nothing")
}

func readyModel(t *testing.T, transport sync.Transport) Model {
	t.Helper()
	m := newTestModel(t, map[string]string{
		models.PropActivityType:   "Training",
		models.PropEngagementType: "Workshop",
		models.PropCustomerEvent:  "Acme",
	}, transport)
	m.focus = FieldSync
	m.updateFocus()
	require.True(t, m.SyncEnabled())
	return m
}

func TestSyncRunsAndShowsResponse(t *testing.T) {
	transport := &stubTransport{status: models.SuccessStatus("Created timeline entry 42")}
	m := readyModel(t, transport)

	next, cmd := m.Update(keyEnter)
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.inFlight)
	assert.False(t, m.SyncEnabled())
	assert.Contains(t, m.View(), "Syncing...")

	msg := cmd()
	complete, ok := msg.(SyncCompleteMsg)
	require.True(t, ok)
	assert.Equal(t, models.SuccessStatus("Created timeline entry 42"), complete.Status)
	require.Len(t, transport.bodies, 1)

	next, _ = m.Update(msg)
	m = next.(Model)
	assert.False(t, m.inFlight)
	assert.True(t, m.SyncEnabled())
	assert.Contains(t, m.View(), "✓ Created timeline entry 42")
}

func TestSyncErrorStatus(t *testing.T) {
	m := readyModel(t, &stubTransport{status: models.ErrorStatus("Error: 500 - boom")})

	next, cmd := m.Update(keyEnter)
	require.NotNil(t, cmd)
	m = next.(Model)
	next, _ = m.Update(cmd())
	m = next.(Model)

	assert.False(t, m.Status().OK())
	assert.Contains(t, m.View(), "✗ Error: 500 - boom")
}

func TestStartSyncBlockedWhileInFlight(t *testing.T) {
	m := readyModel(t, nil)
	m.inFlight = true

	next, cmd := m.Update(keyEnter)
	assert.Nil(t, cmd)
	assert.True(t, next.(Model).inFlight)
}

func TestEnterMovesFocusBeforeSync(t *testing.T) {
	m := newTestModel(t, nil, nil)

	next, cmd := m.Update(keyEnter)
	assert.Nil(t, cmd)
	assert.Equal(t, FieldEngagement, next.(Model).focus)
}

func TestQuitKeys(t *testing.T) {
	m := newTestModel(t, nil, nil)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestHistoryFromSyncLog(t *testing.T) {
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "timeline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.CreateSubmission(database, &db.Submission{ItemKey: "review.ics", ActivityType: "Training", Response: "ok"}))
	require.NoError(t, db.CreateSubmission(database, &db.Submission{ItemKey: "other.ics", ActivityType: "PTO", Response: "ok"}))

	m := NewModel(context.Background(), Options{
		Item:       testItem(),
		Store:      mailitem.NewMemoryProperties(nil),
		Syncer:     sync.NewSyncer(&stubTransport{}, mailitem.StaticProfile("owner@example.com")),
		Activities: testActivities,
		DB:         database,
	})

	require.Len(t, m.history, 1)
	assert.Equal(t, "Training", m.history[0].Activity)
	view := m.View()
	assert.Contains(t, view, "Previous submissions")
	assert.Equal(t, 1, strings.Count(view, "just now"))
}

func TestFormatTimeSince(t *testing.T) {
	assert.Equal(t, "just now", formatTimeSince(time.Now()))
	assert.Equal(t, "5 minutes ago", formatTimeSince(time.Now().Add(-5*time.Minute-time.Second)))
	assert.Equal(t, "1 hour ago", formatTimeSince(time.Now().Add(-61*time.Minute)))
	assert.Equal(t, "3 days ago", formatTimeSince(time.Now().Add(-73*time.Hour)))
}
