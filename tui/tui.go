// ABOUTME: Terminal task pane using the bubbletea framework
// ABOUTME: Classifies one appointment and submits it to Timeline
package tui

import (
	"context"
	"database/sql"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/timeline/form"
	"github.com/harperreed/timeline/mailitem"
	"github.com/harperreed/timeline/models"
	"github.com/harperreed/timeline/sync"
)

// Field identifies a focusable control in the pane.
type Field int

const (
	FieldActivity Field = iota
	FieldEngagement
	FieldCustomerEvent
	FieldOnSite
	FieldCustInteraction
	FieldCLevel
	FieldSync
	fieldCount
)

// Options configure the task pane.
type Options struct {
	Item       mailitem.Item
	Store      mailitem.PropertyStore
	Syncer     *sync.Syncer
	Activities []string
	// DB is optional; when set the pane shows recent submissions.
	DB *sql.DB
}

// Summary is the read-only appointment header.
type Summary struct {
	Subject   string
	When      string
	Organizer string
}

// Model is the main bubbletea model
type Model struct {
	item   mailitem.Item
	store  mailitem.PropertyStore
	syncer *sync.Syncer
	db     *sql.DB

	summary Summary

	activities  []string
	activityIdx int
	engagement  textinput.Model
	event       textinput.Model
	onSite      bool
	custInter   bool
	cLevel      bool
	focus       Field
	decision    models.Decision

	inFlight bool
	status   models.Status
	history  []HistoryEntry

	width  int
	height int
}

// NewModel creates the pane with the item's saved classification loaded
// and validated.
func NewModel(ctx context.Context, opts Options) Model {
	m := Model{
		item:        opts.Item,
		store:       opts.Store,
		syncer:      opts.Syncer,
		db:          opts.DB,
		summary:     summarize(ctx, opts.Item),
		activities:  append([]string{""}, opts.Activities...),
		activityIdx: 0,
		width:       80,
		height:      24,
	}

	m.engagement = textinput.New()
	m.engagement.Placeholder = "Engagement type"
	m.engagement.CharLimit = 100

	m.event = textinput.New()
	m.event.Placeholder = "Customer event"
	m.event.CharLimit = 255

	m.load(form.Load(opts.Store))
	m.loadHistory()
	m.updateFocus()
	return m
}

func (m *Model) load(state models.FormState) {
	m.activityIdx = 0
	if state.ActivityType != "" {
		m.activityIdx = -1
		for i, a := range m.activities {
			if a == state.ActivityType {
				m.activityIdx = i
			}
		}
		if m.activityIdx < 0 {
			m.activities = append(m.activities, state.ActivityType)
			m.activityIdx = len(m.activities) - 1
		}
	}
	m.engagement.SetValue(state.EngagementType)
	m.event.SetValue(state.CustomerEventText)
	m.onSite = state.OnSite
	m.custInter = state.CustInteraction
	m.cLevel = state.CLevel
	m.validate()
}

// State returns the form as currently shown.
func (m Model) State() models.FormState {
	return models.FormState{
		ActivityType:      m.activities[m.activityIdx],
		EngagementType:    m.engagement.Value(),
		CustomerEventText: m.event.Value(),
		OnSite:            m.onSite,
		CustInteraction:   m.custInter,
		CLevel:            m.cLevel,
	}
}

// Decision returns the latest validation result.
func (m Model) Decision() models.Decision {
	return m.decision
}

// Status returns the last sync status.
func (m Model) Status() models.Status {
	return m.status
}

// validate runs after every change so the engagement lock and the submit
// gate always reflect the current values.
func (m *Model) validate() {
	m.decision = form.Validate(m.State())
	if m.decision.EngagementTypeDisabled {
		m.engagement.SetValue(m.decision.EngagementTypeValue)
		if m.focus == FieldEngagement {
			m.focus = FieldCustomerEvent
			m.updateFocus()
		}
	}
}

// SyncEnabled reports whether the Sync button can be pressed.
func (m Model) SyncEnabled() bool {
	return m.decision.SubmitEnabled && !m.inFlight
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case SyncCompleteMsg:
		m.handleSyncComplete(msg)
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	return m.renderFormView()
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "down":
		m.moveFocus(1)
		return m, nil
	case "shift+tab", "up":
		m.moveFocus(-1)
		return m, nil
	}

	return m.handleFormKeys(msg)
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Width(18)

	focusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true)

	disabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)
)
