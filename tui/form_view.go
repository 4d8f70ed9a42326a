// ABOUTME: Classification form rendering and key handling for the task pane
// ABOUTME: Runs the submit on the Sync button and shows the resulting status
package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/timeline/mailitem"
	"github.com/harperreed/timeline/models"
	"github.com/harperreed/timeline/sync"
)

// SyncCompleteMsg is sent when a submit finishes.
type SyncCompleteMsg struct {
	Status models.Status
}

func summarize(ctx context.Context, item mailitem.Item) Summary {
	var s Summary
	s.Subject, _ = item.Subject(ctx)
	if start, err := item.Start(ctx); err == nil && !start.IsZero() {
		s.When = start.Local().Format("Mon 02 Jan 2006 15:04")
		if end, err := item.End(ctx); err == nil && !end.IsZero() {
			s.When += " – " + end.Local().Format("15:04")
		}
	}
	if org, err := item.Organizer(ctx); err == nil {
		s.Organizer = org.String()
	}
	return s
}

func (m Model) renderFormView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Timeline"))
	s.WriteString("\n")
	s.WriteString(m.summary.Subject)
	s.WriteString("\n")
	if m.summary.When != "" {
		s.WriteString(disabledStyle.Render(m.summary.When))
		s.WriteString("\n")
	}
	if m.summary.Organizer != "" {
		s.WriteString(disabledStyle.Render("Organizer: " + m.summary.Organizer))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	activity := m.activities[m.activityIdx]
	if activity == "" {
		activity = "(choose)"
	}
	s.WriteString(m.row(FieldActivity, "Activity type", "◀ "+activity+" ▶"))

	engagement := m.engagement.View()
	if m.decision.EngagementTypeDisabled {
		engagement = disabledStyle.Render("not used for " + models.ActivityPTO)
	}
	s.WriteString(m.row(FieldEngagement, "Engagement type", engagement))
	s.WriteString(m.row(FieldCustomerEvent, "Customer event", m.event.View()))
	s.WriteString(m.row(FieldOnSite, "On site", checkbox(m.onSite)))
	s.WriteString(m.row(FieldCustInteraction, "Cust. interaction", checkbox(m.custInter)))
	s.WriteString(m.row(FieldCLevel, "C-level", checkbox(m.cLevel)))
	s.WriteString("\n")

	s.WriteString(m.renderSyncButton())
	s.WriteString("\n")

	if m.status.Kind != "" {
		s.WriteString("\n")
		if m.status.OK() {
			s.WriteString(successStyle.Render("✓ " + m.status.Message))
		} else {
			s.WriteString(errorStyle.Render("✗ " + m.status.Message))
		}
		s.WriteString("\n")
	}

	if len(m.history) > 0 {
		s.WriteString("\n")
		s.WriteString(m.renderHistory())
	}

	s.WriteString(m.renderFormHelp())
	return s.String()
}

func (m Model) row(field Field, label, value string) string {
	marker := "  "
	l := labelStyle.Render(label)
	if field == m.focus {
		marker = focusStyle.Render("> ")
		l = focusStyle.Inherit(labelStyle).Render(label)
	}
	return marker + l + value + "\n"
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) renderSyncButton() string {
	marker := "  "
	if m.focus == FieldSync {
		marker = focusStyle.Render("> ")
	}

	switch {
	case m.inFlight:
		return marker + disabledStyle.Render("[ Syncing... ]")
	case !m.decision.SubmitEnabled:
		return marker + disabledStyle.Render("[ Sync ]")
	default:
		return marker + buttonStyle.Render("Sync")
	}
}

func (m Model) renderFormHelp() string {
	help := []string{
		"Tab/↑/↓: Move",
		"←/→: Activity",
		"Space: Toggle",
		"Enter: Sync",
		"Esc: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m *Model) moveFocus(delta int) {
	next := m.focus
	for i := 0; i < int(fieldCount); i++ {
		next = Field((int(next) + delta + int(fieldCount)) % int(fieldCount))
		if next == FieldEngagement && m.decision.EngagementTypeDisabled {
			continue
		}
		break
	}
	m.focus = next
	m.updateFocus()
}

func (m *Model) updateFocus() {
	m.engagement.Blur()
	m.event.Blur()
	switch m.focus {
	case FieldEngagement:
		m.engagement.Focus()
	case FieldCustomerEvent:
		m.event.Focus()
	}
}

func (m Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "enter" {
		if m.focus != FieldSync {
			m.moveFocus(1)
			return m, nil
		}
		return m.startSync()
	}

	var cmd tea.Cmd
	switch m.focus {
	case FieldActivity:
		switch key {
		case "left", "h":
			m.activityIdx = (m.activityIdx - 1 + len(m.activities)) % len(m.activities)
		case "right", "l", " ":
			m.activityIdx = (m.activityIdx + 1) % len(m.activities)
		default:
			return m, nil
		}
	case FieldEngagement:
		if m.decision.EngagementTypeDisabled {
			return m, nil
		}
		m.engagement, cmd = m.engagement.Update(msg)
	case FieldCustomerEvent:
		m.event, cmd = m.event.Update(msg)
	case FieldOnSite, FieldCustInteraction, FieldCLevel:
		if key != " " && key != "x" {
			return m, nil
		}
		m.toggle(m.focus)
	default:
		return m, nil
	}

	m.validate()
	return m, cmd
}

func (m *Model) toggle(field Field) {
	switch field {
	case FieldOnSite:
		m.onSite = !m.onSite
	case FieldCustInteraction:
		m.custInter = !m.custInter
	case FieldCLevel:
		m.cLevel = !m.cLevel
	}
}

// startSync disables the button and runs the submit in the background.
func (m Model) startSync() (tea.Model, tea.Cmd) {
	if !m.SyncEnabled() {
		return m, nil
	}
	m.inFlight = true
	m.status = models.Status{}
	return m, m.syncCmd(m.State())
}

func (m Model) syncCmd(state models.FormState) tea.Cmd {
	syncer, item, store := m.syncer, m.item, m.store
	return func() tea.Msg {
		status := syncer.Sync(context.Background(), sync.SyncRequest{Item: item, Store: store, State: state})
		return SyncCompleteMsg{Status: status}
	}
}

func (m *Model) handleSyncComplete(msg SyncCompleteMsg) {
	m.inFlight = false
	m.status = msg.Status
	m.loadHistory()
}
