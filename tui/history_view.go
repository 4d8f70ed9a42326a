// ABOUTME: Recent submission history shown under the task pane form
// ABOUTME: Reads the sync log and formats relative submit times
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/timeline/db"
)

var (
	historyHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Underline(true)

	historyMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true)
)

// HistoryEntry is one submission of the current item.
type HistoryEntry struct {
	Activity string
	When     string
	Response string
}

// loadHistory reads submissions of the current item from the sync log.
func (m *Model) loadHistory() {
	m.history = nil
	if m.db == nil {
		return
	}

	subs, err := db.RecentSubmissions(m.db, 50)
	if err != nil {
		return
	}

	for _, sub := range subs {
		if sub.ItemKey != m.item.Key() {
			continue
		}
		m.history = append(m.history, HistoryEntry{
			Activity: sub.ActivityType,
			When:     formatTimeSince(sub.SubmittedAt),
			Response: sub.Response,
		})
		if len(m.history) == 5 {
			break
		}
	}
}

func (m Model) renderHistory() string {
	var s strings.Builder
	s.WriteString(historyHeaderStyle.Render("Previous submissions"))
	s.WriteString("\n")
	for _, h := range m.history {
		s.WriteString(historyMessageStyle.Render(fmt.Sprintf("  %s • %s", h.When, h.Activity)))
		s.WriteString("\n")
	}
	return s.String()
}

// formatTimeSince formats a time duration in a human-readable way.
func formatTimeSince(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return "just now"
	} else if duration < time.Hour {
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	} else if duration < 24*time.Hour {
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}

	days := int(duration.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
