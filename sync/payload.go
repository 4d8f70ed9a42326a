// ABOUTME: Builds the Timeline ingestion payload from an appointment record
// ABOUTME: Organizer parsing, display date formatting, body sanitizing and the PTO override
package sync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/harperreed/timeline/models"
)

const (
	// PTOSubject replaces the subject of personal time off entries.
	PTOSubject = "Personal Time OFF"

	// DisplayDateLayout is DD/MM/YYYY HH:MM:SS.
	DisplayDateLayout = "02/01/2006 15:04:05"

	// MaxNoteLength is measured in UTF-16 code units.
	MaxNoteLength = 255

	noAlias      = "no alias"
	externalName = "External"
)

// Author is the organizer split into the fields Timeline expects.
type Author struct {
	Alias     string
	FirstName string
	LastName  string
}

// ParseOrganizer splits an organizer string into alias and name parts.
// An email address becomes the alias with its local part as last name;
// anything else is treated as a display name split on single spaces.
func ParseOrganizer(organizer string) Author {
	author := Author{Alias: noAlias, FirstName: externalName, LastName: externalName}
	if organizer == "" {
		return author
	}

	if strings.Contains(organizer, "@") {
		author.Alias = organizer
		author.LastName = strings.Split(organizer, "@")[0]
		author.FirstName = ""
		return author
	}

	parts := strings.Split(organizer, " ")
	if len(parts) >= 2 {
		author.FirstName = parts[0]
		author.LastName = strings.Join(parts[1:], " ")
	} else {
		author.LastName = organizer
	}
	return author
}

// FormatDate renders t in loc as DD/MM/YYYY HH:MM:SS. The zero time
// renders as an empty string.
func FormatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DisplayDateLayout)
}

var noteReplacer = strings.NewReplacer(`"`, " ", "{", " ", "}", " ", "[", " ", "]", " ")

// SanitizeBody flattens body into a single line free of JSON punctuation
// and truncates it to MaxNoteLength UTF-16 code units.
func SanitizeBody(body string) string {
	var b strings.Builder
	b.Grow(len(body))

	inBreak := false
	for _, r := range body {
		if r == '\r' || r == '\n' {
			if !inBreak {
				b.WriteByte(' ')
				inBreak = true
			}
			continue
		}
		inBreak = false
		b.WriteRune(r)
	}

	return truncateUTF16(noteReplacer.Replace(b.String()), MaxNoteLength)
}

// truncateUTF16 keeps whole runes up to limit code units.
func truncateUTF16(s string, limit int) string {
	units := 0
	for i, r := range s {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > limit {
			return s[:i]
		}
		units += n
	}
	return s
}

// NormalizeOption adjusts Normalize.
type NormalizeOption func(*normalizer)

type normalizer struct {
	now func() time.Time
	loc *time.Location
}

// WithClock sets the source of CreationTime.
func WithClock(now func() time.Time) NormalizeOption {
	return func(n *normalizer) { n.now = now }
}

// WithLocation sets the zone Start and End are rendered in.
func WithLocation(loc *time.Location) NormalizeOption {
	return func(n *normalizer) { n.loc = loc }
}

// Normalize converts a record into the Timeline payload. Apart from
// CreationTime the result depends only on its inputs.
func Normalize(record models.AppointmentRecord, ownerEmail string, opts ...NormalizeOption) models.OutboundPayload {
	n := normalizer{now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(&n)
	}

	author := ParseOrganizer(record.Organizer)

	subject := record.CustomerEvent
	if subject == "" {
		subject = record.Subject
	}
	engagementType := record.EngagementType
	if record.ActivityType == models.ActivityPTO {
		subject = PTOSubject
		engagementType = ""
	}

	return models.OutboundPayload{
		EntryID:         record.EntryID,
		GlobalID:        record.GlobalID,
		Organizer:       record.Organizer,
		AuthorAlias:     author.Alias,
		AuthorFirstname: author.FirstName,
		AuthorLastname:  author.LastName,
		OwnerEmail:      ownerEmail,
		Subject:         subject,
		Start:           FormatDate(record.Start, n.loc),
		End:             FormatDate(record.End, n.loc),
		Location:        record.Location,
		CreationTime:    n.now().UTC().Format(time.RFC3339),
		ActivityType:    record.ActivityType,
		EngagementType:  engagementType,
		OnSite:          strconv.FormatBool(record.OnSite),
		CustInteraction: strconv.FormatBool(record.CustInteraction),
		Clevel:          strconv.FormatBool(record.CLevel),
		Note:            SanitizeBody(record.Body),
	}
}

// Marshal renders the payload as the JSON text sent to Timeline.
func Marshal(p models.OutboundPayload) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
