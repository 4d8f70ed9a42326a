// ABOUTME: Appointment item backed by a meeting invite message (.eml)
// ABOUTME: Uses go-message for headers and body, go-ical for the embedded text/calendar part
package mailitem

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
)

// EMLItem is a meeting invite read from an RFC 5322 message.
type EMLItem struct {
	path     string
	headers  Headers
	subject  string
	from     Organizer
	textBody string
	id       string
	digest   [sha256.Size]byte
	event    *ICSItem // nil when the message carries no calendar part
}

// OpenEML parses the message file at path.
func OpenEML(path string, opts ...ParseOption) (*EMLItem, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read message file: %w", err)
	}

	item, err := ParseEML(bytes.NewReader(raw), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", abs, err)
	}
	item.path = abs
	return item, nil
}

// ParseEML reads a message from r. opts apply to the embedded calendar.
func ParseEML(r io.Reader, opts ...ParseOption) (*EMLItem, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer func() { _ = mr.Close() }()

	item := &EMLItem{headers: Headers{}, digest: sha256.Sum256(raw)}

	fields := mr.Header.Fields()
	for fields.Next() {
		if _, seen := item.headers[fields.Key()]; !seen {
			item.headers[fields.Key()] = fields.Value()
		}
	}

	item.subject, _ = mr.Header.Subject()
	item.id, _ = mr.Header.MessageID()
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		item.from = Organizer{EmailAddress: from[0].Address, DisplayName: from[0].Name}
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read message part: %w", err)
		}

		var contentType string
		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ = h.ContentType()
		case *mail.AttachmentHeader:
			contentType, _, _ = h.ContentType()
		}

		switch {
		case contentType == "text/calendar" && item.event == nil:
			event, err := ParseICS(part.Body, opts...)
			if err != nil {
				return nil, fmt.Errorf("failed to parse calendar part: %w", err)
			}
			item.event = event
		case contentType == "text/plain" && item.textBody == "":
			body, err := io.ReadAll(part.Body)
			if err != nil {
				return nil, fmt.Errorf("failed to read body: %w", err)
			}
			item.textBody = string(body)
		}
	}

	if item.event != nil {
		if uid := item.event.text(ical.PropUID); uid != "" {
			if _, ok := item.headers.Get("vcal-uid"); !ok {
				item.headers["vcal-uid"] = uid
			}
		}
	}

	return item, nil
}

// Key is the absolute file path, or the Message-Id for in-memory messages.
func (e *EMLItem) Key() string {
	if e.path != "" {
		return e.path
	}
	return e.id
}

func (e *EMLItem) Subject(ctx context.Context) (string, error) {
	if e.subject == "" && e.event != nil {
		return e.event.Subject(ctx)
	}
	return e.subject, nil
}

func (e *EMLItem) Location(ctx context.Context) (string, error) {
	if e.event == nil {
		return "", nil
	}
	return e.event.Location(ctx)
}

func (e *EMLItem) Start(ctx context.Context) (time.Time, error) {
	if e.event == nil {
		return time.Time{}, nil
	}
	return e.event.Start(ctx)
}

func (e *EMLItem) End(ctx context.Context) (time.Time, error) {
	if e.event == nil {
		return time.Time{}, nil
	}
	return e.event.End(ctx)
}

// Organizer prefers the calendar ORGANIZER over the message sender.
func (e *EMLItem) Organizer(ctx context.Context) (Organizer, error) {
	if e.event != nil {
		org, err := e.event.Organizer(ctx)
		if err == nil && org.String() != "" {
			return org, nil
		}
	}
	return e.from, nil
}

// Body is the text/plain part, or the event DESCRIPTION when there is none.
func (e *EMLItem) Body(ctx context.Context) (string, error) {
	if strings.TrimSpace(e.textBody) == "" && e.event != nil {
		return e.event.Body(ctx)
	}
	return e.textBody, nil
}

func (e *EMLItem) AllHeaders(context.Context) (Headers, error) {
	return e.headers, nil
}

func (e *EMLItem) ItemID() string {
	return e.id
}

// emlNamespace scopes identifiers derived for messages without a Message-Id.
var emlNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://timeline.local/eml"))

// Save assigns an identifier to a message that arrived without a
// Message-Id. It is derived from the calendar UID, or from the message
// bytes when there is none, so every run assigns the same one.
func (e *EMLItem) Save(context.Context) (string, error) {
	if e.id != "" {
		return e.id, nil
	}

	seed := e.digest[:]
	if e.event != nil {
		if uid := e.event.text(ical.PropUID); uid != "" {
			seed = []byte("uid:" + uid)
		}
	}
	e.id = uuid.NewSHA1(emlNamespace, seed).String()
	return e.id, nil
}
