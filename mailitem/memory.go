// ABOUTME: In-memory item and property bag implementations
// ABOUTME: Used by tests and by callers that already hold appointment data
package mailitem

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryProperties is a PropertyStore kept in memory.
// SaveErr, when set, is returned by Save and nothing is committed.
type MemoryProperties struct {
	mu      sync.RWMutex
	saved   map[string]string
	staged  map[string]string
	Saves   int
	SaveErr error
}

// NewMemoryProperties returns a bag pre-populated with saved values.
func NewMemoryProperties(initial map[string]string) *MemoryProperties {
	saved := make(map[string]string, len(initial))
	for k, v := range initial {
		saved[k] = v
	}
	return &MemoryProperties{saved: saved, staged: make(map[string]string)}
}

// Get returns the staged value if any, otherwise the saved one.
func (m *MemoryProperties) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.staged[key]; ok {
		return v, true
	}
	v, ok := m.saved[key]
	return v, ok
}

// Set stages a value.
func (m *MemoryProperties) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staged[key] = value
}

// Save commits staged values.
func (m *MemoryProperties) Save(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	for k, v := range m.staged {
		m.saved[k] = v
	}
	m.staged = make(map[string]string)
	m.Saves++
	return nil
}

// Saved returns a copy of the committed values.
func (m *MemoryProperties) Saved() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.saved))
	for k, v := range m.saved {
		out[k] = v
	}
	return out
}

// MemoryItem is an Item backed by plain fields. The *Err fields make the
// corresponding accessor fail.
type MemoryItem struct {
	ItemKey      string
	SubjectText  string
	LocationText string
	StartTime    time.Time
	EndTime      time.Time
	Org          Organizer
	BodyText     string
	ID           string
	HeaderValues Headers

	// SaveID is returned by Save when set; otherwise a uuid is minted.
	SaveID    string
	SaveErr   error
	BodyErr   error
	HeaderErr error
	StartErr  error
	Saves     int
}

func (m *MemoryItem) Key() string {
	if m.ItemKey != "" {
		return m.ItemKey
	}
	return m.ID
}

func (m *MemoryItem) Subject(context.Context) (string, error)  { return m.SubjectText, nil }
func (m *MemoryItem) Location(context.Context) (string, error) { return m.LocationText, nil }
func (m *MemoryItem) End(context.Context) (time.Time, error)   { return m.EndTime, nil }

func (m *MemoryItem) Start(context.Context) (time.Time, error) {
	if m.StartErr != nil {
		return time.Time{}, m.StartErr
	}
	return m.StartTime, nil
}

func (m *MemoryItem) Organizer(context.Context) (Organizer, error) { return m.Org, nil }

func (m *MemoryItem) Body(context.Context) (string, error) {
	if m.BodyErr != nil {
		return "", m.BodyErr
	}
	return m.BodyText, nil
}

func (m *MemoryItem) AllHeaders(context.Context) (Headers, error) {
	if m.HeaderErr != nil {
		return nil, m.HeaderErr
	}
	return m.HeaderValues, nil
}

func (m *MemoryItem) ItemID() string { return m.ID }

// Save records the item and assigns it an identifier.
func (m *MemoryItem) Save(context.Context) (string, error) {
	m.Saves++
	if m.SaveErr != nil {
		return "", m.SaveErr
	}
	if m.SaveID != "" {
		m.ID = m.SaveID
	} else {
		m.ID = uuid.New().String()
	}
	return m.ID, nil
}
