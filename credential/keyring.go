// ABOUTME: Stores the Timeline basic-auth credential in the system keyring
// ABOUTME: Falls back to an encrypted file backend when no OS keyring is available
package credential

import (
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"
	"github.com/adrg/xdg"
)

const (
	serviceName = "timeline"

	// TimelineKey holds the base64 user:password pair sent as Basic auth.
	TimelineKey = "timeline-basic-auth"
)

// Store reads and writes credentials in one keyring.
type Store struct {
	ring keyring.Keyring
}

// Open returns the system keyring for timeline.
func Open() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(xdg.DataHome, "timeline", "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("timeline-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return &Store{ring: ring}, nil
}

// NewStore wraps an existing keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Get returns the value for key, or "" when nothing is stored.
func (s *Store) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

func (s *Store) Set(key, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "timeline " + key,
	})
	if err != nil {
		return fmt.Errorf("failed to set credential %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	err := s.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete credential %q: %w", key, err)
	}
	return nil
}

// Resolve returns override when set, otherwise the stored Timeline credential.
func (s *Store) Resolve(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	return s.Get(TimelineKey)
}

// BasicAuth encodes a user and password the way the Authorization header expects.
func BasicAuth(user, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + password))
}
