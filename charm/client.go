// ABOUTME: Process-wide handle on the charm KV that holds classifications
// ABOUTME: Serializes access and pushes writes to the server when auto-sync is on

package charm

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
)

// kvStore is the part of *kv.KV the property backend needs. Tests back it
// with a bare badger database.
type kvStore interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Reset() error
}

// Client guards one kvStore.
type Client struct {
	mu     sync.RWMutex
	store  kvStore
	config *Config
	// offline clients have no charm identity.
	offline bool
}

// GetClient returns the shared client, opening it on first use. A failed
// open is remembered for the life of the process.
var GetClient = sync.OnceValues(func() (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return Open(cfg)
})

// Open connects to the charm KV on cfg.Host, pulling remote changes first
// when auto-sync is on.
func Open(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	// kv.OpenWithDefaults reads the server from CHARM_HOST.
	if err := os.Setenv("CHARM_HOST", cfg.Host); err != nil {
		return nil, err
	}
	store, err := kv.OpenWithDefaults(AppName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	if cfg.AutoSync {
		_ = store.Sync()
	}
	return &Client{store: store, config: cfg}, nil
}

func (c *Client) Config() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// ID is the charm account of this device, or "local" for offline clients.
func (c *Client) ID() (string, error) {
	if c.offline {
		return "local", nil
	}
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Sync()
}

// Value reads one key. ok is false when the key was never written.
func (c *Client) Value(key string) (value string, ok bool, err error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	raw, err := c.store.Get([]byte(key))
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return string(raw), true, nil
}

// Scan returns every key under prefix, sorted, with its value.
func (c *Client) Scan(prefix string) ([]string, map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all, err := c.store.Keys()
	if err != nil {
		return nil, nil, err
	}

	var keys []string
	values := make(map[string]string)
	for _, raw := range all {
		key := string(raw)
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		v, err := c.store.Get(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		keys = append(keys, key)
		values[key] = string(v)
	}
	sort.Strings(keys)
	return keys, values, nil
}

// Put writes all values under one lock and syncs once afterwards.
func (c *Client) Put(values map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range values {
		if err := c.store.Set([]byte(k), []byte(v)); err != nil {
			return fmt.Errorf("failed to set %s: %w", k, err)
		}
	}
	if !c.config.AutoSync {
		return nil
	}
	if err := c.store.Sync(); err != nil {
		return fmt.Errorf("failed to sync: %w", err)
	}
	return nil
}

// Wipe drops every key, locally and on the server.
func (c *Client) Wipe() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Reset()
}
