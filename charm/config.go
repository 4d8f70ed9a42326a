// ABOUTME: Settings for the charm property backend, kept beside the timeline config
// ABOUTME: TIMELINE_CHARM_HOST beats the file, which beats the built-in server

package charm

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	// DefaultCharmHost is the self-hosted 2389 research server.
	DefaultCharmHost = "charm.2389.dev"

	// AppName names the charm KV database and the data directory.
	AppName = "timeline"

	envCharmHost   = "TIMELINE_CHARM_HOST"
	configFileName = "charm-config.json"
)

// Config holds charm connection settings.
type Config struct {
	Host string `json:"host,omitempty"`
	// AutoSync pushes to the server after every property save.
	AutoSync bool `json:"auto_sync"`
}

func DefaultConfig() *Config {
	return &Config{Host: DefaultCharmHost, AutoSync: true}
}

// ConfigPath is the charm settings file under the XDG data directory.
func ConfigPath() string {
	return filepath.Join(xdg.DataHome, AppName, configFileName)
}

// LoadConfig reads the settings file. A missing or malformed file yields
// the defaults; any other read error is returned.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read charm config: %w", err)
	}
	if err == nil {
		var stored Config
		if json.Unmarshal(data, &stored) == nil {
			cfg.AutoSync = stored.AutoSync
			if stored.Host != "" {
				cfg.Host = stored.Host
			}
		}
	}

	if host := os.Getenv(envCharmHost); host != "" {
		cfg.Host = host
	}
	return cfg, nil
}

// Save writes the settings readable only by the user.
func (c *Config) Save() error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// SetAutoSync changes AutoSync and saves.
func (c *Config) SetAutoSync(enabled bool) error {
	c.AutoSync = enabled
	return c.Save()
}
