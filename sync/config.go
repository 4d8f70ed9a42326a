// ABOUTME: Timeline endpoint configuration stored at XDG paths
// ABOUTME: Handles defaults, TIMELINE_* environment overrides and struct validation
package sync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultEndpoint = "https://dataflow-inbound-message-prd-euc1.eam.hxgnsmartcloud.com/api/message"
	DefaultTag      = "timeline"
	DefaultTimeout  = 30

	BackendSQLite = "sqlite"
	BackendCharm  = "charm"
)

// DefaultActivityTypes are offered by the form when the config lists none.
var DefaultActivityTypes = []string{
	"Customer Meeting",
	"Internal Meeting",
	"Training",
	"Travel",
	"PTO",
}

// Config stores Timeline endpoint settings. The credential is never written
// to disk; it comes from TIMELINE_CREDENTIAL or the system keyring.
type Config struct {
	Endpoint        string   `json:"endpoint" validate:"required,url"`
	Tag             string   `json:"tag" validate:"required"`
	TenantID        string   `json:"tenant_id"`
	OwnerEmail      string   `json:"owner_email" validate:"omitempty,email"`
	PropertyBackend string   `json:"property_backend" validate:"oneof=sqlite charm"`
	ActivityTypes   []string `json:"activity_types,omitempty" validate:"dive,required"`
	Timezone        string   `json:"timezone,omitempty"`
	TimeoutSeconds  int      `json:"timeout_seconds" validate:"gte=1,lte=600"`

	Credential string `json:"-"`
}

var configValidator = validator.New()

// ConfigDir returns the XDG data directory for timeline.
func ConfigDir() string {
	return filepath.Join(xdg.DataHome, "timeline")
}

// ConfigPath returns the XDG path of the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:        DefaultEndpoint,
		Tag:             DefaultTag,
		PropertyBackend: BackendSQLite,
		TimeoutSeconds:  DefaultTimeout,
	}
}

// LoadConfig loads configuration from the XDG data directory.
// Returns defaults if the file is not found.
// Environment variables override file values:
// - TIMELINE_ENDPOINT
// - TIMELINE_TAG
// - TIMELINE_TENANT_ID
// - TIMELINE_OWNER_EMAIL
// - TIMELINE_PROPERTY_BACKEND
// - TIMELINE_TIMEZONE
// - TIMELINE_TIMEOUT
// - TIMELINE_CREDENTIAL.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TIMELINE_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("TIMELINE_TAG"); v != "" {
		cfg.Tag = v
	}
	if v := os.Getenv("TIMELINE_TENANT_ID"); v != "" {
		cfg.TenantID = v
	}
	if v := os.Getenv("TIMELINE_OWNER_EMAIL"); v != "" {
		cfg.OwnerEmail = v
	}
	if v := os.Getenv("TIMELINE_PROPERTY_BACKEND"); v != "" {
		cfg.PropertyBackend = strings.ToLower(v)
	}
	if v := os.Getenv("TIMELINE_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("TIMELINE_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("TIMELINE_CREDENTIAL"); v != "" {
		cfg.Credential = v
	}
}

// SaveConfig writes configuration to the XDG data directory.
func SaveConfig(cfg *Config) error {
	path := ConfigPath()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// Validate checks field constraints and that the timezone exists.
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Location returns the zone used to render appointment dates.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Timeout returns the HTTP request timeout.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeout * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Activities returns the configured activity types or the defaults.
func (c *Config) Activities() []string {
	if len(c.ActivityTypes) == 0 {
		return DefaultActivityTypes
	}
	return c.ActivityTypes
}

// IsConfigured reports whether submissions can be sent.
func (c *Config) IsConfigured() bool {
	return c.Endpoint != "" && c.Tag != "" && c.Credential != ""
}
