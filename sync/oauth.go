// ABOUTME: OAuth configuration and token storage for Google Calendar items
// ABOUTME: Client credentials come from the environment; the token lives next to the timeline config
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

const (
	// OAuthCallbackAddr and OAuthCallbackPath are served by 'timeline auth google'.
	OAuthCallbackAddr = "localhost:8080"
	OAuthCallbackPath = "/oauth/callback"

	envClientID     = "GOOGLE_CLIENT_ID"
	envClientSecret = "GOOGLE_CLIENT_SECRET"
)

// Events scope to read events and patch extended properties; email to name the owner.
var oauthScopes = []string{
	calendar.CalendarEventsScope,
	"https://www.googleapis.com/auth/userinfo.email",
}

// NewOAuthConfig builds the Google OAuth2 config. Users register their own
// OAuth app; its id and secret are read from GOOGLE_CLIENT_ID and
// GOOGLE_CLIENT_SECRET.
func NewOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv(envClientID),
		ClientSecret: os.Getenv(envClientSecret),
		RedirectURL:  "http://" + OAuthCallbackAddr + OAuthCallbackPath,
		Scopes:       oauthScopes,
		Endpoint:     google.Endpoint,
	}
}

// GetClient returns the OAuth config once client credentials are present.
func GetClient(_ context.Context) (*oauth2.Config, error) {
	config := NewOAuthConfig()
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("google OAuth credentials not configured. Set %s and %s", envClientID, envClientSecret)
	}
	return config, nil
}

// TokenPath is the Google token file under the timeline data directory.
func TokenPath() string {
	return filepath.Join(ConfigDir(), "google-credentials.json")
}

// SaveToken writes token readable only by the user.
func SaveToken(token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	path := TokenPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// LoadToken reads the token saved by SaveToken.
func LoadToken() (*oauth2.Token, error) {
	path := TokenPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, fmt.Errorf("token file %s holds no token", path)
	}
	return &token, nil
}
