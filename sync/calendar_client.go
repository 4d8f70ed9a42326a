// ABOUTME: Calendar API client setup for Google Calendar appointments
// ABOUTME: Creates authenticated Calendar service from OAuth token
package sync

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// NewCalendarClient creates a Google Calendar API service from an OAuth token.
// Extra options are appended after the authenticated HTTP client.
func NewCalendarClient(ctx context.Context, token *oauth2.Token, opts ...option.ClientOption) (*calendar.Service, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}

	config := NewOAuthConfig()
	client := config.Client(ctx, token)

	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return service, nil
}

// OpenCalendar loads the stored token and creates a Calendar service.
func OpenCalendar(ctx context.Context) (*calendar.Service, error) {
	if _, err := GetClient(ctx); err != nil {
		return nil, err
	}

	token, err := LoadToken()
	if err != nil {
		return nil, fmt.Errorf("not authenticated with Google (run 'timeline auth google'): %w", err)
	}

	return NewCalendarClient(ctx, token)
}
