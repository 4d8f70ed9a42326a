// ABOUTME: HTTP client that submits serialized payloads to the Timeline endpoint
// ABOUTME: Sends one POST per sync and maps the response to a user-facing status
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/harperreed/timeline/logging"
	"github.com/harperreed/timeline/models"
)

// Transport delivers a payload and reports the endpoint's answer.
type Transport interface {
	Send(ctx context.Context, body string) (models.Status, error)
}

// Client posts payloads to the Timeline inbound message API.
type Client struct {
	http     *resty.Client
	endpoint string
	tag      string
}

// NewClient builds a client from config. The request is never retried.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if cfg.Credential == "" {
		return nil, fmt.Errorf("timeline credential is not set (run 'timeline auth timeline' or set TIMELINE_CREDENTIAL)")
	}

	return &Client{
		http:     buildHTTPClient(cfg.Timeout(), cfg.TenantID, cfg.Credential),
		endpoint: cfg.Endpoint,
		tag:      cfg.Tag,
	}, nil
}

func buildHTTPClient(timeout time.Duration, tenantID, credential string) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetHeader("accept", "application/json").
		SetHeader("X-Tenant-Id", tenantID).
		SetHeader("Authorization", "Basic "+credential).
		SetRetryCount(0)
}

// Send posts body as text/plain. A non-2xx answer is an error status, not an
// error; only transport failures return err.
func (c *Client) Send(ctx context.Context, body string) (models.Status, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("tag", c.tag).
		SetHeader("Content-Type", "text/plain").
		SetBody(body).
		Post(c.endpoint)
	if err != nil {
		return models.Status{}, fmt.Errorf("failed to post payload: %w", err)
	}

	text := resp.String()
	logging.Default().Debug("timeline responded", "status", resp.StatusCode(), "bytes", len(text))

	if resp.IsSuccess() {
		return models.SuccessStatus(text), nil
	}
	return models.ErrorStatus(fmt.Sprintf("Error: %d - %s", resp.StatusCode(), text)), nil
}
