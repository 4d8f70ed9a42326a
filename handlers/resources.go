// ABOUTME: MCP resource handlers for exposing submission history
// ABOUTME: Provides read-only access to sync state and recent submissions via URI
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/timeline/db"
)

const resourceScheme = "timeline://"

type ResourceHandlers struct {
	db *sql.DB
}

func NewResourceHandlers(database *sql.DB) *ResourceHandlers {
	return &ResourceHandlers{db: database}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	switch strings.TrimPrefix(uri, resourceScheme) {
	case "submissions":
		return h.readSubmissions(uri)
	case "status":
		return h.readStatus(uri)
	default:
		return nil, fmt.Errorf("unknown resource: %s", uri)
	}
}

func (h *ResourceHandlers) readSubmissions(uri string) (*mcp.ReadResourceResult, error) {
	subs, err := db.RecentSubmissions(h.db, 50)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}
	if subs == nil {
		subs = []db.Submission{}
	}
	return jsonResource(uri, subs)
}

func (h *ResourceHandlers) readStatus(uri string) (*mcp.ReadResourceResult, error) {
	state, err := db.LoadSyncState(h.db, db.TimelineService)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sync state: %w", err)
	}
	if state == nil {
		state = &db.SyncState{Service: db.TimelineService, Status: db.StatusIdle}
	}
	return jsonResource(uri, state)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
