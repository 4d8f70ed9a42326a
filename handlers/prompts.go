// ABOUTME: MCP prompt handlers for appointment classification
// ABOUTME: Builds a prompt describing an appointment and the allowed classification values
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/timeline/form"
	"github.com/harperreed/timeline/models"
)

type PromptHandlers struct {
	opener     Opener
	activities []string
}

func NewPromptHandlers(opener Opener, activities []string) *PromptHandlers {
	return &PromptHandlers{opener: opener, activities: activities}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "classify-appointment":
		return h.getClassifyPrompt(ctx, request.Params.Arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) getClassifyPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	source, ok := args["source"]
	if !ok || source == "" {
		return nil, fmt.Errorf("source is required")
	}

	src, err := h.opener.Open(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	item := src.Item

	subject, _ := item.Subject(ctx)
	location, _ := item.Location(ctx)
	start, _ := item.Start(ctx)
	org, _ := item.Organizer(ctx)
	body, _ := item.Body(ctx)
	current := form.Load(src.Store)

	var text strings.Builder
	fmt.Fprintf(&text, "Classify this appointment for Timeline.\n\n")
	fmt.Fprintf(&text, "Subject: %s\n", subject)
	fmt.Fprintf(&text, "Location: %s\n", location)
	if !start.IsZero() {
		fmt.Fprintf(&text, "Start: %s\n", start.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(&text, "Organizer: %s\n", org.String())
	if body != "" {
		fmt.Fprintf(&text, "\nDescription:\n%s\n", body)
	}
	if current.ActivityType != "" {
		fmt.Fprintf(&text, "\nCurrently saved activity type: %s\n", current.ActivityType)
	}

	fmt.Fprintf(&text, "\nActivity types: %s\n", strings.Join(h.activities, ", "))
	fmt.Fprintf(&text, "Rules: activity type and customer event are required. ")
	fmt.Fprintf(&text, "An engagement type is required unless the activity type is %s, which never has one.\n", models.ActivityPTO)
	text.WriteString("\nWhen ready, call sync_appointment with the source and your classification.")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Classify appointment: %s", subject),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text.String()},
			},
		},
	}, nil
}
