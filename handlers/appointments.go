// ABOUTME: Appointment MCP tool handlers
// ABOUTME: Implements validate_classification, get_classification, preview_payload and sync_appointment
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/timeline/form"
	"github.com/harperreed/timeline/models"
	"github.com/harperreed/timeline/sync"
)

// Opener resolves a source argument to an item and its property store.
type Opener interface {
	Open(ctx context.Context, source string) (*sync.Source, error)
}

type AppointmentHandlers struct {
	opener Opener
	syncer *sync.Syncer
}

func NewAppointmentHandlers(opener Opener, syncer *sync.Syncer) *AppointmentHandlers {
	return &AppointmentHandlers{opener: opener, syncer: syncer}
}

type ClassificationInput struct {
	ActivityType    string `json:"activity_type" jsonschema:"Activity type, e.g. Customer Meeting or PTO"`
	EngagementType  string `json:"engagement_type,omitempty" jsonschema:"Engagement type (ignored for PTO)"`
	CustomerEvent   string `json:"customer_event,omitempty" jsonschema:"Customer event text, sent as the Timeline subject"`
	OnSite          bool   `json:"on_site,omitempty" jsonschema:"Meeting was on site"`
	CustInteraction bool   `json:"cust_interaction,omitempty" jsonschema:"Meeting involved customer interaction"`
	CLevel          bool   `json:"c_level,omitempty" jsonschema:"Meeting involved C-level attendees"`
}

func (in ClassificationInput) state() models.FormState {
	return models.FormState{
		ActivityType:      in.ActivityType,
		EngagementType:    in.EngagementType,
		CustomerEventText: in.CustomerEvent,
		OnSite:            in.OnSite,
		CustInteraction:   in.CustInteraction,
		CLevel:            in.CLevel,
	}
}

type DecisionOutput struct {
	EngagementTypeDisabled bool   `json:"engagement_type_disabled"`
	EngagementType         string `json:"engagement_type"`
	SubmitEnabled          bool   `json:"submit_enabled"`
}

func decisionOutput(d models.Decision) DecisionOutput {
	return DecisionOutput{
		EngagementTypeDisabled: d.EngagementTypeDisabled,
		EngagementType:         d.EngagementTypeValue,
		SubmitEnabled:          d.SubmitEnabled,
	}
}

func (h *AppointmentHandlers) ValidateClassification(_ context.Context, request *mcp.CallToolRequest, input ClassificationInput) (*mcp.CallToolResult, DecisionOutput, error) {
	return nil, decisionOutput(form.Validate(input.state())), nil
}

type SourceInput struct {
	Source string `json:"source" jsonschema:"Appointment source: path to .ics or .eml, or google:<eventID> (required)"`
}

type ClassificationOutput struct {
	Source         string              `json:"source"`
	Classification ClassificationInput `json:"classification"`
	Decision       DecisionOutput      `json:"decision"`
}

func (h *AppointmentHandlers) GetClassification(ctx context.Context, request *mcp.CallToolRequest, input SourceInput) (*mcp.CallToolResult, ClassificationOutput, error) {
	if input.Source == "" {
		return nil, ClassificationOutput{}, fmt.Errorf("source is required")
	}

	src, err := h.opener.Open(ctx, input.Source)
	if err != nil {
		return nil, ClassificationOutput{}, fmt.Errorf("failed to open source: %w", err)
	}

	state := form.Load(src.Store)
	return nil, ClassificationOutput{
		Source: src.Item.Key(),
		Classification: ClassificationInput{
			ActivityType:    state.ActivityType,
			EngagementType:  state.EngagementType,
			CustomerEvent:   state.CustomerEventText,
			OnSite:          state.OnSite,
			CustInteraction: state.CustInteraction,
			CLevel:          state.CLevel,
		},
		Decision: decisionOutput(form.Validate(state)),
	}, nil
}

type SubmitInput struct {
	Source         string              `json:"source" jsonschema:"Appointment source: path to .ics or .eml, or google:<eventID> (required)"`
	Classification ClassificationInput `json:"classification" jsonschema:"Classification to save and submit"`
}

func (h *AppointmentHandlers) PreviewPayload(ctx context.Context, request *mcp.CallToolRequest, input SubmitInput) (*mcp.CallToolResult, models.OutboundPayload, error) {
	req, err := h.request(ctx, input)
	if err != nil {
		return nil, models.OutboundPayload{}, err
	}

	payload, err := h.syncer.Preview(ctx, req)
	if err != nil {
		return nil, models.OutboundPayload{}, fmt.Errorf("failed to build payload: %w", err)
	}
	return nil, payload, nil
}

// SyncAppointment reports a rejected submit as a tool error result so the
// status message reaches the model verbatim.
func (h *AppointmentHandlers) SyncAppointment(ctx context.Context, request *mcp.CallToolRequest, input SubmitInput) (*mcp.CallToolResult, models.Status, error) {
	req, err := h.request(ctx, input)
	if err != nil {
		return nil, models.Status{}, err
	}

	status := h.syncer.Sync(ctx, req)
	if !status.OK() {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: status.Message}},
		}, status, nil
	}
	return nil, status, nil
}

func (h *AppointmentHandlers) request(ctx context.Context, input SubmitInput) (sync.SyncRequest, error) {
	if input.Source == "" {
		return sync.SyncRequest{}, fmt.Errorf("source is required")
	}

	src, err := h.opener.Open(ctx, input.Source)
	if err != nil {
		return sync.SyncRequest{}, fmt.Errorf("failed to open source: %w", err)
	}

	return sync.SyncRequest{Item: src.Item, Store: src.Store, State: input.Classification.state()}, nil
}
