// ABOUTME: MCP server subcommand
// ABOUTME: Exposes appointment classification and submit tools over stdio
package cli

import (
	"context"
	"database/sql"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/timeline/handlers"
	"github.com/harperreed/timeline/logging"
)

// MCPCommand starts the MCP server on stdio
func MCPCommand(db *sql.DB, version string) error {
	logging.Default().Info("starting Timeline MCP server")

	env, err := NewEnv(db)
	if err != nil {
		return err
	}

	server, err := NewMCPServer(context.Background(), env, version)
	if err != nil {
		return err
	}

	return server.Run(context.Background(), &mcp.StdioTransport{})
}

// NewMCPServer registers the appointment tools, resources and prompts.
func NewMCPServer(ctx context.Context, env *Env, version string) (*mcp.Server, error) {
	syncer, err := env.Syncer(ctx, nil)
	if errors.Is(err, errNoCredential) {
		logging.Default().Warn("no Timeline credential configured; sync_appointment will fail")
		syncer, err = env.PreviewSyncer(ctx, nil)
	}
	if err != nil {
		return nil, err
	}

	appointmentHandlers := handlers.NewAppointmentHandlers(env, syncer)
	resourceHandlers := handlers.NewResourceHandlers(env.DB)
	promptHandlers := handlers.NewPromptHandlers(env, env.Config.Activities())

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "timeline",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_classification",
		Description: "Check a classification: whether engagement type is locked (PTO) and whether it can be submitted",
	}, appointmentHandlers.ValidateClassification)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_classification",
		Description: "Read an appointment and its saved classification. Source is a .ics or .eml path or google:<eventID>",
	}, appointmentHandlers.GetClassification)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "preview_payload",
		Description: "Build the Timeline payload for an appointment without saving or sending anything",
	}, appointmentHandlers.PreviewPayload)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync_appointment",
		Description: "Save the classification on the appointment and submit it to Timeline",
	}, appointmentHandlers.SyncAppointment)

	server.AddResource(&mcp.Resource{
		URI:         "timeline://submissions",
		Name:        "submissions",
		Description: "Recent appointments submitted to Timeline",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         "timeline://status",
		Name:        "status",
		Description: "State of the last Timeline submit",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        "classify-appointment",
		Description: "Suggest a Timeline classification for an appointment",
		Arguments: []*mcp.PromptArgument{
			{Name: "source", Description: ".ics or .eml path or google:<eventID>", Required: true},
		},
	}, promptHandlers.GetPrompt)

	return server, nil
}
