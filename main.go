// ABOUTME: Entry point for the timeline CLI and MCP server
// ABOUTME: Routes to the task pane, CLI commands or MCP server based on arguments
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/harperreed/timeline/charm"
	"github.com/harperreed/timeline/cli"
	"github.com/harperreed/timeline/db"
	"github.com/harperreed/timeline/logging"
)

const version = "0.1.0"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/timeline/timeline.db)")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("timeline version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	log := logging.Default()
	command := args[0]
	commandArgs := args[1:]

	var err error
	switch command {
	case "form":
		err = withDatabase(*dbPath, func(database *sql.DB) error {
			return cli.FormCommand(database, commandArgs)
		})
	case "sync":
		err = withDatabase(*dbPath, func(database *sql.DB) error {
			return cli.SyncCommand(database, commandArgs)
		})
	case "props":
		err = withDatabase(*dbPath, func(database *sql.DB) error {
			return cli.PropsCommand(database, commandArgs)
		})
	case "status":
		err = withDatabase(*dbPath, func(database *sql.DB) error {
			return cli.StatusCommand(database, commandArgs)
		})
	case "mcp":
		err = withDatabase(*dbPath, func(database *sql.DB) error {
			return cli.MCPCommand(database, version)
		})
	case "config":
		err = cli.ConfigCommand(commandArgs)
	case "auth":
		err = runAuth(commandArgs)
	case "charm":
		err = runCharm(commandArgs)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatal(err.Error(), "command", command)
	}
}

func withDatabase(dbPath string, fn func(*sql.DB) error) error {
	if dbPath == "" {
		dbPath = db.DefaultPath()
	}
	database, err := db.OpenDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()

	return fn(database)
}

func runAuth(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("auth requires a target (timeline or google)")
	}
	switch args[0] {
	case "timeline":
		return cli.AuthTimelineCommand(args[1:])
	case "google":
		return cli.AuthGoogleCommand(args[1:])
	default:
		return fmt.Errorf("unknown auth target: %s", args[0])
	}
}

func runCharm(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("charm requires a subcommand (status, sync, wipe or autosync)")
	}
	switch args[0] {
	case "status":
		return charm.StatusCommand(args[1:])
	case "sync":
		return charm.SyncNowCommand(args[1:])
	case "wipe":
		return charm.WipeCommand(args[1:])
	case "autosync":
		return charm.AutoSyncCommand(args[1:])
	default:
		return fmt.Errorf("unknown charm command: %s", args[0])
	}
}

func printUsage() {
	fmt.Printf(`timeline v%s - Classify appointments and send them to Timeline

USAGE:
  timeline [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/timeline/timeline.db)

SOURCES:
  path/to/meeting.ics    First event of an iCalendar file
  path/to/invite.eml     Meeting invite message
  google:<eventID>       Event in your primary Google Calendar

COMMANDS:
  timeline form <source>           Open the interactive task pane

  timeline sync <source> [flags]   Save the classification and submit it
    --activity <type>                Activity type (PTO locks engagement type)
    --engagement <type>              Engagement type
    --event <text>                   Customer event text
    --onsite                         Meeting was on site
    --cust                           Customer interaction
    --clevel                         C-level attendees
    --dry-run                        Print the payload without saving or sending
    Flags not given keep the saved values.

  timeline props get <source>      Show the saved classification
  timeline props set <source> [flags]
                                   Save a classification without submitting

  timeline status                  Show config, last sync and recent submissions
    --limit <n>                      Submissions to show (default: 10)

  timeline config show             Print the config file
  timeline config set [flags]      Update endpoint, tag, tenant, owner, backend,
                                   timezone, timeout or activities

  timeline auth timeline           Store the Timeline user and password in the keyring
    --user <name>                    User name (prompted otherwise)
    --clear                          Remove the stored credential
  timeline auth google             Authorize Google Calendar access

  timeline charm status|sync|wipe  Manage the Charm property backend
  timeline charm autosync on|off   Sync after every property save

  timeline mcp                     Start MCP server on stdio

ENVIRONMENT:
  TIMELINE_ENDPOINT, TIMELINE_TAG, TIMELINE_TENANT_ID, TIMELINE_OWNER_EMAIL,
  TIMELINE_PROPERTY_BACKEND, TIMELINE_TIMEZONE, TIMELINE_TIMEOUT,
  TIMELINE_CREDENTIAL, TIMELINE_LOG_LEVEL, TIMELINE_CHARM_HOST,
  GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET
  A .env file in the working directory is loaded first.

EXAMPLES:
  # Classify and submit a customer meeting
  timeline sync review.ics --activity "Customer Meeting" --engagement Demo --event "Acme kickoff" --onsite

  # Log time off
  timeline sync vacation.ics --activity PTO --event "Summer break"

`, version)
}
