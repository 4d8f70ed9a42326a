// ABOUTME: Non-interactive appointment subcommands
// ABOUTME: Submits a classification with flags, or reads and writes saved properties
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/harperreed/timeline/form"
	"github.com/harperreed/timeline/models"
	"github.com/harperreed/timeline/sync"
)

// classificationFlags binds the form fields to a flag set. Only flags the
// user passes override the saved classification.
type classificationFlags struct {
	activity   string
	engagement string
	event      string
	onSite     bool
	cust       bool
	cLevel     bool
}

func (c *classificationFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.activity, "activity", "", "Activity type (e.g. \"Customer Meeting\", PTO)")
	fs.StringVar(&c.engagement, "engagement", "", "Engagement type (ignored for PTO)")
	fs.StringVar(&c.event, "event", "", "Customer event text")
	fs.BoolVar(&c.onSite, "onsite", false, "Meeting was on site")
	fs.BoolVar(&c.cust, "cust", false, "Meeting involved customer interaction")
	fs.BoolVar(&c.cLevel, "clevel", false, "Meeting involved C-level attendees")
}

func (c *classificationFlags) apply(fs *flag.FlagSet, state models.FormState) models.FormState {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "activity":
			state.ActivityType = c.activity
		case "engagement":
			state.EngagementType = c.engagement
		case "event":
			state.CustomerEventText = c.event
		case "onsite":
			state.OnSite = c.onSite
		case "cust":
			state.CustInteraction = c.cust
		case "clevel":
			state.CLevel = c.cLevel
		}
	})
	return state
}

// parseInterspersed parses flags that may appear before or after positional
// arguments and returns the positionals.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

// SyncCommand submits one appointment to Timeline.
func SyncCommand(database *sql.DB, args []string) error {
	return runSync(os.Stdout, database, args)
}

func runSync(w io.Writer, database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	var flags classificationFlags
	flags.register(fs)
	dryRun := fs.Bool("dry-run", false, "Print the payload without saving or sending")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("usage: timeline sync <source> [flags]")
	}

	env, err := NewEnv(database)
	if err != nil {
		return err
	}

	ctx := context.Background()
	src, err := env.Open(ctx, positional[0])
	if err != nil {
		return err
	}

	state := flags.apply(fs, form.Load(src.Store))
	req := sync.SyncRequest{Item: src.Item, Store: src.Store, State: state}

	if *dryRun {
		syncer, err := env.PreviewSyncer(ctx, src)
		if err != nil {
			return err
		}
		payload, err := syncer.Preview(ctx, req)
		if err != nil {
			return sync.StatusFromError(err).Err()
		}
		body, err := sync.Marshal(payload)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w, body)
		return nil
	}

	syncer, err := env.Syncer(ctx, src)
	if err != nil {
		return err
	}

	status := syncer.Sync(ctx, req)
	if !status.OK() {
		return status.Err()
	}
	_, _ = fmt.Fprintf(w, "✓ %s\n", status.Message)
	return nil
}

// PropsCommand reads or writes an appointment's saved classification.
func PropsCommand(database *sql.DB, args []string) error {
	return runProps(os.Stdout, database, args)
}

func runProps(w io.Writer, database *sql.DB, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: timeline props get|set <source> [flags]")
	}

	fs := flag.NewFlagSet("props "+args[0], flag.ContinueOnError)
	var flags classificationFlags
	if args[0] == "set" {
		flags.register(fs)
	}

	positional, err := parseInterspersed(fs, args[1:])
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("usage: timeline props %s <source>", args[0])
	}

	env, err := NewEnv(database)
	if err != nil {
		return err
	}

	ctx := context.Background()
	src, err := env.Open(ctx, positional[0])
	if err != nil {
		return err
	}

	switch args[0] {
	case "get":
		printClassification(w, form.Load(src.Store))
		return nil
	case "set":
		state := flags.apply(fs, form.Load(src.Store))
		state = form.Validate(state).Apply(state)
		if err := form.Save(ctx, src.Store, state); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "✓ Saved properties for %s\n", src.Item.Key())
		printClassification(w, state)
		return nil
	default:
		return fmt.Errorf("unknown props command: %s", args[0])
	}
}

func printClassification(w io.Writer, state models.FormState) {
	_, _ = fmt.Fprintf(w, "Activity type:     %s\n", state.ActivityType)
	_, _ = fmt.Fprintf(w, "Engagement type:   %s\n", state.EngagementType)
	_, _ = fmt.Fprintf(w, "Customer event:    %s\n", state.CustomerEventText)
	_, _ = fmt.Fprintf(w, "On site:           %v\n", state.OnSite)
	_, _ = fmt.Fprintf(w, "Cust. interaction: %v\n", state.CustInteraction)
	_, _ = fmt.Fprintf(w, "C-level:           %v\n", state.CLevel)

	if !form.Validate(state).SubmitEnabled {
		_, _ = fmt.Fprintln(w, "\nIncomplete: activity type, customer event and (unless PTO) engagement type are required")
	}
}
