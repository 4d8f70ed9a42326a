// ABOUTME: Status subcommand
// ABOUTME: Shows configuration, the last sync state and recent submissions
package cli

import (
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harperreed/timeline/db"
	"github.com/harperreed/timeline/sync"
)

// StatusCommand prints where submissions go and what was sent recently.
func StatusCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	limit := fs.Int("limit", 10, "Number of recent submissions to show")
	_ = fs.Parse(args)

	env, err := NewEnv(database)
	if err != nil {
		return err
	}
	return printStatus(os.Stdout, env, *limit)
}

func printStatus(w io.Writer, env *Env, limit int) error {
	cfg := env.Config

	_, _ = fmt.Fprintln(w, "Timeline")
	_, _ = fmt.Fprintln(w, "────────")
	_, _ = fmt.Fprintf(w, "Endpoint:   %s\n", cfg.Endpoint)
	_, _ = fmt.Fprintf(w, "Tag:        %s\n", cfg.Tag)
	if cfg.TenantID != "" {
		_, _ = fmt.Fprintf(w, "Tenant:     %s\n", cfg.TenantID)
	}
	_, _ = fmt.Fprintf(w, "Properties: %s\n", cfg.PropertyBackend)

	cred, err := env.Credential()
	switch {
	case err != nil:
		_, _ = fmt.Fprintf(w, "Credential: unavailable (%v)\n", err)
	case cred == "":
		_, _ = fmt.Fprintln(w, "Credential: not set (run 'timeline auth timeline')")
	default:
		_, _ = fmt.Fprintln(w, "Credential: set")
	}

	if _, err := sync.LoadToken(); err == nil {
		_, _ = fmt.Fprintln(w, "Google:     authenticated")
	} else {
		_, _ = fmt.Fprintln(w, "Google:     not authenticated")
	}

	state, err := db.LoadSyncState(env.DB, db.TimelineService)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(w)
	if state == nil {
		_, _ = fmt.Fprintln(w, "Last sync:  never")
	} else {
		_, _ = fmt.Fprintf(w, "State:      %s\n", state.Status)
		if !state.LastSyncAt.IsZero() {
			_, _ = fmt.Fprintf(w, "Last sync:  %s\n", state.LastSyncAt.Local().Format(time.RFC1123))
		}
		if state.LastItemKey != "" {
			_, _ = fmt.Fprintf(w, "Last item:  %s\n", state.LastItemKey)
		}
		if state.LastError != "" {
			_, _ = fmt.Fprintf(w, "Last error: %s\n", state.LastError)
		}
	}

	subs, err := db.RecentSubmissions(env.DB, limit)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}

	_, _ = fmt.Fprintf(w, "\nRecent submissions (%d):\n", len(subs))
	for _, sub := range subs {
		_, _ = fmt.Fprintf(w, "  %s  %-18s %s\n",
			sub.SubmittedAt.Local().Format("2006-01-02 15:04"), sub.ActivityType, sub.ItemKey)
	}
	return nil
}
