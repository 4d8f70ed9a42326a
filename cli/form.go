// ABOUTME: Interactive task pane subcommand
// ABOUTME: Opens a source and runs the bubbletea classification form
package cli

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/timeline/logging"
	"github.com/harperreed/timeline/tui"
)

// FormCommand opens the task pane for one appointment.
func FormCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("form", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: timeline form <source>")
	}

	env, err := NewEnv(database)
	if err != nil {
		return err
	}

	ctx := context.Background()
	src, err := env.Open(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	syncer, err := env.Syncer(ctx, src)
	if errors.Is(err, errNoCredential) {
		// The form still works; Sync will report the missing credential.
		logging.Default().Warn("no Timeline credential configured")
		syncer, err = env.PreviewSyncer(ctx, src)
	}
	if err != nil {
		return err
	}

	model := tui.NewModel(ctx, tui.Options{
		Item:       src.Item,
		Store:      src.Store,
		Syncer:     syncer,
		Activities: env.Config.Activities(),
		DB:         database,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("task pane failed: %w", err)
	}
	return nil
}
