// ABOUTME: CLI commands for the Charm KV property backend
// ABOUTME: Status, manual sync and wipe; auth is handled by charm's SSH keys

package charm

import (
	"flag"
	"fmt"
	"io"
	"os"
)

// StatusCommand shows charm configuration and how many items have properties.
func StatusCommand(args []string) error {
	fs := flag.NewFlagSet("charm status", flag.ExitOnError)
	_ = fs.Parse(args)

	c, err := GetClient()
	if err != nil {
		fmt.Println("Status: Not connected")
		fmt.Println("Charm uses SSH keys for authentication - no login required!")
		return nil //nolint:nilerr // not connected is a valid state
	}
	return showStatus(os.Stdout, c)
}

func showStatus(w io.Writer, c *Client) error {
	cfg := c.Config()
	fmt.Fprintln(w, "Charm Property Backend")
	fmt.Fprintln(w, "──────────────────────")
	fmt.Fprintf(w, "Server:    %s\n", cfg.Host)
	fmt.Fprintf(w, "Auto-sync: %v\n", cfg.AutoSync)

	if id, err := c.ID(); err != nil {
		fmt.Fprintln(w, "ID:        unavailable")
	} else {
		fmt.Fprintf(w, "ID:        %s\n", id)
	}

	items, err := CountItems(c)
	if err != nil {
		return fmt.Errorf("failed to count items: %w", err)
	}
	fmt.Fprintf(w, "Items:     %d\n", items)
	return nil
}

// SyncNowCommand performs an immediate sync.
func SyncNowCommand(args []string) error {
	fs := flag.NewFlagSet("charm sync", flag.ExitOnError)
	_ = fs.Parse(args)

	c, err := GetClient()
	if err != nil {
		return fmt.Errorf("failed to get client: %w", err)
	}

	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Println("✓ Synced")
	return nil
}

// WipeCommand deletes every stored property.
func WipeCommand(args []string) error {
	fs := flag.NewFlagSet("charm wipe", flag.ExitOnError)
	confirm := fs.Bool("confirm", false, "Confirm data wipe")
	_ = fs.Parse(args)

	if !*confirm {
		fmt.Println("WARNING: This will delete ALL stored classifications!")
		fmt.Println()
		fmt.Println("To confirm, run:")
		fmt.Println("  timeline charm wipe --confirm")
		return nil
	}

	c, err := GetClient()
	if err != nil {
		return fmt.Errorf("failed to get client: %w", err)
	}

	if err := c.Wipe(); err != nil {
		return fmt.Errorf("failed to reset KV store: %w", err)
	}

	fmt.Println("✓ All properties wiped")
	return nil
}

// AutoSyncCommand turns sync-after-write on or off.
func AutoSyncCommand(args []string) error {
	fs := flag.NewFlagSet("charm autosync", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() != 1 || (fs.Arg(0) != "on" && fs.Arg(0) != "off") {
		return fmt.Errorf("usage: timeline charm autosync on|off")
	}

	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.SetAutoSync(fs.Arg(0) == "on"); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("✓ Auto-sync %s (takes effect on next start)\n", fs.Arg(0))
	return nil
}
