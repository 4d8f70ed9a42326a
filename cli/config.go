// ABOUTME: Config subcommand
// ABOUTME: Shows and updates the Timeline endpoint settings file
package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harperreed/timeline/sync"
)

// ConfigCommand dispatches config show|set.
func ConfigCommand(args []string) error {
	return runConfig(os.Stdout, args)
}

func runConfig(w io.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: timeline config show|set [flags]")
	}

	cfg, err := sync.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch args[0] {
	case "show":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	case "set":
		return setConfig(w, cfg, args[1:])
	default:
		return fmt.Errorf("unknown config command: %s", args[0])
	}
}

func setConfig(w io.Writer, cfg *sync.Config, args []string) error {
	fs := flag.NewFlagSet("config set", flag.ContinueOnError)
	endpoint := fs.String("endpoint", "", "Timeline inbound message URL")
	tag := fs.String("tag", "", "Message tag query parameter")
	tenant := fs.String("tenant", "", "X-Tenant-Id header value")
	owner := fs.String("owner", "", "Owner email sent with each appointment")
	backend := fs.String("backend", "", "Property backend (sqlite or charm)")
	timezone := fs.String("timezone", "", "IANA zone for appointment dates")
	timeout := fs.Int("timeout", 0, "Request timeout in seconds")
	activities := fs.String("activities", "", "Comma-separated activity types")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "endpoint":
			cfg.Endpoint = *endpoint
		case "tag":
			cfg.Tag = *tag
		case "tenant":
			cfg.TenantID = *tenant
		case "owner":
			cfg.OwnerEmail = *owner
		case "backend":
			cfg.PropertyBackend = strings.ToLower(*backend)
		case "timezone":
			cfg.Timezone = *timezone
		case "timeout":
			cfg.TimeoutSeconds = *timeout
		case "activities":
			cfg.ActivityTypes = splitList(*activities)
		}
	})

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := sync.SaveConfig(cfg); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "✓ Config saved to %s\n", sync.ConfigPath())
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
