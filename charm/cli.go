// ABOUTME: CLI commands for Charm KV sync operations
// ABOUTME: SSH key auth means link is just a first sync; status, now, auto and wipe round it out

package charm

import (
	"flag"
	"fmt"
	"io"
)

func openClient() (*Client, *Config, error) {
	cfg, err := LoadConfig(ConfigPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	c, err := NewClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize client: %w", err)
	}
	return c, cfg, nil
}

// LinkCommand links this device to a Charm account by running a first sync.
func LinkCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sync link", flag.ExitOnError)
	_ = fs.Parse(args)

	c, cfg, err := openClient()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Linking to Charm Cloud (%s)...\n\n", cfg.Host)
	_, _ = fmt.Fprintln(out, "Charm uses SSH key authentication.")

	if err := c.Sync(); err != nil {
		return fmt.Errorf("link failed: %w", err)
	}

	if id, err := ID(); err != nil {
		_, _ = fmt.Fprintln(out, "✓ Device linked (ID unavailable)")
	} else {
		_, _ = fmt.Fprintf(out, "✓ Linked to account: %s\n", id)
	}
	_, _ = fmt.Fprintf(out, "✓ Auto-sync: %v\n", cfg.AutoSync)
	_, _ = fmt.Fprintln(out, "\nSet storage.backend: charm in config.yaml to keep crmdesk data in Charm Cloud.")
	return nil
}

// StatusCommand shows current sync configuration and status.
func StatusCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sync status", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg, err := LoadConfig(ConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	_, _ = fmt.Fprintln(out, "Charm Sync Status")
	_, _ = fmt.Fprintln(out, "─────────────────")
	_, _ = fmt.Fprintf(out, "Server:    %s\n", cfg.Host)
	_, _ = fmt.Fprintf(out, "Auto-sync: %v\n", cfg.AutoSync)

	id, err := ID()
	if err != nil {
		_, _ = fmt.Fprintln(out, "\nStatus: Not connected")
		return nil //nolint:nilerr // not connected is a valid state, not an error
	}
	_, _ = fmt.Fprintln(out, "\nStatus: Connected to Charm Cloud")
	_, _ = fmt.Fprintf(out, "ID:        %s\n", id)
	return nil
}

// NowCommand performs an immediate sync.
func NowCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sync now", flag.ExitOnError)
	_ = fs.Parse(args)

	c, _, err := openClient()
	if err != nil {
		return err
	}
	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	_, _ = fmt.Fprintln(out, "✓ Synced")
	return nil
}

// AutoCommand enables or disables auto-sync.
func AutoCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sync auto", flag.ExitOnError)
	enable := fs.Bool("enable", false, "Enable auto-sync")
	disable := fs.Bool("disable", false, "Disable auto-sync")
	_ = fs.Parse(args)

	if *enable == *disable {
		return fmt.Errorf("usage: crmdesk sync auto --enable|--disable")
	}

	path := ConfigPath()
	cfg, err := LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.AutoSync = *enable
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if *enable {
		_, _ = fmt.Fprintln(out, "✓ Auto-sync enabled")
	} else {
		_, _ = fmt.Fprintln(out, "✓ Auto-sync disabled")
	}
	return nil
}

// WipeCommand resets the local charm KV store. It requires --confirm.
func WipeCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sync wipe", flag.ExitOnError)
	confirm := fs.Bool("confirm", false, "Confirm data wipe")
	_ = fs.Parse(args)

	if !*confirm {
		_, _ = fmt.Fprintln(out, "WARNING: This will delete ALL local data!")
		_, _ = fmt.Fprintln(out, "\nTo confirm, run:\n  crmdesk sync wipe --confirm")
		return nil
	}

	c, _, err := openClient()
	if err != nil {
		return err
	}
	if err := c.Reset(); err != nil {
		return fmt.Errorf("failed to reset KV store: %w", err)
	}
	_, _ = fmt.Fprintln(out, "✓ All data wiped")
	return nil
}
