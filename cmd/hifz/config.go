package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/hifz/internal/config"
	"github.com/verte-zerg/hifz/internal/model"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// ensureConfigFile writes the commented template unless a file exists.
func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	policy := model.DefaultPolicy()
	return fmt.Sprintf(`# hifz configuration
# Uncomment a value to enable it. CLI flags override config values.

[plan]
# pages-per-day = %.1f       # Default rate for hifz init
# off-days = "fri"           # Weekly off-days (names or 0-6, 0 = Sunday)
# review = false             # Schedule a review of recent pages
# review-ratio = %d          # Review pages per new page
# method = %q                # standard, prayer or custom
# city = ""                  # City for the prayer method
# country = ""               # Country for the prayer method

[policy]
# backlog-spread-days = %.0f  # Owed pages are repaid over roughly this many days
# min-surcharge = %.1f        # Smallest extra rate while catching up

[store]
# path = ""                  # SQLite database (default: $XDG_DATA_HOME/hifz/hifz.db)
# review-flags = "sqlite"    # sqlite or redis
# redis-url = %q

[log]
# level = "warn"             # debug, info, warn, error
`,
		defaultPagesPerDay,
		defaultReviewRatio,
		defaultMethod,
		policy.BacklogSpreadDays,
		policy.MinSurcharge,
		defaultRedisURL,
	)
}
