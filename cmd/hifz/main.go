// Package main provides the CLI entrypoint for hifz.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/hifz/internal/calendar"
	"github.com/verte-zerg/hifz/internal/config"
	"github.com/verte-zerg/hifz/internal/logger"
	"github.com/verte-zerg/hifz/internal/model"
	"github.com/verte-zerg/hifz/internal/planner"
	"github.com/verte-zerg/hifz/internal/service"
	"github.com/verte-zerg/hifz/internal/store"
	"github.com/verte-zerg/hifz/internal/tui"
)

const (
	flagsSQLite     = "sqlite"
	flagsRedis      = "redis"
	defaultRedisURL = "redis://localhost:6379/0"
)

var (
	globalOwner    string
	globalDate     string
	globalLogLevel string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hifz",
		Short:         "Memorization planner for the 604-page mushaf",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runDashboardCmd,
	}

	rootCmd.PersistentFlags().StringVar(&globalOwner, "owner", "", "plan owner (default: this device)")
	rootCmd.PersistentFlags().StringVar(&globalDate, "date", "", "act as if today were this date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVar(&globalLogLevel, "log-level", "warn", "log level: debug, info, warn, error")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newTodayCmd())
	rootCmd.AddCommand(newPreviewCmd())
	rootCmd.AddCommand(newCompleteCmd())
	rootCmd.AddCommand(newEmergencyCmd())
	rootCmd.AddCommand(newReviewCmd())
	rootCmd.AddCommand(newForecastCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newJuzCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// app bundles what a command needs to act on the plan.
type app struct {
	svc     *service.Service
	owner   string
	fileCfg config.FileConfig
	log     *slog.Logger
	closers []func() error
}

func openApp(cmd *cobra.Command) (*app, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "log-level", &globalLogLevel, fileCfg.Log.Level)
	log := logger.Setup(globalLogLevel, cmd.ErrOrStderr())

	policy, err := policyFromConfig(fileCfg.Policy)
	if err != nil {
		return nil, err
	}
	clock, err := clockFromFlag(globalDate)
	if err != nil {
		return nil, err
	}
	owner, err := resolveOwner(globalOwner)
	if err != nil {
		return nil, err
	}

	a := &app{owner: owner, fileCfg: fileCfg, log: log}
	dbPath := config.DefaultDBPath()
	if fileCfg.Store.Path != nil && *fileCfg.Store.Path != "" {
		dbPath = *fileCfg.Store.Path
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	a.closers = append(a.closers, st.Close)

	flags, err := openReviewFlags(cmd.Context(), fileCfg.Store, st)
	if err != nil {
		a.close()
		return nil, err
	}
	if rf, ok := flags.(*store.RedisFlags); ok {
		a.closers = append(a.closers, rf.Close)
	}

	a.svc = service.New(st, st, flags,
		service.WithLogger(log),
		service.WithClock(clock),
		service.WithPolicy(policy),
	)
	log.Debug("opened plan store", "db", dbPath, "owner", owner)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logErrf("failed to close: %v\n", err)
		}
	}
}

func openReviewFlags(ctx context.Context, cfg config.StoreConfig, st *store.Store) (service.ReviewFlags, error) {
	kind := flagsSQLite
	if cfg.ReviewFlags != nil {
		kind = strings.ToLower(strings.TrimSpace(*cfg.ReviewFlags))
	}
	switch kind {
	case "", flagsSQLite:
		return st, nil
	case flagsRedis:
		url := defaultRedisURL
		if cfg.RedisURL != nil && *cfg.RedisURL != "" {
			url = *cfg.RedisURL
		}
		if ctx == nil {
			ctx = context.Background()
		}
		flags, err := store.OpenRedisFlags(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to open review flags: %w", err)
		}
		return flags, nil
	default:
		return nil, fmt.Errorf("unknown review-flags store %q (want %s or %s)", kind, flagsSQLite, flagsRedis)
	}
}

func policyFromConfig(cfg config.PolicyConfig) (model.Policy, error) {
	policy := model.DefaultPolicy()
	if cfg.BacklogSpreadDays != nil {
		if *cfg.BacklogSpreadDays <= 0 {
			return model.Policy{}, fmt.Errorf("backlog-spread-days must be > 0")
		}
		policy.BacklogSpreadDays = *cfg.BacklogSpreadDays
	}
	if cfg.MinSurcharge != nil {
		if *cfg.MinSurcharge <= 0 {
			return model.Policy{}, fmt.Errorf("min-surcharge must be > 0")
		}
		policy.MinSurcharge = *cfg.MinSurcharge
	}
	return policy, nil
}

func clockFromFlag(value string) (service.Clock, error) {
	if value == "" {
		return time.Now, nil
	}
	date, err := calendar.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("invalid --date value: %w", err)
	}
	return func() time.Time { return date }, nil
}

func resolveOwner(owner string) (string, error) {
	if owner = strings.TrimSpace(owner); owner != "" {
		return owner, nil
	}
	id, err := config.DeviceID(config.DeviceIDPath())
	if err != nil {
		return "", fmt.Errorf("failed to resolve device identity: %w", err)
	}
	return id, nil
}

// explain turns engine and store errors into actionable messages while
// keeping them matchable with errors.Is.
func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrPlanNotFound):
		return fmt.Errorf("%w; create one with: hifz init", err)
	case errors.Is(err, store.ErrPlanExists):
		return fmt.Errorf("%w; remove it first with: hifz delete --yes", err)
	case errors.Is(err, store.ErrVersionConflict):
		return fmt.Errorf("%w; try again", err)
	case errors.Is(err, planner.ErrAlreadyRecorded):
		return fmt.Errorf("%w for today", err)
	case errors.Is(err, planner.ErrRestDay):
		return fmt.Errorf("%w; use --advance to work ahead", err)
	default:
		return err
	}
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.svc.Load(cmd.Context(), a.owner); err != nil {
		return explain(err)
	}
	m := tui.NewModel(a.svc, a.owner, a.svc.Today)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
