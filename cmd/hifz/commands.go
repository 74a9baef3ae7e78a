package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/hifz/internal/model"
	"github.com/verte-zerg/hifz/internal/report"
)

const defaultForecastDays = 14

var (
	completeAdvance bool
	forecastDays    int
	deleteYes       bool
)

func newTodayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's portion",
		Args:  cobra.NoArgs,
		RunE:  runTodayCmd,
	}
}

func runTodayCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	agenda, err := a.svc.Agenda(cmd.Context(), a.owner)
	if err != nil {
		return explain(err)
	}
	return report.RenderAgenda(cmd.OutOrStdout(), agenda)
}

func newPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Show the next working day's portion",
		Args:  cobra.NoArgs,
		RunE:  runPreviewCmd,
	}
}

func runPreviewCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	task, err := a.svc.Preview(cmd.Context(), a.owner)
	if err != nil {
		return explain(err)
	}
	return report.RenderTask(cmd.OutOrStdout(), "Next portion (hifz complete --advance to record it today)", task)
}

func newCompleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Record today's portion as memorized",
		Args:  cobra.NoArgs,
		RunE:  runCompleteCmd,
	}
	cmd.Flags().BoolVar(&completeAdvance, "advance", false, "also memorize the next working day's portion today")
	return cmd
}

func runCompleteCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	out, err := a.svc.Complete(cmd.Context(), a.owner, completeAdvance)
	if err != nil {
		return explain(err)
	}
	w := cmd.OutOrStdout()
	if !out.Changed {
		_, err := fmt.Fprintln(w, "The plan is already complete.")
		return err
	}
	if _, err := fmt.Fprintf(w, "Memorized pages %s.\n", report.PageLabel(out.Task.NewPages)); err != nil {
		return err
	}
	if out.Plan.Finished() {
		_, err := fmt.Fprintln(w, "Plan complete.")
		return err
	}
	agenda, err := a.svc.Agenda(cmd.Context(), a.owner)
	if err != nil {
		return explain(err)
	}
	return report.RenderAgenda(w, agenda)
}

func newEmergencyCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "emergency extend|compensate",
		Short:     "Skip today's portion",
		Long:      "Skip today's portion. extend lets the end date slip; compensate adds the pages to the backlog to be caught up over the next days.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(model.EmergencyExtend), string(model.EmergencyCompensate)},
		RunE:      runEmergencyCmd,
	}
}

func runEmergencyCmd(cmd *cobra.Command, args []string) error {
	mode := model.EmergencyMode(args[0])
	if mode != model.EmergencyExtend && mode != model.EmergencyCompensate {
		return fmt.Errorf("mode must be %s or %s", model.EmergencyExtend, model.EmergencyCompensate)
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	out, err := a.svc.Emergency(cmd.Context(), a.owner, mode)
	if err != nil {
		return explain(err)
	}
	w := cmd.OutOrStdout()
	if !out.Changed {
		_, err := fmt.Fprintln(w, "The plan is already complete.")
		return err
	}
	switch mode {
	case model.EmergencyCompensate:
		_, err = fmt.Fprintf(w, "Skipped pages %s; backlog is now %s pages.\n",
			report.PageLabel(out.Task.NewPages), report.FormatRate(out.Plan.BacklogPages))
	default:
		_, err = fmt.Fprintf(w, "Skipped pages %s; the end date moves back.\n", report.PageLabel(out.Task.NewPages))
	}
	return err
}

func newReviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Mark today's review as done",
		Args:  cobra.NoArgs,
		RunE:  runReviewCmd,
	}
}

func runReviewCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	r, err := a.svc.MarkReviewDone(cmd.Context(), a.owner)
	if err != nil {
		return explain(err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Review of pages %s done.\n", report.PageLabel(&r))
	return err
}

func newForecastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Show the upcoming schedule",
		Args:  cobra.NoArgs,
		RunE:  runForecastCmd,
	}
	cmd.Flags().IntVar(&forecastDays, "days", defaultForecastDays, "number of days to show")
	return cmd
}

func runForecastCmd(cmd *cobra.Command, _ []string) error {
	if forecastDays <= 0 {
		return fmt.Errorf("--days must be > 0")
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	tasks, err := a.svc.Forecast(cmd.Context(), a.owner, forecastDays)
	if err != nil {
		return explain(err)
	}
	return report.RenderForecast(cmd.OutOrStdout(), tasks)
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show progress and history",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	history, err := a.svc.History(cmd.Context(), a.owner, nil)
	if err != nil {
		return explain(err)
	}
	return report.RenderHistory(cmd.OutOrStdout(), history, a.svc.Today(), report.TerminalWidth())
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the plan and all progress",
		Args:  cobra.NoArgs,
		RunE:  runDeleteCmd,
	}
	cmd.Flags().BoolVar(&deleteYes, "yes", false, "confirm deletion")
	return cmd
}

func runDeleteCmd(cmd *cobra.Command, _ []string) error {
	if !deleteYes {
		return errors.New("refusing to delete without --yes")
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.svc.Delete(cmd.Context(), a.owner); err != nil {
		return explain(err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "Plan deleted.")
	return err
}

func newJuzCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "juz",
		Short: "List juz page ranges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return report.RenderJuz(cmd.OutOrStdout())
		},
	}
}
