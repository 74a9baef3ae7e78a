package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/hifz/internal/calendar"
	"github.com/verte-zerg/hifz/internal/model"
	"github.com/verte-zerg/hifz/internal/planner"
	"github.com/verte-zerg/hifz/internal/report"
)

const (
	defaultPagesPerDay = 1.0
	defaultReviewRatio = 1
	defaultMethod      = string(model.MethodStandard)
)

var (
	initFrom        int
	initTo          int
	initFromJuz     int
	initToJuz       int
	initPagesPerDay float64
	initDeadline    string
	initOff         string
	initReview      bool
	initReviewRatio int
	initMethod      string
	initCity        string
	initCountry     string
	initStart       string
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a memorization plan",
		Long: `Create a memorization plan.

Choose the scope with --from/--to (pages) or --from-juz/--to-juz, then either
a fixed rate with --pages-per-day or a target date with --deadline. Page and
juz bounds can be mixed, e.g. --from-juz 2 --to 50.`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}
	cmd.Flags().IntVar(&initFrom, "from", 1, "first page (1-604)")
	cmd.Flags().IntVar(&initTo, "to", model.TotalPages, "last page (1-604)")
	cmd.Flags().IntVar(&initFromJuz, "from-juz", 0, "first juz (1-30)")
	cmd.Flags().IntVar(&initToJuz, "to-juz", 0, "last juz (1-30, default: --from-juz)")
	cmd.Flags().Float64Var(&initPagesPerDay, "pages-per-day", defaultPagesPerDay, "pages per day, in steps of 0.5")
	cmd.Flags().StringVar(&initDeadline, "deadline", "", "finish by this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&initOff, "off", "", "weekly off-days, e.g. fri or 5,6")
	cmd.Flags().BoolVar(&initReview, "review", false, "schedule a review of recent pages")
	cmd.Flags().IntVar(&initReviewRatio, "review-ratio", defaultReviewRatio, "review pages per new page")
	cmd.Flags().StringVar(&initMethod, "method", defaultMethod, "method: standard, prayer, custom")
	cmd.Flags().StringVar(&initCity, "city", "", "city for the prayer method")
	cmd.Flags().StringVar(&initCountry, "country", "", "country for the prayer method")
	cmd.Flags().StringVar(&initStart, "start", "", "start date (YYYY-MM-DD, default: today)")
	cmd.MarkFlagsMutuallyExclusive("pages-per-day", "deadline")
	cmd.MarkFlagsMutuallyExclusive("from", "from-juz")
	cmd.MarkFlagsMutuallyExclusive("to", "to-juz")
	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	planCfg := a.fileCfg.Plan
	applyFloatConfig(cmd, "pages-per-day", &initPagesPerDay, planCfg.PagesPerDay)
	applyStringConfig(cmd, "off", &initOff, planCfg.OffDays)
	applyBoolConfig(cmd, "review", &initReview, planCfg.Review)
	applyIntConfig(cmd, "review-ratio", &initReviewRatio, planCfg.ReviewRatio)
	applyStringConfig(cmd, "method", &initMethod, planCfg.Method)
	applyStringConfig(cmd, "city", &initCity, planCfg.City)
	applyStringConfig(cmd, "country", &initCountry, planCfg.Country)

	in, err := buildPlanInput(cmd)
	if err != nil {
		return err
	}
	plan, err := a.svc.Create(cmd.Context(), a.owner, in)
	if err != nil {
		return explain(err)
	}

	w := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(w, "Created plan: %s\n\n", report.PlanSummary(plan)); err != nil {
		return err
	}
	agenda, err := a.svc.Agenda(cmd.Context(), a.owner)
	if err != nil {
		return explain(err)
	}
	return report.RenderAgenda(w, agenda)
}

func buildPlanInput(cmd *cobra.Command) (planner.PlanInput, error) {
	in := planner.PlanInput{
		StartPage:     initFrom,
		EndPage:       initTo,
		ReviewEnabled: initReview,
		ReviewRatio:   initReviewRatio,
		Method:        model.Method(strings.ToLower(strings.TrimSpace(initMethod))),
		Location:      model.Location{City: strings.TrimSpace(initCity), Country: strings.TrimSpace(initCountry)},
	}

	if err := applyJuzBounds(cmd, &in); err != nil {
		return planner.PlanInput{}, fmt.Errorf("invalid juz range: %w", err)
	}

	if initDeadline != "" {
		target, err := calendar.Parse(initDeadline)
		if err != nil {
			return planner.PlanInput{}, fmt.Errorf("invalid --deadline value: %w", err)
		}
		in.Strategy = model.StrategyDeadline
		in.TargetDate = target
	} else {
		in.Strategy = model.StrategyCapacity
		in.PagesPerDay = initPagesPerDay
	}

	if initOff != "" {
		days, err := calendar.ParseWeekdays(initOff)
		if err != nil {
			return planner.PlanInput{}, fmt.Errorf("invalid --off value: %w", err)
		}
		in.OffDays = days
	}

	if initStart != "" {
		start, err := calendar.Parse(initStart)
		if err != nil {
			return planner.PlanInput{}, fmt.Errorf("invalid --start value: %w", err)
		}
		in.StartDate = start
	}
	return in, nil
}

// applyJuzBounds overrides only the bounds given in juz. A single juz flag
// covers that whole juz unless the other bound was given in pages.
func applyJuzBounds(cmd *cobra.Command, in *planner.PlanInput) error {
	flags := cmd.Flags()
	fromJuz, toJuz := flags.Changed("from-juz"), flags.Changed("to-juz")
	switch {
	case fromJuz && toJuz:
		span, err := planner.JuzSpan(initFromJuz, initToJuz)
		if err != nil {
			return err
		}
		in.StartPage, in.EndPage = span.Start, span.End
	case fromJuz:
		r, err := planner.JuzRange(initFromJuz)
		if err != nil {
			return err
		}
		in.StartPage = r.Start
		if !flags.Changed("to") {
			in.EndPage = r.End
		}
	case toJuz:
		r, err := planner.JuzRange(initToJuz)
		if err != nil {
			return err
		}
		in.EndPage = r.End
		if !flags.Changed("from") {
			in.StartPage = r.Start
		}
	}
	return nil
}
