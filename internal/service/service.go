// Package service runs the load-mutate-save cycles around the planner.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/verte-zerg/hifz/internal/calendar"
	"github.com/verte-zerg/hifz/internal/logger"
	"github.com/verte-zerg/hifz/internal/model"
	"github.com/verte-zerg/hifz/internal/planner"
	"github.com/verte-zerg/hifz/internal/store"
)

// maxAttempts bounds retries after a concurrent write from another process.
const maxAttempts = 3

// PlanStore persists the single plan of an owner.
type PlanStore interface {
	LoadPlan(ctx context.Context, ownerID string) (*model.Plan, error)
	SavePlan(ctx context.Context, plan *model.Plan) error
	DeletePlan(ctx context.Context, ownerID string) error
}

// ActivityLog records plan mutations.
type ActivityLog interface {
	AppendActivity(ctx context.Context, a model.Activity) (int64, error)
	ListActivity(ctx context.Context, planID string, since *time.Time) ([]model.Activity, error)
	DailyPages(ctx context.Context, planID string) ([]model.DailyPages, error)
}

// ReviewFlags remembers whether the review of a day was done.
type ReviewFlags interface {
	ReviewDone(ctx context.Context, planID string, date time.Time) (bool, error)
	SetReviewDone(ctx context.Context, planID string, date time.Time) error
	ClearReviewFlags(ctx context.Context, planID string) error
}

// Clock returns the current time.
type Clock func() time.Time

// Service coordinates the planner with its stores.
type Service struct {
	plans    PlanStore
	activity ActivityLog
	flags    ReviewFlags
	log      *slog.Logger
	clock    Clock
	policy   model.Policy

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for mutations.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock sets the source of "today".
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithPolicy overrides the scheduling constants.
func WithPolicy(policy model.Policy) Option {
	return func(s *Service) {
		s.policy = policy
	}
}

// New builds a Service.
func New(plans PlanStore, activity ActivityLog, flags ReviewFlags, opts ...Option) *Service {
	s := &Service{
		plans:    plans,
		activity: activity,
		flags:    flags,
		log:      logger.Discard(),
		clock:    time.Now,
		policy:   model.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the civil date the service acts on.
func (s *Service) Today() time.Time {
	return calendar.Day(s.clock())
}

// Policy returns the scheduling constants in use.
func (s *Service) Policy() model.Policy {
	return s.policy
}

// Agenda is everything needed to show the current day.
type Agenda struct {
	Plan       model.Plan
	Today      time.Time
	Task       model.DayTask
	Projection planner.Projection
	// ProjectionErr is set when the plan cannot be projected.
	ProjectionErr error
	ReviewDone    bool
	CurrentJuz    int
}

// Outcome is the result of a mutation.
type Outcome struct {
	Plan model.Plan
	// Task is the portion the mutation acted on.
	Task model.DayTask
	// Changed is false when the plan was already finished.
	Changed bool
}

// History holds the recorded activity of a plan.
type History struct {
	Plan    model.Plan
	Entries []model.Activity
	Daily   []model.DailyPages
}

// Create builds and stores a new plan for owner.
func (s *Service) Create(ctx context.Context, ownerID string, in planner.PlanInput) (model.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := planner.NewPlan(in, ownerID, s.Today())
	if err != nil {
		return model.Plan{}, err
	}
	if err := s.plans.SavePlan(ctx, &plan); err != nil {
		return model.Plan{}, fmt.Errorf("failed to save plan: %w", err)
	}
	s.log.Info("plan created",
		"plan", plan.ID,
		"owner", ownerID,
		"pages", fmt.Sprintf("%d-%d", plan.StartPage, plan.EndPage),
		"strategy", plan.Strategy)
	return plan, nil
}

// Load returns the owner's plan.
func (s *Service) Load(ctx context.Context, ownerID string) (model.Plan, error) {
	plan, err := s.plans.LoadPlan(ctx, ownerID)
	if err != nil {
		return model.Plan{}, err
	}
	return *plan, nil
}

// Agenda derives today's task, the projected end date and the review flag.
func (s *Service) Agenda(ctx context.Context, ownerID string) (Agenda, error) {
	plan, err := s.Load(ctx, ownerID)
	if err != nil {
		return Agenda{}, err
	}
	today := s.Today()
	agenda := Agenda{
		Plan:       plan,
		Today:      today,
		Task:       planner.TodayTask(plan, today, s.policy),
		CurrentJuz: planner.JuzOfPage(min(plan.CurrentPage, plan.EndPage)),
	}
	agenda.Projection, agenda.ProjectionErr = planner.ProjectPlan(plan, today)
	if plan.ReviewEnabled {
		done, err := s.flags.ReviewDone(ctx, plan.ID, today)
		if err != nil {
			return Agenda{}, fmt.Errorf("failed to read review flag: %w", err)
		}
		agenda.ReviewDone = done
	}
	return agenda, nil
}

// Preview returns the next working day's portion without changing the plan.
func (s *Service) Preview(ctx context.Context, ownerID string) (model.DayTask, error) {
	plan, err := s.Load(ctx, ownerID)
	if err != nil {
		return model.DayTask{}, err
	}
	return planner.PreviewNext(plan, s.Today(), s.policy), nil
}

// Forecast simulates the next days of the owner's plan.
func (s *Service) Forecast(ctx context.Context, ownerID string, days int) ([]model.DayTask, error) {
	plan, err := s.Load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return planner.Forecast(plan, s.Today(), days, s.policy), nil
}

// Complete records today's portion, or the next working day's when advance
// is set.
func (s *Service) Complete(ctx context.Context, ownerID string, advance bool) (Outcome, error) {
	kind := model.ActivityComplete
	if advance {
		kind = model.ActivityAdvance
	}
	return s.mutate(ctx, ownerID, kind, func(plan model.Plan, today time.Time) (model.Plan, model.DayTask, error) {
		var task model.DayTask
		if advance {
			task = planner.PreviewNext(plan, today, s.policy)
		} else {
			task = planner.TodayTask(plan, today, s.policy)
		}
		next, err := planner.CompleteDay(plan, today, advance, s.policy)
		return next, task, err
	})
}

// Emergency records that today's portion will be missed.
func (s *Service) Emergency(ctx context.Context, ownerID string, mode model.EmergencyMode) (Outcome, error) {
	if mode != model.EmergencyExtend && mode != model.EmergencyCompensate {
		return Outcome{}, fmt.Errorf("%w: %q", planner.ErrInvalidMode, mode)
	}
	kind := model.ActivityExtend
	if mode == model.EmergencyCompensate {
		kind = model.ActivityCompensate
	}
	return s.mutate(ctx, ownerID, kind, func(plan model.Plan, today time.Time) (model.Plan, model.DayTask, error) {
		task := planner.TodayTask(plan, today, s.policy)
		next, err := planner.HandleEmergency(plan, today, mode, s.policy)
		return next, task, err
	})
}

// MarkReviewDone flags today's review as done.
func (s *Service) MarkReviewDone(ctx context.Context, ownerID string) (model.PageRange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.Load(ctx, ownerID)
	if err != nil {
		return model.PageRange{}, err
	}
	if !plan.ReviewEnabled {
		return model.PageRange{}, ErrReviewDisabled
	}
	today := s.Today()
	task := planner.TodayTask(plan, today, s.policy)
	if task.ReviewPages == nil {
		return model.PageRange{}, ErrNothingToReview
	}
	done, err := s.flags.ReviewDone(ctx, plan.ID, today)
	if err != nil {
		return model.PageRange{}, fmt.Errorf("failed to read review flag: %w", err)
	}
	if done {
		return *task.ReviewPages, nil
	}
	if err := s.flags.SetReviewDone(ctx, plan.ID, today); err != nil {
		return model.PageRange{}, fmt.Errorf("failed to set review flag: %w", err)
	}
	entry := model.Activity{
		PlanID:   plan.ID,
		Date:     today,
		Kind:     model.ActivityReview,
		FromPage: task.ReviewPages.Start,
		ToPage:   task.ReviewPages.End,
		Pages:    task.ReviewPages.Len(),
		Backlog:  plan.BacklogPages,
	}
	if _, err := s.activity.AppendActivity(ctx, entry); err != nil {
		return model.PageRange{}, fmt.Errorf("failed to record activity: %w", err)
	}
	s.log.Info("review done", "plan", plan.ID, "from", entry.FromPage, "to", entry.ToPage)
	return *task.ReviewPages, nil
}

// History returns the activity recorded for the owner's plan, optionally
// limited to dates on or after since.
func (s *Service) History(ctx context.Context, ownerID string, since *time.Time) (History, error) {
	plan, err := s.Load(ctx, ownerID)
	if err != nil {
		return History{}, err
	}
	entries, err := s.activity.ListActivity(ctx, plan.ID, since)
	if err != nil {
		return History{}, fmt.Errorf("failed to list activity: %w", err)
	}
	daily, err := s.activity.DailyPages(ctx, plan.ID)
	if err != nil {
		return History{}, fmt.Errorf("failed to aggregate activity: %w", err)
	}
	return History{Plan: plan, Entries: entries, Daily: daily}, nil
}

// Delete removes the owner's plan and all of its progress.
func (s *Service) Delete(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.Load(ctx, ownerID)
	if err != nil {
		return err
	}
	if err := s.flags.ClearReviewFlags(ctx, plan.ID); err != nil {
		s.log.Warn("failed to clear review flags", "plan", plan.ID, "err", err)
	}
	if err := s.plans.DeletePlan(ctx, ownerID); err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	s.log.Info("plan deleted", "plan", plan.ID, "owner", ownerID)
	return nil
}

type mutation func(plan model.Plan, today time.Time) (model.Plan, model.DayTask, error)

// mutate loads the plan, applies fn and saves the result. A stale write is
// retried against the fresh plan.
func (s *Service) mutate(ctx context.Context, ownerID string, kind model.ActivityKind, fn mutation) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.Today()
	for attempt := 1; ; attempt++ {
		stored, err := s.plans.LoadPlan(ctx, ownerID)
		if err != nil {
			return Outcome{}, err
		}
		prev := *stored
		if prev.Finished() {
			return Outcome{Plan: prev, Task: planner.TodayTask(prev, today, s.policy)}, nil
		}

		next, task, err := fn(prev, today)
		if err != nil {
			s.log.Warn("plan update rejected", "plan", prev.ID, "kind", kind, "err", err)
			return Outcome{Plan: prev, Task: task}, err
		}
		if err := planner.CheckTransition(prev, next); err != nil {
			return Outcome{Plan: prev, Task: task}, err
		}

		err = s.plans.SavePlan(ctx, &next)
		if errors.Is(err, store.ErrVersionConflict) && attempt < maxAttempts {
			s.log.Debug("retrying after concurrent write", "plan", prev.ID, "attempt", attempt)
			continue
		}
		if err != nil {
			return Outcome{Plan: prev, Task: task}, fmt.Errorf("failed to save plan: %w", err)
		}

		entry := activityFor(prev, next, kind, task, today)
		if _, err := s.activity.AppendActivity(ctx, entry); err != nil {
			s.log.Warn("failed to record activity", "plan", next.ID, "kind", kind, "err", err)
		}
		s.log.Info("plan updated",
			"plan", next.ID,
			"kind", kind,
			"current_page", next.CurrentPage,
			"backlog", next.BacklogPages,
			"streak", next.Streak)
		return Outcome{Plan: next, Task: task, Changed: true}, nil
	}
}

func activityFor(prev, next model.Plan, kind model.ActivityKind, task model.DayTask, today time.Time) model.Activity {
	entry := model.Activity{
		PlanID:  next.ID,
		Date:    today,
		Kind:    kind,
		Backlog: next.BacklogPages,
	}
	switch kind {
	case model.ActivityComplete, model.ActivityAdvance:
		entry.FromPage = prev.CurrentPage
		entry.ToPage = next.CurrentPage - 1
		entry.Pages = next.CurrentPage - prev.CurrentPage
	default:
		if task.NewPages != nil {
			entry.FromPage = task.NewPages.Start
			entry.ToPage = task.NewPages.End
			entry.Pages = task.NewPages.Len()
		}
	}
	return entry
}
