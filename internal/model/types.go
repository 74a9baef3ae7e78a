// Package model defines shared data structures.
package model

import "time"

// TotalPages is the page count of the reference mushaf.
const TotalPages = 604

// Strategy selects how the daily rate is chosen.
type Strategy string

const (
	// StrategyCapacity keeps a fixed number of pages per day.
	StrategyCapacity Strategy = "capacity"
	// StrategyDeadline derives the rate from a target date.
	StrategyDeadline Strategy = "deadline"
)

// EmergencyMode selects how a missed day is absorbed.
type EmergencyMode string

const (
	// EmergencyExtend defers the missed pages and lets the end date slip.
	EmergencyExtend EmergencyMode = "extend"
	// EmergencyCompensate adds the missed pages to the backlog.
	EmergencyCompensate EmergencyMode = "compensate"
)

// Method tags the memorization style; it does not affect scheduling.
type Method string

const (
	MethodStandard Method = "standard"
	MethodPrayer   Method = "prayer"
	MethodCustom   Method = "custom"
)

// Location is used by methods aligned to prayer times.
type Location struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// PageRange is an inclusive range of pages.
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of pages in the range.
func (r PageRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Plan is the single active memorization plan of an owner.
type Plan struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	StartDate time.Time `json:"start_date"`

	StartPage int `json:"start_page"`
	EndPage   int `json:"end_page"`

	Strategy    Strategy  `json:"strategy"`
	PagesPerDay float64   `json:"pages_per_day,omitempty"`
	TargetDate  time.Time `json:"target_date,omitempty"`
	OffDays     []int     `json:"off_days"`

	ReviewEnabled bool `json:"review_enabled"`
	ReviewRatio   int  `json:"review_ratio,omitempty"`

	CurrentPage      int `json:"current_page"`
	CompletedPages   int `json:"completed_pages"`
	Streak           int `json:"streak"`
	TotalDaysElapsed int `json:"total_days_elapsed"`

	BacklogPages      float64    `json:"backlog_pages"`
	LastActivityDate  time.Time  `json:"last_activity_date,omitempty"`
	LastCompletedDate time.Time  `json:"last_completed_date,omitempty"`
	CompletedToday    *PageRange `json:"completed_today,omitempty"`

	Method   Method   `json:"method,omitempty"`
	Location Location `json:"location"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Finished reports whether every page in scope is memorized.
func (p Plan) Finished() bool {
	return p.CurrentPage > p.EndPage
}

// ScopePages returns the number of pages the plan covers.
func (p Plan) ScopePages() int {
	return p.EndPage - p.StartPage + 1
}

// RemainingPages returns the pages not yet memorized.
func (p Plan) RemainingPages() int {
	if p.Finished() {
		return 0
	}
	return p.EndPage - p.CurrentPage + 1
}

// DayTask is the derived work for a single date.
type DayTask struct {
	Date        time.Time  `json:"date"`
	IsOffDay    bool       `json:"is_off_day"`
	NewPages    *PageRange `json:"new_pages,omitempty"`
	ReviewPages *PageRange `json:"review_pages,omitempty"`
	IsBacklog   bool       `json:"is_backlog"`
	IsDone      bool       `json:"is_done"`
	DailyTarget float64    `json:"daily_target"`
}

// NewPageCount returns the number of new pages in the task.
func (t DayTask) NewPageCount() int {
	if t.NewPages == nil {
		return 0
	}
	return t.NewPages.Len()
}

// ActivityKind labels an activity log entry.
type ActivityKind string

const (
	ActivityComplete   ActivityKind = "complete"
	ActivityAdvance    ActivityKind = "advance"
	ActivityExtend     ActivityKind = "extend"
	ActivityCompensate ActivityKind = "compensate"
	ActivityReview     ActivityKind = "review"
)

// Activity records one mutation of a plan.
type Activity struct {
	ID       int64        `json:"id"`
	PlanID   string       `json:"plan_id"`
	Date     time.Time    `json:"date"`
	Kind     ActivityKind `json:"kind"`
	FromPage int          `json:"from_page"`
	ToPage   int          `json:"to_page"`
	Pages    int          `json:"pages"`
	Backlog  float64      `json:"backlog"`
}

// DailyPages aggregates memorized pages for one date.
type DailyPages struct {
	Date  time.Time
	Pages int
}

// Policy holds the heuristic constants of the scheduler.
type Policy struct {
	// BacklogSpreadDays spreads owed pages over roughly this many days.
	BacklogSpreadDays float64
	// MinSurcharge is the smallest extra rate added while in debt.
	MinSurcharge float64
}

// DefaultPolicy returns the stock scheduling constants.
func DefaultPolicy() Policy {
	return Policy{
		BacklogSpreadDays: 7,
		MinSurcharge:      0.5,
	}
}
