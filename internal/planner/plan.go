package planner

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/verte-zerg/hifz/internal/calendar"
	"github.com/verte-zerg/hifz/internal/model"
)

// PlanInput collects the choices made when a plan is created.
type PlanInput struct {
	StartPage     int            `validate:"min=1,max=604"`
	EndPage       int            `validate:"min=1,max=604,gtefield=StartPage"`
	Strategy      model.Strategy `validate:"oneof=capacity deadline"`
	PagesPerDay   float64        `validate:"gte=0"`
	TargetDate    time.Time
	OffDays       []int `validate:"max=6,dive,min=0,max=6"`
	ReviewEnabled bool
	ReviewRatio   int          `validate:"gte=0"`
	Method        model.Method `validate:"omitempty,oneof=standard prayer custom"`
	Location      model.Location
	// StartDate defaults to today.
	StartDate time.Time
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewPlan validates the input and builds a fresh plan for owner.
func NewPlan(in PlanInput, ownerID string, today time.Time) (model.Plan, error) {
	if strings.TrimSpace(ownerID) == "" {
		return model.Plan{}, fmt.Errorf("%w: owner id is empty", ErrInvalidPlan)
	}
	in.OffDays = normalizeOffDays(in.OffDays)
	if in.Method == "" {
		in.Method = model.MethodStandard
	}
	start := calendar.Day(in.StartDate)
	if start.IsZero() {
		start = calendar.Day(today)
	}
	in.StartDate = start
	if err := ValidateInput(in); err != nil {
		return model.Plan{}, err
	}

	plan := model.Plan{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		StartDate:     start,
		StartPage:     in.StartPage,
		EndPage:       in.EndPage,
		Strategy:      in.Strategy,
		OffDays:       in.OffDays,
		ReviewEnabled: in.ReviewEnabled,
		ReviewRatio:   in.ReviewRatio,
		CurrentPage:   in.StartPage,
		Method:        in.Method,
		Location:      in.Location,
	}
	switch in.Strategy {
	case model.StrategyCapacity:
		plan.PagesPerDay = in.PagesPerDay
	case model.StrategyDeadline:
		plan.TargetDate = calendar.Day(in.TargetDate)
	}
	if !plan.ReviewEnabled {
		plan.ReviewRatio = 0
	}
	return plan, nil
}

// ValidateInput checks a plan input. Errors wrap ErrInvalidPlan.
func ValidateInput(in PlanInput) error {
	var problems []string
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidPlan, err)
		}
		for _, fe := range verrs {
			problems = append(problems, describeFieldError(fe))
		}
	}
	if len(normalizeOffDays(in.OffDays)) >= 7 {
		problems = append(problems, "every weekday is an off-day")
	}
	switch in.Strategy {
	case model.StrategyCapacity:
		if in.PagesPerDay <= 0 {
			problems = append(problems, "pages per day must be positive")
		} else if !isHalfStep(in.PagesPerDay) {
			problems = append(problems, "pages per day must be a multiple of 0.5")
		}
	case model.StrategyDeadline:
		if in.TargetDate.IsZero() {
			problems = append(problems, "deadline is required")
		} else if !in.StartDate.IsZero() && calendar.Day(in.TargetDate).Before(calendar.Day(in.StartDate)) {
			problems = append(problems, "deadline is before the start date")
		}
	}
	if in.ReviewEnabled && in.ReviewRatio < 1 {
		problems = append(problems, "review ratio must be at least 1")
	}
	if in.Method == model.MethodPrayer {
		if strings.TrimSpace(in.Location.City) == "" || strings.TrimSpace(in.Location.Country) == "" {
			problems = append(problems, "prayer method needs a city and country")
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidPlan, strings.Join(problems, "; "))
}

// CheckInvariants reports the first broken invariant of a plan.
func CheckInvariants(plan model.Plan) error {
	switch {
	case plan.StartPage < 1 || plan.EndPage > model.TotalPages || plan.StartPage > plan.EndPage:
		return fmt.Errorf("%w: scope %d-%d", ErrInvalidPlan, plan.StartPage, plan.EndPage)
	case plan.CurrentPage < plan.StartPage || plan.CurrentPage > plan.EndPage+1:
		return fmt.Errorf("%w: current page %d outside scope", ErrInvalidPlan, plan.CurrentPage)
	case plan.CompletedPages != plan.CurrentPage-plan.StartPage:
		return fmt.Errorf("%w: completed pages %d do not match current page %d", ErrInvalidPlan, plan.CompletedPages, plan.CurrentPage)
	case plan.BacklogPages < 0:
		return fmt.Errorf("%w: negative backlog", ErrInvalidPlan)
	case plan.ReviewEnabled && plan.ReviewRatio < 1:
		return fmt.Errorf("%w: review ratio %d", ErrInvalidPlan, plan.ReviewRatio)
	case plan.Streak < 0:
		return fmt.Errorf("%w: negative streak", ErrInvalidPlan)
	}
	return nil
}

// CheckTransition verifies that next is a legal successor of prev: the
// scope is unchanged and progress never goes backwards.
func CheckTransition(prev, next model.Plan) error {
	if prev.ID != next.ID || prev.StartPage != next.StartPage || prev.EndPage != next.EndPage {
		return fmt.Errorf("%w: plan scope changed", ErrInvalidPlan)
	}
	if next.CurrentPage < prev.CurrentPage {
		return fmt.Errorf("%w: current page moved back from %d to %d", ErrInvalidPlan, prev.CurrentPage, next.CurrentPage)
	}
	return CheckInvariants(next)
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

func normalizeOffDays(days []int) []int {
	seen := map[int]struct{}{}
	out := make([]int, 0, len(days))
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

func isHalfStep(v float64) bool {
	doubled := v * 2
	return math.Abs(doubled-math.Round(doubled)) < epsilon
}
