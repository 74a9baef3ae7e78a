package planner

import "errors"

// Sentinel errors for the planner package.
// Use errors.Is to check: errors.Is(err, planner.ErrRestDay)
var (
	ErrInvalidPlan     = errors.New("planner: invalid plan")
	ErrNoWorkingDays   = errors.New("planner: every weekday is an off-day")
	ErrAlreadyRecorded = errors.New("planner: day already recorded")
	ErrRestDay         = errors.New("planner: nothing scheduled on a rest day")
	ErrInvalidMode     = errors.New("planner: invalid emergency mode")
	ErrInvalidJuz      = errors.New("planner: juz out of range")
)
