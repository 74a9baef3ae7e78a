package store

import "errors"

// Common store errors.
var (
	// ErrPlanNotFound is returned when the owner has no plan.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrPlanExists is returned when saving a new plan for an owner that
	// already has one. Plans are singletons per owner.
	ErrPlanExists = errors.New("plan already exists")

	// ErrVersionConflict is returned when a plan was changed by another
	// writer since it was loaded.
	ErrVersionConflict = errors.New("plan was modified concurrently")
)
