package service

import "errors"

// Service errors.
var (
	// ErrReviewDisabled is returned when marking a review on a plan without
	// a review pass.
	ErrReviewDisabled = errors.New("review is disabled for this plan")

	// ErrNothingToReview is returned when no page has been memorized yet.
	ErrNothingToReview = errors.New("nothing to review yet")
)
