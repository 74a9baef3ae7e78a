package store

import (
	"context"
	"time"

	"github.com/verte-zerg/hifz/internal/calendar"
)

// ReviewDone reports whether the review of a plan was marked done on date.
func (s *Store) ReviewDone(ctx context.Context, planID string, date time.Time) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM review_flags WHERE plan_id = ? AND date = ?`,
		planID, calendar.Format(date)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetReviewDone marks the review of a plan done on date. Repeated calls are
// harmless.
func (s *Store) SetReviewDone(ctx context.Context, planID string, date time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO review_flags (plan_id, date) VALUES (?, ?)`,
		planID, calendar.Format(date))
	return err
}

// ClearReviewFlags drops every review flag of a plan.
func (s *Store) ClearReviewFlags(ctx context.Context, planID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM review_flags WHERE plan_id = ?`, planID)
	return err
}
