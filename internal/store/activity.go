package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/hifz/internal/calendar"
	"github.com/verte-zerg/hifz/internal/model"
)

// AppendActivity records one plan mutation.
func (s *Store) AppendActivity(ctx context.Context, a model.Activity) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO activity (plan_id, date, kind, from_page, to_page, pages, backlog)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.PlanID,
		calendar.Format(a.Date),
		string(a.Kind),
		a.FromPage,
		a.ToPage,
		a.Pages,
		a.Backlog,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListActivity returns the activity of a plan in date order, optionally
// limited to dates on or after since.
func (s *Store) ListActivity(ctx context.Context, planID string, since *time.Time) ([]model.Activity, error) {
	clauses := []string{"plan_id = ?"}
	args := []any{planID}
	if since != nil {
		clauses = append(clauses, "date >= ?")
		args = append(args, calendar.Format(*since))
	}
	query := fmt.Sprintf(`SELECT id, plan_id, date, kind, from_page, to_page, pages, backlog
		FROM activity
		WHERE %s
		ORDER BY date ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Activity
	for rows.Next() {
		var a model.Activity
		var date, kind string
		if err := rows.Scan(&a.ID, &a.PlanID, &date, &kind, &a.FromPage, &a.ToPage, &a.Pages, &a.Backlog); err != nil {
			return nil, err
		}
		parsed, err := calendar.Parse(date)
		if err != nil {
			return nil, err
		}
		a.Date = parsed
		a.Kind = model.ActivityKind(kind)
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DailyPages sums memorized pages per date for a plan.
func (s *Store) DailyPages(ctx context.Context, planID string) ([]model.DailyPages, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, SUM(pages) FROM activity
		 WHERE plan_id = ? AND kind IN (?, ?)
		 GROUP BY date
		 ORDER BY date ASC`,
		planID, string(model.ActivityComplete), string(model.ActivityAdvance))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.DailyPages
	for rows.Next() {
		var date string
		var d model.DailyPages
		if err := rows.Scan(&date, &d.Pages); err != nil {
			return nil, err
		}
		parsed, err := calendar.Parse(date)
		if err != nil {
			return nil, err
		}
		d.Date = parsed
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
