// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/hifz/internal/calendar"
	"github.com/verte-zerg/hifz/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for plans, activity and review flags.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers within the process.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS plans (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL UNIQUE,
			start_date TEXT NOT NULL,
			start_page INTEGER NOT NULL,
			end_page INTEGER NOT NULL,
			strategy TEXT NOT NULL,
			pages_per_day REAL NOT NULL,
			target_date TEXT NOT NULL,
			off_days TEXT NOT NULL,
			review_enabled INTEGER NOT NULL,
			review_ratio INTEGER NOT NULL,
			current_page INTEGER NOT NULL,
			completed_pages INTEGER NOT NULL,
			streak INTEGER NOT NULL,
			total_days_elapsed INTEGER NOT NULL,
			backlog_pages REAL NOT NULL,
			last_activity_date TEXT NOT NULL,
			last_completed_date TEXT NOT NULL,
			completed_today_start INTEGER,
			completed_today_end INTEGER,
			method TEXT NOT NULL,
			city TEXT NOT NULL,
			country TEXT NOT NULL,
			version INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS activity (
			id INTEGER PRIMARY KEY,
			plan_id TEXT NOT NULL,
			date TEXT NOT NULL,
			kind TEXT NOT NULL,
			from_page INTEGER NOT NULL,
			to_page INTEGER NOT NULL,
			pages INTEGER NOT NULL,
			backlog REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS review_flags (
			plan_id TEXT NOT NULL,
			date TEXT NOT NULL,
			PRIMARY KEY (plan_id, date)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_activity_plan_date ON activity(plan_id, date);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

const planColumns = `id, owner_id, start_date, start_page, end_page, strategy, pages_per_day, target_date,
	off_days, review_enabled, review_ratio, current_page, completed_pages, streak, total_days_elapsed,
	backlog_pages, last_activity_date, last_completed_date, completed_today_start, completed_today_end,
	method, city, country, version, created_at, updated_at`

// LoadPlan returns the plan of an owner, or ErrPlanNotFound.
func (s *Store) LoadPlan(ctx context.Context, ownerID string) (*model.Plan, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE owner_id = ?`, ownerID)
	plan, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	return plan, nil
}

// SavePlan inserts a plan with Version 0 and updates any other plan when
// its version still matches the stored one. On success the plan's Version
// and timestamps are updated in place.
func (s *Store) SavePlan(ctx context.Context, plan *model.Plan) error {
	if plan == nil {
		return fmt.Errorf("cannot save nil plan")
	}
	now := time.Now().UTC()
	if plan.Version == 0 {
		return s.insertPlan(ctx, plan, now)
	}
	return s.updatePlan(ctx, plan, now)
}

func (s *Store) insertPlan(ctx context.Context, plan *model.Plan, now time.Time) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	var count int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM plans WHERE owner_id = ?`, plan.OwnerID).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		err = ErrPlanExists
		return err
	}

	created := plan.CreatedAt
	if created.IsZero() {
		created = now
	}
	args := planArgs(plan, 1, created, now)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	if _, err = tx.ExecContext(ctx, `INSERT INTO plans (`+planColumns+`) VALUES (`+placeholders+`)`, args...); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	plan.Version = 1
	plan.CreatedAt = created
	plan.UpdatedAt = now
	return nil
}

func (s *Store) updatePlan(ctx context.Context, plan *model.Plan, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE plans SET
			start_date = ?, pages_per_day = ?, target_date = ?, off_days = ?, review_enabled = ?,
			review_ratio = ?, current_page = ?, completed_pages = ?, streak = ?, total_days_elapsed = ?,
			backlog_pages = ?, last_activity_date = ?, last_completed_date = ?,
			completed_today_start = ?, completed_today_end = ?, method = ?, city = ?, country = ?,
			version = version + 1, updated_at = ?
		 WHERE id = ? AND owner_id = ? AND version = ?`,
		calendar.Format(plan.StartDate),
		plan.PagesPerDay,
		calendar.Format(plan.TargetDate),
		formatOffDays(plan.OffDays),
		plan.ReviewEnabled,
		plan.ReviewRatio,
		plan.CurrentPage,
		plan.CompletedPages,
		plan.Streak,
		plan.TotalDaysElapsed,
		plan.BacklogPages,
		calendar.Format(plan.LastActivityDate),
		calendar.Format(plan.LastCompletedDate),
		rangeStart(plan.CompletedToday),
		rangeEnd(plan.CompletedToday),
		string(plan.Method),
		plan.Location.City,
		plan.Location.Country,
		now.Format(time.RFC3339Nano),
		plan.ID,
		plan.OwnerID,
		plan.Version,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var count int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM plans WHERE id = ?`, plan.ID).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			return ErrPlanNotFound
		}
		return ErrVersionConflict
	}
	plan.Version++
	plan.UpdatedAt = now
	return nil
}

// DeletePlan removes the owner's plan together with its activity and
// review flags.
func (s *Store) DeletePlan(ctx context.Context, ownerID string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	var planID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM plans WHERE owner_id = ?`, ownerID).Scan(&planID)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrPlanNotFound
		return err
	}
	if err != nil {
		return err
	}
	for _, stmt := range []string{
		`DELETE FROM activity WHERE plan_id = ?`,
		`DELETE FROM review_flags WHERE plan_id = ?`,
		`DELETE FROM plans WHERE id = ?`,
	} {
		if _, err = tx.ExecContext(ctx, stmt, planID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*model.Plan, error) {
	var (
		plan                           model.Plan
		startDate, targetDate, offDays string
		lastActivity, lastCompleted    string
		strategy, method               string
		createdAt, updatedAt           string
		completedStart, completedEnd   sql.NullInt64
	)
	if err := row.Scan(
		&plan.ID, &plan.OwnerID, &startDate, &plan.StartPage, &plan.EndPage, &strategy,
		&plan.PagesPerDay, &targetDate, &offDays, &plan.ReviewEnabled, &plan.ReviewRatio,
		&plan.CurrentPage, &plan.CompletedPages, &plan.Streak, &plan.TotalDaysElapsed,
		&plan.BacklogPages, &lastActivity, &lastCompleted, &completedStart, &completedEnd,
		&method, &plan.Location.City, &plan.Location.Country, &plan.Version, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	plan.Strategy = model.Strategy(strategy)
	plan.Method = model.Method(method)

	var err error
	if plan.StartDate, err = parseDate(startDate); err != nil {
		return nil, err
	}
	if plan.TargetDate, err = parseDate(targetDate); err != nil {
		return nil, err
	}
	if plan.LastActivityDate, err = parseDate(lastActivity); err != nil {
		return nil, err
	}
	if plan.LastCompletedDate, err = parseDate(lastCompleted); err != nil {
		return nil, err
	}
	if plan.OffDays, err = parseOffDays(offDays); err != nil {
		return nil, err
	}
	if completedStart.Valid && completedEnd.Valid {
		plan.CompletedToday = &model.PageRange{Start: int(completedStart.Int64), End: int(completedEnd.Int64)}
	}
	if plan.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, err
	}
	if plan.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, err
	}
	return &plan, nil
}

func planArgs(plan *model.Plan, version int64, created, updated time.Time) []any {
	return []any{
		plan.ID,
		plan.OwnerID,
		calendar.Format(plan.StartDate),
		plan.StartPage,
		plan.EndPage,
		string(plan.Strategy),
		plan.PagesPerDay,
		calendar.Format(plan.TargetDate),
		formatOffDays(plan.OffDays),
		plan.ReviewEnabled,
		plan.ReviewRatio,
		plan.CurrentPage,
		plan.CompletedPages,
		plan.Streak,
		plan.TotalDaysElapsed,
		plan.BacklogPages,
		calendar.Format(plan.LastActivityDate),
		calendar.Format(plan.LastCompletedDate),
		rangeStart(plan.CompletedToday),
		rangeEnd(plan.CompletedToday),
		string(plan.Method),
		plan.Location.City,
		plan.Location.Country,
		version,
		created.Format(time.RFC3339Nano),
		updated.Format(time.RFC3339Nano),
	}
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return calendar.Parse(value)
}

func formatOffDays(days []int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func parseOffDays(value string) ([]int, error) {
	if value == "" {
		return []int{}, nil
	}
	parts := strings.Split(value, ",")
	days := make([]int, 0, len(parts))
	for _, part := range parts {
		d, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid off day %q: %w", part, err)
		}
		days = append(days, d)
	}
	return days, nil
}

func rangeStart(r *model.PageRange) any {
	if r == nil {
		return nil
	}
	return r.Start
}

func rangeEnd(r *model.PageRange) any {
	if r == nil {
		return nil
	}
	return r.End
}
