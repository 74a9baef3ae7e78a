package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/hifz/internal/model"
	"github.com/verte-zerg/hifz/internal/planner"
	"github.com/verte-zerg/hifz/internal/service"
	"github.com/verte-zerg/hifz/internal/store"
)

func newTestModel(t *testing.T, in planner.PlanInput) *Model {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "hifz.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	now := func() time.Time { return time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC) }
	svc := service.New(st, st, st, service.WithClock(now))
	if _, err := svc.Create(context.Background(), "owner", in); err != nil {
		t.Fatalf("create plan: %v", err)
	}
	m := NewModel(svc, "owner", now)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func press(t *testing.T, m *Model, key rune) {
	t.Helper()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{key}})
	if cmd == nil {
		t.Fatalf("expected a command for key %q", key)
	}
	m.Update(cmd())
}

func TestCompleteKeyRecordsDay(t *testing.T) {
	m := newTestModel(t, planner.PlanInput{StartPage: 1, EndPage: 20, Strategy: model.StrategyCapacity, PagesPerDay: 2})

	press(t, m, 'c')
	if m.status != "Completed pages 1-2." {
		t.Fatalf("unexpected status %q (err %q)", m.status, m.errMsg)
	}
	if m.agenda.Plan.CurrentPage != 3 || !m.agenda.Task.IsDone {
		t.Fatalf("agenda not refreshed: %+v", m.agenda.Plan)
	}

	press(t, m, 'c')
	if m.errMsg != "today is already recorded" {
		t.Fatalf("expected already recorded error, got %q", m.errMsg)
	}

	press(t, m, 'a')
	if m.errMsg != "" || m.agenda.Plan.CurrentPage != 5 {
		t.Fatalf("advance failed: %q %+v", m.errMsg, m.agenda.Plan)
	}
	if len(m.history.Entries) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(m.history.Entries))
	}
}

func TestCompensateKeyAddsBacklog(t *testing.T) {
	m := newTestModel(t, planner.PlanInput{StartPage: 1, EndPage: 20, Strategy: model.StrategyCapacity, PagesPerDay: 2})

	press(t, m, 'p')
	if m.status != "Added to backlog; now 2 pages." {
		t.Fatalf("unexpected status %q (err %q)", m.status, m.errMsg)
	}
	if m.agenda.Plan.BacklogPages != 2 {
		t.Fatalf("backlog not refreshed: %v", m.agenda.Plan.BacklogPages)
	}
}

func TestReviewKeyWithoutReview(t *testing.T) {
	m := newTestModel(t, planner.PlanInput{StartPage: 1, EndPage: 20, Strategy: model.StrategyCapacity, PagesPerDay: 2})
	press(t, m, 'r')
	if m.errMsg != service.ErrReviewDisabled.Error() {
		t.Fatalf("unexpected error %q", m.errMsg)
	}
}

func TestViewShowsTabs(t *testing.T) {
	m := newTestModel(t, planner.PlanInput{StartPage: 1, EndPage: 20, Strategy: model.StrategyCapacity, PagesPerDay: 2})
	view := m.View()
	for _, want := range []string{"Today", "Schedule", "History", "New       1-2"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabSchedule {
		t.Fatalf("expected schedule tab, got %d", m.activeTab)
	}
	if !strings.Contains(m.View(), "2026-10-15") {
		t.Fatalf("expected schedule rows in view:\n%s", m.View())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.activeTab != tabHistory {
		t.Fatalf("expected wrap to history tab, got %d", m.activeTab)
	}
}
