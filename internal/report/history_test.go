package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/hifz/internal/model"
	"github.com/verte-zerg/hifz/internal/service"
)

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if got := MovingAverage(nil, 3); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 0}); got != "  " {
		t.Fatalf("flat zero line: %q", got)
	}
	got := Sparkline([]float64{0, 1, 2})
	if len(got) != 3 || got[0] != ' ' || got[2] != '@' {
		t.Fatalf("unexpected sparkline %q", got)
	}
}

func TestDailySeries(t *testing.T) {
	daily := []model.DailyPages{
		{Date: today.AddDate(0, 0, -2), Pages: 2},
		{Date: today, Pages: 3},
		{Date: today.AddDate(0, 0, -10), Pages: 9},
	}
	got := DailySeries(daily, today, 3)
	want := []float64{2, 0, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSummarize(t *testing.T) {
	h := service.History{
		Daily: []model.DailyPages{{Date: today, Pages: 3}, {Date: today.AddDate(0, 0, 1), Pages: 5}},
		Entries: []model.Activity{
			{Kind: model.ActivityComplete},
			{Kind: model.ActivityCompensate},
			{Kind: model.ActivityExtend},
			{Kind: model.ActivityReview},
		},
	}
	s := Summarize(h)
	if s.ActiveDays != 2 || s.Pages != 8 || s.BestDay.Pages != 5 {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if s.Emergencies != 2 || s.Reviews != 1 {
		t.Fatalf("unexpected counts: %+v", s)
	}
}

func TestRenderHistory(t *testing.T) {
	plan := samplePlan()
	h := service.History{
		Plan:  plan,
		Daily: []model.DailyPages{{Date: today.AddDate(0, 0, -1), Pages: 2}},
		Entries: []model.Activity{
			{Date: today.AddDate(0, 0, -1), Kind: model.ActivityComplete, FromPage: 4, ToPage: 5, Pages: 2},
			{Date: today, Kind: model.ActivityExtend},
		},
	}
	var buf bytes.Buffer
	if err := RenderHistory(&buf, h, today, 40); err != nil {
		t.Fatalf("render history: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Memorized: 5 of 20 pages",
		"Active days: 1",
		"Emergencies: 1",
		"Last 5 days",
		"Recent activity",
		"2026-10-13  complete  4-5",
		"2026-10-14  extend    -",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderHistory(&buf, service.History{Plan: samplePlan()}, today, 0); err != nil {
		t.Fatalf("render history: %v", err)
	}
	if !strings.Contains(buf.String(), "No activity recorded.") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}
