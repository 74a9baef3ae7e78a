package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/hifz/internal/calendar"
	"github.com/verte-zerg/hifz/internal/model"
	"github.com/verte-zerg/hifz/internal/service"
)

const (
	sparkChars      = " .:-=+*#%@"
	recentActivity  = 10
	averageWindow   = 7
	maxSparkDays    = 90
	sparkLabelWidth = 10
)

// Summary aggregates the activity of a plan.
type Summary struct {
	ActiveDays  int
	Pages       int
	BestDay     model.DailyPages
	Emergencies int
	Reviews     int
}

// Summarize folds the history of a plan into totals.
func Summarize(h service.History) Summary {
	var s Summary
	for _, d := range h.Daily {
		if d.Pages <= 0 {
			continue
		}
		s.ActiveDays++
		s.Pages += d.Pages
		if d.Pages > s.BestDay.Pages {
			s.BestDay = d
		}
	}
	for _, e := range h.Entries {
		switch e.Kind {
		case model.ActivityExtend, model.ActivityCompensate:
			s.Emergencies++
		case model.ActivityReview:
			s.Reviews++
		}
	}
	return s
}

// DailySeries lays the daily totals out over the days ending at today,
// with zero for days without activity.
func DailySeries(daily []model.DailyPages, today time.Time, days int) []float64 {
	if days <= 0 {
		return nil
	}
	start := calendar.AddDays(today, -(days - 1))
	out := make([]float64, days)
	for _, d := range daily {
		idx := calendar.DaysBetween(start, d.Date)
		if idx >= 0 && idx < days {
			out[idx] += float64(d.Pages)
		}
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := range values {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(min(i+1, window))
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline scaled from zero to the
// largest value.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	maxVal := 0.0
	for _, v := range values {
		maxVal = math.Max(maxVal, v)
	}
	if maxVal <= 0 {
		return strings.Repeat(string(sparkChars[0]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round(v / maxVal * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderHistory prints totals, a sparkline of recent days and the latest
// activity. width bounds the sparkline.
func RenderHistory(w io.Writer, h service.History, today time.Time, width int) error {
	plan := h.Plan
	s := Summarize(h)
	lines := []string{
		"Summary",
		fmt.Sprintf("Memorized: %d of %d pages", plan.CompletedPages, plan.ScopePages()),
		fmt.Sprintf("Active days: %d", s.ActiveDays),
	}
	if s.ActiveDays > 0 {
		lines = append(lines,
			fmt.Sprintf("Avg pages per active day: %.2f", float64(s.Pages)/float64(s.ActiveDays)),
			fmt.Sprintf("Best day: %s (%d pages)", calendar.Format(s.BestDay.Date), s.BestDay.Pages),
		)
	}
	lines = append(lines,
		fmt.Sprintf("Streak: %d", plan.Streak),
		fmt.Sprintf("Emergencies: %d", s.Emergencies),
		fmt.Sprintf("Reviews: %d", s.Reviews),
		"Backlog: "+FormatRate(plan.BacklogPages)+" pages",
		"",
	)

	days := sparkDays(plan, today, width)
	if days > 0 {
		series := DailySeries(h.Daily, today, days)
		lines = append(lines,
			fmt.Sprintf("Last %d days", days),
			padLabel("Pages")+Sparkline(series),
			padLabel(strconv.Itoa(averageWindow)+"d avg")+Sparkline(MovingAverage(series, averageWindow)),
			"",
		)
	}

	entries := h.Entries
	if len(entries) > recentActivity {
		entries = entries[len(entries)-recentActivity:]
	}
	if len(entries) == 0 {
		lines = append(lines, "No activity recorded.")
		return writeLines(w, lines)
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		pages := "-"
		if e.Pages > 0 {
			pages = PageLabel(&model.PageRange{Start: e.FromPage, End: e.ToPage})
		}
		rows = append(rows, []string{calendar.Format(e.Date), string(e.Kind), pages, FormatRate(e.Backlog)})
	}
	lines = append(lines, "Recent activity")
	lines = append(lines, formatTable([]string{"Date", "Kind", "Pages", "Backlog"}, rows, map[int]bool{3: true})...)
	return writeLines(w, lines)
}

// sparkDays covers the plan's lifetime up to the available width.
func sparkDays(plan model.Plan, today time.Time, width int) int {
	days := maxSparkDays
	if !plan.StartDate.IsZero() {
		days = calendar.DaysBetween(plan.StartDate, today) + 1
	}
	if width > 0 {
		days = min(days, width-sparkLabelWidth)
	}
	return max(0, min(days, maxSparkDays))
}

func padLabel(label string) string {
	if len(label) >= sparkLabelWidth {
		return label
	}
	return label + strings.Repeat(" ", sparkLabelWidth-len(label))
}
