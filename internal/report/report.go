// Package report renders plans, tasks and history as plain text.
package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/verte-zerg/hifz/internal/calendar"
	"github.com/verte-zerg/hifz/internal/model"
	"github.com/verte-zerg/hifz/internal/planner"
	"github.com/verte-zerg/hifz/internal/service"
)

const terminalWidthBackup = 80

// TerminalWidth returns the width of stdout, or 80 when it is not a
// terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// PageLabel renders a page range, e.g. "12" or "12-14". A nil range is "-".
func PageLabel(r *model.PageRange) string {
	if r == nil {
		return "-"
	}
	if r.Start == r.End {
		return strconv.Itoa(r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// FormatRate renders a rate without a trailing ".0".
func FormatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}

// DateLabel renders a date with its weekday, e.g. "2026-10-14 Wed".
func DateLabel(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return calendar.Format(t) + " " + calendar.Day(t).Weekday().String()[:3]
}

// PlanSummary describes the strategy of a plan in one line.
func PlanSummary(plan model.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "pages %d-%d, ", plan.StartPage, plan.EndPage)
	switch plan.Strategy {
	case model.StrategyDeadline:
		fmt.Fprintf(&b, "deadline %s", calendar.Format(plan.TargetDate))
	default:
		fmt.Fprintf(&b, "%s pages/day", FormatRate(plan.PagesPerDay))
	}
	if len(plan.OffDays) > 0 {
		fmt.Fprintf(&b, ", off %s", calendar.NewWeekdaySet(plan.OffDays))
	}
	if plan.ReviewEnabled {
		fmt.Fprintf(&b, ", review x%d", plan.ReviewRatio)
	}
	if plan.Method != "" && plan.Method != model.MethodStandard {
		fmt.Fprintf(&b, ", %s method", plan.Method)
		if plan.Location.City != "" {
			fmt.Fprintf(&b, " (%s, %s)", plan.Location.City, plan.Location.Country)
		}
	}
	return b.String()
}

// TaskNote explains the state of a task in a word or two.
func TaskNote(task model.DayTask) string {
	var notes []string
	switch {
	case task.IsDone:
		notes = append(notes, "done")
	case task.IsOffDay:
		notes = append(notes, "rest day")
	}
	if task.IsBacklog {
		notes = append(notes, "catching up")
	}
	return strings.Join(notes, ", ")
}

// AgendaLines renders the dashboard view of the current day.
func AgendaLines(a service.Agenda) []string {
	plan := a.Plan
	lines := []string{
		"Plan      " + PlanSummary(plan),
		"Today     " + DateLabel(a.Today),
	}
	if plan.Finished() {
		lines = append(lines, "New       plan complete")
	} else {
		newLine := "New       " + taskPages(a.Task)
		if note := TaskNote(a.Task); note != "" {
			newLine += "  [" + note + "]"
		}
		lines = append(lines, newLine)
	}
	if plan.ReviewEnabled {
		review := "Review    " + PageLabel(a.Task.ReviewPages)
		if a.ReviewDone {
			review += "  [done]"
		}
		lines = append(lines, review)
	}
	if a.Task.DailyTarget > 0 {
		lines = append(lines, "Target    "+FormatRate(a.Task.DailyTarget)+" pages/day")
	}

	pct := 0.0
	if scope := plan.ScopePages(); scope > 0 {
		pct = float64(plan.CompletedPages) / float64(scope) * 100
	}
	lines = append(lines, fmt.Sprintf("Progress  %d/%d pages (%.1f%%), juz %d, streak %d",
		plan.CompletedPages, plan.ScopePages(), pct, a.CurrentJuz, plan.Streak))
	if plan.BacklogPages > 0 {
		lines = append(lines, "Backlog   "+FormatRate(plan.BacklogPages)+" pages")
	}
	switch {
	case a.ProjectionErr != nil:
		lines = append(lines, "Ends      unknown ("+a.ProjectionErr.Error()+")")
	case plan.Finished():
		lines = append(lines, "Ended     "+DateLabel(a.Projection.Date))
	default:
		end := fmt.Sprintf("Ends      %s (%d working days)", DateLabel(a.Projection.Date), a.Projection.DaysNeeded)
		if plan.Strategy == model.StrategyDeadline && a.Projection.Date.After(plan.TargetDate) {
			end += "  [past deadline]"
		}
		lines = append(lines, end)
	}
	return lines
}

// RenderAgenda prints the current day.
func RenderAgenda(w io.Writer, a service.Agenda) error {
	return writeLines(w, AgendaLines(a))
}

// RenderTask prints a single task, e.g. the preview of the next day.
func RenderTask(w io.Writer, title string, task model.DayTask) error {
	lines := []string{
		title,
		"Date      " + DateLabel(task.Date),
		"New       " + taskPages(task),
	}
	if task.ReviewPages != nil {
		lines = append(lines, "Review    "+PageLabel(task.ReviewPages))
	}
	if note := TaskNote(task); note != "" {
		lines = append(lines, "Note      "+note)
	}
	return writeLines(w, lines)
}

// ForecastRows builds the rows of the schedule table.
func ForecastRows(tasks []model.DayTask) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, []string{
			calendar.Format(task.Date),
			task.Date.Weekday().String()[:3],
			taskPages(task),
			PageLabel(task.ReviewPages),
			TaskNote(task),
		})
	}
	return rows
}

// ForecastHeaders are the columns of ForecastRows.
var ForecastHeaders = []string{"Date", "Day", "New", "Review", "Note"}

// RenderForecast prints the simulated schedule.
func RenderForecast(w io.Writer, tasks []model.DayTask) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "Nothing left to schedule.")
		return err
	}
	return writeLines(w, formatTable(ForecastHeaders, ForecastRows(tasks), nil))
}

// RenderJuz prints the juz boundaries.
func RenderJuz(w io.Writer) error {
	rows := make([][]string, 0, planner.JuzCount)
	for n := 1; n <= planner.JuzCount; n++ {
		r, err := planner.JuzRange(n)
		if err != nil {
			return err
		}
		rows = append(rows, []string{strconv.Itoa(n), PageLabel(&r), strconv.Itoa(r.Len())})
	}
	return writeLines(w, formatTable([]string{"Juz", "Pages", "Count"}, rows, map[int]bool{0: true, 2: true}))
}

func taskPages(task model.DayTask) string {
	if task.NewPages == nil {
		if task.IsOffDay {
			return "-"
		}
		return "none"
	}
	return PageLabel(task.NewPages)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
