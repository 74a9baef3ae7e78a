// Package tui provides the Bubble Tea dashboard.
package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/hifz/internal/model"
	"github.com/verte-zerg/hifz/internal/planner"
	"github.com/verte-zerg/hifz/internal/report"
	"github.com/verte-zerg/hifz/internal/service"
)

const (
	tabToday = iota
	tabSchedule
	tabHistory
)

const forecastDays = 28

// Planner is the part of the service the dashboard drives.
type Planner interface {
	Agenda(ctx context.Context, ownerID string) (service.Agenda, error)
	Forecast(ctx context.Context, ownerID string, days int) ([]model.DayTask, error)
	History(ctx context.Context, ownerID string, since *time.Time) (service.History, error)
	Complete(ctx context.Context, ownerID string, advance bool) (service.Outcome, error)
	Emergency(ctx context.Context, ownerID string, mode model.EmergencyMode) (service.Outcome, error)
	MarkReviewDone(ctx context.Context, ownerID string) (model.PageRange, error)
}

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	footerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// actionMsg reports the result of a key action.
type actionMsg struct {
	status string
	err    error
}

// Model implements the Bubble Tea dashboard.
type Model struct {
	planner Planner
	owner   string
	today   func() time.Time

	agenda  service.Agenda
	tasks   []model.DayTask
	history service.History
	errMsg  string
	status  string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	schedule  table.Model

	width  int
	height int
}

// NewModel constructs the dashboard for owner. today supplies the date
// used by the history tab.
func NewModel(p Planner, owner string, today func() time.Time) *Model {
	m := &Model{
		planner: p,
		owner:   owner,
		today:   today,
		tabs:    []string{"Today", "Schedule", "History"},
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.schedule = newScheduleTable()
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case actionMsg:
		if msg.err != nil {
			m.status = ""
			m.errMsg = msg.err.Error()
		} else {
			m.status = msg.status
			m.errMsg = ""
		}
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "c":
			return m, m.complete(false)
		case "a":
			return m, m.complete(true)
		case "x":
			return m, m.emergency(model.EmergencyExtend)
		case "p":
			return m, m.emergency(model.EmergencyCompensate)
		case "r":
			return m, m.review()
		}
		if m.activeTab == tabSchedule {
			var cmd tea.Cmd
			m.schedule, cmd = m.schedule.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderTabs(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) complete(advance bool) tea.Cmd {
	return func() tea.Msg {
		out, err := m.planner.Complete(context.Background(), m.owner, advance)
		if err != nil {
			return actionMsg{err: describeError(err)}
		}
		if !out.Changed {
			return actionMsg{status: "Plan already complete."}
		}
		verb := "Completed"
		if advance {
			verb = "Completed ahead"
		}
		return actionMsg{status: fmt.Sprintf("%s pages %s.", verb, report.PageLabel(out.Task.NewPages))}
	}
}

func (m *Model) emergency(mode model.EmergencyMode) tea.Cmd {
	return func() tea.Msg {
		out, err := m.planner.Emergency(context.Background(), m.owner, mode)
		if err != nil {
			return actionMsg{err: describeError(err)}
		}
		if !out.Changed {
			return actionMsg{status: "Plan already complete."}
		}
		if mode == model.EmergencyCompensate {
			return actionMsg{status: fmt.Sprintf("Added to backlog; now %s pages.", report.FormatRate(out.Plan.BacklogPages))}
		}
		return actionMsg{status: "Skipped today; the end date moves."}
	}
}

func (m *Model) review() tea.Cmd {
	return func() tea.Msg {
		r, err := m.planner.MarkReviewDone(context.Background(), m.owner)
		if err != nil {
			return actionMsg{err: describeError(err)}
		}
		return actionMsg{status: fmt.Sprintf("Review of pages %s done.", report.PageLabel(&r))}
	}
}

func describeError(err error) error {
	switch {
	case errors.Is(err, planner.ErrAlreadyRecorded):
		return errors.New("today is already recorded")
	case errors.Is(err, planner.ErrRestDay):
		return errors.New("rest day: nothing scheduled (press a to work ahead)")
	default:
		return err
	}
}

func (m *Model) refresh() {
	ctx := context.Background()
	agenda, err := m.planner.Agenda(ctx, m.owner)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.agenda = agenda
	tasks, err := m.planner.Forecast(ctx, m.owner, forecastDays)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.tasks = tasks
	history, err := m.planner.History(ctx, m.owner, nil)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.history = history
	m.schedule.SetRows(scheduleRows(m.tasks))
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	m.viewports[tabToday].SetContent(strings.Join(report.AgendaLines(m.agenda), "\n"))

	width := m.width
	if width <= 0 {
		width = 80
	}
	var buf bytes.Buffer
	if err := report.RenderHistory(&buf, m.history, m.today(), width); err != nil {
		m.viewports[tabHistory].SetContent("Failed to render history.")
		return
	}
	m.viewports[tabHistory].SetContent(strings.TrimRight(buf.String(), "\n"))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = max(1, lipgloss.Height(activeNavStyle.Render("X")))
	footerHeight = 2
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.schedule.SetWidth(m.width)
	m.schedule.SetHeight(max(1, bodyHeight-1))
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabSchedule {
		m.schedule.Focus()
	} else {
		m.schedule.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return padLines(lipgloss.JoinHorizontal(lipgloss.Top, parts...), m.width)
}

func (m *Model) renderBody() string {
	if m.activeTab == tabSchedule {
		if len(m.tasks) == 0 {
			return "Nothing left to schedule."
		}
		return tableMutedStyle.Render(m.schedule.View())
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) renderFooter() string {
	help := "c complete  a ahead  x extend  p compensate  r review  left/right tabs  q quit"
	help = footerStyle.Render(truncateLine(help, m.width))
	switch {
	case m.errMsg != "":
		return help + "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	case m.status != "":
		return help + "\n" + statusStyle.Render(truncateLine(m.status, m.width))
	default:
		return help
	}
}

func newScheduleTable() table.Model {
	columns := []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Day", Width: 3},
		{Title: "New", Width: 9},
		{Title: "Review", Width: 9},
		{Title: "Note", Width: 20},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(1),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		PaddingLeft(0)
	styles.Cell = styles.Cell.PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	t.SetStyles(styles)
	return t
}

func scheduleRows(tasks []model.DayTask) []table.Row {
	src := report.ForecastRows(tasks)
	rows := make([]table.Row, 0, len(src))
	for _, r := range src {
		rows = append(rows, table.Row(r))
	}
	return rows
}
