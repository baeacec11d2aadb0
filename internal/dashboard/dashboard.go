// Package dashboard is the terminal view of today's intake, the week, and
// the weight trend.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fyrsmithlabs/calorilog/internal/aggregate"
	"github.com/fyrsmithlabs/calorilog/internal/app"
	"github.com/fyrsmithlabs/calorilog/internal/diary"
)

const (
	sparklineWidth  = 28
	sparklineHeight = 3
	progressWidth   = 40
	fetchTimeout    = 5 * time.Second
)

// Source is the read side of the tracker the dashboard renders.
type Source interface {
	Now() time.Time
	Dashboard(ctx context.Context, now time.Time) (app.Dashboard, error)
	WeightTrend(ctx context.Context) ([]aggregate.WeightPoint, error)
	Theme(ctx context.Context) (diary.Theme, error)
}

var _ Source = (*app.Tracker)(nil)

// Snapshot is everything one render needs.
type Snapshot struct {
	Today     app.Dashboard
	WeekStart string
	Week      []aggregate.DayCalories
	Weights   []aggregate.WeightPoint
	Theme     diary.Theme
}

// Model is the bubbletea dashboard model.
type Model struct {
	source     Source
	interval   time.Duration
	changes    <-chan string
	weekOffset int

	snapshot   Snapshot
	loaded     bool
	lastUpdate time.Time
	err        error
	quitting   bool

	calories progress.Model
}

// Option configures a Model.
type Option func(*Model)

// WithChanges refreshes the view whenever a key name arrives on ch,
// normally kvstore.Watcher.Changes().
func WithChanges(ch <-chan string) Option {
	return func(m *Model) { m.changes = ch }
}

// NewModel creates a dashboard that refreshes every interval.
func NewModel(src Source, interval time.Duration, opts ...Option) Model {
	m := Model{
		source:   src,
		interval: interval,
		calories: newProgress(lightPalette),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func newProgress(p palette) progress.Model {
	return progress.New(
		progress.WithGradient(p.gradientFrom, p.gradientTo),
		progress.WithWidth(progressWidth),
		progress.WithoutPercentage(),
	)
}

// Message types
type (
	tickMsg     time.Time
	snapshotMsg Snapshot
	errMsg      struct{ err error }
	changeMsg   string
)

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tick(m.interval),
		fetch(m.source, m.weekOffset),
		waitForChange(m.changes),
	)
}

func tick(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForChange(ch <-chan string) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		key, ok := <-ch
		if !ok {
			return nil
		}
		return changeMsg(key)
	}
}

// fetch loads today's summary plus the week weekOffset weeks away from
// today.
func fetch(src Source, weekOffset int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		now := src.Now()
		today, err := src.Dashboard(ctx, now)
		if err != nil {
			return errMsg{err}
		}
		week := today
		if weekOffset != 0 {
			week, err = src.Dashboard(ctx, now.AddDate(0, 0, 7*weekOffset))
			if err != nil {
				return errMsg{err}
			}
		}
		weights, err := src.WeightTrend(ctx)
		if err != nil {
			return errMsg{err}
		}
		theme, err := src.Theme(ctx)
		if err != nil {
			theme = diary.ThemeLight
		}
		return snapshotMsg{
			Today:     today,
			WeekStart: week.WeekStart,
			Week:      week.Week,
			Weights:   weights,
			Theme:     theme,
		}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, fetch(m.source, m.weekOffset)
		case "left", "h":
			m.weekOffset--
			return m, fetch(m.source, m.weekOffset)
		case "right", "l":
			m.weekOffset++
			return m, fetch(m.source, m.weekOffset)
		}

	case tickMsg:
		return m, tea.Batch(tick(m.interval), fetch(m.source, m.weekOffset))

	case changeMsg:
		return m, tea.Batch(fetch(m.source, m.weekOffset), waitForChange(m.changes))

	case snapshotMsg:
		if Snapshot(msg).Theme != m.snapshot.Theme {
			m.calories = newProgress(paletteFor(msg.Theme))
		}
		m.snapshot = Snapshot(msg)
		m.loaded = true
		m.lastUpdate = time.Now()
		m.err = nil
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil
	}
	return m, nil
}

// View renders the dashboard
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	p := paletteFor(m.snapshot.Theme)
	if m.err != nil {
		return m.renderError(p)
	}
	if !m.loaded {
		return p.container.Render(p.header.Render(" calorilog ") + "\n\n" + p.dim.Render("Loading..."))
	}
	return m.renderDashboard(p)
}

func (m Model) renderError(p palette) string {
	var b strings.Builder
	b.WriteString(p.header.Render(" calorilog ") + "\n\n")
	b.WriteString(p.errText.Render("Could not load the log") + "\n")
	b.WriteString(p.dim.Render("Error: ") + p.errText.Render(m.err.Error()) + "\n\n")
	b.WriteString(m.footer(p))
	return p.container.Render(b.String())
}

func (m Model) renderDashboard(p palette) string {
	d := m.snapshot.Today
	var b strings.Builder

	updated := "never"
	if !m.lastUpdate.IsZero() {
		updated = m.lastUpdate.Format("3:04:05 PM")
	}
	b.WriteString(p.header.Render(" calorilog ") + "   " +
		p.value.Render(d.Date) + "   " + p.dim.Render("updated "+updated) + "\n")

	b.WriteString("\n" + p.section.Render("┃ Calories") + "\n")
	b.WriteString(p.label.Render("  Today: ") +
		p.value.Render(FormatCalories(d.Totals.Calories, d.Goals.Calories)) + "\n")
	b.WriteString("  " + m.calories.ViewAs(d.CalorieProgress/100) +
		" " + p.dim.Render(FormatPercentage(d.CalorieProgress)) + "\n")

	b.WriteString("\n" + p.section.Render("┃ Macros") + "\n")
	b.WriteString(p.label.Render("  Protein: ") + p.value.Render(FormatMacro(d.Totals.Protein, d.Goals.Protein)) + "\n")
	b.WriteString(p.label.Render("  Carbs:   ") + p.value.Render(FormatMacro(d.Totals.Carbs, d.Goals.Carbs)) + "\n")
	b.WriteString(p.label.Render("  Fats:    ") + p.value.Render(FormatMacro(d.Totals.Fats, d.Goals.Fats)) + "\n")

	b.WriteString("\n" + p.section.Render("┃ Health") + "\n")
	score := "-"
	if d.Totals.AvgHealthRating.HasData {
		score = fmt.Sprintf("%.1f/10", d.Totals.AvgHealthRating.Value)
	}
	b.WriteString(p.label.Render("  Score: ") + p.value.Render(score) + "  " +
		p.bucket(d.HealthBucket).Render(d.HealthMessage) + "\n")

	b.WriteString("\n" + p.section.Render("┃ Week of "+m.snapshot.WeekStart) + "\n")
	b.WriteString(weekSparkline(p, m.snapshot.Week) + "\n")
	b.WriteString("  " + p.dim.Render(weekdayLabels(m.snapshot.Week)) + "\n")

	if aggregate.Chartable(m.snapshot.Weights) {
		w := m.snapshot.Weights
		first, last := w[0], w[len(w)-1]
		b.WriteString("\n" + p.section.Render("┃ Weight") + "\n")
		b.WriteString(p.label.Render("  Latest: ") + p.value.Render(FormatWeight(last.Weight)) +
			p.dim.Render(" ("+FormatWeightChange(first.Weight, last.Weight)+" since "+first.DateKey+")") + "\n")
		b.WriteString(weightSparkline(p, w) + "\n")
	}

	b.WriteString("\n" + m.footer(p))
	return p.container.Render(b.String())
}

func (m Model) footer(p palette) string {
	auto := "off"
	if m.interval > 0 {
		auto = m.interval.String()
	}
	return p.footerKey.Render("[q]") + p.dim.Render(" quit  ") +
		p.footerKey.Render("[r]") + p.dim.Render(" refresh  ") +
		p.footerKey.Render("[←/→]") + p.dim.Render(" week  ") +
		p.dim.Render("auto: "+auto)
}

func weekSparkline(p palette, week []aggregate.DayCalories) string {
	values := make([]float64, len(week))
	for i, d := range week {
		values[i] = float64(d.Calories)
	}
	return renderSparkline(p, values)
}

func weightSparkline(p palette, points []aggregate.WeightPoint) string {
	values := make([]float64, len(points))
	for i, pt := range points {
		values[i] = pt.Weight
	}
	return renderSparkline(p, values)
}

func renderSparkline(p palette, data []float64) string {
	if len(data) == 0 {
		return p.dim.Render(fmt.Sprintf("  %*s", sparklineWidth, "no data"))
	}
	spark := sparkline.New(sparklineWidth, sparklineHeight)
	spark.PushAll(data)
	spark.Draw()
	return p.spark.Render(spark.View())
}

func weekdayLabels(week []aggregate.DayCalories) string {
	labels := make([]string, len(week))
	for i, d := range week {
		if len(d.Weekday) >= 2 {
			labels[i] = d.Weekday[:2]
		} else {
			labels[i] = d.Weekday
		}
	}
	return strings.Join(labels, " ")
}
