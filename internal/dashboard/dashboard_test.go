package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/calorilog/internal/aggregate"
	"github.com/fyrsmithlabs/calorilog/internal/app"
	"github.com/fyrsmithlabs/calorilog/internal/diary"
	"github.com/fyrsmithlabs/calorilog/internal/kvstore"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)

// fakeSource records the dates it was asked for.
type fakeSource struct {
	mu      sync.Mutex
	asked   []string
	weights []aggregate.WeightPoint
	err     error
}

func (f *fakeSource) Now() time.Time { return fixedNow }

func (f *fakeSource) Dashboard(_ context.Context, now time.Time) (app.Dashboard, error) {
	f.mu.Lock()
	f.asked = append(f.asked, diary.DateKey(now))
	f.mu.Unlock()
	if f.err != nil {
		return app.Dashboard{}, f.err
	}
	start := aggregate.StartOfWeek(now, time.Monday)
	return app.Dashboard{
		Date:            diary.DateKey(now),
		Totals:          aggregate.Totals{Calories: 1250, Protein: 80, Carbs: 140, Fats: 40, Count: 3, AvgHealthRating: aggregate.Average{Value: 7, HasData: true}},
		Goals:           diary.DefaultGoals(),
		CalorieProgress: 62.5,
		HealthMessage:   "Good!",
		HealthBucket:    aggregate.Good,
		WeekStart:       diary.DateKey(start),
		Week:            aggregate.WeeklySeries(diary.FoodLog{diary.DateKey(now): {{Calories: 1250}}}, start),
	}, nil
}

func (f *fakeSource) WeightTrend(context.Context) ([]aggregate.WeightPoint, error) {
	return f.weights, nil
}

func (f *fakeSource) Theme(context.Context) (diary.Theme, error) {
	return diary.ThemeDark, nil
}

func load(t *testing.T, m Model) Model {
	t.Helper()
	msg := fetch(m.source, m.weekOffset)()
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func TestNewModel(t *testing.T) {
	src := &fakeSource{}
	model := NewModel(src, 5*time.Second)
	assert.Equal(t, 5*time.Second, model.interval)
	assert.False(t, model.quitting)
	assert.False(t, model.loaded)
	assert.NotNil(t, model.Init())
}

func TestModel_Update_QuitKey(t *testing.T) {
	model := NewModel(&fakeSource{}, time.Second)
	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m := updated.(Model)
	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, m.View())
}

func TestModel_Update_RefreshKey(t *testing.T) {
	model := NewModel(&fakeSource{}, time.Second)
	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	assert.False(t, updated.(Model).quitting)
	require.NotNil(t, cmd)
	_, ok := cmd().(snapshotMsg)
	assert.True(t, ok)
}

func TestModel_Update_WeekNavigation(t *testing.T) {
	src := &fakeSource{}
	model := NewModel(src, time.Second)

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m := updated.(Model)
	assert.Equal(t, -1, m.weekOffset)
	msg := cmd()
	snap, ok := msg.(snapshotMsg)
	require.True(t, ok)
	assert.Equal(t, "2024-03-04", snap.WeekStart)
	assert.Equal(t, "2024-03-15", snap.Today.Date)

	updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m = updated.(Model)
	assert.Equal(t, 0, m.weekOffset)
	snap = cmd().(snapshotMsg)
	assert.Equal(t, "2024-03-11", snap.WeekStart)

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, []string{"2024-03-15", "2024-03-08", "2024-03-15"}, src.asked)
}

func TestModel_Update_TickMsg(t *testing.T) {
	model := NewModel(&fakeSource{}, time.Second)
	updated, cmd := model.Update(tickMsg(time.Now()))
	assert.False(t, updated.(Model).quitting)
	assert.NotNil(t, cmd)
}

func TestModel_ChangeTriggersRefresh(t *testing.T) {
	ch := make(chan string, 1)
	model := NewModel(&fakeSource{}, 0, WithChanges(ch))

	ch <- app.KeyFoodLogs
	msg := waitForChange(model.changes)()
	assert.Equal(t, changeMsg(app.KeyFoodLogs), msg)

	_, cmd := model.Update(msg)
	assert.NotNil(t, cmd)

	close(ch)
	assert.Nil(t, waitForChange(model.changes)())
	assert.Nil(t, waitForChange(nil))
}

func TestModel_View(t *testing.T) {
	src := &fakeSource{}
	model := NewModel(src, time.Second)
	assert.Contains(t, model.View(), "Loading")

	m := load(t, model)
	view := m.View()
	assert.Contains(t, view, "2024-03-15")
	assert.Contains(t, view, "1,250 / 2,000 kcal")
	assert.Contains(t, view, "80g / 150g")
	assert.Contains(t, view, "Good!")
	assert.Contains(t, view, "Week of 2024-03-11")
	assert.Contains(t, view, "Mo Tu We Th Fr Sa Su")
	assert.NotContains(t, view, "Weight")

	src.weights = []aggregate.WeightPoint{{DateKey: "2024-03-01", Weight: 82}, {DateKey: "2024-03-14", Weight: 80.5}}
	view = load(t, m).View()
	assert.Contains(t, view, "Weight")
	assert.Contains(t, view, "80.5")
	assert.Contains(t, view, "-1.5 since 2024-03-01")
}

func TestModel_ViewError(t *testing.T) {
	src := &fakeSource{err: errors.New("store unavailable")}
	m := load(t, NewModel(src, time.Second))
	require.Error(t, m.err)
	view := m.View()
	assert.Contains(t, view, "Could not load the log")
	assert.Contains(t, view, "store unavailable")

	src.err = nil
	m = load(t, m)
	assert.NoError(t, m.err)
}

func TestModel_WithTracker(t *testing.T) {
	tracker, err := app.NewTracker(
		app.NewKVRepository(kvstore.NewMemoryStore(), nil),
		app.WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, tracker.AddEntry(ctx, "2024-03-15", diary.FoodEntry{FoodItem: "Oats", Calories: 300, Protein: 10, HealthRating: 9}))
	require.NoError(t, tracker.SetTheme(ctx, diary.ThemeDark))

	m := load(t, NewModel(tracker, 0))
	assert.Equal(t, diary.ThemeDark, m.snapshot.Theme)
	view := m.View()
	assert.Contains(t, view, "300 / 2,000 kcal")
	assert.Contains(t, view, "Excellent!")
	assert.True(t, strings.Contains(view, "auto: off"))
}
