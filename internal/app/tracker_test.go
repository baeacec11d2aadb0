package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fyrsmithlabs/calorilog/internal/aggregate"
	"github.com/fyrsmithlabs/calorilog/internal/diary"
	"github.com/fyrsmithlabs/calorilog/internal/images"
	"github.com/fyrsmithlabs/calorilog/internal/kvstore"
	"github.com/fyrsmithlabs/calorilog/internal/nutrition"
)

var (
	apple = diary.FoodEntry{FoodItem: "Apple", Quantity: "1 medium", Calories: 95, Protein: 0, Carbs: 25, Fats: 0, HealthRating: 9}
	cake  = diary.FoodEntry{FoodItem: "Cake", Quantity: "1 slice", Calories: 350, Protein: 4, Carbs: 50, Fats: 15, HealthRating: 2}
)

// fakeAnalyzer returns canned results and records what it was asked.
type fakeAnalyzer struct {
	mu          sync.Mutex
	entries     []diary.FoodEntry
	err         error
	feedback    string
	feedbackErr error
	block       chan struct{}
	entered     chan struct{}

	lastText   string
	lastPrompt string
	lastMIME   string
	calls      int
}

func (f *fakeAnalyzer) AnalyzeText(_ context.Context, text, _ string) ([]diary.FoodEntry, error) {
	f.mu.Lock()
	f.calls++
	f.lastText = text
	block, entered := f.block, f.entered
	f.mu.Unlock()
	if block != nil {
		entered <- struct{}{}
		<-block
	}
	return append([]diary.FoodEntry(nil), f.entries...), f.err
}

func (f *fakeAnalyzer) AnalyzeImage(_ context.Context, _ []byte, mimeType, _, prompt string) ([]diary.FoodEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastPrompt = prompt
	f.lastMIME = mimeType
	return append([]diary.FoodEntry(nil), f.entries...), f.err
}

func (f *fakeAnalyzer) Feedback(context.Context, []diary.FoodEntry, string) (string, error) {
	return f.feedback, f.feedbackErr
}

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds(k EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Kind == k {
			out = append(out, ev)
		}
	}
	return out
}

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)

func newTestTracker(t *testing.T, a nutrition.Analyzer, opts ...Option) (*Tracker, *KVRepository, *recorder) {
	t.Helper()
	repo := NewKVRepository(kvstore.NewMemoryStore(), nil)
	rec := &recorder{}
	base := []Option{
		WithAnalyzer(a),
		WithNotifier(rec),
		WithClock(func() time.Time { return fixedNow }),
	}
	tr, err := NewTracker(repo, append(base, opts...)...)
	require.NoError(t, err)
	return tr, repo, rec
}

func withCredential(t *testing.T, tr *Tracker) {
	t.Helper()
	require.NoError(t, tr.SetCredential(context.Background(), "test-key"))
}

func TestLogMeal_Text(t *testing.T) {
	a := &fakeAnalyzer{entries: []diary.FoodEntry{apple}, feedback: "Great source of fiber!"}
	tr, _, rec := newTestTracker(t, a)
	withCredential(t, tr)
	ctx := context.Background()

	got, err := tr.LogMeal(ctx, MealInput{Text: "  an apple "})
	require.NoError(t, err)
	assert.Equal(t, []diary.FoodEntry{apple}, got)
	assert.Equal(t, "an apple", a.lastText)

	entries, err := tr.EntriesFor(ctx, "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, []diary.FoodEntry{apple}, entries)

	tr.Wait()
	fb := rec.kinds(EventFeedback)
	require.Len(t, fb, 1)
	assert.Equal(t, "Great source of fiber!", fb[0].Message)
	assert.Len(t, rec.kinds(EventLogUpdated), 1)
}

func TestLogMeal_Image(t *testing.T) {
	a := &fakeAnalyzer{entries: []diary.FoodEntry{apple, cake}}
	store, err := images.NewFileStore(t.TempDir())
	require.NoError(t, err)
	tr, _, _ := newTestTracker(t, a, WithImages(store))
	withCredential(t, tr)
	ctx := context.Background()

	got, err := tr.LogMeal(ctx, MealInput{Image: []byte("jpeg"), MIMEType: "image/jpeg"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, DefaultImagePrompt, a.lastPrompt)
	assert.Equal(t, "image/jpeg", a.lastMIME)

	ref := got[0].Image
	require.NotEmpty(t, ref)
	assert.Equal(t, ref, got[1].Image, "every entry points at the same preview")

	data, _, err := store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)

	_, err = tr.LogMeal(ctx, MealInput{Text: "lunch", Image: []byte("jpeg"), MIMEType: "image/jpeg"})
	require.NoError(t, err)
	assert.Equal(t, "lunch", a.lastPrompt)
	tr.Wait()
}

func TestLogMeal_NoInput(t *testing.T) {
	a := &fakeAnalyzer{entries: []diary.FoodEntry{apple}}
	tr, _, _ := newTestTracker(t, a)
	withCredential(t, tr)

	_, err := tr.LogMeal(context.Background(), MealInput{Text: "   "})
	assert.ErrorIs(t, err, nutrition.ErrValidation)
	assert.Equal(t, nutrition.MsgNoInput, err.Error())
	assert.Zero(t, a.calls)
}

func TestLogMeal_MissingCredential(t *testing.T) {
	a := &fakeAnalyzer{entries: []diary.FoodEntry{apple}}
	tr, _, _ := newTestTracker(t, a)

	_, err := tr.LogMeal(context.Background(), MealInput{Text: "an apple"})
	assert.ErrorIs(t, err, nutrition.ErrConfiguration)
	assert.Zero(t, a.calls)
}

func TestLogMeal_NoItemsLeavesLogUnchanged(t *testing.T) {
	a := &fakeAnalyzer{}
	tr, _, rec := newTestTracker(t, a)
	withCredential(t, tr)
	ctx := context.Background()

	_, err := tr.LogMeal(ctx, MealInput{Text: "air"})
	assert.ErrorIs(t, err, nutrition.ErrValidation)
	assert.Equal(t, nutrition.MsgNoItems, err.Error())

	st, err := tr.State(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.FoodLog)
	assert.Empty(t, rec.kinds(EventLogUpdated))
}

func TestLogMeal_AnalyzerErrorPassesThrough(t *testing.T) {
	a := &fakeAnalyzer{err: &nutrition.Error{Kind: nutrition.ErrUpstreamFormat, Message: nutrition.MsgTextFormat}}
	tr, _, _ := newTestTracker(t, a)
	withCredential(t, tr)

	_, err := tr.LogMeal(context.Background(), MealInput{Text: "an apple"})
	assert.ErrorIs(t, err, nutrition.ErrUpstreamFormat)
	assert.Equal(t, nutrition.MsgTextFormat, nutrition.UserMessage(err))
}

func TestLogMeal_FeedbackFailureDoesNotRollBack(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	a := &fakeAnalyzer{entries: []diary.FoodEntry{apple}, feedbackErr: errors.New("quota")}
	tr, _, rec := newTestTracker(t, a, WithLogger(zap.New(core)))
	withCredential(t, tr)
	ctx := context.Background()

	_, err := tr.LogMeal(ctx, MealInput{Text: "an apple"})
	require.NoError(t, err)
	tr.Wait()

	entries, err := tr.EntriesFor(ctx, "2024-03-15")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Empty(t, rec.kinds(EventFeedback))
	assert.Equal(t, 1, logs.FilterMessage("could not get feedback").Len())
}

// stalledFeedback never answers a feedback request before its context ends.
type stalledFeedback struct {
	*fakeAnalyzer
}

func (stalledFeedback) Feedback(ctx context.Context, _ []diary.FoodEntry, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestCancelFeedback(t *testing.T) {
	a := stalledFeedback{&fakeAnalyzer{entries: []diary.FoodEntry{apple}}}
	tr, _, rec := newTestTracker(t, a, WithFeedbackTimeout(time.Minute))
	withCredential(t, tr)

	_, err := tr.LogMeal(context.Background(), MealInput{Text: "an apple"})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		tr.Wait()
		close(done)
	}()
	tr.CancelFeedback()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after CancelFeedback")
	}
	assert.Empty(t, rec.kinds(EventFeedback))
}

func TestLogMeal_RejectsOverlap(t *testing.T) {
	a := &fakeAnalyzer{entries: []diary.FoodEntry{apple}, block: make(chan struct{}), entered: make(chan struct{}, 1)}
	tr, _, _ := newTestTracker(t, a)
	withCredential(t, tr)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := tr.LogMeal(ctx, MealInput{Text: "first"})
		done <- err
	}()
	<-a.entered
	assert.True(t, tr.guard.Busy())

	_, err := tr.LogMeal(ctx, MealInput{Text: "second"})
	assert.ErrorIs(t, err, nutrition.ErrAnalysisInFlight)

	close(a.block)
	require.NoError(t, <-done)
	tr.Wait()
}

func TestLogMeal_TargetDate(t *testing.T) {
	a := &fakeAnalyzer{entries: []diary.FoodEntry{apple}}
	tr, _, _ := newTestTracker(t, a)
	withCredential(t, tr)
	ctx := context.Background()

	_, err := tr.LogMeal(ctx, MealInput{Text: "an apple", Date: "2024-03-10"})
	require.NoError(t, err)
	entries, err := tr.EntriesFor(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = tr.LogMeal(ctx, MealInput{Text: "an apple", Date: "03/10/2024"})
	assert.ErrorIs(t, err, diary.ErrInvalidDate)
	tr.Wait()
}

func TestManualEntries(t *testing.T) {
	tr, _, _ := newTestTracker(t, nil)
	ctx := context.Background()

	require.NoError(t, tr.AddEntry(ctx, "", apple))
	require.NoError(t, tr.AddEntry(ctx, "2024-03-15", cake))

	err := tr.AddEntry(ctx, "", diary.FoodEntry{FoodItem: "", HealthRating: 5})
	assert.ErrorIs(t, err, diary.ErrInvalid)

	updated := apple
	updated.Calories = 100
	require.NoError(t, tr.UpdateEntry(ctx, "2024-03-15", 0, updated))

	bad := apple
	bad.HealthRating = 11
	assert.ErrorIs(t, tr.UpdateEntry(ctx, "2024-03-15", 0, bad), diary.ErrInvalid)
	assert.ErrorIs(t, tr.UpdateEntry(ctx, "2024-03-15", 5, updated), diary.ErrEntryNotFound)

	entries, err := tr.EntriesFor(ctx, "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, []diary.FoodEntry{updated, cake}, entries)

	require.NoError(t, tr.RemoveEntry(ctx, "2024-03-15", 0))
	require.NoError(t, tr.RemoveEntry(ctx, "2024-03-15", 0))
	assert.ErrorIs(t, tr.RemoveEntry(ctx, "2024-03-15", 0), diary.ErrEntryNotFound)

	st, err := tr.State(ctx)
	require.NoError(t, err)
	_, present := st.FoodLog["2024-03-15"]
	assert.False(t, present, "emptied days are removed")
}

func TestRemoveEntry_DeletesUnsharedImage(t *testing.T) {
	a := &fakeAnalyzer{entries: []diary.FoodEntry{apple, cake}}
	store, err := images.NewFileStore(t.TempDir())
	require.NoError(t, err)
	tr, _, _ := newTestTracker(t, a, WithImages(store))
	withCredential(t, tr)
	ctx := context.Background()

	got, err := tr.LogMeal(ctx, MealInput{Image: []byte("png"), MIMEType: "image/png"})
	require.NoError(t, err)
	tr.Wait()
	ref := got[0].Image

	require.NoError(t, tr.RemoveEntry(ctx, "2024-03-15", 0))
	_, _, err = store.Get(ctx, ref)
	assert.NoError(t, err, "still referenced by the second entry")

	require.NoError(t, tr.RemoveEntry(ctx, "2024-03-15", 0))
	_, _, err = store.Get(ctx, ref)
	assert.ErrorIs(t, err, images.ErrNotFound)
}

func TestCopyToToday(t *testing.T) {
	tr, _, _ := newTestTracker(t, nil)
	ctx := context.Background()
	require.NoError(t, tr.AddEntry(ctx, "2024-03-13", apple))
	require.NoError(t, tr.AddEntry(ctx, "2024-03-14", cake))

	n, err := tr.CopyToToday(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = tr.CopyToToday(ctx, []Selection{{Date: "2024-03-13", Index: 0}, {Date: "2024-03-14", Index: 0}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "Successfully copied 2 meal(s) to today's log.", CopyMessage(n))

	today, err := tr.EntriesFor(ctx, "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, []diary.FoodEntry{apple, cake}, today)

	_, err = tr.CopyToToday(ctx, []Selection{{Date: "2024-03-13", Index: 0}, {Date: "2024-03-13", Index: 3}})
	assert.ErrorIs(t, err, diary.ErrEntryNotFound)
	today, _ = tr.EntriesFor(ctx, "2024-03-15")
	assert.Len(t, today, 2, "a bad selection copies nothing")

	recent, err := tr.RecentDays(ctx)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "2024-03-15", recent[0].DateKey)
	assert.Equal(t, "2024-03-13", recent[2].DateKey)
}

func TestWeights(t *testing.T) {
	tr, _, _ := newTestTracker(t, nil)
	ctx := context.Background()

	require.NoError(t, tr.LogWeight(ctx, "2024-03-14", 80.5))
	require.NoError(t, tr.LogWeight(ctx, "", 80.1))
	require.NoError(t, tr.LogWeight(ctx, "2024-03-14", 80.3))
	assert.ErrorIs(t, tr.LogWeight(ctx, "", 0), diary.ErrInvalidWeight)
	assert.ErrorIs(t, tr.LogWeight(ctx, "", -3), diary.ErrInvalidWeight)

	trend, err := tr.WeightTrend(ctx)
	require.NoError(t, err)
	assert.Equal(t, []aggregate.WeightPoint{
		{DateKey: "2024-03-14", Weight: 80.3},
		{DateKey: "2024-03-15", Weight: 80.1},
	}, trend)
}

func TestSettings(t *testing.T) {
	tr, _, _ := newTestTracker(t, nil)
	ctx := context.Background()

	goals, err := tr.Goals(ctx)
	require.NoError(t, err)
	assert.Equal(t, diary.DefaultGoals(), goals)

	assert.ErrorIs(t, tr.SetGoals(ctx, diary.UserGoals{Calories: 0, Protein: 1, Carbs: 1, Fats: 1}), diary.ErrInvalid)
	require.NoError(t, tr.SetGoals(ctx, diary.UserGoals{Calories: 1800, Protein: 120, Carbs: 200, Fats: 60}))
	goals, _ = tr.Goals(ctx)
	assert.Equal(t, 1800, goals.Calories)

	ok, err := tr.HasCredential(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, tr.SetCredential(ctx, " "), nutrition.ErrValidation)
	require.NoError(t, tr.SetCredential(ctx, " abc "))
	c, _ := tr.Credential(ctx)
	assert.Equal(t, "abc", c)
	require.NoError(t, tr.ClearCredential(ctx))
	ok, _ = tr.HasCredential(ctx)
	assert.False(t, ok)

	theme, err := tr.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, diary.ThemeLight, theme)
	require.NoError(t, tr.SetTheme(ctx, diary.ThemeDark))
	theme, _ = tr.Theme(ctx)
	assert.Equal(t, diary.ThemeDark, theme)
	assert.ErrorIs(t, tr.SetTheme(ctx, "blue"), diary.ErrInvalidTheme)
}

func TestKVRepository_CorruptKeysReadAsDefaults(t *testing.T) {
	ctx := context.Background()
	s := kvstore.NewMemoryStore()
	require.NoError(t, s.Set(ctx, KeyFoodLogs, []byte("{broken")))
	require.NoError(t, s.Set(ctx, KeyGoals, []byte(`"nope"`)))
	require.NoError(t, s.Set(ctx, KeyTheme, []byte(`"blue"`)))
	require.NoError(t, s.Set(ctx, KeyCredential, []byte(`null`)))

	st, err := NewKVRepository(s, nil).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, diary.FoodLog{}, st.FoodLog)
	assert.Equal(t, diary.DefaultGoals(), st.Goals)
	assert.Equal(t, diary.ThemeLight, st.Theme)
	assert.Empty(t, st.Credential)
}

func TestKVRepository_PersistsRawShapes(t *testing.T) {
	ctx := context.Background()
	s := kvstore.NewMemoryStore()
	repo := NewKVRepository(s, nil)

	require.NoError(t, repo.SaveCredential(ctx, "abc"))
	raw, err := s.Get(ctx, KeyCredential)
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, string(raw))

	require.NoError(t, repo.SaveTheme(ctx, diary.ThemeDark))
	raw, _ = s.Get(ctx, KeyTheme)
	assert.Equal(t, `"dark"`, string(raw))

	require.NoError(t, repo.SaveFoodLog(ctx, diary.FoodLog{"2024-03-15": {apple}}))
	raw, _ = s.Get(ctx, KeyFoodLogs)
	assert.JSONEq(t, `{"2024-03-15":[{"foodItem":"Apple","quantity":"1 medium","calories":95,"protein":0,"carbs":25,"fats":0,"healthRating":9}]}`, string(raw))
}

func TestDashboard(t *testing.T) {
	tr, _, _ := newTestTracker(t, nil)
	ctx := context.Background()

	empty, err := tr.Dashboard(ctx, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "No entries yet.", empty.HealthMessage)
	assert.Equal(t, aggregate.NoData, empty.HealthBucket)

	require.NoError(t, tr.AddEntry(ctx, "", apple))
	require.NoError(t, tr.AddEntry(ctx, "2024-03-11", cake))

	d, err := tr.Dashboard(ctx, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", d.Date)
	assert.Equal(t, 95, d.Totals.Calories)
	assert.Equal(t, "Excellent!", d.HealthMessage)
	assert.InDelta(t, 4.75, d.CalorieProgress, 0.001)
	assert.Equal(t, "2024-03-11", d.WeekStart, "weeks start on Monday")
	require.Len(t, d.Week, 7)
	assert.Equal(t, 350, d.Week[0].Calories)
	assert.Equal(t, 95, d.Week[4].Calories)
}

func TestCalendarSheetAndExport(t *testing.T) {
	tr, _, _ := newTestTracker(t, nil)
	ctx := context.Background()
	require.NoError(t, tr.AddEntry(ctx, "2024-03-01", apple))
	require.NoError(t, tr.AddEntry(ctx, "2024-03-15", cake))

	cells, err := tr.Calendar(ctx, fixedNow)
	require.NoError(t, err)
	assert.Zero(t, len(cells)%7)
	var today *aggregate.DayCell
	for i := range cells {
		if cells[i].IsToday {
			today = &cells[i]
		}
	}
	require.NotNil(t, today)
	assert.Equal(t, 350, today.TotalCalories)

	rows, err := tr.Sheet(ctx, aggregate.SortCalories, aggregate.Asc)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Apple", rows[0].Entry.FoodItem)

	var buf bytes.Buffer
	name, err := tr.ExportCSV(ctx, &buf, aggregate.SortDate, aggregate.Asc)
	require.NoError(t, err)
	assert.Equal(t, "food_log_2024-03-15.csv", name)
	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `2024-03-01,"Apple","1 medium",95,0,25,0,9`, lines[1])
}

func TestNewTracker_RequiresRepository(t *testing.T) {
	_, err := NewTracker(nil)
	assert.Error(t, err)

	tr, _, _ := newTestTracker(t, nil)
	withCredential(t, tr)
	_, err = tr.LogMeal(context.Background(), MealInput{Text: "apple"})
	assert.ErrorIs(t, err, ErrNoAnalyzer)
}
