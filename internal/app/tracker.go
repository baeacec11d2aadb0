// Package app holds the calorie tracker's state container. It wires the
// diary mutators, the AI analyzer, and the image store to a repository
// and commits every change synchronously.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/calorilog/internal/diary"
	"github.com/fyrsmithlabs/calorilog/internal/images"
	"github.com/fyrsmithlabs/calorilog/internal/nutrition"
)

// Defaults.
const (
	DefaultFeedbackTimeout = 30 * time.Second
	DefaultImagePrompt     = "Analyze the meal in this image."
	RecentDayCount         = 5
)

// ErrNoAnalyzer is returned by LogMeal when the tracker was built without
// an analyzer.
var ErrNoAnalyzer = errors.New("no analyzer configured")

// MealInput is one meal to analyze. Text, Image, or both must be set.
type MealInput struct {
	Text     string `json:"text"`
	Image    []byte `json:"image,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	// Date defaults to today.
	Date string `json:"date,omitempty"`
}

// Selection addresses one logged entry.
type Selection struct {
	Date  string `json:"date"`
	Index int    `json:"index"`
}

// Tracker is the injected state object every view layer talks to.
type Tracker struct {
	mu       sync.Mutex
	repo     Repository
	analyzer nutrition.Analyzer
	guard    *nutrition.Guard
	images   images.Store
	notifier Notifier
	now      func() time.Time
	logger   *zap.Logger

	feedbackTimeout time.Duration
	background      sync.WaitGroup
	backgroundCtx   context.Context
	stopBackground  context.CancelFunc
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithAnalyzer sets the AI analyzer used by LogMeal.
func WithAnalyzer(a nutrition.Analyzer) Option {
	return func(t *Tracker) { t.analyzer = a }
}

// WithImages sets where photo previews are kept.
func WithImages(s images.Store) Option {
	return func(t *Tracker) { t.images = s }
}

// WithNotifier sets the event sink.
func WithNotifier(n Notifier) Option {
	return func(t *Tracker) { t.notifier = n }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithFeedbackTimeout bounds the background feedback call.
func WithFeedbackTimeout(d time.Duration) Option {
	return func(t *Tracker) { t.feedbackTimeout = d }
}

// NewTracker returns a Tracker over repo.
func NewTracker(repo Repository, opts ...Option) (*Tracker, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	t := &Tracker{
		repo:            repo,
		guard:           nutrition.NewGuard(),
		notifier:        NopNotifier{},
		now:             time.Now,
		logger:          zap.NewNop(),
		feedbackTimeout: DefaultFeedbackTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.backgroundCtx, t.stopBackground = context.WithCancel(context.Background())
	return t, nil
}

// Today returns the current date key.
func (t *Tracker) Today() string {
	return diary.DateKey(t.now())
}

// Now returns the tracker clock's time.
func (t *Tracker) Now() time.Time {
	return t.now()
}

// Wait blocks until background feedback calls finish.
func (t *Tracker) Wait() {
	t.background.Wait()
}

// CancelFeedback abandons feedback calls still in flight. Later calls
// fail immediately, so use it only when the tracker is going away.
func (t *Tracker) CancelFeedback() {
	t.stopBackground()
}

// Analyzing reports whether a meal analysis is running.
func (t *Tracker) Analyzing() bool {
	return t.guard.Busy()
}

// State returns a snapshot of everything persisted.
func (t *Tracker) State(ctx context.Context) (State, error) {
	return t.repo.Load(ctx)
}

// LogMeal analyzes in, appends the recognized entries to its date, and
// commits. Feedback is requested afterwards in the background and
// delivered through the notifier.
func (t *Tracker) LogMeal(ctx context.Context, in MealInput) ([]diary.FoodEntry, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" && len(in.Image) == 0 {
		return nil, nutrition.Validation(nutrition.MsgNoInput)
	}
	date, err := t.dateOrToday(in.Date)
	if err != nil {
		return nil, err
	}
	if t.analyzer == nil {
		return nil, ErrNoAnalyzer
	}

	st, err := t.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	credential := strings.TrimSpace(st.Credential)
	if credential == "" {
		return nil, &nutrition.Error{Kind: nutrition.ErrConfiguration, Message: nutrition.MsgMissingCredential}
	}

	var entries []diary.FoodEntry
	err = t.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		entries, err = t.analyze(ctx, in, text, credential)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nutrition.Validation(nutrition.MsgNoItems)
	}

	if err := t.mutateFoodLog(ctx, func(log diary.FoodLog) (diary.FoodLog, error) {
		for _, e := range entries {
			log = diary.AppendEntry(log, date, e)
		}
		return log, nil
	}); err != nil {
		return nil, err
	}
	t.logger.Info("meal logged", zap.String("date", date), zap.Int("items", len(entries)))
	t.notifier.Publish(ctx, Event{Kind: EventLogUpdated, Date: date})

	t.requestFeedback(entries, credential, date)
	return entries, nil
}

func (t *Tracker) analyze(ctx context.Context, in MealInput, text, credential string) ([]diary.FoodEntry, error) {
	if len(in.Image) == 0 {
		return t.analyzer.AnalyzeText(ctx, text, credential)
	}
	prompt := text
	if prompt == "" {
		prompt = DefaultImagePrompt
	}
	entries, err := t.analyzer.AnalyzeImage(ctx, in.Image, in.MIMEType, credential, prompt)
	if err != nil || len(entries) == 0 || t.images == nil {
		return entries, err
	}
	ref, err := t.images.Put(ctx, in.Image, in.MIMEType)
	if err != nil {
		return nil, fmt.Errorf("saving image preview: %w", err)
	}
	for i := range entries {
		entries[i].Image = ref
	}
	return entries, nil
}

// requestFeedback runs detached from the caller's context. Failures never
// reach the caller.
func (t *Tracker) requestFeedback(entries []diary.FoodEntry, credential, date string) {
	t.background.Add(1)
	go func() {
		defer t.background.Done()
		ctx, cancel := context.WithTimeout(t.backgroundCtx, t.feedbackTimeout)
		defer cancel()

		msg, err := t.analyzer.Feedback(ctx, entries, credential)
		if err != nil {
			t.logger.Debug("could not get feedback", zap.Error(err))
			return
		}
		if msg == "" {
			return
		}
		t.notifier.Publish(ctx, Event{Kind: EventFeedback, Message: msg, Date: date})
	}()
}

// AddEntry validates and appends a manually entered food item.
func (t *Tracker) AddEntry(ctx context.Context, date string, e diary.FoodEntry) error {
	date, err := t.dateOrToday(date)
	if err != nil {
		return err
	}
	if err := diary.ValidateEntry(e); err != nil {
		return err
	}
	if err := t.mutateFoodLog(ctx, func(log diary.FoodLog) (diary.FoodLog, error) {
		return diary.AppendEntry(log, date, e), nil
	}); err != nil {
		return err
	}
	t.notifier.Publish(ctx, Event{Kind: EventLogUpdated, Date: date})
	return nil
}

// UpdateEntry validates e and replaces the entry at (date, index).
func (t *Tracker) UpdateEntry(ctx context.Context, date string, index int, e diary.FoodEntry) error {
	if _, err := diary.ParseDateKey(date); err != nil {
		return err
	}
	if err := diary.ValidateEntry(e); err != nil {
		return err
	}
	if err := t.mutateFoodLog(ctx, func(log diary.FoodLog) (diary.FoodLog, error) {
		return diary.ReplaceEntry(log, date, index, e)
	}); err != nil {
		return err
	}
	t.notifier.Publish(ctx, Event{Kind: EventLogUpdated, Date: date})
	return nil
}

// RemoveEntry deletes the entry at (date, index). Its image preview, if
// any, is deleted too.
func (t *Tracker) RemoveEntry(ctx context.Context, date string, index int) error {
	var removed diary.FoodEntry
	if err := t.mutateFoodLog(ctx, func(log diary.FoodLog) (diary.FoodLog, error) {
		if day := log[date]; index >= 0 && index < len(day) {
			removed = day[index]
		}
		return diary.RemoveEntry(log, date, index)
	}); err != nil {
		return err
	}
	if removed.Image != "" && t.images != nil {
		t.dropImage(ctx, removed.Image, date)
	}
	t.notifier.Publish(ctx, Event{Kind: EventLogUpdated, Date: date})
	return nil
}

// dropImage deletes ref unless another entry still points at it.
func (t *Tracker) dropImage(ctx context.Context, ref, date string) {
	st, err := t.repo.Load(ctx)
	if err != nil {
		return
	}
	for _, day := range st.FoodLog {
		for _, e := range day {
			if e.Image == ref {
				return
			}
		}
	}
	if err := t.images.Delete(ctx, ref); err != nil {
		t.logger.Warn("deleting image preview failed", zap.String("date", date), zap.Error(err))
	}
}

// EntriesFor returns date's entries in insertion order.
func (t *Tracker) EntriesFor(ctx context.Context, date string) ([]diary.FoodEntry, error) {
	if _, err := diary.ParseDateKey(date); err != nil {
		return nil, err
	}
	st, err := t.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	return st.FoodLog.Entries(date), nil
}

// CopyToToday appends the selected entries to today's log and returns how
// many were copied. Every selection must exist.
func (t *Tracker) CopyToToday(ctx context.Context, selections []Selection) (int, error) {
	if len(selections) == 0 {
		return 0, nil
	}
	today := t.Today()
	if err := t.mutateFoodLog(ctx, func(log diary.FoodLog) (diary.FoodLog, error) {
		picked := make([]diary.FoodEntry, 0, len(selections))
		for _, s := range selections {
			day := log[s.Date]
			if s.Index < 0 || s.Index >= len(day) {
				return nil, fmt.Errorf("%w: %s #%d", diary.ErrEntryNotFound, s.Date, s.Index)
			}
			picked = append(picked, day[s.Index])
		}
		for _, e := range picked {
			log = diary.AppendEntry(log, today, e)
		}
		return log, nil
	}); err != nil {
		return 0, err
	}
	t.notifier.Publish(ctx, Event{Kind: EventLogUpdated, Date: today})
	return len(selections), nil
}

// CopyMessage is the confirmation shown after CopyToToday.
func CopyMessage(n int) string {
	return fmt.Sprintf("Successfully copied %d meal(s) to today's log.", n)
}

// LogWeight records weight for date (default today).
func (t *Tracker) LogWeight(ctx context.Context, date string, weight float64) error {
	date, err := t.dateOrToday(date)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	st, err := t.repo.Load(ctx)
	if err != nil {
		return err
	}
	weights, err := diary.UpsertWeight(st.Weights, date, weight)
	if err != nil {
		return err
	}
	return t.repo.SaveWeights(ctx, weights)
}

// Goals returns the stored goals or the defaults.
func (t *Tracker) Goals(ctx context.Context) (diary.UserGoals, error) {
	st, err := t.repo.Load(ctx)
	if err != nil {
		return diary.UserGoals{}, err
	}
	return st.Goals, nil
}

// SetGoals validates and stores g.
func (t *Tracker) SetGoals(ctx context.Context, g diary.UserGoals) error {
	if err := diary.ValidateGoals(g); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.repo.SaveGoals(ctx, g)
}

// HasCredential reports whether an AI credential is stored.
func (t *Tracker) HasCredential(ctx context.Context) (bool, error) {
	c, err := t.Credential(ctx)
	return c != "", err
}

// Credential returns the stored AI credential, or "".
func (t *Tracker) Credential(ctx context.Context) (string, error) {
	st, err := t.repo.Load(ctx)
	if err != nil {
		return "", err
	}
	return st.Credential, nil
}

// SetCredential stores credential. Blank values are rejected.
func (t *Tracker) SetCredential(ctx context.Context, credential string) error {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nutrition.Validation("API key must not be empty.")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.repo.SaveCredential(ctx, credential)
}

// ClearCredential removes the stored credential.
func (t *Tracker) ClearCredential(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.repo.SaveCredential(ctx, "")
}

// Theme returns the stored theme.
func (t *Tracker) Theme(ctx context.Context) (diary.Theme, error) {
	st, err := t.repo.Load(ctx)
	if err != nil {
		return "", err
	}
	return st.Theme, nil
}

// SetTheme stores theme.
func (t *Tracker) SetTheme(ctx context.Context, theme diary.Theme) error {
	theme, err := diary.ParseTheme(string(theme))
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.repo.SaveTheme(ctx, theme)
}

// mutateFoodLog runs one load, mutate, commit cycle under the tracker lock.
func (t *Tracker) mutateFoodLog(ctx context.Context, fn func(diary.FoodLog) (diary.FoodLog, error)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, err := t.repo.Load(ctx)
	if err != nil {
		return err
	}
	log, err := fn(st.FoodLog)
	if err != nil {
		return err
	}
	return t.repo.SaveFoodLog(ctx, log)
}

func (t *Tracker) dateOrToday(date string) (string, error) {
	if date == "" {
		return t.Today(), nil
	}
	if _, err := diary.ParseDateKey(date); err != nil {
		return "", err
	}
	return date, nil
}
