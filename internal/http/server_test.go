package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/calorilog/internal/app"
	"github.com/fyrsmithlabs/calorilog/internal/diary"
	"github.com/fyrsmithlabs/calorilog/internal/images"
	"github.com/fyrsmithlabs/calorilog/internal/kvstore"
	"github.com/fyrsmithlabs/calorilog/internal/logging"
	"github.com/fyrsmithlabs/calorilog/internal/nutrition"
	"github.com/fyrsmithlabs/calorilog/internal/telemetry"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)

type stubAnalyzer struct {
	entries []diary.FoodEntry
	err     error
}

func (s *stubAnalyzer) AnalyzeText(context.Context, string, string) ([]diary.FoodEntry, error) {
	return append([]diary.FoodEntry(nil), s.entries...), s.err
}

func (s *stubAnalyzer) AnalyzeImage(context.Context, []byte, string, string, string) ([]diary.FoodEntry, error) {
	return append([]diary.FoodEntry(nil), s.entries...), s.err
}

func (s *stubAnalyzer) Feedback(context.Context, []diary.FoodEntry, string) (string, error) {
	return "", nil
}

type testEnv struct {
	server   *Server
	tracker  *app.Tracker
	analyzer *stubAnalyzer
	logs     *logging.TestLogger
	images   images.Store
}

func setupTestServer(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	analyzer := &stubAnalyzer{entries: []diary.FoodEntry{
		{FoodItem: "Apple", Quantity: "1 medium", Calories: 95, Carbs: 25, HealthRating: 9},
	}}
	imgs, err := images.NewFileStore(t.TempDir())
	require.NoError(t, err)

	tracker, err := app.NewTracker(
		app.NewKVRepository(kvstore.NewMemoryStore(), nil),
		app.WithAnalyzer(analyzer),
		app.WithImages(imgs),
		app.WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)
	t.Cleanup(tracker.Wait)

	logs := logging.NewTestLogger()
	opts = append([]Option{WithImages(imgs), WithGatherer(prometheus.NewRegistry()), WithVersion("test")}, opts...)
	server, err := NewServer(tracker, logs.Logger, nil, opts...)
	require.NoError(t, err)
	return &testEnv{server: server, tracker: tracker, analyzer: analyzer, logs: logs, images: imgs}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNewServer(t *testing.T) {
	tracker, err := app.NewTracker(app.NewKVRepository(kvstore.NewMemoryStore(), nil))
	require.NoError(t, err)

	t.Run("uses defaults when config is nil", func(t *testing.T) {
		server, err := NewServer(tracker, logging.Nop(), nil)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1", server.config.Host)
		assert.Equal(t, 8787, server.config.Port)
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		_, err := NewServer(tracker, nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})

	t.Run("returns error when tracker is nil", func(t *testing.T) {
		_, err := NewServer(nil, logging.Nop(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tracker cannot be nil")
	})
}

func TestHandleHealth(t *testing.T) {
	env := setupTestServer(t)

	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := env.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[HealthResponse](t, rec)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "test", resp.Version)
		assert.False(t, resp.Analyzing)
	}
}

func TestEntries(t *testing.T) {
	env := setupTestServer(t)
	entry := diary.FoodEntry{FoodItem: "Toast", Quantity: "2 slices", Calories: 160, Protein: 6, Carbs: 30, Fats: 2, HealthRating: 5}

	rec := env.do(t, http.MethodPost, "/api/v1/days/2024-03-15/entries", entry)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	day := decode[DayResponse](t, rec)
	require.Len(t, day.Entries, 1)
	assert.Equal(t, 160, day.Totals.Calories)

	entry.Calories = 200
	rec = env.do(t, http.MethodPut, "/api/v1/days/2024-03-15/entries/0", entry)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 200, decode[DayResponse](t, rec).Totals.Calories)

	rec = env.do(t, http.MethodGet, "/api/v1/days/2024-03-15", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Toast", decode[DayResponse](t, rec).Entries[0].FoodItem)

	rec = env.do(t, http.MethodDelete, "/api/v1/days/2024-03-15/entries/0", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/days/2024-03-15", nil)
	day = decode[DayResponse](t, rec)
	assert.NotNil(t, day.Entries)
	assert.Empty(t, day.Entries)
}

func TestEntries_Errors(t *testing.T) {
	env := setupTestServer(t)
	valid := diary.FoodEntry{FoodItem: "Toast", Calories: 160, HealthRating: 5}

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		errMsg string
	}{
		{"missing entry", http.MethodPut, "/api/v1/days/2024-03-15/entries/3", valid, http.StatusNotFound, "entry not found"},
		{"remove missing", http.MethodDelete, "/api/v1/days/2024-03-15/entries/0", nil, http.StatusNotFound, "entry not found"},
		{"bad index", http.MethodDelete, "/api/v1/days/2024-03-15/entries/x", nil, http.StatusBadRequest, "index must be"},
		{"bad date", http.MethodGet, "/api/v1/days/15-03-2024", nil, http.StatusBadRequest, "invalid date"},
		{"invalid entry", http.MethodPost, "/api/v1/days/2024-03-15/entries", diary.FoodEntry{FoodItem: "X", HealthRating: 11}, http.StatusBadRequest, "healthRating"},
		{"unknown route", http.MethodGet, "/api/v1/nope", nil, http.StatusNotFound, "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			resp := decode[ErrorResponse](t, rec)
			assert.Contains(t, resp.Error, tt.errMsg)
		})
	}
}

func TestLogMeal(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodPost, "/api/v1/meals", app.MealInput{Text: "an apple"})
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Equal(t, nutrition.MsgMissingCredential, decode[ErrorResponse](t, rec).Error)

	rec = env.do(t, http.MethodPut, "/api/v1/credential", CredentialRequest{APIKey: "k-123"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/meals", app.MealInput{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, nutrition.MsgNoInput, decode[ErrorResponse](t, rec).Error)

	rec = env.do(t, http.MethodPost, "/api/v1/meals", app.MealInput{Text: "an apple"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	day := decode[DayResponse](t, rec)
	assert.Equal(t, "2024-03-15", day.Date)
	require.Len(t, day.Entries, 1)
	assert.Equal(t, 95, day.Totals.Calories)

	rec = env.do(t, http.MethodPost, "/api/v1/meals", app.MealInput{Text: "another apple", Date: "2024-03-15"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	day = decode[DayResponse](t, rec)
	assert.Len(t, day.Entries, 2, "response covers the whole day")
	assert.Equal(t, 190, day.Totals.Calories)
}

func TestLogMeal_Image(t *testing.T) {
	env := setupTestServer(t)
	require.NoError(t, env.tracker.SetCredential(context.Background(), "k-123"))

	img := []byte{0xff, 0xd8, 0xff, 0xe0}
	rec := env.do(t, http.MethodPost, "/api/v1/meals", app.MealInput{Image: img, MIMEType: "image/jpeg", Date: "2024-03-14"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	day := decode[DayResponse](t, rec)
	assert.Equal(t, "2024-03-14", day.Date)
	ref := day.Entries[0].Image
	require.NotEmpty(t, ref)

	rec = env.do(t, http.MethodGet, "/api/v1/images/"+ref, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, img, rec.Body.Bytes())
	assert.Equal(t, "image/jpeg", rec.Header().Get(echo.HeaderContentType))

	rec = env.do(t, http.MethodGet, "/api/v1/images/00000000-0000-0000-0000-000000000000.jpg", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, images.ErrNotFound.Error(), decode[ErrorResponse](t, rec).Error)

	rec = env.do(t, http.MethodGet, "/api/v1/images/..%2Fsecret", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, images.ErrInvalidRef.Error(), decode[ErrorResponse](t, rec).Error)
}

func TestLogMeal_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"in flight", nutrition.ErrAnalysisInFlight, http.StatusConflict},
		{"format", &nutrition.Error{Kind: nutrition.ErrUpstreamFormat, Message: nutrition.MsgTextFormat}, http.StatusBadGateway},
		{"network", &nutrition.Error{Kind: nutrition.ErrNetwork, Message: "Could not reach the AI service: timeout"}, http.StatusGatewayTimeout},
		{"validation", nutrition.Validation("bad input"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestServer(t)
			require.NoError(t, env.tracker.SetCredential(context.Background(), "k-123"))
			env.analyzer.err = tt.err

			rec := env.do(t, http.MethodPost, "/api/v1/meals", app.MealInput{Text: "soup"})
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, nutrition.UserMessage(tt.err), decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestLogMeal_NoAnalyzer(t *testing.T) {
	tracker, err := app.NewTracker(
		app.NewKVRepository(kvstore.NewMemoryStore(), nil),
		app.WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)
	server, err := NewServer(tracker, logging.NewTestLogger().Logger, nil, WithGatherer(prometheus.NewRegistry()))
	require.NoError(t, err)
	env := &testEnv{server: server, tracker: tracker}

	rec := env.do(t, http.MethodPost, "/api/v1/meals", app.MealInput{Text: "soup"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, app.ErrNoAnalyzer.Error(), decode[ErrorResponse](t, rec).Error)
}

func TestLogMeal_NoItems(t *testing.T) {
	env := setupTestServer(t)
	require.NoError(t, env.tracker.SetCredential(context.Background(), "k-123"))
	env.analyzer.entries = nil

	rec := env.do(t, http.MethodPost, "/api/v1/meals", app.MealInput{Text: "air"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, nutrition.MsgNoItems, decode[ErrorResponse](t, rec).Error)
}

func TestCopyAndRecent(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	require.NoError(t, env.tracker.AddEntry(ctx, "2024-03-13", diary.FoodEntry{FoodItem: "Rice", Calories: 200, HealthRating: 6}))

	rec := env.do(t, http.MethodGet, "/api/v1/meals/recent", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	recent := decode[[]map[string]any](t, rec)
	require.Len(t, recent, 1)
	assert.Equal(t, "2024-03-13", recent[0]["date"])

	rec = env.do(t, http.MethodPost, "/api/v1/meals/copy", CopyRequest{Selections: []app.Selection{{Date: "2024-03-13", Index: 0}}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[CopyResponse](t, rec)
	assert.Equal(t, 1, resp.Copied)
	assert.Equal(t, "Successfully copied 1 meal(s) to today's log.", resp.Message)

	rec = env.do(t, http.MethodPost, "/api/v1/meals/copy", CopyRequest{Selections: []app.Selection{{Date: "2024-03-13", Index: 4}}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	entries, err := env.tracker.EntriesFor(ctx, "2024-03-15")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDashboardAndCalendar(t *testing.T) {
	env := setupTestServer(t)
	require.NoError(t, env.tracker.AddEntry(context.Background(), "2024-03-15", diary.FoodEntry{FoodItem: "Salad", Calories: 300, HealthRating: 8}))

	rec := env.do(t, http.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[app.Dashboard](t, rec)
	assert.Equal(t, "2024-03-15", dash.Date)
	assert.Equal(t, 300, dash.Totals.Calories)
	assert.Equal(t, "2024-03-11", dash.WeekStart)
	assert.Len(t, dash.Week, 7)

	rec = env.do(t, http.MethodGet, "/api/v1/dashboard?date=2024-03-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[app.Dashboard](t, rec).Totals.Calories)

	rec = env.do(t, http.MethodGet, "/api/v1/dashboard?date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/calendar?month=2024-02", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cal := decode[CalendarResponse](t, rec)
	assert.Equal(t, "2024-02", cal.Month)
	assert.Zero(t, len(cal.Days)%7)

	rec = env.do(t, http.MethodGet, "/api/v1/calendar?month=Feb", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSheetAndExport(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	require.NoError(t, env.tracker.AddEntry(ctx, "2024-03-01", diary.FoodEntry{FoodItem: "Apple", Quantity: "1 medium", Calories: 95, Carbs: 25, HealthRating: 9}))
	require.NoError(t, env.tracker.AddEntry(ctx, "2024-03-02", diary.FoodEntry{FoodItem: "Burger", Calories: 700, HealthRating: 3}))

	rec := env.do(t, http.MethodGet, "/api/v1/sheet?sort=calories&dir=asc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sheet := decode[SheetResponse](t, rec)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Apple", sheet.Rows[0].Entry.FoodItem)

	rec = env.do(t, http.MethodGet, "/api/v1/sheet?sort=color", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/sheet/export.csv?sort=date&dir=asc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="food_log_2024-03-15.csv"`, rec.Header().Get(echo.HeaderContentDisposition))
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "text/csv"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `2024-03-01,"Apple","1 medium",95,0,25,0,9`, lines[1])
}

func TestWeights(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodPost, "/api/v1/weights", WeightRequest{Weight: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "weight", decode[ErrorResponse](t, rec).Fields[0].Field)

	rec = env.do(t, http.MethodPost, "/api/v1/weights", WeightRequest{Date: "2024-03-14", Weight: 80.5})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/v1/weights", WeightRequest{Weight: 80.1})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/weights", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	points := decode[[]map[string]any](t, rec)
	require.Len(t, points, 2)
	assert.Equal(t, "2024-03-14", points[0]["date"])
	assert.Equal(t, 80.1, points[1]["weight"])
}

func TestSettings(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/v1/goals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, diary.DefaultGoals(), decode[diary.UserGoals](t, rec))

	rec = env.do(t, http.MethodPut, "/api/v1/goals", diary.UserGoals{Calories: 1800, Protein: 120, Carbs: 200, Fats: 60})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/goals", diary.UserGoals{Calories: 0, Protein: 120, Carbs: 200, Fats: 60})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	require.NotEmpty(t, resp.Fields)
	assert.Equal(t, "calories", resp.Fields[0].Field)

	rec = env.do(t, http.MethodGet, "/api/v1/credential", nil)
	assert.False(t, decode[CredentialResponse](t, rec).Configured)
	rec = env.do(t, http.MethodPut, "/api/v1/credential", CredentialRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPut, "/api/v1/credential", CredentialRequest{APIKey: "k-123"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "k-123")
	rec = env.do(t, http.MethodGet, "/api/v1/credential", nil)
	assert.True(t, decode[CredentialResponse](t, rec).Configured)
	rec = env.do(t, http.MethodDelete, "/api/v1/credential", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	ok, err := env.tracker.HasCredential(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	rec = env.do(t, http.MethodGet, "/api/v1/theme", nil)
	assert.Equal(t, "light", decode[ThemeBody](t, rec).Theme)
	rec = env.do(t, http.MethodPut, "/api/v1/theme", ThemeBody{Theme: "blue"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPut, "/api/v1/theme", ThemeBody{Theme: "dark"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/v1/theme", nil)
	assert.Equal(t, "dark", decode[ThemeBody](t, rec).Theme)
}

func TestMalformedBody(t *testing.T) {
	env := setupTestServer(t)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/goals", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decode[ErrorResponse](t, rec).Error)
}

func TestPrometheusEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "calorilog_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	env := setupTestServer(t, WithGatherer(reg))
	rec := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "calorilog_test_total 1")
}

func TestRequestLogging(t *testing.T) {
	env := setupTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/goals", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-42")
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(echo.HeaderXRequestID))

	env.logs.AssertLogged(t, zapcore.InfoLevel, "http request")
	env.logs.AssertField(t, "http request", "request_id", "req-42")
	env.logs.AssertField(t, "http request", "status", int64(http.StatusOK))
}

func TestRequestLogging_NotFoundStatus(t *testing.T) {
	env := setupTestServer(t)
	env.do(t, http.MethodDelete, "/api/v1/days/2024-03-15/entries/0", nil)
	env.logs.AssertField(t, "http request", "status", int64(http.StatusNotFound))
}

func TestTracingAndMetrics(t *testing.T) {
	tel := telemetry.NewTestTelemetry(t)
	metrics := NewHTTPMetrics(tel.Meter(httpInstrumentationName), zap.NewNop())
	env := setupTestServer(t, WithTracer(tel.Tracer(httpInstrumentationName)), WithHTTPMetrics(metrics))

	rec := env.do(t, http.MethodGet, "/api/v1/days/2024-03-15", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Contains(t, tel.SpanNames(), "GET /api/v1/days/:date")
	status, ok := tel.SpanAttribute("GET /api/v1/days/:date", "http.status_code")
	require.True(t, ok)
	assert.Equal(t, int64(http.StatusOK), status)

	for _, name := range []string{
		"calorilog.http.requests_total",
		"calorilog.http.request_duration_seconds",
		"calorilog.http.response_size_bytes",
	} {
		_, ok := tel.Metric(t, name)
		assert.True(t, ok, "metric %s not recorded", name)
	}
}
