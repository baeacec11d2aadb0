package logging

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lognoop "go.opentelemetry.io/otel/log/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/fyrsmithlabs/calorilog/internal/config"
)

func jsonLogger(t *testing.T, mutate func(*Config)) (*Logger, *zaptest.Buffer) {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Format = "json"
	cfg.Level = TraceLevel
	cfg.Sampling.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}
	buf := &zaptest.Buffer{}
	l, err := newLogger(cfg, nil, buf)
	require.NoError(t, err)
	return l, buf
}

func decodeLines(t *testing.T, buf *zaptest.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range buf.Lines() {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestLogger_ContextFields(t *testing.T) {
	l, buf := jsonLogger(t, nil)

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	ctx = WithRequestID(ctx, "req-42")

	l.Info(ctx, "meal logged", zap.Int("items", 2))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "meal logged", lines[0]["msg"])
	assert.Equal(t, "calorilog", lines[0]["service"])
	assert.Equal(t, "req-42", lines[0]["request_id"])
	assert.Equal(t, span.SpanContext().TraceID().String(), lines[0]["trace_id"])
	assert.EqualValues(t, 2, lines[0]["items"])
	assert.Contains(t, lines[0]["caller"], "logger_test.go")
}

func TestLogger_TraceLevel(t *testing.T) {
	l, buf := jsonLogger(t, nil)
	l.Trace(context.Background(), "raw response")
	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "trace", lines[0]["level"])

	l, buf = jsonLogger(t, func(c *Config) { c.Level = zapcore.InfoLevel })
	l.Trace(context.Background(), "hidden")
	l.Debug(context.Background(), "hidden")
	assert.Empty(t, buf.Lines())
	assert.False(t, l.Enabled(TraceLevel))
}

func TestLogger_RedactsSecrets(t *testing.T) {
	l, buf := jsonLogger(t, nil)
	ctx := context.Background()

	l.Info(ctx, "calling model",
		zap.String("api_key", "AIzaSyA-very-secret-value-123456"),
		zap.String("header", "Bearer abc.def.ghi"),
		Secret("credential", config.Secret("sk-abcdefghijklmnopqrstuvwxyz")),
		zap.String("food", "Apple"),
	)
	l.With(zap.String("token", "leaky")).Info(ctx, "child")

	out := buf.String()
	assert.NotContains(t, out, "very-secret")
	assert.NotContains(t, out, "abc.def.ghi")
	assert.NotContains(t, out, "abcdefghijklmnop")
	assert.NotContains(t, out, "leaky")
	assert.Contains(t, out, "Apple")

	lines := decodeLines(t, buf)
	assert.Equal(t, "[REDACTED]", lines[0]["api_key"])
	assert.True(t, strings.HasPrefix(lines[0]["credential"].(string), "[REDACTED"))
}

func TestLogger_UnderlyingSharesCore(t *testing.T) {
	l, buf := jsonLogger(t, nil)
	l.Underlying().Warn("plain zap", zap.String("key", "foodLogs"))
	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "warn", lines[0]["level"])
	assert.Contains(t, lines[0]["caller"], "logger_test.go")
}

func TestSampling_NeverDropsErrors(t *testing.T) {
	l, buf := jsonLogger(t, func(c *Config) {
		c.Sampling = SamplingConfig{Enabled: true, Tick: 1e9, Initial: 1, Thereafter: 0}
	})
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		l.Info(ctx, "same message")
		l.Error(ctx, "same failure")
	}
	var infos, errs int
	for _, line := range decodeLines(t, buf) {
		switch line["level"] {
		case "info":
			infos++
		case "error":
			errs++
		}
	}
	assert.Equal(t, 1, infos)
	assert.Equal(t, 5, errs)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, NewDefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad format", func(c *Config) { c.Format = "xml" }},
		{"no outputs", func(c *Config) { c.Stdout = false }},
		{"bad tick", func(c *Config) { c.Sampling.Tick = 0 }},
		{"bad pattern", func(c *Config) { c.Redaction.Patterns = []string{"("} }},
		{"empty field", func(c *Config) { c.Fields = map[string]string{"env": ""} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestFromSettings(t *testing.T) {
	cfg := FromSettings(config.LoggingConfig{Level: "trace", Format: "json", OTEL: true})
	assert.Equal(t, TraceLevel, cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.True(t, cfg.OTEL)

	cfg = FromSettings(config.LoggingConfig{Level: "loud"})
	assert.Equal(t, zapcore.InfoLevel, cfg.Level)
	assert.Equal(t, "console", cfg.Format)
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ContextFields(ctx))
	assert.NotNil(t, FromContext(ctx))

	tl := NewTestLogger()
	ctx = WithLogger(ctx, tl.Logger)
	FromContext(ctx).Warn(ctx, "stored value is corrupt", zap.String("key", "userGoals"))
	tl.AssertLogged(t, zapcore.WarnLevel, "corrupt")
	tl.AssertField(t, "stored value is corrupt", "key", "userGoals")

	long := strings.Repeat("x", 500)
	assert.Len(t, RequestIDFromContext(WithRequestID(ctx, long)), maxRequestIDLen)
}

func TestLogger_OTELTee(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "json"
	cfg.OTEL = true
	buf := &zaptest.Buffer{}
	l, err := newLogger(cfg, lognoop.NewLoggerProvider(), buf)
	require.NoError(t, err)
	l.Info(context.Background(), "teed")
	assert.Len(t, buf.Lines(), 1, "stdout still receives entries")

	cfg.Stdout = false
	l, err = newLogger(cfg, lognoop.NewLoggerProvider(), buf)
	require.NoError(t, err)
	l.Info(context.Background(), "otel only")

	_, err = newLogger(cfg, nil, buf)
	assert.Error(t, err, "otel-only output needs a provider")
}
