package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestTelemetry is an enabled Telemetry backed by in-memory exporters.
type TestTelemetry struct {
	*Telemetry

	Spans  *tracetest.InMemoryExporter
	Reader *sdkmetric.ManualReader
}

// NewTestTelemetry builds a TestTelemetry and shuts it down when tb ends.
func NewTestTelemetry(tb testing.TB) *TestTelemetry {
	tb.Helper()
	cfg := NewDefaultConfig()
	cfg.Enabled = true

	spans := tracetest.NewInMemoryExporter()
	reader := sdkmetric.NewManualReader()
	tel, err := New(context.Background(), cfg, WithSpanExporter(spans), WithMetricReader(reader))
	if err != nil {
		tb.Fatalf("telemetry: %v", err)
	}
	tb.Cleanup(func() { _ = tel.Shutdown(context.Background()) })
	return &TestTelemetry{Telemetry: tel, Spans: spans, Reader: reader}
}

// SpanNames lists ended span names in export order.
func (t *TestTelemetry) SpanNames() []string {
	var names []string
	for _, s := range t.Spans.GetSpans() {
		names = append(names, s.Name)
	}
	return names
}

// SpanAttribute returns the value of key on the first span called name.
func (t *TestTelemetry) SpanAttribute(name, key string) (any, bool) {
	for _, s := range t.Spans.GetSpans() {
		if s.Name != name {
			continue
		}
		for _, kv := range s.Attributes {
			if string(kv.Key) == key {
				return attrValue(kv.Value), true
			}
		}
	}
	return nil, false
}

// Metric collects and returns the named metric.
func (t *TestTelemetry) Metric(tb testing.TB, name string) (metricdata.Metrics, bool) {
	tb.Helper()
	var rm metricdata.ResourceMetrics
	if err := t.Reader.Collect(context.Background(), &rm); err != nil {
		tb.Fatalf("collect metrics: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func attrValue(v attribute.Value) any {
	switch v.Type() {
	case attribute.STRING:
		return v.AsString()
	case attribute.INT64:
		return v.AsInt64()
	case attribute.FLOAT64:
		return v.AsFloat64()
	case attribute.BOOL:
		return v.AsBool()
	default:
		return v.AsInterface()
	}
}
