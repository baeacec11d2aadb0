package http

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const httpInstrumentationName = "github.com/fyrsmithlabs/calorilog/internal/http"

// Metric names.
const (
	metricRequests = "calorilog.http.requests_total"
	metricDuration = "calorilog.http.request_duration_seconds"
	metricSize     = "calorilog.http.response_size_bytes"
	metricInFlight = "calorilog.http.active_requests"
)

// HTTPMetrics records per-route request counts, latency, and body size.
// Instruments that fail to register are left nil and skipped.
type HTTPMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	size     metric.Int64Histogram
	inFlight metric.Int64UpDownCounter
}

// NewHTTPMetrics creates the request instruments on meter.
func NewHTTPMetrics(meter metric.Meter, logger *zap.Logger) *HTTPMetrics {
	var m HTTPMetrics
	var errs, err error

	m.requests, err = meter.Int64Counter(metricRequests,
		metric.WithDescription("Requests by method, route, and status class."),
		metric.WithUnit("{request}"))
	errs = errors.Join(errs, err)

	m.duration, err = meter.Float64Histogram(metricDuration,
		metric.WithDescription("Request latency by method, route, and status class."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.025, 0.1, 0.5, 1, 5, 15, 30))
	errs = errors.Join(errs, err)

	m.size, err = meter.Int64Histogram(metricSize,
		metric.WithDescription("Response body size."),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(256, 1024, 8192, 65536, 524288, 4194304))
	errs = errors.Join(errs, err)

	m.inFlight, err = meter.Int64UpDownCounter(metricInFlight,
		metric.WithDescription("Requests currently being served."),
		metric.WithUnit("{request}"))
	errs = errors.Join(errs, err)

	if errs != nil && logger != nil {
		logger.Warn("some HTTP instruments are unavailable", zap.Error(errs))
	}
	return &m
}

// Middleware records one observation per request. Websocket upgrades are
// counted but kept out of the latency histogram, since they last as long
// as the client stays connected.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if m.inFlight != nil {
				m.inFlight.Add(ctx, 1)
				defer m.inFlight.Add(ctx, -1)
			}

			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			attrs := metric.WithAttributes(
				attribute.String("method", c.Request().Method),
				attribute.String("route", route),
				attribute.String("status_class", statusClass(c.Response().Status)),
			)

			if m.requests != nil {
				m.requests.Add(ctx, 1, attrs)
			}
			if m.duration != nil && !c.IsWebSocket() {
				m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
			}
			if m.size != nil {
				m.size.Record(ctx, c.Response().Size, attrs)
			}
			return err
		}
	}
}

// statusClass folds a status code into "2xx", "4xx" and so on.
func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
