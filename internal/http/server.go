// Package http serves the calorie tracker's JSON API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/calorilog/internal/app"
	"github.com/fyrsmithlabs/calorilog/internal/images"
	"github.com/fyrsmithlabs/calorilog/internal/logging"
)

// Server exposes a Tracker over HTTP.
type Server struct {
	echo    *echo.Echo
	tracker *app.Tracker
	images  images.Store
	ws      http.Handler
	logger  *logging.Logger
	config  *Config
	version string
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Option configures a Server.
type Option func(*options)

type options struct {
	images   images.Store
	ws       http.Handler
	gatherer prometheus.Gatherer
	tracer   trace.Tracer
	metrics  *HTTPMetrics
	version  string
}

// WithImages serves meal images from s.
func WithImages(s images.Store) Option {
	return func(o *options) { o.images = s }
}

// WithRealtime mounts h (normally a realtime.Hub) at /api/v1/ws.
func WithRealtime(h http.Handler) Option {
	return func(o *options) { o.ws = h }
}

// WithGatherer serves g at /metrics instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(o *options) { o.gatherer = g }
}

// WithTracer sets the tracer for request spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithHTTPMetrics replaces the default otel request instruments.
func WithHTTPMetrics(m *HTTPMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithVersion is reported by /health.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// NewServer creates a new HTTP server.
func NewServer(tracker *app.Tracker, logger *logging.Logger, cfg *Config, opts ...Option) (*Server, error) {
	if tracker == nil {
		return nil, fmt.Errorf("tracker cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "127.0.0.1",
			Port: 8787,
		}
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.gatherer == nil {
		o.gatherer = prometheus.DefaultGatherer
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(httpInstrumentationName)
	}
	if o.metrics == nil {
		o.metrics = NewHTTPMetrics(otel.Meter(httpInstrumentationName), logger.Underlying())
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newValidator()

	s := &Server{
		echo:    e,
		tracker: tracker,
		images:  o.images,
		ws:      o.ws,
		logger:  logger,
		config:  cfg,
		version: o.version,
	}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestContext(logger))
	e.Use(tracing(o.tracer))
	e.Use(o.metrics.Middleware())
	e.Use(accessLog(logger))

	s.registerRoutes(o.gatherer)
	return s, nil
}

func (s *Server) registerRoutes(g prometheus.Gatherer) {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))

	v1 := s.echo.Group("/api/v1")
	v1.GET("/health", s.handleHealth)
	v1.GET("/dashboard", s.handleDashboard)
	v1.GET("/calendar", s.handleCalendar)

	v1.GET("/days/:date", s.handleDay)
	v1.POST("/days/:date/entries", s.handleAddEntry)
	v1.PUT("/days/:date/entries/:index", s.handleUpdateEntry)
	v1.DELETE("/days/:date/entries/:index", s.handleRemoveEntry)

	v1.POST("/meals", s.handleLogMeal)
	v1.GET("/meals/recent", s.handleRecent)
	v1.POST("/meals/copy", s.handleCopy)

	v1.GET("/sheet", s.handleSheet)
	v1.GET("/sheet/export.csv", s.handleExport)

	v1.GET("/weights", s.handleWeights)
	v1.POST("/weights", s.handleLogWeight)

	v1.GET("/goals", s.handleGoals)
	v1.PUT("/goals", s.handleSetGoals)

	v1.GET("/credential", s.handleCredential)
	v1.PUT("/credential", s.handleSetCredential)
	v1.DELETE("/credential", s.handleClearCredential)

	v1.GET("/theme", s.handleTheme)
	v1.PUT("/theme", s.handleSetTheme)

	v1.GET("/images/*", s.handleImage)
	if s.ws != nil {
		v1.GET("/ws", echo.WrapHandler(s.ws))
	}
}

// Handler returns the server's router.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}

// requestContext copies the request ID into the request context so
// logging.ContextFields picks it up downstream.
func requestContext(logger *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logging.WithRequestID(c.Request().Context(), id)
			ctx = logging.WithLogger(ctx, logger)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func tracing(tracer trace.Tracer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx, span := tracer.Start(req.Context(), req.Method+" "+normalizePath(c.Path()),
				trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			status := c.Response().Status
			span.SetAttributes(attribute.Int("http.status_code", status))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
			return err
		}
	}
}

func accessLog(logger *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Resolve the status before logging it.
				c.Error(err)
			}

			logger.Info(c.Request().Context(), "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return nil
		}
	}
}
