// Package nutrition turns meal descriptions and photos into food entries
// by asking a generative model for schema-shaped JSON.
//
// The service is a thin boundary: it builds the request, makes exactly
// one call, and normalizes the answer. It never retries. Every failure
// is an *Error whose message can be shown to the user as-is.
package nutrition

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/calorilog/internal/diary"
)

const instrumentationName = "github.com/fyrsmithlabs/calorilog/internal/nutrition"

// Rate limiter defaults.
const (
	defaultRateLimit = 1.0
	defaultBurst     = 3
)

// Analyzer extracts food entries from user input.
type Analyzer interface {
	AnalyzeText(ctx context.Context, text, credential string) ([]diary.FoodEntry, error)
	AnalyzeImage(ctx context.Context, image []byte, mimeType, credential, prompt string) ([]diary.FoodEntry, error)
	Feedback(ctx context.Context, entries []diary.FoodEntry, credential string) (string, error)
}

// Service implements Analyzer on top of a Provider.
type Service struct {
	provider Provider
	limiter  *rate.Limiter
	logger   *zap.Logger
	tracer   trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRateLimit paces outbound calls. A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Service) {
		if rps <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// NewService wraps provider.
func NewService(provider Provider, opts ...Option) (*Service, error) {
	if provider == nil {
		return nil, errors.New("provider is required")
	}
	s := &Service{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AnalyzeText extracts entries from a free-text meal description.
func (s *Service) AnalyzeText(ctx context.Context, text, credential string) ([]diary.FoodEntry, error) {
	if err := requireCredential(credential); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, Validation(MsgNoInput)
	}
	return s.analyze(ctx, "text", credential, MsgTextFormat, Request{
		System: SystemInstruction,
		Prompt: text,
		Schema: FoodEntrySchema(),
	})
}

// AnalyzeImage extracts entries from a meal photo. An empty prompt
// becomes DefaultImagePrompt. Entries come back without an image
// reference; stamping one is the caller's job.
func (s *Service) AnalyzeImage(ctx context.Context, image []byte, mimeType, credential, prompt string) ([]diary.FoodEntry, error) {
	if err := requireCredential(credential); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, Validation(MsgNoInput)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, Validation(fmt.Sprintf("Unsupported image type %q.", mimeType))
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultImagePrompt
	}
	return s.analyze(ctx, "image", credential, MsgImageFormat, Request{
		System: SystemInstruction,
		Prompt: prompt,
		Image:  &Image{Data: image, MIMEType: mimeType},
		Schema: FoodEntrySchema(),
	})
}

// Feedback asks for one sentence of advice about entries.
func (s *Service) Feedback(ctx context.Context, entries []diary.FoodEntry, credential string) (feedback string, err error) {
	if err := requireCredential(credential); err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", Validation("Nothing to give feedback on.")
	}
	defer func() { s.record("feedback", err) }()

	text, err := s.call(ctx, "feedback", credential, Request{Prompt: FeedbackPrompt(entries)})
	if err != nil {
		return "", s.classify(err, "Could not get feedback. The model returned an invalid format.")
	}
	return strings.TrimSpace(text), nil
}

func (s *Service) analyze(ctx context.Context, op, credential, formatMsg string, req Request) (entries []diary.FoodEntry, err error) {
	defer func() { s.record(op, err) }()

	text, err := s.call(ctx, op, credential, req)
	if err != nil {
		return nil, s.classify(err, formatMsg)
	}

	entries, err = ParseEntries(text)
	if err != nil {
		s.logger.Warn("model returned an invalid format",
			zap.String("operation", op),
			zap.String("response", truncate(text, 512)),
			zap.Error(err))
		return nil, formatError(formatMsg, err)
	}

	ItemsRecognized.WithLabelValues(op).Add(float64(len(entries)))
	return entries, nil
}

// call makes the single outbound request for op.
// requireCredential runs before any input check, so a missing key is
// reported first.
func requireCredential(credential string) error {
	if strings.TrimSpace(credential) == "" {
		return configurationError()
	}
	return nil
}

func (s *Service) call(ctx context.Context, op, credential string, req Request) (string, error) {
	ctx, span := s.tracer.Start(ctx, "nutrition."+op,
		trace.WithAttributes(
			attribute.String("ai.provider", s.provider.Name()),
			attribute.String("ai.model", s.provider.Model()),
			attribute.Bool("ai.image", req.Image != nil),
		))
	defer span.End()

	if err := s.limiter.Wait(ctx); err != nil {
		span.SetStatus(codes.Error, "rate limiter")
		return "", networkError(fmt.Errorf("rate limiter error: %w", err))
	}

	start := time.Now()
	text, err := s.provider.Generate(ctx, credential, req)
	RequestDuration.WithLabelValues(op, s.provider.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate failed")
		return "", err
	}

	span.SetAttributes(attribute.Int("ai.response_bytes", len(text)))
	return text, nil
}

func (s *Service) record(op string, err error) {
	RequestsTotal.WithLabelValues(op, s.provider.Name(), resultLabel(err)).Inc()
}

// classify maps a provider error into the taxonomy. Errors that already
// carry a kind pass through; context errors are network errors; anything
// else means the model's answer was unusable.
func (s *Service) classify(err error, formatMsg string) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return networkError(err)
	}
	return formatError(formatMsg, err)
}

func isKind(err, kind error) bool {
	return errors.Is(err, kind)
}

var _ Analyzer = (*Service)(nil)
