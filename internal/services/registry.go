package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/calorilog/internal/app"
	"github.com/fyrsmithlabs/calorilog/internal/config"
	"github.com/fyrsmithlabs/calorilog/internal/images"
	"github.com/fyrsmithlabs/calorilog/internal/kvstore"
	"github.com/fyrsmithlabs/calorilog/internal/logging"
	"github.com/fyrsmithlabs/calorilog/internal/nutrition"
)

// ErrNotWatchable is returned by Watch for backends other than file.
var ErrNotWatchable = errors.New("store backend does not support watching")

// Options configures Open.
type Options struct {
	Logger   *logging.Logger
	Notifier app.Notifier
	Tracer   trace.Tracer
	// Clock overrides time.Now for the tracker.
	Clock func() time.Time
	// Analyzer replaces the configured AI provider.
	Analyzer nutrition.Analyzer
	// FeedbackTimeout bounds the background feedback call. Zero keeps
	// app.DefaultFeedbackTimeout.
	FeedbackTimeout time.Duration
}

// Registry owns the store, the image store, the analyzer, and the tracker
// built over them.
type Registry struct {
	store    kvstore.Store
	images   images.Store
	analyzer nutrition.Analyzer
	tracker  *app.Tracker
	logger   *logging.Logger
}

// Open builds every service named by cfg. If cfg.AI.APIKey is set and no
// credential is stored yet, the key is stored.
func Open(ctx context.Context, cfg *config.Config, opts Options) (*Registry, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	z := logger.Underlying()

	store, err := kvstore.Open(ctx, cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	imgs, err := images.Open(ctx, images.Options{
		Backend: cfg.Images.Backend,
		Dir:     cfg.Images.Dir,
		S3: images.S3Config{
			Bucket:        cfg.Images.Bucket,
			Region:        cfg.Images.Region,
			Prefix:        cfg.Images.Prefix,
			PublicBaseURL: cfg.Images.PublicBaseURL,
		},
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to open image store: %w", err)
	}

	analyzer := opts.Analyzer
	if analyzer == nil {
		analyzer, err = newAnalyzer(cfg.AI, z, opts.Tracer)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	trackerOpts := []app.Option{
		app.WithAnalyzer(analyzer),
		app.WithImages(imgs),
		app.WithLogger(z.Named("tracker")),
	}
	if opts.Notifier != nil {
		trackerOpts = append(trackerOpts, app.WithNotifier(opts.Notifier))
	}
	if opts.FeedbackTimeout > 0 {
		trackerOpts = append(trackerOpts, app.WithFeedbackTimeout(opts.FeedbackTimeout))
	}
	if opts.Clock != nil {
		trackerOpts = append(trackerOpts, app.WithClock(opts.Clock))
	}
	tracker, err := app.NewTracker(app.NewKVRepository(store, z.Named("store")), trackerOpts...)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create tracker: %w", err)
	}

	reg := &Registry{
		store:    store,
		images:   imgs,
		analyzer: analyzer,
		tracker:  tracker,
		logger:   logger,
	}
	if err := reg.seedCredential(ctx, cfg.AI.APIKey); err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Debug(ctx, "services initialized",
		zap.String("store_backend", cfg.Store.Backend),
		zap.String("images_backend", cfg.Images.Backend),
		zap.String("ai_provider", cfg.AI.Provider),
	)
	return reg, nil
}

func newAnalyzer(cfg config.AIConfig, logger *zap.Logger, tracer trace.Tracer) (nutrition.Analyzer, error) {
	provider, err := nutrition.NewProvider(nutrition.ProviderConfig{
		Name:    cfg.Provider,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout.Duration(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}
	svcOpts := []nutrition.Option{
		nutrition.WithLogger(logger.Named("nutrition")),
		nutrition.WithRateLimit(cfg.RateLimit, cfg.Burst),
	}
	if tracer != nil {
		svcOpts = append(svcOpts, nutrition.WithTracer(tracer))
	}
	svc, err := nutrition.NewService(provider, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create nutrition service: %w", err)
	}
	return svc, nil
}

func (r *Registry) seedCredential(ctx context.Context, key config.Secret) error {
	if !key.IsSet() {
		return nil
	}
	ok, err := r.tracker.HasCredential(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stored credential: %w", err)
	}
	if ok {
		return nil
	}
	if err := r.tracker.SetCredential(ctx, key.Value()); err != nil {
		return fmt.Errorf("failed to store configured credential: %w", err)
	}
	r.logger.Info(ctx, "stored AI credential from configuration")
	return nil
}

// Watch returns a watcher over the store directory. Only the file
// backend can be watched.
func (r *Registry) Watch() (*kvstore.Watcher, error) {
	fs, ok := r.store.(*kvstore.FileStore)
	if !ok {
		return nil, ErrNotWatchable
	}
	return kvstore.NewWatcher(fs, r.logger.Underlying().Named("watch"))
}

func (r *Registry) Tracker() *app.Tracker        { return r.tracker }
func (r *Registry) Store() kvstore.Store         { return r.store }
func (r *Registry) Images() images.Store         { return r.images }
func (r *Registry) Analyzer() nutrition.Analyzer { return r.analyzer }

// Close waits for background feedback calls, then closes the store.
func (r *Registry) Close() error {
	r.tracker.Wait()
	return r.store.Close()
}
