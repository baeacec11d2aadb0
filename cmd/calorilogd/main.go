// Calorilogd serves the calorilog view API on the loopback interface.
//
// The process holds no data of its own. Every request reads and writes the
// same local store the calorilog CLI uses, and feedback messages are pushed
// to connected views over /api/v1/ws.
//
// Configuration is loaded from ~/.config/calorilog/config.yaml and
// CALORILOG_* environment variables. See internal/config for details.
//
// Usage:
//
//	# Start on 127.0.0.1:8787
//	calorilogd
//
//	# Configure via environment
//	CALORILOG_SERVER_PORT=9090 CALORILOG_STORE_BACKEND=sqlite calorilogd
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/calorilog/internal/config"
	httpserver "github.com/fyrsmithlabs/calorilog/internal/http"
	"github.com/fyrsmithlabs/calorilog/internal/logging"
	"github.com/fyrsmithlabs/calorilog/internal/realtime"
	"github.com/fyrsmithlabs/calorilog/internal/services"
	"github.com/fyrsmithlabs/calorilog/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

const instrumentationName = "github.com/fyrsmithlabs/calorilog/cmd/calorilogd"

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default ~/.config/calorilog/config.yaml)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  calorilogd           Start the view server\n")
			fmt.Fprintf(os.Stderr, "  calorilogd version   Show version information\n")
			os.Exit(1)
		}
	}

	// A missing .env is fine.
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("calorilogd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the view server and blocks until ctx is cancelled or the
// listener fails.
//
// Startup order:
//  1. configuration
//  2. telemetry, then the logger bridged to it
//  3. the realtime hub and the service registry
//  4. the HTTP server
//
// Shutdown runs in reverse under cfg.Server.ShutdownTimeout.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry, version))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	logger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info(ctx, "starting calorilogd",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr()),
		zap.String("store", cfg.Store.Backend),
		zap.Bool("telemetry", tel.Enabled()),
	)
	if h := tel.Health(); h.Degraded {
		logger.Warn(ctx, "telemetry degraded", zap.String("reason", h.Reason))
	}

	hub := realtime.NewHub(logger.Underlying().Named("realtime"))
	tracer := tel.Tracer(instrumentationName)

	reg, err := services.Open(ctx, cfg, services.Options{
		Logger:   logger,
		Notifier: hub,
		Tracer:   tracer,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if err := reg.Close(); err != nil {
			logger.Warn(context.Background(), "failed to close store", zap.Error(err))
		}
	}()

	srv, err := httpserver.NewServer(reg.Tracker(), logger,
		&httpserver.Config{Host: cfg.Server.Host, Port: cfg.Server.Port},
		httpserver.WithImages(reg.Images()),
		httpserver.WithRealtime(hub),
		httpserver.WithTracer(tracer),
		httpserver.WithHTTPMetrics(httpserver.NewHTTPMetrics(tel.Meter(instrumentationName), logger.Underlying())),
		httpserver.WithVersion(version),
	)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// initLogger builds the logger from the logging section. With
// logging.otel set, records are also bridged to the global OTEL log
// provider.
func initLogger(cfg *config.Config) (*logging.Logger, error) {
	logCfg := logging.FromSettings(cfg.Logging)
	logCfg.Fields = map[string]string{"service": cfg.Telemetry.ServiceName}
	return logging.NewLogger(logCfg, global.GetLoggerProvider())
}
