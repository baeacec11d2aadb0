// Package main implements the calorilog CLI. Every command works directly
// on the local store; calorilogd does not need to be running.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/calorilog/internal/app"
	"github.com/fyrsmithlabs/calorilog/internal/config"
	"github.com/fyrsmithlabs/calorilog/internal/logging"
	"github.com/fyrsmithlabs/calorilog/internal/nutrition"
	"github.com/fyrsmithlabs/calorilog/internal/services"
)

var (
	// configPath overrides ~/.config/calorilog/config.yaml
	configPath string
	// storePath overrides store.path from the configuration
	storePath string
	// outputJSON switches every command to JSON output
	outputJSON bool
	verbose    bool

	// version information (set via ldflags during build)
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"

	// analyzer and clock replace the configured AI provider and time.Now.
	// Both are nil in normal use.
	analyzer nutrition.Analyzer
	clock    func() time.Time
)

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "calorilog",
	Short: "Track meals, calories, and weight from the terminal",
	Long: `calorilog logs meals described in plain text or photographed, using a
generative AI model to extract calories and macros, and keeps everything in
a local store under ~/.config/calorilog.

Examples:
  # Log a meal from a description
  calorilog log "two eggs on toast and a black coffee"

  # Log a meal from a photo
  calorilog log --image lunch.jpg

  # Show today's summary
  calorilog today

  # Watch the live dashboard
  calorilog dashboard`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/calorilog/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "store location, overrides store.path")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log diagnostics to stderr")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "calorilog by Fyrsmith Labs\n")
		fmt.Fprintf(w, "Version:    %s\n", version)
		fmt.Fprintf(w, "Commit:     %s\n", gitCommit)
		fmt.Fprintf(w, "Build Date: %s\n", buildDate)
	},
}

// session is one command's view of the store.
type session struct {
	reg      *services.Registry
	tracker  *app.Tracker
	feedback *feedbackSink
	logger   *logging.Logger
}

// Close drops any feedback nobody is waiting for, then closes the store.
func (s *session) Close() error {
	s.tracker.CancelFeedback()
	return s.reg.Close()
}

// openSession loads configuration and opens the registry. Diagnostics go
// to stderr so they never mix with command output.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if storePath != "" {
		cfg.Store.Path = storePath
	}

	logger, err := initLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	sink := newFeedbackSink()
	reg, err := services.Open(cmd.Context(), cfg, services.Options{
		Logger:          logger,
		Notifier:        sink,
		Analyzer:        analyzer,
		Clock:           clock,
		FeedbackTimeout: feedbackWait,
	})
	if err != nil {
		return nil, err
	}
	return &session{reg: reg, tracker: reg.Tracker(), feedback: sink, logger: logger}, nil
}

func initLogger(cfg *config.Config, out io.Writer) (*logging.Logger, error) {
	logCfg := logging.FromSettings(cfg.Logging)
	logCfg.Format = "console"
	logCfg.Caller = false
	logCfg.Level = zapcore.WarnLevel
	if verbose {
		logCfg.Level = zapcore.DebugLevel
	}
	return logging.NewLoggerWithWriter(logCfg, nil, zapcore.AddSync(out))
}

// withSession opens a session around fn.
func withSession(fn func(cmd *cobra.Command, args []string, s *session) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if err := s.Close(); err != nil {
				s.logger.Warn(context.Background(), "failed to close store", zap.Error(err))
			}
		}()
		return fn(cmd, args, s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
