package main

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/calorilog/internal/dashboard"
	"github.com/fyrsmithlabs/calorilog/internal/services"
)

var dashboardInterval time.Duration

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().DurationVar(&dashboardInterval, "interval", time.Minute, "Refresh interval, 0 to refresh only on changes")
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the live terminal dashboard",
	Long: `Open a live view of today's calories, macros, health score, the
current week, and the weight trend.

With the file store the view refreshes as soon as any calorilog process
writes, including calorilogd. Other backends refresh on the interval.

Keys: q quit, r refresh, left/right change week.`,
	Args: cobra.NoArgs,
	RunE: withSession(runDashboard),
}

func runDashboard(cmd *cobra.Command, args []string, s *session) error {
	ctx := cmd.Context()
	var opts []dashboard.Option

	w, err := s.reg.Watch()
	switch {
	case err == nil:
		w.Start(ctx)
		defer w.Stop()
		opts = append(opts, dashboard.WithChanges(w.Changes()))
	case errors.Is(err, services.ErrNotWatchable):
		s.logger.Debug(ctx, "store is not watchable, refreshing on interval only")
	default:
		s.logger.Warn(ctx, "failed to watch store", zap.Error(err))
	}

	m := dashboard.NewModel(s.tracker, dashboardInterval, opts...)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
