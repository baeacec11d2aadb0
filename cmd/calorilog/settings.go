package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/calorilog/internal/aggregate"
	"github.com/fyrsmithlabs/calorilog/internal/dashboard"
	"github.com/fyrsmithlabs/calorilog/internal/diary"
)

var (
	// weight command flags
	weightDate string

	// goals command flags
	goalCalories int
	goalProtein  int
	goalCarbs    int
	goalFats     int
)

func init() {
	rootCmd.AddCommand(weightCmd)
	rootCmd.AddCommand(goalsCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(themeCmd)
	keyCmd.AddCommand(keySetCmd)
	keyCmd.AddCommand(keyClearCmd)
	keyCmd.AddCommand(keyStatusCmd)

	weightCmd.Flags().StringVar(&weightDate, "date", "", "Day of the measurement, YYYY-MM-DD (default today)")

	goalsCmd.Flags().IntVar(&goalCalories, "calories", 0, "Daily calorie goal (kcal)")
	goalsCmd.Flags().IntVar(&goalProtein, "protein", 0, "Daily protein goal (g)")
	goalsCmd.Flags().IntVar(&goalCarbs, "carbs", 0, "Daily carbs goal (g)")
	goalsCmd.Flags().IntVar(&goalFats, "fats", 0, "Daily fats goal (g)")
}

var weightCmd = &cobra.Command{
	Use:   "weight [value]",
	Short: "Log your weight, or show the trend",
	Long: `Log a body-weight measurement, or show every measurement when no value
is given. One measurement is kept per day; logging again replaces it.

Examples:
  calorilog weight 72.4
  calorilog weight --date 2024-03-10 73.1
  calorilog weight`,
	Args: cobra.MaximumNArgs(1),
	RunE: withSession(runWeight),
}

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Show or change your daily goals",
	Long: `Show your daily goals. Flags change only the goals they name.

Examples:
  calorilog goals
  calorilog goals --calories 2200 --protein 160`,
	Args: cobra.NoArgs,
	RunE: withSession(runGoals),
}

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the AI API key",
}

var keySetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "Store the AI API key (reads stdin when no key is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		key := ""
		if len(args) == 1 {
			key = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read key from stdin: %w", err)
			}
			key = line
		}
		if err := s.tracker.SetCredential(cmd.Context(), key); err != nil {
			return err
		}
		return printKeyStatus(cmd, true)
	}),
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored AI API key",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		if err := s.tracker.ClearCredential(cmd.Context()); err != nil {
			return err
		}
		return printKeyStatus(cmd, false)
	}),
}

var keyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether an AI API key is stored",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		ok, err := s.tracker.HasCredential(cmd.Context())
		if err != nil {
			return err
		}
		return printKeyStatus(cmd, ok)
	}),
}

var themeCmd = &cobra.Command{
	Use:       "theme [light|dark]",
	Short:     "Show or set the display theme",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(diary.ThemeLight), string(diary.ThemeDark)},
	RunE:      withSession(runTheme),
}

func runWeight(cmd *cobra.Command, args []string, s *session) error {
	if len(args) == 1 {
		value, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("%w: %q", diary.ErrInvalidWeight, args[0])
		}
		if err := s.tracker.LogWeight(cmd.Context(), weightDate, value); err != nil {
			return err
		}
	}

	points, err := s.tracker.WeightTrend(cmd.Context())
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), points)
	}

	w := cmd.OutOrStdout()
	if len(points) == 0 {
		fmt.Fprintln(w, "No weight logged yet")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tWEIGHT")
	for _, p := range points {
		fmt.Fprintf(tw, "%s\t%s\n", p.DateKey, dashboard.FormatWeight(p.Weight))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if aggregate.Chartable(points) {
		first, last := points[0], points[len(points)-1]
		fmt.Fprintf(w, "\nChange since %s: %s\n", first.DateKey, dashboard.FormatWeightChange(first.Weight, last.Weight))
	}
	return nil
}

func runGoals(cmd *cobra.Command, args []string, s *session) error {
	g, err := s.tracker.Goals(cmd.Context())
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	changed := false
	if flags.Changed("calories") {
		g.Calories, changed = goalCalories, true
	}
	if flags.Changed("protein") {
		g.Protein, changed = goalProtein, true
	}
	if flags.Changed("carbs") {
		g.Carbs, changed = goalCarbs, true
	}
	if flags.Changed("fats") {
		g.Fats, changed = goalFats, true
	}
	if changed {
		if err := s.tracker.SetGoals(cmd.Context(), g); err != nil {
			return err
		}
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), g)
	}
	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintf(tw, "Calories:\t%d kcal\n", g.Calories)
	fmt.Fprintf(tw, "Protein:\t%dg\n", g.Protein)
	fmt.Fprintf(tw, "Carbs:\t%dg\n", g.Carbs)
	fmt.Fprintf(tw, "Fats:\t%dg\n", g.Fats)
	return tw.Flush()
}

func printKeyStatus(cmd *cobra.Command, configured bool) error {
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]bool{"configured": configured})
	}
	if configured {
		fmt.Fprintln(cmd.OutOrStdout(), "API key is configured")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "No API key stored")
	}
	return nil
}

func runTheme(cmd *cobra.Command, args []string, s *session) error {
	if len(args) == 1 {
		theme, err := diary.ParseTheme(strings.ToLower(args[0]))
		if err != nil {
			return err
		}
		if err := s.tracker.SetTheme(cmd.Context(), theme); err != nil {
			return err
		}
	}
	theme, err := s.tracker.Theme(cmd.Context())
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]string{"theme": string(theme)})
	}
	fmt.Fprintln(cmd.OutOrStdout(), theme)
	return nil
}
