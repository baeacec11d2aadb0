package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/calorilog/internal/aggregate"
	"github.com/fyrsmithlabs/calorilog/internal/dashboard"
	"github.com/fyrsmithlabs/calorilog/internal/diary"
)

const monthLayout = "2006-01"

var (
	// today and week command flags
	todayDate string
	weekDate  string

	// month command flags
	monthFlag string

	// edit command flags
	editItem     string
	editQuantity string
	editCalories int
	editProtein  int
	editCarbs    int
	editFats     int
	editHealth   int
)

func init() {
	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(weekCmd)
	rootCmd.AddCommand(monthCmd)
	rootCmd.AddCommand(dayCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(rmCmd)

	todayCmd.Flags().StringVar(&todayDate, "date", "", "Summarize another day, YYYY-MM-DD")
	weekCmd.Flags().StringVar(&weekDate, "date", "", "Any day of the week to show, YYYY-MM-DD")
	monthCmd.Flags().StringVar(&monthFlag, "month", "", "Month to show, YYYY-MM (default this month)")

	editCmd.Flags().StringVar(&editItem, "item", "", "Food item")
	editCmd.Flags().StringVar(&editQuantity, "quantity", "", "Quantity")
	editCmd.Flags().IntVar(&editCalories, "calories", 0, "Calories (kcal)")
	editCmd.Flags().IntVar(&editProtein, "protein", 0, "Protein (g)")
	editCmd.Flags().IntVar(&editCarbs, "carbs", 0, "Carbs (g)")
	editCmd.Flags().IntVar(&editFats, "fats", 0, "Fats (g)")
	editCmd.Flags().IntVar(&editHealth, "health", 0, "Health rating, 1-10")
}

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Summarize today's intake against your goals",
	Args:  cobra.NoArgs,
	RunE:  withSession(runToday),
}

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show calories for each day of the week (Monday first)",
	Args:  cobra.NoArgs,
	RunE:  withSession(runWeek),
}

var monthCmd = &cobra.Command{
	Use:   "month",
	Short: "Show daily totals and health for a month",
	Args:  cobra.NoArgs,
	RunE:  withSession(runMonth),
}

var dayCmd = &cobra.Command{
	Use:   "day <date>",
	Short: "List the entries logged on a day",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		return showDay(cmd, s, args[0])
	}),
}

var editCmd = &cobra.Command{
	Use:   "edit <date> <index>",
	Short: "Change fields of a logged entry",
	Long: `Change fields of a logged entry. Only the flags given are changed.

Examples:
  # Fix the calories of the first entry on a day
  calorilog edit 2024-03-14 0 --calories 320

  # Rename an entry and rate it
  calorilog edit 2024-03-14 2 --item "Flat white" --health 6`,
	Args: cobra.ExactArgs(2),
	RunE: withSession(runEdit),
}

var rmCmd = &cobra.Command{
	Use:   "rm <date> <index>",
	Short: "Remove a logged entry",
	Args:  cobra.ExactArgs(2),
	RunE:  withSession(runRemove),
}

// dayArg parses an optional YYYY-MM-DD flag into a time, defaulting to
// now.
func dayArg(s *session, value string) (time.Time, error) {
	if value == "" {
		return s.tracker.Now(), nil
	}
	return diary.ParseDateKey(value)
}

func runToday(cmd *cobra.Command, args []string, s *session) error {
	now, err := dayArg(s, todayDate)
	if err != nil {
		return err
	}
	d, err := s.tracker.Dashboard(cmd.Context(), now)
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), d)
	}

	score := "-"
	if d.Totals.AvgHealthRating.HasData {
		score = fmt.Sprintf("%.1f/10", d.Totals.AvgHealthRating.Value)
	}
	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintf(tw, "Date:\t%s\n", d.Date)
	fmt.Fprintf(tw, "Calories:\t%s (%s)\n", dashboard.FormatCalories(d.Totals.Calories, d.Goals.Calories), dashboard.FormatPercentage(d.CalorieProgress))
	fmt.Fprintf(tw, "Protein:\t%s\n", dashboard.FormatMacro(d.Totals.Protein, d.Goals.Protein))
	fmt.Fprintf(tw, "Carbs:\t%s\n", dashboard.FormatMacro(d.Totals.Carbs, d.Goals.Carbs))
	fmt.Fprintf(tw, "Fats:\t%s\n", dashboard.FormatMacro(d.Totals.Fats, d.Goals.Fats))
	fmt.Fprintf(tw, "Health:\t%s\n", score)
	fmt.Fprintf(tw, "\t%s\n", d.HealthMessage)
	return tw.Flush()
}

func runWeek(cmd *cobra.Command, args []string, s *session) error {
	now, err := dayArg(s, weekDate)
	if err != nil {
		return err
	}
	d, err := s.tracker.Dashboard(cmd.Context(), now)
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), struct {
			WeekStart string                  `json:"weekStart"`
			Days      []aggregate.DayCalories `json:"days"`
		}{d.WeekStart, d.Week})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Week of %s\n\n", d.WeekStart)
	tw := newTable(w)
	fmt.Fprintln(tw, "DAY\tDATE\tKCAL")
	total := 0
	for _, day := range d.Week {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", day.Weekday, day.DateKey, day.Calories)
		total += day.Calories
	}
	fmt.Fprintf(tw, "\tTotal\t%d\n", total)
	return tw.Flush()
}

func runMonth(cmd *cobra.Command, args []string, s *session) error {
	anchor := s.tracker.Now()
	if monthFlag != "" {
		m, err := time.ParseInLocation(monthLayout, monthFlag, time.Local)
		if err != nil {
			return fmt.Errorf("--month must be YYYY-MM, got %q", monthFlag)
		}
		anchor = m
	}
	cells, err := s.tracker.Calendar(cmd.Context(), anchor)
	if err != nil {
		return err
	}

	inMonth := make([]aggregate.DayCell, 0, len(cells))
	for _, c := range cells {
		if c.InMonth {
			inMonth = append(inMonth, c)
		}
	}
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), struct {
			Month string              `json:"month"`
			Days  []aggregate.DayCell `json:"days"`
		}{anchor.Format(monthLayout), inMonth})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s\n\n", anchor.Format("January 2006"))
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tKCAL\tHEALTH\t")
	for _, c := range inMonth {
		marker := ""
		if c.IsToday {
			marker = "<- today"
		}
		if !c.AvgHealth.HasData {
			fmt.Fprintf(tw, "%s\t-\t-\t%s\n", c.DateKey, marker)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", c.DateKey, c.TotalCalories, c.Bucket, marker)
	}
	return tw.Flush()
}

func parseIndex(arg string) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("index must be a non-negative integer, got %q", arg)
	}
	return i, nil
}

func runEdit(cmd *cobra.Command, args []string, s *session) error {
	date := args[0]
	index, err := parseIndex(args[1])
	if err != nil {
		return err
	}
	entries, err := s.tracker.EntriesFor(cmd.Context(), date)
	if err != nil {
		return err
	}
	if index >= len(entries) {
		return fmt.Errorf("%w: %s #%d", diary.ErrEntryNotFound, date, index)
	}

	e := entries[index]
	flags := cmd.Flags()
	if flags.Changed("item") {
		e.FoodItem = editItem
	}
	if flags.Changed("quantity") {
		e.Quantity = editQuantity
	}
	if flags.Changed("calories") {
		e.Calories = editCalories
	}
	if flags.Changed("protein") {
		e.Protein = editProtein
	}
	if flags.Changed("carbs") {
		e.Carbs = editCarbs
	}
	if flags.Changed("fats") {
		e.Fats = editFats
	}
	if flags.Changed("health") {
		e.HealthRating = editHealth
	}

	if err := s.tracker.UpdateEntry(cmd.Context(), date, index, e); err != nil {
		return err
	}
	return showDay(cmd, s, date)
}

func runRemove(cmd *cobra.Command, args []string, s *session) error {
	date := args[0]
	index, err := parseIndex(args[1])
	if err != nil {
		return err
	}
	if err := s.tracker.RemoveEntry(cmd.Context(), date, index); err != nil {
		return err
	}
	if outputJSON {
		return showDay(cmd, s, date)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s #%d\n", date, index)
	return nil
}
