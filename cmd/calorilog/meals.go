package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/calorilog/internal/aggregate"
	"github.com/fyrsmithlabs/calorilog/internal/app"
	"github.com/fyrsmithlabs/calorilog/internal/diary"
)

var (
	// log command flags
	logImage      string
	logDate       string
	logNoFeedback bool

	// add command flags
	addDate     string
	addItem     string
	addQuantity string
	addCalories int
	addProtein  int
	addCarbs    int
	addFats     int
	addHealth   int
)

func init() {
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(recentCmd)

	logCmd.Flags().StringVar(&logImage, "image", "", "Photo of the meal")
	logCmd.Flags().StringVar(&logDate, "date", "", "Day to log to, YYYY-MM-DD (default today)")
	logCmd.Flags().BoolVar(&logNoFeedback, "no-feedback", false, "Do not wait for the coaching message")

	addCmd.Flags().StringVar(&addDate, "date", "", "Day to log to, YYYY-MM-DD (default today)")
	addCmd.Flags().StringVar(&addItem, "item", "", "Food item (required)")
	addCmd.Flags().StringVar(&addQuantity, "quantity", "", "Quantity, e.g. \"1 cup\"")
	addCmd.Flags().IntVar(&addCalories, "calories", 0, "Calories (kcal)")
	addCmd.Flags().IntVar(&addProtein, "protein", 0, "Protein (g)")
	addCmd.Flags().IntVar(&addCarbs, "carbs", 0, "Carbs (g)")
	addCmd.Flags().IntVar(&addFats, "fats", 0, "Fats (g)")
	addCmd.Flags().IntVar(&addHealth, "health", 5, "Health rating, 1-10")
	_ = addCmd.MarkFlagRequired("item")
}

var logCmd = &cobra.Command{
	Use:   "log [description]",
	Short: "Log a meal from a description or a photo",
	Long: `Send a meal description, a photo, or both to the AI model and log the
recognized items. A short coaching message follows when the model
provides one.

Examples:
  # Describe a meal
  calorilog log "a bowl of oatmeal with blueberries"

  # Photograph a meal, with an optional hint
  calorilog log --image dinner.jpg "the sauce is pesto"

  # Log to another day
  calorilog log --date 2024-03-14 "chicken caesar salad"`,
	RunE: withSession(runLog),
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Log a food item by hand",
	Long: `Log a single food item without the AI model.

Examples:
  calorilog add --item "Greek yogurt" --quantity "170 g" --calories 100 --protein 17 --carbs 6 --health 8`,
	Args: cobra.NoArgs,
	RunE: withSession(runAdd),
}

var copyCmd = &cobra.Command{
	Use:   "copy <date>:<index>...",
	Short: "Copy logged items to today",
	Long: `Append copies of earlier entries to today. Find selectors with
"calorilog recent".

Examples:
  calorilog copy 2024-03-14:0 2024-03-14:2`,
	Args: cobra.MinimumNArgs(1),
	RunE: withSession(runCopy),
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recent meals available to copy",
	Args:  cobra.NoArgs,
	RunE:  withSession(runRecent),
}

func runLog(cmd *cobra.Command, args []string, s *session) error {
	in := app.MealInput{
		Text: strings.Join(args, " "),
		Date: logDate,
	}
	if logImage != "" {
		data, err := os.ReadFile(logImage)
		if err != nil {
			return fmt.Errorf("failed to read image %s: %w", logImage, err)
		}
		in.Image = data
		in.MIMEType = http.DetectContentType(data)
	}

	entries, err := s.tracker.LogMeal(cmd.Context(), in)
	if err != nil {
		return err
	}

	var feedback string
	if !logNoFeedback {
		feedback = s.feedback.Wait(cmd.Context(), feedbackWait)
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), struct {
			Entries  []diary.FoodEntry `json:"entries"`
			Feedback string            `json:"feedback,omitempty"`
		}{entries, feedback})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Logged %d item(s)\n\n", len(entries))
	printEntries(w, entries)
	if feedback != "" {
		fmt.Fprintf(w, "\n%s\n", feedback)
	}
	return nil
}

func runAdd(cmd *cobra.Command, args []string, s *session) error {
	e := diary.FoodEntry{
		FoodItem:     addItem,
		Quantity:     addQuantity,
		Calories:     addCalories,
		Protein:      addProtein,
		Carbs:        addCarbs,
		Fats:         addFats,
		HealthRating: addHealth,
	}
	if err := s.tracker.AddEntry(cmd.Context(), addDate, e); err != nil {
		return err
	}
	date := addDate
	if date == "" {
		date = s.tracker.Today()
	}
	return showDay(cmd, s, date)
}

func runCopy(cmd *cobra.Command, args []string, s *session) error {
	selections := make([]app.Selection, 0, len(args))
	for _, arg := range args {
		sel, err := parseSelection(arg)
		if err != nil {
			return err
		}
		selections = append(selections, sel)
	}

	n, err := s.tracker.CopyToToday(cmd.Context(), selections)
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
			"copied":  n,
			"message": app.CopyMessage(n),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), app.CopyMessage(n))
	return nil
}

// parseSelection reads "date:index".
func parseSelection(arg string) (app.Selection, error) {
	date, idx, ok := strings.Cut(arg, ":")
	if !ok {
		return app.Selection{}, fmt.Errorf("invalid selection %q: want <date>:<index>", arg)
	}
	if _, err := diary.ParseDateKey(date); err != nil {
		return app.Selection{}, fmt.Errorf("invalid selection %q: %w", arg, err)
	}
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 {
		return app.Selection{}, fmt.Errorf("invalid selection %q: index must be a non-negative integer", arg)
	}
	return app.Selection{Date: date, Index: i}, nil
}

func runRecent(cmd *cobra.Command, args []string, s *session) error {
	days, err := s.tracker.RecentDays(cmd.Context())
	if err != nil {
		return err
	}
	if outputJSON {
		if days == nil {
			days = []aggregate.DayEntries{}
		}
		return writeJSON(cmd.OutOrStdout(), days)
	}

	w := cmd.OutOrStdout()
	if len(days) == 0 {
		fmt.Fprintln(w, "No recent meals")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "SELECT\tITEM\tQUANTITY\tKCAL")
	for _, d := range days {
		for i, e := range d.Entries {
			fmt.Fprintf(tw, "%s:%d\t%s\t%s\t%d\n", d.DateKey, i, truncate(e.FoodItem, 30), truncate(e.Quantity, 16), e.Calories)
		}
	}
	return tw.Flush()
}
