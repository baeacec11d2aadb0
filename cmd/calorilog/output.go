package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/calorilog/internal/aggregate"
	"github.com/fyrsmithlabs/calorilog/internal/diary"
)

// dayView is the JSON shape shared by day, add, and edit.
type dayView struct {
	Date    string            `json:"date"`
	Entries []diary.FoodEntry `json:"entries"`
	Totals  aggregate.Totals  `json:"totals"`
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// showDay prints date's entries and totals.
func showDay(cmd *cobra.Command, s *session, date string) error {
	entries, err := s.tracker.EntriesFor(cmd.Context(), date)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []diary.FoodEntry{}
	}
	totals := aggregate.DailyTotals(diary.FoodLog{date: entries}, date)
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), dayView{Date: date, Entries: entries, Totals: totals})
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintf(w, "Nothing logged on %s\n", date)
		return nil
	}
	fmt.Fprintf(w, "%s\n\n", date)
	printEntries(w, entries)
	fmt.Fprintf(w, "\nTotal: %d kcal, %dg protein, %dg carbs, %dg fats\n",
		totals.Calories, totals.Protein, totals.Carbs, totals.Fats)
	return nil
}

func printEntries(w io.Writer, entries []diary.FoodEntry) {
	tw := newTable(w)
	fmt.Fprintln(tw, "#\tITEM\tQUANTITY\tKCAL\tPROTEIN\tCARBS\tFATS\tHEALTH")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%dg\t%dg\t%dg\t%d/10\n",
			i, truncate(e.FoodItem, 30), truncate(e.Quantity, 16),
			e.Calories, e.Protein, e.Carbs, e.Fats, e.HealthRating)
	}
	_ = tw.Flush()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
