package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/calorilog/internal/aggregate"
)

var (
	// sheet and export command flags
	sheetSort string
	sheetDir  string
	exportOut string
)

func init() {
	rootCmd.AddCommand(sheetCmd)
	rootCmd.AddCommand(exportCmd)

	for _, c := range []*cobra.Command{sheetCmd, exportCmd} {
		c.Flags().StringVar(&sheetSort, "sort", "date", "Sort column: "+sortKeyList())
		c.Flags().StringVar(&sheetDir, "dir", "desc", "Sort direction: asc or desc")
	}
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file, - for stdout (default food_log_<today>.csv)")
}

var sheetCmd = &cobra.Command{
	Use:   "sheet",
	Short: "Show every logged entry as one sorted table",
	Long: `Show every logged entry as one sorted table.

Examples:
  # Highest calorie items first
  calorilog sheet --sort calories --dir desc

  # Alphabetical
  calorilog sheet --sort foodItem --dir asc`,
	Args: cobra.NoArgs,
	RunE: withSession(runSheet),
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the sheet as CSV",
	Args:  cobra.NoArgs,
	RunE:  withSession(runExport),
}

func sortKeyList() string {
	keys := make([]string, len(aggregate.SortKeys))
	for i, k := range aggregate.SortKeys {
		keys[i] = string(k)
	}
	return strings.Join(keys, ", ")
}

func sheetOrder() (aggregate.SortKey, aggregate.Direction, error) {
	key, err := aggregate.ParseSortKey(sheetSort)
	if err != nil {
		return "", "", err
	}
	dir, err := aggregate.ParseDirection(sheetDir)
	if err != nil {
		return "", "", err
	}
	return key, dir, nil
}

func runSheet(cmd *cobra.Command, args []string, s *session) error {
	key, dir, err := sheetOrder()
	if err != nil {
		return err
	}
	rows, err := s.tracker.Sheet(cmd.Context(), key, dir)
	if err != nil {
		return err
	}
	if outputJSON {
		if rows == nil {
			rows = []aggregate.Row{}
		}
		return writeJSON(cmd.OutOrStdout(), rows)
	}

	w := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(w, "Nothing logged yet")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\t#\tITEM\tQUANTITY\tKCAL\tPROTEIN\tCARBS\tFATS\tHEALTH")
	for _, r := range rows {
		e := r.Entry
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%dg\t%dg\t%dg\t%d/10\n",
			r.Date, r.Index, truncate(e.FoodItem, 30), truncate(e.Quantity, 16),
			e.Calories, e.Protein, e.Carbs, e.Fats, e.HealthRating)
	}
	return tw.Flush()
}

func runExport(cmd *cobra.Command, args []string, s *session) error {
	key, dir, err := sheetOrder()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	name, err := s.tracker.ExportCSV(cmd.Context(), &buf, key, dir)
	if err != nil {
		return err
	}

	if exportOut == "-" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	path := exportOut
	if path == "" {
		path = name
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]string{"path": path})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
	return nil
}
