// Package export renders the flattened food log as CSV.
package export

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fyrsmithlabs/calorilog/internal/aggregate"
	"github.com/fyrsmithlabs/calorilog/internal/diary"
)

// Header is the first line of every export.
const Header = "Date,Food Item,Quantity,Calories,Protein (g),Carbs (g),Fats (g),Health Rating"

// ContentType is the MIME type served for downloads.
const ContentType = "text/csv;charset=utf-8"

// Filename names the export for the given day.
func Filename(today time.Time) string {
	return "food_log_" + diary.DateKey(today) + ".csv"
}

// Lines returns the header followed by one line per row, without line
// terminators.
func Lines(rows []aggregate.Row) []string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, Header)
	for _, r := range rows {
		lines = append(lines, line(r))
	}
	return lines
}

// Render joins Lines with "\n". There is no trailing newline.
func Render(rows []aggregate.Row) string {
	return strings.Join(Lines(rows), "\n")
}

// WriteCSV streams the rendered export to w.
func WriteCSV(w io.Writer, rows []aggregate.Row) error {
	if _, err := io.WriteString(w, Header); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := io.WriteString(w, "\n"+line(r)); err != nil {
			return err
		}
	}
	return nil
}

func line(r aggregate.Row) string {
	e := r.Entry
	return strings.Join([]string{
		r.Date,
		quote(e.FoodItem),
		quote(e.Quantity),
		strconv.Itoa(e.Calories),
		strconv.Itoa(e.Protein),
		strconv.Itoa(e.Carbs),
		strconv.Itoa(e.Fats),
		strconv.Itoa(e.HealthRating),
	}, ",")
}

// quote always wraps s, doubling embedded quotes.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
