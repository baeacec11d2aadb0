package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/calorilog/internal/diary"
)

// SortKey names a sheet column.
type SortKey string

// Sheet columns.
const (
	SortDate         SortKey = "date"
	SortFoodItem     SortKey = "foodItem"
	SortQuantity     SortKey = "quantity"
	SortCalories     SortKey = "calories"
	SortProtein      SortKey = "protein"
	SortCarbs        SortKey = "carbs"
	SortFats         SortKey = "fats"
	SortHealthRating SortKey = "healthRating"
)

// SortKeys lists every sheet column in display order.
var SortKeys = []SortKey{
	SortDate, SortFoodItem, SortQuantity, SortCalories,
	SortProtein, SortCarbs, SortFats, SortHealthRating,
}

// Direction is ascending or descending.
type Direction string

// Directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseSortKey accepts a column name, case-insensitively. Empty means date.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortDate, nil
	}
	for _, k := range SortKeys {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// ParseDirection accepts asc or desc. Empty means desc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "", string(Desc):
		return Desc, nil
	case string(Asc):
		return Asc, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// Toggle applies a header click: the active column flips direction, any
// other column becomes active ascending.
func Toggle(current SortKey, dir Direction, clicked SortKey) (SortKey, Direction) {
	if clicked == current {
		if dir == Asc {
			return current, Desc
		}
		return current, Asc
	}
	return clicked, Asc
}

// Row is one entry of the flattened log. Index is the entry's position
// within its day and addresses edits.
type Row struct {
	Date  string          `json:"date"`
	Entry diary.FoodEntry `json:"entry"`
	Index int             `json:"index"`
}

// SortedFlatView flattens log into rows ordered by key. Rows that compare
// equal keep their date-then-index order.
func SortedFlatView(log diary.FoodLog, key SortKey, dir Direction) []Row {
	dates := make([]string, 0, len(log))
	for d := range log {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	rows := make([]Row, 0, log.Count())
	for _, d := range dates {
		for i, e := range log[d] {
			rows = append(rows, Row{Date: d, Entry: e, Index: i})
		}
	}

	less := lessFor(key)
	sort.SliceStable(rows, func(i, j int) bool {
		if dir == Asc {
			return less(rows[i], rows[j])
		}
		return less(rows[j], rows[i])
	})
	return rows
}

func lessFor(key SortKey) func(a, b Row) bool {
	switch key {
	case SortFoodItem:
		return func(a, b Row) bool { return a.Entry.FoodItem < b.Entry.FoodItem }
	case SortQuantity:
		return func(a, b Row) bool { return a.Entry.Quantity < b.Entry.Quantity }
	case SortCalories:
		return func(a, b Row) bool { return a.Entry.Calories < b.Entry.Calories }
	case SortProtein:
		return func(a, b Row) bool { return a.Entry.Protein < b.Entry.Protein }
	case SortCarbs:
		return func(a, b Row) bool { return a.Entry.Carbs < b.Entry.Carbs }
	case SortFats:
		return func(a, b Row) bool { return a.Entry.Fats < b.Entry.Fats }
	case SortHealthRating:
		return func(a, b Row) bool { return a.Entry.HealthRating < b.Entry.HealthRating }
	default:
		// Keys are YYYY-MM-DD, so string order is date order.
		return func(a, b Row) bool { return a.Date < b.Date }
	}
}
