// Package aggregate derives summaries from the food and weight logs.
//
// Everything here is a pure function of its arguments. Nothing reads the
// clock: callers pass "today" explicitly.
package aggregate

import (
	"time"

	"github.com/fyrsmithlabs/calorilog/internal/diary"
)

// Average is a mean that may have no samples.
type Average struct {
	Value   float64 `json:"value"`
	HasData bool    `json:"hasData"`
}

// OrZero returns the mean, or 0 when there were no samples.
func (a Average) OrZero() float64 {
	if !a.HasData {
		return 0
	}
	return a.Value
}

func averageOf(sum, n int) Average {
	if n == 0 {
		return Average{}
	}
	return Average{Value: float64(sum) / float64(n), HasData: true}
}

// Totals sums one day of entries.
type Totals struct {
	Calories        int     `json:"calories"`
	Protein         int     `json:"protein"`
	Carbs           int     `json:"carbs"`
	Fats            int     `json:"fats"`
	Count           int     `json:"count"`
	AvgHealthRating Average `json:"avgHealthRating"`
}

// DailyTotals sums the entries logged under date.
func DailyTotals(log diary.FoodLog, date string) Totals {
	return sumEntries(log[date])
}

func sumEntries(entries []diary.FoodEntry) Totals {
	var t Totals
	health := 0
	for _, e := range entries {
		t.Calories += e.Calories
		t.Protein += e.Protein
		t.Carbs += e.Carbs
		t.Fats += e.Fats
		health += e.HealthRating
	}
	t.Count = len(entries)
	t.AvgHealthRating = averageOf(health, len(entries))
	return t
}

// CalorieProgress is consumed as a percentage of goal, capped at 100.
func CalorieProgress(consumed, goal int) float64 {
	if goal <= 0 {
		return 0
	}
	p := float64(consumed) / float64(goal) * 100
	if p > 100 {
		return 100
	}
	return p
}

// StartOfWeek returns local midnight of the most recent weekStart on or
// before t.
func StartOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	day := midnight(t)
	diff := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -diff)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
