package aggregate

import (
	"time"

	"github.com/fyrsmithlabs/calorilog/internal/diary"
)

// DayCalories is one point of a calorie series.
type DayCalories struct {
	Date     time.Time `json:"-"`
	DateKey  string    `json:"date"`
	Weekday  string    `json:"weekday"`
	Calories int       `json:"calories"`
}

// WeeklySeries returns the 7 days starting at weekStart, zero-filled.
func WeeklySeries(log diary.FoodLog, weekStart time.Time) []DayCalories {
	start := midnight(weekStart)
	out := make([]DayCalories, 0, 7)
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		key := diary.DateKey(day)
		out = append(out, DayCalories{
			Date:     day,
			DateKey:  key,
			Weekday:  day.Format("Mon"),
			Calories: sumEntries(log[key]).Calories,
		})
	}
	return out
}

// DayCell is one square of the month calendar.
type DayCell struct {
	Date          time.Time `json:"-"`
	DateKey       string    `json:"date"`
	TotalCalories int       `json:"totalCalories"`
	AvgHealth     Average   `json:"avgHealth"`
	Bucket        Bucket    `json:"bucket"`
	InMonth       bool      `json:"inMonth"`
	IsToday       bool      `json:"isToday"`
}

// MonthlyGrid covers the month containing anchor with whole Sunday-first
// weeks, so the first and last rows may spill into neighbouring months.
func MonthlyGrid(log diary.FoodLog, anchor, today time.Time) []DayCell {
	y, m, _ := anchor.Date()
	loc := anchor.Location()
	first := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)

	start := StartOfWeek(first, time.Sunday)
	end := StartOfWeek(last, time.Sunday).AddDate(0, 0, 6)

	var cells []DayCell
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := diary.DateKey(day)
		t := sumEntries(log[key])
		cells = append(cells, DayCell{
			Date:          day,
			DateKey:       key,
			TotalCalories: t.Calories,
			AvgHealth:     t.AvgHealthRating,
			Bucket:        HealthBucket(t.AvgHealthRating.OrZero()),
			InMonth:       day.Month() == m,
			IsToday:       sameDay(day, today),
		})
	}
	return cells
}

// DayEntries pairs a date with its entries.
type DayEntries struct {
	DateKey string            `json:"date"`
	Entries []diary.FoodEntry `json:"entries"`
}

// RecentDays walks back n days from today (today first) and returns the
// days that have entries.
func RecentDays(log diary.FoodLog, today time.Time, n int) []DayEntries {
	var out []DayEntries
	day := midnight(today)
	for i := 0; i < n; i++ {
		key := diary.DateKey(day.AddDate(0, 0, -i))
		if entries := log[key]; len(entries) > 0 {
			out = append(out, DayEntries{DateKey: key, Entries: entries})
		}
	}
	return out
}
