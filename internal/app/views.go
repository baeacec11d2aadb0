package app

import (
	"context"
	"io"
	"time"

	"github.com/fyrsmithlabs/calorilog/internal/aggregate"
	"github.com/fyrsmithlabs/calorilog/internal/diary"
	"github.com/fyrsmithlabs/calorilog/internal/export"
)

// Dashboard is the summary for one day.
type Dashboard struct {
	Date            string                  `json:"date"`
	Totals          aggregate.Totals        `json:"totals"`
	Goals           diary.UserGoals         `json:"goals"`
	CalorieProgress float64                 `json:"calorieProgress"`
	HealthMessage   string                  `json:"healthMessage"`
	HealthBucket    aggregate.Bucket        `json:"healthBucket"`
	WeekStart       string                  `json:"weekStart"`
	Week            []aggregate.DayCalories `json:"week"`
}

// Dashboard summarizes the day containing now and its Monday-start week.
func (t *Tracker) Dashboard(ctx context.Context, now time.Time) (Dashboard, error) {
	st, err := t.repo.Load(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	date := diary.DateKey(now)
	totals := aggregate.DailyTotals(st.FoodLog, date)
	score := totals.AvgHealthRating.OrZero()
	weekStart := aggregate.StartOfWeek(now, time.Monday)
	return Dashboard{
		Date:            date,
		Totals:          totals,
		Goals:           st.Goals,
		CalorieProgress: aggregate.CalorieProgress(totals.Calories, st.Goals.Calories),
		HealthMessage:   aggregate.HealthMessage(score),
		HealthBucket:    aggregate.HealthBucket(score),
		WeekStart:       diary.DateKey(weekStart),
		Week:            aggregate.WeeklySeries(st.FoodLog, weekStart),
	}, nil
}

// Calendar returns the month grid around anchor.
func (t *Tracker) Calendar(ctx context.Context, anchor time.Time) ([]aggregate.DayCell, error) {
	st, err := t.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.MonthlyGrid(st.FoodLog, anchor, t.now()), nil
}

// RecentDays lists the last RecentDayCount days that have entries, newest
// first.
func (t *Tracker) RecentDays(ctx context.Context) ([]aggregate.DayEntries, error) {
	st, err := t.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.RecentDays(st.FoodLog, t.now(), RecentDayCount), nil
}

// Sheet returns every entry as one sorted table.
func (t *Tracker) Sheet(ctx context.Context, key aggregate.SortKey, dir aggregate.Direction) ([]aggregate.Row, error) {
	st, err := t.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.SortedFlatView(st.FoodLog, key, dir), nil
}

// ExportCSV writes the sheet in the given order to w and returns the
// suggested download name.
func (t *Tracker) ExportCSV(ctx context.Context, w io.Writer, key aggregate.SortKey, dir aggregate.Direction) (string, error) {
	rows, err := t.Sheet(ctx, key, dir)
	if err != nil {
		return "", err
	}
	if err := export.WriteCSV(w, rows); err != nil {
		return "", err
	}
	return export.Filename(t.now()), nil
}

// WeightTrend returns the weight log in date order.
func (t *Tracker) WeightTrend(ctx context.Context) ([]aggregate.WeightPoint, error) {
	st, err := t.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.WeightTrend(st.Weights), nil
}
