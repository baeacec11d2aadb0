// Package diary defines the food diary data model and the pure mutators
// that transform it.
//
// Every mutator returns a fresh value and leaves its input untouched, so
// callers can commit the result or throw it away without cloning first.
package diary

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar-date key format used by every log.
const DateLayout = "2006-01-02"

// Errors for diary operations.
var (
	ErrEntryNotFound = errors.New("entry not found")
	ErrInvalidDate   = errors.New("invalid date: must be YYYY-MM-DD")
	ErrInvalidWeight = errors.New("weight must be a positive number")
	ErrInvalidTheme  = errors.New("theme must be light or dark")
)

// FoodEntry is one recognized food item from one analysis pass.
type FoodEntry struct {
	FoodItem     string `json:"foodItem" validate:"required,max=200"`
	Quantity     string `json:"quantity" validate:"max=200"`
	Calories     int    `json:"calories" validate:"gte=0"`
	Protein      int    `json:"protein" validate:"gte=0"`
	Carbs        int    `json:"carbs" validate:"gte=0"`
	Fats         int    `json:"fats" validate:"gte=0"`
	HealthRating int    `json:"healthRating" validate:"gte=1,lte=10"`

	// Image references the stored preview of the photo this entry was
	// derived from. Empty for text-derived entries.
	Image string `json:"image,omitempty"`
}

// FoodLog maps a date key to that day's entries in insertion order.
// A key is present only while its day holds at least one entry.
type FoodLog map[string][]FoodEntry

// UserGoals are the daily calorie and macro targets.
type UserGoals struct {
	Calories int `json:"calories" validate:"gt=0"`
	Protein  int `json:"protein" validate:"gt=0"`
	Carbs    int `json:"carbs" validate:"gt=0"`
	Fats     int `json:"fats" validate:"gt=0"`
}

// DefaultGoals returns the goals used until the user sets their own.
func DefaultGoals() UserGoals {
	return UserGoals{Calories: 2000, Protein: 150, Carbs: 250, Fats: 65}
}

// WeightEntry is a single body-weight measurement. The unit is whatever
// the user logs in.
type WeightEntry struct {
	Weight float64 `json:"weight"`
}

// WeightLog maps a date key to that day's measurement.
type WeightLog map[string]WeightEntry

// Theme is the display preference.
type Theme string

// Themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme accepts "light" or "dark".
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
}

// DateKey formats t as a log key in t's own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDateKey parses a log key as local midnight.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, key)
	}
	return t, nil
}

// Clone returns a copy of l whose day slices are not shared with l.
func (l FoodLog) Clone() FoodLog {
	out := make(FoodLog, len(l))
	for k, v := range l {
		out[k] = append([]FoodEntry(nil), v...)
	}
	return out
}

// Entries returns the entries for key, or nil.
func (l FoodLog) Entries(key string) []FoodEntry {
	return l[key]
}

// Count returns the number of entries across all days.
func (l FoodLog) Count() int {
	n := 0
	for _, v := range l {
		n += len(v)
	}
	return n
}

// Clone returns a copy of w.
func (w WeightLog) Clone() WeightLog {
	out := make(WeightLog, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}
