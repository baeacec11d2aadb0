package diary

import "fmt"

// AppendEntry adds entry to the end of date's entries, creating the day
// if it does not exist yet.
func AppendEntry(log FoodLog, date string, entry FoodEntry) FoodLog {
	out := log.Clone()
	out[date] = append(out[date], entry)
	return out
}

// ReplaceEntry swaps the entry at index on date.
func ReplaceEntry(log FoodLog, date string, index int, entry FoodEntry) (FoodLog, error) {
	day, ok := log[date]
	if !ok || index < 0 || index >= len(day) {
		return log, notFound(date, index)
	}
	out := log.Clone()
	out[date][index] = entry
	return out, nil
}

// RemoveEntry deletes the entry at index on date. A day left without
// entries is removed from the log.
func RemoveEntry(log FoodLog, date string, index int) (FoodLog, error) {
	day, ok := log[date]
	if !ok || index < 0 || index >= len(day) {
		return log, notFound(date, index)
	}
	out := log.Clone()
	rest := append(out[date][:index:index], out[date][index+1:]...)
	if len(rest) == 0 {
		delete(out, date)
	} else {
		out[date] = rest
	}
	return out, nil
}

// UpsertWeight records weight for date, replacing any earlier value.
func UpsertWeight(log WeightLog, date string, weight float64) (WeightLog, error) {
	if !(weight > 0) {
		return log, fmt.Errorf("%w: %v", ErrInvalidWeight, weight)
	}
	out := log.Clone()
	out[date] = WeightEntry{Weight: weight}
	return out, nil
}

func notFound(date string, index int) error {
	return fmt.Errorf("%w: %s #%d", ErrEntryNotFound, date, index)
}
