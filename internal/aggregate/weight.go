package aggregate

import (
	"sort"

	"github.com/fyrsmithlabs/calorilog/internal/diary"
)

// WeightPoint is one measurement on the trend line.
type WeightPoint struct {
	DateKey string  `json:"date"`
	Weight  float64 `json:"weight"`
}

// WeightTrend returns measurements in date order, skipping non-positive
// values.
func WeightTrend(log diary.WeightLog) []WeightPoint {
	out := make([]WeightPoint, 0, len(log))
	for k, v := range log {
		if v.Weight > 0 {
			out = append(out, WeightPoint{DateKey: k, Weight: v.Weight})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateKey < out[j].DateKey })
	return out
}

// Chartable reports whether a trend has enough points to draw a line.
func Chartable(points []WeightPoint) bool {
	return len(points) >= 2
}
