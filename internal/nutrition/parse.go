package nutrition

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/fyrsmithlabs/calorilog/internal/diary"
)

var errMissingField = errors.New("missing required field")

// rawEntry mirrors the schema with every field optional so missing keys
// can be told apart from zeros.
type rawEntry struct {
	FoodItem     *string  `json:"foodItem"`
	Quantity     *string  `json:"quantity"`
	Calories     *float64 `json:"calories"`
	Protein      *float64 `json:"protein"`
	Carbs        *float64 `json:"carbs"`
	Fats         *float64 `json:"fats"`
	HealthRating *float64 `json:"healthRating"`
}

// ParseEntries decodes a model response into normalized entries.
//
// The response must be a JSON array of schema objects, optionally wrapped
// in markdown fences or in an {"items": [...]} object. Numbers are rounded,
// negatives become 0, health ratings are clamped into [1,10], and items
// without a name are dropped.
func ParseEntries(text string) ([]diary.FoodEntry, error) {
	body := []byte(stripFences(text))

	var raws []rawEntry
	if err := json.Unmarshal(body, &raws); err != nil {
		var wrapped struct {
			Items *[]rawEntry `json:"items"`
		}
		if werr := json.Unmarshal(body, &wrapped); werr != nil || wrapped.Items == nil {
			return nil, err
		}
		raws = *wrapped.Items
	}

	out := make([]diary.FoodEntry, 0, len(raws))
	for i, r := range raws {
		e, err := r.normalize()
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if e.FoodItem == "" {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r rawEntry) normalize() (diary.FoodEntry, error) {
	if r.FoodItem == nil || r.Quantity == nil || r.Calories == nil || r.Protein == nil ||
		r.Carbs == nil || r.Fats == nil || r.HealthRating == nil {
		return diary.FoodEntry{}, errMissingField
	}
	return diary.FoodEntry{
		FoodItem:     strings.TrimSpace(*r.FoodItem),
		Quantity:     strings.TrimSpace(*r.Quantity),
		Calories:     nonNegative(*r.Calories),
		Protein:      nonNegative(*r.Protein),
		Carbs:        nonNegative(*r.Carbs),
		Fats:         nonNegative(*r.Fats),
		HealthRating: clamp(round(*r.HealthRating), 1, 10),
	}, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func round(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f > math.MaxInt32:
		return math.MaxInt32
	case f < math.MinInt32:
		return math.MinInt32
	}
	return int(math.Round(f))
}

func nonNegative(f float64) int {
	return clamp(round(f), 0, math.MaxInt32)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
