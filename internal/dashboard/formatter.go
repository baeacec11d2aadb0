package dashboard

import (
	"fmt"
	"strconv"
)

// FormatCalories renders consumed against goal, e.g. "1,250 / 2,000 kcal".
func FormatCalories(consumed, goal int) string {
	return fmt.Sprintf("%s / %s kcal", group(consumed), group(goal))
}

// FormatMacro renders grams against goal, e.g. "45g / 150g".
func FormatMacro(grams, goal int) string {
	return fmt.Sprintf("%dg / %dg", grams, goal)
}

// FormatPercentage formats a 0-100 value with no decimals.
func FormatPercentage(pct float64) string {
	return fmt.Sprintf("%.0f%%", pct)
}

// FormatWeight renders a weight with at most one decimal.
func FormatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', 1, 64)
}

// FormatWeightChange renders the delta between the first and last point,
// signed, e.g. "-1.5".
func FormatWeightChange(first, last float64) string {
	d := last - first
	if d > 0 {
		return "+" + FormatWeight(d)
	}
	return FormatWeight(d)
}

// group inserts thousands separators.
func group(n int) string {
	s := strconv.Itoa(n)
	neg := n < 0
	if neg {
		s = s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return "-" + s
	}
	return s
}
