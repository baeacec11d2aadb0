package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCalories(t *testing.T) {
	tests := []struct {
		consumed, goal int
		want           string
	}{
		{0, 2000, "0 / 2,000 kcal"},
		{950, 2000, "950 / 2,000 kcal"},
		{1250, 1800, "1,250 / 1,800 kcal"},
		{1234567, 2000, "1,234,567 / 2,000 kcal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCalories(tt.consumed, tt.goal))
	}
}

func TestGroup(t *testing.T) {
	assert.Equal(t, "999", group(999))
	assert.Equal(t, "1,000", group(1000))
	assert.Equal(t, "-12,345", group(-12345))
}

func TestFormatMacroAndPercentage(t *testing.T) {
	assert.Equal(t, "45g / 150g", FormatMacro(45, 150))
	assert.Equal(t, "63%", FormatPercentage(62.6))
	assert.Equal(t, "100%", FormatPercentage(100))
}

func TestFormatWeight(t *testing.T) {
	assert.Equal(t, "80.5", FormatWeight(80.5))
	assert.Equal(t, "80.0", FormatWeight(80))
	assert.Equal(t, "-1.5", FormatWeightChange(82, 80.5))
	assert.Equal(t, "+0.4", FormatWeightChange(80, 80.4))
	assert.Equal(t, "0.0", FormatWeightChange(80, 80))
}
