package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/calorilog/internal/aggregate"
	"github.com/fyrsmithlabs/calorilog/internal/diary"
)

func rows() []aggregate.Row {
	log := diary.FoodLog{
		"2024-01-01": {
			{FoodItem: `12" pizza`, Quantity: `2 "large" slices`, Calories: 570, Protein: 24, Carbs: 66, Fats: 22, HealthRating: 3},
			{FoodItem: "Apple, red", Quantity: "1", Calories: 95, Carbs: 25, HealthRating: 9},
		},
	}
	return aggregate.SortedFlatView(log, aggregate.SortDate, aggregate.Desc)
}

func TestRender(t *testing.T) {
	out := Render(rows())
	lines := strings.Split(out, "\n")

	require.Len(t, lines, len(rows())+1)
	assert.Equal(t, Header, lines[0])
	assert.Equal(t, `2024-01-01,"12"" pizza","2 ""large"" slices",570,24,66,22,3`, lines[1])
	assert.Equal(t, `2024-01-01,"Apple, red","1",95,0,25,0,9`, lines[2])
	assert.False(t, strings.HasSuffix(out, "\n"))
}

func TestRender_Empty(t *testing.T) {
	assert.Equal(t, Header, Render(nil))
}

func TestRender_ParsesAsCSV(t *testing.T) {
	records, err := csv.NewReader(strings.NewReader(Render(rows()))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, `12" pizza`, records[1][1])
	assert.Equal(t, "Apple, red", records[2][1])
	assert.Len(t, records[0], 8)
}

func TestWriteCSV_MatchesRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows()))
	assert.Equal(t, Render(rows()), buf.String())
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "food_log_2024-03-09.csv", Filename(time.Date(2024, 3, 9, 22, 0, 0, 0, time.UTC)))
}
