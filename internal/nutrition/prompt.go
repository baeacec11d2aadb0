package nutrition

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/calorilog/internal/diary"
)

// SystemInstruction frames every analysis request.
const SystemInstruction = `You are a nutritional expert AI. Your task is to analyze a user's description or image of a meal and return a structured JSON object containing a list of food items with their nutritional information. Be as accurate as possible. If a quantity isn't specified, make a reasonable estimate based on common portion sizes. Your response MUST conform to the provided JSON schema.`

// DefaultImagePrompt accompanies an image when the caller gives no text.
const DefaultImagePrompt = "Analyze this meal."

// Schema is the subset of OpenAPI schema the model accepts.
type Schema struct {
	Type             string             `json:"type"`
	Description      string             `json:"description,omitempty"`
	Items            *Schema            `json:"items,omitempty"`
	Properties       map[string]*Schema `json:"properties,omitempty"`
	Required         []string           `json:"required,omitempty"`
	PropertyOrdering []string           `json:"propertyOrdering,omitempty"`
}

var entryFields = []string{"foodItem", "quantity", "calories", "protein", "carbs", "fats", "healthRating"}

// FoodEntrySchema describes the array of entries the model must return.
func FoodEntrySchema() *Schema {
	str := func(desc string) *Schema { return &Schema{Type: "STRING", Description: desc} }
	num := func(desc string) *Schema { return &Schema{Type: "INTEGER", Description: desc} }

	return &Schema{
		Type: "ARRAY",
		Items: &Schema{
			Type: "OBJECT",
			Properties: map[string]*Schema{
				"foodItem":     str("Name of the food item."),
				"quantity":     str(`Quantity of the food item (e.g., "1 slice", "100g").`),
				"calories":     num("Estimated calories for the item."),
				"protein":      num("Estimated protein in grams."),
				"carbs":        num("Estimated carbohydrates in grams."),
				"fats":         num("Estimated fat in grams."),
				"healthRating": num("A health rating from 1 (unhealthy) to 10 (very healthy), considering processing, sugar, and nutrients."),
			},
			Required:         entryFields,
			PropertyOrdering: entryFields,
		},
	}
}

// FeedbackPrompt asks for one sentence about a just-logged meal.
func FeedbackPrompt(entries []diary.FoodEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("%s of %s (%d kcal)", e.Quantity, e.FoodItem, e.Calories))
	}
	return "I just ate the following meal: " + strings.Join(parts, ", ") +
		". Give me one brief, actionable, and encouraging piece of nutritional feedback in a single sentence." +
		" For example, mention if it's a good source of protein, high in sugar, or suggest a simple improvement for next time."
}
