package http

import (
	"github.com/fyrsmithlabs/calorilog/internal/aggregate"
	"github.com/fyrsmithlabs/calorilog/internal/app"
	"github.com/fyrsmithlabs/calorilog/internal/diary"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	Analyzing bool   `json:"analyzing"`
}

// DayResponse is one day's entries and totals.
type DayResponse struct {
	Date    string            `json:"date"`
	Entries []diary.FoodEntry `json:"entries"`
	Totals  aggregate.Totals  `json:"totals"`
}

// CalendarResponse is the month grid for GET /api/v1/calendar.
type CalendarResponse struct {
	Month string              `json:"month"`
	Days  []aggregate.DayCell `json:"days"`
}

// SheetResponse is the flattened, sorted log.
type SheetResponse struct {
	Sort aggregate.SortKey   `json:"sort"`
	Dir  aggregate.Direction `json:"dir"`
	Rows []aggregate.Row     `json:"rows"`
}

// CopyRequest is the request body for POST /api/v1/meals/copy.
type CopyRequest struct {
	Selections []app.Selection `json:"selections" validate:"dive"`
}

// CopyResponse reports how many entries were copied to today.
type CopyResponse struct {
	Copied  int    `json:"copied"`
	Message string `json:"message"`
}

// WeightRequest is the request body for POST /api/v1/weights.
type WeightRequest struct {
	Date   string  `json:"date"`
	Weight float64 `json:"weight" validate:"gt=0"`
}

// CredentialRequest is the request body for PUT /api/v1/credential.
type CredentialRequest struct {
	APIKey string `json:"apiKey" validate:"required"`
}

// CredentialResponse never carries the credential itself.
type CredentialResponse struct {
	Configured bool `json:"configured"`
}

// ThemeBody is the request and response body for /api/v1/theme.
type ThemeBody struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
}
