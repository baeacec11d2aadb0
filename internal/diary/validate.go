package diary

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid is matched by every *ValidationError.
var ErrInvalid = errors.New("invalid input")

var (
	errRequired    = errors.New("is required")
	errNonNegative = errors.New("must be zero or more")
	errPositive    = errors.New("must be a positive number")
	errHealthRange = errors.New("must be between 1 and 10")
	errTooLong     = errors.New("is too long")
)

var (
	validatorOnce   sync.Once
	sharedValidator *validator.Validate
)

var fieldMessages = map[string]error{
	"FoodEntry.foodItem.required": errRequired,
	"FoodEntry.foodItem.max":      errTooLong,
	"FoodEntry.quantity.max":      errTooLong,
	"FoodEntry.calories.gte":      errNonNegative,
	"FoodEntry.protein.gte":       errNonNegative,
	"FoodEntry.carbs.gte":         errNonNegative,
	"FoodEntry.fats.gte":          errNonNegative,
	"FoodEntry.healthRating.gte":  errHealthRange,
	"FoodEntry.healthRating.lte":  errHealthRange,
	"UserGoals.calories.gt":       errPositive,
	"UserGoals.protein.gt":        errPositive,
	"UserGoals.carbs.gt":          errPositive,
	"UserGoals.fats.gt":           errPositive,
}

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field of a struct.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return strings.Join(parts, "; ")
}

// Is reports ErrInvalid.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

// Validator returns the shared validator, which names fields by their
// JSON tag.
func Validator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		sharedValidator = v
	})
	return sharedValidator
}

// ValidateEntry checks a user-supplied entry.
func ValidateEntry(e FoodEntry) error {
	return validateStruct(e)
}

// ValidateGoals checks user-supplied goals.
func ValidateGoals(g UserGoals) error {
	return validateStruct(g)
}

func validateStruct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		// Namespace carries the JSON field names registered above.
		key := fe.Namespace() + "." + fe.Tag()
		msg := fmt.Sprintf("is invalid (%s)", fe.Tag())
		if m, ok := fieldMessages[key]; ok {
			msg = m.Error()
		}
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}
