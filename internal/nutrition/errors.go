package nutrition

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrConfiguration means no credential was available for the call.
	ErrConfiguration = errors.New("configuration error")

	// ErrUpstreamFormat means the model answered but not with the schema.
	ErrUpstreamFormat = errors.New("upstream format error")

	// ErrNetwork covers transport failures, timeouts, and non-2xx answers.
	ErrNetwork = errors.New("network error")

	// ErrValidation means the user's input cannot be analyzed.
	ErrValidation = errors.New("validation error")

	// ErrAnalysisInFlight rejects an analysis that overlaps another one.
	ErrAnalysisInFlight = errors.New("an analysis is already in progress")
)

// User-facing messages.
const (
	MsgMissingCredential = "API Key is not configured."
	MsgTextFormat        = "Could not analyze the food entry. The model returned an invalid format."
	MsgImageFormat       = "Could not analyze the image. The model returned an invalid format."
	MsgNoInput           = "Please enter a description or upload an image."
	MsgNoItems           = "Could not identify any food items. Please try again with a clearer description or image."
)

// Error carries a kind, the message to show the user, and the cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return e.Kind.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Validation returns a user-input error with msg as its message.
func Validation(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func configurationError() error {
	return &Error{Kind: ErrConfiguration, Message: MsgMissingCredential}
}

func formatError(msg string, cause error) error {
	return &Error{Kind: ErrUpstreamFormat, Message: msg, Err: cause}
}

func networkError(cause error) error {
	return &Error{Kind: ErrNetwork, Message: "Could not reach the AI service: " + cause.Error(), Err: cause}
}

// UserMessage returns the message to show for err. Errors outside the
// taxonomy get a generic message.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	if errors.Is(err, ErrAnalysisInFlight) {
		return "An analysis is already running. Please wait for it to finish."
	}
	if err == nil {
		return ""
	}
	return "An unknown error occurred."
}
