package http

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/calorilog/internal/app"
	"github.com/fyrsmithlabs/calorilog/internal/diary"
	"github.com/fyrsmithlabs/calorilog/internal/images"
	"github.com/fyrsmithlabs/calorilog/internal/nutrition"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string             `json:"error"`
	Fields []diary.FieldError `json:"fields,omitempty"`
}

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, nutrition.ErrValidation),
		errors.Is(err, diary.ErrInvalid),
		errors.Is(err, diary.ErrInvalidDate),
		errors.Is(err, diary.ErrInvalidWeight),
		errors.Is(err, diary.ErrInvalidTheme),
		errors.Is(err, images.ErrInvalidRef),
		errors.Is(err, images.ErrUnsupportedType):
		return http.StatusBadRequest
	case errors.Is(err, diary.ErrEntryNotFound),
		errors.Is(err, images.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, nutrition.ErrAnalysisInFlight):
		return http.StatusConflict
	case errors.Is(err, nutrition.ErrConfiguration):
		return http.StatusPreconditionFailed
	case errors.Is(err, nutrition.ErrUpstreamFormat):
		return http.StatusBadGateway
	case errors.Is(err, nutrition.ErrNetwork):
		return http.StatusGatewayTimeout
	case errors.Is(err, app.ErrNoAnalyzer):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// handleError is the echo error handler. Domain errors become
// ErrorResponse bodies; anything unmapped is logged and hidden.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := statusFor(err)
	resp := ErrorResponse{}

	var he *echo.HTTPError
	var ve *diary.ValidationError
	switch {
	case errors.As(err, &he):
		status = he.Code
		if msg, ok := he.Message.(string); ok {
			resp.Error = msg
		} else {
			resp.Error = http.StatusText(status)
		}
	case errors.As(err, &ve):
		resp.Error = ve.Error()
		resp.Fields = ve.Fields
	case status == http.StatusInternalServerError:
		s.logger.Error(c.Request().Context(), "request failed",
			zap.String("route", c.Path()),
			zap.Error(err),
		)
		resp.Error = "internal server error"
	default:
		resp.Error = userMessage(err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, resp)
	}
	if err != nil {
		s.logger.Warn(c.Request().Context(), "failed to write error response", zap.Error(err))
	}
}

// userMessage prefers the analyzer's wording and falls back to the error
// text for store and image errors.
func userMessage(err error) string {
	var ne *nutrition.Error
	if errors.As(err, &ne) || errors.Is(err, nutrition.ErrAnalysisInFlight) {
		return nutrition.UserMessage(err)
	}
	return err.Error()
}

// requestValidator adapts the shared validator to echo.Validator. Failures
// come back as diary.ValidationError so they render like domain errors.
type requestValidator struct {
	v *validator.Validate
}

func newValidator() *requestValidator {
	return &requestValidator{v: diary.Validator()}
}

func (r *requestValidator) Validate(i any) error {
	err := r.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out := &diary.ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, diary.FieldError{Field: fe.Field(), Message: "failed " + fe.Tag() + " check"})
	}
	return out
}

var _ echo.Validator = (*requestValidator)(nil)
