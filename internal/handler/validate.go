package handler

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validator adapts go-playground/validator to Echo's Validate hook.
// Wire it once in main: e.Validator = handler.NewValidator().
type Validator struct {
	v *validator.Validate
}

// NewValidator builds the validator used for all request bodies.
func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate runs struct validation and converts failures into an
// echo.HTTPError carrying a field->message map, which the handlers pass
// straight back as a 400 body.
func (cv *Validator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	fields := map[string]string{}
	for _, fe := range verrs {
		fields[snakeField(fe.Field())] = ruleMessage(fe)
	}
	return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
		"error":  "validation_failed",
		"fields": fields,
	})
}

// snakeField converts a Go field name (GuestEmail) to the JSON-ish
// snake_case guests see in error bodies (guest_email).
func snakeField(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "min":
		return "is too short or too small (min " + fe.Param() + ")"
	case "max":
		return "is too long or too large (max " + fe.Param() + ")"
	default:
		return "is invalid"
	}
}
