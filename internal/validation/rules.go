// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/geoasistencia/console/internal/errors"
)

// MinJustificationLength is the minimum trimmed length of a justification
// required before a verification request may be issued. Mirrored from the
// backend contract so invalid input never produces a network call.
const MinJustificationLength = 15

// JustificationErrorMessage is the operator-facing message for a short
// justification. Kept in Spanish to match the backend's error language.
const JustificationErrorMessage = "La justificación debe tener al menos 15 caracteres."

var (
	// emailRegex is a basic email validation pattern
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Email validates email format using regex
var Email = validation.NewStringRuleWithError(
	func(s string) bool {
		return emailRegex.MatchString(s)
	},
	validation.NewError("validation_email_format", "must be a valid email address"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// Justification validates that free-text justification meets the minimum
// trimmed length demanded by the backend for sensitive-action verification.
var Justification = validation.NewStringRuleWithError(
	func(s string) bool {
		return len(strings.TrimSpace(s)) >= MinJustificationLength
	},
	validation.NewError("validation_justification_min_length", JustificationErrorMessage),
)

// Coordinate validates a latitude or longitude range.
type Coordinate struct {
	Min float64
	Max float64
}

// Validate checks the value is a float64 within the configured range.
func (c Coordinate) Validate(value interface{}) error {
	f, ok := value.(float64)
	if !ok {
		return validation.NewError("validation_coordinate_type", "must be a number")
	}
	if f < c.Min || f > c.Max {
		return validation.NewError("validation_coordinate_range", "out of range")
	}
	return nil
}

// Latitude validates a latitude value.
var Latitude = Coordinate{Min: -90, Max: 90}

// Longitude validates a longitude value.
var Longitude = Coordinate{Min: -180, Max: 180}
