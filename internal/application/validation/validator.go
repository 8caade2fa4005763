// Package validation is the boundary where untrusted drafts become typed
// values. Every failure is reported as an INVALID_ARGUMENT DomainError with
// per-field details.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayouts are the accepted draft date formats, tried in order
var DateLayouts = []string{time.RFC3339, "2006-01-02"}

var (
	once     sync.Once
	validate *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// Use JSON tag names for field names in errors
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
			_, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
			return err == nil
		})
		_ = v.RegisterValidation("nonneg_decimal", func(fl validator.FieldLevel) bool {
			d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
			return err == nil && !d.IsNegative()
		})
		_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
			_, err := ParseDate(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		validate = v
	})
	return validate
}

// Struct validates a draft against its `validate` tags
func Struct(draft any) error {
	err := engine().Struct(draft)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return shared.NewDomainError(shared.CodeInvalidArgument, err.Error())
	}

	details := make([]shared.FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		details = append(details, shared.FieldError{
			Field:   e.Field(),
			Message: getValidationMessage(e),
		})
	}
	return shared.NewValidationError("Request validation failed", details)
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "url":
		return "Invalid URL format"
	case "decimal":
		return "Must be numeric"
	case "nonneg_decimal":
		return "Must be a non-negative number"
	case "date":
		return "Must be a date (YYYY-MM-DD or RFC 3339)"
	default:
		return "Invalid value"
	}
}

// fieldError wraps a single rejected field as a validation error
func fieldError(field, message string) error {
	return shared.NewValidationError("Request validation failed", []shared.FieldError{{Field: field, Message: message}})
}

// ParseDate parses a draft date in one of DateLayouts
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unparseable date " + s)
}

// Decimal converts an already validated amount string. Empty yields zero.
func Decimal(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fieldError(field, "Must be numeric")
	}
	return d, nil
}

// OptionalDate converts an optional draft date; empty yields nil
func OptionalDate(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, fieldError(field, "Must be a date (YYYY-MM-DD or RFC 3339)")
	}
	return &t, nil
}

// OptionalUUID converts an optional id string; empty yields nil
func OptionalUUID(field, s string) (*uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fieldError(field, "Invalid UUID format")
	}
	return &id, nil
}
