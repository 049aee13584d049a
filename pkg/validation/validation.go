// Package validation wraps go-playground/validator with the project's custom
// rules and turns failures into 400 business errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/diagnosis/restaurant-management/pkg/apperr"
)

var (
	once     sync.Once
	validate *validator.Validate
	strict   = bluemonday.StrictPolicy()

	phoneRegex    = regexp.MustCompile(`^\+?[0-9\s\-()]{7,20}$`)
	hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Report JSON field names instead of Go field names.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return IsStrongPassword(fl.Field().String())
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phoneRegex.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
			return hexColorRegex.MatchString(fl.Field().String())
		})

		validate = v
	})
	return validate
}

// Struct validates s and returns a Validation business error describing the
// first failing field.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation("invalid request")
	}
	return apperr.Validation(message(verrs[0]))
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must contain only digits", field)
	case "password":
		return fmt.Sprintf("%s must contain an uppercase letter, a digit and a symbol", field)
	case "phone":
		return fmt.Sprintf("%s must be a valid phone number", field)
	case "hexcolor6":
		return fmt.Sprintf("%s must be in hex format (#RRGGBB)", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid id", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// IsStrongPassword requires at least one uppercase letter, one digit and one
// character that is neither a word character nor whitespace.
func IsStrongPassword(password string) bool {
	var upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsSpace(r), unicode.IsLetter(r), r == '_':
		default:
			symbol = true
		}
	}
	return upper && digit && symbol
}

// NormalizeEmail trims and lowercases an address. Every email lookup goes
// through this so case and whitespace variants resolve to one account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Sanitize strips all markup from user-supplied free text.
func Sanitize(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// SanitizePtr trims and sanitizes an optional field; blank values become nil.
func SanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := Sanitize(*s)
	if v == "" {
		return nil
	}
	return &v
}

// TrimPtr trims an optional field; blank values become nil.
func TrimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
