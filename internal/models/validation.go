package models

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/go-playground/validator/v10"
)

// Violation is the machine-readable reason a field was rejected.
type Violation string

const (
	ViolationRequired  Violation = "required"
	ViolationTaken     Violation = "taken"
	ViolationInclusion Violation = "inclusion"
	ViolationInvalid   Violation = "invalid"
	ViolationTooShort  Violation = "too_short"
	ViolationTooLong   Violation = "too_long"
)

// FieldError pairs a column name with the rule it broke.
type FieldError struct {
	Field     string    `json:"field"`
	Violation Violation `json:"violation"`
}

func (f FieldError) String() string { return f.Field + " " + string(f.Violation) }

// ValidationError rejects a whole write. It matches common.ErrorValidation
// under errors.Is.
type ValidationError struct {
	Entity string
	Fields []FieldError
}

func NewValidationError(entity string, fields ...FieldError) *ValidationError {
	return &ValidationError{Entity: entity, Fields: fields}
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("%s is invalid: %s", e.Entity, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error { return common.ErrorValidation }

// Has reports whether field was rejected for violation v.
func (e *ValidationError) Has(field string, v Violation) bool {
	for _, f := range e.Fields {
		if f.Field == field && f.Violation == v {
			return true
		}
	}
	return false
}

// AsValidationError unwraps err to a *ValidationError if there is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// Devise's default: something, an @, something, no whitespace.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report column names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("db"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "present", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "enum", func(fl validator.FieldLevel) bool {
		e, ok := fl.Field().Interface().(interface{ Valid() bool })
		return ok && e.Valid()
	})
	mustRegister(v, "email_format", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

var tagViolations = map[string]Violation{
	"required":     ViolationRequired,
	"present":      ViolationRequired,
	"enum":         ViolationInclusion,
	"oneof":        ViolationInclusion,
	"email_format": ViolationInvalid,
	"min":          ViolationTooShort,
	"max":          ViolationTooLong,
}

// validateStruct runs the struct tags of s and converts failures into a
// *ValidationError for entity.
func validateStruct(entity string, s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %s: %w", entity, err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		v, ok := tagViolations[fe.Tag()]
		if !ok {
			v = ViolationInvalid
		}
		fields = append(fields, FieldError{Field: fe.Field(), Violation: v})
	}
	return NewValidationError(entity, fields...)
}

// ValidatePassword applies the credential length bounds.
func ValidatePassword(password string) error {
	switch n := len(password); {
	case n == 0:
		return NewValidationError("user", FieldError{"password", ViolationRequired})
	case n < common.PasswordMinLength:
		return NewValidationError("user", FieldError{"password", ViolationTooShort})
	case n > common.PasswordMaxLength:
		return NewValidationError("user", FieldError{"password", ViolationTooLong})
	}
	return nil
}
