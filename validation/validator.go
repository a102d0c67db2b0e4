package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kbukum/todoapi/errors"
)

// FieldError is one failed check.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator collects field errors from chained checks.
type Validator struct {
	errors []FieldError
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{}
}

// AddError records a failed check.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any check failed.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns the recorded field errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Validate returns nil when every check passed, otherwise a validation
// AppError whose details list the fields.
func (v *Validator) Validate() error {
	if !v.HasErrors() {
		return nil
	}
	return newValidationError(v.errors)
}

// Required fails for empty or whitespace-only values.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// NonEmpty fails only for the empty string. Whitespace counts as content.
func (v *Validator) NonEmpty(field, value string) *Validator {
	if value == "" {
		v.AddError(field, "is required")
	}
	return v
}

// MaxLength fails when value has more than maxLen characters.
func (v *Validator) MaxLength(field, value string, maxLen int) *Validator {
	if utf8.RuneCountInString(value) > maxLen {
		v.AddError(field, fmt.Sprintf("must be %d characters or less", maxLen))
	}
	return v
}

// RequiredUUID fails unless value is a non-nil UUID.
func (v *Validator) RequiredUUID(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
		return v
	}
	id, err := uuid.Parse(value)
	if err != nil {
		v.AddError(field, "must be a valid UUID")
		return v
	}
	if id == uuid.Nil {
		v.AddError(field, "must not be empty")
	}
	return v
}

// ValidateUUID parses value as a UUID, returning a validation error naming field.
func ValidateUUID(field, value string) (uuid.UUID, error) {
	if err := New().RequiredUUID(field, value).Validate(); err != nil {
		return uuid.Nil, err
	}
	return uuid.MustParse(value), nil
}

func newValidationError(fields []FieldError) *errors.AppError {
	messages := make([]string, len(fields))
	for i, e := range fields {
		messages[i] = e.Field + " " + e.Message
	}
	return errors.Validation(strings.Join(messages, "; ")).WithDetail("fields", fields)
}
