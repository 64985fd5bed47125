package leads

import (
	"errors"
	"strings"
)

// ErrBadRequest is returned when the body is not a single JSON lead payload.
var ErrBadRequest = errors.New("bad request")

// Validation error codes.
const (
	CodeRequired      = "required"
	CodeInvalid       = "invalid"
	CodeTooLong       = "too_long"
	CodeUnsafeContent = "unsafe_content"
)

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field string
	Code  string
}

func (e FieldError) String() string {
	return e.Field + ":" + e.Code
}

// ValidationErrors collects every field failure for one submission.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	return "leads: validation failed: " + strings.Join(v.Codes(), ", ")
}

// Codes renders the errors as "field:code" strings for API responses.
func (v ValidationErrors) Codes() []string {
	out := make([]string, 0, len(v))
	for _, fe := range v {
		out = append(out, fe.String())
	}
	return out
}

// Has reports whether field failed with code.
func (v ValidationErrors) Has(field, code string) bool {
	for _, fe := range v {
		if fe.Field == field && fe.Code == code {
			return true
		}
	}
	return false
}
