package services

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrPostNotFound is returned when the requested post does not exist.
	ErrPostNotFound = errors.New("post not found")
)

// ValidationError carries per-field messages for rejected input.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records a message against field.
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty reports whether no field failed.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// Error summarises the first message, like "The title field is required.
// (and 1 more error)".
func (e *ValidationError) Error() string {
	if e.Empty() {
		return "validation failed"
	}
	fields := make([]string, 0, len(e.Fields))
	total := 0
	for field, msgs := range e.Fields {
		fields = append(fields, field)
		total += len(msgs)
	}
	sort.Strings(fields)
	msg := e.Fields[fields[0]][0]
	switch extra := total - 1; extra {
	case 0:
		return msg
	case 1:
		return msg + " (and 1 more error)"
	default:
		return fmt.Sprintf("%s (and %d more errors)", msg, extra)
	}
}

// addValidatorErrors converts validator output into field messages.
func (e *ValidationError) addValidatorErrors(errs validator.ValidationErrors) {
	for _, fe := range errs {
		e.Add(fe.Field(), fieldMessage(fe))
	}
}

func fieldMessage(fe validator.FieldError) string {
	name := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", name, fe.Param())
	default:
		return fmt.Sprintf("The %s field is invalid.", name)
	}
}

// StatusCode maps service errors to HTTP status codes.
func StatusCode(err error) int {
	var ve *ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrPostNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
