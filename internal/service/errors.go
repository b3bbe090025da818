package service

import (
	"errors"
	"strings"

	"academy-portal/internal/repository"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrCompetitionClosed = errors.New("competition is not open")
	ErrNotEntryTest      = errors.New("competition is not an entry test")
	ErrForbidden         = errors.New("forbidden")
	ErrFormClosed        = errors.New("application form is not accepting submissions")
	ErrRetakeNotAllowed  = errors.New("quiz does not allow retakes")
	ErrQuizClosed        = errors.New("quiz is not active")
	ErrTimeLimitExceeded = errors.New("quiz time limit exceeded")
)

// FieldError is one rejected input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field of one request, in input order
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a rejected field
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Labels returns the rejected field names
func (e *ValidationError) Labels() []string {
	labels := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		labels = append(labels, f.Field)
	}
	return labels
}

// Err returns e when at least one field was rejected, nil otherwise
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func invalid(field, message string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// staleToTransition maps a failed conditional update to ErrInvalidTransition
func staleToTransition(err error) error {
	if errors.Is(err, repository.ErrStaleState) {
		return ErrInvalidTransition
	}
	return err
}

// fromValidator turns a "<field> <message>" error of the struct validator into
// a ValidationError
func fromValidator(err error) error {
	if err == nil {
		return nil
	}
	field, message, ok := strings.Cut(err.Error(), " ")
	if !ok {
		return invalid("input", err.Error())
	}
	return invalid(field, message)
}
