package survey

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrNotYetOpen       = errors.New("survey is not open yet")
	ErrClosed           = errors.New("survey is closed")
	ErrAlreadySubmitted = errors.New("a response was already submitted from this address")
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidSchema    = errors.New("invalid question definition")
	ErrInvalidSurvey    = errors.New("invalid survey")
	ErrConflict         = errors.New("survey was modified concurrently")
)

// ValidationError rejects a submitted answer for one question.
type ValidationError struct {
	QuestionID int
	Message    string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

func rejectf(questionID int, format string, args ...any) *ValidationError {
	return &ValidationError{QuestionID: questionID, Message: fmt.Sprintf(format, args...)}
}

// SchemaError reports a malformed question or survey definition.
type SchemaError struct {
	Field   string
	Message string
	kind    error
}

func (e *SchemaError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *SchemaError) Is(target error) bool {
	return target == e.kind
}

func invalidQuestion(field, msg string) *SchemaError {
	return &SchemaError{Field: field, Message: msg, kind: ErrInvalidSchema}
}

func invalidSurvey(field, msg string) *SchemaError {
	return &SchemaError{Field: field, Message: msg, kind: ErrInvalidSurvey}
}
