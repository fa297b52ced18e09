package services

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNormalization means model output could not be turned into usable data after every repair pass.
	// It is logged and counted, never returned to clients.
	ErrNormalization = errors.New("model output could not be normalized")
	ErrCVNotFound    = errors.New("cv not found")
)

// ExtractionError wraps any failure to read text out of an uploaded document.
type ExtractionError struct {
	File  string
	Cause error
}

func (e *ExtractionError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("text extraction failed: %v", e.Cause)
	}
	return fmt.Sprintf("text extraction failed for %s: %v", e.File, e.Cause)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

// ModelCallError is an upstream generation failure. Body holds the raw upstream payload and is only ever logged.
type ModelCallError struct {
	Status    int
	Body      string
	Attempts  int
	Exhausted bool
	Cause     error
}

func (e *ModelCallError) Error() string {
	switch {
	case e.Exhausted:
		return fmt.Sprintf("model call rate limited, gave up after %d attempts", e.Attempts)
	case e.Status > 0:
		return fmt.Sprintf("model call failed with status %d", e.Status)
	case e.Cause != nil:
		return fmt.Sprintf("model call failed: %v", e.Cause)
	default:
		return "model call failed"
	}
}

func (e *ModelCallError) Unwrap() error { return e.Cause }

// Retryable reports whether the upstream asked us to slow down.
func (e *ModelCallError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests && !e.Exhausted
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
