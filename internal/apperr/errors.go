package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no extra detail.
var (
	// ErrNotFound is returned for unknown or deleted session ids.
	ErrNotFound = errors.New("session not found")

	// ErrEmptyContext is returned when chat is attempted before any
	// document has been indexed for the session.
	ErrEmptyContext = errors.New("no document has been uploaded for this session")
)

// ValidationError reports rejected input: wrong file type, oversized
// upload, empty extracted text, malformed request body.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string { return e.Reason }

// EmbeddingServiceError wraps failures of the external embedding service.
type EmbeddingServiceError struct {
	Err error
}

func (e EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding service: %v", e.Err)
}

func (e EmbeddingServiceError) Unwrap() error { return e.Err }

// LLMServiceError wraps failures of the external LLM endpoint.
type LLMServiceError struct {
	Err error
}

func (e LLMServiceError) Error() string {
	return fmt.Sprintf("llm service: %v", e.Err)
}

func (e LLMServiceError) Unwrap() error { return e.Err }

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...interface{}) error {
	return ValidationError{Reason: fmt.Sprintf(format, args...)}
}
