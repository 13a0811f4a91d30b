package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/flashforge/internal/domain"
	"github.com/phrazzld/flashforge/internal/store"
)

// Common service errors. Callers match them with errors.Is.
var (
	// ErrGenerationFailed is the only failure GenerateFlashcards reports for a
	// provider, extraction or persistence problem. The cause is logged and
	// recorded in the generation error log, never returned to clients.
	ErrGenerationFailed = errors.New("failed to generate flashcards")

	// ErrGenerationNotFound indicates the generation does not exist or is
	// owned by another user.
	ErrGenerationNotFound = errors.New("generation not found")

	// ErrFlashcardNotFound indicates the flashcard does not exist or is owned
	// by another user.
	ErrFlashcardNotFound = errors.New("flashcard not found")

	// ErrUnknownGeneration is returned when new flashcards reference a
	// generation the user does not own.
	ErrUnknownGeneration = fmt.Errorf("%w: referenced generation does not exist", domain.ErrValidation)

	// ErrEmptyUpdate is returned when an update changes no field.
	ErrEmptyUpdate = fmt.Errorf("%w: front or back must be provided", domain.ErrValidation)
)

// GenerationServiceError reports a failed generation. It matches only
// ErrGenerationFailed; the provider, extraction or store cause is reachable
// through Cause for logging and is not part of the error chain.
type GenerationServiceError struct {
	// Stage is the pipeline step that failed: "completion", "extraction" or "persistence".
	Stage string
	cause error
}

// NewGenerationServiceError creates a GenerationServiceError for stage.
func NewGenerationServiceError(stage string, cause error) *GenerationServiceError {
	return &GenerationServiceError{Stage: stage, cause: cause}
}

// Error implements the error interface. It never includes the cause.
func (e *GenerationServiceError) Error() string {
	return fmt.Sprintf("%v (%s)", ErrGenerationFailed, e.Stage)
}

// Unwrap returns ErrGenerationFailed.
func (e *GenerationServiceError) Unwrap() error {
	return ErrGenerationFailed
}

// Cause returns the underlying failure.
func (e *GenerationServiceError) Cause() error {
	return e.cause
}

// ServiceError wraps unexpected failures of the read and flashcard operations.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "list_flashcards").
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// wrapError maps store sentinels to service sentinels and passes validation
// errors through; anything else becomes a *ServiceError.
func wrapError(operation, message string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrFlashcardNotFound):
		return ErrFlashcardNotFound
	case errors.Is(err, store.ErrGenerationNotFound):
		return ErrGenerationNotFound
	case errors.Is(err, domain.ErrValidation):
		return err
	}
	return &ServiceError{Operation: operation, Message: message, Err: err}
}
