// Package service contains the application use cases. It orchestrates the
// model client, the response extractor and the stores defined in
// internal/store to generate flashcard proposals and to manage the flashcards
// a user keeps.
//
// Services receive their dependencies through constructor injection and
// depend only on interfaces, never on a concrete provider or database.
//
// Error handling:
//   - Expected conditions are returned as sentinel errors (ErrGenerationFailed,
//     ErrFlashcardNotFound, ...) so callers can use errors.Is.
//   - Input problems wrap domain.ErrValidation.
//   - Unexpected failures are wrapped in a service error type that keeps the
//     cause for logging; the API layer maps them to safe responses.
package service
