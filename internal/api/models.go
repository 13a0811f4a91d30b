package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/flashforge/internal/domain"
)

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GenerateFlashcardsRequest is the body of POST /api/generations. The length
// of SourceText is checked by the generation service.
type GenerateFlashcardsRequest struct {
	SourceText string `json:"source_text" validate:"required"`
}

// FlashcardInput is one flashcard in a batch create request.
type FlashcardInput struct {
	Front        string `json:"front"         validate:"required"`
	Back         string `json:"back"          validate:"required"`
	Source       string `json:"source"        validate:"required,oneof=manual ai_generated ai_edited"`
	GenerationID *int64 `json:"generation_id" validate:"omitempty,gt=0"`
}

// CreateFlashcardsRequest is the body of POST /api/flashcards.
type CreateFlashcardsRequest struct {
	Flashcards []FlashcardInput `json:"flashcards" validate:"required,min=1,max=100,dive"`
}

// CreateFlashcardsResponse lists the saved flashcards.
type CreateFlashcardsResponse struct {
	Flashcards []domain.Flashcard `json:"flashcards"`
}

// UpdateFlashcardRequest is the body of PUT /api/flashcards/{id}. Omitted
// fields are left unchanged.
type UpdateFlashcardRequest struct {
	Front *string `json:"front"`
	Back  *string `json:"back"`
}

func (in FlashcardInput) toDomain() domain.NewFlashcard {
	return domain.NewFlashcard{
		Front:        in.Front,
		Back:         in.Back,
		Source:       domain.FlashcardSource(in.Source),
		GenerationID: in.GenerationID,
	}
}
