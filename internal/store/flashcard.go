package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/phrazzld/flashforge/internal/domain"
)

// FlashcardStore defines the interface for flashcard persistence.
// Every read and write is scoped to the owning user.
type FlashcardStore interface {
	// CreateMultiple inserts cards and sets their IDs and timestamps.
	// It should run inside RunInTransaction so a batch is saved atomically.
	CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error

	// GetByID retrieves a flashcard owned by userID.
	// Returns ErrFlashcardNotFound if absent or owned by another user.
	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.Flashcard, error)

	// List returns one page of flashcards matching filter and the total count.
	// filter must already be normalized.
	List(ctx context.Context, userID uuid.UUID, filter domain.FlashcardFilter) ([]domain.Flashcard, int, error)

	// ListByGeneration returns every flashcard userID saved from generationID.
	ListByGeneration(ctx context.Context, userID uuid.UUID, generationID int64) ([]domain.Flashcard, error)

	// Update saves front, back, source and updated_at of card.
	// Returns ErrFlashcardNotFound if absent or owned by another user.
	Update(ctx context.Context, card *domain.Flashcard) error

	// Delete removes a flashcard owned by userID.
	// Returns ErrFlashcardNotFound if absent or owned by another user.
	Delete(ctx context.Context, userID uuid.UUID, id int64) error

	// WithTx returns a FlashcardStore that runs on tx.
	WithTx(tx *sql.Tx) FlashcardStore
}
