package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/phrazzld/flashforge/internal/domain"
)

// GenerationStore persists generation records. Records are append-only.
type GenerationStore interface {
	// Create inserts g and sets g.ID, g.CreatedAt and g.UpdatedAt from the database.
	Create(ctx context.Context, g *domain.Generation) error

	// GetByID retrieves a generation owned by userID.
	// Returns ErrGenerationNotFound if it does not exist or belongs to another user.
	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.Generation, error)

	// List returns one page of userID's generations, newest first, and the total count.
	List(ctx context.Context, userID uuid.UUID, page domain.PageRequest) ([]domain.Generation, int, error)

	// CountOwned returns how many of ids exist and belong to userID.
	CountOwned(ctx context.Context, userID uuid.UUID, ids []int64) (int, error)

	// WithTx returns a GenerationStore that runs on tx.
	WithTx(tx *sql.Tx) GenerationStore
}

// GenerationErrorLogStore persists failed generation attempts. It is append-only.
type GenerationErrorLogStore interface {
	// Create inserts entry and sets entry.ID and entry.CreatedAt.
	Create(ctx context.Context, entry *domain.GenerationErrorLog) error

	// List returns one page of userID's error log entries, newest first, and the total count.
	List(ctx context.Context, userID uuid.UUID, page domain.PageRequest) ([]domain.GenerationErrorLog, int, error)
}
