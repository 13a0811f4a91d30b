package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/phrazzld/flashforge/internal/domain"
	"github.com/phrazzld/flashforge/internal/store"
)

const flashcardColumns = `id, user_id, generation_id, front, back, source, created_at, updated_at`

// flashcardSortColumns maps a normalized sort key to its column.
var flashcardSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"front":      "front",
	"back":       "back",
}

// PostgresFlashcardStore implements store.FlashcardStore.
type PostgresFlashcardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFlashcardStore creates a flashcard store on db.
func NewPostgresFlashcardStore(db store.DBTX, logger *slog.Logger) *PostgresFlashcardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresFlashcardStore{
		db:     db,
		logger: logger.With(slog.String("component", "flashcard_store")),
	}
}

var _ store.FlashcardStore = (*PostgresFlashcardStore)(nil)

// WithTx implements store.FlashcardStore.
func (s *PostgresFlashcardStore) WithTx(tx *sql.Tx) store.FlashcardStore {
	return &PostgresFlashcardStore{db: tx, logger: s.logger}
}

// CreateMultiple implements store.FlashcardStore.
func (s *PostgresFlashcardStore) CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error {
	if len(cards) == 0 {
		return nil
	}

	const query = `
		INSERT INTO flashcards (user_id, generation_id, front, back, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	for i, card := range cards {
		err := s.db.QueryRowContext(ctx, query,
			card.UserID, card.GenerationID, card.Front, card.Back, string(card.Source),
			card.CreatedAt, card.UpdatedAt,
		).Scan(&card.ID, &card.CreatedAt, &card.UpdatedAt)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to insert flashcard",
				slog.Int("index", i),
				slog.String("user_id", card.UserID.String()),
				slog.String("error", err.Error()))
			return store.NewStoreError("flashcard", "create", fmt.Sprintf("insert %d failed", i), MapError(err))
		}
	}

	s.logger.DebugContext(ctx, "flashcards inserted", slog.Int("count", len(cards)))
	return nil
}

// GetByID implements store.FlashcardStore.
func (s *PostgresFlashcardStore) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.Flashcard, error) {
	query := `SELECT ` + flashcardColumns + ` FROM flashcards WHERE id = $1 AND user_id = $2`

	card, err := scanFlashcard(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrFlashcardNotFound
		}
		return nil, store.NewStoreError("flashcard", "get", "query failed", MapError(err))
	}
	return card, nil
}

// List implements store.FlashcardStore.
func (s *PostgresFlashcardStore) List(
	ctx context.Context,
	userID uuid.UUID,
	filter domain.FlashcardFilter,
) ([]domain.Flashcard, int, error) {
	sortColumn, ok := flashcardSortColumns[filter.Sort]
	if !ok {
		return nil, 0, fmt.Errorf("%w: unsupported sort column %q", store.ErrInvalidEntity, filter.Sort)
	}
	order := "DESC"
	if filter.Order == domain.OrderAsc {
		order = "ASC"
	}

	where := []string{"user_id = $1"}
	args := []any{userID}
	if filter.Source != nil {
		args = append(args, string(*filter.Source))
		where = append(where, fmt.Sprintf("source = $%d", len(args)))
	}
	if filter.GenerationID != nil {
		args = append(args, *filter.GenerationID)
		where = append(where, fmt.Sprintf("generation_id = $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM flashcards WHERE `+whereClause, args...).
		Scan(&total); err != nil {
		return nil, 0, store.NewStoreError("flashcard", "list", "count failed", MapError(err))
	}

	query := fmt.Sprintf(`SELECT %s FROM flashcards WHERE %s ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d`,
		flashcardColumns, whereClause, sortColumn, order, order, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset())

	cards, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, 0, store.NewStoreError("flashcard", "list", "query failed", err)
	}
	return cards, total, nil
}

// ListByGeneration implements store.FlashcardStore.
func (s *PostgresFlashcardStore) ListByGeneration(
	ctx context.Context,
	userID uuid.UUID,
	generationID int64,
) ([]domain.Flashcard, error) {
	query := `SELECT ` + flashcardColumns + ` FROM flashcards
		WHERE user_id = $1 AND generation_id = $2
		ORDER BY created_at ASC, id ASC`
	cards, err := s.query(ctx, query, userID, generationID)
	if err != nil {
		return nil, store.NewStoreError("flashcard", "list", "query by generation failed", err)
	}
	return cards, nil
}

// Update implements store.FlashcardStore.
func (s *PostgresFlashcardStore) Update(ctx context.Context, card *domain.Flashcard) error {
	const query = `
		UPDATE flashcards
		SET front = $1, back = $2, source = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6
	`
	result, err := s.db.ExecContext(ctx, query,
		card.Front, card.Back, string(card.Source), card.UpdatedAt, card.ID, card.UserID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update flashcard",
			slog.Int64("flashcard_id", card.ID),
			slog.String("error", err.Error()))
		return store.NewStoreError("flashcard", "update", "update failed",
			fmt.Errorf("%w: %w", store.ErrUpdateFailed, MapError(err)))
	}
	return CheckRowsAffected(result, store.ErrFlashcardNotFound)
}

// Delete implements store.FlashcardStore.
func (s *PostgresFlashcardStore) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM flashcards WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to delete flashcard",
			slog.Int64("flashcard_id", id),
			slog.String("error", err.Error()))
		return store.NewStoreError("flashcard", "delete", "delete failed",
			fmt.Errorf("%w: %w", store.ErrDeleteFailed, MapError(err)))
	}
	return CheckRowsAffected(result, store.ErrFlashcardNotFound)
}

func (s *PostgresFlashcardStore) query(ctx context.Context, query string, args ...any) ([]domain.Flashcard, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	cards := []domain.Flashcard{}
	for rows.Next() {
		card, err := scanFlashcard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *card)
	}
	return cards, rows.Err()
}

func scanFlashcard(row rowScanner) (*domain.Flashcard, error) {
	var (
		card         domain.Flashcard
		generationID sql.NullInt64
		source       string
	)
	err := row.Scan(&card.ID, &card.UserID, &generationID, &card.Front, &card.Back, &source,
		&card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if generationID.Valid {
		id := generationID.Int64
		card.GenerationID = &id
	}
	card.Source = domain.FlashcardSource(source)
	return &card, nil
}
