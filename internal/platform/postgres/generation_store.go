package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/flashforge/internal/domain"
	"github.com/phrazzld/flashforge/internal/store"
)

const generationColumns = `id, user_id, model, generated_count, source_text_hash,
	source_text_length, generation_duration, created_at, updated_at`

// PostgresGenerationStore implements store.GenerationStore.
type PostgresGenerationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresGenerationStore creates a generation store on db. If logger is
// nil, slog.Default() is used.
func NewPostgresGenerationStore(db store.DBTX, logger *slog.Logger) *PostgresGenerationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresGenerationStore{
		db:     db,
		logger: logger.With(slog.String("component", "generation_store")),
	}
}

var _ store.GenerationStore = (*PostgresGenerationStore)(nil)

// WithTx implements store.GenerationStore.
func (s *PostgresGenerationStore) WithTx(tx *sql.Tx) store.GenerationStore {
	return &PostgresGenerationStore{db: tx, logger: s.logger}
}

// Create implements store.GenerationStore.
func (s *PostgresGenerationStore) Create(ctx context.Context, g *domain.Generation) error {
	const query = `
		INSERT INTO generations (user_id, model, generated_count, source_text_hash,
			source_text_length, generation_duration)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		g.UserID, g.Model, g.GeneratedCount, g.SourceTextHash, g.SourceTextLength, g.GenerationDuration,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to insert generation",
			slog.String("user_id", g.UserID.String()),
			slog.String("error", err.Error()))
		return store.NewStoreError("generation", "create", "insert failed", MapError(err))
	}
	return nil
}

// GetByID implements store.GenerationStore.
func (s *PostgresGenerationStore) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations WHERE id = $1 AND user_id = $2`

	g, err := scanGeneration(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrGenerationNotFound
		}
		return nil, store.NewStoreError("generation", "get", "query failed", MapError(err))
	}
	return g, nil
}

// List implements store.GenerationStore.
func (s *PostgresGenerationStore) List(
	ctx context.Context,
	userID uuid.UUID,
	page domain.PageRequest,
) ([]domain.Generation, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM generations WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, store.NewStoreError("generation", "list", "count failed", MapError(err))
	}

	query := `SELECT ` + generationColumns + ` FROM generations
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := s.db.QueryContext(ctx, query, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, store.NewStoreError("generation", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	generations := make([]domain.Generation, 0, page.Limit)
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, 0, store.NewStoreError("generation", "list", "scan failed", err)
		}
		generations = append(generations, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, store.NewStoreError("generation", "list", "iteration failed", err)
	}
	return generations, total, nil
}

// CountOwned implements store.GenerationStore.
func (s *PostgresGenerationStore) CountOwned(ctx context.Context, userID uuid.UUID, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM generations WHERE user_id = $1 AND id = ANY($2)`,
		userID, ids,
	).Scan(&n)
	if err != nil {
		return 0, store.NewStoreError("generation", "count", "query failed", MapError(err))
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (*domain.Generation, error) {
	var g domain.Generation
	err := row.Scan(&g.ID, &g.UserID, &g.Model, &g.GeneratedCount,
		&g.SourceTextHash, &g.SourceTextLength, &g.GenerationDuration, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
