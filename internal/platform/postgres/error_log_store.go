package postgres

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/flashforge/internal/domain"
	"github.com/phrazzld/flashforge/internal/store"
)

// PostgresGenerationErrorLogStore implements store.GenerationErrorLogStore.
type PostgresGenerationErrorLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresGenerationErrorLogStore creates an error log store on db.
func NewPostgresGenerationErrorLogStore(db store.DBTX, logger *slog.Logger) *PostgresGenerationErrorLogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresGenerationErrorLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "generation_error_log_store")),
	}
}

var _ store.GenerationErrorLogStore = (*PostgresGenerationErrorLogStore)(nil)

// Create implements store.GenerationErrorLogStore.
func (s *PostgresGenerationErrorLogStore) Create(ctx context.Context, entry *domain.GenerationErrorLog) error {
	const query = `
		INSERT INTO generation_error_logs (user_id, model, source_text_hash, source_text_length,
			error_code, error_message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := s.db.QueryRowContext(ctx, query,
		entry.UserID, entry.Model, entry.SourceTextHash, entry.SourceTextLength,
		entry.ErrorCode, entry.ErrorMessage,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to insert generation error log",
			slog.String("user_id", entry.UserID.String()),
			slog.String("error", err.Error()))
		return store.NewStoreError("generation_error_log", "create", "insert failed", MapError(err))
	}
	return nil
}

// List implements store.GenerationErrorLogStore.
func (s *PostgresGenerationErrorLogStore) List(
	ctx context.Context,
	userID uuid.UUID,
	page domain.PageRequest,
) ([]domain.GenerationErrorLog, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM generation_error_logs WHERE user_id = $1`, userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, store.NewStoreError("generation_error_log", "list", "count failed", MapError(err))
	}

	const query = `
		SELECT id, user_id, model, source_text_hash, source_text_length, error_code,
			error_message, created_at
		FROM generation_error_logs
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.QueryContext(ctx, query, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, store.NewStoreError("generation_error_log", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	entries := make([]domain.GenerationErrorLog, 0, page.Limit)
	for rows.Next() {
		var e domain.GenerationErrorLog
		if err := rows.Scan(&e.ID, &e.UserID, &e.Model, &e.SourceTextHash, &e.SourceTextLength,
			&e.ErrorCode, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, 0, store.NewStoreError("generation_error_log", "list", "scan failed", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, store.NewStoreError("generation_error_log", "list", "iteration failed", err)
	}
	return entries, total, nil
}
