package postgres_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/flashforge/internal/domain"
	"github.com/phrazzld/flashforge/internal/platform/postgres"
	"github.com/phrazzld/flashforge/internal/store"
)

var generationRowColumns = []string{
	"id", "user_id", "model", "generated_count", "source_text_hash", "source_text_length", "generation_duration", "created_at", "updated_at",
}

const testHash = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

func TestPostgresGenerationStore_Create(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	g := &domain.Generation{
		UserID:             userID,
		Model:              "openai/gpt-4o-mini",
		GeneratedCount:     2,
		SourceTextHash:     testHash,
		SourceTextLength:   2000,
		GenerationDuration: 1500,
	}

	t.Run("sets id and timestamps", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("INSERT INTO generations").
			WithArgs(userID, g.Model, 2, testHash, 2000, 1500).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(42, created, created))

		s := postgres.NewPostgresGenerationStore(db, nil)
		require.NoError(t, s.Create(ctx, g))
		assert.Equal(t, int64(42), g.ID)
		assert.Equal(t, created, g.CreatedAt)
	})

	t.Run("check violation maps to invalid entity", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("INSERT INTO generations").WillReturnError(newPgError("23514"))

		err := postgres.NewPostgresGenerationStore(db, nil).Create(ctx, g)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})
}

func TestPostgresGenerationStore_GetByID(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM generations WHERE id = \\$1 AND user_id = \\$2").
			WithArgs(int64(7), userID).
			WillReturnRows(sqlmock.NewRows(generationRowColumns).
				AddRow(7, userID.String(), "m", 3, testHash, 1200, 900, now, now))

		g, err := postgres.NewPostgresGenerationStore(db, nil).GetByID(ctx, userID, 7)
		require.NoError(t, err)
		assert.Equal(t, 3, g.GeneratedCount)
		assert.Equal(t, 1200, g.SourceTextLength)
		assert.Equal(t, 900, g.GenerationDuration)
	})

	t.Run("not owned", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM generations").WillReturnError(sql.ErrNoRows)

		_, err := postgres.NewPostgresGenerationStore(db, nil).GetByID(ctx, userID, 7)
		assert.ErrorIs(t, err, store.ErrGenerationNotFound)
	})
}

func TestPostgresGenerationStore_List(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now().UTC()
	page := domain.PageRequest{Page: 2, Limit: 5}

	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM generations")).WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))
	mock.ExpectQuery("ORDER BY created_at DESC").WithArgs(userID, 5, 5).
		WillReturnRows(sqlmock.NewRows(generationRowColumns).
			AddRow(1, userID.String(), "m", 3, testHash, 1200, 900, now, now))

	items, total, err := postgres.NewPostgresGenerationStore(db, nil).List(ctx, userID, page)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ID)
}

func TestPostgresGenerationStore_CountOwned(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("empty ids skip the query", func(t *testing.T) {
		db, _ := newMockDB(t)
		n, err := postgres.NewPostgresGenerationStore(db, nil).CountOwned(ctx, userID, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("counts owned ids", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("id = ANY($2)")).
			WithArgs(userID, []int64{1, 2}).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		n, err := postgres.NewPostgresGenerationStore(db, nil).CountOwned(ctx, userID, []int64{1, 2})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestPostgresGenerationErrorLogStore(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now().UTC()

	t.Run("create", func(t *testing.T) {
		db, mock := newMockDB(t)
		entry := &domain.GenerationErrorLog{
			UserID:           userID,
			Model:            "m",
			SourceTextHash:   testHash,
			SourceTextLength: 1500,
			ErrorCode:        "network",
			ErrorMessage:     "connection refused",
		}
		mock.ExpectQuery("INSERT INTO generation_error_logs").
			WithArgs(userID, "m", testHash, 1500, "network", "connection refused").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(9, now))

		require.NoError(t, postgres.NewPostgresGenerationErrorLogStore(db, nil).Create(ctx, entry))
		assert.Equal(t, int64(9), entry.ID)
	})

	t.Run("create failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("INSERT INTO generation_error_logs").WillReturnError(newPgError("23503"))

		err := postgres.NewPostgresGenerationErrorLogStore(db, nil).Create(ctx, &domain.GenerationErrorLog{})
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("list", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM generation_error_logs")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery("FROM generation_error_logs").WithArgs(userID, 10, 0).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "user_id", "model", "source_text_hash", "source_text_length",
				"error_code", "error_message", "created_at",
			}).AddRow(9, userID.String(), "m", testHash, 1500, "rate_limit", "slow down", now))

		entries, total, err := postgres.NewPostgresGenerationErrorLogStore(db, nil).
			List(ctx, userID, domain.PageRequest{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, entries, 1)
		assert.Equal(t, "rate_limit", entries[0].ErrorCode)
	})
}
