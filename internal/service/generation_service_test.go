package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/flashforge/internal/domain"
	"github.com/phrazzld/flashforge/internal/generation"
	"github.com/phrazzld/flashforge/internal/platform/logger"
	"github.com/phrazzld/flashforge/internal/store"
)

type generationFixture struct {
	client      *MockModelClient
	generations *MockGenerationStore
	errorLogs   *MockGenerationErrorLogStore
	flashcards  *MockFlashcardStore
	service     GenerationService
	logs        *logger.TestLogBuffer
}

// steppingClock returns start on the first call and start+step afterwards.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	calls := 0
	return func() time.Time {
		t := start.Add(time.Duration(calls) * step)
		calls++
		return t
	}
}

func newGenerationFixture(t *testing.T, opts ...GenerationOption) *generationFixture {
	t.Helper()
	log, buf := logger.NewTestLogger()
	f := &generationFixture{
		client:      &MockModelClient{},
		generations: &MockGenerationStore{},
		errorLogs:   &MockGenerationErrorLogStore{},
		flashcards:  &MockFlashcardStore{},
		logs:        buf,
	}
	opts = append([]GenerationOption{
		WithClock(steppingClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 1500*time.Millisecond)),
	}, opts...)

	svc, err := NewGenerationService(f.client, f.generations, f.errorLogs, f.flashcards, log, opts...)
	require.NoError(t, err)
	f.service = svc

	t.Cleanup(func() {
		f.client.AssertExpectations(t)
		f.generations.AssertExpectations(t)
		f.errorLogs.AssertExpectations(t)
		f.flashcards.AssertExpectations(t)
	})
	return f
}

func completion(content string) *generation.RawCompletion {
	return &generation.RawCompletion{
		Choices: []generation.Choice{{Message: generation.TextMessage("assistant", content)}},
	}
}

func sourceText(n int) string {
	return strings.Repeat("x", n)
}

func TestNewGenerationService_RequiresDependencies(t *testing.T) {
	_, err := NewGenerationService(nil, &MockGenerationStore{}, &MockGenerationErrorLogStore{}, &MockFlashcardStore{}, nil)
	assert.Error(t, err)

	_, err = NewGenerationService(&MockModelClient{}, nil, &MockGenerationErrorLogStore{}, &MockFlashcardStore{}, nil)
	assert.Error(t, err)
}

func TestGenerateFlashcards_Success(t *testing.T) {
	f := newGenerationFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	text := sourceText(2000)

	f.client.On("Complete", mock.Anything, mock.MatchedBy(func(req generation.CompletionRequest) bool {
		return req.SystemPrompt == generation.FlashcardsSystemPrompt &&
			req.UserPrompt == text &&
			req.Model == "test/model" &&
			req.Schema.Name() == "StructuredResponse"
	})).Return(completion(`{"flashcards":[{"front":"Q1","back":"A1"},{"front":"Q2","back":"A2"}]}`), nil).Once()

	f.generations.On("Create", mock.Anything, mock.MatchedBy(func(g *domain.Generation) bool {
		return g.UserID == userID &&
			g.Model == "test/model" &&
			g.GeneratedCount == 2 &&
			g.SourceTextHash == domain.Fingerprint(text) &&
			g.SourceTextLength == 2000 &&
			g.GenerationDuration == 1500
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Generation).ID = 42
	}).Return(nil).Once()

	result, err := f.service.GenerateFlashcards(ctx, text, userID)
	require.NoError(t, err)

	assert.Equal(t, int64(42), result.GenerationID)
	assert.Equal(t, 2, result.GeneratedCount)
	require.Len(t, result.Proposals, 2)
	assert.Equal(t, domain.FlashcardProposal{Front: "Q1", Back: "A1", Source: domain.SourceAIGenerated}, result.Proposals[0])
	assert.Equal(t, domain.SourceAIGenerated, result.Proposals[1].Source)
	f.errorLogs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGenerateFlashcards_ModelOverride(t *testing.T) {
	f := newGenerationFixture(t, WithModel("anthropic/claude-3-haiku"))
	userID := uuid.New()

	f.client.On("Complete", mock.Anything, mock.MatchedBy(func(req generation.CompletionRequest) bool {
		return req.Model == "anthropic/claude-3-haiku"
	})).Return(completion(`{"flashcards":[{"front":"Q","back":"A"}]}`), nil).Once()
	f.generations.On("Create", mock.Anything, mock.MatchedBy(func(g *domain.Generation) bool {
		return g.Model == "anthropic/claude-3-haiku"
	})).Return(nil).Once()

	_, err := f.service.GenerateFlashcards(context.Background(), sourceText(1000), userID)
	require.NoError(t, err)
}

func TestGenerateFlashcards_SourceTextLength(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{"too short", 999, true},
		{"minimum", 1000, false},
		{"maximum", 10000, false},
		{"too long", 10001, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGenerationFixture(t)
			if !tt.wantErr {
				f.client.On("Complete", mock.Anything, mock.Anything).
					Return(completion(`{"flashcards":[{"front":"Q","back":"A"}]}`), nil).Once()
				f.generations.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
			}

			_, err := f.service.GenerateFlashcards(context.Background(), sourceText(tt.length), uuid.New())
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrSourceTextLength)
				assert.ErrorIs(t, err, domain.ErrValidation)
				assert.NotErrorIs(t, err, ErrGenerationFailed)
				f.client.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestGenerateFlashcards_CountsCharactersNotBytes(t *testing.T) {
	f := newGenerationFixture(t)
	text := strings.Repeat("ż", 1000)

	f.client.On("Complete", mock.Anything, mock.Anything).
		Return(completion(`{"flashcards":[{"front":"Q","back":"A"}]}`), nil).Once()
	f.generations.On("Create", mock.Anything, mock.MatchedBy(func(g *domain.Generation) bool {
		return g.SourceTextLength == 1000
	})).Return(nil).Once()

	_, err := f.service.GenerateFlashcards(context.Background(), text, uuid.New())
	require.NoError(t, err)
}

func TestGenerateFlashcards_ProviderFailure(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantMsg  string
	}{
		{
			name:     "network",
			err:      &generation.ProviderError{Kind: generation.ErrNetwork, Message: "dial tcp: connection refused"},
			wantCode: "network",
			wantMsg:  "dial tcp: connection refused",
		},
		{
			name:     "rate limit",
			err:      &generation.ProviderError{Kind: generation.ErrRateLimit, StatusCode: 429, Message: "Rate limit exceeded"},
			wantCode: "rate_limit",
			wantMsg:  "Rate limit exceeded",
		},
		{
			name: "authentication echoes the key",
			err: &generation.ProviderError{
				Kind:       generation.ErrAuthentication,
				StatusCode: 401,
				Message:    "Invalid key sk-or-v1-abcdefghijklmnopqrstuvwxyz",
			},
			wantCode: "authentication",
			wantMsg:  "Invalid key [REDACTED_KEY]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGenerationFixture(t)
			userID := uuid.New()
			text := sourceText(1500)

			f.client.On("Complete", mock.Anything, mock.Anything).Return(nil, tt.err).Once()
			f.errorLogs.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.GenerationErrorLog) bool {
				return e.UserID == userID &&
					e.Model == "test/model" &&
					e.SourceTextHash == domain.Fingerprint(text) &&
					e.SourceTextLength == 1500 &&
					e.ErrorCode == tt.wantCode &&
					e.ErrorMessage == tt.wantMsg
			})).Return(nil).Once()

			result, err := f.service.GenerateFlashcards(context.Background(), text, userID)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, ErrGenerationFailed)

			var serviceErr *GenerationServiceError
			require.ErrorAs(t, err, &serviceErr)
			assert.Equal(t, StageCompletion, serviceErr.Stage)
			assert.Same(t, tt.err, serviceErr.Cause())
			f.generations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

			var providerErr *generation.ProviderError
			assert.False(t, errors.As(err, &providerErr), "provider error must not be reachable from the returned error")
			assert.NotContains(t, err.Error(), tt.err.(*generation.ProviderError).Message)
		})
	}
}

func TestGenerateFlashcards_ExtractionFailure(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"empty list", `{"flashcards":[]}`, "Schema validation failed: "},
		{"not json", `here are your cards`, "Failed to parse or validate response: "},
		{"blank", `  `, generation.MsgEmptyContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGenerationFixture(t)

			f.client.On("Complete", mock.Anything, mock.Anything).Return(completion(tt.content), nil).Once()
			f.errorLogs.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.GenerationErrorLog) bool {
				return e.ErrorCode == "schema_validation" && strings.HasPrefix(e.ErrorMessage, tt.wantMsg)
			})).Return(nil).Once()

			_, err := f.service.GenerateFlashcards(context.Background(), sourceText(1200), uuid.New())
			assert.ErrorIs(t, err, ErrGenerationFailed)
			assert.NotErrorIs(t, err, generation.ErrSchemaValidation)

			var serviceErr *GenerationServiceError
			require.ErrorAs(t, err, &serviceErr)
			assert.Equal(t, StageExtraction, serviceErr.Stage)
			assert.ErrorIs(t, serviceErr.Cause(), generation.ErrSchemaValidation)
		})
	}
}

func TestGenerateFlashcards_PersistenceFailure(t *testing.T) {
	f := newGenerationFixture(t)

	f.client.On("Complete", mock.Anything, mock.Anything).
		Return(completion(`{"flashcards":[{"front":"Q","back":"A"}]}`), nil).Once()
	f.generations.On("Create", mock.Anything, mock.Anything).
		Return(store.NewStoreError("generation", "create", "insert failed", errors.New("connection reset"))).Once()
	f.errorLogs.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.GenerationErrorLog) bool {
		return e.ErrorCode == "persistence"
	})).Return(nil).Once()

	result, err := f.service.GenerateFlashcards(context.Background(), sourceText(1200), uuid.New())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrGenerationFailed)

	var serviceErr *GenerationServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, StagePersistence, serviceErr.Stage)
}

func TestGenerateFlashcards_ErrorLogFailureIsSwallowed(t *testing.T) {
	f := newGenerationFixture(t)

	f.client.On("Complete", mock.Anything, mock.Anything).
		Return(nil, &generation.ProviderError{Kind: generation.ErrServer, StatusCode: 503, Message: "overloaded"}).Once()
	f.errorLogs.On("Create", mock.Anything, mock.Anything).Return(errors.New("database unavailable")).Once()

	_, err := f.service.GenerateFlashcards(context.Background(), sourceText(1200), uuid.New())
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.NotEmpty(t, f.logs.FindByMessage("failed to record generation error"))
}

func TestGenerateFlashcards_ErrorLogSurvivesCancellation(t *testing.T) {
	f := newGenerationFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	f.client.On("Complete", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		cancel()
	}).Return(nil, &generation.ProviderError{Kind: generation.ErrNetwork, Err: context.Canceled}).Once()
	f.errorLogs.On("Create", mock.MatchedBy(func(ctx context.Context) bool {
		_, hasDeadline := ctx.Deadline()
		return ctx.Err() == nil && hasDeadline
	}), mock.Anything).Return(nil).Once()

	_, err := f.service.GenerateFlashcards(ctx, sourceText(1200), uuid.New())
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerateFlashcards_NotIdempotent(t *testing.T) {
	f := newGenerationFixture(t)
	userID := uuid.New()
	text := sourceText(1500)

	f.client.On("Complete", mock.Anything, mock.Anything).
		Return(completion(`{"flashcards":[{"front":"Q","back":"A"}]}`), nil).Twice()
	ids := []int64{1, 2}
	call := 0
	f.generations.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Generation).ID = ids[call]
		call++
	}).Return(nil).Twice()

	first, err := f.service.GenerateFlashcards(context.Background(), text, userID)
	require.NoError(t, err)
	second, err := f.service.GenerateFlashcards(context.Background(), text, userID)
	require.NoError(t, err)

	assert.NotEqual(t, first.GenerationID, second.GenerationID)
}

func TestGenerateFlashcards_InvalidUser(t *testing.T) {
	f := newGenerationFixture(t)
	_, err := f.service.GenerateFlashcards(context.Background(), sourceText(1200), uuid.Nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListGenerations(t *testing.T) {
	f := newGenerationFixture(t)
	userID := uuid.New()

	f.generations.On("List", mock.Anything, userID, domain.PageRequest{Page: 1, Limit: 10}).
		Return([]domain.Generation{{ID: 1}}, 11, nil).Once()

	page, err := f.service.ListGenerations(context.Background(), userID, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.Pagination{Page: 1, Limit: 10, Total: 11}, page.Pagination)
	assert.Len(t, page.Data, 1)

	_, err = f.service.ListGenerations(context.Background(), userID, domain.PageRequest{Limit: 101})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetGeneration(t *testing.T) {
	userID := uuid.New()

	t.Run("with flashcards", func(t *testing.T) {
		f := newGenerationFixture(t)
		f.generations.On("GetByID", mock.Anything, userID, int64(5)).
			Return(&domain.Generation{ID: 5, UserID: userID}, nil).Once()
		f.flashcards.On("ListByGeneration", mock.Anything, userID, int64(5)).
			Return([]domain.Flashcard{
				{ID: 9, Source: domain.SourceAIGenerated},
				{ID: 10, Source: domain.SourceAIEdited},
				{ID: 11, Source: domain.SourceAIEdited},
			}, nil).Once()

		detail, err := f.service.GetGeneration(context.Background(), userID, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(5), detail.ID)
		assert.Len(t, detail.Flashcards, 3)
		assert.Equal(t, 1, detail.AcceptedUneditedCount)
		assert.Equal(t, 2, detail.AcceptedEditedCount)
	})

	t.Run("no flashcards yet", func(t *testing.T) {
		f := newGenerationFixture(t)
		f.generations.On("GetByID", mock.Anything, userID, int64(5)).
			Return(&domain.Generation{ID: 5}, nil).Once()
		f.flashcards.On("ListByGeneration", mock.Anything, userID, int64(5)).Return(nil, nil).Once()

		detail, err := f.service.GetGeneration(context.Background(), userID, 5)
		require.NoError(t, err)
		assert.NotNil(t, detail.Flashcards)
	})

	t.Run("not found", func(t *testing.T) {
		f := newGenerationFixture(t)
		f.generations.On("GetByID", mock.Anything, userID, int64(5)).
			Return(nil, store.ErrGenerationNotFound).Once()

		_, err := f.service.GetGeneration(context.Background(), userID, 5)
		assert.ErrorIs(t, err, ErrGenerationNotFound)
	})
}

func TestListGenerationErrors(t *testing.T) {
	f := newGenerationFixture(t)
	userID := uuid.New()

	f.errorLogs.On("List", mock.Anything, userID, domain.PageRequest{Page: 2, Limit: 5}).
		Return(nil, 0, errors.New("boom")).Once()

	_, err := f.service.ListGenerationErrors(context.Background(), userID, domain.PageRequest{Page: 2, Limit: 5})
	var serviceErr *ServiceError
	assert.ErrorAs(t, err, &serviceErr)
}
