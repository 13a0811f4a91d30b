package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/phrazzld/flashforge/internal/domain"
	"github.com/phrazzld/flashforge/internal/generation"
	"github.com/phrazzld/flashforge/internal/store"
)

// MockModelClient mocks generation.ModelClient.
type MockModelClient struct {
	mock.Mock
}

func (m *MockModelClient) Complete(
	ctx context.Context,
	req generation.CompletionRequest,
) (*generation.RawCompletion, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generation.RawCompletion), args.Error(1)
}

func (m *MockModelClient) DefaultModel() string {
	return "test/model"
}

// MockGenerationStore mocks store.GenerationStore. WithTx returns the mock itself.
type MockGenerationStore struct {
	mock.Mock
}

func (m *MockGenerationStore) Create(ctx context.Context, g *domain.Generation) error {
	return m.Called(ctx, g).Error(0)
}

func (m *MockGenerationStore) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.Generation, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Generation), args.Error(1)
}

func (m *MockGenerationStore) List(
	ctx context.Context,
	userID uuid.UUID,
	page domain.PageRequest,
) ([]domain.Generation, int, error) {
	args := m.Called(ctx, userID, page)
	items, _ := args.Get(0).([]domain.Generation)
	return items, args.Int(1), args.Error(2)
}

func (m *MockGenerationStore) CountOwned(ctx context.Context, userID uuid.UUID, ids []int64) (int, error) {
	args := m.Called(ctx, userID, ids)
	return args.Int(0), args.Error(1)
}

func (m *MockGenerationStore) WithTx(*sql.Tx) store.GenerationStore {
	return m
}

// MockGenerationErrorLogStore mocks store.GenerationErrorLogStore.
type MockGenerationErrorLogStore struct {
	mock.Mock
}

func (m *MockGenerationErrorLogStore) Create(ctx context.Context, entry *domain.GenerationErrorLog) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockGenerationErrorLogStore) List(
	ctx context.Context,
	userID uuid.UUID,
	page domain.PageRequest,
) ([]domain.GenerationErrorLog, int, error) {
	args := m.Called(ctx, userID, page)
	items, _ := args.Get(0).([]domain.GenerationErrorLog)
	return items, args.Int(1), args.Error(2)
}

// MockFlashcardStore mocks store.FlashcardStore. WithTx returns the mock itself.
type MockFlashcardStore struct {
	mock.Mock
}

func (m *MockFlashcardStore) CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error {
	return m.Called(ctx, cards).Error(0)
}

func (m *MockFlashcardStore) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.Flashcard, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flashcard), args.Error(1)
}

func (m *MockFlashcardStore) List(
	ctx context.Context,
	userID uuid.UUID,
	filter domain.FlashcardFilter,
) ([]domain.Flashcard, int, error) {
	args := m.Called(ctx, userID, filter)
	items, _ := args.Get(0).([]domain.Flashcard)
	return items, args.Int(1), args.Error(2)
}

func (m *MockFlashcardStore) ListByGeneration(
	ctx context.Context,
	userID uuid.UUID,
	generationID int64,
) ([]domain.Flashcard, error) {
	args := m.Called(ctx, userID, generationID)
	items, _ := args.Get(0).([]domain.Flashcard)
	return items, args.Error(1)
}

func (m *MockFlashcardStore) Update(ctx context.Context, card *domain.Flashcard) error {
	return m.Called(ctx, card).Error(0)
}

func (m *MockFlashcardStore) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockFlashcardStore) WithTx(*sql.Tx) store.FlashcardStore {
	return m
}
