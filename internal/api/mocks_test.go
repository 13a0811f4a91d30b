package api

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/phrazzld/flashforge/internal/domain"
	"github.com/phrazzld/flashforge/internal/service/auth"
	"github.com/phrazzld/flashforge/internal/store"
)

type MockGenerationService struct {
	mock.Mock
}

func (m *MockGenerationService) GenerateFlashcards(
	ctx context.Context,
	sourceText string,
	userID uuid.UUID,
) (*domain.GenerationResult, error) {
	args := m.Called(ctx, sourceText, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GenerationResult), args.Error(1)
}

func (m *MockGenerationService) ListGenerations(
	ctx context.Context,
	userID uuid.UUID,
	page domain.PageRequest,
) (domain.Page[domain.Generation], error) {
	args := m.Called(ctx, userID, page)
	return args.Get(0).(domain.Page[domain.Generation]), args.Error(1)
}

func (m *MockGenerationService) GetGeneration(
	ctx context.Context,
	userID uuid.UUID,
	id int64,
) (*domain.GenerationDetail, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GenerationDetail), args.Error(1)
}

func (m *MockGenerationService) ListGenerationErrors(
	ctx context.Context,
	userID uuid.UUID,
	page domain.PageRequest,
) (domain.Page[domain.GenerationErrorLog], error) {
	args := m.Called(ctx, userID, page)
	return args.Get(0).(domain.Page[domain.GenerationErrorLog]), args.Error(1)
}

type MockFlashcardService struct {
	mock.Mock
}

func (m *MockFlashcardService) CreateFlashcards(
	ctx context.Context,
	userID uuid.UUID,
	inputs []domain.NewFlashcard,
) ([]domain.Flashcard, error) {
	args := m.Called(ctx, userID, inputs)
	cards, _ := args.Get(0).([]domain.Flashcard)
	return cards, args.Error(1)
}

func (m *MockFlashcardService) ListFlashcards(
	ctx context.Context,
	userID uuid.UUID,
	filter domain.FlashcardFilter,
) (domain.Page[domain.Flashcard], error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).(domain.Page[domain.Flashcard]), args.Error(1)
}

func (m *MockFlashcardService) GetFlashcard(ctx context.Context, userID uuid.UUID, id int64) (*domain.Flashcard, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flashcard), args.Error(1)
}

func (m *MockFlashcardService) UpdateFlashcard(
	ctx context.Context,
	userID uuid.UUID,
	id int64,
	front, back *string,
) (*domain.Flashcard, error) {
	args := m.Called(ctx, userID, id, front, back)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flashcard), args.Error(1)
}

func (m *MockFlashcardService) DeleteFlashcard(ctx context.Context, userID uuid.UUID, id int64) error {
	return m.Called(ctx, userID, id).Error(0)
}

// memoryUserStore is an in-memory store.UserStore.
type memoryUserStore struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	createErr error
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: map[string]*domain.User{}}
}

func (s *memoryUserStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if user.HashedPassword == "" {
		return store.ErrInvalidEntity
	}
	key := strings.ToLower(user.Email)
	if _, exists := s.users[key]; exists {
		return store.ErrEmailExists
	}
	copied := *user
	s.users[key] = &copied
	return nil
}

func (s *memoryUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *memoryUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *memoryUserStore) WithTx(*sql.Tx) store.UserStore {
	return s
}

// stubJWTService issues "token-<user id>" tokens.
type stubJWTService struct {
	expiresAt time.Time
	err       error
}

func (s *stubJWTService) GenerateToken(_ context.Context, userID uuid.UUID) (string, time.Time, error) {
	if s.err != nil {
		return "", time.Time{}, s.err
	}
	return "token-" + userID.String(), s.expiresAt, nil
}

func (s *stubJWTService) ValidateToken(_ context.Context, token string) (*auth.Claims, error) {
	id, err := uuid.Parse(strings.TrimPrefix(token, "token-"))
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{UserID: id}, nil
}

// plainPasswords "hashes" by prefixing, so tests stay fast.
type plainPasswords struct{}

func (plainPasswords) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (plainPasswords) Compare(hashed, password string) error {
	if hashed != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}
