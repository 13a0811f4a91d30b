package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/flashforge/internal/domain"
	"github.com/phrazzld/flashforge/internal/store"
)

// MaxFlashcardBatch is the largest number of flashcards CreateFlashcards accepts.
const MaxFlashcardBatch = 100

// FlashcardService manages the flashcards a user keeps, including proposals
// saved from a generation.
type FlashcardService interface {
	// CreateFlashcards saves a batch atomically. AI flashcards must reference
	// a generation owned by userID. Generation records are never modified.
	CreateFlashcards(ctx context.Context, userID uuid.UUID, inputs []domain.NewFlashcard) ([]domain.Flashcard, error)

	// ListFlashcards returns one page of the user's flashcards.
	ListFlashcards(
		ctx context.Context,
		userID uuid.UUID,
		filter domain.FlashcardFilter,
	) (domain.Page[domain.Flashcard], error)

	// GetFlashcard returns a flashcard owned by userID.
	GetFlashcard(ctx context.Context, userID uuid.UUID, id int64) (*domain.Flashcard, error)

	// UpdateFlashcard changes front and/or back. A nil value leaves the field
	// unchanged.
	UpdateFlashcard(ctx context.Context, userID uuid.UUID, id int64, front, back *string) (*domain.Flashcard, error)

	// DeleteFlashcard removes a flashcard owned by userID.
	DeleteFlashcard(ctx context.Context, userID uuid.UUID, id int64) error
}

type flashcardService struct {
	db          store.TxBeginner
	flashcards  store.FlashcardStore
	generations store.GenerationStore
	logger      *slog.Logger
	now         func() time.Time
}

// NewFlashcardService creates a FlashcardService.
func NewFlashcardService(
	db store.TxBeginner,
	flashcards store.FlashcardStore,
	generations store.GenerationStore,
	logger *slog.Logger,
) (FlashcardService, error) {
	switch {
	case db == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "db cannot be nil"}
	case flashcards == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "flashcard store cannot be nil"}
	case generations == nil:
		return nil, &ServiceError{Operation: "create_service", Message: "generation store cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &flashcardService{
		db:          db,
		flashcards:  flashcards,
		generations: generations,
		logger:      logger.With(slog.String("component", "flashcard_service")),
		now:         time.Now,
	}, nil
}

// CreateFlashcards implements FlashcardService.
func (s *flashcardService) CreateFlashcards(
	ctx context.Context,
	userID uuid.UUID,
	inputs []domain.NewFlashcard,
) ([]domain.Flashcard, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one flashcard is required", domain.ErrValidation)
	}
	if len(inputs) > MaxFlashcardBatch {
		return nil, fmt.Errorf("%w: at most %d flashcards can be created at once",
			domain.ErrValidation, MaxFlashcardBatch)
	}

	cards := make([]*domain.Flashcard, len(inputs))
	var generationIDs []int64
	for i, in := range inputs {
		card, err := in.Build(userID)
		if err != nil {
			return nil, fmt.Errorf("flashcards[%d]: %w", i, err)
		}
		cards[i] = card
		if card.GenerationID != nil {
			generationIDs = append(generationIDs, *card.GenerationID)
		}
	}
	slices.Sort(generationIDs)
	generationIDs = slices.Compact(generationIDs)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txGenerations := s.generations.WithTx(tx)
		txFlashcards := s.flashcards.WithTx(tx)

		if len(generationIDs) > 0 {
			owned, err := txGenerations.CountOwned(ctx, userID, generationIDs)
			if err != nil {
				return err
			}
			if owned != len(generationIDs) {
				return ErrUnknownGeneration
			}
		}

		return txFlashcards.CreateMultiple(ctx, cards)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create flashcards",
			slog.String("user_id", userID.String()),
			slog.Int("count", len(cards)),
			slog.String("error", err.Error()))
		return nil, wrapError("create_flashcards", "failed to save flashcards", err)
	}

	out := make([]domain.Flashcard, len(cards))
	for i, c := range cards {
		out[i] = *c
	}
	s.logger.InfoContext(ctx, "flashcards created",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(out)))
	return out, nil
}

// ListFlashcards implements FlashcardService.
func (s *flashcardService) ListFlashcards(
	ctx context.Context,
	userID uuid.UUID,
	filter domain.FlashcardFilter,
) (domain.Page[domain.Flashcard], error) {
	filter, err := filter.Normalize()
	if err != nil {
		return domain.Page[domain.Flashcard]{}, err
	}
	items, total, err := s.flashcards.List(ctx, userID, filter)
	if err != nil {
		return domain.Page[domain.Flashcard]{}, wrapError("list_flashcards", "failed to list flashcards", err)
	}
	return domain.NewPage(items, filter.PageRequest, total), nil
}

// GetFlashcard implements FlashcardService.
func (s *flashcardService) GetFlashcard(ctx context.Context, userID uuid.UUID, id int64) (*domain.Flashcard, error) {
	card, err := s.flashcards.GetByID(ctx, userID, id)
	if err != nil {
		return nil, wrapError("get_flashcard", "failed to get flashcard", err)
	}
	return card, nil
}

// UpdateFlashcard implements FlashcardService.
func (s *flashcardService) UpdateFlashcard(
	ctx context.Context,
	userID uuid.UUID,
	id int64,
	front, back *string,
) (*domain.Flashcard, error) {
	if front == nil && back == nil {
		return nil, ErrEmptyUpdate
	}

	card, err := s.flashcards.GetByID(ctx, userID, id)
	if err != nil {
		return nil, wrapError("update_flashcard", "failed to get flashcard", err)
	}

	changed, err := card.ApplyEdit(front, back, s.now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return card, nil
	}

	if err := s.flashcards.Update(ctx, card); err != nil {
		s.logger.ErrorContext(ctx, "failed to update flashcard",
			slog.Int64("flashcard_id", id),
			slog.String("error", err.Error()))
		return nil, wrapError("update_flashcard", "failed to update flashcard", err)
	}
	return card, nil
}

// DeleteFlashcard implements FlashcardService.
func (s *flashcardService) DeleteFlashcard(ctx context.Context, userID uuid.UUID, id int64) error {
	if err := s.flashcards.Delete(ctx, userID, id); err != nil {
		return wrapError("delete_flashcard", "failed to delete flashcard", err)
	}
	return nil
}
