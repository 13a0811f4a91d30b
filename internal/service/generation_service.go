package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/phrazzld/flashforge/internal/domain"
	"github.com/phrazzld/flashforge/internal/generation"
	"github.com/phrazzld/flashforge/internal/platform/logger"
	"github.com/phrazzld/flashforge/internal/redact"
	"github.com/phrazzld/flashforge/internal/store"
)

// Generation pipeline stages, recorded on GenerationServiceError.
const (
	StageCompletion  = "completion"
	StageExtraction  = "extraction"
	StagePersistence = "persistence"
)

// errorCodePersistence is the error_code recorded when the generation row
// could not be saved.
const errorCodePersistence = "persistence"

const (
	defaultErrorLogTimeout = 5 * time.Second
	maxErrorMessageLength  = 1000
)

// GenerationService turns source text into flashcard proposals and exposes
// the user's generation history.
type GenerationService interface {
	// GenerateFlashcards fingerprints sourceText, asks the model for
	// flashcards, records the generation and returns the proposals tagged
	// ai_generated. Any pipeline failure is recorded in the error log and
	// reported as ErrGenerationFailed. Source text outside the accepted length
	// returns domain.ErrSourceTextLength before any provider call.
	GenerateFlashcards(ctx context.Context, sourceText string, userID uuid.UUID) (*domain.GenerationResult, error)

	// ListGenerations returns one page of the user's generations, newest first.
	ListGenerations(ctx context.Context, userID uuid.UUID, page domain.PageRequest) (domain.Page[domain.Generation], error)

	// GetGeneration returns a generation with the flashcards saved from it.
	GetGeneration(ctx context.Context, userID uuid.UUID, id int64) (*domain.GenerationDetail, error)

	// ListGenerationErrors returns one page of the user's failed generations.
	ListGenerationErrors(
		ctx context.Context,
		userID uuid.UUID,
		page domain.PageRequest,
	) (domain.Page[domain.GenerationErrorLog], error)
}

// GenerationOption configures a GenerationService.
type GenerationOption func(*generationService)

// WithClock replaces time.Now for measuring generation duration.
func WithClock(now func() time.Time) GenerationOption {
	return func(s *generationService) { s.now = now }
}

// WithModel requests model instead of the client's default.
func WithModel(model string) GenerationOption {
	return func(s *generationService) {
		if model != "" {
			s.model = model
		}
	}
}

// WithErrorLogTimeout bounds the best-effort error log write.
func WithErrorLogTimeout(d time.Duration) GenerationOption {
	return func(s *generationService) { s.errorLogTimeout = d }
}

type generationService struct {
	client          generation.ModelClient
	generations     store.GenerationStore
	errorLogs       store.GenerationErrorLogStore
	flashcards      store.FlashcardStore
	logger          *slog.Logger
	model           string
	now             func() time.Time
	errorLogTimeout time.Duration
}

// NewGenerationService creates a GenerationService. It returns an error if a
// required dependency is nil.
func NewGenerationService(
	client generation.ModelClient,
	generations store.GenerationStore,
	errorLogs store.GenerationErrorLogStore,
	flashcards store.FlashcardStore,
	logger *slog.Logger,
	opts ...GenerationOption,
) (GenerationService, error) {
	switch {
	case client == nil:
		return nil, errors.New("model client cannot be nil")
	case generations == nil:
		return nil, errors.New("generation store cannot be nil")
	case errorLogs == nil:
		return nil, errors.New("generation error log store cannot be nil")
	case flashcards == nil:
		return nil, errors.New("flashcard store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &generationService{
		client:          client,
		generations:     generations,
		errorLogs:       errorLogs,
		flashcards:      flashcards,
		logger:          logger.With(slog.String("component", "generation_service")),
		model:           client.DefaultModel(),
		now:             time.Now,
		errorLogTimeout: defaultErrorLogTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// attempt carries what is known about one GenerateFlashcards call.
type attempt struct {
	userID uuid.UUID
	hash   string
	length int
}

// GenerateFlashcards implements GenerationService.
func (s *generationService) GenerateFlashcards(
	ctx context.Context,
	sourceText string,
	userID uuid.UUID,
) (*domain.GenerationResult, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrInvalidID)
	}
	if err := domain.ValidateSourceText(sourceText); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	a := attempt{
		userID: userID,
		hash:   domain.Fingerprint(sourceText),
		length: domain.SourceTextLength(sourceText),
	}
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("source_text_hash", a.hash),
		slog.String("model", s.model),
	)

	start := s.now()

	raw, err := s.client.Complete(ctx, generation.CompletionRequest{
		SystemPrompt: generation.FlashcardsSystemPrompt,
		UserPrompt:   sourceText,
		Schema:       generation.FlashcardsShape,
		Model:        s.model,
	})
	if err != nil {
		return nil, s.fail(ctx, log, a, StageCompletion, err)
	}

	response, err := generation.Extract(raw, generation.FlashcardsShape)
	if err != nil {
		return nil, s.fail(ctx, log, a, StageExtraction, err)
	}
	proposals := response.Proposals()

	elapsed := s.now().Sub(start)

	record, err := domain.NewGeneration(userID, s.model, a.hash, a.length, len(proposals), elapsed)
	if err != nil {
		return nil, s.fail(ctx, log, a, StagePersistence, err)
	}
	if err := s.generations.Create(ctx, record); err != nil {
		return nil, s.fail(ctx, log, a, StagePersistence, err)
	}

	log.InfoContext(ctx, "flashcards generated",
		slog.Int64("generation_id", record.ID),
		slog.Int("generated_count", len(proposals)),
		slog.Int64("duration_ms", elapsed.Milliseconds()))

	return &domain.GenerationResult{
		GenerationID:   record.ID,
		Proposals:      proposals,
		GeneratedCount: len(proposals),
	}, nil
}

// fail records the failure in the generation error log and returns the
// generic error. A failed error log write is logged and otherwise ignored.
func (s *generationService) fail(ctx context.Context, log *slog.Logger, a attempt, stage string, cause error) error {
	code := generation.ErrorCode(cause)
	if stage == StagePersistence {
		code = errorCodePersistence
	}
	message := failureMessage(cause)

	log.ErrorContext(ctx, "flashcard generation failed",
		slog.String("stage", stage),
		slog.String("error_code", code),
		slog.String("error", redact.Error(cause)))

	entry := &domain.GenerationErrorLog{
		UserID:           a.userID,
		Model:            s.model,
		SourceTextHash:   a.hash,
		SourceTextLength: a.length,
		ErrorCode:        code,
		ErrorMessage:     message,
	}

	// The record is written even if the caller has gone away.
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.errorLogTimeout)
	defer cancel()
	if err := s.errorLogs.Create(logCtx, entry); err != nil {
		log.ErrorContext(ctx, "failed to record generation error",
			slog.String("error", redact.Error(err)))
	}

	return NewGenerationServiceError(stage, cause)
}

// failureMessage returns the redacted, length-limited text stored in the
// error log.
func failureMessage(err error) string {
	var message string
	var providerErr *generation.ProviderError
	var responseErr *generation.ResponseError
	switch {
	case errors.As(err, &providerErr) && providerErr.Message != "":
		message = providerErr.Message
	case errors.As(err, &responseErr):
		message = responseErr.Message
	default:
		message = err.Error()
	}

	message = redact.String(message)
	if utf8.RuneCountInString(message) > maxErrorMessageLength {
		message = string([]rune(message)[:maxErrorMessageLength])
	}
	return message
}

// ListGenerations implements GenerationService.
func (s *generationService) ListGenerations(
	ctx context.Context,
	userID uuid.UUID,
	page domain.PageRequest,
) (domain.Page[domain.Generation], error) {
	page, err := page.Normalize()
	if err != nil {
		return domain.Page[domain.Generation]{}, err
	}
	items, total, err := s.generations.List(ctx, userID, page)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list generations",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return domain.Page[domain.Generation]{}, wrapError("list_generations", "failed to list generations", err)
	}
	return domain.NewPage(items, page, total), nil
}

// GetGeneration implements GenerationService.
func (s *generationService) GetGeneration(
	ctx context.Context,
	userID uuid.UUID,
	id int64,
) (*domain.GenerationDetail, error) {
	g, err := s.generations.GetByID(ctx, userID, id)
	if err != nil {
		return nil, wrapError("get_generation", "failed to get generation", err)
	}
	cards, err := s.flashcards.ListByGeneration(ctx, userID, id)
	if err != nil {
		return nil, wrapError("get_generation", "failed to list generation flashcards", err)
	}
	return domain.NewGenerationDetail(*g, cards), nil
}

// ListGenerationErrors implements GenerationService.
func (s *generationService) ListGenerationErrors(
	ctx context.Context,
	userID uuid.UUID,
	page domain.PageRequest,
) (domain.Page[domain.GenerationErrorLog], error) {
	page, err := page.Normalize()
	if err != nil {
		return domain.Page[domain.GenerationErrorLog]{}, err
	}
	items, total, err := s.errorLogs.List(ctx, userID, page)
	if err != nil {
		return domain.Page[domain.GenerationErrorLog]{},
			wrapError("list_generation_errors", "failed to list generation errors", err)
	}
	return domain.NewPage(items, page, total), nil
}
