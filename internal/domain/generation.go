package domain

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Generation records one successful generation run. It is written once and
// never modified.
type Generation struct {
	ID               int64     `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	Model            string    `json:"model"`
	GeneratedCount   int       `json:"generated_count"`
	SourceTextHash   string    `json:"source_text_hash"`
	SourceTextLength int       `json:"source_text_length"`
	// GenerationDuration is the wall-clock duration of the model call and
	// response validation, in milliseconds.
	GenerationDuration int       `json:"generation_duration"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewGeneration creates a Generation for a completed run. The ID is assigned
// by the store.
func NewGeneration(
	userID uuid.UUID,
	model string,
	sourceTextHash string,
	sourceTextLength int,
	generatedCount int,
	duration time.Duration,
) (*Generation, error) {
	now := time.Now().UTC()
	g := &Generation{
		UserID:             userID,
		Model:              model,
		GeneratedCount:     generatedCount,
		SourceTextHash:     sourceTextHash,
		SourceTextLength:   sourceTextLength,
		GenerationDuration: int(duration.Milliseconds()),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks that the Generation satisfies its invariants.
func (g *Generation) Validate() error {
	return validationError(validation.ValidateStruct(g,
		validation.Field(&g.UserID, validation.By(notNilUUID)),
		validation.Field(&g.Model, validation.Required),
		validation.Field(&g.SourceTextHash, validation.Required, validation.Length(64, 64)),
		validation.Field(&g.SourceTextLength, validation.Required,
			validation.Min(MinSourceTextLength), validation.Max(MaxSourceTextLength)),
		validation.Field(&g.GeneratedCount, validation.Min(0)),
		validation.Field(&g.GenerationDuration, validation.Min(0)),
	))
}

// GenerationErrorLog records one failed generation run.
type GenerationErrorLog struct {
	ID               int64     `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	Model            string    `json:"model"`
	SourceTextHash   string    `json:"source_text_hash"`
	SourceTextLength int       `json:"source_text_length"`
	ErrorCode        string    `json:"error_code"`
	ErrorMessage     string    `json:"error_message"`
	CreatedAt        time.Time `json:"created_at"`
}

// FlashcardProposal is a generated question/answer pair that has not been saved.
type FlashcardProposal struct {
	Front  string          `json:"front"`
	Back   string          `json:"back"`
	Source FlashcardSource `json:"source"`
}

// GenerationResult is returned to the caller after a successful run.
type GenerationResult struct {
	GenerationID   int64               `json:"generation_id"`
	Proposals      []FlashcardProposal `json:"flashcards_proposals"`
	GeneratedCount int                 `json:"generated_count"`
}

// GenerationDetail is a generation together with the flashcards saved from it.
// The accepted counts are derived from Flashcards.
type GenerationDetail struct {
	Generation
	AcceptedUneditedCount int         `json:"accepted_unedited_count"`
	AcceptedEditedCount   int         `json:"accepted_edited_count"`
	Flashcards            []Flashcard `json:"flashcards"`
}

// NewGenerationDetail combines g with the flashcards that reference it.
func NewGenerationDetail(g Generation, cards []Flashcard) *GenerationDetail {
	if cards == nil {
		cards = []Flashcard{}
	}
	d := &GenerationDetail{Generation: g, Flashcards: cards}
	for _, c := range cards {
		switch c.Source {
		case SourceAIGenerated:
			d.AcceptedUneditedCount++
		case SourceAIEdited:
			d.AcceptedEditedCount++
		}
	}
	return d
}

func notNilUUID(value interface{}) error {
	id, _ := value.(uuid.UUID)
	if id == uuid.Nil {
		return ErrInvalidID
	}
	return nil
}
