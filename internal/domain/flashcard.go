package domain

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// FlashcardSource records how a flashcard came to exist.
type FlashcardSource string

// Flashcard sources.
const (
	SourceManual      FlashcardSource = "manual"
	SourceAIGenerated FlashcardSource = "ai_generated"
	SourceAIEdited    FlashcardSource = "ai_edited"
)

// Flashcard content limits, in characters.
const (
	MaxFrontLength = 200
	MaxBackLength  = 500
)

// Valid reports whether s is a known source.
func (s FlashcardSource) Valid() bool {
	switch s {
	case SourceManual, SourceAIGenerated, SourceAIEdited:
		return true
	}
	return false
}

// Flashcard is a saved question/answer pair owned by a user.
// GenerationID is nil exactly when Source is manual.
type Flashcard struct {
	ID           int64           `json:"id"`
	UserID       uuid.UUID       `json:"-"`
	GenerationID *int64          `json:"generation_id"`
	Front        string          `json:"front"`
	Back         string          `json:"back"`
	Source       FlashcardSource `json:"source"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewFlashcard is the input for creating a flashcard.
type NewFlashcard struct {
	Front        string          `json:"front"`
	Back         string          `json:"back"`
	Source       FlashcardSource `json:"source"`
	GenerationID *int64          `json:"generation_id"`
}

// Validate checks content limits and the source/generation pairing.
func (n NewFlashcard) Validate() error {
	return validationError(validation.ValidateStruct(&n, flashcardRules(&n.Front, &n.Back, &n.Source, &n.GenerationID)...))
}

// Build turns validated input into a Flashcard owned by userID.
func (n NewFlashcard) Build(userID uuid.UUID) (*Flashcard, error) {
	if userID == uuid.Nil {
		return nil, validationError(ErrInvalidID)
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Flashcard{
		UserID:       userID,
		GenerationID: n.GenerationID,
		Front:        n.Front,
		Back:         n.Back,
		Source:       n.Source,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Validate checks that the Flashcard satisfies its invariants.
func (f *Flashcard) Validate() error {
	rules := append([]*validation.FieldRules{
		validation.Field(&f.UserID, validation.By(notNilUUID)),
	}, flashcardRules(&f.Front, &f.Back, &f.Source, &f.GenerationID)...)
	return validationError(validation.ValidateStruct(f, rules...))
}

// ApplyEdit updates front and/or back. A nil argument leaves the field as is.
// An ai_generated card whose content changes becomes ai_edited. It reports
// whether anything changed.
func (f *Flashcard) ApplyEdit(front, back *string, now time.Time) (bool, error) {
	updated := *f
	if front != nil {
		updated.Front = *front
	}
	if back != nil {
		updated.Back = *back
	}

	if updated.Front == f.Front && updated.Back == f.Back {
		return false, nil
	}
	if updated.Source == SourceAIGenerated {
		updated.Source = SourceAIEdited
	}
	updated.UpdatedAt = now.UTC()

	if err := updated.Validate(); err != nil {
		return false, err
	}
	*f = updated
	return true, nil
}

func flashcardRules(front, back *string, source *FlashcardSource, generationID **int64) []*validation.FieldRules {
	return []*validation.FieldRules{
		validation.Field(front, validation.Required, validation.RuneLength(1, MaxFrontLength)),
		validation.Field(back, validation.Required, validation.RuneLength(1, MaxBackLength)),
		validation.Field(source, validation.Required,
			validation.In(SourceManual, SourceAIGenerated, SourceAIEdited)),
		validation.Field(generationID,
			validation.When(*source == SourceManual,
				validation.Nil.Error("must be empty for manual flashcards")).
				Else(validation.Required.Error("is required for AI flashcards"), validation.Min(int64(1)))),
	}
}
