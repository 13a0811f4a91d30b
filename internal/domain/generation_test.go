package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeneration(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	hash := Fingerprint("source")

	g, err := NewGeneration(userID, "openai/gpt-4o-mini", hash, 1500, 3, 1234*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, userID, g.UserID)
	assert.Equal(t, 3, g.GeneratedCount)
	assert.Equal(t, 1234, g.GenerationDuration)
	assert.False(t, g.CreatedAt.IsZero())
}

func TestNewGenerationValidation(t *testing.T) {
	t.Parallel()

	hash := Fingerprint("source")
	tests := []struct {
		name   string
		userID uuid.UUID
		model  string
		hash   string
		length int
	}{
		{"nil user", uuid.Nil, "m", hash, 1500},
		{"empty model", uuid.New(), "", hash, 1500},
		{"bad hash", uuid.New(), "m", "abc", 1500},
		{"short source", uuid.New(), "m", hash, 999},
		{"long source", uuid.New(), "m", hash, 10001},
		{"zero source", uuid.New(), "m", hash, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGeneration(tt.userID, tt.model, tt.hash, tt.length, 1, time.Second)
			assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
		})
	}
}

func TestNewGenerationDetailCountsSavedFlashcards(t *testing.T) {
	t.Parallel()

	id := int64(5)
	g := Generation{ID: id, GeneratedCount: 4}
	cards := []Flashcard{
		{ID: 1, GenerationID: &id, Source: SourceAIGenerated},
		{ID: 2, GenerationID: &id, Source: SourceAIGenerated},
		{ID: 3, GenerationID: &id, Source: SourceAIEdited},
	}

	d := NewGenerationDetail(g, cards)
	assert.Equal(t, 2, d.AcceptedUneditedCount)
	assert.Equal(t, 1, d.AcceptedEditedCount)
	assert.Len(t, d.Flashcards, 3)

	empty := NewGenerationDetail(g, nil)
	assert.NotNil(t, empty.Flashcards)
	assert.Zero(t, empty.AcceptedUneditedCount)
	assert.Zero(t, empty.AcceptedEditedCount)
}
