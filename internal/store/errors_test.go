package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityErrorsMatchGenericKinds(t *testing.T) {
	assert.True(t, IsNotFoundError(ErrFlashcardNotFound))
	assert.True(t, IsNotFoundError(fmt.Errorf("get: %w", ErrGenerationNotFound)))
	assert.True(t, IsNotFoundError(ErrUserNotFound))
	assert.False(t, IsNotFoundError(ErrEmailExists))
	assert.True(t, IsDuplicateError(ErrEmailExists))
	assert.False(t, IsDuplicateError(errors.New("other")))
}

func TestStoreError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewStoreError("generation", "create", "failed to insert generation", cause)

	assert.Equal(t, "create operation on generation failed: failed to insert generation: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewStoreError("flashcard", "list", "bad filter", nil)
	assert.Equal(t, "list operation on flashcard failed: bad filter", bare.Error())
}
