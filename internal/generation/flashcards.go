package generation

import (
	"fmt"
	"strings"

	"github.com/phrazzld/flashforge/internal/domain"
	"github.com/phrazzld/flashforge/internal/schema"
)

// FlashcardsSystemPrompt instructs the model to produce flashcards from the user's text.
const FlashcardsSystemPrompt = "You are a helpful assistant that generates flashcards from a given text. " +
	"Each flashcard should have a 'front' (question) and a 'back' (answer). " +
	"Keep the front under 200 characters and the back under 500 characters. " +
	"Provide the output in JSON format as an object with a 'flashcards' array, where each element has 'front' and 'back' keys. " +
	`Example: {"flashcards": [{"front": "What is the capital of Poland?", "back": "Warsaw"}]}`

// FlashcardDraft is one question/answer pair as returned by the model. Length
// limits apply when a draft is saved as a flashcard, not here.
type FlashcardDraft struct {
	Front string `json:"front" jsonschema:"description=The question or term on the front of the flashcard."`
	Back  string `json:"back"  jsonschema:"description=The answer or definition on the back of the flashcard."`
}

// FlashcardsResponse is the structured output requested from the model.
type FlashcardsResponse struct {
	Flashcards []FlashcardDraft `json:"flashcards" jsonschema:"minItems=1,description=An array of generated flashcards."`
}

// FlashcardsShape is sent to the provider and used to validate its answer.
var FlashcardsShape = schema.MustDefine[FlashcardsResponse]("StructuredResponse",
	schema.WithCheck(nonEmptyDrafts))

// nonEmptyDrafts rejects blank sides. Strict structured-output modes do not
// accept minLength, so this is checked locally.
func nonEmptyDrafts(r FlashcardsResponse) []schema.Violation {
	var out []schema.Violation
	for i, d := range r.Flashcards {
		if strings.TrimSpace(d.Front) == "" {
			out = append(out, schema.Violation{Path: fmt.Sprintf("flashcards[%d].front", i), Message: "must not be empty"})
		}
		if strings.TrimSpace(d.Back) == "" {
			out = append(out, schema.Violation{Path: fmt.Sprintf("flashcards[%d].back", i), Message: "must not be empty"})
		}
	}
	return out
}

// Proposals tags each draft as ai_generated.
func (r FlashcardsResponse) Proposals() []domain.FlashcardProposal {
	out := make([]domain.FlashcardProposal, len(r.Flashcards))
	for i, d := range r.Flashcards {
		out[i] = domain.FlashcardProposal{
			Front:  d.Front,
			Back:   d.Back,
			Source: domain.SourceAIGenerated,
		}
	}
	return out
}
