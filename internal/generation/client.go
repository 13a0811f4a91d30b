package generation

import (
	"context"
	"encoding/json"

	"github.com/phrazzld/flashforge/internal/schema"
)

// ModelClient sends completion requests to an LLM provider.
// Implementations must be safe for concurrent use and must not retry.
type ModelClient interface {
	// Complete sends req and returns the decoded response body.
	// Failures are returned as *ProviderError.
	Complete(ctx context.Context, req CompletionRequest) (*RawCompletion, error)

	// DefaultModel is the model used when a request does not name one.
	DefaultModel() string
}

// CompletionRequest is a single chat-style completion with a requested output schema.
// Zero values for Model, Temperature and MaxTokens select the client's defaults.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Schema       schema.Descriptor
	Model        string
	Temperature  *float64
	MaxTokens    int
}

// RawCompletion is the chat-completions response envelope. Providers with a
// different wire format normalise into it.
type RawCompletion struct {
	ID      string   `json:"id,omitempty"`
	Model   string   `json:"model,omitempty"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice is one candidate answer.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// Message is a chat message. Content is kept raw because providers may send
// null or non-string content.
type Message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// TextContent returns choices[0].message.content when it is a JSON string.
func (c *RawCompletion) TextContent() (string, bool) {
	if c == nil || len(c.Choices) == 0 {
		return "", false
	}
	raw := c.Choices[0].Message.Content
	if len(raw) == 0 {
		return "", false
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", false
	}
	return text, true
}

// TextMessage builds a Message whose content is the JSON string s.
func TextMessage(role, s string) Message {
	content, _ := json.Marshal(s)
	return Message{Role: role, Content: content}
}
