package gemini

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/phrazzld/flashforge/internal/config"
	"github.com/phrazzld/flashforge/internal/generation"
	"github.com/phrazzld/flashforge/internal/platform/logger"
	"github.com/phrazzld/flashforge/internal/redact"
)

// Defaults applied when neither the request nor the configuration sets a value.
const (
	DefaultModel       = "gemini-2.0-flash"
	DefaultTemperature = 0.5
	DefaultMaxTokens   = 2048
)

// Client implements generation.ModelClient on the Gemini API.
type Client struct {
	logger *slog.Logger
	client *genai.Client

	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

var _ generation.ModelClient = (*Client)(nil)

// Option customises a Client.
type Option func(*genai.ClientConfig)

// WithHTTPClient makes the SDK use hc for all requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(cc *genai.ClientConfig) {
		cc.HTTPClient = hc
	}
}

// NewClient creates a Gemini-backed model client. A missing API key or an SDK
// initialisation failure is reported as generation.ErrConfiguration.
func NewClient(ctx context.Context, cfg config.LLMConfig, log *slog.Logger, opts ...Option) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, &generation.ProviderError{
			Kind:    generation.ErrConfiguration,
			Message: "Gemini API key is not set (llm.api_key / FLASHFORGE_LLM_API_KEY)",
		}
	}
	if log == nil {
		log = slog.Default()
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: endpoint}
	}
	for _, opt := range opts {
		opt(cc)
	}

	sdk, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, &generation.ProviderError{
			Kind:    generation.ErrConfiguration,
			Message: "failed to create Gemini client",
			Err:     err,
		}
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	temperature := DefaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &Client{
		logger:      log.With("component", "gemini_client"),
		client:      sdk,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, nil
}

// DefaultModel returns the model used when a request does not name one.
func (c *Client) DefaultModel() string {
	return c.model
}

// Complete sends one GenerateContent call. It does not retry.
func (c *Client) Complete(ctx context.Context, req generation.CompletionRequest) (*generation.RawCompletion, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	model := c.model
	if req.Model != "" {
		model = req.Model
	}
	gcc, err := c.buildConfig(req)
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: req.UserPrompt}},
	}}

	log.DebugContext(ctx, "sending generate content request",
		"model", model,
		"structured", gcc.ResponseSchema != nil)

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, gcc)
	if err != nil {
		perr := classify(err)
		log.WarnContext(ctx, "generate content request failed",
			"status", perr.StatusCode,
			"kind", generation.ErrorCode(perr),
			"message", redact.String(perr.Message),
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, perr
	}

	out := normalize(model, resp)
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		log.WarnContext(ctx, "generate content blocked by safety filters", "model", model)
	}

	log.DebugContext(ctx, "generate content request succeeded",
		"model", model,
		"candidates", len(resp.Candidates),
		"elapsed_ms", time.Since(start).Milliseconds())

	return out, nil
}

func (c *Client) buildConfig(req generation.CompletionRequest) (*genai.GenerateContentConfig, error) {
	temperature := c.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := c.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	gcc := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(temperature)),
		MaxOutputTokens: int32(maxTokens),
	}
	if req.SystemPrompt != "" {
		gcc.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}
	if req.Schema != nil {
		s, err := ConvertSchema(req.Schema.JSONSchema())
		if err != nil {
			return nil, &generation.ProviderError{
				Kind:    generation.ErrConfiguration,
				Message: "response schema cannot be expressed for Gemini",
				Err:     err,
			}
		}
		gcc.ResponseMIMEType = "application/json"
		gcc.ResponseSchema = s
	}
	return gcc, nil
}

// normalize converts a Gemini response into the chat-completions envelope.
// Text parts of each candidate are concatenated into message.content; a
// candidate without text yields empty content.
func normalize(model string, resp *genai.GenerateContentResponse) *generation.RawCompletion {
	out := &generation.RawCompletion{Model: model}
	if resp == nil {
		return out
	}
	for i, cand := range resp.Candidates {
		if cand == nil {
			continue
		}
		var text strings.Builder
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if part != nil {
					text.WriteString(part.Text)
				}
			}
		}
		msg := generation.Message{Role: "assistant"}
		if text.Len() > 0 {
			msg = generation.TextMessage("assistant", text.String())
		}
		out.Choices = append(out.Choices, generation.Choice{
			Index:        i,
			Message:      msg,
			FinishReason: strings.ToLower(string(cand.FinishReason)),
		})
	}
	return out
}

// classify maps SDK errors onto the generation failure kinds.
func classify(err error) *generation.ProviderError {
	code, message, ok := apiErrorDetails(err)
	if !ok {
		return &generation.ProviderError{
			Kind:    generation.ErrNetwork,
			Message: redact.Error(err),
			Err:     err,
		}
	}

	var kind error
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		kind = generation.ErrAuthentication
	case code == http.StatusTooManyRequests:
		kind = generation.ErrRateLimit
	case code >= http.StatusInternalServerError:
		kind = generation.ErrServer
	default:
		kind = generation.ErrAPI
	}
	if strings.TrimSpace(message) == "" {
		message = generation.DefaultErrorMessage
	}
	return &generation.ProviderError{Kind: kind, StatusCode: code, Message: message, Err: err}
}

func apiErrorDetails(err error) (int, string, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Message, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Message, true
	}
	return 0, "", false
}
