package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/phrazzld/flashforge/internal/config"
	"github.com/phrazzld/flashforge/internal/generation"
	"github.com/phrazzld/flashforge/internal/platform/logger"
	"github.com/phrazzld/flashforge/internal/redact"
)

// Defaults applied when neither the request nor the configuration sets a value.
const (
	DefaultEndpoint    = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel       = "openai/gpt-4o-mini"
	DefaultTemperature = 0.5
	DefaultMaxTokens   = 2048
)

const maxErrorBody = 1 << 20

// Client talks to OpenRouter. It is safe for concurrent use.
type Client struct {
	logger *slog.Logger

	endpoint string
	apiKey   string

	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration

	appURL   string
	appTitle string

	httpClient *http.Client
}

var _ generation.ModelClient = (*Client)(nil)

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client, e.g. to stub the transport in tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient builds a Client from cfg. A missing API key is reported as
// generation.ErrConfiguration.
func NewClient(cfg config.LLMConfig, log *slog.Logger, opts ...Option) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, &generation.ProviderError{
			Kind:    generation.ErrConfiguration,
			Message: "OpenRouter API key is not set (llm.api_key / FLASHFORGE_LLM_API_KEY)",
		}
	}

	if log == nil {
		log = slog.Default()
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
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

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	c := &Client{
		logger:      log.With("component", "openrouter_client"),
		endpoint:    endpoint,
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		appURL:      strings.TrimSpace(cfg.AppURL),
		appTitle:    strings.TrimSpace(cfg.AppTitle),
		httpClient:  &http.Client{Transport: tr},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DefaultModel returns the model used when a request does not name one.
func (c *Client) DefaultModel() string {
	return c.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaFormat struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type responseFormat struct {
	Type       string           `json:"type"`
	JSONSchema jsonSchemaFormat `json:"json_schema"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Code    any    `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error *apiError `json:"error"`
}

type chatResponse struct {
	generation.RawCompletion
	Error *apiError `json:"error,omitempty"`
}

// Complete sends one chat completion request. It does not retry.
func (c *Client) Complete(ctx context.Context, req generation.CompletionRequest) (*generation.RawCompletion, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	body := c.buildRequest(req)
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &generation.ProviderError{
			Kind:    generation.ErrAPI,
			Message: "failed to encode request",
			Err:     err,
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &generation.ProviderError{
			Kind:    generation.ErrConfiguration,
			Message: "invalid endpoint",
			Err:     err,
		}
	}
	c.setHeaders(httpReq)

	log.DebugContext(ctx, "sending completion request",
		"model", body.Model,
		"max_tokens", body.MaxTokens,
		"structured", body.ResponseFormat != nil)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.WarnContext(ctx, "completion request failed to reach provider",
			"error", redact.Error(err),
			"timeout", IsTimeout(err),
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, &generation.ProviderError{
			Kind:    generation.ErrNetwork,
			Message: redact.Error(err),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		perr := classify(resp.StatusCode, raw)
		log.WarnContext(ctx, "completion request rejected by provider",
			"status", resp.StatusCode,
			"kind", generation.ErrorCode(perr),
			"message", redact.String(perr.Message),
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, perr
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.WarnContext(ctx, "failed to decode completion response",
			"status", resp.StatusCode,
			"error", err)
		return nil, &generation.ProviderError{
			Kind:       generation.ErrNetwork,
			StatusCode: resp.StatusCode,
			Message:    "failed to decode response body: " + err.Error(),
			Err:        err,
		}
	}

	// OpenRouter reports some upstream failures in a 200 body.
	if out.Error != nil && len(out.Choices) == 0 {
		return nil, &generation.ProviderError{
			Kind:       generation.ErrAPI,
			StatusCode: resp.StatusCode,
			Message:    messageOrDefault(out.Error.Message),
		}
	}

	log.DebugContext(ctx, "completion request succeeded",
		"model", out.Model,
		"choices", len(out.Choices),
		"elapsed_ms", time.Since(start).Milliseconds())

	return &out.RawCompletion, nil
}

func (c *Client) buildRequest(req generation.CompletionRequest) chatRequest {
	body := chatRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
	}
	if req.Model != "" {
		body.Model = req.Model
	}
	if req.Temperature != nil {
		body.Temperature = *req.Temperature
	}
	if req.MaxTokens > 0 {
		body.MaxTokens = req.MaxTokens
	}
	if req.Schema != nil {
		body.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchemaFormat{
				Name:   req.Schema.Name(),
				Strict: true,
				Schema: req.Schema.JSONSchema(),
			},
		}
	}
	return body
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.appURL != "" {
		req.Header.Set("HTTP-Referer", c.appURL)
	}
	if c.appTitle != "" {
		req.Header.Set("X-Title", c.appTitle)
	}
}

// classify maps a non-success response to a ProviderError.
func classify(status int, body []byte) *generation.ProviderError {
	var env errorEnvelope
	message := ""
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		message = env.Error.Message
	}

	var kind error
	switch {
	case status == http.StatusUnauthorized:
		kind = generation.ErrAuthentication
	case status == http.StatusTooManyRequests:
		kind = generation.ErrRateLimit
	case status >= http.StatusInternalServerError:
		kind = generation.ErrServer
	default:
		kind = generation.ErrAPI
	}

	return &generation.ProviderError{
		Kind:       kind,
		StatusCode: status,
		Message:    messageOrDefault(message),
	}
}

func messageOrDefault(message string) string {
	if strings.TrimSpace(message) == "" {
		return generation.DefaultErrorMessage
	}
	return message
}

// IsTimeout reports whether err was caused by a deadline being exceeded.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
