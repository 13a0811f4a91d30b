// Package generation defines the boundary between the application and the
// external LLM providers used to generate flashcards.
//
// ModelClient is the port implemented by the provider adapters under
// internal/platform. A client sends one chat-style completion request with a
// requested output schema and returns the provider's response body as a
// RawCompletion, or a *ProviderError classified by one of the sentinel kinds
// (ErrAuthentication, ErrRateLimit, ...). Extract turns a RawCompletion into a
// typed value validated against a schema.Shape; it never partially succeeds.
package generation
