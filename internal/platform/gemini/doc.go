// Package gemini implements generation.ModelClient using Google's Gemini API
// through the google.golang.org/genai SDK.
//
// The requested output schema is converted to a genai.Schema and sent as
// structured output (application/json). Responses are normalised into the
// chat-completions envelope used by the rest of the pipeline so the extractor
// does not depend on the provider.
package gemini
