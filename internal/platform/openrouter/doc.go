// Package openrouter implements generation.ModelClient against the OpenRouter
// chat-completions API using structured outputs (response_format json_schema).
package openrouter
