// Package config handles configuration loading, parsing, and validation
// from various sources (defaults, an optional config file, environment
// variables). It provides type-safe access to the settings needed by the
// server, the data store, the identity layer, and the LLM provider clients,
// keeping configuration details out of business logic.
package config
