package domain

import "errors"

var (
	// ErrNotFound indicates a lookup for an item that does not exist
	ErrNotFound = errors.New("not found")

	// ErrProviderNotConfigured indicates a missing LLM credential or an
	// unknown provider name. Surfaced to the caller as a configuration
	// error, never retried.
	ErrProviderNotConfigured = errors.New("llm provider not configured")
)
