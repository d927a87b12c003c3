package llm

import (
	"context"
	"encoding/json"

	"perfume-chat/internal/domain"
)

// Tool declares one callable function to the model
type Tool struct {
	Name        string
	Description string
	// Parameters is the JSON Schema for the function arguments
	Parameters json.RawMessage
}

// Result contains one assistant turn. Message carries either plain content or
// exactly one tool call.
type Result struct {
	Message    domain.ChatMessage
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Chat produces the next assistant message for the transcript. When
	// tools is non-empty the model may answer with a tool call instead of
	// content.
	Chat(ctx context.Context, messages []domain.ChatMessage, tools []Tool, model string) (*Result, error)
}
