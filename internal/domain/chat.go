package domain

import "encoding/json"

// MessageRole represents the sender of a transcript message
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// ToolCall is a structured tool invocation emitted by the LLM collaborator
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ChatMessage is one entry in a conversation transcript
type ChatMessage struct {
	Role       MessageRole `json:"role"`
	Content    string      `json:"content"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
}

// SessionStore defines the interface for conversation transcripts. The first
// message of every transcript is the fixed system prompt and is never mutated.
type SessionStore interface {
	// GetOrCreate ensures a transcript exists for the conversation id,
	// seeding the system prompt on first use. Returns true when the
	// transcript was created by this call.
	GetOrCreate(conversationID string) bool

	// Append adds one message to the transcript.
	Append(conversationID string, msg ChatMessage)

	// Messages returns a read-only snapshot of the transcript.
	Messages(conversationID string) []ChatMessage
}

// DefaultPartition is the pagination partition used when a request carries no
// device id.
const DefaultPartition = "default"

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Message        string `json:"message" validate:"required"`
	ConversationID string `json:"conversation_id,omitempty"`
	DeviceID       string `json:"device_id,omitempty"`
}

// ChatResponse is the reply to POST /api/chat. The count fields are only set
// when the turn invoked a tool.
type ChatResponse struct {
	Response        string   `json:"response"`
	ConversationID  string   `json:"conversation_id"`
	MatchedPerfumes []string `json:"matched_perfumes,omitempty"`
	ReturnedCount   *int     `json:"returned_count,omitempty"`
	RemainingCount  *int     `json:"remaining_count,omitempty"`
}
