package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"perfume-chat/internal/domain"
	"perfume-chat/internal/llm"
	"perfume-chat/internal/pagination"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ChatService orchestrates one chat turn: session handling, the LLM tool
// decision, tool dispatch against the pagination engine, and the final
// phrasing call.
type ChatService struct {
	catalog      domain.CatalogRepository
	sessions     domain.SessionStore
	engine       *pagination.Engine
	llmRouter    *llm.Router
	pageSize     int
	historyLimit int
}

// NewChatService creates a new chat service
func NewChatService(
	catalog domain.CatalogRepository,
	sessions domain.SessionStore,
	engine *pagination.Engine,
	llmRouter *llm.Router,
	pageSize int,
	historyLimit int,
) *ChatService {
	if pageSize <= 0 {
		pageSize = llm.DefaultPageCount
	}
	return &ChatService{
		catalog:      catalog,
		sessions:     sessions,
		engine:       engine,
		llmRouter:    llmRouter,
		pageSize:     pageSize,
		historyLimit: historyLimit,
	}
}

// toolOutcome is the literal tool result appended to the transcript and
// echoed in the API response.
type toolOutcome struct {
	MatchedPerfumes []string `json:"matched_perfumes"`
	ReturnedCount   int      `json:"returned_count"`
	RemainingCount  int      `json:"remaining_count"`
}

// Chat processes one user message. A committed StoreAndPage/NextPage is never
// rolled back when a later step fails; the reply degrades instead.
func (s *ChatService) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}
	device := req.DeviceID
	if device == "" {
		device = domain.DefaultPartition
	}

	if created := s.sessions.GetOrCreate(conversationID); created {
		// A fresh conversation must not inherit a stale read position from
		// an earlier conversation on the same device. The reset is invoked
		// here, deliberately, with the caller's device id.
		if err := s.engine.Reset(device); err != nil {
			log.Error().Err(err).Str("device", device).Msg("Failed to reset pagination for new conversation")
		}
	}

	s.sessions.Append(conversationID, domain.ChatMessage{
		Role:    domain.RoleUser,
		Content: req.Message,
	})

	provider, err := s.llmRouter.GetProvider("")
	if err != nil {
		return nil, err
	}

	first, err := provider.Chat(ctx, s.window(conversationID), llm.ChatTools(), "")
	if err != nil {
		return nil, fmt.Errorf("llm request failed: %w", err)
	}
	s.sessions.Append(conversationID, first.Message)

	resp := &domain.ChatResponse{ConversationID: conversationID}

	if len(first.Message.ToolCalls) == 0 {
		resp.Response = first.Message.Content
		return resp, nil
	}

	// The tool declaration allows exactly one invocation per turn.
	call := first.Message.ToolCalls[0]
	outcome, err := s.dispatch(ctx, device, call)
	if err != nil {
		return nil, err
	}

	content, _ := json.Marshal(outcome)
	s.sessions.Append(conversationID, domain.ChatMessage{
		Role:       domain.RoleTool,
		Content:    string(content),
		ToolCallID: call.ID,
	})

	// Second call phrases the tool result. Pagination state is already
	// committed; a failure here degrades the reply, never the state.
	reply := ""
	if final, err := provider.Chat(ctx, s.window(conversationID), nil, ""); err != nil {
		log.Warn().Err(err).Str("conversation_id", conversationID).Msg("Final phrasing call failed, replying with literal tool result")
		reply = outcome.literalReply()
	} else {
		reply = final.Message.Content
	}

	s.sessions.Append(conversationID, domain.ChatMessage{
		Role:    domain.RoleAssistant,
		Content: reply,
	})

	resp.Response = reply
	resp.MatchedPerfumes = outcome.MatchedPerfumes
	resp.ReturnedCount = &outcome.ReturnedCount
	resp.RemainingCount = &outcome.RemainingCount
	return resp, nil
}

// dispatch executes the tool the model invoked. Unknown tools are a no-op
// with an empty result set so the conversation stays alive.
func (s *ChatService) dispatch(ctx context.Context, device string, call domain.ToolCall) (*toolOutcome, error) {
	switch call.Name {
	case llm.ToolSearchPerfumes:
		filters, err := llm.ParseSearchArgs(call.Arguments)
		if err != nil {
			log.Warn().Err(err).Msg("Discarding search call with malformed arguments")
			return s.emptyOutcome(device), nil
		}

		items, err := s.catalog.Search(ctx, filters)
		if err != nil {
			return nil, fmt.Errorf("catalog search failed: %w", err)
		}

		first, err := s.engine.StoreAndPage(device, items, s.pageSize)
		if err != nil {
			return nil, err
		}

		log.Info().
			Str("device", device).
			Int("total", len(items)).
			Int("returned", len(first)).
			Msg("Stored search results")

		return &toolOutcome{
			MatchedPerfumes: perfumeNames(first),
			ReturnedCount:   len(first),
			RemainingCount:  s.engine.Remaining(device),
		}, nil

	case llm.ToolNextResults:
		count := llm.ParseCountArg(call.Arguments)
		batch, err := s.engine.NextPage(device, count)
		if err != nil {
			return nil, err
		}

		return &toolOutcome{
			MatchedPerfumes: perfumeNames(batch),
			ReturnedCount:   len(batch),
			RemainingCount:  s.engine.Remaining(device),
		}, nil

	default:
		log.Warn().Str("tool", call.Name).Msg("Ignoring unknown tool invocation")
		return s.emptyOutcome(device), nil
	}
}

func (s *ChatService) emptyOutcome(device string) *toolOutcome {
	return &toolOutcome{
		MatchedPerfumes: []string{},
		RemainingCount:  s.engine.Remaining(device),
	}
}

// window returns the transcript slice sent to the model: the system prompt
// plus the most recent historyLimit messages.
func (s *ChatService) window(conversationID string) []domain.ChatMessage {
	messages := s.sessions.Messages(conversationID)
	if s.historyLimit <= 0 || len(messages) <= s.historyLimit+1 {
		return messages
	}

	start := len(messages) - s.historyLimit
	// Never start the tail on a tool result whose invoking assistant message
	// was cut off; providers reject orphaned tool messages.
	for start < len(messages) && messages[start].Role == domain.RoleTool {
		start++
	}

	window := make([]domain.ChatMessage, 0, len(messages)-start+1)
	window = append(window, messages[0]) // system prompt stays first
	window = append(window, messages[start:]...)
	return window
}

// GetPerfume looks up one item by name, preferring the device's cached
// ResultSet over a full catalog lookup.
func (s *ChatService) GetPerfume(ctx context.Context, name, device string) (*domain.Perfume, error) {
	if device == "" {
		device = domain.DefaultPartition
	}

	for _, p := range s.engine.Results(device) {
		if strings.EqualFold(p.Name, name) {
			item := p
			return &item, nil
		}
	}
	return s.catalog.GetByName(ctx, name)
}

func perfumeNames(items []domain.Perfume) []string {
	names := make([]string, 0, len(items))
	for _, p := range items {
		names = append(names, p.Name)
	}
	return names
}

func (o *toolOutcome) literalReply() string {
	if len(o.MatchedPerfumes) == 0 {
		if o.RemainingCount == 0 {
			return "No more results."
		}
		return "No matching perfumes."
	}
	return fmt.Sprintf("Results: %s (%d shown, %d remaining)",
		strings.Join(o.MatchedPerfumes, ", "), o.ReturnedCount, o.RemainingCount)
}
