package service

import (
	"context"
	"encoding/json"
	"sync"

	"perfume-chat/internal/domain"
	"perfume-chat/internal/llm"

	"github.com/stretchr/testify/mock"
)

// MockCatalog is a mock implementation of domain.CatalogRepository
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Search(ctx context.Context, filters domain.SearchFilters) ([]domain.Perfume, error) {
	args := m.Called(ctx, filters)
	if r := args.Get(0); r != nil {
		return r.([]domain.Perfume), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalog) GetByName(ctx context.Context, name string) (*domain.Perfume, error) {
	args := m.Called(ctx, name)
	if r := args.Get(0); r != nil {
		return r.(*domain.Perfume), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalog) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockCatalog) Close() error {
	return m.Called().Error(0)
}

// MockProvider is a mock implementation of llm.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string         { return "mock" }
func (m *MockProvider) DefaultModel() string { return "mock-model" }
func (m *MockProvider) IsConfigured() bool   { return true }

func (m *MockProvider) Chat(ctx context.Context, messages []domain.ChatMessage, tools []llm.Tool, model string) (*llm.Result, error) {
	args := m.Called(ctx, messages, tools, model)
	if r := args.Get(0); r != nil {
		return r.(*llm.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

// contentResult builds a plain assistant reply
func contentResult(content string) *llm.Result {
	return &llm.Result{
		Message: domain.ChatMessage{
			Role:    domain.RoleAssistant,
			Content: content,
		},
	}
}

// toolCallResult builds an assistant reply invoking one tool
func toolCallResult(tool, arguments string) *llm.Result {
	return &llm.Result{
		Message: domain.ChatMessage{
			Role: domain.RoleAssistant,
			ToolCalls: []domain.ToolCall{
				{ID: "call_1", Name: tool, Arguments: json.RawMessage(arguments)},
			},
		},
	}
}

// memResults is an in-memory domain.ResultStore
type memResults struct {
	mu sync.Mutex
	m  map[string][]domain.Perfume
}

func newMemResults() *memResults {
	return &memResults{m: make(map[string][]domain.Perfume)}
}

func (s *memResults) Put(partition string, items []domain.Perfume) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]domain.Perfume, len(items))
	copy(cp, items)
	s.m[partition] = cp
	return nil
}

func (s *memResults) Get(partition string) []domain.Perfume {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[partition]
}

// memCursors is an in-memory domain.CursorStore
type memCursors struct {
	mu sync.Mutex
	m  map[string]domain.Cursor
}

func newMemCursors() *memCursors {
	return &memCursors{m: make(map[string]domain.Cursor)}
}

func (s *memCursors) Put(partition string, offset, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[partition] = domain.Cursor{Offset: offset, Total: total}
	return nil
}

func (s *memCursors) Get(partition string) domain.Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[partition]
}
