package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"perfume-chat/internal/domain"
	"perfume-chat/internal/llm"
	"perfume-chat/internal/pagination"
	"perfume-chat/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testDeps struct {
	svc      *ChatService
	catalog  *MockCatalog
	provider *MockProvider
	engine   *pagination.Engine
	sessions *memory.SessionRegistry
}

func newTestService(t *testing.T) *testDeps {
	t.Helper()

	catalog := new(MockCatalog)
	provider := new(MockProvider)

	router := llm.NewRouter("mock")
	router.RegisterProvider(provider)

	engine := pagination.NewEngine(newMemResults(), newMemCursors())
	sessions := memory.NewSessionRegistry(llm.SystemPrompt, 0)

	return &testDeps{
		svc:      NewChatService(catalog, sessions, engine, router, 5, 30),
		catalog:  catalog,
		provider: provider,
		engine:   engine,
		sessions: sessions,
	}
}

// withTools matches the tool-decision call, withoutTools the phrasing call.
var (
	withTools    = mock.MatchedBy(func(tools []llm.Tool) bool { return len(tools) > 0 })
	withoutTools = mock.MatchedBy(func(tools []llm.Tool) bool { return len(tools) == 0 })
)

func testPerfumes(n int) []domain.Perfume {
	items := make([]domain.Perfume, n)
	for i := range items {
		items[i] = domain.Perfume{Name: fmt.Sprintf("p%d", i+1)}
	}
	return items
}

func TestChat_DirectReply(t *testing.T) {
	d := newTestService(t)
	d.provider.On("Chat", mock.Anything, mock.Anything, withTools, "").
		Return(contentResult("Hello! Ask me about perfumes."), nil).Once()

	resp, err := d.svc.Chat(context.Background(), domain.ChatRequest{Message: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "Hello! Ask me about perfumes.", resp.Response)
	assert.NotEmpty(t, resp.ConversationID, "missing conversation id must be generated")
	assert.Nil(t, resp.ReturnedCount)
	assert.Nil(t, resp.RemainingCount)
	d.provider.AssertExpectations(t)
	d.catalog.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestChat_SearchToolCall(t *testing.T) {
	d := newTestService(t)
	d.catalog.On("Search", mock.Anything, domain.SearchFilters{MainAccords: "fresh"}).
		Return(testPerfumes(12), nil).Once()
	d.provider.On("Chat", mock.Anything, mock.Anything, withTools, "").
		Return(toolCallResult(llm.ToolSearchPerfumes, `{"main_accords":"fresh"}`), nil).Once()
	d.provider.On("Chat", mock.Anything, mock.Anything, withoutTools, "").
		Return(contentResult("Here are some fresh picks."), nil).Once()

	resp, err := d.svc.Chat(context.Background(), domain.ChatRequest{
		Message:  "something fresh",
		DeviceID: "dev-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "Here are some fresh picks.", resp.Response)
	assert.Equal(t, []string{"p1", "p2", "p3", "p4", "p5"}, resp.MatchedPerfumes)
	require.NotNil(t, resp.ReturnedCount)
	assert.Equal(t, 5, *resp.ReturnedCount)
	require.NotNil(t, resp.RemainingCount)
	assert.Equal(t, 7, *resp.RemainingCount)

	// Transcript carries the tool result for the phrasing call.
	msgs := d.sessions.Messages(resp.ConversationID)
	var toolMsgs int
	for _, m := range msgs {
		if m.Role == domain.RoleTool {
			toolMsgs++
			assert.Equal(t, "call_1", m.ToolCallID)
			assert.Contains(t, m.Content, `"matched_perfumes"`)
		}
	}
	assert.Equal(t, 1, toolMsgs)
	d.provider.AssertExpectations(t)
	d.catalog.AssertExpectations(t)
}

func TestChat_NextResultsToolCall(t *testing.T) {
	d := newTestService(t)

	// Existing conversation with stored results already paged once.
	d.sessions.GetOrCreate("conv-1")
	_, err := d.engine.StoreAndPage("dev-1", testPerfumes(12), 5)
	require.NoError(t, err)

	d.provider.On("Chat", mock.Anything, mock.Anything, withTools, "").
		Return(toolCallResult(llm.ToolNextResults, `{"count":3}`), nil).Once()
	d.provider.On("Chat", mock.Anything, mock.Anything, withoutTools, "").
		Return(contentResult("Three more."), nil).Once()

	resp, err := d.svc.Chat(context.Background(), domain.ChatRequest{
		Message:        "show more",
		ConversationID: "conv-1",
		DeviceID:       "dev-1",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"p6", "p7", "p8"}, resp.MatchedPerfumes)
	assert.Equal(t, 3, *resp.ReturnedCount)
	assert.Equal(t, 4, *resp.RemainingCount)
	d.catalog.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestChat_NextResultsDefaultCount(t *testing.T) {
	d := newTestService(t)
	d.sessions.GetOrCreate("conv-1")
	_, err := d.engine.StoreAndPage("dev-1", testPerfumes(12), 5)
	require.NoError(t, err)

	d.provider.On("Chat", mock.Anything, mock.Anything, withTools, "").
		Return(toolCallResult(llm.ToolNextResults, `{}`), nil).Once()
	d.provider.On("Chat", mock.Anything, mock.Anything, withoutTools, "").
		Return(contentResult("More."), nil).Once()

	resp, err := d.svc.Chat(context.Background(), domain.ChatRequest{
		Message:        "more",
		ConversationID: "conv-1",
		DeviceID:       "dev-1",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"p6", "p7", "p8", "p9", "p10"}, resp.MatchedPerfumes)
	assert.Equal(t, 2, *resp.RemainingCount)
}

func TestChat_NextResultsExhausted(t *testing.T) {
	d := newTestService(t)
	d.sessions.GetOrCreate("conv-1")
	_, err := d.engine.StoreAndPage("dev-1", testPerfumes(3), 5)
	require.NoError(t, err)

	d.provider.On("Chat", mock.Anything, mock.Anything, withTools, "").
		Return(toolCallResult(llm.ToolNextResults, `{}`), nil).Once()
	d.provider.On("Chat", mock.Anything, mock.Anything, withoutTools, "").
		Return(contentResult("That was everything."), nil).Once()

	resp, err := d.svc.Chat(context.Background(), domain.ChatRequest{
		Message:        "more",
		ConversationID: "conv-1",
		DeviceID:       "dev-1",
	})
	require.NoError(t, err)

	assert.Empty(t, resp.MatchedPerfumes)
	assert.Equal(t, 0, *resp.ReturnedCount)
	assert.Equal(t, 0, *resp.RemainingCount)
}

func TestChat_UnknownToolIsNoOp(t *testing.T) {
	d := newTestService(t)
	d.sessions.GetOrCreate("conv-1")
	_, err := d.engine.StoreAndPage("dev-1", testPerfumes(10), 5)
	require.NoError(t, err)

	d.provider.On("Chat", mock.Anything, mock.Anything, withTools, "").
		Return(toolCallResult("drop_table", `{}`), nil).Once()
	d.provider.On("Chat", mock.Anything, mock.Anything, withoutTools, "").
		Return(contentResult("Sorry, I cannot do that."), nil).Once()

	resp, err := d.svc.Chat(context.Background(), domain.ChatRequest{
		Message:        "do something odd",
		ConversationID: "conv-1",
		DeviceID:       "dev-1",
	})
	require.NoError(t, err)

	assert.Empty(t, resp.MatchedPerfumes)
	assert.Equal(t, 0, *resp.ReturnedCount)
	assert.Equal(t, 5, d.engine.Remaining("dev-1"), "unknown tool must not move the cursor")
	d.catalog.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestChat_MalformedSearchArgsIsNoOp(t *testing.T) {
	d := newTestService(t)
	d.provider.On("Chat", mock.Anything, mock.Anything, withTools, "").
		Return(toolCallResult(llm.ToolSearchPerfumes, `{"top_notes": 42}`), nil).Once()
	d.provider.On("Chat", mock.Anything, mock.Anything, withoutTools, "").
		Return(contentResult("Could you rephrase that?"), nil).Once()

	resp, err := d.svc.Chat(context.Background(), domain.ChatRequest{Message: "search"})
	require.NoError(t, err)

	assert.Empty(t, resp.MatchedPerfumes)
	d.catalog.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

// A phrasing failure after the tool ran must keep the committed pagination
// state and fall back to a literal reply.
func TestChat_PhrasingFailureKeepsCommittedState(t *testing.T) {
	d := newTestService(t)
	d.catalog.On("Search", mock.Anything, mock.Anything).
		Return(testPerfumes(7), nil).Once()
	d.provider.On("Chat", mock.Anything, mock.Anything, withTools, "").
		Return(toolCallResult(llm.ToolSearchPerfumes, `{}`), nil).Once()
	d.provider.On("Chat", mock.Anything, mock.Anything, withoutTools, "").
		Return(nil, errors.New("upstream timeout")).Once()

	resp, err := d.svc.Chat(context.Background(), domain.ChatRequest{
		Message:  "anything",
		DeviceID: "dev-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "Results: p1, p2, p3, p4, p5 (5 shown, 2 remaining)", resp.Response)
	assert.Equal(t, 2, d.engine.Remaining("dev-1"), "pagination state must stay committed")

	// The next page picks up exactly where the failed turn left off.
	batch, err := d.engine.NextPage("dev-1", 5)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "p6", batch[0].Name)
}

func TestChat_FirstCallFailure(t *testing.T) {
	d := newTestService(t)
	d.provider.On("Chat", mock.Anything, mock.Anything, withTools, "").
		Return(nil, errors.New("upstream down")).Once()

	_, err := d.svc.Chat(context.Background(), domain.ChatRequest{Message: "hi"})
	assert.Error(t, err)
}

func TestChat_NewConversationResetsDevicePagination(t *testing.T) {
	d := newTestService(t)
	_, err := d.engine.StoreAndPage("dev-1", testPerfumes(10), 5)
	require.NoError(t, err)

	d.provider.On("Chat", mock.Anything, mock.Anything, withTools, "").
		Return(contentResult("Hi!"), nil).Once()

	_, err = d.svc.Chat(context.Background(), domain.ChatRequest{
		Message:  "hello",
		DeviceID: "dev-1",
	})
	require.NoError(t, err)

	// The zeroed cursor blocks paging into the previous conversation's results.
	batch, err := d.engine.NextPage("dev-1", 5)
	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestChat_ExistingConversationKeepsPagination(t *testing.T) {
	d := newTestService(t)
	d.sessions.GetOrCreate("conv-1")
	_, err := d.engine.StoreAndPage("dev-1", testPerfumes(10), 5)
	require.NoError(t, err)

	d.provider.On("Chat", mock.Anything, mock.Anything, withTools, "").
		Return(contentResult("Hi again!"), nil).Once()

	_, err = d.svc.Chat(context.Background(), domain.ChatRequest{
		Message:        "hello again",
		ConversationID: "conv-1",
		DeviceID:       "dev-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 5, d.engine.Remaining("dev-1"))
}

func TestChat_NoProviderConfigured(t *testing.T) {
	catalog := new(MockCatalog)
	engine := pagination.NewEngine(newMemResults(), newMemCursors())
	sessions := memory.NewSessionRegistry(llm.SystemPrompt, 0)
	svc := NewChatService(catalog, sessions, engine, llm.NewRouter("openai"), 5, 30)

	_, err := svc.Chat(context.Background(), domain.ChatRequest{Message: "hi"})
	assert.True(t, errors.Is(err, domain.ErrProviderNotConfigured))
}

func TestGetPerfume_CachedResultFirst(t *testing.T) {
	d := newTestService(t)
	cached := domain.Perfume{Name: "Aventus", MainAccords: []string{"fruity"}}
	_, err := d.engine.StoreAndPage("dev-1", []domain.Perfume{cached}, 5)
	require.NoError(t, err)

	item, err := d.svc.GetPerfume(context.Background(), "aventus", "dev-1")
	require.NoError(t, err)

	assert.Equal(t, cached, *item)
	d.catalog.AssertNotCalled(t, "GetByName", mock.Anything, mock.Anything)
}

func TestGetPerfume_FallsBackToCatalog(t *testing.T) {
	d := newTestService(t)
	d.catalog.On("GetByName", mock.Anything, "Sauvage").
		Return(&domain.Perfume{Name: "Sauvage"}, nil).Once()

	item, err := d.svc.GetPerfume(context.Background(), "Sauvage", "dev-1")
	require.NoError(t, err)
	assert.Equal(t, "Sauvage", item.Name)
	d.catalog.AssertExpectations(t)
}

func TestGetPerfume_NotFound(t *testing.T) {
	d := newTestService(t)
	d.catalog.On("GetByName", mock.Anything, "Nothing").
		Return(nil, domain.ErrNotFound).Once()

	_, err := d.svc.GetPerfume(context.Background(), "Nothing", "")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
