package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"perfume-chat/internal/api/response"
	"perfume-chat/internal/domain"
	"perfume-chat/internal/service"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ChatHandler handles the chat endpoint
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat processes one user message and returns the assistant reply
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.chatService.Chat(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrProviderNotConfigured) {
			response.InternalError(w, "LLM provider not configured, check server credentials")
			return
		}
		response.InternalError(w, "error processing chat")
		return
	}

	response.OK(w, result)
}
