package handler

import (
	"errors"
	"fmt"
	"net/http"

	"perfume-chat/internal/api/response"
	"perfume-chat/internal/domain"
	"perfume-chat/internal/service"

	"github.com/go-chi/chi/v5"
)

// PerfumeHandler handles item detail lookups
type PerfumeHandler struct {
	chatService *service.ChatService
}

// NewPerfumeHandler creates a new perfume handler
func NewPerfumeHandler(chatService *service.ChatService) *PerfumeHandler {
	return &PerfumeHandler{chatService: chatService}
}

// Get returns detail for one perfume by name, checking the caller's cached
// search results before the catalog.
func (h *PerfumeHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		response.BadRequest(w, "missing perfume name")
		return
	}
	device := r.URL.Query().Get("device_id")

	item, err := h.chatService.GetPerfume(r.Context(), name, device)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, fmt.Sprintf("perfume %q not found", name))
			return
		}
		response.InternalError(w, "error retrieving perfume details")
		return
	}

	response.OK(w, item)
}
