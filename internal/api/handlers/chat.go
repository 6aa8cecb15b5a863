package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"floatdeck/internal/chat"
	"floatdeck/internal/core"
)

// ChatServiceInterface defines the service contract for the chat handler.
type ChatServiceInterface interface {
	Ask(ctx context.Context, message string) (*chat.Response, error)
}

// ChatHandler maps the chat endpoint to the chat service.
type ChatHandler struct {
	service ChatServiceInterface
	logger  *slog.Logger
}

// NewChatHandler creates the handler.
func NewChatHandler(svc ChatServiceInterface, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{service: svc, logger: logger}
}

// RegisterRoutes mounts the chat endpoint onto the v1 group.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.HandleAsk)
}

type chatRequest struct {
	Message string `json:"message"`
}

// HandleAsk handles POST /v1/chat.
func (h *ChatHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	resp, err := h.service.Ask(r.Context(), req.Message)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: resp})
}
