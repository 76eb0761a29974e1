package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dkarlsen/taskpilot/internal/api/middleware"
	"github.com/dkarlsen/taskpilot/internal/api/response"
	"github.com/dkarlsen/taskpilot/internal/assistant"
	"github.com/dkarlsen/taskpilot/internal/service"
	"github.com/go-chi/chi/v5"
)

// ChatHandler handles the assistant chat endpoints
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type chatRequest struct {
	Message string `json:"message"`
	File    *struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	} `json:"file,omitempty"`
}

// Send runs one assistant turn and returns the updated chat state
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input chatRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	var file *assistant.FileAttachment
	if input.File != nil {
		file = &assistant.FileAttachment{
			Name:    input.File.Name,
			Content: input.File.Content,
		}
	}

	state, err := h.chatService.Execute(r.Context(), userID, input.Message, file)
	if err != nil {
		response.InternalError(w, "chat turn failed")
		return
	}

	response.OK(w, state)
}

// State returns the current chat state
func (h *ChatHandler) State(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	response.OK(w, h.chatService.State(r.Context(), userID))
}

// Clear resets the active session
func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	response.OK(w, h.chatService.ClearChat(r.Context(), userID))
}

// NewSession starts a fresh session
func (h *ChatHandler) NewSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	response.Created(w, h.chatService.NewSession(r.Context(), userID))
}

// SwitchSession activates an existing session
func (h *ChatHandler) SwitchSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	state, err := h.chatService.SwitchSession(r.Context(), userID, chi.URLParam(r, "sessionID"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.NotFound(w, "session not found")
			return
		}
		response.InternalError(w, "failed to switch session")
		return
	}

	response.OK(w, state)
}

// DeleteSession removes a session. The last session cannot be deleted.
func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	state, err := h.chatService.DeleteSession(r.Context(), userID, chi.URLParam(r, "sessionID"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.NotFound(w, "session not found or protected")
			return
		}
		response.InternalError(w, "failed to delete session")
		return
	}

	response.OK(w, state)
}
