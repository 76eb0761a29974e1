package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dkarlsen/taskpilot/internal/ai"
	"github.com/dkarlsen/taskpilot/internal/api/middleware"
	"github.com/dkarlsen/taskpilot/internal/api/response"
	"github.com/dkarlsen/taskpilot/internal/service"
)

// AIHandler exposes the AI mutations directly, outside the chat flow
type AIHandler struct {
	aiService *service.AIService
}

// NewAIHandler creates a new AI handler
func NewAIHandler(aiService *service.AIService) *AIHandler {
	return &AIHandler{aiService: aiService}
}

// GenerateSubtasks breaks a todo into persisted subtasks
func (h *AIHandler) GenerateSubtasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req ai.SubtaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.TodoID == "" {
		response.BadRequest(w, "todo_id is required")
		return
	}
	if req.MinSubtasks <= 0 {
		req.MinSubtasks = 3
	}
	if req.MaxSubtasks <= 0 {
		req.MaxSubtasks = 5
	}

	resp, err := h.aiService.GenerateSubtasks(r.Context(), userID, req)
	if err != nil {
		h.renderError(w, err)
		return
	}

	response.OK(w, resp)
}

// SuggestTodos proposes new todos for a free-text request
func (h *AIHandler) SuggestTodos(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req ai.SuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.UserInput == "" {
		response.BadRequest(w, "user_input is required")
		return
	}

	resp, err := h.aiService.SuggestTodos(r.Context(), userID, req)
	if err != nil {
		h.renderError(w, err)
		return
	}

	response.OK(w, resp)
}

// OptimizeTask rewrites a todo's title or description
func (h *AIHandler) OptimizeTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req ai.OptimizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	opt, err := h.aiService.OptimizeTask(r.Context(), userID, req)
	if err != nil {
		h.renderError(w, err)
		return
	}

	response.OK(w, opt)
}

// AnalyzeFile extracts tasks from an uploaded file
func (h *AIHandler) AnalyzeFile(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserID(r.Context()); !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req ai.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.FileContent == "" {
		response.BadRequest(w, "file_content is required")
		return
	}

	resp, err := h.aiService.AnalyzeFile(r.Context(), req)
	if err != nil {
		h.renderError(w, err)
		return
	}

	response.OK(w, resp)
}

func (h *AIHandler) renderError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrNotFound) {
		response.NotFound(w, "todo not found")
		return
	}
	response.Error(w, http.StatusBadGateway, err.Error())
}
