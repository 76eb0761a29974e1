package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dkarlsen/taskpilot/internal/api/middleware"
	"github.com/dkarlsen/taskpilot/internal/api/response"
	"github.com/dkarlsen/taskpilot/internal/domain"
	"github.com/dkarlsen/taskpilot/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// TodoHandler handles todo endpoints
type TodoHandler struct {
	todoService *service.TodoService
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(todoService *service.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

// Create handles todo creation
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.TodoCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	todo, err := h.todoService.Create(r.Context(), userID, input)
	if err != nil {
		response.InternalError(w, "failed to create todo")
		return
	}

	response.Created(w, todo)
}

// List returns the user's todos, optionally filtered by project
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var (
		todos []domain.Todo
		err   error
	)
	if projectParam := r.URL.Query().Get("project_id"); projectParam != "" {
		projectID, parseErr := uuid.Parse(projectParam)
		if parseErr != nil {
			response.BadRequest(w, "invalid project ID")
			return
		}
		todos, err = h.todoService.ListByProject(r.Context(), userID, projectID)
	} else {
		todos, err = h.todoService.List(r.Context(), userID)
	}
	if err != nil {
		response.InternalError(w, "failed to list todos")
		return
	}

	response.OK(w, todos)
}

// Get returns one todo
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, todoID, ok := h.resolve(w, r)
	if !ok {
		return
	}

	todo, err := h.todoService.Get(r.Context(), userID, todoID)
	if err != nil {
		h.renderError(w, err)
		return
	}

	response.OK(w, todo)
}

// Subtasks returns the child todos of a todo
func (h *TodoHandler) Subtasks(w http.ResponseWriter, r *http.Request) {
	userID, todoID, ok := h.resolve(w, r)
	if !ok {
		return
	}

	subtasks, err := h.todoService.Subtasks(r.Context(), userID, todoID)
	if err != nil {
		h.renderError(w, err)
		return
	}

	response.OK(w, subtasks)
}

// Update handles a partial todo update
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, todoID, ok := h.resolve(w, r)
	if !ok {
		return
	}

	var input domain.TodoUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	todo, err := h.todoService.Update(r.Context(), userID, todoID, input)
	if err != nil {
		h.renderError(w, err)
		return
	}

	response.OK(w, todo)
}

// Delete removes a todo
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, todoID, ok := h.resolve(w, r)
	if !ok {
		return
	}

	if err := h.todoService.Delete(r.Context(), userID, todoID); err != nil {
		h.renderError(w, err)
		return
	}

	response.NoContent(w)
}

func (h *TodoHandler) resolve(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	todoID, err := uuid.Parse(chi.URLParam(r, "todoID"))
	if err != nil {
		response.BadRequest(w, "invalid todo ID")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, todoID, true
}

func (h *TodoHandler) renderError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrNotFound) {
		response.NotFound(w, "todo not found")
		return
	}
	response.InternalError(w, "todo operation failed")
}
