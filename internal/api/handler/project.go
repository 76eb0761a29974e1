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

// ProjectHandler handles project endpoints
type ProjectHandler struct {
	projectService *service.ProjectService
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// Create handles project creation
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.ProjectCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	project, err := h.projectService.Create(r.Context(), userID, input)
	if err != nil {
		response.InternalError(w, "failed to create project")
		return
	}

	response.Created(w, project)
}

// List returns the user's projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	projects, err := h.projectService.List(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "failed to list projects")
		return
	}

	response.OK(w, projects)
}

// Get returns one project
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := h.resolve(w, r)
	if !ok {
		return
	}

	project, err := h.projectService.Get(r.Context(), userID, projectID)
	if err != nil {
		h.renderError(w, err)
		return
	}

	response.OK(w, project)
}

// Update handles a partial project update
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := h.resolve(w, r)
	if !ok {
		return
	}

	var input domain.ProjectUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	project, err := h.projectService.Update(r.Context(), userID, projectID, input)
	if err != nil {
		h.renderError(w, err)
		return
	}

	response.OK(w, project)
}

// Delete removes a project
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := h.resolve(w, r)
	if !ok {
		return
	}

	if err := h.projectService.Delete(r.Context(), userID, projectID); err != nil {
		h.renderError(w, err)
		return
	}

	response.NoContent(w)
}

func (h *ProjectHandler) resolve(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		response.BadRequest(w, "invalid project ID")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, projectID, true
}

func (h *ProjectHandler) renderError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrNotFound) {
		response.NotFound(w, "project not found")
		return
	}
	response.InternalError(w, "project operation failed")
}
