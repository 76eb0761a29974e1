package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkarlsen/taskpilot/internal/domain"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a resource does not exist or belongs to
// another user. The two cases are indistinguishable on purpose.
var ErrNotFound = errors.New("not found")

// ProjectService handles project operations
type ProjectService struct {
	projectRepo domain.ProjectRepository
}

// NewProjectService creates a new project service
func NewProjectService(projectRepo domain.ProjectRepository) *ProjectService {
	return &ProjectService{projectRepo: projectRepo}
}

// Create creates a project owned by the given user
func (s *ProjectService) Create(ctx context.Context, userID uuid.UUID, input domain.ProjectCreate) (*domain.Project, error) {
	now := time.Now()
	project := &domain.Project{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        input.Name,
		Description: input.Description,
		Color:       input.Color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// Get returns a project if it belongs to the user
func (s *ProjectService) Get(ctx context.Context, userID, projectID uuid.UUID) (*domain.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if project == nil || project.UserID != userID {
		return nil, ErrNotFound
	}
	return project, nil
}

// List returns all projects owned by the user
func (s *ProjectService) List(ctx context.Context, userID uuid.UUID) ([]domain.Project, error) {
	projects, err := s.projectRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// Update applies a partial update to a project the user owns
func (s *ProjectService) Update(ctx context.Context, userID, projectID uuid.UUID, input domain.ProjectUpdate) (*domain.Project, error) {
	project, err := s.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		project.Name = *input.Name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.Color != nil {
		project.Color = *input.Color
	}
	project.UpdatedAt = time.Now()

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return project, nil
}

// Delete removes a project the user owns
func (s *ProjectService) Delete(ctx context.Context, userID, projectID uuid.UUID) error {
	if _, err := s.Get(ctx, userID, projectID); err != nil {
		return err
	}
	if err := s.projectRepo.Delete(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}
