package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dkarlsen/taskpilot/internal/domain"
	"github.com/google/uuid"
)

// TodoService handles todo operations
type TodoService struct {
	todoRepo domain.TodoRepository
}

// NewTodoService creates a new todo service
func NewTodoService(todoRepo domain.TodoRepository) *TodoService {
	return &TodoService{todoRepo: todoRepo}
}

// Create creates a todo owned by the given user
func (s *TodoService) Create(ctx context.Context, userID uuid.UUID, input domain.TodoCreate) (*domain.Todo, error) {
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}

	now := time.Now()
	todo := &domain.Todo{
		ID:            uuid.New(),
		UserID:        userID,
		ProjectID:     input.ProjectID,
		ParentID:      input.ParentID,
		Title:         input.Title,
		Description:   input.Description,
		Priority:      priority,
		Category:      input.Category,
		EstimatedTime: input.EstimatedTime,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.todoRepo.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}
	return todo, nil
}

// Get returns a todo if it belongs to the user
func (s *TodoService) Get(ctx context.Context, userID, todoID uuid.UUID) (*domain.Todo, error) {
	todo, err := s.todoRepo.GetByID(ctx, todoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	if todo == nil || todo.UserID != userID {
		return nil, ErrNotFound
	}
	return todo, nil
}

// List returns all todos owned by the user
func (s *TodoService) List(ctx context.Context, userID uuid.UUID) ([]domain.Todo, error) {
	todos, err := s.todoRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

// ListByProject returns the user's todos within a project
func (s *TodoService) ListByProject(ctx context.Context, userID, projectID uuid.UUID) ([]domain.Todo, error) {
	todos, err := s.todoRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	owned := todos[:0]
	for _, t := range todos {
		if t.UserID == userID {
			owned = append(owned, t)
		}
	}
	return owned, nil
}

// Subtasks returns the child todos of a todo the user owns
func (s *TodoService) Subtasks(ctx context.Context, userID, todoID uuid.UUID) ([]domain.Todo, error) {
	if _, err := s.Get(ctx, userID, todoID); err != nil {
		return nil, err
	}
	subtasks, err := s.todoRepo.ListByParent(ctx, todoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subtasks: %w", err)
	}
	return subtasks, nil
}

// Update applies a partial update to a todo the user owns
func (s *TodoService) Update(ctx context.Context, userID, todoID uuid.UUID, input domain.TodoUpdate) (*domain.Todo, error) {
	todo, err := s.Get(ctx, userID, todoID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		todo.Title = *input.Title
	}
	if input.Description != nil {
		todo.Description = *input.Description
	}
	if input.Priority != nil {
		todo.Priority = *input.Priority
	}
	if input.ProjectID != nil {
		todo.ProjectID = input.ProjectID
	}
	if input.Category != nil {
		todo.Category = *input.Category
	}
	if input.EstimatedTime != nil {
		todo.EstimatedTime = *input.EstimatedTime
	}
	if input.Completed != nil {
		todo.Completed = *input.Completed
	}
	todo.UpdatedAt = time.Now()

	if err := s.todoRepo.Update(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	return todo, nil
}

// Delete removes a todo the user owns
func (s *TodoService) Delete(ctx context.Context, userID, todoID uuid.UUID) error {
	if _, err := s.Get(ctx, userID, todoID); err != nil {
		return err
	}
	if err := s.todoRepo.Delete(ctx, todoID); err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return nil
}
