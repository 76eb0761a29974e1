package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Priority levels for todos
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Todo represents a task item. A todo with a non-nil ParentID is a subtask.
type Todo struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	ProjectID     *uuid.UUID `json:"project_id,omitempty"`
	ParentID      *uuid.UUID `json:"parent_id,omitempty"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Priority      Priority   `json:"priority"`
	Category      string     `json:"category,omitempty"`
	EstimatedTime string     `json:"estimated_time,omitempty"`
	Completed     bool       `json:"completed"`
	AIGenerated   bool       `json:"ai_generated"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TodoCreate represents todo creation data
type TodoCreate struct {
	Title         string     `json:"title" validate:"required,max=255"`
	Description   string     `json:"description,omitempty" validate:"omitempty,max=5000"`
	Priority      Priority   `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	ProjectID     *uuid.UUID `json:"project_id,omitempty"`
	ParentID      *uuid.UUID `json:"parent_id,omitempty"`
	Category      string     `json:"category,omitempty" validate:"omitempty,max=100"`
	EstimatedTime string     `json:"estimated_time,omitempty" validate:"omitempty,max=50"`
}

// TodoUpdate represents todo update data
type TodoUpdate struct {
	Title         *string    `json:"title,omitempty" validate:"omitempty,max=255"`
	Description   *string    `json:"description,omitempty" validate:"omitempty,max=5000"`
	Priority      *Priority  `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	ProjectID     *uuid.UUID `json:"project_id,omitempty"`
	Category      *string    `json:"category,omitempty" validate:"omitempty,max=100"`
	EstimatedTime *string    `json:"estimated_time,omitempty" validate:"omitempty,max=50"`
	Completed     *bool      `json:"completed,omitempty"`
}

// TodoRef is the read-only view of a todo the assistant uses for matching
// natural-language references against existing records.
type TodoRef struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Ref returns the assistant-facing view of the todo.
func (t *Todo) Ref() TodoRef {
	return TodoRef{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
	}
}

// TodoRepository defines the interface for todo storage
type TodoRepository interface {
	Create(ctx context.Context, todo *Todo) error
	GetByID(ctx context.Context, id uuid.UUID) (*Todo, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Todo, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]Todo, error)
	ListByParent(ctx context.Context, parentID uuid.UUID) ([]Todo, error)
	Update(ctx context.Context, todo *Todo) error
	Delete(ctx context.Context, id uuid.UUID) error
}
