package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkarlsen/taskpilot/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const todoColumns = `id, user_id, project_id, parent_id, title, description, priority,
	category, estimated_time, completed, ai_generated, created_at, updated_at`

// TodoRepository implements domain.TodoRepository
type TodoRepository struct {
	db *DB
}

// NewTodoRepository creates a new todo repository
func NewTodoRepository(db *DB) *TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	query := `
		INSERT INTO todos (` + todoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.Pool.Exec(ctx, query,
		todo.ID,
		todo.UserID,
		todo.ProjectID,
		todo.ParentID,
		todo.Title,
		todo.Description,
		todo.Priority,
		todo.Category,
		todo.EstimatedTime,
		todo.Completed,
		todo.AIGenerated,
		todo.CreatedAt,
		todo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}
	return nil
}

func (r *TodoRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1`

	var t domain.Todo
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.UserID,
		&t.ProjectID,
		&t.ParentID,
		&t.Title,
		&t.Description,
		&t.Priority,
		&t.Category,
		&t.EstimatedTime,
		&t.Completed,
		&t.AIGenerated,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	return &t, nil
}

func (r *TodoRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *TodoRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE project_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, projectID)
}

func (r *TodoRepository) ListByParent(ctx context.Context, parentID uuid.UUID) ([]domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE parent_id = $1 ORDER BY created_at ASC`
	return r.list(ctx, query, parentID)
}

func (r *TodoRepository) list(ctx context.Context, query string, arg any) ([]domain.Todo, error) {
	rows, err := r.db.Pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	var todos []domain.Todo
	for rows.Next() {
		var t domain.Todo
		if err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.ProjectID,
			&t.ParentID,
			&t.Title,
			&t.Description,
			&t.Priority,
			&t.Category,
			&t.EstimatedTime,
			&t.Completed,
			&t.AIGenerated,
			&t.CreatedAt,
			&t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	return todos, nil
}

func (r *TodoRepository) Update(ctx context.Context, todo *domain.Todo) error {
	query := `
		UPDATE todos
		SET project_id = $1, title = $2, description = $3, priority = $4, category = $5,
			estimated_time = $6, completed = $7, updated_at = $8
		WHERE id = $9
	`
	_, err := r.db.Pool.Exec(ctx, query,
		todo.ProjectID,
		todo.Title,
		todo.Description,
		todo.Priority,
		todo.Category,
		todo.EstimatedTime,
		todo.Completed,
		todo.UpdatedAt,
		todo.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	return nil
}

func (r *TodoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM todos WHERE id = $1`
	_, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return nil
}
