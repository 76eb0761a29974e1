package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkarlsen/taskpilot/internal/ai"
	"github.com/dkarlsen/taskpilot/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AIService fronts the provider router and owns the side effects of AI
// mutations: generated subtasks are persisted under their parent todo,
// and accepted optimizations are written back to the record.
type AIService struct {
	router   *ai.Router
	todoRepo domain.TodoRepository
	logger   zerolog.Logger
}

// NewAIService creates a new AI service
func NewAIService(router *ai.Router, todoRepo domain.TodoRepository, logger zerolog.Logger) *AIService {
	return &AIService{
		router:   router,
		todoRepo: todoRepo,
		logger:   logger,
	}
}

// Providers returns the names of configured providers
func (s *AIService) Providers() []string {
	return s.router.ListProviders()
}

// GenerateSubtasks breaks a todo into subtasks and persists them as
// child todos of the original.
func (s *AIService) GenerateSubtasks(ctx context.Context, userID uuid.UUID, req ai.SubtaskRequest) (*ai.SubtaskResponse, error) {
	todo, err := s.ownedTodo(ctx, userID, req.TodoID)
	if err != nil {
		return nil, err
	}
	req.TodoTitle = todo.Title
	req.TodoDescription = todo.Description

	provider, err := s.router.GetProvider("")
	if err != nil {
		return nil, err
	}

	resp, err := provider.GenerateSubtasks(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("subtask generation failed: %w", err)
	}
	if resp.ParentTaskTitle == "" {
		resp.ParentTaskTitle = todo.Title
	}

	now := time.Now()
	for _, sub := range resp.GeneratedSubtasks {
		child := &domain.Todo{
			ID:            uuid.New(),
			UserID:        userID,
			ProjectID:     todo.ProjectID,
			ParentID:      &todo.ID,
			Title:         sub.Title,
			Description:   sub.Description,
			Priority:      normalizePriority(sub.Priority),
			EstimatedTime: sub.EstimatedTime,
			AIGenerated:   true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.todoRepo.Create(ctx, child); err != nil {
			return nil, fmt.Errorf("failed to save subtask: %w", err)
		}
	}

	s.logger.Info().
		Str("provider", provider.Name()).
		Str("todo_id", req.TodoID).
		Int("subtasks", len(resp.GeneratedSubtasks)).
		Msg("Generated subtasks")
	return resp, nil
}

// SuggestTodos asks the provider for todo suggestions. Existing titles
// are loaded for de-duplication when the caller did not supply any.
func (s *AIService) SuggestTodos(ctx context.Context, userID uuid.UUID, req ai.SuggestionRequest) (*ai.SuggestionResponse, error) {
	if req.UserInput == "" {
		return nil, errors.New("user input is required")
	}

	if req.ExistingTodos == nil {
		todos, err := s.todoRepo.ListByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to list todos: %w", err)
		}
		titles := make([]string, 0, len(todos))
		for _, t := range todos {
			titles = append(titles, t.Title)
		}
		req.ExistingTodos = titles
	}

	provider, err := s.router.GetProvider("")
	if err != nil {
		return nil, err
	}

	resp, err := provider.SuggestTodos(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("todo suggestion failed: %w", err)
	}
	if resp.RequestDescription == "" {
		resp.RequestDescription = req.UserInput
	}
	return resp, nil
}

// OptimizeTask rewrites a todo's title or description. When the request
// names a todo, the rewritten text is written back to the record.
func (s *AIService) OptimizeTask(ctx context.Context, userID uuid.UUID, req ai.OptimizationRequest) (*domain.TaskOptimization, error) {
	if req.OptimizationType == "" {
		req.OptimizationType = "description"
	}

	var todo *domain.Todo
	if req.TodoID != "" {
		var err error
		todo, err = s.ownedTodo(ctx, userID, req.TodoID)
		if err != nil {
			return nil, err
		}
		req.CurrentTitle = todo.Title
		req.CurrentDescription = todo.Description
	}
	if req.CurrentTitle == "" && req.CurrentDescription == "" {
		return nil, errors.New("nothing to optimize")
	}

	provider, err := s.router.GetProvider("")
	if err != nil {
		return nil, err
	}

	opt, err := provider.OptimizeTask(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("task optimization failed: %w", err)
	}

	if todo != nil {
		if opt.OptimizedTitle != "" && req.OptimizationType == "title" {
			todo.Title = opt.OptimizedTitle
		}
		if opt.OptimizedDescription != "" {
			todo.Description = opt.OptimizedDescription
		}
		todo.UpdatedAt = time.Now()
		if err := s.todoRepo.Update(ctx, todo); err != nil {
			return nil, fmt.Errorf("failed to save optimization: %w", err)
		}
	}

	return opt, nil
}

// AnalyzeFile extracts tasks from an uploaded file
func (s *AIService) AnalyzeFile(ctx context.Context, req ai.AnalysisRequest) (*ai.AnalysisResponse, error) {
	if req.FileContent == "" {
		return nil, errors.New("file content is required")
	}

	provider, err := s.router.GetProvider("")
	if err != nil {
		return nil, err
	}

	resp, err := provider.AnalyzeFile(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("file analysis failed: %w", err)
	}
	return resp, nil
}

func (s *AIService) ownedTodo(ctx context.Context, userID uuid.UUID, todoID string) (*domain.Todo, error) {
	id, err := uuid.Parse(todoID)
	if err != nil {
		return nil, fmt.Errorf("invalid todo id: %w", err)
	}
	todo, err := s.todoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	if todo == nil || todo.UserID != userID {
		return nil, ErrNotFound
	}
	return todo, nil
}

func normalizePriority(p string) domain.Priority {
	switch domain.Priority(p) {
	case domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh:
		return domain.Priority(p)
	}
	return domain.PriorityMedium
}
