package ai

import (
	"context"

	"github.com/dkarlsen/taskpilot/internal/domain"
)

// SubtaskRequest asks the backend to break a todo into subtasks
type SubtaskRequest struct {
	TodoID          string `json:"todo_id"`
	TodoTitle       string `json:"todo_title,omitempty"`
	TodoDescription string `json:"todo_description,omitempty"`
	MinSubtasks     int    `json:"min_subtasks"`
	MaxSubtasks     int    `json:"max_subtasks"`
}

// SubtaskResponse is the backend's subtask generation result
type SubtaskResponse struct {
	ParentTaskTitle   string           `json:"parent_task_title"`
	GeneratedSubtasks []domain.Subtask `json:"generated_subtasks"`
	Model             string           `json:"model,omitempty"`
}

// SuggestionRequest asks the backend for todo suggestions. ExistingTodos
// carries current todo titles so the backend can avoid duplicates.
type SuggestionRequest struct {
	UserInput     string   `json:"user_input"`
	ProjectID     string   `json:"project_id,omitempty"`
	ExistingTodos []string `json:"existing_todos"`
}

// SuggestionResponse is the backend's todo suggestion result
type SuggestionResponse struct {
	RequestDescription string                  `json:"request_description"`
	GeneratedTodos     []domain.TodoSuggestion `json:"generated_todos"`
	Model              string                  `json:"model,omitempty"`
}

// OptimizationRequest asks the backend to rewrite a todo's title or description
type OptimizationRequest struct {
	TodoID             string `json:"todo_id,omitempty"`
	CurrentTitle       string `json:"current_title,omitempty"`
	CurrentDescription string `json:"current_description,omitempty"`
	OptimizationType   string `json:"optimization_type"`
}

// AnalysisRequest asks the backend to extract tasks from an uploaded file
type AnalysisRequest struct {
	FileName    string `json:"file_name"`
	FileContent string `json:"file_content"`
}

// AnalysisResponse is the backend's file analysis result
type AnalysisResponse struct {
	Analysis domain.FileAnalysis `json:"analysis"`
	Model    string              `json:"model,omitempty"`
}

// Provider defines the interface for task-AI backends
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// GenerateSubtasks breaks a todo into ordered subtasks
	GenerateSubtasks(ctx context.Context, req SubtaskRequest) (*SubtaskResponse, error)

	// SuggestTodos proposes new todos for a free-text request
	SuggestTodos(ctx context.Context, req SuggestionRequest) (*SuggestionResponse, error)

	// OptimizeTask rewrites a todo's title or description
	OptimizeTask(ctx context.Context, req OptimizationRequest) (*domain.TaskOptimization, error)

	// AnalyzeFile extracts actionable tasks from an uploaded file
	AnalyzeFile(ctx context.Context, req AnalysisRequest) (*AnalysisResponse, error)
}
