package domain

import "time"

// PayloadType discriminates the structured data an assistant message may
// carry in addition to its plain text. Exactly one variant is populated per
// message.
type PayloadType string

const (
	PayloadSubtasks        PayloadType = "subtasks"
	PayloadTodoSuggestions PayloadType = "todo_suggestions"
	PayloadAnalysis        PayloadType = "analysis"
	PayloadOptimization    PayloadType = "optimization"
)

// MessagePayload is the tagged union attached to assistant messages. The
// Type field determines which variant is set and how consumers render it.
type MessagePayload struct {
	Type            PayloadType             `json:"type"`
	Subtasks        *SubtasksPayload        `json:"subtasks,omitempty"`
	TodoSuggestions *TodoSuggestionsPayload `json:"todo_suggestions,omitempty"`
	Analysis        *AnalysisPayload        `json:"analysis,omitempty"`
	Optimization    *OptimizationPayload    `json:"optimization,omitempty"`
}

// Subtask is one generated step of a larger todo
type Subtask struct {
	Title         string `json:"title"`
	Order         int    `json:"order"`
	Priority      string `json:"priority"`
	Description   string `json:"description,omitempty"`
	EstimatedTime string `json:"estimated_time,omitempty"`
}

// SubtasksPayload carries the result of breaking a todo into subtasks
type SubtasksPayload struct {
	ParentTaskTitle string    `json:"parent_task_title"`
	Subtasks        []Subtask `json:"subtasks"`
	AutoCreated     bool      `json:"auto_created,omitempty"`
}

// TodoSuggestion is one proposed todo item
type TodoSuggestion struct {
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	Priority      string `json:"priority"`
	Category      string `json:"category,omitempty"`
	EstimatedTime string `json:"estimated_time,omitempty"`
}

// TodoSuggestionsPayload carries generated todo suggestions
type TodoSuggestionsPayload struct {
	RequestDescription string           `json:"request_description"`
	Suggestions        []TodoSuggestion `json:"suggestions"`
}

// FileAnalysis is the structured result of analyzing an uploaded file
type FileAnalysis struct {
	Summary         string           `json:"summary,omitempty"`
	KeyPoints       []string         `json:"key_points"`
	SuggestedTasks  []TodoSuggestion `json:"suggested_tasks"`
	ConfidenceScore float64          `json:"confidence_score"`
}

// AnalysisPayload carries a file analysis result
type AnalysisPayload struct {
	Analysis FileAnalysis `json:"analysis"`
}

// TaskOptimization is the result of rewriting a todo's title or description
type TaskOptimization struct {
	OriginalTitle         string    `json:"original_title,omitempty"`
	OriginalDescription   string    `json:"original_description,omitempty"`
	OptimizedTitle        string    `json:"optimized_title,omitempty"`
	OptimizedDescription  string    `json:"optimized_description,omitempty"`
	Improvements          []string  `json:"improvements"`
	OptimizationType      string    `json:"optimization_type"`
	AIModel               string    `json:"ai_model"`
	OptimizationTimestamp time.Time `json:"optimization_timestamp"`
}

// OptimizationPayload carries a task optimization result
type OptimizationPayload struct {
	Optimization TaskOptimization `json:"optimization"`
}
