package ai

import (
	"fmt"
	"strings"
)

// BuildSubtaskPrompt creates a prompt for subtask generation
func BuildSubtaskPrompt(req SubtaskRequest) string {
	desc := ""
	if req.TodoDescription != "" {
		desc = fmt.Sprintf("\nDescription: %s", req.TodoDescription)
	}

	return fmt.Sprintf(`You are a task planning assistant. Break the following todo into between %d and %d concrete subtasks.

Todo: %s%s

Respond with ONLY a JSON object in this exact shape, no markdown or commentary:
{"parent_task_title": "...", "generated_subtasks": [{"title": "...", "order": 1, "priority": "low|medium|high", "description": "...", "estimated_time": "..."}]}

Rules:
1. Subtasks must be actionable and concrete
2. Order them by execution sequence, starting at 1
3. Keep titles under 80 characters
4. estimated_time is a short phrase like "30 minutes" or "2 hours"`,
		req.MinSubtasks, req.MaxSubtasks, req.TodoTitle, desc)
}

// BuildSuggestionPrompt creates a prompt for todo suggestions
func BuildSuggestionPrompt(req SuggestionRequest) string {
	existing := ""
	if len(req.ExistingTodos) > 0 {
		existing = fmt.Sprintf("\nThe user already has these todos (do not duplicate them):\n- %s",
			strings.Join(req.ExistingTodos, "\n- "))
	}

	return fmt.Sprintf(`You are a task planning assistant. Suggest todos for the following request.

Request: %s%s

Respond with ONLY a JSON object in this exact shape, no markdown or commentary:
{"request_description": "...", "generated_todos": [{"title": "...", "description": "...", "priority": "low|medium|high", "category": "...", "estimated_time": "..."}]}

Rules:
1. Suggest between 3 and 7 todos
2. Each todo must be concrete and independently completable
3. Do not repeat any existing todo`, req.UserInput, existing)
}

// BuildOptimizationPrompt creates a prompt for task optimization
func BuildOptimizationPrompt(req OptimizationRequest) string {
	return fmt.Sprintf(`You are a task writing assistant. Improve the %s of the following todo.

Title: %s
Description: %s

Respond with ONLY a JSON object in this exact shape, no markdown or commentary:
{"optimized_title": "...", "optimized_description": "...", "improvements": ["..."]}

Rules:
1. Keep the original intent
2. Make the text specific, unambiguous and actionable
3. List each concrete improvement you made`,
		req.OptimizationType, req.CurrentTitle, req.CurrentDescription)
}

// BuildAnalysisPrompt creates a prompt for file analysis
func BuildAnalysisPrompt(req AnalysisRequest) string {
	return fmt.Sprintf(`You are a task extraction assistant. Analyze the following file and extract actionable tasks.

File name: %s
File content:
%s

Respond with ONLY a JSON object in this exact shape, no markdown or commentary:
{"analysis": {"summary": "...", "key_points": ["..."], "suggested_tasks": [{"title": "...", "description": "...", "priority": "low|medium|high"}], "confidence_score": 0.0}}`,
		req.FileName, req.FileContent)
}

// ExtractJSON extracts a JSON document from a model response, stripping
// markdown code fences and surrounding prose the model may add despite
// instructions.
func ExtractJSON(content string) string {
	if body := extractFromCodeBlock(content, "```json"); body != "" {
		return body
	}
	if body := extractFromCodeBlock(content, "```"); body != "" {
		return body
	}

	// Fall back to the outermost braces.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return strings.TrimSpace(content[start : end+1])
	}

	return strings.TrimSpace(content)
}

func extractFromCodeBlock(content, marker string) string {
	start := strings.Index(content, marker)
	if start == -1 {
		return ""
	}
	body := content[start+len(marker):]

	end := strings.Index(body, "```")
	if end == -1 {
		return ""
	}

	return strings.TrimSpace(body[:end])
}
