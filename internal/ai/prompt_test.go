package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	t.Run("json code fence", func(t *testing.T) {
		content := "Here you go:\n```json\n{\"a\": 1}\n```\nLet me know!"
		assert.Equal(t, `{"a": 1}`, ExtractJSON(content))
	})

	t.Run("plain code fence", func(t *testing.T) {
		content := "```\n{\"a\": 1}\n```"
		assert.Equal(t, `{"a": 1}`, ExtractJSON(content))
	})

	t.Run("surrounding prose", func(t *testing.T) {
		content := `Sure, the result is {"a": {"b": 2}} as requested.`
		assert.Equal(t, `{"a": {"b": 2}}`, ExtractJSON(content))
	})

	t.Run("bare json passes through", func(t *testing.T) {
		assert.Equal(t, `{"a": 1}`, ExtractJSON(`{"a": 1}`))
	})

	t.Run("no json returns trimmed input", func(t *testing.T) {
		assert.Equal(t, "no structured data here", ExtractJSON("  no structured data here \n"))
	})
}

func TestBuildSubtaskPrompt(t *testing.T) {
	req := SubtaskRequest{
		TodoTitle:       "Plan vacation",
		TodoDescription: "Two weeks in March",
		MinSubtasks:     3,
		MaxSubtasks:     5,
	}

	prompt := BuildSubtaskPrompt(req)
	assert.Contains(t, prompt, "between 3 and 5")
	assert.Contains(t, prompt, "Plan vacation")
	assert.Contains(t, prompt, "Two weeks in March")
	assert.Contains(t, prompt, "generated_subtasks")
}

func TestBuildSuggestionPrompt(t *testing.T) {
	t.Run("includes existing todos", func(t *testing.T) {
		prompt := BuildSuggestionPrompt(SuggestionRequest{
			UserInput:     "help me move house",
			ExistingTodos: []string{"Pack kitchen", "Book movers"},
		})
		assert.Contains(t, prompt, "help me move house")
		assert.Contains(t, prompt, "- Pack kitchen")
		assert.Contains(t, prompt, "- Book movers")
	})

	t.Run("omits empty todo list", func(t *testing.T) {
		prompt := BuildSuggestionPrompt(SuggestionRequest{UserInput: "help me move house"})
		assert.NotContains(t, prompt, "already has these todos")
	})
}

func TestBuildOptimizationPrompt(t *testing.T) {
	prompt := BuildOptimizationPrompt(OptimizationRequest{
		CurrentTitle:       "do stuff",
		CurrentDescription: "misc",
		OptimizationType:   "description",
	})
	assert.Contains(t, prompt, "Improve the description")
	assert.Contains(t, prompt, "do stuff")
	assert.Contains(t, prompt, "optimized_description")
}
