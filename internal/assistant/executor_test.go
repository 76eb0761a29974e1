package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/dkarlsen/taskpilot/internal/ai"
	"github.com/dkarlsen/taskpilot/internal/chatstore"
	"github.com/dkarlsen/taskpilot/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestExecutor(t *testing.T) (*Executor, *chatstore.Store, *MockBackend) {
	t.Helper()
	store := chatstore.New(context.Background(), &stubStorage{}, zerolog.Nop())
	backend := new(MockBackend)
	return NewExecutor(store, backend, zerolog.Nop()), store, backend
}

func lastMessage(t *testing.T, store *chatstore.Store) domain.ChatMessage {
	t.Helper()
	msgs := store.Messages()
	assert.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

func TestExecutor_EmptyInputIsNoOp(t *testing.T) {
	exec, store, backend := newTestExecutor(t)
	before := len(store.Messages())

	exec.ExecuteCommand(context.Background(), "   ", nil)

	assert.Len(t, store.Messages(), before)
	assert.False(t, store.Loading())
	backend.AssertNotCalled(t, "SuggestTodos", mock.Anything, mock.Anything)
}

func TestExecutor_ValidationShortCircuit(t *testing.T) {
	exec, store, backend := newTestExecutor(t)
	before := len(store.Messages())

	exec.ExecuteCommand(context.Background(), "improve the description", nil)

	msgs := store.Messages()
	// Exactly the user message and one assistant message asking for more
	assert.Len(t, msgs, before+2)
	assert.Equal(t, domain.RoleAssistant, msgs[len(msgs)-1].Role)
	assert.Contains(t, msgs[len(msgs)-1].Content, "more information")
	assert.False(t, store.Loading())

	backend.AssertNotCalled(t, "GenerateSubtasks", mock.Anything, mock.Anything)
	backend.AssertNotCalled(t, "SuggestTodos", mock.Anything, mock.Anything)
	backend.AssertNotCalled(t, "OptimizeTask", mock.Anything, mock.Anything)
}

func TestExecutor_FuzzyTodoMatch(t *testing.T) {
	exec, _, backend := newTestExecutor(t)
	exec.SetTodos([]domain.TodoRef{{ID: "1", Title: "Plan Vacation"}})

	backend.On("GenerateSubtasks", mock.Anything, mock.MatchedBy(func(req ai.SubtaskRequest) bool {
		return req.TodoID == "1" && req.MinSubtasks == 3 && req.MaxSubtasks == 5
	})).Return(&ai.SubtaskResponse{
		ParentTaskTitle: "Plan Vacation",
		GeneratedSubtasks: []domain.Subtask{
			{Title: "Book flights", Order: 1},
			{Title: "Reserve hotel", Order: 2},
			{Title: "Pack bags", Order: 3},
		},
	}, nil)

	exec.ExecuteCommand(context.Background(), "Break down Plan Vacation into subtasks", nil)

	backend.AssertExpectations(t)
}

func TestExecutor_SubtasksResolvePlaceholder(t *testing.T) {
	exec, store, backend := newTestExecutor(t)
	exec.SetTodos([]domain.TodoRef{{ID: "1", Title: "Plan Vacation"}})

	backend.On("GenerateSubtasks", mock.Anything, mock.Anything).Return(&ai.SubtaskResponse{
		ParentTaskTitle:   "Plan Vacation",
		GeneratedSubtasks: []domain.Subtask{{Title: "Book flights", Order: 1}},
	}, nil)

	exec.ExecuteCommand(context.Background(), "Break down 'Plan Vacation' into subtasks", nil)

	msgs := store.Messages()
	var result *domain.ChatMessage
	for i := range msgs {
		if msgs[i].Payload != nil {
			result = &msgs[i]
		}
	}
	assert.NotNil(t, result)
	assert.False(t, result.Pending)
	assert.Equal(t, domain.PayloadSubtasks, result.Payload.Type)
	assert.True(t, result.Payload.Subtasks.AutoCreated)
	assert.Equal(t, "Plan Vacation", result.Payload.Subtasks.ParentTaskTitle)
	assert.False(t, store.Loading())

	// Follow-up suggestions land as a trailing system message
	assert.Equal(t, domain.RoleSystem, lastMessage(t, store).Role)
}

func TestExecutor_SubtasksUnknownTodo(t *testing.T) {
	exec, store, backend := newTestExecutor(t)
	exec.SetTodos([]domain.TodoRef{{ID: "1", Title: "Plan Vacation"}})

	exec.ExecuteCommand(context.Background(), "Break down 'Write novel' into subtasks", nil)

	last := lastMessage(t, store)
	assert.Contains(t, last.Content, "couldn't find")
	assert.False(t, last.Pending)
	assert.False(t, store.Loading())
	backend.AssertNotCalled(t, "GenerateSubtasks", mock.Anything, mock.Anything)
}

func TestExecutor_FallbackRouting(t *testing.T) {
	exec, store, backend := newTestExecutor(t)
	exec.SetTodos([]domain.TodoRef{{ID: "1", Title: "Water plants"}})

	backend.On("SuggestTodos", mock.Anything, mock.MatchedBy(func(req ai.SuggestionRequest) bool {
		return req.UserInput == "Help me plan a birthday party" &&
			len(req.ExistingTodos) == 1 && req.ExistingTodos[0] == "Water plants"
	})).Return(&ai.SuggestionResponse{
		RequestDescription: "birthday party",
		GeneratedTodos:     []domain.TodoSuggestion{{Title: "Book venue", Priority: "high"}},
	}, nil)

	exec.ExecuteCommand(context.Background(), "Help me plan a birthday party", nil)

	backend.AssertExpectations(t)

	var result *domain.ChatMessage
	msgs := store.Messages()
	for i := range msgs {
		if msgs[i].Payload != nil {
			result = &msgs[i]
		}
	}
	assert.NotNil(t, result)
	assert.Equal(t, domain.PayloadTodoSuggestions, result.Payload.Type)
	assert.Len(t, result.Payload.TodoSuggestions.Suggestions, 1)
}

func TestExecutor_AnalyzeFileRedirect(t *testing.T) {
	exec, store, backend := newTestExecutor(t)

	exec.ExecuteCommand(context.Background(), "Analyze this file", &FileAttachment{
		Name:    "notes.txt",
		Content: "meeting notes",
	})

	last := lastMessage(t, store)
	assert.Contains(t, last.Content, "upload")
	assert.False(t, last.Pending)
	backend.AssertNotCalled(t, "GenerateSubtasks", mock.Anything, mock.Anything)
	backend.AssertNotCalled(t, "SuggestTodos", mock.Anything, mock.Anything)
}

func TestExecutor_BackendFailureRecovery(t *testing.T) {
	exec, store, backend := newTestExecutor(t)
	exec.SetTodos([]domain.TodoRef{{ID: "1", Title: "Plan Vacation"}})

	before := store.Messages()

	backend.On("GenerateSubtasks", mock.Anything, mock.Anything).
		Return(nil, errors.New("backend unreachable"))

	exec.ExecuteCommand(context.Background(), "Break down 'Plan Vacation' into subtasks", nil)

	assert.False(t, store.Loading())
	assert.Equal(t, "backend unreachable", store.Err())

	msgs := store.Messages()
	// Prior messages are untouched
	for i, m := range before {
		assert.Equal(t, m.ID, msgs[i].ID)
		assert.Equal(t, m.Content, msgs[i].Content)
	}

	// The apology trails the still-pending placeholder
	last := msgs[len(msgs)-1]
	assert.Equal(t, domain.RoleAssistant, last.Role)
	assert.Contains(t, last.Content, "try again")
	assert.True(t, msgs[len(msgs)-2].Pending)
}

func TestExecutor_ImproveDescriptionByID(t *testing.T) {
	exec, store, backend := newTestExecutor(t)
	exec.SetTodos([]domain.TodoRef{{ID: "42", Title: "Quarterly review", Description: "old text"}})

	backend.On("OptimizeTask", mock.Anything, mock.MatchedBy(func(req ai.OptimizationRequest) bool {
		return req.TodoID == "42" && req.OptimizationType == "description"
	})).Return(&domain.TaskOptimization{
		OriginalDescription:  "old text",
		OptimizedDescription: "new text",
		OptimizationType:     "description",
	}, nil)

	cmd := exec.parser.ParseCommand("improve the description")
	cmd.Parameters.TodoID = "42"
	pendingID := store.AddMessage(domain.ChatMessage{Role: domain.RoleAssistant, Content: pendingText, Pending: true})
	err := exec.improveDescription(context.Background(), cmd, pendingID)

	assert.NoError(t, err)
	backend.AssertExpectations(t)

	last := lastMessage(t, store)
	assert.Equal(t, domain.PayloadOptimization, last.Payload.Type)
	assert.Equal(t, "new text", last.Payload.Optimization.Optimization.OptimizedDescription)
}
