package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkarlsen/taskpilot/internal/ai"
	"github.com/dkarlsen/taskpilot/internal/chatstore"
	"github.com/dkarlsen/taskpilot/internal/domain"
	"github.com/rs/zerolog"
)

const (
	pendingText = "Thinking…"
	retryText   = "Sorry, something went wrong while working on that. Please try again."

	minSubtasks = 3
	maxSubtasks = 5
)

// Backend is the set of AI mutations the executor can invoke. The
// subtask and suggestion calls persist their results server-side; the
// executor only renders what came back.
type Backend interface {
	GenerateSubtasks(ctx context.Context, req ai.SubtaskRequest) (*ai.SubtaskResponse, error)
	SuggestTodos(ctx context.Context, req ai.SuggestionRequest) (*ai.SuggestionResponse, error)
	OptimizeTask(ctx context.Context, req ai.OptimizationRequest) (*domain.TaskOptimization, error)
}

// FileAttachment is an optional file handed along with the input.
type FileAttachment struct {
	Name    string
	Content string
}

// Executor turns free text into backend calls and chat messages. It
// never returns errors to the caller: every failure is rendered into the
// chat session. It does not serialize overlapping calls; callers are
// expected to gate on the store's loading flag.
type Executor struct {
	store   *chatstore.Store
	backend Backend
	parser  *Parser
	todos   []domain.TodoRef
	logger  zerolog.Logger
}

func NewExecutor(store *chatstore.Store, backend Backend, logger zerolog.Logger) *Executor {
	return &Executor{
		store:   store,
		backend: backend,
		parser:  NewParser(),
		logger:  logger,
	}
}

// SetTodos replaces the read-only todo view used for fuzzy matching.
func (e *Executor) SetTodos(todos []domain.TodoRef) {
	e.todos = make([]domain.TodoRef, len(todos))
	copy(e.todos, todos)
}

// ExecuteCommand runs one full turn: parse, validate, dispatch, render.
// Empty input is a silent no-op.
func (e *Executor) ExecuteCommand(ctx context.Context, input string, file *FileAttachment) {
	if strings.TrimSpace(input) == "" {
		return
	}

	e.store.SetLoading(true)
	e.store.SetError("")
	e.store.AddUserMessage(input)

	cmd := e.parser.ParseCommand(input)
	if file != nil {
		cmd.Parameters.FileName = file.Name
		cmd.Parameters.FileContent = file.Content
	}

	if valid, missing := e.parser.ValidateCommand(cmd); !valid {
		e.store.AddAIMessage(
			"I need a bit more information: "+strings.Join(missing, "; ")+".",
			nil,
		)
		e.store.SetLoading(false)
		return
	}

	pendingID := e.store.AddMessage(domain.ChatMessage{
		Role:    domain.RoleAssistant,
		Content: pendingText,
		Pending: true,
	})

	var err error
	switch cmd.Type {
	case CommandGenerateSubtasks:
		err = e.generateSubtasks(ctx, cmd, pendingID)
	case CommandAnalyzeFile:
		e.analyzeFile(pendingID)
	case CommandImproveDescription:
		err = e.improveDescription(ctx, cmd, pendingID)
	default:
		// generate_todos, and the graceful fallback for general_chat
		err = e.generateTodos(ctx, cmd, pendingID)
	}

	if err != nil {
		e.logger.Error().Err(err).Str("command", string(cmd.Type)).Msg("Backend call failed")
		e.store.SetError(err.Error())
		// The placeholder stays pending; the apology lands below it.
		e.store.AddAIMessage(retryText, nil)
	}

	e.store.SetLoading(false)
}

func (e *Executor) generateSubtasks(ctx context.Context, cmd AICommand, pendingID string) error {
	todo := e.resolveTodo(cmd.Parameters.TodoID, cmd.Parameters.TodoTitle)
	if todo == nil {
		e.resolve(pendingID, fmt.Sprintf(
			"I couldn't find a todo matching %q. Check the title and try again.",
			firstNonEmpty(cmd.Parameters.TodoTitle, cmd.Parameters.TodoID),
		), nil)
		return nil
	}

	resp, err := e.backend.GenerateSubtasks(ctx, ai.SubtaskRequest{
		TodoID:          todo.ID,
		TodoTitle:       todo.Title,
		TodoDescription: todo.Description,
		MinSubtasks:     minSubtasks,
		MaxSubtasks:     maxSubtasks,
	})
	if err != nil {
		return err
	}

	parent := firstNonEmpty(resp.ParentTaskTitle, todo.Title)
	e.resolve(pendingID, fmt.Sprintf(
		"I broke %q into %d subtasks and added them under the original task.",
		parent, len(resp.GeneratedSubtasks),
	), &domain.MessagePayload{
		Type: domain.PayloadSubtasks,
		Subtasks: &domain.SubtasksPayload{
			ParentTaskTitle: parent,
			Subtasks:        resp.GeneratedSubtasks,
			AutoCreated:     true,
		},
	})

	if suggestions := e.parser.Suggestions(cmd); len(suggestions) > 0 {
		e.store.AddSystemMessage("You could also try: " + strings.Join(suggestions, " · "))
	}
	return nil
}

// analyzeFile is not wired to a backend in the chat flow; file-backed
// analysis goes through the upload endpoint.
func (e *Executor) analyzeFile(pendingID string) {
	e.resolve(pendingID,
		"To analyze a file, upload it on the todo page and I'll extract tasks from it there.",
		nil)
}

func (e *Executor) improveDescription(ctx context.Context, cmd AICommand, pendingID string) error {
	// Descriptions are looked up by ID only; title matches are too
	// ambiguous to rewrite against.
	var todo *domain.TodoRef
	if cmd.Parameters.TodoID != "" {
		for i := range e.todos {
			if e.todos[i].ID == cmd.Parameters.TodoID {
				todo = &e.todos[i]
				break
			}
		}
	}

	if todo == nil && cmd.Parameters.TodoDescription == "" {
		e.resolve(pendingID,
			"Tell me which todo to improve (by ID), or paste the description you'd like rewritten.",
			nil)
		return nil
	}

	req := ai.OptimizationRequest{OptimizationType: "description"}
	if todo != nil {
		req.TodoID = todo.ID
		req.CurrentTitle = todo.Title
		req.CurrentDescription = todo.Description
	} else {
		req.CurrentTitle = cmd.Parameters.TodoTitle
		req.CurrentDescription = cmd.Parameters.TodoDescription
	}

	opt, err := e.backend.OptimizeTask(ctx, req)
	if err != nil {
		return err
	}

	e.resolve(pendingID, "Here's an improved description for that task.",
		&domain.MessagePayload{
			Type:         domain.PayloadOptimization,
			Optimization: &domain.OptimizationPayload{Optimization: *opt},
		})
	return nil
}

func (e *Executor) generateTodos(ctx context.Context, cmd AICommand, pendingID string) error {
	prompt := firstNonEmpty(cmd.Parameters.TodoDescription, cmd.Parameters.UserInput)
	if prompt == "" {
		e.resolve(pendingID,
			"Tell me a bit more about what you're planning and I'll suggest some todos.",
			nil)
		return nil
	}

	titles := make([]string, 0, len(e.todos))
	for _, t := range e.todos {
		titles = append(titles, t.Title)
	}

	resp, err := e.backend.SuggestTodos(ctx, ai.SuggestionRequest{
		UserInput:     prompt,
		ProjectID:     cmd.Parameters.ProjectID,
		ExistingTodos: titles,
	})
	if err != nil {
		return err
	}

	e.resolve(pendingID, fmt.Sprintf(
		"Here are %d suggestions. Pick the ones you want and I'll keep them in mind next time.",
		len(resp.GeneratedTodos),
	), &domain.MessagePayload{
		Type: domain.PayloadTodoSuggestions,
		TodoSuggestions: &domain.TodoSuggestionsPayload{
			RequestDescription: firstNonEmpty(resp.RequestDescription, prompt),
			Suggestions:        resp.GeneratedTodos,
		},
	})
	return nil
}

// resolveTodo matches exact ID, then exact lowercase title, then
// substring containment in either direction.
func (e *Executor) resolveTodo(id, title string) *domain.TodoRef {
	if id != "" {
		for i := range e.todos {
			if e.todos[i].ID == id {
				return &e.todos[i]
			}
		}
	}
	if title == "" {
		return nil
	}

	lower := strings.ToLower(title)
	for i := range e.todos {
		if strings.ToLower(e.todos[i].Title) == lower {
			return &e.todos[i]
		}
	}
	for i := range e.todos {
		candidate := strings.ToLower(e.todos[i].Title)
		if strings.Contains(candidate, lower) || strings.Contains(lower, candidate) {
			return &e.todos[i]
		}
	}
	return nil
}

// resolve patches the pending placeholder into the final reply.
func (e *Executor) resolve(pendingID, content string, payload *domain.MessagePayload) {
	pending := false
	patch := domain.MessagePatch{
		Content: &content,
		Pending: &pending,
	}
	if payload != nil {
		patch.Payload = payload
	}
	e.store.UpdateMessage(pendingID, patch)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
