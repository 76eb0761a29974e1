package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkarlsen/taskpilot/internal/ai"
	"github.com/dkarlsen/taskpilot/internal/assistant"
	"github.com/dkarlsen/taskpilot/internal/chatstore"
	"github.com/dkarlsen/taskpilot/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ChatStateStorage persists one user's serialized chat state under a
// namespaced key.
type ChatStateStorage interface {
	Load(ctx context.Context, userID uuid.UUID) ([]byte, error)
	Save(ctx context.Context, userID uuid.UUID, data []byte) error
}

// ChatState is the full chat view returned to the client after every
// chat operation.
type ChatState struct {
	Messages        []domain.ChatMessage    `json:"messages"`
	Sessions        []domain.SessionSummary `json:"sessions"`
	ActiveSessionID string                  `json:"active_session_id"`
	Loading         bool                    `json:"is_loading"`
	Error           string                  `json:"error,omitempty"`
}

// chatRuntime is one user's hydrated store and executor pair
type chatRuntime struct {
	store    *chatstore.Store
	executor *assistant.Executor
}

// ChatService owns the assistant chat flow. Each user gets a lazily
// hydrated session store and executor; the store writes through to
// ChatStateStorage so runtimes survive process restarts.
type ChatService struct {
	mu       sync.Mutex
	runtimes map[uuid.UUID]*chatRuntime

	storage  ChatStateStorage
	aiSvc    *AIService
	todoRepo domain.TodoRepository
	logger   zerolog.Logger
}

// NewChatService creates a new chat service
func NewChatService(storage ChatStateStorage, aiSvc *AIService, todoRepo domain.TodoRepository, logger zerolog.Logger) *ChatService {
	return &ChatService{
		runtimes: make(map[uuid.UUID]*chatRuntime),
		storage:  storage,
		aiSvc:    aiSvc,
		todoRepo: todoRepo,
		logger:   logger,
	}
}

// Execute runs one assistant turn and returns the resulting chat state.
func (s *ChatService) Execute(ctx context.Context, userID uuid.UUID, input string, file *assistant.FileAttachment) (*ChatState, error) {
	rt := s.runtime(ctx, userID)

	todos, err := s.todoRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	refs := make([]domain.TodoRef, 0, len(todos))
	for i := range todos {
		refs = append(refs, todos[i].Ref())
	}
	rt.executor.SetTodos(refs)

	rt.executor.ExecuteCommand(ctx, input, file)
	return s.view(rt), nil
}

// State returns the current chat state without mutating it
func (s *ChatService) State(ctx context.Context, userID uuid.UUID) *ChatState {
	return s.view(s.runtime(ctx, userID))
}

// NewSession starts a fresh session and makes it active
func (s *ChatService) NewSession(ctx context.Context, userID uuid.UUID) *ChatState {
	rt := s.runtime(ctx, userID)
	rt.store.StartNewSession()
	return s.view(rt)
}

// SwitchSession activates an existing session
func (s *ChatService) SwitchSession(ctx context.Context, userID uuid.UUID, sessionID string) (*ChatState, error) {
	rt := s.runtime(ctx, userID)
	if !rt.store.SwitchSession(sessionID) {
		return nil, ErrNotFound
	}
	return s.view(rt), nil
}

// DeleteSession removes a session; the last remaining session is protected.
func (s *ChatService) DeleteSession(ctx context.Context, userID uuid.UUID, sessionID string) (*ChatState, error) {
	rt := s.runtime(ctx, userID)
	if !rt.store.DeleteSession(sessionID) {
		return nil, ErrNotFound
	}
	return s.view(rt), nil
}

// ClearChat resets the active session to a fresh welcome state
func (s *ChatService) ClearChat(ctx context.Context, userID uuid.UUID) *ChatState {
	rt := s.runtime(ctx, userID)
	rt.store.ClearChat()
	return s.view(rt)
}

func (s *ChatService) runtime(ctx context.Context, userID uuid.UUID) *chatRuntime {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rt, ok := s.runtimes[userID]; ok {
		return rt
	}

	store := chatstore.New(ctx, userStorage{backend: s.storage, userID: userID},
		s.logger.With().Str("user_id", userID.String()).Logger())
	rt := &chatRuntime{
		store:    store,
		executor: assistant.NewExecutor(store, userBackend{svc: s.aiSvc, userID: userID}, s.logger),
	}
	s.runtimes[userID] = rt
	return rt
}

func (s *ChatService) view(rt *chatRuntime) *ChatState {
	return &ChatState{
		Messages:        rt.store.Messages(),
		Sessions:        rt.store.Sessions(),
		ActiveSessionID: rt.store.ActiveSessionID(),
		Loading:         rt.store.Loading(),
		Error:           rt.store.Err(),
	}
}

// userStorage binds ChatStateStorage to one user's key
type userStorage struct {
	backend ChatStateStorage
	userID  uuid.UUID
}

func (s userStorage) Load(ctx context.Context) ([]byte, error) {
	return s.backend.Load(ctx, s.userID)
}

func (s userStorage) Save(ctx context.Context, data []byte) error {
	return s.backend.Save(ctx, s.userID, data)
}

// userBackend binds AIService mutations to one user
type userBackend struct {
	svc    *AIService
	userID uuid.UUID
}

func (b userBackend) GenerateSubtasks(ctx context.Context, req ai.SubtaskRequest) (*ai.SubtaskResponse, error) {
	return b.svc.GenerateSubtasks(ctx, b.userID, req)
}

func (b userBackend) SuggestTodos(ctx context.Context, req ai.SuggestionRequest) (*ai.SuggestionResponse, error) {
	return b.svc.SuggestTodos(ctx, b.userID, req)
}

func (b userBackend) OptimizeTask(ctx context.Context, req ai.OptimizationRequest) (*domain.TaskOptimization, error) {
	return b.svc.OptimizeTask(ctx, b.userID, req)
}
