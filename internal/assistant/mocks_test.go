package assistant

import (
	"context"

	"github.com/dkarlsen/taskpilot/internal/ai"
	"github.com/dkarlsen/taskpilot/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockBackend mocks the Backend interface
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) GenerateSubtasks(ctx context.Context, req ai.SubtaskRequest) (*ai.SubtaskResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ai.SubtaskResponse), args.Error(1)
}

func (m *MockBackend) SuggestTodos(ctx context.Context, req ai.SuggestionRequest) (*ai.SuggestionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ai.SuggestionResponse), args.Error(1)
}

func (m *MockBackend) OptimizeTask(ctx context.Context, req ai.OptimizationRequest) (*domain.TaskOptimization, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaskOptimization), args.Error(1)
}

// stubStorage is an in-memory chatstore.Storage
type stubStorage struct {
	data []byte
}

func (s *stubStorage) Load(ctx context.Context) ([]byte, error) {
	return s.data, nil
}

func (s *stubStorage) Save(ctx context.Context, data []byte) error {
	s.data = data
	return nil
}
