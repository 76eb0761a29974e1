package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dkarlsen/taskpilot/internal/ai"
	"github.com/dkarlsen/taskpilot/internal/domain"
)

// Provider implements ai.Provider against a self-hosted task-AI service
// speaking plain JSON over HTTP.
type Provider struct {
	host   string
	model  string
	client *http.Client
}

// NewProvider creates a new remote provider
func NewProvider(host, model string, timeout time.Duration) ai.Provider {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Provider{
		host:   host,
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "remote"
}

// IsConfigured checks if provider has a host to talk to
func (p *Provider) IsConfigured() bool {
	return p.host != ""
}

// GenerateSubtasks breaks a todo into ordered subtasks
func (p *Provider) GenerateSubtasks(ctx context.Context, req ai.SubtaskRequest) (*ai.SubtaskResponse, error) {
	var resp ai.SubtaskResponse
	if err := p.post(ctx, "/api/v1/subtasks", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SuggestTodos proposes new todos for a free-text request
func (p *Provider) SuggestTodos(ctx context.Context, req ai.SuggestionRequest) (*ai.SuggestionResponse, error) {
	var resp ai.SuggestionResponse
	if err := p.post(ctx, "/api/v1/suggestions", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// OptimizeTask rewrites a todo's title or description
func (p *Provider) OptimizeTask(ctx context.Context, req ai.OptimizationRequest) (*domain.TaskOptimization, error) {
	var resp domain.TaskOptimization
	if err := p.post(ctx, "/api/v1/optimize", req, &resp); err != nil {
		return nil, err
	}
	if resp.AIModel == "" {
		resp.AIModel = p.model
	}
	if resp.OptimizationTimestamp.IsZero() {
		resp.OptimizationTimestamp = time.Now()
	}
	return &resp, nil
}

// AnalyzeFile extracts actionable tasks from an uploaded file
func (p *Provider) AnalyzeFile(ctx context.Context, req ai.AnalysisRequest) (*ai.AnalysisResponse, error) {
	var resp ai.AnalysisResponse
	if err := p.post(ctx, "/api/v1/analyze", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (p *Provider) post(ctx context.Context, path string, reqBody, respBody any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("task-ai service returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
