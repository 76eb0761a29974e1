package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkarlsen/taskpilot/internal/ai"
	"github.com/dkarlsen/taskpilot/internal/config"
	"github.com/dkarlsen/taskpilot/internal/domain"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Provider implements ai.Provider on top of Gemini, prompting the model for
// strict-JSON responses.
type Provider struct {
	apiKey string
	model  string
}

func NewProvider(cfg config.GeminiConfig) *Provider {
	return &Provider{
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

func (p *Provider) modelName() string {
	if p.model != "" {
		return p.model
	}
	return "gemini-2.5-flash"
}

func (p *Provider) GenerateSubtasks(ctx context.Context, req ai.SubtaskRequest) (*ai.SubtaskResponse, error) {
	var resp ai.SubtaskResponse
	if err := p.generate(ctx, ai.BuildSubtaskPrompt(req), &resp); err != nil {
		return nil, err
	}
	if resp.ParentTaskTitle == "" {
		resp.ParentTaskTitle = req.TodoTitle
	}
	resp.Model = p.modelName()
	return &resp, nil
}

func (p *Provider) SuggestTodos(ctx context.Context, req ai.SuggestionRequest) (*ai.SuggestionResponse, error) {
	var resp ai.SuggestionResponse
	if err := p.generate(ctx, ai.BuildSuggestionPrompt(req), &resp); err != nil {
		return nil, err
	}
	if resp.RequestDescription == "" {
		resp.RequestDescription = req.UserInput
	}
	resp.Model = p.modelName()
	return &resp, nil
}

func (p *Provider) OptimizeTask(ctx context.Context, req ai.OptimizationRequest) (*domain.TaskOptimization, error) {
	var out struct {
		OptimizedTitle       string   `json:"optimized_title"`
		OptimizedDescription string   `json:"optimized_description"`
		Improvements         []string `json:"improvements"`
	}
	if err := p.generate(ctx, ai.BuildOptimizationPrompt(req), &out); err != nil {
		return nil, err
	}

	return &domain.TaskOptimization{
		OriginalTitle:         req.CurrentTitle,
		OriginalDescription:   req.CurrentDescription,
		OptimizedTitle:        out.OptimizedTitle,
		OptimizedDescription:  out.OptimizedDescription,
		Improvements:          out.Improvements,
		OptimizationType:      req.OptimizationType,
		AIModel:               p.modelName(),
		OptimizationTimestamp: time.Now(),
	}, nil
}

func (p *Provider) AnalyzeFile(ctx context.Context, req ai.AnalysisRequest) (*ai.AnalysisResponse, error) {
	var resp ai.AnalysisResponse
	if err := p.generate(ctx, ai.BuildAnalysisPrompt(req), &resp); err != nil {
		return nil, err
	}
	resp.Model = p.modelName()
	return &resp, nil
}

// generate runs a prompt and unmarshals the model's JSON reply into out
func (p *Provider) generate(ctx context.Context, prompt string, out any) error {
	if !p.IsConfigured() {
		return fmt.Errorf("gemini provider is not configured (missing API key)")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(p.modelName())
	// Deterministic output keeps the JSON shape stable.
	var temperature float32 = 0.0
	model.Temperature = &temperature

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("empty response from gemini")
	}

	var output string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			output += string(text)
		}
	}

	payload := ai.ExtractJSON(output)
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("failed to parse gemini response: %w", err)
	}

	return nil
}
