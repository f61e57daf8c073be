// Package gemini implements the language-model provider on Google's Gemini API.
package gemini

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/answerhunter/pkg/models"
	"google.golang.org/genai"
)

// Provider implements models.LLMProvider using the google.golang.org/genai SDK.
type Provider struct {
	model  string
	client *genai.Client
}

// NewProvider creates a Gemini provider. No request is made until Complete is called.
func NewProvider(ctx context.Context, apiKey, model string) (*Provider, error) {
	return newProvider(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, model)
}

func newProvider(ctx context.Context, cc *genai.ClientConfig, model string) (*Provider, error) {
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Provider{model: model, client: client}, nil
}

func (p *Provider) Name() string { return "gemini" }

func (p *Provider) Model() string { return p.model }

func (p *Provider) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model,
		[]*genai.Content{genai.NewContentFromText(req.UserPrompt, genai.RoleUser)}, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	return resp.Text(), nil
}

var _ models.LLMProvider = (*Provider)(nil)
