// Package openai talks to any server speaking the OpenAI chat completions API:
// OpenAI itself, Groq, Ollama and vLLM.
package openai

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/answerhunter/pkg/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// Provider implements models.LLMProvider over an OpenAI-compatible endpoint.
type Provider struct {
	name   string
	model  string
	client openai.Client
}

// NewProvider creates a provider reporting itself as name. Client-side retries are
// disabled; a failed call fails the job.
func NewProvider(name, baseURL, apiKey, model string) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Provider{
		name:   name,
		model:  model,
		client: openai.NewClient(opts...),
	}
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) Model() string { return p.model }

func (p *Provider) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.UserPrompt))

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(p.model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", p.name, err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%s chat completion: no choices returned", p.name)
	}

	return completion.Choices[0].Message.Content, nil
}

var _ models.LLMProvider = (*Provider)(nil)
