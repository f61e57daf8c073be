package ai

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/answerhunter/internal/ai/gemini"
	"github.com/kiranshivaraju/answerhunter/internal/ai/openai"
	"github.com/kiranshivaraju/answerhunter/internal/config"
	"github.com/kiranshivaraju/answerhunter/pkg/models"
)

// localAPIKey is sent to self-hosted OpenAI-compatible servers that ignore authentication.
const localAPIKey = "not-required"

// NewProvider constructs the appropriate language-model provider based on config.
// Called once at server startup.
func NewProvider(ctx context.Context, cfg config.AIConfig) (models.LLMProvider, error) {
	switch cfg.Provider {
	case "groq":
		return openai.NewProvider("groq", cfg.Groq.BaseURL, cfg.Groq.APIKey, cfg.Groq.Model), nil
	case "openai":
		return openai.NewProvider("openai", cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.Model), nil
	case "ollama":
		return openai.NewProvider("ollama", cfg.Ollama.BaseURL, localAPIKey, cfg.Ollama.Model), nil
	case "vllm":
		return openai.NewProvider("vllm", cfg.VLLM.BaseURL, localAPIKey, cfg.VLLM.Model), nil
	case "gemini":
		p, err := gemini.NewProvider(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return nil, fmt.Errorf("creating gemini provider: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of groq, openai, ollama, vllm, gemini", cfg.Provider)
	}
}
