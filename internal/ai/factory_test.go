package ai_test

import (
	"context"
	"testing"

	"github.com/kiranshivaraju/answerhunter/internal/ai"
	"github.com/kiranshivaraju/answerhunter/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_OpenAICompatible(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.AIConfig
		model string
	}{
		{
			name: "groq",
			cfg: config.AIConfig{
				Provider: "groq",
				Groq:     config.GroqConfig{APIKey: "gsk-test", BaseURL: "https://api.groq.com/openai/v1", Model: "llama-3.3-70b-versatile"},
			},
			model: "llama-3.3-70b-versatile",
		},
		{
			name: "openai",
			cfg: config.AIConfig{
				Provider: "openai",
				OpenAI:   config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini"},
			},
			model: "gpt-4o-mini",
		},
		{
			name: "ollama",
			cfg: config.AIConfig{
				Provider: "ollama",
				Ollama:   config.OllamaConfig{BaseURL: "http://localhost:11434/v1", Model: "llama3"},
			},
			model: "llama3",
		},
		{
			name: "vllm",
			cfg: config.AIConfig{
				Provider: "vllm",
				VLLM:     config.VLLMConfig{BaseURL: "http://localhost:8001/v1", Model: "mistral-7b"},
			},
			model: "mistral-7b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ai.NewProvider(context.Background(), tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.name, p.Name())
			assert.Equal(t, tt.model, p.Model())
		})
	}
}

func TestNewProvider_Gemini(t *testing.T) {
	cfg := config.AIConfig{
		Provider: "gemini",
		Gemini:   config.GeminiConfig{APIKey: "gemini-test", Model: "gemini-2.0-flash"},
	}
	p, err := ai.NewProvider(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "gemini", p.Name())
	assert.Equal(t, "gemini-2.0-flash", p.Model())
}

func TestNewProvider_Unknown(t *testing.T) {
	cfg := config.AIConfig{Provider: "unknown-provider"}
	_, err := ai.NewProvider(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown AI provider")
	assert.Contains(t, err.Error(), "unknown-provider")
}

func TestNewProvider_Empty(t *testing.T) {
	cfg := config.AIConfig{Provider: ""}
	_, err := ai.NewProvider(context.Background(), cfg)
	require.Error(t, err)
}
