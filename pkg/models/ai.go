// Package models contains shared data models used across the answerhunter codebase.
package models

import "context"

// LLMProvider is the core interface that all language-model integrations must implement.
// Never call specific providers directly; always inject this interface.
type LLMProvider interface {
	// Complete sends a single system+user prompt pair and returns the generated text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// Name returns the provider identifier (e.g., "groq", "gemini").
	Name() string
	// Model returns the model identifier requests are sent to.
	Model() string
}

// CompletionRequest is the input to a single language-model call.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
}
