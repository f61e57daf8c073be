package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kiranshivaraju/answerhunter/pkg/models"
	"github.com/kiranshivaraju/answerhunter/pkg/prompt"
)

// SynthesizerOptions tunes the two model passes.
type SynthesizerOptions struct {
	Timeout           time.Duration
	DraftTemperature  float64
	RefineTemperature float64
	MaxTokens         int
}

// DefaultSynthesizerOptions returns the settings used when nothing is configured.
func DefaultSynthesizerOptions() SynthesizerOptions {
	return SynthesizerOptions{
		Timeout:           60 * time.Second,
		DraftTemperature:  0.3,
		RefineTemperature: 0.1,
		MaxTokens:         2000,
	}
}

// Synthesizer turns verified evidence into a cited answer: a draft pass followed by a
// refinement pass that critiques the draft. It holds no per-call state.
type Synthesizer struct {
	provider models.LLMProvider
	prompts  prompt.Builder
	opts     SynthesizerOptions
}

// NewSynthesizer creates a Synthesizer over provider.
func NewSynthesizer(provider models.LLMProvider, opts SynthesizerOptions) *Synthesizer {
	return &Synthesizer{provider: provider, opts: opts}
}

// Synthesize runs both passes and returns the refined answer. A failure in either
// pass aborts synthesis; no partial answer is returned.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, evidence []models.EvidenceItem) (string, error) {
	draft, err := s.complete(ctx, "draft", models.CompletionRequest{
		SystemPrompt: prompt.DraftSystemPrompt,
		UserPrompt:   s.prompts.BuildDraftPrompt(query, evidence),
		Temperature:  s.opts.DraftTemperature,
		MaxTokens:    s.opts.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	final, err := s.complete(ctx, "refine", models.CompletionRequest{
		SystemPrompt: prompt.RefineSystemPrompt,
		UserPrompt:   s.prompts.BuildRefinePrompt(query, draft),
		Temperature:  s.opts.RefineTemperature,
		MaxTokens:    s.opts.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	return final, nil
}

// complete runs one pass under its own timeout and maps failures to sentinel errors.
func (s *Synthesizer) complete(ctx context.Context, pass string, req models.CompletionRequest) (string, error) {
	callCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.provider.Complete(callCtx, req)
	if err != nil {
		return "", classifyError(ctx, callCtx, pass, err)
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s pass: %w: empty completion", pass, ErrInvalidResponse)
	}

	slog.Debug("synthesis pass complete",
		"pass", pass,
		"provider", s.provider.Name(),
		"model", s.provider.Model(),
		"chars", len(text),
		"elapsed", time.Since(start))

	return text, nil
}

func classifyError(parent, call context.Context, pass string, err error) error {
	switch {
	case errors.Is(err, ErrInferenceTimeout), errors.Is(err, ErrProviderUnavailable), errors.Is(err, ErrInvalidResponse):
		return fmt.Errorf("%s pass: %w", pass, err)
	case parent.Err() != nil:
		return fmt.Errorf("%s pass: %w", pass, parent.Err())
	case errors.Is(call.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%s pass: %w: %v", pass, ErrInferenceTimeout, err)
	default:
		return fmt.Errorf("%s pass: %w: %v", pass, ErrProviderUnavailable, err)
	}
}
