package mock

import (
	"context"
	"sync"

	"github.com/kiranshivaraju/answerhunter/internal/ai"
	"github.com/kiranshivaraju/answerhunter/pkg/models"
	"github.com/kiranshivaraju/answerhunter/pkg/prompt"
)

// MockProvider satisfies models.LLMProvider for testing. Every request is recorded.
type MockProvider struct {
	Name_        string
	Model_       string
	CompleteFunc func(ctx context.Context, req models.CompletionRequest) (string, error)

	mu    sync.Mutex
	calls []models.CompletionRequest
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Model() string { return m.Model_ }

func (m *MockProvider) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "", nil
}

// Calls returns a copy of every request received so far, in order.
func (m *MockProvider) Calls() []models.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.CompletionRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

// NewMockProvider returns a MockProvider that answers the draft pass with
// "Mock draft answer [Source 1]" and the refinement pass with "Mock final answer [Source 1]".
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_:  "mock",
		Model_: "mock-v1",
		CompleteFunc: func(_ context.Context, req models.CompletionRequest) (string, error) {
			if req.SystemPrompt == prompt.RefineSystemPrompt {
				return "Mock final answer [Source 1]", nil
			}
			return "Mock draft answer [Source 1]", nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_:  "mock-failing",
		Model_: "mock-v1",
		CompleteFunc: func(_ context.Context, _ models.CompletionRequest) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_:  "mock-timeout",
		Model_: "mock-v1",
		CompleteFunc: func(ctx context.Context, _ models.CompletionRequest) (string, error) {
			<-ctx.Done()
			return "", ai.ErrInferenceTimeout
		},
	}
}

// Compile-time check that MockProvider implements LLMProvider.
var _ models.LLMProvider = (*MockProvider)(nil)
