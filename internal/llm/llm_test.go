package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockProvider is a test provider that records calls and returns canned responses.
type MockProvider struct {
	mu       sync.Mutex
	Calls    []CompletionRequest
	Response *CompletionResponse
	// Errs are returned in order, one per call, before Response is used.
	Errs     []error
	ProvName string
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProvName: name,
		Response: &CompletionResponse{Content: "mock response", Model: "mock-model", FinishReason: "stop"},
	}
}

func (m *MockProvider) Name() string { return m.ProvName }

func (m *MockProvider) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if len(m.Errs) > 0 {
		err := m.Errs[0]
		m.Errs = m.Errs[1:]
		return nil, err
	}
	return m.Response, nil
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func TestFactory(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewProvider("openai", "gpt-4o-mini")
	assert.Error(t, err)

	t.Setenv("OPENAI_API_KEY", "sk-test")
	p, err := NewProvider("openai", "gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	t.Setenv("OLLAMA_HOST", "")
	p, err = NewProvider("ollama", "llama3.1")
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())

	_, err = NewProvider("anthropic", "x")
	assert.Error(t, err)
}

func TestDecorate(t *testing.T) {
	base := NewMockProvider("base")
	assert.Same(t, Provider(base), Decorate(base, 0, 0, 0, nil))

	p := Decorate(base, 60, 2, time.Millisecond, nil)
	retrying, ok := p.(*RetryingProvider)
	require.True(t, ok)
	_, ok = retrying.provider.(*RateLimitedProvider)
	assert.True(t, ok)
	assert.Equal(t, "base", p.Name())
}

func TestGenerator(t *testing.T) {
	mock := NewMockProvider("mock")
	g := &ProviderGenerator{Provider: mock, Model: "m", Temperature: 0.1, JSONMode: true}

	out, err := g.Generate(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "mock response", out)

	require.Len(t, mock.Calls, 1)
	req := mock.Calls[0]
	assert.Equal(t, []Message{{Role: RoleSystem, Content: "system"}, {Role: RoleUser, Content: "user"}}, req.Messages)
	assert.True(t, req.JSONMode)
	assert.InDelta(t, 0.1, req.Temperature, 1e-9)
	assert.Equal(t, "m", req.Model)
}

func TestGeneratorError(t *testing.T) {
	mock := NewMockProvider("mock")
	mock.Errs = []error{errors.New("boom")}
	_, err := (&ProviderGenerator{Provider: mock}).Generate(context.Background(), "", "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Len(t, mock.Calls[0].Messages, 1)
}

func TestExtractJSON(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`:                      `{"a":1}`,
		"```json\n{\"a\":1}\n```":      `{"a":1}`,
		"Sure! Here it is: {\"a\":1}.": `{"a":1}`,
		"no json here":                 "no json here",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtractJSON(in), in)
	}
}

func TestRateLimiterPassesThrough(t *testing.T) {
	mock := NewMockProvider("mock")
	limited := NewRateLimitedProvider(mock, 100)

	for i := 0; i < 5; i++ {
		_, err := limited.Complete(context.Background(), CompletionRequest{})
		require.NoError(t, err)
	}
	assert.Equal(t, 5, mock.CallCount())
}

func TestRateLimiterBlocksWhenExhausted(t *testing.T) {
	mock := NewMockProvider("mock")
	limited := NewRateLimitedProvider(mock, 1)
	limited.poll = 5 * time.Millisecond

	_, err := limited.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = limited.Complete(ctx, CompletionRequest{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetryingProviderRetriesTransientErrors(t *testing.T) {
	mock := NewMockProvider("mock")
	mock.Errs = []error{
		&StatusError{Provider: "mock", StatusCode: http.StatusTooManyRequests},
		&openai.APIError{HTTPStatusCode: http.StatusBadGateway},
	}
	p := NewRetryingProvider(mock, 3, time.Millisecond, nil)

	resp, err := p.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "mock response", resp.Content)
	assert.Equal(t, 3, mock.CallCount())
}

func TestRetryingProviderStopsOnPermanentError(t *testing.T) {
	mock := NewMockProvider("mock")
	mock.Errs = []error{&openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"}}
	p := NewRetryingProvider(mock, 3, time.Millisecond, nil)

	_, err := p.Complete(context.Background(), CompletionRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetryingProviderGivesUp(t *testing.T) {
	mock := NewMockProvider("mock")
	for i := 0; i < 5; i++ {
		mock.Errs = append(mock.Errs, &StatusError{Provider: "mock", StatusCode: 503})
	}
	p := NewRetryingProvider(mock, 2, time.Millisecond, nil)

	_, err := p.Complete(context.Background(), CompletionRequest{})
	require.Error(t, err)
	assert.Equal(t, 3, mock.CallCount())
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", &StatusError{StatusCode: 500})))
	assert.False(t, IsRetryable(&StatusError{StatusCode: 400}))
	assert.True(t, IsRetryable(&openai.RequestError{HTTPStatusCode: 408}))
}

func TestOpenAIProviderComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.NotNil(t, req.ResponseFormat)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"{\"ok\":true}"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":7,"completion_tokens":3,"total_tokens":10}}`)
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = srv.URL + "/v1"
	p := NewOpenAIProviderWithConfig(cfg, "gpt-4o-mini")

	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		JSONMode: true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, resp.Content)
	assert.Equal(t, 7, resp.InputTokens)
	assert.Equal(t, 3, resp.OutputTokens)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestOllamaProviderComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "json", req.Format)
		assert.False(t, req.Stream)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Message:         ollamaMessage{Role: "assistant", Content: "answer"},
			Model:           "llama3.1",
			DoneReason:      "stop",
			PromptEvalCount: 4,
			EvalCount:       2,
		})
	}))
	defer srv.Close()

	resp, err := NewOllamaProvider(srv.URL, "llama3.1").Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		JSONMode: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "answer", resp.Content)
	assert.Equal(t, 4, resp.InputTokens)
}

func TestOllamaProviderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "m").Complete(context.Background(), CompletionRequest{})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.True(t, IsRetryable(err))
}
