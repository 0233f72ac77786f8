package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autoprep-inc/autoprep-engine/pkg/config"
)

func TestExtractJSONPlainObject(t *testing.T) {
	s, err := ExtractJSON(`{"a": 1}`)
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, s)
}

func TestExtractJSONMarkdownFence(t *testing.T) {
	s, err := ExtractJSON("Here you go:\n```json\n{\"a\": [1, 2]}\n```\nDone.")
	require.NoError(t, err)
	assert.Equal(t, `{"a": [1, 2]}`, s)
}

func TestExtractJSONThinkPrefix(t *testing.T) {
	s, err := ExtractJSON("<think>let me reason { about } this</think>\n[1, 2, 3]")
	require.NoError(t, err)
	assert.Equal(t, `[1, 2, 3]`, s)
}

func TestExtractJSONNestedBraces(t *testing.T) {
	s, err := ExtractJSON(`prefix {"a": {"b": "}"}, "c": 2} suffix`)
	require.NoError(t, err)
	assert.Equal(t, `{"a": {"b": "}"}, "c": 2}`, s)
}

func TestExtractJSONNone(t *testing.T) {
	_, err := ExtractJSON("no json here")
	require.Error(t, err)
	assert.Equal(t, ErrorTypeResponse, TypeOf(err))
}

func TestParseJSONResponse(t *testing.T) {
	type payload struct {
		Score float64 `json:"score"`
	}
	p, err := ParseJSONResponse[payload]("```json\n{\"score\": 7.5}\n```")
	require.NoError(t, err)
	assert.Equal(t, 7.5, p.Score)
}

func TestClassifyErrorAuth(t *testing.T) {
	e := ClassifyError("openai", errors.New("status 401 Unauthorized"))
	assert.Equal(t, ErrorTypeAuth, e.Type)
	assert.False(t, e.Retryable)
}

func TestClassifyErrorRateLimit(t *testing.T) {
	e := ClassifyError("anthropic", errors.New("429 rate limit exceeded"))
	assert.Equal(t, ErrorTypeRateLimit, e.Type)
	assert.True(t, e.Retryable)
}

func TestClassifyErrorTimeoutRetryable(t *testing.T) {
	e := ClassifyError("openai", errors.New("context deadline exceeded"))
	assert.True(t, IsRetryable(e))
}

func TestClassifyErrorPassesThrough(t *testing.T) {
	orig := NewError(ErrorTypeModel, "model not found", false, nil)
	assert.Same(t, orig, ClassifyError("openai", orig))
}

func TestNewProviderDisabled(t *testing.T) {
	p, err := NewProvider(config.AIConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestNewProviderOpenAI(t *testing.T) {
	p, err := NewProvider(config.AIConfig{Provider: "openai", Model: "gpt-4o"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, "gpt-4o", p.Model())
}

func TestNewProviderAnthropicNeedsKey(t *testing.T) {
	_, err := NewProvider(config.AIConfig{Provider: "anthropic", Model: "claude-sonnet-4-5"}, zap.NewNop())
	require.Error(t, err)
	assert.Equal(t, ErrorTypeAuth, TypeOf(err))
}

func TestMockProviderReplaysInOrder(t *testing.T) {
	m := NewMockProvider("first", "second")
	r1, err := m.Complete(context.Background(), Request{Prompt: "p1"})
	require.NoError(t, err)
	r2, _ := m.Complete(context.Background(), Request{Prompt: "p2"})
	r3, _ := m.Complete(context.Background(), Request{Prompt: "p3"})

	assert.Equal(t, "first", r1)
	assert.Equal(t, "second", r2)
	assert.Equal(t, "second", r3, "last response repeats")
	assert.Equal(t, 3, m.CallCount())
}
