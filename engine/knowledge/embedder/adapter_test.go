package embedder

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm"
)

type countingClient struct {
	mu    sync.Mutex
	calls int
	texts int
	err   error
}

func (c *countingClient) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	c.calls++
	c.texts += len(texts)
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = llm.HashEmbedding(text, 8)
	}
	return out, nil
}

func newAdapter(t *testing.T, client *countingClient) *Adapter {
	t.Helper()
	impl, err := embeddings.NewEmbedder(client)
	require.NoError(t, err)
	return Wrap("test-model", impl)
}

func TestAdapter(t *testing.T) {
	t.Run("Should serve repeated queries from the cache", func(t *testing.T) {
		client := &countingClient{}
		adapter := newAdapter(t, client)
		require.NoError(t, adapter.EnableCache(4))
		first, err := adapter.EmbedQuery(t.Context(), "istanbul")
		require.NoError(t, err)
		second, err := adapter.EmbedQuery(t.Context(), "istanbul")
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, client.calls)
	})
	t.Run("Should embed only unique missing documents", func(t *testing.T) {
		client := &countingClient{}
		adapter := newAdapter(t, client)
		require.NoError(t, adapter.EnableCache(8))
		_, err := adapter.EmbedQuery(t.Context(), "a")
		require.NoError(t, err)
		vectors, err := adapter.EmbedDocuments(t.Context(), []string{"a", "b", "b"})
		require.NoError(t, err)
		require.Len(t, vectors, 3)
		assert.Equal(t, vectors[1], vectors[2])
		assert.Equal(t, 2, client.texts)
	})
	t.Run("Should return copies that callers may mutate", func(t *testing.T) {
		adapter := newAdapter(t, &countingClient{})
		require.NoError(t, adapter.EnableCache(2))
		v, err := adapter.EmbedQuery(t.Context(), "x y")
		require.NoError(t, err)
		v[0] = 99
		again, err := adapter.EmbedQuery(t.Context(), "x y")
		require.NoError(t, err)
		assert.NotEqual(t, float32(99), again[0])
	})
	t.Run("Should wrap provider failures as upstream errors", func(t *testing.T) {
		adapter := newAdapter(t, &countingClient{err: errors.New("quota")})
		_, err := adapter.EmbedQuery(t.Context(), "x")
		require.ErrorIs(t, err, core.ErrUpstream)
	})
	t.Run("Should reject a non-positive cache size", func(t *testing.T) {
		adapter := newAdapter(t, &countingClient{})
		require.Error(t, adapter.EnableCache(0))
	})
}

func TestNew(t *testing.T) {
	t.Run("Should require a key for hosted providers", func(t *testing.T) {
		_, err := New(t.Context(), llm.ProviderConfig{Provider: llm.ProviderGoogle}, 16)
		require.ErrorIs(t, err, core.ErrGatewayUnavailable)
	})
	t.Run("Should build the offline mock embedder", func(t *testing.T) {
		adapter, err := New(t.Context(), llm.ProviderConfig{Provider: llm.ProviderMock}, 16)
		require.NoError(t, err)
		v, err := adapter.EmbedQuery(t.Context(), "hello")
		require.NoError(t, err)
		assert.Len(t, v, 32)
	})
	t.Run("Should reject providers without embeddings", func(t *testing.T) {
		_, err := New(t.Context(), llm.ProviderConfig{Provider: llm.ProviderAnthropic, APIKey: "k"}, 16)
		require.Error(t, err)
	})
	t.Run("Should report the stored error when unavailable", func(t *testing.T) {
		adapter := Unavailable(core.ErrGatewayUnavailable)
		_, err := adapter.EmbedQuery(t.Context(), "x")
		require.ErrorIs(t, err, core.ErrGatewayUnavailable)
	})
}
