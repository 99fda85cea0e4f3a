package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge/vectordb"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm"
)

type hashEmbedder struct {
	calls atomic.Int32
	fail  int32
}

func (h *hashEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if h.calls.Add(1) <= h.fail {
		return nil, errors.New("temporary")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = llm.HashEmbedding(text, 16)
	}
	return out, nil
}

func (h *hashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return llm.HashEmbedding(text, 16), nil
}

const rawList = `[
  {"title": "Vergi", "date": "2024-01-01", "text": "Vergi kanununda değişiklik yapıldı.", "url": "https://a"},
  {"title": "Boş", "date": "2024-01-02", "text": "   "},
  "not an object",
  {"title": "Atama", "date": "2024-01-03", "text": "Atama kararları yayımlandı.", "tags": ["a", "b"]}
]`

func writeRaw(t *testing.T, root, source, file, body string) {
	t.Helper()
	dir := filepath.Join(root, source)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(body), 0o600))
}

func newPipeline(t *testing.T, emb *hashEmbedder, store vectordb.Store) (*Pipeline, Options) {
	t.Helper()
	root := t.TempDir()
	opts := Options{
		RawDir:       filepath.Join(root, "raw"),
		ProcessedDir: filepath.Join(root, "processed"),
		ChunkSize:    1000,
		ChunkOverlap: 150,
		BatchSize:    1,
		RetryCount:   2,
		RetryBackoff: 1,
	}
	p, err := NewPipeline(emb, store, opts)
	require.NoError(t, err)
	return p, opts
}

func TestPipeline_Run(t *testing.T) {
	t.Run("Should process, embed and upsert a source", func(t *testing.T) {
		store := vectordb.NewMemoryStore()
		p, opts := newPipeline(t, &hashEmbedder{}, store)
		writeRaw(t, opts.RawDir, "resmi_gazete", "news.json", rawList)
		result, err := p.Run(t.Context(), Source{Name: "resmi_gazete", Pattern: "news.json"})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Files)
		assert.Equal(t, 2, result.Documents)
		assert.Equal(t, 2, result.Chunks)
		assert.Equal(t, 2, result.Persisted)
		data, err := os.ReadFile(filepath.Join(opts.ProcessedDir, "resmi_gazete", "resmi_gazete_processed.jsonl"))
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[0], `"id":"news_0_`)
		assert.Contains(t, lines[0], `"original_source_file":"news.json"`)
		assert.Contains(t, lines[1], `"id":"news_3_`)
		assert.Contains(t, lines[1], `"tags":"[\"a\",\"b\"]"`)
		c, err := store.Collection(t.Context(), "resmi_gazete")
		require.NoError(t, err)
		assert.Equal(t, 2, c.Count())
	})
	t.Run("Should be idempotent across reruns", func(t *testing.T) {
		store := vectordb.NewMemoryStore()
		p, opts := newPipeline(t, &hashEmbedder{}, store)
		writeRaw(t, opts.RawDir, "haberler", "trt.json", rawList)
		src := Source{Name: "haberler", Pattern: "*.json"}
		_, err := p.Run(t.Context(), src)
		require.NoError(t, err)
		_, err = p.Run(t.Context(), src)
		require.NoError(t, err)
		c, err := store.Collection(t.Context(), "haberler")
		require.NoError(t, err)
		assert.Equal(t, 2, c.Count())
	})
	t.Run("Should retry transient embedding failures", func(t *testing.T) {
		emb := &hashEmbedder{fail: 1}
		p, opts := newPipeline(t, emb, vectordb.NewMemoryStore())
		writeRaw(t, opts.RawDir, "resmi_gazete", "news.json", rawList)
		result, err := p.Run(t.Context(), Source{Name: "resmi_gazete", Pattern: "news.json"})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Persisted)
	})
	t.Run("Should skip a missing source without error", func(t *testing.T) {
		p, _ := newPipeline(t, &hashEmbedder{}, vectordb.NewMemoryStore())
		result, err := p.Run(t.Context(), Source{Name: "none", Pattern: "missing.json"})
		require.NoError(t, err)
		assert.Equal(t, 0, result.Files)
		assert.Equal(t, 0, result.Persisted)
	})
}

func TestDocumentID(t *testing.T) {
	t.Run("Should hash title and date", func(t *testing.T) {
		id := documentID("aa", 7, map[string]any{"title": "T", "date": "D"})
		assert.True(t, strings.HasPrefix(id, "aa_7_"))
		assert.Len(t, strings.TrimPrefix(id, "aa_7_"), 8)
		assert.Equal(t, id, documentID("aa", 7, map[string]any{"title": "T", "date": "D", "x": 1.0}))
	})
}

func TestParseSource(t *testing.T) {
	t.Run("Should parse name=path", func(t *testing.T) {
		src, err := ParseSource("haberler=trt/*.json")
		require.NoError(t, err)
		assert.Equal(t, Source{Name: "haberler", Pattern: "trt/*.json"}, src)
	})
	t.Run("Should reject malformed values", func(t *testing.T) {
		_, err := ParseSource("haberler")
		require.Error(t, err)
	})
	t.Run("Should sort configured sources", func(t *testing.T) {
		got := SourcesFromMap(map[string]string{"b": "2", "a": "1"})
		assert.Equal(t, []Source{{Name: "a", Pattern: "1"}, {Name: "b", Pattern: "2"}}, got)
	})
}
