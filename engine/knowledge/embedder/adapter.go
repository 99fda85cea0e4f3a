package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm"
)

// Embedder is the contract retrieval and ingestion depend on.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Adapter wraps a langchaingo embedder with an optional LRU cache and
// contextual errors. It is safe for concurrent use.
type Adapter struct {
	model   string
	impl    embeddings.Embedder
	cacheMu sync.Mutex
	cache   *lru.Cache[string, []float32]
}

// New builds an adapter for the configured provider. A provider that needs a
// key and has none yields core.ErrGatewayUnavailable.
func New(ctx context.Context, p llm.ProviderConfig, batchSize int) (*Adapter, error) {
	if p.RequiresKey() && strings.TrimSpace(p.APIKey) == "" {
		return nil, fmt.Errorf("embedder: no credential for provider %s: %w", p.Provider, core.ErrGatewayUnavailable)
	}
	client, err := newClient(ctx, p)
	if err != nil {
		return nil, err
	}
	opts := []embeddings.Option{embeddings.WithStripNewLines(true)}
	if batchSize > 0 {
		opts = append(opts, embeddings.WithBatchSize(batchSize))
	}
	impl, err := embeddings.NewEmbedder(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("embedder: construct %s embedder: %w", p.Provider, err)
	}
	return Wrap(p.EmbeddingModel, impl), nil
}

// Wrap constructs an adapter around an existing langchaingo embedder.
func Wrap(model string, impl embeddings.Embedder) *Adapter {
	return &Adapter{model: model, impl: impl}
}

// Unavailable returns an adapter whose every call fails with err. It lets the
// application start without embedding credentials and report the failure per
// request.
func Unavailable(err error) *Adapter {
	return &Adapter{impl: failing{err: err}}
}

func newClient(ctx context.Context, p llm.ProviderConfig) (embeddings.EmbedderClient, error) {
	switch p.Provider {
	case llm.ProviderGoogle:
		opts := []googleai.Option{googleai.WithAPIKey(p.APIKey)}
		if p.EmbeddingModel != "" {
			opts = append(opts, googleai.WithDefaultEmbeddingModel(p.EmbeddingModel))
		}
		client, err := googleai.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("embedder: init googleai client: %w", err)
		}
		return client, nil
	case llm.ProviderOpenAI:
		opts := []openai.Option{openai.WithToken(p.APIKey)}
		if p.EmbeddingModel != "" {
			opts = append(opts, openai.WithEmbeddingModel(p.EmbeddingModel))
		}
		if p.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(p.BaseURL))
		}
		client, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("embedder: init openai client: %w", err)
		}
		return client, nil
	case llm.ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(p.EmbeddingModel)}
		if p.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(p.BaseURL))
		}
		client, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("embedder: init ollama client: %w", err)
		}
		return client, nil
	case llm.ProviderMock:
		return llm.NewEchoModel(), nil
	default:
		return nil, fmt.Errorf("embedder: provider %q has no embedding endpoint", p.Provider)
	}
}

// EnableCache initializes an LRU cache for embeddings.
func (a *Adapter) EnableCache(size int) error {
	if size <= 0 {
		return errors.New("embedder: cache size must be greater than zero")
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return fmt.Errorf("embedder: init cache: %w", err)
	}
	a.cacheMu.Lock()
	a.cache = cache
	a.cacheMu.Unlock()
	return nil
}

// EmbedDocuments embeds texts, serving repeated texts from the cache.
func (a *Adapter) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if cache := a.getCache(); cache != nil {
		return a.cachedEmbedDocuments(ctx, cache, texts)
	}
	vectors, err := a.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, a.withContext(err)
	}
	if len(vectors) != len(texts) {
		return nil, a.withContext(fmt.Errorf("received %d embeddings for %d texts", len(vectors), len(texts)))
	}
	return vectors, nil
}

// EmbedQuery embeds a single query text.
func (a *Adapter) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	cache := a.getCache()
	if vector, ok := a.lookupCache(cache, text); ok {
		knowledge.RecordEmbeddingCache(ctx, a.model, true)
		return vector, nil
	}
	if cache != nil {
		knowledge.RecordEmbeddingCache(ctx, a.model, false)
	}
	vector, err := a.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, a.withContext(err)
	}
	a.storeCache(cache, text, vector)
	return cloneVector(vector), nil
}

func (a *Adapter) cachedEmbedDocuments(
	ctx context.Context,
	cache *lru.Cache[string, []float32],
	texts []string,
) ([][]float32, error) {
	results := make([][]float32, len(texts))
	missingIdx := make(map[string][]int)
	uniqueMissing := make([]string, 0, len(texts))
	for i, text := range texts {
		if vector, ok := a.lookupCache(cache, text); ok {
			knowledge.RecordEmbeddingCache(ctx, a.model, true)
			results[i] = vector
			continue
		}
		knowledge.RecordEmbeddingCache(ctx, a.model, false)
		if _, seen := missingIdx[text]; !seen {
			uniqueMissing = append(uniqueMissing, text)
		}
		missingIdx[text] = append(missingIdx[text], i)
	}
	if len(uniqueMissing) == 0 {
		return results, nil
	}
	embedded, err := a.impl.EmbedDocuments(ctx, uniqueMissing)
	if err != nil {
		return nil, a.withContext(err)
	}
	if len(embedded) != len(uniqueMissing) {
		return nil, a.withContext(fmt.Errorf("received %d embeddings for %d texts", len(embedded), len(uniqueMissing)))
	}
	for i, text := range uniqueMissing {
		for _, idx := range missingIdx[text] {
			results[idx] = cloneVector(embedded[i])
		}
		a.storeCache(cache, text, embedded[i])
	}
	return results, nil
}

func (a *Adapter) getCache() *lru.Cache[string, []float32] {
	a.cacheMu.Lock()
	defer a.cacheMu.Unlock()
	return a.cache
}

func (a *Adapter) lookupCache(cache *lru.Cache[string, []float32], text string) ([]float32, bool) {
	if cache == nil {
		return nil, false
	}
	value, ok := cache.Get(cacheKey(text))
	if !ok {
		return nil, false
	}
	return cloneVector(value), true
}

func (a *Adapter) storeCache(cache *lru.Cache[string, []float32], text string, vector []float32) {
	if cache == nil || len(vector) == 0 {
		return
	}
	cache.Add(cacheKey(text), cloneVector(vector))
}

func (a *Adapter) withContext(err error) error {
	if errors.Is(err, core.ErrCollaboratorUnavailable) {
		return err
	}
	return core.Upstream("embed", err)
}

type failing struct{ err error }

func (f failing) EmbedDocuments(context.Context, []string) ([][]float32, error) { return nil, f.err }
func (f failing) EmbedQuery(context.Context, string) ([]float32, error)          { return nil, f.err }

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func cloneVector(src []float32) []float32 {
	if len(src) == 0 {
		return nil
	}
	dst := make([]float32, len(src))
	copy(dst, src)
	return dst
}
