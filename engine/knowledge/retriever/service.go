package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge/embedder"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge/vectordb"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

// Record is one retrieved chunk. Content is nil when the store holds no text
// for the record. Distance is cosine distance, lower is closer.
type Record struct {
	ID       string
	Content  *string
	Metadata map[string]any
	Distance float64
}

// ContentFilter mirrors the $contains / $not_contains document filters.
type ContentFilter = vectordb.ContentFilter

// SearchRequest describes one retrieval.
type SearchRequest struct {
	Query          string
	Collection     string
	K              int
	MetadataFilter map[string]any
	ContentFilter  ContentFilter
}

// Searcher is the retrieval contract responders depend on.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) ([]Record, error)
}

// Service embeds queries and runs them against a vector store.
type Service struct {
	embedder embedder.Embedder
	store    vectordb.Store
	tracer   trace.Tracer
}

func NewService(emb embedder.Embedder, store vectordb.Store) (*Service, error) {
	if emb == nil {
		return nil, errors.New("retriever: embedder is required")
	}
	if store == nil {
		return nil, errors.New("retriever: vector store is required")
	}
	return &Service{
		embedder: emb,
		store:    store,
		tracer:   otel.Tracer("supervisor.knowledge.retriever"),
	}, nil
}

// Search returns up to K records ordered by ascending distance. It never
// applies a distance threshold; see FilterByThreshold.
func (s *Service) Search(ctx context.Context, req SearchRequest) (records []Record, err error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx).With("collection", req.Collection, "k", req.K)
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "supervisor.knowledge.retriever.search", trace.WithAttributes(
		attribute.String("collection", req.Collection),
		attribute.Int("top_k", req.K),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("results", len(records)))
		}
		span.End()
		knowledge.RecordQueryLatency(ctx, req.Collection, time.Since(start))
	}()
	collection, err := s.store.Collection(ctx, req.Collection)
	if err != nil {
		return nil, fmt.Errorf("retriever: open collection %q: %w: %w", req.Collection, core.ErrCollectionUnavailable, err)
	}
	vector, err := s.embedder.EmbedQuery(ctx, req.Query)
	if err != nil {
		return nil, err
	}
	matches, err := collection.Query(ctx, vectordb.Query{
		Vector:   vector,
		TopK:     req.K,
		Metadata: req.MetadataFilter,
		Content:  req.ContentFilter,
	})
	if err != nil {
		return nil, fmt.Errorf("retriever: query collection %q: %w: %w", req.Collection, core.ErrCollectionUnavailable, err)
	}
	if len(matches) == 0 {
		knowledge.RecordRetrievalEmpty(ctx, req.Collection)
	}
	records = make([]Record, len(matches))
	for i := range matches {
		records[i] = Record{
			ID:       matches[i].ID,
			Content:  contentPtr(matches[i].Text),
			Metadata: core.CloneMap(matches[i].Metadata),
			Distance: matches[i].Distance,
		}
	}
	log.Debug("Retrieval executed", "results", len(records))
	return records, nil
}

func validate(req SearchRequest) error {
	if strings.TrimSpace(req.Query) == "" {
		return fmt.Errorf("retriever: query is required: %w", core.ErrQueryRejected)
	}
	if strings.TrimSpace(req.Collection) == "" {
		return fmt.Errorf("retriever: collection is required: %w", core.ErrQueryRejected)
	}
	if req.K <= 0 {
		return fmt.Errorf("retriever: k must be positive, got %d: %w", req.K, core.ErrQueryRejected)
	}
	return nil
}

func contentPtr(text string) *string {
	if text == "" {
		return nil
	}
	return &text
}
