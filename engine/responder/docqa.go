package responder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/attachment"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge/chunk"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge/embedder"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge/retriever"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge/vectordb"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/router"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

const (
	DocumentRefusal        = "The information was not found in the active document."
	DefaultDocumentTopK    = 5
	DefaultDocumentChunk   = 1000
	DefaultDocumentOverlap = 200

	docQASource      = "Agentic RAG"
	activeCollection = "active_document"
	contextSeparator = "\n\n---\n\n"
	docQATemperature = 0.2
)

// DocumentQA answers questions about the uploaded document through an index
// that lives only for the duration of one request.
type DocumentQA struct {
	complete llm.Completer
	embedder embedder.Embedder
	loaders  *attachment.Registry
	chunking chunk.Settings
	topK     int
}

type DocumentQAOption func(*DocumentQA)

func WithChunking(size, overlap int) DocumentQAOption {
	return func(d *DocumentQA) {
		if size > 0 && overlap >= 0 && overlap < size {
			d.chunking.Size = size
			d.chunking.Overlap = overlap
		}
	}
}

func WithDocumentTopK(k int) DocumentQAOption {
	return func(d *DocumentQA) {
		if k > 0 {
			d.topK = k
		}
	}
}

func WithLoaders(r *attachment.Registry) DocumentQAOption {
	return func(d *DocumentQA) {
		if r != nil {
			d.loaders = r
		}
	}
}

// NewDocumentQA builds the responder. A nil embedder means no embedding
// credential is configured.
func NewDocumentQA(complete llm.Completer, emb embedder.Embedder, opts ...DocumentQAOption) *DocumentQA {
	d := &DocumentQA{
		complete: complete,
		embedder: emb,
		loaders:  attachment.NewRegistry(),
		chunking: chunk.Settings{Size: DefaultDocumentChunk, Overlap: DefaultDocumentOverlap},
		topK:     DefaultDocumentTopK,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *DocumentQA) Respond(ctx context.Context, q router.Query) core.AnswerEnvelope {
	if strings.TrimSpace(q.Text) == "" {
		return core.NewEnvelope("Query not found.", core.TaggedSource(docQASource, "Error"))
	}
	if q.Document.Empty() || strings.TrimSpace(q.Document.Name) == "" {
		return core.NewEnvelope("Please upload a document before asking a question.",
			core.TaggedSource(docQASource, "Error: No Document"))
	}
	doc := q.Document
	source := fmt.Sprintf("Active Document (%s)", doc.Name)
	log := logger.FromContext(ctx).With("responder", "docqa", "document", doc.Name)

	pages, err := d.loaders.Extract(ctx, doc)
	if err != nil {
		if errors.Is(err, core.ErrUnsupportedFormat) {
			return core.NewEnvelope(fmt.Sprintf("Sorry, file type '%s' is not supported.", doc.Ext()),
				core.TaggedSource(source, "Error"))
		}
		log.Error("Document loading failed", "error", err)
		return d.failure(source, err)
	}
	chunks, err := d.split(doc.Name, pages)
	if err != nil {
		log.Error("Document chunking failed", "error", err)
		return d.failure(source, err)
	}
	if len(chunks) == 0 {
		return core.NewEnvelope("No meaningful content could be extracted from the active document.", source)
	}
	if d.embedder == nil {
		return apiKeyMissing()
	}
	records, err := d.retrieve(ctx, q.Text, chunks)
	if err != nil {
		if errors.Is(err, core.ErrGatewayUnavailable) {
			return apiKeyMissing()
		}
		log.Error("Document retrieval failed", "error", err)
		return d.failure(source, err)
	}
	contents := retriever.Contents(records)
	prompt, err := prompts.Render(tplDocument, map[string]any{
		"Refusal": DocumentRefusal,
		"Context": strings.Join(contents, "\n\n"),
		"Query":   q.Text,
	})
	if err != nil {
		return d.failure(source, err)
	}
	answer, err := d.complete.Complete(ctx, prompt, llm.Config{Temperature: docQATemperature})
	if err != nil {
		if errors.Is(err, core.ErrGatewayUnavailable) {
			return apiKeyMissing()
		}
		log.Error("Answer generation failed", "error", err)
		return d.failure(source, err)
	}
	log.Info("Answered from active document", "chunks", len(chunks), "retrieved", len(records))
	return core.NewEnvelope(strings.TrimSpace(answer), source).
		WithContext(strings.Join(contents, contextSeparator))
}

func (d *DocumentQA) split(name string, pages []attachment.Page) ([]chunk.Chunk, error) {
	processor, err := chunk.NewProcessor(d.chunking)
	if err != nil {
		return nil, err
	}
	docs := make([]chunk.Document, 0, len(pages))
	for i := range pages {
		docs = append(docs, chunk.Document{
			ID:       fmt.Sprintf("%s_p%d", name, i),
			Text:     pages[i].Text,
			Metadata: pages[i].Metadata,
		})
	}
	return processor.Process(docs)
}

// retrieve indexes chunks in a throwaway store and queries it.
func (d *DocumentQA) retrieve(ctx context.Context, query string, chunks []chunk.Chunk) ([]retriever.Record, error) {
	store := vectordb.NewMemoryStore()
	defer func() { _ = store.Close(ctx) }()
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	vectors, err := d.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("docqa: got %d embeddings for %d chunks: %w", len(vectors), len(chunks), core.ErrUpstream)
	}
	collection, err := store.Collection(ctx, activeCollection)
	if err != nil {
		return nil, err
	}
	records := make([]vectordb.Record, len(chunks))
	for i := range chunks {
		records[i] = vectordb.Record{
			ID:        chunks[i].ID,
			Text:      chunks[i].Text,
			Embedding: vectors[i],
			Metadata:  chunks[i].Metadata,
		}
	}
	if err := collection.Upsert(ctx, records); err != nil {
		return nil, err
	}
	search, err := retriever.NewService(d.embedder, store)
	if err != nil {
		return nil, err
	}
	return search.Search(ctx, retriever.SearchRequest{Query: query, Collection: activeCollection, K: d.topK})
}

func (d *DocumentQA) failure(source string, err error) core.AnswerEnvelope {
	return core.NewEnvelope(
		fmt.Sprintf("Sorry, an error occurred while processing the active document: %s", core.ErrorTag(err)),
		core.TaggedSource(source, "Error"),
	)
}

func apiKeyMissing() core.AnswerEnvelope {
	return core.NewEnvelope("The process cannot continue because the API key is not configured.",
		core.TaggedSource(docQASource, "Error: API Key"))
}
