package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge/chunk"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge/embedder"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge/vectordb"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

const (
	DefaultBatchSize   = 128
	DefaultConcurrency = 4
)

// Options configures a pipeline.
type Options struct {
	RawDir       string
	ProcessedDir string
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int
	Concurrency  int
	RetryBackoff time.Duration
	RetryCount   int
}

// Pipeline turns raw JSON list files into processed JSONL and then into
// embedded records in a collection named after the source.
type Pipeline struct {
	embedder embedder.Embedder
	store    vectordb.Store
	chunker  *chunk.Processor
	opts     Options
}

// Result summarizes one source.
type Result struct {
	Collection    string
	Files         int
	Documents     int
	Chunks        int
	Persisted     int
	ProcessedFile string
}

// ProcessedRecord is one line of the processed JSONL file.
type ProcessedRecord struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

func NewPipeline(emb embedder.Embedder, store vectordb.Store, opts Options) (*Pipeline, error) {
	if emb == nil {
		return nil, errors.New("ingest: embedder is required")
	}
	if store == nil {
		return nil, errors.New("ingest: vector store is required")
	}
	chunker, err := chunk.NewProcessor(chunk.Settings{
		Size:              opts.ChunkSize,
		Overlap:           opts.ChunkOverlap,
		NormalizeNewlines: true,
	})
	if err != nil {
		return nil, err
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.RetryCount < 0 {
		opts.RetryCount = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 200 * time.Millisecond
	}
	return &Pipeline{embedder: emb, store: store, chunker: chunker, opts: opts}, nil
}

// Run processes then loads src.
func (p *Pipeline) Run(ctx context.Context, src Source) (*Result, error) {
	start := time.Now()
	result, err := p.Process(ctx, src)
	if err != nil {
		return nil, err
	}
	if result.Chunks == 0 {
		return result, nil
	}
	persisted, err := p.Load(ctx, src.Name)
	if err != nil {
		return nil, err
	}
	result.Persisted = persisted
	knowledge.RecordIngestDuration(ctx, src.Name, time.Since(start))
	return result, nil
}

// Process chunks every file of src and writes
// ProcessedDir/{name}/{name}_processed.jsonl.
func (p *Pipeline) Process(ctx context.Context, src Source) (*Result, error) {
	log := logger.FromContext(ctx).With("source", src.Name)
	files, err := resolveFiles(ctx, p.opts.RawDir, src)
	if err != nil {
		return nil, err
	}
	result := &Result{Collection: src.Name, Files: len(files)}
	var docs []chunk.Document
	for _, file := range files {
		items, err := readItems(ctx, file)
		if err != nil {
			log.Error("Skipping unreadable source file", "file", file, "error", err)
			continue
		}
		docs = append(docs, items...)
	}
	result.Documents = len(docs)
	chunks, err := p.chunker.Process(docs)
	if err != nil {
		return nil, err
	}
	result.Chunks = len(chunks)
	if len(chunks) == 0 {
		log.Warn("No chunks produced for source")
		return result, nil
	}
	out := p.processedPath(src.Name)
	if err := writeJSONL(out, chunks); err != nil {
		return nil, err
	}
	result.ProcessedFile = out
	log.Info("Processed source", "files", len(files), "documents", len(docs), "chunks", len(chunks), "output", out)
	return result, nil
}

// Load embeds the processed JSONL of name and upserts it into the
// collection of the same name.
func (p *Pipeline) Load(ctx context.Context, name string) (int, error) {
	log := logger.FromContext(ctx).With("collection", name)
	records, err := readJSONL(p.processedPath(name))
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	collection, err := p.store.Collection(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("ingest: open collection %q: %w", name, err)
	}
	vectors := make([][][]float32, (len(records)+p.opts.BatchSize-1)/p.opts.BatchSize)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for b := range vectors {
		lo := b * p.opts.BatchSize
		hi := min(lo+p.opts.BatchSize, len(records))
		texts := make([]string, 0, hi-lo)
		for i := lo; i < hi; i++ {
			texts = append(texts, records[i].Text)
		}
		g.Go(func() error {
			out, err := p.embedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("ingest: batch %d: %w", b, err)
			}
			vectors[b] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	batch := make([]vectordb.Record, 0, len(records))
	for b := range vectors {
		for j, vec := range vectors[b] {
			rec := records[b*p.opts.BatchSize+j]
			batch = append(batch, vectordb.Record{ID: rec.ID, Text: rec.Text, Embedding: vec, Metadata: rec.Metadata})
		}
	}
	if err := collection.Upsert(ctx, batch); err != nil {
		return 0, fmt.Errorf("ingest: persist vectors: %w", err)
	}
	knowledge.RecordIngestChunks(ctx, name, len(batch))
	log.Info("Loaded collection", "records", len(batch), "total", collection.Count())
	return len(batch), nil
}

func (p *Pipeline) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	backoff := retry.WithMaxRetries(uint64(p.opts.RetryCount), retry.NewExponential(p.opts.RetryBackoff)) // #nosec G115
	var out [][]float32
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		vectors, err := p.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return retry.RetryableError(err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
		}
		out = vectors
		return nil
	})
	return out, err
}

func (p *Pipeline) processedPath(name string) string {
	return filepath.Join(p.opts.ProcessedDir, name, name+"_processed.jsonl")
}

func writeJSONL(path string, chunks []chunk.Chunk) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("ingest: ensure directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ingest: create %q: %w", path, err)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i := range chunks {
		meta := make(map[string]any, len(chunks[i].Metadata))
		for k, v := range chunks[i].Metadata {
			if k == "chunk_index" || k == "source_id" {
				continue
			}
			meta[k] = v
		}
		if err := enc.Encode(ProcessedRecord{ID: chunks[i].ID, Text: chunks[i].Text, Metadata: meta}); err != nil {
			f.Close()
			return fmt.Errorf("ingest: encode %q: %w", chunks[i].ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("ingest: flush %q: %w", path, err)
	}
	return f.Close()
}

func readJSONL(path string) ([]ProcessedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open processed file: %w", err)
	}
	defer f.Close()
	var out []ProcessedRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec ProcessedRecord
		if err := json.Unmarshal(line, &rec); err != nil || rec.ID == "" || rec.Text == "" {
			continue
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ingest: read processed file: %w", err)
	}
	return out, nil
}
