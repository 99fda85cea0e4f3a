package vectordb

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

func errUnknownProvider(p Provider) error {
	return fmt.Errorf("vectordb: provider %q is not supported", p)
}

// collection is the in-memory index shared by both store providers. persist,
// when set, must succeed before an upsert becomes visible. reload, when set,
// picks up records written by another process and runs under the write lock.
type collection struct {
	mu        sync.RWMutex
	name      string
	dimension int
	records   map[string]Record
	persist   func(dimension int, records map[string]Record) error
	reload    func(c *collection) error
}

func newCollection(name string) *collection {
	return &collection{name: name, records: make(map[string]Record)}
}

func (c *collection) Name() string {
	return c.name
}

func (c *collection) Count() int {
	if err := c.refresh(); err != nil {
		logger.Warn("Collection refresh failed", "collection", c.name, "error", err)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

func (c *collection) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reload != nil {
		if err := c.reload(c); err != nil {
			return fmt.Errorf("vectordb: refresh %q: %w", c.name, err)
		}
	}
	dimension := c.dimension
	for i := range records {
		rec := records[i]
		if strings.TrimSpace(rec.ID) == "" {
			return errors.New("vectordb: record id is required")
		}
		if len(rec.Embedding) == 0 {
			return fmt.Errorf("vectordb: record %q has no embedding", rec.ID)
		}
		if dimension == 0 {
			dimension = len(rec.Embedding)
		}
		if len(rec.Embedding) != dimension {
			return fmt.Errorf(
				"vectordb: record %q dimension mismatch (got %d want %d)",
				rec.ID,
				len(rec.Embedding),
				dimension,
			)
		}
	}
	merged := make(map[string]Record, len(c.records)+len(records))
	maps.Copy(merged, c.records)
	for i := range records {
		rec := records[i]
		merged[rec.ID] = Record{
			ID:        rec.ID,
			Text:      rec.Text,
			Embedding: append([]float32(nil), rec.Embedding...),
			Metadata:  core.CloneMap(rec.Metadata),
		}
	}
	if c.persist != nil {
		if err := c.persist(dimension, merged); err != nil {
			return err
		}
	}
	c.records = merged
	c.dimension = dimension
	return nil
}

// refresh picks up records another process persisted since the last read.
func (c *collection) refresh() error {
	if c.reload == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reload(c)
}

func (c *collection) Query(ctx context.Context, q Query) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.refresh(); err != nil {
		return nil, fmt.Errorf("vectordb: refresh %q: %w", c.name, err)
	}
	topK := q.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.records) == 0 {
		return nil, nil
	}
	if len(q.Vector) != c.dimension {
		return nil, fmt.Errorf("vectordb: query dimension mismatch (got %d want %d)", len(q.Vector), c.dimension)
	}
	candidates := make([]Match, 0, len(c.records))
	for _, rec := range c.records {
		if !metadataMatches(rec.Metadata, q.Metadata) || !contentMatches(rec.Text, q.Content) {
			continue
		}
		candidates = append(candidates, Match{
			ID:       rec.ID,
			Text:     rec.Text,
			Metadata: core.CloneMap(rec.Metadata),
			Distance: 1 - cosineSimilarity(rec.Embedding, q.Vector),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Distance == candidates[j].Distance {
			return candidates[i].ID < candidates[j].ID
		}
		return candidates[i].Distance < candidates[j].Distance
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// metadataMatches requires every filter key to be present with an equal value.
// Values that went through a JSON snapshot come back as float64, so scalars
// are also compared by their printed form.
func metadataMatches(meta map[string]any, filter map[string]any) bool {
	for key, want := range filter {
		got, ok := meta[key]
		if !ok {
			return false
		}
		if reflect.DeepEqual(got, want) {
			continue
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func contentMatches(text string, filter ContentFilter) bool {
	if filter.Contains != "" && !strings.Contains(text, filter.Contains) {
		return false
	}
	if filter.NotContains != "" && strings.Contains(text, filter.NotContains) {
		return false
	}
	return true
}
