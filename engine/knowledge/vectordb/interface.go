package vectordb

import (
	"context"
)

// Provider enumerates supported vector store backends.
type Provider string

const (
	// ProviderMemory keeps collections in process memory only.
	ProviderMemory Provider = "memory"
	// ProviderFilesystem persists each collection as a JSON snapshot under a directory.
	ProviderFilesystem Provider = "filesystem"
)

const defaultTopK = 5

// Record represents a chunk persisted to a collection.
type Record struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  map[string]any
}

// ContentFilter restricts matches by substring of the record text.
type ContentFilter struct {
	Contains    string
	NotContains string
}

// Query describes one similarity search.
type Query struct {
	Vector   []float32
	TopK     int
	Metadata map[string]any
	Content  ContentFilter
}

// Match is a search result. Distance is the cosine distance to the query
// vector, lower is closer.
type Match struct {
	ID       string
	Text     string
	Metadata map[string]any
	Distance float64
}

// Collection is a named set of records.
type Collection interface {
	Name() string
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, q Query) ([]Match, error)
	Count() int
}

// Store hands out collections, creating them on first use.
type Store interface {
	Collection(ctx context.Context, name string) (Collection, error)
	Close(ctx context.Context) error
}

// Config selects and configures a store.
type Config struct {
	Provider Provider
	Path     string
}

// New builds the store named by cfg.Provider.
func New(cfg *Config) (Store, error) {
	if cfg == nil || cfg.Provider == "" || cfg.Provider == ProviderMemory {
		return NewMemoryStore(), nil
	}
	if cfg.Provider == ProviderFilesystem {
		return NewFileStore(cfg.Path)
	}
	return nil, errUnknownProvider(cfg.Provider)
}
