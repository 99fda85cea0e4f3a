package vectordb

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// MemoryStore keeps collections in process memory. The active-document
// responder builds one per request and drops it afterwards.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]*collection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*collection)}
}

func (s *MemoryStore) Collection(_ context.Context, name string) (Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("vectordb: collection name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[name]; ok {
		return c, nil
	}
	c := newCollection(name)
	s.collections[name] = c
	return c, nil
}

func (s *MemoryStore) Close(context.Context) error {
	s.mu.Lock()
	s.collections = make(map[string]*collection)
	s.mu.Unlock()
	return nil
}
