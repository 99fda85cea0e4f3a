package vectordb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

var collectionNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,62}$`)

// FileStore persists every collection as a JSON snapshot in one directory.
// Writes go through a temp file and rename under an advisory file lock so an
// ingest run and a server sharing the directory never see a torn snapshot.
type FileStore struct {
	mu          sync.Mutex
	dir         string
	collections map[string]*collection
}

// NewFileStore opens (and creates) the store directory.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("filesystem: directory is required")
	}
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("filesystem: ensure directory %q: %w", dir, err)
	}
	return &FileStore{dir: dir, collections: make(map[string]*collection)}, nil
}

// Dir returns the snapshot directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) Collection(_ context.Context, name string) (Collection, error) {
	name = strings.TrimSpace(name)
	if !collectionNamePattern.MatchString(name) {
		return nil, fmt.Errorf("filesystem: invalid collection name %q", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[name]; ok {
		return c, nil
	}
	file := &snapshotFile{path: filepath.Join(s.dir, name+".json")}
	c := newCollection(name)
	dimension, records, err := file.load()
	if err != nil {
		return nil, err
	}
	c.dimension, c.records = dimension, records
	c.persist = file.write
	c.reload = func(c *collection) error {
		changed, err := file.changed()
		if err != nil || !changed {
			return err
		}
		dimension, records, err := file.load()
		if err != nil {
			return err
		}
		c.dimension, c.records = dimension, records
		return nil
	}
	s.collections[name] = c
	return c, nil
}

func (s *FileStore) Close(context.Context) error {
	s.mu.Lock()
	s.collections = make(map[string]*collection)
	s.mu.Unlock()
	return nil
}

// snapshotFile tracks the version of a snapshot last read or written by this
// process, so writes from another process (an ingest run) are noticed.
type snapshotFile struct {
	path    string
	exists  bool
	modTime time.Time
	size    int64
}

func (f *snapshotFile) remember(info os.FileInfo) {
	f.exists = info != nil
	if info != nil {
		f.modTime, f.size = info.ModTime(), info.Size()
	}
}

func (f *snapshotFile) changed() (bool, error) {
	info, err := os.Stat(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return f.exists, nil
	}
	if err != nil {
		return false, fmt.Errorf("filesystem: stat %q: %w", f.path, err)
	}
	return !f.exists || !info.ModTime().Equal(f.modTime) || info.Size() != f.size, nil
}

func (f *snapshotFile) load() (int, map[string]Record, error) {
	records := make(map[string]Record)
	lock := flock.New(f.path + ".lock")
	if err := lock.RLock(); err != nil {
		return 0, nil, fmt.Errorf("filesystem: lock %q: %w", f.path, err)
	}
	defer lock.Unlock() //nolint:errcheck // released on close as well
	info, err := os.Stat(f.path)
	if errors.Is(err, os.ErrNotExist) {
		f.remember(nil)
		return 0, records, nil
	}
	if err != nil {
		return 0, nil, fmt.Errorf("filesystem: stat %q: %w", f.path, err)
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return 0, nil, fmt.Errorf("filesystem: read %q: %w", f.path, err)
	}
	var payload snapshot
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, nil, fmt.Errorf("filesystem: decode %q: %w", f.path, err)
	}
	for i := range payload.Records {
		rec := payload.Records[i]
		if len(rec.Embedding) != payload.Dimension {
			return 0, nil, fmt.Errorf("filesystem: record %q in %q has dimension %d, want %d",
				rec.ID, f.path, len(rec.Embedding), payload.Dimension)
		}
		records[rec.ID] = Record{
			ID:        rec.ID,
			Text:      rec.Text,
			Embedding: toFloat32(rec.Embedding),
			Metadata:  rec.Metadata,
		}
	}
	f.remember(info)
	return payload.Dimension, records, nil
}

func (f *snapshotFile) write(dimension int, records map[string]Record) error {
	payload := snapshot{
		Dimension: dimension,
		Records:   make([]snapshotRecord, 0, len(records)),
	}
	for _, rec := range records {
		payload.Records = append(payload.Records, snapshotRecord{
			ID:        rec.ID,
			Text:      rec.Text,
			Embedding: toFloat64(rec.Embedding),
			Metadata:  rec.Metadata,
		})
	}
	sort.Slice(payload.Records, func(i, j int) bool { return payload.Records[i].ID < payload.Records[j].ID })
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("filesystem: encode snapshot: %w", err)
	}
	lock := flock.New(f.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("filesystem: lock %q: %w", f.path, err)
	}
	defer lock.Unlock() //nolint:errcheck // released on close as well
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("filesystem: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("filesystem: commit snapshot: %w", err)
	}
	info, err := os.Stat(f.path)
	if err != nil {
		return fmt.Errorf("filesystem: stat %q: %w", f.path, err)
	}
	f.remember(info)
	return nil
}

type snapshot struct {
	Dimension int              `json:"dimension"`
	Records   []snapshotRecord `json:"records"`
}

type snapshotRecord struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Embedding []float64      `json:"embedding"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func toFloat64(values []float32) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		out[i] = float64(values[i])
	}
	return out
}

func toFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i := range values {
		out[i] = float32(values[i])
	}
	return out
}
