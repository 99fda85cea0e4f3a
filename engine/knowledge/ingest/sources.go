package ingest

import (
	"context"
	"crypto/sha1" // #nosec G505 -- content fingerprint for stable ids, not security
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge/chunk"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

// Source names a collection and the raw JSON list files feeding it. Pattern
// is resolved under RawDir/Name unless absolute and may contain ** globs.
type Source struct {
	Name    string
	Pattern string
}

// SourcesFromMap converts the configured name → file map into sources
// sorted by name.
func SourcesFromMap(m map[string]string) []Source {
	out := make([]Source, 0, len(m))
	for name, pattern := range m {
		out = append(out, Source{Name: name, Pattern: pattern})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ParseSource parses a "name=pattern" flag value.
func ParseSource(value string) (Source, error) {
	name, pattern, ok := strings.Cut(value, "=")
	name, pattern = strings.TrimSpace(name), strings.TrimSpace(pattern)
	if !ok || name == "" || pattern == "" {
		return Source{}, fmt.Errorf("ingest: source %q must look like name=path", value)
	}
	return Source{Name: name, Pattern: pattern}, nil
}

func resolveFiles(ctx context.Context, rawDir string, src Source) ([]string, error) {
	pattern := src.Pattern
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(rawDir, src.Name, pattern)
	}
	matches, err := doublestar.FilepathGlob(filepath.Clean(pattern))
	if err != nil {
		return nil, fmt.Errorf("ingest: glob %q failed: %w", src.Pattern, err)
	}
	if len(matches) == 0 {
		logger.FromContext(ctx).Warn("Source file not found, skipping", "source", src.Name, "pattern", pattern)
	}
	sort.Strings(matches)
	return matches, nil
}

// readItems loads one JSON list file and turns every item with a non-empty
// text field into a document. Malformed items are skipped with a warning.
func readItems(ctx context.Context, path string) ([]chunk.Document, error) {
	log := logger.FromContext(ctx).With("file", filepath.Base(path))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: read %q: %w", path, err)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("ingest: %q is not a JSON list: %w", path, err)
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	docs := make([]chunk.Document, 0, len(items))
	for idx, raw := range items {
		var item map[string]any
		if err := json.Unmarshal(raw, &item); err != nil {
			log.Warn("Item is not an object, skipping", "index", idx)
			continue
		}
		text, _ := item["text"].(string)
		text = strings.TrimSpace(text)
		if text == "" {
			log.Warn("Item has no text, skipping", "index", idx)
			continue
		}
		meta := make(map[string]any, len(item))
		for k, v := range item {
			if k == "text" {
				continue
			}
			meta[k] = flatten(v)
		}
		meta["original_source_file"] = filepath.Base(path)
		docs = append(docs, chunk.Document{
			ID:       documentID(stem, idx, item),
			Text:     text,
			Metadata: meta,
		})
	}
	return docs, nil
}

// documentID is "{stem}_{index}_{sha1(title+date)[:8]}".
func documentID(stem string, idx int, item map[string]any) string {
	title, _ := item["title"].(string)
	date, _ := item["date"].(string)
	sum := sha1.Sum([]byte(title + date)) // #nosec G401 -- not used for security
	return fmt.Sprintf("%s_%d_%s", stem, idx, hex.EncodeToString(sum[:])[:8])
}

// flatten keeps scalars and encodes nested values as JSON text so every
// metadata value stays filterable by equality.
func flatten(v any) any {
	switch v.(type) {
	case nil, string, bool, float64:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
