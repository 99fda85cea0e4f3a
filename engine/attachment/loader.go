package attachment

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

// Loader turns raw bytes into pages.
type Loader interface {
	Load(ctx context.Context, data []byte) ([]Page, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, data []byte) ([]Page, error)

func (f LoaderFunc) Load(ctx context.Context, data []byte) ([]Page, error) { return f(ctx, data) }

var defaultLoaders = map[string]Loader{
	".pdf":  LoaderFunc(loadPDF),
	".txt":  LoaderFunc(loadText),
	".md":   LoaderFunc(loadMarkdown),
	".docx": LoaderFunc(loadDOCX),
}

// Registry maps extensions to loaders.
type Registry struct {
	loaders map[string]Loader
}

// NewRegistry returns a registry with the pdf, txt, md and docx loaders.
func NewRegistry() *Registry {
	r := &Registry{loaders: make(map[string]Loader, len(defaultLoaders))}
	for ext, l := range defaultLoaders {
		r.loaders[ext] = l
	}
	return r
}

// Register adds or replaces the loader for ext.
func (r *Registry) Register(ext string, l Loader) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r.loaders[ext] = l
}

// Supported lists the registered extensions.
func (r *Registry) Supported() []string {
	out := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Extract loads doc with the loader for its extension. Unknown extensions
// fail with core.ErrUnsupportedFormat. Every page carries the source name.
func (r *Registry) Extract(ctx context.Context, doc *Document) ([]Page, error) {
	if doc.Empty() {
		return nil, fmt.Errorf("attachment: no document: %w", core.ErrCaller)
	}
	ext := doc.Ext()
	loader, ok := r.loaders[ext]
	if !ok {
		return nil, fmt.Errorf("attachment: file type '%s': %w", ext, core.ErrUnsupportedFormat)
	}
	pages, err := loader.Load(ctx, doc.Data)
	if err != nil {
		return nil, fmt.Errorf("attachment: load %s: %w", doc.Name, err)
	}
	out := pages[:0]
	for i := range pages {
		if strings.TrimSpace(pages[i].Text) == "" {
			continue
		}
		if pages[i].Metadata == nil {
			pages[i].Metadata = make(map[string]any, 1)
		}
		pages[i].Metadata["source"] = doc.Name
		out = append(out, pages[i])
	}
	logger.FromContext(ctx).Debug("Extracted document", "name", doc.Name, "ext", ext, "pages", len(out))
	return out, nil
}

// Extract uses the default registry.
func Extract(ctx context.Context, doc *Document) ([]Page, error) {
	return NewRegistry().Extract(ctx, doc)
}
