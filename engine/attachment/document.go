package attachment

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Document is an uploaded file held in memory for the lifetime of a session.
type Document struct {
	Name string
	Data []byte
}

// Ext returns the lowercase extension. A name without one is treated as text.
func (d *Document) Ext() string {
	if d == nil {
		return ""
	}
	ext := strings.ToLower(filepath.Ext(d.Name))
	if ext == "" {
		return ".txt"
	}
	return ext
}

// Empty reports whether there is no document to answer from.
func (d *Document) Empty() bool {
	return d == nil || len(d.Data) == 0
}

// MIME sniffs the content type of the document bytes.
func (d *Document) MIME() string {
	if d == nil || len(d.Data) == 0 {
		return "application/octet-stream"
	}
	return mimetype.Detect(d.Data).String()
}

// Page is one extracted unit of text. PDFs yield one page per PDF page,
// other formats a single page.
type Page struct {
	Text     string
	Metadata map[string]any
}
