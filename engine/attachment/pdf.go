package attachment

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// loadPDF extracts plain text page by page.
func loadPDF(ctx context.Context, data []byte) (pages []Page, err error) {
	if mt := mimetype.Detect(data); !mt.Is("application/pdf") {
		return nil, fmt.Errorf("pdf: content is %s, not a PDF", mt.String())
	}
	defer func() {
		// the parser panics on some malformed cross-reference tables
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("pdf: malformed document: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdf: open: %w", err)
	}
	total := reader.NumPage()
	pages = make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("pdf: page %d: %w", i, err)
		}
		pages = append(pages, Page{
			Text:     strings.TrimSpace(text),
			Metadata: map[string]any{"page": i - 1},
		})
	}
	return pages, nil
}
