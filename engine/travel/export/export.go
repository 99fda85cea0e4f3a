// Package export renders travel plans as PDF files.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jung-kurt/gofpdf"
	"github.com/spf13/afero"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/search"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

const (
	defaultTitle   = "travel_plan"
	maxTitleRunes  = 50
	fontSize       = 11.0
	lineHeight     = 6.0
	bulletIndent   = 5.0
	regularFont    = "DejaVuSansCondensed.ttf"
	boldFont       = "DejaVuSansCondensed-Bold.ttf"
	unicodeFamily  = "DejaVu"
	fallbackFamily = "Helvetica"
)

var (
	boldPattern     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	headingPattern  = regexp.MustCompile(`^(\d+\.)\s*\*\*(.*?)\*\*`)
	mapURLPattern   = regexp.MustCompile(`https?://[^\s)]+/map/1/staticimage[^\s)]*`)
	unsafeFileChars = strings.NewReplacer(`\`, "", "/", "", "*", "", "?", "", ":", "", `"`, "", "<", "", ">", "", "|", "")
)

// ErrInvalidName is returned by Open for names outside the plans directory.
var ErrInvalidName = errors.New("export: invalid plan name")

// Exporter writes plans under dir on fs.
type Exporter struct {
	mu      sync.Mutex
	fs      afero.Fs
	dir     string
	fonts   afero.Fs
	fontDir string
	images  *search.Client
}

type Option func(*Exporter)

// WithFonts loads the DejaVu TTF fonts from dir on fs. Without them the
// core Helvetica font is used and non Latin-1 characters are lost.
func WithFonts(fs afero.Fs, dir string) Option {
	return func(e *Exporter) {
		e.fonts = fs
		e.fontDir = dir
	}
}

// WithImageClient enables downloading static map images into the PDF.
func WithImageClient(c *search.Client) Option {
	return func(e *Exporter) { e.images = c }
}

func New(fs afero.Fs, dir string, opts ...Option) *Exporter {
	if dir == "" {
		dir = "plans"
	}
	e := &Exporter{fs: fs, dir: dir}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dir returns the output directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// Save renders plan and returns the path of the written file.
func (e *Exporter) Save(ctx context.Context, plan string) (string, error) {
	log := logger.FromContext(ctx)
	pdf, family := e.newDocument(ctx)
	r := &renderer{pdf: pdf, family: family, tr: func(s string) string { return s }}
	if family == fallbackFamily {
		r.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	maps := e.downloadMaps(ctx, plan, pdf)
	r.render(plan, maps)
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return "", fmt.Errorf("export: render pdf: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.fs.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create %s: %w", e.dir, err)
	}
	name, err := e.uniqueName(ExtractTitle(plan))
	if err != nil {
		return "", err
	}
	path := filepath.Join(e.dir, name)
	if err := afero.WriteFile(e.fs, path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("export: write %s: %w", path, err)
	}
	log.Info("Travel plan saved as PDF", "path", path, "maps", len(maps))
	return path, nil
}

// Open returns a previously saved plan by file name.
func (e *Exporter) Open(name string) (afero.File, error) {
	if name == "" || name != filepath.Base(name) || !strings.HasSuffix(name, ".pdf") {
		return nil, ErrInvalidName
	}
	f, err := e.fs.Open(filepath.Join(e.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("export: %s: %w", name, os.ErrNotExist)
		}
		return nil, err
	}
	return f, nil
}

func (e *Exporter) newDocument(ctx context.Context) (*gofpdf.Fpdf, string) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	if e.fonts == nil {
		return pdf, fallbackFamily
	}
	regular, err := afero.ReadFile(e.fonts, filepath.Join(e.fontDir, regularFont))
	if err != nil {
		logger.FromContext(ctx).Warn("PDF font not found, using Helvetica", "dir", e.fontDir, "error", err)
		return pdf, fallbackFamily
	}
	bold, err := afero.ReadFile(e.fonts, filepath.Join(e.fontDir, boldFont))
	if err != nil {
		bold = regular
	}
	pdf.AddUTF8FontFromBytes(unicodeFamily, "", regular)
	pdf.AddUTF8FontFromBytes(unicodeFamily, "B", bold)
	if pdf.Err() {
		logger.FromContext(ctx).Warn("PDF font could not be loaded, using Helvetica", "error", pdf.Error())
		pdf = gofpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		return pdf, fallbackFamily
	}
	return pdf, unicodeFamily
}

// downloadMaps fetches every static map URL in plan and registers the
// images with pdf under their URL.
func (e *Exporter) downloadMaps(ctx context.Context, plan string, pdf *gofpdf.Fpdf) map[string]bool {
	found := make(map[string]bool)
	if e.images == nil {
		return found
	}
	for _, url := range mapURLPattern.FindAllString(plan, -1) {
		if _, done := found[url]; done {
			continue
		}
		body, err := e.images.Do(ctx, "map_image", search.Request{URL: url})
		if err != nil {
			logger.FromContext(ctx).Warn("Map image download failed", "error", err)
			found[url] = false
			continue
		}
		imageType := "PNG"
		if mimetype.Detect(body).Is("image/jpeg") {
			imageType = "JPG"
		}
		pdf.RegisterImageOptionsReader(url, gofpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(body))
		found[url] = !pdf.Err()
		if pdf.Err() {
			pdf.ClearError()
		}
	}
	return found
}

func (e *Exporter) uniqueName(base string) (string, error) {
	base = strings.TrimSuffix(base, ".pdf")
	for n := 1; ; n++ {
		name := fmt.Sprintf("%s_%d.pdf", base, n)
		exists, err := afero.Exists(e.fs, filepath.Join(e.dir, name))
		if err != nil {
			return "", err
		}
		if !exists {
			return name, nil
		}
	}
}

// ExtractTitle derives a file-safe title from the first **bold** run of
// text, or "travel_plan".
func ExtractTitle(text string) string {
	m := boldPattern.FindStringSubmatch(text)
	if m == nil {
		return defaultTitle
	}
	title := unsafeFileChars.Replace(strings.TrimSpace(m[1]))
	title = strings.ReplaceAll(title, " ", "_")
	if runes := []rune(title); len(runes) > maxTitleRunes {
		title = string(runes[:maxTitleRunes])
	}
	if title == "" {
		return defaultTitle
	}
	return title
}
