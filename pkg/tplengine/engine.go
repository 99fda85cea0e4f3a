package tplengine

import (
	"bytes"
	"fmt"
	"maps"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// TemplateEngine holds named prompt templates parsed once at startup.
// Rendering is safe for concurrent use.
type TemplateEngine struct {
	mu           sync.RWMutex
	templates    map[string]*template.Template
	globalValues map[string]any
}

// NewEngine creates an empty engine.
func NewEngine() *TemplateEngine {
	return &TemplateEngine{
		templates:    make(map[string]*template.Template),
		globalValues: make(map[string]any),
	}
}

func newTemplate(name string) *template.Template {
	return template.New(name).Option("missingkey=error").Funcs(sprig.TxtFuncMap())
}

// AddTemplate parses and registers a template under name.
func (e *TemplateEngine) AddTemplate(name, templateStr string) error {
	tmpl, err := newTemplate(name).Parse(templateStr)
	if err != nil {
		return fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	e.mu.Lock()
	e.templates[name] = tmpl
	e.mu.Unlock()
	return nil
}

// MustAddTemplate is AddTemplate for package-level prompt tables.
func (e *TemplateEngine) MustAddTemplate(name, templateStr string) *TemplateEngine {
	if err := e.AddTemplate(name, templateStr); err != nil {
		panic(err)
	}
	return e
}

// HasTemplate reports whether s contains template actions.
func HasTemplate(s string) bool {
	return strings.Contains(s, "{{")
}

// AddGlobalValue exposes value to every render under key.
func (e *TemplateEngine) AddGlobalValue(key string, value any) {
	e.mu.Lock()
	e.globalValues[key] = value
	e.mu.Unlock()
}

// Render renders a registered template.
func (e *TemplateEngine) Render(name string, data map[string]any) (string, error) {
	e.mu.RLock()
	tmpl, ok := e.templates[name]
	e.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}
	return e.execute(tmpl, data)
}

// RenderString renders an inline template. Strings without actions are
// returned unchanged.
func (e *TemplateEngine) RenderString(templateStr string, data map[string]any) (string, error) {
	if !HasTemplate(templateStr) {
		return templateStr, nil
	}
	tmpl, err := newTemplate("inline").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}
	return e.execute(tmpl, data)
}

func (e *TemplateEngine) execute(tmpl *template.Template, data map[string]any) (string, error) {
	ctx := make(map[string]any, len(data)+len(e.globalValues))
	e.mu.RLock()
	maps.Copy(ctx, e.globalValues)
	e.mu.RUnlock()
	maps.Copy(ctx, data)
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}
	return buf.String(), nil
}
