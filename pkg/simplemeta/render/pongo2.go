// Package render renders meta templates with pongo2, a Django/Twig style
// template language, so settings written for Twig keep working:
// "{{ element.title }} - {{ siteName }}".
package render

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/tendant/simple-meta/pkg/simplemeta"
)

// DefaultCacheSize bounds the number of parsed templates kept per renderer.
const DefaultCacheSize = 512

// Renderer implements simplemeta.Renderer on pongo2.
type Renderer struct {
	mu        sync.RWMutex
	templates map[string]*pongo2.Template
	cacheSize int
}

// Option configures a Renderer
type Option func(*Renderer)

// WithCacheSize bounds the parsed template cache. Zero disables caching.
func WithCacheSize(n int) Option {
	return func(r *Renderer) {
		r.cacheSize = n
	}
}

// New creates a pongo2 renderer
func New(opts ...Option) *Renderer {
	r := &Renderer{
		templates: make(map[string]*pongo2.Template),
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render executes tpl against data. Output is not HTML escaped; the resolver
// filters values itself.
func (r *Renderer) Render(ctx context.Context, tpl string, data simplemeta.Context) (string, error) {
	if !strings.Contains(tpl, "{{") && !strings.Contains(tpl, "{%") {
		return tpl, nil
	}

	t, err := r.template(tpl)
	if err != nil {
		return "", err
	}

	out, err := t.Execute(templateContext(data))
	if err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return out, nil
}

// Len reports the number of cached templates
func (r *Renderer) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

func (r *Renderer) template(tpl string) (*pongo2.Template, error) {
	r.mu.RLock()
	t, ok := r.templates[tpl]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := pongo2.FromString("{% autoescape off %}" + tpl + "{% endautoescape %}")
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	if r.cacheSize > 0 {
		r.mu.Lock()
		if len(r.templates) >= r.cacheSize {
			// full: reset instead of evicting
			r.templates = make(map[string]*pongo2.Template)
		}
		r.templates[tpl] = t
		r.mu.Unlock()
	}
	return t, nil
}

// templateContext converts resolver data into plain maps pongo2 can walk.
// Keys that are not identifiers are dropped since pongo2 rejects them.
func templateContext(data simplemeta.Context) pongo2.Context {
	out := make(pongo2.Context, len(data))
	for k, v := range data {
		if !isIdentifier(k) {
			continue
		}
		out[k] = templateValue(v)
	}
	return out
}

type templateDataer interface {
	TemplateData() map[string]any
}

func templateValue(v any) any {
	switch v := v.(type) {
	case templateDataer:
		return templateValue(v.TemplateData())
	case *simplemeta.Image:
		if v == nil {
			return nil
		}
		return imageData(v)
	case []*simplemeta.Image:
		items := make([]any, len(v))
		for i, img := range v {
			items[i] = templateValue(img)
		}
		return items
	case simplemeta.RichText:
		return string(v)
	case simplemeta.Markdown:
		return string(v)
	case simplemeta.Context:
		return templateValue(map[string]any(v))
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = templateValue(item)
		}
		return out
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = templateValue(item)
		}
		return items
	}
	return v
}

func imageData(img *simplemeta.Image) map[string]any {
	data := make(map[string]any, len(img.Fields)+5)
	for k, v := range img.Fields {
		data[k] = templateValue(v)
	}
	data["url"] = img.URL
	data["title"] = img.Title
	data["width"] = img.Width
	data["height"] = img.Height
	if img.FocalPoint != nil {
		data["focalPoint"] = img.FocalPoint.Position()
	}
	return data
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c != '_' && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
