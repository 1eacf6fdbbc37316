// Package metatags renders a resolved meta bag as HTML head tags.
//
// Tag templates are keyed by meta key, by comma separated /regex/ patterns or
// by "default". An exact key beats a pattern and a pattern beats the default.
// Templates see {{ key }} and {{ value }}, both escaped for use inside
// attributes. URL-like values keep their ampersands.
package metatags

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tendant/simple-meta/pkg/simplemeta"
	"github.com/tendant/simple-meta/pkg/simplemeta/render"
)

// DefaultKey is the template key used when nothing else matches
const DefaultKey = "default"

type pattern struct {
	re  *regexp.Regexp
	tpl string
}

// Renderer turns bags into tag markup
type Renderer struct {
	exact    map[string]string
	patterns []pattern
	fallback string
	renderer simplemeta.Renderer
}

// New compiles a tag template map. A nil renderer uses pongo2.
func New(templates simplemeta.OrderedMap[string], renderer simplemeta.Renderer) (*Renderer, error) {
	if renderer == nil {
		renderer = render.New()
	}
	r := &Renderer{
		exact:    make(map[string]string),
		renderer: renderer,
	}

	var err error
	templates.Range(func(key string, tpl string) bool {
		if key == DefaultKey {
			r.fallback = tpl
			return true
		}
		if !strings.HasPrefix(key, "/") {
			r.exact[key] = tpl
			return true
		}
		for _, part := range strings.Split(key, ",") {
			var re *regexp.Regexp
			re, err = compilePattern(strings.TrimSpace(part))
			if err != nil {
				return false
			}
			r.patterns = append(r.patterns, pattern{re: re, tpl: tpl})
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// compilePattern compiles "/expr/" or "/expr/i"
func compilePattern(p string) (*regexp.Regexp, error) {
	end := strings.LastIndex(p, "/")
	if !strings.HasPrefix(p, "/") || end <= 0 {
		return nil, fmt.Errorf("tag template pattern %q must look like /expr/", p)
	}
	expr, flags := p[1:end], p[end+1:]
	switch flags {
	case "":
	case "i":
		expr = "(?i)" + expr
	default:
		return nil, fmt.Errorf("tag template pattern %q: unsupported flags %q", p, flags)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("tag template pattern %q: %w", p, err)
	}
	return re, nil
}

// Template returns the template used for key
func (r *Renderer) Template(key string) (string, bool) {
	if tpl, ok := r.exact[key]; ok {
		return tpl, true
	}
	for _, p := range r.patterns {
		if p.re.MatchString(key) {
			return p.tpl, true
		}
	}
	return r.fallback, r.fallback != ""
}

// Render renders every non-empty value of bag in bag order, one tag per line.
// List values render one tag per item.
func (r *Renderer) Render(ctx context.Context, bag *simplemeta.Bag) (string, error) {
	var tags []string
	var err error
	bag.Range(func(key string, v simplemeta.Value) bool {
		if v.IsEmpty() {
			return true
		}
		tpl, ok := r.Template(key)
		if !ok {
			return true
		}

		values := []string{v.String()}
		if v.Kind() == simplemeta.KindList {
			values = v.Items()
		}
		for _, value := range values {
			if value == "" {
				continue
			}
			var tag string
			data := simplemeta.Context{"key": simplemeta.EscapeHTML(key), "value": attrValue(value)}
			tag, err = r.renderer.Render(ctx, tpl, data)
			if err != nil {
				err = &simplemeta.RenderError{Template: tpl, Err: fmt.Errorf("render tag %s: %w", key, err)}
				return false
			}
			tags = append(tags, tag)
		}
		return true
	})
	if err != nil {
		return "", err
	}
	return strings.Join(tags, "\n"), nil
}

var urlEscaper = strings.NewReplacer(`"`, "&quot;", "'", "&#039;", "<", "&lt;", ">", "&gt;")

// attrValue makes a bag value safe inside a quoted attribute. The resolver
// passes URL-like values through raw; everything else is already escaped and
// EscapeHTML leaves it unchanged.
func attrValue(v string) string {
	if strings.HasPrefix(v, "http") || strings.HasPrefix(v, "//") {
		return urlEscaper.Replace(v)
	}
	return simplemeta.EscapeHTML(v)
}

// Render is a shortcut for New followed by Render
func Render(ctx context.Context, bag *simplemeta.Bag, templates simplemeta.OrderedMap[string], renderer simplemeta.Renderer) (string, error) {
	r, err := New(templates, renderer)
	if err != nil {
		return "", err
	}
	return r.Render(ctx, bag)
}
