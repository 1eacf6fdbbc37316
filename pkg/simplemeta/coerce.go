package simplemeta

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	stripPolicy = bluemonday.StrictPolicy()
	markdown    = goldmark.New()
)

// coerce converts a raw field value into a meta value of type t. Absent and
// empty values yield Null so cascades can move on to the next candidate.
func coerce(raw any, t FieldType) Value {
	switch t {
	case FieldTypeImage:
		if img, ok := imageOf(raw); ok {
			return ImageValue(img)
		}
	case FieldTypeList:
		if items, ok := listOf(raw); ok {
			return List(items...)
		}
	default:
		if s, ok := textOf(raw); ok {
			return String(s)
		}
	}
	return Null
}

func textOf(raw any) (string, bool) {
	var s string
	switch v := raw.(type) {
	case nil:
		return "", false
	case string:
		s = v
		if strings.ContainsAny(s, "<>&") {
			s = stripTags(s)
		}
	case RichText:
		s = stripTags(string(v))
	case Markdown:
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(v), &buf); err != nil {
			s = string(v)
		} else {
			s = stripTags(buf.String())
		}
	case Value:
		if v.Kind() == KindImage {
			return textOf(v.Image())
		}
		s = v.String()
	case *Image:
		if v == nil {
			return "", false
		}
		s = v.Title
	case []string:
		s = joinNonEmpty(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if t, ok := textOf(item); ok {
				parts = append(parts, t)
			}
		}
		s = strings.Join(parts, ", ")
	case bool:
		if !v {
			return "", false
		}
		s = "1"
	case Element:
		if title, ok := v.Lookup("title"); ok {
			return textOf(title)
		}
		return "", false
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func imageOf(raw any) (*Image, bool) {
	switch v := raw.(type) {
	case *Image:
		return v, v != nil && v.URL != ""
	case Image:
		return &v, v.URL != ""
	case Value:
		return imageOf(v.Image())
	case []*Image:
		for _, img := range v {
			if img != nil && img.URL != "" {
				return img, true
			}
		}
	case []any:
		for _, item := range v {
			if img, ok := imageOf(item); ok {
				return img, true
			}
		}
	case map[string]any:
		return imageFromMap(v)
	case string:
		if v = strings.TrimSpace(v); v != "" {
			return &Image{URL: v}, true
		}
	}
	return nil, false
}

func listOf(raw any) ([]string, bool) {
	var items []string
	switch v := raw.(type) {
	case nil:
		return nil, false
	case []string:
		for _, item := range v {
			if t, ok := textOf(item); ok {
				items = append(items, t)
			}
		}
	case []any:
		for _, item := range v {
			if t, ok := textOf(item); ok {
				items = append(items, t)
			}
		}
	case []*Image:
		for _, img := range v {
			if img != nil && img.URL != "" {
				items = append(items, img.URL)
			}
		}
	case Value:
		if v.Kind() == KindList {
			items = v.Items()
		} else if t, ok := textOf(v); ok {
			items = []string{t}
		}
	default:
		if t, ok := textOf(v); ok {
			items = []string{t}
		}
	}
	return items, len(items) > 0
}

// stripTags reduces HTML to plain text with collapsed whitespace.
func stripTags(s string) string {
	s = strings.ReplaceAll(s, "<", " <")
	s = html.UnescapeString(stripPolicy.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

func joinNonEmpty(items []string) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			parts = append(parts, item)
		}
	}
	return strings.Join(parts, ", ")
}
