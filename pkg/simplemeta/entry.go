package simplemeta

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Entry is a generic content element backed by a field map. Element stores
// load entries from YAML fixtures or Postgres rows.
type Entry struct {
	EntryID uuid.UUID      `json:"id" yaml:"id"`
	URI     string         `json:"uri" yaml:"uri"`
	Site    string         `json:"site,omitempty" yaml:"site,omitempty"`
	Section string         `json:"section,omitempty" yaml:"section,omitempty"`
	Type    string         `json:"type,omitempty" yaml:"type,omitempty"`
	Title   string         `json:"title" yaml:"title"`
	Fields  map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// ID implements Element.
func (e *Entry) ID() uuid.UUID {
	return e.EntryID
}

// Lookup implements Scope. Built-in attributes shadow fields of the same name.
func (e *Entry) Lookup(handle string) (any, bool) {
	switch handle {
	case "id":
		return e.EntryID.String(), true
	case "uri":
		return e.URI, true
	case "title":
		return e.Title, true
	case "section":
		return e.Section, true
	case "type":
		return e.Type, true
	case "site":
		return e.Site, true
	}
	v, ok := e.Fields[handle]
	return v, ok
}

// ProfileHandles returns "section:type" then "section".
func (e *Entry) ProfileHandles() []string {
	var handles []string
	if e.Section != "" && e.Type != "" {
		handles = append(handles, e.Section+":"+e.Type)
	}
	if e.Section != "" {
		handles = append(handles, e.Section)
	}
	return handles
}

// TemplateData exposes the entry to template engines as a plain map.
func (e *Entry) TemplateData() map[string]any {
	data := make(map[string]any, len(e.Fields)+6)
	for k, v := range e.Fields {
		data[k] = v
	}
	data["id"] = e.EntryID.String()
	data["uri"] = e.URI
	data["title"] = e.Title
	data["section"] = e.Section
	data["type"] = e.Type
	data["site"] = e.Site
	return data
}

// UnmarshalYAML decodes an entry. Field values understand the !markdown,
// !html and !image tags, and mappings with a url key become images.
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		ID      string               `yaml:"id"`
		URI     string               `yaml:"uri"`
		Site    string               `yaml:"site"`
		Section string               `yaml:"section"`
		Type    string               `yaml:"type"`
		Title   string               `yaml:"title"`
		Fields  map[string]yaml.Node `yaml:"fields"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	*e = Entry{
		URI:     raw.URI,
		Site:    raw.Site,
		Section: raw.Section,
		Type:    raw.Type,
		Title:   raw.Title,
	}
	if raw.ID != "" {
		id, err := uuid.Parse(raw.ID)
		if err != nil {
			return fmt.Errorf("line %d: invalid entry id %q: %w", node.Line, raw.ID, err)
		}
		e.EntryID = id
	}
	if len(raw.Fields) > 0 {
		e.Fields = make(map[string]any, len(raw.Fields))
		for handle, n := range raw.Fields {
			n := n
			v, err := decodeFieldNode(&n)
			if err != nil {
				return fmt.Errorf("field %s: %w", handle, err)
			}
			e.Fields[handle] = v
		}
	}
	return nil
}

func decodeFieldNode(node *yaml.Node) (any, error) {
	switch node.Tag {
	case "!markdown":
		return Markdown(node.Value), nil
	case "!html":
		return RichText(node.Value), nil
	case "!image":
		var img Image
		if node.Kind == yaml.ScalarNode {
			img.URL = node.Value
		} else if err := node.Decode(&img); err != nil {
			return nil, err
		}
		return &img, nil
	}

	switch node.Kind {
	case yaml.SequenceNode:
		items := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			v, err := decodeFieldNode(child)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return NormalizeFieldValue(items), nil
	case yaml.MappingNode:
		m := make(map[string]any, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			v, err := decodeFieldNode(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			m[node.Content[i].Value] = v
		}
		return NormalizeFieldValue(m), nil
	case yaml.AliasNode:
		return decodeFieldNode(node.Alias)
	}

	var v any
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// NormalizeFieldValue converts generic decoded values (JSON or YAML) into
// the field value types coercion understands: {"url": ...} becomes *Image,
// {"markdown": ...} Markdown, {"html": ...} RichText, homogeneous lists
// []string or []*Image.
func NormalizeFieldValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		if len(v) == 1 {
			if s, ok := v["markdown"].(string); ok {
				return Markdown(s)
			}
			if s, ok := v["html"].(string); ok {
				return RichText(s)
			}
		}
		if img, ok := imageFromMap(v); ok {
			return img
		}
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = NormalizeFieldValue(item)
		}
		return out
	case []any:
		items := make([]any, len(v))
		allStrings, allImages := len(v) > 0, len(v) > 0
		for i, item := range v {
			items[i] = NormalizeFieldValue(item)
			if _, ok := items[i].(string); !ok {
				allStrings = false
			}
			if _, ok := items[i].(*Image); !ok {
				allImages = false
			}
		}
		switch {
		case allStrings:
			out := make([]string, len(items))
			for i, item := range items {
				out[i] = item.(string)
			}
			return out
		case allImages:
			out := make([]*Image, len(items))
			for i, item := range items {
				out[i] = item.(*Image)
			}
			return out
		}
		return items
	}
	return v
}

// EncodeFieldValue is the inverse of NormalizeFieldValue for JSON storage.
func EncodeFieldValue(v any) any {
	switch v := v.(type) {
	case Markdown:
		return map[string]any{"markdown": string(v)}
	case RichText:
		return map[string]any{"html": string(v)}
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = EncodeFieldValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = EncodeFieldValue(item)
		}
		return out
	}
	return v
}

func imageFromMap(m map[string]any) (*Image, bool) {
	url, ok := m["url"].(string)
	if !ok || url == "" {
		return nil, false
	}
	img := &Image{URL: url}
	if s, ok := m["title"].(string); ok {
		img.Title = s
	}
	img.Width = toInt(m["width"])
	img.Height = toInt(m["height"])
	if fp, ok := m["focalPoint"].(map[string]any); ok {
		img.FocalPoint = &FocalPoint{X: toFloat(fp["x"]), Y: toFloat(fp["y"])}
	}
	if fields, ok := m["fields"].(map[string]any); ok {
		img.Fields = fields
	}
	return img, true
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}

// NormalizeURI reduces a request path to the form entries store: no query,
// no fragment, no surrounding slashes. The home page is "".
func NormalizeURI(uri string) string {
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	return strings.Trim(uri, "/")
}
