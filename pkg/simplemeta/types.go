package simplemeta

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// FieldType selects how a raw field value is coerced for a meta key.
type FieldType string

const (
	FieldTypeText  FieldType = "text"
	FieldTypeImage FieldType = "image"
	FieldTypeList  FieldType = "list"
)

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeImage, FieldTypeList:
		return true
	}
	return false
}

// Scope exposes named values by handle. Contexts, elements and images are scopes.
type Scope interface {
	Lookup(handle string) (any, bool)
}

// Element is a content item (entry, category, asset) being rendered.
type Element interface {
	Scope

	// ID identifies the element; it keys the meta cache.
	ID() uuid.UUID

	// ProfileHandles lists the handles used to look the element up in the
	// profile map, most specific first (e.g. "blog:article", "blog").
	ProfileHandles() []string
}

// Context is the caller supplied data a resolution runs against.
type Context map[string]any

// Lookup implements Scope.
func (c Context) Lookup(handle string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c[handle]
	return v, ok
}

// Clone returns a shallow copy of the context.
func (c Context) Clone() Context {
	out := make(Context, len(c)+1)
	for k, v := range c {
		out[k] = v
	}
	return out
}

// OverrideKey is the context key an Override may be stored under.
const OverrideKey = "seomate"

// Override carries per-call adjustments to a resolution.
type Override struct {
	// Config is shallow-merged into a clone of the resolver settings.
	Config map[string]any

	// Element replaces the routed element.
	Element Element

	// Profile forces a field profile.
	Profile string

	// Meta values replace whatever the element and additional meta produced.
	Meta *Bag
}

// RichText is an HTML field value. Text coercion strips its markup.
type RichText string

// Markdown is a markdown field value. Text coercion renders and strips it.
type Markdown string

// FocalPoint is the relative point of interest of an image, 0..1 on each axis.
type FocalPoint struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Position formats the focal point as a CSS-like position ("50% 25%").
func (f FocalPoint) Position() string {
	x := strconv.FormatFloat(f.X*100, 'f', -1, 64)
	y := strconv.FormatFloat(f.Y*100, 'f', -1, 64)
	return x + "% " + y + "%"
}

// Image is an asset reference.
type Image struct {
	URL        string         `json:"url" yaml:"url"`
	Title      string         `json:"title,omitempty" yaml:"title,omitempty"`
	Width      int            `json:"width,omitempty" yaml:"width,omitempty"`
	Height     int            `json:"height,omitempty" yaml:"height,omitempty"`
	FocalPoint *FocalPoint    `json:"focalPoint,omitempty" yaml:"focalPoint,omitempty"`
	Fields     map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Lookup implements Scope so dotted handles can reach into image fields.
func (i *Image) Lookup(handle string) (any, bool) {
	if i == nil {
		return nil, false
	}
	switch handle {
	case "url":
		return i.URL, true
	case "title":
		return i.Title, true
	case "width":
		return i.Width, true
	case "height":
		return i.Height, true
	}
	v, ok := i.Fields[handle]
	return v, ok
}

// String returns the image URL.
func (i *Image) String() string {
	if i == nil {
		return ""
	}
	return i.URL
}

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindList
	KindImage
)

// Value is a meta value: null, a string, a list of strings, or an image reference.
type Value struct {
	kind  ValueKind
	str   string
	list  []string
	image *Image
}

// Null is the absent value.
var Null = Value{}

// String returns a string value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// List returns a list value holding a copy of items.
func List(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// ImageValue wraps an image reference. A nil image yields Null.
func ImageValue(img *Image) Value {
	if img == nil {
		return Null
	}
	return Value{kind: KindImage, image: img}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// IsEmpty reports null, the empty string and the empty list.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindString:
		return v.str == ""
	case KindList:
		return len(v.list) == 0
	case KindImage:
		return v.image == nil
	}
	return true
}

// Text returns the string of a string value and "" otherwise.
func (v Value) Text() string {
	if v.kind == KindString {
		return v.str
	}
	return ""
}

// Items returns a copy of the list of a list value.
func (v Value) Items() []string {
	if v.kind != KindList {
		return nil
	}
	cp := make([]string, len(v.list))
	copy(cp, v.list)
	return cp
}

// Image returns the image of an image value.
func (v Value) Image() *Image {
	if v.kind != KindImage {
		return nil
	}
	return v.image
}

// String renders the value for display: lists are comma joined, images yield their URL.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindList:
		return strings.Join(v.list, ", ")
	case KindImage:
		return v.image.String()
	}
	return ""
}

// Interface returns the plain Go form of the value (nil, string, []string or *Image).
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindList:
		return v.Items()
	case KindImage:
		return v.image
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindImage:
		return json.Marshal(v.image)
	}
	return []byte("null"), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*v = Null
		return nil
	}
	switch data[0] {
	case 'n':
		*v = Null
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case '[':
		var raw []any
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, item := range raw {
			if item == nil {
				continue
			}
			items = append(items, fmt.Sprint(item))
		}
		*v = Value{kind: KindList, list: items}
	case '{':
		var img Image
		if err := json.Unmarshal(data, &img); err != nil {
			return err
		}
		*v = ImageValue(&img)
	default:
		*v = String(string(data))
	}
	return nil
}
