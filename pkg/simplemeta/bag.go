package simplemeta

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Bag is an insertion-ordered mapping from meta key to Value.
type Bag struct {
	keys   []string
	values map[string]Value
}

// NewBag creates an empty bag.
func NewBag() *Bag {
	return &Bag{values: make(map[string]Value)}
}

// BagOf builds a bag from alternating key/value pairs; values may be Value,
// string, []string or *Image.
func BagOf(pairs ...any) *Bag {
	b := NewBag()
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			continue
		}
		switch v := pairs[i+1].(type) {
		case Value:
			b.Set(key, v)
		case string:
			b.Set(key, String(v))
		case []string:
			b.Set(key, List(v...))
		case *Image:
			b.Set(key, ImageValue(v))
		case nil:
			b.Set(key, Null)
		default:
			b.Set(key, String(fmt.Sprint(v)))
		}
	}
	return b
}

// Get returns the value stored under key.
func (b *Bag) Get(key string) (Value, bool) {
	if b == nil {
		return Null, false
	}
	v, ok := b.values[key]
	return v, ok
}

// Value returns the value stored under key, or Null.
func (b *Bag) Value(key string) Value {
	v, _ := b.Get(key)
	return v
}

// Has reports whether key holds a non-null value.
func (b *Bag) Has(key string) bool {
	v, ok := b.Get(key)
	return ok && !v.IsNull()
}

// Set stores v under key, keeping the original position of existing keys.
func (b *Bag) Set(key string, v Value) {
	if b.values == nil {
		b.values = make(map[string]Value)
	}
	if _, exists := b.values[key]; !exists {
		b.keys = append(b.keys, key)
	}
	b.values[key] = v
}

// Delete removes key.
func (b *Bag) Delete(key string) {
	if b == nil {
		return
	}
	if _, exists := b.values[key]; !exists {
		return
	}
	delete(b.values, key)
	for i, k := range b.keys {
		if k == key {
			b.keys = append(b.keys[:i], b.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (b *Bag) Keys() []string {
	if b == nil {
		return nil
	}
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.keys)
}

// Range calls fn for each entry in order until fn returns false.
func (b *Bag) Range(fn func(key string, v Value) bool) {
	if b == nil {
		return
	}
	for _, k := range b.Keys() {
		if !fn(k, b.values[k]) {
			return
		}
	}
}

// Clone returns a copy of the bag. Images are shared.
func (b *Bag) Clone() *Bag {
	out := NewBag()
	b.Range(func(k string, v Value) bool {
		if v.kind == KindList {
			v = List(v.list...)
		}
		out.Set(k, v)
		return true
	})
	return out
}

// Map returns the bag as a plain map of nil, string, []string or *Image values.
func (b *Bag) Map() map[string]any {
	out := make(map[string]any, b.Len())
	b.Range(func(k string, v Value) bool {
		out[k] = v.Interface()
		return true
	})
	return out
}

// MarshalJSON encodes the bag as a JSON object preserving key order.
func (b *Bag) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range b.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := b.values[k].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the document key order.
func (b *Bag) UnmarshalJSON(data []byte) error {
	b.keys = nil
	b.values = make(map[string]Value)

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("meta bag must be a JSON object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		b.Set(key, v)
	}
	_, err = dec.Token()
	return err
}
