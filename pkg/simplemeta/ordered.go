package simplemeta

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// OrderedMap is a string-keyed map that remembers insertion order. Settings
// use it wherever the configured order shows up in the output.
type OrderedMap[V any] struct {
	keys   []string
	values map[string]V
}

// Set stores v under key.
func (m *OrderedMap[V]) Set(key string, v V) {
	if m.values == nil {
		m.values = make(map[string]V)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value stored under key.
func (m OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m OrderedMap[V]) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m OrderedMap[V]) Len() int { return len(m.keys) }

// Range calls fn for each entry in order until fn returns false.
func (m OrderedMap[V]) Range(fn func(key string, v V) bool) {
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// Clone copies the key order and the map. Values are copied by assignment.
func (m OrderedMap[V]) Clone() OrderedMap[V] {
	var out OrderedMap[V]
	m.Range(func(k string, v V) bool {
		out.Set(k, v)
		return true
	})
	return out
}

// Expand splits comma separated keys ("title,og:title") into one entry per
// key. Later entries win for duplicate keys.
func (m OrderedMap[V]) Expand() OrderedMap[V] {
	var out OrderedMap[V]
	m.Range(func(k string, v V) bool {
		for _, part := range splitKeys(k) {
			out.Set(part, v)
		}
		return true
	})
	return out
}

// UnmarshalYAML decodes a mapping node preserving document order.
func (m *OrderedMap[V]) UnmarshalYAML(node *yaml.Node) error {
	m.keys = nil
	m.values = nil
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var v V
		if err := node.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("key %q: %w", node.Content[i].Value, err)
		}
		m.Set(node.Content[i].Value, v)
	}
	return nil
}

// MarshalYAML encodes the map as an ordered mapping node.
func (m OrderedMap[V]) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range m.keys {
		var val yaml.Node
		if err := val.Encode(m.values[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, &val)
	}
	return node, nil
}

// OrderedMapOf builds an ordered map from alternating key/value pairs.
func OrderedMapOf[V any](pairs ...any) OrderedMap[V] {
	var m OrderedMap[V]
	for i := 0; i+1 < len(pairs); i += 2 {
		k, ok := pairs[i].(string)
		if !ok {
			continue
		}
		v, ok := pairs[i+1].(V)
		if !ok {
			continue
		}
		m.Set(k, v)
	}
	return m
}

// Candidates is an ordered list of field handles; the first with a value wins.
// YAML accepts a single handle or a sequence.
type Candidates []string

func (c *Candidates) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" || node.Value == "" {
			*c = nil
			return nil
		}
		*c = Candidates{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*c = list
		return nil
	}
	return fmt.Errorf("line %d: expected a field handle or a list of handles", node.Line)
}

func splitKeys(key string) []string {
	parts := strings.Split(key, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// expandKeys flattens comma separated keys. A key listed on its own wins over
// the same key inside a group.
func expandKeys[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		if parts := splitKeys(k); len(parts) > 1 {
			for _, part := range parts {
				out[part] = v
			}
		}
	}
	for k, v := range in {
		if parts := splitKeys(k); len(parts) == 1 {
			out[parts[0]] = v
		}
	}
	return out
}
