package simplemeta

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// AdditionalValue is the configured value of an additional meta key. It is
// one of StaticValue, ListValue or Recipe.
type AdditionalValue interface {
	additionalValue()
}

// StaticValue is a template string rendered against the context.
type StaticValue string

// ListValue is a list of template strings; each non-empty render is appended.
type ListValue []string

// Recipe computes the value from the context. It returns a StaticValue or a
// ListValue; anything else is treated as empty.
type Recipe func(data Context) AdditionalValue

func (StaticValue) additionalValue() {}
func (ListValue) additionalValue()   {}
func (Recipe) additionalValue()      {}

// AdditionalMeta is the ordered additional meta configuration.
type AdditionalMeta struct {
	OrderedMap[AdditionalValue]
}

// AdditionalMetaOf builds additional meta from alternating key/value pairs.
func AdditionalMetaOf(pairs ...any) AdditionalMeta {
	return AdditionalMeta{OrderedMapOf[AdditionalValue](pairs...)}
}

// Clone copies the additional meta configuration.
func (a AdditionalMeta) Clone() AdditionalMeta {
	return AdditionalMeta{a.OrderedMap.Clone()}
}

// UnmarshalYAML decodes scalars as StaticValue and sequences as ListValue.
func (a *AdditionalMeta) UnmarshalYAML(node *yaml.Node) error {
	a.OrderedMap = OrderedMap[AdditionalValue]{}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: additionalMeta must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		switch val.Kind {
		case yaml.ScalarNode:
			a.Set(key, StaticValue(val.Value))
		case yaml.SequenceNode:
			var items []string
			if err := val.Decode(&items); err != nil {
				return fmt.Errorf("additionalMeta %q: %w", key, err)
			}
			a.Set(key, ListValue(items))
		default:
			return fmt.Errorf("line %d: additionalMeta %q must be a string or a list", val.Line, key)
		}
	}
	return nil
}

// MarshalYAML encodes static and list values; recipes are skipped.
func (a AdditionalMeta) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	var err error
	a.Range(func(k string, v AdditionalValue) bool {
		var val yaml.Node
		switch v := v.(type) {
		case StaticValue:
			err = val.Encode(string(v))
		case ListValue:
			err = val.Encode([]string(v))
		default:
			return true
		}
		if err != nil {
			return false
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, &val)
		return true
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}
