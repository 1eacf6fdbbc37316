package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tendant/simple-meta/pkg/simplemeta"
	"gopkg.in/yaml.v3"
)

// LoadSettings reads resolver settings from a YAML file.
func LoadSettings(path string) (simplemeta.Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return simplemeta.Settings{}, fmt.Errorf("open settings: %w", err)
	}
	defer f.Close()

	settings, err := ParseSettings(f)
	if err != nil {
		return simplemeta.Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return settings, nil
}

// ParseSettings decodes YAML settings on top of the library defaults. Every
// top-level key present in the document replaces the default value whole, so
// a file declaring imageTransformMap drops the default transforms.
func ParseSettings(r io.Reader) (simplemeta.Settings, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return simplemeta.DefaultSettings(), nil
		}
		return simplemeta.Settings{}, fmt.Errorf("%w: %v", simplemeta.ErrInvalidSettings, err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return simplemeta.DefaultSettings(), nil
	}
	if root.Kind != yaml.MappingNode {
		return simplemeta.Settings{}, fmt.Errorf("%w: line %d: settings must be a mapping", simplemeta.ErrInvalidSettings, root.Line)
	}

	patch := make(map[string]any, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		patch[root.Content[i].Value] = root.Content[i+1]
	}
	return simplemeta.DefaultSettings().WithPatch(patch)
}
