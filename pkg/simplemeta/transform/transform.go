// Package transform turns image references into transformed image URLs.
// Strategies mirror the image services sites put in front of their assets:
// query-string CDNs (imgix style), path-encoded transforms (Craft native
// style) and per-host delegation.
package transform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tendant/simple-meta/pkg/simplemeta"
)

// Type represents the type of transform strategy
type Type string

const (
	// Passthrough returns the source URL unchanged
	TypePassthrough Type = "passthrough"

	// Query appends transform parameters to a CDN URL
	TypeQuery Type = "query"

	// Path encodes the transform in a path segment next to the file
	TypePath Type = "path"

	// Delegated picks a backend by image host
	TypeDelegated Type = "delegated"
)

// ErrNoURL is returned when an image carries no source URL
var ErrNoURL = errors.New("image has no url")

// Config holds configuration for transformer creation
type Config struct {
	Type       Type
	CDNBaseURL string // For query strategy; replaces the source origin when set
	SignKey    string // For query strategy; optional imgix style signature key

	Backends map[string]simplemeta.Transformer // For delegated strategy, keyed by host
	Fallback simplemeta.Transformer            // For delegated strategy
}

// New creates a transformer based on the configuration
func New(config Config) (simplemeta.Transformer, error) {
	switch Type(strings.ToLower(string(config.Type))) {
	case TypePassthrough, "":
		return simplemeta.NewPassthroughTransformer(), nil

	case TypeQuery:
		return NewQueryStrategy(config.CDNBaseURL, config.SignKey), nil

	case TypePath:
		return NewPathStrategy(), nil

	case TypeDelegated:
		if len(config.Backends) == 0 {
			return nil, fmt.Errorf("backends are required for delegated strategy")
		}
		return NewDelegatedStrategy(config.Backends, config.Fallback), nil

	default:
		return nil, fmt.Errorf("unknown transform type: %s", config.Type)
	}
}
