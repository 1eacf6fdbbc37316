package transform

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tendant/simple-meta/pkg/simplemeta"
)

// DelegatedStrategy delegates transforms to a backend chosen by the host of
// the image URL. Relative URLs and unknown hosts use the fallback.
type DelegatedStrategy struct {
	Backends map[string]simplemeta.Transformer
	Fallback simplemeta.Transformer
}

// NewDelegatedStrategy creates a new host-delegated transform strategy
func NewDelegatedStrategy(backends map[string]simplemeta.Transformer, fallback simplemeta.Transformer) *DelegatedStrategy {
	normalized := make(map[string]simplemeta.Transformer, len(backends))
	for host, backend := range backends {
		normalized[strings.ToLower(host)] = backend
	}
	return &DelegatedStrategy{
		Backends: normalized,
		Fallback: fallback,
	}
}

// Transform delegates to the backend registered for the image host
func (s *DelegatedStrategy) Transform(ctx context.Context, img *simplemeta.Image, opts simplemeta.TransformOptions) (string, error) {
	if img == nil || img.URL == "" {
		return "", ErrNoURL
	}

	u, err := url.Parse(img.URL)
	if err != nil {
		return "", fmt.Errorf("parse image url: %w", err)
	}

	if backend, exists := s.Backends[strings.ToLower(u.Hostname())]; exists {
		return backend.Transform(ctx, img, opts)
	}
	if s.Fallback == nil {
		return "", fmt.Errorf("no transform backend for host %q", u.Hostname())
	}
	return s.Fallback.Transform(ctx, img, opts)
}
