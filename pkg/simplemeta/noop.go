package simplemeta

import (
	"context"
	"time"
)

// NoopRouter never matches an element
type NoopRouter struct{}

// NewNoopRouter creates a router that never matches
func NewNoopRouter() Router {
	return &NoopRouter{}
}

// MatchedElement always returns nil
func (n *NoopRouter) MatchedElement(ctx context.Context) (Element, error) {
	return nil, nil
}

// NoopCache is a no-operation implementation of Cache
// Every lookup is a miss and stores are discarded
type NoopCache struct{}

// NewNoopCache creates a new no-operation cache
func NewNoopCache() Cache {
	return &NoopCache{}
}

// Get always misses
func (n *NoopCache) Get(ctx context.Context, key string) (*Bag, bool, error) {
	return nil, false, nil
}

// Set does nothing and returns nil
func (n *NoopCache) Set(ctx context.Context, key string, bag *Bag, ttl time.Duration) error {
	return nil
}

// Delete does nothing and returns nil
func (n *NoopCache) Delete(ctx context.Context, key string) error {
	return nil
}

// LiteralRenderer returns templates unrendered
// Useful when no template engine is configured
type LiteralRenderer struct{}

// NewLiteralRenderer creates a renderer that returns its input
func NewLiteralRenderer() Renderer {
	return &LiteralRenderer{}
}

// Render returns tpl unchanged
func (n *LiteralRenderer) Render(ctx context.Context, tpl string, data Context) (string, error) {
	return tpl, nil
}

// PassthroughTransformer returns the original image URL, ignoring transform options
type PassthroughTransformer struct{}

// NewPassthroughTransformer creates a transformer that does not transform
func NewPassthroughTransformer() Transformer {
	return &PassthroughTransformer{}
}

// Transform returns the image URL
func (n *PassthroughTransformer) Transform(ctx context.Context, img *Image, opts TransformOptions) (string, error) {
	if img == nil {
		return "", nil
	}
	return img.URL, nil
}

// StaticSiteProvider always reports the same site
type StaticSiteProvider struct {
	Site *Site
}

// NewStaticSiteProvider creates a site provider for a single-site install
func NewStaticSiteProvider(site Site) SiteProvider {
	return &StaticSiteProvider{Site: &site}
}

// CurrentSite returns the configured site or ErrSiteNotFound
func (s *StaticSiteProvider) CurrentSite(ctx context.Context) (*Site, error) {
	if s.Site == nil {
		return nil, ErrSiteNotFound
	}
	site := *s.Site
	return &site, nil
}
