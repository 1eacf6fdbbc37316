package simplemeta

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Router finds the element matched by the current request.
type Router interface {
	// MatchedElement returns the routed element, or nil when the request
	// does not map to one.
	MatchedElement(ctx context.Context) (Element, error)
}

// ElementStore looks elements up by identity or URI. Stores double as routers
// by matching the request URI carried in the context.
type ElementStore interface {
	Router

	// Element returns the element with the given id or ErrElementNotFound.
	Element(ctx context.Context, id uuid.UUID) (Element, error)

	// ElementByURI returns the element served at uri or ErrElementNotFound.
	ElementByURI(ctx context.Context, uri string) (Element, error)
}

// Renderer renders template strings against a context.
type Renderer interface {
	Render(ctx context.Context, tpl string, data Context) (string, error)
}

// Transformer materializes an image reference into a URL.
type Transformer interface {
	Transform(ctx context.Context, img *Image, opts TransformOptions) (string, error)
}

// Cache stores resolved bags keyed by element identity.
type Cache interface {
	// Get returns the cached bag; ok is false on a miss.
	Get(ctx context.Context, key string) (bag *Bag, ok bool, err error)

	// Set stores a bag. A zero ttl means no expiry.
	Set(ctx context.Context, key string, bag *Bag, ttl time.Duration) error

	// Delete drops a cached bag. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Site describes the site a request is served from.
type Site struct {
	Handle   string `json:"handle" yaml:"handle"`
	Name     string `json:"name" yaml:"name"`
	BaseURL  string `json:"baseUrl" yaml:"baseUrl"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// SiteProvider reports the current site.
type SiteProvider interface {
	CurrentSite(ctx context.Context) (*Site, error)
}

// ElementCacheKey returns the cache key of an element.
func ElementCacheKey(el Element) string {
	return "simplemeta:element:" + el.ID().String()
}

type requestURIKey struct{}

// WithRequestURI stores the request URI for routers.
func WithRequestURI(ctx context.Context, uri string) context.Context {
	return context.WithValue(ctx, requestURIKey{}, uri)
}

// RequestURIFromContext returns the request URI stored by WithRequestURI.
func RequestURIFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	uri, ok := ctx.Value(requestURIKey{}).(string)
	return uri, ok
}
