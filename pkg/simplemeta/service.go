package simplemeta

import (
	"context"
)

// Resolver defines the main interface for the simple-meta library
type Resolver interface {
	// Resolve runs the full pipeline and returns the meta bag for the
	// current request. The only error is a malformed settings patch;
	// collaborator failures degrade the output instead.
	Resolve(ctx context.Context, data Context, override *Override) (*Bag, error)

	// ElementMeta returns the profile-driven meta of a single element,
	// without additional, default or post-processing stages.
	ElementMeta(ctx context.Context, element Element, override *Override) (*Bag, error)

	// Invalidate drops the cached bag of an element.
	Invalidate(ctx context.Context, element Element) error

	// Settings returns a copy of the base settings.
	Settings() Settings
}
