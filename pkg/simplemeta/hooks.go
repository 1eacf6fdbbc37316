package simplemeta

import (
	"context"
)

// Hook system allows observing and adjusting resolutions without modifying
// the pipeline. Hooks run synchronously in registration order.

// Hooks defines all available resolution hooks
type Hooks struct {
	// BeforeResolve runs before the pipeline; it may adjust the context and
	// the override block. An error is reported and ignored.
	BeforeResolve []BeforeResolveHook

	// AfterResolve runs on the final bag of a computed (non-cached) resolution.
	AfterResolve []AfterResolveHook

	// OnCacheHit runs when a cached bag short-circuits the pipeline.
	OnCacheHit []CacheHitHook

	// OnError observes every recovered collaborator failure.
	OnError []ErrorHook
}

// HookContext carries information through the hook chain
type HookContext struct {
	Context   context.Context
	Metadata  map[string]interface{} // Custom metadata passed between hooks
	StopChain bool                   // Set to true to stop processing remaining hooks
}

// NewHookContext creates a new hook context
func NewHookContext(ctx context.Context) *HookContext {
	return &HookContext{
		Context:  ctx,
		Metadata: make(map[string]interface{}),
	}
}

// BeforeResolveHook is called before resolving
type BeforeResolveHook func(hctx *HookContext, data Context, override *Override) error

// AfterResolveHook is called with the resolved bag
type AfterResolveHook func(hctx *HookContext, element Element, bag *Bag)

// CacheHitHook is called when a cached bag is returned
type CacheHitHook func(hctx *HookContext, key string, bag *Bag)

// ErrorHook is called when a stage recovers from an error
type ErrorHook func(hctx *HookContext, stage Stage, err error)

func (h *Hooks) executeBeforeResolve(ctx context.Context, data Context, override *Override) error {
	if h == nil || len(h.BeforeResolve) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.BeforeResolve {
		if err := hook(hctx, data, override); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

func (h *Hooks) executeAfterResolve(ctx context.Context, element Element, bag *Bag) {
	if h == nil || len(h.AfterResolve) == 0 {
		return
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.AfterResolve {
		hook(hctx, element, bag)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeCacheHit(ctx context.Context, key string, bag *Bag) {
	if h == nil || len(h.OnCacheHit) == 0 {
		return
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.OnCacheHit {
		hook(hctx, key, bag)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeError(ctx context.Context, stage Stage, err error) {
	if h == nil || len(h.OnError) == 0 {
		return
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.OnError {
		hook(hctx, stage, err)
		if hctx.StopChain {
			break
		}
	}
}
