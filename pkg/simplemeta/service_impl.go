package simplemeta

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/tendant/simple-meta/pkg/simplemeta")

// resolver implements the Resolver interface
type resolver struct {
	settings    Settings
	router      Router
	renderer    Renderer
	transformer Transformer
	imager      Transformer
	cache       Cache
	sites       SiteProvider
	hostSite    SiteName
	hooks       *Hooks
	logger      *slog.Logger
}

// Option represents a functional option for configuring the resolver
type Option func(*resolver)

// WithSettings sets the base settings
func WithSettings(settings Settings) Option {
	return func(r *resolver) {
		r.settings = settings.Clone()
	}
}

// WithRouter sets the routing collaborator
func WithRouter(router Router) Option {
	return func(r *resolver) {
		r.router = router
	}
}

// WithRenderer sets the template renderer
func WithRenderer(renderer Renderer) Option {
	return func(r *resolver) {
		r.renderer = renderer
	}
}

// WithTransformer sets the native image transformer
func WithTransformer(transformer Transformer) Option {
	return func(r *resolver) {
		r.transformer = transformer
	}
}

// WithImager sets the focal-point aware transformer used when
// useImagerIfInstalled is on
func WithImager(imager Transformer) Option {
	return func(r *resolver) {
		r.imager = imager
	}
}

// WithCache sets the meta cache
func WithCache(cache Cache) Option {
	return func(r *resolver) {
		r.cache = cache
	}
}

// WithSiteProvider sets the site provider
func WithSiteProvider(sites SiteProvider) Option {
	return func(r *resolver) {
		r.sites = sites
	}
}

// WithHostSiteName sets the host-wide site name consulted when settings carry none
func WithHostSiteName(name SiteName) Option {
	return func(r *resolver) {
		r.hostSite = name
	}
}

// WithHooks sets the resolution hooks
func WithHooks(hooks *Hooks) Option {
	return func(r *resolver) {
		r.hooks = hooks
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *resolver) {
		r.logger = logger
	}
}

// New creates a new resolver with the given options
func New(options ...Option) (Resolver, error) {
	r := &resolver{
		settings: DefaultSettings(),
	}

	for _, option := range options {
		option(r)
	}

	if r.router == nil {
		r.router = NewNoopRouter()
	}
	if r.renderer == nil {
		r.renderer = NewLiteralRenderer()
	}
	if r.transformer == nil {
		r.transformer = NewPassthroughTransformer()
	}
	if r.cache == nil {
		r.cache = NewNoopCache()
	}
	if r.sites == nil {
		r.sites = &StaticSiteProvider{}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	if err := r.settings.Validate(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *resolver) Settings() Settings {
	return r.settings.Clone()
}

// resolution holds the per-call state of one resolution.
type resolution struct {
	*resolver
	settings Settings
	rules    rules
	data     Context
	override *Override
	element  Element
	site     *Site
	siteErr  error
	siteDone bool
}

func (r *resolver) newRun(ctx context.Context, data Context, override *Override) (*resolution, error) {
	if override == nil {
		if o, ok := data[OverrideKey].(*Override); ok {
			override = o
		}
	}
	if override == nil {
		override = &Override{}
	}

	settings := r.settings
	if len(override.Config) > 0 {
		patched, err := r.settings.WithPatch(override.Config)
		if err != nil {
			return nil, err
		}
		settings = patched
	}

	return &resolution{
		resolver: r,
		settings: settings,
		rules:    settings.rules(),
		data:     data.Clone(),
		override: override,
	}, nil
}

func (r *resolver) Resolve(ctx context.Context, data Context, override *Override) (*Bag, error) {
	ctx, span := tracer.Start(ctx, "simplemeta.Resolve")
	defer span.End()

	if err := r.hooks.executeBeforeResolve(ctx, data, override); err != nil {
		r.fail(ctx, StageBeforeResolve, err)
	}

	res, err := r.newRun(ctx, data, override)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	res.element = res.resolveElement(ctx)
	if res.element != nil {
		span.SetAttributes(attribute.String("simplemeta.element_id", res.element.ID().String()))
		if _, set := res.data["element"]; !set {
			res.data["element"] = res.element
		}
	}

	cacheable := res.element != nil && res.settings.CacheEnabled
	var cacheKey string
	if cacheable {
		cacheKey = ElementCacheKey(res.element)
		if bag, ok := res.cacheGet(ctx, cacheKey); ok {
			span.SetAttributes(attribute.Bool("simplemeta.cache_hit", true))
			r.hooks.executeCacheHit(ctx, cacheKey, bag)
			return bag, nil
		}
	}

	meta := NewBag()
	if res.element != nil {
		meta = res.elementMeta(ctx, res.element)
	}

	if res.settings.AdditionalMeta.Len() > 0 {
		res.processAdditionalMeta(ctx, meta)
	}

	if res.override.Meta != nil {
		res.override.Meta.Range(func(key string, v Value) bool {
			meta.Set(key, v)
			return true
		})
	}

	if res.settings.DefaultMeta.Len() > 0 {
		res.processDefaultMeta(meta)
	}

	res.autofill(meta)

	if !res.settings.ReturnImageAsset {
		res.transformAssets(ctx, meta)
	}

	if res.settings.ApplyRestrictions {
		res.applyRestrictions(meta)
	}

	applyFilters(meta)

	if res.settings.IncludeSitenameInTitle {
		res.addSitename(ctx, meta)
	}

	if cacheable {
		res.cacheSet(ctx, cacheKey, meta)
	}

	r.hooks.executeAfterResolve(ctx, res.element, meta)
	return meta, nil
}

func (r *resolver) ElementMeta(ctx context.Context, element Element, override *Override) (*Bag, error) {
	if element == nil {
		return NewBag(), nil
	}
	res, err := r.newRun(ctx, Context{}, override)
	if err != nil {
		return nil, err
	}
	return res.elementMeta(ctx, element), nil
}

func (r *resolver) Invalidate(ctx context.Context, element Element) error {
	if element == nil {
		return nil
	}
	if err := r.cache.Delete(ctx, ElementCacheKey(element)); err != nil {
		return fmt.Errorf("invalidate %s: %w", element.ID(), err)
	}
	return nil
}

func (r *resolution) resolveElement(ctx context.Context) Element {
	if r.override.Element != nil {
		return r.override.Element
	}
	el, err := r.router.MatchedElement(ctx)
	if err != nil {
		if !errors.Is(err, ErrElementNotFound) {
			r.fail(ctx, StageRouting, err)
		}
		return nil
	}
	return el
}

func (r *resolution) cacheGet(ctx context.Context, key string) (*Bag, bool) {
	bag, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.fail(ctx, StageCacheGet, err)
		return nil, false
	}
	if !ok || bag == nil {
		return nil, false
	}
	return bag.Clone(), true
}

func (r *resolution) cacheSet(ctx context.Context, key string, bag *Bag) {
	if err := r.cache.Set(ctx, key, bag.Clone(), r.settings.CacheDuration); err != nil {
		r.fail(ctx, StageCacheSet, err)
	}
}

// currentSite looks the site up once per run.
func (r *resolution) currentSite(ctx context.Context) (*Site, error) {
	if !r.siteDone {
		r.site, r.siteErr = r.sites.CurrentSite(ctx)
		r.siteDone = true
	}
	return r.site, r.siteErr
}

// fail logs a recovered failure and reports it to the error hooks.
func (r *resolver) fail(ctx context.Context, stage Stage, err error) {
	r.logger.ErrorContext(ctx, "meta resolution degraded", "stage", string(stage), "err", err)
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.RecordError(err, trace.WithAttributes(attribute.String("simplemeta.stage", string(stage))))
	}
	r.hooks.executeError(ctx, stage, &StageError{Stage: stage, Err: err})
}
