// Package presets builds ready-to-use resolver stacks so callers skip the
// collaborator wiring for common setups.
package presets

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/tendant/simple-meta/pkg/simplemeta"
	cachememory "github.com/tendant/simple-meta/pkg/simplemeta/cache/memory"
	elementmemory "github.com/tendant/simple-meta/pkg/simplemeta/element/memory"
	"github.com/tendant/simple-meta/pkg/simplemeta/metatags"
	"github.com/tendant/simple-meta/pkg/simplemeta/render"
)

// Stack is a resolver together with the in-memory collaborators behind it
type Stack struct {
	Resolver simplemeta.Resolver
	Store    *elementmemory.Store
	Cache    *cachememory.Cache
	Tags     *metatags.Renderer
}

// NewDevelopment creates a stack for local development.
//
// Features:
//   - In-memory element store, optionally seeded from a YAML fixture file
//   - Caching disabled so edited fixtures and settings show up at once
//   - pongo2 templates, untransformed images
//   - Site served from http://localhost:8080
//
// Example:
//
//	stack, err := presets.NewDevelopment(presets.WithDevFixtures("./fixtures.yaml"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	bag, err := stack.Resolver.Resolve(ctx, simplemeta.Context{}, nil)
func NewDevelopment(opts ...DevelopmentOption) (*Stack, error) {
	cfg := &devConfig{
		settings: simplemeta.DefaultSettings(),
		site: simplemeta.Site{
			Handle:  "default",
			Name:    "Development",
			BaseURL: "http://localhost:8080",
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(cfg)
	}
	cfg.settings.CacheEnabled = false

	store := elementmemory.New()
	if cfg.fixtures != "" {
		if err := store.LoadFile(cfg.fixtures); err != nil {
			return nil, fmt.Errorf("failed to load fixtures: %w", err)
		}
	}

	stack, err := newStack(cfg.settings, store, cfg.site, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}
	return stack, nil
}

// NewTesting creates a stack for unit and integration tests.
//
// Features:
//   - In-memory element store seeded with the given entries
//   - In-memory cache, isolated per test
//   - Site "Test Site" at https://example.test
//
// Example:
//
//	func TestMyFeature(t *testing.T) {
//	    stack := presets.NewTesting(t, presets.WithTestEntries(entry))
//	    bag, err := stack.Resolver.Resolve(ctx, simplemeta.Context{}, &simplemeta.Override{Element: entry})
//	}
func NewTesting(t testing.TB, opts ...TestingOption) *Stack {
	t.Helper()

	cfg := &testConfig{
		settings: simplemeta.DefaultSettings(),
		site: simplemeta.Site{
			Handle:  "default",
			Name:    "Test Site",
			BaseURL: "https://example.test",
		},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	store := elementmemory.New()
	store.Put(cfg.entries...)

	stack, err := newStack(cfg.settings, store, cfg.site, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("failed to create test resolver: %v", err)
	}

	return stack
}

func newStack(settings simplemeta.Settings, store *elementmemory.Store, site simplemeta.Site, logger *slog.Logger) (*Stack, error) {
	renderer := render.New()
	cache := cachememory.New()

	resolver, err := simplemeta.New(
		simplemeta.WithSettings(settings),
		simplemeta.WithRouter(store),
		simplemeta.WithCache(cache),
		simplemeta.WithRenderer(renderer),
		simplemeta.WithSiteProvider(simplemeta.NewStaticSiteProvider(site)),
		simplemeta.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	tags, err := metatags.New(settings.TagTemplateMap, renderer)
	if err != nil {
		return nil, err
	}

	return &Stack{
		Resolver: resolver,
		Store:    store,
		Cache:    cache,
		Tags:     tags,
	}, nil
}

// Option types for customization

// devConfig holds development preset configuration
type devConfig struct {
	settings simplemeta.Settings
	fixtures string
	site     simplemeta.Site
	logger   *slog.Logger
}

// testConfig holds testing preset configuration
type testConfig struct {
	settings simplemeta.Settings
	entries  []*simplemeta.Entry
	site     simplemeta.Site
}

// DevelopmentOption is a functional option for NewDevelopment
type DevelopmentOption func(*devConfig)

// WithDevSettings replaces the default settings
func WithDevSettings(settings simplemeta.Settings) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.settings = settings
	}
}

// WithDevFixtures seeds the element store from a YAML fixture file
func WithDevFixtures(path string) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.fixtures = path
	}
}

// WithDevSite sets the development site
func WithDevSite(site simplemeta.Site) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.site = site
	}
}

// WithDevLogger sets the development logger
func WithDevLogger(logger *slog.Logger) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.logger = logger
	}
}

// TestingOption is a functional option for NewTesting
type TestingOption func(*testConfig)

// WithTestSettings replaces the default settings
func WithTestSettings(settings simplemeta.Settings) TestingOption {
	return func(cfg *testConfig) {
		cfg.settings = settings
	}
}

// WithTestEntries seeds the element store
func WithTestEntries(entries ...*simplemeta.Entry) TestingOption {
	return func(cfg *testConfig) {
		cfg.entries = append(cfg.entries, entries...)
	}
}

// WithTestSite sets the test site
func WithTestSite(site simplemeta.Site) TestingOption {
	return func(cfg *testConfig) {
		cfg.site = site
	}
}
