// Package simplemeta computes per-page SEO and social metadata for content
// elements from declarative configuration.
//
// A Resolver runs a fixed pipeline over an element and a caller supplied
// Context: field profiles pick values from element fields (first non-empty
// candidate wins), additional and default meta fill in from the context,
// aliases autofill related keys, image references are materialized into
// transformed URLs, text is truncated and HTML encoded, and the site name is
// appended to title-like keys. The result is an ordered Bag of meta keys.
//
// Collaborators
//
// Routing, template rendering, image transforms, caching and site lookup are
// pluggable interfaces (Router, Renderer, Transformer, Cache, SiteProvider).
// Implementations live in subpackages (cache/memory, cache/postgres, cache/s3,
// element/memory, element/postgres, render, transform). Every collaborator is
// optional; missing ones degrade to no-op behavior.
//
// Settings
//
// Settings are immutable per call. A call may carry an Override whose Config
// patch is shallow-merged into a clone of the base settings, so one request
// never observes another request's patch.
package simplemeta
