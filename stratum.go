// Package stratum composes server-rendered layout and page data-fetching
// pipelines: a shared layout fetch stage produces typed data and a locals
// context, a per-page fetch stage consumes the locals (optionally behind a
// per-registration cache), and the merged result crosses a serialization
// boundary into the render adapter.
//
// This is the recommended import for most applications:
//
//	import "github.com/stratum-go/stratum"
//
// Usage:
//
//	pipe, err := stratum.NewPipeline(stratum.PipelineOptions[Layout, Locals, LayoutOpts, Page]{
//	    LayoutFetch: fetchLayout,
//	    PageFetch:   fetchPage,
//	    Hash:        stratum.HashParams[Locals]("id"),
//	    TTL:         time.Second,
//	})
//
//	app := stratum.New(stratum.Config{})
//	stratum.Handle(app, "/projects/{id}", pipe)
//	http.ListenAndServe(":8080", app)
package stratum

import (
	"github.com/stratum-go/stratum/pkg/cache"
	"github.com/stratum-go/stratum/pkg/codec"
	"github.com/stratum-go/stratum/pkg/compose"
	"github.com/stratum-go/stratum/pkg/render"
)

// =============================================================================
// Results (re-export from pkg/compose)
// =============================================================================

// Result is the three-case outcome of a fetch stage: props, redirect, or
// not-found.
type Result[P any] = compose.Result[P]

// ResultKind discriminates the result cases.
type ResultKind = compose.ResultKind

// Result case constants.
const (
	KindProps    = compose.KindProps
	KindRedirect = compose.KindRedirect
	KindNotFound = compose.KindNotFound
)

// Redirect describes a redirect short-circuit.
type Redirect = compose.Redirect

// Props creates a normal result carrying stage props.
func Props[P any](props P) Result[P] { return compose.Props(props) }

// RedirectTo creates a redirect short-circuit result.
func RedirectTo[P any](destination string, permanent bool) Result[P] {
	return compose.RedirectTo[P](destination, permanent)
}

// NotFound creates a not-found short-circuit result.
func NotFound[P any]() Result[P] { return compose.NotFound[P]() }

// =============================================================================
// Pipeline (re-export from pkg/compose)
// =============================================================================

// Ctx is the request-scoped context handed to fetch and hash functions.
type Ctx = compose.Ctx

// NewCtx creates a request context.
var NewCtx = compose.NewCtx

// LayoutData is the layout stage's payload: internal props plus locals.
type LayoutData[L, C any] = compose.LayoutData[L, C]

// Composed is the merged unit that crosses the serialization boundary.
type Composed[P, L any] = compose.Composed[P, L]

// Output is a pipeline's final result.
type Output[P, L any] = compose.Output[P, L]

// Pipeline orchestrates the layout and page fetch stages for one page
// registration.
type Pipeline[L, C, O, P any] = compose.Pipeline[L, C, O, P]

// PipelineOptions configures a Pipeline.
type PipelineOptions[L, C, O, P any] = compose.Options[L, C, O, P]

// NewPipeline validates options and builds a Pipeline.
func NewPipeline[L, C, O, P any](opts PipelineOptions[L, C, O, P]) (*Pipeline[L, C, O, P], error) {
	return compose.New(opts)
}

// Hooks receives pipeline lifecycle callbacks.
type Hooks = compose.Hooks

// JoinHooks combines multiple Hooks into one.
var JoinHooks = compose.JoinHooks

// HashParams returns a hash function keyed on the named route parameters.
func HashParams[C any](names ...string) compose.HashFunc[C] {
	return compose.HashParams[C](names...)
}

// HashPath returns a hash function keyed on the request path and query.
func HashPath[C any]() compose.HashFunc[C] { return compose.HashPath[C]() }

// HashString folds an arbitrary caller-built key through xxhash.
var HashString = compose.HashString

// =============================================================================
// Cache (re-export from pkg/cache)
// =============================================================================

// Cache is the pluggable cache contract.
type Cache[V any] = cache.Cache[V]

// CacheFactory builds a cache instance per page registration.
type CacheFactory[V any] = cache.Factory[V]

// NewMemoryCache creates the default in-memory LRU cache with timer expiry.
func NewMemoryCache[V any](capacity int) *cache.Memory[V] {
	return cache.NewMemory[V](capacity)
}

// =============================================================================
// Codec (re-export from pkg/codec)
// =============================================================================

// Codec is the serialize/deserialize transform pair for composed props.
type Codec = codec.Codec

// JSONCodec is the default codec.
type JSONCodec = codec.JSON

// =============================================================================
// Render adapter (re-export from pkg/render)
// =============================================================================

// RenderAdapter drives the render path for one page.
type RenderAdapter[P, L, E any] = render.Adapter[P, L, E]

// PageRenderResult is what a page render-prop function returns.
type PageRenderResult = render.PageResult

// PageRenderFunc is the page's render-prop function.
type PageRenderFunc = render.PageFunc

// LayoutRenderFunc is the layout's render function.
type LayoutRenderFunc[L any] = render.LayoutFunc[L]
