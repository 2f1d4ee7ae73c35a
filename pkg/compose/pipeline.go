package compose

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/stratum-go/stratum/pkg/cache"
	"github.com/stratum-go/stratum/pkg/codec"
)

// DefaultCacheCapacity is the entry bound of the per-registration cache when
// no explicit cache or factory is configured.
const DefaultCacheCapacity = 128

// LayoutFetchFunc produces the layout's internal props and the locals context
// handed to the page stage, or a short-circuit result. The opts value is
// supplied by the page registration and lets a page parameterize the shared
// layout fetch (for example a minimum permission level).
type LayoutFetchFunc[L, C, O any] func(ctx context.Context, rc *Ctx, opts O) (Result[LayoutData[L, C]], error)

// PageFetchFunc produces the page's props, or a short-circuit result. It runs
// only after the layout fetch resolved and receives the locals the layout
// produced.
type PageFetchFunc[C, P any] func(ctx context.Context, rc *Ctx, locals C) (Result[P], error)

// HashFunc computes the cache key for a page fetch. It receives the request
// context and the layout-produced locals, so keys may depend on
// layout-derived context such as a tenant id. The function is assumed
// deterministic; colliding keys follow last-writer-wins.
type HashFunc[C any] func(rc *Ctx, locals C) string

// ErrorHandler recovers a pipeline-boundary error into a final output. It may
// itself produce a redirect, not-found, or props output.
type ErrorHandler[P, L any] func(rc *Ctx, err error) (Output[P, L], error)

// Options configures a Pipeline. Every capability is optional: an absent
// fetch function elides its stage and substitutes an empty (zero-value)
// result, mirroring an empty data contract.
type Options[L, C, O, P any] struct {
	// LayoutFetch runs once per request, before the page stage. Nil means
	// the layout declares no server-side data: the stage is skipped and
	// zero-value layout props and locals are used.
	LayoutFetch LayoutFetchFunc[L, C, O]

	// LayoutOptions is passed verbatim to LayoutFetch on every request.
	LayoutOptions O

	// PageFetch runs once per request, after the layout stage. Nil means
	// the page declares no server-side data.
	PageFetch PageFetchFunc[C, P]

	// Hash enables caching of the page stage. Requires PageFetch and a
	// positive TTL.
	Hash HashFunc[C]

	// TTL is the cache entry lifetime. Entries are removed by a scheduled
	// timer when it elapses, regardless of access.
	TTL time.Duration

	// Cache overrides the cache instance for this registration. When nil
	// and caching is enabled, Factory (or an in-memory default) is used.
	Cache cache.Cache[Result[P]]

	// Factory builds the cache instance for this registration. The id is
	// an opaque unique identifier for diagnostics; it is not part of the
	// key space.
	Factory cache.Factory[Result[P]]

	// Coalesce deduplicates concurrent page fetches for the same cache
	// key, so a burst of identical requests resolves with a single fetch.
	Coalesce bool

	// Codec serializes the composed props as the pipeline's final step.
	// Nil means pass-through: Output.Encoded stays unset and callers
	// consume Output.Props directly.
	Codec codec.Codec

	// OnError handles any error that reaches the pipeline boundary. Nil
	// means errors propagate to the caller of Run.
	OnError ErrorHandler[P, L]

	// Hooks receives lifecycle callbacks (metrics, tracing).
	Hooks Hooks

	// Logger is used for fail-open cache fault reporting. Defaults to
	// slog.Default.
	Logger *slog.Logger
}

// Pipeline orchestrates the layout and page fetch stages for one page
// registration. It is safe for concurrent use; concurrent requests share only
// the cache instance.
type Pipeline[L, C, O, P any] struct {
	opts    Options[L, C, O, P]
	cache   cache.Cache[Result[P]]
	cacheID string
	group   singleflight.Group
	logger  *slog.Logger
}

// New validates the options and builds a Pipeline.
//
// Caching options are validated at construction: a hash function without a
// page fetch, a TTL or cache without a hash function, or a hash function
// without a positive TTL are configuration errors.
func New[L, C, O, P any](opts Options[L, C, O, P]) (*Pipeline[L, C, O, P], error) {
	cachingWanted := opts.Hash != nil || opts.TTL > 0 || opts.Cache != nil || opts.Factory != nil || opts.Coalesce
	if cachingWanted {
		if opts.PageFetch == nil {
			return nil, ErrCacheWithoutPageFetch
		}
		if opts.Hash == nil {
			return nil, ErrCacheWithoutHash
		}
		if opts.TTL <= 0 {
			return nil, ErrCacheWithoutTTL
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline[L, C, O, P]{opts: opts, logger: logger}
	if opts.Hash != nil {
		p.cacheID = cache.NewID()
		switch {
		case opts.Cache != nil:
			p.cache = opts.Cache
		case opts.Factory != nil:
			p.cache = opts.Factory(p.cacheID)
		default:
			p.cache = cache.NewMemory[Result[P]](DefaultCacheCapacity)
		}
	}
	return p, nil
}

// CacheID returns the opaque identifier of this registration's cache
// instance, or "" when caching is disabled.
func (p *Pipeline[L, C, O, P]) CacheID() string { return p.cacheID }

// Run executes the pipeline for one request.
//
// Stage order is fixed: the layout fetch fully resolves (or short-circuits,
// or fails) before the page fetch begins, so the page fetch can rely on
// fully-resolved locals. A short-circuit from either stage is propagated
// verbatim and terminates the pipeline; the stages below it never run.
//
// Any error returned by a fetch function, and any panic raised by a fetch
// function, the hash function, or the merge step, is caught once here at the
// pipeline boundary. With OnError configured its output becomes the final
// output; otherwise the error propagates to the caller.
func (p *Pipeline[L, C, O, P]) Run(ctx context.Context, rc *Ctx) (out Output[P, L], err error) {
	stage := StageLayoutFetch
	defer func() {
		if rec := recover(); rec != nil {
			out, err = p.fail(rc, &PanicError{Stage: stage, Value: rec, Stack: debug.Stack()})
		}
	}()

	var data LayoutData[L, C]
	if p.opts.LayoutFetch != nil {
		start := time.Now()
		res, ferr := p.opts.LayoutFetch(ctx, rc, p.opts.LayoutOptions)
		p.opts.Hooks.stage(rc, StageLayoutFetch, start, ferr)
		if ferr != nil {
			return p.fail(rc, &FetchError{Stage: StageLayoutFetch, Err: ferr})
		}
		if short, ok := p.shortCircuit(rc, StageLayoutFetch, res.Kind(), res); ok {
			return short, nil
		}
		data, _ = res.Props()
	}

	stage = StagePageFetch
	var pageProps P
	if p.opts.PageFetch != nil {
		start := time.Now()
		res, ferr := p.fetchPage(ctx, rc, data.Locals)
		p.opts.Hooks.stage(rc, StagePageFetch, start, ferr)
		if ferr != nil {
			return p.fail(rc, &FetchError{Stage: StagePageFetch, Err: ferr})
		}
		if rd, ok := res.Redirect(); ok {
			p.opts.Hooks.shortCircuit(rc, StagePageFetch, KindRedirect)
			return Output[P, L]{Redirect: &rd}, nil
		}
		if res.IsNotFound() {
			p.opts.Hooks.shortCircuit(rc, StagePageFetch, KindNotFound)
			return Output[P, L]{NotFound: true}, nil
		}
		pageProps, _ = res.Props()
	}

	stage = StageMerge
	composed := &Composed[P, L]{
		ServerSideProps: pageProps,
		InternalProps:   data.Layout,
	}
	out = Output[P, L]{Props: composed}

	if p.opts.Codec != nil {
		stage = StageSerialize
		start := time.Now()
		encoded, cerr := p.opts.Codec.Encode(composed)
		p.opts.Hooks.stage(rc, StageSerialize, start, cerr)
		if cerr != nil {
			return p.fail(rc, &FetchError{Stage: StageSerialize, Err: cerr})
		}
		out.Encoded = encoded
	}
	return out, nil
}

// shortCircuit converts a layout-stage short-circuit into the final output.
func (p *Pipeline[L, C, O, P]) shortCircuit(rc *Ctx, stage Stage, kind ResultKind, res Result[LayoutData[L, C]]) (Output[P, L], bool) {
	switch kind {
	case KindRedirect:
		rd, _ := res.Redirect()
		p.opts.Hooks.shortCircuit(rc, stage, KindRedirect)
		return Output[P, L]{Redirect: &rd}, true
	case KindNotFound:
		p.opts.Hooks.shortCircuit(rc, stage, KindNotFound)
		return Output[P, L]{NotFound: true}, true
	default:
		return Output[P, L]{}, false
	}
}

// fetchPage runs the page fetch, consulting the cache when configured.
// Cache faults never surface: a failing lookup is a miss, and a failing write
// is logged and swallowed.
func (p *Pipeline[L, C, O, P]) fetchPage(ctx context.Context, rc *Ctx, locals C) (Result[P], error) {
	if p.cache == nil {
		return p.opts.PageFetch(ctx, rc, locals)
	}

	key := p.opts.Hash(rc, locals)
	cached, ok, cerr := p.cache.Get(ctx, key)
	if cerr != nil {
		p.logger.Debug("cache lookup failed, treating as miss",
			"cache", p.cacheID, "key", key, "error", cerr)
		ok = false
	}
	p.opts.Hooks.cacheLookup(rc, key, ok && cerr == nil)
	if ok && cerr == nil {
		return cached, nil
	}

	fetch := func() (Result[P], error) {
		res, ferr := p.opts.PageFetch(ctx, rc, locals)
		if ferr != nil {
			return res, ferr
		}
		if serr := p.cache.Set(ctx, key, res, p.opts.TTL); serr != nil {
			p.logger.Debug("cache write failed",
				"cache", p.cacheID, "key", key, "error", serr)
		}
		return res, nil
	}

	if !p.opts.Coalesce {
		return fetch()
	}
	v, ferr, _ := p.group.Do(key, func() (any, error) {
		return fetch()
	})
	if ferr != nil {
		var zero Result[P]
		return zero, ferr
	}
	return v.(Result[P]), nil
}

// fail routes a boundary error through hooks and the configured handler.
func (p *Pipeline[L, C, O, P]) fail(rc *Ctx, err error) (Output[P, L], error) {
	p.opts.Hooks.boundaryError(rc, err)
	if p.opts.OnError != nil {
		return p.opts.OnError(rc, err)
	}
	return Output[P, L]{}, err
}
