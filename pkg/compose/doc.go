// Package compose implements the server-side data composition pipeline:
// a layout-level fetch stage whose result feeds a page-level fetch stage,
// with per-registration result caching, short-circuit propagation, and an
// optional serialization boundary.
//
// # Pipeline
//
// A Pipeline is built once per page registration and run once per request:
//
//	pipe, err := compose.New(compose.Options[LayoutProps, Locals, LayoutOpts, PageProps]{
//	    LayoutFetch:   fetchLayout,
//	    LayoutOptions: LayoutOpts{MinRole: "admin"},
//	    PageFetch:     fetchPage,
//	    Hash:          compose.HashParams[Locals]("id"),
//	    TTL:           time.Second,
//	})
//
//	out, err := pipe.Run(r.Context(), compose.NewCtx(r, params, logger))
//
// The layout fetch always resolves before the page fetch begins, and the page
// fetch receives exactly the locals value the layout produced. A redirect or
// not-found result from either stage terminates the pipeline and propagates
// unchanged.
//
// # Results
//
// Fetch functions return a Result, a three-case sum type: props, redirect, or
// not-found. Stages pattern-match on the case rather than probing for fields.
//
// # Caching
//
// When a hash function and TTL are configured, the page stage is wrapped in a
// per-registration cache keyed by the caller-supplied hash of the request
// context and locals. Cache lookups and writes fail open: a cache fault is
// treated as a miss and never surfaces to the request.
package compose
