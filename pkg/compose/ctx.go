package compose

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
)

// Ctx is the request-scoped context handed to fetch functions and hash
// functions. The pipeline never inspects the underlying request beyond the
// route parameters; everything else is passed through untouched.
//
// A Ctx may be constructed without an HTTP request for pipelines invoked
// outside an HTTP server (tests, background rendering).
type Ctx struct {
	request *http.Request
	params  map[string]string
	logger  *slog.Logger
	values  map[any]any
	std     context.Context
}

// NewCtx creates a request context. The request may be nil; params may be nil.
func NewCtx(r *http.Request, params map[string]string, logger *slog.Logger) *Ctx {
	if params == nil {
		params = make(map[string]string)
	}
	return &Ctx{
		request: r,
		params:  params,
		logger:  logger,
		values:  make(map[any]any),
	}
}

// Request returns the underlying HTTP request, or nil when the pipeline runs
// outside an HTTP server.
func (c *Ctx) Request() *http.Request { return c.request }

// Path returns the request path, or "" without a request.
func (c *Ctx) Path() string {
	if c.request == nil {
		return ""
	}
	return c.request.URL.Path
}

// Method returns the request method, or "" without a request.
func (c *Ctx) Method() string {
	if c.request == nil {
		return ""
	}
	return c.request.Method
}

// Query returns the parsed query string, or nil without a request.
func (c *Ctx) Query() url.Values {
	if c.request == nil {
		return nil
	}
	return c.request.URL.Query()
}

// QueryParam returns a single query parameter value.
func (c *Ctx) QueryParam(key string) string {
	if c.request == nil {
		return ""
	}
	return c.request.URL.Query().Get(key)
}

// Param returns a route parameter value.
func (c *Ctx) Param(key string) string { return c.params[key] }

// Params returns the route parameter map. Callers must not mutate it.
func (c *Ctx) Params() map[string]string { return c.params }

// Header returns a request header value.
func (c *Ctx) Header(key string) string {
	if c.request == nil {
		return ""
	}
	return c.request.Header.Get(key)
}

// Cookie returns the named request cookie.
func (c *Ctx) Cookie(name string) (*http.Cookie, error) {
	if c.request == nil {
		return nil, http.ErrNoCookie
	}
	return c.request.Cookie(name)
}

// Logger returns the request logger, falling back to slog.Default.
func (c *Ctx) Logger() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// SetValue stores a request-scoped value.
func (c *Ctx) SetValue(key, value any) { c.values[key] = value }

// Value retrieves a request-scoped value.
func (c *Ctx) Value(key any) any { return c.values[key] }

// StdContext returns the request's context.Context for propagation into
// database drivers and HTTP clients.
func (c *Ctx) StdContext() context.Context {
	if c.std != nil {
		return c.std
	}
	if c.request != nil {
		return c.request.Context()
	}
	return context.Background()
}

// WithStdContext returns a shallow clone carrying the given context.
func (c *Ctx) WithStdContext(ctx context.Context) *Ctx {
	clone := *c
	clone.std = ctx
	if c.request != nil {
		clone.request = c.request.WithContext(ctx)
	}
	return &clone
}
