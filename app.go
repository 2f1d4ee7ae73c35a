package stratum

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stratum-go/stratum/pkg/cache"
	"github.com/stratum-go/stratum/pkg/compose"
)

// =============================================================================
// App Type
// =============================================================================

// App serves composition pipelines as HTTP data endpoints. It wraps a chi
// router into a single http.Handler; each registered pipeline becomes a GET
// endpoint that returns the serialized composed props, a redirect, or a 404.
//
// Create an App with stratum.New():
//
//	app := stratum.New(stratum.Config{DevMode: os.Getenv("ENV") != "production"})
//	stratum.Handle(app, "/projects/{id}", projectPipeline)
//	http.ListenAndServe(":8080", app)
type App struct {
	mux    *chi.Mux
	config Config
	logger *slog.Logger
}

// New creates an App with the given configuration.
func New(cfg Config) *App {
	if cfg.Cache.Capacity == 0 {
		cfg.Cache = DefaultCacheConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		mux:    chi.NewRouter(),
		config: cfg,
		logger: logger,
	}
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// Mux returns the underlying chi router for mounting additional handlers
// (metrics endpoints, health checks).
func (a *App) Mux() *chi.Mux { return a.mux }

// Config returns the app configuration.
func (a *App) Config() Config { return a.config }

// Logger returns the app logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// =============================================================================
// Route Registration
// =============================================================================

// Handle registers a pipeline as a GET data endpoint under a chi pattern.
// Route parameters from the pattern (e.g. "/projects/{id}") are handed to the
// pipeline's request context.
func Handle[L, C, O, P any](a *App, pattern string, p *compose.Pipeline[L, C, O, P]) {
	a.mux.Get(pattern, HandlerFunc(a, p))
}

// HandlerFunc adapts a pipeline into an http.HandlerFunc without registering
// it, for callers composing their own routers.
func HandlerFunc[L, C, O, P any](a *App, p *compose.Pipeline[L, C, O, P]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := compose.NewCtx(r, routeParams(r), a.logger)

		out, err := p.Run(r.Context(), rc)
		if err != nil {
			a.logger.Error("pipeline failed", "path", r.URL.Path, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		switch {
		case out.Redirect != nil:
			code := http.StatusTemporaryRedirect
			if out.Redirect.Permanent {
				code = http.StatusPermanentRedirect
			}
			http.Redirect(w, r, out.Redirect.Destination, code)

		case out.NotFound:
			http.NotFound(w, r)

		default:
			// Codec output is used verbatim when the pipeline has one;
			// otherwise the props are JSON-encoded here.
			payload := out.Encoded
			if payload == nil {
				var merr error
				if a.config.DevMode {
					payload, merr = json.MarshalIndent(out.Props, "", "  ")
				} else {
					payload, merr = json.Marshal(out.Props)
				}
				if merr != nil {
					a.logger.Error("props encoding failed", "path", r.URL.Path, "error", merr)
					http.Error(w, "Internal server error", http.StatusInternalServerError)
					return
				}
			}
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			w.Write(payload)
		}
	}
}

// routeParams extracts chi URL parameters into the pipeline's params map.
func routeParams(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		if key == "*" {
			continue
		}
		params[key] = rctx.URLParams.Values[i]
	}
	return params
}

// CacheFactoryFor returns a cache factory that honors the app's configured
// capacity, for wiring into pipeline options.
func CacheFactoryFor[V any](a *App) cache.Factory[V] {
	return cache.MemoryFactory[V](a.config.Cache.Capacity)
}
