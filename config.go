package stratum

import (
	"log/slog"
)

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the main application configuration for an App.
type Config struct {
	// Cache configures defaults for per-registration page caches.
	Cache CacheConfig

	// DevMode enables development conveniences (indented JSON payloads).
	DevMode bool

	// Logger is the structured logger for the application.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// CacheConfig configures the default page-cache behavior. Individual
// pipelines override these through their own options.
type CacheConfig struct {
	// Capacity is the entry bound of caches built by the App's default
	// factory (see CacheFactoryFor). Default: 128.
	Capacity int
}

// DefaultCacheConfig returns the default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{Capacity: 128}
}
