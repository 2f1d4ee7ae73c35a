// Package cache provides the bounded, expiring key-value stores used to cache
// page fetch results.
//
// The default backend is Memory: a capacity-bounded store with
// least-recently-used eviction and per-entry timer-driven expiry. Every Set
// arms a cancellable timer that removes the entry when the TTL elapses,
// regardless of subsequent access; Delete and overwriting Set cancel the
// pending timer first, so a stale timer never removes a later entry that
// reused the same key.
//
// S3Cache is a remote backend over an S3 bucket. Remote backends report
// transport failures to the caller, who treats them as misses (fail-open
// caching: a cache fault never blocks a response).
//
// Cache instances are created per page registration through a Factory, each
// with an opaque unique identifier used only for diagnostics.
package cache
