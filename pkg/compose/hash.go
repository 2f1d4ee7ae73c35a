package compose

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// HashParams returns a HashFunc that keys the cache on the named route
// parameters, in the given order. Useful for pages whose data depends only on
// the route, e.g. HashParams[Locals]("id").
func HashParams[C any](names ...string) HashFunc[C] {
	return func(rc *Ctx, _ C) string {
		d := xxhash.New()
		for _, name := range names {
			d.WriteString(name)
			d.WriteString("=")
			d.WriteString(rc.Param(name))
			d.WriteString(";")
		}
		return strconv.FormatUint(d.Sum64(), 16)
	}
}

// HashPath returns a HashFunc that keys the cache on the full request path
// plus the raw query string.
func HashPath[C any]() HashFunc[C] {
	return func(rc *Ctx, _ C) string {
		d := xxhash.New()
		d.WriteString(rc.Path())
		if r := rc.Request(); r != nil {
			d.WriteString("?")
			d.WriteString(r.URL.RawQuery)
		}
		return strconv.FormatUint(d.Sum64(), 16)
	}
}

// HashString folds an arbitrary caller-built key through xxhash, keeping
// cache keys short and uniform regardless of the input length.
func HashString(s string) string {
	return strconv.FormatUint(xxhash.Sum64String(s), 16)
}
