package compose

import "time"

// Stage names the phases of the pipeline, used in hooks, errors, and metrics
// labels.
type Stage string

const (
	StageLayoutFetch Stage = "layout_fetch"
	StagePageFetch   Stage = "page_fetch"
	StageMerge       Stage = "merge"
	StageSerialize   Stage = "serialize"
)

// Hooks receives pipeline lifecycle callbacks. All fields are optional; nil
// callbacks are skipped. Hooks must not mutate pipeline state and should
// return quickly, since they run on the request path.
type Hooks struct {
	// OnStage is called after each stage completes, with its duration and
	// error (nil on success).
	OnStage func(rc *Ctx, stage Stage, d time.Duration, err error)

	// OnCacheLookup is called after each page-stage cache lookup.
	OnCacheLookup func(rc *Ctx, key string, hit bool)

	// OnShortCircuit is called when a stage returns a redirect or not-found
	// result and the pipeline terminates early.
	OnShortCircuit func(rc *Ctx, stage Stage, kind ResultKind)

	// OnError is called once when an error reaches the pipeline boundary,
	// before any configured error handler runs.
	OnError func(rc *Ctx, err error)
}

func (h Hooks) stage(rc *Ctx, stage Stage, start time.Time, err error) {
	if h.OnStage != nil {
		h.OnStage(rc, stage, time.Since(start), err)
	}
}

func (h Hooks) cacheLookup(rc *Ctx, key string, hit bool) {
	if h.OnCacheLookup != nil {
		h.OnCacheLookup(rc, key, hit)
	}
}

func (h Hooks) shortCircuit(rc *Ctx, stage Stage, kind ResultKind) {
	if h.OnShortCircuit != nil {
		h.OnShortCircuit(rc, stage, kind)
	}
}

func (h Hooks) boundaryError(rc *Ctx, err error) {
	if h.OnError != nil {
		h.OnError(rc, err)
	}
}

// JoinHooks combines multiple Hooks into one that fans out each callback in
// order.
func JoinHooks(hooks ...Hooks) Hooks {
	return Hooks{
		OnStage: func(rc *Ctx, stage Stage, d time.Duration, err error) {
			for _, h := range hooks {
				if h.OnStage != nil {
					h.OnStage(rc, stage, d, err)
				}
			}
		},
		OnCacheLookup: func(rc *Ctx, key string, hit bool) {
			for _, h := range hooks {
				if h.OnCacheLookup != nil {
					h.OnCacheLookup(rc, key, hit)
				}
			}
		},
		OnShortCircuit: func(rc *Ctx, stage Stage, kind ResultKind) {
			for _, h := range hooks {
				if h.OnShortCircuit != nil {
					h.OnShortCircuit(rc, stage, kind)
				}
			}
		},
		OnError: func(rc *Ctx, err error) {
			for _, h := range hooks {
				if h.OnError != nil {
					h.OnError(rc, err)
				}
			}
		},
	}
}
