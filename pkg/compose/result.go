package compose

import "encoding/json"

// ResultKind discriminates the outcome of a fetch stage.
type ResultKind int

const (
	// KindProps is a normal result carrying stage props.
	KindProps ResultKind = iota

	// KindRedirect is a short-circuit redirecting the client elsewhere.
	KindRedirect

	// KindNotFound is a short-circuit rendering the not-found outcome.
	KindNotFound
)

// String returns the kind name for logging and metrics labels.
func (k ResultKind) String() string {
	switch k {
	case KindProps:
		return "props"
	case KindRedirect:
		return "redirect"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Redirect describes a redirect short-circuit.
type Redirect struct {
	Destination string `json:"destination"`
	Permanent   bool   `json:"permanent"`
}

// Result is the outcome of a fetch stage. Exactly one of the three cases is
// present: props, redirect, or not-found. The zero value is a props result
// carrying the zero value of P.
type Result[P any] struct {
	kind     ResultKind
	props    P
	redirect Redirect
}

// Props creates a normal result carrying stage props.
func Props[P any](props P) Result[P] {
	return Result[P]{kind: KindProps, props: props}
}

// RedirectTo creates a redirect short-circuit result.
func RedirectTo[P any](destination string, permanent bool) Result[P] {
	return Result[P]{
		kind:     KindRedirect,
		redirect: Redirect{Destination: destination, Permanent: permanent},
	}
}

// NotFound creates a not-found short-circuit result.
func NotFound[P any]() Result[P] {
	return Result[P]{kind: KindNotFound}
}

// Kind returns the result's case discriminator.
func (r Result[P]) Kind() ResultKind { return r.kind }

// Props returns the stage props and true when the result is a props result.
func (r Result[P]) Props() (P, bool) {
	if r.kind != KindProps {
		var zero P
		return zero, false
	}
	return r.props, true
}

// Redirect returns the redirect and true when the result is a redirect.
func (r Result[P]) Redirect() (Redirect, bool) {
	if r.kind != KindRedirect {
		return Redirect{}, false
	}
	return r.redirect, true
}

// IsNotFound reports whether the result is a not-found short-circuit.
func (r Result[P]) IsNotFound() bool { return r.kind == KindNotFound }

// IsShortCircuit reports whether the result terminates the pipeline.
func (r Result[P]) IsShortCircuit() bool { return r.kind != KindProps }

// resultJSON is the wire form of Result: a tagged union where exactly one
// field is populated.
type resultJSON[P any] struct {
	Props    *P        `json:"props,omitempty"`
	Redirect *Redirect `json:"redirect,omitempty"`
	NotFound bool      `json:"notFound,omitempty"`
}

// MarshalJSON encodes the result as a tagged union with exactly one of
// "props", "redirect", or "notFound" populated.
func (r Result[P]) MarshalJSON() ([]byte, error) {
	var wire resultJSON[P]
	switch r.kind {
	case KindRedirect:
		rd := r.redirect
		wire.Redirect = &rd
	case KindNotFound:
		wire.NotFound = true
	default:
		props := r.props
		wire.Props = &props
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the tagged union form produced by MarshalJSON.
func (r *Result[P]) UnmarshalJSON(data []byte) error {
	var wire resultJSON[P]
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch {
	case wire.Redirect != nil:
		*r = Result[P]{kind: KindRedirect, redirect: *wire.Redirect}
	case wire.NotFound:
		*r = Result[P]{kind: KindNotFound}
	case wire.Props != nil:
		*r = Result[P]{kind: KindProps, props: *wire.Props}
	default:
		*r = Result[P]{}
	}
	return nil
}

// LayoutData is the normal payload of the layout fetch stage: the layout's
// internal props plus the locals context handed to the page fetch stage.
type LayoutData[L, C any] struct {
	Layout L
	Locals C
}

// Composed is the unit that crosses the serialization boundary. It is built
// once per successful request, after both fetch stages resolve, and is not
// mutated afterwards.
type Composed[P, L any] struct {
	ServerSideProps P `json:"serverSideProps"`
	InternalProps   L `json:"internalProps"`
}

// Output is the pipeline's final result. Exactly one of Props, Redirect, or
// NotFound is set. When a codec is configured, Encoded holds the serialized
// form of Props.
type Output[P, L any] struct {
	Props    *Composed[P, L]
	Encoded  []byte
	Redirect *Redirect
	NotFound bool
}
