// Package render is the client side of the composition pipeline: it reverses
// the serialization boundary, derives the layout's exported props, merges
// them with the page props, and invokes the caller's opaque render functions.
package render

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/stratum-go/stratum/pkg/codec"
	"github.com/stratum-go/stratum/pkg/compose"
)

// PageResult is what a page's render-prop function returns: the props that
// control the layout's chrome, plus the renderable children. Both are opaque
// to the adapter.
type PageResult struct {
	LayoutProps any
	Children    any
}

// PageFunc is the page's render-prop function. It receives the merged props
// (server-side props plus exported internal props) and returns the chrome
// control props and children.
type PageFunc func(props map[string]any) PageResult

// LayoutFunc is the layout's render function. It receives the layout's full
// internal props and the page's result, and returns the rendered output.
type LayoutFunc[L any] func(internal L, page PageResult) any

// Adapter drives the render path for one page. Codec reverses the pipeline's
// serialization (nil for in-process hand-off); Export projects the exported
// subset of the layout's internal props (nil when the layout exports
// nothing).
type Adapter[P, L, E any] struct {
	Codec  codec.Codec
	Export func(L) E
}

// Decode reverses the serialization boundary.
func (a *Adapter[P, L, E]) Decode(raw []byte) (compose.Composed[P, L], error) {
	var c compose.Composed[P, L]
	if a.Codec == nil {
		return c, fmt.Errorf("render: no codec configured for encoded input")
	}
	if err := a.Codec.Decode(raw, &c); err != nil {
		return c, fmt.Errorf("render: decode composed props: %w", err)
	}
	return c, nil
}

// Exported computes the exported projection of the layout's internal props.
// It is recomputed on every render and never cached; with no Export function
// it returns the zero E.
func (a *Adapter[P, L, E]) Exported(internal L) E {
	if a.Export == nil {
		var zero E
		return zero
	}
	return a.Export(internal)
}

// Merge flattens the server-side props and the exported internal props into a
// single prop bag. Server-side props are spread first, exported props second:
// on a key collision the exported field wins (last-write-wins), so a layout
// export is never silently shadowed by a same-named page prop.
func (a *Adapter[P, L, E]) Merge(server P, exported E) map[string]any {
	merged := make(map[string]any)
	spread(merged, server)
	if a.Export != nil {
		spread(merged, exported)
	}
	return merged
}

// Render runs the full render path for an in-process composed value:
// project, merge, invoke the page render-prop function, then hand
// {internal props, page result} to the layout render function.
func (a *Adapter[P, L, E]) Render(c compose.Composed[P, L], page PageFunc, layout LayoutFunc[L]) any {
	exported := a.Exported(c.InternalProps)
	result := page(a.Merge(c.ServerSideProps, exported))
	return layout(c.InternalProps, result)
}

// RenderEncoded decodes raw input from the serialization boundary and runs
// the render path.
func (a *Adapter[P, L, E]) RenderEncoded(raw []byte, page PageFunc, layout LayoutFunc[L]) (any, error) {
	c, err := a.Decode(raw)
	if err != nil {
		return nil, err
	}
	return a.Render(c, page, layout), nil
}

// spread copies the fields of v into dst, keyed by JSON field name. Structs,
// pointers to structs, and map[string]any are supported; anything else
// contributes nothing.
func spread(dst map[string]any, v any) {
	if m, ok := v.(map[string]any); ok {
		for k, val := range m {
			dst[k] = val
		}
		return
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omit := jsonFieldName(field)
		if name == "" {
			continue
		}
		val := rv.Field(i)
		if omit && val.IsZero() {
			continue
		}
		dst[name] = val.Interface()
	}
}

// jsonFieldName resolves the prop-bag key for a struct field from its json
// tag, falling back to the field name. The second return reports omitempty.
func jsonFieldName(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = field.Name
	}
	omit := false
	for _, opt := range strings.Split(opts, ",") {
		if opt == "omitempty" {
			omit = true
		}
	}
	return name, omit
}
