// Package params decodes route parameters into typed structs.
//
// Route patterns like /projects/{id} yield string parameter maps; handlers
// declare a struct whose fields map to parameters via `param` tags:
//
//	type ShowParams struct {
//	    ID   int    `param:"id"`
//	    Slug string `param:"slug"`
//	}
//
// Field mappings and converters are pre-computed at registration time.
// Absent or unconvertible values leave the field at its zero value.
package params

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Decoder decodes parameter maps into values of T. Build one per
// registration with NewDecoder and reuse it across requests.
type Decoder[T any] struct {
	fields []fieldInfo
	typ    reflect.Type
	isPtr  bool
}

// fieldInfo holds pre-computed information for one struct field.
type fieldInfo struct {
	index     int
	paramName string
	converter func(string) (reflect.Value, error)
}

// NewDecoder builds a Decoder for T. T must be a struct or pointer to
// struct; anything else is a configuration error.
func NewDecoder[T any]() (*Decoder[T], error) {
	var zero T
	typ := reflect.TypeOf(zero)
	if typ == nil {
		return nil, fmt.Errorf("params: type must be a struct, got interface")
	}

	isPtr := typ.Kind() == reflect.Pointer
	if isPtr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("params: type must be a struct, got %v", typ.Kind())
	}

	var fields []fieldInfo
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		paramName := field.Tag.Get("param")
		if paramName == "" {
			paramName = strings.ToLower(field.Name)
		}
		if paramName == "-" {
			continue
		}

		fields = append(fields, fieldInfo{
			index:     i,
			paramName: paramName,
			converter: converterFor(field.Type),
		})
	}

	return &Decoder[T]{fields: fields, typ: typ, isPtr: isPtr}, nil
}

// Decode populates a new T from the parameter map. Missing and invalid
// values leave the corresponding field zero.
func (d *Decoder[T]) Decode(values map[string]string) T {
	structVal := reflect.New(d.typ).Elem()

	for _, fi := range d.fields {
		raw, ok := values[fi.paramName]
		if !ok || raw == "" {
			continue
		}
		converted, err := fi.converter(raw)
		if err != nil {
			continue
		}
		structVal.Field(fi.index).Set(converted)
	}

	if d.isPtr {
		ptr := reflect.New(d.typ)
		ptr.Elem().Set(structVal)
		return ptr.Interface().(T)
	}
	return structVal.Interface().(T)
}

// Decode is a convenience for one-off decoding without a pre-built Decoder.
func Decode[T any](values map[string]string) (T, error) {
	d, err := NewDecoder[T]()
	if err != nil {
		var zero T
		return zero, err
	}
	return d.Decode(values), nil
}

// converterFor returns a string-to-value converter for the given type.
func converterFor(t reflect.Type) func(string) (reflect.Value, error) {
	if t.Kind() == reflect.Pointer {
		elem := t.Elem()
		elemConv := converterFor(elem)
		return func(s string) (reflect.Value, error) {
			val, err := elemConv(s)
			if err != nil {
				return reflect.Value{}, err
			}
			ptr := reflect.New(elem)
			ptr.Elem().Set(val)
			return ptr, nil
		}
	}

	textUnmarshaler := reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	if reflect.PointerTo(t).Implements(textUnmarshaler) {
		return func(s string) (reflect.Value, error) {
			ptr := reflect.New(t)
			u := ptr.Interface().(encoding.TextUnmarshaler)
			if err := u.UnmarshalText([]byte(s)); err != nil {
				return reflect.Value{}, err
			}
			return ptr.Elem(), nil
		}
	}

	switch t.Kind() {
	case reflect.String:
		return func(s string) (reflect.Value, error) {
			return reflect.ValueOf(s).Convert(t), nil
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(s string) (reflect.Value, error) {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(n).Convert(t), nil
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(s string) (reflect.Value, error) {
			n, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(n).Convert(t), nil
		}

	case reflect.Float32, reflect.Float64:
		return func(s string) (reflect.Value, error) {
			n, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(n).Convert(t), nil
		}

	case reflect.Bool:
		return func(s string) (reflect.Value, error) {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(b).Convert(t), nil
		}

	default:
		// Catch-all segments ([...slug]) arrive slash-joined.
		if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.String {
			return func(s string) (reflect.Value, error) {
				var parts []string
				if s != "" {
					parts = strings.Split(s, "/")
				}
				return reflect.ValueOf(parts).Convert(t), nil
			}
		}
		return func(string) (reflect.Value, error) {
			return reflect.Value{}, fmt.Errorf("params: unsupported field type: %v", t)
		}
	}
}
