// Package codec defines the serialization boundary the composed props cross
// between the server pipeline and the render side. The pipeline applies a
// Codec as its final step; the render adapter reverses it. A nil Codec means
// pass-through: the in-memory value is handed over unchanged.
package codec

import "encoding/json"

// Codec is a serialize/deserialize transform pair.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// JSON is the default codec.
type JSON struct {
	// Indent enables indented output, for development endpoints.
	Indent bool
}

// Encode marshals v as JSON.
func (c JSON) Encode(v any) ([]byte, error) {
	if c.Indent {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// Decode unmarshals JSON data into v.
func (c JSON) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Pair adapts separate encode/decode functions into a Codec, for callers with
// an existing transform pair.
type Pair struct {
	EncodeFunc func(v any) ([]byte, error)
	DecodeFunc func(data []byte, v any) error
}

// Encode applies EncodeFunc.
func (p Pair) Encode(v any) ([]byte, error) { return p.EncodeFunc(v) }

// Decode applies DecodeFunc.
func (p Pair) Decode(data []byte, v any) error { return p.DecodeFunc(data, v) }
