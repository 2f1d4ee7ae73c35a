package codec

import (
	"errors"
	"strings"
	"testing"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONRoundTrip(t *testing.T) {
	c := JSON{}

	data, err := c.Encode(payload{Name: "a", Count: 2})
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if string(data) != `{"name":"a","count":2}` {
		t.Errorf("Encode() = %s", data)
	}

	var got payload
	if err := c.Decode(data, &got); err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if got.Name != "a" || got.Count != 2 {
		t.Errorf("Decode() = %+v", got)
	}
}

func TestJSONIndent(t *testing.T) {
	data, err := JSON{Indent: true}.Encode(payload{Name: "a"})
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if !strings.Contains(string(data), "\n  ") {
		t.Errorf("Expected indented output, got %s", data)
	}
}

func TestJSONDecodeError(t *testing.T) {
	var got payload
	if err := (JSON{}).Decode([]byte("nope"), &got); err == nil {
		t.Error("Decode of malformed input must fail")
	}
}

func TestPair(t *testing.T) {
	encodeErr := errors.New("encode")
	p := Pair{
		EncodeFunc: func(any) ([]byte, error) { return nil, encodeErr },
		DecodeFunc: func(data []byte, v any) error {
			*(v.(*string)) = string(data)
			return nil
		},
	}

	if _, err := p.Encode(nil); !errors.Is(err, encodeErr) {
		t.Errorf("Encode() error = %v", err)
	}
	var s string
	if err := p.Decode([]byte("x"), &s); err != nil || s != "x" {
		t.Errorf("Decode() = (%q, %v)", s, err)
	}
}
