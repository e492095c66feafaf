package cart

import (
	"reflect"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	lines := []Line{{ProductID: 7, Quantity: 2}, {ProductID: 3, Quantity: 1}}

	raw, err := Encode(lines)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(raw) != `[{"productId":7,"quantity":2},{"productId":3,"quantity":1}]` {
		t.Fatalf("unexpected wire format %s", raw)
	}
	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, lines) {
		t.Fatalf("round trip mismatch: %+v vs %+v", decoded, lines)
	}
}

func TestEncodeEmpty(t *testing.T) {
	raw, err := Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(raw) != "[]" {
		t.Fatalf("expected empty array, got %s", raw)
	}
	decoded, err := Decode(nil)
	if err != nil || len(decoded) != 0 {
		t.Fatalf("expected empty cart, got %+v %v", decoded, err)
	}
}

func TestDecodeRejectsInvalidPayloads(t *testing.T) {
	for _, raw := range []string{`{`, `[{"productId":0,"quantity":1}]`, `[{"productId":1,"quantity":0}]`} {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Fatalf("expected error for %s", raw)
		}
	}
}
