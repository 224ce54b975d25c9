package varint_test

import (
	"bytes"
	"testing"

	"github.com/saitolume/hqmcast/varint"
)

func TestRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 37, 63, 64, 15293, 16383, 16384, 494878333, 1<<30 - 1, 1 << 30, 1<<62 - 1}
	for _, v := range values {
		var buf bytes.Buffer
		varint.Write(&buf, v)
		got, consumed, err := varint.Append(buf.Bytes())
		if err != nil {
			t.Fatalf("Append(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip: encoded %d, decoded %d", v, got)
		}
		if consumed != len(buf.Bytes()) {
			t.Errorf("round trip: consumed %d, wrote %d bytes", consumed, len(buf.Bytes()))
		}
		if uint64(consumed) != varint.Len(v) {
			t.Errorf("Len(%d) = %d, want %d", v, varint.Len(v), consumed)
		}
	}
}

func TestAppendNeedsMoreData(t *testing.T) {
	// A 2-byte encoding prefix with only the first byte present.
	_, _, err := varint.Append([]byte{0x7f})
	if err == nil {
		t.Fatalf("expected error decoding a truncated varint")
	}
}
