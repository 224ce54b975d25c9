package reassemble_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/saitolume/hqmcast/frame"
	"github.com/saitolume/hqmcast/reassemble"
	"github.com/saitolume/hqmcast/varint"
)

func dataPayload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

// Scenario 1: in-order delivery.
func TestInOrderDelivery(t *testing.T) {
	payload := dataPayload(98)
	encoded := frame.EncodeData(payload)

	var delivered []byte
	var finSeen bool
	r := reassemble.New(reassemble.Handlers{
		OnData: func(bodyOffset uint64, data []byte, fin bool) {
			if bodyOffset != uint64(len(delivered)) {
				t.Errorf("bodyOffset = %d, want %d", bodyOffset, len(delivered))
			}
			delivered = append(delivered, data...)
			if fin {
				finSeen = true
			}
		},
	})

	if err := r.Insert(0, encoded[:50], false); err != nil {
		t.Fatalf("Insert 1: %v", err)
	}
	if err := r.Insert(50, encoded[50:], true); err != nil {
		t.Fatalf("Insert 2: %v", err)
	}

	if !bytes.Equal(delivered, payload) {
		t.Errorf("delivered %d bytes, want %d", len(delivered), len(payload))
	}
	if !finSeen {
		t.Errorf("expected fin to be observed")
	}
}

// Scenario 2: reordered delivery produces identical results.
func TestReorderedDelivery(t *testing.T) {
	payload := dataPayload(98)
	encoded := frame.EncodeData(payload)

	var delivered []byte
	r := reassemble.New(reassemble.Handlers{
		OnData: func(_ uint64, data []byte, _ bool) {
			delivered = append(delivered, data...)
		},
	})

	if err := r.Insert(50, encoded[50:], true); err != nil {
		t.Fatalf("Insert 1: %v", err)
	}
	if len(delivered) != 0 {
		t.Fatalf("no bytes should be delivered until the header arrives, got %d", len(delivered))
	}
	if err := r.Insert(0, encoded[:50], false); err != nil {
		t.Fatalf("Insert 2: %v", err)
	}

	if !bytes.Equal(delivered, payload) {
		t.Errorf("delivered %d bytes, want %d", len(delivered), len(payload))
	}
}

// Scenario 3: overlapping retransmit collapses to a single delivery.
func TestOverlappingRetransmit(t *testing.T) {
	payload := dataPayload(98)
	encoded := frame.EncodeData(payload)

	var deliveries int
	var delivered []byte
	r := reassemble.New(reassemble.Handlers{
		OnData: func(_ uint64, data []byte, _ bool) {
			deliveries++
			delivered = append(delivered, data...)
		},
	})

	if err := r.Insert(0, encoded[0:40], false); err != nil {
		t.Fatalf("Insert 1: %v", err)
	}
	if err := r.Insert(30, encoded[30:70], false); err != nil {
		t.Fatalf("Insert 2: %v", err)
	}
	if err := r.Insert(60, encoded[60:], true); err != nil {
		t.Fatalf("Insert 3: %v", err)
	}

	if !bytes.Equal(delivered, payload) {
		t.Errorf("delivered %v, want %v", delivered, payload)
	}
}

// Scenario 4: HEADERS, then DATA, then trailer HEADERS.
func TestHeadersDataTrailers(t *testing.T) {
	headersFrame := frame.EncodeHeaders([]byte("fake-compressed-headers"))
	dataFrame := frame.EncodeData([]byte("body bytes"))
	trailerFrame := frame.EncodeHeaders([]byte("fake-compressed-trailers"))

	var gotHeaders, gotTrailers [][]byte
	var gotData []byte
	r := reassemble.New(reassemble.Handlers{
		OnData: func(_ uint64, data []byte, _ bool) {
			gotData = append(gotData, data...)
		},
		OnFrame: func(typ frame.Type, payload []byte, fin bool) error {
			if typ != frame.TypeHeaders {
				t.Fatalf("unexpected frame type %v", typ)
			}
			if len(gotHeaders) == 0 {
				gotHeaders = append(gotHeaders, append([]byte(nil), payload...))
			} else {
				gotTrailers = append(gotTrailers, append([]byte(nil), payload...))
			}
			return nil
		},
	})

	all := append(append(append([]byte{}, headersFrame...), dataFrame...), trailerFrame...)
	if err := r.Insert(0, all, true); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if len(gotHeaders) != 1 {
		t.Fatalf("got %d leading HEADERS frames, want 1", len(gotHeaders))
	}
	if string(gotData) != "body bytes" {
		t.Errorf("gotData = %q", gotData)
	}
	if len(gotTrailers) != 1 {
		t.Fatalf("got %d trailer HEADERS frames, want 1", len(gotTrailers))
	}
}

// A later trailer HEADERS frame must not be dispatched before an earlier,
// still-incomplete non-DATA frame completes (spec §4.3 ordering
// constraint), even though DATA frames are exempt from that rule.
func TestNonDataOrderingGate(t *testing.T) {
	headersFrame := frame.EncodeHeaders([]byte("0123456789"))
	trailerFrame := frame.EncodeHeaders([]byte("trailer-body"))

	var order []string
	r := reassemble.New(reassemble.Handlers{
		OnData: func(uint64, []byte, bool) {},
		OnFrame: func(typ frame.Type, payload []byte, fin bool) error {
			order = append(order, string(payload))
			return nil
		},
	})

	// Feed the trailer HEADERS frame (fully) before the leading HEADERS
	// frame is complete.
	if err := r.Insert(uint64(len(headersFrame)), trailerFrame, true); err != nil {
		t.Fatalf("Insert trailer: %v", err)
	}
	if len(order) != 0 {
		t.Fatalf("trailer dispatched before the leading HEADERS completed: %v", order)
	}
	if err := r.Insert(0, headersFrame, false); err != nil {
		t.Fatalf("Insert leading headers: %v", err)
	}

	if len(order) != 2 || order[0] != "0123456789" || order[1] != "trailer-body" {
		t.Fatalf("dispatch order = %v, want [leading headers, trailer]", order)
	}
}

// A SETTINGS header declaring a payload well past MaxControlFrameLength must
// be rejected before any Payload buffer is allocated for it.
func TestOversizedControlFrameLengthRejected(t *testing.T) {
	var hdr bytes.Buffer
	varint.Write(&hdr, uint64(frame.TypeSettings))
	varint.Write(&hdr, reassemble.MaxControlFrameLength+1)

	r := reassemble.New(reassemble.Handlers{
		OnData:  func(uint64, []byte, bool) {},
		OnFrame: func(frame.Type, []byte, bool) error { return nil },
	})

	err := r.Insert(0, hdr.Bytes(), false)
	if err == nil {
		t.Fatal("expected an error for an oversized control frame length")
	}
	if !strings.Contains(err.Error(), "too large") {
		t.Fatalf("err = %v, want a FrameLengthError-shaped message", err)
	}
}
