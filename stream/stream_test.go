package stream_test

import (
	"strings"
	"testing"

	"github.com/saitolume/hqmcast/frame"
	"github.com/saitolume/hqmcast/headers"
	"github.com/saitolume/hqmcast/stream"
)

func TestRequestLifecycleTransitions(t *testing.T) {
	adapter := headers.New()
	encoder := headers.New()

	var gotHeaders [][]headers.Field
	var gotTrailers [][]headers.Field
	var gotData []byte

	s := stream.New(adapter,
		func(fields []headers.Field, fin bool) error {
			if len(gotHeaders) == 0 {
				gotHeaders = append(gotHeaders, fields)
			} else {
				gotTrailers = append(gotTrailers, fields)
			}
			return nil
		},
		func(bodyOffset uint64, data []byte, fin bool) {
			gotData = append(gotData, data...)
		},
	)

	if s.RecvState != stream.StateOpen {
		t.Fatalf("initial RecvState = %v, want OPEN", s.RecvState)
	}

	leadHeaders, err := encoder.Compress([]headers.Field{
		{Name: headers.PseudoMethod, Value: "GET"},
		{Name: "trailer", Value: "x-checksum"},
	})
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	trailer, err := encoder.Compress([]headers.Field{{Name: "x-checksum", Value: "abc"}})
	if err != nil {
		t.Fatalf("Compress trailer: %v", err)
	}

	wire := append([]byte{}, frame.EncodeHeaders(leadHeaders)...)
	wire = append(wire, frame.EncodeData([]byte("payload"))...)
	wire = append(wire, frame.EncodeHeaders(trailer)...)

	if err := s.InsertRecv(0, wire, true); err != nil {
		t.Fatalf("InsertRecv: %v", err)
	}

	if s.RecvState != stream.StateDone {
		t.Fatalf("final RecvState = %v, want DONE", s.RecvState)
	}
	if len(gotHeaders) != 1 {
		t.Fatalf("got %d leading HEADERS dispatches, want 1", len(gotHeaders))
	}
	if len(gotTrailers) != 1 {
		t.Fatalf("got %d trailer HEADERS dispatches, want 1", len(gotTrailers))
	}
	if string(gotData) != "payload" {
		t.Fatalf("gotData = %q", gotData)
	}
}

func TestTrailersWithoutPromiseIsRejected(t *testing.T) {
	adapter := headers.New()
	encoder := headers.New()

	s := stream.New(adapter,
		func(fields []headers.Field, fin bool) error { return nil },
		func(bodyOffset uint64, data []byte, fin bool) {},
	)

	lead, _ := encoder.Compress([]headers.Field{{Name: headers.PseudoMethod, Value: "GET"}})
	trailer, _ := encoder.Compress([]headers.Field{{Name: "x-checksum", Value: "abc"}})

	wire := append([]byte{}, frame.EncodeHeaders(lead)...)
	wire = append(wire, frame.EncodeData([]byte("body"))...)
	wire = append(wire, frame.EncodeHeaders(trailer)...)

	err := s.InsertRecv(0, wire, true)
	if err == nil {
		t.Fatalf("expected TRAILERS_NOT_PROMISED error")
	}
}

func TestControlFrameOnRequestStreamIsMalformed(t *testing.T) {
	adapter := headers.New()

	s := stream.New(adapter,
		func(fields []headers.Field, fin bool) error { return nil },
		func(bodyOffset uint64, data []byte, fin bool) {},
	)

	wire := frame.EncodeSettings([]frame.Setting{{ID: 1, Value: 2}})
	err := s.InsertRecv(0, wire, false)
	if err == nil {
		t.Fatal("expected a malformed-frame error for SETTINGS on a request stream")
	}
	if !strings.Contains(err.Error(), "0x1") {
		t.Fatalf("err = %v, want it naming the expected frame type", err)
	}
}
