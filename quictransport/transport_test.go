package quictransport

import (
	"errors"
	"strings"
	"testing"

	"github.com/lucas-clemente/quic-go"

	"github.com/saitolume/hqmcast/internal/testlog"
	"github.com/saitolume/hqmcast/transport"
)

func TestPushEventAndDrain(t *testing.T) {
	tr := &Transport{logger: testlog.NopLogger()}
	tr.pushEvent(transport.StreamEvent{ID: 1, Offset: 0, Data: []byte("a")})
	tr.pushEvent(transport.StreamEvent{ID: 1, Offset: 1, Data: []byte("b")})

	got := tr.PollStreamData()
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if string(got[0].Data) != "a" || string(got[1].Data) != "b" {
		t.Fatalf("unexpected event contents: %+v", got)
	}

	if got := tr.PollStreamData(); got != nil {
		t.Fatalf("expected nil after drain, got %v", got)
	}
}

func TestPushEventQueueCapDrops(t *testing.T) {
	tr := &Transport{logger: testlog.NopLogger()}
	for i := 0; i < eventQueueCapacity+5; i++ {
		tr.pushEvent(transport.StreamEvent{ID: transport.StreamID(i)})
	}
	got := tr.PollStreamData()
	if len(got) != eventQueueCapacity {
		t.Fatalf("expected queue capped at %d, got %d", eventQueueCapacity, len(got))
	}
}

func TestReadLoopEmitsDataThenFin(t *testing.T) {
	tr := &Transport{logger: testlog.NopLogger()}
	r := strings.NewReader("hello")
	tr.readLoop(7, r)

	events := tr.PollStreamData()
	if len(events) != 2 {
		t.Fatalf("expected a data event and a fin event, got %d", len(events))
	}
	if string(events[0].Data) != "hello" || events[0].Fin {
		t.Fatalf("unexpected data event: %+v", events[0])
	}
	if !events[1].Fin || events[1].Offset != 5 {
		t.Fatalf("unexpected fin event: %+v", events[1])
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestReadLoopLogsNonEOFErrors(t *testing.T) {
	tr := &Transport{logger: testlog.NopLogger()}
	tr.readLoop(3, errReader{err: errors.New("boom")})

	if got := tr.PollStreamData(); got != nil {
		t.Fatalf("expected no fin event on a non-EOF error, got %v", got)
	}
}

func TestAcceptStreamNonBlocking(t *testing.T) {
	tr := &Transport{accepted: make(chan transport.StreamID, 1)}
	if _, ok := tr.AcceptStream(); ok {
		t.Fatalf("expected no pending stream")
	}
	tr.accepted <- transport.StreamID(42)
	id, ok := tr.AcceptStream()
	if !ok || id != 42 {
		t.Fatalf("expected stream 42, got %d ok=%v", id, ok)
	}
}

func TestWriteStreamUnknownIDIsRecoverable(t *testing.T) {
	tr := &Transport{bidiStreams: make(map[transport.StreamID]quic.Stream), sendStreams: make(map[transport.StreamID]quic.SendStream)}
	_, _, err := tr.WriteStream(9, []byte("x"), false)
	if err == nil {
		t.Fatalf("expected error for unknown stream id")
	}
	re, ok := err.(transport.RecoverableError)
	if !ok || !re.Recoverable() {
		t.Fatalf("expected a recoverable error, got %v", err)
	}
}

func TestNotFoundErrorIsRecoverable(t *testing.T) {
	var err error = notFoundErr(5)
	re, ok := err.(transport.RecoverableError)
	if !ok || !re.Recoverable() {
		t.Fatalf("expected notFoundErr to satisfy RecoverableError")
	}
}
