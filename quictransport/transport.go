// Package quictransport adapts a real github.com/lucas-clemente/quic-go
// session to the transport.Transport boundary (spec §1 "the QUIC
// transport itself... is treated as a black box"). It is the unicast
// collaborator: quic-go's public API has no raw packet injection to drive
// the multicast fake-handshake/fake-ACK machinery against, and this module
// has no multicast Transport implementation of its own.
//
// Grounded on saitolume-quic-go/http3/conn.go's connection type: one
// goroutine per accepted/opened stream copying bytes into a shared
// event queue (handleIncomingStream's per-stream goroutine shape),
// plus a dedicated accept loop (handleIncomingStreams/
// handleIncomingUniStreams) feeding a buffered channel.
package quictransport

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/lucas-clemente/quic-go"

	"github.com/saitolume/hqmcast/internal/testlog"
	"github.com/saitolume/hqmcast/transport"
)

const (
	acceptBuffer       = 16
	streamReadBufSize  = 16 << 10
	eventQueueCapacity = 256
)

// Transport implements transport.Transport over one quic-go session.
// ReadPacket and WritePacket are no-ops here: unlike the multicast
// profile's hand-rolled packet codec, a real quic-go session owns its
// socket directly and never hands raw datagrams back to its caller, so
// the engine's Recv/Send loop drives only the stream- and timer-facing
// methods below against it.
type Transport struct {
	sess quic.Session

	logger *testlog.Logger

	mu           sync.Mutex
	bidiStreams  map[transport.StreamID]quic.Stream
	sendStreams  map[transport.StreamID]quic.SendStream
	accepted     chan transport.StreamID
	acceptClosed bool

	events   []transport.StreamEvent
	eventsMu sync.Mutex

	closeOnce  sync.Once
	closeCode  uint64
	closeMsg   string
	wantsClose bool
}

// New wraps an already-established quic-go session (produced by the
// host via quic.DialAddrEarly or a quic.Listener, exactly as the
// teacher's newClient/Accept do) and starts the background accept and
// stream-reader goroutines.
func New(sess quic.Session, logger *testlog.Logger) *Transport {
	if logger == nil {
		logger = testlog.NopLogger()
	}
	t := &Transport{
		sess:        sess,
		logger:      logger,
		bidiStreams: make(map[transport.StreamID]quic.Stream),
		sendStreams: make(map[transport.StreamID]quic.SendStream),
		accepted:    make(chan transport.StreamID, acceptBuffer),
	}
	go t.acceptBidiLoop()
	go t.acceptUniLoop()
	return t
}

func (t *Transport) acceptBidiLoop() {
	for {
		str, err := t.sess.AcceptStream(context.Background())
		if err != nil {
			t.logger.Infof("accept stream: %v", err)
			t.closeAcceptChan()
			return
		}
		id := transport.StreamID(str.StreamID())
		t.mu.Lock()
		t.bidiStreams[id] = str
		t.mu.Unlock()
		go t.readLoop(id, str)
		t.accepted <- id
	}
}

func (t *Transport) acceptUniLoop() {
	for {
		str, err := t.sess.AcceptUniStream(context.Background())
		if err != nil {
			t.logger.Infof("accept uni stream: %v", err)
			return
		}
		id := transport.StreamID(str.StreamID())
		go t.readLoop(id, str)
		t.accepted <- id
	}
}

func (t *Transport) closeAcceptChan() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.acceptClosed {
		t.acceptClosed = true
		close(t.accepted)
	}
}

// readLoop copies one stream's bytes into the shared event queue until
// EOF or error, mirroring handleIncomingStream's per-stream goroutine
// (conn.go dispatches on frame type inline instead; this engine's own
// reassemble package does that job downstream of PollStreamData).
func (t *Transport) readLoop(id transport.StreamID, r io.Reader) {
	buf := make([]byte, streamReadBufSize)
	var offset uint64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			t.pushEvent(transport.StreamEvent{ID: id, Offset: offset, Data: data, Fin: false})
			offset += uint64(n)
		}
		if err != nil {
			if err == io.EOF {
				t.pushEvent(transport.StreamEvent{ID: id, Offset: offset, Fin: true})
			} else {
				t.logger.Errorf("read stream %d: %v", id, err)
			}
			return
		}
	}
}

func (t *Transport) pushEvent(ev transport.StreamEvent) {
	t.eventsMu.Lock()
	defer t.eventsMu.Unlock()
	if len(t.events) >= eventQueueCapacity {
		t.logger.Errorf("stream event queue full, dropping event for stream %d", ev.ID)
		return
	}
	t.events = append(t.events, ev)
}

// ReadPacket is a no-op: the underlying quic-go session already
// consumed this datagram on its own socket before Session.Recv could
// ever see it.
func (t *Transport) ReadPacket([]byte) error { return nil }

// WritePacket never has a datagram to hand back: quic-go writes
// directly to the wire from its own internal send loop.
func (t *Transport) WritePacket() ([]byte, bool, error) { return nil, false, nil }

func (t *Transport) WriteStream(id transport.StreamID, data []byte, fin bool) (int, int, error) {
	str, err := t.sendStreamFor(id)
	if err != nil {
		return 0, 0, err
	}
	n, err := str.Write(data)
	if err != nil {
		if errors.Is(err, quic.Err0RTTRejected) {
			return 0, n, recoverableErr{err}
		}
		return 0, n, err
	}
	if fin {
		if closer, ok := str.(interface{ Close() error }); ok {
			if cerr := closer.Close(); cerr != nil {
				return n, n, cerr
			}
		}
	}
	return n, n, nil
}

func (t *Transport) sendStreamFor(id transport.StreamID) (quic.SendStream, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if str, ok := t.bidiStreams[id]; ok {
		return str, nil
	}
	if str, ok := t.sendStreams[id]; ok {
		return str, nil
	}
	return nil, herrNotFound(id)
}

func (t *Transport) OpenBidiStream() (transport.StreamID, error) {
	str, err := t.sess.OpenStreamSync(context.Background())
	if err != nil {
		return 0, err
	}
	id := transport.StreamID(str.StreamID())
	t.mu.Lock()
	t.bidiStreams[id] = str
	t.mu.Unlock()
	go t.readLoop(id, str)
	return id, nil
}

func (t *Transport) OpenUniStream() (transport.StreamID, error) {
	str, err := t.sess.OpenUniStreamSync(context.Background())
	if err != nil {
		return 0, err
	}
	id := transport.StreamID(str.StreamID())
	t.mu.Lock()
	t.sendStreams[id] = str
	t.mu.Unlock()
	return id, nil
}

func (t *Transport) ShutdownStream(id transport.StreamID, code uint64) error {
	t.mu.Lock()
	bidi, bidiOK := t.bidiStreams[id]
	uni, uniOK := t.sendStreams[id]
	t.mu.Unlock()
	switch {
	case bidiOK:
		bidi.CancelWrite(quic.StreamErrorCode(code))
		bidi.CancelRead(quic.StreamErrorCode(code))
		return nil
	case uniOK:
		uni.CancelWrite(quic.StreamErrorCode(code))
		return nil
	default:
		return herrNotFound(id)
	}
}

// Close asks quic-go for a real CONNECTION_CLOSE (spec §4.7 unicast
// close path), mirroring connection.CloseWithError.
func (t *Transport) Close(code uint64, reason string) error {
	var err error
	t.closeOnce.Do(func() {
		err = t.sess.CloseWithError(quic.ApplicationErrorCode(code), reason)
	})
	return err
}

func (t *Transport) PollStreamData() []transport.StreamEvent {
	t.eventsMu.Lock()
	defer t.eventsMu.Unlock()
	if len(t.events) == 0 {
		return nil
	}
	out := t.events
	t.events = nil
	return out
}

func (t *Transport) AcceptStream() (transport.StreamID, bool) {
	select {
	case id, ok := <-t.accepted:
		return id, ok
	default:
		return 0, false
	}
}

// BytesInFlight has no public quic-go equivalent (congestion control
// state is internal), so this reports zero and the send pipeline's
// bytes-in-flight check (spec §4.4 step 1) never blocks over this
// adapter; the real quic-go session enforces flow control on its own
// regardless of what this engine's send pipeline believes.
func (t *Transport) BytesInFlight() uint64 { return 0 }

// LossDetectionExpiry/AckDelayExpiry have no public quic-go accessor
// either (both live on the unexported sentPacketHandler); returning
// the zero time means the timer adapter simply never arms these for a
// real unicast session, which is consistent with quic-go running its
// own loss detection and ACK scheduling internally.
func (t *Transport) LossDetectionExpiry() time.Time { return time.Time{} }
func (t *Transport) AckDelayExpiry() time.Time      { return time.Time{} }

func (t *Transport) OnLossDetectionTimer() error { return nil }

func (t *Transport) GetTransportParams() ([]byte, error) {
	return nil, errors.New("quictransport: transport parameters are negotiated internally by quic-go")
}

func (t *Transport) FeedTransportParams([]byte) error {
	return errors.New("quictransport: transport parameters are negotiated internally by quic-go")
}

type recoverableErr struct{ error }

func (recoverableErr) Recoverable() bool { return true }

type notFoundErr transport.StreamID

func (e notFoundErr) Error() string   { return "quictransport: stream not found" }
func (notFoundErr) Recoverable() bool { return true }

func herrNotFound(id transport.StreamID) error { return notFoundErr(id) }

var _ transport.Transport = (*Transport)(nil)
var _ transport.RecoverableError = recoverableErr{}
var _ transport.RecoverableError = notFoundErr(0)
