// Package transport defines the boundary between this engine and the
// external QUIC collaborator (spec §1: "the QUIC transport itself... is
// treated as a black box"). Production code talks to quic-go through the
// quictransport adapter, whose ReadPacket/WritePacket are no-ops because
// quic-go's public API has no raw packet injection. This module contains
// no other implementation: a multicast session runs over whichever
// Transport the host supplies, and mcast only synthesises the handshake
// packets and fake ACKs it feeds through that Transport.
package transport

import "time"

// StreamID identifies a QUIC stream.
type StreamID uint64

// StreamEvent is one newly-available range of received stream bytes,
// the Go-native stand-in for the callback-driven delivery spec.md's
// abstract transport implies ("insert_recv" is fed by whatever mechanism
// the QUIC library uses to surface arrived stream bytes). Draining these
// after ReadPacket is this engine's equivalent of the original's
// recv-stream callback.
type StreamEvent struct {
	ID     StreamID
	Offset uint64
	Data   []byte
	Fin    bool
}

// Transport is the abstract operation set spec §1 and §6 list as external
// to this engine: read_pkt, write_pkt, write_stream, open_bidi_stream,
// open_uni_stream, shutdown_stream, get_bytes_in_flight,
// loss_detection_expiry, ack_delay_expiry, and the transport-parameter
// codec.
type Transport interface {
	// ReadPacket decodes and applies one incoming UDP datagram.
	ReadPacket(pkt []byte) error
	// WritePacket asks the transport to produce its next outgoing
	// datagram, or (false, nil) if it has nothing to send right now.
	WritePacket() (pkt []byte, ok bool, err error)

	// WriteStream writes data to stream id, returning the number of
	// packet bytes produced and the number of stream bytes actually
	// consumed (which may be less than len(data) under backpressure).
	WriteStream(id StreamID, data []byte, fin bool) (packetBytes, streamBytesConsumed int, err error)

	OpenBidiStream() (StreamID, error)
	OpenUniStream() (StreamID, error)
	ShutdownStream(id StreamID, code uint64) error

	// Close asks the transport to prepare a CONNECTION_CLOSE packet for
	// the next WritePacket (spec §4.7, unicast close path).
	Close(code uint64, reason string) error

	// PollStreamData drains the stream byte ranges that became available
	// since the last call, in arrival order. Called once per ReadPacket
	// (spec §4.3 stage 1 "insert_recv").
	PollStreamData() []StreamEvent

	// AcceptStream reports a peer-initiated stream the session has not
	// seen yet, if one is pending.
	AcceptStream() (id StreamID, ok bool)

	// BytesInFlight is compared against MAX_BYTES_IN_FLIGHT by the send
	// pipeline (spec §4.4 step 1).
	BytesInFlight() uint64

	// LossDetectionExpiry and AckDelayExpiry are quic-go's two named
	// expiry timestamps, read after every ReadPacket by the timer
	// adapter (spec §4.6). A zero time.Time means "never armed".
	LossDetectionExpiry() time.Time
	AckDelayExpiry() time.Time
	OnLossDetectionTimer() error

	// GetTransportParams/FeedTransportParams round-trip the negotiated
	// QUIC transport parameters (spec §6).
	GetTransportParams() ([]byte, error)
	FeedTransportParams([]byte) error
}

// RecoverableError is implemented by transport errors the send loop should
// treat as "yield and retry later" rather than session-fatal (spec §4.4:
// "stream blocked, stream shut for writing, stream not found").
type RecoverableError interface {
	error
	Recoverable() bool
}
