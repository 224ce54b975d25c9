package mcast

import (
	"bytes"

	"github.com/saitolume/hqmcast/varint"
)

// PacketHeader is the minimal short-header view the fake-ACK generator
// needs: the truncated wire packet number and the connection id bytes to
// echo back (spec §4.5's wire diagram: "Destination Connection ID" +
// truncated packet number).
type PacketHeader struct {
	ConnID          []byte
	TruncatedPktNum uint64
}

// FakeACKGenerator builds a matching ACK frame for every packet the
// multicast sender emits and feeds it back into the sender's own receive
// queue, keeping quic-go's loss-detection state machine quiescent
// (spec §4.5).
type FakeACKGenerator struct {
	tracker PacketNumberTracker
	// localPktNum is placed into the fake packet's own header as "the
	// local packet number" the way nghq.c's remote_pktnum field is. The
	// original sets it once (= 2) at session creation and never again
	// (spec §9 open question); this generator increments it once per
	// generated ACK.
	localPktNum uint64
}

// NewFakeACKGenerator constructs a generator whose local packet number
// starts at 2, matching nghq.c's session->remote_pktnum initial value.
func NewFakeACKGenerator() *FakeACKGenerator {
	return &FakeACKGenerator{localPktNum: 2}
}

// minACKPacketSize is the minimum packet size ngtcp2/QUIC header
// protection requires (spec §4.5 / nghq.c): 16 bytes of frame content.
const minACKPacketSize = 16

// Generate builds the raw bytes of a fake short-header packet carrying a
// single ACK frame acknowledging hdr's packet, and returns it ready to be
// fed into the sender's own Transport.ReadPacket.
func (g *FakeACKGenerator) Generate(hdr PacketHeader) []byte {
	realPktNum := g.tracker.Reconstruct(hdr.TruncatedPktNum)

	var ack bytes.Buffer
	varint.Write(&ack, 0x02) // frame type: ACK
	varint.Write(&ack, realPktNum)
	varint.Write(&ack, 0) // ACK delay
	varint.Write(&ack, 0) // ACK range count
	varint.Write(&ack, 0) // first ACK range

	for ack.Len() < minACKPacketSize {
		ack.WriteByte(0)
	}

	var pkt bytes.Buffer
	pkt.WriteByte(0x40) // short header, key phase 0
	pkt.Write(hdr.ConnID)
	pkt.WriteByte(byte(g.localPktNum))
	g.localPktNum++
	pkt.Write(ack.Bytes())

	return pkt.Bytes()
}
