// Package mcast fabricates the one-sided QUIC traffic the multicast
// profile needs (spec §4.5): fixed "magic" keys at every encryption level,
// a fake handshake, and fake ACKs fed back into the sender's own receive
// path so the transport's loss-detection machinery stays quiescent.
package mcast

// pktNumMask returns the mask implied by the encoded width of a truncated
// packet number, per the standard QUIC packet-number encoding: the width
// is inferred from the magnitude of the truncated value itself, exactly as
// original_source/lib/nghq.c's _pkt_num_mask does.
func pktNumMask(truncated uint64) uint64 {
	switch {
	case truncated < 0x100:
		return 0xff
	case truncated < 0x10000:
		return 0xffff
	default:
		return 0xffffffff
	}
}

// ReconstructPacketNumber recovers the full packet number from a
// truncated wire value and the last-seen full packet number, applying the
// mask implied by the encoded width, copying high bits from the
// last-seen value, and adding mask+1 if still behind (spec §4.5's
// "Fake ACK generator"; ported from nghq.c's _calc_pkt_number).
func ReconstructPacketNumber(lastSeen, truncated uint64) uint64 {
	rv := truncated
	if rv < lastSeen {
		mask := pktNumMask(truncated)
		rv |= lastSeen &^ mask
		if rv < lastSeen {
			rv += mask + 1
		}
	}
	return rv
}

// PacketNumberTracker holds the rolling last-seen-remote-packet-number
// state a FakeACKGenerator needs across calls.
type PacketNumberTracker struct {
	lastSeen uint64
}

// Reconstruct feeds one more observed truncated packet number through
// ReconstructPacketNumber and updates the tracker's high-bit context.
func (t *PacketNumberTracker) Reconstruct(truncated uint64) uint64 {
	full := ReconstructPacketNumber(t.lastSeen, truncated)
	t.lastSeen = full
	return full
}
