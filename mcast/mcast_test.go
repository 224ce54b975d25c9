package mcast_test

import (
	"testing"

	"github.com/saitolume/hqmcast/mcast"
)

// Spec §8 reassembly scenario 7: given a short-header packet with packet
// number 0x34 and a prior remote packet number of 0x0132, the
// synthesised ACK's Largest Acknowledged must equal 0x0134.
func TestReconstructPacketNumber(t *testing.T) {
	got := mcast.ReconstructPacketNumber(0x0132, 0x34)
	if got != 0x0134 {
		t.Fatalf("ReconstructPacketNumber(0x132, 0x34) = %#x, want 0x134", got)
	}
}

func TestPacketNumberTrackerAdvances(t *testing.T) {
	var tr mcast.PacketNumberTracker
	first := tr.Reconstruct(0x05)
	if first != 0x05 {
		t.Fatalf("first reconstruction = %#x, want 0x05", first)
	}
	second := tr.Reconstruct(0x34)
	if second != 0x34 {
		t.Fatalf("second reconstruction = %#x, want 0x34 (no wraparound needed yet)", second)
	}
}

func TestFakeACKGeneratorProducesMinimumSizedPacket(t *testing.T) {
	gen := mcast.NewFakeACKGenerator()
	pkt := gen.Generate(mcast.PacketHeader{ConnID: []byte{1, 2, 3, 4}, TruncatedPktNum: 0x34})
	// 1 header byte + 4 conn-id bytes + 1 packet-number byte + >= 16 ACK bytes.
	if len(pkt) < 1+4+1+16 {
		t.Fatalf("fake ACK packet too small: %d bytes", len(pkt))
	}
}

func TestMagicKeysSealOpenRoundTrip(t *testing.T) {
	keys, err := mcast.DeriveMagicKeys(mcast.LevelInitial)
	if err != nil {
		t.Fatalf("DeriveMagicKeys: %v", err)
	}
	aad := []byte{0xc0}
	sealed := keys.Seal(0, aad, []byte("hello"))
	opened, err := keys.Open(0, aad, sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(opened) != "hello" {
		t.Fatalf("opened = %q, want %q", opened, "hello")
	}
}

func TestMagicKeysAreDeterministic(t *testing.T) {
	a, err := mcast.DeriveMagicKeys(mcast.LevelApplication)
	if err != nil {
		t.Fatalf("DeriveMagicKeys: %v", err)
	}
	b, err := mcast.DeriveMagicKeys(mcast.LevelApplication)
	if err != nil {
		t.Fatalf("DeriveMagicKeys: %v", err)
	}
	sealed := a.Seal(1, nil, []byte("x"))
	opened, err := b.Open(1, nil, sealed)
	if err != nil {
		t.Fatalf("a separately-derived instance could not open the other's ciphertext: %v", err)
	}
	if string(opened) != "x" {
		t.Fatalf("opened = %q", opened)
	}
}
