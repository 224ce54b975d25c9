package alpn_test

import (
	"fmt"
	"testing"

	"github.com/saitolume/hqmcast/alpn"
)

func TestSelectALPNFound(t *testing.T) {
	got, err := alpn.SelectALPN([]string{"h3", alpn.Token, "h3-29"})
	if err != nil {
		t.Fatalf("SelectALPN: %v", err)
	}
	if got != alpn.Token {
		t.Fatalf("SelectALPN = %q, want %q", got, alpn.Token)
	}
}

func TestSelectALPNNotOffered(t *testing.T) {
	if _, err := alpn.SelectALPN([]string{"h3", "h3-29"}); err == nil {
		t.Fatal("expected error when token not offered")
	}
}

func TestSelectALPNConcurrentCallsAreIndependent(t *testing.T) {
	hitErr := make(chan error, 1)
	go func() {
		got, err := alpn.SelectALPN([]string{alpn.Token})
		if err == nil && got != alpn.Token {
			err = fmt.Errorf("got %q, want %q", got, alpn.Token)
		}
		hitErr <- err
	}()

	if _, err := alpn.SelectALPN([]string{"h3"}); err == nil {
		t.Fatal("expected error for the list that never offered the token")
	}
	if err := <-hitErr; err != nil {
		t.Fatalf("concurrent call with the token offered: %v", err)
	}
}

func TestSessionIDRoundTrip(t *testing.T) {
	id := []byte{0xde, 0xad, 0xbe, 0xef}
	enc := alpn.EncodeSessionID(id)
	if enc != "deadbeef" {
		t.Fatalf("EncodeSessionID = %q, want deadbeef", enc)
	}
	dec, err := alpn.DecodeSessionID(enc)
	if err != nil {
		t.Fatalf("DecodeSessionID: %v", err)
	}
	if string(dec) != string(id) {
		t.Fatalf("round trip mismatch: %x != %x", dec, id)
	}
}

func TestDecodeSessionIDInvalid(t *testing.T) {
	if _, err := alpn.DecodeSessionID("not-hex!"); err == nil {
		t.Fatal("expected decode error for invalid hex")
	}
}
