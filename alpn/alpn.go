// Package alpn implements the multicast HTTP/3 profile's single ALPN
// token (spec §6 "ALPN") plus the session-id hex helpers named in spec
// §4 Misc.
package alpn

import (
	"encoding/hex"
	"fmt"
)

// Token is the single protocol token this profile negotiates, in place
// of regular HTTP/3's "h3" family (spec §6).
const Token = "hqm-05"

// SelectALPN scans a client-offered list of length-prefixed protocol
// name strings (the shape TLS's ALPN extension and quic-go's
// tls.ClientHelloInfo.SupportedProtos both use) and returns Token if the
// client offered it, or an error if it did not. The engine is
// single-threaded (spec §5), so there is never concurrent contention
// to de-duplicate here; a plain per-call scan over each session's own
// offered list is both correct and the simplest implementation of
// spec §9's design flag ("relocate the global mutable ALPN cache to
// per-session state, or build it lazily").
func SelectALPN(offered []string) (string, error) {
	for _, p := range offered {
		if p == Token {
			return Token, nil
		}
	}
	return "", fmt.Errorf("alpn: client did not offer %q", Token)
}

// EncodeSessionID renders a session id as lowercase hex, the form spec
// §4 Misc's session-id helpers use in logs and debug dumps.
func EncodeSessionID(id []byte) string {
	return hex.EncodeToString(id)
}

// DecodeSessionID parses a session id previously produced by
// EncodeSessionID.
func DecodeSessionID(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("alpn: decode session id: %w", err)
	}
	return b, nil
}
