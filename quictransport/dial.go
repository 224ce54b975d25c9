package quictransport

import (
	"context"
	"crypto/tls"

	"github.com/lucas-clemente/quic-go"

	"github.com/saitolume/hqmcast/alpn"
	"github.com/saitolume/hqmcast/internal/testlog"
)

// defaultQuicConfig mirrors client.go's keepalive-on default rather
// than leaving every quic.Config field at its zero value.
var defaultQuicConfig = &quic.Config{
	KeepAlive: true,
}

// Dial opens a client-role quic-go session against authority and wraps
// it, negotiating the multicast-profile ALPN token (spec §2.2) instead
// of h3. Grounded on client.go's client.dial, minus the dialer
// injection hook (this repo has no http.RoundTripper to plumb it
// through).
func Dial(ctx context.Context, authority string, tlsConf *tls.Config, quicConf *quic.Config, logger *testlog.Logger) (*Transport, error) {
	if quicConf == nil {
		quicConf = defaultQuicConfig.Clone()
	}
	if tlsConf == nil {
		tlsConf = &tls.Config{}
	} else {
		tlsConf = tlsConf.Clone()
	}
	tlsConf.NextProtos = []string{alpn.Token}

	sess, err := quic.DialAddrContext(ctx, authority, tlsConf, quicConf)
	if err != nil {
		return nil, err
	}
	return New(sess, logger), nil
}

// Listen accepts one server-role quic-go session on an already-bound
// listener, the Accept-side counterpart to Dial (teacher's Accept).
func Listen(ctx context.Context, ln quic.Listener) (*Transport, error) {
	sess, err := ln.Accept(ctx)
	if err != nil {
		return nil, err
	}
	return New(sess, nil), nil
}

// NewListener builds a quic-go listener bound to addr, negotiating the
// multicast-profile ALPN token the same way Dial does.
func NewListener(addr string, tlsConf *tls.Config, quicConf *quic.Config) (quic.Listener, error) {
	if quicConf == nil {
		quicConf = defaultQuicConfig.Clone()
	}
	if tlsConf == nil {
		tlsConf = &tls.Config{}
	} else {
		tlsConf = tlsConf.Clone()
	}
	tlsConf.NextProtos = []string{alpn.Token}
	return quic.ListenAddr(addr, tlsConf, quicConf)
}
