// Package varint provides the QUIC variable-length integer codec used by
// the frame layer.
//
// saitolume-quic-go/http3/conn.go imports quic-go's own
// "github.com/lucas-clemente/quic-go/quicvarint" package directly
// (quicvarint.NewWriter, quicvarint.Write, quicvarint.Read) to frame the
// uni-stream type prefix and the WebTransport session-id prefix. We reuse
// that exact package here rather than hand-rolling a second varint codec:
// the QUIC transport library already exposes this as public API, and the
// spec itself treats the transport-parameter/packet-number codec as the
// transport's concern — varint is the one piece of wire encoding the
// transport chooses to expose rather than hide.
package varint

import (
	"bytes"
	"io"

	"github.com/lucas-clemente/quic-go/quicvarint"
)

// Read decodes one variable-length integer from r.
func Read(r io.ByteReader) (uint64, error) {
	return quicvarint.Read(r)
}

// Write appends the variable-length encoding of v to w. w must also
// implement io.ByteWriter (quicvarint.Writer), exactly as conn.go's own
// w := quicvarint.NewWriter(str); quicvarint.Write(w, …) call sites
// require; *bytes.Buffer satisfies this directly.
func Write(w quicvarint.Writer, v uint64) {
	quicvarint.Write(w, v)
}

// Len reports the number of bytes needed to encode v.
func Len(v uint64) uint64 {
	return quicvarint.Len(v)
}

// NewReader wraps r so single-byte reads used by Read are efficient.
func NewReader(r io.Reader) quicvarint.Reader {
	return quicvarint.NewReader(r)
}

// NewWriter wraps w for Write, following conn.go's
// quicvarint.NewWriter(str) usage: a pass-through quicvarint.Writer,
// not a buffering *bufio.Writer, so there is no Flush to forget.
func NewWriter(w io.Writer) quicvarint.Writer {
	return quicvarint.NewWriter(w)
}

// Append decodes a value directly out of a byte slice, returning the value
// and the number of bytes consumed. Used by the frame codec and the
// reassembler, which both operate on byte slices rather than io.Readers.
func Append(b []byte) (v uint64, consumed int, err error) {
	r := bytes.NewReader(b)
	v, err = Read(r)
	if err != nil {
		return 0, 0, err
	}
	return v, int(Len(v)), nil
}
