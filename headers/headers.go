// Package headers is the header-compression adapter (spec §4.1, component
// "Header compression adapter"). It wraps marten-seemann/qpack exactly the
// way saitolume-quic-go/http3/client.go consumes it ([]qpack.HeaderField,
// qpack.Encoder/Decoder) and adds field validation via
// golang.org/x/net/http/httpguts, enforced here before a request ever
// reaches application callbacks.
package headers

import (
	"bytes"
	"fmt"

	"github.com/marten-seemann/qpack"
	"golang.org/x/net/http/httpguts"
)

// Field is a single compressed/decompressed header field.
type Field = qpack.HeaderField

// Pseudo-header names used throughout the engine.
const (
	PseudoMethod    = ":method"
	PseudoScheme    = ":scheme"
	PseudoAuthority = ":authority"
	PseudoPath      = ":path"
	PseudoStatus    = ":status"
)

// Adapter is a per-Session header-compression context. Spec §4.1/§4.3 call
// for an "opaque context" per session, never a package-level table — qpack
// encoder/decoder state is per-connection, so one Adapter is constructed
// per Session, mirroring client.go's onTrailers closure reading off the
// single qpack.Decoder owned by that request.
type Adapter struct {
	enc *qpack.Encoder
	buf bytes.Buffer
	dec *qpack.Decoder
}

// New constructs a header-compression adapter. Its qpack.Decoder is built
// with no per-field callback; decoded fields come back as the return value
// of Decompress.
func New() *Adapter {
	a := &Adapter{}
	a.enc = qpack.NewEncoder(&a.buf)
	a.dec = qpack.NewDecoder(nil)
	return a
}

// Compress encodes fields into a single compressed header block.
func (a *Adapter) Compress(fields []Field) ([]byte, error) {
	a.buf.Reset()
	for _, f := range fields {
		if err := validate(f); err != nil {
			return nil, err
		}
		if err := a.enc.WriteField(f); err != nil {
			return nil, fmt.Errorf("headers: encode %s: %w", f.Name, err)
		}
	}
	out := make([]byte, a.buf.Len())
	copy(out, a.buf.Bytes())
	return out, nil
}

// Decompress decodes a compressed header block back into fields.
func (a *Adapter) Decompress(compressed []byte) ([]Field, error) {
	fields, err := a.dec.DecodeFull(compressed)
	if err != nil {
		return nil, fmt.Errorf("headers: decode: %w", err)
	}
	for _, f := range fields {
		if err := validate(f); err != nil {
			return nil, err
		}
	}
	return fields, nil
}

func validate(f Field) error {
	if len(f.Name) == 0 {
		return fmt.Errorf("headers: empty field name")
	}
	if f.Name[0] == ':' {
		// Pseudo-headers are validated by the caller against the method/
		// request/response grammar; httpguts only covers regular fields.
		return nil
	}
	if !httpguts.ValidHeaderFieldName(f.Name) {
		return fmt.Errorf("headers: invalid field name %q", f.Name)
	}
	if !httpguts.ValidHeaderFieldValue(f.Value) {
		return fmt.Errorf("headers: invalid value for field %q", f.Name)
	}
	return nil
}

// HasTrailerField reports whether fields declare a "trailer" header,
// which the stream state machine uses to decide whether HEADERS-after-BODY
// transitions to TRAILERS (spec §4.2) or is rejected with
// TRAILERS_NOT_PROMISED.
func HasTrailerField(fields []Field) bool {
	for _, f := range fields {
		if f.Name == "trailer" {
			return true
		}
	}
	return false
}
