// Package frame encodes and decodes the HTTP/QUIC-mcast frame set (spec
// §4.1): a varint type, a varint length, and a type-specific body. Integer
// encoding is delegated to varint, which itself wraps quic-go's own
// quicvarint package the way saitolume-quic-go/http3/conn.go does.
package frame

import (
	"bytes"
	"errors"
	"io"

	"github.com/saitolume/hqmcast/varint"
)

// ErrNeedMore is the decoder's sentinel for "not enough bytes yet" (spec
// §4.1's "need more").
var ErrNeedMore = errors.New("frame: need more data")

// Header is a decoded frame header: type and declared payload length.
type Header struct {
	Type   Type
	Length uint64
}

// ParseHeader decodes a frame's type and length prefix from the front of b.
// It returns the number of bytes consumed by the header alone (not
// including the body). If b does not yet contain a full header,
// ParseHeader returns ErrNeedMore.
func ParseHeader(b []byte) (hdr Header, consumed int, err error) {
	typ, n, err := varint.Append(b)
	if err != nil {
		return Header{}, 0, ErrNeedMore
	}
	length, m, err := varint.Append(b[n:])
	if err != nil {
		return Header{}, 0, ErrNeedMore
	}
	return Header{Type: Type(typ), Length: length}, n + m, nil
}

// Parse decodes one complete frame (header + body) from the front of b. It
// returns the total number of bytes consumed, the frame type, and a view
// into b covering the body. If the full frame is not yet available, Parse
// returns ErrNeedMore and the caller should retry once more bytes arrive.
func Parse(b []byte) (consumed int, typ Type, body []byte, err error) {
	hdr, hdrLen, err := ParseHeader(b)
	if err != nil {
		return 0, 0, nil, err
	}
	total := hdrLen + int(hdr.Length)
	if len(b) < total {
		return 0, 0, nil, ErrNeedMore
	}
	return total, hdr.Type, b[hdrLen:total], nil
}

func encode(typ Type, body []byte) []byte {
	var buf bytes.Buffer
	varint.Write(&buf, uint64(typ))
	varint.Write(&buf, uint64(len(body)))
	buf.Write(body)
	return buf.Bytes()
}

// EncodeData encodes a DATA frame. Callers typically avoid materialising
// the payload via this helper on the hot path (the reassembler streams
// DATA bodies directly per spec §4.3) but it is used by the send pipeline,
// which always has the full chunk in hand already.
func EncodeData(payload []byte) []byte {
	return encode(TypeData, payload)
}

// EncodeHeaders encodes a HEADERS frame carrying an already-compressed
// header block.
func EncodeHeaders(compressed []byte) []byte {
	return encode(TypeHeaders, compressed)
}

// EncodePriority encodes a PRIORITY frame from a pre-built body.
func EncodePriority(body []byte) []byte {
	return encode(TypePriority, body)
}

// EncodeCancelPush encodes a CANCEL_PUSH frame naming a push id.
func EncodeCancelPush(pushID uint64) []byte {
	var body bytes.Buffer
	varint.Write(&body, pushID)
	return encode(TypeCancelPush, body.Bytes())
}

// Setting is one SETTINGS identifier/value pair.
type Setting struct {
	ID    uint64
	Value uint64
}

// EncodeSettings encodes a SETTINGS frame.
func EncodeSettings(settings []Setting) []byte {
	var body bytes.Buffer
	for _, s := range settings {
		varint.Write(&body, s.ID)
		varint.Write(&body, s.Value)
	}
	return encode(TypeSettings, body.Bytes())
}

// DecodeSettings parses a SETTINGS frame body.
func DecodeSettings(body []byte) ([]Setting, error) {
	r := bytes.NewReader(body)
	var out []Setting
	for r.Len() > 0 {
		id, err := varint.Read(r)
		if err != nil {
			return nil, err
		}
		val, err := varint.Read(r)
		if err != nil {
			return nil, err
		}
		out = append(out, Setting{ID: id, Value: val})
	}
	return out, nil
}

// EncodePushPromise encodes a PUSH_PROMISE frame: a varint push id prefix
// followed by a compressed header block (spec §4.1).
func EncodePushPromise(pushID uint64, compressed []byte) []byte {
	var body bytes.Buffer
	varint.Write(&body, pushID)
	body.Write(compressed)
	return encode(TypePushPromise, body.Bytes())
}

// DecodePushPromise splits a PUSH_PROMISE frame body into its push id and
// compressed header block.
func DecodePushPromise(body []byte) (pushID uint64, compressed []byte, err error) {
	pushID, n, err := varint.Append(body)
	if err != nil {
		return 0, nil, err
	}
	return pushID, body[n:], nil
}

// EncodeGoaway encodes a GOAWAY frame naming the last accepted stream or
// push id.
func EncodeGoaway(id uint64) []byte {
	var body bytes.Buffer
	varint.Write(&body, id)
	return encode(TypeGoaway, body.Bytes())
}

// DecodeGoaway extracts the id from a GOAWAY frame body.
func DecodeGoaway(body []byte) (uint64, error) {
	id, _, err := varint.Append(body)
	return id, err
}

// EncodeMaxPushID encodes a MAX_PUSH_ID frame.
func EncodeMaxPushID(id uint64) []byte {
	var body bytes.Buffer
	varint.Write(&body, id)
	return encode(TypeMaxPushID, body.Bytes())
}

// DecodeMaxPushID extracts the id from a MAX_PUSH_ID frame body.
func DecodeMaxPushID(body []byte) (uint64, error) {
	id, _, err := varint.Append(body)
	return id, err
}

// WriteTo writes an already-encoded frame to w, following the
// io.Writer-based stream plumbing conn.go's quicvarint.NewWriter(str)
// pattern uses over returning []byte everywhere.
func WriteTo(w io.Writer, encoded []byte) (int64, error) {
	n, err := w.Write(encoded)
	return int64(n), err
}
