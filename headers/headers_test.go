package headers_test

import (
	"testing"

	"github.com/saitolume/hqmcast/headers"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	adapter := headers.New()
	fields := []headers.Field{
		{Name: headers.PseudoMethod, Value: "GET"},
		{Name: headers.PseudoScheme, Value: "http"},
		{Name: headers.PseudoPath, Value: "/x"},
		{Name: "trailer", Value: "x-checksum"},
	}

	compressed, err := adapter.Compress(fields)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	decoder := headers.New()
	got, err := decoder.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if len(got) != len(fields) {
		t.Fatalf("got %d fields, want %d", len(got), len(fields))
	}
	for i, f := range fields {
		if got[i].Name != f.Name || got[i].Value != f.Value {
			t.Errorf("field %d = %+v, want %+v", i, got[i], f)
		}
	}
	if !headers.HasTrailerField(got) {
		t.Errorf("HasTrailerField should be true when a trailer field is present")
	}
}

func TestCompressRejectsInvalidFieldValue(t *testing.T) {
	adapter := headers.New()
	_, err := adapter.Compress([]headers.Field{{Name: "x-bad", Value: "line1\r\nline2"}})
	if err == nil {
		t.Fatalf("expected an error for a header value containing CRLF")
	}
}
