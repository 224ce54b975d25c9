// +build ignore

// This is a genny (github.com/cheekybits/genny) template for a sorted,
// offset-ordered chunk list. saitolume-quic-go's own go.mod carries genny
// as a dependency; it is used upstream to specialise generic collection
// code per-type at build time via `go generate` rather than Go generics
// (this module still targets go1.16, predating type parameters). The
// Item=RecvBuffer specialisation lives in recvbuffer_list.go, next to the
// hand-written RecvBuffer type and insert/merge methods. This template
// declares only the list type, so running the go:generate directive below
// replaces recvbuffer_list.go with that one declaration.
package reassemble

//go:generate genny -in=$GOFILE -out=recvbuffer_list.go -pkg reassemble gen "Item=RecvBuffer"

import "github.com/cheekybits/genny/generic"

// Item is the genny placeholder type specialised into RecvBuffer.
type Item generic.Type

// ItemChunkList is a chunk list ordered and merged by Offset, specialised
// into recvBufferChunkList for Item=RecvBuffer.
type ItemChunkList []Item
