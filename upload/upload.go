// Package upload moves dirty instance bytes into GPU buffers.
//
// The package never talks to a GPU itself. It writes through a [Sink] and,
// when a buffer is too small, reports a [GrowRequest] instead of growing
// it. The owner of the buffers reallocates, rebinds the new capacity with
// [Stream.Bind] and the next flush re-uploads the whole column.
package upload

import (
	"errors"
	"math/bits"
)

// BufferID names a buffer owned by the sink side.
type BufferID uint64

// NoBuffer is the zero BufferID. Devices never hand it out.
const NoBuffer BufferID = 0

// Sink schedules buffer writes. Implementations copy data before
// returning; callers reuse the slice.
type Sink interface {
	WriteBuffer(id BufferID, offset uint64, data []byte) error
}

// Usage selects what a buffer is created for.
type Usage uint8

// Buffer usages.
const (
	UsageVertex Usage = iota
	UsageIndirect
)

func (u Usage) String() string {
	switch u {
	case UsageVertex:
		return "vertex"
	case UsageIndirect:
		return "indirect"
	default:
		return "unknown"
	}
}

// Device is a Sink that can also create and reallocate buffers.
type Device interface {
	Sink
	CreateBuffer(label string, size uint64, usage Usage) (BufferID, error)
	// ResizeBuffer reallocates id with at least size bytes. Contents are
	// not preserved.
	ResizeBuffer(id BufferID, size uint64) error
}

const (
	// MinBufferSize is the smallest buffer a GrowRequest asks for.
	MinBufferSize = 1024

	// CopyAlignment is the required alignment of write offsets and sizes.
	CopyAlignment = 4
)

// ErrOutOfBounds is returned by sinks for writes past the buffer end.
var ErrOutOfBounds = errors.New("upload: write out of bounds")

// RequiredSize returns the buffer size to allocate for need bytes: the
// next power of two, at least MinBufferSize.
func RequiredSize(need uint64) uint64 {
	if need <= MinBufferSize {
		return MinBufferSize
	}
	return 1 << bits.Len64(need-1)
}

func alignUp(n uint64) uint64   { return (n + CopyAlignment - 1) &^ (CopyAlignment - 1) }
func alignDown(n uint64) uint64 { return n &^ (CopyAlignment - 1) }

// Binding is the buffer currently backing one column.
type Binding struct {
	Buffer   BufferID
	Capacity uint64
}

// GrowRequest asks the buffer owner for a larger buffer.
type GrowRequest struct {
	Column   int
	Buffer   BufferID
	Current  uint64
	Required uint64
}
