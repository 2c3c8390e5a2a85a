// Package instance stores GPU instance records and flushes the bytes that
// changed since the last upload.
//
// A [Buffer] holds one record type in one array. [Table2] and [Table3]
// split a record across parallel arrays (one per vertex attribute stream)
// that always stay index aligned: position i of every column belongs to the
// same record.
package instance

import (
	"unsafe"

	"github.com/gogpu/gpures/slot"
)

// ID identifies a record in a store. The type parameter tags the record
// kind so ids from different stores cannot be mixed up.
type ID[T any] struct {
	_  [0]*T
	id slot.ID
}

// Slot returns the underlying slot id.
func (id ID[T]) Slot() slot.ID { return id.id }

// FromSlot wraps a slot id.
func FromSlot[T any](id slot.ID) ID[T] { return ID[T]{id: id} }

// ByteRange is a dirty span of one column, ready for upload.
type ByteRange struct {
	Column int
	Offset uint64
	Size   uint64
	Data   []byte // aliases the column until the next mutation
}

// End returns the byte offset just past the range.
func (r ByteRange) End() uint64 { return r.Offset + r.Size }

// View exposes one column to a renderer: raw bytes and element count.
type View struct {
	Column int
	Data   []byte
	Len    int
	Stride uint64
}

// Source is implemented by every store in this package.
type Source interface {
	// Columns returns the number of parallel arrays.
	Columns() int
	// Flush returns the dirty byte span of each changed column and resets
	// dirty tracking.
	Flush() []ByteRange
	// Views returns the current contents of every column.
	Views() []View
	// MarkAll marks every live record dirty in every column.
	MarkAll()
}

func sizeOf[T any]() uint64 {
	var zero T
	return uint64(unsafe.Sizeof(zero))
}

// byteRange converts a dense index range into a byte span of data.
func byteRange[T any](col int, r slot.Range, elems []T) (ByteRange, bool) {
	if r.Empty() {
		return ByteRange{}, false
	}
	size := sizeOf[T]()
	data := slot.SliceBytes(elems[r.Start:r.End])
	return ByteRange{
		Column: col,
		Offset: uint64(r.Start) * size, //nolint:gosec // r.Start >= 0
		Size:   uint64(len(data)),
		Data:   data,
	}, true
}

func view[T any](col int, elems []T) View {
	return View{Column: col, Data: slot.SliceBytes(elems), Len: len(elems), Stride: sizeOf[T]()}
}
