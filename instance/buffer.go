package instance

import "github.com/gogpu/gpures/slot"

// Buffer is a single-array instance store.
type Buffer[T any] struct {
	store slot.Store[T]
}

// NewBuffer returns a buffer with room for capacity records.
func NewBuffer[T any](capacity int) *Buffer[T] {
	return &Buffer[T]{store: *slot.New[T](capacity)}
}

// Push inserts v.
func (b *Buffer[T]) Push(v T) ID[T] { return ID[T]{id: b.store.Push(v)} }

// Remove deletes the record. Unknown ids are ignored.
func (b *Buffer[T]) Remove(id ID[T]) bool { return b.store.Remove(id.id) }

// Get returns the record for id.
func (b *Buffer[T]) Get(id ID[T]) (T, bool) { return b.store.Get(id.id) }

// Mut returns a pointer to the record for id and marks it dirty.
func (b *Buffer[T]) Mut(id ID[T]) *T { return b.store.GetMut(id.id) }

// Contains reports whether id is live.
func (b *Buffer[T]) Contains(id ID[T]) bool { return b.store.Contains(id.id) }

// Len returns the number of records.
func (b *Buffer[T]) Len() int { return b.store.Len() }

// Slice returns the dense records.
func (b *Buffer[T]) Slice() []T { return b.store.Slice() }

// Columns implements Source.
func (b *Buffer[T]) Columns() int { return 1 }

// MarkAll implements Source.
func (b *Buffer[T]) MarkAll() { b.store.MarkAll() }

// Flush implements Source.
func (b *Buffer[T]) Flush() []ByteRange {
	br, ok := byteRange(0, b.store.TakeDirty(), b.store.Slice())
	if !ok {
		return nil
	}
	return []ByteRange{br}
}

// Views implements Source.
func (b *Buffer[T]) Views() []View {
	return []View{view(0, b.store.Slice())}
}
