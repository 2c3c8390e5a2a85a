package slot

import (
	"iter"
	"unsafe"
)

// Store is a densely packed slice of T addressed by stable ids.
//
// Push, GetMut and Remove mark the dense positions they touch so that
// TakeDirty reports every position whose content may have changed.
// Pointers returned by GetMut are invalidated by the next Push or Remove.
//
// The zero value is an empty store ready for use.
type Store[T any] struct {
	index Index
	elems []T
	dirty Tracker
}

// New returns a store with room for capacity elements.
func New[T any](capacity int) *Store[T] {
	return &Store[T]{elems: make([]T, 0, capacity)}
}

// Push appends v and returns its id. The most recently freed id is reused
// first; otherwise a fresh id is minted.
func (s *Store[T]) Push(v T) ID {
	id, pos := s.index.Push()
	s.elems = append(s.elems, v)
	s.dirty.Mark(pos)
	return id
}

// Get returns the value for id.
func (s *Store[T]) Get(id ID) (T, bool) {
	pos, ok := s.index.Lookup(id)
	if !ok {
		var zero T
		return zero, false
	}
	return s.elems[pos], true
}

// GetMut returns a pointer to the value for id, or nil if id is not
// occupied. Any mutable access marks the element dirty.
func (s *Store[T]) GetMut(id ID) *T {
	pos, ok := s.index.Lookup(id)
	if !ok {
		return nil
	}
	s.dirty.Mark(pos)
	return &s.elems[pos]
}

// Contains reports whether id is occupied.
func (s *Store[T]) Contains(id ID) bool {
	_, ok := s.index.Lookup(id)
	return ok
}

// Remove deletes the value for id by swapping the last element into its
// position. Removing an unknown or vacant id is a no-op and returns false.
// Both the vacated position and the former last position are marked dirty.
func (s *Store[T]) Remove(id ID) bool {
	removed, last, ok := s.index.Remove(id)
	if !ok {
		return false
	}
	s.elems[removed] = s.elems[last]
	var zero T
	s.elems[last] = zero
	s.elems = s.elems[:last]
	s.dirty.Mark(removed)
	s.dirty.Mark(last)
	return true
}

// Len returns the number of live elements.
func (s *Store[T]) Len() int { return len(s.elems) }

// Slice returns the dense elements. Order is not meaningful and changes on
// removal. The slice aliases the store until the next Push or Remove.
func (s *Store[T]) Slice() []T { return s.elems }

// IDAt returns the id of the element at dense position pos.
func (s *Store[T]) IDAt(pos int) ID { return s.index.IDAt(pos) }

// All iterates live elements in dense order.
func (s *Store[T]) All() iter.Seq2[ID, T] {
	return func(yield func(ID, T) bool) {
		for i, v := range s.elems {
			if !yield(s.index.IDAt(i), v) {
				return
			}
		}
	}
}

// Bytes returns the raw memory of the dense slice. T must be plain old data
// (no pointers) for the result to be meaningful to a GPU.
func (s *Store[T]) Bytes() []byte {
	return SliceBytes(s.elems)
}

// ElemSize returns the size of T in bytes.
func (s *Store[T]) ElemSize() uint64 {
	var zero T
	return uint64(unsafe.Sizeof(zero))
}

// TakeDirty returns the dense range changed since the previous call,
// clamped to the current length, and resets tracking.
func (s *Store[T]) TakeDirty() Range {
	return s.dirty.Take(len(s.elems))
}

// MarkAll marks every live element dirty.
func (s *Store[T]) MarkAll() {
	s.dirty.MarkRange(Range{Start: 0, End: len(s.elems)})
}

// Clear removes every element and forgets every id.
func (s *Store[T]) Clear() {
	clear(s.elems)
	s.elems = s.elems[:0]
	s.index.Reset()
	s.dirty = Tracker{}
}

// SliceBytes reinterprets a slice of plain values as bytes. The result
// aliases v.
func SliceBytes[T any](v []T) []byte {
	if len(v) == 0 {
		return nil
	}
	size := int(unsafe.Sizeof(v[0])) * len(v)
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(v))), size) //nolint:gosec // POD view for GPU upload
}

