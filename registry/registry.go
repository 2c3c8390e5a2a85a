// Package registry shares identical content between many users.
//
// Two requests for the same key get the same [Handle] and the same
// underlying slot (and atlas rectangle, when one was reserved). The entry
// is destroyed once every holder has released it.
package registry

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gpures"
	"github.com/gogpu/gpures/atlas"
	"github.com/gogpu/gpures/slot"
)

var (
	// ErrUnknownHandle is returned when releasing a handle that is not live.
	ErrUnknownHandle = errors.New("registry: unknown handle")

	// ErrNoAtlas is returned by AllocateRegion on a registry without an
	// atlas allocator.
	ErrNoAtlas = errors.New("registry: no atlas allocator")
)

// Handle refers to a registry entry. The type parameter tags the resource
// kind; equality depends on the slot id only.
type Handle[T any] struct {
	_  [0]*T
	id slot.ID
}

// Slot returns the underlying slot id.
func (h Handle[T]) Slot() slot.ID { return h.id }

type entry[K comparable] struct {
	key    K
	refs   int
	alloc  atlas.AllocID
	region atlas.Region
	placed bool
}

// Registry maps content keys to reference-counted values. Values live in a
// slot.Store so they can be uploaded as one dense array.
//
// Registry is not safe for concurrent use.
type Registry[K comparable, T any] struct {
	values slot.Store[T]
	meta   map[slot.ID]*entry[K]
	byKey  map[K]slot.ID
	atlas  *atlas.Allocator
}

// New creates a registry. alloc may be nil when no entry needs atlas space.
func New[K comparable, T any](alloc *atlas.Allocator) *Registry[K, T] {
	return &Registry[K, T]{
		meta:  make(map[slot.ID]*entry[K]),
		byKey: make(map[K]slot.ID),
		atlas: alloc,
	}
}

// Atlas returns the allocator backing AllocateRegion, or nil.
func (r *Registry[K, T]) Atlas() *atlas.Allocator { return r.atlas }

// Share returns the handle for key and takes a reference, if resident.
func (r *Registry[K, T]) Share(key K) (Handle[T], bool) {
	id, ok := r.byKey[key]
	if !ok {
		return Handle[T]{}, false
	}
	r.meta[id].refs++
	return Handle[T]{id: id}, true
}

// Allocate returns a handle for key with one more reference. A missing
// entry is created by build with a reference count of one.
func (r *Registry[K, T]) Allocate(key K, build func() T) Handle[T] {
	if h, ok := r.Share(key); ok {
		return h
	}
	return r.insert(key, build(), &entry[K]{key: key, refs: 1})
}

// AllocateRegion is Allocate for content that occupies atlas space. A new
// entry reserves a rectangle of the given size and passes its placement
// to build. The rectangle is freed together with the entry.
func (r *Registry[K, T]) AllocateRegion(key K, size image.Point, build func(atlas.Region) T) (Handle[T], error) {
	if h, ok := r.Share(key); ok {
		return h, nil
	}
	if r.atlas == nil {
		return Handle[T]{}, ErrNoAtlas
	}
	alloc, err := r.atlas.Add(size)
	if err != nil {
		return Handle[T]{}, fmt.Errorf("registry: reserve %dx%d: %w", size.X, size.Y, err)
	}
	m := &entry[K]{key: key, refs: 1, alloc: alloc.ID, region: alloc.Region, placed: true}
	return r.insert(key, build(alloc.Region), m), nil
}

func (r *Registry[K, T]) insert(key K, v T, m *entry[K]) Handle[T] {
	id := r.values.Push(v)
	r.meta[id] = m
	r.byKey[key] = id
	return Handle[T]{id: id}
}

// Release drops one reference. When the last reference goes, the value
// and its atlas rectangle are removed and freed reports true.
func (r *Registry[K, T]) Release(h Handle[T]) (freed bool, err error) {
	m, ok := r.meta[h.id]
	if !ok {
		gpures.Logger().Warn("registry: release of unknown handle", "slot", h.id)
		return false, fmt.Errorf("%w: %d", ErrUnknownHandle, h.id)
	}
	m.refs--
	if m.refs > 0 {
		return false, nil
	}
	delete(r.meta, h.id)
	delete(r.byKey, m.key)
	r.values.Remove(h.id)
	if m.placed {
		if err := r.atlas.Remove(m.alloc); err != nil {
			return true, fmt.Errorf("registry: free region: %w", err)
		}
	}
	return true, nil
}

// Get returns the value for h.
func (r *Registry[K, T]) Get(h Handle[T]) (T, bool) { return r.values.Get(h.id) }

// Mut returns the value for h and marks it dirty.
func (r *Registry[K, T]) Mut(h Handle[T]) *T { return r.values.GetMut(h.id) }

// Refs returns the reference count of h, zero when h is not live.
func (r *Registry[K, T]) Refs(h Handle[T]) int {
	if m, ok := r.meta[h.id]; ok {
		return m.refs
	}
	return 0
}

// Region returns the atlas placement reserved for h.
func (r *Registry[K, T]) Region(h Handle[T]) (atlas.Region, bool) {
	m, ok := r.meta[h.id]
	if !ok || !m.placed {
		return atlas.Region{}, false
	}
	return m.region, true
}

// Key returns the key h was allocated under.
func (r *Registry[K, T]) Key(h Handle[T]) (K, bool) {
	m, ok := r.meta[h.id]
	if !ok {
		var zero K
		return zero, false
	}
	return m.key, true
}

// Len returns the number of distinct live entries.
func (r *Registry[K, T]) Len() int { return r.values.Len() }

// Slice returns the dense values.
func (r *Registry[K, T]) Slice() []T { return r.values.Slice() }

// TakeDirty returns the dense range of values changed since the previous
// call.
func (r *Registry[K, T]) TakeDirty() slot.Range { return r.values.TakeDirty() }
