// Package atlas packs rectangles into a growable stack of square layers.
//
// Layers share one side length. When a request fits nowhere, every layer
// is widened in place by doubling the side length, which never moves a
// live rectangle. Once the side length reaches the configured maximum a
// new layer is appended instead. Callers watch [Allocator.TakeGrowth] to
// learn when backing textures must be reallocated and copied forward.
package atlas

import (
	"fmt"
	"image"

	"github.com/gogpu/gpures"
)

// Allocator is a layered square bin-packer.
//
// Allocator is not safe for concurrent use.
type Allocator struct {
	cfg    Config
	size   int
	layers []*layer
	grew   bool
}

// New creates an allocator with one layer of cfg.InitialSize.
func New(cfg Config) (*Allocator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Allocator{
		cfg:    cfg,
		size:   cfg.InitialSize,
		layers: []*layer{newLayer(cfg.InitialSize, cfg.Padding)},
	}, nil
}

// Config returns the allocator configuration.
func (a *Allocator) Config() Config { return a.cfg }

// Add reserves a rectangle of the given size. Layers are tried first-fit
// in order. If none fits, the allocator grows and retries once.
func (a *Allocator) Add(size image.Point) (Allocation, error) {
	if size.X <= 0 || size.Y <= 0 {
		return Allocation{}, fmt.Errorf("%w: %dx%d", ErrInvalidSize, size.X, size.Y)
	}
	if size.X > a.cfg.MaxDimension || size.Y > a.cfg.MaxDimension {
		return Allocation{}, fmt.Errorf("%w: %dx%d > %d", ErrTooLarge, size.X, size.Y, a.cfg.MaxDimension)
	}
	if alloc, ok := a.tryAdd(size); ok {
		return alloc, nil
	}
	if err := a.grow(size); err != nil {
		return Allocation{}, err
	}
	if alloc, ok := a.tryAdd(size); ok {
		return alloc, nil
	}
	return Allocation{}, &OutOfSpaceError{Size: size, Extent: a.Extent()}
}

func (a *Allocator) tryAdd(size image.Point) (Allocation, bool) {
	for i, l := range a.layers {
		if token, r, ok := l.alloc(size.X, size.Y); ok {
			return Allocation{
				ID:     AllocID{Layer: uint16(i), token: token}, //nolint:gosec // layer count capped at 1<<16
				Region: Region{Layer: i, Rect: r},
			}, true
		}
	}
	return Allocation{}, false
}

// grow doubles the shared side length until some layer can take req,
// capped at MaxDimension. Past the cap it widens to the cap and appends
// a layer.
func (a *Allocator) grow(req image.Point) error {
	target := a.size
	for !a.fitsAt(req, target) && target < a.cfg.MaxDimension {
		target = min(target*2, a.cfg.MaxDimension)
	}
	if a.fitsAt(req, target) {
		a.widen(target)
		return nil
	}
	if len(a.layers) >= a.cfg.layerCap() {
		gpures.Logger().Warn("atlas: layer cap reached", "layers", len(a.layers), "size", a.size)
		return &OutOfSpaceError{Size: req, Extent: a.Extent()}
	}
	a.widen(target)
	a.layers = append(a.layers, newLayer(a.size, a.cfg.Padding))
	a.grew = true
	gpures.Logger().Debug("atlas: layer added", "layers", len(a.layers), "size", a.size)
	return nil
}

func (a *Allocator) fitsAt(req image.Point, size int) bool {
	for _, l := range a.layers {
		if l.fitsAt(req.X, req.Y, size) {
			return true
		}
	}
	return false
}

func (a *Allocator) widen(size int) {
	if size <= a.size {
		return
	}
	for _, l := range a.layers {
		l.widen(size)
	}
	gpures.Logger().Debug("atlas: layers widened", "from", a.size, "to", size, "layers", len(a.layers))
	a.size = size
	a.grew = true
}

// Remove frees an allocation. Removing an id that is not live, including
// a second removal, returns ErrNotAllocated.
func (a *Allocator) Remove(id AllocID) error {
	if int(id.Layer) >= len(a.layers) || !a.layers[id.Layer].free(id.token) {
		return fmt.Errorf("%w: %v", ErrNotAllocated, id)
	}
	return nil
}

// Region returns the placement of a live allocation.
func (a *Allocator) Region(id AllocID) (Region, bool) {
	if int(id.Layer) >= len(a.layers) {
		return Region{}, false
	}
	p, ok := a.layers[id.Layer].allocs[id.token]
	if !ok {
		return Region{}, false
	}
	return Region{Layer: int(id.Layer), Rect: p.rect}, true
}

// Extent returns the current layer side length and layer count.
// It never shrinks.
func (a *Allocator) Extent() Extent {
	return Extent{Size: a.size, Layers: len(a.layers)}
}

// TakeGrowth reports whether the extent changed since the previous call
// and returns the current extent.
func (a *Allocator) TakeGrowth() (Extent, bool) {
	grew := a.grew
	a.grew = false
	return a.Extent(), grew
}

// Len returns the number of live allocations.
func (a *Allocator) Len() int {
	n := 0
	for _, l := range a.layers {
		n += len(l.allocs)
	}
	return n
}

// Utilization returns the fraction of layer area covered by live
// rectangles, padding excluded.
func (a *Allocator) Utilization() float64 {
	used := 0
	for _, l := range a.layers {
		used += l.area
	}
	return float64(used) / float64(a.Extent().Area())
}
