package atlas

import (
	"fmt"
	"image"
)

// AllocID identifies a live allocation: the layer plus a token unique
// within that layer. The zero value never denotes a live allocation.
type AllocID struct {
	Layer uint16
	token uint32
}

// IsZero reports whether id is the zero value.
func (id AllocID) IsZero() bool { return id.token == 0 }

func (id AllocID) String() string {
	return fmt.Sprintf("atlas#%d.%d", id.Layer, id.token)
}

// Region is the placement of an allocation.
type Region struct {
	Layer int
	Rect  image.Rectangle
}

// UV returns the normalized texture coordinates (u0, v0, u1, v1) of the
// region in a layer of the given side length.
func (r Region) UV(size int) [4]float32 {
	s := float32(size)
	return [4]float32{
		float32(r.Rect.Min.X) / s,
		float32(r.Rect.Min.Y) / s,
		float32(r.Rect.Max.X) / s,
		float32(r.Rect.Max.Y) / s,
	}
}

// Texel returns the region origin and size in texels, the form instance
// records carry. Layers never exceed 32768 texels so uint16 suffices.
func (r Region) Texel() (pos, size [2]uint16) {
	d := r.Rect.Size()
	//nolint:gosec // bounded by MaxSize
	return [2]uint16{uint16(r.Rect.Min.X), uint16(r.Rect.Min.Y)}, [2]uint16{uint16(d.X), uint16(d.Y)}
}

func (r Region) String() string {
	return fmt.Sprintf("layer %d %v", r.Layer, r.Rect)
}

// Allocation is returned by Add.
type Allocation struct {
	ID     AllocID
	Region Region
}

// Extent is the shared square layer size and the layer count.
type Extent struct {
	Size   int
	Layers int
}

// Area returns the total texel count across layers.
func (e Extent) Area() int { return e.Size * e.Size * e.Layers }

// OutOfSpaceError reports a request growth could not satisfy.
type OutOfSpaceError struct {
	Size   image.Point
	Extent Extent
}

func (e *OutOfSpaceError) Error() string {
	return fmt.Sprintf("atlas: no room for %dx%d in %d layers of %d", e.Size.X, e.Size.Y, e.Extent.Layers, e.Extent.Size)
}

// Unwrap returns ErrOutOfSpace.
func (e *OutOfSpaceError) Unwrap() error { return ErrOutOfSpace }
