// Package mirror keeps a CPU copy of atlas layers.
//
// The GPU side cannot widen a texture in place, so when the atlas grows
// the backing texture is recreated and filled from this copy.
package mirror

import (
	"fmt"
	"image"
	"image/color"
	"slices"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/gpures"
	"github.com/gogpu/gpures/atlas"
)

// Mirror holds one RGBA image per atlas layer.
type Mirror struct {
	size   int
	layers []*image.RGBA
	dirty  []bool
}

// New creates a mirror matching ext.
func New(ext atlas.Extent) *Mirror {
	m := &Mirror{}
	m.Resize(ext)
	return m
}

// Extent returns the mirrored extent.
func (m *Mirror) Extent() atlas.Extent {
	return atlas.Extent{Size: m.size, Layers: len(m.layers)}
}

// Resize grows the mirror to ext, copying existing texels forward.
// Smaller extents are ignored since atlases never shrink. Every layer is
// marked dirty when the side length changes.
func (m *Mirror) Resize(ext atlas.Extent) bool {
	changed := false
	if ext.Size > m.size {
		for i, old := range m.layers {
			layer := image.NewRGBA(image.Rect(0, 0, ext.Size, ext.Size))
			xdraw.Copy(layer, image.Point{}, old, old.Bounds(), xdraw.Src, nil)
			m.layers[i] = layer
			m.dirty[i] = true
		}
		m.size = ext.Size
		changed = true
	}
	for len(m.layers) < ext.Layers {
		m.layers = append(m.layers, image.NewRGBA(image.Rect(0, 0, m.size, m.size)))
		m.dirty = append(m.dirty, true)
		changed = true
	}
	if changed {
		gpures.Logger().Debug("mirror: resized", "size", m.size, "layers", len(m.layers))
	}
	return changed
}

// Draw copies src into region, scaling when the sizes differ.
func (m *Mirror) Draw(r atlas.Region, src image.Image) error {
	dst, err := m.layer(r)
	if err != nil {
		return err
	}
	sb := src.Bounds()
	if sb.Size() == r.Rect.Size() {
		xdraw.Copy(dst, r.Rect.Min, src, sb, xdraw.Src, nil)
	} else {
		xdraw.CatmullRom.Scale(dst, r.Rect, src, sb, xdraw.Src, nil)
	}
	m.dirty[r.Layer] = true
	return nil
}

// Clear zeroes region.
func (m *Mirror) Clear(r atlas.Region) error {
	dst, err := m.layer(r)
	if err != nil {
		return err
	}
	xdraw.Draw(dst, r.Rect, image.NewUniform(color.Transparent), image.Point{}, xdraw.Src)
	m.dirty[r.Layer] = true
	return nil
}

func (m *Mirror) layer(r atlas.Region) (*image.RGBA, error) {
	if r.Layer < 0 || r.Layer >= len(m.layers) {
		return nil, fmt.Errorf("mirror: layer %d out of range [0,%d)", r.Layer, len(m.layers))
	}
	if !r.Rect.In(image.Rect(0, 0, m.size, m.size)) {
		return nil, fmt.Errorf("mirror: %v outside %dx%d layer", r.Rect, m.size, m.size)
	}
	return m.layers[r.Layer], nil
}

// Layer returns the image backing layer i.
func (m *Mirror) Layer(i int) *image.RGBA { return m.layers[i] }

// TakeDirty returns the layers changed since the previous call in
// ascending order.
func (m *Mirror) TakeDirty() []int {
	var out []int
	for i, d := range m.dirty {
		if d {
			out = append(out, i)
			m.dirty[i] = false
		}
	}
	return out
}

// MarkAll marks every layer dirty.
func (m *Mirror) MarkAll() {
	for i := range m.dirty {
		m.dirty[i] = true
	}
}

// Dirty reports whether any layer awaits upload.
func (m *Mirror) Dirty() bool { return slices.Contains(m.dirty, true) }
