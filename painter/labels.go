package painter

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gpures/atlas"
	"github.com/gogpu/gpures/atlas/mirror"
	"github.com/gogpu/gpures/instance"
	"github.com/gogpu/gpures/registry"
	"github.com/gogpu/gpures/shape"
	"github.com/gogpu/gpures/slot"
)

// LabelID identifies one placed text label.
type LabelID struct {
	id slot.ID
}

type glyphTex struct {
	region  atlas.Region
	bearing image.Point
}

type label struct {
	pos    [3]float32
	rects  []instance.ID[shape.RectInstance]
	glyphs []registry.Handle[glyphTex]
}

// Labels places text as one textured quad per glyph. A glyph is rasterized
// into the atlas once and shared by every label that shows it.
type Labels struct {
	font   *shape.Font
	glyphs *registry.Registry[shape.Glyph, glyphTex]
	rects  *instance.Buffer[shape.RectInstance]
	labels *slot.Store[label]
	mirror *mirror.Mirror
}

// NewLabels creates a label painter drawing glyphs of f into alloc. The
// glyph masks go to m, which may be shared with other painters on alloc.
func NewLabels(f *shape.Font, alloc *atlas.Allocator, m *mirror.Mirror) *Labels {
	return &Labels{
		font:   f,
		glyphs: registry.New[shape.Glyph, glyphTex](alloc),
		rects:  instance.NewBuffer[shape.RectInstance](64),
		labels: slot.New[label](16),
		mirror: m,
	}
}

// Add shapes text at size pixels per em with its baseline starting at pos.
func (l *Labels) Add(pos [3]float32, text string, size uint16) (LabelID, error) {
	lb := label{pos: pos}
	for _, pg := range l.font.Shape(text, size) {
		h, ok, err := l.glyph(pg.Glyph)
		if err != nil {
			_ = l.release(lb)
			return LabelID{}, fmt.Errorf("painter: label %q: %w", text, err)
		}
		if !ok {
			continue
		}
		tex, _ := l.glyphs.Get(h)
		uvPos, uvSize := tex.region.Texel()
		id := l.rects.Push(shape.RectInstance{
			Pos: [3]float32{
				pos[0] + pg.Dot[0] + float32(tex.bearing.X),
				pos[1] + pg.Dot[1] + float32(tex.bearing.Y),
				pos[2],
			},
			Size:   1,
			UVPos:  uvPos,
			UVSize: uvSize,
			Layer:  uint32(tex.region.Layer), //nolint:gosec // layer index fits AllocID.Layer
		})
		lb.rects = append(lb.rects, id)
		lb.glyphs = append(lb.glyphs, h)
	}
	return LabelID{id: l.labels.Push(lb)}, nil
}

// glyph returns the atlas entry of g, rasterizing it on first use. ok is
// false for glyphs without ink.
func (l *Labels) glyph(g shape.Glyph) (h registry.Handle[glyphTex], ok bool, err error) {
	if h, ok := l.glyphs.Share(g); ok {
		return h, true, nil
	}
	mask, bearing, err := l.font.Rasterize(g)
	if err != nil || mask == nil {
		return h, false, err
	}
	h, err = l.glyphs.AllocateRegion(g, mask.Bounds().Size(), func(r atlas.Region) glyphTex {
		return glyphTex{region: r, bearing: bearing}
	})
	if err != nil {
		return h, false, err
	}
	tex, _ := l.glyphs.Get(h)
	l.mirror.Resize(l.glyphs.Atlas().Extent())
	if err := l.mirror.Draw(tex.region, mask); err != nil {
		_, _ = l.glyphs.Release(h)
		return h, false, err
	}
	return h, true, nil
}

// Move places a label's baseline at pos.
func (l *Labels) Move(id LabelID, pos [3]float32) bool {
	lb := l.labels.GetMut(id.id)
	if lb == nil {
		return false
	}
	dx, dy, dz := pos[0]-lb.pos[0], pos[1]-lb.pos[1], pos[2]-lb.pos[2]
	for _, r := range lb.rects {
		if inst := l.rects.Mut(r); inst != nil {
			inst.Pos[0] += dx
			inst.Pos[1] += dy
			inst.Pos[2] += dz
		}
	}
	lb.pos = pos
	return true
}

// Remove deletes a label. Glyph textures are freed with their last user.
func (l *Labels) Remove(id LabelID) error {
	lb, ok := l.labels.Get(id.id)
	if !ok {
		return nil
	}
	l.labels.Remove(id.id)
	if err := l.release(lb); err != nil {
		return fmt.Errorf("painter: remove label: %w", err)
	}
	return nil
}

func (l *Labels) release(lb label) error {
	for _, r := range lb.rects {
		l.rects.Remove(r)
	}
	var errs []error
	for _, h := range lb.glyphs {
		region, _ := l.glyphs.Region(h)
		freed, err := l.glyphs.Release(h)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if freed {
			errs = append(errs, l.mirror.Clear(region))
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of placed labels.
func (l *Labels) Len() int { return l.labels.Len() }

// Glyphs returns the number of distinct glyph textures.
func (l *Labels) Glyphs() int { return l.glyphs.Len() }

// Quads returns the number of glyph quads across all labels.
func (l *Labels) Quads() int { return l.rects.Len() }

// Source returns the instance data for upload.
func (l *Labels) Source() instance.Source { return l.rects }
