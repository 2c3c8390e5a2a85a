package painter

import (
	"image/color"

	"github.com/gogpu/gpures/instance"
	"github.com/gogpu/gpures/shape"
)

// WireID identifies one wire segment.
type WireID = instance.ID[instance.Pair[shape.LinePoints, shape.LineColor]]

// Wires stores wire segments as two attribute streams: endpoints and
// colors. Recoloring touches only the color stream.
type Wires struct {
	lines instance.Table2[shape.LinePoints, shape.LineColor]
}

// Add appends a segment from a to b.
func (w *Wires) Add(a, b [2]float32, c color.RGBA) WireID {
	return w.lines.Push(shape.LinePoints{A: a, B: b}, shape.ColorOf(c))
}

// Move changes the endpoints of a segment.
func (w *Wires) Move(id WireID, a, b [2]float32) bool {
	p := w.lines.MutA(id)
	if p == nil {
		return false
	}
	*p = shape.LinePoints{A: a, B: b}
	return true
}

// Recolor changes the color of a segment.
func (w *Wires) Recolor(id WireID, c color.RGBA) bool {
	p := w.lines.MutB(id)
	if p == nil {
		return false
	}
	*p = shape.ColorOf(c)
	return true
}

// Remove deletes a segment.
func (w *Wires) Remove(id WireID) bool { return w.lines.Remove(id) }

// Len returns the number of segments.
func (w *Wires) Len() int { return w.lines.Len() }

// Source returns the instance data for upload.
func (w *Wires) Source() instance.Source { return &w.lines }
