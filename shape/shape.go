// Package shape defines content keys for shared atlas entries and the
// plain-data instance records uploaded to the GPU.
package shape

import (
	"image"
	"image/color"

	"github.com/go-text/typesetting/font"
	"golang.org/x/text/unicode/norm"
)

// Block describes the look of a diagram block. Blocks with equal values
// share one atlas texture.
type Block struct {
	Size  image.Point
	Title string
	Color color.RGBA
}

// Normalize returns b with its title in Unicode NFC so that visually
// identical titles produce equal keys.
func (b Block) Normalize() Block {
	b.Title = norm.NFC.String(b.Title)
	return b
}

// Glyph keys one rasterized glyph of one font at one pixel size.
type Glyph struct {
	Font uint32
	GID  font.GID
	Size uint16
}

// Valid reports whether g names a real glyph.
func (g Glyph) Valid() bool { return g.GID != font.EmptyGlyph && g.Size > 0 }

// RectInstance places one textured quad. Pos is the top-left corner with
// depth, Size the uniform scale, UVPos and UVSize the atlas texels.
type RectInstance struct {
	Pos    [3]float32
	Size   float32
	UVPos  [2]uint16
	UVSize [2]uint16
	Layer  uint32
}

// LinePoints holds the endpoints of one wire segment.
type LinePoints struct {
	A, B [2]float32
}

// LineColor is a packed RGBA8 color for one wire segment.
type LineColor struct {
	RGBA [4]uint8
}

// ColorOf packs c.
func ColorOf(c color.RGBA) LineColor {
	return LineColor{RGBA: [4]uint8{c.R, c.G, c.B, c.A}}
}
