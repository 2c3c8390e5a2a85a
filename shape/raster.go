package shape

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// borderColor outlines every block.
var borderColor = color.RGBA{A: 255}

// Rasterize draws b: a filled body, a one-pixel border and the title
// centered on the top line.
func Rasterize(b Block) *image.RGBA {
	img := image.NewRGBA(image.Rectangle{Max: b.Size})
	draw.Draw(img, img.Bounds(), image.NewUniform(b.Color), image.Point{}, draw.Src)

	for x := range b.Size.X {
		img.SetRGBA(x, 0, borderColor)
		img.SetRGBA(x, b.Size.Y-1, borderColor)
	}
	for y := range b.Size.Y {
		img.SetRGBA(0, y, borderColor)
		img.SetRGBA(b.Size.X-1, y, borderColor)
	}

	if b.Title == "" {
		return img
	}
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(borderColor),
		Face: face,
	}
	width := d.MeasureString(b.Title)
	ascent := face.Metrics().Ascent
	d.Dot = fixed.Point26_6{
		X: (fixed.I(b.Size.X) - width) / 2,
		Y: fixed.I(2) + ascent,
	}
	d.DrawString(b.Title)
	return img
}
