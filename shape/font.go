package shape

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
	"golang.org/x/text/unicode/norm"
)

// ErrForeignGlyph is returned when a glyph key names another font.
var ErrForeignGlyph = errors.New("shape: glyph belongs to another font")

// Font shapes text and rasterizes glyph outlines of one parsed font.
// A Font is not safe for concurrent use.
type Font struct {
	id     uint32
	face   *font.Face
	shaper shaping.HarfbuzzShaper
}

// ParseFont parses TrueType or OpenType data. Every glyph the font
// produces carries id in Glyph.Font.
func ParseFont(id uint32, data []byte) (*Font, error) {
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("shape: parse font %d: %w", id, err)
	}
	return &Font{id: id, face: face}, nil
}

// DefaultFont parses Go Regular with id 0.
func DefaultFont() (*Font, error) { return ParseFont(0, goregular.TTF) }

// ID returns the font id.
func (f *Font) ID() uint32 { return f.id }

// PlacedGlyph is one shaped glyph. Dot is the pen position in pixels
// relative to the start of the baseline, with y pointing down.
type PlacedGlyph struct {
	Glyph Glyph
	Dot   [2]float32
}

// Shape lays text out on a single left-to-right line at size pixels per em.
func (f *Font) Shape(text string, size uint16) []PlacedGlyph {
	runes := []rune(norm.NFC.String(text))
	if len(runes) == 0 || size == 0 {
		return nil
	}
	out := f.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      f.face,
		Size:      fixed.I(int(size)),
		Script:    scriptOf(runes),
		Language:  language.NewLanguage("en"),
	})

	glyphs := make([]PlacedGlyph, 0, len(out.Glyphs))
	var pen fixed.Int26_6
	for _, g := range out.Glyphs {
		glyphs = append(glyphs, PlacedGlyph{
			Glyph: Glyph{Font: f.id, GID: g.GlyphID, Size: size},
			Dot:   [2]float32{toFloat(pen + g.XOffset), -toFloat(g.YOffset)},
		})
		pen += g.Advance
	}
	return glyphs
}

// Rasterize draws the coverage mask of g. bearing is the offset of the
// mask's top-left corner from the dot. Glyphs without ink, such as spaces,
// return a nil mask.
func (f *Font) Rasterize(g Glyph) (mask *image.Alpha, bearing image.Point, err error) {
	if g.Font != f.id {
		return nil, image.Point{}, fmt.Errorf("%w: font %d, got %d", ErrForeignGlyph, f.id, g.Font)
	}
	if !g.Valid() {
		return nil, image.Point{}, nil
	}
	outline, ok := f.face.GlyphData(g.GID).(font.GlyphOutline)
	if !ok || len(outline.Segments) == 0 {
		return nil, image.Point{}, nil
	}

	scale := float32(g.Size) / float32(f.face.Upem())
	minX, minY := float32(math.Inf(1)), float32(math.Inf(1))
	maxX, maxY := float32(math.Inf(-1)), float32(math.Inf(-1))
	for i := range outline.Segments {
		for _, p := range outline.Segments[i].ArgsSlice() {
			minX, maxX = min(minX, p.X), max(maxX, p.X)
			minY, maxY = min(minY, p.Y), max(maxY, p.Y)
		}
	}
	// font units are y-up, the mask is y-down
	x0 := int(math.Floor(float64(minX * scale)))
	x1 := int(math.Ceil(float64(maxX * scale)))
	y0 := int(math.Floor(float64(-maxY * scale)))
	y1 := int(math.Ceil(float64(-minY * scale)))
	if x1 <= x0 || y1 <= y0 {
		return nil, image.Point{}, nil
	}

	z := vector.NewRasterizer(x1-x0, y1-y0)
	at := func(p font.SegmentPoint) (float32, float32) {
		return p.X*scale - float32(x0), -p.Y*scale - float32(y0)
	}
	for i := range outline.Segments {
		seg := &outline.Segments[i]
		a := seg.Args
		switch seg.Op {
		case ot.SegmentOpMoveTo:
			z.ClosePath()
			z.MoveTo(at(a[0]))
		case ot.SegmentOpLineTo:
			z.LineTo(at(a[0]))
		case ot.SegmentOpQuadTo:
			bx, by := at(a[0])
			cx, cy := at(a[1])
			z.QuadTo(bx, by, cx, cy)
		case ot.SegmentOpCubeTo:
			bx, by := at(a[0])
			cx, cy := at(a[1])
			dx, dy := at(a[2])
			z.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	z.ClosePath()

	mask = image.NewAlpha(image.Rect(0, 0, x1-x0, y1-y0))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask, image.Pt(x0, y0), nil
}

func scriptOf(runes []rune) language.Script {
	for _, r := range runes {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func toFloat(v fixed.Int26_6) float32 { return float32(v) / 64 }
