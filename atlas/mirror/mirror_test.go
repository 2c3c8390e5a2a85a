package mirror

import (
	"image"
	"image/color"
	"slices"
	"testing"

	"github.com/gogpu/gpures/atlas"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestResizeCopiesForward(t *testing.T) {
	m := New(atlas.Extent{Size: 4, Layers: 1})
	red := color.RGBA{R: 255, A: 255}
	if err := m.Draw(atlas.Region{Layer: 0, Rect: image.Rect(1, 1, 3, 3)}, solid(2, 2, red)); err != nil {
		t.Fatal(err)
	}
	m.TakeDirty()

	if !m.Resize(atlas.Extent{Size: 8, Layers: 2}) {
		t.Fatal("expected Resize to report a change")
	}
	if got := m.Layer(0).RGBAAt(2, 2); got != red {
		t.Errorf("expected texel copied forward, got %v", got)
	}
	if got := m.Layer(0).Bounds().Dx(); got != 8 {
		t.Errorf("expected width 8, got %d", got)
	}
	if got := m.TakeDirty(); !slices.Equal(got, []int{0, 1}) {
		t.Errorf("expected both layers dirty, got %v", got)
	}
	if m.Resize(atlas.Extent{Size: 4, Layers: 1}) {
		t.Error("expected shrinking resize to be ignored")
	}
	if m.Extent() != (atlas.Extent{Size: 8, Layers: 2}) {
		t.Errorf("unexpected extent %+v", m.Extent())
	}
}

func TestDrawScalesAndClears(t *testing.T) {
	m := New(atlas.Extent{Size: 16, Layers: 1})
	blue := color.RGBA{B: 255, A: 255}
	r := atlas.Region{Layer: 0, Rect: image.Rect(0, 0, 8, 8)}
	if err := m.Draw(r, solid(2, 2, blue)); err != nil {
		t.Fatal(err)
	}
	if got := m.Layer(0).RGBAAt(4, 4); got.B < 250 || got.A < 250 || got.R != 0 {
		t.Errorf("expected scaled texel close to %v, got %v", blue, got)
	}
	if !m.Dirty() {
		t.Error("expected mirror to be dirty after Draw")
	}
	if err := m.Clear(r); err != nil {
		t.Fatal(err)
	}
	if got := m.Layer(0).RGBAAt(4, 4); got != (color.RGBA{}) {
		t.Errorf("expected cleared texel, got %v", got)
	}
}

func TestDrawOutOfRange(t *testing.T) {
	m := New(atlas.Extent{Size: 8, Layers: 1})
	if err := m.Draw(atlas.Region{Layer: 1, Rect: image.Rect(0, 0, 1, 1)}, solid(1, 1, color.RGBA{})); err == nil {
		t.Error("expected error for missing layer")
	}
	if err := m.Clear(atlas.Region{Layer: 0, Rect: image.Rect(4, 4, 12, 12)}); err == nil {
		t.Error("expected error for region outside the layer")
	}
}
