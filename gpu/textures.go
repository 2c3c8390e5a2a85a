package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpures"
	"github.com/gogpu/gpures/atlas"
	"github.com/gogpu/gpures/atlas/mirror"
)

type layerTexture struct {
	tex  hal.Texture
	view hal.TextureView
}

// AtlasTextures keeps one RGBA texture per atlas layer in step with a
// mirror. Textures are recreated when the layer size changes and filled
// from the mirror.
type AtlasTextures struct {
	dev    *Device
	label  string
	size   int
	layers []layerTexture
}

// NewAtlasTextures creates an empty texture set.
func NewAtlasTextures(dev *Device, label string) *AtlasTextures {
	return &AtlasTextures{dev: dev, label: label}
}

// Extent returns the extent the textures currently back.
func (t *AtlasTextures) Extent() atlas.Extent {
	return atlas.Extent{Size: t.size, Layers: len(t.layers)}
}

// Sync reallocates textures for the mirror's extent and uploads dirty
// layers.
func (t *AtlasTextures) Sync(m *mirror.Mirror) error {
	ext := m.Extent()
	if ext.Size != t.size {
		t.Destroy()
		t.size = ext.Size
		m.MarkAll()
		gpures.Logger().Debug("gpu: atlas textures recreated", "label", t.label, "size", ext.Size, "layers", ext.Layers)
	}
	for len(t.layers) < ext.Layers {
		lt, err := t.createLayer(len(t.layers))
		if err != nil {
			return err
		}
		t.layers = append(t.layers, lt)
	}

	size := uint32(t.size) //nolint:gosec // bounded by atlas.MaxSize
	for _, i := range m.TakeDirty() {
		err := t.dev.queue.WriteTexture(
			&hal.ImageCopyTexture{
				Texture:  t.layers[i].tex,
				MipLevel: 0,
			},
			m.Layer(i).Pix,
			&hal.ImageDataLayout{
				Offset:       0,
				BytesPerRow:  size * 4,
				RowsPerImage: size,
			},
			&hal.Extent3D{Width: size, Height: size, DepthOrArrayLayers: 1},
		)
		if err != nil {
			m.MarkAll()
			return fmt.Errorf("gpu: upload atlas layer %d: %w", i, err)
		}
	}
	return nil
}

func (t *AtlasTextures) createLayer(i int) (layerTexture, error) {
	size := uint32(t.size) //nolint:gosec // bounded by atlas.MaxSize
	tex, err := t.dev.device.CreateTexture(&hal.TextureDescriptor{
		Label:         fmt.Sprintf("%s_%d", t.label, i),
		Size:          hal.Extent3D{Width: size, Height: size, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return layerTexture{}, fmt.Errorf("gpu: create atlas layer %d: %w", i, err)
	}
	view, err := t.dev.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         fmt.Sprintf("%s_%d_view", t.label, i),
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		t.dev.device.DestroyTexture(tex)
		return layerTexture{}, fmt.Errorf("gpu: create atlas layer %d view: %w", i, err)
	}
	return layerTexture{tex: tex, view: view}, nil
}

// Views returns one texture view per layer.
func (t *AtlasTextures) Views() []hal.TextureView {
	views := make([]hal.TextureView, len(t.layers))
	for i, l := range t.layers {
		views[i] = l.view
	}
	return views
}

// Destroy releases every texture.
func (t *AtlasTextures) Destroy() {
	for _, l := range t.layers {
		t.dev.device.DestroyTextureView(l.view)
		t.dev.device.DestroyTexture(l.tex)
	}
	t.layers = nil
}
