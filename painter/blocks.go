// Package painter turns diagram blocks and wires into GPU instance data.
package painter

import (
	"fmt"
	"image"

	"github.com/gogpu/gpures/atlas"
	"github.com/gogpu/gpures/atlas/mirror"
	"github.com/gogpu/gpures/instance"
	"github.com/gogpu/gpures/internal/cache"
	"github.com/gogpu/gpures/registry"
	"github.com/gogpu/gpures/shape"
)

// BlockID identifies one placed block.
type BlockID = instance.ID[shape.RectInstance]

// Rasterizer draws the texture of a block shape.
type Rasterizer func(shape.Block) image.Image

// DefaultRasterCache is the number of rasterized block images NewBlocks
// keeps when no rasterizer is given.
const DefaultRasterCache = 256

// Cached wraps raster with an LRU of its most recent n results, so a block
// look that is freed and placed again is not redrawn.
func Cached(raster Rasterizer, n int) Rasterizer {
	c := cache.New[shape.Block, image.Image](n)
	return func(b shape.Block) image.Image {
		return c.GetOrCreate(b, func() image.Image { return raster(b) })
	}
}

// Blocks places textured block quads. Blocks with the same look share one
// atlas rectangle. Instance records carry texel coordinates, which stay
// valid when the atlas widens in place.
type Blocks struct {
	shapes *registry.Registry[shape.Block, atlas.Region]
	rects  *instance.Buffer[shape.RectInstance]
	owners map[BlockID]registry.Handle[atlas.Region]
	mirror *mirror.Mirror
	raster Rasterizer
}

// NewBlocks creates a block painter on alloc. A nil raster uses a cached
// shape.Rasterize.
func NewBlocks(alloc *atlas.Allocator, raster Rasterizer) *Blocks {
	if raster == nil {
		raster = Cached(func(b shape.Block) image.Image { return shape.Rasterize(b) }, DefaultRasterCache)
	}
	return &Blocks{
		shapes: registry.New[shape.Block, atlas.Region](alloc),
		rects:  instance.NewBuffer[shape.RectInstance](64),
		owners: make(map[BlockID]registry.Handle[atlas.Region]),
		mirror: mirror.New(alloc.Extent()),
		raster: raster,
	}
}

// Add places a block at pos.
func (p *Blocks) Add(pos [3]float32, b shape.Block) (BlockID, error) {
	key := b.Normalize()
	fresh := false
	h, err := p.shapes.AllocateRegion(key, key.Size, func(r atlas.Region) atlas.Region {
		fresh = true
		return r
	})
	if err != nil {
		return BlockID{}, fmt.Errorf("painter: block %q: %w", key.Title, err)
	}
	region, _ := p.shapes.Get(h)
	if fresh {
		p.mirror.Resize(p.shapes.Atlas().Extent())
		if err := p.mirror.Draw(region, p.raster(key)); err != nil {
			_, _ = p.shapes.Release(h)
			return BlockID{}, fmt.Errorf("painter: block %q: %w", key.Title, err)
		}
	}

	uvPos, uvSize := region.Texel()
	id := p.rects.Push(shape.RectInstance{
		Pos:    pos,
		Size:   1,
		UVPos:  uvPos,
		UVSize: uvSize,
		Layer:  uint32(region.Layer), //nolint:gosec // layer index fits AllocID.Layer
	})
	p.owners[id] = h
	return id, nil
}

// Move repositions a block.
func (p *Blocks) Move(id BlockID, pos [3]float32) bool {
	r := p.rects.Mut(id)
	if r == nil {
		return false
	}
	r.Pos = pos
	return true
}

// Remove deletes a block. The shared texture is freed with its last user.
func (p *Blocks) Remove(id BlockID) error {
	h, ok := p.owners[id]
	if !ok {
		return nil
	}
	delete(p.owners, id)
	p.rects.Remove(id)

	region, _ := p.shapes.Region(h)
	freed, err := p.shapes.Release(h)
	if err != nil {
		return fmt.Errorf("painter: remove block: %w", err)
	}
	if freed {
		return p.mirror.Clear(region)
	}
	return nil
}

// Len returns the number of placed blocks.
func (p *Blocks) Len() int { return p.rects.Len() }

// Shapes returns the number of distinct block textures.
func (p *Blocks) Shapes() int { return p.shapes.Len() }

// Source returns the instance data for upload.
func (p *Blocks) Source() instance.Source { return p.rects }

// Mirror returns the CPU copy of the block atlas.
func (p *Blocks) Mirror() *mirror.Mirror { return p.mirror }
