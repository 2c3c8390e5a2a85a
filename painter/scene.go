package painter

import (
	"context"
	"fmt"

	"github.com/gogpu/gpures"
	"github.com/gogpu/gpures/atlas"
	"github.com/gogpu/gpures/atlas/mirror"
	"github.com/gogpu/gpures/instance"
	"github.com/gogpu/gpures/shape"
	"github.com/gogpu/gpures/upload"
)

// TextureSync uploads atlas layers from a mirror. gpu.AtlasTextures
// implements it.
type TextureSync interface {
	Sync(m *mirror.Mirror) error
}

// Draw is everything a renderer needs for one instanced draw.
type Draw struct {
	Name     string
	Views    []instance.View
	Bindings []upload.Binding
	Indirect upload.BufferID
	Count    int
}

// Report summarizes one Prepare call.
type Report struct {
	// Grown lists the buffers that were reallocated.
	Grown []upload.GrowRequest
	// AtlasGrew is set when the atlas extent changed.
	AtlasGrew bool
	Atlas     atlas.Extent
}

type pass struct {
	name   string
	stream *upload.Stream
	args   *upload.IndirectArgs
}

// Scene owns the painters of one diagram view and keeps their GPU copies
// current.
type Scene struct {
	Blocks *Blocks
	Labels *Labels
	Wires  *Wires

	dev      upload.Device
	textures TextureSync
	alloc    *atlas.Allocator
	passes   []*pass
}

// NewScene creates a scene uploading through dev. textures may be nil
// when atlas contents are not needed on the GPU. Labels use
// shape.DefaultFont and share the block atlas.
func NewScene(dev upload.Device, textures TextureSync, cfg atlas.Config, raster Rasterizer) (*Scene, error) {
	alloc, err := atlas.New(cfg)
	if err != nil {
		return nil, err
	}
	face, err := shape.DefaultFont()
	if err != nil {
		return nil, err
	}
	blocks := NewBlocks(alloc, raster)
	s := &Scene{
		Blocks:   blocks,
		Labels:   NewLabels(face, alloc, blocks.Mirror()),
		Wires:    &Wires{},
		dev:      dev,
		textures: textures,
		alloc:    alloc,
	}
	for _, p := range []struct {
		name string
		src  instance.Source
	}{
		{"blocks", s.Blocks.Source()},
		{"labels", s.Labels.Source()},
		{"wires", s.Wires.Source()},
	} {
		id, err := dev.CreateBuffer(p.name+"_indirect", upload.IndirectSize, upload.UsageIndirect)
		if err != nil {
			return nil, fmt.Errorf("painter: %s indirect buffer: %w", p.name, err)
		}
		s.passes = append(s.passes, &pass{
			name:   p.name,
			stream: upload.NewStream(p.src),
			args:   upload.NewIndirectArgs(id, upload.QuadVertices),
		})
	}
	return s, nil
}

// Atlas returns the atlas allocator shared by blocks and labels.
func (s *Scene) Atlas() *atlas.Allocator { return s.alloc }

// Prepare uploads everything that changed since the previous call. Buffers
// that are too small are reallocated and refilled in the same call.
func (s *Scene) Prepare(ctx context.Context) (Report, error) {
	var rep Report
	for _, p := range s.passes {
		grow, err := p.stream.Flush(ctx, s.dev)
		if err != nil {
			return rep, fmt.Errorf("painter: %s: %w", p.name, err)
		}
		if len(grow) > 0 {
			if err := s.regrow(p, grow); err != nil {
				return rep, err
			}
			rep.Grown = append(rep.Grown, grow...)
			if _, err := p.stream.Flush(ctx, s.dev); err != nil {
				return rep, fmt.Errorf("painter: %s: %w", p.name, err)
			}
		}
		p.args.Update(p.stream.Source().Views()[0].Len)
		if err := p.args.Flush(s.dev); err != nil {
			return rep, fmt.Errorf("painter: %s indirect: %w", p.name, err)
		}
	}

	rep.Atlas, rep.AtlasGrew = s.alloc.TakeGrowth()
	m := s.Blocks.Mirror()
	m.Resize(rep.Atlas)
	if s.textures != nil {
		if err := s.textures.Sync(m); err != nil {
			return rep, fmt.Errorf("painter: atlas: %w", err)
		}
	}
	return rep, nil
}

func (s *Scene) regrow(p *pass, grow []upload.GrowRequest) error {
	for _, g := range grow {
		id := g.Buffer
		var err error
		if id == upload.NoBuffer {
			id, err = s.dev.CreateBuffer(fmt.Sprintf("%s_%d", p.name, g.Column), g.Required, upload.UsageVertex)
		} else {
			err = s.dev.ResizeBuffer(id, g.Required)
		}
		if err != nil {
			return fmt.Errorf("painter: %s column %d: %w", p.name, g.Column, err)
		}
		p.stream.Bind(g.Column, upload.Binding{Buffer: id, Capacity: g.Required})
		gpures.Logger().Debug("painter: buffer bound", "pass", p.name, "column", g.Column, "size", g.Required)
	}
	return nil
}

// Draws returns the draw contract for every pass.
func (s *Scene) Draws() []Draw {
	draws := make([]Draw, 0, len(s.passes))
	for _, p := range s.passes {
		views := p.stream.Source().Views()
		bindings := make([]upload.Binding, len(views))
		for i := range views {
			bindings[i] = p.stream.Binding(i)
		}
		draws = append(draws, Draw{
			Name:     p.name,
			Views:    views,
			Bindings: bindings,
			Indirect: p.args.Buffer(),
			Count:    views[0].Len,
		})
	}
	return draws
}
