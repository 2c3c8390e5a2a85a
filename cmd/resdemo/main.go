// Command resdemo drives a block diagram through many edit frames on the
// noop GPU backend and reports how much data each frame uploads.
package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/fulldump/goconfig"

	"github.com/gogpu/gpures"
	"github.com/gogpu/gpures/atlas"
	"github.com/gogpu/gpures/gpu"
	"github.com/gogpu/gpures/painter"
	"github.com/gogpu/gpures/shape"
	"github.com/gogpu/gpures/upload"
)

type Config struct {
	Blocks    int     `usage:"number of blocks placed before the first frame"`
	Wires     int     `usage:"number of wires placed before the first frame"`
	Shapes    int     `usage:"number of distinct block shapes"`
	Frames    int     `usage:"number of frames to simulate"`
	Churn     float64 `usage:"fraction of blocks replaced per frame"`
	AtlasSize int     `usage:"initial atlas layer size"`
	Seed      uint64  `usage:"random seed"`
	Output    string  `usage:"write atlas layer 0 to this PNG file"`
	Debug     bool    `usage:"enable debug logging"`
}

// countingSink wraps a device and totals written bytes.
type countingSink struct {
	upload.Device
	bytes  uint64
	writes int
}

func (c *countingSink) WriteBuffer(id upload.BufferID, offset uint64, data []byte) error {
	c.bytes += uint64(len(data))
	c.writes++
	return c.Device.WriteBuffer(id, offset, data)
}

func main() {
	c := Config{
		Blocks:    500,
		Wires:     800,
		Shapes:    24,
		Frames:    30,
		Churn:     0.05,
		AtlasSize: atlas.MinSize,
		Seed:      1,
	}
	goconfig.Read(&c)

	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	gpures.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(c); err != nil {
		log.Fatalf("resdemo: %v", err)
	}
}

func run(c Config) error {
	dev, cleanup, err := gpu.OpenNoop()
	if err != nil {
		return err
	}
	defer cleanup()

	bufs := gpu.NewBuffers(dev)
	defer bufs.Close()
	textures := gpu.NewAtlasTextures(dev, "blocks")
	defer textures.Destroy()

	cfg := atlas.DefaultConfig()
	cfg.InitialSize = c.AtlasSize
	sink := &countingSink{Device: bufs}
	scene, err := painter.NewScene(sink, textures, dev.AtlasConfig(cfg), nil)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(c.Seed, c.Seed^0x9e3779b97f4a7c15))
	shapes := makeShapes(rng, max(c.Shapes, 1))
	blocks := make([]painter.BlockID, 0, c.Blocks)
	captions := make([]painter.LabelID, 0, c.Blocks)
	for range c.Blocks {
		id, caption, err := addBlock(scene, randomPos(rng), shapes[rng.IntN(len(shapes))])
		if err != nil {
			return err
		}
		blocks = append(blocks, id)
		captions = append(captions, caption)
	}
	wires := make([]painter.WireID, 0, c.Wires)
	for range c.Wires {
		p := randomPos(rng)
		wires = append(wires, scene.Wires.Add([2]float32{p[0], p[1]}, [2]float32{p[0] + 40, p[1]}, color.RGBA{A: 255}))
	}

	ctx := context.Background()
	for frame := range c.Frames {
		sink.bytes, sink.writes = 0, 0
		replaced := int(float64(len(blocks)) * c.Churn)
		for range replaced {
			i := rng.IntN(len(blocks))
			if err := scene.Blocks.Remove(blocks[i]); err != nil {
				return err
			}
			if err := scene.Labels.Remove(captions[i]); err != nil {
				return err
			}
			id, caption, err := addBlock(scene, randomPos(rng), shapes[rng.IntN(len(shapes))])
			if err != nil {
				return err
			}
			blocks[i], captions[i] = id, caption
		}
		for range replaced {
			w := wires[rng.IntN(len(wires))]
			scene.Wires.Recolor(w, color.RGBA{R: uint8(rng.IntN(256)), A: 255}) //nolint:gosec // < 256
		}

		rep, err := scene.Prepare(ctx)
		if err != nil {
			return err
		}
		gpures.Logger().Info("frame",
			"n", frame,
			"writes", sink.writes,
			"bytes", sink.bytes,
			"grown", len(rep.Grown),
			"atlas", fmt.Sprintf("%dx%d", rep.Atlas.Size, rep.Atlas.Layers),
			"shapes", scene.Blocks.Shapes(),
			"glyphs", scene.Labels.Glyphs(),
		)
	}

	fmt.Printf("blocks=%d wires=%d shapes=%d atlas=%+v utilization=%.2f\n",
		scene.Blocks.Len(), scene.Wires.Len(), scene.Blocks.Shapes(),
		scene.Atlas().Extent(), scene.Atlas().Utilization())

	if c.Output != "" {
		return savePNG(c.Output, scene.Blocks.Mirror().Layer(0))
	}
	return nil
}

// addBlock places b with its title as a caption below it.
func addBlock(scene *painter.Scene, pos [3]float32, b shape.Block) (painter.BlockID, painter.LabelID, error) {
	id, err := scene.Blocks.Add(pos, b)
	if err != nil {
		return id, painter.LabelID{}, err
	}
	caption, err := scene.Labels.Add([3]float32{pos[0], pos[1] + float32(b.Size.Y) + 14, pos[2]}, b.Title, 12)
	return id, caption, err
}

func makeShapes(rng *rand.Rand, n int) []shape.Block {
	titles := []string{"AND", "OR", "XOR", "NOT", "NAND", "NOR", "MUX", "REG"}
	out := make([]shape.Block, n)
	for i := range out {
		out[i] = shape.Block{
			Size:  image.Pt(32+8*rng.IntN(8), 24+8*rng.IntN(4)),
			Title: titles[i%len(titles)],
			//nolint:gosec // < 256
			Color: color.RGBA{R: uint8(128 + rng.IntN(128)), G: uint8(128 + rng.IntN(128)), B: uint8(128 + rng.IntN(128)), A: 255},
		}
	}
	return out
}

func randomPos(rng *rand.Rand) [3]float32 {
	return [3]float32{rng.Float32() * 2000, rng.Float32() * 2000, 0}
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
