package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpures"
	"github.com/gogpu/gpures/upload"
)

type buffer struct {
	raw   hal.Buffer
	size  uint64
	usage upload.Usage
	label string
}

// Buffers owns HAL buffers addressed by upload.BufferID. It implements
// upload.Device.
type Buffers struct {
	dev     *Device
	buffers map[upload.BufferID]*buffer
	next    upload.BufferID
}

// NewBuffers creates an empty buffer set on dev.
func NewBuffers(dev *Device) *Buffers {
	return &Buffers{dev: dev, buffers: make(map[upload.BufferID]*buffer), next: 1}
}

func halUsage(u upload.Usage) gputypes.BufferUsage {
	switch u {
	case upload.UsageIndirect:
		return gputypes.BufferUsageIndirect | gputypes.BufferUsageCopyDst
	default:
		return gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst
	}
}

func (b *Buffers) create(label string, size uint64, usage upload.Usage) (hal.Buffer, error) {
	raw, err := b.dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: halUsage(usage),
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s buffer %q (%d bytes): %w", usage, label, size, err)
	}
	return raw, nil
}

// CreateBuffer implements upload.Device.
func (b *Buffers) CreateBuffer(label string, size uint64, usage upload.Usage) (upload.BufferID, error) {
	raw, err := b.create(label, size, usage)
	if err != nil {
		return 0, err
	}
	id := b.next
	b.next++
	b.buffers[id] = &buffer{raw: raw, size: size, usage: usage, label: label}
	return id, nil
}

// ResizeBuffer implements upload.Device. The id is kept; contents are
// dropped and must be re-uploaded.
func (b *Buffers) ResizeBuffer(id upload.BufferID, size uint64) error {
	buf, ok := b.buffers[id]
	if !ok {
		return fmt.Errorf("gpu: unknown buffer %d", id)
	}
	raw, err := b.create(buf.label, size, buf.usage)
	if err != nil {
		return err
	}
	b.dev.device.DestroyBuffer(buf.raw)
	gpures.Logger().Debug("gpu: buffer resized", "label", buf.label, "from", buf.size, "to", size)
	buf.raw, buf.size = raw, size
	return nil
}

// WriteBuffer implements upload.Sink.
func (b *Buffers) WriteBuffer(id upload.BufferID, offset uint64, data []byte) error {
	buf, ok := b.buffers[id]
	if !ok {
		return fmt.Errorf("gpu: unknown buffer %d", id)
	}
	if offset+uint64(len(data)) > buf.size {
		return fmt.Errorf("%w: %q [%d,%d) of %d", upload.ErrOutOfBounds, buf.label, offset, offset+uint64(len(data)), buf.size)
	}
	return b.dev.queue.WriteBuffer(buf.raw, offset, data)
}

// Raw returns the HAL buffer for binding in a render pass.
func (b *Buffers) Raw(id upload.BufferID) (hal.Buffer, bool) {
	buf, ok := b.buffers[id]
	if !ok {
		return nil, false
	}
	return buf.raw, true
}

// Size returns the allocated size of a buffer.
func (b *Buffers) Size(id upload.BufferID) uint64 {
	if buf, ok := b.buffers[id]; ok {
		return buf.size
	}
	return 0
}

// Destroy releases one buffer.
func (b *Buffers) Destroy(id upload.BufferID) {
	if buf, ok := b.buffers[id]; ok {
		b.dev.device.DestroyBuffer(buf.raw)
		delete(b.buffers, id)
	}
}

// Close releases every buffer.
func (b *Buffers) Close() {
	for id := range b.buffers {
		b.Destroy(id)
	}
}

var _ upload.Device = (*Buffers)(nil)
