package upload

import "encoding/binary"

// QuadVertices is the vertex count of an instanced quad draw.
const QuadVertices = 4

// IndirectSize is the byte size of a DrawIndirect record.
const IndirectSize = 16

// instanceCountOffset is the byte offset of InstanceCount in DrawIndirect.
const instanceCountOffset = 4

// DrawIndirect mirrors the non-indexed indirect draw arguments layout.
type DrawIndirect struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

// IndirectArgs keeps an indirect draw buffer in step with an instance
// count. After the first upload only the 4-byte instance count is
// rewritten, and only when it changed.
type IndirectArgs struct {
	buffer  BufferID
	args    DrawIndirect
	written bool
	dirty   bool
}

// NewIndirectArgs creates arguments drawing vertexCount vertices per
// instance from buffer, which must hold at least IndirectSize bytes.
func NewIndirectArgs(buffer BufferID, vertexCount uint32) *IndirectArgs {
	return &IndirectArgs{buffer: buffer, args: DrawIndirect{VertexCount: vertexCount}}
}

// Buffer returns the indirect buffer.
func (a *IndirectArgs) Buffer() BufferID { return a.buffer }

// Args returns the current arguments.
func (a *IndirectArgs) Args() DrawIndirect { return a.args }

// Update sets the instance count and reports whether it changed.
func (a *IndirectArgs) Update(count int) bool {
	c := uint32(count) //nolint:gosec // instance counts are bounded by slot.ID
	if c == a.args.InstanceCount {
		return false
	}
	a.args.InstanceCount = c
	a.dirty = true
	return true
}

// Flush writes pending changes to sink.
func (a *IndirectArgs) Flush(sink Sink) error {
	var buf [IndirectSize]byte
	if !a.written {
		binary.LittleEndian.PutUint32(buf[0:], a.args.VertexCount)
		binary.LittleEndian.PutUint32(buf[4:], a.args.InstanceCount)
		binary.LittleEndian.PutUint32(buf[8:], a.args.FirstVertex)
		binary.LittleEndian.PutUint32(buf[12:], a.args.FirstInstance)
		if err := sink.WriteBuffer(a.buffer, 0, buf[:]); err != nil {
			return err
		}
		a.written, a.dirty = true, false
		return nil
	}
	if !a.dirty {
		return nil
	}
	binary.LittleEndian.PutUint32(buf[:4], a.args.InstanceCount)
	if err := sink.WriteBuffer(a.buffer, instanceCountOffset, buf[:4]); err != nil {
		return err
	}
	a.dirty = false
	return nil
}
