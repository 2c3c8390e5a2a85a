package upload

import "fmt"

// Write records one call to Memory.WriteBuffer.
type Write struct {
	Buffer BufferID
	Offset uint64
	Size   uint64
}

// Memory is a Device backed by byte slices. It records every write.
type Memory struct {
	buffers map[BufferID][]byte
	next    BufferID
	Writes  []Write
}

// NewMemory creates an empty memory device.
func NewMemory() *Memory {
	return &Memory{buffers: make(map[BufferID][]byte), next: 1}
}

// CreateBuffer implements Device.
func (m *Memory) CreateBuffer(_ string, size uint64, _ Usage) (BufferID, error) {
	id := m.next
	m.next++
	m.buffers[id] = make([]byte, size)
	return id, nil
}

// ResizeBuffer implements Device.
func (m *Memory) ResizeBuffer(id BufferID, size uint64) error {
	if _, ok := m.buffers[id]; !ok {
		return fmt.Errorf("upload: unknown buffer %d", id)
	}
	m.buffers[id] = make([]byte, size)
	return nil
}

// WriteBuffer implements Sink.
func (m *Memory) WriteBuffer(id BufferID, offset uint64, data []byte) error {
	buf, ok := m.buffers[id]
	if !ok {
		return fmt.Errorf("upload: unknown buffer %d", id)
	}
	if offset+uint64(len(data)) > uint64(len(buf)) {
		return fmt.Errorf("%w: [%d,%d) in %d bytes", ErrOutOfBounds, offset, offset+uint64(len(data)), len(buf))
	}
	copy(buf[offset:], data)
	m.Writes = append(m.Writes, Write{Buffer: id, Offset: offset, Size: uint64(len(data))})
	return nil
}

// Bytes returns the contents of a buffer.
func (m *Memory) Bytes(id BufferID) []byte { return m.buffers[id] }

// Reset forgets recorded writes.
func (m *Memory) Reset() { m.Writes = m.Writes[:0] }
