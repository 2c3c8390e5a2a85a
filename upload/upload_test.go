package upload

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gogpu/gpures/instance"
)

func TestRequiredSize(t *testing.T) {
	tests := []struct {
		need, want uint64
	}{
		{0, MinBufferSize},
		{1, MinBufferSize},
		{MinBufferSize, MinBufferSize},
		{MinBufferSize + 1, 2048},
		{4096, 4096},
		{5000, 8192},
	}
	for _, tt := range tests {
		if got := RequiredSize(tt.need); got != tt.want {
			t.Errorf("RequiredSize(%d): expected %d, got %d", tt.need, tt.want, got)
		}
	}
}

// --- Stream Tests ---

func TestStreamGrowThenUpload(t *testing.T) {
	mem := NewMemory()
	buf := instance.NewBuffer[uint32](0)
	ids := []instance.ID[uint32]{buf.Push(10), buf.Push(20), buf.Push(30)}

	s := NewStream(buf)
	grow, err := s.Flush(context.Background(), mem)
	if err != nil {
		t.Fatal(err)
	}
	if len(grow) != 1 || grow[0].Required != MinBufferSize || grow[0].Current != 0 {
		t.Fatalf("expected one grow request for %d bytes, got %+v", MinBufferSize, grow)
	}

	id, _ := mem.CreateBuffer("rects", grow[0].Required, UsageVertex)
	s.Bind(0, Binding{Buffer: id, Capacity: grow[0].Required})
	if grow, err = s.Flush(context.Background(), mem); err != nil || len(grow) != 0 {
		t.Fatalf("Flush() = %v, %v", grow, err)
	}
	if len(mem.Writes) != 1 || mem.Writes[0] != (Write{Buffer: id, Offset: 0, Size: 12}) {
		t.Fatalf("expected full 12-byte upload, got %+v", mem.Writes)
	}

	mem.Reset()
	*buf.Mut(ids[1]) = 21
	if _, err := s.Flush(context.Background(), mem); err != nil {
		t.Fatal(err)
	}
	if len(mem.Writes) != 1 || mem.Writes[0].Offset != 4 || mem.Writes[0].Size != 4 {
		t.Fatalf("expected one 4-byte write at 4, got %+v", mem.Writes)
	}
	if got := binary.NativeEndian.Uint32(mem.Bytes(id)[4:]); got != 21 {
		t.Errorf("expected 21 in buffer, got %d", got)
	}

	mem.Reset()
	if _, err := s.Flush(context.Background(), mem); err != nil {
		t.Fatal(err)
	}
	if len(mem.Writes) != 0 {
		t.Errorf("expected no writes without changes, got %+v", mem.Writes)
	}
}

func TestStreamAlignsWrites(t *testing.T) {
	mem := NewMemory()
	buf := instance.NewBuffer[uint16](0)
	buf.Push(1)
	id := buf.Push(2)
	buf.Push(3)

	b, _ := mem.CreateBuffer("u16", MinBufferSize, UsageVertex)
	s := NewStream(buf)
	s.Bind(0, Binding{Buffer: b, Capacity: MinBufferSize})
	if _, err := s.Flush(context.Background(), mem); err != nil {
		t.Fatal(err)
	}
	if mem.Writes[0].Size != 8 {
		t.Errorf("expected 6 bytes padded to 8, got %d", mem.Writes[0].Size)
	}

	mem.Reset()
	*buf.Mut(id) = 7
	if _, err := s.Flush(context.Background(), mem); err != nil {
		t.Fatal(err)
	}
	if w := mem.Writes[0]; w.Offset != 0 || w.Size != 4 {
		t.Errorf("expected aligned write [0,4), got %+v", w)
	}
	if got := binary.NativeEndian.Uint16(mem.Bytes(b)[2:]); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
}

func TestStreamMultiColumn(t *testing.T) {
	mem := NewMemory()
	var tb instance.Table2[[2]float32, uint32]
	id := tb.Push([2]float32{1, 2}, 0xff0000ff)
	s := NewStream(&tb)
	for c := range 2 {
		b, _ := mem.CreateBuffer("col", MinBufferSize, UsageVertex)
		s.Bind(c, Binding{Buffer: b, Capacity: MinBufferSize})
	}
	if _, err := s.Flush(context.Background(), mem); err != nil {
		t.Fatal(err)
	}
	if len(mem.Writes) != 2 {
		t.Fatalf("expected a write per column, got %+v", mem.Writes)
	}

	mem.Reset()
	*tb.MutB(id) = 1
	if _, err := s.Flush(context.Background(), mem); err != nil {
		t.Fatal(err)
	}
	if len(mem.Writes) != 1 || mem.Writes[0].Buffer != s.Binding(1).Buffer {
		t.Errorf("expected only the color column written, got %+v", mem.Writes)
	}
}

type failingSink struct{ err error }

func (f failingSink) WriteBuffer(BufferID, uint64, []byte) error { return f.err }

func TestStreamRetriesAfterError(t *testing.T) {
	mem := NewMemory()
	buf := instance.NewBuffer[uint32](0)
	buf.Push(1)
	b, _ := mem.CreateBuffer("x", MinBufferSize, UsageVertex)
	s := NewStream(buf)
	s.Bind(0, Binding{Buffer: b, Capacity: MinBufferSize})

	boom := errors.New("device lost")
	if _, err := s.Flush(context.Background(), failingSink{boom}); !errors.Is(err, boom) {
		t.Fatalf("expected device lost, got %v", err)
	}
	if _, err := s.Flush(context.Background(), mem); err != nil {
		t.Fatal(err)
	}
	if len(mem.Writes) != 1 || mem.Writes[0].Size != 4 {
		t.Errorf("expected full re-upload after failure, got %+v", mem.Writes)
	}
}

func TestStreamCanceled(t *testing.T) {
	buf := instance.NewBuffer[uint32](0)
	buf.Push(1)
	s := NewStream(buf)
	s.Bind(0, Binding{Buffer: 1, Capacity: MinBufferSize})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Flush(ctx, NewMemory()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// boundTable returns a two-column table with one record, both columns
// bound and uploaded.
func boundTable(t *testing.T, mem *Memory) (*instance.Table2[uint32, uint32], instance.ID[instance.Pair[uint32, uint32]], *Stream) {
	t.Helper()
	tb := &instance.Table2[uint32, uint32]{}
	id := tb.Push(1, 2)
	s := NewStream(tb)
	for c := range 2 {
		b, _ := mem.CreateBuffer("col", MinBufferSize, UsageVertex)
		s.Bind(c, Binding{Buffer: b, Capacity: MinBufferSize})
	}
	if _, err := s.Flush(context.Background(), mem); err != nil {
		t.Fatal(err)
	}
	return tb, id, s
}

func TestStreamCanceledKeepsDirtyColumns(t *testing.T) {
	mem := NewMemory()
	tb, id, s := boundTable(t, mem)
	*tb.MutB(id) = 99

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Flush(ctx, mem); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := s.Flush(context.Background(), mem); err != nil {
		t.Fatal(err)
	}
	if got := binary.NativeEndian.Uint32(mem.Bytes(s.Binding(1).Buffer)); got != 99 {
		t.Errorf("expected 99 in column 1 after retry, got %d", got)
	}
}

// cancelingSink writes through and cancels after the first write.
type cancelingSink struct {
	*Memory
	cancel context.CancelFunc
}

func (c cancelingSink) WriteBuffer(id BufferID, offset uint64, data []byte) error {
	defer c.cancel()
	return c.Memory.WriteBuffer(id, offset, data)
}

func TestStreamCanceledMidFlush(t *testing.T) {
	mem := NewMemory()
	tb, id, s := boundTable(t, mem)
	*tb.MutA(id) = 7
	*tb.MutB(id) = 99

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := s.Flush(ctx, cancelingSink{mem, cancel}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := binary.NativeEndian.Uint32(mem.Bytes(s.Binding(1).Buffer)); got != 2 {
		t.Fatalf("expected column 1 untouched by the canceled flush, got %d", got)
	}

	mem.Reset()
	if _, err := s.Flush(context.Background(), mem); err != nil {
		t.Fatal(err)
	}
	if len(mem.Writes) != 1 || mem.Writes[0].Buffer != s.Binding(1).Buffer {
		t.Errorf("expected only column 1 re-uploaded, got %+v", mem.Writes)
	}
	if got := binary.NativeEndian.Uint32(mem.Bytes(s.Binding(1).Buffer)); got != 99 {
		t.Errorf("expected 99 in column 1, got %d", got)
	}
}

func TestStreamErrorKeepsLaterColumns(t *testing.T) {
	mem := NewMemory()
	tb, id, s := boundTable(t, mem)
	*tb.MutA(id) = 7
	*tb.MutB(id) = 99

	boom := errors.New("device lost")
	if _, err := s.Flush(context.Background(), failingSink{boom}); !errors.Is(err, boom) {
		t.Fatalf("expected device lost, got %v", err)
	}
	if _, err := s.Flush(context.Background(), mem); err != nil {
		t.Fatal(err)
	}
	for c, want := range []uint32{7, 99} {
		if got := binary.NativeEndian.Uint32(mem.Bytes(s.Binding(c).Buffer)); got != want {
			t.Errorf("column %d: expected %d, got %d", c, want, got)
		}
	}
}

// --- IndirectArgs Tests ---

func TestIndirectArgs(t *testing.T) {
	mem := NewMemory()
	b, _ := mem.CreateBuffer("indirect", IndirectSize, UsageIndirect)
	a := NewIndirectArgs(b, QuadVertices)

	if err := a.Flush(mem); err != nil {
		t.Fatal(err)
	}
	if len(mem.Writes) != 1 || mem.Writes[0].Size != IndirectSize {
		t.Fatalf("expected initial 16-byte write, got %+v", mem.Writes)
	}
	if got := binary.LittleEndian.Uint32(mem.Bytes(b)); got != QuadVertices {
		t.Errorf("expected vertex count 4, got %d", got)
	}

	if a.Update(0) {
		t.Error("expected unchanged count to report false")
	}
	mem.Reset()
	if err := a.Flush(mem); err != nil || len(mem.Writes) != 0 {
		t.Fatalf("expected no write, got %+v (%v)", mem.Writes, err)
	}

	if !a.Update(5) {
		t.Error("expected changed count to report true")
	}
	if err := a.Flush(mem); err != nil {
		t.Fatal(err)
	}
	if len(mem.Writes) != 1 || mem.Writes[0].Offset != 4 || mem.Writes[0].Size != 4 {
		t.Fatalf("expected 4-byte write at 4, got %+v", mem.Writes)
	}
	if got := binary.LittleEndian.Uint32(mem.Bytes(b)[4:]); got != 5 {
		t.Errorf("expected instance count 5, got %d", got)
	}
	if a.Args().InstanceCount != 5 {
		t.Errorf("expected args to carry 5, got %+v", a.Args())
	}
}

func TestMemoryOutOfBounds(t *testing.T) {
	mem := NewMemory()
	b, _ := mem.CreateBuffer("small", 4, UsageVertex)
	if err := mem.WriteBuffer(b, 2, []byte{1, 2, 3}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
	if err := mem.ResizeBuffer(99, 8); err == nil {
		t.Error("expected error for unknown buffer")
	}
}
