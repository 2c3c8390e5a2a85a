package upload

import (
	"context"
	"fmt"

	"github.com/gogpu/gpures"
	"github.com/gogpu/gpures/instance"
)

// Stream uploads the columns of one instance source into bound buffers.
type Stream struct {
	src      instance.Source
	bindings []Binding
	stale    []bool // column needs a full upload
	scratch  []byte
}

// NewStream creates a stream for src. Every column starts unbound and
// stale.
func NewStream(src instance.Source) *Stream {
	n := src.Columns()
	s := &Stream{
		src:      src,
		bindings: make([]Binding, n),
		stale:    make([]bool, n),
	}
	for i := range s.stale {
		s.stale[i] = true
	}
	return s
}

// Source returns the instance source.
func (s *Stream) Source() instance.Source { return s.src }

// Bind attaches a buffer to a column. The next flush writes the whole
// column.
func (s *Stream) Bind(column int, b Binding) {
	s.bindings[column] = b
	s.stale[column] = true
}

// Binding returns the buffer attached to a column.
func (s *Stream) Binding(column int) Binding { return s.bindings[column] }

// Flush writes every dirty byte range to sink. A column whose content no
// longer fits its buffer is skipped and reported; it is uploaded in full
// once rebound. When Flush fails, every column it did not finish is
// uploaded in full by the next call.
func (s *Stream) Flush(ctx context.Context, sink Sink) ([]GrowRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dirty := s.src.Flush()
	views := s.src.Views()

	var grow []GrowRequest
	for i, v := range views {
		c := v.Column
		b := s.bindings[c]
		need := alignUp(uint64(len(v.Data)))
		if need > b.Capacity {
			s.stale[c] = true
			grow = append(grow, GrowRequest{Column: c, Buffer: b.Buffer, Current: b.Capacity, Required: RequiredSize(need)})
			gpures.Logger().Debug("upload: buffer too small", "column", c, "capacity", b.Capacity, "need", need)
			continue
		}
		if err := ctx.Err(); err != nil {
			s.abandon(views[i:])
			return grow, err
		}

		var err error
		if s.stale[c] {
			err = s.write(sink, b.Buffer, 0, v.Data)
		} else if r, ok := rangeFor(dirty, c); ok {
			start, end := alignDown(r.Offset), alignUp(r.End())
			err = s.write(sink, b.Buffer, start, v.Data[start:min(end, uint64(len(v.Data)))])
		}
		if err != nil {
			s.abandon(views[i:])
			return grow, fmt.Errorf("upload: column %d: %w", c, err)
		}
		s.stale[c] = false
	}
	return grow, nil
}

// abandon marks columns whose dirty ranges were consumed but not written.
func (s *Stream) abandon(views []instance.View) {
	for _, v := range views {
		s.stale[v.Column] = true
	}
}

// write pads data to CopyAlignment and hands it to sink.
func (s *Stream) write(sink Sink, id BufferID, offset uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	size := alignUp(uint64(len(data)))
	if size != uint64(len(data)) {
		s.scratch = append(s.scratch[:0], data...)
		for uint64(len(s.scratch)) < size {
			s.scratch = append(s.scratch, 0)
		}
		data = s.scratch
	}
	return sink.WriteBuffer(id, offset, data)
}

func rangeFor(ranges []instance.ByteRange, column int) (instance.ByteRange, bool) {
	for _, r := range ranges {
		if r.Column == column {
			return r, true
		}
	}
	return instance.ByteRange{}, false
}
