package instance

import "github.com/gogpu/gpures/slot"

// column is one parallel array of a table. Columns never push or remove on
// their own; the owning table drives them in lockstep with its slot.Index.
type column[T any] struct {
	elems []T
	dirty slot.Tracker
}

func (c *column[T]) push(v T) {
	c.elems = append(c.elems, v)
	c.dirty.Mark(len(c.elems) - 1)
}

func (c *column[T]) mut(pos int) *T {
	c.dirty.Mark(pos)
	return &c.elems[pos]
}

func (c *column[T]) swapRemove(removed, last int) {
	c.elems[removed] = c.elems[last]
	var zero T
	c.elems[last] = zero
	c.elems = c.elems[:last]
	c.dirty.Mark(removed)
	c.dirty.Mark(last)
}

func (c *column[T]) markAll() {
	c.dirty.MarkRange(slot.Range{Start: 0, End: len(c.elems)})
}

func (c *column[T]) flush(col int, out []ByteRange) []ByteRange {
	if br, ok := byteRange(col, c.dirty.Take(len(c.elems)), c.elems); ok {
		out = append(out, br)
	}
	return out
}

// Pair is the record kind of a Table2.
type Pair[A, B any] struct {
	A A
	B B
}

// Table2 stores records split across two parallel arrays.
type Table2[A, B any] struct {
	index slot.Index
	a     column[A]
	b     column[B]
}

// Push appends a record to both columns.
func (t *Table2[A, B]) Push(a A, b B) ID[Pair[A, B]] {
	id, _ := t.index.Push()
	t.a.push(a)
	t.b.push(b)
	return ID[Pair[A, B]]{id: id}
}

// Remove deletes the record from both columns. Unknown ids are ignored.
func (t *Table2[A, B]) Remove(id ID[Pair[A, B]]) bool {
	removed, last, ok := t.index.Remove(id.id)
	if !ok {
		return false
	}
	t.a.swapRemove(removed, last)
	t.b.swapRemove(removed, last)
	return true
}

// Get returns both fields of the record.
func (t *Table2[A, B]) Get(id ID[Pair[A, B]]) (a A, b B, ok bool) {
	pos, ok := t.index.Lookup(id.id)
	if !ok {
		return a, b, false
	}
	return t.a.elems[pos], t.b.elems[pos], true
}

// MutA returns the first field of the record and marks only that column.
func (t *Table2[A, B]) MutA(id ID[Pair[A, B]]) *A {
	pos, ok := t.index.Lookup(id.id)
	if !ok {
		return nil
	}
	return t.a.mut(pos)
}

// MutB returns the second field of the record and marks only that column.
func (t *Table2[A, B]) MutB(id ID[Pair[A, B]]) *B {
	pos, ok := t.index.Lookup(id.id)
	if !ok {
		return nil
	}
	return t.b.mut(pos)
}

// Len returns the number of records.
func (t *Table2[A, B]) Len() int { return t.index.Len() }

// Columns implements Source.
func (t *Table2[A, B]) Columns() int { return 2 }

// MarkAll implements Source.
func (t *Table2[A, B]) MarkAll() {
	t.a.markAll()
	t.b.markAll()
}

// Flush implements Source.
func (t *Table2[A, B]) Flush() []ByteRange {
	out := t.a.flush(0, nil)
	return t.b.flush(1, out)
}

// Views implements Source.
func (t *Table2[A, B]) Views() []View {
	return []View{view(0, t.a.elems), view(1, t.b.elems)}
}

// Triple is the record kind of a Table3.
type Triple[A, B, C any] struct {
	A A
	B B
	C C
}

// Table3 stores records split across three parallel arrays.
type Table3[A, B, C any] struct {
	index slot.Index
	a     column[A]
	b     column[B]
	c     column[C]
}

// Push appends a record to every column.
func (t *Table3[A, B, C]) Push(a A, b B, c C) ID[Triple[A, B, C]] {
	id, _ := t.index.Push()
	t.a.push(a)
	t.b.push(b)
	t.c.push(c)
	return ID[Triple[A, B, C]]{id: id}
}

// Remove deletes the record from every column. Unknown ids are ignored.
func (t *Table3[A, B, C]) Remove(id ID[Triple[A, B, C]]) bool {
	removed, last, ok := t.index.Remove(id.id)
	if !ok {
		return false
	}
	t.a.swapRemove(removed, last)
	t.b.swapRemove(removed, last)
	t.c.swapRemove(removed, last)
	return true
}

// Get returns every field of the record.
func (t *Table3[A, B, C]) Get(id ID[Triple[A, B, C]]) (a A, b B, c C, ok bool) {
	pos, ok := t.index.Lookup(id.id)
	if !ok {
		return a, b, c, false
	}
	return t.a.elems[pos], t.b.elems[pos], t.c.elems[pos], true
}

// MutA returns the first field and marks its column.
func (t *Table3[A, B, C]) MutA(id ID[Triple[A, B, C]]) *A {
	pos, ok := t.index.Lookup(id.id)
	if !ok {
		return nil
	}
	return t.a.mut(pos)
}

// MutB returns the second field and marks its column.
func (t *Table3[A, B, C]) MutB(id ID[Triple[A, B, C]]) *B {
	pos, ok := t.index.Lookup(id.id)
	if !ok {
		return nil
	}
	return t.b.mut(pos)
}

// MutC returns the third field and marks its column.
func (t *Table3[A, B, C]) MutC(id ID[Triple[A, B, C]]) *C {
	pos, ok := t.index.Lookup(id.id)
	if !ok {
		return nil
	}
	return t.c.mut(pos)
}

// Len returns the number of records.
func (t *Table3[A, B, C]) Len() int { return t.index.Len() }

// Columns implements Source.
func (t *Table3[A, B, C]) Columns() int { return 3 }

// MarkAll implements Source.
func (t *Table3[A, B, C]) MarkAll() {
	t.a.markAll()
	t.b.markAll()
	t.c.markAll()
}

// Flush implements Source.
func (t *Table3[A, B, C]) Flush() []ByteRange {
	out := t.a.flush(0, nil)
	out = t.b.flush(1, out)
	return t.c.flush(2, out)
}

// Views implements Source.
func (t *Table3[A, B, C]) Views() []View {
	return []View{view(0, t.a.elems), view(1, t.b.elems), view(2, t.c.elems)}
}
