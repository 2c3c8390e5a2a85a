package slot

// Range is a half-open index interval [Start, End).
type Range struct {
	Start, End int
}

// Empty reports whether r contains no index.
func (r Range) Empty() bool { return r.End <= r.Start }

// Len returns the number of indices in r.
func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start
}

// Contains reports whether i lies in r.
func (r Range) Contains(i int) bool { return i >= r.Start && i < r.End }

// Union returns the smallest range covering r and o.
func (r Range) Union(o Range) Range {
	switch {
	case r.Empty():
		return o
	case o.Empty():
		return r
	}
	return Range{Start: min(r.Start, o.Start), End: max(r.End, o.End)}
}

// Tracker accumulates the smallest range covering every marked index.
// The zero value tracks nothing.
type Tracker struct {
	r Range
}

// Mark adds index i to the tracked range.
func (t *Tracker) Mark(i int) {
	t.r = t.r.Union(Range{Start: i, End: i + 1})
}

// MarkRange adds every index of r to the tracked range.
func (t *Tracker) MarkRange(r Range) {
	t.r = t.r.Union(r)
}

// Peek returns the tracked range without resetting it.
func (t *Tracker) Peek() Range { return t.r }

// Take returns the tracked range clamped to [0, length) and resets the
// tracker. Without an intervening Mark the next Take returns an empty range.
func (t *Tracker) Take(length int) Range {
	r := t.r
	t.r = Range{}
	r.Start = max(r.Start, 0)
	r.End = min(r.End, length)
	if r.Empty() {
		return Range{}
	}
	return r
}
