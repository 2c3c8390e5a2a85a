package atlas

import (
	"image"
	"slices"
	"sort"

	"github.com/google/btree"
)

// span is a free horizontal interval of a shelf.
type span struct {
	x, w int
}

// shelf is a horizontal band of a layer. Rectangles are placed left to
// right; freed intervals go back to the free list and merge with their
// neighbors.
type shelf struct {
	y, height int
	free      []span // sorted by x, never adjacent
	live      int
	tallest   int

	// padding cut off by the right layer edge, owed to the rectangle
	// clipTok once the layer widens
	clip    int
	clipTok uint32
}

// take places a rectangle of width w in the first free interval that
// leaves pw (w plus padding) of room. Only an interval ending at the layer
// edge may cut the padding short.
func (s *shelf) take(w, pw, edge int) (x, used int, ok bool) {
	for i, sp := range s.free {
		need := pw
		if sp.x+sp.w == edge {
			need = w
		}
		if sp.w < need {
			continue
		}
		used = min(pw, sp.w)
		if used == sp.w {
			s.free = slices.Delete(s.free, i, i+1)
		} else {
			s.free[i] = span{x: sp.x + used, w: sp.w - used}
		}
		s.live++
		return sp.x, used, true
	}
	return 0, 0, false
}

func (s *shelf) release(x, w int) {
	i := sort.Search(len(s.free), func(i int) bool { return s.free[i].x > x })
	s.free = slices.Insert(s.free, i, span{x: x, w: w})
	if i+1 < len(s.free) && s.free[i].x+s.free[i].w == s.free[i+1].x {
		s.free[i].w += s.free[i+1].w
		s.free = slices.Delete(s.free, i+1, i+2)
	}
	if i > 0 && s.free[i-1].x+s.free[i-1].w == s.free[i].x {
		s.free[i-1].w += s.free[i].w
		s.free = slices.Delete(s.free, i, i+1)
	}
	s.live--
}

// room returns the free width at the right end of the shelf once the layer
// is widened from old to size.
func (s *shelf) room(old, size int) int {
	if n := len(s.free); n > 0 && s.free[n-1].x+s.free[n-1].w == old {
		return s.free[n-1].w + size - old
	}
	return size - old - s.clip
}

// widen extends the shelf from old to size without moving anything. Padding
// clipped at the old edge is kept clear.
func (s *shelf) widen(old, size int) {
	if n := len(s.free); n > 0 && s.free[n-1].x+s.free[n-1].w == old {
		s.free[n-1].w += size - old
		return
	}
	s.free = append(s.free, span{x: old + s.clip, w: size - old - s.clip})
	s.clip, s.clipTok = 0, 0
}

func shelfLess(a, b *shelf) bool {
	if a.height != b.height {
		return a.height < b.height
	}
	return a.y < b.y
}

// placement records where a live rectangle sits.
type placement struct {
	shelf *shelf
	rect  image.Rectangle
	used  int
}

// layer is one square packing plane. Shelves stack from the top; an empty
// bottom shelf is handed back so its rows can be reused at any height.
type layer struct {
	size    int
	padding int
	shelves []*shelf // ordered by y
	heights *btree.BTreeG[*shelf]
	top     int
	allocs  map[uint32]placement
	token   uint32
	area    int
}

func newLayer(size, padding int) *layer {
	return &layer{
		size:    size,
		padding: padding,
		heights: btree.NewG(8, shelfLess),
		allocs:  make(map[uint32]placement),
	}
}

// alloc places a w×h rectangle. Existing shelves are tried shortest first;
// while a new shelf can still be opened, shelves more than twice as tall
// as needed are left alone.
func (l *layer) alloc(w, h int) (uint32, image.Rectangle, bool) {
	if w > l.size || h > l.size {
		return 0, image.Rectangle{}, false
	}
	pw, ph := w+l.padding, h+l.padding
	canOpen := l.top+h <= l.size

	var (
		found   *shelf
		x, used int
		placed  bool
	)
	maxHeight := l.size
	if canOpen {
		maxHeight = 2 * ph
	}
	l.heights.AscendGreaterOrEqual(&shelf{height: h}, func(s *shelf) bool {
		if s.height > maxHeight {
			return false
		}
		if s.height < ph && s.y+s.height != l.size {
			return true
		}
		if x, used, placed = s.take(w, pw, l.size); placed {
			found = s
			return false
		}
		return true
	})

	if !placed && canOpen {
		s := &shelf{
			y:      l.top,
			height: min(ph, l.size-l.top),
			free:   []span{{x: 0, w: l.size}},
		}
		l.top += s.height
		l.shelves = append(l.shelves, s)
		l.heights.ReplaceOrInsert(s)
		x, used, placed = s.take(w, pw, l.size)
		found = s
	}
	if !placed {
		return 0, image.Rectangle{}, false
	}

	l.token++
	if l.token == 0 {
		l.token++
	}
	r := image.Rect(x, found.y, x+w, found.y+h)
	l.allocs[l.token] = placement{shelf: found, rect: r, used: used}
	found.tallest = max(found.tallest, h)
	if used < pw && x+used == l.size {
		found.clip, found.clipTok = pw-used, l.token
	}
	l.area += w * h
	return l.token, r, true
}

func (l *layer) free(token uint32) bool {
	p, ok := l.allocs[token]
	if !ok {
		return false
	}
	delete(l.allocs, token)
	if p.shelf.clipTok == token {
		p.shelf.clip, p.shelf.clipTok = 0, 0
	}
	p.shelf.release(p.rect.Min.X, p.used)
	l.area -= p.rect.Dx() * p.rect.Dy()
	for n := len(l.shelves); n > 0 && l.shelves[n-1].live == 0; n-- {
		s := l.shelves[n-1]
		l.heights.Delete(s)
		l.shelves = l.shelves[:n-1]
		l.top = s.y
	}
	return true
}

// band returns the height s will have once the layer is widened to size.
// A bottom shelf clipped by the old edge gets its padding back.
func (l *layer) band(s *shelf, size int) int {
	if size > l.size && s.y+s.height == l.size {
		return max(s.height, min(s.tallest+l.padding, size-s.y))
	}
	return s.height
}

// fitsAt reports whether a w×h rectangle would fit once the layer is
// widened to size.
func (l *layer) fitsAt(w, h, size int) bool {
	if w > size || h > size {
		return false
	}
	top := l.top
	if n := len(l.shelves); n > 0 {
		last := l.shelves[n-1]
		top = last.y + l.band(last, size)
	}
	if top+h <= size {
		return true
	}
	ph := h + l.padding
	fits := false
	l.heights.AscendGreaterOrEqual(&shelf{height: h}, func(s *shelf) bool {
		if b := l.band(s, size); b < ph && s.y+b != size {
			return true
		}
		fits = s.room(l.size, size) >= w
		return !fits
	})
	return fits
}

func (l *layer) widen(size int) {
	if size <= l.size {
		return
	}
	if n := len(l.shelves); n > 0 {
		last := l.shelves[n-1]
		if b := l.band(last, size); b != last.height {
			l.heights.Delete(last)
			last.height = b
			l.heights.ReplaceOrInsert(last)
			l.top = last.y + b
		}
	}
	for _, s := range l.shelves {
		if s.clip > 0 {
			p := l.allocs[s.clipTok]
			p.used += s.clip
			l.allocs[s.clipTok] = p
		}
		s.widen(l.size, size)
	}
	l.size = size
}
