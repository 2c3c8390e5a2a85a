package slot

import "fmt"

// ID identifies an occupied slot. IDs are reused only after removal.
type ID uint32

// None is the reserved end-of-list marker. It is never handed out.
const None ID = ^ID(0)

// entry is either occupied (index into the dense array) or vacant
// (link to the next vacant id, None at the end of the list).
type entry struct {
	index    uint32
	next     ID
	occupied bool
}

// Index maps ids to dense positions and back. It carries no element data,
// so several parallel arrays can share one Index.
//
// The zero value is an empty index ready for use.
type Index struct {
	entries []entry
	ids     []ID // parallel to the dense array
	head    ID   // first vacant id, valid when vacant > 0
	vacant  int
}

// Len returns the number of occupied ids.
func (ix *Index) Len() int { return len(ix.ids) }

// Cap returns the size of the id table, occupied and vacant.
func (ix *Index) Cap() int { return len(ix.entries) }

// Push allocates an id for a new element appended at the end of the dense
// array and returns the id together with that dense position.
func (ix *Index) Push() (ID, int) {
	pos := len(ix.ids)
	var id ID
	if ix.vacant > 0 {
		id = ix.head
		e := &ix.entries[id]
		ix.head = e.next
		ix.vacant--
		*e = entry{index: uint32(pos), next: None, occupied: true} //nolint:gosec // pos < len(entries) <= None
	} else {
		if len(ix.entries) >= int(None) {
			panic("slot: id space exhausted")
		}
		id = ID(len(ix.entries)) //nolint:gosec // bounded above
		ix.entries = append(ix.entries, entry{index: uint32(pos), next: None, occupied: true})
	}
	ix.ids = append(ix.ids, id)
	return id, pos
}

// Lookup returns the dense position of id.
func (ix *Index) Lookup(id ID) (int, bool) {
	if int(id) >= len(ix.entries) {
		return 0, false
	}
	e := ix.entries[id]
	if !e.occupied {
		return 0, false
	}
	return int(e.index), true
}

// IDAt returns the id stored at dense position pos.
func (ix *Index) IDAt(pos int) ID { return ix.ids[pos] }

// Remove vacates id. The caller must mirror the swap on its dense arrays:
// move element last into position removed and truncate to last.
// When id is not occupied, ok is false and nothing changes.
func (ix *Index) Remove(id ID) (removed, last int, ok bool) {
	removed, ok = ix.Lookup(id)
	if !ok {
		return 0, 0, false
	}
	if ix.ids[removed] != id {
		panic(fmt.Sprintf("slot: index desync: id %d points at %d which holds id %d", id, removed, ix.ids[removed]))
	}
	last = len(ix.ids) - 1
	moved := ix.ids[last]
	ix.ids[removed] = moved
	ix.entries[moved].index = uint32(removed) //nolint:gosec // removed < len(ids)
	ix.ids = ix.ids[:last]

	next := None
	if ix.vacant > 0 {
		next = ix.head
	}
	ix.entries[id] = entry{next: next}
	ix.head = id
	ix.vacant++
	return removed, last, true
}

// Reset drops every id. Previously issued ids become unknown.
func (ix *Index) Reset() {
	ix.entries = ix.entries[:0]
	ix.ids = ix.ids[:0]
	ix.head = 0
	ix.vacant = 0
}

// check verifies that the id table and the dense id list are inverses
// and that the free list covers every vacant entry exactly once.
func (ix *Index) check() error {
	occupied := 0
	for id, e := range ix.entries {
		if !e.occupied {
			continue
		}
		occupied++
		if int(e.index) >= len(ix.ids) || ix.ids[e.index] != ID(id) { //nolint:gosec // test helper
			return fmt.Errorf("id %d -> index %d does not map back", id, e.index)
		}
	}
	if occupied != len(ix.ids) {
		return fmt.Errorf("occupied %d, dense %d", occupied, len(ix.ids))
	}
	seen := 0
	for id, n := ix.head, ix.vacant; n > 0; n-- {
		if int(id) >= len(ix.entries) || ix.entries[id].occupied {
			return fmt.Errorf("free list hits invalid id %d", id)
		}
		seen++
		id = ix.entries[id].next
	}
	if seen+occupied != len(ix.entries) {
		return fmt.Errorf("free list has %d ids, expected %d", seen, len(ix.entries)-occupied)
	}
	return nil
}
