package slot

import (
	"math/rand/v2"
	"slices"
	"testing"
)

// --- Store Tests ---

func TestStoreSwapRemove(t *testing.T) {
	var s Store[rune]
	ids := []ID{s.Push('a'), s.Push('a'), s.Push('b')}
	if !slices.Equal(ids, []ID{0, 1, 2}) {
		t.Fatalf("expected ids [0 1 2], got %v", ids)
	}

	if !s.Remove(0) {
		t.Fatal("expected Remove(0) to succeed")
	}
	if got := string(s.Slice()); got != "ba" {
		t.Errorf("expected slice \"ba\", got %q", got)
	}
	if v, ok := s.Get(1); !ok || v != 'a' {
		t.Errorf("expected Get(1) = 'a', got %q (%v)", v, ok)
	}
	if v, ok := s.Get(2); !ok || v != 'b' {
		t.Errorf("expected Get(2) = 'b', got %q (%v)", v, ok)
	}
	if _, ok := s.Get(0); ok {
		t.Error("expected Get(0) to miss after removal")
	}

	if id := s.Push('c'); id != 0 {
		t.Errorf("expected freed id 0 to be reused, got %d", id)
	}
	if err := s.index.check(); err != nil {
		t.Fatal(err)
	}
}

func TestStoreFreeListLIFO(t *testing.T) {
	var s Store[int]
	for i := range 5 {
		s.Push(i)
	}
	s.Remove(1)
	s.Remove(3)

	got := []ID{s.Push(10), s.Push(11), s.Push(12)}
	want := []ID{3, 1, 5}
	if !slices.Equal(got, want) {
		t.Errorf("expected reuse order %v, got %v", want, got)
	}
}

func TestStoreRemoveTolerant(t *testing.T) {
	var s Store[int]
	id := s.Push(7)
	if s.Remove(42) {
		t.Error("expected removing an unknown id to report false")
	}
	if !s.Remove(id) {
		t.Fatal("expected first removal to succeed")
	}
	if s.Remove(id) {
		t.Error("expected second removal to be a no-op")
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got len %d", s.Len())
	}
	if p := s.GetMut(id); p != nil {
		t.Error("expected GetMut on a vacant id to return nil")
	}
}

func TestStoreGetMutMarksDirty(t *testing.T) {
	var s Store[int]
	s.Push(1)
	id := s.Push(2)
	s.Push(3)
	s.TakeDirty()

	*s.GetMut(id) = 20
	if r := s.TakeDirty(); r != (Range{Start: 1, End: 2}) {
		t.Errorf("expected dirty [1,2), got %v", r)
	}
	if v, _ := s.Get(id); v != 20 {
		t.Errorf("expected 20, got %d", v)
	}
}

func TestStoreRemoveMarksBothPositions(t *testing.T) {
	var s Store[int]
	a := s.Push(1)
	s.Push(2)
	s.Push(3)
	s.Push(4)
	s.TakeDirty()

	s.Remove(a)
	// Position 0 received the last element, position 3 was vacated and is
	// clamped away by the shrink.
	if r := s.TakeDirty(); r != (Range{Start: 0, End: 3}) {
		t.Errorf("expected dirty [0,3), got %v", r)
	}
}

func TestStoreChurnReusesIDs(t *testing.T) {
	var s Store[uint32]
	for i := range 100 {
		if id := s.Push(uint32(i)); id != ID(i) {
			t.Fatalf("expected id %d, got %d", i, id)
		}
	}
	s.TakeDirty()

	for id := ID(0); id < 100; id += 2 {
		s.Remove(id)
	}
	r := s.TakeDirty()
	if r.Start != 0 || r.End != s.Len() {
		t.Errorf("expected dirty range to cover [0,%d), got %v", s.Len(), r)
	}

	seen := make(map[ID]bool)
	for i := range 50 {
		id := s.Push(uint32(1000 + i))
		if id >= 100 {
			t.Fatalf("expected a recycled id below 100, got %d", id)
		}
		if id%2 != 0 || seen[id] {
			t.Fatalf("unexpected id %d", id)
		}
		seen[id] = true
	}
	if s.Len() != 100 {
		t.Errorf("expected 100 elements, got %d", s.Len())
	}
	if err := s.index.check(); err != nil {
		t.Fatal(err)
	}
}

func TestStoreAllAndBytes(t *testing.T) {
	var s Store[uint32]
	s.Push(0x01020304)
	id := s.Push(0x05060708)

	n := 0
	for got, v := range s.All() {
		if w, _ := s.Get(got); w != v {
			t.Errorf("All yielded %d=%x, Get returned %x", got, v, w)
		}
		n++
	}
	if n != 2 {
		t.Errorf("expected 2 elements, got %d", n)
	}

	if got := len(s.Bytes()); got != 8 {
		t.Errorf("expected 8 bytes, got %d", got)
	}
	if s.ElemSize() != 4 {
		t.Errorf("expected element size 4, got %d", s.ElemSize())
	}
	s.Remove(id)
	s.Remove(s.IDAt(0))
	if s.Bytes() != nil {
		t.Error("expected nil bytes for an empty store")
	}
}

func TestStoreClear(t *testing.T) {
	s := New[int](4)
	a := s.Push(1)
	s.Push(2)
	s.Clear()
	if s.Contains(a) || s.Len() != 0 {
		t.Error("expected Clear to forget every id")
	}
	if id := s.Push(3); id != 0 {
		t.Errorf("expected fresh id 0 after Clear, got %d", id)
	}
}

// TestStoreRandomOps checks id stability, density and dirty soundness
// against a map model.
func TestStoreRandomOps(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	var s Store[int]
	model := make(map[ID]int)
	snapshot := slices.Clone(s.Slice())
	next := 0

	for step := range 5000 {
		switch op := rng.IntN(10); {
		case op < 4:
			next++
			id := s.Push(next)
			if _, dup := model[id]; dup {
				t.Fatalf("step %d: id %d handed out while occupied", step, id)
			}
			model[id] = next
		case op < 7:
			id := ID(rng.IntN(s.index.Cap() + 1))
			_, live := model[id]
			if s.Remove(id) != live {
				t.Fatalf("step %d: Remove(%d) disagrees with model", step, id)
			}
			delete(model, id)
		case op < 9:
			id := ID(rng.IntN(s.index.Cap() + 1))
			p := s.GetMut(id)
			if _, live := model[id]; live != (p != nil) {
				t.Fatalf("step %d: GetMut(%d) disagrees with model", step, id)
			}
			if p != nil {
				next++
				*p = next
				model[id] = next
			}
		default:
			r := s.TakeDirty()
			cur := s.Slice()
			for i := range cur {
				if (i >= len(snapshot) || cur[i] != snapshot[i]) && !r.Contains(i) {
					t.Fatalf("step %d: position %d changed but dirty range is %v", step, i, r)
				}
			}
			snapshot = slices.Clone(cur)
			if r2 := s.TakeDirty(); !r2.Empty() {
				t.Fatalf("step %d: second take returned %v", step, r2)
			}
		}

		if s.Len() != len(model) {
			t.Fatalf("step %d: expected len %d, got %d", step, len(model), s.Len())
		}
		for id, want := range model {
			if got, ok := s.Get(id); !ok || got != want {
				t.Fatalf("step %d: Get(%d) = %d,%v, expected %d", step, id, got, ok, want)
			}
		}
		if err := s.index.check(); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
	}
}

func BenchmarkStorePushRemove(b *testing.B) {
	s := New[[4]float32](1024)
	ids := make([]ID, 0, 1024)
	for range 1024 {
		ids = append(ids, s.Push([4]float32{}))
	}
	b.ReportAllocs()
	i := 0
	for b.Loop() {
		k := i % len(ids)
		s.Remove(ids[k])
		ids[k] = s.Push([4]float32{1, 2, 3, 4})
		i++
	}
}
