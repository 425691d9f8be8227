package batch

import (
	"container/heap"

	"github.com/flowlake/ddflow/lattice"
)

// CursorList merges several Cursors over the same (K, V, T, D) schema
// into a single logical cursor ordered by key (spec.md §4.5); values are
// not merged, they are read from each cursor active at the current key.
// Ties at a key are expanded across every matching cursor in parallel;
// no deduplication happens here — callers (join, reduce) do their own
// aggregation over MapTimes from each participating cursor.
//
// Grounded on original_source's `CursorList` (trace/cursor/cursor_list.rs
// pattern referenced throughout join.rs/group.rs) and, for the Go
// container/heap wiring, erigon-lib's merge-iterator style used to fold
// several sorted runs (state/aggregator_v3.go's mergeLoopStep) plus the
// izhukov1992-super SAM join operator's sorted-merge "peeker" shape.
type CursorList[K comparable, V comparable, T lattice.Lattice[T], D comparable] struct {
	cursors []*Cursor[K, V, T, D]
	less    func(a, b K) bool

	// active holds, after Rewind/StepKey, the indexes of cursors whose
	// current key equals the list's current key.
	active []int
}

func NewCursorList[K comparable, V comparable, T lattice.Lattice[T], D comparable](cursors []*Cursor[K, V, T, D], less func(a, b K) bool) *CursorList[K, V, T, D] {
	cl := &CursorList[K, V, T, D]{cursors: cursors, less: less}
	cl.RewindKeys()
	return cl
}

func (cl *CursorList[K, V, T, D]) KeyValid() bool { return len(cl.active) > 0 }

// Key returns the current minimal key across all cursors; callers must
// check KeyValid first.
func (cl *CursorList[K, V, T, D]) Key() K {
	return cl.cursors[cl.active[0]].Key()
}

// Active returns the cursors currently positioned at the list's key, so
// callers can iterate each one's values/times independently.
func (cl *CursorList[K, V, T, D]) Active() []*Cursor[K, V, T, D] {
	out := make([]*Cursor[K, V, T, D], len(cl.active))
	for i, idx := range cl.active {
		out[i] = cl.cursors[idx]
	}
	return out
}

// StepKey advances past the current key on every active cursor, then
// recomputes the new minimal key across all cursors (a heap-driven
// k-way merge: each cursor contributes at most one key to compare).
func (cl *CursorList[K, V, T, D]) StepKey() {
	for _, idx := range cl.active {
		cl.cursors[idx].StepKey()
	}
	cl.recomputeActive()
}

func (cl *CursorList[K, V, T, D]) RewindKeys() {
	for _, c := range cl.cursors {
		c.RewindKeys()
	}
	cl.recomputeActive()
}

// recomputeActive finds the minimal key among all cursors still
// KeyValid and collects every cursor currently sitting on it, using a
// small min-heap over the per-cursor current keys — the same structural
// shape as merging N sorted batch runs in the spine (spec §4.4's "cursor
// over spine").
func (cl *CursorList[K, V, T, D]) recomputeActive() {
	h := &keyHeap[K]{less: cl.less}
	for i, c := range cl.cursors {
		if c.KeyValid() {
			heap.Push(h, keyEntry[K]{key: c.Key(), idx: i})
		}
	}
	cl.active = cl.active[:0]
	if h.Len() == 0 {
		return
	}
	min := h.items[0].key
	for h.Len() > 0 && !cl.less(min, h.items[0].key) && !cl.less(h.items[0].key, min) {
		cl.active = append(cl.active, h.items[0].idx)
		heap.Pop(h)
	}
}

type keyEntry[K any] struct {
	key K
	idx int
}

type keyHeap[K any] struct {
	items []keyEntry[K]
	less  func(a, b K) bool
}

func (h *keyHeap[K]) Len() int           { return len(h.items) }
func (h *keyHeap[K]) Less(i, j int) bool { return h.less(h.items[i].key, h.items[j].key) }
func (h *keyHeap[K]) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *keyHeap[K]) Push(x any)         { h.items = append(h.items, x.(keyEntry[K])) }
func (h *keyHeap[K]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}
