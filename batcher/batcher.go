package batcher

import (
	"container/heap"

	"github.com/pkg/errors"

	"github.com/flowlake/ddflow/batch"
	"github.com/flowlake/ddflow/lattice"
)

// Batcher accumulates pushed chunks as a set of sorted, consolidated
// runs, and cuts a Batch out of them on Seal (spec.md §4.2). It never
// fails on Push; Seal fails only if the caller regresses the upper
// antichain.
//
// Eager inter-chunk merging ("when fuel permits, adjacent runs are
// merged eagerly") is deferred entirely to Seal's multi-way merge rather
// than interleaved with Push — runs accumulate until sealed, then merge
// once. This trades a little peak memory for a much simpler Push, which
// the spec leaves as an internal choice ("internally... merges runs
// using a multi-way merge"); see DESIGN.md.
type Batcher[K comparable, V comparable, T lattice.Lattice[T], D comparable] struct {
	lessKey  func(a, b K) bool
	lessVal  func(a, b V) bool
	lessTime func(a, b T) bool
	plus     func(a, b D) D
	isZero   func(D) bool

	runs  [][]Update[K, V, T, D]
	lower lattice.Antichain[T]
}

func New[K comparable, V comparable, T lattice.Lattice[T], D comparable](
	lower lattice.Antichain[T],
	lessKey func(a, b K) bool,
	lessVal func(a, b V) bool,
	lessTime func(a, b T) bool,
	plus func(a, b D) D,
	isZero func(D) bool,
) *Batcher[K, V, T, D] {
	return &Batcher[K, V, T, D]{
		lessKey: lessKey, lessVal: lessVal, lessTime: lessTime,
		plus: plus, isZero: isZero,
		lower: lower.Clone(),
	}
}

// Push accepts an unsorted chunk of updates and accumulates it as a new
// sorted, consolidated run.
func (b *Batcher[K, V, T, D]) Push(chunk []Update[K, V, T, D]) {
	run := sortAndConsolidate(append([]Update[K, V, T, D]{}, chunk...), b.lessKey, b.lessVal, b.lessTime, b.plus, b.isZero)
	if len(run) > 0 {
		b.runs = append(b.runs, run)
	}
}

// Frontier returns an antichain ≤ every time still held in the batcher.
// An empty result (no runs held) is the frontier at infinity: nothing is
// outstanding.
func (b *Batcher[K, V, T, D]) Frontier() lattice.Antichain[T] {
	var f lattice.Antichain[T]
	for _, run := range b.runs {
		for _, u := range run {
			f.Insert(u.Time)
		}
	}
	return f
}

// Seal produces a batch containing exactly those held updates with time
// not ≥ any element of upper, leaving the rest in the batcher for a later
// Seal (spec §4.2).
func (b *Batcher[K, V, T, D]) Seal(upper lattice.Antichain[T]) (*batch.Batch[K, V, T, D], error) {
	if !b.lower.LessEqual(upper) {
		return nil, errors.New("batcher: seal upper regressed below current lower envelope")
	}

	merged := mergeRuns(b.runs, b.lessKey, b.lessVal, b.lessTime, b.plus, b.isZero)

	var toSeal, remain []Update[K, V, T, D]
	for _, u := range merged {
		if upper.LessEqualTime(u.Time) {
			remain = append(remain, u)
		} else {
			toSeal = append(toSeal, u)
		}
	}

	bld := batch.NewBuilder[K, V, T, D](len(toSeal), len(toSeal), len(toSeal))
	for _, u := range toSeal {
		bld.Push(u.Key, u.Val, u.Time, u.Diff)
	}
	desc := batch.NewDescription(b.lower.Clone(), upper.Clone())
	out := bld.Finish(desc)

	b.lower = upper.Clone()
	b.runs = nil
	if len(remain) > 0 {
		b.runs = [][]Update[K, V, T, D]{remain}
	}
	return out, nil
}

// mergeRuns performs a min-heap k-way merge of the batcher's sorted,
// per-chunk-consolidated runs, then re-consolidates across runs (the
// same (key, val, time) triple can appear once per run, contributed by
// different Push calls).
func mergeRuns[K comparable, V comparable, T lattice.Lattice[T], D comparable](
	runs [][]Update[K, V, T, D],
	lessKey func(a, b K) bool,
	lessVal func(a, b V) bool,
	lessTime func(a, b T) bool,
	plus func(a, b D) D,
	isZero func(D) bool,
) []Update[K, V, T, D] {
	h := &runHeap[K, V, T, D]{lessKey: lessKey, lessVal: lessVal, lessTime: lessTime}
	for i, run := range runs {
		if len(run) > 0 {
			heap.Push(h, runCursor[K, V, T, D]{run: run, pos: 0, idx: i})
		}
	}

	var out []Update[K, V, T, D]
	for h.Len() > 0 {
		top := h.items[0]
		u := top.run[top.pos]
		if n := len(out); n > 0 && out[n-1].Key == u.Key && out[n-1].Val == u.Val && out[n-1].Time == u.Time {
			out[n-1].Diff = plus(out[n-1].Diff, u.Diff)
		} else {
			out = append(out, u)
		}
		if top.pos+1 < len(top.run) {
			h.items[0].pos++
			heap.Fix(h, 0)
		} else {
			heap.Pop(h)
		}
	}

	final := out[:0:0]
	for _, u := range out {
		if !isZero(u.Diff) {
			final = append(final, u)
		}
	}
	return final
}

type runCursor[K comparable, V comparable, T any, D comparable] struct {
	run []Update[K, V, T, D]
	pos int
	idx int
}

// runHeap is a min-heap of runCursor, ordered by the current update at
// each run's position. Grounded on the same container/heap wiring as
// batch.CursorList's keyHeap.
type runHeap[K comparable, V comparable, T any, D comparable] struct {
	items    []runCursor[K, V, T, D]
	lessKey  func(a, b K) bool
	lessVal  func(a, b V) bool
	lessTime func(a, b T) bool
}

func (h *runHeap[K, V, T, D]) Len() int { return len(h.items) }
func (h *runHeap[K, V, T, D]) Less(i, j int) bool {
	a, b := h.items[i].run[h.items[i].pos], h.items[j].run[h.items[j].pos]
	if a.Key != b.Key {
		return h.lessKey(a.Key, b.Key)
	}
	if a.Val != b.Val {
		return h.lessVal(a.Val, b.Val)
	}
	return h.lessTime(a.Time, b.Time)
}
func (h *runHeap[K, V, T, D]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *runHeap[K, V, T, D]) Push(x any)    { h.items = append(h.items, x.(runCursor[K, V, T, D])) }
func (h *runHeap[K, V, T, D]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}
