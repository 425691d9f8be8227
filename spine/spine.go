package spine

import (
	"math/bits"

	"github.com/flowlake/ddflow/batch"
	"github.com/flowlake/ddflow/lattice"
)

// FuelConstant is the `c` in spec §4.4's `F = c · 2^k`; the spec requires
// c ≥ 4 so that a slot's merge finishes (amortized) before the next slot
// of the same level could need it again.
const FuelConstant = 4

type slotState int

const (
	slotVacant slotState = iota
	slotSingle
	slotDouble
)

type slot[K comparable, V comparable, T lattice.Lattice[T], D comparable] struct {
	state  slotState
	single *batch.Batch[K, V, T, D]
	merger *Merger[K, V, T, D]
	// mergingA/mergingB are the Double state's two inputs, kept readable
	// (cursors over them still see every update) until the merge
	// completes and swaps in the combined result — correctness requires
	// a merge-in-progress to never make data temporarily disappear.
	mergingA, mergingB *batch.Batch[K, V, T, D]
	// pending holds batches that arrived at this level while it was
	// already Double; they're placed (possibly cascading into their own
	// merge) as soon as the level frees up.
	pending []*batch.Batch[K, V, T, D]
}

// Spine is the append-only, level-indexed sequence of batch slots
// (spec.md §3's "Trace (spine)" and §4.4). It owns its batches; dropping
// the Spine (letting it become unreachable) drops them.
//
// Simplification (recorded in DESIGN.md): the spec's "roll up slots < k
// into a single merge targeting slot k" step is implemented here as the
// standard recursive collision cascade instead of an explicit multi-slot
// fold: inserting at an occupied Single slot starts a Double; a
// completed Double's result recursively inserts one level up. This
// preserves the required invariants (adjacent slots not both Double,
// batch accounted at 2^level) with a simpler state machine.
type Spine[K comparable, V comparable, T lattice.Lattice[T], D comparable] struct {
	cfg   Config[K, V, T, D]
	slots []slot[K, V, T, D]

	logicalCompaction  lattice.Antichain[T]
	physicalCompaction lattice.Antichain[T]
}

func New[K comparable, V comparable, T lattice.Lattice[T], D comparable](cfg Config[K, V, T, D]) *Spine[K, V, T, D] {
	return &Spine[K, V, T, D]{cfg: cfg}
}

// levelFor returns ⌈log2(size)⌉, the target slot for a batch of the given
// logical size (spec §4.4). A zero-or-one-sized batch targets level 0.
func levelFor(size int) int {
	if size <= 1 {
		return 0
	}
	return bits.Len(uint(size - 1))
}

// SetLogicalCompaction updates the frontier beyond which stored times may
// be advanced during future merges. Advancing it never rewrites batches
// already materialized; it only affects merges from here on (spec §5:
// "no mutex is required... inserts are append-only publication").
func (s *Spine[K, V, T, D]) SetLogicalCompaction(f lattice.Antichain[T]) {
	s.logicalCompaction = f
}

func (s *Spine[K, V, T, D]) SetPhysicalCompaction(f lattice.Antichain[T]) {
	s.physicalCompaction = f
}

// Insert introduces a freshly sealed batch into the spine (spec §4.4).
func (s *Spine[K, V, T, D]) Insert(b *batch.Batch[K, V, T, D]) {
	k := levelFor(b.Len())
	fuel := FuelConstant * (1 << uint(k))
	s.applyFuel(fuel)
	s.placeAt(k, b)
}

// applyFuel advances every in-progress merge by `fuel` units, low level
// to high (spec §4.4 step 2), cascading any that complete.
func (s *Spine[K, V, T, D]) applyFuel(fuel int) {
	for level := 0; level < len(s.slots); level++ {
		sl := &s.slots[level]
		if sl.state != slotDouble {
			continue
		}
		if sl.merger.Work(fuel) {
			result := sl.merger.Finish()
			sl.state = slotVacant
			sl.merger = nil
			sl.mergingA, sl.mergingB = nil, nil
			pending := sl.pending
			sl.pending = nil
			s.placeAt(level+1, result)
			for _, p := range pending {
				s.placeAt(level, p)
			}
		}
	}
}

// placeAt puts a batch at the given level, starting a new merge on
// collision with a Single, or queuing behind an in-progress Double.
func (s *Spine[K, V, T, D]) placeAt(level int, b *batch.Batch[K, V, T, D]) {
	for len(s.slots) <= level {
		s.slots = append(s.slots, slot[K, V, T, D]{})
	}
	sl := &s.slots[level]
	switch sl.state {
	case slotVacant:
		sl.state = slotSingle
		sl.single = b
	case slotSingle:
		merger := NewMerger[K, V, T, D](sl.single, b, s.logicalCompaction, s.cfg)
		sl.mergingA, sl.mergingB = sl.single, b
		sl.state = slotDouble
		sl.single = nil
		sl.merger = merger
	case slotDouble:
		sl.pending = append(sl.pending, b)
	}
}

// Exert applies a background fuel increment even absent a new insert
// (spec §4.6 step 6: "periodically call the trace's exert() to apply
// background merge fuel"), so merges eventually finish even when inserts
// stop arriving at a level that needs draining.
func (s *Spine[K, V, T, D]) Exert(fuel int) {
	s.applyFuel(fuel)
}

// Cursors returns one cursor per currently-readable batch: Single slots
// contribute their one batch, and a Double (merge in progress) slot
// contributes both of its pre-merge inputs, so a reader never observes
// data vanishing mid-merge. Combined via a CursorList, this is spec
// §4.4's "reading the spine produces a concatenation of per-batch
// cursors."
func (s *Spine[K, V, T, D]) Cursors() []*batch.Cursor[K, V, T, D] {
	var out []*batch.Cursor[K, V, T, D]
	for _, b := range s.Batches() {
		out = append(out, b.Cursor())
	}
	return out
}

// Batches returns every currently-readable batch, lowest level first.
func (s *Spine[K, V, T, D]) Batches() []*batch.Batch[K, V, T, D] {
	var out []*batch.Batch[K, V, T, D]
	for i := range s.slots {
		switch s.slots[i].state {
		case slotSingle:
			out = append(out, s.slots[i].single)
		case slotDouble:
			out = append(out, s.slots[i].mergingA, s.slots[i].mergingB)
		}
	}
	return out
}
