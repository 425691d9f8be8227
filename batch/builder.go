package batch

import (
	"github.com/flowlake/ddflow/container"
	"github.com/flowlake/ddflow/lattice"
)

// Builder consumes a key-major, value-major, time-major stream of
// already-consolidated (key, val, time, diff) updates and produces one
// Batch (spec.md §4.3). Callers must push updates in sorted order and
// must not push two updates with the same (key, val, time) — the
// batcher's chunk-consolidation step (spec §4.2) is responsible for
// that before updates ever reach the builder.
type Builder[K comparable, V comparable, T lattice.Lattice[T], D comparable] struct {
	keys     *container.Slice[K]
	keysOffs *container.OffsetList

	vals     *container.Slice[V]
	valsOffs *container.OffsetList

	times *container.Slice[T]
	diffs *container.Slice[D]

	singletons int

	haveKey   bool
	curKey    K
	haveVal   bool
	curVal    V
	curValLen int // updates written to times/diffs for the in-progress value

	haveLast  bool
	lastTime  T
	lastDiff  D
}

// NewBuilder allocates a builder with room for the given number of keys,
// values, and updates — the caller's best estimate, typically the
// combined capacity of the input chunks (spec §4.1's merge_capacity).
func NewBuilder[K comparable, V comparable, T lattice.Lattice[T], D comparable](keyCap, valCap, updCap int) *Builder[K, V, T, D] {
	return &Builder[K, V, T, D]{
		keys:     container.WithCapacity[K](keyCap),
		keysOffs: container.NewOffsetList(keyCap),
		vals:     container.WithCapacity[V](valCap),
		valsOffs: container.NewOffsetList(valCap),
		times:    container.WithCapacity[T](updCap),
		diffs:    container.WithCapacity[D](updCap),
	}
}

// Push appends one (key, val, time, diff) update. Input must arrive
// key-major, then value-major, then time-major; equal consecutive keys
// and (key, val) pairs are run-compressed into a single keys/vals
// record (spec §4.3 optimization 1).
func (b *Builder[K, V, T, D]) Push(k K, v V, t T, d D) {
	if !b.haveKey || k != b.curKey {
		b.closeKey()
		b.keys.PushOwned(k)
		b.haveKey = true
		b.curKey = k
		b.haveVal = false
	}
	if !b.haveVal || v != b.curVal {
		b.closeVal()
		b.vals.PushOwned(v)
		b.haveVal = true
		b.curVal = v
		b.curValLen = 0
	}

	if b.haveLast && t == b.lastTime && d == b.lastDiff {
		// Identical to the immediately preceding update: elide it from
		// times/diffs (spec §4.3 optimization 2). The cursor recovers it
		// by scanning backward to the nearest non-empty value range.
		b.singletons++
		b.curValLen++
		return
	}

	if b.curValLen == 1 && b.times.Len() == b.valsOffs.Last() {
		// This value's first update was elided above, but the value has
		// more than one update, so an empty range cannot encode it: write
		// the stashed update out before this one.
		b.times.PushOwned(b.lastTime)
		b.diffs.PushOwned(b.lastDiff)
		b.singletons--
	}

	b.times.PushOwned(t)
	b.diffs.PushOwned(d)
	b.lastTime, b.lastDiff, b.haveLast = t, d, true
	b.curValLen++
}

// closeVal records the offset bound for the value just finished. Because
// consolidated input never repeats a time within the same value, a
// singleton compression (spec §4.3 optimization 2) can only ever trigger
// on a value's first update. Push writes that update back out if the
// value receives a second one, so only a value whose single update was
// elided closes with bound == previous bound, the empty range the
// cursor's decoder looks for.
func (b *Builder[K, V, T, D]) closeVal() {
	if !b.haveVal {
		return
	}
	b.valsOffs.PushBound(b.times.Len())
}

func (b *Builder[K, V, T, D]) closeKey() {
	if !b.haveKey {
		return
	}
	b.closeVal()
	b.keysOffs.PushBound(b.vals.Len())
}

// Finish closes out any in-progress key/value and returns the completed
// batch under the given description.
func (b *Builder[K, V, T, D]) Finish(desc Description[T]) *Batch[K, V, T, D] {
	b.closeKey()
	return &Batch[K, V, T, D]{
		desc:       desc,
		keys:       b.keys,
		keysOffs:   b.keysOffs,
		vals:       b.vals,
		valsOffs:   b.valsOffs,
		times:      b.times,
		diffs:      b.diffs,
		singletons: b.singletons,
	}
}
