package batch

import "github.com/flowlake/ddflow/lattice"

// Cursor navigates a single Batch's (key, val, time, diff) stream
// (spec.md §4.5). It is stateful: key_valid/val_valid report whether the
// respective position is still within range, and step/seek move forward
// monotonically — cursors never move backward except via rewind.
type Cursor[K comparable, V comparable, T lattice.Lattice[T], D comparable] struct {
	batch *Batch[K, V, T, D]

	keyIdx int
	valIdx int
}

func (c *Cursor[K, V, T, D]) KeyValid() bool {
	return c.keyIdx < c.batch.keys.Len()
}

func (c *Cursor[K, V, T, D]) Key() K {
	return c.batch.keys.Index(c.keyIdx)
}

func (c *Cursor[K, V, T, D]) StepKey() {
	c.keyIdx++
	c.RewindVals()
}

// SeekKey advances keyIdx to the first key ≥ k using a galloping search
// over the keys column, starting from the current position.
func (c *Cursor[K, V, T, D]) SeekKey(k K, less func(a, b K) bool) {
	n := c.batch.keys.Len()
	advanced := c.batch.keys.Advance(c.keyIdx, n, func(x K) bool { return less(x, k) })
	c.keyIdx += advanced
	c.RewindVals()
}

func (c *Cursor[K, V, T, D]) RewindKeys() {
	c.keyIdx = 0
	c.RewindVals()
}

func (c *Cursor[K, V, T, D]) valBounds() (lo, hi int) {
	return c.batch.keysOffs.Bounds(c.keyIdx)
}

func (c *Cursor[K, V, T, D]) RewindVals() {
	if !c.KeyValid() {
		c.valIdx = 0
		return
	}
	lo, _ := c.valBounds()
	c.valIdx = lo
}

func (c *Cursor[K, V, T, D]) ValValid() bool {
	if !c.KeyValid() {
		return false
	}
	_, hi := c.valBounds()
	return c.valIdx < hi
}

func (c *Cursor[K, V, T, D]) Val() V {
	return c.batch.vals.Index(c.valIdx)
}

func (c *Cursor[K, V, T, D]) StepVal() { c.valIdx++ }

// SeekVal advances valIdx to the first value ≥ v within the current
// key's run.
func (c *Cursor[K, V, T, D]) SeekVal(v V, less func(a, b V) bool) {
	_, hi := c.valBounds()
	advanced := c.batch.vals.Advance(c.valIdx, hi, func(x V) bool { return less(x, v) })
	c.valIdx += advanced
}

// MapTimes invokes f for every (time, diff) update under the cursor's
// current value, decoding the singleton/absent compression (spec §3):
// an empty [lo,hi) range means "identical to the nearest preceding
// non-empty value's final update."
func (c *Cursor[K, V, T, D]) MapTimes(f func(t T, d D)) {
	lo, hi := c.batch.valsOffs.Bounds(c.valIdx)
	if lo == hi {
		t, d, ok := c.resolveSingleton(c.valIdx)
		if ok {
			f(t, d)
		}
		return
	}
	for i := lo; i < hi; i++ {
		f(c.batch.times.Index(i), c.batch.diffs.Index(i))
	}
}

// resolveSingleton walks backward over value indexes with empty ranges
// to find the most recent materialized (time, diff), which the builder
// guarantees is the logical content of every singleton value in between.
func (c *Cursor[K, V, T, D]) resolveSingleton(valIdx int) (T, D, bool) {
	for i := valIdx; i >= 0; i-- {
		lo, hi := c.batch.valsOffs.Bounds(i)
		if lo != hi {
			return c.batch.times.Index(hi - 1), c.batch.diffs.Index(hi - 1), true
		}
	}
	var zeroT T
	var zeroD D
	return zeroT, zeroD, false
}
