// Package spine implements the trace's progressively-merging log
// structure (spec.md §4.4): slots indexed by level, a fuel scheme that
// amortizes merge cost across inserts, and a compacting Merger that
// folds two batches into one under a since frontier.
//
// Grounded on original_source/differential-dataflow's
// trace/implementations/spine_fueled_neu.rs (`Spine`, level accounting,
// the `Vacant`/`Single`/`Double` slot shape, fuel application order) and
// erigon-lib's state/aggregator_v3.go merge loop (`findMergeRange`,
// `mergeFiles`, `integrateMergedFiles`) for the "collate, merge, splice
// the result back in" cadence.
package spine

import (
	"sort"

	"github.com/flowlake/ddflow/batch"
	"github.com/flowlake/ddflow/lattice"
)

// Config bundles the per-schema comparators and diff operations a Spine
// needs; callers instantiate one per (K, V, T, D) combination they use.
type Config[K comparable, V comparable, T lattice.Lattice[T], D comparable] struct {
	LessKey func(a, b K) bool
	LessVal func(a, b V) bool
	Plus    func(a, b D) D
	IsZero  func(D) bool
}

// Merger folds two input batches into one, under a since frontier, a
// fueled key at a time (spec §4.4: "a unit of fuel corresponds to one
// step of the per-batch merger — typically: advance one key-cursor
// step").
type Merger[K comparable, V comparable, T lattice.Lattice[T], D comparable] struct {
	cfg   Config[K, V, T, D]
	cl    *batch.CursorList[K, V, T, D]
	bld   *batch.Builder[K, V, T, D]
	since lattice.Antichain[T]
	desc  batch.Description[T]
	done  bool
	out   *batch.Batch[K, V, T, D]
}

// NewMerger constructs a merger for two adjacent batches (a.Upper() ==
// b.Lower() in the common case, but the merger itself does not require
// adjacency — spine.go only ever merges slot-adjacent batches).
func NewMerger[K comparable, V comparable, T lattice.Lattice[T], D comparable](
	a, b *batch.Batch[K, V, T, D],
	logicalCompaction lattice.Antichain[T],
	cfg Config[K, V, T, D],
) *Merger[K, V, T, D] {
	since := a.Since().Join(b.Since()).Join(logicalCompaction)

	// a and b are slot-adjacent batches (spine.go only ever merges
	// neighbors), so their lower/upper bounds are totally ordered even
	// though Antichain in general is only a partial order.
	lower := a.Lower()
	if !a.Lower().LessEqual(b.Lower()) {
		lower = b.Lower()
	}
	upper := a.Upper()
	if upper.LessEqual(b.Upper()) {
		upper = b.Upper()
	}
	desc := batch.Description[T]{Lower: lower, Upper: upper, Since: since}

	cl := batch.NewCursorList([]*batch.Cursor[K, V, T, D]{a.Cursor(), b.Cursor()}, cfg.LessKey)
	approxSize := a.Len() + b.Len()
	bld := batch.NewBuilder[K, V, T, D](approxSize, approxSize, approxSize)

	return &Merger[K, V, T, D]{cfg: cfg, cl: cl, bld: bld, since: since, desc: desc}
}

// Work applies up to `fuel` units of progress (one key processed per
// unit) and reports whether the merge is now complete.
func (m *Merger[K, V, T, D]) Work(fuel int) bool {
	if m.done {
		return true
	}
	for fuel > 0 && m.cl.KeyValid() {
		m.mergeKey()
		m.cl.StepKey()
		fuel--
	}
	if !m.cl.KeyValid() {
		m.out = m.bld.Finish(m.desc)
		m.done = true
	}
	return m.done
}

// Done reports whether Finish can be called.
func (m *Merger[K, V, T, D]) Done() bool { return m.done }

// Finish returns the merged batch; callers must only call it once Done
// is true.
func (m *Merger[K, V, T, D]) Finish() *batch.Batch[K, V, T, D] { return m.out }

type timeDiff[T any, D any] struct {
	t T
	d D
}

// mergeKey folds every value under the cursor list's current key across
// both active cursors: values are merged value-by-value, times are
// advanced by since and consolidated, and zero-sum updates are dropped.
func (m *Merger[K, V, T, D]) mergeKey() {
	key := m.cl.Key()
	active := m.cl.Active()
	for _, c := range active {
		c.RewindVals()
	}

	for {
		valid := make([]*batch.Cursor[K, V, T, D], 0, len(active))
		for _, c := range active {
			if c.ValValid() {
				valid = append(valid, c)
			}
		}
		if len(valid) == 0 {
			break
		}

		minVal := valid[0].Val()
		for _, c := range valid[1:] {
			if m.cfg.LessVal(c.Val(), minVal) {
				minVal = c.Val()
			}
		}

		var pairs []timeDiff[T, D]
		var matching []*batch.Cursor[K, V, T, D]
		for _, c := range valid {
			if c.Val() == minVal {
				matching = append(matching, c)
				c.MapTimes(func(t T, d D) {
					pairs = append(pairs, timeDiff[T, D]{t: lattice.AdvanceBy(t, m.since), d: d})
				})
			}
		}

		sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].t.LessEqual(pairs[j].t) && !pairs[j].t.LessEqual(pairs[i].t) })

		i := 0
		for i < len(pairs) {
			j := i + 1
			sum := pairs[i].d
			for j < len(pairs) && pairs[j].t == pairs[i].t {
				sum = m.cfg.Plus(sum, pairs[j].d)
				j++
			}
			if !m.cfg.IsZero(sum) {
				m.bld.Push(key, minVal, pairs[i].t, sum)
			}
			i = j
		}

		for _, c := range matching {
			c.StepVal()
		}
	}
}
