// Package batcher implements the update-accumulation front end of a
// trace (spec.md §4.2): unsorted chunks come in via Push, get sorted and
// consolidated per chunk, and Seal cuts a Batch out of everything not yet
// at-or-after a given upper antichain.
//
// Grounded on original_source/differential-dataflow's
// trace/implementations/merge_batcher.rs (`MergeBatcher`, `VecChunker`)
// and, for the multi-way merge of sorted runs, erigon-lib's
// state/aggregator_v3.go mergeLoopStep and izhukov1992-super's SAM join
// sorted-merge puller.
package batcher

import (
	"sort"

	"github.com/flowlake/ddflow/lattice"
)

// Update is one unsorted (key, value, time, diff) input update.
type Update[K comparable, V comparable, T any, D comparable] struct {
	Key  K
	Val  V
	Time T
	Diff D
}

// sortAndConsolidate sorts a chunk key-major, value-major, time-major and
// merges equal (key, val, time) triples by summing diffs, dropping any
// that sum to zero (spec §4.2's per-chunk "sort and consolidate").
func sortAndConsolidate[K comparable, V comparable, T lattice.Lattice[T], D comparable](
	updates []Update[K, V, T, D],
	lessKey func(a, b K) bool,
	lessVal func(a, b V) bool,
	lessTime func(a, b T) bool,
	plus func(a, b D) D,
	isZero func(D) bool,
) []Update[K, V, T, D] {
	sort.Slice(updates, func(i, j int) bool {
		a, b := updates[i], updates[j]
		if a.Key != b.Key {
			return lessKey(a.Key, b.Key)
		}
		if a.Val != b.Val {
			return lessVal(a.Val, b.Val)
		}
		return lessTime(a.Time, b.Time)
	})

	out := updates[:0]
	for _, u := range updates {
		if n := len(out); n > 0 && out[n-1].Key == u.Key && out[n-1].Val == u.Val && out[n-1].Time == u.Time {
			out[n-1].Diff = plus(out[n-1].Diff, u.Diff)
			continue
		}
		out = append(out, u)
	}

	final := out[:0:0]
	for _, u := range out {
		if !isZero(u.Diff) {
			final = append(final, u)
		}
	}
	return final
}
