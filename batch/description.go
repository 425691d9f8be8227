// Package batch implements the immutable, columnar update batch (spec.md
// §3, §4.1): a layered-trie encoding of (key, value, time, diff) triples
// plus the builder that constructs one from sorted, consolidated input.
//
// Grounded on original_source/differential-dataflow's
// trace/implementations/ord_neu.rs (`OrdValBatch`, the `layers::Vals`/
// `layers::Upds` layered-trie containers) and trace/trace.rs
// (`Description`). Re-expressed as plain Go structs over
// container.Container rather than Rust's associated-type `Layout`
// machinery, matching erigon-lib's preference for concrete generic
// structs (btree.BTreeG[T]) over trait-object indirection.
package batch

import "github.com/flowlake/ddflow/lattice"

// Description bounds a batch's contents (spec.md §3): every update it
// stores has lower ≤ t < upper, and every stored time has already been
// advanced by since.
type Description[T lattice.Lattice[T]] struct {
	Lower lattice.Antichain[T]
	Upper lattice.Antichain[T]
	Since lattice.Antichain[T]
}

// NewDescription builds a description whose since frontier equals its
// lower bound — the common case for batches fresh out of a batcher,
// before any spine merge has compacted them (since == lower means no
// times have been advanced beyond what the interval itself requires).
func NewDescription[T lattice.Lattice[T]](lower, upper lattice.Antichain[T]) Description[T] {
	return Description[T]{Lower: lower, Upper: upper, Since: lower.Clone()}
}
