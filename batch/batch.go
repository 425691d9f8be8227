package batch

import (
	"github.com/flowlake/ddflow/container"
	"github.com/flowlake/ddflow/lattice"
)

// Update is a single stored (time, diff) pair at some (key, value).
type Update[T any, D any] struct {
	Time T
	Diff D
}

// Batch is the layered-trie encoding from spec.md §3: keys, each with a
// run of values, each with a run of (time, diff) updates. Key-only
// batches (no values dimension) are the V = struct{} instantiation; a
// single shared value per key keeps the same code path rather than
// forking a parallel OrdKeyBatch type, since Go generics make the
// struct{} case free at runtime (vals/valsOffs degenerate to one
// element per key).
type Batch[K comparable, V comparable, T lattice.Lattice[T], D comparable] struct {
	desc Description[T]

	keys     *container.Slice[K]
	keysOffs *container.OffsetList

	vals     *container.Slice[V]
	valsOffs *container.OffsetList

	times *container.Slice[T]
	diffs *container.Slice[D]

	// singletons counts updates elided via the degenerate
	// vals_offs[i]==vals_offs[i+1] encoding (spec §3); len() must add
	// this back in.
	singletons int
}

func (b *Batch[K, V, T, D]) Lower() lattice.Antichain[T] { return b.desc.Lower }
func (b *Batch[K, V, T, D]) Upper() lattice.Antichain[T] { return b.desc.Upper }
func (b *Batch[K, V, T, D]) Since() lattice.Antichain[T] { return b.desc.Since }
func (b *Batch[K, V, T, D]) Description() Description[T] { return b.desc }

// Len reports the count of logical updates, inflating for singleton
// compression (spec §4.1).
func (b *Batch[K, V, T, D]) Len() int {
	return b.times.Len() + b.singletons
}

func (b *Batch[K, V, T, D]) IsEmpty() bool { return b.Len() == 0 }

func (b *Batch[K, V, T, D]) NumKeys() int { return b.keys.Len() }

// Cursor returns a fresh stateful navigator over the batch (spec §4.5).
func (b *Batch[K, V, T, D]) Cursor() *Cursor[K, V, T, D] {
	c := &Cursor[K, V, T, D]{batch: b}
	c.RewindKeys()
	return c
}
