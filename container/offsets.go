package container

// OffsetList is the compact integer container the spec.md §4.1 calls out
// by name: a monotone sequence of offsets into a values column, one
// longer than the number of lists it indexes (offs[0] == 0 always).
// Grounded on original_source's `Vals<O, V>.offs` (trace/implementations/
// ord_neu.rs), where O is itself a `BatchContainer<ReadItem = usize>`.
//
// It is a thin specialization of Slice[int] rather than a bit-packed
// encoding: the spec only requires offsets be "a compact integer
// container," and erigon-lib's own columns (e.g. `keys_offs` in the
// layered trie it models) are plain int slices, not varint-packed ones.
type OffsetList struct {
	Slice[int]
}

// NewOffsetList returns an OffsetList seeded with the mandatory leading
// zero offset.
func NewOffsetList(capacity int) *OffsetList {
	o := &OffsetList{Slice: Slice[int]{items: make([]int, 0, capacity+1)}}
	o.PushOwned(0)
	return o
}

// PushBound appends the offset marking the end of the next list, i.e.
// "the list just written has length = newBound - Last()".
func (o *OffsetList) PushBound(bound int) { o.PushOwned(bound) }

// Bounds returns the [lo, hi) range in the associated values column for
// list index i.
func (o *OffsetList) Bounds(i int) (lo, hi int) {
	return o.Index(i), o.Index(i + 1)
}

// NumLists returns the number of lists this offset column indexes (one
// fewer than the number of offsets stored).
func (o *OffsetList) NumLists() int { return o.Len() - 1 }
