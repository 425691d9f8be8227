package lattice

// AdvanceBy computes the least time t' such that t ≤ t' and t' is
// greater-or-equal to some element of frontier (spec.md §3's
// `advance_by`). This is how the engine rewrites times through the
// since-frontier equivalence to compact storage (compaction, spec §4.4).
//
// An empty frontier imposes no constraint; t is returned unchanged.
func AdvanceBy[T Lattice[T]](t T, frontier Antichain[T]) T {
	elems := frontier.Elements()
	if len(elems) == 0 {
		return t
	}
	result := t.Join(elems[0])
	for _, f := range elems[1:] {
		candidate := t.Join(f)
		result = result.Meet(candidate)
	}
	return result
}
