package lattice

// Product is the standard iteration timestamp (spec.md §4.10): an outer
// timestamp Outer (the parent scope's time) paired with an Inner
// iteration coordinate. It is a lattice whenever Outer and Inner are:
// Join/Meet are computed componentwise, and LessEqual requires both
// components to agree, which is exactly what lets a feedback loop's
// progress tracking detect a fixed point (both coordinates stop
// advancing).
//
// Grounded on original_source/differential-dataflow's `Product<TOuter,
// TInner>` (src/lib.rs, used throughout src/operators/iterate.rs);
// Inner is conventionally U64 here, matching the iteration counter's
// natural representation.
type Product[Outer Lattice[Outer], Inner Lattice[Inner]] struct {
	Outer Outer
	Inner Inner
}

func (p Product[Outer, Inner]) LessEqual(o Product[Outer, Inner]) bool {
	return p.Outer.LessEqual(o.Outer) && p.Inner.LessEqual(o.Inner)
}

func (p Product[Outer, Inner]) Join(o Product[Outer, Inner]) Product[Outer, Inner] {
	return Product[Outer, Inner]{Outer: p.Outer.Join(o.Outer), Inner: p.Inner.Join(o.Inner)}
}

func (p Product[Outer, Inner]) Meet(o Product[Outer, Inner]) Product[Outer, Inner] {
	return Product[Outer, Inner]{Outer: p.Outer.Meet(o.Outer), Inner: p.Inner.Meet(o.Inner)}
}

// Enter lifts an Outer time into the sub-scope at the lattice's minimum
// Inner coordinate (spec §4.10's `enter`).
func Enter[Outer Lattice[Outer], Inner Lattice[Inner]](outer Outer, zero Inner) Product[Outer, Inner] {
	return Product[Outer, Inner]{Outer: outer, Inner: zero}
}

// Leave strips the Inner coordinate, projecting back to the parent
// scope's time (spec §4.10's `leave`).
func Leave[Outer Lattice[Outer], Inner Lattice[Inner]](p Product[Outer, Inner]) Outer {
	return p.Outer
}
