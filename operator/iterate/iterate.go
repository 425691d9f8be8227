// Package iterate implements enter/leave/enter_at and the feedback
// fixed-point loop around a sub-scope (spec.md §4.10), building
// lattice.Product[Outer,Inner] as the sub-scope's timestamp (spec's
// "sub-scope timestamp extension").
//
// Grounded on original_source/differential-dataflow's
// src/operators/iterate.rs for the enter/leave/feedback vocabulary, and
// on dataflow's own Scope/Activator cadence (dataflow/scope.go) for how
// a cooperative scheduler drives repeated Step calls until a frontier
// stabilizes — the mechanism this package relies on for detecting a
// fixed point (spec: "termination relies on the substrate's progress
// tracking of the iteration coordinate").
package iterate

import (
	"github.com/flowlake/ddflow/dataflow"
	"github.com/flowlake/ddflow/lattice"
)

// Enter lifts one outer-scope message onto a Stream timestamped in the
// sub-scope's Product[Outer,Inner] lattice, at the minimum Inner
// coordinate (spec §4.10's `enter`). Every message entering the loop
// this way starts its iteration count at zero; EnterAt below is the
// variant that instead starts at a caller-computed coordinate.
func Enter[Outer lattice.Lattice[Outer], Inner lattice.Lattice[Inner], Item any](
	in *dataflow.Stream[Outer, Item],
	out *dataflow.Stream[lattice.Product[Outer, Inner], Item],
	zeroInner Inner,
) {
	for _, msg := range in.Drain() {
		innerCap := dataflow.NewCapability(lattice.Enter[Outer, Inner](msg.Cap.Time(), zeroInner))
		out.Send(innerCap, msg.Data)
	}
	out.AdvanceFrontier(enterFrontier[Outer, Inner](in.Frontier(), zeroInner))
}

// EnterAt is like Enter, but the Inner coordinate a given item starts at
// is computed per-item rather than fixed at zero (spec §4.10's
// `enter_at`: e.g. seeding an iteration counter from data already
// carried on the record, for a loop re-entered partway through).
func EnterAt[Outer lattice.Lattice[Outer], Inner lattice.Lattice[Inner], Item any](
	in *dataflow.Stream[Outer, Item],
	out *dataflow.Stream[lattice.Product[Outer, Inner], Item],
	initial func(item Item) Inner,
) {
	for _, msg := range in.Drain() {
		for _, item := range msg.Data {
			innerCap := dataflow.NewCapability(lattice.Enter[Outer, Inner](msg.Cap.Time(), initial(item)))
			out.Send(innerCap, []Item{item})
		}
	}
	// EnterAt's per-item Inner coordinates vary, so the conservative
	// frontier is the same projection Enter uses: every outer frontier
	// element paired with the lattice's minimum Inner, since any
	// caller-chosen initial() could still be as small as that minimum.
	var zeroInner Inner
	out.AdvanceFrontier(enterFrontier[Outer, Inner](in.Frontier(), zeroInner))
}

// enterFrontier projects an outer-scope frontier into the sub-scope's
// Product lattice, pairing each outer element with the minimum Inner
// coordinate — the conservative (least advanced) frontier any entering
// message could carry.
func enterFrontier[Outer lattice.Lattice[Outer], Inner lattice.Lattice[Inner]](outer lattice.Antichain[Outer], zeroInner Inner) lattice.Antichain[lattice.Product[Outer, Inner]] {
	elems := make([]lattice.Product[Outer, Inner], 0, len(outer.Elements()))
	for _, e := range outer.Elements() {
		elems = append(elems, lattice.Enter[Outer, Inner](e, zeroInner))
	}
	return lattice.NewAntichain(elems...)
}

// Leave strips the Inner coordinate from every message on in, projecting
// back to the parent scope's Outer time (spec §4.10's `leave`).
func Leave[Outer lattice.Lattice[Outer], Inner lattice.Lattice[Inner], Item any](
	in *dataflow.Stream[lattice.Product[Outer, Inner], Item],
	out *dataflow.Stream[Outer, Item],
) {
	for _, msg := range in.Drain() {
		outerCap := dataflow.NewCapability(lattice.Leave(msg.Cap.Time()))
		out.Send(outerCap, msg.Data)
	}
	var outerElems []Outer
	for _, e := range in.Frontier().Elements() {
		outerElems = append(outerElems, lattice.Leave(e))
	}
	out.AdvanceFrontier(lattice.NewAntichain(outerElems...))
}

// Termination note (spec §4.10: "termination relies on the substrate's
// progress tracking of the iteration coordinate"): a feedback loop built
// from Enter/Leave plus the sub-scope's own operators is driven the same
// way as any other dataflow.Scope — register each operator and call
// Scope.RunToFixedPoint. No separate iterate-specific scheduler is
// needed: once every operator quiesces (no activator pending), the
// Product[Outer,Inner] frontier has stopped advancing on its Inner
// coordinate, which is exactly the fixed point the spec describes.
