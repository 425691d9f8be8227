// Package join implements the binary join operator (spec.md §4.7): two
// arranged inputs, each read through a trace.Agent, cross-producing
// matching (key, v1, v2) triples against the *other* side's trace as new
// batches arrive on either side.
//
// Grounded on original_source/differential-dataflow's
// src/operators/join.rs for the per-side acknowledged/deferred state
// machine, and on izhukov1992-super's SAM join operator (other_examples)
// for the sorted-merge "seek to common key, cross the value runs, advance
// both sides" shape the per-key loop below follows directly.
package join

import (
	"github.com/flowlake/ddflow/batch"
	"github.com/flowlake/ddflow/dataflow"
	"github.com/flowlake/ddflow/internal/observ"
	"github.com/flowlake/ddflow/lattice"
	"github.com/flowlake/ddflow/trace"
)

// Config bundles the join's key/value comparators and its diff algebra.
// Multiply is the user-supplied diff multiplication (spec §4.7: "the
// multiplication is a user-provided Multiply on the two diff types,
// returning a third diff type"); it is always called as Multiply(dA, dB)
// regardless of which side's batch triggered the cross product.
type Config[K comparable, V1 comparable, V2 comparable, T lattice.Lattice[T], D1 comparable, D2 comparable, D3 comparable] struct {
	LessKey  func(a, b K) bool
	LessVal1 func(a, b V1) bool
	LessVal2 func(a, b V2) bool
	Multiply func(d1 D1, d2 D2) D3

	Name string
	// Fuel bounds how many keys each side's deferred queue processes per
	// Step: one unit per key, however many output records that key
	// produces. Output records themselves are not counted against it.
	Fuel int
}

// Output is one record produced by the join's cross product.
type Output[K comparable, V1 comparable, V2 comparable, T lattice.Lattice[T], D3 comparable] struct {
	Key  K
	V1   V1
	V2   V2
	Time T
	Diff D3
}

// deferredA/deferredB represent "join one side's newly arrived batch
// against the other side's trace" (spec §4.7): a batch cursor plus the
// capability that must stay held until every key in it is processed.
type deferredA[K comparable, V1 comparable, T lattice.Lattice[T], D1 comparable] struct {
	cursor *batch.Cursor[K, V1, T, D1]
	cap    *dataflow.Capability[T]
}

type deferredB[K comparable, V2 comparable, T lattice.Lattice[T], D2 comparable] struct {
	cursor *batch.Cursor[K, V2, T, D2]
	cap    *dataflow.Capability[T]
}

// Operator is one join instance over two arranged inputs, A (key,V1,D1)
// and B (key,V2,D2).
type Operator[K comparable, V1 comparable, V2 comparable, T lattice.Lattice[T], D1 comparable, D2 comparable, D3 comparable] struct {
	cfg Config[K, V1, V2, T, D1, D2, D3]

	aAgent        *trace.Agent[K, V1, T, D1]
	aInput        *dataflow.Stream[T, *batch.Batch[K, V1, T, D1]]
	aAcknowledged lattice.Antichain[T]
	aDeferred     []deferredA[K, V1, T, D1]
	aDropped      bool

	bAgent        *trace.Agent[K, V2, T, D2]
	bInput        *dataflow.Stream[T, *batch.Batch[K, V2, T, D2]]
	bAcknowledged lattice.Antichain[T]
	bDeferred     []deferredB[K, V2, T, D2]
	bDropped      bool

	out     *dataflow.Stream[T, Output[K, V1, V2, T, D3]]
	logger  observ.Logger
	metrics *observ.Metrics
}

// New constructs a join reading arrangement A through aAgent/aInput and
// arrangement B through bAgent/bInput, writing cross-product records to
// out. Each side's acknowledged antichain starts at the caller's
// aInitial/bInitial — an explicit starting frontier, not the zero
// Antichain, since an empty Antichain conventionally means infinity in
// this codebase (see lattice.Antichain's doc comment), the opposite of
// "nothing acknowledged yet" — and is then advanced to the upper bound
// of every batch already in that side's trace.
//
// Bootstrap (spec §4.7: "handles reconnections and shared
// arrangements") seeds the deferred queue from A's existing batches
// only, crossed against B's full current trace — not both sides. Seeding
// both would double-count every (existing-A, existing-B) pair once from
// each direction, since at construction time both sides' entire
// histories are already present; crossing from exactly one side treats
// the other's pre-existing data as "already there" the same way an
// in-flight join treats whichever side's batch lands second. Later
// arrivals on either side are still crossed against the other's
// then-current trace in Step, so no combination is produced twice or
// missed; see DESIGN.md.
func New[K comparable, V1 comparable, V2 comparable, T lattice.Lattice[T], D1 comparable, D2 comparable, D3 comparable](
	cfg Config[K, V1, V2, T, D1, D2, D3],
	aAgent *trace.Agent[K, V1, T, D1],
	aInput *dataflow.Stream[T, *batch.Batch[K, V1, T, D1]],
	aInitial lattice.Antichain[T],
	bAgent *trace.Agent[K, V2, T, D2],
	bInput *dataflow.Stream[T, *batch.Batch[K, V2, T, D2]],
	bInitial lattice.Antichain[T],
	out *dataflow.Stream[T, Output[K, V1, V2, T, D3]],
) *Operator[K, V1, V2, T, D1, D2, D3] {
	op := &Operator[K, V1, V2, T, D1, D2, D3]{
		cfg:           cfg,
		aAgent:        aAgent,
		aInput:        aInput,
		aAcknowledged: aInitial.Clone(),
		bAgent:        bAgent,
		bInput:        bInput,
		bAcknowledged: bInitial.Clone(),
		out:           out,
		logger:        observ.NewLogger(cfg.Name),
		metrics:       observ.NewMetrics(cfg.Name),
	}
	for _, b := range aAgent.Batches() {
		if !b.IsEmpty() {
			op.aDeferred = append(op.aDeferred, deferredA[K, V1, T, D1]{cursor: b.Cursor()})
		}
		op.aAcknowledged = advanceFrontier(op.aAcknowledged, b.Upper())
	}
	for _, b := range bAgent.Batches() {
		op.bAcknowledged = advanceFrontier(op.bAcknowledged, b.Upper())
	}
	return op
}

// advanceFrontier returns next if it is at or beyond cur, else leaves
// cur unchanged — tracking "the furthest upper bound acknowledged so
// far" without relying on Antichain.Join's pairwise-join semantics
// (which exist for combining *since* frontiers, a different operation).
func advanceFrontier[T lattice.Lattice[T]](cur, next lattice.Antichain[T]) lattice.Antichain[T] {
	if cur.LessEqual(next) {
		return next
	}
	return cur
}

// Step runs one scheduling round of the join's per-step execution (spec
// §4.7's five numbered steps).
func (op *Operator[K, V1, V2, T, D1, D2, D3]) Step() []Output[K, V1, V2, T, D3] {
	// 1. Drain both input streams, enqueueing deferred items.
	for _, msg := range op.aInput.Drain() {
		for _, b := range msg.Data {
			if b.IsEmpty() {
				continue
			}
			op.aDeferred = append(op.aDeferred, deferredA[K, V1, T, D1]{cursor: b.Cursor(), cap: msg.Cap})
			op.aAcknowledged = advanceFrontier(op.aAcknowledged, b.Upper())
		}
	}
	for _, msg := range op.bInput.Drain() {
		for _, b := range msg.Data {
			if b.IsEmpty() {
				continue
			}
			op.bDeferred = append(op.bDeferred, deferredB[K, V2, T, D2]{cursor: b.Cursor(), cap: msg.Cap})
			op.bAcknowledged = advanceFrontier(op.bAcknowledged, b.Upper())
		}
	}

	// 2. "advance_upper" to harvest empty regions — a no-op here: each
	// trace's Batches() already reflects its live spine state, so there
	// is no separate trailing-empty-region bookkeeping to compact.

	// 3. Work both deferred queues under the configured fuel budget.
	var results []Output[K, V1, V2, T, D3]
	results = append(results, op.workA(op.cfg.Fuel)...)
	results = append(results, op.workB(op.cfg.Fuel)...)

	op.metrics.SetDeferredQueueDepth(len(op.aDeferred) + len(op.bDeferred))

	// 5. Maintain compaction: each trace's physical_compaction tracks its
	// own acknowledged antichain; logical_compaction tracks the
	// *opposing* input's frontier, since cross-join times beyond it
	// can't resolve accurately.
	op.aAgent.SetPhysicalCompaction(op.aAcknowledged)
	op.bAgent.SetPhysicalCompaction(op.bAcknowledged)
	op.aAgent.SetLogicalCompaction(op.bInput.Frontier())
	op.bAgent.SetLogicalCompaction(op.aInput.Frontier())

	// Drop semantics: once one side's input frontier is empty, the other
	// side's trace is no longer needed for future joins.
	if op.aInput.Frontier().IsEmpty() && !op.bDropped {
		op.bAgent.Drop()
		op.bDropped = true
	}
	if op.bInput.Frontier().IsEmpty() && !op.aDropped {
		op.aAgent.Drop()
		op.aDropped = true
	}

	if len(results) > 0 {
		op.out.Send(nil, results)
	}
	return results
}

// workA processes the front of the A-side deferred queue: for every key
// in each queued batch, seeks every current B batch's cursor to that key
// and crosses the matching value/time runs.
func (op *Operator[K, V1, V2, T, D1, D2, D3]) workA(fuel int) []Output[K, V1, V2, T, D3] {
	var out []Output[K, V1, V2, T, D3]
	for fuel > 0 && len(op.aDeferred) > 0 {
		d := &op.aDeferred[0]
		otherBatches := op.bAgent.Batches()
		for d.cursor.KeyValid() && fuel > 0 {
			key := d.cursor.Key()
			for _, ob := range otherBatches {
				oc := ob.Cursor()
				oc.SeekKey(key, op.cfg.LessKey)
				if oc.KeyValid() && !op.cfg.LessKey(key, oc.Key()) && !op.cfg.LessKey(oc.Key(), key) {
					out = append(out, op.crossKey(key, d.cursor, oc)...)
				}
			}
			d.cursor.StepKey()
			fuel--
		}
		if !d.cursor.KeyValid() {
			if d.cap != nil {
				d.cap.Drop()
			}
			op.aDeferred = op.aDeferred[1:]
		}
	}
	return out
}

// workB is workA's mirror: it drains B-side deferred batches against A's
// current trace.
func (op *Operator[K, V1, V2, T, D1, D2, D3]) workB(fuel int) []Output[K, V1, V2, T, D3] {
	var out []Output[K, V1, V2, T, D3]
	for fuel > 0 && len(op.bDeferred) > 0 {
		d := &op.bDeferred[0]
		otherBatches := op.aAgent.Batches()
		for d.cursor.KeyValid() && fuel > 0 {
			key := d.cursor.Key()
			for _, ob := range otherBatches {
				oc := ob.Cursor()
				oc.SeekKey(key, op.cfg.LessKey)
				if oc.KeyValid() && !op.cfg.LessKey(key, oc.Key()) && !op.cfg.LessKey(oc.Key(), key) {
					out = append(out, op.crossKey(key, oc, d.cursor)...)
				}
			}
			d.cursor.StepKey()
			fuel--
		}
		if !d.cursor.KeyValid() {
			if d.cap != nil {
				d.cap.Drop()
			}
			op.bDeferred = op.bDeferred[1:]
		}
	}
	return out
}

// crossKey produces the cross product of every (v1, t1, d1) under ca's
// current key and every (v2, t2, d2) under cb's current key, calling the
// user's Multiply and lattice-joining the two times (spec §4.7: "call the
// user function with the lattice join of their times and the product of
// their diffs").
func (op *Operator[K, V1, V2, T, D1, D2, D3]) crossKey(
	key K,
	ca *batch.Cursor[K, V1, T, D1],
	cb *batch.Cursor[K, V2, T, D2],
) []Output[K, V1, V2, T, D3] {
	// Materialize B's side of this key once: (v2, history) pairs, since
	// A's values are crossed against the same B run for every v1.
	type v2History struct {
		v2    V2
		pairs []timeDiff[T, D2]
	}
	var bSide []v2History
	for cb.ValValid() {
		var pairs []timeDiff[T, D2]
		cb.MapTimes(func(t T, d D2) { pairs = append(pairs, timeDiff[T, D2]{t, d}) })
		bSide = append(bSide, v2History{v2: cb.Val(), pairs: pairs})
		cb.StepVal()
	}

	var out []Output[K, V1, V2, T, D3]
	for ca.ValValid() {
		v1 := ca.Val()
		var pairs1 []timeDiff[T, D1]
		ca.MapTimes(func(t T, d D1) { pairs1 = append(pairs1, timeDiff[T, D1]{t, d}) })

		for _, bh := range bSide {
			for _, p1 := range pairs1 {
				for _, p2 := range bh.pairs {
					out = append(out, Output[K, V1, V2, T, D3]{
						Key:  key,
						V1:   v1,
						V2:   bh.v2,
						Time: p1.t.Join(p2.t),
						Diff: op.cfg.Multiply(p1.d, p2.d),
					})
				}
			}
		}
		ca.StepVal()
	}
	return out
}

type timeDiff[T any, D any] struct {
	t T
	d D
}
