// Package collection provides the builder-level API spec.md §6 lists
// (map, filter, flat_map, concat, negate, consolidate, arrange_by_key,
// arrange_by_self, arrange_from_upsert, join, join_map, semijoin,
// antijoin, reduce, distinct, count, count_total, threshold, iterate,
// enter, leave): a thin Collection[T,D,R] wrapper over a dataflow.Stream
// of (data, time, diff) changes, plus constructors that connect a
// Collection to the concrete operators built in the operator/ tree.
//
// Grounded on original_source/differential-dataflow's
// src/collection.rs (the Collection<G,D,R> struct these builder methods
// hang off of) and, for each individual entry point, whichever
// operator/* package actually implements it — this package adds no new
// algorithm, only the glue spec.md's own builder-entry-point list
// requires.
package collection

import (
	"github.com/flowlake/ddflow/batch"
	"github.com/flowlake/ddflow/batcher"
	"github.com/flowlake/ddflow/dataflow"
	"github.com/flowlake/ddflow/lattice"
	"github.com/flowlake/ddflow/operator/arrange"
	"github.com/flowlake/ddflow/operator/join"
	"github.com/flowlake/ddflow/operator/misc"
	"github.com/flowlake/ddflow/operator/reduce"
	"github.com/flowlake/ddflow/operator/upsert"
	"github.com/flowlake/ddflow/trace"
)

// Unit is the value type for arrangements that only carry a key (spec's
// "key-only arrangement" used to express semijoin/antijoin, and
// arrange_by_self's value position).
type Unit struct{}

// Pair is a (key, value) record, the shape semijoin/antijoin project
// their A-side record into.
type Pair[K comparable, V comparable] struct {
	Key K
	Val V
}

// Change is one (data, time, diff) triple (spec.md's core model: "a
// collection is a multiset of records whose contents change over
// time").
type Change[T lattice.Lattice[T], D comparable, R comparable] struct {
	Val  D
	Time T
	Diff R
}

// Collection wraps a Stream of Changes — the builder-level handle
// map/filter/flat_map/concat/negate/arrange_* operate on.
type Collection[T lattice.Lattice[T], D comparable, R comparable] struct {
	stream *dataflow.Stream[T, Change[T, D, R]]
}

func New[T lattice.Lattice[T], D comparable, R comparable](initial lattice.Antichain[T]) *Collection[T, D, R] {
	return &Collection[T, D, R]{stream: dataflow.NewStream[T, Change[T, D, R]](initial)}
}

func (c *Collection[T, D, R]) Stream() *dataflow.Stream[T, Change[T, D, R]] { return c.stream }

func (c *Collection[T, D, R]) Send(cap *dataflow.Capability[T], changes []Change[T, D, R]) {
	c.stream.Send(cap, changes)
}

// Map applies f to every record flowing from in to out, each round
// (spec §6's `map`).
func Map[T lattice.Lattice[T], D comparable, D2 comparable, R comparable](in *Collection[T, D, R], out *Collection[T, D2, R], f func(D) D2) {
	for _, msg := range in.stream.Drain() {
		mapped := make([]Change[T, D2, R], len(msg.Data))
		for i, ch := range msg.Data {
			mapped[i] = Change[T, D2, R]{Val: f(ch.Val), Time: ch.Time, Diff: ch.Diff}
		}
		out.stream.Send(msg.Cap, mapped)
	}
	out.stream.AdvanceFrontier(in.stream.Frontier())
}

// Filter keeps only records matching pred (spec §6's `filter`).
func Filter[T lattice.Lattice[T], D comparable, R comparable](in *Collection[T, D, R], out *Collection[T, D, R], pred func(D) bool) {
	for _, msg := range in.stream.Drain() {
		var kept []Change[T, D, R]
		for _, ch := range msg.Data {
			if pred(ch.Val) {
				kept = append(kept, ch)
			}
		}
		if len(kept) > 0 {
			out.stream.Send(msg.Cap, kept)
		}
	}
	out.stream.AdvanceFrontier(in.stream.Frontier())
}

// FlatMap expands each record into zero or more records at the same
// (time, diff) (spec §6's `flat_map`).
func FlatMap[T lattice.Lattice[T], D comparable, D2 comparable, R comparable](in *Collection[T, D, R], out *Collection[T, D2, R], f func(D) []D2) {
	for _, msg := range in.stream.Drain() {
		var expanded []Change[T, D2, R]
		for _, ch := range msg.Data {
			for _, v := range f(ch.Val) {
				expanded = append(expanded, Change[T, D2, R]{Val: v, Time: ch.Time, Diff: ch.Diff})
			}
		}
		if len(expanded) > 0 {
			out.stream.Send(msg.Cap, expanded)
		}
	}
	out.stream.AdvanceFrontier(in.stream.Frontier())
}

// Negate flips every diff's sign (spec §6's `negate`; requires an
// Abelian diff type, the same requirement join's diff algebra and
// reduce_abelian already carry).
func Negate[T lattice.Lattice[T], D comparable, R lattice.Abelian[R]](in *Collection[T, D, R], out *Collection[T, D, R]) {
	for _, msg := range in.stream.Drain() {
		negated := make([]Change[T, D, R], len(msg.Data))
		for i, ch := range msg.Data {
			negated[i] = Change[T, D, R]{Val: ch.Val, Time: ch.Time, Diff: ch.Diff.Negate()}
		}
		out.stream.Send(msg.Cap, negated)
	}
	out.stream.AdvanceFrontier(in.stream.Frontier())
}

// Concat unions two Collections' changes onto out, unconsolidated —
// consolidation happens wherever the result is next arranged (spec §6's
// `concat`).
func Concat[T lattice.Lattice[T], D comparable, R comparable](a, b *Collection[T, D, R], out *Collection[T, D, R]) {
	for _, msg := range a.stream.Drain() {
		out.stream.Send(msg.Cap, msg.Data)
	}
	for _, msg := range b.stream.Drain() {
		out.stream.Send(msg.Cap, msg.Data)
	}
	merged := a.stream.Frontier().Meet(b.stream.Frontier())
	out.stream.AdvanceFrontier(merged)
}

// KeyedArrangement is the result of arrange_by_key/arrange_by_self: it
// translates a Collection's changes into batcher.Updates via keyOf and
// drives the wrapped operator/arrange.Operator each Step (spec §6's
// `arrange_by_key`/`arrange_by_self`, and spec §4.6 for the arrange
// cadence itself, unchanged here).
type KeyedArrangement[K comparable, V comparable, T lattice.Lattice[T], D comparable, Rec comparable] struct {
	in      *Collection[T, Rec, D]
	keyOf   func(Rec) (K, V)
	updates *dataflow.Stream[T, batcher.Update[K, V, T, D]]
	arr     *arrange.Operator[K, V, T, D]
}

// ArrangeByKey builds a KeyedArrangement projecting each record into a
// (key, value) pair via keyOf.
func ArrangeByKey[K comparable, V comparable, T lattice.Lattice[T], D comparable, Rec comparable](
	in *Collection[T, Rec, D],
	keyOf func(Rec) (K, V),
	cfg arrange.Config[K, V, T, D],
	initial lattice.Antichain[T],
	initialCap *dataflow.Capability[T],
) *KeyedArrangement[K, V, T, D, Rec] {
	updates := dataflow.NewStream[T, batcher.Update[K, V, T, D]](initial)
	arr := arrange.New(cfg, initial, updates, initialCap)
	return &KeyedArrangement[K, V, T, D, Rec]{in: in, keyOf: keyOf, updates: updates, arr: arr}
}

// ArrangeBySelf arranges records keyed by themselves, with a unit value
// (spec §6's `arrange_by_self`).
func ArrangeBySelf[K comparable, T lattice.Lattice[T], D comparable](
	in *Collection[T, K, D],
	cfg arrange.Config[K, Unit, T, D],
	initial lattice.Antichain[T],
	initialCap *dataflow.Capability[T],
) *KeyedArrangement[K, Unit, T, D, K] {
	return ArrangeByKey[K, Unit, T, D, K](in, func(k K) (K, Unit) { return k, Unit{} }, cfg, initial, initialCap)
}

// Consolidate sums equal (record, time) diffs and drops the ones that
// cancel to zero (spec §6's `consolidate`). It is exactly
// ArrangeBySelf, exposed under its own name: operator/arrange's batcher
// already performs this consolidation on every batch it seals, so there
// is nothing to add beyond arranging records keyed by themselves (see
// DESIGN.md's operator/misc entry for why this lives here rather than
// as its own operator).
func Consolidate[D comparable, T lattice.Lattice[T], R comparable](
	in *Collection[T, D, R],
	cfg arrange.Config[D, Unit, T, R],
	initial lattice.Antichain[T],
	initialCap *dataflow.Capability[T],
) *KeyedArrangement[D, Unit, T, R, D] {
	return ArrangeBySelf[D, T, R](in, cfg, initial, initialCap)
}

func (ka *KeyedArrangement[K, V, T, D, Rec]) Arrange() *arrange.Operator[K, V, T, D] { return ka.arr }

// Step feeds this round's newly arrived records into the arrangement's
// batcher and runs the arrange cadence.
func (ka *KeyedArrangement[K, V, T, D, Rec]) Step() []*arrange.SealedBatch[K, V, T, D] {
	for _, msg := range ka.in.stream.Drain() {
		ups := make([]batcher.Update[K, V, T, D], len(msg.Data))
		for i, ch := range msg.Data {
			k, v := ka.keyOf(ch.Val)
			ups[i] = batcher.Update[K, V, T, D]{Key: k, Val: v, Time: ch.Time, Diff: ch.Diff}
		}
		ka.updates.Send(msg.Cap, ups)
	}
	ka.updates.AdvanceFrontier(ka.in.stream.Frontier())
	return ka.arr.Step()
}

// ArrangeFromUpsert re-exposes operator/upsert.New under the builder
// name spec §6 lists (`arrange_from_upsert`); upsert's own Apply/Step
// already implement the cadence spec §4.9 describes, so there is
// nothing to add here beyond the name.
func ArrangeFromUpsert[K comparable, V comparable, T lattice.Lattice[T]](
	cfg upsert.Config[K, V, T],
	initial lattice.Antichain[T],
	totalOrder func(a, b T) bool,
	initialCap *dataflow.Capability[T],
) *upsert.Operator[K, V, T] {
	return upsert.New(cfg, initial, totalOrder, initialCap)
}

// JoinMap builds the two-arrangement join (spec §6's `join`/`join_map`:
// `join` is the V1,V2-tuple-producing special case of `join_map` with
// combine = pairing) and returns, per Step, the projected records this
// round produced. There is deliberately no output Collection type here:
// the caller Sends the returned records into whatever the next stage's
// Collection is, under whatever capability that stage's schedule uses —
// mirroring how join.Operator itself returns results directly from Step
// rather than owning a capability-issuing identity of its own.
type JoinMapOperator[K comparable, V1 comparable, V2 comparable, T lattice.Lattice[T], D1 comparable, D2 comparable, D3 comparable, Out comparable] struct {
	j       *join.Operator[K, V1, V2, T, D1, D2, D3]
	combine func(K, V1, V2) Out
}

func JoinMap[K comparable, V1 comparable, V2 comparable, T lattice.Lattice[T], D1 comparable, D2 comparable, D3 comparable, Out comparable](
	cfg join.Config[K, V1, V2, T, D1, D2, D3],
	aAgent *trace.Agent[K, V1, T, D1],
	aInput *dataflow.Stream[T, *batch.Batch[K, V1, T, D1]],
	aInitial lattice.Antichain[T],
	bAgent *trace.Agent[K, V2, T, D2],
	bInput *dataflow.Stream[T, *batch.Batch[K, V2, T, D2]],
	bInitial lattice.Antichain[T],
	combine func(K, V1, V2) Out,
) *JoinMapOperator[K, V1, V2, T, D1, D2, D3, Out] {
	raw := dataflow.NewStream[T, join.Output[K, V1, V2, T, D3]](aInitial)
	j := join.New(cfg, aAgent, aInput, aInitial, bAgent, bInput, bInitial, raw)
	return &JoinMapOperator[K, V1, V2, T, D1, D2, D3, Out]{j: j, combine: combine}
}

func (jm *JoinMapOperator[K, V1, V2, T, D1, D2, D3, Out]) Step() []Change[T, Out, D3] {
	results := jm.j.Step()
	if len(results) == 0 {
		return nil
	}
	out := make([]Change[T, Out, D3], len(results))
	for i, r := range results {
		out[i] = Change[T, Out, D3]{Val: jm.combine(r.Key, r.V1, r.V2), Time: r.Time, Diff: r.Diff}
	}
	return out
}

// Tuple is the (key, v1, v2) shape spec §6's plain `join` produces, as
// opposed to join_map's caller-chosen projection.
type Tuple[K comparable, V1 comparable, V2 comparable] struct {
	Key K
	V1  V1
	V2  V2
}

// Join is join_map specialized to pairing (spec §6's plain `join`):
// combine just keeps (key, v1, v2) untouched.
func Join[K comparable, V1 comparable, V2 comparable, T lattice.Lattice[T], D1 comparable, D2 comparable, D3 comparable](
	cfg join.Config[K, V1, V2, T, D1, D2, D3],
	aAgent *trace.Agent[K, V1, T, D1],
	aInput *dataflow.Stream[T, *batch.Batch[K, V1, T, D1]],
	aInitial lattice.Antichain[T],
	bAgent *trace.Agent[K, V2, T, D2],
	bInput *dataflow.Stream[T, *batch.Batch[K, V2, T, D2]],
	bInitial lattice.Antichain[T],
) *JoinMapOperator[K, V1, V2, T, D1, D2, D3, Tuple[K, V1, V2]] {
	pair := func(k K, v1 V1, v2 V2) Tuple[K, V1, V2] { return Tuple[K, V1, V2]{Key: k, V1: v1, V2: v2} }
	return JoinMap[K, V1, V2, T, D1, D2, D3, Tuple[K, V1, V2]](cfg, aAgent, aInput, aInitial, bAgent, bInput, bInitial, pair)
}

// Semijoin joins A's arrangement against a key-only arrangement of B
// (spec §6's `semijoin`, and SPEC_FULL's supplemented-features note: "semijoin/
// antijoin are expressed as join against a key-only (value-less)
// arrangement"). It keeps A's (key, value) pair wherever B's key is
// present, with diff A's diff multiplied by B's per cfg.Multiply.
func Semijoin[K comparable, V1 comparable, T lattice.Lattice[T], D1 comparable, D2 comparable, D3 comparable](
	cfg join.Config[K, V1, Unit, T, D1, D2, D3],
	aAgent *trace.Agent[K, V1, T, D1],
	aInput *dataflow.Stream[T, *batch.Batch[K, V1, T, D1]],
	aInitial lattice.Antichain[T],
	bAgent *trace.Agent[K, Unit, T, D2],
	bInput *dataflow.Stream[T, *batch.Batch[K, Unit, T, D2]],
	bInitial lattice.Antichain[T],
) *JoinMapOperator[K, V1, Unit, T, D1, D2, D3, Pair[K, V1]] {
	combine := func(k K, v1 V1, _ Unit) Pair[K, V1] { return Pair[K, V1]{Key: k, Val: v1} }
	return JoinMap[K, V1, Unit, T, D1, D2, D3, Pair[K, V1]](cfg, aAgent, aInput, aInitial, bAgent, bInput, bInitial, combine)
}

// AntijoinDelta expresses antijoin's per-round output (spec §6's
// `antijoin`) as the composition SPEC_FULL's supplemented-features note describes:
// A's own records this round, concatenated with the negation of
// whatever matched B this round (original_source/differential-dataflow
// defines antijoin exactly this way: `a.concat(&a.semijoin(b).negate())`
// — subtracting the matched subset leaves only what didn't match).
// aRawThisRound is the same round's A records in (key, value) form,
// independently fed (antijoin needs A both arranged, for the semijoin,
// and raw, to know what to subtract from); semijoinMatches is
// Semijoin's Step output for that round.
func AntijoinDelta[K comparable, V1 comparable, T lattice.Lattice[T], D1 lattice.Abelian[D1]](
	aRawThisRound []Change[T, Pair[K, V1], D1],
	semijoinMatches []Change[T, Pair[K, V1], D1],
) []Change[T, Pair[K, V1], D1] {
	out := make([]Change[T, Pair[K, V1], D1], 0, len(aRawThisRound)+len(semijoinMatches))
	out = append(out, aRawThisRound...)
	for _, m := range semijoinMatches {
		out = append(out, Change[T, Pair[K, V1], D1]{Val: m.Val, Time: m.Time, Diff: m.Diff.Negate()})
	}
	return out
}

// ReduceMap wraps operator/reduce, projecting each sealed output batch's
// (key, value, time, diff) rows through combine (spec §6's `reduce`).
type ReduceMapOperator[K comparable, V comparable, R comparable, T lattice.Lattice[T], VOut comparable, ROut comparable, Out comparable] struct {
	r       *reduce.Operator[K, V, R, T, VOut, ROut]
	combine func(K, VOut) Out
}

func ReduceMap[K comparable, V comparable, R comparable, T lattice.Lattice[T], VOut comparable, ROut comparable, Out comparable](
	cfg reduce.Config[K, V, R, VOut, ROut],
	inputAgent *trace.Agent[K, V, T, R],
	input *dataflow.Stream[T, *batch.Batch[K, V, T, R]],
	initial lattice.Antichain[T],
	outputTrace *trace.Trace[K, VOut, T, ROut],
	combine func(K, VOut) Out,
) *ReduceMapOperator[K, V, R, T, VOut, ROut, Out] {
	r := reduce.New[K, V, R, T, VOut, ROut](cfg, inputAgent, input, initial, outputTrace)
	return &ReduceMapOperator[K, V, R, T, VOut, ROut, Out]{r: r, combine: combine}
}

func (rm *ReduceMapOperator[K, V, R, T, VOut, ROut, Out]) Reduce() *reduce.Operator[K, V, R, T, VOut, ROut] {
	return rm.r
}

func (rm *ReduceMapOperator[K, V, R, T, VOut, ROut, Out]) Step() []Change[T, Out, ROut] {
	b := rm.r.Step()
	if b == nil || b.IsEmpty() {
		return nil
	}
	var out []Change[T, Out, ROut]
	c := b.Cursor()
	for c.KeyValid() {
		k := c.Key()
		for c.ValValid() {
			v := c.Val()
			c.MapTimes(func(t T, d ROut) {
				out = append(out, Change[T, Out, ROut]{Val: rm.combine(k, v), Time: t, Diff: d})
			})
			c.StepVal()
		}
		c.StepKey()
	}
	return out
}

// Distinct, Count, CountTotal and Threshold wire operator/misc's
// reduce.Config builders through ReduceMap, each projecting the keyed
// output back into records: Distinct and Threshold yield the keys
// themselves, Count and CountTotal yield (key, count) Pairs (spec §6's
// `distinct`/`count`/`count_total`/`threshold`).
func Distinct[K comparable, V comparable, T lattice.Lattice[T]](
	lessKey func(a, b K) bool, lessVal func(a, b V) bool,
	inputAgent *trace.Agent[K, V, T, lattice.Int64Diff],
	input *dataflow.Stream[T, *batch.Batch[K, V, T, lattice.Int64Diff]],
	initial lattice.Antichain[T],
	outputTrace *trace.Trace[K, misc.Present, T, lattice.Int64Diff],
	fuel int, name string,
) *ReduceMapOperator[K, V, lattice.Int64Diff, T, misc.Present, lattice.Int64Diff, K] {
	cfg := misc.DistinctConfig[K, V](lessKey, lessVal, fuel, name)
	return ReduceMap[K, V, lattice.Int64Diff, T, misc.Present, lattice.Int64Diff, K](
		cfg, inputAgent, input, initial, outputTrace, func(k K, _ misc.Present) K { return k },
	)
}

func CountTotal[K comparable, V comparable, T lattice.Lattice[T]](
	lessKey func(a, b K) bool, lessVal func(a, b V) bool,
	inputAgent *trace.Agent[K, V, T, lattice.Int64Diff],
	input *dataflow.Stream[T, *batch.Batch[K, V, T, lattice.Int64Diff]],
	initial lattice.Antichain[T],
	outputTrace *trace.Trace[K, int64, T, lattice.Int64Diff],
	fuel int, name string,
) *ReduceMapOperator[K, V, lattice.Int64Diff, T, int64, lattice.Int64Diff, Pair[K, int64]] {
	cfg := misc.CountTotalConfig[K, V](lessKey, lessVal, fuel, name)
	return ReduceMap[K, V, lattice.Int64Diff, T, int64, lattice.Int64Diff, Pair[K, int64]](
		cfg, inputAgent, input, initial, outputTrace, func(k K, n int64) Pair[K, int64] { return Pair[K, int64]{Key: k, Val: n} },
	)
}

func Count[K comparable, V comparable, T lattice.Lattice[T]](
	lessKey func(a, b K) bool, lessVal func(a, b V) bool,
	inputAgent *trace.Agent[K, V, T, lattice.Int64Diff],
	input *dataflow.Stream[T, *batch.Batch[K, V, T, lattice.Int64Diff]],
	initial lattice.Antichain[T],
	outputTrace *trace.Trace[K, int64, T, lattice.Int64Diff],
	fuel int, name string,
) *ReduceMapOperator[K, V, lattice.Int64Diff, T, int64, lattice.Int64Diff, Pair[K, int64]] {
	// count and count_total share one implementation; see DESIGN.md's
	// operator/misc entry for why.
	return CountTotal[K, V, T](lessKey, lessVal, inputAgent, input, initial, outputTrace, fuel, name)
}

func Threshold[K comparable, V comparable, T lattice.Lattice[T]](
	lessKey func(a, b K) bool, lessVal func(a, b V) bool,
	f func(total int64) int64,
	inputAgent *trace.Agent[K, V, T, lattice.Int64Diff],
	input *dataflow.Stream[T, *batch.Batch[K, V, T, lattice.Int64Diff]],
	initial lattice.Antichain[T],
	outputTrace *trace.Trace[K, misc.Present, T, lattice.Int64Diff],
	fuel int, name string,
) *ReduceMapOperator[K, V, lattice.Int64Diff, T, misc.Present, lattice.Int64Diff, K] {
	cfg := misc.ThresholdConfig[K, V](lessKey, lessVal, f, fuel, name)
	return ReduceMap[K, V, lattice.Int64Diff, T, misc.Present, lattice.Int64Diff, K](
		cfg, inputAgent, input, initial, outputTrace, func(k K, _ misc.Present) K { return k },
	)
}

// Enter/Leave implement spec §6's `enter`/`leave` at the Collection
// level. Unlike operator/iterate's stream-level Enter/Leave (which only
// need to translate a message's capability, since Item is opaque to
// them), a Collection's own Change.Time field is typed in the same time
// lattice as the Collection itself — entering/leaving the sub-scope
// must translate that embedded time too, which operator/iterate's
// generic-Item functions have no way to reach into. So these are a
// separate, Collection-specific implementation rather than a call
// through to operator/iterate, grounded on the same
// original_source/differential-dataflow enter/leave semantics
// (src/operators/iterate.rs) that package's doc comment cites.
func Enter[Outer lattice.Lattice[Outer], Inner lattice.Lattice[Inner], D comparable, R comparable](
	in *Collection[Outer, D, R],
	out *Collection[lattice.Product[Outer, Inner], D, R],
	zeroInner Inner,
) {
	for _, msg := range in.stream.Drain() {
		innerCap := dataflow.NewCapability(lattice.Enter[Outer, Inner](msg.Cap.Time(), zeroInner))
		lifted := make([]Change[lattice.Product[Outer, Inner], D, R], len(msg.Data))
		for i, ch := range msg.Data {
			lifted[i] = Change[lattice.Product[Outer, Inner], D, R]{
				Val:  ch.Val,
				Time: lattice.Enter[Outer, Inner](ch.Time, zeroInner),
				Diff: ch.Diff,
			}
		}
		out.stream.Send(innerCap, lifted)
	}
	var elems []lattice.Product[Outer, Inner]
	for _, e := range in.stream.Frontier().Elements() {
		elems = append(elems, lattice.Enter[Outer, Inner](e, zeroInner))
	}
	out.stream.AdvanceFrontier(lattice.NewAntichain(elems...))
}

func Leave[Outer lattice.Lattice[Outer], Inner lattice.Lattice[Inner], D comparable, R comparable](
	in *Collection[lattice.Product[Outer, Inner], D, R],
	out *Collection[Outer, D, R],
) {
	for _, msg := range in.stream.Drain() {
		outerCap := dataflow.NewCapability(lattice.Leave(msg.Cap.Time()))
		dropped := make([]Change[Outer, D, R], len(msg.Data))
		for i, ch := range msg.Data {
			dropped[i] = Change[Outer, D, R]{Val: ch.Val, Time: lattice.Leave(ch.Time), Diff: ch.Diff}
		}
		out.stream.Send(outerCap, dropped)
	}
	var elems []Outer
	for _, e := range in.stream.Frontier().Elements() {
		elems = append(elems, lattice.Leave(e))
	}
	out.stream.AdvanceFrontier(lattice.NewAntichain(elems...))
}
