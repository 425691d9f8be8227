// Package upsert implements arrange_from_upsert (spec.md §4.9): turns a
// stream of (key, Option<value>, time) upserts, where time is totally
// ordered, into the retraction/insertion diff pairs an arrangement is
// built from, consulting the key's prior value via a trace.Store.
//
// Grounded on erigon-lib's kv/kv_interface.go Put/Delete convention
// (trace.Store's doc comment already ties Has/Get/Set/Delete to that
// file) and, for the arrange cadence the operator wraps, on
// operator/arrange's C8 implementation.
package upsert

import (
	"fmt"

	"github.com/flowlake/ddflow/batcher"
	"github.com/flowlake/ddflow/dataflow"
	"github.com/flowlake/ddflow/internal/observ"
	"github.com/flowlake/ddflow/lattice"
	"github.com/flowlake/ddflow/operator/arrange"
	"github.com/flowlake/ddflow/trace"
)

// Upsert is one (key, value-or-absent, time) update from the source
// (spec §4.9's "(key, Option<value>, time)"). Present=false models the
// Option's None case: delete whatever value k currently has.
type Upsert[K comparable, V comparable, T lattice.Lattice[T]] struct {
	Key     K
	Val     V
	Present bool
	Time    T
}

// Config bundles the comparators arrange_from_upsert needs: key/value
// ordering for the arrangement it builds. The check used to reject a
// time that isn't comparable to the last one seen is not a Config
// field; it is the totalOrder function passed to New (spec's
// edge case: "Upsert applied on a partially-ordered time: fails with an
// explicit error because the engine only supports totally-ordered
// upsert times").
type Config[K comparable, V comparable, T lattice.Lattice[T]] struct {
	LessKey func(a, b K) bool
	LessVal func(a, b V) bool
	Name    string
}

// Operator maintains the current-value Store and feeds retraction/
// insertion diffs into a wrapped arrange.Operator.
type Operator[K comparable, V comparable, T lattice.Lattice[T]] struct {
	cfg     Config[K, V, T]
	store   *trace.Store[K, V]
	arr     *arrange.Operator[K, V, T, lattice.Int64Diff]
	updates *dataflow.Stream[T, batcher.Update[K, V, T, lattice.Int64Diff]]

	lastTime    T
	haveLast    bool
	totalOrder  func(a, b T) bool // a and b are comparable iff totalOrder(a,b) || totalOrder(b,a) || a == b
	logger      observ.Logger
}

// New constructs an upsert-arrange wrapping a fresh arrange.Operator.
// Callers Send raw upserts via Apply and read the resulting arrangement
// through Arrange(), exactly like any other arrangement.
func New[K comparable, V comparable, T lattice.Lattice[T]](
	cfg Config[K, V, T],
	initial lattice.Antichain[T],
	totalOrder func(a, b T) bool,
	initialCap *dataflow.Capability[T],
) *Operator[K, V, T] {
	updates := dataflow.NewStream[T, batcher.Update[K, V, T, lattice.Int64Diff]](initial)
	arrCfg := arrange.Config[K, V, T, lattice.Int64Diff]{
		LessKey: cfg.LessKey,
		LessVal: cfg.LessVal,
		Plus:    func(a, b lattice.Int64Diff) lattice.Int64Diff { return a.PlusEqual(b) },
		IsZero:  func(d lattice.Int64Diff) bool { return d.IsZero() },
		Name:    cfg.Name,
	}
	arr := arrange.New(arrCfg, initial, updates, initialCap)

	return &Operator[K, V, T]{
		cfg:        cfg,
		store:      trace.NewStore[K, V](cfg.LessKey),
		arr:        arr,
		updates:    updates,
		totalOrder: totalOrder,
		logger:     observ.NewLogger(cfg.Name),
	}
}

// Arrange returns the wrapped arrange operator, the actual handle
// downstream code schedules and reads the resulting trace through.
func (op *Operator[K, V, T]) Arrange() *arrange.Operator[K, V, T, lattice.Int64Diff] {
	return op.arr
}

// Apply consumes a batch of upserts, in time order, converting each into
// a retraction of the key's prior value (if any) and an insertion of the
// new value (if present), with identical times suppressed (spec §4.9:
// "computes retractions... and insertions... with identical times
// suppressed" — i.e. a retract-then-insert at the exact same time as the
// prior value collapses, since -1 and +1 of the same value at the same
// time cancel in the batcher's own consolidation).
//
// Returns an error if two upserts arrive with times that are not
// mutually comparable (spec's totally-ordered-time requirement).
func (op *Operator[K, V, T]) Apply(cap *dataflow.Capability[T], ups []Upsert[K, V, T]) error {
	var out []batcher.Update[K, V, T, lattice.Int64Diff]
	for _, u := range ups {
		if op.haveLast {
			comparable := op.totalOrder(op.lastTime, u.Time) || op.totalOrder(u.Time, op.lastTime) || op.lastTime == u.Time
			if !comparable {
				return fmt.Errorf("upsert: time %v is not comparable to previously seen time %v; upsert requires a totally ordered time", u.Time, op.lastTime)
			}
		}
		op.lastTime, op.haveLast = u.Time, true

		if prior, found := op.store.Get(u.Key); found {
			out = append(out, batcher.Update[K, V, T, lattice.Int64Diff]{Key: u.Key, Val: prior, Time: u.Time, Diff: -1})
		}
		if u.Present {
			out = append(out, batcher.Update[K, V, T, lattice.Int64Diff]{Key: u.Key, Val: u.Val, Time: u.Time, Diff: 1})
			op.store.Set(u.Key, u.Val)
		} else {
			op.store.Delete(u.Key)
		}
	}
	if len(out) > 0 {
		op.updates.Send(cap, out)
	}
	return nil
}

// Step advances the wrapped arrangement by one scheduling round,
// returning whatever batches it sealed (spec §4.6's cadence, unchanged
// here: upsert only changes how updates are produced, not how they are
// arranged).
func (op *Operator[K, V, T]) Step() []*arrange.SealedBatch[K, V, T, lattice.Int64Diff] {
	return op.arr.Step()
}
