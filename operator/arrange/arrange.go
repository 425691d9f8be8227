// Package arrange implements the per-worker arrange operator (spec.md
// §4.6): it drains a stream of keyed update triples into a batcher,
// seals batches once the input frontier passes a held capability's time,
// and publishes them both downstream and into a trace agent.
//
// Grounded on original_source/differential-dataflow's
// src/operators/arrange/arrangement.rs (the capability-seal-downgrade
// loop) and erigon-lib's collate/integrateMergedFiles cadence in
// state/aggregator_v3.go for "seal what's ready, then fold the result
// into the shared index."
package arrange

import (
	"github.com/flowlake/ddflow/batch"
	"github.com/flowlake/ddflow/batcher"
	"github.com/flowlake/ddflow/dataflow"
	"github.com/flowlake/ddflow/internal/observ"
	"github.com/flowlake/ddflow/lattice"
	"github.com/flowlake/ddflow/spine"
	"github.com/flowlake/ddflow/trace"
)

// Config bundles everything the operator needs to know about its (K,
// V, T, D) schema, shared with the rest of the operator packages.
type Config[K comparable, V comparable, T lattice.Lattice[T], D comparable] struct {
	LessKey func(a, b K) bool
	LessVal func(a, b V) bool
	Plus    func(a, b D) D
	IsZero  func(D) bool

	Name string // spec §6: "per-arrange name for logging"

	// ExertFuel is applied to the trace on every scheduling (spec §4.6
	// step 6, "periodically call exert()"); 0 disables background merge
	// fuel beyond what Insert already triggers.
	ExertFuel int
}

// Operator is the arrange operator instance for one arrangement.
type Operator[K comparable, V comparable, T lattice.Lattice[T], D comparable] struct {
	cfg Config[K, V, T, D]

	batcher *batcher.Batcher[K, V, T, D]
	trace   *trace.Trace[K, V, T, D]

	input *dataflow.Stream[T, batcher.Update[K, V, T, D]]

	held          []*dataflow.Capability[T]
	lastSeenInput lattice.Antichain[T]
	logger        observ.Logger
	metrics       *observ.Metrics
}

// New constructs an arrange operator over a fresh trace, seeded with one
// capability at the initial lower bound.
func New[K comparable, V comparable, T lattice.Lattice[T], D comparable](
	cfg Config[K, V, T, D],
	initial lattice.Antichain[T],
	input *dataflow.Stream[T, batcher.Update[K, V, T, D]],
	initialCap *dataflow.Capability[T],
) *Operator[K, V, T, D] {
	sc := spine.Config[K, V, T, D]{LessKey: cfg.LessKey, LessVal: cfg.LessVal, Plus: cfg.Plus, IsZero: cfg.IsZero}
	return &Operator[K, V, T, D]{
		cfg:           cfg,
		batcher:       batcher.New[K, V, T, D](initial, cfg.LessKey, cfg.LessVal, func(a, b T) bool { return a.LessEqual(b) && a != b }, cfg.Plus, cfg.IsZero),
		trace:         trace.New[K, V, T, D](sc),
		input:         input,
		held:          []*dataflow.Capability[T]{initialCap},
		lastSeenInput: initial,
		logger:        observ.NewLogger(cfg.Name),
		metrics:       observ.NewMetrics(cfg.Name),
	}
}

// Trace returns the agent-issuing handle downstream operators read from.
func (op *Operator[K, V, T, D]) Trace() *trace.Trace[K, V, T, D] { return op.trace }

// isHeld reports whether c is already tracked in op.held, by pointer
// identity — a capability is one logical hold regardless of how many
// messages carried it.
func (op *Operator[K, V, T, D]) isHeld(c *dataflow.Capability[T]) bool {
	for _, h := range op.held {
		if h == c {
			return true
		}
	}
	return false
}

// Step runs one scheduling round (spec §4.6's six numbered steps).
func (op *Operator[K, V, T, D]) Step() []*SealedBatch[K, V, T, D] {
	// 1. Drain input, retaining capabilities and pushing data. The same
	// *Capability can arrive on more than one message within a drain (a
	// sender reusing one capability across several Sends, or a caller's
	// initialCap being resent as the first message's capability) — held
	// tracks each distinct capability once, by pointer identity, so step
	// 3 below never seals the same hold twice.
	for _, msg := range op.input.Drain() {
		if !op.isHeld(msg.Cap) {
			op.held = append(op.held, msg.Cap)
		}
		op.batcher.Push(msg.Data)
	}

	// 2. Inspect input frontier; yield if unchanged.
	frontier := op.input.Frontier()
	if frontier.Equal(op.lastSeenInput) {
		if op.cfg.ExertFuel > 0 {
			op.trace.Exert(op.cfg.ExertFuel)
		}
		return nil
	}
	if !op.lastSeenInput.LessEqual(frontier) {
		panic("arrange: input frontier regressed")
	}
	op.lastSeenInput = frontier

	// 3. Seal every capability the frontier has now passed.
	var sealable []*dataflow.Capability[T]
	var stillHeld []*dataflow.Capability[T]
	for _, c := range op.held {
		if !frontier.LessEqualTime(c.Time()) {
			sealable = append(sealable, c)
		} else {
			stillHeld = append(stillHeld, c)
		}
	}

	var results []*SealedBatch[K, V, T, D]
	for i, sc := range sealable {
		var laterTimes []T
		for j, other := range sealable {
			if j != i && sc.Time().LessEqual(other.Time()) && other.Time() != sc.Time() {
				laterTimes = append(laterTimes, other.Time())
			}
		}
		upper := lattice.NewAntichain(append(append([]T{}, frontier.Elements()...), laterTimes...)...)

		b, err := op.batcher.Seal(upper)
		if err != nil {
			op.logger.Warn("arrange: seal failed", "err", err)
			stillHeld = append(stillHeld, sc)
			continue
		}
		op.trace.Insert(b)
		op.metrics.BatchesSealed.Inc()
		results = append(results, &SealedBatch[K, V, T, D]{Batch: b, Cap: sc})
	}

	// 4. Downgrade capabilities to the batcher's current lower envelope.
	newLower := op.batcher.Frontier()
	for _, c := range stillHeld {
		if !newLower.IsEmpty() {
			c.Downgrade(lattice.AdvanceBy(c.Time(), newLower))
		}
	}
	op.held = stillHeld

	// 5. No carveable batches but frontier advanced: seal an empty batch
	// into the trace only, to advance its upper.
	if len(results) == 0 {
		if empty, err := op.batcher.Seal(frontier); err == nil {
			op.trace.Insert(empty)
		}
	}

	// 6. Background merge fuel.
	if op.cfg.ExertFuel > 0 {
		op.trace.Exert(op.cfg.ExertFuel)
	}

	return results
}

// SealedBatch is one batch this Step produced, paired with the
// capability it was sealed under (so the caller can emit it downstream
// at the right time).
type SealedBatch[K comparable, V comparable, T lattice.Lattice[T], D comparable] struct {
	Batch *batch.Batch[K, V, T, D]
	Cap   *dataflow.Capability[T]
}
