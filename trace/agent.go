package trace

import (
	"github.com/flowlake/ddflow/batch"
	"github.com/flowlake/ddflow/lattice"
	"github.com/flowlake/ddflow/spine"
)

// Trace owns the spine and the set of live agents reading from it (spec
// §3, §5: "a trace is shared between exactly one writer... and zero-or-
// more readers, each holding a trace agent"). There is exactly one
// writer per trace — the operator that calls Insert — and any number of
// reader Agents.
type Trace[K comparable, V comparable, T lattice.Lattice[T], D comparable] struct {
	spine  *spine.Spine[K, V, T, D]
	agents map[*Agent[K, V, T, D]]struct{}
}

func New[K comparable, V comparable, T lattice.Lattice[T], D comparable](cfg spine.Config[K, V, T, D]) *Trace[K, V, T, D] {
	return &Trace[K, V, T, D]{
		spine:  spine.New[K, V, T, D](cfg),
		agents: make(map[*Agent[K, V, T, D]]struct{}),
	}
}

// Insert publishes a newly sealed batch to the spine. Only the writer
// (the arrange/reduce/upsert operator that owns this trace) calls this.
func (tr *Trace[K, V, T, D]) Insert(b *batch.Batch[K, V, T, D]) {
	tr.spine.Insert(b)
}

// Exert applies background merge fuel (spec §4.6 step 6).
func (tr *Trace[K, V, T, D]) Exert(fuel int) {
	tr.spine.Exert(fuel)
}

// NewAgent registers and returns a fresh reader handle with the given
// initial logical/physical compaction frontiers.
func (tr *Trace[K, V, T, D]) NewAgent(initial lattice.Antichain[T]) *Agent[K, V, T, D] {
	a := &Agent[K, V, T, D]{trace: tr, logicalCompaction: initial.Clone(), physicalCompaction: initial.Clone()}
	tr.agents[a] = struct{}{}
	tr.recompute()
	return a
}

// recompute folds every live agent's compaction frontiers into the
// spine's single effective frontier via Antichain.Meet — the most
// conservative (least advanced) agent determines how far the spine may
// actually compact (spec §3: "the spine's effective logical/physical
// compaction frontiers are the meets across live agents").
func (tr *Trace[K, V, T, D]) recompute() {
	if len(tr.agents) == 0 {
		return
	}
	var logical, physical lattice.Antichain[T]
	first := true
	for a := range tr.agents {
		if first {
			logical, physical = a.logicalCompaction, a.physicalCompaction
			first = false
			continue
		}
		logical = logical.Meet(a.logicalCompaction)
		physical = physical.Meet(a.physicalCompaction)
	}
	tr.spine.SetLogicalCompaction(logical)
	tr.spine.SetPhysicalCompaction(physical)
}

// Agent is a cheaply clonable handle onto a Trace (spec §3). Each agent
// advertises its own compaction frontiers independently of every other
// reader.
type Agent[K comparable, V comparable, T lattice.Lattice[T], D comparable] struct {
	trace              *Trace[K, V, T, D]
	logicalCompaction  lattice.Antichain[T]
	physicalCompaction lattice.Antichain[T]
}

// Clone returns a new agent registered on the same trace, starting from
// this agent's current frontiers.
func (a *Agent[K, V, T, D]) Clone() *Agent[K, V, T, D] {
	c := a.trace.NewAgent(a.logicalCompaction)
	c.SetPhysicalCompaction(a.physicalCompaction)
	return c
}

func (a *Agent[K, V, T, D]) SetLogicalCompaction(f lattice.Antichain[T]) {
	a.logicalCompaction = f.Clone()
	a.trace.recompute()
}

func (a *Agent[K, V, T, D]) SetPhysicalCompaction(f lattice.Antichain[T]) {
	a.physicalCompaction = f.Clone()
	a.trace.recompute()
}

// Drop releases this agent's hold on the trace's compaction frontiers.
// Once every agent has dropped, recompute no longer changes the spine,
// which keeps the last frontiers set while an agent was live (and, with
// no other references, the trace becomes garbage).
func (a *Agent[K, V, T, D]) Drop() {
	delete(a.trace.agents, a)
	a.trace.recompute()
}

// Cursors and Batches read through to the underlying spine.
func (a *Agent[K, V, T, D]) Cursors() []*batch.Cursor[K, V, T, D] { return a.trace.spine.Cursors() }
func (a *Agent[K, V, T, D]) Batches() []*batch.Batch[K, V, T, D]  { return a.trace.spine.Batches() }
