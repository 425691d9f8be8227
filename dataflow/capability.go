// Package dataflow is the minimal in-process substrate the rest of
// ddflow is written against: scopes, streams, capabilities, and an
// activator-driven scheduler standing in for spec.md §6's "substrate
// collaborator interface" (the external timely-style runtime the engine
// is normally embedded in). It exists so operators are concretely
// runnable and testable within this module rather than merely described
// against an interface nothing implements.
//
// Grounded on original_source/differential-dataflow's operator files
// (arrangement.rs, join.rs, group.rs) for the capability/activator
// vocabulary they assume, and on DBAShand-cdc-sink-redshift's
// internal/source/cdc/resolver.go for the "hold a watermark, wake up
// when it might have advanced" scheduling shape (there: notify.Var
// wakeups driving a resolved-timestamp loop; here: Activator driving a
// Scope's cooperative step loop).
package dataflow

import "github.com/flowlake/ddflow/lattice"

// Capability grants permission to emit data at Time (spec §6). Holding
// one keeps a downstream consumer's frontier from advancing past Time;
// Drop releases that hold.
type Capability[T lattice.Lattice[T]] struct {
	time    T
	dropped bool
}

func NewCapability[T lattice.Lattice[T]](t T) *Capability[T] {
	return &Capability[T]{time: t}
}

func (c *Capability[T]) Time() T { return c.time }

// Delayed returns a new capability at a time ≥ the receiver's, retaining
// the same emission rights shifted later (spec §6: "Capability<T>...
// delayed(t)").
func (c *Capability[T]) Delayed(t T) *Capability[T] {
	return &Capability[T]{time: c.time.Join(t)}
}

// Retain returns an independent handle at the same time; both must be
// dropped before the held time is released.
func (c *Capability[T]) Retain() *Capability[T] {
	return &Capability[T]{time: c.time}
}

// Downgrade replaces this capability's held time with a later one
// in-place (spec §6: "downgrade(t)").
func (c *Capability[T]) Downgrade(t T) {
	c.time = c.time.Join(t)
}

func (c *Capability[T]) Drop() { c.dropped = true }

func (c *Capability[T]) Dropped() bool { return c.dropped }
