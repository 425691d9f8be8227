package dataflow

// Activator lets an operator request re-scheduling after it returns with
// remaining work (spec.md §5: "when an operator has remaining work... it
// calls activator.activate(), then returns"). It is a simple dirty flag
// rather than a channel: a Scope polls every registered operator's
// activator once per Step and re-invokes any that are active.
type Activator struct {
	active bool
}

func NewActivator() *Activator { return &Activator{} }

// Activate requests the owning operator be scheduled again on the next
// Step.
func (a *Activator) Activate() { a.active = true }

// TakeActive reports whether the operator was activated since the last
// call, clearing the flag.
func (a *Activator) TakeActive() bool {
	v := a.active
	a.active = false
	return v
}
