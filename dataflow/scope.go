package dataflow

// operatorHandle is a registered operator: a name (for logging), its
// activator, and the closure the Scope invokes when scheduled.
type operatorHandle struct {
	name string
	act  *Activator
	run  func()
}

// Scope is a single worker's cooperative scheduler (spec §5: "single-
// threaded cooperative per worker... each operator is a closure invoked
// by the substrate when its inputs or a timer fire"). It owns no
// threads: Step drives one round of scheduling, and the caller decides
// how many rounds to run (a real substrate's event loop would call Step
// until nothing is scheduled, which RunToFixedPoint does here).
type Scope struct {
	name string
	ops  []*operatorHandle
}

func NewScope(name string) *Scope { return &Scope{name: name} }

// NewOperator registers a closure under a fresh Activator and returns it
// so the operator's own input-pushing code can call Activate on it.
func (s *Scope) NewOperator(name string, run func()) *Activator {
	act := NewActivator()
	s.ops = append(s.ops, &operatorHandle{name: name, act: act, run: run})
	act.Activate() // every operator gets an initial chance to run
	return act
}

// Step invokes every operator whose activator is set, clearing each one
// first (so an operator re-activating itself mid-run is picked up next
// Step, not re-entered this one). Returns whether any operator ran.
func (s *Scope) Step() bool {
	ran := false
	for _, op := range s.ops {
		if op.act.TakeActive() {
			op.run()
			ran = true
		}
	}
	return ran
}

// RunToFixedPoint steps the scope until no operator has pending work, or
// maxSteps is reached (a safety bound against a misbehaving operator
// that never quiesces).
func (s *Scope) RunToFixedPoint(maxSteps int) int {
	steps := 0
	for steps < maxSteps {
		if !s.Step() {
			break
		}
		steps++
	}
	return steps
}
