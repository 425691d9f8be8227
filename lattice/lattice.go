// Package lattice defines the partial-order and monoid abstractions that
// parametrize the rest of ddflow: the time lattice updates are stamped
// with, and the diff semigroup that tracks how much a record's
// multiplicity changed.
//
// Nothing here talks to batches, traces, or operators — it is pure math
// machinery, grounded on the antichain/frontier shape used throughout
// original_source/differential-dataflow/src/trace, re-expressed with Go
// generics instead of Rust trait bounds.
package lattice

// PartialOrder is satisfied by any time type usable as a ddflow
// timestamp: a comparable type with a partial order. Advancing a time
// past a frontier is the free function AdvanceBy, which needs Lattice.
type PartialOrder[T any] interface {
	comparable
	// LessEqual reports whether the receiver happened-before or
	// simultaneously-with other.
	LessEqual(other T) bool
}

// Lattice extends PartialOrder with the two lattice operations the spec
// requires: Join (least upper bound) and Meet (greatest lower bound).
type Lattice[T any] interface {
	PartialOrder[T]
	Join(other T) T
	Meet(other T) T
}

// Diff is the semigroup element recording a change in multiplicity.
// PlusEqual must be commutative and associative; IsZero detects the
// identity element so consolidation can drop no-op updates.
type Diff[D any] interface {
	PlusEqual(other D) D
	IsZero() bool
}

// Abelian is a Diff that additionally supports negation, required by
// collection.Negate and collection.AntijoinDelta. Join and reduce take
// their diff operations as Config functions instead.
type Abelian[D any] interface {
	Diff[D]
	Negate() D
}

// Multiply is a user-supplied way to combine two diff types (from the
// two sides of a join) into a third. Spec §4.7: "the multiplication is
// a user-provided Multiply on the two diff types."
type Multiply[D1, D2, D3 any] func(D1, D2) D3

// Int64Diff is the textbook diff type used throughout spec.md's end to
// end scenarios (T = u64, D = i64): a signed multiplicity delta.
type Int64Diff int64

func (d Int64Diff) PlusEqual(o Int64Diff) Int64Diff { return d + o }
func (d Int64Diff) IsZero() bool                    { return d == 0 }
func (d Int64Diff) Negate() Int64Diff               { return -d }

// MultiplyInt64 is the natural Multiply for two Int64Diff sides,
// producing an Int64Diff result. join.Config has no default Multiply;
// this is the function to pass when both sides use Int64Diff.
func MultiplyInt64(a, b Int64Diff) Int64Diff { return a * b }
