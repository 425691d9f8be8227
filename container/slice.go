package container

// Slice is the default, slice-backed Container implementation: the Go
// analogue of original_source's `Vec<T>` instantiation of
// `BatchContainer`. Most batches use Slice directly; OffsetList (see
// offsets.go) is the one specialized container the spec calls out by
// name.
type Slice[T any] struct {
	items []T
}

func NewSlice[T any](items []T) *Slice[T] { return &Slice[T]{items: items} }

func (s *Slice[T]) Len() int      { return len(s.items) }
func (s *Slice[T]) Index(i int) T { return s.items[i] }
func (s *Slice[T]) Last() T       { return s.items[len(s.items)-1] }

func (s *Slice[T]) PushOwned(t T) { s.items = append(s.items, t) }

// PushRef appends a copy of t; for value types (the only kind Go's
// generics let us store without an interface box) this is identical to
// PushOwned, but the name is kept to mirror the spec's owned/ref split
// for containers that might someday wrap reference-counted items.
func (s *Slice[T]) PushRef(t T) { s.items = append(s.items, t) }

func (s *Slice[T]) Items() []T { return s.items }

func (s *Slice[T]) Truncate(n int) { s.items = s.items[:n] }

// Advance performs a galloping search (spec.md §4.1): doubling strides
// from lo to find an upper bound on the transition point, then binary
// search within it. predicate must be monotone over [lo, hi): false for
// some prefix, true for the remaining suffix. Returns the count of
// elements in [lo, hi) satisfying predicate — i.e. lo + that count is
// the transition index.
//
// This is the same two-phase gallop erigon-lib's cursor code performs
// implicitly via B-tree seeks; here containers are flat slices, so we
// gallop explicitly rather than descend a tree.
func (s *Slice[T]) Advance(lo, hi int, predicate func(T) bool) int {
	return Advance(s.items, lo, hi, predicate)
}

// Advance is the free-function form, usable directly on a raw slice
// without wrapping it in a Slice container.
func Advance[T any](items []T, lo, hi int, predicate func(T) bool) int {
	if lo >= hi {
		return 0
	}
	if !predicate(items[lo]) {
		return 0
	}

	step := 1
	idx := lo
	for idx+step < hi && predicate(items[idx+step]) {
		idx += step
		step *= 2
	}

	// idx satisfies predicate; binary search (idx, min(idx+step, hi)) for
	// the first index that does not.
	lo2, hi2 := idx, min(idx+step, hi)
	for lo2 < hi2 {
		mid := lo2 + (hi2-lo2)/2
		if predicate(items[mid]) {
			lo2 = mid + 1
		} else {
			hi2 = mid
		}
	}
	return lo2 - lo
}
