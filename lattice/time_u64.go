package lattice

// U64 is the textbook totally-ordered time used by spec.md's end-to-end
// scenarios (T = u64). A total order is a (trivial) lattice: Join is
// max, Meet is min.
//
// Grounded on the (nanos, logical) pair cdc-sink's internal/util/hlc
// package is used as in DBAShand-cdc-sink-redshift/internal/source/cdc/resolver.go
// and .../internal/util/msort/msort.go (hlc.Compare, hlc.Zero) — that
// package's source wasn't retrieved, only its call sites, so U64
// collapses the same "comparable, has a zero, totally ordered" shape
// down to a single counter rather than the two-field struct, matching
// how erigon-lib uses a bare monotonic txNum as its time coordinate.
type U64 uint64

func (t U64) LessEqual(other U64) bool { return t <= other }
func (t U64) Join(other U64) U64 {
	if t > other {
		return t
	}
	return other
}
func (t U64) Meet(other U64) U64 {
	if t < other {
		return t
	}
	return other
}

// MinU64 is the lattice minimum element for U64 time.
const MinU64 U64 = 0
