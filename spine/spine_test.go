package spine

import (
	"testing"

	"github.com/flowlake/ddflow/batch"
	"github.com/flowlake/ddflow/lattice"
	"github.com/stretchr/testify/require"
)

func lessInt(a, b int) bool { return a < b }

func testConfig() Config[int, int, lattice.U64, lattice.Int64Diff] {
	return Config[int, int, lattice.U64, lattice.Int64Diff]{
		LessKey: lessInt,
		LessVal: lessInt,
		Plus:    func(a, b lattice.Int64Diff) lattice.Int64Diff { return a.PlusEqual(b) },
		IsZero:  func(d lattice.Int64Diff) bool { return d.IsZero() },
	}
}

func oneKeyBatch(k int, t lattice.U64, d lattice.Int64Diff, lower, upper lattice.U64) *batch.Batch[int, int, lattice.U64, lattice.Int64Diff] {
	b := batch.NewBuilder[int, int, lattice.U64, lattice.Int64Diff](1, 1, 1)
	b.Push(k, 0, t, d)
	return b.Finish(batch.NewDescription(lattice.NewAntichain(lower), lattice.NewAntichain(upper)))
}

func totalLen(s *Spine[int, int, lattice.U64, lattice.Int64Diff]) int {
	n := 0
	seen := map[*batch.Batch[int, int, lattice.U64, lattice.Int64Diff]]bool{}
	for _, b := range s.Batches() {
		if !seen[b] {
			seen[b] = true
			n += b.Len()
		}
	}
	return n
}

func TestSpineInsertAndMergeCascade(t *testing.T) {
	require := require.New(t)
	s := New[int, int, lattice.U64, lattice.Int64Diff](testConfig())

	for i := 0; i < 8; i++ {
		s.Insert(oneKeyBatch(i, lattice.U64(i), lattice.Int64Diff(1), lattice.U64(i), lattice.U64(i+1)))
	}
	require.Equal(8, totalLen(s), "no update lost across any merge cascade")

	// Drain any remaining in-progress merges with a generous fuel budget.
	for i := 0; i < 10; i++ {
		s.Exert(1000)
	}
	require.Equal(8, totalLen(s))

	// All 8 single-update keys should have cascaded into one batch by now.
	var nonEmptyCount int
	for _, b := range s.Batches() {
		if !b.IsEmpty() {
			nonEmptyCount++
		}
	}
	require.Equal(1, nonEmptyCount)
}

func TestLevelFor(t *testing.T) {
	require := require.New(t)
	require.Equal(0, levelFor(0))
	require.Equal(0, levelFor(1))
	require.Equal(1, levelFor(2))
	require.Equal(2, levelFor(3))
	require.Equal(2, levelFor(4))
	require.Equal(3, levelFor(5))
}
