package batcher

import (
	"testing"

	"github.com/flowlake/ddflow/lattice"
	"github.com/stretchr/testify/require"
)

func lessInt(a, b int) bool { return a < b }

func plusInt64(a, b lattice.Int64Diff) lattice.Int64Diff { return a.PlusEqual(b) }
func isZeroInt64(d lattice.Int64Diff) bool               { return d.IsZero() }

func newTestBatcher() *Batcher[int, int, lattice.U64, lattice.Int64Diff] {
	return New[int, int, lattice.U64, lattice.Int64Diff](
		lattice.NewAntichain(lattice.U64(0)), lessInt, lessInt,
		func(a, b lattice.U64) bool { return a < b }, plusInt64, isZeroInt64)
}

func TestBatcherConsolidatesAcrossPushes(t *testing.T) {
	require := require.New(t)
	b := newTestBatcher()

	b.Push([]Update[int, int, lattice.U64, lattice.Int64Diff]{
		{Key: 1, Val: 0, Time: 0, Diff: 1},
		{Key: 2, Val: 0, Time: 0, Diff: 1},
	})
	b.Push([]Update[int, int, lattice.U64, lattice.Int64Diff]{
		{Key: 1, Val: 0, Time: 0, Diff: -1},
		{Key: 3, Val: 0, Time: 0, Diff: 1},
	})

	out, err := b.Seal(lattice.NewAntichain(lattice.U64(1)))
	require.NoError(err)
	// key 1's +1/-1 cancel across the two pushed chunks.
	require.Equal(2, out.NumKeys())
}

func TestBatcherSealSplitsByUpper(t *testing.T) {
	require := require.New(t)
	b := newTestBatcher()

	b.Push([]Update[int, int, lattice.U64, lattice.Int64Diff]{
		{Key: 1, Val: 0, Time: 0, Diff: 1},
		{Key: 1, Val: 0, Time: 5, Diff: 1},
	})

	out, err := b.Seal(lattice.NewAntichain(lattice.U64(1)))
	require.NoError(err)
	require.Equal(1, out.Len(), "only time=0 is sealed; time=5 stays held")
	require.False(b.Frontier().IsEmpty())

	out2, err := b.Seal(lattice.NewAntichain(lattice.U64(10)))
	require.NoError(err)
	require.Equal(1, out2.Len())
	require.True(b.Frontier().IsEmpty())
}

func TestBatcherSealRejectsRegression(t *testing.T) {
	require := require.New(t)
	b := newTestBatcher()
	_, err := b.Seal(lattice.NewAntichain(lattice.U64(5)))
	require.NoError(err)
	_, err = b.Seal(lattice.NewAntichain(lattice.U64(1)))
	require.Error(err)
}
