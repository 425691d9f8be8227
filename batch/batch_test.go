package batch

import (
	"testing"

	"github.com/flowlake/ddflow/lattice"
	"github.com/stretchr/testify/require"
)

func lessInt(a, b int) bool { return a < b }

func TestBuilderSingletonCompression(t *testing.T) {
	require := require.New(t)

	b := NewBuilder[int, int, lattice.U64, lattice.Int64Diff](4, 4, 4)
	// Three keys, each with one value whose sole update is identical
	// (time=1, diff=+1) — the builder should materialize it once and
	// elide the rest.
	b.Push(1, 10, lattice.U64(1), lattice.Int64Diff(1))
	b.Push(2, 10, lattice.U64(1), lattice.Int64Diff(1))
	b.Push(3, 10, lattice.U64(1), lattice.Int64Diff(1))

	desc := NewDescription(lattice.NewAntichain(lattice.U64(0)), lattice.NewAntichain(lattice.U64(2)))
	batch := b.Finish(desc)

	require.Equal(3, batch.Len(), "logical length counts elided singletons")
	require.Equal(1, batch.times.Len(), "only one physical (time,diff) entry written")
	require.Equal(2, batch.singletons)

	c := batch.Cursor()
	var keys []int
	for c.KeyValid() {
		keys = append(keys, c.Key())
		require.True(c.ValValid())
		var got []lattice.Int64Diff
		c.MapTimes(func(tm lattice.U64, d lattice.Int64Diff) {
			got = append(got, d)
			require.Equal(lattice.U64(1), tm)
		})
		require.Equal([]lattice.Int64Diff{1}, got)
		c.StepKey()
	}
	require.Equal([]int{1, 2, 3}, keys)
}

func TestCursorSeekKeyGallops(t *testing.T) {
	require := require.New(t)

	b := NewBuilder[int, int, lattice.U64, lattice.Int64Diff](8, 8, 8)
	for k := 0; k < 8; k++ {
		b.Push(k, 0, lattice.U64(0), lattice.Int64Diff(int64(k+1)))
	}
	desc := NewDescription(lattice.NewAntichain(lattice.U64(0)), lattice.NewAntichain(lattice.U64(1)))
	batch := b.Finish(desc)

	c := batch.Cursor()
	c.SeekKey(5, lessInt)
	require.True(c.KeyValid())
	require.Equal(5, c.Key())
}

func TestCursorListMergesActiveKeys(t *testing.T) {
	require := require.New(t)

	b1 := NewBuilder[int, int, lattice.U64, lattice.Int64Diff](2, 2, 2)
	b1.Push(1, 0, lattice.U64(0), lattice.Int64Diff(1))
	b1.Push(2, 0, lattice.U64(0), lattice.Int64Diff(1))
	batch1 := b1.Finish(NewDescription(lattice.NewAntichain(lattice.U64(0)), lattice.NewAntichain(lattice.U64(1))))

	b2 := NewBuilder[int, int, lattice.U64, lattice.Int64Diff](2, 2, 2)
	b2.Push(2, 0, lattice.U64(0), lattice.Int64Diff(1))
	b2.Push(3, 0, lattice.U64(0), lattice.Int64Diff(1))
	batch2 := b2.Finish(NewDescription(lattice.NewAntichain(lattice.U64(0)), lattice.NewAntichain(lattice.U64(1))))

	cl := NewCursorList([]*Cursor[int, int, lattice.U64, lattice.Int64Diff]{batch1.Cursor(), batch2.Cursor()}, lessInt)

	var seen []int
	var widths []int
	for cl.KeyValid() {
		seen = append(seen, cl.Key())
		widths = append(widths, len(cl.Active()))
		cl.StepKey()
	}
	require.Equal([]int{1, 2, 3}, seen)
	require.Equal([]int{1, 2, 1}, widths, "key 2 is active in both cursors")
}
