package lattice

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAntichainInsert(t *testing.T) {
	require := require.New(t)

	t.Run("dominated element is dropped", func(t *testing.T) {
		var a Antichain[U64]
		a.Insert(U64(3))
		changed := a.Insert(U64(5))
		require.False(changed)
		require.Equal([]U64{3}, a.Elements())
	})

	t.Run("dominating element replaces existing", func(t *testing.T) {
		var a Antichain[U64]
		a.Insert(U64(5))
		changed := a.Insert(U64(3))
		require.True(changed)
		require.Equal([]U64{3}, a.Elements())
	})
}

func TestAntichainLessEqualTime(t *testing.T) {
	require := require.New(t)
	a := NewAntichain(U64(3), U64(7))

	require.True(a.LessEqualTime(3))
	require.True(a.LessEqualTime(4))
	require.True(a.LessEqualTime(7))
	require.False(a.LessEqualTime(2))
}

func TestAdvanceBy(t *testing.T) {
	require := require.New(t)
	frontier := NewAntichain(U64(10))

	require.Equal(U64(10), AdvanceBy(U64(5), frontier))
	require.Equal(U64(15), AdvanceBy(U64(15), frontier))

	t.Run("idempotent", func(t *testing.T) {
		once := AdvanceBy(U64(5), frontier)
		twice := AdvanceBy(once, frontier)
		require.Equal(once, twice, "compaction idempotence (spec property 4)")
	})

	t.Run("empty frontier is a no-op", func(t *testing.T) {
		require.Equal(U64(5), AdvanceBy(U64(5), Antichain[U64]{}))
	})
}

func TestProductLattice(t *testing.T) {
	require := require.New(t)
	p1 := Product[U64, U64]{Outer: 1, Inner: 0}
	p2 := Product[U64, U64]{Outer: 1, Inner: 2}

	require.True(p1.LessEqual(p2))
	require.False(p2.LessEqual(p1))
	require.Equal(Product[U64, U64]{Outer: 1, Inner: 2}, p1.Join(p2))
	require.Equal(Product[U64, U64]{Outer: 1, Inner: 0}, p1.Meet(p2))
}
