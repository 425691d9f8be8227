package container

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdvanceGallops(t *testing.T) {
	require := require.New(t)

	items := make([]int, 1000)
	for i := range items {
		items[i] = i
	}

	count := Advance(items, 0, len(items), func(x int) bool { return x < 317 })
	require.Equal(317, count)

	t.Run("lo at transition", func(t *testing.T) {
		count := Advance(items, 317, len(items), func(x int) bool { return x < 317 })
		require.Equal(0, count)
	})

	t.Run("whole range satisfies", func(t *testing.T) {
		count := Advance(items, 0, len(items), func(x int) bool { return true })
		require.Equal(len(items), count)
	})

	t.Run("empty range", func(t *testing.T) {
		count := Advance(items, 5, 5, func(x int) bool { return true })
		require.Equal(0, count)
	})
}

func TestOffsetListBounds(t *testing.T) {
	require := require.New(t)

	o := NewOffsetList(4)
	o.PushBound(3)
	o.PushBound(5)
	o.PushBound(5)

	require.Equal(3, o.NumLists())
	lo, hi := o.Bounds(1)
	require.Equal(3, lo)
	require.Equal(5, hi)
}
