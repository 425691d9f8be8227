package upsert

import (
	"testing"

	"github.com/flowlake/ddflow/dataflow"
	"github.com/flowlake/ddflow/lattice"
	"github.com/stretchr/testify/require"
)

func lessInt(a, b int) bool { return a < b }
func totalOrderU64(a, b lattice.U64) bool { return a < b }

func testConfig() Config[int, string, lattice.U64] {
	return Config[int, string, lattice.U64]{
		LessKey: lessInt,
		LessVal: func(a, b string) bool { return a < b },
		Name:    "test-upsert",
	}
}

func TestUpsertInsertThenOverwriteProducesRetractAndInsert(t *testing.T) {
	require := require.New(t)

	zero := lattice.NewAntichain(lattice.U64(0))
	cap0 := dataflow.NewCapability(lattice.U64(0))

	op := New[int, string, lattice.U64](testConfig(), zero, totalOrderU64, cap0)

	require.NoError(op.Apply(cap0, []Upsert[int, string, lattice.U64]{
		{Key: 1, Val: "a", Present: true, Time: lattice.U64(0)},
	}))
	op.updates.AdvanceFrontier(lattice.NewAntichain(lattice.U64(1)))
	sealed := op.Step()
	require.Len(sealed, 1)
	require.Equal(1, sealed[0].Batch.Len())

	cap1 := dataflow.NewCapability(lattice.U64(1))
	require.NoError(op.Apply(cap1, []Upsert[int, string, lattice.U64]{
		{Key: 1, Val: "b", Present: true, Time: lattice.U64(1)},
	}))
	op.updates.AdvanceFrontier(lattice.NewAntichain(lattice.U64(2)))
	sealed = op.Step()
	require.Len(sealed, 1)
	// retraction of "a" and insertion of "b": two diffs.
	require.Equal(2, sealed[0].Batch.Len())
}

func TestUpsertRejectsIncomparableTime(t *testing.T) {
	require := require.New(t)

	zero := lattice.NewAntichain(lattice.U64(0))
	cap0 := dataflow.NewCapability(lattice.U64(0))
	op := New[int, string, lattice.U64](testConfig(), zero, totalOrderU64, cap0)

	require.NoError(op.Apply(cap0, []Upsert[int, string, lattice.U64]{
		{Key: 1, Val: "a", Present: true, Time: lattice.U64(5)},
	}))
	// lattice.U64 is always totally ordered so this can't itself produce
	// an incomparable pair; this test instead exercises the error path
	// directly by feeding a "total order" function that treats distinct
	// times as incomparable, the shape the error check relies on.
	opBroken := New[int, string, lattice.U64](testConfig(), zero, func(a, b lattice.U64) bool { return false }, cap0)
	require.NoError(opBroken.Apply(cap0, []Upsert[int, string, lattice.U64]{
		{Key: 1, Val: "a", Present: true, Time: lattice.U64(5)},
	}))
	err := opBroken.Apply(cap0, []Upsert[int, string, lattice.U64]{
		{Key: 1, Val: "b", Present: true, Time: lattice.U64(6)},
	})
	require.Error(err)
}
