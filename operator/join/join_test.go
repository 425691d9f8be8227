package join

import (
	"testing"

	"github.com/flowlake/ddflow/batch"
	"github.com/flowlake/ddflow/dataflow"
	"github.com/flowlake/ddflow/lattice"
	"github.com/flowlake/ddflow/spine"
	"github.com/flowlake/ddflow/trace"
	"github.com/stretchr/testify/require"
)

func lessInt(a, b int) bool       { return a < b }
func lessString(a, b string) bool { return a < b }

func spineCfgInt() spine.Config[int, int, lattice.U64, lattice.Int64Diff] {
	return spine.Config[int, int, lattice.U64, lattice.Int64Diff]{
		LessKey: lessInt, LessVal: lessInt,
		Plus:   func(a, b lattice.Int64Diff) lattice.Int64Diff { return a.PlusEqual(b) },
		IsZero: func(d lattice.Int64Diff) bool { return d.IsZero() },
	}
}

func spineCfgStr() spine.Config[int, string, lattice.U64, lattice.Int64Diff] {
	return spine.Config[int, string, lattice.U64, lattice.Int64Diff]{
		LessKey: lessInt, LessVal: lessString,
		Plus:   func(a, b lattice.Int64Diff) lattice.Int64Diff { return a.PlusEqual(b) },
		IsZero: func(d lattice.Int64Diff) bool { return d.IsZero() },
	}
}

func TestJoinBootstrapCrossesExistingBatchesExactlyOnce(t *testing.T) {
	require := require.New(t)

	zero := lattice.NewAntichain(lattice.U64(0))
	one := lattice.NewAntichain(lattice.U64(1))

	trA := trace.New[int, int, lattice.U64, lattice.Int64Diff](spineCfgInt())
	bA := batch.NewBuilder[int, int, lattice.U64, lattice.Int64Diff](1, 1, 1)
	bA.Push(1, 5, lattice.U64(0), lattice.Int64Diff(1))
	trA.Insert(bA.Finish(batch.NewDescription(zero, one)))
	aAgent := trA.NewAgent(zero)

	trB := trace.New[int, string, lattice.U64, lattice.Int64Diff](spineCfgStr())
	bB := batch.NewBuilder[int, string, lattice.U64, lattice.Int64Diff](1, 1, 1)
	bB.Push(1, "x", lattice.U64(0), lattice.Int64Diff(1))
	trB.Insert(bB.Finish(batch.NewDescription(zero, one)))
	bAgent := trB.NewAgent(zero)

	aInput := dataflow.NewStream[lattice.U64, *batch.Batch[int, int, lattice.U64, lattice.Int64Diff]](one)
	bInput := dataflow.NewStream[lattice.U64, *batch.Batch[int, string, lattice.U64, lattice.Int64Diff]](one)
	out := dataflow.NewStream[lattice.U64, Output[int, int, string, lattice.U64, lattice.Int64Diff]](zero)

	cfg := Config[int, int, string, lattice.U64, lattice.Int64Diff, lattice.Int64Diff, lattice.Int64Diff]{
		LessKey:  lessInt,
		LessVal1: lessInt,
		LessVal2: lessString,
		Multiply: func(a, b lattice.Int64Diff) lattice.Int64Diff { return a * b },
		Name:     "test-join",
		Fuel:     1000,
	}

	op := New[int, int, string, lattice.U64, lattice.Int64Diff, lattice.Int64Diff, lattice.Int64Diff](
		cfg, aAgent, aInput, zero, bAgent, bInput, zero, out,
	)

	results := op.Step()
	require.Len(results, 1)
	require.Equal(1, results[0].Key)
	require.Equal(5, results[0].V1)
	require.Equal("x", results[0].V2)
	require.Equal(lattice.Int64Diff(1), results[0].Diff)

	// A second Step with nothing new must not reproduce the pair.
	more := op.Step()
	require.Empty(more)
}

func TestJoinNewBatchCrossesAgainstExistingTrace(t *testing.T) {
	require := require.New(t)

	zero := lattice.NewAntichain(lattice.U64(0))
	one := lattice.NewAntichain(lattice.U64(1))
	two := lattice.NewAntichain(lattice.U64(2))

	trA := trace.New[int, int, lattice.U64, lattice.Int64Diff](spineCfgInt())
	aAgent := trA.NewAgent(zero)

	trB := trace.New[int, string, lattice.U64, lattice.Int64Diff](spineCfgStr())
	bB := batch.NewBuilder[int, string, lattice.U64, lattice.Int64Diff](1, 1, 1)
	bB.Push(7, "y", lattice.U64(0), lattice.Int64Diff(1))
	trB.Insert(bB.Finish(batch.NewDescription(zero, one)))
	bAgent := trB.NewAgent(zero)

	aInput := dataflow.NewStream[lattice.U64, *batch.Batch[int, int, lattice.U64, lattice.Int64Diff]](zero)
	bInput := dataflow.NewStream[lattice.U64, *batch.Batch[int, string, lattice.U64, lattice.Int64Diff]](one)
	out := dataflow.NewStream[lattice.U64, Output[int, int, string, lattice.U64, lattice.Int64Diff]](zero)

	cfg := Config[int, int, string, lattice.U64, lattice.Int64Diff, lattice.Int64Diff, lattice.Int64Diff]{
		LessKey: lessInt, LessVal1: lessInt, LessVal2: lessString,
		Multiply: func(a, b lattice.Int64Diff) lattice.Int64Diff { return a * b },
		Name:     "test-join-2", Fuel: 1000,
	}
	op := New[int, int, string, lattice.U64, lattice.Int64Diff, lattice.Int64Diff, lattice.Int64Diff](
		cfg, aAgent, aInput, zero, bAgent, bInput, zero, out,
	)

	newA := batch.NewBuilder[int, int, lattice.U64, lattice.Int64Diff](1, 1, 1)
	newA.Push(7, 3, lattice.U64(1), lattice.Int64Diff(1))
	cap := dataflow.NewCapability(lattice.U64(1))
	aInput.Send(cap, []*batch.Batch[int, int, lattice.U64, lattice.Int64Diff]{
		newA.Finish(batch.NewDescription(one, two)),
	})
	aInput.AdvanceFrontier(two)

	results := op.Step()
	require.Len(results, 1)
	require.Equal(3, results[0].V1)
	require.Equal("y", results[0].V2)
}
