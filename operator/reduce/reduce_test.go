package reduce

import (
	"testing"

	"github.com/flowlake/ddflow/batch"
	"github.com/flowlake/ddflow/dataflow"
	"github.com/flowlake/ddflow/lattice"
	"github.com/flowlake/ddflow/spine"
	"github.com/flowlake/ddflow/trace"
	"github.com/stretchr/testify/require"
)

func lessInt(a, b int) bool { return a < b }

// sumReduce is a L that collapses a key's value multiset into a single
// sum value carried with diff 1.
func sumReduce(k int, input []ValDiff[int, lattice.Int64Diff]) []ValDiff[int, lattice.Int64Diff] {
	var sum int64
	for _, vd := range input {
		sum += int64(vd.Val) * int64(vd.Diff)
	}
	return []ValDiff[int, lattice.Int64Diff]{{Val: int(sum), Diff: 1}}
}

func testSpineCfg() spine.Config[int, int, lattice.U64, lattice.Int64Diff] {
	return spine.Config[int, int, lattice.U64, lattice.Int64Diff]{
		LessKey: lessInt, LessVal: lessInt,
		Plus:   func(a, b lattice.Int64Diff) lattice.Int64Diff { return a.PlusEqual(b) },
		IsZero: func(d lattice.Int64Diff) bool { return d.IsZero() },
	}
}

func testConfig() Config[int, int, lattice.Int64Diff, int, lattice.Int64Diff] {
	return Config[int, int, lattice.Int64Diff, int, lattice.Int64Diff]{
		LessKey: lessInt, LessVal: lessInt, LessValOut: lessInt,
		PlusR:      func(a, b lattice.Int64Diff) lattice.Int64Diff { return a.PlusEqual(b) },
		IsZeroR:    func(d lattice.Int64Diff) bool { return d.IsZero() },
		PlusROut:   func(a, b lattice.Int64Diff) lattice.Int64Diff { return a.PlusEqual(b) },
		IsZeroROut: func(d lattice.Int64Diff) bool { return d.IsZero() },
		NegateROut: func(d lattice.Int64Diff) lattice.Int64Diff { return d.Negate() },
		L:          sumReduce,
		Name:       "test-reduce",
		Fuel:       1000,
	}
}

func TestReduceEmitsSumOnFirstBatch(t *testing.T) {
	require := require.New(t)

	zero := lattice.NewAntichain(lattice.U64(0))
	one := lattice.NewAntichain(lattice.U64(1))

	trIn := trace.New[int, int, lattice.U64, lattice.Int64Diff](testSpineCfg())
	inAgent := trIn.NewAgent(zero)
	input := dataflow.NewStream[lattice.U64, *batch.Batch[int, int, lattice.U64, lattice.Int64Diff]](one)

	outTrace := trace.New[int, int, lattice.U64, lattice.Int64Diff](testSpineCfg())

	op := New[int, int, lattice.Int64Diff, lattice.U64, int, lattice.Int64Diff](testConfig(), inAgent, input, zero, outTrace)

	b := batch.NewBuilder[int, int, lattice.U64, lattice.Int64Diff](1, 2, 2)
	b.Push(1, 3, lattice.U64(0), lattice.Int64Diff(1))
	b.Push(1, 4, lattice.U64(0), lattice.Int64Diff(1))
	finished := b.Finish(batch.NewDescription(zero, one))
	trIn.Insert(finished)

	cap0 := dataflow.NewCapability(lattice.U64(0))
	input.Send(cap0, []*batch.Batch[int, int, lattice.U64, lattice.Int64Diff]{finished})

	out := op.Step()
	require.NotNil(out)
	require.Equal(1, out.Len())

	c := out.Cursor()
	require.True(c.KeyValid())
	require.Equal(1, c.Key())
	require.True(c.ValValid())
	require.Equal(7, c.Val())
}

func TestReduceSecondBatchEmitsOnlyDelta(t *testing.T) {
	require := require.New(t)

	zero := lattice.NewAntichain(lattice.U64(0))
	one := lattice.NewAntichain(lattice.U64(1))
	two := lattice.NewAntichain(lattice.U64(2))

	trIn := trace.New[int, int, lattice.U64, lattice.Int64Diff](testSpineCfg())
	inAgent := trIn.NewAgent(zero)
	input := dataflow.NewStream[lattice.U64, *batch.Batch[int, int, lattice.U64, lattice.Int64Diff]](one)
	outTrace := trace.New[int, int, lattice.U64, lattice.Int64Diff](testSpineCfg())

	op := New[int, int, lattice.Int64Diff, lattice.U64, int, lattice.Int64Diff](testConfig(), inAgent, input, zero, outTrace)

	b1 := batch.NewBuilder[int, int, lattice.U64, lattice.Int64Diff](1, 1, 1)
	b1.Push(1, 3, lattice.U64(0), lattice.Int64Diff(1))
	f1 := b1.Finish(batch.NewDescription(zero, one))
	trIn.Insert(f1)
	cap0 := dataflow.NewCapability(lattice.U64(0))
	input.Send(cap0, []*batch.Batch[int, int, lattice.U64, lattice.Int64Diff]{f1})
	op.Step()

	b2 := batch.NewBuilder[int, int, lattice.U64, lattice.Int64Diff](1, 1, 1)
	b2.Push(1, 5, lattice.U64(1), lattice.Int64Diff(1))
	f2 := b2.Finish(batch.NewDescription(one, two))
	trIn.Insert(f2)
	cap1 := dataflow.NewCapability(lattice.U64(1))
	input.Send(cap1, []*batch.Batch[int, int, lattice.U64, lattice.Int64Diff]{f2})
	input.AdvanceFrontier(two)

	out := op.Step()
	require.NotNil(out)

	c := out.Cursor()
	require.True(c.KeyValid())
	require.Equal(1, c.Key())

	// The sum moved from 3 to 8: the old value must be retracted, not
	// just left off, since a reduce output is itself a differential
	// collection (spec S4's retract-then-reinsert shape).
	got := map[int]lattice.Int64Diff{}
	for c.ValValid() {
		v := c.Val()
		c.MapTimes(func(_ lattice.U64, d lattice.Int64Diff) {
			got[v] = got[v] + d
		})
		c.StepVal()
	}
	require.Equal(lattice.Int64Diff(1), got[8])
	require.Equal(lattice.Int64Diff(-1), got[3])
}
