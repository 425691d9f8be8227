package misc

import (
	"testing"

	"github.com/flowlake/ddflow/batch"
	"github.com/flowlake/ddflow/dataflow"
	"github.com/flowlake/ddflow/lattice"
	"github.com/flowlake/ddflow/operator/reduce"
	"github.com/flowlake/ddflow/spine"
	"github.com/flowlake/ddflow/trace"
	"github.com/stretchr/testify/require"
)

// TestCountTotalReproducesS4 reproduces spec.md §8 S4 exactly: key a
// receives +1@0, +1@0, +1@1, -1@2 (each as its own round, so every
// round's output must retract the prior round's value rather than
// merely adding a new one), and count_total must emit precisely the
// four diffs the spec lists.
func TestCountTotalReproducesS4(t *testing.T) {
	require := require.New(t)

	times := []lattice.U64{0, 0, 1, 2}
	diffs := []lattice.Int64Diff{1, 1, 1, -1}
	wantVal := []int64{1, 2, 3, 2}
	wantRetract := []*int64{nil, int64Ptr(1), int64Ptr(2), int64Ptr(3)}

	zero := lattice.NewAntichain(lattice.U64(0))

	spineCfg := spine.Config[int, int, lattice.U64, lattice.Int64Diff]{
		LessKey: lessInt, LessVal: lessInt,
		Plus:   func(a, b lattice.Int64Diff) lattice.Int64Diff { return a.PlusEqual(b) },
		IsZero: func(d lattice.Int64Diff) bool { return d.IsZero() },
	}
	trIn := trace.New[int, int, lattice.U64, lattice.Int64Diff](spineCfg)
	inAgent := trIn.NewAgent(zero)
	input := dataflow.NewStream[lattice.U64, *batch.Batch[int, int, lattice.U64, lattice.Int64Diff]](zero)

	outSpineCfg := spine.Config[int, int64, lattice.U64, lattice.Int64Diff]{
		LessKey: lessInt,
		LessVal: func(a, b int64) bool { return a < b },
		Plus:    func(a, b lattice.Int64Diff) lattice.Int64Diff { return a.PlusEqual(b) },
		IsZero:  func(d lattice.Int64Diff) bool { return d.IsZero() },
	}
	outTrace := trace.New[int, int64, lattice.U64, lattice.Int64Diff](outSpineCfg)

	cfg := CountTotalConfig[int, int](lessInt, lessInt, 1000, "test-count-total")
	op := reduce.New[int, int, lattice.Int64Diff, lattice.U64, int64, lattice.Int64Diff](cfg, inAgent, input, zero, outTrace)

	upper := zero
	for i, t := range times {
		lower := upper
		upper = lattice.NewAntichain(t + 1)

		b := batch.NewBuilder[int, int, lattice.U64, lattice.Int64Diff](1, 1, 1)
		b.Push(1, 1, t, diffs[i])
		finished := b.Finish(batch.NewDescription(lower, upper))
		trIn.Insert(finished)
		input.Send(dataflow.NewCapability(t), []*batch.Batch[int, int, lattice.U64, lattice.Int64Diff]{finished})
		input.AdvanceFrontier(upper)

		out := op.Step()
		require.NotNil(out, "round %d", i)

		got := map[int64]lattice.Int64Diff{}
		c := out.Cursor()
		require.True(c.KeyValid(), "round %d", i)
		require.Equal(1, c.Key(), "round %d", i)
		for c.ValValid() {
			v := c.Val()
			c.MapTimes(func(_ lattice.U64, d lattice.Int64Diff) {
				got[v] = got[v] + d
			})
			c.StepVal()
		}

		require.Equal(lattice.Int64Diff(1), got[wantVal[i]], "round %d: insert of %d", i, wantVal[i])
		if wantRetract[i] != nil {
			require.Equal(lattice.Int64Diff(-1), got[*wantRetract[i]], "round %d: retract of %d", i, *wantRetract[i])
			require.Len(got, 2, "round %d", i)
		} else {
			require.Len(got, 1, "round %d", i)
		}
	}
}

func int64Ptr(v int64) *int64 { return &v }
