package iterate

import (
	"testing"

	"github.com/flowlake/ddflow/dataflow"
	"github.com/flowlake/ddflow/lattice"
	"github.com/stretchr/testify/require"
)

func TestEnterLeaveRoundTrip(t *testing.T) {
	require := require.New(t)

	outerZero := lattice.NewAntichain(lattice.U64(0))
	outerIn := dataflow.NewStream[lattice.U64, int](outerZero)
	inner := dataflow.NewStream[lattice.Product[lattice.U64, lattice.U64], int](lattice.NewAntichain(lattice.Enter[lattice.U64, lattice.U64](lattice.U64(0), lattice.U64(0))))
	outerOut := dataflow.NewStream[lattice.U64, int](outerZero)

	cap0 := dataflow.NewCapability(lattice.U64(3))
	outerIn.Send(cap0, []int{1, 2, 3})
	outerIn.AdvanceFrontier(lattice.NewAntichain(lattice.U64(4)))

	Enter[lattice.U64, lattice.U64, int](outerIn, inner, lattice.U64(0))

	msgs := inner.Drain()
	require.Len(msgs, 1)
	require.Equal([]int{1, 2, 3}, msgs[0].Data)
	require.Equal(lattice.U64(3), msgs[0].Cap.Time().Outer)
	require.Equal(lattice.U64(0), msgs[0].Cap.Time().Inner)

	inner.Send(msgs[0].Cap, msgs[0].Data)
	Leave[lattice.U64, lattice.U64, int](inner, outerOut)

	out := outerOut.Drain()
	require.Len(out, 1)
	require.Equal([]int{1, 2, 3}, out[0].Data)
	require.Equal(lattice.U64(3), out[0].Cap.Time())
}
