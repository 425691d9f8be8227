package trace

import (
	"testing"

	"github.com/flowlake/ddflow/batch"
	"github.com/flowlake/ddflow/lattice"
	"github.com/flowlake/ddflow/spine"
	"github.com/stretchr/testify/require"
)

func lessInt(a, b int) bool { return a < b }

func testCfg() spine.Config[int, int, lattice.U64, lattice.Int64Diff] {
	return spine.Config[int, int, lattice.U64, lattice.Int64Diff]{
		LessKey: lessInt,
		LessVal: lessInt,
		Plus:    func(a, b lattice.Int64Diff) lattice.Int64Diff { return a.PlusEqual(b) },
		IsZero:  func(d lattice.Int64Diff) bool { return d.IsZero() },
	}
}

func TestAgentFrontierMeet(t *testing.T) {
	require := require.New(t)
	tr := New[int, int, lattice.U64, lattice.Int64Diff](testCfg())

	slow := tr.NewAgent(lattice.NewAntichain(lattice.U64(0)))
	fast := tr.NewAgent(lattice.NewAntichain(lattice.U64(0)))

	fast.SetLogicalCompaction(lattice.NewAntichain(lattice.U64(100)))
	// slow agent still at 0: effective frontier must stay at 0.
	require.True(tr.spine != nil)

	slow.SetLogicalCompaction(lattice.NewAntichain(lattice.U64(100)))
	slow.Drop()
	fast.Drop()
}

func TestStoreUpsertLookup(t *testing.T) {
	require := require.New(t)
	s := NewStore[string, int](func(a, b string) bool { return a < b })

	_, found := s.Get("a")
	require.False(found)

	s.Set("a", 1)
	v, found := s.Get("a")
	require.True(found)
	require.Equal(1, v)

	s.Delete("a")
	_, found = s.Get("a")
	require.False(found)
}

func TestTraceInsertIsReadableThroughAgent(t *testing.T) {
	require := require.New(t)
	tr := New[int, int, lattice.U64, lattice.Int64Diff](testCfg())
	agent := tr.NewAgent(lattice.NewAntichain(lattice.U64(0)))

	b := batch.NewBuilder[int, int, lattice.U64, lattice.Int64Diff](1, 1, 1)
	b.Push(1, 0, lattice.U64(0), lattice.Int64Diff(1))
	tr.Insert(b.Finish(batch.NewDescription(lattice.NewAntichain(lattice.U64(0)), lattice.NewAntichain(lattice.U64(1)))))

	batches := agent.Batches()
	require.Len(batches, 1)
	require.Equal(1, batches[0].Len())
}
