package npos_test

import (
	"testing"

	"staking-timetravel/modules/common"
	"staking-timetravel/modules/npos"
	"staking-timetravel/modules/snapshot"

	gocmp "github.com/google/go-cmp/cmp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Three candidates, three voters each backing two of them.
func triangle() *snapshot.Snapshot[int] {
	return snapshot.New(
		[]snapshot.Voter[int]{
			{Id: 10, Stake: 10, Targets: []int{1, 2}},
			{Id: 20, Stake: 20, Targets: []int{1, 3}},
			{Id: 30, Stake: 30, Targets: []int{2, 3}},
		},
		[]int{1, 2, 3},
	)
}

func score(minimal, sum, sq uint64) npos.ElectionScore {
	return npos.ElectionScore{
		MinimalStake:    *uint256.NewInt(minimal),
		SumStake:        *uint256.NewInt(sum),
		SumStakeSquared: *uint256.NewInt(sq),
	}
}

func TestSeqPhragmenUnbalanced(t *testing.T) {
	solution, err := npos.SeqPhragmen(2, triangle(), npos.DefaultBalancing(0))
	require.NoError(t, err)

	assert.Equal(t, []npos.Winner[int]{{Who: 3, Backed: 35}, {Who: 2, Backed: 25}}, solution.Winners)
	expected := []npos.StakedAssignment[int]{
		{Who: 10, Distribution: []npos.Edge[int]{{Target: 2, Amount: 10}}},
		{Who: 20, Distribution: []npos.Edge[int]{{Target: 3, Amount: 20}}},
		{Who: 30, Distribution: []npos.Edge[int]{{Target: 2, Amount: 15}, {Target: 3, Amount: 15}}},
	}
	if diff := gocmp.Diff(expected, solution.Assignments); diff != "" {
		t.Errorf("assignments mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, score(25, 60, 1850), solution.Score)
}

func TestSeqPhragmenBalanced(t *testing.T) {
	solution, err := npos.SeqPhragmen(2, triangle(), npos.DefaultBalancing(10))
	require.NoError(t, err)

	assert.ElementsMatch(t, []int{2, 3}, solution.WinnerIds())
	assert.Equal(t, score(30, 60, 1800), solution.Score)
	assert.Equal(t,
		npos.StakedAssignment[int]{Who: 30, Distribution: []npos.Edge[int]{{Target: 2, Amount: 20}, {Target: 3, Amount: 10}}},
		solution.Assignments[2],
	)
}

func TestPhragMMS(t *testing.T) {
	unbalanced, err := npos.PhragMMS(2, triangle(), npos.DefaultBalancing(0))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, unbalanced.WinnerIds())
	assert.Equal(t, score(25, 60, 1850), unbalanced.Score)

	balanced, err := npos.PhragMMS(2, triangle(), npos.DefaultBalancing(10))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, balanced.WinnerIds())
	assert.Equal(t, score(30, 60, 1800), balanced.Score)
}

func TestPhragMMSSkipsUnbackedTargets(t *testing.T) {
	s := snapshot.New(
		[]snapshot.Voter[int]{{Id: 1, Stake: 10, Targets: []int{1}}},
		[]int{1, 2, 3},
	)
	solution, err := npos.PhragMMS(3, s, npos.DefaultBalancing(10))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, solution.WinnerIds())
	assert.Equal(t, score(10, 10, 100), solution.Score)
}

func TestSolversAreDeterministic(t *testing.T) {
	for _, solver := range []npos.Solver{npos.SeqPhragmenSolver{Iterations: 10}, npos.PhragMMSSolver{Iterations: 10}} {
		first, err := npos.Mine(solver, 2, triangle(), true)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := npos.Mine(solver, 2, triangle(), true)
			require.NoError(t, err)
			assert.Equal(t, first.Score, again.Score, solver.String())
			assert.Equal(t, first.Assignments, again.Assignments, solver.String())
		}
	}
}

func TestBalancingNeverLowersMinimalStake(t *testing.T) {
	baseline, err := npos.SeqPhragmen(2, triangle(), npos.DefaultBalancing(0))
	require.NoError(t, err)
	for _, iterations := range []int{1, 2, 10, 100} {
		balanced, err := npos.SeqPhragmen(2, triangle(), npos.DefaultBalancing(iterations))
		require.NoError(t, err)
		assert.False(t, balanced.Score.MinimalStake.Lt(&baseline.Score.MinimalStake), "iterations %d", iterations)
	}
}

func TestDesiredAboveTargetsIsCapped(t *testing.T) {
	solution, err := npos.SeqPhragmen(10, triangle(), npos.DefaultBalancing(0))
	require.NoError(t, err)
	assert.Len(t, solution.Winners, 3)
}

func TestFeasibilityCheck(t *testing.T) {
	s := triangle()
	solution, err := npos.Mine(npos.SeqPhragmenSolver{Iterations: 10}, 2, s, true)
	require.NoError(t, err)
	require.NoError(t, npos.FeasibilityCheck(solution, s, 2))

	t.Run("too many winners", func(t *testing.T) {
		assert.ErrorIs(t, npos.FeasibilityCheck(solution, s, 1), common.ErrSolverFailure)
	})

	t.Run("tampered score", func(t *testing.T) {
		tampered := *solution
		tampered.Score = score(31, 60, 1800)
		assert.ErrorIs(t, npos.FeasibilityCheck(&tampered, s, 2), common.ErrSolverFailure)
	})

	t.Run("unknown winner", func(t *testing.T) {
		tampered := *solution
		tampered.Winners = []npos.Winner[int]{{Who: 2}, {Who: 9}}
		assert.ErrorIs(t, npos.FeasibilityCheck(&tampered, s, 2), common.ErrSolverFailure)
	})

	t.Run("over stake", func(t *testing.T) {
		tampered := *solution
		tampered.Assignments = []npos.StakedAssignment[int]{
			{Who: 10, Distribution: []npos.Edge[int]{{Target: 2, Amount: 11}}},
		}
		tampered.Score = npos.Evaluate(npos.ToSupports(tampered.Assignments))
		assert.ErrorIs(t, npos.FeasibilityCheck(&tampered, s, 2), common.ErrSolverFailure)
	})

	t.Run("edge to non nominated target", func(t *testing.T) {
		tampered := *solution
		tampered.Assignments = []npos.StakedAssignment[int]{
			{Who: 20, Distribution: []npos.Edge[int]{{Target: 2, Amount: 5}}},
		}
		tampered.Score = npos.Evaluate(npos.ToSupports(tampered.Assignments))
		assert.ErrorIs(t, npos.FeasibilityCheck(&tampered, s, 2), common.ErrSolverFailure)
	})
}

func TestParseSolver(t *testing.T) {
	solver := npos.ParseSolver("PhragMMS", 5)
	require.True(t, solver.IsOk())
	assert.Equal(t, npos.AlgorithmPhragMMS, solver.Unwrap().Algorithm())
	assert.Equal(t, 5, solver.Unwrap().Balancing().Iterations)

	solver = npos.ParseSolver("seq-phragmen", 10)
	require.True(t, solver.IsOk())
	assert.Equal(t, npos.SeqPhragmenSolver{Iterations: 10}, solver.Unwrap())

	assert.True(t, npos.ParseSolver("borda", 1).IsErr())
	assert.True(t, npos.ParseSolver("phragmms", -1).IsErr())
}
