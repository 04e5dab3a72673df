package dpos_test

import (
	"math"
	"testing"

	"staking-timetravel/lib/logger"
	"staking-timetravel/modules/dpos"
	"staking-timetravel/modules/npos"
	"staking-timetravel/modules/snapshot"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleVoters() []snapshot.Voter[int] {
	return []snapshot.Voter[int]{
		{Id: 1, Stake: 20, Targets: []int{1, 2}},
		{Id: 2, Stake: 10, Targets: []int{3}},
		{Id: 3, Stake: 10, Targets: []int{1, 3}},
		{Id: 4, Stake: 10, Targets: []int{4, 3}},
		{Id: 5, Stake: 10, Targets: []int{1, 3}},
	}
}

func score(minimal, sum, sq uint64) npos.ElectionScore {
	return npos.ElectionScore{
		MinimalStake:    *uint256.NewInt(minimal),
		SumStake:        *uint256.NewInt(sum),
		SumStakeSquared: *uint256.NewInt(sq),
	}
}

func TestSortedTargets(t *testing.T) {
	sorted := dpos.NewSortedTargets(exampleVoters())
	assert.Equal(t, []int{4, 2, 1, 3}, sorted.Targets())
	assert.Equal(t, []dpos.TargetStake[int]{
		{Target: 4, Stake: 10},
		{Target: 2, Stake: 20},
		{Target: 1, Stake: 40},
		{Target: 3, Stake: 40},
	}, sorted.Stakes())
	assert.Equal(t, []int{1, 3}, sorted.Order([]int{3, 1, 3}))
	assert.Equal(t, []int{2, 9}, sorted.Order([]int{9, 2}))
}

func TestSortedTargetsSaturates(t *testing.T) {
	sorted := dpos.NewSortedTargets([]snapshot.Voter[int]{
		{Id: 1, Stake: math.MaxUint64, Targets: []int{1}},
		{Id: 2, Stake: 5, Targets: []int{1}},
		{Id: 3, Stake: 7, Targets: []int{2}},
	})
	assert.Equal(t, []int{2, 1}, sorted.Targets())
	assert.Equal(t, uint64(math.MaxUint64), sorted.Stakes()[1].Stake)
}

func TestProRataDistribution(t *testing.T) {
	order := dpos.NewSortedTargets(exampleVoters()).Targets()
	shares := dpos.ShareDistribution(order, 100, dpos.ProRata)
	assert.Equal(t, []dpos.Share[int]{
		{Target: 4, Amount: 25},
		{Target: 2, Amount: 25},
		{Target: 1, Amount: 25},
		{Target: 3, Amount: 25},
	}, shares)
}

func TestParetoDistribution(t *testing.T) {
	order := dpos.NewSortedTargets(exampleVoters()).Targets()
	shares := dpos.ShareDistribution(order, 100, dpos.Pareto)
	assert.Equal(t, []dpos.Share[int]{
		{Target: 4, Amount: 6},
		{Target: 2, Amount: 6},
		{Target: 1, Amount: 6},
		{Target: 3, Amount: 80},
	}, shares)
}

func TestDistributionEdgeCases(t *testing.T) {
	assert.Empty(t, dpos.ShareDistribution([]int{}, 100, dpos.Pareto))
	assert.Empty(t, dpos.ShareDistribution([]int{}, 100, dpos.ProRata))

	// a single target leaves the bottom partition empty
	assert.Equal(t, []dpos.Share[int]{{Target: 7, Amount: 80}}, dpos.ShareDistribution([]int{7}, 100, dpos.Pareto))

	// the top share is floor(4w/5) even when w is not a multiple of 5
	shares := dpos.ShareDistribution([]int{1, 2, 3, 4, 5}, 19, dpos.Pareto)
	assert.Equal(t, uint64(0), shares[0].Amount)
	assert.Equal(t, uint64(15), shares[4].Amount)
}

func TestParsePolicy(t *testing.T) {
	p, err := dpos.ParsePolicy("Pareto")
	require.NoError(t, err)
	assert.Equal(t, dpos.Pareto, p)

	p, err = dpos.ParsePolicy("pro-rata")
	require.NoError(t, err)
	assert.Equal(t, dpos.ProRata, p)

	_, err = dpos.ParsePolicy("quadratic")
	assert.ErrorIs(t, err, dpos.ErrUnknownPolicy)
}

func TestMineProRata(t *testing.T) {
	s := snapshot.New(exampleVoters(), []int{1, 2, 3, 4})
	got, supports, err := dpos.Mine(s, 2, dpos.ProRata, logger.Discard())
	require.NoError(t, err)

	require.Len(t, supports, 2)
	assert.Equal(t, 3, supports[0].Target)
	assert.Equal(t, 1, supports[1].Target)
	assert.Equal(t, score(20, 45, 625+400), got)
}

func TestMinePareto(t *testing.T) {
	s := snapshot.New(exampleVoters(), []int{1, 2, 3, 4})
	got, supports, err := dpos.Mine(s, 3, dpos.Pareto, logger.Discard())
	require.NoError(t, err)

	assert.Equal(t, []int{3, 1, 2}, []int{supports[0].Target, supports[1].Target, supports[2].Target})
	assert.Equal(t, score(4, 56, 1024+400+16), got)
}

func TestMineSkipsBadVoters(t *testing.T) {
	s := snapshot.New([]snapshot.Voter[int]{
		{Id: 1, Stake: 0, Targets: []int{1}},
		{Id: 2, Stake: 10, Targets: nil},
		{Id: 3, Stake: 10, Targets: []int{2}},
	}, []int{1, 2})
	got, supports, err := dpos.Mine(s, 5, dpos.ProRata, logger.Discard())
	require.NoError(t, err)
	assert.Len(t, supports, 1)
	assert.Equal(t, score(10, 10, 100), got)
}

func TestMineWinnersBoundedByDesired(t *testing.T) {
	s := snapshot.New(exampleVoters(), []int{1, 2, 3, 4})
	for desired := uint32(0); desired < 6; desired++ {
		_, supports, err := dpos.Mine(s, desired, dpos.ProRata, logger.Discard())
		require.NoError(t, err)
		assert.LessOrEqual(t, len(supports), int(desired))
	}
}

func TestMineIgnoresUnelectableTargets(t *testing.T) {
	s := snapshot.New([]snapshot.Voter[int]{
		{Id: 1, Stake: 10, Targets: []int{1, 9}},
		{Id: 2, Stake: 10, Targets: []int{2}},
		{Id: 3, Stake: 10, Targets: []int{9}},
	}, []int{1, 2})
	got, supports, err := dpos.Mine(s, 5, dpos.ProRata, logger.Discard())
	require.NoError(t, err)

	require.Len(t, supports, 2)
	for _, support := range supports {
		assert.NotEqual(t, 9, support.Target)
	}
	assert.Equal(t, score(10, 20, 200), got)
}
