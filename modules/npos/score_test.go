package npos_test

import (
	"testing"

	"staking-timetravel/modules/npos"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func support(target int, total uint64) npos.Support[int] {
	return npos.Support[int]{Target: target, Total: *uint256.NewInt(total)}
}

func TestEvaluate(t *testing.T) {
	assert.True(t, npos.Evaluate[int](nil).IsZero())

	s := npos.Evaluate([]npos.Support[int]{support(1, 40), support(2, 10), support(3, 30)})
	assert.Equal(t, score(10, 80, 1600+100+900), s)

	minimal, sum, sq := s.Strings()
	assert.Equal(t, "10", minimal)
	assert.Equal(t, "80", sum)
	assert.Equal(t, "2600", sq)
}

func TestEvaluateSaturates(t *testing.T) {
	limit := npos.MaxU128()
	big := npos.Support[int]{Target: 1, Total: limit}
	s := npos.Evaluate([]npos.Support[int]{big, big})
	assert.Equal(t, limit, s.MinimalStake)
	assert.Equal(t, limit, s.SumStake)
	assert.Equal(t, limit, s.SumStakeSquared)
}

func TestCompare(t *testing.T) {
	base := score(10, 100, 5000)
	assert.Equal(t, 0, base.Compare(base))
	assert.True(t, score(11, 90, 9000).StrictlyBetter(base))
	assert.True(t, score(10, 101, 9000).StrictlyBetter(base))
	assert.True(t, score(10, 100, 4000).StrictlyBetter(base))
	assert.False(t, score(10, 100, 6000).StrictlyBetter(base))
	assert.Equal(t, -1, score(9, 1000, 0).Compare(base))
}

func TestToSupports(t *testing.T) {
	supports := npos.ToSupports([]npos.StakedAssignment[int]{
		{Who: 1, Distribution: []npos.Edge[int]{{Target: 7, Amount: 5}, {Target: 3, Amount: 5}}},
		{Who: 2, Distribution: []npos.Edge[int]{{Target: 7, Amount: 8}}},
	})
	assert.Len(t, supports, 2)
	assert.Equal(t, 3, supports[0].Target)
	assert.Equal(t, uint64(13), supports[1].Total.Uint64())
	assert.Equal(t, []npos.Backing[int]{{Who: 1, Amount: 5}, {Who: 2, Amount: 8}}, supports[1].Voters)

	npos.SortByTotalDesc(supports)
	assert.Equal(t, 7, supports[0].Target)
}
