package npos

import (
	"cmp"
	"fmt"

	"staking-timetravel/modules/common"
	"staking-timetravel/modules/common/params"
	"staking-timetravel/modules/snapshot"

	"github.com/holiman/uint256"
)

var loadDenominator = func() uint256.Int {
	var d uint256.Int
	d.Lsh(uint256.NewInt(1), params.LOAD_DENOMINATOR_BITS)
	return d
}()

// SeqPhragmen elects up to toElect targets with sequential Phragmen. Loads
// are fixed point numerators over 2^128. Ties go to the target listed
// first in the snapshot.
func SeqPhragmen[A cmp.Ordered](toElect int, s *snapshot.Snapshot[A], balancing BalancingConfig) (*Solution[A], error) {
	if s == nil {
		return nil, fmt.Errorf("%w: seq-phragmen: nil snapshot", common.ErrSolverFailure)
	}
	if toElect < 0 {
		return nil, fmt.Errorf("%w: seq-phragmen: negative desired targets", common.ErrSolverFailure)
	}

	candidates, voters := setupInputs(s)
	toElect = min(toElect, len(candidates))

	elected := make([]*candidate, 0, toElect)
	for round := 0; round < toElect; round++ {
		for _, c := range candidates {
			if c.elected {
				continue
			}
			if c.approval == 0 {
				c.score.SetAllOne()
			} else {
				c.score.Div(&loadDenominator, uint256.NewInt(c.approval))
			}
		}

		for _, v := range voters {
			for _, e := range v.edges {
				c := candidates[e.cand]
				if c.elected || c.approval == 0 {
					continue
				}
				var temp uint256.Int
				if _, overflow := temp.MulDivOverflow(&v.load, uint256.NewInt(v.budget), uint256.NewInt(c.approval)); overflow {
					c.score.SetAllOne()
					continue
				}
				if _, overflow := c.score.AddOverflow(&c.score, &temp); overflow {
					c.score.SetAllOne()
				}
			}
		}

		var winner *candidate
		for _, c := range candidates {
			if c.elected {
				continue
			}
			if winner == nil || c.score.Lt(&winner.score) {
				winner = c
			}
		}
		if winner == nil {
			break
		}
		winner.elected = true
		winner.round = round
		elected = append(elected, winner)

		for _, v := range voters {
			for i := range v.edges {
				e := &v.edges[i]
				if e.cand != winner.idx {
					continue
				}
				if winner.score.Gt(&v.load) {
					e.load.Sub(&winner.score, &v.load)
				} else {
					e.load.Clear()
				}
				v.load.Set(&winner.score)
			}
		}
	}

	for _, v := range voters {
		for i := range v.edges {
			e := &v.edges[i]
			c := candidates[e.cand]
			e.weight = 0
			if !c.elected || v.load.IsZero() {
				continue
			}
			var w uint256.Int
			if _, overflow := w.MulDivOverflow(uint256.NewInt(v.budget), &e.load, &v.load); overflow || !w.IsUint64() {
				e.weight = v.budget
			} else {
				e.weight = min(w.Uint64(), v.budget)
			}
			c.backed = satAdd(c.backed, e.weight)
		}
	}
	normalize(voters, candidates)

	balance(voters, candidates, balancing)
	normalize(voters, candidates)

	return buildSolution(s, elected, candidates, voters), nil
}
