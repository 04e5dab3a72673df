package npos

import (
	"cmp"
	"fmt"

	"staking-timetravel/modules/common"
	"staking-timetravel/modules/common/params"
	"staking-timetravel/modules/snapshot"

	"github.com/holiman/uint256"
)

// PhragMMS elects up to toElect targets, running star balancing after every
// round. Candidates without approval stake are never elected, so fewer
// winners than requested may come back.
func PhragMMS[A cmp.Ordered](toElect int, s *snapshot.Snapshot[A], balancing BalancingConfig) (*Solution[A], error) {
	if s == nil {
		return nil, fmt.Errorf("%w: phragmms: nil snapshot", common.ErrSolverFailure)
	}
	if toElect < 0 {
		return nil, fmt.Errorf("%w: phragmms: negative desired targets", common.ErrSolverFailure)
	}

	candidates, voters := setupInputs(s)
	toElect = min(toElect, len(candidates))
	accuracy := uint256.NewInt(params.PHRAGMMS_SCORE_ACCURACY)

	elected := make([]*candidate, 0, toElect)
	for round := 0; round < toElect; round++ {
		winner := calculateMaxScore(candidates, voters, accuracy)
		if winner == nil {
			break
		}
		applyElected(voters, candidates, winner)
		winner.round = round
		winner.elected = true
		elected = append(elected, winner)

		balance(voters, candidates, balancing)
	}
	normalize(voters, candidates)

	return buildSolution(s, elected, candidates, voters), nil
}

// calculateMaxScore scores every unelected candidate as
// approval / (1 + sum of the elected edge ratios of its voters) and returns
// the best one.
func calculateMaxScore(candidates []*candidate, voters []*voter, accuracy *uint256.Int) *candidate {
	for _, c := range candidates {
		if !c.elected {
			c.scoreDen.Set(accuracy)
		}
	}

	for _, v := range voters {
		var contribution uint256.Int
		for _, e := range v.edges {
			c := candidates[e.cand]
			if !c.elected || c.backed == 0 {
				continue
			}
			var part uint256.Int
			part.MulDivOverflow(accuracy, uint256.NewInt(e.weight), uint256.NewInt(c.backed))
			contribution.Add(&contribution, &part)
		}
		for _, e := range v.edges {
			c := candidates[e.cand]
			if !c.elected {
				c.scoreDen.Add(&c.scoreDen, &contribution)
			}
		}
	}

	var best *candidate
	bestN, bestD := uint256.NewInt(0), uint256.NewInt(1)
	for _, c := range candidates {
		if c.approval == 0 {
			c.score.Clear()
			continue
		}
		c.score.Mul(uint256.NewInt(c.approval), accuracy)
		if c.elected {
			continue
		}
		var lhs, rhs uint256.Int
		lhs.Mul(&c.score, bestD)
		rhs.Mul(bestN, &c.scoreDen)
		if lhs.Gt(&rhs) {
			best = c
			bestN, bestD = &c.score, &c.scoreDen
		}
	}
	return best
}

// applyElected moves stake onto the new winner. Every other edge whose
// target is backed above the winner's score keeps only weight*score/backed.
func applyElected(voters []*voter, candidates []*candidate, winner *candidate) {
	var cutoff uint256.Int
	cutoff.Div(&winner.score, &winner.scoreDen)
	threshold := cutoff.Uint64()
	if !cutoff.IsUint64() {
		threshold = ^uint64(0)
	}

	electedBacked := winner.backed
	for _, v := range voters {
		newIdx := -1
		var used uint64
		for i, e := range v.edges {
			if e.cand == winner.idx {
				newIdx = i
			}
			used = satAdd(used, e.weight)
		}
		if newIdx < 0 {
			continue
		}

		newWeight := satSub(v.budget, used)
		electedBacked = satAdd(electedBacked, newWeight)

		for i := range v.edges {
			e := &v.edges[i]
			if i == newIdx || e.weight == 0 {
				continue
			}
			c := candidates[e.cand]
			if c.backed <= threshold {
				continue
			}
			var keep uint256.Int
			keep.MulDivOverflow(uint256.NewInt(e.weight), uint256.NewInt(threshold), uint256.NewInt(c.backed))
			take := e.weight - keep.Uint64()

			e.weight -= take
			c.backed = satSub(c.backed, take)
			electedBacked = satAdd(electedBacked, take)
			newWeight = satAdd(newWeight, take)
		}
		v.edges[newIdx].weight = newWeight
	}
	winner.backed = electedBacked
}
