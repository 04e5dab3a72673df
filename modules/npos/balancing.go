package npos

import (
	"slices"
)

// balance runs star balancing over every voter until the largest
// improvement is within tolerance or the iteration budget runs out. It
// returns the number of iterations executed.
func balance(voters []*voter, candidates []*candidate, config BalancingConfig) int {
	if config.Iterations <= 0 {
		return 0
	}

	iter := 0
	for {
		var maxDiff uint64
		for _, v := range voters {
			if diff := balanceVoter(v, candidates, config.Tolerance); diff > maxDiff {
				maxDiff = diff
			}
		}
		iter++
		if maxDiff <= config.Tolerance || iter >= config.Iterations {
			return iter
		}
	}
}

func balanceVoter(v *voter, candidates []*candidate, tolerance uint64) uint64 {
	elected := make([]*edge, 0, len(v.edges))
	for i := range v.edges {
		if candidates[v.edges[i].cand].elected {
			elected = append(elected, &v.edges[i])
		}
	}
	// Either nothing or a single edge, which cannot move.
	if len(elected) <= 1 {
		return 0
	}

	var stakeUsed uint64
	minBacked := candidates[elected[0].cand].backed
	var maxBacking uint64
	backing := false
	for _, e := range elected {
		stakeUsed = satAdd(stakeUsed, e.weight)
		b := candidates[e.cand].backed
		minBacked = min(minBacked, b)
		if e.weight > 0 {
			backing = true
			maxBacking = max(maxBacking, b)
		}
	}

	var difference uint64
	if backing {
		difference = satAdd(satSub(maxBacking, minBacked), satSub(v.budget, stakeUsed))
		if difference < tolerance {
			return difference
		}
	} else {
		difference = v.budget
	}

	for _, e := range elected {
		c := candidates[e.cand]
		c.backed = satSub(c.backed, e.weight)
		e.weight = 0
	}

	slices.SortStableFunc(elected, func(a, b *edge) int {
		ba, bb := candidates[a.cand].backed, candidates[b.cand].backed
		switch {
		case ba < bb:
			return -1
		case ba > bb:
			return 1
		}
		return 0
	})

	var cumulative uint64
	lastIndex := len(elected) - 1
	for i, e := range elected {
		backed := candidates[e.cand].backed
		if satSub(satMul(backed, uint64(i)), cumulative) > v.budget {
			lastIndex = i - 1
			break
		}
		cumulative = satAdd(cumulative, backed)
	}

	lastStake := candidates[elected[lastIndex].cand].backed
	ways := uint64(lastIndex + 1)
	excess := satSub(satAdd(v.budget, cumulative), satMul(lastStake, ways))

	for _, e := range elected[:ways] {
		c := candidates[e.cand]
		target := excess/ways + lastStake
		if target < lastStake || target < c.backed {
			e.weight = 0
		} else {
			e.weight = target - c.backed
		}
		c.backed = satAdd(c.backed, e.weight)
	}
	return difference
}
