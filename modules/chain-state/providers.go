package chainstate

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"staking-timetravel/modules/common"
	"staking-timetravel/modules/common/params"
	"staking-timetravel/modules/snapshot"

	"github.com/moznion/go-optional"
)

var ErrTooManyTargets = errors.New("too many electable targets")

func (c *ChainState) VoterCount() int {
	return len(c.VoterList)
}

// ElectingVoters walks the voter list in iteration order. Nominators with at
// least one target vote for their targets, validators vote for themselves.
// The walk stops after maxLen voters or coefficient*maxLen inspected entries.
func (c *ChainState) ElectingVoters(maxLen optional.Option[int], coefficient int) ([]snapshot.Voter[AccountId], error) {
	if c.Ledger == nil || c.Bonded == nil || c.Nominators == nil || c.Validators == nil {
		return nil, fmt.Errorf("%w: staking storage not loaded for %s", common.ErrDataUnavailable, c)
	}
	if coefficient < 1 {
		coefficient = params.NPOS_MAX_ITERATIONS_COEFFICIENT
	}

	total := c.VoterCount()
	maxAllowed := min(maxLen.TakeOr(total), total)

	voters := make([]snapshot.Voter[AccountId], 0, maxAllowed)
	seen := 0
	for _, who := range c.VoterList {
		if len(voters) >= maxAllowed || seen >= coefficient*maxAllowed {
			break
		}
		seen++

		if nominations, ok := c.Nominators[who]; ok {
			if len(nominations.Targets) > 0 {
				voters = append(voters, snapshot.Voter[AccountId]{
					Id:      who,
					Stake:   c.WeightOf(who),
					Targets: slices.Clone(nominations.Targets),
				})
			}
			continue
		}
		if _, ok := c.Validators[who]; ok {
			voters = append(voters, snapshot.Voter[AccountId]{
				Id:      who,
				Stake:   c.WeightOf(who),
				Targets: []AccountId{who},
			})
		}
	}
	return voters, nil
}

// ElectableTargets returns every validator, ordered by account. More
// validators than maxLen is an error rather than a silent truncation.
func (c *ChainState) ElectableTargets(maxLen optional.Option[int]) ([]AccountId, error) {
	if c.Validators == nil {
		return nil, fmt.Errorf("%w: validators not loaded for %s", common.ErrDataUnavailable, c)
	}
	targets := slices.Sorted(maps.Keys(c.Validators))
	if maxLen.IsSome() && len(targets) > maxLen.Unwrap() {
		return nil, fmt.Errorf("%w: %w: %d > %d", common.ErrDataUnavailable, ErrTooManyTargets, len(targets), maxLen.Unwrap())
	}
	return targets, nil
}

// VoterWeights yields the weight of every voter list entry in iteration
// order.
func (c *ChainState) VoterWeights(yield func(uint64) bool) {
	for _, who := range c.VoterList {
		if !yield(c.WeightOf(who)) {
			return
		}
	}
}
