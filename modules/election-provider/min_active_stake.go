package electionprovider

import (
	"iter"

	chainstate "staking-timetravel/modules/chain-state"
	"staking-timetravel/modules/common/params"

	"github.com/moznion/go-optional"
)

// ScanMinActiveStake returns the smallest non zero weight among the first
// accepted voters of weights. At most min(maxLen, total) voters are accepted
// and at most coefficient times that many entries are inspected. None means
// no active voter was found.
func ScanMinActiveStake(weights iter.Seq[uint64], maxLen optional.Option[int], total int, coefficient int) optional.Option[uint64] {
	if coefficient < 1 {
		coefficient = params.NPOS_MAX_ITERATIONS_COEFFICIENT
	}
	maxAllowed := min(maxLen.TakeOr(total), total)

	var (
		minimum  uint64
		found    bool
		accepted int
		seen     int
	)
	for w := range weights {
		if accepted >= maxAllowed || seen >= coefficient*maxAllowed {
			break
		}
		seen++
		if w == 0 {
			continue
		}
		if !found || w < minimum {
			minimum = w
			found = true
		}
		accepted++
	}

	if !found {
		return optional.None[uint64]()
	}
	return optional.Some(minimum)
}

// MinActiveStake scans the voter list of state in iteration order.
func (p *Provider) MinActiveStake(state *chainstate.ChainState) optional.Option[uint64] {
	res := ScanMinActiveStake(state.VoterWeights, p.maxElectingVoters(), state.VoterCount(), p.coefficient)
	if res.IsNone() {
		p.log.Warn("no active voter found", "block", state.BlockNumber, "voters", state.VoterCount())
	}
	return res
}
