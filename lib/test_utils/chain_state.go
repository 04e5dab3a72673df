package test_utils

import (
	"fmt"

	chainstate "staking-timetravel/modules/chain-state"
)

var Staked = chainstate.RewardDestination{Kind: chainstate.RewardStaked}

// NominatorFixture describes one nominator of a fixture state.
type NominatorFixture struct {
	Stash   chainstate.AccountId
	Stake   uint64
	Targets []chainstate.AccountId
}

// NewChainState builds a consistent state: every account bonded to a
// controller named "<stash>-ctrl", voter list sorted by weight.
func NewChainState(blockNumber uint64, validators map[chainstate.AccountId]uint64, nominators []NominatorFixture) *chainstate.ChainState {
	state := chainstate.New("westend", blockNumber, fmt.Sprintf("0x%064x", blockNumber))
	for stash, stake := range validators {
		state.Bond(stash, Controller(stash), stake, Staked)
		state.SetValidator(stash, chainstate.ValidatorPrefs{})
	}
	for _, n := range nominators {
		state.Bond(n.Stash, Controller(n.Stash), n.Stake, Staked)
		state.SetNominator(n.Stash, n.Targets, 0)
	}
	state.ValidatorCount = uint32(len(validators))
	state.SortVoterList()
	return state
}

func Controller(stash chainstate.AccountId) chainstate.AccountId {
	return stash + "-ctrl"
}

// SmallNetwork is a three validator, four nominator state at block n.
func SmallNetwork(n uint64) *chainstate.ChainState {
	return NewChainState(n,
		map[chainstate.AccountId]uint64{"val-a": 100, "val-b": 80, "val-c": 60},
		[]NominatorFixture{
			{Stash: "nom-1", Stake: 500, Targets: []chainstate.AccountId{"val-a", "val-b"}},
			{Stash: "nom-2", Stake: 300, Targets: []chainstate.AccountId{"val-b", "val-c"}},
			{Stash: "nom-3", Stake: 200, Targets: []chainstate.AccountId{"val-c"}},
			{Stash: "nom-4", Stake: 0, Targets: []chainstate.AccountId{"val-a"}},
		},
	)
}
