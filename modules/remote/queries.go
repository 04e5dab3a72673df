package remote

import (
	"fmt"
	"strconv"

	"staking-timetravel/lib/utils"
	chainstate "staking-timetravel/modules/chain-state"

	"github.com/moznion/go-optional"
)

// Balances travel as decimal strings since graphql Int is 32 bit.

// Header identifies one block.
type Header struct {
	Number     string `graphql:"number" json:"number"`
	Hash       string `graphql:"hash" json:"hash"`
	ParentHash string `graphql:"parentHash" json:"parentHash"`
}

type headQuery struct {
	Head Header `graphql:"chainHead"`
}

type blockQuery struct {
	Block *Header `graphql:"block(hash: $hash)"`
}

type unlockChunk struct {
	Value string `graphql:"value"`
	Era   uint32 `graphql:"era"`
}

type ledger struct {
	Controller string        `graphql:"controller"`
	Stash      string        `graphql:"stash"`
	Total      string        `graphql:"total"`
	Active     string        `graphql:"active"`
	Unlocking  []unlockChunk `graphql:"unlocking"`
}

type bond struct {
	Stash      string `graphql:"stash"`
	Controller string `graphql:"controller"`
}

type payee struct {
	Stash   string `graphql:"stash"`
	Kind    string `graphql:"kind"`
	Account string `graphql:"account"`
}

type validatorPrefs struct {
	Stash      string `graphql:"stash"`
	Commission uint32 `graphql:"commission"`
	Blocked    bool   `graphql:"blocked"`
}

type nomination struct {
	Stash       string   `graphql:"stash"`
	Targets     []string `graphql:"targets"`
	SubmittedIn uint32   `graphql:"submittedIn"`
	Suppressed  bool     `graphql:"suppressed"`
}

type stakingState struct {
	Chain          string           `graphql:"chain"`
	BlockNumber    string           `graphql:"blockNumber"`
	ActiveEra      *uint32          `graphql:"activeEra"`
	TotalIssuance  string           `graphql:"totalIssuance"`
	ValidatorCount uint32           `graphql:"validatorCount"`
	Ledgers        []ledger         `graphql:"ledgers"`
	Bonded         []bond           `graphql:"bonded"`
	Payees         []payee          `graphql:"payees"`
	Validators     []validatorPrefs `graphql:"validators"`
	Nominators     []nomination     `graphql:"nominators"`
	VoterList      []string         `graphql:"voterList"`
}

type stateQuery struct {
	State *stakingState `graphql:"stakingState(hash: $hash)"`
}

func parseAmount(field, v string) (uint64, error) {
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return n, nil
}

func accounts(s []string) []chainstate.AccountId {
	return utils.Map(s, func(v string) chainstate.AccountId { return chainstate.AccountId(v) })
}

func (s *stakingState) toState(blockHash string) (*chainstate.ChainState, error) {
	number, err := parseAmount("blockNumber", s.BlockNumber)
	if err != nil {
		return nil, err
	}
	state := chainstate.New(s.Chain, number, blockHash)
	if s.ActiveEra != nil {
		state.ActiveEra = optional.Some(*s.ActiveEra)
	}
	if s.TotalIssuance != "" {
		if state.TotalIssuance, err = parseAmount("totalIssuance", s.TotalIssuance); err != nil {
			return nil, err
		}
	}
	state.ValidatorCount = s.ValidatorCount

	for _, l := range s.Ledgers {
		total, err := parseAmount("ledger total", l.Total)
		if err != nil {
			return nil, err
		}
		active, err := parseAmount("ledger active", l.Active)
		if err != nil {
			return nil, err
		}
		sl := chainstate.StakingLedger{Stash: chainstate.AccountId(l.Stash), Total: total, Active: active}
		for _, c := range l.Unlocking {
			value, err := parseAmount("unlocking value", c.Value)
			if err != nil {
				return nil, err
			}
			sl.Unlocking = append(sl.Unlocking, chainstate.UnlockChunk{Value: value, Era: c.Era})
		}
		state.Ledger[chainstate.AccountId(l.Controller)] = sl
	}
	for _, b := range s.Bonded {
		state.Bonded[chainstate.AccountId(b.Stash)] = chainstate.AccountId(b.Controller)
	}
	for _, p := range s.Payees {
		state.Payee[chainstate.AccountId(p.Stash)] = chainstate.RewardDestination{
			Kind:    chainstate.RewardKind(p.Kind),
			Account: chainstate.AccountId(p.Account),
		}
	}
	for _, v := range s.Validators {
		state.Validators[chainstate.AccountId(v.Stash)] = chainstate.ValidatorPrefs{Commission: v.Commission, Blocked: v.Blocked}
	}
	for _, n := range s.Nominators {
		state.Nominators[chainstate.AccountId(n.Stash)] = chainstate.Nominations{
			Targets:     accounts(n.Targets),
			SubmittedIn: n.SubmittedIn,
			Suppressed:  n.Suppressed,
		}
	}
	state.VoterList = accounts(s.VoterList)
	return state, nil
}
