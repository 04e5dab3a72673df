package chainstate

import (
	"fmt"
	"maps"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
)

// ChainState is a read view of the staking related storage of one block.
type ChainState struct {
	Chain          string                  `validate:"required"`
	BlockNumber    uint64                  `validate:"required"`
	BlockHash      string                  `validate:"required"`
	ActiveEra      optional.Option[uint32] `validate:"-"`
	TotalIssuance  uint64
	ValidatorCount uint32

	// controller -> ledger
	Ledger map[AccountId]StakingLedger `validate:"dive"`
	// stash -> controller
	Bonded     map[AccountId]AccountId         `validate:"dive,required"`
	Payee      map[AccountId]RewardDestination `validate:"dive"`
	Validators map[AccountId]ValidatorPrefs    `validate:"dive"`
	Nominators map[AccountId]Nominations
	// Voter list in iteration order, highest weight first.
	VoterList []AccountId

	ElectionProvider ElectionProvider `validate:"-"`
}

func New(chain string, blockNumber uint64, blockHash string) *ChainState {
	return &ChainState{
		Chain:       chain,
		BlockNumber: blockNumber,
		BlockHash:   blockHash,
		Ledger:      map[AccountId]StakingLedger{},
		Bonded:      map[AccountId]AccountId{},
		Payee:       map[AccountId]RewardDestination{},
		Validators:  map[AccountId]ValidatorPrefs{},
		Nominators:  map[AccountId]Nominations{},
	}
}

var stateValidator = validator.New(validator.WithRequiredStructEnabled())

func (c *ChainState) Validate() error {
	return stateValidator.Struct(c)
}

// Bond records a stash/controller pair with an active ledger of value.
func (c *ChainState) Bond(stash, controller AccountId, value uint64, payee RewardDestination) {
	c.Bonded[stash] = controller
	c.Ledger[controller] = StakingLedger{Stash: stash, Total: value, Active: value}
	c.Payee[stash] = payee
}

func (c *ChainState) SetValidator(stash AccountId, prefs ValidatorPrefs) {
	delete(c.Nominators, stash)
	c.Validators[stash] = prefs
}

func (c *ChainState) SetNominator(stash AccountId, targets []AccountId, submittedIn uint32) {
	delete(c.Validators, stash)
	c.Nominators[stash] = Nominations{Targets: slices.Clone(targets), SubmittedIn: submittedIn}
}

// LedgerOf follows Bonded from stash to the controller keyed ledger.
func (c *ChainState) LedgerOf(stash AccountId) optional.Option[StakingLedger] {
	controller, ok := c.Bonded[stash]
	if !ok {
		return optional.None[StakingLedger]()
	}
	ledger, ok := c.Ledger[controller]
	if !ok {
		return optional.None[StakingLedger]()
	}
	return optional.Some(ledger)
}

// WeightOf is the vote weight of a stash: its active bonded balance.
func (c *ChainState) WeightOf(stash AccountId) uint64 {
	return c.LedgerOf(stash).TakeOr(StakingLedger{}).Active
}

// SortVoterList rebuilds the voter list from the nominators and validators,
// ordered by weight descending, ties by account.
func (c *ChainState) SortVoterList() {
	list := make([]AccountId, 0, len(c.Nominators)+len(c.Validators))
	list = append(list, slices.Collect(maps.Keys(c.Nominators))...)
	list = append(list, slices.Collect(maps.Keys(c.Validators))...)
	slices.SortFunc(list, func(a, b AccountId) int {
		wa, wb := c.WeightOf(a), c.WeightOf(b)
		switch {
		case wa > wb:
			return -1
		case wa < wb:
			return 1
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	c.VoterList = list
}

func (c *ChainState) Counts() Counts {
	return Counts{
		Ledgers: len(c.Ledger),
		Bonded:  len(c.Bonded),
		Payees:  len(c.Payee),
	}
}

// Clone returns a deep copy that can be mutated without touching c.
func (c *ChainState) Clone() *ChainState {
	out := *c
	out.ActiveEra = slices.Clone(c.ActiveEra)
	out.Ledger = make(map[AccountId]StakingLedger, len(c.Ledger))
	for k, v := range c.Ledger {
		out.Ledger[k] = v.clone()
	}
	out.Bonded = maps.Clone(c.Bonded)
	out.Payee = maps.Clone(c.Payee)
	out.Validators = maps.Clone(c.Validators)
	out.Nominators = make(map[AccountId]Nominations, len(c.Nominators))
	for k, v := range c.Nominators {
		v.Targets = slices.Clone(v.Targets)
		out.Nominators[k] = v
	}
	out.VoterList = slices.Clone(c.VoterList)
	if c.ElectionProvider.Snapshot != nil {
		out.ElectionProvider.Snapshot = c.ElectionProvider.Snapshot.Clone()
	}
	out.ElectionProvider.Metadata = slices.Clone(c.ElectionProvider.Metadata)
	out.ElectionProvider.DesiredTargets = slices.Clone(c.ElectionProvider.DesiredTargets)
	return &out
}

func (c *ChainState) String() string {
	return fmt.Sprintf("%s#%d(%s)", c.Chain, c.BlockNumber, c.BlockHash)
}
