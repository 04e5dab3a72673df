package chainstate

import (
	"slices"

	"staking-timetravel/modules/snapshot"

	"github.com/moznion/go-optional"
)

// AccountId is an SS58 encoded account.
type AccountId string

type UnlockChunk struct {
	Value uint64 `json:"value"`
	Era   uint32 `json:"era"`
}

type StakingLedger struct {
	Stash     AccountId     `json:"stash" validate:"required"`
	Total     uint64        `json:"total"`
	Active    uint64        `json:"active" validate:"ltefield=Total"`
	Unlocking []UnlockChunk `json:"unlocking"`
}

func (l StakingLedger) clone() StakingLedger {
	l.Unlocking = slices.Clone(l.Unlocking)
	return l
}

type RewardKind string

const (
	RewardStaked     RewardKind = "Staked"
	RewardStash      RewardKind = "Stash"
	RewardController RewardKind = "Controller"
	RewardAccount    RewardKind = "Account"
	RewardNone       RewardKind = "None"
)

type RewardDestination struct {
	Kind    RewardKind `json:"kind" validate:"oneof=Staked Stash Controller Account None"`
	Account AccountId  `json:"account,omitempty" validate:"required_if=Kind Account"`
}

type ValidatorPrefs struct {
	// Perbill.
	Commission uint32 `json:"commission" validate:"lte=1000000000"`
	Blocked    bool   `json:"blocked"`
}

type Nominations struct {
	Targets     []AccountId `json:"targets"`
	SubmittedIn uint32      `json:"submittedIn"`
	Suppressed  bool        `json:"suppressed"`
}

// ElectionProvider is the election provider's view of the current round.
type ElectionProvider struct {
	Snapshot       *snapshot.Snapshot[AccountId]
	Metadata       optional.Option[snapshot.Metadata]
	DesiredTargets optional.Option[uint32]
}

// KillSnapshot drops the stored snapshot and its metadata. Desired targets
// stay in place.
func (e *ElectionProvider) KillSnapshot() {
	e.Snapshot = nil
	e.Metadata = optional.None[snapshot.Metadata]()
}

type Counts struct {
	Ledgers int `json:"ledgers"`
	Bonded  int `json:"bonded"`
	Payees  int `json:"payees"`
}

func (c Counts) InSync() bool {
	return c.Ledgers == c.Bonded && c.Ledgers == c.Payees
}
