package snapshotstore

import (
	"maps"
	"slices"
	"sync"

	"staking-timetravel/lib/utils"
	chainstate "staking-timetravel/modules/chain-state"
	"staking-timetravel/modules/snapshot"

	cbornode "github.com/ipfs/go-ipld-cbor"
	"github.com/moznion/go-optional"
)

// The cbor atlas only handles string keyed maps of plain values reliably, so
// storage maps are written as sorted entry lists.

type ledgerEntry struct {
	Controller string
	Stash      string
	Total      uint64
	Active     uint64
	Unlocking  []unlockEntry
}

type unlockEntry struct {
	Value uint64
	Era   uint32
}

type bondedEntry struct {
	Stash      string
	Controller string
}

type payeeEntry struct {
	Stash   string
	Kind    string
	Account string
}

type validatorEntry struct {
	Stash      string
	Commission uint32
	Blocked    bool
}

type nominatorEntry struct {
	Stash       string
	Targets     []string
	SubmittedIn uint32
	Suppressed  bool
}

type stateRecord struct {
	Chain          string
	BlockNumber    uint64
	BlockHash      string
	ActiveEra      []uint32
	TotalIssuance  uint64
	ValidatorCount uint32

	Ledger     []ledgerEntry
	Bonded     []bondedEntry
	Payee      []payeeEntry
	Validators []validatorEntry
	Nominators []nominatorEntry
	VoterList  []string

	// Election provider storage. Snapshot is the encoded snapshot, empty
	// when none is stored.
	Snapshot       []byte
	Metadata       []snapshot.Metadata
	DesiredTargets []uint32
}

var registerOnce sync.Once

// RegisterCbor registers the stored record types with the ipld cbor atlas.
func RegisterCbor() {
	registerOnce.Do(func() {
		snapshot.RegisterCbor[chainstate.AccountId]()
		cbornode.RegisterCborType(unlockEntry{})
		cbornode.RegisterCborType(ledgerEntry{})
		cbornode.RegisterCborType(bondedEntry{})
		cbornode.RegisterCborType(payeeEntry{})
		cbornode.RegisterCborType(validatorEntry{})
		cbornode.RegisterCborType(nominatorEntry{})
		cbornode.RegisterCborType(stateRecord{})
	})
}

func strs(ids []chainstate.AccountId) []string {
	return utils.Map(ids, func(id chainstate.AccountId) string { return string(id) })
}

func ids(s []string) []chainstate.AccountId {
	return utils.Map(s, func(v string) chainstate.AccountId { return chainstate.AccountId(v) })
}

func toRecord(state *chainstate.ChainState) (*stateRecord, error) {
	r := &stateRecord{
		Chain:          state.Chain,
		BlockNumber:    state.BlockNumber,
		BlockHash:      state.BlockHash,
		ActiveEra:      slices.Clone(state.ActiveEra),
		TotalIssuance:  state.TotalIssuance,
		ValidatorCount: state.ValidatorCount,
		VoterList:      strs(state.VoterList),
		Metadata:       slices.Clone(state.ElectionProvider.Metadata),
		DesiredTargets: slices.Clone(state.ElectionProvider.DesiredTargets),
	}

	for _, controller := range slices.Sorted(maps.Keys(state.Ledger)) {
		l := state.Ledger[controller]
		entry := ledgerEntry{
			Controller: string(controller),
			Stash:      string(l.Stash),
			Total:      l.Total,
			Active:     l.Active,
			Unlocking:  make([]unlockEntry, 0, len(l.Unlocking)),
		}
		for _, chunk := range l.Unlocking {
			entry.Unlocking = append(entry.Unlocking, unlockEntry{Value: chunk.Value, Era: chunk.Era})
		}
		r.Ledger = append(r.Ledger, entry)
	}
	for _, stash := range slices.Sorted(maps.Keys(state.Bonded)) {
		r.Bonded = append(r.Bonded, bondedEntry{Stash: string(stash), Controller: string(state.Bonded[stash])})
	}
	for _, stash := range slices.Sorted(maps.Keys(state.Payee)) {
		p := state.Payee[stash]
		r.Payee = append(r.Payee, payeeEntry{Stash: string(stash), Kind: string(p.Kind), Account: string(p.Account)})
	}
	for _, stash := range slices.Sorted(maps.Keys(state.Validators)) {
		v := state.Validators[stash]
		r.Validators = append(r.Validators, validatorEntry{Stash: string(stash), Commission: v.Commission, Blocked: v.Blocked})
	}
	for _, stash := range slices.Sorted(maps.Keys(state.Nominators)) {
		n := state.Nominators[stash]
		r.Nominators = append(r.Nominators, nominatorEntry{
			Stash:       string(stash),
			Targets:     strs(n.Targets),
			SubmittedIn: n.SubmittedIn,
			Suppressed:  n.Suppressed,
		})
	}

	if s := state.ElectionProvider.Snapshot; s != nil {
		raw, err := s.Encode()
		if err != nil {
			return nil, err
		}
		r.Snapshot = raw
	}
	return r, nil
}

func (r *stateRecord) toState() (*chainstate.ChainState, error) {
	state := chainstate.New(r.Chain, r.BlockNumber, r.BlockHash)
	state.ActiveEra = optional.Option[uint32](slices.Clone(r.ActiveEra))
	state.TotalIssuance = r.TotalIssuance
	state.ValidatorCount = r.ValidatorCount

	for _, e := range r.Ledger {
		ledger := chainstate.StakingLedger{
			Stash:  chainstate.AccountId(e.Stash),
			Total:  e.Total,
			Active: e.Active,
		}
		for _, chunk := range e.Unlocking {
			ledger.Unlocking = append(ledger.Unlocking, chainstate.UnlockChunk{Value: chunk.Value, Era: chunk.Era})
		}
		state.Ledger[chainstate.AccountId(e.Controller)] = ledger
	}
	for _, e := range r.Bonded {
		state.Bonded[chainstate.AccountId(e.Stash)] = chainstate.AccountId(e.Controller)
	}
	for _, e := range r.Payee {
		state.Payee[chainstate.AccountId(e.Stash)] = chainstate.RewardDestination{
			Kind:    chainstate.RewardKind(e.Kind),
			Account: chainstate.AccountId(e.Account),
		}
	}
	for _, e := range r.Validators {
		state.Validators[chainstate.AccountId(e.Stash)] = chainstate.ValidatorPrefs{Commission: e.Commission, Blocked: e.Blocked}
	}
	for _, e := range r.Nominators {
		state.Nominators[chainstate.AccountId(e.Stash)] = chainstate.Nominations{
			Targets:     ids(e.Targets),
			SubmittedIn: e.SubmittedIn,
			Suppressed:  e.Suppressed,
		}
	}
	state.VoterList = ids(r.VoterList)

	if len(r.Snapshot) > 0 {
		s, err := snapshot.Decode[chainstate.AccountId](r.Snapshot)
		if err != nil {
			return nil, err
		}
		state.ElectionProvider.Snapshot = s
	}
	state.ElectionProvider.Metadata = optional.Option[snapshot.Metadata](slices.Clone(r.Metadata))
	state.ElectionProvider.DesiredTargets = optional.Option[uint32](slices.Clone(r.DesiredTargets))
	return state, nil
}
