package ledgerchecks

import (
	"cmp"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"staking-timetravel/lib/logger"
	chainstate "staking-timetravel/modules/chain-state"
	"staking-timetravel/modules/common"
)

type Pair struct {
	Stash      chainstate.AccountId `json:"stash" bson:"stash"`
	Controller chainstate.AccountId `json:"controller" bson:"controller"`
}

// Inconsistent is a bonded stash whose ledger records another stash.
type Inconsistent struct {
	Stash       chainstate.AccountId `json:"stash" bson:"stash"`
	LedgerStash chainstate.AccountId `json:"ledgerStash" bson:"ledger_stash"`
}

type BondedReport struct {
	NoLedger     []Pair                 `json:"noLedger"`
	Inconsistent []Inconsistent         `json:"inconsistent"`
	Ok           []chainstate.AccountId `json:"ok"`
}

type BlockReport struct {
	BlockNumber uint64            `json:"blockNumber"`
	Counts      chainstate.Counts `json:"counts"`
	// Ledgers whose stash is not bonded back to their controller.
	BadStashes []chainstate.AccountId `json:"badStashes"`
}

type Report struct {
	Child  BlockReport  `json:"child"`
	Bonded BondedReport `json:"bonded"`
	Parent BlockReport  `json:"parent"`
	// Counts of the parent scratch copy once the migration ran.
	AfterMigration chainstate.Counts `json:"afterMigration"`

	// Parent scratch copy the migration was simulated on.
	Migrated *chainstate.ChainState `json:"-"`
}

// LedgerChecks returns the stash of every ledger that is not bonded to the
// controller it is stored under.
func LedgerChecks(state *chainstate.ChainState, log *slog.Logger) []chainstate.AccountId {
	log = logger.OrDefault(log)
	bad := []chainstate.AccountId{}
	for _, controller := range slices.Sorted(maps.Keys(state.Ledger)) {
		stash := state.Ledger[controller].Stash
		bonded, ok := state.Bonded[stash]
		if !ok {
			log.Error("ledger's controller does not have a bonded stash", "stash", stash, "controller", controller)
			bad = append(bad, stash)
			continue
		}
		if bonded != controller {
			log.Error("ledger's controller does not match bonded controller",
				"stash", stash,
				"controller", controller,
				"bonded", bonded,
			)
			bad = append(bad, stash)
		}
	}
	return bad
}

// BondedChecks classifies every bonded pair by whether its controller has a
// ledger and whether that ledger points back at the stash. Inconsistent
// stashes are listed as ok as well, since their ledger exists.
func BondedChecks(state *chainstate.ChainState, log *slog.Logger) BondedReport {
	log = logger.OrDefault(log)
	report := BondedReport{
		NoLedger:     []Pair{},
		Inconsistent: []Inconsistent{},
		Ok:           []chainstate.AccountId{},
	}
	for _, stash := range slices.Sorted(maps.Keys(state.Bonded)) {
		controller := state.Bonded[stash]
		ledger, ok := state.Ledger[controller]
		if !ok {
			log.Error("bonded stash has no ledger under its controller", "stash", stash, "controller", controller)
			report.NoLedger = append(report.NoLedger, Pair{Stash: stash, Controller: controller})
			continue
		}
		if ledger.Stash != stash {
			log.Error("stash in ledger does not match expected", "ledger_stash", ledger.Stash, "stash", stash)
			report.Inconsistent = append(report.Inconsistent, Inconsistent{Stash: stash, LedgerStash: ledger.Stash})
		}
		report.Ok = append(report.Ok, stash)
	}
	return report
}

// Checker cross references a parent and a child block and simulates the
// controller deprecation migration for the broken pairs.
type Checker struct {
	log *slog.Logger
}

func New(log ...*slog.Logger) *Checker {
	var l *slog.Logger
	if len(log) > 0 {
		l = log[0]
	}
	return &Checker{log: logger.Service(l, "ledger-checks")}
}

// Check expects exactly two states. The one with the lower block number is
// the parent. Inconsistencies are reported, never returned as errors.
func (c *Checker) Check(states []*chainstate.ChainState) (*Report, error) {
	if len(states) != 2 {
		return nil, fmt.Errorf("%w: expected 2 chain states, got %d", common.ErrPreconditionViolation, len(states))
	}
	if states[0] == nil || states[1] == nil {
		return nil, fmt.Errorf("%w: nil chain state", common.ErrPreconditionViolation)
	}
	parent, child := states[0], states[1]
	if cmp.Compare(parent.BlockNumber, child.BlockNumber) > 0 {
		parent, child = child, parent
	}

	report := &Report{}

	log := c.log.With("block", child.BlockNumber)
	log.Info("running logic for child block")
	report.Child = c.blockReport(child, log)
	report.Bonded = BondedChecks(child, log)
	log.Warn("report",
		"none_ledgers", len(report.Bonded.NoLedger),
		"inconsistent_ledgers", len(report.Bonded.Inconsistent),
		"bad_ledgers", len(report.Child.BadStashes),
	)

	log = c.log.With("block", parent.BlockNumber)
	log.Info("running logic for parent block")
	report.Parent = c.blockReport(parent, log)
	log.Warn("report",
		"none_ledgers", len(report.Bonded.NoLedger),
		"inconsistent_ledgers", len(report.Parent.BadStashes),
		"ok_ledgers", len(report.Bonded.Ok),
		"total_ledgers", report.Parent.Counts.Ledgers,
	)

	scratch := parent.Clone()
	if err := DeprecateControllers(scratch, report.Bonded.NoLedger, log); err != nil {
		return nil, err
	}
	report.Migrated = scratch
	report.AfterMigration = scratch.Counts()
	log.Info("after deprecate",
		"ledgers", report.AfterMigration.Ledgers,
		"bonded", report.AfterMigration.Bonded,
		"payees", report.AfterMigration.Payees,
	)
	return report, nil
}

func (c *Checker) blockReport(state *chainstate.ChainState, log *slog.Logger) BlockReport {
	counts := state.Counts()
	log.Info("storage counts", "ledgers", counts.Ledgers, "bonded", counts.Bonded, "payees", counts.Payees)
	if !counts.InSync() {
		log.Error("counts out of sync", "ledgers", counts.Ledgers, "bonded", counts.Bonded, "payees", counts.Payees)
	}
	return BlockReport{
		BlockNumber: state.BlockNumber,
		Counts:      counts,
		BadStashes:  LedgerChecks(state, log),
	}
}

// DeprecateControllers turns every pair of batch into a self bonded stash,
// moving its ledger from the controller key to the stash key. The ledger is
// looked up by the batch controller, then by the controller state bonds the
// stash to.
func DeprecateControllers(state *chainstate.ChainState, batch []Pair, log *slog.Logger) error {
	log = logger.OrDefault(log)
	for _, pair := range batch {
		controller := pair.Controller
		ledger, ok := state.Ledger[controller]
		if !ok {
			controller, ok = state.Bonded[pair.Stash]
			if ok {
				ledger, ok = state.Ledger[controller]
			}
		}
		if !ok {
			return fmt.Errorf("%w: no ledger for stash %s (controller %s)", common.ErrPreconditionViolation, pair.Stash, pair.Controller)
		}

		if ledger.Stash != pair.Stash {
			log.Warn("ledger stash differs from stash in batch", "ledger_stash", ledger.Stash, "stash", pair.Stash)
		}

		state.Bonded[pair.Stash] = pair.Stash
		delete(state.Ledger, controller)
		state.Ledger[pair.Stash] = ledger
	}
	return nil
}
