package operations

import (
	"fmt"
	"strings"

	ledgerchecks "staking-timetravel/modules/ledger-checks"
	"staking-timetravel/modules/npos"
	"staking-timetravel/modules/report"

	"github.com/moznion/go-optional"
)

type Operation int

const (
	MinActiveStake Operation = iota
	ElectionAnalysis
	StakingLedgerChecks
)

var operationNames = map[Operation]string{
	MinActiveStake:      "min-active-stake",
	ElectionAnalysis:    "election-analysis",
	StakingLedgerChecks: "staking-ledger-checks",
}

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Operation(%d)", int(o))
}

// States is the number of chain states one run of the operation consumes.
func (o Operation) States() int {
	if o == StakingLedgerChecks {
		return 2
	}
	return 1
}

var ErrUnknownOperation = fmt.Errorf("unknown operation")

func ParseOperation(name string) (Operation, error) {
	normalized := strings.ReplaceAll(strings.ToLower(name), "_", "-")
	for op, n := range operationNames {
		if n == normalized || strings.ReplaceAll(n, "-", "") == normalized {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
}

type MinActiveStakeRow struct {
	BlockNumber    uint64 `csv:"block_number" bson:"block_number" json:"block_number"`
	MinActiveStake string `csv:"min_active_stake" bson:"min_active_stake" json:"min_active_stake"`
}

func (MinActiveStakeRow) Kind() string {
	return "min_active_stake"
}

func (r MinActiveStakeRow) Block() uint64 {
	return r.BlockNumber
}

type ElectionAnalysisRow struct {
	BlockNumber                 uint64 `csv:"block_number" bson:"block_number" json:"block_number"`
	ActiveEra                   uint32 `csv:"active_era" bson:"active_era" json:"active_era"`
	PhragMinStake               string `csv:"phrag_min_stake" bson:"phrag_min_stake" json:"phrag_min_stake"`
	PhragSumStake               string `csv:"phrag_sum_stake" bson:"phrag_sum_stake" json:"phrag_sum_stake"`
	PhragSumStakeSquared        string `csv:"phrag_sum_stake_squared" bson:"phrag_sum_stake_squared" json:"phrag_sum_stake_squared"`
	PhragUnboundMinStake        string `csv:"phrag_unbound_min_stake" bson:"phrag_unbound_min_stake" json:"phrag_unbound_min_stake"`
	PhragUnboundSumStake        string `csv:"phrag_unbound_sum_stake" bson:"phrag_unbound_sum_stake" json:"phrag_unbound_sum_stake"`
	PhragUnboundSumStakeSquared string `csv:"phrag_unbound_sum_stake_squared" bson:"phrag_unbound_sum_stake_squared" json:"phrag_unbound_sum_stake_squared"`
	PhragMMSMinStake            string `csv:"phrag_mms_min_stake" bson:"phrag_mms_min_stake" json:"phrag_mms_min_stake"`
	PhragMMSSumStake            string `csv:"phrag_mms_sum_stake" bson:"phrag_mms_sum_stake" json:"phrag_mms_sum_stake"`
	PhragMMSSumStakeSquared     string `csv:"phrag_mms_sum_stake_squared" bson:"phrag_mms_sum_stake_squared" json:"phrag_mms_sum_stake_squared"`
	DposMinStake                string `csv:"dpos_min_stake" bson:"dpos_min_stake" json:"dpos_min_stake"`
	DposSumStake                string `csv:"dpos_sum_stake" bson:"dpos_sum_stake" json:"dpos_sum_stake"`
	DposSumStakeSquared         string `csv:"dpos_sum_stake_squared" bson:"dpos_sum_stake_squared" json:"dpos_sum_stake_squared"`
	DposUnboundMinStake         string `csv:"dpos_unbound_min_stake" bson:"dpos_unbound_min_stake" json:"dpos_unbound_min_stake"`
	DposUnboundSumStake         string `csv:"dpos_unbound_sum_stake" bson:"dpos_unbound_sum_stake" json:"dpos_unbound_sum_stake"`
	DposUnboundSumStakeSquared  string `csv:"dpos_unbound_sum_stake_squared" bson:"dpos_unbound_sum_stake_squared" json:"dpos_unbound_sum_stake_squared"`
	Voters                      uint32 `csv:"voters" bson:"voters" json:"voters"`
	Targets                     uint32 `csv:"targets" bson:"targets" json:"targets"`
	SnapshotSize                int    `csv:"snapshot_size" bson:"snapshot_size" json:"snapshot_size"`
	VotersUnbound               uint32 `csv:"voters_unbound" bson:"voters_unbound" json:"voters_unbound"`
	TargetsUnbound              uint32 `csv:"targets_unbound" bson:"targets_unbound" json:"targets_unbound"`
	SnapshotSizeUnbound         int    `csv:"snapshot_size_unbound" bson:"snapshot_size_unbound" json:"snapshot_size_unbound"`
	MinActiveStake              string `csv:"min_active_stake" bson:"min_active_stake" json:"min_active_stake"`
	SnapshotCid                 string `csv:"-" bson:"snapshot_cid" json:"snapshot_cid"`
}

func (ElectionAnalysisRow) Kind() string {
	return "election_analysis"
}

func (r ElectionAnalysisRow) Block() uint64 {
	return r.BlockNumber
}

func (r *ElectionAnalysisRow) setPhrag(s npos.ElectionScore) {
	r.PhragMinStake, r.PhragSumStake, r.PhragSumStakeSquared = s.Strings()
}

func (r *ElectionAnalysisRow) setPhragUnbound(s npos.ElectionScore) {
	r.PhragUnboundMinStake, r.PhragUnboundSumStake, r.PhragUnboundSumStakeSquared = s.Strings()
}

func (r *ElectionAnalysisRow) setPhragMMS(s npos.ElectionScore) {
	r.PhragMMSMinStake, r.PhragMMSSumStake, r.PhragMMSSumStakeSquared = s.Strings()
}

func (r *ElectionAnalysisRow) setDpos(s npos.ElectionScore) {
	r.DposMinStake, r.DposSumStake, r.DposSumStakeSquared = s.Strings()
}

func (r *ElectionAnalysisRow) setDposUnbound(s npos.ElectionScore) {
	r.DposUnboundMinStake, r.DposUnboundSumStake, r.DposUnboundSumStakeSquared = s.Strings()
}

// LedgerChecksRow summarises a ledger check run, keyed by the child block.
type LedgerChecksRow struct {
	BlockNumber         uint64 `csv:"block_number" bson:"block_number" json:"block_number"`
	ParentBlockNumber   uint64 `csv:"parent_block_number" bson:"parent_block_number" json:"parent_block_number"`
	Ledgers             int    `csv:"ledgers" bson:"ledgers" json:"ledgers"`
	Bonded              int    `csv:"bonded" bson:"bonded" json:"bonded"`
	Payees              int    `csv:"payees" bson:"payees" json:"payees"`
	NoneLedgers         int    `csv:"none_ledgers" bson:"none_ledgers" json:"none_ledgers"`
	InconsistentLedgers int    `csv:"inconsistent_ledgers" bson:"inconsistent_ledgers" json:"inconsistent_ledgers"`
	BadStashes          int    `csv:"bad_stashes" bson:"bad_stashes" json:"bad_stashes"`
	ParentBadStashes    int    `csv:"parent_bad_stashes" bson:"parent_bad_stashes" json:"parent_bad_stashes"`
	LedgersAfterMigrate int    `csv:"ledgers_after_migration" bson:"ledgers_after_migration" json:"ledgers_after_migration"`
}

func (LedgerChecksRow) Kind() string {
	return "staking_ledger_checks"
}

func (r LedgerChecksRow) Block() uint64 {
	return r.BlockNumber
}

func newLedgerChecksRow(r *ledgerchecks.Report) LedgerChecksRow {
	return LedgerChecksRow{
		BlockNumber:         r.Child.BlockNumber,
		ParentBlockNumber:   r.Parent.BlockNumber,
		Ledgers:             r.Child.Counts.Ledgers,
		Bonded:              r.Child.Counts.Bonded,
		Payees:              r.Child.Counts.Payees,
		NoneLedgers:         len(r.Bonded.NoLedger),
		InconsistentLedgers: len(r.Bonded.Inconsistent),
		BadStashes:          len(r.Child.BadStashes),
		ParentBadStashes:    len(r.Parent.BadStashes),
		LedgersAfterMigrate: r.AfterMigration.Ledgers,
	}
}

// formatStake renders a missing minimum as an empty field.
func formatStake(v optional.Option[uint64]) string {
	if v.IsNone() {
		return ""
	}
	return fmt.Sprint(v.Unwrap())
}

// Outcome is what one run of an operation produced.
type Outcome struct {
	Operation Operation
	Block     uint64
	Row       report.Row
	Ledger    *ledgerchecks.Report
}
