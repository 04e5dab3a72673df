package operations

import (
	"context"
	"fmt"
	"log/slog"

	"staking-timetravel/lib/logger"
	chainstate "staking-timetravel/modules/chain-state"
	runtimeprofile "staking-timetravel/modules/common/runtime-profile"
	"staking-timetravel/modules/dpos"
	electionprovider "staking-timetravel/modules/election-provider"
	ledgerchecks "staking-timetravel/modules/ledger-checks"
	"staking-timetravel/modules/npos"
	"staking-timetravel/modules/report"

	"github.com/JustinKnueppel/go-result"
)

// Operations runs analyses over chain states and appends one row per run to
// the sink.
type Operations struct {
	conf     AnalysisConfig
	profile  runtimeprofile.Profile
	solver   npos.Solver
	policy   dpos.Policy
	provider *electionprovider.Provider
	checker  *ledgerchecks.Checker
	sink     report.Sink
	log      *slog.Logger
}

func New(conf AnalysisConfig, sink report.Sink, log ...*slog.Logger) (*Operations, error) {
	var l *slog.Logger
	if len(log) > 0 {
		l = log[0]
	}
	l = logger.OrDefault(l)

	profile, err := runtimeprofile.FromChain(conf.Chain)
	if err != nil {
		return nil, err
	}
	solver := npos.ParseSolver(conf.Solver, conf.BalancingIterations)
	if solver.IsErr() {
		return nil, solver.UnwrapErr()
	}
	policy, err := dpos.ParsePolicy(conf.DposPolicy)
	if err != nil {
		return nil, err
	}

	return &Operations{
		conf:     conf,
		profile:  profile,
		solver:   solver.Unwrap(),
		policy:   policy,
		provider: electionprovider.New(profile, conf.ScanCoefficient, l),
		checker:  ledgerchecks.New(l),
		sink:     sink,
		log:      logger.Service(l, "operations").With("chain", profile.Name()),
	}, nil
}

func (o *Operations) Profile() runtimeprofile.Profile {
	return o.profile
}

func (o *Operations) emit(ctx context.Context, row report.Row) error {
	if o.sink == nil {
		return nil
	}
	if err := o.sink.Append(ctx, row); err != nil {
		return fmt.Errorf("append %s row for block %d: %w", row.Kind(), row.Block(), err)
	}
	return nil
}

// MinActiveStake computes the minimum active stake of a single block.
func (o *Operations) MinActiveStake(ctx context.Context, state *chainstate.ChainState) (MinActiveStakeRow, error) {
	o.log.Info("min_active_stake starting", "block", state.BlockNumber)

	minStake := o.provider.MinActiveStake(state)
	row := MinActiveStakeRow{
		BlockNumber:    state.BlockNumber,
		MinActiveStake: formatStake(minStake),
	}
	if err := o.emit(ctx, row); err != nil {
		return MinActiveStakeRow{}, err
	}
	o.log.Info("min_active_stake result", "block", state.BlockNumber, "min_active_stake", row.MinActiveStake)
	return row, nil
}

// ElectionAnalysis scores the bounded snapshot with the configured solver,
// PhragMMS and the dpos heuristic, then repeats the solver and dpos over an
// unbounded snapshot. The input state is not modified.
func (o *Operations) ElectionAnalysis(ctx context.Context, state *chainstate.ChainState) (ElectionAnalysisRow, error) {
	log := o.log.With("block", state.BlockNumber)
	log.Info("election_analysis starting")

	work := state.Clone()
	row := ElectionAnalysisRow{
		BlockNumber: work.BlockNumber,
		ActiveEra:   work.ActiveEra.TakeOr(0),
	}

	meta, size, err := o.provider.SnapshotDataOrForce(work)
	if err != nil {
		return ElectionAnalysisRow{}, fmt.Errorf("bounded snapshot: %w", err)
	}
	row.Voters, row.Targets, row.SnapshotSize = meta.Voters, meta.Targets, size
	if c, err := work.ElectionProvider.Snapshot.Cid(); err == nil {
		row.SnapshotCid = c.String()
	}

	row.MinActiveStake = formatStake(o.provider.MinActiveStake(work))

	phrag, err := o.provider.MineWith(work, o.solver, o.conf.Feasibility)
	if err != nil {
		return ElectionAnalysisRow{}, fmt.Errorf("bounded %s: %w", o.solver, err)
	}
	row.setPhrag(phrag.Score)

	mmsSolver := npos.PhragMMSSolver{Iterations: o.conf.BalancingIterations}
	mms, err := o.provider.MineWith(work, mmsSolver, o.conf.Feasibility)
	if err != nil {
		return ElectionAnalysisRow{}, fmt.Errorf("bounded %s: %w", mmsSolver, err)
	}
	row.setPhragMMS(mms.Score)

	dposScore, err := o.provider.MineDpos(work, o.policy)
	if err != nil {
		return ElectionAnalysisRow{}, fmt.Errorf("bounded dpos: %w", err)
	}
	row.setDpos(dposScore)

	log.Info("bounded scores",
		"snapshot", row.SnapshotCid,
		"best", bestOf(map[string]npos.ElectionScore{
			o.solver.String(): phrag.Score,
			mmsSolver.String(): mms.Score,
			"dpos":             dposScore,
		}),
	)

	if o.conf.ComputeUnbounded {
		metaU, sizeU, err := o.provider.ComputeAndStoreUnboundedSnapshot(work)
		if err != nil {
			return ElectionAnalysisRow{}, fmt.Errorf("unbounded snapshot: %w", err)
		}
		row.VotersUnbound, row.TargetsUnbound, row.SnapshotSizeUnbound = metaU.Voters, metaU.Targets, sizeU

		phragU, err := o.provider.MineWith(work, o.solver, o.conf.Feasibility)
		if err != nil {
			return ElectionAnalysisRow{}, fmt.Errorf("unbounded %s: %w", o.solver, err)
		}
		row.setPhragUnbound(phragU.Score)

		dposU, err := o.provider.MineDpos(work, o.policy)
		if err != nil {
			return ElectionAnalysisRow{}, fmt.Errorf("unbounded dpos: %w", err)
		}
		row.setDposUnbound(dposU)
	} else {
		row.setPhragUnbound(npos.ElectionScore{})
		row.setDposUnbound(npos.ElectionScore{})
	}

	if err := o.emit(ctx, row); err != nil {
		return ElectionAnalysisRow{}, err
	}
	return row, nil
}

// StakingLedgerChecks cross references two blocks. A row summarising the
// report is appended to the sink.
func (o *Operations) StakingLedgerChecks(ctx context.Context, states []*chainstate.ChainState) (*ledgerchecks.Report, error) {
	rep, err := o.checker.Check(states)
	if err != nil {
		return nil, err
	}
	if err := o.emit(ctx, newLedgerChecksRow(rep)); err != nil {
		return nil, err
	}
	return rep, nil
}

// Run executes op over the states of one batch.
func (o *Operations) Run(ctx context.Context, op Operation, states []*chainstate.ChainState) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	if op != StakingLedgerChecks && len(states) != 1 {
		return Outcome{}, fmt.Errorf("%s expects exactly one chain state, got %d", op, len(states))
	}

	switch op {
	case MinActiveStake:
		row, err := o.MinActiveStake(ctx, states[0])
		return Outcome{Operation: op, Block: row.BlockNumber, Row: row}, err
	case ElectionAnalysis:
		row, err := o.ElectionAnalysis(ctx, states[0])
		return Outcome{Operation: op, Block: row.BlockNumber, Row: row}, err
	case StakingLedgerChecks:
		rep, err := o.StakingLedgerChecks(ctx, states)
		if err != nil {
			return Outcome{Operation: op}, err
		}
		return Outcome{Operation: op, Block: rep.Child.BlockNumber, Row: newLedgerChecksRow(rep), Ledger: rep}, nil
	default:
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
}

// RunAll runs op over every batch. A failed batch is logged and the rest
// still run.
func (o *Operations) RunAll(ctx context.Context, op Operation, batches [][]*chainstate.ChainState) []result.Result[Outcome] {
	results := make([]result.Result[Outcome], 0, len(batches))
	for i, batch := range batches {
		outcome, err := o.Run(ctx, op, batch)
		if err != nil {
			o.log.Error("operation failed", "operation", op.String(), "batch", i, "err", err)
			results = append(results, result.Err[Outcome](err))
			continue
		}
		results = append(results, result.Ok(outcome))
	}
	return results
}

func bestOf(scores map[string]npos.ElectionScore) string {
	best := ""
	var bestScore npos.ElectionScore
	for name, s := range scores {
		if best == "" || s.StrictlyBetter(bestScore) || (s.Compare(bestScore) == 0 && name < best) {
			best, bestScore = name, s
		}
	}
	return best
}
