package operations_test

import (
	"context"
	"errors"
	"testing"

	"staking-timetravel/lib/logger"
	"staking-timetravel/lib/test_utils"
	chainstate "staking-timetravel/modules/chain-state"
	"staking-timetravel/modules/operations"
	"staking-timetravel/modules/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	rows []report.Row
	err  error
}

func (m *memorySink) Append(_ context.Context, row report.Row) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, row)
	return nil
}

func (m *memorySink) Close() error {
	return nil
}

func newOperations(t *testing.T, sink report.Sink, mutate ...func(*operations.AnalysisConfig)) *operations.Operations {
	conf := operations.DefaultAnalysisConfig()
	for _, m := range mutate {
		m(&conf)
	}
	ops, err := operations.New(conf, sink, logger.Discard())
	require.NoError(t, err)
	return ops
}

func TestParseOperation(t *testing.T) {
	for name, want := range map[string]operations.Operation{
		"min-active-stake":      operations.MinActiveStake,
		"min_active_stake":      operations.MinActiveStake,
		"ElectionAnalysis":      operations.ElectionAnalysis,
		"staking-ledger-checks": operations.StakingLedgerChecks,
	} {
		op, err := operations.ParseOperation(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, op, name)
	}

	_, err := operations.ParseOperation("reindex")
	assert.ErrorIs(t, err, operations.ErrUnknownOperation)

	assert.Equal(t, 2, operations.StakingLedgerChecks.States())
	assert.Equal(t, 1, operations.ElectionAnalysis.States())
}

func TestNewRejectsBadConfig(t *testing.T) {
	for _, mutate := range []func(*operations.AnalysisConfig){
		func(c *operations.AnalysisConfig) { c.Chain = "rococo" },
		func(c *operations.AnalysisConfig) { c.Solver = "borda" },
		func(c *operations.AnalysisConfig) { c.DposPolicy = "random" },
	} {
		conf := operations.DefaultAnalysisConfig()
		mutate(&conf)
		_, err := operations.New(conf, nil, logger.Discard())
		assert.Error(t, err)
	}
}

func TestMinActiveStake(t *testing.T) {
	sink := &memorySink{}
	ops := newOperations(t, sink)

	row, err := ops.MinActiveStake(context.Background(), test_utils.SmallNetwork(42))
	require.NoError(t, err)
	assert.Equal(t, operations.MinActiveStakeRow{BlockNumber: 42, MinActiveStake: "60"}, row)
	assert.Equal(t, []report.Row{row}, sink.rows)
}

func TestMinActiveStakeWithoutVoters(t *testing.T) {
	state := test_utils.NewChainState(7, map[chainstate.AccountId]uint64{"val-a": 0}, nil)
	row, err := newOperations(t, nil).MinActiveStake(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, "", row.MinActiveStake)
}

func TestElectionAnalysis(t *testing.T) {
	sink := &memorySink{}
	ops := newOperations(t, sink)
	state := test_utils.SmallNetwork(100)

	row, err := ops.ElectionAnalysis(context.Background(), state)
	require.NoError(t, err)

	assert.Nil(t, state.ElectionProvider.Snapshot)
	assert.True(t, state.ElectionProvider.Metadata.IsNone())

	assert.Equal(t, uint64(100), row.BlockNumber)
	assert.Equal(t, uint32(7), row.Voters)
	assert.Equal(t, uint32(3), row.Targets)
	assert.Equal(t, uint32(7), row.VotersUnbound)
	assert.Equal(t, uint32(3), row.TargetsUnbound)
	assert.Positive(t, row.SnapshotSize)
	assert.Equal(t, row.SnapshotSize, row.SnapshotSizeUnbound)
	assert.NotEmpty(t, row.SnapshotCid)
	assert.Equal(t, "60", row.MinActiveStake)

	for _, v := range []string{row.PhragMinStake, row.PhragMMSMinStake, row.DposMinStake, row.PhragUnboundMinStake, row.DposUnboundMinStake} {
		assert.NotEmpty(t, v)
		assert.NotEqual(t, "0", v)
	}
	// Every target is elected, so every solver distributes the whole stake.
	assert.Equal(t, "1240", row.PhragSumStake)
	assert.Equal(t, "1240", row.PhragMMSSumStake)
	assert.Equal(t, row.PhragSumStake, row.PhragUnboundSumStake)

	require.Len(t, sink.rows, 1)
	assert.Equal(t, "election_analysis", sink.rows[0].Kind())
}

func TestElectionAnalysisBoundedOnly(t *testing.T) {
	ops := newOperations(t, nil, func(c *operations.AnalysisConfig) { c.ComputeUnbounded = false })
	row, err := ops.ElectionAnalysis(context.Background(), test_utils.SmallNetwork(100))
	require.NoError(t, err)
	assert.Equal(t, uint32(0), row.VotersUnbound)
	assert.Equal(t, "0", row.PhragUnboundMinStake)
}

func TestStakingLedgerChecks(t *testing.T) {
	sink := &memorySink{}
	ops := newOperations(t, sink)

	child := test_utils.SmallNetwork(11)
	parent := test_utils.SmallNetwork(10)
	delete(child.Ledger, test_utils.Controller("nom-2"))

	outcome, err := ops.Run(context.Background(), operations.StakingLedgerChecks, []*chainstate.ChainState{child, parent})
	require.NoError(t, err)
	require.NotNil(t, outcome.Ledger)
	assert.Equal(t, uint64(11), outcome.Block)

	row := outcome.Row.(operations.LedgerChecksRow)
	assert.Equal(t, uint64(10), row.ParentBlockNumber)
	assert.Equal(t, 1, row.NoneLedgers)
	assert.Equal(t, 6, row.Ledgers)
	assert.Equal(t, 7, row.Bonded)
	assert.Equal(t, 7, row.LedgersAfterMigrate)
	assert.Equal(t, []report.Row{row}, sink.rows)
}

func TestRunChecksStateCount(t *testing.T) {
	ops := newOperations(t, nil)
	_, err := ops.Run(context.Background(), operations.MinActiveStake, nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ops.Run(ctx, operations.MinActiveStake, []*chainstate.ChainState{test_utils.SmallNetwork(1)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunAllKeepsGoing(t *testing.T) {
	ops := newOperations(t, &memorySink{})
	results := ops.RunAll(context.Background(), operations.MinActiveStake, [][]*chainstate.ChainState{
		{test_utils.SmallNetwork(1)},
		{},
		{test_utils.SmallNetwork(3)},
	})
	require.Len(t, results, 3)
	assert.True(t, results[0].IsOk())
	assert.True(t, results[1].IsErr())
	assert.True(t, results[2].IsOk())
	assert.Equal(t, uint64(3), results[2].Unwrap().Block)
}

func TestSinkFailureIsReturned(t *testing.T) {
	boom := errors.New("disk full")
	ops := newOperations(t, &memorySink{err: boom})
	_, err := ops.MinActiveStake(context.Background(), test_utils.SmallNetwork(1))
	assert.ErrorIs(t, err, boom)
}
