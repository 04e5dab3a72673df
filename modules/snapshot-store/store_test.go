package snapshotstore_test

import (
	"context"
	"testing"

	"staking-timetravel/lib/logger"
	"staking-timetravel/lib/test_utils"
	chainstate "staking-timetravel/modules/chain-state"
	"staking-timetravel/modules/common"
	runtimeprofile "staking-timetravel/modules/common/runtime-profile"
	electionprovider "staking-timetravel/modules/election-provider"
	snapshotstore "staking-timetravel/modules/snapshot-store"

	gocmp "github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *snapshotstore.Store {
	store := snapshotstore.New(t.TempDir(), logger.Discard())
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Stop() })
	return store
}

func TestRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	state := test_utils.SmallNetwork(12)
	state.ActiveEra = optional.Some[uint32](1400)
	state.TotalIssuance = 1_000_000
	ledger := state.Ledger[test_utils.Controller("nom-1")]
	ledger.Total += 50
	ledger.Unlocking = []chainstate.UnlockChunk{{Value: 50, Era: 1402}}
	state.Ledger[test_utils.Controller("nom-1")] = ledger
	state.Payee["val-a"] = chainstate.RewardDestination{Kind: chainstate.RewardAccount, Account: "treasury"}

	p := electionprovider.New(runtimeprofile.WestendProfile(), 2, logger.Discard())
	_, _, err := p.SnapshotDataOrForce(state)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, state))
	ok, err := store.Has(ctx, state.BlockHash)
	require.NoError(t, err)
	assert.True(t, ok)

	loaded, err := store.Load(ctx, state.BlockHash)
	require.NoError(t, err)
	assert.Empty(t, gocmp.Diff(state, loaded, cmpopts.EquateEmpty()))
	require.NoError(t, loaded.Validate())
}

func TestLoadMissing(t *testing.T) {
	store := openStore(t)
	_, err := store.Load(context.Background(), "0xabcdef")
	assert.ErrorIs(t, err, common.ErrDataUnavailable)

	ok, err := store.Has(context.Background(), "0xabcdef")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRejectsBadHash(t *testing.T) {
	store := openStore(t)
	_, err := store.Load(context.Background(), "latest")
	assert.ErrorIs(t, err, common.ErrPreconditionViolation)
}
