package remote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"staking-timetravel/lib/logger"
	"staking-timetravel/lib/test_utils"
	chainstate "staking-timetravel/modules/chain-state"
	"staking-timetravel/modules/common"
	"staking-timetravel/modules/config"
	"staking-timetravel/modules/remote"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	childHash  = "0xbb"
	parentHash = "0xaa"
)

func stateJSON(number string, ledgers string) string {
	return `{
		"chain": "westend",
		"blockNumber": "` + number + `",
		"activeEra": 7,
		"totalIssuance": "18446744073709551615",
		"validatorCount": 1,
		"ledgers": [` + ledgers + `],
		"bonded": [{"stash": "val-a", "controller": "val-a-ctrl"}],
		"payees": [{"stash": "val-a", "kind": "Staked", "account": ""}],
		"validators": [{"stash": "val-a", "commission": 100, "blocked": false}],
		"nominators": [],
		"voterList": ["val-a"]
	}`
}

const ledgerJSON = `{"controller": "val-a-ctrl", "stash": "val-a", "total": "150", "active": "100", "unlocking": [{"value": "50", "era": 9}]}`

type indexer struct {
	failures atomic.Int32
	requests atomic.Int32
}

func (ix *indexer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ix.requests.Add(1)
	if ix.failures.Load() > 0 {
		ix.failures.Add(-1)
		http.Error(w, "starting", http.StatusServiceUnavailable)
		return
	}

	var body struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	hash, _ := body.Variables["hash"].(string)

	var data string
	switch {
	case strings.Contains(body.Query, "chainHead"):
		data = `{"chainHead": {"number": "11", "hash": "` + childHash + `", "parentHash": "` + parentHash + `"}}`
	case strings.Contains(body.Query, "stakingState") && hash == childHash:
		data = `{"stakingState": ` + stateJSON("11", "") + `}`
	case strings.Contains(body.Query, "stakingState") && hash == parentHash:
		data = `{"stakingState": ` + stateJSON("10", ledgerJSON) + `}`
	case strings.Contains(body.Query, "stakingState"):
		data = `{"stakingState": null}`
	case strings.Contains(body.Query, "block(") && hash == childHash:
		data = `{"block": {"number": "11", "hash": "` + childHash + `", "parentHash": "` + parentHash + `"}}`
	default:
		data = `{"block": null}`
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"data": ` + data + `}`))
}

func newClient(t *testing.T, uri string) *remote.Client {
	dir := t.TempDir()
	conf := remote.DefaultRemoteConfig()
	conf.URI = uri
	conf.ConnectionTimeoutS = 5
	conf.RequestTimeoutS = 5
	conf.RetryDelayMs = 10
	client := remote.New(config.New(conf, &dir), logger.Discard())
	require.NoError(t, client.Init())
	return client
}

func TestConnectRetries(t *testing.T) {
	ix := &indexer{}
	ix.failures.Store(2)
	server := httptest.NewServer(ix)
	defer server.Close()

	client := newClient(t, server.URL)
	test_utils.RunPlugin(t, client, true)
	_, err := client.Started().Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), ix.requests.Load())
}

func TestConnectGivesUp(t *testing.T) {
	ix := &indexer{}
	ix.failures.Store(1 << 30)
	server := httptest.NewServer(ix)
	defer server.Close()

	dir := t.TempDir()
	conf := remote.DefaultRemoteConfig()
	conf.URI = server.URL
	conf.ConnectionTimeoutS = 1
	conf.RetryDelayMs = 50
	client := remote.New(config.New(conf, &dir), logger.Discard())
	test_utils.RunPlugin(t, client, true)

	_, err := client.Started().Await(context.Background())
	assert.ErrorIs(t, err, common.ErrDataUnavailable)
}

func TestFetchState(t *testing.T) {
	server := httptest.NewServer(&indexer{})
	defer server.Close()
	client := newClient(t, server.URL)

	state, err := client.FetchState(context.Background(), parentHash)
	require.NoError(t, err)

	assert.Equal(t, uint64(10), state.BlockNumber)
	assert.Equal(t, parentHash, state.BlockHash)
	assert.Equal(t, uint32(7), state.ActiveEra.Unwrap())
	assert.Equal(t, uint64(18446744073709551615), state.TotalIssuance)
	assert.Equal(t, chainstate.StakingLedger{
		Stash:     "val-a",
		Total:     150,
		Active:    100,
		Unlocking: []chainstate.UnlockChunk{{Value: 50, Era: 9}},
	}, state.Ledger["val-a-ctrl"])
	assert.Equal(t, []chainstate.AccountId{"val-a"}, state.VoterList)
	assert.Equal(t, uint64(100), state.WeightOf("val-a"))

	_, err = client.FetchState(context.Background(), "0xcc")
	assert.ErrorIs(t, err, common.ErrDataUnavailable)
}

func TestFetchPair(t *testing.T) {
	server := httptest.NewServer(&indexer{})
	defer server.Close()
	client := newClient(t, server.URL)

	head, err := client.HeadHash(context.Background())
	require.NoError(t, err)
	require.Equal(t, childHash, head)

	states, err := client.FetchPair(context.Background(), head)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, uint64(11), states[0].BlockNumber)
	assert.Equal(t, uint64(10), states[1].BlockNumber)
	assert.Empty(t, states[0].Ledger)

	_, err = client.FetchPair(context.Background(), "0xcc")
	assert.ErrorIs(t, err, common.ErrDataUnavailable)
}
