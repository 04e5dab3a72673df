package remote

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"staking-timetravel/lib/logger"
	"staking-timetravel/lib/utils"
	a "staking-timetravel/modules/aggregate"
	chainstate "staking-timetravel/modules/chain-state"
	"staking-timetravel/modules/common"
	"staking-timetravel/modules/config"
	start_status "staking-timetravel/modules/start-status"

	"github.com/chebyrash/promise"
	"github.com/hasura/go-graphql-client"
)

// Client reads staking storage of historical blocks from an indexer's
// graphql endpoint.
type Client struct {
	conf *config.Config[RemoteConfig]
	log  *slog.Logger

	gql     *graphql.Client
	timeout time.Duration

	status *start_status.Status
	cancel context.CancelFunc
}

var _ a.Plugin = &Client{}
var _ start_status.Starter = &Client{}

func New(conf *config.Config[RemoteConfig], log ...*slog.Logger) *Client {
	var l *slog.Logger
	if len(log) > 0 {
		l = log[0]
	}
	return &Client{conf: conf, log: logger.Service(l, "remote")}
}

// Init implements aggregate.Plugin.
func (c *Client) Init() error {
	conf := c.conf.Get()
	c.timeout = conf.RequestTimeout()
	c.gql = graphql.NewClient(conf.URI, &http.Client{Timeout: c.timeout})
	c.status = start_status.New()
	return nil
}

// Start implements aggregate.Plugin. It resolves right away; the connection
// is retried in the background until the connection timeout elapses and
// Started reports the outcome.
func (c *Client) Start() *promise.Promise[any] {
	conf := c.conf.Get()
	ctx, cancel := context.WithTimeout(context.Background(), conf.ConnectionTimeout())
	c.cancel = cancel
	go func() {
		defer cancel()
		head, err := c.connect(ctx, conf.RetryDelay())
		if err != nil {
			c.log.Error("giving up on indexer", "uri", conf.URI, "err", err)
			c.status.Fail(err)
			return
		}
		c.log.Info("connected", "uri", conf.URI, "head", head.Number, "hash", head.Hash)
		c.status.Trigger()
	}()
	return utils.PromiseResolve[any](nil)
}

// Started resolves once the indexer answered a chain head query.
func (c *Client) Started() *promise.Promise[any] {
	return c.status.Started()
}

// Stop implements aggregate.Plugin.
func (c *Client) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *Client) connect(ctx context.Context, retryDelay time.Duration) (Header, error) {
	for attempt := 1; ; attempt++ {
		head, err := c.Head(ctx)
		if err == nil {
			return head, nil
		}
		c.log.Warn("connection to indexer failed", "attempt", attempt, "err", err)

		select {
		case <-ctx.Done():
			return Header{}, fmt.Errorf("%w: indexer unreachable after %d attempts: %w", common.ErrDataUnavailable, attempt, err)
		case <-time.After(retryDelay):
		}
	}
}

func (c *Client) request(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// Head returns the latest block known to the indexer.
func (c *Client) Head(ctx context.Context) (Header, error) {
	ctx, cancel := c.request(ctx)
	defer cancel()

	var q headQuery
	if err := c.gql.Query(ctx, &q, nil, graphql.OperationName("ChainHead")); err != nil {
		return Header{}, err
	}
	return q.Head, nil
}

// HeadHash returns the hash of the latest block known to the indexer.
func (c *Client) HeadHash(ctx context.Context) (string, error) {
	head, err := c.Head(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: chain head: %w", common.ErrDataUnavailable, err)
	}
	return head.Hash, nil
}

// ParentHash returns the parent of blockHash.
func (c *Client) ParentHash(ctx context.Context, blockHash string) (string, error) {
	ctx, cancel := c.request(ctx)
	defer cancel()

	var q blockQuery
	vars := map[string]any{"hash": blockHash}
	if err := c.gql.Query(ctx, &q, vars, graphql.OperationName("BlockHeader")); err != nil {
		return "", fmt.Errorf("%w: header of %s: %w", common.ErrDataUnavailable, blockHash, err)
	}
	if q.Block == nil {
		return "", fmt.Errorf("%w: unknown block %s", common.ErrDataUnavailable, blockHash)
	}
	return q.Block.ParentHash, nil
}

// FetchState reads the staking storage at blockHash. The result is validated
// before it is returned.
func (c *Client) FetchState(ctx context.Context, blockHash string) (*chainstate.ChainState, error) {
	ctx, cancel := c.request(ctx)
	defer cancel()

	start := time.Now()
	var q stateQuery
	vars := map[string]any{"hash": blockHash}
	if err := c.gql.Query(ctx, &q, vars, graphql.OperationName("StakingState")); err != nil {
		return nil, fmt.Errorf("%w: staking state of %s: %w", common.ErrDataUnavailable, blockHash, err)
	}
	if q.State == nil {
		return nil, fmt.Errorf("%w: no staking state for %s", common.ErrDataUnavailable, blockHash)
	}

	state, err := q.State.toState(blockHash)
	if err != nil {
		return nil, fmt.Errorf("%w: staking state of %s: %w", common.ErrDataUnavailable, blockHash, err)
	}
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("%w: staking state of %s: %w", common.ErrDataUnavailable, blockHash, err)
	}
	if len(state.VoterList) == 0 {
		state.SortVoterList()
	}

	c.log.Debug("fetched staking state",
		"block", state.BlockNumber,
		"hash", blockHash,
		"ledgers", len(state.Ledger),
		"voters", state.VoterCount(),
		"took", time.Since(start),
	)
	return state, nil
}

// FetchPair reads blockHash and its parent concurrently, returning the child
// first.
func (c *Client) FetchPair(ctx context.Context, blockHash string) ([]*chainstate.ChainState, error) {
	parentHash, err := c.ParentHash(ctx, blockHash)
	if err != nil {
		return nil, err
	}

	fetch := func(hash string) *promise.Promise[*chainstate.ChainState] {
		return promise.New(func(resolve func(*chainstate.ChainState), reject func(error)) {
			state, err := c.FetchState(ctx, hash)
			if err != nil {
				reject(err)
				return
			}
			resolve(state)
		})
	}

	states, err := promise.All(ctx, fetch(blockHash), fetch(parentHash)).Await(ctx)
	if err != nil {
		return nil, err
	}
	return *states, nil
}
