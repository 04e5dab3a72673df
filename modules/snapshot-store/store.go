package snapshotstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"staking-timetravel/lib/logger"
	a "staking-timetravel/modules/aggregate"
	chainstate "staking-timetravel/modules/chain-state"
	"staking-timetravel/modules/common"

	"github.com/chebyrash/promise"
	"github.com/ipfs/go-datastore"
	flatfs "github.com/ipfs/go-ds-flatfs"
	cbornode "github.com/ipfs/go-ipld-cbor"
	"github.com/multiformats/go-multihash"
)

// Store keeps extracted chain states on disk, one DAG-CBOR file per block
// hash.
type Store struct {
	path string
	log  *slog.Logger

	mtx sync.Mutex
	ds  *flatfs.Datastore
}

var _ a.Plugin = &Store{}

func New(path string, log ...*slog.Logger) *Store {
	var l *slog.Logger
	if len(log) > 0 {
		l = log[0]
	}
	return &Store{path: path, log: logger.Service(l, "snapshot-store")}
}

// Init implements aggregate.Plugin.
func (s *Store) Init() error {
	RegisterCbor()
	if err := os.MkdirAll(s.path, 0755); err != nil {
		return err
	}
	ds, err := flatfs.CreateOrOpen(s.path, flatfs.NextToLast(2), false)
	if err != nil {
		return fmt.Errorf("open snapshot store at %s: %w", s.path, err)
	}
	s.ds = ds
	return nil
}

// Start implements aggregate.Plugin.
func (s *Store) Start() *promise.Promise[any] {
	return promise.New(func(resolve func(any), reject func(error)) {
		resolve(nil)
	})
}

// Stop implements aggregate.Plugin.
func (s *Store) Stop() error {
	if s.ds == nil {
		return nil
	}
	return s.ds.Close()
}

func (s *Store) Path() string {
	return s.path
}

// key maps a block hash onto the flatfs key alphabet.
func key(blockHash string) (datastore.Key, error) {
	h := strings.ToUpper(strings.TrimPrefix(blockHash, "0x"))
	if len(h) < 2 {
		return datastore.Key{}, fmt.Errorf("%w: block hash %q too short", common.ErrPreconditionViolation, blockHash)
	}
	for _, c := range h {
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'F') {
			return datastore.Key{}, fmt.Errorf("%w: block hash %q is not hex", common.ErrPreconditionViolation, blockHash)
		}
	}
	return datastore.NewKey(h), nil
}

func (s *Store) Save(ctx context.Context, state *chainstate.ChainState) error {
	k, err := key(state.BlockHash)
	if err != nil {
		return err
	}
	record, err := toRecord(state)
	if err != nil {
		return fmt.Errorf("encode %s: %w", state, err)
	}
	node, err := cbornode.WrapObject(record, multihash.SHA2_256, -1)
	if err != nil {
		return fmt.Errorf("encode %s: %w", state, err)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()
	if err := s.ds.Put(ctx, k, node.RawData()); err != nil {
		return fmt.Errorf("store %s: %w", state, err)
	}
	s.log.Debug("stored chain state", "block", state.BlockNumber, "hash", state.BlockHash, "cid", node.Cid().String(), "size", len(node.RawData()))
	return nil
}

func (s *Store) Has(ctx context.Context, blockHash string) (bool, error) {
	k, err := key(blockHash)
	if err != nil {
		return false, err
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.ds.Has(ctx, k)
}

// Load reads back the state stored for blockHash. A missing state is
// reported as common.ErrDataUnavailable.
func (s *Store) Load(ctx context.Context, blockHash string) (*chainstate.ChainState, error) {
	k, err := key(blockHash)
	if err != nil {
		return nil, err
	}

	s.mtx.Lock()
	raw, err := s.ds.Get(ctx, k)
	s.mtx.Unlock()
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return nil, fmt.Errorf("%w: no stored state for block %s", common.ErrDataUnavailable, blockHash)
		}
		return nil, err
	}

	record := stateRecord{}
	if err := cbornode.DecodeInto(raw, &record); err != nil {
		return nil, fmt.Errorf("decode state for block %s: %w", blockHash, err)
	}
	return record.toState()
}
