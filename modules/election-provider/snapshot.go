package electionprovider

import (
	"errors"
	"fmt"

	chainstate "staking-timetravel/modules/chain-state"
	"staking-timetravel/modules/common"
	"staking-timetravel/modules/snapshot"

	"github.com/moznion/go-optional"
)

var ErrSnapshotMismatch = errors.New("stored snapshot does not match its metadata")

// Bounds caps the voters and targets taken into a snapshot. None means no
// cap.
type Bounds struct {
	Voters  optional.Option[int]
	Targets optional.Option[int]
}

// BoundedBounds uses the profile's electing voter cap, or the whole voter
// list when the profile leaves it unset.
func (p *Provider) BoundedBounds(state *chainstate.ChainState) Bounds {
	return Bounds{
		Voters:  optional.Some(p.maxElectingVoters().TakeOr(state.VoterCount())),
		Targets: optional.Some(int(p.profile.MaxElectableTargets())),
	}
}

func (p *Provider) UnboundedBounds(state *chainstate.ChainState) Bounds {
	return Bounds{
		Voters:  optional.Some(state.VoterCount()),
		Targets: optional.Some(int(p.profile.MaxElectableTargets())),
	}
}

// CreateSnapshot enumerates voters and targets within bounds and stores the
// snapshot, its metadata and the desired targets in the election provider
// storage of state. The stored snapshot is read back before returning.
func (p *Provider) CreateSnapshot(state *chainstate.ChainState, bounds Bounds) (snapshot.Metadata, int, error) {
	targets, err := state.ElectableTargets(bounds.Targets)
	if err != nil {
		return snapshot.Metadata{}, 0, fmt.Errorf("electable targets: %w", err)
	}
	voters, err := state.ElectingVoters(bounds.Voters, p.coefficient)
	if err != nil {
		return snapshot.Metadata{}, 0, fmt.Errorf("electing voters: %w", err)
	}

	desired := state.ElectionProvider.DesiredTargets.TakeOr(state.ValidatorCount)
	if int(desired) > len(targets) {
		p.log.Warn("desired targets capped to the number of electable targets",
			"block", state.BlockNumber,
			"desired", desired,
			"targets", len(targets),
		)
		desired = uint32(len(targets))
	}

	s := snapshot.New(voters, targets)
	state.ElectionProvider.Metadata = optional.Some(s.Metadata())
	state.ElectionProvider.DesiredTargets = optional.Some(desired)
	state.ElectionProvider.Snapshot = s

	return p.readBack(state)
}

// readBack returns the stored metadata and encoded snapshot size, failing
// when storage and metadata disagree.
func (p *Provider) readBack(state *chainstate.ChainState) (snapshot.Metadata, int, error) {
	stored := state.ElectionProvider.Snapshot
	if stored == nil {
		return snapshot.Metadata{}, 0, fmt.Errorf("%w: snapshot missing after write", common.ErrDataUnavailable)
	}
	meta, err := state.ElectionProvider.Metadata.Take()
	if err != nil {
		return snapshot.Metadata{}, 0, fmt.Errorf("%w: snapshot metadata missing", common.ErrDataUnavailable)
	}
	if !meta.Matches(stored.Metadata()) {
		return snapshot.Metadata{}, 0, fmt.Errorf("%w: metadata %s, snapshot %s", ErrSnapshotMismatch, meta, stored.Metadata())
	}
	size, err := stored.EncodedSize()
	if err != nil {
		return snapshot.Metadata{}, 0, fmt.Errorf("encode snapshot: %w", err)
	}
	return meta, size, nil
}

// SnapshotDataOrForce returns the existing snapshot's metadata and size, or
// builds a bounded snapshot first when none is stored.
func (p *Provider) SnapshotDataOrForce(state *chainstate.ChainState) (snapshot.Metadata, int, error) {
	if state.ElectionProvider.Snapshot != nil {
		p.log.Info("snapshot already exists", "block", state.BlockNumber)
		return p.readBack(state)
	}
	p.log.Info("creating a snapshot now", "block", state.BlockNumber)
	return p.CreateSnapshot(state, p.BoundedBounds(state))
}

// ComputeAndStoreUnboundedSnapshot replaces the stored snapshot with one
// that takes every voter in the voter list.
func (p *Provider) ComputeAndStoreUnboundedSnapshot(state *chainstate.ChainState) (snapshot.Metadata, int, error) {
	state.ElectionProvider.KillSnapshot()
	meta, size, err := p.CreateSnapshot(state, p.UnboundedBounds(state))
	if err != nil {
		return meta, size, err
	}
	p.log.Info("stored unbounded snapshot", "block", state.BlockNumber, "metadata", meta.String(), "size", size)
	return meta, size, nil
}

// StoredSnapshot returns the snapshot and desired targets currently held by
// state.
func StoredSnapshot(state *chainstate.ChainState) (*snapshot.Snapshot[chainstate.AccountId], uint32, error) {
	s := state.ElectionProvider.Snapshot
	if s == nil {
		return nil, 0, fmt.Errorf("%w: no snapshot stored for %s", common.ErrDataUnavailable, state)
	}
	desired, err := state.ElectionProvider.DesiredTargets.Take()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: no desired targets stored for %s", common.ErrDataUnavailable, state)
	}
	return s, desired, nil
}
