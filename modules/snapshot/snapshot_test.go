package snapshot_test

import (
	"testing"

	"staking-timetravel/modules/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() *snapshot.Snapshot[string] {
	return snapshot.New(
		[]snapshot.Voter[string]{
			{Id: "alice", Stake: 20, Targets: []string{"v1", "v2"}},
			{Id: "bob", Stake: 10, Targets: []string{"v2"}},
		},
		[]string{"v1", "v2"},
	)
}

func TestMetadata(t *testing.T) {
	s := fixture()
	meta := s.Metadata()
	assert.Equal(t, snapshot.Metadata{Voters: 2, Targets: 2}, meta)
	assert.True(t, meta.Matches(snapshot.Metadata{Voters: 2, Targets: 2}))
	assert.False(t, meta.Matches(snapshot.Metadata{Voters: 1, Targets: 2}))
	assert.Equal(t, uint64(30), s.TotalStake())
}

func TestEncodingRoundTrip(t *testing.T) {
	s := fixture()

	raw, err := s.Encode()
	require.NoError(t, err)
	size, err := s.EncodedSize()
	require.NoError(t, err)
	assert.Equal(t, len(raw), size)

	decoded, err := snapshot.Decode[string](raw)
	require.NoError(t, err)
	assert.Equal(t, s.Voters, decoded.Voters)
	assert.Equal(t, s.Targets, decoded.Targets)

	c1, err := s.Cid()
	require.NoError(t, err)
	c2, err := decoded.Cid()
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
}

func TestCloneIsDeep(t *testing.T) {
	s := fixture()
	c := s.Clone()
	c.Voters[0].Targets[0] = "v9"
	c.Targets[0] = "v9"
	assert.Equal(t, "v1", s.Voters[0].Targets[0])
	assert.Equal(t, "v1", s.Targets[0])
}

func TestSizeGrowsWithVoters(t *testing.T) {
	s := fixture()
	small, err := s.EncodedSize()
	require.NoError(t, err)

	s.Voters = append(s.Voters, snapshot.Voter[string]{Id: "carol", Stake: 5, Targets: []string{"v1"}})
	large, err := s.EncodedSize()
	require.NoError(t, err)
	assert.Greater(t, large, small)
}
