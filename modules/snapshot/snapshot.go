package snapshot

import (
	"cmp"
	"fmt"
	"reflect"
	"sync"

	"staking-timetravel/lib/utils"

	"github.com/ipfs/go-cid"
	cbornode "github.com/ipfs/go-ipld-cbor"
	"github.com/multiformats/go-multihash"
)

// Voter is one electing voter: its stake and the ordered targets it backs.
type Voter[A cmp.Ordered] struct {
	Id      A      `json:"id" refmt:"id"`
	Stake   uint64 `json:"stake" refmt:"stake"`
	Targets []A    `json:"targets" refmt:"targets"`
}

// Snapshot is the frozen input of one election computation.
type Snapshot[A cmp.Ordered] struct {
	Voters  []Voter[A] `json:"voters" refmt:"voters"`
	Targets []A        `json:"targets" refmt:"targets"`
}

type Metadata struct {
	Voters  uint32 `json:"voters" refmt:"voters"`
	Targets uint32 `json:"targets" refmt:"targets"`
}

func (m Metadata) Matches(other Metadata) bool {
	return m.Voters == other.Voters && m.Targets == other.Targets
}

func (m Metadata) String() string {
	return fmt.Sprintf("{voters: %d, targets: %d}", m.Voters, m.Targets)
}

func New[A cmp.Ordered](voters []Voter[A], targets []A) *Snapshot[A] {
	return &Snapshot[A]{Voters: voters, Targets: targets}
}

func (s *Snapshot[A]) Metadata() Metadata {
	return Metadata{
		Voters:  uint32(len(s.Voters)),
		Targets: uint32(len(s.Targets)),
	}
}

// Clone returns a deep copy; snapshots handed to solvers are never shared.
func (s *Snapshot[A]) Clone() *Snapshot[A] {
	voters := make([]Voter[A], len(s.Voters))
	for i, v := range s.Voters {
		voters[i] = Voter[A]{
			Id:      v.Id,
			Stake:   v.Stake,
			Targets: append([]A(nil), v.Targets...),
		}
	}
	return &Snapshot[A]{
		Voters:  voters,
		Targets: append([]A(nil), s.Targets...),
	}
}

// TargetIndex maps every target to its position in the snapshot.
func (s *Snapshot[A]) TargetIndex() map[A]int {
	idx := make(map[A]int, len(s.Targets))
	for i, t := range s.Targets {
		idx[t] = i
	}
	return idx
}

func (s *Snapshot[A]) VoterIndex() map[A]int {
	idx := make(map[A]int, len(s.Voters))
	for i, v := range s.Voters {
		idx[v.Id] = i
	}
	return idx
}

func (s *Snapshot[A]) TotalStake() uint64 {
	return utils.Sum(utils.Map(s.Voters, func(v Voter[A]) uint64 { return v.Stake }))
}

var registered sync.Map

// RegisterCbor registers the snapshot types instantiated with A with the
// ipld cbor atlas. Safe to call more than once.
func RegisterCbor[A cmp.Ordered]() {
	key := reflect.TypeOf(Snapshot[A]{})
	if _, loaded := registered.LoadOrStore(key, struct{}{}); loaded {
		return
	}
	cbornode.RegisterCborType(Voter[A]{})
	cbornode.RegisterCborType(Snapshot[A]{})
}

func init() {
	cbornode.RegisterCborType(Metadata{})
}

func (s *Snapshot[A]) node() (*cbornode.Node, error) {
	RegisterCbor[A]()
	return cbornode.WrapObject(*s, multihash.SHA2_256, -1)
}

// Encode returns the DAG-CBOR encoding of the snapshot.
func (s *Snapshot[A]) Encode() ([]byte, error) {
	node, err := s.node()
	if err != nil {
		return nil, err
	}
	return node.RawData(), nil
}

// EncodedSize is the snapshot size reported alongside every analysis.
func (s *Snapshot[A]) EncodedSize() (int, error) {
	raw, err := s.Encode()
	if err != nil {
		return 0, err
	}
	return len(raw), nil
}

func (s *Snapshot[A]) Cid() (cid.Cid, error) {
	node, err := s.node()
	if err != nil {
		return cid.Undef, err
	}
	return node.Cid(), nil
}

func Decode[A cmp.Ordered](raw []byte) (*Snapshot[A], error) {
	RegisterCbor[A]()
	s := Snapshot[A]{}
	if err := cbornode.DecodeInto(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
