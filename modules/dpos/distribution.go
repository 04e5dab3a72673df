package dpos

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"staking-timetravel/modules/snapshot"
)

// Policy decides how a voter's stake is split over a ranked target list.
type Policy string

const (
	ProRata Policy = "pro-rata"
	// Pareto gives the top 20% of the list 80% of the stake.
	Pareto Policy = "pareto"
)

var ErrUnknownPolicy = fmt.Errorf("unknown share distribution policy")

func ParsePolicy(name string) (Policy, error) {
	switch Policy(strings.ToLower(name)) {
	case ProRata, "prorata", "":
		return ProRata, nil
	case Pareto:
		return Pareto, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownPolicy, name)
	}
}

type Share[A cmp.Ordered] struct {
	Target A
	Amount uint64
}

type TargetStake[A cmp.Ordered] struct {
	Target A
	Stake  uint64
}

// SortedTargets ranks every nominated target by the total stake of the voters
// nominating it, ascending, ties broken by target id.
type SortedTargets[A cmp.Ordered] struct {
	ranked []TargetStake[A]
	rank   map[A]int
}

func NewSortedTargets[A cmp.Ordered](voters []snapshot.Voter[A]) *SortedTargets[A] {
	totals := make(map[A]uint64)
	for _, v := range voters {
		for _, t := range v.Targets {
			totals[t] = satAdd(totals[t], v.Stake)
		}
	}

	ranked := make([]TargetStake[A], 0, len(totals))
	for t, stake := range totals {
		ranked = append(ranked, TargetStake[A]{Target: t, Stake: stake})
	}
	slices.SortFunc(ranked, func(a, b TargetStake[A]) int {
		if c := cmp.Compare(a.Stake, b.Stake); c != 0 {
			return c
		}
		return cmp.Compare(a.Target, b.Target)
	})

	rank := make(map[A]int, len(ranked))
	for i, ts := range ranked {
		rank[ts.Target] = i
	}
	return &SortedTargets[A]{ranked: ranked, rank: rank}
}

func satAdd(a, b uint64) uint64 {
	if sum := a + b; sum >= a {
		return sum
	}
	return math.MaxUint64
}

func (s *SortedTargets[A]) Targets() []A {
	out := make([]A, len(s.ranked))
	for i, ts := range s.ranked {
		out[i] = ts.Target
	}
	return out
}

func (s *SortedTargets[A]) Stakes() []TargetStake[A] {
	return slices.Clone(s.ranked)
}

func (s *SortedTargets[A]) Len() int {
	return len(s.ranked)
}

// Order returns the distinct targets of the given list in ranking order.
// Targets unknown to the ranking go last, by id.
func (s *SortedTargets[A]) Order(targets []A) []A {
	out := make([]A, 0, len(targets))
	seen := make(map[A]struct{}, len(targets))
	for _, t := range targets {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	slices.SortStableFunc(out, func(a, b A) int {
		ra, oka := s.rank[a]
		rb, okb := s.rank[b]
		switch {
		case oka && okb:
			return cmp.Compare(ra, rb)
		case oka:
			return -1
		case okb:
			return 1
		}
		return cmp.Compare(a, b)
	})
	return out
}

// ShareDistribution splits weight over every listed target according to the
// policy. The list is expected in ascending aggregate stake order.
func ShareDistribution[A cmp.Ordered](targets []A, weight uint64, policy Policy) []Share[A] {
	if len(targets) == 0 {
		return []Share[A]{}
	}

	shares := make([]Share[A], len(targets))
	switch policy {
	case Pareto:
		split := len(targets) * 4 / 5
		bottom, top := targets[:split], targets[split:]
		bottomWeight := weight / 5
		topWeight := (weight/5)*4 + (weight%5)*4/5

		for i, t := range bottom {
			shares[i] = Share[A]{Target: t, Amount: bottomWeight / uint64(len(bottom))}
		}
		for i, t := range top {
			shares[split+i] = Share[A]{Target: t, Amount: topWeight / uint64(len(top))}
		}
	default:
		each := weight / uint64(len(targets))
		for i, t := range targets {
			shares[i] = Share[A]{Target: t, Amount: each}
		}
	}
	return shares
}
