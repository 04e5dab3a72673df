package npos

import (
	"cmp"
	"slices"

	"github.com/holiman/uint256"
)

type Backing[A cmp.Ordered] struct {
	Who    A      `json:"who" bson:"who"`
	Amount uint64 `json:"amount" bson:"amount"`
}

// Support is the total stake backing a target across all assignments.
type Support[A cmp.Ordered] struct {
	Target A            `json:"target"`
	Total  uint256.Int  `json:"total"`
	Voters []Backing[A] `json:"voters"`
}

// ToSupports folds staked assignments into per target supports, ordered by
// target id.
func ToSupports[A cmp.Ordered](assignments []StakedAssignment[A]) []Support[A] {
	byTarget := make(map[A]*Support[A])
	for _, a := range assignments {
		for _, e := range a.Distribution {
			s, ok := byTarget[e.Target]
			if !ok {
				s = &Support[A]{Target: e.Target}
				byTarget[e.Target] = s
			}
			total := saturatingAdd128(&s.Total, uint256.NewInt(e.Amount))
			s.Total = total
			s.Voters = append(s.Voters, Backing[A]{Who: a.Who, Amount: e.Amount})
		}
	}

	supports := make([]Support[A], 0, len(byTarget))
	for _, s := range byTarget {
		supports = append(supports, *s)
	}
	slices.SortFunc(supports, func(a, b Support[A]) int {
		return cmp.Compare(a.Target, b.Target)
	})
	return supports
}

// SortByTotalDesc orders supports by total descending, ties by target id.
func SortByTotalDesc[A cmp.Ordered](supports []Support[A]) {
	slices.SortStableFunc(supports, func(a, b Support[A]) int {
		if c := b.Total.Cmp(&a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Target, b.Target)
	})
}
