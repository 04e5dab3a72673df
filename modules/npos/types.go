package npos

import (
	"cmp"
)

// Edge is the stake one voter places on one target.
type Edge[A cmp.Ordered] struct {
	Target A      `json:"target" bson:"target"`
	Amount uint64 `json:"amount" bson:"amount"`
}

// StakedAssignment is the full distribution of a single voter's stake.
// The sum of all amounts never exceeds the voter's stake.
type StakedAssignment[A cmp.Ordered] struct {
	Who          A         `json:"who" bson:"who"`
	Distribution []Edge[A] `json:"distribution" bson:"distribution"`
}

func (a StakedAssignment[A]) Total() uint64 {
	var total uint64
	for _, e := range a.Distribution {
		total = satAdd(total, e.Amount)
	}
	return total
}

type Winner[A cmp.Ordered] struct {
	Who    A      `json:"who"`
	Backed uint64 `json:"backed"`
}

type Solution[A cmp.Ordered] struct {
	// Winners in the order they were elected.
	Winners     []Winner[A]
	Assignments []StakedAssignment[A]
	Score       ElectionScore
}

func (s *Solution[A]) WinnerIds() []A {
	ids := make([]A, len(s.Winners))
	for i, w := range s.Winners {
		ids[i] = w.Who
	}
	return ids
}

type BalancingConfig struct {
	Iterations int    `json:"iterations" validate:"gte=0"`
	Tolerance  uint64 `json:"tolerance"`
}

func DefaultBalancing(iterations int) BalancingConfig {
	return BalancingConfig{Iterations: iterations, Tolerance: 0}
}
