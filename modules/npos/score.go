package npos

import (
	"cmp"
	"fmt"

	"github.com/holiman/uint256"
)

// ElectionScore reduces a set of supports into a comparable value. All
// components behave as u128 and saturate at 2^128-1.
type ElectionScore struct {
	MinimalStake    uint256.Int
	SumStake        uint256.Int
	SumStakeSquared uint256.Int
}

var maxU128 = func() uint256.Int {
	var v uint256.Int
	v.Lsh(uint256.NewInt(1), 128)
	v.Sub(&v, uint256.NewInt(1))
	return v
}()

// MaxU128 returns the saturation bound of every score component.
func MaxU128() uint256.Int {
	return maxU128
}

func clampU128(v *uint256.Int) *uint256.Int {
	if v.Gt(&maxU128) {
		v.Set(&maxU128)
	}
	return v
}

// saturatingAdd128 returns a+b capped at 2^128-1.
func saturatingAdd128(a, b *uint256.Int) uint256.Int {
	var out uint256.Int
	if _, overflow := out.AddOverflow(a, b); overflow {
		return maxU128
	}
	clampU128(&out)
	return out
}

func saturatingMul128(a, b *uint256.Int) uint256.Int {
	var out uint256.Int
	if _, overflow := out.MulOverflow(a, b); overflow {
		return maxU128
	}
	clampU128(&out)
	return out
}

// Evaluate computes the score of the given winner supports. Empty input
// yields the all zero score.
func Evaluate[A cmp.Ordered](supports []Support[A]) ElectionScore {
	score := ElectionScore{}
	for i, s := range supports {
		total := s.Total
		clampU128(&total)
		if i == 0 || total.Lt(&score.MinimalStake) {
			score.MinimalStake = total
		}
		score.SumStake = saturatingAdd128(&score.SumStake, &total)
		sq := saturatingMul128(&total, &total)
		score.SumStakeSquared = saturatingAdd128(&score.SumStakeSquared, &sq)
	}
	return score
}

// Compare orders scores by higher minimal stake, then higher sum, then
// lower sum of squares. Returns 1 when s is better than other.
func (s ElectionScore) Compare(other ElectionScore) int {
	if c := s.MinimalStake.Cmp(&other.MinimalStake); c != 0 {
		return c
	}
	if c := s.SumStake.Cmp(&other.SumStake); c != 0 {
		return c
	}
	return other.SumStakeSquared.Cmp(&s.SumStakeSquared)
}

func (s ElectionScore) StrictlyBetter(other ElectionScore) bool {
	return s.Compare(other) > 0
}

func (s ElectionScore) IsZero() bool {
	return s.MinimalStake.IsZero() && s.SumStake.IsZero() && s.SumStakeSquared.IsZero()
}

// Strings renders the triple as decimal strings for report rows.
func (s ElectionScore) Strings() (string, string, string) {
	return s.MinimalStake.Dec(), s.SumStake.Dec(), s.SumStakeSquared.Dec()
}

func (s ElectionScore) String() string {
	minimal, sum, sq := s.Strings()
	return fmt.Sprintf("{minimal_stake: %s, sum_stake: %s, sum_stake_squared: %s}", minimal, sum, sq)
}
