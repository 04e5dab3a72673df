package npos

import (
	"cmp"
	"fmt"

	"staking-timetravel/lib/utils"
	"staking-timetravel/modules/common"
	"staking-timetravel/modules/snapshot"
)

// FeasibilityCheck re-validates a solution against the snapshot it was mined
// from. Every violation is reported as common.ErrSolverFailure.
func FeasibilityCheck[A cmp.Ordered](solution *Solution[A], s *snapshot.Snapshot[A], desired uint32) error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: feasibility: %s", common.ErrSolverFailure, fmt.Sprintf(format, args...))
	}
	if solution == nil || s == nil {
		return fail("missing solution or snapshot")
	}

	if len(solution.Winners) > int(desired) {
		return fail("%d winners exceed desired targets %d", len(solution.Winners), desired)
	}

	targets := s.TargetIndex()
	winners := make(map[A]struct{}, len(solution.Winners))
	for _, w := range solution.Winners {
		if _, ok := targets[w.Who]; !ok {
			return fail("winner %v is not a snapshot target", w.Who)
		}
		if _, dup := winners[w.Who]; dup {
			return fail("duplicate winner %v", w.Who)
		}
		winners[w.Who] = struct{}{}
	}

	voters := s.VoterIndex()
	seen := make(map[A]struct{}, len(solution.Assignments))
	for _, a := range solution.Assignments {
		vi, ok := voters[a.Who]
		if !ok {
			return fail("assignment for unknown voter %v", a.Who)
		}
		if _, dup := seen[a.Who]; dup {
			return fail("duplicate assignment for voter %v", a.Who)
		}
		seen[a.Who] = struct{}{}

		v := s.Voters[vi]
		nominated := utils.Set(v.Targets)

		var total uint64
		for _, e := range a.Distribution {
			if _, ok := nominated[e.Target]; !ok {
				return fail("voter %v did not nominate %v", a.Who, e.Target)
			}
			if _, ok := winners[e.Target]; !ok {
				return fail("voter %v backs non winner %v", a.Who, e.Target)
			}
			total = satAdd(total, e.Amount)
		}
		if total > v.Stake {
			return fail("voter %v distributes %d over stake %d", a.Who, total, v.Stake)
		}
	}

	recomputed := Evaluate(ToSupports(solution.Assignments))
	if recomputed.Compare(solution.Score) != 0 {
		return fail("claimed score %s, recomputed %s", solution.Score, recomputed)
	}
	return nil
}
