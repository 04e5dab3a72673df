package dpos

import (
	"cmp"
	"fmt"
	"log/slog"

	"staking-timetravel/lib/logger"
	"staking-timetravel/modules/common"
	"staking-timetravel/modules/npos"
	"staking-timetravel/modules/snapshot"
)

// Mine runs the delegated stake heuristic: every voter's stake is spread
// over its own targets, ranked by the run's SortedTargets, and the top
// desired supports win.
func Mine[A cmp.Ordered](
	s *snapshot.Snapshot[A],
	desired uint32,
	policy Policy,
	log *slog.Logger,
) (npos.ElectionScore, []npos.Support[A], error) {
	log = logger.Service(log, "dpos")
	if s == nil {
		return npos.ElectionScore{}, nil, fmt.Errorf("%w: dpos: nil snapshot", common.ErrSolverFailure)
	}

	voters := electableOnly(s)
	ranking := NewSortedTargets(voters)
	assignments := make([]npos.StakedAssignment[A], 0, len(voters))
	for _, v := range voters {
		if v.Stake == 0 || len(v.Targets) == 0 {
			log.Warn("bad voter, skipping", "voter", v.Id, "stake", v.Stake, "targets", len(v.Targets))
			continue
		}

		shares := ShareDistribution(ranking.Order(v.Targets), v.Stake, policy)
		dist := make([]npos.Edge[A], 0, len(shares))
		for _, share := range shares {
			if share.Amount == 0 {
				continue
			}
			dist = append(dist, npos.Edge[A]{Target: share.Target, Amount: share.Amount})
		}
		if len(dist) == 0 {
			continue
		}
		assignments = append(assignments, npos.StakedAssignment[A]{Who: v.Id, Distribution: dist})
	}

	supports := npos.ToSupports(assignments)
	npos.SortByTotalDesc(supports)
	if len(supports) > int(desired) {
		supports = supports[:desired]
	}

	score := npos.Evaluate(supports)
	log.Info("mined a dpos-like solution", "policy", policy, "winners", len(supports), "score", score.String())
	return score, supports, nil
}

// electableOnly drops the nominations of accounts that are not in the
// snapshot's target list.
func electableOnly[A cmp.Ordered](s *snapshot.Snapshot[A]) []snapshot.Voter[A] {
	index := s.TargetIndex()
	voters := make([]snapshot.Voter[A], 0, len(s.Voters))
	for _, v := range s.Voters {
		targets := make([]A, 0, len(v.Targets))
		for _, t := range v.Targets {
			if _, ok := index[t]; ok {
				targets = append(targets, t)
			}
		}
		voters = append(voters, snapshot.Voter[A]{Id: v.Id, Stake: v.Stake, Targets: targets})
	}
	return voters
}
