package npos

import (
	"cmp"

	"staking-timetravel/modules/snapshot"

	"github.com/holiman/uint256"
)

type candidate struct {
	idx      int
	approval uint64
	backed   uint64
	elected  bool
	round    int

	// seq-phragmen: score numerator over the load denominator.
	// phragmms: score numerator and denominator.
	score    uint256.Int
	scoreDen uint256.Int
}

type edge struct {
	cand   int
	load   uint256.Int
	weight uint64
}

type voter struct {
	idx    int
	budget uint64
	load   uint256.Int
	edges  []edge
}

// setupInputs builds the solver graph. Edges to unknown targets and
// duplicate edges are dropped.
func setupInputs[A cmp.Ordered](s *snapshot.Snapshot[A]) ([]*candidate, []*voter) {
	targetIdx := s.TargetIndex()
	candidates := make([]*candidate, len(s.Targets))
	for i := range s.Targets {
		candidates[i] = &candidate{idx: i}
	}

	voters := make([]*voter, 0, len(s.Voters))
	for vi, v := range s.Voters {
		seen := make(map[int]struct{}, len(v.Targets))
		edges := make([]edge, 0, len(v.Targets))
		for _, t := range v.Targets {
			ci, ok := targetIdx[t]
			if !ok {
				continue
			}
			if _, dup := seen[ci]; dup {
				continue
			}
			seen[ci] = struct{}{}
			edges = append(edges, edge{cand: ci})
			candidates[ci].approval = satAdd(candidates[ci].approval, v.Stake)
		}
		voters = append(voters, &voter{idx: vi, budget: v.Stake, edges: edges})
	}
	return candidates, voters
}

// normalize hands the rounding remainder of every voter back to its
// positive elected edges, one unit each in edge order.
func normalize(voters []*voter, candidates []*candidate) {
	for _, v := range voters {
		var used uint64
		positive := 0
		for _, e := range v.edges {
			if candidates[e.cand].elected && e.weight > 0 {
				used = satAdd(used, e.weight)
				positive++
			}
		}
		if positive == 0 || used >= v.budget {
			continue
		}
		remainder := v.budget - used
		for remainder > 0 {
			for i := range v.edges {
				e := &v.edges[i]
				if remainder == 0 {
					break
				}
				if !candidates[e.cand].elected || e.weight == 0 {
					continue
				}
				e.weight++
				candidates[e.cand].backed = satAdd(candidates[e.cand].backed, 1)
				remainder--
			}
		}
	}
}

func buildSolution[A cmp.Ordered](
	s *snapshot.Snapshot[A],
	elected []*candidate,
	candidates []*candidate,
	voters []*voter,
) *Solution[A] {
	winners := make([]Winner[A], len(elected))
	for i, c := range elected {
		winners[i] = Winner[A]{Who: s.Targets[c.idx], Backed: c.backed}
	}

	assignments := make([]StakedAssignment[A], 0, len(voters))
	for _, v := range voters {
		dist := make([]Edge[A], 0, len(v.edges))
		for _, e := range v.edges {
			if candidates[e.cand].elected && e.weight > 0 {
				dist = append(dist, Edge[A]{Target: s.Targets[e.cand], Amount: e.weight})
			}
		}
		if len(dist) == 0 {
			continue
		}
		assignments = append(assignments, StakedAssignment[A]{
			Who:          s.Voters[v.idx].Id,
			Distribution: dist,
		})
	}

	return &Solution[A]{
		Winners:     winners,
		Assignments: assignments,
		Score:       Evaluate(ToSupports(assignments)),
	}
}
