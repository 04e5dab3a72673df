package electionprovider

import (
	chainstate "staking-timetravel/modules/chain-state"
	"staking-timetravel/modules/dpos"
	"staking-timetravel/modules/npos"
)

// MineWith runs solver over the stored snapshot. With feasibility set the
// solution is re-validated and a failure is returned as an error.
func (p *Provider) MineWith(state *chainstate.ChainState, solver npos.Solver, feasibility bool) (*npos.Solution[chainstate.AccountId], error) {
	s, desired, err := StoredSnapshot(state)
	if err != nil {
		return nil, err
	}
	solution, err := npos.Mine(solver, desired, s, feasibility)
	if err != nil {
		p.log.Error("mining failed", "block", state.BlockNumber, "solver", solver.String(), "err", err)
		return nil, err
	}
	p.log.Info("mined a npos-like solution",
		"block", state.BlockNumber,
		"solver", solver.String(),
		"score", solution.Score.String(),
		"voters", len(s.Voters),
		"targets", len(s.Targets),
	)
	return solution, nil
}

// MineDpos runs the delegated stake heuristic over the stored snapshot.
func (p *Provider) MineDpos(state *chainstate.ChainState, policy dpos.Policy) (npos.ElectionScore, error) {
	s, desired, err := StoredSnapshot(state)
	if err != nil {
		return npos.ElectionScore{}, err
	}
	score, _, err := dpos.Mine(s, desired, policy, p.log)
	return score, err
}
