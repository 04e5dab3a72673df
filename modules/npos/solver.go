package npos

import (
	"cmp"
	"fmt"
	"strings"

	"staking-timetravel/modules/common"
	"staking-timetravel/modules/common/params"
	"staking-timetravel/modules/snapshot"

	"github.com/JustinKnueppel/go-result"
)

type Algorithm string

const (
	AlgorithmSeqPhragmen Algorithm = "seq-phragmen"
	AlgorithmPhragMMS    Algorithm = "phragmms"
)

// Solver selects an election algorithm together with its balancing
// iterations.
type Solver interface {
	Algorithm() Algorithm
	Balancing() BalancingConfig
	String() string
}

type SeqPhragmenSolver struct {
	Iterations int
}

func (s SeqPhragmenSolver) Algorithm() Algorithm {
	return AlgorithmSeqPhragmen
}

func (s SeqPhragmenSolver) Balancing() BalancingConfig {
	return DefaultBalancing(s.Iterations)
}

func (s SeqPhragmenSolver) String() string {
	return fmt.Sprintf("SeqPhragmen{iterations: %d}", s.Iterations)
}

type PhragMMSSolver struct {
	Iterations int
}

func (s PhragMMSSolver) Algorithm() Algorithm {
	return AlgorithmPhragMMS
}

func (s PhragMMSSolver) Balancing() BalancingConfig {
	return DefaultBalancing(s.Iterations)
}

func (s PhragMMSSolver) String() string {
	return fmt.Sprintf("PhragMMS{iterations: %d}", s.Iterations)
}

var ErrUnknownSolver = fmt.Errorf("unknown solver")

func ParseSolver(name string, iterations int) result.Result[Solver] {
	if iterations < 0 {
		return result.Err[Solver](fmt.Errorf("negative balancing iterations: %d", iterations))
	}
	switch Algorithm(strings.ToLower(name)) {
	case AlgorithmSeqPhragmen, "seqphragmen", "":
		return result.Ok[Solver](SeqPhragmenSolver{Iterations: iterations})
	case AlgorithmPhragMMS:
		return result.Ok[Solver](PhragMMSSolver{Iterations: iterations})
	default:
		return result.Err[Solver](fmt.Errorf("%w: %s", ErrUnknownSolver, name))
	}
}

func DefaultSolver() Solver {
	return SeqPhragmenSolver{Iterations: params.DEFAULT_BALANCING_ITERATIONS}
}

// Mine runs the selected solver and, when requested, re-validates the
// result against the same snapshot.
func Mine[A cmp.Ordered](solver Solver, desired uint32, s *snapshot.Snapshot[A], feasibility bool) (*Solution[A], error) {
	var (
		solution *Solution[A]
		err      error
	)
	switch solver.Algorithm() {
	case AlgorithmSeqPhragmen:
		solution, err = SeqPhragmen(int(desired), s, solver.Balancing())
	case AlgorithmPhragMMS:
		solution, err = PhragMMS(int(desired), s, solver.Balancing())
	default:
		return nil, fmt.Errorf("%w: %w: %s", common.ErrSolverFailure, ErrUnknownSolver, solver)
	}
	if err != nil {
		return nil, err
	}
	if feasibility {
		if err := FeasibilityCheck(solution, s, desired); err != nil {
			return nil, err
		}
	}
	return solution, nil
}
