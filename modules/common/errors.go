package common

import "errors"

var (
	// Provider or loader failed while reading chain state.
	ErrDataUnavailable = errors.New("data unavailable")
	// A solver returned an error or its solution failed the feasibility check.
	ErrSolverFailure = errors.New("solver failure")
	// The ledger checker was handed input it cannot work with.
	ErrPreconditionViolation = errors.New("precondition violation")
)
