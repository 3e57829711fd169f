// Package linsolver provides Krylov solvers over CSR systems with a
// preconditioner cache and an orchestrator that falls back across
// solver/preconditioner pairs. Non-convergence is data, not an error.
package linsolver

import (
	"fmt"

	"github.com/gobores/gobores/utils"
)

// System is one linear problem A·x = b with an optional initial guess.
type System struct {
	A  utils.CSR
	B  utils.Vector
	X0 utils.Vector
}

func (s System) dim() (n int, err error) {
	r, c := s.A.Dims()
	if r != c {
		err = fmt.Errorf("linsolver: matrix is %dx%d, want square", r, c)
		return
	}
	if s.B.Len() != r {
		err = fmt.Errorf("linsolver: rhs length %d does not match matrix order %d", s.B.Len(), r)
		return
	}
	return r, nil
}

// guess returns a working copy of the initial iterate.
func (s System) guess(n int) utils.Vector {
	if s.X0.V != nil && s.X0.Len() == n {
		return s.X0.Copy()
	}
	return utils.NewVector(n)
}

func newWork(n int) utils.Vector { return utils.NewVector(n) }

// SolveOutcome reports how a solve went. Solution is valid whenever the
// outcome carries Converged true; otherwise it holds the last iterate.
type SolveOutcome struct {
	Solution       utils.Vector
	Converged      bool
	Iterations     int
	Residual       float64
	Solver         string
	Preconditioner string
}

// Solver is implemented by CG and BiCGStab.
type Solver interface {
	Name() string
	Solve(sys System, pre Preconditioner) (SolveOutcome, error)
}
