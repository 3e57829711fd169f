package linsolver

import "fmt"

// Attempt pairs a solver with a preconditioner factory.
type Attempt struct {
	Solver  Solver
	Factory Factory
}

// Orchestrator tries attempts in order until one converges. A failed
// factorization skips to the next attempt; exhausting every attempt
// returns the best outcome with Converged false so the caller can treat
// it as a step-rejection signal rather than a fatal error.
type Orchestrator struct {
	Attempts []Attempt
	Verbose  bool
}

// DefaultOrchestrator is the production lineup: cached ILU(0) with
// BiCGStab first, then Jacobi, then plain CG as a last resort.
func DefaultOrchestrator(maxIter int, tol float64) *Orchestrator {
	return &Orchestrator{
		Attempts: []Attempt{
			{Solver: BiCGStab{MaxIterations: maxIter, Tolerance: tol}, Factory: NewCachedFactory(ILU0Factory{}, 10, 0.3)},
			{Solver: BiCGStab{MaxIterations: maxIter, Tolerance: tol}, Factory: JacobiFactory{}},
			{Solver: CG{MaxIterations: maxIter, Tolerance: tol}, Factory: JacobiFactory{}},
		},
	}
}

func (o *Orchestrator) Solve(sys System) (out SolveOutcome, err error) {
	if len(o.Attempts) == 0 {
		err = fmt.Errorf("linsolver: orchestrator has no attempts configured")
		return
	}
	var best SolveOutcome
	haveBest := false
	for _, at := range o.Attempts {
		pre, ferr := at.Factory.Build(sys.A)
		if ferr != nil {
			if o.Verbose {
				fmt.Printf("linsolver: %s factorization failed: %v\n", at.Solver.Name(), ferr)
			}
			continue
		}
		out, err = at.Solver.Solve(sys, pre)
		if err != nil {
			return
		}
		if out.Converged {
			return
		}
		if o.Verbose {
			fmt.Printf("linsolver: %s/%s stalled at residual %.3e after %d iterations\n",
				out.Solver, out.Preconditioner, out.Residual, out.Iterations)
		}
		if !haveBest || out.Residual < best.Residual {
			best = out
			haveBest = true
		}
	}
	if !haveBest {
		// Every factorization failed. Still not fatal: report a
		// non-converged outcome holding the initial iterate so the driver
		// rejects the step; a smaller step strengthens the accumulation
		// diagonal and retries.
		n, derr := sys.dim()
		if derr != nil {
			return SolveOutcome{}, derr
		}
		return SolveOutcome{Solution: sys.guess(n), Solver: "none", Preconditioner: "none"}, nil
	}
	return best, nil
}

// Invalidate clears any cached factorizations held by the attempts.
func (o *Orchestrator) Invalidate() {
	for _, at := range o.Attempts {
		if c, ok := at.Factory.(*CachedFactory); ok {
			c.Invalidate()
		}
	}
}
