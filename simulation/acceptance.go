package simulation

import (
	"fmt"

	"github.com/gobores/gobores/types"
)

// StepDiagnostics is what a scheme measured while advancing one step.
type StepDiagnostics struct {
	Scheme              SchemeKind
	MaxPressureChange   float64 // psi
	MaxSaturationChange map[types.Phase]float64
	MaxCFL              float64
	SolverConverged     bool
	SolverIterations    int
	SolverResidual      float64
	SolverName          string
	PreconditionerName  string
}

// Verdict is the acceptance decision for one step attempt. Evaluating
// the same diagnostics twice yields the same verdict.
type Verdict struct {
	Accepted bool
	Reason   string
}

// AcceptancePolicy bounds how far one step may move the solution. Zero
// thresholds disable the corresponding check.
type AcceptancePolicy struct {
	MaxPressureChange   float64 // psi
	MaxSaturationChange map[types.Phase]float64
	MaxCFLNumber        float64
}

// DefaultAcceptancePolicy mirrors the usual field-scale tolerances.
func DefaultAcceptancePolicy() AcceptancePolicy {
	return AcceptancePolicy{
		MaxPressureChange: 200,
		MaxSaturationChange: map[types.Phase]float64{
			types.Water: 0.1,
			types.Oil:   0.1,
			types.Gas:   0.1,
		},
		MaxCFLNumber: 1,
	}
}

// Evaluate judges a step attempt. Solver failure always rejects; the
// remaining checks fire in a fixed order so the reported reason is
// deterministic.
func (p AcceptancePolicy) Evaluate(d StepDiagnostics) Verdict {
	if !d.SolverConverged {
		return Verdict{Reason: fmt.Sprintf("linear solver failed: %s/%s residual %.3e after %d iterations",
			d.SolverName, d.PreconditionerName, d.SolverResidual, d.SolverIterations)}
	}
	if p.MaxPressureChange > 0 && d.MaxPressureChange > p.MaxPressureChange {
		return Verdict{Reason: fmt.Sprintf("pressure change %.1f psi exceeds limit %.1f psi",
			d.MaxPressureChange, p.MaxPressureChange)}
	}
	for _, phase := range types.Phases {
		limit := p.MaxSaturationChange[phase]
		if limit <= 0 {
			continue
		}
		if ds := d.MaxSaturationChange[phase]; ds > limit {
			return Verdict{Reason: fmt.Sprintf("%s saturation change %.4f exceeds limit %.4f",
				phase, ds, limit)}
		}
	}
	// The CFL bound guards explicit stability; the implicit pressure
	// solve is not CFL-limited, its saturation update is judged by the
	// saturation-change bounds above.
	if d.Scheme == Explicit && p.MaxCFLNumber > 0 && d.MaxCFL > p.MaxCFLNumber {
		return Verdict{Reason: fmt.Sprintf("CFL number %.3f exceeds limit %.3f", d.MaxCFL, p.MaxCFLNumber)}
	}
	return Verdict{Accepted: true}
}
