package simulation

import (
	"github.com/gobores/gobores/linsolver"
	"github.com/gobores/gobores/pvt"
	"github.com/gobores/gobores/reservoir"
	"github.com/gobores/gobores/types"
	"github.com/gobores/gobores/utils"
	"github.com/gobores/gobores/wells"
)

// SchemeKind selects the time discretization.
type SchemeKind uint8

const (
	// IMPES solves pressure implicitly and updates saturations
	// explicitly; the production default.
	IMPES SchemeKind = iota
	// Explicit updates both pressure and saturations explicitly. Cheap
	// per step, stable only under the CFL limit.
	Explicit
	// Implicit (fully implicit) is recognized but not implemented.
	Implicit
)

func (k SchemeKind) String() string {
	switch k {
	case IMPES:
		return "impes"
	case Explicit:
		return "explicit"
	case Implicit:
		return "implicit"
	default:
		return "unknown"
	}
}

// Scheme advances the model by one trial step. Advance must not mutate
// the previous state; stateful side effects (aquifer bookkeeping,
// preconditioner caches) move only through Commit and Reject.
type Scheme interface {
	Advance(prev ModelState, dt types.Time) (ModelState, StepDiagnostics, error)
	// CFLLimit returns the largest step the CFL pre-check allows from
	// the previous step's fluxes; zero means unbounded.
	CFLLimit(prev ModelState, maxCFL float64) types.Time
	Commit()
	Reject()
}

// SchemeConfig wires the pieces a scheme needs.
type SchemeConfig struct {
	Geometry     reservoir.Geometry
	Evaluator    pvt.Evaluator
	Controller   *wells.Controller
	Orchestrator *linsolver.Orchestrator
	Aquifer      *CarterTracyAquifer
	Miscibility  *ToddLongstaff
	Partition    *utils.PartitionMap
}

func (c SchemeConfig) validate() error {
	if c.Evaluator == nil {
		return validationf("scheme.evaluator", "property evaluator is required")
	}
	if c.Controller == nil {
		return validationf("scheme.controller", "well controller is required")
	}
	if c.Partition == nil {
		return validationf("scheme.partition", "cell partition map is required")
	}
	if c.Aquifer != nil {
		if err := c.Aquifer.Validate(); err != nil {
			return err
		}
	}
	if c.Miscibility != nil {
		if err := c.Miscibility.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// NewScheme builds the requested scheme. The fully implicit scheme is
// declared but unsupported; asking for it is a configuration error.
func NewScheme(kind SchemeKind, cfg SchemeConfig) (Scheme, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	switch kind {
	case IMPES:
		if cfg.Orchestrator == nil {
			return nil, validationf("scheme.orchestrator", "impes requires a linear solver orchestrator")
		}
		return newIMPESScheme(cfg), nil
	case Explicit:
		return newExplicitScheme(cfg), nil
	case Implicit:
		return nil, validationf("scheme", "the fully implicit scheme is not supported")
	default:
		return nil, validationf("scheme", "unknown scheme kind %d", kind)
	}
}
