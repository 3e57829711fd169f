// Package wells implements well definitions, the control-mode state
// machine and the Peaceman well-index source/sink coupling.
//
// Sign convention throughout: positive rates inject into the reservoir,
// negative rates produce from it (ft³/day at reservoir conditions).
package wells

import (
	"fmt"

	"github.com/gobores/gobores/types"
)

// ProducedFluid identifies one phase a producer delivers.
type ProducedFluid struct {
	Name            string
	Phase           types.Phase
	SpecificGravity float64
	MolecularWeight float64
}

// InjectedFluid describes the single fluid an injector pumps, including
// the miscibility parameters consumed by the Todd-Longstaff model.
type InjectedFluid struct {
	Name            string
	Phase           types.Phase
	SpecificGravity float64
	MolecularWeight float64
	Viscosity       float64 // cP at reservoir conditions
	Density         float64 // lbm/ft³ at reservoir conditions

	MinimumMiscibilityPressure float64 // psi
	ToddLongstaffOmega         float64
	IsMiscible                 bool
	Concentration              float64 // solvent fraction in the injected stream, 0..1
}

// PerforationInterval is an inclusive cell-index range open to flow.
type PerforationInterval struct {
	Start, End types.CellIndex
}

// Well is immutable within a step; an external schedule may swap its
// Control or active flag between steps.
type Well struct {
	Name         string
	Perforations []PerforationInterval
	Radius       float64 // wellbore radius, ft
	Skin         float64
	Active       bool
	Control      Control
	Produced     []ProducedFluid
	Injected     *InjectedFluid
}

func (w Well) IsInjector() bool { return w.Injected != nil }

// Duplicate returns a copy with a new name and perforations, keeping the
// control and fluid specification.
func (w Well) Duplicate(name string, perfs []PerforationInterval) Well {
	next := w
	next.Name = name
	next.Perforations = append([]PerforationInterval(nil), perfs...)
	return next
}

// PerforatedCells expands the intervals into flat cell indices.
func (w Well) PerforatedCells(dims types.Dims) (cells []int, err error) {
	for _, iv := range w.Perforations {
		if !dims.InBounds(iv.Start.I, iv.Start.J, iv.Start.K) || !dims.InBounds(iv.End.I, iv.End.J, iv.End.K) {
			err = fmt.Errorf("well %s: perforation interval %v out of grid bounds %v", w.Name, iv, dims)
			return
		}
		for i := iv.Start.I; i <= iv.End.I; i++ {
			for j := iv.Start.J; j <= iv.End.J; j++ {
				for k := iv.Start.K; k <= iv.End.K; k++ {
					cells = append(cells, dims.Index(i, j, k))
				}
			}
		}
	}
	if len(cells) == 0 {
		err = fmt.Errorf("well %s has no perforated cells", w.Name)
	}
	return
}

// Phases this well exchanges with the reservoir.
func (w Well) Phases() (phases []types.Phase) {
	if w.IsInjector() {
		return []types.Phase{w.Injected.Phase}
	}
	for _, f := range w.Produced {
		phases = append(phases, f.Phase)
	}
	return
}
