package simulation

import (
	"math"

	"github.com/gobores/gobores/reservoir"
	"github.com/gobores/gobores/types"
)

// CarterTracyAquifer models edge-water influx across the faces marked
// AquiferFace. It keeps a bounded history of boundary pressures plus the
// cumulative-influx recursion, so memory stays constant over arbitrarily
// long runs. Proposed influx for a trial step commits only when the
// driver accepts the step.
type CarterTracyAquifer struct {
	InitialPressure      float64 // psi, aquifer pressure at time zero
	Permeability         float64 // mD
	Porosity             float64
	Viscosity            float64 // cP
	TotalCompressibility float64 // 1/psi
	Radius               float64 // ft, reservoir (inner) radius
	Thickness            float64 // ft
	AngleFraction        float64 // encroachment angle / 360

	// ConstantInflux, when positive, bypasses the Carter-Tracy solution
	// and supplies a fixed rate in ft³/day. Useful for bench cases with
	// a known flux.
	ConstantInflux float64

	// HistoryLimit bounds the boundary-pressure log; older entries are
	// discarded oldest-first. Zero means the default of 4096.
	HistoryLimit int

	cumulative float64 // ft³
	history    []PressureSample
}

type PressureSample struct {
	Time     types.Time
	Pressure float64
}

// AquiferStep is a proposed influx for one trial step.
type AquiferStep struct {
	Rate       float64 // ft³/day, positive into the reservoir
	cumulative float64
	sample     PressureSample
}

func (a *CarterTracyAquifer) Validate() error {
	if a.ConstantInflux > 0 {
		return nil
	}
	if a.Permeability <= 0 || a.Porosity <= 0 || a.Viscosity <= 0 || a.TotalCompressibility <= 0 {
		return validationf("aquifer", "permeability, porosity, viscosity and compressibility must be positive")
	}
	if a.Radius <= 0 || a.Thickness <= 0 {
		return validationf("aquifer", "radius and thickness must be positive")
	}
	if a.AngleFraction <= 0 || a.AngleFraction > 1 {
		return validationf("aquifer.angle_fraction", "%g must be in (0, 1]", a.AngleFraction)
	}
	return nil
}

// Propose computes the influx rate for a step ending at elapsed+dt with
// the given average boundary pressure. Nothing is recorded until Commit.
func (a *CarterTracyAquifer) Propose(elapsed, dt types.Time, boundaryPressure float64) AquiferStep {
	sample := PressureSample{Time: elapsed + dt, Pressure: boundaryPressure}
	if a.ConstantInflux > 0 {
		days := dt.Days()
		return AquiferStep{
			Rate:       a.ConstantInflux,
			cumulative: a.cumulative + a.ConstantInflux*days,
			sample:     sample,
		}
	}

	tdPrev := a.dimensionlessTime(elapsed)
	tdNext := a.dimensionlessTime(elapsed + dt)
	dp := a.InitialPressure - boundaryPressure
	if dp < 0 {
		dp = 0
	}

	b := 1.119 * a.Porosity * a.TotalCompressibility * a.Radius * a.Radius * a.Thickness * a.AngleFraction
	pd := dimensionlessPressure(tdNext)
	pdDeriv := dimensionlessPressureDerivative(tdNext)
	den := pd - tdPrev*pdDeriv
	if den <= 0 {
		return AquiferStep{sample: sample, cumulative: a.cumulative}
	}

	// Influx over the step in bbl, then cumulative in ft³.
	dW := (tdNext - tdPrev) * (b*dp - a.cumulative/5.615*pdDeriv) / den
	if dW < 0 {
		dW = 0
	}
	dWft3 := dW * 5.615
	days := dt.Days()
	rate := 0.0
	if days > 0 {
		rate = dWft3 / days
	}
	return AquiferStep{
		Rate:       rate,
		cumulative: a.cumulative + dWft3,
		sample:     sample,
	}
}

// Commit records an accepted step.
func (a *CarterTracyAquifer) Commit(step AquiferStep) {
	a.cumulative = step.cumulative
	limit := a.HistoryLimit
	if limit <= 0 {
		limit = 4096
	}
	a.history = append(a.history, step.sample)
	if len(a.history) > limit {
		a.history = a.history[len(a.history)-limit:]
	}
}

func (a *CarterTracyAquifer) CumulativeInflux() float64 { return a.cumulative }

// History returns the recorded boundary pressures, oldest first.
func (a *CarterTracyAquifer) History() []PressureSample {
	return append([]PressureSample(nil), a.history...)
}

func (a *CarterTracyAquifer) dimensionlessTime(t types.Time) float64 {
	return 6.328e-3 * a.Permeability * t.Days() /
		(a.Porosity * a.Viscosity * a.TotalCompressibility * a.Radius * a.Radius)
}

// dimensionlessPressure follows the Edwardson et al. fit to the constant
// terminal-rate solution, with the early- and late-time asymptotes.
func dimensionlessPressure(td float64) float64 {
	switch {
	case td <= 0:
		return 0
	case td < 0.01:
		return 2 * math.Sqrt(td/math.Pi)
	case td > 100:
		return 0.5 * (math.Log(td) + 0.80907)
	default:
		sq := math.Sqrt(td)
		num := 370.529*sq + 137.582*td + 5.69549*td*sq
		den := 328.834 + 265.488*sq + 45.2157*td + td*sq
		return num / den
	}
}

func dimensionlessPressureDerivative(td float64) float64 {
	switch {
	case td <= 0:
		return 0
	case td < 0.01:
		return 1 / math.Sqrt(math.Pi*td)
	case td > 100:
		return 1 / (2 * td)
	default:
		sq := math.Sqrt(td)
		num := 716.441 + 46.7984*sq + 270.038*td + 71.0098*td*sq
		den := 1296.86*sq + 1204.73*td + 618.618*td*sq + 538.072*td*td + 142.41*td*td*sq
		return num / den
	}
}

// boundaryCells returns the active cells on faces marked AquiferFace and
// their pore-volume weights for distributing influx.
func aquiferCells(g reservoir.Geometry, m reservoir.ReservoirModel) (cells []int, weights []float64) {
	var totalPV float64
	for _, f := range g.BoundaryFaces(m) {
		if f.Cond.Kind != reservoir.AquiferFace {
			continue
		}
		cells = append(cells, f.Cell)
		pv := g.PoreVolume[f.Cell]
		weights = append(weights, pv)
		totalPV += pv
	}
	if totalPV > 0 {
		for i := range weights {
			weights[i] /= totalPV
		}
	}
	return
}

// aquiferCoupling binds an aquifer to its boundary cells, resolved
// lazily on first use since the cell set needs a concrete model.
type aquiferCoupling struct {
	aquifer *CarterTracyAquifer
	cells   []int
	weights []float64
	bound   bool
}

// influx distributes the proposed step influx over the aquifer-face
// cells by pore volume. The returned step commits on accept only.
func (ac *aquiferCoupling) influx(g reservoir.Geometry, m reservoir.ReservoirModel, elapsed, dt types.Time) ([]float64, *AquiferStep) {
	aqWater := make([]float64, g.Dims.Cells())
	if ac.aquifer == nil {
		return aqWater, nil
	}
	if !ac.bound {
		ac.cells, ac.weights = aquiferCells(g, m)
		ac.bound = true
	}
	if len(ac.cells) == 0 {
		return aqWater, nil
	}
	var pB float64
	for i, c := range ac.cells {
		pB += ac.weights[i] * m.Fluid.Pressure[c]
	}
	step := ac.aquifer.Propose(elapsed, dt, pB)
	for i, c := range ac.cells {
		aqWater[c] = step.Rate * ac.weights[i]
	}
	return aqWater, &step
}
