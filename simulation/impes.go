package simulation

import (
	"github.com/gobores/gobores/linsolver"
	"github.com/gobores/gobores/pvt"
	"github.com/gobores/gobores/reservoir"
	"github.com/gobores/gobores/types"
	"github.com/gobores/gobores/utils"
	"github.com/gobores/gobores/wells"
)

// impesScheme solves one implicit pressure system per step and moves
// saturations explicitly with upwinded fluxes at the new pressure.
type impesScheme struct {
	cfg SchemeConfig
	aq  aquiferCoupling

	pendingAq *AquiferStep
}

func newIMPESScheme(cfg SchemeConfig) *impesScheme {
	return &impesScheme{cfg: cfg, aq: aquiferCoupling{aquifer: cfg.Aquifer}}
}

func (s *impesScheme) Advance(prev ModelState, dt types.Time) (next ModelState, diag StepDiagnostics, err error) {
	var (
		g    = s.cfg.Geometry
		m    = prev.Model
		n    = g.Dims.Cells()
		days = dt.Days()
	)
	diag.Scheme = IMPES
	props := s.cfg.Evaluator.Evaluate(m, s.cfg.Partition)
	if s.cfg.Miscibility != nil {
		s.cfg.Miscibility.Adjust(&props, m)
	}

	rates, reports, err := s.cfg.Controller.Rates(m, props, prev.Wells)
	if err != nil {
		return
	}
	aqWater, aqStep := s.aq.influx(g, m, prev.Time, dt)

	pNew, solve, err := s.solvePressure(g, m, props, rates, aqWater, days)
	if err != nil {
		return
	}
	diag.SolverConverged = solve.Converged
	diag.SolverIterations = solve.Iterations
	diag.SolverResidual = solve.Residual
	diag.SolverName = solve.Solver
	diag.PreconditionerName = solve.Preconditioner
	if !solve.Converged {
		// Failure is data: the driver rejects the step and retries at a
		// smaller size.
		return
	}

	fl := computeFluxes(g, m, props, pNew)
	boundary := boundaryFlows(g, m, props, pNew)
	sw, so, sg, conc, maxDS := saturationUpdate(g, m, props, fl, rates, aqWater, boundary, days)

	diag.MaxPressureChange = maxAbsDiff(m, pNew, m.Fluid.Pressure)
	diag.MaxSaturationChange = map[types.Phase]float64{
		types.Water: maxDS[0],
		types.Oil:   maxDS[1],
		types.Gas:   maxDS[2],
	}
	diag.MaxCFL = MaxCFL(g, fl.total, dt)

	fluid := m.Fluid
	fluid.Pressure = pNew
	fluid.WaterSaturation = sw
	fluid.OilSaturation = so
	fluid.GasSaturation = sg
	fluid.SolventConcentration = conc

	inj, prod := splitRates(rates, n)
	next = ModelState{
		Model:       m.WithFluid(fluid),
		Props:       props,
		Wells:       prev.Wells,
		WellReports: reports,
		Injection:   inj,
		Production:  prod,
		Fluxes:      fl.total,
	}
	s.pendingAq = aqStep
	return
}

func (s *impesScheme) solvePressure(
	g reservoir.Geometry,
	m reservoir.ReservoirModel,
	props pvt.FieldProperties,
	rates wells.RateGrids,
	aqWater []float64,
	days float64,
) (p []float64, out linsolver.SolveOutcome, err error) {
	var (
		n    = g.Dims.Cells()
		dok  = utils.NewDOK(n, n)
		rhs  = utils.NewVector(n)
		x0   = utils.NewVector(n)
		pOld = m.Fluid.Pressure
		buf  []reservoir.Neighbor
	)
	for c := 0; c < n; c++ {
		x0.SetVec(c, pOld[c])
		if !m.Active(c) {
			// Inactive rows stay identity so the matrix is nonsingular.
			dok.Set(c, c, 1)
			rhs.SetVec(c, pOld[c])
			continue
		}
		pv := g.PoreVolume[c]
		acc := pv * props.TotalCompressibility[c] / days
		diagv := acc
		b := acc*pOld[c] + rates.Water[c] + rates.Oil[c] + rates.Gas[c] + aqWater[c]

		buf = g.Neighbors(c, buf)
		for _, nb := range buf {
			ltFace := 0.5 * (props.MobWater[c] + props.MobOil[c] + props.MobGas[c] +
				props.MobWater[nb.Cell] + props.MobOil[nb.Cell] + props.MobGas[nb.Cell])
			coef := nb.Trans * ltFace
			diagv += coef
			dok.AddAt(c, nb.Cell, -coef)

			// Capillary contributions to the right-hand side: water is
			// driven by -dPcow, gas by +dPcgo.
			lw := 0.5 * (props.MobWater[c] + props.MobWater[nb.Cell])
			lg := 0.5 * (props.MobGas[c] + props.MobGas[nb.Cell])
			b -= nb.Trans * lw * (props.Pcow[nb.Cell] - props.Pcow[c])
			b += nb.Trans * lg * (props.Pcgo[nb.Cell] - props.Pcgo[c])
		}
		dok.AddAt(c, c, diagv)
		rhs.SetVec(c, b)
	}
	for _, f := range g.BoundaryFaces(m) {
		if f.Cond.Kind != reservoir.FixedPressure {
			continue
		}
		c := f.Cell
		lt := props.MobWater[c] + props.MobOil[c] + props.MobGas[c]
		coef := f.Trans * lt
		dok.AddAt(c, c, coef)
		rhs.SetVec(c, rhs.AtVec(c)+coef*f.Cond.Value)
	}

	out, err = s.cfg.Orchestrator.Solve(linsolver.System{A: dok.ToCSR(), B: rhs, X0: x0})
	if err != nil {
		return
	}
	p = append([]float64(nil), out.Solution.Data()...)
	return
}

func (s *impesScheme) CFLLimit(prev ModelState, maxCFL float64) types.Time {
	if prev.Fluxes.X == nil {
		return 0
	}
	return CFLStepLimit(s.cfg.Geometry, prev.Fluxes, maxCFL)
}

func (s *impesScheme) Commit() {
	if s.cfg.Aquifer != nil && s.pendingAq != nil {
		s.cfg.Aquifer.Commit(*s.pendingAq)
	}
	s.pendingAq = nil
}

func (s *impesScheme) Reject() {
	s.pendingAq = nil
	if s.cfg.Orchestrator != nil {
		s.cfg.Orchestrator.Invalidate()
	}
}

func maxAbsDiff(m reservoir.ReservoirModel, a, b []float64) (max float64) {
	for c := range a {
		if !m.Active(c) {
			continue
		}
		if d := abs64(a[c] - b[c]); d > max {
			max = d
		}
	}
	return
}
