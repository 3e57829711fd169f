package simulation

import (
	"github.com/gobores/gobores/reservoir"
	"github.com/gobores/gobores/types"
)

// explicitScheme advances pressure and saturations with fluxes evaluated
// at the old state. No linear solve, so stability rests entirely on the
// CFL pre-check and the acceptance policy.
type explicitScheme struct {
	cfg SchemeConfig
	aq  aquiferCoupling

	pendingAq *AquiferStep
}

func newExplicitScheme(cfg SchemeConfig) *explicitScheme {
	return &explicitScheme{cfg: cfg, aq: aquiferCoupling{aquifer: cfg.Aquifer}}
}

func (s *explicitScheme) Advance(prev ModelState, dt types.Time) (next ModelState, diag StepDiagnostics, err error) {
	var (
		g    = s.cfg.Geometry
		m    = prev.Model
		n    = g.Dims.Cells()
		days = dt.Days()
	)
	diag.Scheme = Explicit
	props := s.cfg.Evaluator.Evaluate(m, s.cfg.Partition)
	if s.cfg.Miscibility != nil {
		s.cfg.Miscibility.Adjust(&props, m)
	}

	rates, reports, err := s.cfg.Controller.Rates(m, props, prev.Wells)
	if err != nil {
		return
	}
	aqWater, aqStep := s.aq.influx(g, m, prev.Time, dt)

	pOld := m.Fluid.Pressure
	fl := computeFluxes(g, m, props, pOld)
	boundary := boundaryFlows(g, m, props, pOld)

	// Explicit pressure update from the net volumetric balance.
	pNew := make([]float64, n)
	copy(pNew, pOld)
	div := netVolumeRate(g, fl)
	for c := 0; c < n; c++ {
		if !m.Active(c) {
			continue
		}
		pv := g.PoreVolume[c]
		ct := props.TotalCompressibility[c]
		if pv <= 0 || ct <= 0 {
			continue
		}
		q := div[c] + rates.Water[c] + rates.Oil[c] + rates.Gas[c] + aqWater[c] +
			boundary.Water[c] + boundary.Oil[c] + boundary.Gas[c]
		pNew[c] = pOld[c] + days*q/(pv*ct)
	}

	sw, so, sg, conc, maxDS := saturationUpdate(g, m, props, fl, rates, aqWater, boundary, days)

	diag.SolverConverged = true
	diag.MaxPressureChange = maxAbsDiff(m, pNew, pOld)
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

// netVolumeRate sums signed face fluxes into a per-cell net rate,
// ft³/day, positive for net inflow.
func netVolumeRate(g reservoir.Geometry, fl phaseFluxes) []float64 {
	d := g.Dims
	div := make([]float64, d.Cells())
	for i := 0; i < d.Nx; i++ {
		for j := 0; j < d.Ny; j++ {
			for k := 0; k < d.Nz; k++ {
				c := d.Index(i, j, k)
				if g.TX[c] > 0 {
					nb := d.Index(i+1, j, k)
					div[c] -= fl.total.X[c]
					div[nb] += fl.total.X[c]
				}
				if g.TY[c] > 0 {
					nb := d.Index(i, j+1, k)
					div[c] -= fl.total.Y[c]
					div[nb] += fl.total.Y[c]
				}
				if g.TZ[c] > 0 {
					nb := d.Index(i, j, k+1)
					div[c] -= fl.total.Z[c]
					div[nb] += fl.total.Z[c]
				}
			}
		}
	}
	return div
}

func (s *explicitScheme) CFLLimit(prev ModelState, maxCFL float64) types.Time {
	if prev.Fluxes.X == nil {
		return 0
	}
	return CFLStepLimit(s.cfg.Geometry, prev.Fluxes, maxCFL)
}

func (s *explicitScheme) Commit() {
	if s.cfg.Aquifer != nil && s.pendingAq != nil {
		s.cfg.Aquifer.Commit(*s.pendingAq)
	}
	s.pendingAq = nil
}

func (s *explicitScheme) Reject() {
	s.pendingAq = nil
}
