package simulation

import (
	"github.com/gobores/gobores/pvt"
	"github.com/gobores/gobores/reservoir"
	"github.com/gobores/gobores/wells"
)

// phaseFluxes carries per-phase face fluxes plus their total, all
// ft³/day, positive from the face-owning cell toward its + neighbor.
type phaseFluxes struct {
	water, oil, gas FaceFluxes
	total           FaceFluxes
}

// phase potentials: water is pulled down by oil-water capillary
// pressure, gas pushed up by gas-oil capillary pressure.
func potentials(props pvt.FieldProperties, p []float64, c int) (pw, po, pg float64) {
	pw = p[c] - props.Pcow[c]
	po = p[c]
	pg = p[c] + props.Pcgo[c]
	return
}

// computeFluxes evaluates upwinded phase fluxes on every interior face
// for the pressure field p.
func computeFluxes(g reservoir.Geometry, m reservoir.ReservoirModel, props pvt.FieldProperties, p []float64) phaseFluxes {
	n := g.Dims.Cells()
	fl := phaseFluxes{
		water: NewFaceFluxes(n),
		oil:   NewFaceFluxes(n),
		gas:   NewFaceFluxes(n),
		total: NewFaceFluxes(n),
	}
	d := g.Dims

	face := func(c, nb int, trans float64, fw, fo, fg, ft []float64) {
		pwc, poc, pgc := potentials(props, p, c)
		pwn, pon, pgn := potentials(props, p, nb)

		fw[c] = trans * upwindMob(props.MobWater, c, nb, pwc-pwn) * (pwc - pwn)
		fo[c] = trans * upwindMob(props.MobOil, c, nb, poc-pon) * (poc - pon)
		fg[c] = trans * upwindMob(props.MobGas, c, nb, pgc-pgn) * (pgc - pgn)
		ft[c] = fw[c] + fo[c] + fg[c]
	}

	for i := 0; i < d.Nx; i++ {
		for j := 0; j < d.Ny; j++ {
			for k := 0; k < d.Nz; k++ {
				c := d.Index(i, j, k)
				if t := g.TX[c]; t > 0 {
					face(c, d.Index(i+1, j, k), t, fl.water.X, fl.oil.X, fl.gas.X, fl.total.X)
				}
				if t := g.TY[c]; t > 0 {
					face(c, d.Index(i, j+1, k), t, fl.water.Y, fl.oil.Y, fl.gas.Y, fl.total.Y)
				}
				if t := g.TZ[c]; t > 0 {
					face(c, d.Index(i, j, k+1), t, fl.water.Z, fl.oil.Z, fl.gas.Z, fl.total.Z)
				}
			}
		}
	}
	return fl
}

// upwindMob picks the mobility of the cell the phase flows out of.
func upwindMob(mob []float64, c, nb int, dPot float64) float64 {
	if dPot >= 0 {
		return mob[c]
	}
	return mob[nb]
}

// saturationUpdate applies the explicit mass balance for one step.
// sources holds signed well rates; aqWater is the per-cell aquifer
// influx; boundary carries outer-face fluxes resolved by the scheme.
// Returned slices are fresh and already normalized.
func saturationUpdate(
	g reservoir.Geometry,
	m reservoir.ReservoirModel,
	props pvt.FieldProperties,
	fl phaseFluxes,
	sources wells.RateGrids,
	aqWater []float64,
	boundary wells.RateGrids,
	dtDays float64,
) (sw, so, sg, conc []float64, maxDS [3]float64) {
	var (
		d      = g.Dims
		n      = d.Cells()
		divW   = make([]float64, n)
		divO   = make([]float64, n)
		divG   = make([]float64, n)
		divSol = make([]float64, n)
		oldC   = m.Fluid.SolventConcentration
	)

	// Face fluxes leave the owning cell and enter its + neighbor.
	accumulate := func(c, nb int, fw, fo, fg float64) {
		divW[c] -= fw
		divW[nb] += fw
		divO[c] -= fo
		divO[nb] += fo
		divG[c] -= fg
		divG[nb] += fg
		// Solvent rides the gas phase at the upwind concentration.
		cs := oldC[c]
		if fg < 0 {
			cs = oldC[nb]
		}
		divSol[c] -= fg * cs
		divSol[nb] += fg * cs
	}
	for i := 0; i < d.Nx; i++ {
		for j := 0; j < d.Ny; j++ {
			for k := 0; k < d.Nz; k++ {
				c := d.Index(i, j, k)
				if g.TX[c] > 0 {
					accumulate(c, d.Index(i+1, j, k), fl.water.X[c], fl.oil.X[c], fl.gas.X[c])
				}
				if g.TY[c] > 0 {
					accumulate(c, d.Index(i, j+1, k), fl.water.Y[c], fl.oil.Y[c], fl.gas.Y[c])
				}
				if g.TZ[c] > 0 {
					accumulate(c, d.Index(i, j, k+1), fl.water.Z[c], fl.oil.Z[c], fl.gas.Z[c])
				}
			}
		}
	}

	sw = make([]float64, n)
	so = make([]float64, n)
	sg = make([]float64, n)
	conc = make([]float64, n)
	for c := 0; c < n; c++ {
		sw[c] = m.Fluid.WaterSaturation[c]
		so[c] = m.Fluid.OilSaturation[c]
		sg[c] = m.Fluid.GasSaturation[c]
		conc[c] = oldC[c]
		if !m.Active(c) {
			continue
		}
		pv := g.PoreVolume[c]
		if pv <= 0 {
			continue
		}
		scale := dtDays / pv
		dw := scale * (divW[c] + sources.Water[c] + aqWater[c] + boundary.Water[c])
		do := scale * (divO[c] + sources.Oil[c] + boundary.Oil[c])
		dg := scale * (divG[c] + sources.Gas[c] + boundary.Gas[c])
		sw[c] += dw
		so[c] += do
		sg[c] += dg
		if a := abs64(dw); a > maxDS[0] {
			maxDS[0] = a
		}
		if a := abs64(do); a > maxDS[1] {
			maxDS[1] = a
		}
		if a := abs64(dg); a > maxDS[2] {
			maxDS[2] = a
		}

		// Solvent mass balance on the gas phase.
		mass := oldC[c]*m.Fluid.GasSaturation[c]*pv + dtDays*(divSol[c]+sources.Solvent[c])
		if sg[c] > 1e-12 && mass > 0 {
			conc[c] = mass / (sg[c] * pv)
			if conc[c] > 1 {
				conc[c] = 1
			}
		} else {
			conc[c] = 0
		}
	}
	sw, so, sg = m.NormalizeSaturations(sw, so, sg)
	return
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// boundaryFlows resolves FixedPressure and FixedFlux outer faces into
// per-cell phase rates at the current pressure field. FixedPressure
// faces split total flow by the boundary cell's fractional mobilities;
// FixedFlux faces are treated as water, the edge-water convention.
func boundaryFlows(g reservoir.Geometry, m reservoir.ReservoirModel, props pvt.FieldProperties, p []float64) wells.RateGrids {
	flows := wells.NewRateGrids(g.Dims.Cells())
	for _, f := range g.BoundaryFaces(m) {
		c := f.Cell
		switch f.Cond.Kind {
		case reservoir.FixedPressure:
			lt := props.MobWater[c] + props.MobOil[c] + props.MobGas[c]
			if lt <= 0 {
				continue
			}
			q := f.Trans * lt * (f.Cond.Value - p[c])
			flows.Water[c] += q * props.MobWater[c] / lt
			flows.Oil[c] += q * props.MobOil[c] / lt
			flows.Gas[c] += q * props.MobGas[c] / lt
		case reservoir.FixedFlux:
			flows.Water[c] += f.Cond.Value
		}
	}
	return flows
}
