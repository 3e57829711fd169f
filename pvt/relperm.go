package pvt

import "math"

// CoreyRelPerm is a three-phase Corey-type relative permeability model.
// Oil relperm uses the total displacing saturation, which keeps kro a pure
// function of the saturations without hysteresis state.
type CoreyRelPerm struct {
	ConnateWater     float64 // Swc
	ResidualOilWater float64 // Sorw
	ResidualOilGas   float64 // Sorg
	ResidualGas      float64 // Sgr

	WaterExponent float64
	OilExponent   float64
	GasExponent   float64

	KrwMax float64
	KroMax float64
	KrgMax float64
}

func DefaultCoreyRelPerm() CoreyRelPerm {
	return CoreyRelPerm{
		ConnateWater:     0.20,
		ResidualOilWater: 0.25,
		ResidualOilGas:   0.12,
		ResidualGas:      0.05,
		WaterExponent:    2.5,
		OilExponent:      2.0,
		GasExponent:      1.8,
		KrwMax:           0.45,
		KroMax:           0.90,
		KrgMax:           0.80,
	}
}

func normalize(s, smin, smax float64) float64 {
	if smax <= smin {
		return 0
	}
	se := (s - smin) / (smax - smin)
	if se < 0 {
		return 0
	}
	if se > 1 {
		return 1
	}
	return se
}

// Evaluate returns (krw, kro, krg) for one cell.
func (r CoreyRelPerm) Evaluate(sw, so, sg float64) (krw, kro, krg float64) {
	swe := normalize(sw, r.ConnateWater, 1-r.ResidualOilWater)
	krw = r.KrwMax * math.Pow(swe, r.WaterExponent)

	sor := r.ResidualOilWater
	if sg > r.ResidualGas {
		// Gas-displacement residual governs once free gas is mobile.
		sor = r.ResidualOilGas
	}
	soe := normalize(so, sor, 1-r.ConnateWater-r.ResidualGas)
	kro = r.KroMax * math.Pow(soe, r.OilExponent)

	sge := normalize(sg, r.ResidualGas, 1-r.ConnateWater-r.ResidualOilGas)
	krg = r.KrgMax * math.Pow(sge, r.GasExponent)
	return
}

// LinearCapillary is a saturation-linear capillary pressure model: Pcow
// falls from EntryOW at connate water to zero at maximum water saturation,
// Pcgo grows from zero to EntryGO with gas saturation.
type LinearCapillary struct {
	EntryOW float64 // psi
	EntryGO float64 // psi
}

func (l LinearCapillary) Evaluate(r CoreyRelPerm, sw, sg float64) (pcow, pcgo float64) {
	swe := normalize(sw, r.ConnateWater, 1-r.ResidualOilWater)
	pcow = l.EntryOW * (1 - swe)
	sge := normalize(sg, r.ResidualGas, 1-r.ConnateWater-r.ResidualOilGas)
	pcgo = l.EntryGO * sge
	return
}
