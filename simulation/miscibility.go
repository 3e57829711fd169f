package simulation

import (
	"math"

	"github.com/gobores/gobores/pvt"
	"github.com/gobores/gobores/reservoir"
)

// ToddLongstaff blends oil and solvent viscosities where injected
// solvent is present and pressure approaches the minimum miscibility
// pressure. Omega interpolates between immiscible (0) and fully mixed
// (1) behavior; the effective omega ramps in as pressure approaches the
// minimum miscibility pressure.
type ToddLongstaff struct {
	Omega                      float64
	MinimumMiscibilityPressure float64
	SolventViscosity           float64 // cP
	// DissolutionCap bounds the solvent fraction treated as mixed into
	// the oil; the remainder stays in the gas phase.
	DissolutionCap float64

	// RampFraction sets where the miscibility ramp starts, as a
	// fraction of MMP. Zero means the default of 0.8.
	RampFraction float64
}

func (tl ToddLongstaff) Validate() error {
	if tl.Omega < 0 || tl.Omega > 1 {
		return validationf("miscibility.omega", "%g must be in [0, 1]", tl.Omega)
	}
	if tl.MinimumMiscibilityPressure <= 0 {
		return validationf("miscibility.mmp", "%g psi must be positive", tl.MinimumMiscibilityPressure)
	}
	if tl.SolventViscosity <= 0 {
		return validationf("miscibility.solvent_viscosity", "%g cP must be positive", tl.SolventViscosity)
	}
	if tl.DissolutionCap < 0 || tl.DissolutionCap > 1 {
		return validationf("miscibility.dissolution_cap", "%g must be in [0, 1]", tl.DissolutionCap)
	}
	return nil
}

// miscibilityFactor ramps from 0 below RampFraction·MMP to 1 at MMP.
func (tl ToddLongstaff) miscibilityFactor(p float64) float64 {
	ramp := tl.RampFraction
	if ramp <= 0 || ramp >= 1 {
		ramp = 0.8
	}
	lo := ramp * tl.MinimumMiscibilityPressure
	switch {
	case p <= lo:
		return 0
	case p >= tl.MinimumMiscibilityPressure:
		return 1
	default:
		return (p - lo) / (tl.MinimumMiscibilityPressure - lo)
	}
}

// Adjust rewrites oil and gas viscosities and mobilities in place for
// cells holding solvent. Cells with no solvent are untouched.
func (tl ToddLongstaff) Adjust(props *pvt.FieldProperties, m reservoir.ReservoirModel) {
	for c := range props.ViscosityOil {
		if !m.Active(c) {
			continue
		}
		conc := m.Fluid.SolventConcentration[c]
		if conc <= 0 {
			continue
		}
		if tl.DissolutionCap > 0 && conc > tl.DissolutionCap {
			conc = tl.DissolutionCap
		}
		f := tl.miscibilityFactor(m.Fluid.Pressure[c])
		if f == 0 {
			continue
		}
		omega := tl.Omega * f

		muo := props.ViscosityOil[c]
		mus := tl.SolventViscosity

		// Quarter-power mixing for the fully mixed viscosity, then the
		// omega-weighted geometric blend for each phase.
		mixed := quarterPowerMix(muo, mus, conc)
		muoEff := math.Pow(muo, 1-omega) * math.Pow(mixed, omega)
		musEff := math.Pow(mus, 1-omega) * math.Pow(mixed, omega)

		props.ViscosityOil[c] = muoEff
		if musEff > 0 {
			// Solvent travels in the gas phase; blend its viscosity
			// toward the effective solvent value by concentration.
			mug := props.ViscosityGas[c]
			props.ViscosityGas[c] = (1-conc)*mug + conc*musEff
		}
		if props.ViscosityOil[c] > 0 {
			props.MobOil[c] = props.KrOil[c] / props.ViscosityOil[c]
		}
		if props.ViscosityGas[c] > 0 {
			props.MobGas[c] = props.KrGas[c] / props.ViscosityGas[c]
		}
	}
}

// quarterPowerMix applies the one-quarter power viscosity mixing rule
// for a solvent volume fraction c.
func quarterPowerMix(muOil, muSolvent, c float64) float64 {
	inv := (1-c)*math.Pow(muOil, -0.25) + c*math.Pow(muSolvent, -0.25)
	if inv <= 0 {
		return muOil
	}
	return math.Pow(inv, -4)
}
