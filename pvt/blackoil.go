package pvt

import (
	"math"

	"github.com/gobores/gobores/reservoir"
	"github.com/gobores/gobores/utils"
)

// BlackOilEvaluator implements the default black-oil property correlations:
// Papay z-factor over Sutton pseudo-criticals, Standing solution GOR,
// exponential FVF/viscosity pressure dependence, Corey relative
// permeability and a linear capillary model.
type BlackOilEvaluator struct {
	OilGravity   float64 // specific gravity of stock-tank oil
	GasGravity   float64 // specific gravity of gas (air = 1)
	WaterGravity float64

	ReferencePressure float64 // psi, at which Bo = BoRef
	BoRef             float64
	BwRef             float64

	OilCompressibility   float64 // 1/psi
	WaterCompressibility float64

	OilViscosityRef   float64 // cP at reference pressure
	WaterViscosityRef float64
	GasViscosityRef   float64

	RelPerm   CoreyRelPerm
	Capillary LinearCapillary
}

var _ Evaluator = BlackOilEvaluator{}

// DefaultBlackOil returns a light-oil sandstone parameter set.
func DefaultBlackOil() BlackOilEvaluator {
	return BlackOilEvaluator{
		OilGravity:           0.845,
		GasGravity:           0.65,
		WaterGravity:         1.05,
		ReferencePressure:    3000,
		BoRef:                1.25,
		BwRef:                1.02,
		OilCompressibility:   1.2e-5,
		WaterCompressibility: 3.0e-6,
		OilViscosityRef:      1.8,
		WaterViscosityRef:    0.5,
		GasViscosityRef:      0.018,
		RelPerm:              DefaultCoreyRelPerm(),
		Capillary:            LinearCapillary{EntryOW: 4.0, EntryGO: 1.5},
	}
}

func (e BlackOilEvaluator) Evaluate(m reservoir.ReservoirModel, pm *utils.PartitionMap) (props FieldProperties) {
	var (
		n    = m.Dims.Cells()
		tR   = m.Fluid.Temperature + 459.67 // Rankine
		api  = 141.5/e.OilGravity - 131.5
		ppc  = 756.8 - 131.07*e.GasGravity - 3.6*e.GasGravity*e.GasGravity
		tpc  = 169.2 + 349.5*e.GasGravity - 74.0*e.GasGravity*e.GasGravity
		fl   = m.Fluid
		rock = m.Rock
	)
	props = NewFieldProperties(n)
	pm.RunParallel(func(_, min, max int) {
		for c := min; c < max; c++ {
			if !m.Active(c) {
				continue
			}
			p := fl.Pressure[c]

			// Gas deviation factor (Papay)
			pr, tr := p/ppc, tR/tpc
			z := 1 - 3.53*pr/math.Pow(10, 0.9813*tr) + 0.274*pr*pr/math.Pow(10, 0.8157*tr)
			if z < 0.3 {
				z = 0.3
			}
			props.ZFactor[c] = z

			// Solution GOR (Standing)
			rs := e.GasGravity * math.Pow((p/18.2+1.4)*math.Pow(10, 0.0125*api-0.00091*m.Fluid.Temperature), 1.2048)
			props.Rs[c] = rs

			// Formation volume factors
			props.Bo[c] = e.BoRef * math.Exp(-e.OilCompressibility*(p-e.ReferencePressure))
			props.Bw[c] = e.BwRef * math.Exp(-e.WaterCompressibility*(p-e.ReferencePressure))
			props.Bg[c] = 0.02827 * z * tR / p

			// Viscosities: oil thickens with pressure above bubble point,
			// gas thins slightly as it expands.
			props.ViscosityOil[c] = e.OilViscosityRef * (1 + 4.0e-5*(p-e.ReferencePressure))
			props.ViscosityWater[c] = e.WaterViscosityRef
			props.ViscosityGas[c] = e.GasViscosityRef * (1 + 2.0e-5*(p-e.ReferencePressure))
			if props.ViscosityOil[c] < 0.1 {
				props.ViscosityOil[c] = 0.1
			}
			if props.ViscosityGas[c] < 0.005 {
				props.ViscosityGas[c] = 0.005
			}

			// Densities
			props.DensityOil[c] = (62.4*e.OilGravity + 0.0136*e.GasGravity*rs) / props.Bo[c]
			props.DensityWater[c] = 62.4 * e.WaterGravity / props.Bw[c]
			props.DensityGas[c] = 2.7 * e.GasGravity * p / (z * tR)

			// Relative permeability and mobility
			krw, kro, krg := e.RelPerm.Evaluate(fl.WaterSaturation[c], fl.OilSaturation[c], fl.GasSaturation[c])
			props.KrWater[c] = krw
			props.KrOil[c] = kro
			props.KrGas[c] = krg
			props.MobWater[c] = krw / props.ViscosityWater[c]
			props.MobOil[c] = kro / props.ViscosityOil[c]
			props.MobGas[c] = krg / props.ViscosityGas[c]

			// Capillary pressures
			props.Pcow[c], props.Pcgo[c] = e.Capillary.Evaluate(e.RelPerm, fl.WaterSaturation[c], fl.GasSaturation[c])

			// Total compressibility
			cg := 1 / p
			props.TotalCompressibility[c] = rock.Compressibility +
				fl.WaterSaturation[c]*e.WaterCompressibility +
				fl.OilSaturation[c]*e.OilCompressibility +
				fl.GasSaturation[c]*cg
		}
	})
	return
}
