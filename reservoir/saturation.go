package reservoir

import (
	"fmt"
	"math"

	"github.com/gobores/gobores/types"
)

// SaturationContacts describes the fluid column used to initialize the
// three-phase saturation distribution: a gas cap above the gas-oil contact,
// an oil column, and water below the oil-water contact. Residual oil
// depends on the displacing fluid, so the gas cap and water zone carry
// separate residual-oil grids.
type SaturationContacts struct {
	GasOilContact   float64 // ft, depth of GOC
	OilWaterContact float64 // ft, depth of OWC

	ConnateWater     []float64 // Swc
	ResidualOilWater []float64 // Sor to water displacement
	ResidualOilGas   []float64 // Sor to gas displacement
	ResidualGas      []float64 // Sgr

	// Optional capillary-like transition zones centered on the contacts.
	UseTransitionZones bool
	GasOilThickness    float64
	OilWaterThickness  float64
	CurvatureExponent  float64
}

// BuildSaturationGrids constructs water/oil/gas saturation grids from
// contact depths, normalized to sum to 1 in active cells (porosity > 0).
func BuildSaturationGrids(dims types.Dims, depth, porosity []float64, sc SaturationContacts) (sw, so, sg []float64, err error) {
	if err = sc.validate(dims, depth, porosity); err != nil {
		return
	}
	n := dims.Cells()
	sw, so, sg = make([]float64, n), make([]float64, n), make([]float64, n)

	var (
		gocTop = sc.GasOilContact
		gocBot = sc.GasOilContact
		owcTop = sc.OilWaterContact
		owcBot = sc.OilWaterContact
	)
	if sc.UseTransitionZones {
		gocTop -= sc.GasOilThickness / 2
		gocBot += sc.GasOilThickness / 2
		owcTop -= sc.OilWaterThickness / 2
		owcBot += sc.OilWaterThickness / 2
	}

	for c := 0; c < n; c++ {
		if math.IsNaN(porosity[c]) || porosity[c] <= 0 {
			continue
		}
		var (
			d   = depth[c]
			swc = sc.ConnateWater[c]
			sow = sc.ResidualOilWater[c]
			sog = sc.ResidualOilGas[c]
			sgr = sc.ResidualGas[c]
		)
		switch {
		case d < gocTop: // gas cap: gas has displaced oil
			sg[c] = 1 - sog - swc
			so[c] = sog
			sw[c] = swc
		case sc.UseTransitionZones && d <= gocBot: // gas-oil transition
			w := blend(d, gocTop, sc.GasOilThickness, sc.CurvatureExponent)
			sg[c] = (1-sog-swc)*(1-w) + sgr*w
			so[c] = sog*(1-w) + (1-swc-sgr)*w
			sw[c] = swc
		case d < owcTop: // oil column
			so[c] = 1 - swc - sgr
			sw[c] = swc
			sg[c] = sgr
		case sc.UseTransitionZones && d <= owcBot: // oil-water transition
			w := blend(d, owcTop, sc.OilWaterThickness, sc.CurvatureExponent)
			sw[c] = swc*(1-w) + (1-sow)*w
			so[c] = (1-swc-sgr)*(1-w) + sow*w
			sg[c] = sgr * (1 - w)
		default: // water zone: water has displaced oil
			sw[c] = 1 - sow
			so[c] = sow
			sg[c] = 0
		}
		total := sw[c] + so[c] + sg[c]
		if total > 0 {
			sw[c] /= total
			so[c] /= total
			sg[c] /= total
		}
	}
	return
}

func blend(d, top, thickness, exponent float64) float64 {
	frac := (d - top) / thickness
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	return math.Pow(frac, exponent)
}

func (sc SaturationContacts) validate(dims types.Dims, depth, porosity []float64) error {
	if sc.GasOilContact >= sc.OilWaterContact {
		return fmt.Errorf("gas-oil contact (%g) must be above oil-water contact (%g); depths increase downward",
			sc.GasOilContact, sc.OilWaterContact)
	}
	n := dims.Cells()
	for name, g := range map[string][]float64{
		"depth":              depth,
		"porosity":           porosity,
		"connate water":      sc.ConnateWater,
		"residual oil water": sc.ResidualOilWater,
		"residual oil gas":   sc.ResidualOilGas,
		"residual gas":       sc.ResidualGas,
	} {
		if len(g) != n {
			return fmt.Errorf("%s grid has %d cells, expected %d", name, len(g), n)
		}
	}
	for c := 0; c < n; c++ {
		if math.IsNaN(porosity[c]) || porosity[c] <= 0 {
			continue
		}
		for name, v := range map[string]float64{
			"Swc":       sc.ConnateWater[c],
			"Sor_water": sc.ResidualOilWater[c],
			"Sor_gas":   sc.ResidualOilGas[c],
			"Sgr":       sc.ResidualGas[c],
		} {
			if v < 0 || v > 1 {
				return fmt.Errorf("%s = %g out of [0,1] at cell %d", name, v, c)
			}
		}
		if sc.ConnateWater[c]+sc.ResidualOilGas[c] > 1 {
			return fmt.Errorf("Swc + Sor_gas exceeds 1 at cell %d", c)
		}
		if sc.ConnateWater[c]+sc.ResidualGas[c] > 1 {
			return fmt.Errorf("Swc + Sgr exceeds 1 at cell %d", c)
		}
		if sc.ResidualOilWater[c]+sc.ResidualGas[c] > 1 {
			return fmt.Errorf("Sor_water + Sgr exceeds 1 at cell %d", c)
		}
	}
	if sc.UseTransitionZones {
		if sc.GasOilThickness <= 0 || sc.OilWaterThickness <= 0 {
			return fmt.Errorf("transition thicknesses must be positive")
		}
		if sc.CurvatureExponent <= 0 {
			return fmt.Errorf("transition curvature exponent must be positive")
		}
		gocBot := sc.GasOilContact + sc.GasOilThickness/2
		owcTop := sc.OilWaterContact - sc.OilWaterThickness/2
		if gocBot >= owcTop {
			return fmt.Errorf("transition zones overlap: GOC transition ends at %g, OWC transition starts at %g", gocBot, owcTop)
		}
	}
	return nil
}
