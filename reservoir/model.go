package reservoir

import (
	"fmt"
	"math"

	"github.com/gobores/gobores/types"
	"github.com/gobores/gobores/utils"
)

// Permeability holds directional absolute permeability grids in mD.
type Permeability struct {
	X, Y, Z []float64
}

// RockProperties are fixed for the life of a run.
type RockProperties struct {
	Porosity        []float64 // fraction
	Permeability    Permeability
	Compressibility float64 // 1/psi
}

// FluidProperties are the per-cell primary unknowns.
type FluidProperties struct {
	Pressure             []float64 // psi
	Temperature          float64   // degF, uniform
	WaterSaturation      []float64
	OilSaturation        []float64
	GasSaturation        []float64
	SolventConcentration []float64 // 0..1, nil unless miscibility is enabled
}

// ReservoirModel is an immutable value describing the reservoir at one
// instant. Every accepted step produces a new model; an emitted model is
// never mutated, so unchanged grids may be shared between generations.
type ReservoirModel struct {
	Dims      types.Dims
	CellSize  [2]float64 // dx, dy in ft
	Thickness []float64  // dz per cell in ft
	Rock      RockProperties
	Fluid     FluidProperties
	active    []bool
}

func NewReservoirModel(dims types.Dims, cellSize [2]float64, thickness []float64, rock RockProperties, fluid FluidProperties) (m ReservoirModel) {
	m = ReservoirModel{
		Dims:      dims,
		CellSize:  cellSize,
		Thickness: thickness,
		Rock:      rock,
		Fluid:     fluid,
	}
	m.active = make([]bool, dims.Cells())
	for c := range m.active {
		phi := rock.Porosity[c]
		m.active[c] = !math.IsNaN(phi) && phi > 0
	}
	return
}

func (m ReservoirModel) Active(cell int) bool { return m.active[cell] }

// PoreVolume in ft³ for one cell.
func (m ReservoirModel) PoreVolume(cell int) float64 {
	return m.Rock.Porosity[cell] * m.CellSize[0] * m.CellSize[1] * m.Thickness[cell]
}

// WithFluid returns a new model generation carrying the given fluid state.
// Rock, geometry and the active mask are shared; they never change.
func (m ReservoirModel) WithFluid(fluid FluidProperties) ReservoirModel {
	next := m
	next.Fluid = fluid
	return next
}

// NormalizeSaturations returns copies of the three saturation grids scaled
// so that Sw+So+Sg = 1 in every active cell. Inactive cells are zeroed.
func (m ReservoirModel) NormalizeSaturations(sw, so, sg []float64) (nw, no, ng []float64) {
	n := m.Dims.Cells()
	nw, no, ng = make([]float64, n), make([]float64, n), make([]float64, n)
	for c := 0; c < n; c++ {
		if !m.active[c] {
			continue
		}
		total := sw[c] + so[c] + sg[c]
		if total <= 0 {
			continue
		}
		nw[c] = sw[c] / total
		no[c] = so[c] / total
		ng[c] = sg[c] / total
	}
	return
}

// LayerAverages returns an Nz x 4 matrix of pore-volume-weighted layer
// averages: pressure, then water, oil and gas saturation. Layers with no
// active cells report zeros.
func (m ReservoirModel) LayerAverages() (R utils.Matrix) {
	R = utils.NewMatrix(m.Dims.Nz, 4)
	pv := make([]float64, m.Dims.Nz)
	for c := 0; c < m.Dims.Cells(); c++ {
		if !m.active[c] {
			continue
		}
		k := c % m.Dims.Nz
		v := m.PoreVolume(c)
		pv[k] += v
		R.Set(k, 0, R.At(k, 0)+v*m.Fluid.Pressure[c])
		R.Set(k, 1, R.At(k, 1)+v*m.Fluid.WaterSaturation[c])
		R.Set(k, 2, R.At(k, 2)+v*m.Fluid.OilSaturation[c])
		R.Set(k, 3, R.At(k, 3)+v*m.Fluid.GasSaturation[c])
	}
	for k := 0; k < m.Dims.Nz; k++ {
		if pv[k] <= 0 {
			continue
		}
		for j := 0; j < 4; j++ {
			R.Set(k, j, R.At(k, j)/pv[k])
		}
	}
	return
}

// Validate checks grid shapes and physical ranges. All failures are fatal
// configuration errors, never retried.
func (m ReservoirModel) Validate() error {
	n := m.Dims.Cells()
	if n <= 0 {
		return fmt.Errorf("grid has no cells: %+v", m.Dims)
	}
	grids := map[string][]float64{
		"thickness":        m.Thickness,
		"porosity":         m.Rock.Porosity,
		"permeability x":   m.Rock.Permeability.X,
		"permeability y":   m.Rock.Permeability.Y,
		"permeability z":   m.Rock.Permeability.Z,
		"pressure":         m.Fluid.Pressure,
		"water saturation": m.Fluid.WaterSaturation,
		"oil saturation":   m.Fluid.OilSaturation,
		"gas saturation":   m.Fluid.GasSaturation,
	}
	for name, g := range grids {
		if len(g) != n {
			return fmt.Errorf("%s grid has %d cells, expected %d", name, len(g), n)
		}
	}
	if m.Fluid.SolventConcentration != nil && len(m.Fluid.SolventConcentration) != n {
		return fmt.Errorf("solvent concentration grid has %d cells, expected %d", len(m.Fluid.SolventConcentration), n)
	}
	for c := 0; c < n; c++ {
		if !m.active[c] {
			continue
		}
		phi := m.Rock.Porosity[c]
		if phi < 0 || phi > 1 {
			return fmt.Errorf("porosity %g out of [0,1] at cell %d", phi, c)
		}
		if m.Fluid.Pressure[c] <= 0 {
			return fmt.Errorf("non-positive pressure %g at cell %d", m.Fluid.Pressure[c], c)
		}
		sum := m.Fluid.WaterSaturation[c] + m.Fluid.OilSaturation[c] + m.Fluid.GasSaturation[c]
		if math.Abs(sum-1) > 1e-6 {
			return fmt.Errorf("saturations sum to %g at cell %d", sum, c)
		}
	}
	return nil
}
