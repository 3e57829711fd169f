package reservoir

import (
	"github.com/gobores/gobores/types"
)

// TransConversion converts mD·ft²/ft to ft³/day/psi/cP (field units).
const TransConversion = 0.006328

// BoundaryKind selects the outer-face condition for one grid side.
type BoundaryKind uint8

const (
	NoFlow BoundaryKind = iota
	FixedPressure
	FixedFlux
	AquiferFace
)

// BoundaryCondition applies to one outer face of the grid.
type BoundaryCondition struct {
	Kind  BoundaryKind
	Value float64 // psi for FixedPressure, ft³/day for FixedFlux
}

// BoundarySet names the six outer faces.
type BoundarySet struct {
	XMin, XMax, YMin, YMax, ZMin, ZMax BoundaryCondition
}

// Geometry carries the fixed grid topology for a run: geometric face
// transmissibilities (viscosity and relative permeability excluded) and
// pore volumes. TX[c] connects cell c to its +x neighbor; the last plane
// in each direction is zero. Inactive cells carry zero transmissibility
// on all their faces.
type Geometry struct {
	Dims       types.Dims
	TX, TY, TZ []float64
	PoreVolume []float64
	Boundary   BoundarySet
}

// NewGeometry computes harmonic-average face transmissibilities from the
// model's directional permeabilities and cell geometry.
func NewGeometry(m ReservoirModel, boundary BoundarySet) (g Geometry) {
	var (
		d  = m.Dims
		n  = d.Cells()
		dx = m.CellSize[0]
		dy = m.CellSize[1]
	)
	g = Geometry{
		Dims:       d,
		TX:         make([]float64, n),
		TY:         make([]float64, n),
		TZ:         make([]float64, n),
		PoreVolume: make([]float64, n),
		Boundary:   boundary,
	}
	for c := 0; c < n; c++ {
		g.PoreVolume[c] = m.PoreVolume(c)
	}
	harmonic := func(k1, k2 float64) float64 {
		if k1 <= 0 || k2 <= 0 {
			return 0
		}
		return 2 * k1 * k2 / (k1 + k2)
	}
	for i := 0; i < d.Nx; i++ {
		for j := 0; j < d.Ny; j++ {
			for k := 0; k < d.Nz; k++ {
				c := d.Index(i, j, k)
				if !m.Active(c) {
					continue
				}
				dz := m.Thickness[c]
				if i+1 < d.Nx {
					nb := d.Index(i+1, j, k)
					if m.Active(nb) {
						kf := harmonic(m.Rock.Permeability.X[c], m.Rock.Permeability.X[nb])
						area := dy * (dz + m.Thickness[nb]) / 2
						g.TX[c] = TransConversion * kf * area / dx
					}
				}
				if j+1 < d.Ny {
					nb := d.Index(i, j+1, k)
					if m.Active(nb) {
						kf := harmonic(m.Rock.Permeability.Y[c], m.Rock.Permeability.Y[nb])
						area := dx * (dz + m.Thickness[nb]) / 2
						g.TY[c] = TransConversion * kf * area / dy
					}
				}
				if k+1 < d.Nz {
					nb := d.Index(i, j, k+1)
					if m.Active(nb) {
						kf := harmonic(m.Rock.Permeability.Z[c], m.Rock.Permeability.Z[nb])
						dzf := (dz + m.Thickness[nb]) / 2
						g.TZ[c] = TransConversion * kf * dx * dy / dzf
					}
				}
			}
		}
	}
	return
}

// Neighbor describes one face connection from a cell.
type Neighbor struct {
	Cell  int
	Trans float64
}

// Neighbors appends the face connections of cell c to buf and returns it.
// The buffer form avoids a per-cell allocation inside assembly sweeps.
func (g Geometry) Neighbors(c int, buf []Neighbor) []Neighbor {
	i, j, k := g.Dims.At(c)
	buf = buf[:0]
	if i > 0 {
		nb := g.Dims.Index(i-1, j, k)
		if t := g.TX[nb]; t > 0 {
			buf = append(buf, Neighbor{nb, t})
		}
	}
	if t := g.TX[c]; t > 0 && i+1 < g.Dims.Nx {
		buf = append(buf, Neighbor{g.Dims.Index(i+1, j, k), t})
	}
	if j > 0 {
		nb := g.Dims.Index(i, j-1, k)
		if t := g.TY[nb]; t > 0 {
			buf = append(buf, Neighbor{nb, t})
		}
	}
	if t := g.TY[c]; t > 0 && j+1 < g.Dims.Ny {
		buf = append(buf, Neighbor{g.Dims.Index(i, j+1, k), t})
	}
	if k > 0 {
		nb := g.Dims.Index(i, j, k-1)
		if t := g.TZ[nb]; t > 0 {
			buf = append(buf, Neighbor{nb, t})
		}
	}
	if t := g.TZ[c]; t > 0 && k+1 < g.Dims.Nz {
		buf = append(buf, Neighbor{g.Dims.Index(i, j, k+1), t})
	}
	return buf
}

// BoundaryFace is one outer face of an active cell with a condition
// other than NoFlow. Trans is the geometric half-cell transmissibility
// used for FixedPressure faces.
type BoundaryFace struct {
	Cell  int
	Trans float64
	Cond  BoundaryCondition
}

// BoundaryFaces enumerates the conditioned outer faces of the grid.
func (g Geometry) BoundaryFaces(m ReservoirModel) (faces []BoundaryFace) {
	var (
		d  = g.Dims
		dx = m.CellSize[0]
		dy = m.CellSize[1]
	)
	add := func(c int, cond BoundaryCondition, k, area, dist float64) {
		if cond.Kind == NoFlow || !m.Active(c) {
			return
		}
		faces = append(faces, BoundaryFace{
			Cell:  c,
			Trans: TransConversion * k * area / (dist / 2),
			Cond:  cond,
		})
	}
	for j := 0; j < d.Ny; j++ {
		for k := 0; k < d.Nz; k++ {
			c := d.Index(0, j, k)
			add(c, g.Boundary.XMin, m.Rock.Permeability.X[c], dy*m.Thickness[c], dx)
			c = d.Index(d.Nx-1, j, k)
			add(c, g.Boundary.XMax, m.Rock.Permeability.X[c], dy*m.Thickness[c], dx)
		}
	}
	for i := 0; i < d.Nx; i++ {
		for k := 0; k < d.Nz; k++ {
			c := d.Index(i, 0, k)
			add(c, g.Boundary.YMin, m.Rock.Permeability.Y[c], dx*m.Thickness[c], dy)
			c = d.Index(i, d.Ny-1, k)
			add(c, g.Boundary.YMax, m.Rock.Permeability.Y[c], dx*m.Thickness[c], dy)
		}
	}
	for i := 0; i < d.Nx; i++ {
		for j := 0; j < d.Ny; j++ {
			c := d.Index(i, j, 0)
			add(c, g.Boundary.ZMin, m.Rock.Permeability.Z[c], dx*dy, m.Thickness[c])
			c = d.Index(i, j, d.Nz-1)
			add(c, g.Boundary.ZMax, m.Rock.Permeability.Z[c], dx*dy, m.Thickness[c])
		}
	}
	return
}
