package reservoir

import (
	"fmt"
	"math"

	"github.com/gobores/gobores/types"
)

// Orientation selects the layering axis for LayeredGrid.
type Orientation uint8

const (
	OrientX Orientation = iota
	OrientY
	OrientZ
)

// UniformGrid fills every cell with the same value.
func UniformGrid(dims types.Dims, value float64) (g []float64) {
	g = make([]float64, dims.Cells())
	for i := range g {
		g[i] = value
	}
	return
}

// LayeredGrid assigns one value per layer along the given axis. The number
// of values must match the cell count along that axis.
func LayeredGrid(dims types.Dims, values []float64, orient Orientation) (g []float64, err error) {
	var want int
	switch orient {
	case OrientX:
		want = dims.Nx
	case OrientY:
		want = dims.Ny
	case OrientZ:
		want = dims.Nz
	default:
		panic(fmt.Sprintf("unknown orientation: %d", orient))
	}
	if len(values) != want {
		err = fmt.Errorf("got %d layer values, axis has %d cells", len(values), want)
		return
	}
	g = make([]float64, dims.Cells())
	for i := 0; i < dims.Nx; i++ {
		for j := 0; j < dims.Ny; j++ {
			for k := 0; k < dims.Nz; k++ {
				var v float64
				switch orient {
				case OrientX:
					v = values[i]
				case OrientY:
					v = values[j]
				case OrientZ:
					v = values[k]
				}
				g[dims.Index(i, j, k)] = v
			}
		}
	}
	return
}

// DepthGrid converts a cell thickness grid into cell-center depths measured
// downward from the top of layer k=0 plus datum.
func DepthGrid(dims types.Dims, thickness []float64, datum float64) (depth []float64) {
	depth = make([]float64, dims.Cells())
	for i := 0; i < dims.Nx; i++ {
		for j := 0; j < dims.Ny; j++ {
			c0 := dims.Index(i, j, 0)
			depth[c0] = datum + thickness[c0]/2
			for k := 1; k < dims.Nz; k++ {
				c, up := dims.Index(i, j, k), dims.Index(i, j, k-1)
				depth[c] = depth[up] + thickness[up]/2 + thickness[c]/2
			}
		}
	}
	return
}

// ElevationGrid measures cell centers upward from the base of layer k=Nz-1.
func ElevationGrid(dims types.Dims, thickness []float64) (elev []float64) {
	elev = make([]float64, dims.Cells())
	for i := 0; i < dims.Nx; i++ {
		for j := 0; j < dims.Ny; j++ {
			cb := dims.Index(i, j, dims.Nz-1)
			elev[cb] = thickness[cb] / 2
			for k := dims.Nz - 2; k >= 0; k-- {
				c, dn := dims.Index(i, j, k), dims.Index(i, j, k+1)
				elev[c] = elev[dn] + thickness[dn]/2 + thickness[c]/2
			}
		}
	}
	return
}

// ApplyStructuralDip tilts a depth grid by a planar gradient in the azimuth
// direction. Azimuth is degrees clockwise from North (+y); depth increases
// down-dip. Returns a new grid.
func ApplyStructuralDip(dims types.Dims, depth []float64, cellSize [2]float64, dipAngle, dipAzimuth float64) (dipped []float64, err error) {
	if dipAngle < 0 || dipAngle > 90 {
		err = fmt.Errorf("dip angle must be in [0, 90] degrees, got %g", dipAngle)
		return
	}
	if dipAzimuth < 0 || dipAzimuth >= 360 {
		err = fmt.Errorf("dip azimuth must be in [0, 360) degrees, got %g", dipAzimuth)
		return
	}
	var (
		azRad = dipAzimuth * math.Pi / 180
		dx    = math.Sin(azRad) // East component
		dy    = math.Cos(azRad) // North component
		tanD  = math.Tan(dipAngle * math.Pi / 180)
	)
	dipped = make([]float64, len(depth))
	copy(dipped, depth)
	for i := 0; i < dims.Nx; i++ {
		for j := 0; j < dims.Ny; j++ {
			offset := (float64(i)*cellSize[0]*dx + float64(j)*cellSize[1]*dy) * tanD
			for k := 0; k < dims.Nz; k++ {
				dipped[dims.Index(i, j, k)] += offset
			}
		}
	}
	return
}
