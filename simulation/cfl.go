package simulation

import (
	"math"

	"github.com/gobores/gobores/reservoir"
	"github.com/gobores/gobores/types"
)

// FaceFluxes holds signed volumetric face fluxes, ft³/day, stored like
// the geometry transmissibilities: Water[c] is the total flux from c to
// its +x neighbor, and so on per direction per phase via the three
// direction slices.
type FaceFluxes struct {
	X, Y, Z []float64 // total volumetric flux across +x/+y/+z faces
}

func NewFaceFluxes(n int) FaceFluxes {
	return FaceFluxes{X: make([]float64, n), Y: make([]float64, n), Z: make([]float64, n)}
}

// MaxCFL returns the largest cell CFL number for step dt: the total
// volumetric throughput of a cell over the step divided by its pore
// volume.
func MaxCFL(g reservoir.Geometry, flux FaceFluxes, dt types.Time) (cfl float64) {
	d := g.Dims
	days := dt.Days()
	for c := 0; c < d.Cells(); c++ {
		pv := g.PoreVolume[c]
		if pv <= 0 {
			continue
		}
		through := cellThroughput(g, flux, c)
		if v := through * days / pv; v > cfl {
			cfl = v
		}
	}
	return
}

// CFLStepLimit inverts MaxCFL: the largest dt keeping every cell at or
// below maxCFL. Zero means no flux information, hence no limit.
func CFLStepLimit(g reservoir.Geometry, flux FaceFluxes, maxCFL float64) types.Time {
	if maxCFL <= 0 || flux.X == nil {
		return 0
	}
	d := g.Dims
	limitDays := math.Inf(1)
	for c := 0; c < d.Cells(); c++ {
		pv := g.PoreVolume[c]
		if pv <= 0 {
			continue
		}
		through := cellThroughput(g, flux, c)
		if through <= 0 {
			continue
		}
		if lim := maxCFL * pv / through; lim < limitDays {
			limitDays = lim
		}
	}
	if math.IsInf(limitDays, 1) {
		return 0
	}
	return types.Days(limitDays)
}

// cellThroughput sums outgoing flux magnitudes over the six faces of c,
// ft³/day. Incoming flux is the neighbor's problem.
func cellThroughput(g reservoir.Geometry, flux FaceFluxes, c int) (out float64) {
	i, j, k := g.Dims.At(c)
	abs := func(v float64) float64 {
		if v < 0 {
			return -v
		}
		return v
	}
	// +x/+y/+z faces belong to c; the -direction faces belong to the
	// lower neighbor.
	out += abs(flux.X[c]) + abs(flux.Y[c]) + abs(flux.Z[c])
	if i > 0 {
		out += abs(flux.X[g.Dims.Index(i-1, j, k)])
	}
	if j > 0 {
		out += abs(flux.Y[g.Dims.Index(i, j-1, k)])
	}
	if k > 0 {
		out += abs(flux.Z[g.Dims.Index(i, j, k-1)])
	}
	out /= 2 // each face counted once as outflow, once as inflow
	return
}
