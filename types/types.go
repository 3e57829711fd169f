package types

import "fmt"

// Phase enumerates the three black-oil fluid phases.
type Phase uint8

const (
	Water Phase = iota
	Oil
	Gas
)

var phaseNames = []string{"water", "oil", "gas"}

func (p Phase) String() string {
	if int(p) >= len(phaseNames) {
		panic(fmt.Sprintf("unknown phase: %d", p))
	}
	return phaseNames[p]
}

// Phases lists all phases in iteration order (water, oil, gas).
var Phases = []Phase{Water, Oil, Gas}

// Dims describes a structured 3D grid of Nx x Ny x Nz cells. Grids are
// stored as flat slices in C order: index = (i*Ny + j)*Nz + k.
type Dims struct {
	Nx, Ny, Nz int
}

func (d Dims) Cells() int { return d.Nx * d.Ny * d.Nz }

func (d Dims) Index(i, j, k int) int { return (i*d.Ny+j)*d.Nz + k }

func (d Dims) At(index int) (i, j, k int) {
	k = index % d.Nz
	j = (index / d.Nz) % d.Ny
	i = index / (d.Ny * d.Nz)
	return
}

func (d Dims) InBounds(i, j, k int) bool {
	return i >= 0 && i < d.Nx && j >= 0 && j < d.Ny && k >= 0 && k < d.Nz
}

// CellIndex addresses a single cell in the structured grid.
type CellIndex struct {
	I, J, K int
}

// Time is a simulation duration or instant in seconds.
type Time float64

const (
	secondsPerHour = 3600
	secondsPerDay  = 86400
	daysPerYear    = 365.25
)

func Hours(h float64) Time { return Time(h * secondsPerHour) }
func Days(d float64) Time  { return Time(d * secondsPerDay) }
func Years(y float64) Time { return Days(y * daysPerYear) }

func (t Time) Seconds() float64 { return float64(t) }
func (t Time) Hours() float64   { return float64(t) / secondsPerHour }
func (t Time) Days() float64    { return float64(t) / secondsPerDay }
func (t Time) Years() float64   { return t.Days() / daysPerYear }
