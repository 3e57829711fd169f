// Package pvt evaluates pressure/temperature/saturation dependent fluid
// and rock-fluid properties for every cell. Evaluators are pure: the same
// model always produces the same properties, and nothing here mutates the
// model.
package pvt

import (
	"github.com/gobores/gobores/reservoir"
	"github.com/gobores/gobores/utils"
)

// FieldProperties is the per-cell property bundle produced once per step
// attempt and consumed by assembly, wells and the acceptance policy.
type FieldProperties struct {
	ViscosityWater []float64 // cP
	ViscosityOil   []float64
	ViscosityGas   []float64

	DensityWater []float64 // lbm/ft³
	DensityOil   []float64
	DensityGas   []float64

	Bw []float64 // formation volume factors, rb/stb and rcf/scf
	Bo []float64
	Bg []float64
	Rs []float64 // solution gas-oil ratio, scf/stb

	KrWater []float64
	KrOil   []float64
	KrGas   []float64

	MobWater []float64 // kr/mu, 1/cP
	MobOil   []float64
	MobGas   []float64

	Pcow []float64 // oil-water capillary pressure, psi
	Pcgo []float64 // gas-oil capillary pressure, psi

	TotalCompressibility []float64 // 1/psi
	ZFactor              []float64
}

func NewFieldProperties(n int) (p FieldProperties) {
	p = FieldProperties{
		ViscosityWater:       make([]float64, n),
		ViscosityOil:         make([]float64, n),
		ViscosityGas:         make([]float64, n),
		DensityWater:         make([]float64, n),
		DensityOil:           make([]float64, n),
		DensityGas:           make([]float64, n),
		Bw:                   make([]float64, n),
		Bo:                   make([]float64, n),
		Bg:                   make([]float64, n),
		Rs:                   make([]float64, n),
		KrWater:              make([]float64, n),
		KrOil:                make([]float64, n),
		KrGas:                make([]float64, n),
		MobWater:             make([]float64, n),
		MobOil:               make([]float64, n),
		MobGas:               make([]float64, n),
		Pcow:                 make([]float64, n),
		Pcgo:                 make([]float64, n),
		TotalCompressibility: make([]float64, n),
		ZFactor:              make([]float64, n),
	}
	return
}

// Evaluator maps a model to per-cell properties. Implementations must be
// stateless with respect to the simulation: no step-to-step memory.
type Evaluator interface {
	Evaluate(m reservoir.ReservoirModel, pm *utils.PartitionMap) FieldProperties
}
