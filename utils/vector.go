package utils

import (
	"math"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Vector wraps a gonum VecDense. Reductions delegate to gonum floats.
type Vector struct {
	V *mat.VecDense
}

func NewVector(n int, dataO ...[]float64) (R Vector) {
	if len(dataO) != 0 {
		R = Vector{V: mat.NewVecDense(n, dataO[0])}
	} else {
		R = Vector{V: mat.NewVecDense(n, make([]float64, n))}
	}
	return
}

func (v Vector) Len() int                 { return v.V.Len() }
func (v Vector) AtVec(i int) float64      { return v.V.AtVec(i) }
func (v Vector) SetVec(i int, val float64) { v.V.SetVec(i, val) }
func (v Vector) RawVector() blas64.Vector { return v.V.RawVector() }
func (v Vector) Data() []float64          { return v.V.RawVector().Data }

func (v Vector) Copy() (R Vector) {
	R = NewVector(v.Len())
	copy(R.Data(), v.Data())
	return
}

func (v Vector) Zero() Vector { // Changes receiver
	data := v.Data()
	for i := range data {
		data[i] = 0
	}
	return v
}

func (v Vector) Scale(a float64) Vector { // Changes receiver
	floats.Scale(a, v.Data())
	return v
}

// AddScaled computes v += a*w in place.
func (v Vector) AddScaled(a float64, w Vector) Vector { // Changes receiver
	floats.AddScaled(v.Data(), a, w.Data())
	return v
}

func (v Vector) Dot(w Vector) float64 { return floats.Dot(v.Data(), w.Data()) }

func (v Vector) Norm2() float64 { return math.Sqrt(v.Dot(v)) }

func (v Vector) MaxAbs() (max float64) {
	for _, val := range v.Data() {
		if a := math.Abs(val); a > max {
			max = a
		}
	}
	return
}
