package utils

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// Matrix wraps a gonum dense matrix with chainable helpers. Methods marked
// "Changes receiver" mutate in place and return the receiver for chaining.
type Matrix struct {
	M *mat.Dense
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			panic(fmt.Sprintf("mismatch in allocation: nr*nc = %d, len(data) = %d", nr*nc, len(dataO[0])))
		}
		m = mat.NewDense(nr, nc, dataO[0])
	} else {
		m = mat.NewDense(nr, nc, make([]float64, nr*nc))
	}
	R = Matrix{M: m}
	return
}

func (m Matrix) Dims() (r, c int)          { return m.M.Dims() }
func (m Matrix) At(i, j int) float64       { return m.M.At(i, j) }
func (m Matrix) RawMatrix() blas64.General { return m.M.RawMatrix() }
func (m Matrix) Data() []float64           { return m.M.RawMatrix().Data }

func (m Matrix) Copy() (R Matrix) {
	nr, nc := m.Dims()
	R = NewMatrix(nr, nc)
	R.M.Copy(m.M)
	return
}

func (m Matrix) Set(i, j int, val float64) Matrix { // Changes receiver
	m.M.Set(i, j, val)
	return m
}

func (m Matrix) Scale(a float64) Matrix { // Changes receiver
	data := m.Data()
	for i := range data {
		data[i] *= a
	}
	return m
}

func (m Matrix) AddScalar(a float64) Matrix { // Changes receiver
	data := m.Data()
	for i := range data {
		data[i] += a
	}
	return m
}

func (m Matrix) Add(A Matrix) Matrix { // Changes receiver
	data, dataA := m.Data(), A.Data()
	for i := range data {
		data[i] += dataA[i]
	}
	return m
}

func (m Matrix) Subtract(A Matrix) Matrix { // Changes receiver
	data, dataA := m.Data(), A.Data()
	for i := range data {
		data[i] -= dataA[i]
	}
	return m
}

func (m Matrix) Apply(f func(float64) float64) Matrix { // Changes receiver
	data := m.Data()
	for i, val := range data {
		data[i] = f(val)
	}
	return m
}

func (m Matrix) Apply2(A Matrix, f func(float64, float64) float64) Matrix { // Changes receiver
	data, dataA := m.Data(), A.Data()
	for i, val := range data {
		data[i] = f(val, dataA[i])
	}
	return m
}

func (m Matrix) Mul(A Matrix) (R Matrix) {
	nr, _ := m.Dims()
	_, nc := A.Dims()
	R = NewMatrix(nr, nc)
	R.M.Mul(m.M, A.M)
	return
}

func (m Matrix) MulVec(v Vector) (R Vector) {
	nr, _ := m.Dims()
	R = NewVector(nr)
	R.V.MulVec(m.M, v.V)
	return
}

func (m Matrix) Min() (min float64) {
	for i, val := range m.Data() {
		if i == 0 || val < min {
			min = val
		}
	}
	return
}

func (m Matrix) Max() (max float64) {
	for i, val := range m.Data() {
		if i == 0 || val > max {
			max = val
		}
	}
	return
}
