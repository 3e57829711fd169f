package utils

import (
	"math"
	"sort"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

// DOK is the assembly-stage sparse matrix: cheap random writes, converted
// to CSR once assembly is complete.
type DOK struct {
	M *sparse.DOK
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{M: sparse.NewDOK(nr, nc)}
	return
}

func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }

func (m DOK) Set(i, j int, val float64) { m.M.Set(i, j, val) }

// AddAt accumulates into an entry, the common operation during flux
// assembly where several faces contribute to one coefficient.
func (m DOK) AddAt(i, j int, val float64) { m.M.Set(i, j, m.M.At(i, j)+val) }

// ToCSR converts to compressed rows with the columns of each row in
// ascending order. The underlying conversion groups entries by row in
// map-iteration order, so the rows are sorted here; triangular sweeps
// downstream rely on it.
func (m DOK) ToCSR() CSR {
	csr := m.M.ToCSR()
	raw := csr.RawMatrix()
	for i := 0; i < raw.I; i++ {
		start, end := raw.Indptr[i], raw.Indptr[i+1]
		sort.Sort(rowEntries{ind: raw.Ind[start:end], data: raw.Data[start:end]})
	}
	return CSR{M: csr}
}

// rowEntries co-sorts one row's column indices and values.
type rowEntries struct {
	ind  []int
	data []float64
}

func (r rowEntries) Len() int           { return len(r.ind) }
func (r rowEntries) Less(i, j int) bool { return r.ind[i] < r.ind[j] }
func (r rowEntries) Swap(i, j int) {
	r.ind[i], r.ind[j] = r.ind[j], r.ind[i]
	r.data[i], r.data[j] = r.data[j], r.data[i]
}

// CSR is the solve-stage sparse matrix.
type CSR struct {
	M *sparse.CSR
}

func (m CSR) Dims() (r, c int)              { return m.M.Dims() }
func (m CSR) At(i, j int) float64           { return m.M.At(i, j) }
func (m CSR) NNZ() int                      { return m.M.NNZ() }
func (m CSR) RawMatrix() *blas.SparseMatrix { return m.M.RawMatrix() }

// MulVec computes out = A*x using the raw CSR storage.
func (m CSR) MulVec(x, out Vector) {
	var (
		raw  = m.RawMatrix()
		xd   = x.Data()
		outd = out.Data()
	)
	for i := 0; i < raw.I; i++ {
		var sum float64
		for jj := raw.Indptr[i]; jj < raw.Indptr[i+1]; jj++ {
			sum += raw.Data[jj] * xd[raw.Ind[jj]]
		}
		outd[i] = sum
	}
}

// Diagonal extracts the main diagonal.
func (m CSR) Diagonal() (d Vector) {
	nr, _ := m.Dims()
	d = NewVector(nr)
	raw := m.RawMatrix()
	for i := 0; i < nr; i++ {
		for jj := raw.Indptr[i]; jj < raw.Indptr[i+1]; jj++ {
			if raw.Ind[jj] == i {
				d.SetVec(i, raw.Data[jj])
				break
			}
		}
	}
	return
}

// FrobeniusNorm of the stored entries.
func (m CSR) FrobeniusNorm() float64 {
	var sum float64
	for _, v := range m.RawMatrix().Data {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// RelativeChange measures ||A - B||_F / ||A||_F over the union sparsity
// pattern, used to decide preconditioner refresh.
func (m CSR) RelativeChange(B CSR) float64 {
	var (
		normA = m.FrobeniusNorm()
		rawA  = m.RawMatrix()
		rawB  = B.RawMatrix()
		diff  float64
	)
	if normA == 0 {
		return math.Inf(1)
	}
	for i := 0; i < rawA.I; i++ {
		for jj := rawA.Indptr[i]; jj < rawA.Indptr[i+1]; jj++ {
			d := rawA.Data[jj] - B.At(i, rawA.Ind[jj])
			diff += d * d
		}
	}
	for i := 0; i < rawB.I; i++ {
		for jj := rawB.Indptr[i]; jj < rawB.Indptr[i+1]; jj++ {
			if m.At(i, rawB.Ind[jj]) == 0 {
				diff += rawB.Data[jj] * rawB.Data[jj]
			}
		}
	}
	return math.Sqrt(diff) / normA
}

var _ mat.Matrix = (*sparse.CSR)(nil)
