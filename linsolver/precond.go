package linsolver

import (
	"fmt"
	"math"

	"github.com/gobores/gobores/utils"
)

// Preconditioner applies z = M⁻¹·r into a caller-owned vector.
type Preconditioner interface {
	Name() string
	Apply(r, z utils.Vector)
}

// Factory builds a preconditioner for one matrix.
type Factory interface {
	Build(A utils.CSR) (Preconditioner, error)
}

// Identity is the no-op preconditioner.
type Identity struct{}

func (Identity) Name() string { return "identity" }

func (Identity) Apply(r, z utils.Vector) {
	copy(z.Data(), r.Data())
}

// IdentityFactory satisfies Factory for Identity.
type IdentityFactory struct{}

func (IdentityFactory) Build(utils.CSR) (Preconditioner, error) { return Identity{}, nil }

// Jacobi scales by the inverse diagonal.
type Jacobi struct {
	invDiag []float64
}

func (Jacobi) Name() string { return "jacobi" }

func (j Jacobi) Apply(r, z utils.Vector) {
	rd, zd := r.Data(), z.Data()
	for i, d := range j.invDiag {
		zd[i] = rd[i] * d
	}
}

type JacobiFactory struct{}

func (JacobiFactory) Build(A utils.CSR) (Preconditioner, error) {
	diag := A.Diagonal().Data()
	inv := make([]float64, len(diag))
	for i, d := range diag {
		if d == 0 || math.IsNaN(d) {
			return nil, fmt.Errorf("jacobi: zero diagonal at row %d", i)
		}
		inv[i] = 1 / d
	}
	return Jacobi{invDiag: inv}, nil
}

// ILU0 is an incomplete LU factorization on the sparsity pattern of A.
// L is unit lower triangular; L and U share the factored data array.
type ILU0 struct {
	n      int
	indptr []int
	ind    []int
	data   []float64
	diag   []int // position of the diagonal entry within each row
}

func (ILU0) Name() string { return "ilu0" }

type ILU0Factory struct{}

func (ILU0Factory) Build(A utils.CSR) (Preconditioner, error) {
	raw := A.RawMatrix()
	n := raw.I
	indptr := append([]int(nil), raw.Indptr...)
	ind := append([]int(nil), raw.Ind...)
	data := append([]float64(nil), raw.Data...)

	diag := make([]int, n)
	for i := 0; i < n; i++ {
		diag[i] = -1
		for p := indptr[i]; p < indptr[i+1]; p++ {
			if ind[p] == i {
				diag[i] = p
				break
			}
		}
		if diag[i] < 0 {
			return nil, fmt.Errorf("ilu0: missing diagonal in row %d", i)
		}
	}

	// IKJ variant restricted to the original pattern. colPos maps the
	// columns of the current row to their storage positions.
	colPos := make(map[int]int)
	for i := 0; i < n; i++ {
		clear(colPos)
		for p := indptr[i]; p < indptr[i+1]; p++ {
			colPos[ind[p]] = p
		}
		for p := indptr[i]; p < indptr[i+1]; p++ {
			k := ind[p]
			if k >= i {
				break
			}
			piv := data[diag[k]]
			if piv == 0 {
				return nil, fmt.Errorf("ilu0: zero pivot at row %d", k)
			}
			lik := data[p] / piv
			data[p] = lik
			for q := diag[k] + 1; q < indptr[k+1]; q++ {
				if pos, ok := colPos[ind[q]]; ok {
					data[pos] -= lik * data[q]
				}
			}
		}
		if data[diag[i]] == 0 {
			return nil, fmt.Errorf("ilu0: zero pivot at row %d", i)
		}
	}

	return ILU0{n: n, indptr: indptr, ind: ind, data: data, diag: diag}, nil
}

// Apply solves L·U·z = r by forward then backward substitution.
func (f ILU0) Apply(r, z utils.Vector) {
	rd, zd := r.Data(), z.Data()
	for i := 0; i < f.n; i++ {
		sum := rd[i]
		for p := f.indptr[i]; p < f.diag[i]; p++ {
			sum -= f.data[p] * zd[f.ind[p]]
		}
		zd[i] = sum
	}
	for i := f.n - 1; i >= 0; i-- {
		sum := zd[i]
		for p := f.diag[i] + 1; p < f.indptr[i+1]; p++ {
			sum -= f.data[p] * zd[f.ind[p]]
		}
		zd[i] = sum / f.data[f.diag[i]]
	}
}
