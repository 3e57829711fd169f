package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVector(t *testing.T) {
	v := NewVector(3, []float64{1, 2, 3})
	w := v.Copy()
	w.Scale(2)
	assert.Equal(t, []float64{2, 4, 6}, w.Data())
	assert.Equal(t, []float64{1, 2, 3}, v.Data())

	w.AddScaled(-2, v)
	assert.Equal(t, []float64{0, 0, 0}, w.Data())

	assert.InDelta(t, 14.0, v.Dot(v), 1e-14)
	assert.InDelta(t, 3.0, NewVector(2, []float64{-3, 1}).MaxAbs(), 1e-14)
}

func TestSparse(t *testing.T) {
	// [2 -1 0; -1 2 -1; 0 -1 2]
	dok := NewDOK(3, 3)
	for i := 0; i < 3; i++ {
		dok.Set(i, i, 2)
		if i > 0 {
			dok.Set(i, i-1, -1)
			dok.Set(i-1, i, -1)
		}
	}
	csr := dok.ToCSR()
	assert.Equal(t, 7, csr.NNZ())

	x := NewVector(3, []float64{1, 1, 1})
	y := NewVector(3)
	csr.MulVec(x, y)
	assert.InDeltaSlice(t, []float64{1, 0, 1}, y.Data(), 1e-14)

	assert.InDeltaSlice(t, []float64{2, 2, 2}, csr.Diagonal().Data(), 1e-14)

	// Identical matrix: zero relative change
	csr2 := dok.ToCSR()
	assert.InDelta(t, 0, csr.RelativeChange(csr2), 1e-14)

	// Perturbed diagonal registers a change
	dok.Set(0, 0, 3)
	csr3 := dok.ToCSR()
	assert.Greater(t, csr.RelativeChange(csr3), 0.1)
}

func TestToCSRSortsRowColumns(t *testing.T) {
	// Insertion order is scattered on purpose; map iteration would hand
	// the rows over in arbitrary column order without the sort.
	dok := NewDOK(4, 4)
	for i := 0; i < 4; i++ {
		for _, j := range []int{3, 0, 2, 1} {
			dok.Set(i, j, float64(10*i+j+1))
		}
	}
	raw := dok.ToCSR().RawMatrix()
	for i := 0; i < raw.I; i++ {
		for p := raw.Indptr[i] + 1; p < raw.Indptr[i+1]; p++ {
			assert.Greater(t, raw.Ind[p], raw.Ind[p-1], "row %d", i)
		}
		for p := raw.Indptr[i]; p < raw.Indptr[i+1]; p++ {
			assert.Equal(t, float64(10*i+raw.Ind[p]+1), raw.Data[p])
		}
	}
}

func TestPartitionMap(t *testing.T) {
	pm := NewPartitionMap(4, 10)
	// Buckets tile [0, 10) without gaps
	covered := make([]bool, 10)
	for n := 0; n < pm.ParallelDegree; n++ {
		min, max := pm.GetBucketRange(n)
		for i := min; i < max; i++ {
			assert.False(t, covered[i])
			covered[i] = true
		}
	}
	for i := range covered {
		assert.True(t, covered[i])
	}

	// Degree larger than the index range collapses to one bucket
	pm = NewPartitionMap(64, 3)
	assert.Equal(t, 1, pm.ParallelDegree)

	// Parallel sweep touches every index once
	pm = NewPartitionMap(3, 100)
	touched := make([]int, 100)
	pm.RunParallel(func(n, min, max int) {
		for i := min; i < max; i++ {
			touched[i]++
		}
	})
	for i := range touched {
		assert.Equal(t, 1, touched[i])
	}
}

func TestMatrix(t *testing.T) {
	m := NewMatrix(2, 2, []float64{1, 2, 3, 4})
	m.Scale(2)
	assert.Equal(t, []float64{2, 4, 6, 8}, m.Data())
	assert.InDelta(t, 2.0, m.Min(), 1e-14)
	assert.InDelta(t, 8.0, m.Max(), 1e-14)
}
