package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDims(t *testing.T) {
	d := Dims{Nx: 4, Ny: 3, Nz: 2}
	assert.Equal(t, 24, d.Cells())
	// Round trip every cell
	for i := 0; i < d.Nx; i++ {
		for j := 0; j < d.Ny; j++ {
			for k := 0; k < d.Nz; k++ {
				ii, jj, kk := d.At(d.Index(i, j, k))
				assert.Equal(t, i, ii)
				assert.Equal(t, j, jj)
				assert.Equal(t, k, kk)
			}
		}
	}
	// C order: k varies fastest
	assert.Equal(t, 0, d.Index(0, 0, 0))
	assert.Equal(t, 1, d.Index(0, 0, 1))
	assert.Equal(t, d.Nz, d.Index(0, 1, 0))
	assert.True(t, d.InBounds(3, 2, 1))
	assert.False(t, d.InBounds(4, 0, 0))
	assert.False(t, d.InBounds(0, -1, 0))
}

func TestTime(t *testing.T) {
	assert.Equal(t, 86400.0, Days(1).Seconds())
	assert.Equal(t, 2.0, Hours(2).Hours())
	assert.InDelta(t, 365.25, Years(1).Days(), 1e-12)
	assert.InDelta(t, 1.0, Years(1).Years(), 1e-12)
}

func TestPhase(t *testing.T) {
	assert.Equal(t, "water", Water.String())
	assert.Equal(t, "oil", Oil.String())
	assert.Equal(t, "gas", Gas.String())
	assert.Equal(t, []Phase{Water, Oil, Gas}, Phases)
	assert.Panics(t, func() { _ = Phase(7).String() })
}
