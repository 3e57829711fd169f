package wells

import (
	"fmt"
	"math"

	"github.com/gobores/gobores/reservoir"
)

type wiKey struct {
	well string
	cell int
}

// WellIndexCache memoizes Peaceman connection factors. Permeability and
// geometry are fixed for a run, so entries never go stale; replacing a
// well's perforations under a new name misses the cache naturally.
type WellIndexCache struct {
	entries map[wiKey]float64
}

func NewWellIndexCache() *WellIndexCache {
	return &WellIndexCache{entries: make(map[wiKey]float64)}
}

// WellIndex returns the Peaceman connection factor for a vertical
// completion in the given cell, ft³/day/psi/cP (the mobility multiplies
// in later). The anisotropic equivalent drainage radius follows
// Peaceman's 1983 form.
func (c *WellIndexCache) WellIndex(w Well, cell int, m reservoir.ReservoirModel) (wi float64, err error) {
	if c.entries == nil {
		c.entries = make(map[wiKey]float64)
	}
	key := wiKey{well: w.Name, cell: cell}
	if wi, ok := c.entries[key]; ok {
		return wi, nil
	}

	kx := m.Rock.Permeability.X[cell]
	ky := m.Rock.Permeability.Y[cell]
	if kx <= 0 || ky <= 0 {
		err = fmt.Errorf("well %s: non-positive permeability at cell %d", w.Name, cell)
		return
	}
	dx, dy := m.CellSize[0], m.CellSize[1]
	dz := m.Thickness[cell]

	ratio := ky / kx
	num := math.Sqrt(math.Sqrt(ratio)*dx*dx + math.Sqrt(1/ratio)*dy*dy)
	den := math.Pow(ratio, 0.25) + math.Pow(1/ratio, 0.25)
	re := 0.28 * num / den

	if w.Radius <= 0 {
		err = fmt.Errorf("well %s: wellbore radius must be positive", w.Name)
		return
	}
	lnTerm := math.Log(re/w.Radius) + w.Skin
	if lnTerm <= 0 {
		err = fmt.Errorf("well %s: drainage radius %g ft too close to wellbore radius %g ft", w.Name, re, w.Radius)
		return
	}

	wi = reservoir.TransConversion * 2 * math.Pi * math.Sqrt(kx*ky) * dz / lnTerm
	c.entries[key] = wi
	return
}
