package simulation

import (
	"github.com/gobores/gobores/pvt"
	"github.com/gobores/gobores/reservoir"
	"github.com/gobores/gobores/types"
	"github.com/gobores/gobores/wells"
)

// ModelState is an immutable snapshot emitted after each accepted step.
// Consumers must not mutate its slices; schemes always build fresh ones.
type ModelState struct {
	Step     int
	StepSize types.Time
	Time     types.Time

	Model reservoir.ReservoirModel
	Props pvt.FieldProperties

	Wells       []wells.Well
	WellReports []wells.WellReport

	// Injection and Production split the well sources by sign so rate
	// accounting stays simple for consumers: Injection holds only
	// positive entries, Production only negative.
	Injection  wells.RateGrids
	Production wells.RateGrids

	Fluxes FaceFluxes
	Timer  TimerState
}

// splitRates separates a signed source grid into injection and
// production grids.
func splitRates(src wells.RateGrids, n int) (inj, prod wells.RateGrids) {
	inj = wells.NewRateGrids(n)
	prod = wells.NewRateGrids(n)
	split := func(s, in, out []float64) {
		for c, v := range s {
			if v > 0 {
				in[c] = v
			} else if v < 0 {
				out[c] = v
			}
		}
	}
	split(src.Water, inj.Water, prod.Water)
	split(src.Oil, inj.Oil, prod.Oil)
	split(src.Gas, inj.Gas, prod.Gas)
	split(src.Solvent, inj.Solvent, prod.Solvent)
	return
}
