package wells

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gobores/gobores/pvt"
	"github.com/gobores/gobores/reservoir"
	"github.com/gobores/gobores/types"
	"github.com/gobores/gobores/utils"
)

func testModel() (reservoir.ReservoirModel, pvt.FieldProperties) {
	dims := types.Dims{Nx: 5, Ny: 5, Nz: 1}
	n := dims.Cells()
	rock := reservoir.RockProperties{
		Porosity: reservoir.UniformGrid(dims, 0.2),
		Permeability: reservoir.Permeability{
			X: reservoir.UniformGrid(dims, 100),
			Y: reservoir.UniformGrid(dims, 100),
			Z: reservoir.UniformGrid(dims, 10),
		},
		Compressibility: 4e-6,
	}
	fluid := reservoir.FluidProperties{
		Pressure:             reservoir.UniformGrid(dims, 3000),
		Temperature:          150,
		WaterSaturation:      reservoir.UniformGrid(dims, 0.25),
		OilSaturation:        reservoir.UniformGrid(dims, 0.75),
		GasSaturation:        make([]float64, n),
		SolventConcentration: make([]float64, n),
	}
	m := reservoir.NewReservoirModel(dims, [2]float64{200, 200}, reservoir.UniformGrid(dims, 50), rock, fluid)
	props := pvt.DefaultBlackOil().Evaluate(m, utils.NewPartitionMap(1, n))
	return m, props
}

func producer(name string, ctrl Control) Well {
	return Well{
		Name: name,
		Perforations: []PerforationInterval{{
			Start: types.CellIndex{I: 2, J: 2, K: 0},
			End:   types.CellIndex{I: 2, J: 2, K: 0},
		}},
		Radius:  0.25,
		Active:  true,
		Control: ctrl,
		Produced: []ProducedFluid{
			{Name: "water", Phase: types.Water},
			{Name: "oil", Phase: types.Oil},
			{Name: "gas", Phase: types.Gas},
		},
	}
}

func TestClamps(t *testing.T) {
	assert.Equal(t, 0.0, ProductionClamp{}.Apply(100))
	assert.Equal(t, -100.0, ProductionClamp{}.Apply(-100))
	assert.Equal(t, 100.0, InjectionClamp{}.Apply(100))
	assert.Equal(t, 0.0, InjectionClamp{}.Apply(-100))
}

func TestPerforatedCells(t *testing.T) {
	dims := types.Dims{Nx: 5, Ny: 5, Nz: 3}
	w := Well{
		Name: "P1",
		Perforations: []PerforationInterval{{
			Start: types.CellIndex{I: 1, J: 1, K: 0},
			End:   types.CellIndex{I: 1, J: 1, K: 2},
		}},
	}
	cells, err := w.PerforatedCells(dims)
	assert.NoError(t, err)
	assert.Len(t, cells, 3)

	w.Perforations[0].End.I = 9
	_, err = w.PerforatedCells(dims)
	assert.Error(t, err)
}

func TestWellIndex(t *testing.T) {
	m, _ := testModel()
	cache := NewWellIndexCache()
	w := producer("P1", BHPControl{TargetBHP: 1000})
	c := m.Dims.Index(2, 2, 0)

	wi, err := cache.WellIndex(w, c, m)
	assert.NoError(t, err)
	assert.Greater(t, wi, 0.0)

	// Cache returns the identical value
	wi2, err := cache.WellIndex(w, c, m)
	assert.NoError(t, err)
	assert.Equal(t, wi, wi2)

	// Positive skin lowers the index
	ws := w
	ws.Name = "P2"
	ws.Skin = 5
	wiSkin, err := cache.WellIndex(ws, c, m)
	assert.NoError(t, err)
	assert.Less(t, wiSkin, wi)
}

func TestBHPControlRates(t *testing.T) {
	m, props := testModel()
	ct := NewController()

	// BHP below cell pressure produces (negative rates)
	grids, reports, err := ct.Rates(m, props, []Well{producer("P1", BHPControl{TargetBHP: 1000})})
	assert.NoError(t, err)
	assert.Len(t, reports, 1)
	assert.False(t, reports[0].ShutIn)
	assert.Equal(t, 1000.0, reports[0].BHP)
	assert.Less(t, reports[0].Oil, 0.0)
	assert.Less(t, reports[0].Water, 0.0)
	c := m.Dims.Index(2, 2, 0)
	assert.Less(t, grids.Oil[c], 0.0)
}

func TestZeroValueController(t *testing.T) {
	// A controller declared without NewController still works; the
	// well-index cache allocates on first use.
	m, props := testModel()
	var ct Controller
	grids, reports, err := ct.Rates(m, props, []Well{producer("P1", BHPControl{TargetBHP: 1000})})
	assert.NoError(t, err)
	assert.Len(t, reports, 1)
	assert.Less(t, grids.Oil[m.Dims.Index(2, 2, 0)], 0.0)

	var cache WellIndexCache
	wi, err := cache.WellIndex(producer("P1", nil), m.Dims.Index(2, 2, 0), m)
	assert.NoError(t, err)
	assert.Greater(t, wi, 0.0)
}

func TestConstantRateControl(t *testing.T) {
	m, props := testModel()
	ct := NewController()

	// The oil target is delivered exactly when the BHP limit is slack
	target := -500.0
	grids, reports, err := ct.Rates(m, props, []Well{producer("P1", ConstantRateControl{
		TargetRate: target, Phase: types.Oil, BHPLimit: 100,
	})})
	assert.NoError(t, err)
	assert.True(t, reports[0].RateConstrained)
	assert.InDelta(t, target, reports[0].Oil, 1e-6)
	c := m.Dims.Index(2, 2, 0)
	assert.InDelta(t, target, grids.Oil[c], 1e-6)

	// An unreachable target violates the limit and shuts the well in
	_, reports, err = ct.Rates(m, props, []Well{producer("P1", ConstantRateControl{
		TargetRate: -1e9, Phase: types.Oil, BHPLimit: 100,
	})})
	assert.NoError(t, err)
	assert.True(t, reports[0].ShutIn)
	assert.Equal(t, 0.0, reports[0].Oil)
}

func TestGasRateTargetUnderPseudoPressure(t *testing.T) {
	// Free gas so the gas mobility is live
	m, _ := testModel()
	for c := range m.Fluid.GasSaturation {
		m.Fluid.GasSaturation[c] = 0.30
		m.Fluid.OilSaturation[c] = 0.45
	}
	props := pvt.DefaultBlackOil().Evaluate(m, utils.NewPartitionMap(1, m.Dims.Cells()))

	ct := NewController()
	ct.UsePseudoPressure = true

	// The implied BHP inverts the same quadratic drawdown the rate
	// evaluation applies, so the gas target is delivered exactly
	target := -50000.0
	_, reports, err := ct.Rates(m, props, []Well{producer("P1", ConstantRateControl{
		TargetRate: target, Phase: types.Gas, BHPLimit: 100,
	})})
	assert.NoError(t, err)
	assert.True(t, reports[0].RateConstrained)
	assert.InDelta(t, target, reports[0].Gas, 1e-6)
	assert.Greater(t, reports[0].BHP, 0.0)
	assert.Less(t, reports[0].BHP, 3000.0)
}

func TestAdaptiveControlTransition(t *testing.T) {
	m, props := testModel()
	ct := NewController()

	mk := func(rate float64) []Well {
		return []Well{producer("P1", AdaptiveBHPRateControl{
			TargetRate: rate, TargetPhase: types.Oil,
			BHPLimit: 500, Clamp: ProductionClamp{},
		})}
	}

	// Modest target: rate-constrained, target delivered
	_, reports, err := ct.Rates(m, props, mk(-500))
	assert.NoError(t, err)
	assert.True(t, reports[0].RateConstrained)
	assert.InDelta(t, -500, reports[0].Oil, 1e-6)
	assert.Greater(t, reports[0].BHP, 500.0)

	// Huge target: falls back to the BHP limit, rate floats
	_, reports, err = ct.Rates(m, props, mk(-1e9))
	assert.NoError(t, err)
	assert.False(t, reports[0].RateConstrained)
	assert.False(t, reports[0].ShutIn)
	assert.Equal(t, 500.0, reports[0].BHP)
	assert.Less(t, reports[0].Oil, 0.0)
	assert.Greater(t, reports[0].Oil, -1e9)
}

func TestProductionClampStopsBackflow(t *testing.T) {
	m, props := testModel()
	ct := NewController()

	// BHP limit above reservoir pressure would inject without the clamp
	_, reports, err := ct.Rates(m, props, []Well{producer("P1", AdaptiveBHPRateControl{
		TargetRate: 1, TargetPhase: types.Oil, // positive target forces the BHP branch
		BHPLimit: 4000, Clamp: ProductionClamp{},
	})})
	assert.NoError(t, err)
	assert.Equal(t, 0.0, reports[0].Oil)
	assert.Equal(t, 0.0, reports[0].Water)
}

func TestInjectorUsesTotalMobility(t *testing.T) {
	m, props := testModel()
	ct := NewController()

	inj := Well{
		Name: "I1",
		Perforations: []PerforationInterval{{
			Start: types.CellIndex{I: 0, J: 0, K: 0},
			End:   types.CellIndex{I: 0, J: 0, K: 0},
		}},
		Radius: 0.25,
		Active: true,
		Control: AdaptiveBHPRateControl{
			TargetRate: 2000, TargetPhase: types.Gas,
			BHPLimit: 6000, Clamp: InjectionClamp{},
		},
		Injected: &InjectedFluid{
			Name: "co2", Phase: types.Gas,
			IsMiscible: true, Concentration: 1,
		},
	}
	// No free gas in place, yet the injector still has injectivity
	grids, reports, err := ct.Rates(m, props, []Well{inj})
	assert.NoError(t, err)
	assert.True(t, reports[0].RateConstrained)
	assert.InDelta(t, 2000, reports[0].Gas, 1e-6)

	// Miscible injection sources solvent alongside gas
	c := m.Dims.Index(0, 0, 0)
	assert.InDelta(t, grids.Gas[c], grids.Solvent[c], 1e-9)
}

func TestMultiPhaseRateControl(t *testing.T) {
	m, props := testModel()
	ct := NewController()

	w := producer("P1", MultiPhaseRateControl{
		Oil:   ConstantRateControl{TargetRate: -300, Phase: types.Oil},
		Water: ConstantRateControl{TargetRate: -50, Phase: types.Water},
	})
	_, reports, err := ct.Rates(m, props, []Well{w})
	assert.NoError(t, err)
	assert.InDelta(t, -300, reports[0].Oil, 1e-6)
	assert.InDelta(t, -50, reports[0].Water, 1e-6)
	assert.Equal(t, 0.0, reports[0].Gas)
}

func TestInactiveWellSkipped(t *testing.T) {
	m, props := testModel()
	ct := NewController()

	w := producer("P1", BHPControl{TargetBHP: 1000})
	w.Active = false
	grids, reports, err := ct.Rates(m, props, []Well{w})
	assert.NoError(t, err)
	assert.True(t, reports[0].ShutIn)
	for _, v := range grids.Oil {
		assert.Equal(t, 0.0, v)
	}
}

func TestValidateControl(t *testing.T) {
	assert.Error(t, ValidateControl(ConstantRateControl{}))
	assert.Error(t, ValidateControl(BHPControl{}))
	assert.Error(t, ValidateControl(AdaptiveBHPRateControl{TargetRate: -100}))
	assert.NoError(t, ValidateControl(AdaptiveBHPRateControl{TargetRate: -100, BHPLimit: 500}))
	assert.Error(t, ValidateControl(MultiPhaseRateControl{
		Oil: MultiPhaseRateControl{},
	}))
}

func TestSchedule(t *testing.T) {
	ws := []Well{producer("P1", BHPControl{TargetBHP: 1000})}
	ws[0].Active = false

	s := NewSchedule(Event{
		Well:     "P1",
		When:     After(types.Days(30)),
		Activate: true,
	})

	// Before the trigger: untouched
	out := s.Apply(types.Days(10), ws)
	assert.False(t, out[0].Active)
	assert.Equal(t, []string{"P1"}, s.Pending())

	// At the trigger: activated, input untouched
	out = s.Apply(types.Days(30), ws)
	assert.True(t, out[0].Active)
	assert.False(t, ws[0].Active)
	assert.Empty(t, s.Pending())

	// Events fire once
	out2 := s.Apply(types.Days(40), ws)
	assert.False(t, out2[0].Active)
}

func TestDuplicate(t *testing.T) {
	w := producer("P1", BHPControl{TargetBHP: 1000})
	perfs := []PerforationInterval{{
		Start: types.CellIndex{I: 4, J: 4, K: 0},
		End:   types.CellIndex{I: 4, J: 4, K: 0},
	}}
	d := w.Duplicate("P2", perfs)
	assert.Equal(t, "P2", d.Name)
	assert.Equal(t, perfs, d.Perforations)
	assert.Equal(t, w.Control, d.Control)
	// Original untouched
	assert.Equal(t, 2, w.Perforations[0].Start.I)
}
