package simulation

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gobores/gobores/linsolver"
	"github.com/gobores/gobores/pvt"
	"github.com/gobores/gobores/reservoir"
	"github.com/gobores/gobores/types"
	"github.com/gobores/gobores/utils"
	"github.com/gobores/gobores/wells"
)

func testModel(dims types.Dims, boundary reservoir.BoundarySet) (reservoir.ReservoirModel, reservoir.Geometry) {
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
	return m, reservoir.NewGeometry(m, boundary)
}

func testConfig(g reservoir.Geometry) SchemeConfig {
	return SchemeConfig{
		Geometry:     g,
		Evaluator:    pvt.DefaultBlackOil(),
		Controller:   wells.NewController(),
		Orchestrator: linsolver.DefaultOrchestrator(500, 1e-10),
		Partition:    utils.NewPartitionMap(1, g.Dims.Cells()),
	}
}

func centerProducer(dims types.Dims, bhp float64) wells.Well {
	return wells.Well{
		Name: "P1",
		Perforations: []wells.PerforationInterval{{
			Start: types.CellIndex{I: dims.Nx / 2, J: dims.Ny / 2, K: 0},
			End:   types.CellIndex{I: dims.Nx / 2, J: dims.Ny / 2, K: dims.Nz - 1},
		}},
		Radius:  0.25,
		Active:  true,
		Control: wells.BHPControl{TargetBHP: bhp},
		Produced: []wells.ProducedFluid{
			{Name: "water", Phase: types.Water},
			{Name: "oil", Phase: types.Oil},
			{Name: "gas", Phase: types.Gas},
		},
	}
}

func TestNewScheme(t *testing.T) {
	_, g := testModel(types.Dims{Nx: 3, Ny: 3, Nz: 1}, reservoir.BoundarySet{})
	cfg := testConfig(g)

	s, err := NewScheme(IMPES, cfg)
	assert.NoError(t, err)
	assert.NotNil(t, s)

	s, err = NewScheme(Explicit, cfg)
	assert.NoError(t, err)
	assert.NotNil(t, s)

	// Fully implicit is declared but unsupported
	_, err = NewScheme(Implicit, cfg)
	assert.Error(t, err)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	// IMPES requires an orchestrator
	bad := cfg
	bad.Orchestrator = nil
	_, err = NewScheme(IMPES, bad)
	assert.Error(t, err)

	// A missing partition map is a configuration error, not a panic on
	// the first property sweep
	bad = cfg
	bad.Partition = nil
	_, err = NewScheme(IMPES, bad)
	assert.ErrorAs(t, err, &verr)
	_, err = NewScheme(Explicit, bad)
	assert.Error(t, err)
}

func TestIMPESNoWellsConserves(t *testing.T) {
	m, g := testModel(types.Dims{Nx: 4, Ny: 4, Nz: 1}, reservoir.BoundarySet{})
	s, err := NewScheme(IMPES, testConfig(g))
	assert.NoError(t, err)

	prev := ModelState{Model: m}
	next, diag, err := s.Advance(prev, types.Days(1))
	assert.NoError(t, err)
	assert.True(t, diag.SolverConverged)

	// Uniform closed box: nothing moves
	assert.InDelta(t, 0, diag.MaxPressureChange, 1e-6)
	for _, phase := range types.Phases {
		assert.InDelta(t, 0, diag.MaxSaturationChange[phase], 1e-9)
	}
	for c := 0; c < m.Dims.Cells(); c++ {
		assert.InDelta(t, 3000, next.Model.Fluid.Pressure[c], 1e-6)
		sum := next.Model.Fluid.WaterSaturation[c] +
			next.Model.Fluid.OilSaturation[c] +
			next.Model.Fluid.GasSaturation[c]
		assert.InDelta(t, 1.0, sum, 1e-12)
	}
}

func TestIMPESConservesUnderFlux(t *testing.T) {
	// A pressure step across a closed 1D box: fluid moves between cells
	// but totals telescope to zero.
	dims := types.Dims{Nx: 4, Ny: 1, Nz: 1}
	m, g := testModel(dims, reservoir.BoundarySet{})
	m.Fluid.Pressure[0] = 3200
	m.Fluid.Pressure[1] = 3200
	s, err := NewScheme(IMPES, testConfig(g))
	assert.NoError(t, err)

	props := pvt.DefaultBlackOil().Evaluate(m, utils.NewPartitionMap(1, dims.Cells()))
	var massBefore, waterBefore float64
	for c := 0; c < dims.Cells(); c++ {
		massBefore += g.PoreVolume[c] * props.TotalCompressibility[c] * m.Fluid.Pressure[c]
		waterBefore += g.PoreVolume[c] * m.Fluid.WaterSaturation[c]
	}

	next, diag, err := s.Advance(ModelState{Model: m}, types.Days(1))
	assert.NoError(t, err)
	assert.True(t, diag.SolverConverged)
	assert.Greater(t, diag.MaxPressureChange, 0.0)

	var massAfter, waterAfter float64
	for c := 0; c < dims.Cells(); c++ {
		massAfter += g.PoreVolume[c] * props.TotalCompressibility[c] * next.Model.Fluid.Pressure[c]
		waterAfter += g.PoreVolume[c] * next.Model.Fluid.WaterSaturation[c]
		sum := next.Model.Fluid.WaterSaturation[c] +
			next.Model.Fluid.OilSaturation[c] +
			next.Model.Fluid.GasSaturation[c]
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
	assert.InEpsilon(t, massBefore, massAfter, 1e-8)
	assert.InEpsilon(t, waterBefore, waterAfter, 1e-10)

	// The high side drains toward the low side
	assert.Less(t, next.Model.Fluid.Pressure[0], 3200.0)
	assert.Greater(t, next.Model.Fluid.Pressure[3], 3000.0)
}

func TestIMPESDepletion(t *testing.T) {
	dims := types.Dims{Nx: 5, Ny: 5, Nz: 1}
	m, g := testModel(dims, reservoir.BoundarySet{})
	s, err := NewScheme(IMPES, testConfig(g))
	assert.NoError(t, err)

	prev := ModelState{Model: m, Wells: []wells.Well{centerProducer(dims, 1500)}}
	next, diag, err := s.Advance(prev, types.Days(1))
	assert.NoError(t, err)
	assert.True(t, diag.SolverConverged)
	assert.Greater(t, diag.MaxPressureChange, 0.0)

	// Production drains pressure, most at the perforated cell
	perf := dims.Index(2, 2, 0)
	assert.Less(t, next.Model.Fluid.Pressure[perf], 3000.0)
	for c := 0; c < dims.Cells(); c++ {
		assert.LessOrEqual(t, next.Model.Fluid.Pressure[c], 3000.0+1e-6)
		assert.GreaterOrEqual(t, next.Model.Fluid.WaterSaturation[c], 0.0)
		assert.LessOrEqual(t, next.Model.Fluid.WaterSaturation[c], 1.0)
		sum := next.Model.Fluid.WaterSaturation[c] +
			next.Model.Fluid.OilSaturation[c] +
			next.Model.Fluid.GasSaturation[c]
		assert.InDelta(t, 1.0, sum, 1e-9)
	}

	// The previous state is untouched
	assert.Equal(t, 3000.0, prev.Model.Fluid.Pressure[perf])

	// Well report carries production
	assert.Len(t, next.WellReports, 1)
	assert.Less(t, next.WellReports[0].Oil, 0.0)
	// Production grid is negative, injection grid empty
	assert.Less(t, next.Production.Oil[perf], 0.0)
	assert.Equal(t, 0.0, next.Injection.Oil[perf])
}

func TestExplicitSchemeMatchesQuietBox(t *testing.T) {
	m, g := testModel(types.Dims{Nx: 3, Ny: 3, Nz: 1}, reservoir.BoundarySet{})
	s, err := NewScheme(Explicit, testConfig(g))
	assert.NoError(t, err)

	next, diag, err := s.Advance(ModelState{Model: m}, types.Days(0.1))
	assert.NoError(t, err)
	assert.True(t, diag.SolverConverged)
	assert.InDelta(t, 0, diag.MaxPressureChange, 1e-9)
	assert.InDelta(t, 3000, next.Model.Fluid.Pressure[0], 1e-9)
}

func TestExplicitCFLRejectionBacksOff(t *testing.T) {
	// A sharp pressure front makes the first 10-day proposal blow the
	// explicit CFL bound; the driver rejects and retries smaller.
	dims := types.Dims{Nx: 4, Ny: 1, Nz: 1}
	m, g := testModel(dims, reservoir.BoundarySet{})
	m.Fluid.Pressure[0] = 3800
	m.Fluid.Pressure[1] = 3800
	scheme, err := NewScheme(Explicit, testConfig(g))
	assert.NoError(t, err)

	timer := NewTimer(types.Days(10), types.Days(0.001), types.Days(10), types.Days(1000))
	timer.MaxCFLNumber = 0.01
	driver := &Driver{
		Timer:  timer,
		Scheme: scheme,
		Policy: AcceptancePolicy{MaxCFLNumber: 0.01},
	}
	stream, err := NewStream(driver, ModelState{Model: m})
	assert.NoError(t, err)

	st, err := stream.Next(context.Background())
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, driver.Stats().Rejected, 1)
	assert.Less(t, st.StepSize, types.Days(10))
	assert.LessOrEqual(t, MaxCFL(g, st.Fluxes, st.StepSize), 0.01)
	assert.Equal(t, 1, driver.Stats().Accepted)
}

func TestFixedPressureBoundarySupportsPressure(t *testing.T) {
	dims := types.Dims{Nx: 5, Ny: 1, Nz: 1}
	m, g := testModel(dims, reservoir.BoundarySet{
		XMin: reservoir.BoundaryCondition{Kind: reservoir.FixedPressure, Value: 3500},
	})
	s, err := NewScheme(IMPES, testConfig(g))
	assert.NoError(t, err)

	next, diag, err := s.Advance(ModelState{Model: m}, types.Days(5))
	assert.NoError(t, err)
	assert.True(t, diag.SolverConverged)
	// Pressure rises toward the boundary value, strongest nearest it
	p0 := next.Model.Fluid.Pressure[dims.Index(0, 0, 0)]
	p4 := next.Model.Fluid.Pressure[dims.Index(4, 0, 0)]
	assert.Greater(t, p0, 3000.0)
	assert.GreaterOrEqual(t, p0, p4)
	assert.LessOrEqual(t, p0, 3500.0)
}

func TestCFLRoundTrip(t *testing.T) {
	dims := types.Dims{Nx: 3, Ny: 3, Nz: 1}
	_, g := testModel(dims, reservoir.BoundarySet{})

	flux := NewFaceFluxes(dims.Cells())
	flux.X[dims.Index(0, 0, 0)] = 1000
	flux.X[dims.Index(1, 1, 0)] = -400

	limit := CFLStepLimit(g, flux, 0.9)
	assert.Greater(t, limit.Days(), 0.0)
	assert.InDelta(t, 0.9, MaxCFL(g, flux, limit), 1e-9)

	// Larger steps exceed the target
	assert.Greater(t, MaxCFL(g, flux, 2*limit), 0.9)

	// No flux, no limit
	assert.Equal(t, types.Time(0), CFLStepLimit(g, NewFaceFluxes(dims.Cells()), 0.9))
}

func TestCarterTracyAquifer(t *testing.T) {
	aq := &CarterTracyAquifer{
		InitialPressure:      3000,
		Permeability:         200,
		Porosity:             0.25,
		Viscosity:            0.8,
		TotalCompressibility: 6e-6,
		Radius:               2000,
		Thickness:            50,
		AngleFraction:        1,
		HistoryLimit:         4,
	}
	assert.NoError(t, aq.Validate())

	// Depleted boundary pulls water in
	step := aq.Propose(0, types.Days(10), 2500)
	assert.Greater(t, step.Rate, 0.0)

	// No drawdown, no influx
	quiet := aq.Propose(0, types.Days(10), 3000)
	assert.Equal(t, 0.0, quiet.Rate)

	// Nothing recorded until commit
	assert.Equal(t, 0.0, aq.CumulativeInflux())
	aq.Commit(step)
	assert.Greater(t, aq.CumulativeInflux(), 0.0)
	assert.Len(t, aq.History(), 1)

	// History stays bounded
	elapsed := types.Days(10)
	for i := 0; i < 10; i++ {
		s := aq.Propose(elapsed, types.Days(10), 2500)
		aq.Commit(s)
		elapsed += types.Days(10)
	}
	assert.Len(t, aq.History(), 4)

	// Constant-influx path bypasses the convolution
	fixed := &CarterTracyAquifer{ConstantInflux: 500}
	assert.NoError(t, fixed.Validate())
	s := fixed.Propose(0, types.Days(2), 2500)
	assert.Equal(t, 500.0, s.Rate)
	fixed.Commit(s)
	assert.InDelta(t, 1000, fixed.CumulativeInflux(), 1e-9)
}

func TestDimensionlessPressureContinuity(t *testing.T) {
	// The piecewise fit should not jump at its seams
	assert.InDelta(t, dimensionlessPressure(0.0099), dimensionlessPressure(0.0101), 0.05)
	assert.InDelta(t, dimensionlessPressure(99.9), dimensionlessPressure(100.1), 0.05)
	// Monotone increasing
	prev := 0.0
	for _, td := range []float64{0.001, 0.01, 0.1, 1, 10, 100, 1000} {
		pd := dimensionlessPressure(td)
		assert.Greater(t, pd, prev)
		prev = pd
	}
}

func TestToddLongstaff(t *testing.T) {
	tl := ToddLongstaff{
		Omega:                      0.6,
		MinimumMiscibilityPressure: 2500,
		SolventViscosity:           0.05,
		DissolutionCap:             0.8,
	}
	assert.NoError(t, tl.Validate())

	dims := types.Dims{Nx: 2, Ny: 1, Nz: 1}
	m, g := testModel(dims, reservoir.BoundarySet{})
	_ = g
	m.Fluid.SolventConcentration[0] = 0.5

	props := pvt.DefaultBlackOil().Evaluate(m, utils.NewPartitionMap(1, dims.Cells()))
	muBefore := props.ViscosityOil[0]
	muOther := props.ViscosityOil[1]

	tl.Adjust(&props, m)
	// Above MMP with solvent present: oil thins toward the solvent
	assert.Less(t, props.ViscosityOil[0], muBefore)
	assert.Greater(t, props.ViscosityOil[0], tl.SolventViscosity)
	// No solvent, no change
	assert.Equal(t, muOther, props.ViscosityOil[1])
	// Mobilities track the new viscosities
	assert.InDelta(t, props.KrOil[0]/props.ViscosityOil[0], props.MobOil[0], 1e-12)

	// Below the ramp nothing happens
	m2, _ := testModel(dims, reservoir.BoundarySet{})
	m2.Fluid.Pressure[0] = 1000
	m2.Fluid.SolventConcentration[0] = 0.5
	props2 := pvt.DefaultBlackOil().Evaluate(m2, utils.NewPartitionMap(1, dims.Cells()))
	mu2 := props2.ViscosityOil[0]
	tl.Adjust(&props2, m2)
	assert.Equal(t, mu2, props2.ViscosityOil[0])

	// Concentrations above the dissolution cap blend no further
	m3, _ := testModel(dims, reservoir.BoundarySet{})
	m3.Fluid.SolventConcentration[0] = tl.DissolutionCap
	m3.Fluid.SolventConcentration[1] = 1.0
	props3 := pvt.DefaultBlackOil().Evaluate(m3, utils.NewPartitionMap(1, dims.Cells()))
	tl.Adjust(&props3, m3)
	assert.InDelta(t, props3.ViscosityOil[0], props3.ViscosityOil[1], 1e-12)

	// Validation catches bad parameters
	bad := tl
	bad.Omega = 1.5
	assert.Error(t, bad.Validate())
}

func TestQuarterPowerMix(t *testing.T) {
	// Pure endpoints return the pure viscosities
	assert.InDelta(t, 2.0, quarterPowerMix(2, 0.05, 0), 1e-12)
	assert.InDelta(t, 0.05, quarterPowerMix(2, 0.05, 1), 1e-12)
	// Mixture lies between
	mixed := quarterPowerMix(2, 0.05, 0.5)
	assert.Greater(t, mixed, 0.05)
	assert.Less(t, mixed, 2.0)
}

func TestStreamDepletionRun(t *testing.T) {
	dims := types.Dims{Nx: 5, Ny: 5, Nz: 1}
	m, g := testModel(dims, reservoir.BoundarySet{})
	scheme, err := NewScheme(IMPES, testConfig(g))
	assert.NoError(t, err)

	driver := &Driver{
		Timer:  NewTimer(types.Days(1), types.Days(0.01), types.Days(5), types.Days(20)),
		Scheme: scheme,
		Policy: DefaultAcceptancePolicy(),
	}
	stream, err := NewStream(driver, ModelState{
		Model: m,
		Wells: []wells.Well{centerProducer(dims, 1500)},
	})
	assert.NoError(t, err)

	ctx := context.Background()
	var states []ModelState
	for {
		st, serr := stream.Next(ctx)
		if serr == io.EOF {
			break
		}
		assert.NoError(t, serr)
		states = append(states, st)
		assert.Less(t, len(states), 1000, "runaway stream")
	}
	assert.NotEmpty(t, states)

	last := states[len(states)-1]
	assert.InDelta(t, 20, last.Time.Days(), 1e-6)
	assert.Equal(t, len(states), last.Step)

	// Monotone time, monotone depletion at the producer
	perf := dims.Index(2, 2, 0)
	for i := 1; i < len(states); i++ {
		assert.Greater(t, states[i].Time, states[i-1].Time)
		assert.LessOrEqual(t, states[i].Model.Fluid.Pressure[perf],
			states[i-1].Model.Fluid.Pressure[perf]+1.0)
	}

	// Drained and done
	assert.Less(t, last.Model.Fluid.Pressure[perf], 2900.0)
	assert.Equal(t, len(states), driver.Stats().Accepted)

	// The stream stays exhausted
	_, serr := stream.Next(ctx)
	assert.Equal(t, io.EOF, serr)
}

func TestStreamCancellation(t *testing.T) {
	dims := types.Dims{Nx: 3, Ny: 3, Nz: 1}
	m, g := testModel(dims, reservoir.BoundarySet{})
	scheme, err := NewScheme(IMPES, testConfig(g))
	assert.NoError(t, err)

	driver := &Driver{
		Timer:  NewTimer(types.Days(1), types.Days(0.01), types.Days(5), types.Days(1000)),
		Scheme: scheme,
		Policy: DefaultAcceptancePolicy(),
	}
	stream, err := NewStream(driver, ModelState{Model: m})
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	_, serr := stream.Next(ctx)
	assert.NoError(t, serr)

	cancel()
	_, serr = stream.Next(ctx)
	assert.ErrorIs(t, serr, context.Canceled)
}

func TestStreamValidatesConfiguration(t *testing.T) {
	dims := types.Dims{Nx: 3, Ny: 3, Nz: 1}
	m, g := testModel(dims, reservoir.BoundarySet{})
	scheme, err := NewScheme(IMPES, testConfig(g))
	assert.NoError(t, err)

	// Missing timer
	_, err = NewStream(&Driver{Scheme: scheme}, ModelState{Model: m})
	assert.Error(t, err)

	// Broken well control
	driver := &Driver{
		Timer:  NewTimer(types.Days(1), types.Days(0.01), types.Days(5), types.Days(10)),
		Scheme: scheme,
		Policy: DefaultAcceptancePolicy(),
	}
	w := centerProducer(dims, 1500)
	w.Control = wells.BHPControl{}
	_, err = NewStream(driver, ModelState{Model: m, Wells: []wells.Well{w}})
	assert.Error(t, err)
}
