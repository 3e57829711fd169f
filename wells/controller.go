package wells

import (
	"fmt"
	"math"

	"github.com/gobores/gobores/pvt"
	"github.com/gobores/gobores/reservoir"
	"github.com/gobores/gobores/types"
)

// RateGrids carries per-cell source terms, ft³/day at reservoir
// conditions, positive into the reservoir. Solvent is the miscible
// fraction of the gas source, used by the Todd-Longstaff model.
type RateGrids struct {
	Water   []float64
	Oil     []float64
	Gas     []float64
	Solvent []float64
}

func NewRateGrids(n int) RateGrids {
	return RateGrids{
		Water:   make([]float64, n),
		Oil:     make([]float64, n),
		Gas:     make([]float64, n),
		Solvent: make([]float64, n),
	}
}

func (g RateGrids) Phase(p types.Phase) []float64 {
	switch p {
	case types.Water:
		return g.Water
	case types.Oil:
		return g.Oil
	case types.Gas:
		return g.Gas
	default:
		panic(fmt.Errorf("unknown phase %d", p))
	}
}

// WellReport summarizes one well over a step. Rates are signed totals;
// RateConstrained records which branch an adaptive control took.
type WellReport struct {
	Name            string
	BHP             float64
	RateConstrained bool
	ShutIn          bool
	Water, Oil, Gas float64
}

type perforation struct {
	cell int
	wi   float64
}

// Controller turns well controls into per-cell phase sources. It owns
// the well-index cache; one controller should live for the whole run.
type Controller struct {
	// UsePseudoPressure switches gas drawdown to the m(p) = p²/(μz)
	// form, evaluated with cell-pressure μz.
	UsePseudoPressure bool

	cache *WellIndexCache
}

func NewController() *Controller {
	return &Controller{cache: NewWellIndexCache()}
}

// Rates evaluates every active well against the current model and PVT
// state. Inactive wells are skipped and reported shut in.
func (ct *Controller) Rates(m reservoir.ReservoirModel, props pvt.FieldProperties, ws []Well) (grids RateGrids, reports []WellReport, err error) {
	if ct.cache == nil {
		ct.cache = NewWellIndexCache()
	}
	grids = NewRateGrids(m.Dims.Cells())
	for _, w := range ws {
		if !w.Active {
			reports = append(reports, WellReport{Name: w.Name, ShutIn: true})
			continue
		}
		if w.Control == nil {
			err = fmt.Errorf("well %s is active without a control", w.Name)
			return
		}
		perfs, perr := ct.perforations(w, m)
		if perr != nil {
			err = perr
			return
		}
		rep, werr := ct.evaluate(w, w.Control, w.Phases(), perfs, m, props, grids)
		if werr != nil {
			err = werr
			return
		}
		rep.Name = w.Name
		reports = append(reports, rep)
	}
	return
}

func (ct *Controller) perforations(w Well, m reservoir.ReservoirModel) (perfs []perforation, err error) {
	cells, err := w.PerforatedCells(m.Dims)
	if err != nil {
		return
	}
	for _, c := range cells {
		if !m.Active(c) {
			continue
		}
		wi, werr := ct.cache.WellIndex(w, c, m)
		if werr != nil {
			err = werr
			return
		}
		perfs = append(perfs, perforation{cell: c, wi: wi})
	}
	if len(perfs) == 0 {
		err = fmt.Errorf("well %s: all perforated cells are inactive", w.Name)
	}
	return
}

func (ct *Controller) evaluate(w Well, ctrl Control, owned []types.Phase, perfs []perforation, m reservoir.ReservoirModel, props pvt.FieldProperties, grids RateGrids) (rep WellReport, err error) {
	switch c := ctrl.(type) {
	case BHPControl:
		rep.BHP = c.TargetBHP
		ct.ratesAtBHP(w, c.TargetBHP, owned, nil, perfs, m, props, grids, &rep)

	case ConstantRateControl:
		bhp, ok := ct.impliedBHP(w, c.TargetRate, c.Phase, perfs, m, props)
		if !ok {
			rep.ShutIn = true
			return
		}
		producer := c.TargetRate < 0
		if c.BHPLimit > 0 && ((producer && bhp < c.BHPLimit) || (!producer && bhp > c.BHPLimit)) {
			rep.ShutIn = true
			return
		}
		rep.BHP = bhp
		rep.RateConstrained = true
		ct.ratesAtBHP(w, bhp, owned, nil, perfs, m, props, grids, &rep)

	case AdaptiveBHPRateControl:
		bhp, ok := ct.impliedBHP(w, c.TargetRate, c.TargetPhase, perfs, m, props)
		producer := c.TargetRate < 0
		switch {
		case !ok:
			// No deliverability at any BHP; operate on the limit.
			bhp = c.BHPLimit
		case producer && bhp < c.BHPLimit:
			bhp = c.BHPLimit
		case !producer && bhp > c.BHPLimit:
			bhp = c.BHPLimit
		default:
			rep.RateConstrained = true
		}
		rep.BHP = bhp
		ct.ratesAtBHP(w, bhp, owned, c.Clamp, perfs, m, props, grids, &rep)

	case PrimaryPhaseRateControl:
		bhp, ok := ct.impliedBHP(w, c.TargetRate, c.PrimaryPhase, perfs, m, props)
		if !ok {
			rep.ShutIn = true
			return
		}
		rep.BHP = bhp
		rep.RateConstrained = true
		ct.ratesAtBHP(w, bhp, owned, c.Clamp, perfs, m, props, grids, &rep)

	case MultiPhaseRateControl:
		subs := []struct {
			phase types.Phase
			ctrl  Control
		}{
			{types.Water, c.Water},
			{types.Oil, c.Oil},
			{types.Gas, c.Gas},
		}
		first := true
		for _, sub := range subs {
			if sub.ctrl == nil {
				continue
			}
			subRep, serr := ct.evaluate(w, sub.ctrl, []types.Phase{sub.phase}, perfs, m, props, grids)
			if serr != nil {
				err = serr
				return
			}
			rep.Water += subRep.Water
			rep.Oil += subRep.Oil
			rep.Gas += subRep.Gas
			if first || sub.phase == types.Oil {
				rep.BHP = subRep.BHP
				rep.RateConstrained = subRep.RateConstrained
				first = false
			}
		}

	default:
		panic(fmt.Errorf("unknown well control %T", ctrl))
	}
	return
}

// impliedBHP solves Σ WI·λ·(BHP − p) = target for BHP, or the
// pseudo-pressure equivalent for gas under UsePseudoPressure, so the
// delivered rate matches ratesAtBHP exactly. ok is false when the
// connected mobility vanishes and no BHP can deliver the rate.
func (ct *Controller) impliedBHP(w Well, target float64, phase types.Phase, perfs []perforation, m reservoir.ReservoirModel, props pvt.FieldProperties) (bhp float64, ok bool) {
	if phase == types.Gas && ct.UsePseudoPressure {
		return ct.impliedGasBHP(w, target, perfs, m, props)
	}
	var denom, weighted float64
	for _, pf := range perfs {
		lam := ct.mobility(w, phase, pf.cell, props)
		denom += pf.wi * lam
		weighted += pf.wi * lam * m.Fluid.Pressure[pf.cell]
	}
	if denom <= 0 {
		return 0, false
	}
	return target/denom + weighted/denom, true
}

// impliedGasBHP inverts Σ WI·λ·(BHP² − p²)/(2p) = target.
func (ct *Controller) impliedGasBHP(w Well, target float64, perfs []perforation, m reservoir.ReservoirModel, props pvt.FieldProperties) (bhp float64, ok bool) {
	var a, b float64
	for _, pf := range perfs {
		p := m.Fluid.Pressure[pf.cell]
		if p <= 0 {
			continue
		}
		lam := ct.mobility(w, types.Gas, pf.cell, props)
		a += pf.wi * lam / (2 * p)
		b += pf.wi * lam * p / 2
	}
	if a <= 0 {
		return 0, false
	}
	sq := (target + b) / a
	if sq < 0 {
		// Not deliverable even against zero bottom-hole pressure.
		return 0, false
	}
	return math.Sqrt(sq), true
}

func (ct *Controller) ratesAtBHP(w Well, bhp float64, owned []types.Phase, clamp Clamp, perfs []perforation, m reservoir.ReservoirModel, props pvt.FieldProperties, grids RateGrids, rep *WellReport) {
	for _, phase := range owned {
		dst := grids.Phase(phase)
		var total float64
		for _, pf := range perfs {
			lam := ct.mobility(w, phase, pf.cell, props)
			dp := bhp - m.Fluid.Pressure[pf.cell]
			if phase == types.Gas && ct.UsePseudoPressure {
				p := m.Fluid.Pressure[pf.cell]
				if p > 0 {
					dp = (bhp*bhp - p*p) / (2 * p)
				}
			}
			q := applyClamp(clamp, pf.wi*lam*dp)
			dst[pf.cell] += q
			total += q
			if phase == types.Gas && w.IsInjector() && w.Injected.IsMiscible && q > 0 {
				grids.Solvent[pf.cell] += q * w.Injected.Concentration
			}
		}
		switch phase {
		case types.Water:
			rep.Water += total
		case types.Oil:
			rep.Oil += total
		case types.Gas:
			rep.Gas += total
		}
	}
}

// mobility at a perforation. Injectors use total mobility so an
// injected phase absent in situ still has injectivity; its viscosity
// governs once the phase bank forms around the well.
func (ct *Controller) mobility(w Well, phase types.Phase, cell int, props pvt.FieldProperties) float64 {
	if w.IsInjector() {
		return props.MobWater[cell] + props.MobOil[cell] + props.MobGas[cell]
	}
	switch phase {
	case types.Water:
		return props.MobWater[cell]
	case types.Oil:
		return props.MobOil[cell]
	case types.Gas:
		return props.MobGas[cell]
	default:
		panic(fmt.Errorf("unknown phase %d", phase))
	}
}
