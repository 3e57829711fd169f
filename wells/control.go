package wells

import (
	"fmt"

	"github.com/gobores/gobores/types"
)

// Control is a closed sum type: the five concrete controls below are the
// only implementations and the controller switches over them exhaustively.
type Control interface {
	control()
}

// ConstantRateControl holds a fixed target rate for one phase and shuts
// the well in when honoring the rate would violate the BHP limit. A zero
// BHPLimit disables the limit check.
type ConstantRateControl struct {
	TargetRate float64 // ft³/day, signed
	Phase      types.Phase
	BHPLimit   float64 // psi
}

// BHPControl fixes bottom-hole pressure and lets rates float.
type BHPControl struct {
	TargetBHP float64 // psi
}

// AdaptiveBHPRateControl is a two-state control: it delivers the target
// rate while the implied BHP honors the limit, and falls back to
// BHP-constrained operation (rate floats at BHPLimit) when it does not.
// The well re-enters rate-constrained operation as soon as conditions
// allow; the transition is re-evaluated every step.
type AdaptiveBHPRateControl struct {
	TargetRate  float64
	TargetPhase types.Phase
	BHPLimit    float64
	Clamp       Clamp
}

// MultiPhaseRateControl assigns an independent sub-control per phase.
// Nil entries leave that phase uncontrolled (zero rate).
type MultiPhaseRateControl struct {
	Water Control
	Oil   Control
	Gas   Control
}

// PrimaryPhaseRateControl targets a rate for one primary phase; the
// remaining phases flow at the implied BHP through their own mobilities.
type PrimaryPhaseRateControl struct {
	TargetRate   float64
	PrimaryPhase types.Phase
	Clamp        Clamp
}

func (ConstantRateControl) control()     {}
func (BHPControl) control()              {}
func (AdaptiveBHPRateControl) control()  {}
func (MultiPhaseRateControl) control()   {}
func (PrimaryPhaseRateControl) control() {}

// Clamp restricts computed rates to a physically sensible direction so a
// pressure inversion at a perforation cannot reverse flow.
type Clamp interface {
	Apply(rate float64) float64
}

// ProductionClamp forbids injection: positive rates are zeroed.
type ProductionClamp struct{}

func (ProductionClamp) Apply(rate float64) float64 {
	if rate > 0 {
		return 0
	}
	return rate
}

// InjectionClamp forbids production: negative rates are zeroed.
type InjectionClamp struct{}

func (InjectionClamp) Apply(rate float64) float64 {
	if rate < 0 {
		return 0
	}
	return rate
}

func applyClamp(c Clamp, rate float64) float64 {
	if c == nil {
		return rate
	}
	return c.Apply(rate)
}

// ValidateControl rejects malformed control configurations before a run
// starts rather than mid-simulation.
func ValidateControl(c Control) error {
	switch ctrl := c.(type) {
	case ConstantRateControl:
		if ctrl.TargetRate == 0 {
			return fmt.Errorf("constant rate control: zero target rate")
		}
	case BHPControl:
		if ctrl.TargetBHP <= 0 {
			return fmt.Errorf("bhp control: target %g psi must be positive", ctrl.TargetBHP)
		}
	case AdaptiveBHPRateControl:
		if ctrl.TargetRate == 0 {
			return fmt.Errorf("adaptive control: zero target rate")
		}
		if ctrl.BHPLimit <= 0 {
			return fmt.Errorf("adaptive control: bhp limit %g psi must be positive", ctrl.BHPLimit)
		}
	case MultiPhaseRateControl:
		for _, sub := range []Control{ctrl.Water, ctrl.Oil, ctrl.Gas} {
			if sub == nil {
				continue
			}
			if _, nested := sub.(MultiPhaseRateControl); nested {
				return fmt.Errorf("multi-phase control: nesting is not allowed")
			}
			if err := ValidateControl(sub); err != nil {
				return err
			}
		}
	case PrimaryPhaseRateControl:
		if ctrl.TargetRate == 0 {
			return fmt.Errorf("primary phase control: zero target rate")
		}
	default:
		panic(fmt.Errorf("unknown well control %T", c))
	}
	return nil
}
