package simulation

import "github.com/gobores/gobores/types"

// Timer adapts the step size to solver behavior: gentle growth while
// steps succeed, multiplicative backoff on rejection, and a harder
// backoff once rejections pile up. The proposed step never overshoots
// the simulation horizon.
type Timer struct {
	InitialStepSize types.Time
	MaxStepSize     types.Time
	MinStepSize     types.Time
	SimulationTime  types.Time

	MaxCFLNumber            float64
	RampUpFactor            float64
	BackoffFactor           float64
	AggressiveBackoffFactor float64
	MaxRejects              int

	// AggressiveAfter is the consecutive-reject count at which backoff
	// switches to the aggressive factor.
	AggressiveAfter int

	stepSize types.Time
	elapsed  types.Time
	step     int
	rejects  int
	started  bool
}

// TimerState is the snapshot embedded in each emitted model state.
type TimerState struct {
	StepSize           types.Time
	Elapsed            types.Time
	Step               int
	ConsecutiveRejects int
}

// NewTimer fills the conventional control factors; callers override
// fields before the first Propose.
func NewTimer(initial, min, max, horizon types.Time) *Timer {
	return &Timer{
		InitialStepSize:         initial,
		MinStepSize:             min,
		MaxStepSize:             max,
		SimulationTime:          horizon,
		MaxCFLNumber:            0.9,
		RampUpFactor:            1.2,
		BackoffFactor:           0.5,
		AggressiveBackoffFactor: 0.25,
		MaxRejects:              20,
		AggressiveAfter:         5,
	}
}

func (t *Timer) Validate() error {
	if t.InitialStepSize <= 0 {
		return validationf("timer.initial_step_size", "%g must be positive", float64(t.InitialStepSize))
	}
	if t.MinStepSize <= 0 || t.MinStepSize > t.MaxStepSize {
		return validationf("timer.min_step_size", "need 0 < min (%g) <= max (%g)",
			float64(t.MinStepSize), float64(t.MaxStepSize))
	}
	if t.InitialStepSize < t.MinStepSize || t.InitialStepSize > t.MaxStepSize {
		return validationf("timer.initial_step_size", "%g outside [min, max]", float64(t.InitialStepSize))
	}
	if t.SimulationTime <= 0 {
		return validationf("timer.simulation_time", "%g must be positive", float64(t.SimulationTime))
	}
	if t.RampUpFactor < 1 {
		return validationf("timer.ramp_up_factor", "%g must be >= 1", t.RampUpFactor)
	}
	if t.BackoffFactor <= 0 || t.BackoffFactor >= 1 {
		return validationf("timer.backoff_factor", "%g must be in (0, 1)", t.BackoffFactor)
	}
	if t.AggressiveBackoffFactor <= 0 || t.AggressiveBackoffFactor >= 1 {
		return validationf("timer.aggressive_backoff_factor", "%g must be in (0, 1)", t.AggressiveBackoffFactor)
	}
	if t.MaxRejects < 1 {
		return validationf("timer.max_rejects", "%d must be >= 1", t.MaxRejects)
	}
	return nil
}

// Propose returns the next trial step size. cflLimit is the largest step
// the CFL pre-check allows, from the previous step's fluxes; pass zero
// when no flux information exists yet. Propose is idempotent: calling it
// again without an intervening report returns the same value.
func (t *Timer) Propose(cflLimit types.Time) types.Time {
	if !t.started {
		t.stepSize = t.InitialStepSize
		t.started = true
	}
	dt := t.stepSize
	if cflLimit > 0 && dt > cflLimit {
		dt = cflLimit
	}
	if dt < t.MinStepSize {
		dt = t.MinStepSize
	}
	if remaining := t.SimulationTime - t.elapsed; dt > remaining {
		dt = remaining
	}
	return dt
}

// Accept commits a completed step of size dt: elapsed time advances and
// the working step size ramps up toward the maximum.
func (t *Timer) Accept(dt types.Time) {
	t.elapsed += dt
	t.step++
	t.rejects = 0
	t.stepSize = types.Time(float64(t.stepSize) * t.RampUpFactor)
	if t.stepSize > t.MaxStepSize {
		t.stepSize = t.MaxStepSize
	}
}

// Reject shrinks the working step size. It returns a TimerExhaustedError
// once the reject budget is spent or the step can shrink no further.
func (t *Timer) Reject() error {
	t.rejects++
	if t.rejects > t.MaxRejects {
		return &TimerExhaustedError{Rejects: t.rejects, StepSize: t.stepSize, Elapsed: t.elapsed}
	}
	factor := t.BackoffFactor
	if t.rejects >= t.AggressiveAfter {
		factor = t.AggressiveBackoffFactor
	}
	next := types.Time(float64(t.stepSize) * factor)
	if next < t.MinStepSize {
		if t.stepSize <= t.MinStepSize {
			return &TimerExhaustedError{Rejects: t.rejects, StepSize: t.stepSize, Elapsed: t.elapsed}
		}
		next = t.MinStepSize
	}
	t.stepSize = next
	return nil
}

// Finished reports whether the horizon has been reached. A tiny epsilon
// absorbs floating-point residue from repeated accumulation.
func (t *Timer) Finished() bool {
	return t.elapsed >= t.SimulationTime-types.Time(1e-9*float64(t.SimulationTime))
}

func (t *Timer) State() TimerState {
	return TimerState{
		StepSize:           t.stepSize,
		Elapsed:            t.elapsed,
		Step:               t.step,
		ConsecutiveRejects: t.rejects,
	}
}

func (t *Timer) Elapsed() types.Time { return t.elapsed }
func (t *Timer) Step() int           { return t.step }
