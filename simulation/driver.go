package simulation

import (
	"context"
	"fmt"
	"io"

	"github.com/gobores/gobores/wells"
)

// Stats counts what happened to step attempts over a run.
type Stats struct {
	Accepted       int
	Rejected       int
	SolverFailures int
}

// Driver owns the retry loop around one scheme: propose a step, attempt
// it, judge it, and either commit or back off and try again.
type Driver struct {
	Timer    *Timer
	Scheme   Scheme
	Policy   AcceptancePolicy
	Schedule *wells.Schedule

	// LogFrequency prints a progress line every N accepted steps; zero
	// disables logging.
	LogFrequency int

	stats Stats
}

func (d *Driver) Validate() error {
	if d.Timer == nil {
		return validationf("driver.timer", "timer is required")
	}
	if err := d.Timer.Validate(); err != nil {
		return err
	}
	if d.Scheme == nil {
		return validationf("driver.scheme", "scheme is required")
	}
	return nil
}

func (d *Driver) Stats() Stats { return d.stats }

// advance runs one accepted step from prev, retrying rejected attempts
// with smaller step sizes. Cancellation is honored between attempts,
// never inside one.
func (d *Driver) advance(ctx context.Context, prev ModelState) (ModelState, error) {
	if d.Schedule != nil {
		prev.Wells = d.Schedule.Apply(d.Timer.Elapsed(), prev.Wells)
	}
	for {
		if err := ctx.Err(); err != nil {
			return ModelState{}, err
		}
		cflLimit := d.Scheme.CFLLimit(prev, d.Timer.MaxCFLNumber)
		dt := d.Timer.Propose(cflLimit)

		next, diag, err := d.Scheme.Advance(prev, dt)
		if err != nil {
			return ModelState{}, err
		}
		verdict := d.Policy.Evaluate(diag)
		if verdict.Accepted {
			d.Timer.Accept(dt)
			d.Scheme.Commit()
			d.stats.Accepted++

			next.Step = d.Timer.Step()
			next.StepSize = dt
			next.Time = d.Timer.Elapsed()
			next.Timer = d.Timer.State()
			if d.LogFrequency > 0 && next.Step%d.LogFrequency == 0 {
				d.logProgress(next, diag)
			}
			return next, nil
		}

		d.stats.Rejected++
		if !diag.SolverConverged {
			d.stats.SolverFailures++
		}
		d.Scheme.Reject()
		if rerr := d.Timer.Reject(); rerr != nil {
			return ModelState{}, fmt.Errorf("step %d at %.4g days: %s: %w",
				d.Timer.Step()+1, d.Timer.Elapsed().Days(), verdict.Reason, rerr)
		}
	}
}

func (d *Driver) logProgress(st ModelState, diag StepDiagnostics) {
	fmt.Printf("step %5d  t = %9.2f days  dt = %8.4f days  dP = %7.2f psi  cfl = %5.3f  %s/%s (%d its)\n",
		st.Step, st.Time.Days(), st.StepSize.Days(), diag.MaxPressureChange, diag.MaxCFL,
		diag.SolverName, diag.PreconditionerName, diag.SolverIterations)
}

// Stream is the pull-based sequence of accepted states. Each Next call
// advances exactly one accepted step; io.EOF marks the horizon.
type Stream struct {
	driver  *Driver
	current ModelState
	done    bool
}

// NewStream validates the configuration and seeds the stream with the
// initial state.
func NewStream(d *Driver, initial ModelState) (*Stream, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if err := initial.Model.Validate(); err != nil {
		return nil, &ValidationError{Field: "initial_state", Message: err.Error()}
	}
	for _, w := range initial.Wells {
		if w.Control != nil {
			if err := wells.ValidateControl(w.Control); err != nil {
				return nil, &ValidationError{Field: "well " + w.Name, Message: err.Error()}
			}
		}
	}
	return &Stream{driver: d, current: initial}, nil
}

// Next returns the next accepted state. It returns io.EOF once the
// simulation horizon is reached and the context error if ctx is
// canceled between steps.
func (s *Stream) Next(ctx context.Context) (ModelState, error) {
	if s.done || s.driver.Timer.Finished() {
		s.done = true
		return ModelState{}, io.EOF
	}
	next, err := s.driver.advance(ctx, s.current)
	if err != nil {
		s.done = true
		return ModelState{}, err
	}
	s.current = next
	return next, nil
}

// Current returns the most recently accepted state.
func (s *Stream) Current() ModelState { return s.current }

// Run drains the stream until the horizon or an error, returning the
// final state.
func (s *Stream) Run(ctx context.Context) (ModelState, error) {
	for {
		st, err := s.Next(ctx)
		if err == io.EOF {
			return s.current, nil
		}
		if err != nil {
			return st, err
		}
	}
}
