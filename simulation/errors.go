// Package simulation drives the reservoir through time: adaptive step
// control, the IMPES and explicit evolution schemes, step acceptance,
// aquifer and miscibility physics, and the pull-based state stream.
package simulation

import (
	"fmt"

	"github.com/gobores/gobores/types"
)

// ValidationError reports a configuration problem detected before the
// run starts.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func validationf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// TimerExhaustedError signals that repeated step rejections drove the
// timer past its reject budget or below the minimum step size.
type TimerExhaustedError struct {
	Rejects  int
	StepSize types.Time
	Elapsed  types.Time
}

func (e *TimerExhaustedError) Error() string {
	return fmt.Sprintf("timer exhausted after %d consecutive rejects at step size %.4g days, %.4g days simulated",
		e.Rejects, e.StepSize.Days(), e.Elapsed.Days())
}
