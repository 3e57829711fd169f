package wells

import (
	"sort"

	"github.com/gobores/gobores/types"
)

// TimePredicate reports whether an event should fire at simulation time t.
type TimePredicate func(t types.Time) bool

// After fires once simulation time reaches t0.
func After(t0 types.Time) TimePredicate {
	return func(t types.Time) bool { return t >= t0 }
}

// Between fires while t is inside [from, to).
func Between(from, to types.Time) TimePredicate {
	return func(t types.Time) bool { return t >= from && t < to }
}

// Event mutates one well when its predicate first becomes true. A nil
// Control keeps the current control and only toggles activity.
type Event struct {
	Well      string
	When      TimePredicate
	Activate  bool
	Control   Control

	fired bool
}

// Schedule applies events to the well list between steps. Events fire at
// most once, in registration order for equal times.
type Schedule struct {
	events []*Event
}

func NewSchedule(events ...Event) *Schedule {
	s := &Schedule{}
	for i := range events {
		e := events[i]
		s.events = append(s.events, &e)
	}
	return s
}

func (s *Schedule) Add(e Event) {
	s.events = append(s.events, &e)
}

// Apply returns the well list with any due events applied. The input
// slice is never mutated; an unchanged schedule returns the input as-is.
func (s *Schedule) Apply(t types.Time, ws []Well) []Well {
	if s == nil {
		return ws
	}
	var due []*Event
	for _, e := range s.events {
		if !e.fired && e.When(t) {
			e.fired = true
			due = append(due, e)
		}
	}
	if len(due) == 0 {
		return ws
	}

	out := append([]Well(nil), ws...)
	byName := make(map[string]int, len(out))
	for i, w := range out {
		byName[w.Name] = i
	}
	for _, e := range due {
		i, ok := byName[e.Well]
		if !ok {
			continue
		}
		out[i].Active = e.Activate
		if e.Control != nil {
			out[i].Control = e.Control
		}
	}
	return out
}

// Pending returns the names of wells with unfired events, sorted, for
// progress reporting.
func (s *Schedule) Pending() (names []string) {
	seen := make(map[string]bool)
	for _, e := range s.events {
		if !e.fired && !seen[e.Well] {
			seen[e.Well] = true
			names = append(names, e.Well)
		}
	}
	sort.Strings(names)
	return
}
