package agent

import (
	"math/rand/v2"

	"github.com/nextlevelbuilder/finch/internal/config"
)

// Selector draws one task per loop iteration, with probability proportional
// to configured weights. Pure apart from the RNG source.
type Selector struct {
	tasks     []config.Task
	total     float64
	randFloat func() float64
}

// NewSelector validates the task list and builds a selector. randFloat may
// be nil (uses the shared PRNG); tests inject a deterministic source.
func NewSelector(tasks []config.Task, randFloat func() float64) (*Selector, error) {
	if len(tasks) == 0 {
		return nil, &config.ConfigError{Reason: "task list is empty"}
	}
	total := 0.0
	for _, t := range tasks {
		if t.Weight < 0 {
			return nil, &config.ConfigError{Reason: "task weights must not be negative"}
		}
		total += t.Weight
	}
	if total == 0 {
		return nil, &config.ConfigError{Reason: "all task weights are zero"}
	}
	if randFloat == nil {
		randFloat = rand.Float64
	}
	return &Selector{tasks: tasks, total: total, randFloat: randFloat}, nil
}

// Next returns the name of the selected task.
func (s *Selector) Next() string {
	target := s.randFloat() * s.total
	acc := 0.0
	for _, t := range s.tasks {
		acc += t.Weight
		if target < acc {
			return t.Name
		}
	}
	// Floating point edge: target == total. Return the last positive-weight task.
	for i := len(s.tasks) - 1; i >= 0; i-- {
		if s.tasks[i].Weight > 0 {
			return s.tasks[i].Name
		}
	}
	return s.tasks[len(s.tasks)-1].Name
}
