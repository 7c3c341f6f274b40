package solver

import (
	"errors"
	"fmt"
)

// Status is the terminal state of a solve.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusFailed:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

var (
	// ErrInfeasible matches solves whose constraints admit no solution.
	ErrInfeasible = errors.New("solver: model is infeasible")
	// ErrUnbounded matches solves whose objective is unbounded.
	ErrUnbounded = errors.New("solver: model is unbounded")
	// ErrSolver matches every other failure, including invalid models.
	ErrSolver = errors.New("solver: solve failed")
)

// StatusError reports a solve that did not reach an optimum.
type StatusError struct {
	Model  string
	Status Status
	Err    error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model %s: %s: %v", e.Model, e.Status, e.Err)
	}
	return fmt.Sprintf("model %s: %s", e.Model, e.Status)
}

// Unwrap exposes both the status sentinel and the underlying cause.
func (e *StatusError) Unwrap() []error {
	errs := []error{e.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (e *StatusError) sentinel() error {
	switch e.Status {
	case StatusInfeasible:
		return ErrInfeasible
	case StatusUnbounded:
		return ErrUnbounded
	default:
		return ErrSolver
	}
}

// StatusOf extracts the solve status carried by err. A nil error is
// StatusOptimal; errors without a StatusError are StatusFailed.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOptimal
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status
	}
	return StatusFailed
}

// Solution is the optimum of a model. It is only produced for optimal solves.
type Solution struct {
	Status    Status
	Objective float64
	values    []float64
	activity  []float64
}

// Value returns the optimal value of v.
func (s *Solution) Value(v Variable) float64 {
	if int(v) < 0 || int(v) >= len(s.values) {
		return 0
	}
	return s.values[v]
}

// Values returns the optimal values of vars in order.
func (s *Solution) Values(vars []Variable) []float64 {
	out := make([]float64, len(vars))
	for i, v := range vars {
		out[i] = s.Value(v)
	}
	return out
}

// Activity returns the left-hand side of c evaluated at the optimum.
func (s *Solution) Activity(c Constraint) float64 {
	if int(c) < 0 || int(c) >= len(s.activity) {
		return 0
	}
	return s.activity[c]
}

// Solver solves linear programs. Implementations must not retain state
// between calls.
type Solver interface {
	Solve(m *Model) (*Solution, error)
}
