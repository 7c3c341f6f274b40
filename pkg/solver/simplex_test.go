package solver

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/iwvelando/decision-analysis/pkg/constants"
	"go.uber.org/zap"
)

func TestSimplexSolvesSmallModels(t *testing.T) {
	tests := []struct {
		name      string
		build     func(m *Model) []Variable
		objective float64
		values    []float64
	}{
		{
			name: "Maximize with inequalities",
			build: func(m *Model) []Variable {
				x := m.AddVariable("x", NonNegative())
				y := m.AddVariable("y", NonNegative())
				m.AddConstraint("capacity", Expression{{x, 1}, {y, 1}}, LessEqual, 4)
				m.AddConstraint("labor", Expression{{x, 1}, {y, 3}}, LessEqual, 6)
				m.AddConstraint("x cap", Expression{{x, 1}}, LessEqual, 3)
				m.SetObjective(Maximize, Expression{{x, 3}, {y, 2}}, 0)
				return []Variable{x, y}
			},
			objective: 11,
			values:    []float64{3, 1},
		},
		{
			name: "Minimize with bounds and covering row",
			build: func(m *Model) []Variable {
				x := m.AddVariable("x", Bounds{Lower: 0, Upper: 3})
				y := m.AddVariable("y", Bounds{Lower: 1, Upper: math.Inf(1)})
				m.AddConstraint("cover", Expression{{x, 1}, {y, 1}}, GreaterEqual, 5)
				m.SetObjective(Minimize, Expression{{x, 2}, {y, 3}}, 0)
				return []Variable{x, y}
			},
			objective: 12,
			values:    []float64{3, 2},
		},
		{
			name: "Equality with objective constant",
			build: func(m *Model) []Variable {
				x := m.AddVariable("x", NonNegative())
				y := m.AddVariable("y", NonNegative())
				m.AddConstraint("split", Expression{{x, 1}, {y, 1}}, Equal, 10)
				m.AddConstraint("y cap", Expression{{y, 1}}, LessEqual, 4)
				m.SetObjective(Maximize, Expression{{x, 1}, {y, 2}}, -5)
				return []Variable{x, y}
			},
			objective: 9,
			values:    []float64{6, 4},
		},
		{
			name: "Negative right-hand side",
			build: func(m *Model) []Variable {
				x := m.AddVariable("x", NonNegative())
				m.AddConstraint("floor", Expression{{x, -1}}, LessEqual, -2)
				m.SetObjective(Minimize, Expression{{x, 1}}, 0)
				return []Variable{x}
			},
			objective: 2,
			values:    []float64{2},
		},
		{
			name: "Repeated terms are summed",
			build: func(m *Model) []Variable {
				x := m.AddVariable("x", NonNegative())
				m.AddConstraint("cap", Expression{{x, 1}, {x, 1}}, LessEqual, 8)
				m.SetObjective(Maximize, Expression{}.Plus(x, 1), 0)
				return []Variable{x}
			},
			objective: 4,
			values:    []float64{4},
		},
		{
			name: "Unconstrained variable stays at its lower bound",
			build: func(m *Model) []Variable {
				x := m.AddVariable("x", NonNegative())
				idle := m.AddVariable("idle", Bounds{Lower: 2, Upper: math.Inf(1)})
				m.AddConstraint("cap", Expression{{x, 1}}, LessEqual, 1)
				m.SetObjective(Maximize, Expression{{x, 1}, {idle, -1}}, 0)
				return []Variable{x, idle}
			},
			objective: -1,
			values:    []float64{1, 2},
		},
	}

	for _, tt := range tests {
		for _, tolerance := range []float64{0, constants.SolverTolerance} {
			s := NewSimplex(zap.NewNop(), tolerance)
			t.Run(fmt.Sprintf("%s tolerance %g", tt.name, tolerance), func(t *testing.T) {
				m := NewModel(tt.name)
				vars := tt.build(m)

				sol, err := s.Solve(m)
				if err != nil {
					t.Fatalf("Solve() error = %v", err)
				}
				if sol.Status != StatusOptimal {
					t.Fatalf("expected optimal status, got %s", sol.Status)
				}
				if math.Abs(sol.Objective-tt.objective) > 1e-6 {
					t.Errorf("objective = %v, expected %v", sol.Objective, tt.objective)
				}
				for i, v := range vars {
					if math.Abs(sol.Value(v)-tt.values[i]) > 1e-6 {
						t.Errorf("%s = %v, expected %v", m.VariableName(v), sol.Value(v), tt.values[i])
					}
				}
			})
		}
	}
}

func TestSimplexReportsFailureStatus(t *testing.T) {
	tests := []struct {
		name     string
		build    func(m *Model)
		status   Status
		sentinel error
	}{
		{
			name: "Infeasible bounds and row",
			build: func(m *Model) {
				x := m.AddVariable("x", Bounds{Lower: 0, Upper: 3})
				m.AddConstraint("need", Expression{{x, 1}}, GreaterEqual, 5)
				m.SetObjective(Maximize, Expression{{x, 1}}, 0)
			},
			status:   StatusInfeasible,
			sentinel: ErrInfeasible,
		},
		{
			name: "Unbounded objective",
			build: func(m *Model) {
				x := m.AddVariable("x", NonNegative())
				y := m.AddVariable("y", NonNegative())
				m.AddConstraint("floor", Expression{{x, 1}, {y, -1}}, GreaterEqual, 1)
				m.SetObjective(Maximize, Expression{{x, 1}}, 0)
			},
			status:   StatusUnbounded,
			sentinel: ErrUnbounded,
		},
		{
			name: "Unconstrained improving variable",
			build: func(m *Model) {
				x := m.AddVariable("x", NonNegative())
				m.SetObjective(Maximize, Expression{{x, 1}}, 0)
			},
			status:   StatusUnbounded,
			sentinel: ErrUnbounded,
		},
		{
			name: "Empty row that cannot hold",
			build: func(m *Model) {
				x := m.AddVariable("x", NonNegative())
				m.AddConstraint("impossible", Expression{{x, 0}}, GreaterEqual, 1)
				m.SetObjective(Maximize, Expression{{x, -1}}, 0)
			},
			status:   StatusInfeasible,
			sentinel: ErrInfeasible,
		},
		{
			name: "Invalid coefficient",
			build: func(m *Model) {
				x := m.AddVariable("x", NonNegative())
				m.AddConstraint("bad", Expression{{x, math.NaN()}}, LessEqual, 1)
			},
			status:   StatusFailed,
			sentinel: ErrSolver,
		},
		{
			name: "Infinite lower bound",
			build: func(m *Model) {
				m.AddVariable("free", Bounds{Lower: math.Inf(-1), Upper: math.Inf(1)})
			},
			status:   StatusFailed,
			sentinel: ErrSolver,
		},
	}

	s := NewSimplex(nil, 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel(tt.name)
			tt.build(m)

			sol, err := s.Solve(m)
			if err == nil {
				t.Fatalf("expected error, got solution %+v", sol)
			}
			if sol != nil {
				t.Errorf("expected no solution alongside error")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("expected errors.Is(err, %v), got %v", tt.sentinel, err)
			}
			if got := StatusOf(err); got != tt.status {
				t.Errorf("StatusOf() = %s, expected %s", got, tt.status)
			}
		})
	}
}

func TestSolutionActivity(t *testing.T) {
	m := NewModel("activity")
	x := m.AddVariable("x", NonNegative())
	y := m.AddVariable("y", NonNegative())
	capacity := m.AddConstraint("capacity", Expression{{x, 1}, {y, 1}}, LessEqual, 4)
	m.SetObjective(Maximize, Expression{{x, 1}, {y, 1}}, 0)

	sol, err := NewSimplex(nil, 0).Solve(m)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if math.Abs(sol.Activity(capacity)-4) > 1e-9 {
		t.Errorf("Activity() = %v, expected 4", sol.Activity(capacity))
	}
	if m.ConstraintName(capacity) != "capacity" {
		t.Errorf("ConstraintName() = %q", m.ConstraintName(capacity))
	}
	if got := sol.Values([]Variable{x, y}); len(got) != 2 {
		t.Errorf("Values() returned %d entries", len(got))
	}
}

func TestStatusOf(t *testing.T) {
	if StatusOf(nil) != StatusOptimal {
		t.Errorf("StatusOf(nil) should be optimal")
	}
	if StatusOf(errors.New("boom")) != StatusFailed {
		t.Errorf("StatusOf(plain error) should be error")
	}
	if StatusFailed.String() != "error" {
		t.Errorf("StatusFailed.String() = %q, expected error", StatusFailed.String())
	}
	failed := &StatusError{Model: "m", Status: StatusFailed}
	if !errors.Is(failed, ErrSolver) || StatusOf(failed) != StatusFailed {
		t.Errorf("a failed status should match ErrSolver, got %v", failed)
	}
	wrapped := &StatusError{Model: "m", Status: StatusInfeasible}
	if StatusOf(errors.Join(errors.New("context"), wrapped)) != StatusInfeasible {
		t.Errorf("StatusOf() should see through wrapping")
	}
}
