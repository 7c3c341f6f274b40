package allocation

import (
	"fmt"

	"github.com/iwvelando/decision-analysis/pkg/solver"
	"go.uber.org/zap"
)

// Recourse is the second-stage settlement of one scenario. Per-activity
// slices follow the problem's activity order.
type Recourse struct {
	Scenario    string
	Probability float64
	Multiplier  float64
	Production  []float64
	Purchased   []float64
	// Sold is the tradable sale or the first price tier of a quota activity.
	Sold []float64
	// SoldExcess is the second price tier of a quota activity.
	SoldExcess     []float64
	Revenue        float64
	PurchaseCost   float64
	RecourseProfit float64
	// Profit is RecourseProfit less the allocation cost.
	Profit float64
}

// Plan is a solved model: the allocation and the recourse of every scenario
// block it contained.
type Plan struct {
	Allocation     []float64
	AllocationCost float64
	// Objective is the LP objective as reported by the solver. It excludes
	// the allocation cost when the allocation was fixed.
	Objective float64
	// ExpectedRecourse is the weighted recourse profit across blocks.
	ExpectedRecourse float64
	// Profit is ExpectedRecourse less the allocation cost.
	Profit   float64
	Recourse []Recourse
}

// ScenarioPlan pairs a scenario with the plan computed for it.
type ScenarioPlan struct {
	Scenario Scenario
	Plan     *Plan
}

// RecourseEvaluation is the outcome of holding one allocation fixed across
// every scenario.
type RecourseEvaluation struct {
	Allocation     []float64
	AllocationCost float64
	Outcomes       []Recourse
	// Expected is the probability-weighted total profit.
	Expected float64
}

// WaitAndSee holds the perfect-information optimum of each scenario.
type WaitAndSee struct {
	Outcomes []ScenarioPlan
	Expected float64
}

// Evaluator runs the four evaluation modes over one problem and scenario
// set. It keeps no state between calls.
type Evaluator struct {
	logger    *zap.Logger
	solver    solver.Solver
	problem   Problem
	scenarios []Scenario
	builder   *Builder
}

// NewEvaluator validates the problem and scenarios.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewEvaluator(logger *zap.Logger, s solver.Solver, problem Problem, scenarios []Scenario) (*Evaluator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if s == nil {
		return nil, fmt.Errorf("solver cannot be nil")
	}
	if err := problem.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateScenarios(scenarios); err != nil {
		return nil, err
	}
	return &Evaluator{
		logger:    logger,
		solver:    s,
		problem:   problem,
		scenarios: append([]Scenario(nil), scenarios...),
		builder:   NewBuilder(problem),
	}, nil
}

// Problem returns the evaluated problem.
func (e *Evaluator) Problem() Problem {
	return e.problem
}

// Scenarios returns a copy of the evaluated scenarios.
func (e *Evaluator) Scenarios() []Scenario {
	return append([]Scenario(nil), e.scenarios...)
}

// ExpectedValue solves the deterministic model at the probability-weighted
// mean multiplier.
func (e *Evaluator) ExpectedValue() (*Plan, error) {
	expected := ExpectedScenario(e.scenarios)
	plan, err := e.solve(Layout{Name: "expected-value", Scenarios: []Scenario{expected}})
	if err != nil {
		return nil, fmt.Errorf("expected-value solve: %w", err)
	}
	e.logger.Info("expected-value solution",
		zap.String("op", "allocation.ExpectedValue"),
		zap.Float64("multiplier", expected.Multiplier),
		zap.Float64s("allocation", plan.Allocation),
		zap.Float64("profit", plan.Profit),
	)
	return plan, nil
}

// Recourse holds allocation fixed and solves the second stage of each
// scenario separately. The allocation cost is charged once outside the LPs.
func (e *Evaluator) Recourse(allocation []float64) (*RecourseEvaluation, error) {
	if err := e.problem.CheckAllocation(allocation); err != nil {
		return nil, err
	}
	result := &RecourseEvaluation{
		Allocation:     append([]float64(nil), allocation...),
		AllocationCost: e.problem.AllocationCost(allocation),
	}
	for _, scenario := range e.scenarios {
		plan, err := e.solve(Layout{
			Name:      "recourse " + scenario.Name,
			Fixed:     allocation,
			Scenarios: []Scenario{scenario},
			Weights:   []float64{1},
		})
		if err != nil {
			return nil, fmt.Errorf("recourse solve for scenario %s: %w", scenario.Name, err)
		}
		outcome := plan.Recourse[0]
		result.Outcomes = append(result.Outcomes, outcome)
		result.Expected += scenario.Probability * outcome.Profit

		e.logger.Debug("recourse evaluated",
			zap.String("op", "allocation.Recourse"),
			zap.String("scenario", scenario.Name),
			zap.Float64("recourseProfit", outcome.RecourseProfit),
			zap.Float64("profit", outcome.Profit),
		)
	}
	return result, nil
}

// Stochastic solves the recourse problem: one shared allocation and a
// recourse block per scenario in a single model.
func (e *Evaluator) Stochastic() (*Plan, error) {
	plan, err := e.solve(Layout{Name: "stochastic", Scenarios: e.scenarios})
	if err != nil {
		return nil, fmt.Errorf("stochastic solve: %w", err)
	}
	e.logger.Info("stochastic solution",
		zap.String("op", "allocation.Stochastic"),
		zap.Int("scenarios", len(e.scenarios)),
		zap.Float64s("allocation", plan.Allocation),
		zap.Float64("profit", plan.Profit),
	)
	return plan, nil
}

// WaitAndSee solves each scenario as if it were known before allocating.
func (e *Evaluator) WaitAndSee() (*WaitAndSee, error) {
	result := &WaitAndSee{}
	for _, scenario := range e.scenarios {
		plan, err := e.solve(Layout{
			Name:      "wait-and-see " + scenario.Name,
			Scenarios: []Scenario{scenario},
			Weights:   []float64{1},
		})
		if err != nil {
			return nil, fmt.Errorf("wait-and-see solve for scenario %s: %w", scenario.Name, err)
		}
		result.Outcomes = append(result.Outcomes, ScenarioPlan{Scenario: scenario, Plan: plan})
		result.Expected += scenario.Probability * plan.Profit
	}
	e.logger.Info("wait-and-see solutions",
		zap.String("op", "allocation.WaitAndSee"),
		zap.Int("scenarios", len(e.scenarios)),
		zap.Float64("expected", result.Expected),
	)
	return result, nil
}

func (e *Evaluator) solve(layout Layout) (*Plan, error) {
	model, err := e.builder.Build(layout)
	if err != nil {
		return nil, err
	}
	return model.Solve(e.solver)
}
