package allocation

import (
	"fmt"
	"math"

	"github.com/iwvelando/decision-analysis/pkg/solver"
)

// Layout selects which decisions a model leaves free and which scenarios it
// covers.
type Layout struct {
	Name string
	// Fixed pins the first-stage allocation. Nil leaves it free, adds the
	// resource constraint and charges the allocation cost in the objective.
	Fixed []float64
	// Scenarios each receive one recourse block.
	Scenarios []Scenario
	// Weights scale each block's recourse profit in the objective. Nil uses
	// the scenario probabilities.
	Weights []float64
}

// Builder turns a Problem into solver models.
type Builder struct {
	problem Problem
}

// NewBuilder creates a builder for problem.
func NewBuilder(problem Problem) *Builder {
	return &Builder{problem: problem}
}

// block holds the recourse variables of one scenario. Entries are -1 where
// an activity has no such variable.
type block struct {
	scenario  Scenario
	weight    float64
	purchased []solver.Variable
	sold      []solver.Variable
	excess    []solver.Variable
}

// Model is a built linear program together with the handles needed to read
// a Plan back from its solution.
type Model struct {
	problem    Problem
	lp         *solver.Model
	fixed      []float64
	allocation []solver.Variable
	blocks     []block
}

// LP exposes the underlying solver model.
func (m *Model) LP() *solver.Model {
	return m.lp
}

// Build declares the variables, objective and constraints for layout.
func (b *Builder) Build(layout Layout) (*Model, error) {
	if len(layout.Scenarios) == 0 {
		return nil, fmt.Errorf("%w: model %s has no scenarios", ErrInvalidProblem, layout.Name)
	}
	if layout.Weights != nil && len(layout.Weights) != len(layout.Scenarios) {
		return nil, fmt.Errorf("%w: model %s has %d weights for %d scenarios", ErrInvalidProblem, layout.Name, len(layout.Weights), len(layout.Scenarios))
	}
	if layout.Fixed != nil {
		if err := b.problem.CheckAllocation(layout.Fixed); err != nil {
			return nil, err
		}
	}

	activities := b.problem.Activities
	lp := solver.NewModel(layout.Name)
	model := &Model{problem: b.problem, lp: lp, fixed: layout.Fixed}
	var objective solver.Expression

	if layout.Fixed == nil {
		model.allocation = make([]solver.Variable, len(activities))
		var used solver.Expression
		for i, a := range activities {
			x := lp.AddVariable(a.Name+" allocation", solver.NonNegative())
			model.allocation[i] = x
			used = used.Plus(x, 1)
			objective = objective.Plus(x, -a.Cost)
		}
		lp.AddConstraint("resource", used, solver.LessEqual, b.problem.TotalResource)
	}

	for s, scenario := range layout.Scenarios {
		weight := scenario.Probability
		if layout.Weights != nil {
			weight = layout.Weights[s]
		}
		blk := block{
			scenario:  scenario,
			weight:    weight,
			purchased: unset(len(activities)),
			sold:      unset(len(activities)),
			excess:    unset(len(activities)),
		}

		for i, a := range activities {
			rate := a.Rate * scenario.Multiplier
			label := fmt.Sprintf("%s [%s]", a.Name, scenario.Name)

			// Production either enters the row as rate*x or, with a fixed
			// allocation, moves to the right-hand side.
			var balance solver.Expression
			produced := 0.0
			if layout.Fixed == nil {
				balance = balance.Plus(model.allocation[i], rate)
			} else {
				produced = rate * layout.Fixed[i]
			}

			switch a.Kind {
			case Tradable:
				buy := lp.AddVariable(label+" purchased", solver.NonNegative())
				sell := lp.AddVariable(label+" sold", solver.NonNegative())
				blk.purchased[i] = buy
				blk.sold[i] = sell
				objective = objective.Plus(sell, weight*a.SalePrice).Plus(buy, -weight*a.PurchasePrice)

				balance = balance.Plus(buy, 1).Plus(sell, -1)
				lp.AddConstraint(label+" demand", balance, solver.GreaterEqual, a.Demand-produced)

			case QuotaPriced:
				low := lp.AddVariable(label+" sold", solver.NonNegative())
				blk.sold[i] = low
				objective = objective.Plus(low, weight*a.SalePrice)
				balance = balance.Plus(low, -1)

				if a.tiered() {
					high := lp.AddVariable(label+" sold excess", solver.NonNegative())
					blk.excess[i] = high
					objective = objective.Plus(high, weight*a.ExcessPrice)
					balance = balance.Plus(high, -1)
					lp.AddConstraint(label+" quota", solver.Expression{{Var: low, Coef: 1}}, solver.LessEqual, a.Quota)
				}
				lp.AddConstraint(label+" output", balance, solver.Equal, -produced)
			}
		}
		model.blocks = append(model.blocks, blk)
	}

	lp.SetObjective(solver.Maximize, objective, 0)
	if err := lp.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProblem, err)
	}
	return model, nil
}

func unset(n int) []solver.Variable {
	vars := make([]solver.Variable, n)
	for i := range vars {
		vars[i] = -1
	}
	return vars
}

// Solve runs s on the model and decodes the optimum into a Plan.
func (m *Model) Solve(s solver.Solver) (*Plan, error) {
	sol, err := s.Solve(m.lp)
	if err != nil {
		return nil, err
	}
	return m.decode(sol), nil
}

func (m *Model) decode(sol *solver.Solution) *Plan {
	activities := m.problem.Activities
	allocation := append([]float64(nil), m.fixed...)
	if m.fixed == nil {
		// Basic solutions can carry round-off just below zero.
		allocation = sol.Values(m.allocation)
		for i, x := range allocation {
			allocation[i] = math.Max(0, x)
		}
	}

	plan := &Plan{
		Allocation:     allocation,
		AllocationCost: m.problem.AllocationCost(allocation),
		Objective:      sol.Objective,
	}

	for _, blk := range m.blocks {
		r := Recourse{
			Scenario:    blk.scenario.Name,
			Probability: blk.scenario.Probability,
			Multiplier:  blk.scenario.Multiplier,
			Production:  make([]float64, len(activities)),
			Purchased:   make([]float64, len(activities)),
			Sold:        make([]float64, len(activities)),
			SoldExcess:  make([]float64, len(activities)),
		}
		for i, a := range activities {
			r.Production[i] = a.Rate * blk.scenario.Multiplier * allocation[i]
			if v := blk.purchased[i]; v >= 0 {
				r.Purchased[i] = sol.Value(v)
				r.PurchaseCost += a.PurchasePrice * r.Purchased[i]
			}
			if v := blk.sold[i]; v >= 0 {
				r.Sold[i] = sol.Value(v)
				r.Revenue += a.SalePrice * r.Sold[i]
			}
			if v := blk.excess[i]; v >= 0 {
				r.SoldExcess[i] = sol.Value(v)
				r.Revenue += a.ExcessPrice * r.SoldExcess[i]
			}
		}
		r.RecourseProfit = r.Revenue - r.PurchaseCost
		r.Profit = r.RecourseProfit - plan.AllocationCost
		plan.Recourse = append(plan.Recourse, r)
		plan.ExpectedRecourse += blk.weight * r.RecourseProfit
	}

	plan.Profit = plan.ExpectedRecourse - plan.AllocationCost
	return plan
}
