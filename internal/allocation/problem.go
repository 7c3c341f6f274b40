// Package allocation builds and evaluates two-stage stochastic allocation
// models: a scarce resource is split between activities before productivity
// is known, and purchases and sales settle each activity once a scenario is
// realized.
package allocation

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/decision-analysis/pkg/constants"
	"github.com/iwvelando/decision-analysis/pkg/mathutil"
)

// ErrInvalidProblem reports a problem or scenario definition that cannot be
// modeled.
var ErrInvalidProblem = errors.New("allocation: invalid problem")

// Kind selects how an activity's output is settled in the second stage.
type Kind int

const (
	// Tradable output must cover a demand; shortfalls are purchased and
	// surpluses sold.
	Tradable Kind = iota
	// QuotaPriced output cannot be purchased; it is sold entirely, at
	// SalePrice up to Quota and at ExcessPrice beyond it.
	QuotaPriced
)

func (k Kind) String() string {
	switch k {
	case Tradable:
		return "tradable"
	case QuotaPriced:
		return "quota"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Activity is one use of the resource, e.g. a crop planted on land.
type Activity struct {
	Name string
	Kind Kind
	// Cost is charged per unit of resource allocated.
	Cost float64
	// Rate is the base output per unit of resource; scenarios scale it.
	Rate float64

	// Tradable settlement.
	Demand        float64
	PurchasePrice float64
	SalePrice     float64

	// QuotaPriced settlement. Quota == 0 means a single uncapped tier at
	// SalePrice.
	Quota       float64
	ExcessPrice float64
}

func (a Activity) tiered() bool {
	return a.Kind == QuotaPriced && a.Quota > 0
}

// Problem is the first-stage resource budget and its activities.
type Problem struct {
	TotalResource float64
	Activities    []Activity
}

// Validate checks that every quantity can be modeled.
func (p Problem) Validate() error {
	if !finiteNonNegative(p.TotalResource) {
		return fmt.Errorf("%w: total resource must be finite and non-negative, got %v", ErrInvalidProblem, p.TotalResource)
	}
	if len(p.Activities) == 0 {
		return fmt.Errorf("%w: at least one activity is required", ErrInvalidProblem)
	}
	seen := make(map[string]bool, len(p.Activities))
	for _, a := range p.Activities {
		if a.Name == "" {
			return fmt.Errorf("%w: activity name cannot be empty", ErrInvalidProblem)
		}
		if seen[a.Name] {
			return fmt.Errorf("%w: duplicate activity %s", ErrInvalidProblem, a.Name)
		}
		seen[a.Name] = true

		checks := []struct {
			field string
			value float64
		}{
			{"cost", a.Cost},
			{"rate", a.Rate},
			{"demand", a.Demand},
			{"purchase price", a.PurchasePrice},
			{"sale price", a.SalePrice},
			{"quota", a.Quota},
			{"excess price", a.ExcessPrice},
		}
		for _, c := range checks {
			if !finiteNonNegative(c.value) {
				return fmt.Errorf("%w: activity %s %s must be finite and non-negative, got %v", ErrInvalidProblem, a.Name, c.field, c.value)
			}
		}

		switch a.Kind {
		case Tradable:
			// Buying below the sale price would make the recourse unbounded.
			if a.PurchasePrice < a.SalePrice {
				return fmt.Errorf("%w: activity %s purchase price %v is below its sale price %v", ErrInvalidProblem, a.Name, a.PurchasePrice, a.SalePrice)
			}
		case QuotaPriced:
			// Above-quota sales are the lower tier; a higher excess price
			// would empty the quota tier.
			if a.Quota > 0 && a.ExcessPrice > a.SalePrice {
				return fmt.Errorf("%w: activity %s excess price %v is above its quota price %v", ErrInvalidProblem, a.Name, a.ExcessPrice, a.SalePrice)
			}
		default:
			return fmt.Errorf("%w: activity %s has unknown kind %v", ErrInvalidProblem, a.Name, a.Kind)
		}
	}
	return nil
}

// AllocationCost returns the first-stage cost of allocation.
func (p Problem) AllocationCost(allocation []float64) float64 {
	total := 0.0
	for i, a := range p.Activities {
		if i < len(allocation) {
			total += a.Cost * allocation[i]
		}
	}
	return total
}

// CheckAllocation verifies that allocation fits the problem's resource.
func (p Problem) CheckAllocation(allocation []float64) error {
	if len(allocation) != len(p.Activities) {
		return fmt.Errorf("%w: allocation has %d entries for %d activities", ErrInvalidProblem, len(allocation), len(p.Activities))
	}
	for i, x := range allocation {
		if !finiteNonNegative(x) {
			return fmt.Errorf("%w: allocation of %s must be finite and non-negative, got %v", ErrInvalidProblem, p.Activities[i].Name, x)
		}
	}
	used := mathutil.Sum(allocation)
	if used > p.TotalResource*(1+constants.ObjectiveTolerance)+constants.ObjectiveTolerance {
		return fmt.Errorf("%w: allocation uses %v of %v available", ErrInvalidProblem, used, p.TotalResource)
	}
	return nil
}

// Scenario is one realization of productivity.
type Scenario struct {
	Name        string
	Probability float64
	Multiplier  float64
}

// ValidateScenarios checks names, multipliers and that the probabilities
// form a distribution.
func ValidateScenarios(scenarios []Scenario) error {
	if len(scenarios) == 0 {
		return fmt.Errorf("%w: at least one scenario is required", ErrInvalidProblem)
	}
	probabilities := make([]float64, len(scenarios))
	for i, s := range scenarios {
		if !finiteNonNegative(s.Multiplier) {
			return fmt.Errorf("%w: scenario %s multiplier must be finite and non-negative, got %v", ErrInvalidProblem, s.Name, s.Multiplier)
		}
		probabilities[i] = s.Probability
	}
	if !mathutil.SumsToOne(probabilities) {
		return fmt.Errorf("%w: scenario probabilities %v do not sum to 1", ErrInvalidProblem, probabilities)
	}
	return nil
}

// ExpectedScenario collapses scenarios into their probability-weighted mean
// multiplier with probability one.
func ExpectedScenario(scenarios []Scenario) Scenario {
	mean := 0.0
	for _, s := range scenarios {
		mean += s.Probability * s.Multiplier
	}
	return Scenario{Name: "expected", Probability: 1, Multiplier: mean}
}

// EquiprobableScenarios turns sampled multipliers into scenarios of
// probability 1/len(multipliers).
func EquiprobableScenarios(prefix string, multipliers []float64) []Scenario {
	scenarios := make([]Scenario, len(multipliers))
	p := 1 / float64(len(multipliers))
	for i, m := range multipliers {
		scenarios[i] = Scenario{Name: fmt.Sprintf("%s-%d", prefix, i+1), Probability: p, Multiplier: m}
	}
	return scenarios
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
