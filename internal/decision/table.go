// Package decision evaluates discrete strategies against discrete states of
// the world: expected values, perfect information, Bayesian revision of the
// prior by an imperfect signal and the value of that sample information.
package decision

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/decision-analysis/pkg/mathutil"
)

// ErrProbability reports a distribution that is negative or does not sum to
// one within tolerance.
var ErrProbability = errors.New("decision: invalid probability distribution")

// ErrInvalidTable reports a malformed payoff table or policy.
var ErrInvalidTable = errors.New("decision: invalid table")

// State is one possible state of the world with its prior probability.
type State struct {
	Name  string
	Prior float64
}

// Strategy is one alternative with its payoff in each state, in state order.
type Strategy struct {
	Name    string
	Payoffs []float64
}

// Table is a payoff matrix of strategies by states.
type Table struct {
	States     []State
	Strategies []Strategy
}

// Choice names a selected strategy and the value that selected it.
type Choice struct {
	Strategy string
	Index    int
	Value    float64
}

// Validate checks names, payoff shapes and that the priors form a
// distribution.
func (t Table) Validate() error {
	if len(t.States) == 0 {
		return fmt.Errorf("%w: no states", ErrInvalidTable)
	}
	if len(t.Strategies) == 0 {
		return fmt.Errorf("%w: no strategies", ErrInvalidTable)
	}
	if err := uniqueNames(len(t.States), func(i int) string { return t.States[i].Name }); err != nil {
		return fmt.Errorf("%w: state %v", ErrInvalidTable, err)
	}
	if err := uniqueNames(len(t.Strategies), func(i int) string { return t.Strategies[i].Name }); err != nil {
		return fmt.Errorf("%w: strategy %v", ErrInvalidTable, err)
	}
	for _, s := range t.Strategies {
		if len(s.Payoffs) != len(t.States) {
			return fmt.Errorf("%w: strategy %s has %d payoffs for %d states", ErrInvalidTable, s.Name, len(s.Payoffs), len(t.States))
		}
		for j, p := range s.Payoffs {
			if math.IsNaN(p) || math.IsInf(p, 0) {
				return fmt.Errorf("%w: strategy %s payoff in state %s is not finite", ErrInvalidTable, s.Name, t.States[j].Name)
			}
		}
	}
	if !mathutil.SumsToOne(t.Priors()) {
		return fmt.Errorf("%w: priors %v", ErrProbability, t.Priors())
	}
	return nil
}

func uniqueNames(n int, name func(int) string) error {
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		switch s := name(i); {
		case s == "":
			return fmt.Errorf("%d has no name", i+1)
		case seen[s]:
			return fmt.Errorf("%q is declared twice", s)
		default:
			seen[s] = true
		}
	}
	return nil
}

// Priors returns the prior probabilities in state order.
func (t Table) Priors() []float64 {
	priors := make([]float64, len(t.States))
	for i, s := range t.States {
		priors[i] = s.Prior
	}
	return priors
}

// StateNames returns the state names in order.
func (t Table) StateNames() []string {
	names := make([]string, len(t.States))
	for i, s := range t.States {
		names[i] = s.Name
	}
	return names
}

// StrategyIndex returns the position of the named strategy, or -1.
func (t Table) StrategyIndex(name string) int {
	for i, s := range t.Strategies {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// ExpectedValues returns each strategy's prior-weighted payoff.
func (t Table) ExpectedValues() []float64 {
	return t.weighted(t.Priors())
}

// weighted returns each strategy's payoff weighted by probabilities.
func (t Table) weighted(probabilities []float64) []float64 {
	values := make([]float64, len(t.Strategies))
	for i, s := range t.Strategies {
		values[i] = mathutil.Dot(probabilities, s.Payoffs)
	}
	return values
}

// choose picks the maximum of values, the first strategy winning ties.
func (t Table) choose(values []float64) Choice {
	i := mathutil.ArgMax(values)
	return Choice{Strategy: t.Strategies[i].Name, Index: i, Value: values[i]}
}

// Best returns the strategy with the highest expected value under the prior.
// Its value is the expected value without perfect information (EVwoPI).
func (t Table) Best() Choice {
	return t.choose(t.ExpectedValues())
}

// PerfectInformation is the value of knowing the state before choosing.
type PerfectInformation struct {
	// BestPerState is the payoff-maximizing strategy in each state.
	BestPerState []Choice
	EVwPI        float64
	EVwoPI       float64
	EVPI         float64
}

// PerfectInformation picks the best strategy per state and weights those
// payoffs by the prior.
func (t Table) PerfectInformation() PerfectInformation {
	pi := PerfectInformation{BestPerState: make([]Choice, len(t.States))}
	column := make([]float64, len(t.Strategies))
	for j, state := range t.States {
		for i, s := range t.Strategies {
			column[i] = s.Payoffs[j]
		}
		pi.BestPerState[j] = t.choose(column)
		pi.EVwPI += state.Prior * pi.BestPerState[j].Value
	}
	pi.EVwoPI = t.Best().Value
	pi.EVPI = pi.EVwPI - pi.EVwoPI
	return pi
}

// Risk describes the spread of one strategy's payoff under the prior.
type Risk struct {
	Strategy string
	Expected float64
	Variance float64
	StdDev   float64
	Worst    float64
	Best     float64
}

// RiskProfile compares strategies by spread and by extreme outcomes.
type RiskProfile struct {
	Strategies []Risk
	// Maximin has the best worst case, Maximax the best best case.
	Maximin Choice
	Maximax Choice
}

// RiskProfile computes the prior-weighted variance and the payoff range of
// each strategy.
func (t Table) RiskProfile() RiskProfile {
	priors := t.Priors()
	profile := RiskProfile{Strategies: make([]Risk, len(t.Strategies))}
	worst := make([]float64, len(t.Strategies))
	best := make([]float64, len(t.Strategies))
	for i, s := range t.Strategies {
		mean := mathutil.Dot(priors, s.Payoffs)
		variance := 0.0
		for j, p := range s.Payoffs {
			variance += priors[j] * (p - mean) * (p - mean)
		}
		worst[i] = s.Payoffs[mathutil.ArgMin(s.Payoffs)]
		best[i] = s.Payoffs[mathutil.ArgMax(s.Payoffs)]
		profile.Strategies[i] = Risk{
			Strategy: s.Name,
			Expected: mean,
			Variance: variance,
			StdDev:   math.Sqrt(variance),
			Worst:    worst[i],
			Best:     best[i],
		}
	}
	profile.Maximin = t.choose(worst)
	profile.Maximax = t.choose(best)
	return profile
}
