package decision

import (
	"fmt"
	"math"

	"github.com/iwvelando/decision-analysis/pkg/constants"
	"github.com/iwvelando/decision-analysis/pkg/mathutil"
)

// OutcomeDecision is the strategy taken after observing one signal outcome.
type OutcomeDecision struct {
	Outcome  string
	Marginal float64
	// Expected holds each strategy's posterior expected payoff net of the
	// sampling cost.
	Expected []float64
	Choice   Choice
}

// SampleInformation values buying a signal before choosing.
type SampleInformation struct {
	Cost      float64
	Decisions []OutcomeDecision
	// ExpectedWithSample is the marginal-weighted value of the per-outcome
	// choices, net of the sampling cost.
	ExpectedWithSample float64
	EVwoPI             float64
	// NetEVSI = ExpectedWithSample - EVwoPI.
	NetEVSI float64
	// GrossEVSI ignores the cost; it is also the break-even cost.
	GrossEVSI     float64
	WorthSampling bool
}

// SampleInformation re-optimizes the strategy for every outcome of u using
// its posterior.
func (t Table) SampleInformation(u *Update, cost float64) (*SampleInformation, error) {
	return t.sampleInformation(u, cost, nil)
}

// NaiveSampleInformation follows a policy fixed in advance, mapping every
// outcome name to a strategy name, instead of re-optimizing on posteriors.
func (t Table) NaiveSampleInformation(u *Update, cost float64, policy map[string]string) (*SampleInformation, error) {
	if u == nil {
		return nil, fmt.Errorf("%w: no update", ErrInvalidTable)
	}
	fixed := make([]int, len(u.Outcomes))
	for o, outcome := range u.Outcomes {
		name, ok := policy[outcome]
		if !ok {
			return nil, fmt.Errorf("%w: policy has no strategy for outcome %s", ErrInvalidTable, outcome)
		}
		if fixed[o] = t.StrategyIndex(name); fixed[o] < 0 {
			return nil, fmt.Errorf("%w: policy names unknown strategy %s", ErrInvalidTable, name)
		}
	}
	if len(policy) != len(u.Outcomes) {
		return nil, fmt.Errorf("%w: policy maps %d outcomes, signal has %d", ErrInvalidTable, len(policy), len(u.Outcomes))
	}
	return t.sampleInformation(u, cost, fixed)
}

func (t Table) sampleInformation(u *Update, cost float64, fixed []int) (*SampleInformation, error) {
	if err := t.checkUpdate(u); err != nil {
		return nil, err
	}
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return nil, fmt.Errorf("%w: sampling cost must be finite, got %v", ErrInvalidTable, cost)
	}

	si := &SampleInformation{
		Cost:      cost,
		Decisions: make([]OutcomeDecision, len(u.Outcomes)),
		EVwoPI:    t.Best().Value,
	}
	gross := 0.0
	for o, outcome := range u.Outcomes {
		expected := t.weighted(u.Posterior[o])
		for i := range expected {
			expected[i] -= cost
		}
		var choice Choice
		if fixed == nil {
			choice = t.choose(expected)
		} else {
			i := fixed[o]
			choice = Choice{Strategy: t.Strategies[i].Name, Index: i, Value: expected[i]}
		}
		si.Decisions[o] = OutcomeDecision{
			Outcome:  outcome,
			Marginal: u.Marginal[o],
			Expected: expected,
			Choice:   choice,
		}
		si.ExpectedWithSample += u.Marginal[o] * choice.Value
		gross += u.Marginal[o] * (choice.Value + cost)
	}

	tolerance := constants.ObjectiveTolerance * math.Max(1, math.Abs(si.EVwoPI))
	si.NetEVSI = mathutil.ClampNoise(si.ExpectedWithSample-si.EVwoPI, tolerance)
	si.GrossEVSI = mathutil.ClampNoise(gross-si.EVwoPI, tolerance)
	si.WorthSampling = si.NetEVSI > 0
	return si, nil
}

// checkUpdate verifies u was computed over this table's states.
func (t Table) checkUpdate(u *Update) error {
	if u == nil {
		return fmt.Errorf("%w: no update", ErrInvalidTable)
	}
	if len(u.States) != len(t.States) {
		return fmt.Errorf("%w: update covers %d states, table has %d", ErrInvalidTable, len(u.States), len(t.States))
	}
	for i, s := range t.States {
		if u.States[i] != s.Name {
			return fmt.Errorf("%w: update state %s does not match table state %s", ErrInvalidTable, u.States[i], s.Name)
		}
	}
	return nil
}

// SweepPoint is the value of sampling at one cost.
type SweepPoint struct {
	Cost               float64
	ExpectedWithSample float64
	NetEVSI            float64
	WorthSampling      bool
}

// CostSweep evaluates the optimal per-outcome policy at each cost. The policy
// itself does not depend on the cost, only its net value does.
func (t Table) CostSweep(u *Update, costs []float64) ([]SweepPoint, error) {
	points := make([]SweepPoint, 0, len(costs))
	for _, cost := range costs {
		si, err := t.SampleInformation(u, cost)
		if err != nil {
			return nil, err
		}
		points = append(points, SweepPoint{
			Cost:               cost,
			ExpectedWithSample: si.ExpectedWithSample,
			NetEVSI:            si.NetEVSI,
			WorthSampling:      si.WorthSampling,
		})
	}
	return points, nil
}

// BreakEvenCost returns the sampling cost at which the net EVSI is zero.
func (t Table) BreakEvenCost(u *Update) (float64, error) {
	si, err := t.SampleInformation(u, 0)
	if err != nil {
		return 0, err
	}
	return si.GrossEVSI, nil
}
