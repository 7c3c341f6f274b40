package decision

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/decision-analysis/pkg/constants"
	"github.com/iwvelando/decision-analysis/pkg/mathutil"
)

// ErrZeroMarginal reports a signal outcome that can never be observed, whose
// posterior is undefined.
var ErrZeroMarginal = errors.New("decision: signal outcome has zero marginal probability")

// Signal is an imperfect observation of the state.
type Signal struct {
	Name     string
	Outcomes []string
	// Likelihoods[state][outcome] is P(outcome | state). Each row sums to one.
	Likelihoods [][]float64
}

// Update is the Bayesian revision of a prior by a signal. Outcome-major
// tables are indexed [outcome][state].
type Update struct {
	States    []string
	Outcomes  []string
	Prior     []float64
	Joint     [][]float64
	Marginal  []float64
	Posterior [][]float64
}

// Shift returns posterior minus prior for each outcome and state.
func (u *Update) Shift() [][]float64 {
	shift := make([][]float64, len(u.Outcomes))
	for o := range u.Outcomes {
		shift[o] = make([]float64, len(u.States))
		for s := range u.States {
			shift[o][s] = u.Posterior[o][s] - u.Prior[s]
		}
	}
	return shift
}

// Update revises the table's priors with signal.
func (t Table) Update(signal Signal) (*Update, error) {
	return Bayes(t.StateNames(), t.Priors(), signal)
}

// Bayes computes joint = likelihood x prior, the marginal of each outcome and
// posterior = joint / marginal, checking that every table is a distribution
// where it should be.
func Bayes(states []string, prior []float64, signal Signal) (*Update, error) {
	if len(states) != len(prior) {
		return nil, fmt.Errorf("%w: %d priors for %d states", ErrInvalidTable, len(prior), len(states))
	}
	if !mathutil.SumsToOne(prior) {
		return nil, fmt.Errorf("%w: priors %v", ErrProbability, prior)
	}
	if len(signal.Outcomes) == 0 {
		return nil, fmt.Errorf("%w: signal %s has no outcomes", ErrInvalidTable, signal.Name)
	}
	if len(signal.Likelihoods) != len(states) {
		return nil, fmt.Errorf("%w: signal %s has likelihoods for %d states, expected %d", ErrInvalidTable, signal.Name, len(signal.Likelihoods), len(states))
	}
	for s, row := range signal.Likelihoods {
		if len(row) != len(signal.Outcomes) {
			return nil, fmt.Errorf("%w: signal %s state %s has %d likelihoods for %d outcomes", ErrInvalidTable, signal.Name, states[s], len(row), len(signal.Outcomes))
		}
		if !mathutil.SumsToOne(row) {
			return nil, fmt.Errorf("%w: likelihoods of signal %s given %s are %v", ErrProbability, signal.Name, states[s], row)
		}
	}

	u := &Update{
		States:    append([]string(nil), states...),
		Outcomes:  append([]string(nil), signal.Outcomes...),
		Prior:     append([]float64(nil), prior...),
		Joint:     make([][]float64, len(signal.Outcomes)),
		Marginal:  make([]float64, len(signal.Outcomes)),
		Posterior: make([][]float64, len(signal.Outcomes)),
	}

	total := 0.0
	for o := range signal.Outcomes {
		u.Joint[o] = make([]float64, len(states))
		for s := range states {
			u.Joint[o][s] = signal.Likelihoods[s][o] * prior[s]
		}
		u.Marginal[o] = mathutil.Sum(u.Joint[o])
		total += u.Marginal[o]
	}
	if math.Abs(total-1) > constants.ProbabilityTolerance {
		return nil, fmt.Errorf("%w: joint probabilities sum to %v", ErrProbability, total)
	}
	for s := range states {
		column := 0.0
		for o := range signal.Outcomes {
			column += u.Joint[o][s]
		}
		if math.Abs(column-prior[s]) > constants.ProbabilityTolerance {
			return nil, fmt.Errorf("%w: joint marginal %v for state %s does not reproduce prior %v", ErrProbability, column, states[s], prior[s])
		}
	}

	for o, outcome := range signal.Outcomes {
		if u.Marginal[o] <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrZeroMarginal, outcome)
		}
		u.Posterior[o] = make([]float64, len(states))
		for s := range states {
			u.Posterior[o][s] = u.Joint[o][s] / u.Marginal[o]
		}
		if !mathutil.SumsToOne(u.Posterior[o]) {
			return nil, fmt.Errorf("%w: posterior given %s is %v", ErrProbability, outcome, u.Posterior[o])
		}
	}
	return u, nil
}
