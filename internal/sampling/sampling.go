// Package sampling approximates the stochastic allocation program when
// productivity follows a continuous distribution (sample average
// approximation). Training batches each solve the recourse problem over
// equiprobable sampled scenarios; a separate validation phase scores the
// chosen allocation on fresh samples.
package sampling

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/iwvelando/decision-analysis/internal/allocation"
	"github.com/iwvelando/decision-analysis/pkg/constants"
	"github.com/iwvelando/decision-analysis/pkg/mathutil"
	"github.com/iwvelando/decision-analysis/pkg/solver"
	"github.com/iwvelando/decision-analysis/pkg/stats"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Params configures a sampling run.
type Params struct {
	// Mean and StdDev describe the normal productivity multiplier.
	Mean   float64
	StdDev float64
	// SampleSize (N) scenarios per training batch, Batches (M) batches.
	SampleSize int
	Batches    int
	// ValidationSampleSize (N̄) scenarios per validation batch,
	// ValidationBatches (T) batches.
	ValidationSampleSize int
	ValidationBatches    int
	ConfidenceLevel      float64
	// Seed fixes the random streams; zero seeds from the clock.
	Seed uint64
	// Workers bounds concurrent batch solves; zero or less means one.
	Workers int
}

// Validate checks the parameters.
func (p Params) Validate() error {
	switch {
	case math.IsNaN(p.Mean) || math.IsInf(p.Mean, 0):
		return fmt.Errorf("sampling mean must be finite, got %v", p.Mean)
	case math.IsNaN(p.StdDev) || math.IsInf(p.StdDev, 0) || p.StdDev < 0:
		return fmt.Errorf("sampling standard deviation must be finite and non-negative, got %v", p.StdDev)
	case p.SampleSize < 1:
		return fmt.Errorf("sample size must be at least 1, got %d", p.SampleSize)
	case p.Batches < 2:
		return fmt.Errorf("at least 2 batches are required, got %d", p.Batches)
	case p.ValidationSampleSize < 1:
		return fmt.Errorf("validation sample size must be at least 1, got %d", p.ValidationSampleSize)
	case p.ValidationBatches < 2:
		return fmt.Errorf("at least 2 validation batches are required, got %d", p.ValidationBatches)
	case !(p.ConfidenceLevel > 0 && p.ConfidenceLevel < 1):
		return fmt.Errorf("confidence level must be in (0, 1), got %v", p.ConfidenceLevel)
	}
	return nil
}

// Batch is one training batch's solution.
type Batch struct {
	Index        int
	Allocation   []float64
	Objective    float64
	SampleMean   float64
	SampleStdDev float64
}

// Training summarizes the M training batches.
type Training struct {
	Batches          []Batch
	Objective        stats.Summary
	AllocationMean   []float64
	AllocationStdDev []float64
	// Best is the batch with the highest objective.
	Best Batch
}

// Validation scores a fixed allocation on fresh samples.
type Validation struct {
	Allocation []float64
	BatchMeans []float64
	Summary    stats.Summary
	// RelativeHalfWidth is the CI half-width as a percentage of the mean.
	RelativeHalfWidth float64
	Precision         string
}

// Result is a full training and validation run.
type Result struct {
	Seed       uint64
	Training   *Training
	Validation *Validation
}

// Runner executes sampling runs for one problem.
type Runner struct {
	logger  *zap.Logger
	solver  solver.Solver
	problem allocation.Problem
	params  Params
}

// NewRunner validates the problem and parameters and resolves the seed.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewRunner(logger *zap.Logger, s solver.Solver, problem allocation.Problem, params Params) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if s == nil {
		return nil, fmt.Errorf("solver cannot be nil")
	}
	if err := problem.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.Seed == 0 {
		params.Seed = uint64(time.Now().UnixNano())
	}
	if params.Workers < 1 {
		params.Workers = 1
	}
	return &Runner{logger: logger, solver: s, problem: problem, params: params}, nil
}

// Params returns the effective parameters, including the resolved seed.
func (r *Runner) Params() Params {
	return r.params
}

// Run trains, then validates the best training allocation.
func (r *Runner) Run() (*Result, error) {
	training, err := r.Train()
	if err != nil {
		return nil, err
	}
	validation, err := r.Validate(training.Best.Allocation)
	if err != nil {
		return nil, err
	}
	return &Result{Seed: r.params.Seed, Training: training, Validation: validation}, nil
}

// Train solves the sampled recourse problem for each of the M batches.
func (r *Runner) Train() (*Training, error) {
	p := r.params
	batches := make([]Batch, p.Batches)

	var g errgroup.Group
	g.SetLimit(p.Workers)
	for m := 0; m < p.Batches; m++ {
		g.Go(func() error {
			multipliers := r.draw(uint64(m), p.SampleSize)
			scenarios := allocation.EquiprobableScenarios(fmt.Sprintf("batch%d", m+1), multipliers)
			evaluator, err := allocation.NewEvaluator(r.logger, r.solver, r.problem, scenarios)
			if err != nil {
				return fmt.Errorf("training batch %d: %w", m+1, err)
			}
			plan, err := evaluator.Stochastic()
			if err != nil {
				return fmt.Errorf("training batch %d: %w", m+1, err)
			}
			batches[m] = Batch{
				Index:        m + 1,
				Allocation:   plan.Allocation,
				Objective:    plan.Profit,
				SampleMean:   stat.Mean(multipliers, nil),
				SampleStdDev: sampleStdDev(multipliers),
			}
			r.logger.Debug("training batch solved",
				zap.String("op", "sampling.Train"),
				zap.Int("batch", m+1),
				zap.Float64("objective", plan.Profit),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	objectives := make([]float64, len(batches))
	allocations := make([][]float64, len(batches))
	for i, b := range batches {
		objectives[i] = b.Objective
		allocations[i] = b.Allocation
	}
	summary, err := stats.Summarize(objectives, p.ConfidenceLevel)
	if err != nil {
		return nil, err
	}
	means, stdDevs := stats.ColumnMeans(allocations)
	best := batches[mathutil.ArgMax(objectives)]

	r.logger.Info("sampling training complete",
		zap.String("op", "sampling.Train"),
		zap.Int("batches", p.Batches),
		zap.Int("sampleSize", p.SampleSize),
		zap.Float64("mean", summary.Mean),
		zap.Float64("lower", summary.Lower),
		zap.Float64("upper", summary.Upper),
		zap.Int("bestBatch", best.Index),
	)

	return &Training{
		Batches:          batches,
		Objective:        summary,
		AllocationMean:   means,
		AllocationStdDev: stdDevs,
		Best:             best,
	}, nil
}

// Validate holds allocation fixed and averages its profit over T fresh
// batches of N̄ samples each. Validation streams never overlap training
// streams.
func (r *Runner) Validate(alloc []float64) (*Validation, error) {
	p := r.params
	if err := r.problem.CheckAllocation(alloc); err != nil {
		return nil, err
	}
	means := make([]float64, p.ValidationBatches)

	var g errgroup.Group
	g.SetLimit(p.Workers)
	for t := 0; t < p.ValidationBatches; t++ {
		g.Go(func() error {
			multipliers := r.draw(uint64(p.Batches+t), p.ValidationSampleSize)
			scenarios := allocation.EquiprobableScenarios(fmt.Sprintf("validation%d", t+1), multipliers)
			evaluator, err := allocation.NewEvaluator(r.logger, r.solver, r.problem, scenarios)
			if err != nil {
				return fmt.Errorf("validation batch %d: %w", t+1, err)
			}
			result, err := evaluator.Recourse(alloc)
			if err != nil {
				return fmt.Errorf("validation batch %d: %w", t+1, err)
			}
			means[t] = result.Expected
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary, err := stats.Summarize(means, p.ConfidenceLevel)
	if err != nil {
		return nil, err
	}
	relative := summary.RelativeHalfWidth()

	r.logger.Info("sampling validation complete",
		zap.String("op", "sampling.Validate"),
		zap.Int("batches", p.ValidationBatches),
		zap.Int("sampleSize", p.ValidationSampleSize),
		zap.Float64("mean", summary.Mean),
		zap.Float64("lower", summary.Lower),
		zap.Float64("upper", summary.Upper),
	)

	return &Validation{
		Allocation:        append([]float64(nil), alloc...),
		BatchMeans:        means,
		Summary:           summary,
		RelativeHalfWidth: relative,
		Precision:         PrecisionGrade(relative),
	}, nil
}

// draw returns n multipliers from stream. Negative draws are truncated to
// zero since productivity cannot be negative.
func (r *Runner) draw(stream uint64, n int) []float64 {
	dist := distuv.Normal{
		Mu:    r.params.Mean,
		Sigma: r.params.StdDev,
		Src:   rand.NewPCG(r.params.Seed, stream),
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Max(0, dist.Rand())
	}
	return out
}

func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// PrecisionGrade labels a relative CI half-width in percent.
func PrecisionGrade(relativeHalfWidth float64) string {
	switch {
	case relativeHalfWidth < constants.PrecisionVeryHighPercent:
		return "very high"
	case relativeHalfWidth < constants.PrecisionHighPercent:
		return "high"
	case relativeHalfWidth < constants.PrecisionMediumPercent:
		return "medium"
	default:
		return "low"
	}
}
