// Package analysis runs every enabled engine over a configuration and
// gathers their results into one report.
package analysis

import (
	"fmt"

	"github.com/iwvelando/decision-analysis/internal/allocation"
	"github.com/iwvelando/decision-analysis/internal/config"
	"github.com/iwvelando/decision-analysis/internal/decision"
	"github.com/iwvelando/decision-analysis/internal/sampling"
	"github.com/iwvelando/decision-analysis/pkg/constants"
	"github.com/iwvelando/decision-analysis/pkg/solver"
	"go.uber.org/zap"
)

// Report holds the results of every analysis that ran. Sections for
// disabled analyses are nil.
type Report struct {
	// Activities names the allocation columns, in order.
	Activities []string
	Allocation *allocation.Analysis
	Sampling   *sampling.Result
	Decision   *DecisionReport
}

// DecisionReport collects the discrete decision results.
type DecisionReport struct {
	Table              decision.Table
	ExpectedValues     []float64
	Best               decision.Choice
	PerfectInformation decision.PerfectInformation
	Risk               decision.RiskProfile
	Update             *decision.Update
	SampleInformation  *decision.SampleInformation
	// Naive is nil when no naive policy is configured.
	Naive *decision.SampleInformation
	// NaiveGap is how much the optimal per-outcome policy gains over the
	// naive one.
	NaiveGap      float64
	CostSweep     []decision.SweepPoint
	BreakEvenCost float64
}

// Runner executes the analyses enabled in a configuration.
type Runner struct {
	logger *zap.Logger
	conf   *config.Configuration
	solver solver.Solver
}

// NewRunner constructs a Runner for the provided configuration.
func NewRunner(logger *zap.Logger, conf *config.Configuration) (*Runner, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		logger: logger,
		conf:   conf,
		solver: solver.NewSimplex(logger, constants.SolverTolerance),
	}, nil
}

// Run executes every enabled analysis in order and stops at the first
// failure.
func (r *Runner) Run() (*Report, error) {
	report := &Report{}

	if r.conf.Analyses.Allocation || r.conf.Analyses.Sampling {
		for _, crop := range r.conf.Farm.Crops {
			report.Activities = append(report.Activities, crop.Name)
		}
	}

	if r.conf.Analyses.Allocation {
		result, err := r.RunAllocation()
		if err != nil {
			return nil, fmt.Errorf("allocation analysis failed: %w", err)
		}
		report.Allocation = result
	} else {
		r.logger.Debug("skipping allocation analysis because it is disabled",
			zap.String("op", "analysis.Run"),
		)
	}

	if r.conf.Analyses.Sampling {
		result, err := r.RunSampling()
		if err != nil {
			return nil, fmt.Errorf("sampling analysis failed: %w", err)
		}
		report.Sampling = result
	} else {
		r.logger.Debug("skipping sampling analysis because it is disabled",
			zap.String("op", "analysis.Run"),
		)
	}

	if r.conf.Analyses.Decision {
		result, err := r.RunDecision()
		if err != nil {
			return nil, fmt.Errorf("decision analysis failed: %w", err)
		}
		report.Decision = result
	} else {
		r.logger.Debug("skipping decision analysis because it is disabled",
			zap.String("op", "analysis.Run"),
		)
	}

	return report, nil
}

// RunAllocation solves the expected-value, recourse, stochastic and
// wait-and-see models over the configured scenarios.
func (r *Runner) RunAllocation() (*allocation.Analysis, error) {
	problem, err := r.conf.Problem()
	if err != nil {
		return nil, err
	}
	scenarios, err := r.conf.AllocationScenarios()
	if err != nil {
		return nil, err
	}
	evaluator, err := allocation.NewEvaluator(r.logger, r.solver, problem, scenarios)
	if err != nil {
		return nil, err
	}
	return evaluator.Analyze()
}

// RunSampling trains and validates the sample average approximation.
func (r *Runner) RunSampling() (*sampling.Result, error) {
	problem, err := r.conf.Problem()
	if err != nil {
		return nil, err
	}
	runner, err := sampling.NewRunner(r.logger, r.solver, problem, r.conf.SamplingParams())
	if err != nil {
		return nil, err
	}
	return runner.Run()
}

// RunDecision evaluates the payoff table, revises it with the survey and
// values the survey at the configured and swept costs.
func (r *Runner) RunDecision() (*DecisionReport, error) {
	table, err := r.conf.DecisionTable()
	if err != nil {
		return nil, err
	}
	signal, err := r.conf.Signal()
	if err != nil {
		return nil, err
	}
	update, err := table.Update(signal)
	if err != nil {
		return nil, err
	}

	report := &DecisionReport{
		Table:              table,
		ExpectedValues:     table.ExpectedValues(),
		Best:               table.Best(),
		PerfectInformation: table.PerfectInformation(),
		Risk:               table.RiskProfile(),
		Update:             update,
	}

	cost := r.conf.Decision.Cost
	report.SampleInformation, err = table.SampleInformation(update, cost)
	if err != nil {
		return nil, err
	}

	if policy := r.conf.NaivePolicy(); policy != nil {
		report.Naive, err = table.NaiveSampleInformation(update, cost, policy)
		if err != nil {
			return nil, err
		}
		report.NaiveGap = report.SampleInformation.ExpectedWithSample - report.Naive.ExpectedWithSample
	}

	if len(r.conf.Decision.CostSweep) > 0 {
		report.CostSweep, err = table.CostSweep(update, r.conf.Decision.CostSweep)
		if err != nil {
			return nil, err
		}
	}

	report.BreakEvenCost, err = table.BreakEvenCost(update)
	if err != nil {
		return nil, err
	}

	r.logger.Info("decision analysis complete",
		zap.String("op", "analysis.RunDecision"),
		zap.String("best", report.Best.Strategy),
		zap.Float64("evwopi", report.Best.Value),
		zap.Float64("evpi", report.PerfectInformation.EVPI),
		zap.Float64("netEvsi", report.SampleInformation.NetEVSI),
		zap.Float64("breakEvenCost", report.BreakEvenCost),
	)

	return report, nil
}
