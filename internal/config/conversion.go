package config

import (
	"fmt"

	"github.com/iwvelando/decision-analysis/internal/allocation"
	"github.com/iwvelando/decision-analysis/internal/decision"
	"github.com/iwvelando/decision-analysis/internal/sampling"
	"gopkg.in/yaml.v3"
)

// ToActivity converts a crop to an allocation.Activity.
func (crop CropConfig) ToActivity() (allocation.Activity, error) {
	activity := allocation.Activity{
		Name:      crop.Name,
		Cost:      crop.PlantingCost,
		Rate:      crop.Yield,
		SalePrice: crop.SalePrice,
	}
	switch crop.Kind {
	case CropKindTradable:
		activity.Kind = allocation.Tradable
		activity.Demand = crop.Demand
		activity.PurchasePrice = crop.PurchasePrice
	case CropKindQuota:
		activity.Kind = allocation.QuotaPriced
		activity.Quota = crop.Quota
		activity.ExcessPrice = crop.ExcessPrice
	default:
		return allocation.Activity{}, fmt.Errorf("crop %s has unknown kind %q", crop.Name, crop.Kind)
	}
	return activity, nil
}

// Problem converts the farm section to an allocation.Problem and validates it.
func (c *Configuration) Problem() (allocation.Problem, error) {
	problem := allocation.Problem{TotalResource: c.Farm.TotalLand}
	for _, crop := range c.Farm.Crops {
		activity, err := crop.ToActivity()
		if err != nil {
			return allocation.Problem{}, err
		}
		problem.Activities = append(problem.Activities, activity)
	}
	if err := problem.Validate(); err != nil {
		return allocation.Problem{}, err
	}
	return problem, nil
}

// AllocationScenarios converts and validates the discrete yield scenarios.
func (c *Configuration) AllocationScenarios() ([]allocation.Scenario, error) {
	scenarios := make([]allocation.Scenario, len(c.Scenarios))
	for i, s := range c.Scenarios {
		scenarios[i] = allocation.Scenario{
			Name:        s.Name,
			Probability: s.Probability,
			Multiplier:  s.Multiplier,
		}
	}
	if err := allocation.ValidateScenarios(scenarios); err != nil {
		return nil, err
	}
	return scenarios, nil
}

// SamplingParams converts the sampling section.
func (c *Configuration) SamplingParams() sampling.Params {
	s := c.Sampling
	return sampling.Params{
		Mean:                 s.YieldMean,
		StdDev:               s.YieldStdDev,
		SampleSize:           s.SampleSize,
		Batches:              s.Batches,
		ValidationSampleSize: s.ValidationSampleSize,
		ValidationBatches:    s.ValidationBatches,
		ConfidenceLevel:      s.ConfidenceLevel,
		Seed:                 s.Seed,
		Workers:              s.Workers,
	}
}

// DecisionTable converts and validates the payoff table.
func (c *Configuration) DecisionTable() (decision.Table, error) {
	var table decision.Table
	for _, s := range c.Decision.States {
		table.States = append(table.States, decision.State{Name: s.Name, Prior: s.Prior})
	}
	for _, s := range c.Decision.Strategies {
		table.Strategies = append(table.Strategies, decision.Strategy{
			Name:    s.Name,
			Payoffs: append([]float64(nil), s.Payoffs...),
		})
	}
	if err := table.Validate(); err != nil {
		return decision.Table{}, err
	}
	return table, nil
}

// Signal converts the survey, ordering likelihood rows by the declared
// states.
func (c *Configuration) Signal() (decision.Signal, error) {
	cfg := c.Decision.Signal
	signal := decision.Signal{
		Name:        cfg.Name,
		Outcomes:    append([]string(nil), cfg.Outcomes...),
		Likelihoods: make([][]float64, len(c.Decision.States)),
	}
	if len(cfg.Likelihoods) != len(c.Decision.States) {
		return decision.Signal{}, fmt.Errorf("%w: signal %s lists likelihoods for %d states, expected %d", decision.ErrInvalidTable, cfg.Name, len(cfg.Likelihoods), len(c.Decision.States))
	}
	for _, l := range cfg.Likelihoods {
		row := -1
		for i, s := range c.Decision.States {
			if s.Name == l.State {
				row = i
				break
			}
		}
		if row < 0 {
			return decision.Signal{}, fmt.Errorf("%w: signal %s has likelihoods for unknown state %s", decision.ErrInvalidTable, cfg.Name, l.State)
		}
		if signal.Likelihoods[row] != nil {
			return decision.Signal{}, fmt.Errorf("%w: signal %s lists state %s twice", decision.ErrInvalidTable, cfg.Name, l.State)
		}
		signal.Likelihoods[row] = append([]float64(nil), l.Probabilities...)
	}
	return signal, nil
}

// NaivePolicy returns the configured outcome to strategy mapping.
func (c *Configuration) NaivePolicy() map[string]string {
	if len(c.Decision.NaivePolicy) == 0 {
		return nil
	}
	policy := make(map[string]string, len(c.Decision.NaivePolicy))
	for _, p := range c.Decision.NaivePolicy {
		policy[p.Outcome] = p.Strategy
	}
	return policy
}

// Marshal renders the configuration as YAML.
func (c *Configuration) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
