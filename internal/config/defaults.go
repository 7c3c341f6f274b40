package config

import "github.com/iwvelando/decision-analysis/pkg/constants"

// Default returns the reference instance: a 500 acre farm planting wheat,
// corn and sugar beets under three equally likely yield scenarios, and a
// production-volume decision with a market survey.
func Default() *Configuration {
	third := 1.0 / 3
	return &Configuration{
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Output:  OutputConfig{Format: constants.OutputFormatPretty},
		Analyses: AnalysesConfig{
			Allocation: true,
			Sampling:   true,
			Decision:   true,
		},
		Farm: FarmConfig{
			TotalLand: 500,
			Crops: []CropConfig{
				{Name: "wheat", Kind: CropKindTradable, PlantingCost: 150, Yield: 2.5, Demand: 200, PurchasePrice: 238, SalePrice: 170},
				{Name: "corn", Kind: CropKindTradable, PlantingCost: 230, Yield: 3, Demand: 240, PurchasePrice: 210, SalePrice: 150},
				{Name: "sugar beets", Kind: CropKindQuota, PlantingCost: 260, Yield: 20, SalePrice: 36, Quota: 6000, ExcessPrice: 10},
			},
		},
		Scenarios: []ScenarioConfig{
			{Name: "below average", Probability: third, Multiplier: 0.8},
			{Name: "average", Probability: third, Multiplier: 1.0},
			{Name: "above average", Probability: third, Multiplier: 1.2},
		},
		Sampling: SamplingConfig{
			YieldMean:            constants.DefaultYieldMean,
			YieldStdDev:          constants.DefaultYieldStdDev,
			SampleSize:           constants.DefaultSampleSize,
			Batches:              constants.DefaultBatches,
			ValidationSampleSize: constants.DefaultValidationSampleSize,
			ValidationBatches:    constants.DefaultValidationBatches,
			ConfidenceLevel:      constants.DefaultConfidenceLevel,
			Seed:                 20250101,
			Workers:              4,
		},
		Decision: DecisionConfig{
			States: []StateConfig{
				{Name: "high", Prior: 0.41},
				{Name: "low", Prior: 0.59},
			},
			Strategies: []StrategyConfig{
				{Name: "A", Description: "produce 10,000 units", Payoffs: []float64{1_000_000, -400_000}},
				{Name: "B", Description: "produce 6,000 units", Payoffs: []float64{600_000, 300_000}},
				{Name: "C", Description: "produce 3,000 units", Payoffs: []float64{100_000, 400_000}},
			},
			Signal: SignalConfig{
				Name:     "market survey",
				Outcomes: []string{"encouraging", "discouraging"},
				Likelihoods: []LikelihoodConfig{
					{State: "high", Probabilities: []float64{0.8, 0.2}},
					{State: "low", Probabilities: []float64{0.3, 0.7}},
				},
			},
			Cost:      50_000,
			CostSweep: []float64{0, 5_000, 10_000, 25_000, 50_000},
			NaivePolicy: []PolicyConfig{
				{Outcome: "encouraging", Strategy: "A"},
				{Outcome: "discouraging", Strategy: "C"},
			},
		},
	}
}
