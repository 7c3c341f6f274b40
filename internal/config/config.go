// Package config defines the data structures related to configuration and
// includes functions for loading, defaulting and validating the config.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/decision-analysis/pkg/constants"
	"github.com/iwvelando/decision-analysis/pkg/validation"
	"github.com/spf13/viper"
)

// Crop kinds accepted in configuration.
const (
	CropKindTradable = "tradable"
	CropKindQuota    = "quota"
)

// Configuration holds all configuration for decision-analysis. Every
// analysis reads its instance data from here.
type Configuration struct {
	Logging   LoggingConfig    `yaml:"logging,omitempty" mapstructure:"logging"`
	Output    OutputConfig     `yaml:"output,omitempty" mapstructure:"output"`
	Analyses  AnalysesConfig   `yaml:"analyses" mapstructure:"analyses"`
	Farm      FarmConfig       `yaml:"farm" mapstructure:"farm"`
	Scenarios []ScenarioConfig `yaml:"scenarios" mapstructure:"scenarios" validate:"dive"`
	Sampling  SamplingConfig   `yaml:"sampling" mapstructure:"sampling"`
	Decision  DecisionConfig   `yaml:"decision" mapstructure:"decision"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format     string `yaml:"format,omitempty" mapstructure:"format" validate:"omitempty,oneof=json console"`
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, yaml
}

// AnalysesConfig selects which engines run.
type AnalysesConfig struct {
	Allocation bool `yaml:"allocation" mapstructure:"allocation"`
	Sampling   bool `yaml:"sampling" mapstructure:"sampling"`
	Decision   bool `yaml:"decision" mapstructure:"decision"`
}

// FarmConfig is the allocation problem: land shared among crops.
type FarmConfig struct {
	TotalLand float64      `yaml:"totalLand" mapstructure:"totalLand" validate:"gte=0"`
	Crops     []CropConfig `yaml:"crops" mapstructure:"crops" validate:"dive"`
}

// CropConfig describes one crop. Tradable crops have a demand that may be
// met by purchases; quota crops sell at SalePrice up to Quota and at
// ExcessPrice beyond it.
type CropConfig struct {
	Name          string  `yaml:"name" mapstructure:"name" validate:"required"`
	Kind          string  `yaml:"kind" mapstructure:"kind" validate:"required,oneof=tradable quota"`
	PlantingCost  float64 `yaml:"plantingCost" mapstructure:"plantingCost" validate:"gte=0"`
	Yield         float64 `yaml:"yield" mapstructure:"yield" validate:"gte=0"`
	Demand        float64 `yaml:"demand,omitempty" mapstructure:"demand" validate:"gte=0"`
	PurchasePrice float64 `yaml:"purchasePrice,omitempty" mapstructure:"purchasePrice" validate:"gte=0"`
	SalePrice     float64 `yaml:"salePrice" mapstructure:"salePrice" validate:"gte=0"`
	Quota         float64 `yaml:"quota,omitempty" mapstructure:"quota" validate:"gte=0"`
	ExcessPrice   float64 `yaml:"excessPrice,omitempty" mapstructure:"excessPrice" validate:"gte=0"`
}

// ScenarioConfig is one discrete yield scenario.
type ScenarioConfig struct {
	Name        string  `yaml:"name" mapstructure:"name" validate:"required"`
	Probability float64 `yaml:"probability" mapstructure:"probability" validate:"gte=0,lte=1"`
	Multiplier  float64 `yaml:"multiplier" mapstructure:"multiplier" validate:"gte=0"`
}

// SamplingConfig parameterizes the sample average approximation.
type SamplingConfig struct {
	YieldMean            float64 `yaml:"yieldMean" mapstructure:"yieldMean"`
	YieldStdDev          float64 `yaml:"yieldStdDev" mapstructure:"yieldStdDev"`
	SampleSize           int     `yaml:"sampleSize" mapstructure:"sampleSize"`
	Batches              int     `yaml:"batches" mapstructure:"batches"`
	ValidationSampleSize int     `yaml:"validationSampleSize" mapstructure:"validationSampleSize"`
	ValidationBatches    int     `yaml:"validationBatches" mapstructure:"validationBatches"`
	ConfidenceLevel      float64 `yaml:"confidenceLevel" mapstructure:"confidenceLevel"`
	Seed                 uint64  `yaml:"seed,omitempty" mapstructure:"seed"`
	Workers              int     `yaml:"workers,omitempty" mapstructure:"workers"`
}

// DecisionConfig is the discrete payoff table and the survey that can be
// bought before choosing.
type DecisionConfig struct {
	States      []StateConfig    `yaml:"states" mapstructure:"states" validate:"dive"`
	Strategies  []StrategyConfig `yaml:"strategies" mapstructure:"strategies" validate:"dive"`
	Signal      SignalConfig     `yaml:"signal" mapstructure:"signal"`
	Cost        float64          `yaml:"cost" mapstructure:"cost" validate:"gte=0"`
	CostSweep   []float64        `yaml:"costSweep,omitempty" mapstructure:"costSweep" validate:"dive,gte=0"`
	NaivePolicy []PolicyConfig   `yaml:"naivePolicy,omitempty" mapstructure:"naivePolicy" validate:"dive"`
}

// StateConfig is one state of the world.
type StateConfig struct {
	Name  string  `yaml:"name" mapstructure:"name" validate:"required"`
	Prior float64 `yaml:"prior" mapstructure:"prior" validate:"gte=0,lte=1"`
}

// StrategyConfig is one alternative with a payoff per state, in state order.
type StrategyConfig struct {
	Name        string    `yaml:"name" mapstructure:"name" validate:"required"`
	Description string    `yaml:"description,omitempty" mapstructure:"description"`
	Payoffs     []float64 `yaml:"payoffs" mapstructure:"payoffs" validate:"required"`
}

// SignalConfig is the imperfect survey.
type SignalConfig struct {
	Name        string             `yaml:"name" mapstructure:"name"`
	Outcomes    []string           `yaml:"outcomes" mapstructure:"outcomes"`
	Likelihoods []LikelihoodConfig `yaml:"likelihoods" mapstructure:"likelihoods" validate:"dive"`
}

// LikelihoodConfig lists P(outcome | state) in outcome order.
type LikelihoodConfig struct {
	State         string    `yaml:"state" mapstructure:"state" validate:"required"`
	Probabilities []float64 `yaml:"probabilities" mapstructure:"probabilities" validate:"required"`
}

// PolicyConfig fixes the strategy taken after one outcome.
type PolicyConfig struct {
	Outcome  string `yaml:"outcome" mapstructure:"outcome" validate:"required"`
	Strategy string `yaml:"strategy" mapstructure:"strategy" validate:"required"`
}

// setDefaults registers the values used when a key is absent from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("analyses.allocation", true)
	v.SetDefault("sampling.yieldMean", constants.DefaultYieldMean)
	v.SetDefault("sampling.yieldStdDev", constants.DefaultYieldStdDev)
	v.SetDefault("sampling.sampleSize", constants.DefaultSampleSize)
	v.SetDefault("sampling.batches", constants.DefaultBatches)
	v.SetDefault("sampling.validationSampleSize", constants.DefaultValidationSampleSize)
	v.SetDefault("sampling.validationBatches", constants.DefaultValidationBatches)
	v.SetDefault("sampling.confidenceLevel", constants.DefaultConfidenceLevel)
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := v.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.Normalize()
	if err := configuration.Validate(); err != nil {
		return nil, err
	}

	return &configuration, nil
}

// Normalize trims names and canonicalizes enumerations before validation.
func (c *Configuration) Normalize() {
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	for i := range c.Farm.Crops {
		crop := &c.Farm.Crops[i]
		crop.Name = strings.TrimSpace(crop.Name)
		crop.Kind = strings.ToLower(strings.TrimSpace(crop.Kind))
	}
	for i := range c.Scenarios {
		c.Scenarios[i].Name = strings.TrimSpace(c.Scenarios[i].Name)
	}
}

// Validate checks struct tags, then the semantic rules of every enabled
// analysis by converting its section into domain types.
func (c *Configuration) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if c.Analyses.Allocation || c.Analyses.Sampling {
		if _, err := c.Problem(); err != nil {
			return fmt.Errorf("config validation failed: farm: %w", err)
		}
	}
	if c.Analyses.Allocation {
		if _, err := c.AllocationScenarios(); err != nil {
			return fmt.Errorf("config validation failed: scenarios: %w", err)
		}
	}
	if c.Analyses.Sampling {
		if err := c.SamplingParams().Validate(); err != nil {
			return fmt.Errorf("config validation failed: sampling: %w", err)
		}
	}
	if c.Analyses.Decision {
		table, err := c.DecisionTable()
		if err != nil {
			return fmt.Errorf("config validation failed: decision: %w", err)
		}
		signal, err := c.Signal()
		if err != nil {
			return fmt.Errorf("config validation failed: decision: %w", err)
		}
		update, err := table.Update(signal)
		if err != nil {
			return fmt.Errorf("config validation failed: decision: %w", err)
		}
		if len(c.Decision.NaivePolicy) > 0 {
			if _, err := table.NaiveSampleInformation(update, c.Decision.Cost, c.NaivePolicy()); err != nil {
				return fmt.Errorf("config validation failed: naive policy: %w", err)
			}
		}
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	cv := validation.ConfigValidator{
		Allocation: c.Analyses.Allocation,
		Sampling:   c.Analyses.Sampling,
		Decision:   c.Analyses.Decision,
		SamplingSettings: validation.SamplingConfig{
			Seed:        c.Sampling.Seed,
			YieldMean:   c.Sampling.YieldMean,
			YieldStdDev: c.Sampling.YieldStdDev,
		},
		HasNaivePolicy: len(c.Decision.NaivePolicy) > 0,
	}
	for _, s := range c.Scenarios {
		cv.Scenarios = append(cv.Scenarios, validation.ScenarioConfig{
			Name:        s.Name,
			Probability: s.Probability,
			Multiplier:  s.Multiplier,
		})
	}
	for _, crop := range c.Farm.Crops {
		cv.Crops = append(cv.Crops, validation.CropConfig{
			Name:          crop.Name,
			Quota:         crop.Kind == CropKindQuota,
			Demand:        crop.Demand,
			PurchasePrice: crop.PurchasePrice,
			SalePrice:     crop.SalePrice,
			QuotaLimit:    crop.Quota,
			ExcessPrice:   crop.ExcessPrice,
		})
	}
	return cv.ValidateAll()
}
