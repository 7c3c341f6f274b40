// Package constants provides shared constants for the decision-analysis application.
package constants

// Numeric tolerances
const (
	// ProbabilityTolerance is the tolerance for probabilities summing to one.
	ProbabilityTolerance = 1e-6

	// ObjectiveTolerance is the tolerance for comparing objective values
	// produced by separate solves (EVPI, VSS sign checks).
	ObjectiveTolerance = 1e-6

	// SolverTolerance is the reduced-cost tolerance handed to the simplex
	// solver's stop test.
	SolverTolerance = 1e-10

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatYAML is the YAML output format
	OutputFormatYAML = "yaml"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"
)

// Sampling defaults, matching the course assignment.
const (
	DefaultSampleSize           = 30
	DefaultBatches              = 15
	DefaultValidationSampleSize = 30
	DefaultValidationBatches    = 15
	DefaultYieldMean            = 1.0
	DefaultYieldStdDev          = 0.1
	DefaultConfidenceLevel      = 0.95
)

// Precision grade thresholds for validation confidence intervals, expressed
// as the relative half-width in percent.
const (
	PrecisionVeryHighPercent = 2.0
	PrecisionHighPercent     = 5.0
	PrecisionMediumPercent   = 10.0
)
