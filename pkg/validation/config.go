// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
)

// ScenarioWarnings flags scenarios that are legal but probably unintended.
func ScenarioWarnings(name string, probability, multiplier float64) []string {
	var warnings []string

	if multiplier == 0 {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s' has a zero yield multiplier", name))
	}
	if probability == 0 {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s' has zero probability and will not affect expected values", name))
	}

	return warnings
}

// CropWarnings flags settings that the crop's kind ignores.
func CropWarnings(crop CropConfig) []string {
	var warnings []string

	if crop.Quota {
		if crop.Demand > 0 {
			warnings = append(warnings, fmt.Sprintf("Quota crop '%s' sets a demand, which is ignored", crop.Name))
		}
		if crop.PurchasePrice > 0 {
			warnings = append(warnings, fmt.Sprintf("Quota crop '%s' sets a purchase price, which is ignored", crop.Name))
		}
		if crop.QuotaLimit > 0 && crop.ExcessPrice > crop.SalePrice {
			warnings = append(warnings, fmt.Sprintf("Quota crop '%s' sells above quota for more than within quota", crop.Name))
		}
		return warnings
	}

	if crop.QuotaLimit > 0 || crop.ExcessPrice > 0 {
		warnings = append(warnings, fmt.Sprintf("Tradable crop '%s' sets quota pricing, which is ignored", crop.Name))
	}
	return warnings
}

// ConfigValidator holds the parts of a configuration that produce
// non-fatal warnings.
type ConfigValidator struct {
	Allocation       bool
	Sampling         bool
	Decision         bool
	Scenarios        []ScenarioConfig
	Crops            []CropConfig
	SamplingSettings SamplingConfig
	HasNaivePolicy   bool
}

type ScenarioConfig struct {
	Name        string
	Probability float64
	Multiplier  float64
}

type CropConfig struct {
	Name          string
	Quota         bool
	Demand        float64
	PurchasePrice float64
	SalePrice     float64
	QuotaLimit    float64
	ExcessPrice   float64
}

type SamplingConfig struct {
	Seed        uint64
	YieldMean   float64
	YieldStdDev float64
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	if !cv.Allocation && !cv.Sampling && !cv.Decision {
		warnings = append(warnings, "No analyses are enabled; nothing will be computed")
	}

	// Scenarios and crops only matter to the allocation engines
	if cv.Allocation {
		for _, s := range cv.Scenarios {
			warnings = append(warnings, ScenarioWarnings(s.Name, s.Probability, s.Multiplier)...)
		}
	}
	if cv.Allocation || cv.Sampling {
		for _, crop := range cv.Crops {
			warnings = append(warnings, CropWarnings(crop)...)
		}
	}

	if cv.Sampling {
		s := cv.SamplingSettings
		if s.Seed == 0 {
			warnings = append(warnings, "Sampling seed is unset; results will not be reproducible")
		}
		if s.YieldStdDev > 0 && s.YieldMean < 3*s.YieldStdDev {
			warnings = append(warnings, "Sampling yield distribution puts noticeable mass below zero; negative draws are truncated to zero")
		}
	}

	if cv.Decision && !cv.HasNaivePolicy {
		warnings = append(warnings, "Decision analysis has no naive policy; only the optimal survey policy is reported")
	}

	return warnings
}
