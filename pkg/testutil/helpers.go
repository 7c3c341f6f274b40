// Package testutil provides common utility functions for testing.
package testutil

import (
	"math"
	"testing"

	"github.com/iwvelando/decision-analysis/internal/allocation"
	"github.com/iwvelando/decision-analysis/pkg/optimization"
)

// FindRecourse finds a scenario's recourse block by name in a plan.
// Returns a pointer to the block if found, nil otherwise.
func FindRecourse(plan *allocation.Plan, name string) *allocation.Recourse {
	if plan == nil {
		return nil
	}
	for i := range plan.Recourse {
		if plan.Recourse[i].Scenario == name {
			return &plan.Recourse[i]
		}
	}
	return nil
}

// FindSummary finds the first summary row matching section, subject and
// metric, or nil.
func FindSummary(rows []optimization.Summary, section, subject, metric string) *optimization.Summary {
	for i := range rows {
		if rows[i].Section == section && rows[i].Subject == subject && rows[i].Metric == metric {
			return &rows[i]
		}
	}
	return nil
}

// AssertClose fails the test when got is further than tolerance from expected.
func AssertClose(t testing.TB, label string, got, expected, tolerance float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-expected) > tolerance {
		t.Errorf("%s = %.4f, expected %.4f (tolerance %g)", label, got, expected, tolerance)
	}
}
