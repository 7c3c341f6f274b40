package sampling

import (
	"math"
	"strings"
	"testing"

	"github.com/iwvelando/decision-analysis/internal/allocation"
	"github.com/iwvelando/decision-analysis/pkg/solver"
	"go.uber.org/zap"
)

func farmProblem() allocation.Problem {
	return allocation.Problem{
		TotalResource: 500,
		Activities: []allocation.Activity{
			{Name: "wheat", Kind: allocation.Tradable, Cost: 150, Rate: 2.5, Demand: 200, PurchasePrice: 238, SalePrice: 170},
			{Name: "corn", Kind: allocation.Tradable, Cost: 230, Rate: 3, Demand: 240, PurchasePrice: 210, SalePrice: 150},
			{Name: "sugar beets", Kind: allocation.QuotaPriced, Cost: 260, Rate: 20, SalePrice: 36, Quota: 6000, ExcessPrice: 10},
		},
	}
}

func smallParams(seed uint64) Params {
	return Params{
		Mean:                 1.0,
		StdDev:               0.1,
		SampleSize:           5,
		Batches:              4,
		ValidationSampleSize: 5,
		ValidationBatches:    3,
		ConfidenceLevel:      0.95,
		Seed:                 seed,
		Workers:              4,
	}
}

func newRunner(t *testing.T, params Params) *Runner {
	t.Helper()
	r, err := NewRunner(zap.NewNop(), solver.NewSimplex(zap.NewNop(), 0), farmProblem(), params)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	return r
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Params)
		errMsg string
	}{
		{"Valid params", func(p *Params) {}, ""},
		{"Negative std dev", func(p *Params) { p.StdDev = -0.1 }, "standard deviation"},
		{"NaN mean", func(p *Params) { p.Mean = math.NaN() }, "mean must be finite"},
		{"Zero sample size", func(p *Params) { p.SampleSize = 0 }, "sample size"},
		{"Single batch", func(p *Params) { p.Batches = 1 }, "at least 2 batches"},
		{"Zero validation sample size", func(p *Params) { p.ValidationSampleSize = 0 }, "validation sample size"},
		{"Single validation batch", func(p *Params) { p.ValidationBatches = 1 }, "validation batches"},
		{"Confidence of one", func(p *Params) { p.ConfidenceLevel = 1 }, "confidence level"},
		{"Confidence of zero", func(p *Params) { p.ConfidenceLevel = 0 }, "confidence level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := smallParams(1)
			tt.modify(&p)
			err := p.Validate()
			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestNewRunnerResolvesDefaults(t *testing.T) {
	p := smallParams(0)
	p.Workers = 0
	r := newRunner(t, p)
	if r.Params().Seed == 0 {
		t.Error("expected a clock seed to replace zero")
	}
	if r.Params().Workers != 1 {
		t.Errorf("Workers = %d, expected 1", r.Params().Workers)
	}

	if _, err := NewRunner(nil, nil, farmProblem(), smallParams(1)); err == nil {
		t.Error("expected an error for a nil solver")
	}
}

func TestZeroVarianceMatchesExpectedValue(t *testing.T) {
	p := smallParams(7)
	p.StdDev = 0
	result, err := newRunner(t, p).Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	training := result.Training
	if len(training.Batches) != p.Batches {
		t.Fatalf("expected %d batches, got %d", p.Batches, len(training.Batches))
	}
	for _, b := range training.Batches {
		if math.Abs(b.Objective-118600) > 0.01 {
			t.Errorf("batch %d objective = %.2f, expected 118600", b.Index, b.Objective)
		}
		if b.SampleMean != 1 || b.SampleStdDev != 0 {
			t.Errorf("batch %d sample stats = (%v, %v), expected (1, 0)", b.Index, b.SampleMean, b.SampleStdDev)
		}
	}
	if training.Objective.StdDev > 1e-6 {
		t.Errorf("objective std dev = %v, expected 0", training.Objective.StdDev)
	}
	expected := []float64{120, 80, 300}
	for i, x := range expected {
		if math.Abs(training.AllocationMean[i]-x) > 1e-3 {
			t.Errorf("allocation mean[%d] = %.4f, expected %.0f", i, training.AllocationMean[i], x)
		}
		if math.Abs(training.Best.Allocation[i]-x) > 1e-3 {
			t.Errorf("best allocation[%d] = %.4f, expected %.0f", i, training.Best.Allocation[i], x)
		}
	}

	if math.Abs(result.Validation.Summary.Mean-118600) > 0.01 {
		t.Errorf("validation mean = %.2f, expected 118600", result.Validation.Summary.Mean)
	}
	if result.Validation.Precision != "very high" {
		t.Errorf("Precision = %q, expected very high", result.Validation.Precision)
	}
}

func TestTrainIsDeterministicForSeed(t *testing.T) {
	first, err := newRunner(t, smallParams(42)).Train()
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	p := smallParams(42)
	p.Workers = 1
	second, err := newRunner(t, p).Train()
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	for i := range first.Batches {
		if first.Batches[i].Objective != second.Batches[i].Objective {
			t.Errorf("batch %d objective differs: %v vs %v", i+1, first.Batches[i].Objective, second.Batches[i].Objective)
		}
	}
	if first.Best.Index != second.Best.Index {
		t.Errorf("best batch differs: %d vs %d", first.Best.Index, second.Best.Index)
	}
}

func TestTrainSummary(t *testing.T) {
	training, err := newRunner(t, smallParams(3)).Train()
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	s := training.Objective
	if s.Count != 4 {
		t.Errorf("Count = %d, expected 4", s.Count)
	}
	if !(s.Lower <= s.Mean && s.Mean <= s.Upper) {
		t.Errorf("mean %.2f outside CI [%.2f, %.2f]", s.Mean, s.Lower, s.Upper)
	}
	for _, b := range training.Batches {
		if b.Objective > training.Best.Objective {
			t.Errorf("batch %d objective %.2f exceeds best %.2f", b.Index, b.Objective, training.Best.Objective)
		}
		used := 0.0
		for _, x := range b.Allocation {
			if x < 0 {
				t.Errorf("batch %d has negative allocation %v", b.Index, x)
			}
			used += x
		}
		if used > 500+1e-6 {
			t.Errorf("batch %d uses %.4f units of a 500 budget", b.Index, used)
		}
	}
}

func TestConfidenceIntervalNarrowsWithMoreSamples(t *testing.T) {
	width := func(sampleSize, batches int) float64 {
		total := 0.0
		seeds := []uint64{11, 12, 13, 14, 15}
		for _, seed := range seeds {
			p := smallParams(seed)
			p.SampleSize = sampleSize
			p.Batches = batches
			training, err := newRunner(t, p).Train()
			if err != nil {
				t.Fatalf("Train() error = %v", err)
			}
			total += training.Objective.HalfWidth()
		}
		return total / float64(len(seeds))
	}

	small := width(5, 3)
	large := width(20, 10)
	if large >= small {
		t.Errorf("average CI half-width %.2f with N=20, M=10 is not below %.2f with N=5, M=3", large, small)
	}
}

func TestValidateRejectsInfeasibleAllocation(t *testing.T) {
	r := newRunner(t, smallParams(5))
	if _, err := r.Validate([]float64{400, 400, 400}); err == nil {
		t.Error("expected an error for an allocation over budget")
	}
	if _, err := r.Validate([]float64{100, 100}); err == nil {
		t.Error("expected an error for a short allocation")
	}
}

func TestPrecisionGrade(t *testing.T) {
	tests := []struct {
		relative float64
		expected string
	}{
		{0.5, "very high"},
		{3, "high"},
		{7.5, "medium"},
		{25, "low"},
		{math.Inf(1), "low"},
	}
	for _, tt := range tests {
		if got := PrecisionGrade(tt.relative); got != tt.expected {
			t.Errorf("PrecisionGrade(%v) = %q, expected %q", tt.relative, got, tt.expected)
		}
	}
}
