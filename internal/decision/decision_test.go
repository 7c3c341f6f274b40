package decision

import (
	"errors"
	"math"
	"testing"
)

func productionTable() Table {
	return Table{
		States: []State{
			{Name: "high", Prior: 0.41},
			{Name: "low", Prior: 0.59},
		},
		Strategies: []Strategy{
			{Name: "A", Payoffs: []float64{1_000_000, -400_000}},
			{Name: "B", Payoffs: []float64{600_000, 300_000}},
			{Name: "C", Payoffs: []float64{100_000, 400_000}},
		},
	}
}

func survey() Signal {
	return Signal{
		Name:     "survey",
		Outcomes: []string{"encouraging", "discouraging"},
		Likelihoods: [][]float64{
			{0.8, 0.2}, // high
			{0.3, 0.7}, // low
		},
	}
}

func surveyUpdate(t *testing.T) *Update {
	t.Helper()
	u, err := productionTable().Update(survey())
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	return u
}

func assertClose(t *testing.T, label string, got, expected, tolerance float64) {
	t.Helper()
	if math.Abs(got-expected) > tolerance {
		t.Errorf("%s = %.6f, expected %.6f", label, got, expected)
	}
}

func TestExpectedValues(t *testing.T) {
	table := productionTable()
	if err := table.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	expected := []float64{174_000, 423_000, 277_000}
	for i, ev := range table.ExpectedValues() {
		assertClose(t, "EV "+table.Strategies[i].Name, ev, expected[i], 1e-6)
	}

	best := table.Best()
	if best.Strategy != "B" || best.Index != 1 {
		t.Errorf("Best() = %+v, expected strategy B", best)
	}
	assertClose(t, "EVwoPI", best.Value, 423_000, 1e-6)
}

func TestPerfectInformation(t *testing.T) {
	pi := productionTable().PerfectInformation()

	if pi.BestPerState[0].Strategy != "A" || pi.BestPerState[1].Strategy != "C" {
		t.Errorf("best per state = %s/%s, expected A/C", pi.BestPerState[0].Strategy, pi.BestPerState[1].Strategy)
	}
	assertClose(t, "EVwPI", pi.EVwPI, 646_000, 1e-6)
	assertClose(t, "EVwoPI", pi.EVwoPI, 423_000, 1e-6)
	assertClose(t, "EVPI", pi.EVPI, 223_000, 1e-6)
}

func TestTiesResolveToFirstStrategy(t *testing.T) {
	table := Table{
		States: []State{{Name: "only", Prior: 1}},
		Strategies: []Strategy{
			{Name: "first", Payoffs: []float64{5}},
			{Name: "second", Payoffs: []float64{5}},
		},
	}
	if got := table.Best().Strategy; got != "first" {
		t.Errorf("Best() = %s, expected first", got)
	}
}

func TestRiskProfile(t *testing.T) {
	profile := productionTable().RiskProfile()

	a := profile.Strategies[0]
	// Var(A) = 0.41*0.59*(1.4e6)^2
	assertClose(t, "A variance", a.Variance, 0.41*0.59*1.4e6*1.4e6, 1e-3)
	assertClose(t, "A std dev", a.StdDev, math.Sqrt(0.41*0.59)*1.4e6, 1e-6)
	assertClose(t, "A worst", a.Worst, -400_000, 0)
	assertClose(t, "A best", a.Best, 1_000_000, 0)

	if profile.Maximin.Strategy != "B" {
		t.Errorf("Maximin = %s, expected B", profile.Maximin.Strategy)
	}
	if profile.Maximax.Strategy != "A" {
		t.Errorf("Maximax = %s, expected A", profile.Maximax.Strategy)
	}
}

func TestBayesUpdate(t *testing.T) {
	u := surveyUpdate(t)

	// Outcome-major: [encouraging, discouraging] x [high, low].
	joint := [][]float64{{0.328, 0.177}, {0.082, 0.413}}
	for o := range joint {
		for s := range joint[o] {
			assertClose(t, "joint", u.Joint[o][s], joint[o][s], 1e-12)
		}
	}
	assertClose(t, "P(encouraging)", u.Marginal[0], 0.505, 1e-12)
	assertClose(t, "P(discouraging)", u.Marginal[1], 0.495, 1e-12)
	assertClose(t, "P(high|encouraging)", u.Posterior[0][0], 0.6495, 1e-4)
	assertClose(t, "P(high|discouraging)", u.Posterior[1][0], 0.1657, 1e-4)

	for o, row := range u.Posterior {
		assertClose(t, "posterior sum "+u.Outcomes[o], row[0]+row[1], 1, 1e-12)
	}
	for s := range u.States {
		assertClose(t, "joint marginal "+u.States[s], u.Joint[0][s]+u.Joint[1][s], u.Prior[s], 1e-12)
	}

	shift := u.Shift()
	assertClose(t, "high shift given encouraging", shift[0][0], 0.328/0.505-0.41, 1e-12)
	if shift[1][0] >= 0 {
		t.Errorf("discouraging outcome should lower P(high), shift = %v", shift[1][0])
	}
}

func TestBayesErrors(t *testing.T) {
	states := []string{"high", "low"}
	tests := []struct {
		name     string
		prior    []float64
		signal   Signal
		expected error
	}{
		{
			name:     "Prior does not sum to one",
			prior:    []float64{0.5, 0.6},
			signal:   survey(),
			expected: ErrProbability,
		},
		{
			name:  "Likelihood row does not sum to one",
			prior: []float64{0.41, 0.59},
			signal: Signal{
				Name:        "bad",
				Outcomes:    []string{"yes", "no"},
				Likelihoods: [][]float64{{0.8, 0.3}, {0.3, 0.7}},
			},
			expected: ErrProbability,
		},
		{
			name:  "Outcome that never occurs",
			prior: []float64{0.41, 0.59},
			signal: Signal{
				Name:        "deaf",
				Outcomes:    []string{"heard", "silent"},
				Likelihoods: [][]float64{{0, 1}, {0, 1}},
			},
			expected: ErrZeroMarginal,
		},
		{
			name:  "Likelihoods for the wrong number of states",
			prior: []float64{0.41, 0.59},
			signal: Signal{
				Name:        "short",
				Outcomes:    []string{"yes", "no"},
				Likelihoods: [][]float64{{0.5, 0.5}},
			},
			expected: ErrInvalidTable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Bayes(states, tt.prior, tt.signal)
			if !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestSampleInformation(t *testing.T) {
	table := productionTable()
	u := surveyUpdate(t)

	si, err := table.SampleInformation(u, 50_000)
	if err != nil {
		t.Fatalf("SampleInformation() error = %v", err)
	}
	if si.Decisions[0].Choice.Strategy != "A" {
		t.Errorf("encouraging choice = %s, expected A", si.Decisions[0].Choice.Strategy)
	}
	if si.Decisions[1].Choice.Strategy != "C" {
		t.Errorf("discouraging choice = %s, expected C", si.Decisions[1].Choice.Strategy)
	}
	assertClose(t, "expected with sample", si.ExpectedWithSample, 380_600, 1e-6)
	assertClose(t, "net EVSI", si.NetEVSI, -42_400, 1e-6)
	assertClose(t, "gross EVSI", si.GrossEVSI, 7_600, 1e-6)
	if si.WorthSampling {
		t.Error("sampling at 50,000 should not be worth it")
	}

	free, err := table.SampleInformation(u, 0)
	if err != nil {
		t.Fatalf("SampleInformation() error = %v", err)
	}
	assertClose(t, "free net EVSI", free.NetEVSI, 7_600, 1e-6)
	if !free.WorthSampling {
		t.Error("free sampling should be worth it")
	}
}

func TestNaiveSampleInformation(t *testing.T) {
	table := productionTable()
	u := surveyUpdate(t)

	optimal, err := table.SampleInformation(u, 50_000)
	if err != nil {
		t.Fatalf("SampleInformation() error = %v", err)
	}

	tests := []struct {
		name     string
		policy   map[string]string
		expected float64
	}{
		{"Directional policy matches optimum", map[string]string{"encouraging": "A", "discouraging": "C"}, 380_600},
		{"Ignoring the signal", map[string]string{"encouraging": "B", "discouraging": "B"}, 373_000},
		{"Backwards policy", map[string]string{"encouraging": "C", "discouraging": "A"}, 0.505*(0.328/0.505*100_000+0.177/0.505*400_000) + 0.495*(0.082/0.495*1_000_000-0.413/0.495*400_000) - 50_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			naive, err := table.NaiveSampleInformation(u, 50_000, tt.policy)
			if err != nil {
				t.Fatalf("NaiveSampleInformation() error = %v", err)
			}
			assertClose(t, "expected with sample", naive.ExpectedWithSample, tt.expected, 1e-6)
			if naive.ExpectedWithSample > optimal.ExpectedWithSample+1e-6 {
				t.Errorf("naive %.2f beats optimal %.2f", naive.ExpectedWithSample, optimal.ExpectedWithSample)
			}
		})
	}
}

func TestNaiveSampleInformationRejectsBadPolicy(t *testing.T) {
	table := productionTable()
	u := surveyUpdate(t)

	policies := map[string]map[string]string{
		"Missing outcome":  {"encouraging": "A"},
		"Unknown strategy": {"encouraging": "A", "discouraging": "D"},
		"Extra outcome":    {"encouraging": "A", "discouraging": "C", "neutral": "B"},
	}
	for name, policy := range policies {
		t.Run(name, func(t *testing.T) {
			if _, err := table.NaiveSampleInformation(u, 0, policy); !errors.Is(err, ErrInvalidTable) {
				t.Errorf("expected ErrInvalidTable, got %v", err)
			}
		})
	}
}

func TestCostSweepAndBreakEven(t *testing.T) {
	table := productionTable()
	u := surveyUpdate(t)

	breakEven, err := table.BreakEvenCost(u)
	if err != nil {
		t.Fatalf("BreakEvenCost() error = %v", err)
	}
	assertClose(t, "break-even cost", breakEven, 7_600, 1e-6)

	points, err := table.CostSweep(u, []float64{0, 5_000, 7_600, 10_000, 50_000})
	if err != nil {
		t.Fatalf("CostSweep() error = %v", err)
	}
	worth := []bool{true, true, false, false, false}
	for i, p := range points {
		assertClose(t, "net EVSI", p.NetEVSI, 7_600-p.Cost, 1e-6)
		if p.WorthSampling != worth[i] {
			t.Errorf("cost %.0f: WorthSampling = %v, expected %v", p.Cost, p.WorthSampling, worth[i])
		}
	}
}

func TestTableValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Table)
	}{
		{"No states", func(tb *Table) { tb.States = nil }},
		{"No strategies", func(tb *Table) { tb.Strategies = nil }},
		{"Duplicate state", func(tb *Table) { tb.States[1].Name = "high" }},
		{"Unnamed strategy", func(tb *Table) { tb.Strategies[0].Name = "" }},
		{"Short payoff row", func(tb *Table) { tb.Strategies[2].Payoffs = []float64{1} }},
		{"Infinite payoff", func(tb *Table) { tb.Strategies[0].Payoffs[0] = math.Inf(1) }},
		{"Priors do not sum to one", func(tb *Table) { tb.States[0].Prior = 0.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := productionTable()
			tt.modify(&table)
			if err := table.Validate(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
