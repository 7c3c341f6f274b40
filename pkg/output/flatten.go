package output

import (
	"fmt"

	"github.com/iwvelando/decision-analysis/internal/allocation"
	"github.com/iwvelando/decision-analysis/internal/analysis"
	"github.com/iwvelando/decision-analysis/internal/decision"
	"github.com/iwvelando/decision-analysis/pkg/optimization"
)

// Section names used in flattened reports.
const (
	SectionAllocation = "allocation"
	SectionRecourse   = "recourse"
	SectionMetrics    = "metrics"
	SectionSampling   = "sampling"
	SectionDecision   = "decision"
	SectionBayes      = "bayes"
	SectionSurvey     = "survey"
)

// Flatten turns a report into one row per reported value, in the order the
// pretty format prints them.
func Flatten(report *analysis.Report) []optimization.Summary {
	if report == nil {
		return nil
	}
	var rows []optimization.Summary
	add := func(section, subject, metric string, value float64, notes ...string) {
		rows = append(rows, optimization.Summary{
			Section: section,
			Subject: subject,
			Metric:  metric,
			Value:   value,
			Notes:   notes,
		})
	}

	if a := report.Allocation; a != nil {
		plan := func(subject string, p *allocation.Plan) {
			for i, x := range p.Allocation {
				add(SectionAllocation, subject, activityName(report.Activities, i)+" allocation", x)
			}
			add(SectionAllocation, subject, "allocation cost", p.AllocationCost)
			add(SectionAllocation, subject, "expected recourse", p.ExpectedRecourse)
			add(SectionAllocation, subject, "profit", p.Profit)
		}
		plan("expected value", a.ExpectedValue)
		plan("stochastic", a.Stochastic)

		for _, r := range a.EVRecourse.Outcomes {
			add(SectionRecourse, "expected value allocation", r.Scenario+" profit", r.Profit)
		}
		add(SectionRecourse, "expected value allocation", "expected profit", a.EVRecourse.Expected)
		for _, r := range a.Stochastic.Recourse {
			add(SectionRecourse, "stochastic allocation", r.Scenario+" profit", r.Profit)
		}
		for _, o := range a.WaitAndSee.Outcomes {
			for i, x := range o.Plan.Allocation {
				add(SectionRecourse, "wait and see "+o.Scenario.Name, activityName(report.Activities, i)+" allocation", x)
			}
			add(SectionRecourse, "wait and see "+o.Scenario.Name, "profit", o.Plan.Profit)
		}
		add(SectionRecourse, "wait and see", "expected profit", a.WaitAndSee.Expected)

		m := a.Metrics
		add(SectionMetrics, "allocation", "EV", m.EV)
		add(SectionMetrics, "allocation", "EEV", m.EEV)
		add(SectionMetrics, "allocation", "RP", m.RP)
		add(SectionMetrics, "allocation", "WS", m.WS)
		add(SectionMetrics, "allocation", "EVPI", m.EVPI)
		add(SectionMetrics, "allocation", "VSS", m.VSS)
		add(SectionMetrics, "allocation", "capture ratio", m.CaptureRatio)
	}

	if s := report.Sampling; s != nil {
		t := s.Training
		add(SectionSampling, "training", "batches", float64(t.Objective.Count))
		add(SectionSampling, "training", "mean objective", t.Objective.Mean)
		add(SectionSampling, "training", "std dev", t.Objective.StdDev)
		add(SectionSampling, "training", "lower bound", t.Objective.Lower)
		add(SectionSampling, "training", "upper bound", t.Objective.Upper)
		for i, x := range t.AllocationMean {
			add(SectionSampling, "training", activityName(report.Activities, i)+" mean allocation", x)
		}
		add(SectionSampling, "training", "best batch", float64(t.Best.Index))
		for i, x := range t.Best.Allocation {
			add(SectionSampling, "best batch", activityName(report.Activities, i)+" allocation", x)
		}
		add(SectionSampling, "best batch", "objective", t.Best.Objective)

		v := s.Validation
		add(SectionSampling, "validation", "mean profit", v.Summary.Mean)
		add(SectionSampling, "validation", "lower bound", v.Summary.Lower)
		add(SectionSampling, "validation", "upper bound", v.Summary.Upper)
		add(SectionSampling, "validation", "relative half-width", v.RelativeHalfWidth, "precision "+v.Precision)
		add(SectionSampling, "run", "seed", float64(s.Seed))
	}

	if d := report.Decision; d != nil {
		for i, strategy := range d.Table.Strategies {
			add(SectionDecision, strategy.Name, "expected value", d.ExpectedValues[i])
		}
		for _, r := range d.Risk.Strategies {
			add(SectionDecision, r.Strategy, "std dev", r.StdDev)
			add(SectionDecision, r.Strategy, "worst case", r.Worst)
			add(SectionDecision, r.Strategy, "best case", r.Best)
		}
		add(SectionDecision, "maximin", "worst case", d.Risk.Maximin.Value, "choose "+d.Risk.Maximin.Strategy)
		add(SectionDecision, "maximax", "best case", d.Risk.Maximax.Value, "choose "+d.Risk.Maximax.Strategy)
		add(SectionDecision, "prior", "EVwoPI", d.Best.Value, "best "+d.Best.Strategy)
		add(SectionDecision, "perfect information", "EVwPI", d.PerfectInformation.EVwPI)
		add(SectionDecision, "perfect information", "EVPI", d.PerfectInformation.EVPI)

		u := d.Update
		for o, outcome := range u.Outcomes {
			add(SectionBayes, outcome, "marginal", u.Marginal[o])
			for s, state := range u.States {
				add(SectionBayes, outcome, fmt.Sprintf("joint %s", state), u.Joint[o][s])
				add(SectionBayes, outcome, fmt.Sprintf("posterior %s", state), u.Posterior[o][s])
			}
		}

		survey := func(subject string, si *decision.SampleInformation) {
			for _, dec := range si.Decisions {
				add(SectionSurvey, subject, dec.Outcome+" choice value", dec.Choice.Value, "choose "+dec.Choice.Strategy)
			}
			add(SectionSurvey, subject, "expected with survey", si.ExpectedWithSample)
			add(SectionSurvey, subject, "net EVSI", si.NetEVSI)
		}
		survey("optimal policy", d.SampleInformation)
		add(SectionSurvey, "optimal policy", "gross EVSI", d.SampleInformation.GrossEVSI)
		if d.Naive != nil {
			survey("naive policy", d.Naive)
			add(SectionSurvey, "naive policy", "gap to optimal", d.NaiveGap)
		}
		for _, p := range d.CostSweep {
			add(SectionSurvey, fmt.Sprintf("cost %.0f", p.Cost), "net EVSI", p.NetEVSI)
		}
		add(SectionSurvey, "survey", "break-even cost", d.BreakEvenCost)
	}

	return rows
}

func activityName(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("activity %d", i+1)
}
