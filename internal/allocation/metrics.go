package allocation

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/decision-analysis/pkg/constants"
	"github.com/iwvelando/decision-analysis/pkg/mathutil"
	"go.uber.org/zap"
)

// ErrInvariant reports a value-of-information metric with an impossible
// sign, which means the model or the solver is wrong.
var ErrInvariant = errors.New("allocation: metric invariant violated")

// Metrics are the summary scalars of a full analysis.
type Metrics struct {
	// EV is the expected-value solution's profit at the mean scenario.
	EV float64
	// EEV is the expected profit of the EV allocation under recourse.
	EEV float64
	// RP is the stochastic program's expected profit.
	RP float64
	// WS is the expected wait-and-see profit.
	WS float64
	// EVPI = WS - RP.
	EVPI float64
	// VSS = RP - EEV.
	VSS float64
	// CaptureRatio = VSS / (EVPI + VSS), the share of the gap between the
	// EV allocation and perfect information closed by the stochastic
	// program. Zero when the gap is zero.
	CaptureRatio float64
}

// ComputeMetrics derives EVPI, VSS and the capture ratio. EVPI and VSS
// below -tolerance return ErrInvariant; smaller negatives are clamped to
// zero.
func ComputeMetrics(ev, eev, rp, ws float64) (Metrics, error) {
	tolerance := constants.ObjectiveTolerance * math.Max(1, math.Abs(rp))
	m := Metrics{
		EV:   ev,
		EEV:  eev,
		RP:   rp,
		WS:   ws,
		EVPI: ws - rp,
		VSS:  rp - eev,
	}
	if m.EVPI < -tolerance {
		return m, fmt.Errorf("%w: EVPI = %v is negative", ErrInvariant, m.EVPI)
	}
	if m.VSS < -tolerance {
		return m, fmt.Errorf("%w: VSS = %v is negative", ErrInvariant, m.VSS)
	}
	m.EVPI = math.Max(0, mathutil.ClampNoise(m.EVPI, tolerance))
	m.VSS = math.Max(0, mathutil.ClampNoise(m.VSS, tolerance))
	if gap := m.EVPI + m.VSS; gap > 0 {
		m.CaptureRatio = m.VSS / gap
	}
	return m, nil
}

// Analysis is the outcome of all four modes over one problem.
type Analysis struct {
	ExpectedValue *Plan
	EVRecourse    *RecourseEvaluation
	Stochastic    *Plan
	WaitAndSee    *WaitAndSee
	Metrics       Metrics
}

// Analyze runs every mode, evaluating the EV allocation under recourse, and
// derives the metrics. Any non-optimal solve aborts the analysis.
func (e *Evaluator) Analyze() (*Analysis, error) {
	ev, err := e.ExpectedValue()
	if err != nil {
		return nil, err
	}
	eev, err := e.Recourse(ev.Allocation)
	if err != nil {
		return nil, fmt.Errorf("evaluating expected-value allocation: %w", err)
	}
	rp, err := e.Stochastic()
	if err != nil {
		return nil, err
	}
	ws, err := e.WaitAndSee()
	if err != nil {
		return nil, err
	}

	metrics, err := ComputeMetrics(ev.Profit, eev.Expected, rp.Profit, ws.Expected)
	if err != nil {
		return nil, err
	}

	e.logger.Info("allocation analysis complete",
		zap.String("op", "allocation.Analyze"),
		zap.Float64("ev", metrics.EV),
		zap.Float64("eev", metrics.EEV),
		zap.Float64("rp", metrics.RP),
		zap.Float64("ws", metrics.WS),
		zap.Float64("evpi", metrics.EVPI),
		zap.Float64("vss", metrics.VSS),
	)

	return &Analysis{
		ExpectedValue: ev,
		EVRecourse:    eev,
		Stochastic:    rp,
		WaitAndSee:    ws,
		Metrics:       metrics,
	}, nil
}
