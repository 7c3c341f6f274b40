package solver

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// feasibilityTolerance is used when checking rows that lost every variable.
const feasibilityTolerance = 1e-9

// Simplex solves models with gonum's simplex method. Each call converts the
// model to a fresh standard-form problem; nothing is shared between calls.
type Simplex struct {
	logger    *zap.Logger
	tolerance float64
}

// NewSimplex creates a simplex solver. tolerance is the reduced-cost threshold
// gonum stops pivoting at; zero makes the stop test exact.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewSimplex(logger *zap.Logger, tolerance float64) *Simplex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simplex{logger: logger, tolerance: tolerance}
}

// standardForm is minimize c^T y subject to A y = b, y >= 0, where the first
// len(columns) entries of y map back to model variables shifted by their
// lower bounds and the rest are slack columns.
type standardForm struct {
	c       []float64
	rows    [][]float64
	b       []float64
	columns []int // model variable for each structural column
	fixed   []float64
}

// Solve implements Solver.
func (s *Simplex) Solve(m *Model) (sol *Solution, err error) {
	if m == nil {
		return nil, &StatusError{Model: "<nil>", Status: StatusFailed, Err: errors.New("nil model")}
	}
	if m.err != nil {
		return nil, &StatusError{Model: m.name, Status: StatusFailed, Err: m.err}
	}

	defer func() {
		if r := recover(); r != nil {
			sol = nil
			err = &StatusError{Model: m.name, Status: StatusFailed, Err: fmt.Errorf("lp: %v", r)}
		}
		status := StatusOf(err)
		fields := []zap.Field{
			zap.String("op", "solver.Solve"),
			zap.String("model", m.name),
			zap.Int("variables", len(m.variables)),
			zap.Int("constraints", len(m.constraints)),
			zap.String("status", status.String()),
		}
		if sol != nil {
			fields = append(fields, zap.Float64("objective", sol.Objective))
		}
		s.logger.Debug("solved model", fields...)
	}()

	form, status, err := buildStandardForm(m)
	if err != nil {
		return nil, &StatusError{Model: m.name, Status: status, Err: err}
	}

	y := make([]float64, len(form.columns))
	if len(form.rows) > 0 {
		y, err = form.solve(s.tolerance)
		if err != nil {
			return nil, &StatusError{Model: m.name, Status: lpStatus(err), Err: err}
		}
	}

	values := make([]float64, len(m.variables))
	copy(values, form.fixed)
	for col, v := range form.columns {
		values[v] += y[col]
	}

	activity := make([]float64, len(m.constraints))
	for i, c := range m.constraints {
		activity[i] = evaluate(c.expr, values)
	}

	return &Solution{
		Status:    StatusOptimal,
		Objective: m.constant + evaluate(m.objective, values),
		values:    values,
		activity:  activity,
	}, nil
}

func (f *standardForm) solve(tol float64) ([]float64, error) {
	m := len(f.rows)
	n := len(f.c)
	if m > n {
		return nil, fmt.Errorf("standard form has %d rows but only %d columns", m, n)
	}
	data := make([]float64, 0, m*n)
	for _, row := range f.rows {
		data = append(data, row...)
	}
	A := mat.NewDense(m, n, data)

	_, x, err := lp.Simplex(f.c, A, f.b, tol, nil)
	if err != nil {
		return nil, err
	}
	return x[:len(f.columns)], nil
}

func lpStatus(err error) Status {
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return StatusInfeasible
	case errors.Is(err, lp.ErrUnbounded):
		return StatusUnbounded
	default:
		return StatusFailed
	}
}

// buildStandardForm shifts every variable by its lower bound, turns finite
// upper bounds into rows, adds one slack column per inequality, flips rows so
// that b >= 0, drops rows without variables (after checking them) and
// resolves columns that appear in no row from the objective sign.
func buildStandardForm(m *Model) (*standardForm, Status, error) {
	nVars := len(m.variables)

	sign := 1.0
	if m.sense == Maximize {
		sign = -1.0
	}
	cost := make([]float64, nVars)
	for _, term := range m.objective {
		cost[term.Var] += sign * term.Coef
	}

	fixed := make([]float64, nVars)
	for j, v := range m.variables {
		fixed[j] = v.bounds.Lower
	}

	type row struct {
		coefs    []float64
		relation Relation
		rhs      float64
	}
	var rows []row

	for _, c := range m.constraints {
		coefs := make([]float64, nVars)
		for _, term := range c.expr {
			coefs[term.Var] += term.Coef
		}
		rhs := c.rhs
		empty := true
		for j, a := range coefs {
			rhs -= a * fixed[j]
			if a != 0 {
				empty = false
			}
		}
		if empty {
			if !emptyRowHolds(c.relation, rhs) {
				return nil, StatusInfeasible, fmt.Errorf("constraint %s has no variables and 0 %s %v does not hold", c.name, c.relation, rhs)
			}
			continue
		}
		rows = append(rows, row{coefs: coefs, relation: c.relation, rhs: rhs})
	}

	for j, v := range m.variables {
		if math.IsInf(v.bounds.Upper, 1) {
			continue
		}
		coefs := make([]float64, nVars)
		coefs[j] = 1
		rows = append(rows, row{coefs: coefs, relation: LessEqual, rhs: v.bounds.Upper - v.bounds.Lower})
	}

	// Columns that appear in no row are set by the objective alone.
	var columns []int
	for j := 0; j < nVars; j++ {
		used := false
		for _, r := range rows {
			if r.coefs[j] != 0 {
				used = true
				break
			}
		}
		if used {
			columns = append(columns, j)
			continue
		}
		if cost[j] < 0 {
			return nil, StatusUnbounded, fmt.Errorf("variable %s is unconstrained and improves the objective", m.variables[j].name)
		}
	}

	slacks := 0
	for _, r := range rows {
		if r.relation != Equal {
			slacks++
		}
	}
	width := len(columns) + slacks

	form := &standardForm{
		c:       make([]float64, width),
		columns: columns,
		fixed:   fixed,
	}
	for col, j := range columns {
		form.c[col] = cost[j]
	}

	slack := len(columns)
	for _, r := range rows {
		dense := make([]float64, width)
		for col, j := range columns {
			dense[col] = r.coefs[j]
		}
		switch r.relation {
		case LessEqual:
			dense[slack] = 1
			slack++
		case GreaterEqual:
			dense[slack] = -1
			slack++
		}
		rhs := r.rhs
		if rhs < 0 {
			for k := range dense {
				dense[k] = -dense[k]
			}
			rhs = -rhs
		}
		form.rows = append(form.rows, dense)
		form.b = append(form.b, rhs)
	}

	return form, StatusOptimal, nil
}

func emptyRowHolds(relation Relation, rhs float64) bool {
	switch relation {
	case LessEqual:
		return 0 <= rhs+feasibilityTolerance
	case GreaterEqual:
		return 0 >= rhs-feasibilityTolerance
	default:
		return math.Abs(rhs) <= feasibilityTolerance
	}
}
