// Package solver provides a small linear-programming model builder and the
// Solver contract used by the evaluators. Models are declared with
// AddVariable, AddConstraint and SetObjective and handed to a Solver, which
// returns a Solution or a StatusError. The default Solver wraps the gonum
// simplex implementation.
package solver

import (
	"fmt"
	"math"
)

// Sense is the optimization direction of the objective.
type Sense int

const (
	Maximize Sense = iota
	Minimize
)

func (s Sense) String() string {
	switch s {
	case Maximize:
		return "maximize"
	case Minimize:
		return "minimize"
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Relation is the comparison operator of a linear constraint.
type Relation int

const (
	LessEqual Relation = iota
	GreaterEqual
	Equal
)

func (r Relation) String() string {
	switch r {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "=="
	default:
		return fmt.Sprintf("Relation(%d)", int(r))
	}
}

// Variable is a handle to a decision variable of a Model.
type Variable int

// Constraint is a handle to a constraint of a Model.
type Constraint int

// Bounds restricts a variable to [Lower, Upper]. Lower must be finite; Upper
// may be +Inf.
type Bounds struct {
	Lower float64
	Upper float64
}

// NonNegative returns the bounds [0, +Inf).
func NonNegative() Bounds {
	return Bounds{Lower: 0, Upper: math.Inf(1)}
}

// Term is a single coefficient-variable product.
type Term struct {
	Var  Variable
	Coef float64
}

// Expression is a linear combination of variables. Repeated variables are
// summed.
type Expression []Term

// Plus returns the expression extended by coef*v.
func (e Expression) Plus(v Variable, coef float64) Expression {
	return append(e, Term{Var: v, Coef: coef})
}

type variableDef struct {
	name   string
	bounds Bounds
}

type constraintDef struct {
	name     string
	expr     Expression
	relation Relation
	rhs      float64
}

// Model is a linear program under construction. The first declaration error
// is retained and reported by Solve.
type Model struct {
	name        string
	variables   []variableDef
	constraints []constraintDef
	sense       Sense
	objective   Expression
	constant    float64
	err         error
}

// NewModel returns an empty model with a maximize objective of zero.
func NewModel(name string) *Model {
	return &Model{name: name, sense: Maximize}
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.name
}

// Err returns the first declaration error, if any.
func (m *Model) Err() error {
	return m.err
}

// NumVariables returns the number of declared variables.
func (m *Model) NumVariables() int {
	return len(m.variables)
}

// NumConstraints returns the number of declared constraints.
func (m *Model) NumConstraints() int {
	return len(m.constraints)
}

// VariableName returns the name a variable was declared with.
func (m *Model) VariableName(v Variable) string {
	if int(v) < 0 || int(v) >= len(m.variables) {
		return ""
	}
	return m.variables[v].name
}

// ConstraintName returns the name a constraint was declared with.
func (m *Model) ConstraintName(c Constraint) string {
	if int(c) < 0 || int(c) >= len(m.constraints) {
		return ""
	}
	return m.constraints[c].name
}

// AddVariable declares a continuous variable within bounds.
func (m *Model) AddVariable(name string, bounds Bounds) Variable {
	v := Variable(len(m.variables))
	switch {
	case math.IsNaN(bounds.Lower) || math.IsInf(bounds.Lower, 0):
		m.fail(fmt.Errorf("variable %s: lower bound must be finite, got %v", name, bounds.Lower))
	case math.IsNaN(bounds.Upper) || math.IsInf(bounds.Upper, -1):
		m.fail(fmt.Errorf("variable %s: invalid upper bound %v", name, bounds.Upper))
	case bounds.Upper < bounds.Lower:
		m.fail(fmt.Errorf("variable %s: upper bound %v below lower bound %v", name, bounds.Upper, bounds.Lower))
	}
	m.variables = append(m.variables, variableDef{name: name, bounds: bounds})
	return v
}

// AddConstraint declares expr relation rhs.
func (m *Model) AddConstraint(name string, expr Expression, relation Relation, rhs float64) Constraint {
	c := Constraint(len(m.constraints))
	if err := m.checkExpression(expr); err != nil {
		m.fail(fmt.Errorf("constraint %s: %w", name, err))
	}
	if math.IsNaN(rhs) || math.IsInf(rhs, 0) {
		m.fail(fmt.Errorf("constraint %s: right-hand side must be finite, got %v", name, rhs))
	}
	if relation < LessEqual || relation > Equal {
		m.fail(fmt.Errorf("constraint %s: unknown relation %v", name, relation))
	}
	m.constraints = append(m.constraints, constraintDef{
		name:     name,
		expr:     append(Expression(nil), expr...),
		relation: relation,
		rhs:      rhs,
	})
	return c
}

// SetObjective replaces the objective with sense (expr + constant).
func (m *Model) SetObjective(sense Sense, expr Expression, constant float64) {
	if err := m.checkExpression(expr); err != nil {
		m.fail(fmt.Errorf("objective: %w", err))
	}
	m.sense = sense
	m.objective = append(Expression(nil), expr...)
	m.constant = constant
}

func (m *Model) checkExpression(expr Expression) error {
	for _, term := range expr {
		if int(term.Var) < 0 || int(term.Var) >= len(m.variables) {
			return fmt.Errorf("unknown variable %d", term.Var)
		}
		if math.IsNaN(term.Coef) || math.IsInf(term.Coef, 0) {
			return fmt.Errorf("coefficient of %s must be finite, got %v", m.variables[term.Var].name, term.Coef)
		}
	}
	return nil
}

func (m *Model) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}

// evaluate returns Σ coef*values[var] for expr.
func evaluate(expr Expression, values []float64) float64 {
	total := 0.0
	for _, term := range expr {
		total += term.Coef * values[term.Var]
	}
	return total
}
