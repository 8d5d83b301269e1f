package model

import "math"

// Relation between a constraint expression and its right-hand side.
type Sense int

const (
	Equal Sense = iota
	LessEqual
	GreaterEqual
)

func (s Sense) String() string {
	switch s {
	case Equal:
		return "=="
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	}
	return "?"
}

// A labelled constraint: Expr Sense RHS.
type Constraint struct {
	Label string
	Expr  Expression
	Sense Sense
	RHS   float64
}

const satisfactionTol = 1e-6

// Whether the assignment satisfies the constraint within tolerance.
func (c *Constraint) Satisfied(values map[string]float64) bool {
	lhs := c.Expr.Evaluate(values)
	switch c.Sense {
	case Equal:
		return math.Abs(lhs-c.RHS) <= satisfactionTol
	case LessEqual:
		return lhs <= c.RHS+satisfactionTol
	case GreaterEqual:
		return lhs >= c.RHS-satisfactionTol
	}
	return false
}
