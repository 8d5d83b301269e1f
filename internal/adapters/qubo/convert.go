package qubo

import (
	"fmt"
	"math"

	"vrp-model-service/internal/model"
)

// Weighted binary expansion of one integer variable:
// value = Lower + Σ Coefs[i] * bit[i].
type expansion struct {
	Lower float64
	Bits  []string
	Coefs []float64
}

// Intermediate state of the three-stage conversion: inequalities gain
// integer slacks and become equalities, integers expand into weighted
// binary sums, and the remaining linear equalities fold into squared
// penalty terms on the objective.
type converter struct {
	m *model.Model

	equalities []model.Constraint
	intBounds  map[string][2]float64
	expansions map[string]expansion
}

func convert(m *model.Model) (*Program, map[string]expansion, error) {
	c := &converter{
		m:          m,
		intBounds:  make(map[string][2]float64),
		expansions: make(map[string]expansion),
	}
	for _, v := range m.Variables() {
		if v.Kind == model.Integer {
			c.intBounds[v.Name] = [2]float64{v.Lower, v.Upper}
		}
	}

	if err := c.inequalitiesToEqualities(); err != nil {
		return nil, nil, err
	}
	if err := c.integersToBinary(); err != nil {
		return nil, nil, err
	}
	p, err := c.fold()
	if err != nil {
		return nil, nil, err
	}
	return p, c.expansions, nil
}

// Bounds of an expression under the variable bounds.
func (c *converter) exprBounds(e *model.Expression) (float64, float64, error) {
	lo, hi := e.Constant, e.Constant
	for _, t := range e.Linear {
		vlo, vhi := 0.0, 1.0
		if b, ok := c.intBounds[t.Var]; ok {
			vlo, vhi = b[0], b[1]
		}
		if t.Coef >= 0 {
			lo += t.Coef * vlo
			hi += t.Coef * vhi
		} else {
			lo += t.Coef * vhi
			hi += t.Coef * vlo
		}
	}
	if len(e.Quadratic) > 0 {
		return 0, 0, fmt.Errorf("quadratic constraint cannot be converted to a penalty")
	}
	return lo, hi, nil
}

// Turn every inequality into an equality by adding one bounded integer
// slack variable per constraint.
func (c *converter) inequalitiesToEqualities() error {
	for _, cons := range c.m.Constraints() {
		if cons.Sense == model.Equal {
			c.equalities = append(c.equalities, cons)
			continue
		}

		lo, hi, err := c.exprBounds(&cons.Expr)
		if err != nil {
			return fmt.Errorf("constraint %s: %w", cons.Label, err)
		}

		var slackRange float64
		var slackSign float64
		switch cons.Sense {
		case model.LessEqual:
			slackRange = cons.RHS - lo
			slackSign = 1
		case model.GreaterEqual:
			slackRange = hi - cons.RHS
			slackSign = -1
		}
		if slackRange < 0 {
			return fmt.Errorf("constraint %s: %w", cons.Label, model.ErrFixedInfeasible)
		}

		eq := model.Constraint{Label: cons.Label, Sense: model.Equal, RHS: cons.RHS, Expr: cons.Expr}
		if slackRange > 0 {
			slack := cons.Label + "@int_slack"
			c.intBounds[slack] = [2]float64{0, math.Floor(slackRange)}
			eq.Expr.AddTerm(slackSign, slack)
		}
		c.equalities = append(c.equalities, eq)
	}
	return nil
}

// Bounded-coefficient binary encoding: powers of two up to the residual
// range, then one remainder coefficient.
func (c *converter) integersToBinary() error {
	for name, bounds := range c.intBounds {
		span := bounds[1] - bounds[0]
		exp := expansion{Lower: bounds[0]}
		coef := 1.0
		for i := 0; span > 0; i++ {
			if coef > span {
				coef = span
			}
			exp.Bits = append(exp.Bits, fmt.Sprintf("%s@%d", name, i))
			exp.Coefs = append(exp.Coefs, coef)
			span -= coef
			coef *= 2
		}
		c.expansions[name] = exp
	}

	for i := range c.equalities {
		expanded, err := c.expand(c.equalities[i].Expr)
		if err != nil {
			return fmt.Errorf("constraint %s: %w", c.equalities[i].Label, err)
		}
		c.equalities[i].Expr = expanded
	}
	return nil
}

// Rewrite an expression over binary variables only.
func (c *converter) expand(e model.Expression) (model.Expression, error) {
	out := model.Expression{Constant: e.Constant}
	for _, t := range e.Linear {
		exp, ok := c.expansions[t.Var]
		if !ok {
			out.AddTerm(t.Coef, t.Var)
			continue
		}
		out.Constant += t.Coef * exp.Lower
		for i, bit := range exp.Bits {
			out.AddTerm(t.Coef*exp.Coefs[i], bit)
		}
	}
	for _, q := range e.Quadratic {
		if _, ok := c.expansions[q.A]; ok {
			return out, fmt.Errorf("quadratic term touches integer variable %q", q.A)
		}
		if _, ok := c.expansions[q.B]; ok {
			return out, fmt.Errorf("quadratic term touches integer variable %q", q.B)
		}
		out.AddQuadTerm(q.Coef, q.A, q.B)
	}
	return out, nil
}

// Fold the equalities into the objective as squared penalties. The
// multiplier follows the usual automatic rule: one plus the sum of
// absolute objective coefficients, which dominates any single objective
// improvement a violation could buy.
func (c *converter) fold() (*Program, error) {
	obj, err := c.expand(*c.m.Objective())
	if err != nil {
		return nil, fmt.Errorf("objective: %w", err)
	}

	penalty := 1.0
	for _, t := range obj.Linear {
		penalty += math.Abs(t.Coef)
	}
	for _, q := range obj.Quadratic {
		penalty += math.Abs(q.Coef)
	}

	p := newProgram()
	p.Penalty = penalty
	p.Offset = obj.Constant

	for _, v := range c.m.Variables() {
		if v.Kind == model.Binary {
			p.addVar(v.Name)
		}
	}
	for _, exp := range c.expansions {
		for _, bit := range exp.Bits {
			p.addVar(bit)
		}
	}

	for _, t := range obj.Linear {
		p.addLinear(t.Var, t.Coef)
	}
	for _, q := range obj.Quadratic {
		p.addQuadratic(q.A, q.B, q.Coef)
	}

	// penalty * (Σ a_i x_i + d)^2 with d = constant - rhs.
	for _, eq := range c.equalities {
		d := eq.Expr.Constant - eq.RHS
		p.Offset += penalty * d * d
		for _, t := range eq.Expr.Linear {
			p.addLinear(t.Var, penalty*2*d*t.Coef)
		}
		for i, ti := range eq.Expr.Linear {
			for j, tj := range eq.Expr.Linear {
				if i == j {
					p.addLinear(ti.Var, penalty*ti.Coef*tj.Coef)
					continue
				}
				if i < j {
					p.addQuadratic(ti.Var, tj.Var, penalty*2*ti.Coef*tj.Coef)
				}
			}
		}
	}
	return p, nil
}
