package model

// A single linear term: Coef * value(Var).
type Term struct {
	Coef float64
	Var  string
}

// A single quadratic term: Coef * value(A) * value(B).
type QuadTerm struct {
	Coef float64
	A    string
	B    string
}

// A polynomial over model variables of degree at most two.
// The zero value is the empty expression.
type Expression struct {
	Constant  float64
	Linear    []Term
	Quadratic []QuadTerm
}

// Append a linear term. Zero coefficients are dropped.
func (e *Expression) AddTerm(coef float64, name string) {
	if coef == 0 {
		return
	}
	e.Linear = append(e.Linear, Term{Coef: coef, Var: name})
}

// Append a quadratic term. Zero coefficients are dropped.
func (e *Expression) AddQuadTerm(coef float64, a, b string) {
	if coef == 0 {
		return
	}
	e.Quadratic = append(e.Quadratic, QuadTerm{Coef: coef, A: a, B: b})
}

// Add a constant offset.
func (e *Expression) AddConstant(c float64) { e.Constant += c }

// Highest degree of any term present: 0, 1 or 2.
func (e *Expression) Degree() int {
	if len(e.Quadratic) > 0 {
		return 2
	}
	if len(e.Linear) > 0 {
		return 1
	}
	return 0
}

// Whether the expression references any variable.
func (e *Expression) Empty() bool { return len(e.Linear) == 0 && len(e.Quadratic) == 0 }

// Evaluate the expression under an assignment. Missing variables count
// as zero.
func (e *Expression) Evaluate(values map[string]float64) float64 {
	v := e.Constant
	for _, t := range e.Linear {
		v += t.Coef * values[t.Var]
	}
	for _, q := range e.Quadratic {
		v += q.Coef * values[q.A] * values[q.B]
	}
	return v
}

// Return a copy with the given variables replaced by fixed values.
// Terms that collapse entirely fold into the constant; terms where one
// factor of a quadratic is fixed degrade to linear terms.
func (e *Expression) Substitute(fixed map[string]float64) Expression {
	out := Expression{Constant: e.Constant}
	for _, t := range e.Linear {
		if v, ok := fixed[t.Var]; ok {
			out.Constant += t.Coef * v
			continue
		}
		out.Linear = append(out.Linear, t)
	}
	for _, q := range e.Quadratic {
		va, fa := fixed[q.A]
		vb, fb := fixed[q.B]
		switch {
		case fa && fb:
			out.Constant += q.Coef * va * vb
		case fa:
			out.AddTerm(q.Coef*va, q.B)
		case fb:
			out.AddTerm(q.Coef*vb, q.A)
		default:
			out.Quadratic = append(out.Quadratic, q)
		}
	}
	return out
}
