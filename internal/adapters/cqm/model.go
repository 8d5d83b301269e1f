package cqm

import (
	"context"
	"fmt"
	"math"

	"vrp-model-service/internal/model"
)

// Native variable kinds understood by constrained-quadratic samplers.
type VarType string

const (
	BinaryVar  VarType = "BINARY"
	IntegerVar VarType = "INTEGER"
)

type Variable struct {
	Name  string
	Type  VarType
	Lower float64
	Upper float64
}

// Unordered quadratic key.
type Pair struct {
	A string
	B string
}

func pairKey(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// A degree-two polynomial in native form: coefficient maps instead of
// term lists.
type Quadratic struct {
	Constant  float64
	Linear    map[string]float64
	Quadratic map[Pair]float64
}

func newQuadratic() Quadratic {
	return Quadratic{Linear: make(map[string]float64), Quadratic: make(map[Pair]float64)}
}

func (q *Quadratic) addLinear(name string, coef float64) {
	if coef != 0 {
		q.Linear[name] += coef
	}
}

func (q *Quadratic) addQuadratic(a, b string, coef float64) {
	if coef == 0 {
		return
	}
	if a == b {
		q.addLinear(a, coef)
		return
	}
	q.Quadratic[pairKey(a, b)] += coef
}

func (q *Quadratic) evaluate(values map[string]float64) float64 {
	v := q.Constant
	for name, coef := range q.Linear {
		v += coef * values[name]
	}
	for pair, coef := range q.Quadratic {
		v += coef * values[pair.A] * values[pair.B]
	}
	return v
}

// Substitute fixed values, removing their entries and degrading
// quadratic terms that lose one side.
func (q *Quadratic) fix(fixed map[string]float64) {
	for name, val := range fixed {
		if coef, ok := q.Linear[name]; ok {
			q.Constant += coef * val
			delete(q.Linear, name)
		}
	}
	for pair, coef := range q.Quadratic {
		va, fa := fixed[pair.A]
		vb, fb := fixed[pair.B]
		switch {
		case fa && fb:
			q.Constant += coef * va * vb
			delete(q.Quadratic, pair)
		case fa:
			delete(q.Quadratic, pair)
			q.addLinear(pair.B, coef*va)
		case fb:
			delete(q.Quadratic, pair)
			q.addLinear(pair.A, coef*vb)
		}
	}
}

func (q *Quadratic) empty() bool { return len(q.Linear) == 0 && len(q.Quadratic) == 0 }

// A labelled native constraint.
type Constraint struct {
	Label string
	Expr  Quadratic
	Sense model.Sense
	RHS   float64
}

func (c *Constraint) satisfied(values map[string]float64) bool {
	lhs := c.Expr.evaluate(values)
	const tol = 1e-6
	switch c.Sense {
	case model.Equal:
		return math.Abs(lhs-c.RHS) <= tol
	case model.LessEqual:
		return lhs <= c.RHS+tol
	case model.GreaterEqual:
		return lhs >= c.RHS-tol
	}
	return false
}

// A constrained quadratic model: real constraint objects instead of
// penalties, and native variable fixing.
type Model struct {
	Variables   []Variable
	Objective   Quadratic
	Constraints []Constraint

	index map[string]int
}

func NewModel() *Model {
	return &Model{Objective: newQuadratic(), index: make(map[string]int)}
}

func (m *Model) AddVariable(v Variable) {
	m.index[v.Name] = len(m.Variables)
	m.Variables = append(m.Variables, v)
}

// Pin variables to values inside the native model, then drop constraints
// the fixing made trivially true. A constraint made trivially false
// means the fixing conflicts with the constraint set.
func (m *Model) FixVariables(fixed map[string]float64) error {
	kept := m.Variables[:0]
	for _, v := range m.Variables {
		if _, ok := fixed[v.Name]; !ok {
			kept = append(kept, v)
		}
	}
	m.Variables = kept
	m.index = make(map[string]int, len(m.Variables))
	for i, v := range m.Variables {
		m.index[v.Name] = i
	}

	m.Objective.fix(fixed)

	remaining := m.Constraints[:0]
	for _, c := range m.Constraints {
		c.Expr.fix(fixed)
		if c.Expr.empty() {
			if !c.satisfied(nil) {
				return fmt.Errorf("fix variables: constraint %s: %w", c.Label, model.ErrFixedInfeasible)
			}
			continue
		}
		remaining = append(remaining, c)
	}
	m.Constraints = remaining
	return nil
}

// Whether an assignment satisfies every constraint.
func (m *Model) Feasible(values map[string]float64) bool {
	for i := range m.Constraints {
		if !m.Constraints[i].satisfied(values) {
			return false
		}
	}
	return true
}

// One assignment from a constrained-quadratic sampler. Feasible reflects
// the sampler's own constraint bookkeeping and is re-checked locally.
type Sample struct {
	Assignment map[string]float64
	Energy     float64
	Feasible   bool
}

type SampleSet struct {
	Samples []Sample
}

// Contract for the external constrained-quadratic sampler.
type Sampler interface {
	Sample(ctx context.Context, m *Model) (*SampleSet, error)
}
