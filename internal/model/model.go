package model

import (
	"errors"
	"fmt"
)

var (
	// A builder produced two variables with the same name. Names encode
	// the variable's role, so a collision is a programming error in the
	// builder and aborts the run.
	ErrNameCollision = errors.New("variable name collision")

	ErrUnknownVariable = errors.New("unknown variable")

	// Substituting the fixed variables made a constraint false with no
	// variables left to satisfy it.
	ErrFixedInfeasible = errors.New("fixed variables violate a constraint")
)

// A solver-agnostic optimization model: an ordered set of named
// variables, a minimization objective of degree at most two, a list of
// constraints, and a map of variables fixed to known values before any
// backend sees the model.
type Model struct {
	vars        []Variable
	index       map[string]int
	constraints []Constraint
	objective   Expression
	fixed       map[string]float64
}

func New() *Model {
	return &Model{
		index: make(map[string]int),
		fixed: make(map[string]float64),
	}
}

func (m *Model) add(v Variable) (Variable, error) {
	if _, exists := m.index[v.Name]; exists {
		return Variable{}, fmt.Errorf("%w: %q", ErrNameCollision, v.Name)
	}
	m.index[v.Name] = len(m.vars)
	m.vars = append(m.vars, v)
	return v, nil
}

// Register a binary variable.
func (m *Model) Binary(name string) (Variable, error) {
	return m.add(Variable{Name: name, Kind: Binary, Lower: 0, Upper: 1})
}

// Register an integer variable with inclusive bounds.
func (m *Model) IntegerVar(name string, lower, upper float64) (Variable, error) {
	return m.add(Variable{Name: name, Kind: Integer, Lower: lower, Upper: upper})
}

// Variables in registration order.
func (m *Model) Variables() []Variable { return m.vars }

// Look up a variable by name.
func (m *Model) Var(name string) (Variable, bool) {
	i, ok := m.index[name]
	if !ok {
		return Variable{}, false
	}
	return m.vars[i], true
}

func (m *Model) NumVariables() int { return len(m.vars) }

func (m *Model) AddConstraint(c Constraint) { m.constraints = append(m.constraints, c) }

// Constraints in insertion order.
func (m *Model) Constraints() []Constraint { return m.constraints }

// The minimization objective. Builders append terms to it directly.
func (m *Model) Objective() *Expression { return &m.objective }

// Pin a registered variable to a value. Backends either fix it natively
// or receive a substituted model; decoders see the value re-inserted
// into results either way.
func (m *Model) Fix(name string, value float64) error {
	if _, ok := m.index[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	m.fixed[name] = value
	return nil
}

// The fixed-variable map. Callers must not mutate it.
func (m *Model) Fixed() map[string]float64 { return m.fixed }

// Merge the fixed values into a backend assignment so decoders see every
// variable the builders registered. Backend values win on conflict only
// if they agree; fixed values are authoritative.
func (m *Model) Complete(values map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(values)+len(m.fixed))
	for k, v := range values {
		out[k] = v
	}
	for k, v := range m.fixed {
		out[k] = v
	}
	return out
}

// Labels of constraints the assignment violates, in constraint order.
// The assignment is completed with fixed values first.
func (m *Model) Violations(values map[string]float64) []string {
	full := m.Complete(values)
	var out []string
	for i := range m.constraints {
		if !m.constraints[i].Satisfied(full) {
			out = append(out, m.constraints[i].Label)
		}
	}
	return out
}

// Produce a reduced copy with every fixed variable substituted out of
// the objective and constraints. Constraints left with no variables are
// dropped when trivially true and reported as an error when false.
// Backends without native variable fixing render the reduced model.
func (m *Model) Substitute() (*Model, error) {
	out := New()
	for _, v := range m.vars {
		if _, ok := m.fixed[v.Name]; ok {
			continue
		}
		if _, err := out.add(v); err != nil {
			return nil, err
		}
	}
	out.objective = m.objective.Substitute(m.fixed)
	for _, c := range m.constraints {
		reduced := Constraint{Label: c.Label, Sense: c.Sense, RHS: c.RHS, Expr: c.Expr.Substitute(m.fixed)}
		if reduced.Expr.Empty() {
			if !reduced.Satisfied(nil) {
				return nil, fmt.Errorf("%w: %s (%v %s %v)", ErrFixedInfeasible,
					c.Label, reduced.Expr.Constant, c.Sense, c.RHS)
			}
			continue
		}
		out.AddConstraint(reduced)
	}
	return out, nil
}
