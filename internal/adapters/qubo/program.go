package qubo

import "context"

// Unordered pair of binary variable names forming a quadratic key.
// Construct with pairKey so (a,b) and (b,a) coincide.
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

// A quadratic unconstrained binary program: every constraint has been
// folded into the objective as a squared penalty. Energy of an
// assignment is Offset + Σ Linear + Σ Quadratic.
type Program struct {
	Vars      []string
	Linear    map[string]float64
	Quadratic map[Pair]float64
	Offset    float64

	// Multiplier applied to every folded constraint.
	Penalty float64
}

func newProgram() *Program {
	return &Program{
		Linear:    make(map[string]float64),
		Quadratic: make(map[Pair]float64),
	}
}

func (p *Program) addVar(name string) { p.Vars = append(p.Vars, name) }

func (p *Program) addLinear(name string, coef float64) {
	if coef == 0 {
		return
	}
	p.Linear[name] += coef
}

func (p *Program) addQuadratic(a, b string, coef float64) {
	if coef == 0 {
		return
	}
	if a == b {
		// Binary variables square to themselves.
		p.addLinear(a, coef)
		return
	}
	p.Quadratic[pairKey(a, b)] += coef
}

// Objective value of a binary assignment.
func (p *Program) Energy(assignment map[string]float64) float64 {
	e := p.Offset
	for name, coef := range p.Linear {
		e += coef * assignment[name]
	}
	for pair, coef := range p.Quadratic {
		e += coef * assignment[pair.A] * assignment[pair.B]
	}
	return e
}

// One binary assignment proposed by a sampler, with the energy the
// sampler reported for it.
type Sample struct {
	Assignment map[string]float64
	Energy     float64
}

// Samples ordered by ascending energy.
type SampleSet struct {
	Samples []Sample
}

// Contract for the external annealing or sampling backend. One
// synchronous call; cancellation is the sampler's concern.
type Sampler interface {
	Sample(ctx context.Context, p *Program) (*SampleSet, error)
}
