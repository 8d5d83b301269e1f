package milp

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/nextmv-io/sdk/mip"
	"github.com/rs/zerolog"

	"vrp-model-service/internal/formulation"
	"vrp-model-service/internal/model"
	"vrp-model-service/internal/ports"
)

// Solver configuration. Zero values fall back to the defaults below.
type Options struct {
	Provider    string
	MaxDuration time.Duration
	GapRelative float64
}

const (
	defaultProvider    = "highs"
	defaultMaxDuration = 30 * time.Second
)

// Renders compiled models into a mixed-integer program and hands them to
// an external MIP solver. The native builder is linear, so quadratic
// binary products are linearized with one auxiliary binary per distinct
// product. Variable fixing has no native primitive here: the adapter
// renders the substituted model and decoding re-inserts the fixed values.
type Adapter struct {
	opts Options
	log  zerolog.Logger
}

func New(opts Options, log zerolog.Logger) *Adapter {
	if opts.Provider == "" {
		opts.Provider = defaultProvider
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = defaultMaxDuration
	}
	return &Adapter{opts: opts, log: log.With().Str("backend", "milp").Logger()}
}

func (a *Adapter) Name() string { return "milp" }

// A rendered program: the native model plus the name lookup needed to
// normalize its solution, and the reduced model it was built from.
type Rendered struct {
	Native  mip.Model
	Reduced *model.Model

	vars     map[string]mip.Var
	products map[string]mip.Var
}

// Build the native program from the model with fixed variables already
// substituted out.
func (a *Adapter) Render(built *formulation.Built) (*Rendered, error) {
	reduced, err := built.Model.Substitute()
	if err != nil {
		return nil, fmt.Errorf("render milp: %w", err)
	}

	r := &Rendered{
		Native:   mip.NewModel(),
		Reduced:  reduced,
		vars:     make(map[string]mip.Var),
		products: make(map[string]mip.Var),
	}

	for _, v := range reduced.Variables() {
		switch v.Kind {
		case model.Binary:
			r.vars[v.Name] = r.Native.NewBool()
		case model.Integer:
			r.vars[v.Name] = r.Native.NewInt(int64(v.Lower), int64(v.Upper))
		default:
			return nil, fmt.Errorf("render milp: variable %q has unsupported kind %d", v.Name, v.Kind)
		}
	}

	r.Native.Objective().SetMinimize()
	obj := reduced.Objective()
	for _, t := range obj.Linear {
		r.Native.Objective().NewTerm(t.Coef, r.vars[t.Var])
	}
	for _, q := range obj.Quadratic {
		p, err := r.product(reduced, q.A, q.B)
		if err != nil {
			return nil, fmt.Errorf("render milp objective: %w", err)
		}
		r.Native.Objective().NewTerm(q.Coef, p)
	}

	for _, c := range reduced.Constraints() {
		sense, err := senseOf(c.Sense)
		if err != nil {
			return nil, fmt.Errorf("render milp constraint %s: %w", c.Label, err)
		}
		nc := r.Native.NewConstraint(sense, c.RHS-c.Expr.Constant)
		for _, t := range c.Expr.Linear {
			nc.NewTerm(t.Coef, r.vars[t.Var])
		}
		for _, q := range c.Expr.Quadratic {
			p, err := r.product(reduced, q.A, q.B)
			if err != nil {
				return nil, fmt.Errorf("render milp constraint %s: %w", c.Label, err)
			}
			nc.NewTerm(q.Coef, p)
		}
	}

	a.log.Debug().
		Str("variant", built.Variant.String()).
		Int("variables", len(r.vars)).
		Int("products", len(r.products)).
		Int("constraints", len(reduced.Constraints())).
		Msg("rendered mip model")
	return r, nil
}

// Auxiliary binary carrying the product of two binary variables, created
// once per unordered pair: p <= a, p <= b, p >= a + b - 1.
func (r *Rendered) product(reduced *model.Model, aName, bName string) (mip.Var, error) {
	va, ok := reduced.Var(aName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownVariable, aName)
	}
	vb, ok := reduced.Var(bName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownVariable, bName)
	}
	if va.Kind != model.Binary || vb.Kind != model.Binary {
		return nil, fmt.Errorf("quadratic term %s*%s is not a binary product", aName, bName)
	}

	key := productKey(aName, bName)
	if p, ok := r.products[key]; ok {
		return p, nil
	}

	p := r.Native.NewBool()
	r.products[key] = p

	upperA := r.Native.NewConstraint(mip.LessThanOrEqual, 0)
	upperA.NewTerm(1, p)
	upperA.NewTerm(-1, r.vars[aName])

	upperB := r.Native.NewConstraint(mip.LessThanOrEqual, 0)
	upperB.NewTerm(1, p)
	upperB.NewTerm(-1, r.vars[bName])

	lower := r.Native.NewConstraint(mip.GreaterThanOrEqual, -1)
	lower.NewTerm(1, p)
	lower.NewTerm(-1, r.vars[aName])
	lower.NewTerm(-1, r.vars[bName])

	return p, nil
}

func productKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0] + "*" + pair[1]
}

func senseOf(s model.Sense) (mip.Sense, error) {
	switch s {
	case model.Equal:
		return mip.Equal, nil
	case model.LessEqual:
		return mip.LessThanOrEqual, nil
	case model.GreaterEqual:
		return mip.GreaterThanOrEqual, nil
	}
	return 0, fmt.Errorf("unsupported constraint sense %d", s)
}

// Render, solve with the configured provider, normalize.
func (a *Adapter) Solve(ctx context.Context, built *formulation.Built) (*ports.SolveResult, error) {
	rendered, err := a.Render(built)
	if err != nil {
		return nil, err
	}

	solver, err := mip.NewSolver(mip.SolverProvider(a.opts.Provider), rendered.Native)
	if err != nil {
		return nil, fmt.Errorf("milp solver %q: %w", a.opts.Provider, err)
	}

	opts := mip.NewSolveOptions()
	if err := opts.SetMaximumDuration(a.opts.MaxDuration); err != nil {
		return nil, fmt.Errorf("milp solve options: %w", err)
	}
	if err := opts.SetMIPGapRelative(a.opts.GapRelative); err != nil {
		return nil, fmt.Errorf("milp solve options: %w", err)
	}
	opts.SetVerbosity(mip.Off)

	start := time.Now()
	solution, err := solver.Solve(opts)
	if err != nil {
		return nil, fmt.Errorf("milp solve: %w", err)
	}
	a.log.Info().
		Dur("elapsed", time.Since(start)).
		Bool("optimal", solution.IsOptimal()).
		Msg("milp solve finished")

	return a.Normalize(solution, rendered)
}

// Translate the raw solver solution back into a canonical assignment.
// Values come back as floats from the relaxation; they are rounded to
// the integral values the variable kinds require.
func (a *Adapter) Normalize(solution mip.Solution, rendered *Rendered) (*ports.SolveResult, error) {
	if solution == nil || !solution.HasValues() {
		return nil, ports.ErrInfeasible
	}

	values := make(map[string]float64, len(rendered.vars))
	for name, v := range rendered.vars {
		values[name] = math.Round(solution.Value(v))
	}

	return &ports.SolveResult{
		Values: values,
		// The native objective drops the constant folded out during
		// substitution; add it back so objectives stay comparable
		// across backends.
		Objective: solution.ObjectiveValue() + rendered.Reduced.Objective().Constant,
		Optimal:   solution.IsOptimal(),
	}, nil
}
