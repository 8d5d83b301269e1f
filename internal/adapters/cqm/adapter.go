package cqm

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"vrp-model-service/internal/formulation"
	"vrp-model-service/internal/model"
	"vrp-model-service/internal/ports"
)

// Renders compiled models into a constrained quadratic model. Unlike the
// penalty program this target keeps real constraint objects and supports
// fixing variables natively, so the full model is rendered and the fix
// map is applied inside the native shape.
type Adapter struct {
	sampler Sampler
	log     zerolog.Logger
}

func New(sampler Sampler, log zerolog.Logger) *Adapter {
	return &Adapter{sampler: sampler, log: log.With().Str("backend", "cqm").Logger()}
}

func (a *Adapter) Name() string { return "cqm" }

func (a *Adapter) Render(built *formulation.Built) (*Model, error) {
	native := NewModel()

	for _, v := range built.Model.Variables() {
		switch v.Kind {
		case model.Binary:
			native.AddVariable(Variable{Name: v.Name, Type: BinaryVar, Lower: 0, Upper: 1})
		case model.Integer:
			native.AddVariable(Variable{Name: v.Name, Type: IntegerVar, Lower: v.Lower, Upper: v.Upper})
		default:
			return nil, fmt.Errorf("render cqm: variable %q has unsupported kind %d", v.Name, v.Kind)
		}
	}

	obj := built.Model.Objective()
	native.Objective.Constant = obj.Constant
	for _, t := range obj.Linear {
		native.Objective.addLinear(t.Var, t.Coef)
	}
	for _, q := range obj.Quadratic {
		native.Objective.addQuadratic(q.A, q.B, q.Coef)
	}

	for _, c := range built.Model.Constraints() {
		nc := Constraint{Label: c.Label, Expr: newQuadratic(), Sense: c.Sense, RHS: c.RHS}
		nc.Expr.Constant = c.Expr.Constant
		for _, t := range c.Expr.Linear {
			nc.Expr.addLinear(t.Var, t.Coef)
		}
		for _, q := range c.Expr.Quadratic {
			nc.Expr.addQuadratic(q.A, q.B, q.Coef)
		}
		native.Constraints = append(native.Constraints, nc)
	}

	if err := native.FixVariables(built.Model.Fixed()); err != nil {
		return nil, fmt.Errorf("render cqm: %w", err)
	}

	a.log.Debug().
		Str("variant", built.Variant.String()).
		Int("variables", len(native.Variables)).
		Int("constraints", len(native.Constraints)).
		Msg("rendered cqm model")
	return native, nil
}

// Sample and keep the lowest-energy sample that is feasible both by the
// sampler's account and by a local constraint check.
func (a *Adapter) Solve(ctx context.Context, built *formulation.Built) (*ports.SolveResult, error) {
	native, err := a.Render(built)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	set, err := a.sampler.Sample(ctx, native)
	if err != nil {
		return nil, fmt.Errorf("cqm sample: %w", err)
	}
	if set == nil || len(set.Samples) == 0 {
		return nil, ports.ErrInfeasible
	}

	for i, s := range set.Samples {
		if !s.Feasible {
			continue
		}
		values := a.normalize(s, native)
		if !native.Feasible(values) {
			continue
		}
		a.log.Info().
			Dur("elapsed", time.Since(start)).
			Int("sample_rank", i).
			Msg("cqm sample accepted")
		return &ports.SolveResult{
			Values:    values,
			Objective: native.Objective.evaluate(values),
		}, nil
	}

	a.log.Warn().Int("samples", len(set.Samples)).Msg("no feasible cqm sample")
	return nil, ports.ErrInfeasible
}

// Snap sampler floats onto the integral grid the variable types demand.
func (a *Adapter) normalize(s Sample, native *Model) map[string]float64 {
	values := make(map[string]float64, len(native.Variables))
	for _, v := range native.Variables {
		values[v.Name] = math.Round(s.Assignment[v.Name])
	}
	return values
}
