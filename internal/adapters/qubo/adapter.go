package qubo

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

// Renders compiled models into a penalty-based binary program for a
// sampling backend. Samplers have no constraint support at all, so the
// adapter substitutes fixed variables, converts inequalities and
// integers away, folds constraints into penalties, and re-validates the
// returned samples against the real constraint set: penalties only
// discourage violations, they never forbid them.
type Adapter struct {
	sampler Sampler
	log     zerolog.Logger
}

func New(sampler Sampler, log zerolog.Logger) *Adapter {
	return &Adapter{sampler: sampler, log: log.With().Str("backend", "qubo").Logger()}
}

func (a *Adapter) Name() string { return "qubo" }

// The rendered binary program together with everything needed to map a
// sample back onto canonical variables.
type Rendered struct {
	Program *Program
	Reduced *model.Model

	expansions map[string]expansion
}

func (a *Adapter) Render(built *formulation.Built) (*Rendered, error) {
	reduced, err := built.Model.Substitute()
	if err != nil {
		return nil, fmt.Errorf("render qubo: %w", err)
	}
	p, exps, err := convert(reduced)
	if err != nil {
		return nil, fmt.Errorf("render qubo: %w", err)
	}

	a.log.Debug().
		Str("variant", built.Variant.String()).
		Int("variables", len(p.Vars)).
		Float64("penalty", p.Penalty).
		Msg("rendered qubo program")
	return &Rendered{Program: p, Reduced: reduced, expansions: exps}, nil
}

// Map one sample's bits back onto the reduced model's variables:
// binaries pass through, integers reassemble from their expansion bits,
// slack bits are dropped.
func (r *Rendered) normalizeSample(s Sample) map[string]float64 {
	values := make(map[string]float64, len(r.Reduced.Variables()))
	for _, v := range r.Reduced.Variables() {
		switch v.Kind {
		case model.Binary:
			values[v.Name] = math.Round(s.Assignment[v.Name])
		case model.Integer:
			exp := r.expansions[v.Name]
			val := exp.Lower
			for i, bit := range exp.Bits {
				val += exp.Coefs[i] * math.Round(s.Assignment[bit])
			}
			values[v.Name] = val
		}
	}
	return values
}

// Sample the program and keep the lowest-energy sample whose normalized
// assignment satisfies every real constraint.
func (a *Adapter) Solve(ctx context.Context, built *formulation.Built) (*ports.SolveResult, error) {
	rendered, err := a.Render(built)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	set, err := a.sampler.Sample(ctx, rendered.Program)
	if err != nil {
		return nil, fmt.Errorf("qubo sample: %w", err)
	}
	if set == nil || len(set.Samples) == 0 {
		return nil, ports.ErrInfeasible
	}

	for i, s := range set.Samples {
		values := rendered.normalizeSample(s)
		if len(rendered.Reduced.Violations(values)) > 0 {
			continue
		}
		a.log.Info().
			Dur("elapsed", time.Since(start)).
			Int("sample_rank", i).
			Int("samples", len(set.Samples)).
			Msg("qubo sample accepted")
		return &ports.SolveResult{
			Values:    values,
			Objective: rendered.Reduced.Objective().Evaluate(values),
		}, nil
	}

	a.log.Warn().Int("samples", len(set.Samples)).Msg("no feasible sample")
	return nil, ports.ErrInfeasible
}
