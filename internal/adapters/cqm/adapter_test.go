package cqm

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"vrp-model-service/internal/domain"
	"vrp-model-service/internal/formulation"
	"vrp-model-service/internal/model"
	"vrp-model-service/internal/ports"
)

type fakeSampler struct {
	set *SampleSet
	got *Model
}

func (f *fakeSampler) Sample(_ context.Context, m *Model) (*SampleSet, error) {
	f.got = m
	return f.set, nil
}

func builtProblem(t *testing.T) *formulation.Built {
	t.Helper()
	p := &domain.Problem{
		Vehicles: 1,
		Distances: domain.DistanceMatrix{
			{0, 2, 4},
			{2, 0, 1},
			{4, 1, 0},
		},
	}
	bt, err := formulation.Build(p)
	require.NoError(t, err)
	return bt
}

func TestRenderAppliesNativeFixing(t *testing.T) {
	bt := builtProblem(t)
	a := New(&fakeSampler{}, zerolog.Nop())

	native, err := a.Render(bt)
	require.NoError(t, err)

	// The diagonal self-loops are fixed out of the variable list.
	for _, v := range native.Variables {
		require.NotContains(t, []string{"x_0_0", "x_1_1", "x_2_2"}, v.Name)
	}
	// 9 edges minus 3 fixed, plus 2 ordering variables.
	require.Len(t, native.Variables, 8)

	var integers int
	for _, v := range native.Variables {
		if v.Type == IntegerVar {
			integers++
			require.Equal(t, 1.0, v.Lower)
			require.Equal(t, 3.0, v.Upper)
		}
	}
	require.Equal(t, 2, integers)
}

func TestFixVariablesPrunesTrivialConstraints(t *testing.T) {
	m := NewModel()
	m.AddVariable(Variable{Name: "a", Type: BinaryVar, Upper: 1})
	m.AddVariable(Variable{Name: "b", Type: BinaryVar, Upper: 1})

	trivial := Constraint{Label: "pick_a", Expr: newQuadratic(), Sense: model.Equal, RHS: 1}
	trivial.Expr.addLinear("a", 1)
	kept := Constraint{Label: "pick_b", Expr: newQuadratic(), Sense: model.Equal, RHS: 1}
	kept.Expr.addLinear("b", 1)
	m.Constraints = append(m.Constraints, trivial, kept)

	require.NoError(t, m.FixVariables(map[string]float64{"a": 1}))
	require.Len(t, m.Constraints, 1)
	require.Equal(t, "pick_b", m.Constraints[0].Label)
	require.Len(t, m.Variables, 1)
}

func TestFixVariablesDetectsConflict(t *testing.T) {
	m := NewModel()
	m.AddVariable(Variable{Name: "a", Type: BinaryVar, Upper: 1})

	c := Constraint{Label: "pick_a", Expr: newQuadratic(), Sense: model.Equal, RHS: 1}
	c.Expr.addLinear("a", 1)
	m.Constraints = append(m.Constraints, c)

	require.ErrorIs(t, m.FixVariables(map[string]float64{"a": 0}), model.ErrFixedInfeasible)
}

func TestSolvePrefersFeasibleSample(t *testing.T) {
	bt := builtProblem(t)

	// Tour 0 -> 1 -> 2 -> 0 over the free (non-fixed) variables.
	good := map[string]float64{
		"x_0_1": 1, "x_1_2": 1, "x_2_0": 1,
		"u_1": 1, "u_2": 2,
	}
	// Lower energy but flagged infeasible by the sampler.
	junk := map[string]float64{"x_0_1": 1}

	sampler := &fakeSampler{set: &SampleSet{Samples: []Sample{
		{Assignment: junk, Energy: 1, Feasible: false},
		{Assignment: good, Energy: 7, Feasible: true},
	}}}
	a := New(sampler, zerolog.Nop())

	res, err := a.Solve(context.Background(), bt)
	require.NoError(t, err)
	require.InDelta(t, 7, res.Objective, 1e-9)
	require.Equal(t, 1.0, res.Values["x_0_1"])

	sol, err := bt.Decode(res.Values, res.Objective)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 0}, sol.Routes[0].Stops)
}

func TestSolveReportsInfeasible(t *testing.T) {
	bt := builtProblem(t)
	sampler := &fakeSampler{set: &SampleSet{Samples: []Sample{
		{Assignment: map[string]float64{}, Energy: 0, Feasible: false},
	}}}
	a := New(sampler, zerolog.Nop())

	_, err := a.Solve(context.Background(), bt)
	require.ErrorIs(t, err, ports.ErrInfeasible)
}
