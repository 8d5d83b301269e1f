package qubo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vrp-model-service/internal/model"
)

func TestFoldLinearEqualityIntoPenalty(t *testing.T) {
	m := model.New()
	_, err := m.Binary("a")
	require.NoError(t, err)
	_, err = m.Binary("b")
	require.NoError(t, err)

	obj := m.Objective()
	obj.AddTerm(2, "a")
	obj.AddTerm(3, "b")

	c := model.Constraint{Label: "one_of", Sense: model.Equal, RHS: 1}
	c.Expr.AddTerm(1, "a")
	c.Expr.AddTerm(1, "b")
	m.AddConstraint(c)

	p, _, err := convert(m)
	require.NoError(t, err)

	// Penalty is 1 plus the absolute objective coefficients.
	require.InDelta(t, 6, p.Penalty, 1e-9)

	// Assignments satisfying the constraint keep their true objective.
	require.InDelta(t, 2, p.Energy(map[string]float64{"a": 1, "b": 0}), 1e-9)
	require.InDelta(t, 3, p.Energy(map[string]float64{"a": 0, "b": 1}), 1e-9)

	// Violations pay the penalty on top.
	require.InDelta(t, 6, p.Energy(map[string]float64{"a": 0, "b": 0}), 1e-9)
	require.InDelta(t, 2+3+6, p.Energy(map[string]float64{"a": 1, "b": 1}), 1e-9)
}

func TestInequalityGainsSlack(t *testing.T) {
	m := model.New()
	_, err := m.Binary("a")
	require.NoError(t, err)
	_, err = m.Binary("b")
	require.NoError(t, err)

	c := model.Constraint{Label: "cap", Sense: model.LessEqual, RHS: 1}
	c.Expr.AddTerm(1, "a")
	c.Expr.AddTerm(1, "b")
	m.AddConstraint(c)

	p, exps, err := convert(m)
	require.NoError(t, err)

	slack, ok := exps["cap@int_slack"]
	require.True(t, ok)
	require.Equal(t, []float64{1}, slack.Coefs)
	require.Len(t, p.Vars, 3)

	// Exactly one of a, b plus a free slack keeps the equality tight.
	assign := map[string]float64{"a": 1, "b": 0, "cap@int_slack@0": 0}
	require.InDelta(t, 0, p.Energy(assign), 1e-9)
	// Both set leaves no slack value that restores the equality.
	over := map[string]float64{"a": 1, "b": 1, "cap@int_slack@0": 0}
	require.Greater(t, p.Energy(over), 0.0)
}

func TestIntegerExpansionBounds(t *testing.T) {
	m := model.New()
	_, err := m.IntegerVar("u_1", 1, 5)
	require.NoError(t, err)
	_, err = m.Binary("a")
	require.NoError(t, err)

	c := model.Constraint{Label: "order", Sense: model.Equal, RHS: 3}
	c.Expr.AddTerm(1, "u_1")
	c.Expr.AddTerm(1, "a")
	m.AddConstraint(c)

	_, exps, err := convert(m)
	require.NoError(t, err)

	exp := exps["u_1"]
	require.Equal(t, 1.0, exp.Lower)
	// Span 4 encodes as 1 + 2 + 1 so every value in [1, 5] is reachable.
	require.Equal(t, []float64{1, 2, 1}, exp.Coefs)

	total := exp.Lower
	for _, coef := range exp.Coefs {
		total += coef
	}
	require.InDelta(t, 5, total, 1e-9)
}

func TestQuadraticConstraintRejected(t *testing.T) {
	m := model.New()
	_, err := m.Binary("a")
	require.NoError(t, err)
	_, err = m.Binary("b")
	require.NoError(t, err)

	c := model.Constraint{Label: "q", Sense: model.LessEqual, RHS: 1}
	c.Expr.AddQuadTerm(1, "a", "b")
	m.AddConstraint(c)

	_, _, err = convert(m)
	require.Error(t, err)
}
