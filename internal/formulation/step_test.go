package formulation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"vrp-model-service/internal/domain"
	"vrp-model-service/internal/model"
)

// Place vehicle k at the given locations step by step.
func occupy(values map[string]float64, k int, locations ...int) {
	for s, i := range locations {
		if i >= 0 {
			values[model.StepVarName(k, i, s)] = 1
		}
	}
}

func multiCapacityProblem() *domain.Problem {
	return &domain.Problem{
		Vehicles: 2,
		Distances: domain.DistanceMatrix{
			{0, 4, 2, 3},
			{4, 0, 5, 6},
			{2, 5, 0, 1},
			{3, 6, 1, 0},
		},
		Capacity: domain.PerVehicleCapacity([]int{12, 10}),
		Demands:  []int{0, 12, 6, 4},
	}
}

func TestStepModelShape(t *testing.T) {
	bt, err := Build(multiCapacityProblem())
	require.NoError(t, err)
	require.Equal(t, StepMultiCapacity, bt.Variant)

	// 2 vehicles * 4 locations * (4+1) steps.
	require.Equal(t, 40, bt.Model.NumVariables())
	require.Equal(t, 2, bt.Model.Objective().Degree())

	var visit, occupancy, capacity int
	for _, c := range bt.Model.Constraints() {
		switch {
		case strings.HasPrefix(c.Label, "visit_"):
			visit++
		case strings.HasPrefix(c.Label, "occupancy_"):
			occupancy++
		case strings.HasPrefix(c.Label, "capacity_"):
			capacity++
			require.Equal(t, model.LessEqual, c.Sense)
		}
	}
	require.Equal(t, 3, visit)
	require.Equal(t, 10, occupancy)
	// One row per vehicle per non-zero step prefix.
	require.Equal(t, 8, capacity)
}

func TestStepModelFixesStartAndEnd(t *testing.T) {
	bt, err := Build(multiCapacityProblem())
	require.NoError(t, err)

	fixed := bt.Model.Fixed()
	for k := 0; k < 2; k++ {
		require.Equal(t, 1.0, fixed[model.StepVarName(k, 0, 0)])
		require.Equal(t, 1.0, fixed[model.StepVarName(k, 0, 4)])
		for i := 1; i < 4; i++ {
			require.Equal(t, 0.0, fixed[model.StepVarName(k, i, 0)])
			require.Equal(t, 0.0, fixed[model.StepVarName(k, i, 4)])
		}
	}
}

// Demand splits exactly across the two capacities: [12] for the first
// vehicle, [6, 4] for the second.
func tightAssignment() map[string]float64 {
	values := make(map[string]float64)
	occupy(values, 0, 0, 1, 0, 0, 0)
	occupy(values, 1, 0, 2, 3, 0, 0)
	return values
}

func TestStepModelFeasibleAtExactCapacity(t *testing.T) {
	bt, err := Build(multiCapacityProblem())
	require.NoError(t, err)
	require.Empty(t, bt.Model.Violations(tightAssignment()))
}

func TestStepModelCapacityIsBinding(t *testing.T) {
	p := multiCapacityProblem()
	p.Demands[2]++ // total demand now exceeds the combined capacity
	bt, err := Build(p)
	require.NoError(t, err)

	violated := bt.Model.Violations(tightAssignment())
	require.NotEmpty(t, violated)
	for _, label := range violated {
		require.True(t, strings.HasPrefix(label, "capacity_"), "unexpected violation %s", label)
	}
}

func TestStepModelDecode(t *testing.T) {
	bt, err := Build(multiCapacityProblem())
	require.NoError(t, err)

	sol, err := bt.Decode(tightAssignment(), 0.5)
	require.NoError(t, err)
	require.Len(t, sol.Routes, 2)

	require.Equal(t, []int{0, 1, 0}, sol.Routes[0].Stops)
	require.Equal(t, []int{0, 12, 12}, sol.Routes[0].Loads)
	require.InDelta(t, 8, sol.Routes[0].Distance, 1e-9)

	require.Equal(t, []int{0, 2, 3, 0}, sol.Routes[1].Stops)
	require.Equal(t, []int{0, 6, 10, 10}, sol.Routes[1].Loads)
	require.InDelta(t, 6, sol.Routes[1].Distance, 1e-9)

	require.InDelta(t, 14, sol.TotalDistance(), 1e-9)
	require.InDelta(t, 0.5, sol.Objective, 1e-9)
}

func TestStepModelLoadsNeverExceedCapacity(t *testing.T) {
	bt, err := Build(multiCapacityProblem())
	require.NoError(t, err)

	sol, err := bt.Decode(tightAssignment(), 0)
	require.NoError(t, err)
	for _, r := range sol.Routes {
		for _, load := range r.Loads {
			require.LessOrEqual(t, load, bt.Problem.Capacity.ForVehicle(r.Vehicle))
		}
	}
}
