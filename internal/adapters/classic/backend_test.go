package classic

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"vrp-model-service/internal/domain"
	"vrp-model-service/internal/formulation"
	"vrp-model-service/internal/ports"
)

func TestGreedySolveDecodesToTour(t *testing.T) {
	p := &domain.Problem{
		Vehicles: 1,
		Distances: domain.DistanceMatrix{
			{0, 1, 9, 4},
			{1, 0, 2, 8},
			{9, 2, 0, 3},
			{4, 8, 3, 0},
		},
	}
	built, err := formulation.Build(p)
	require.NoError(t, err)

	res, err := New(zerolog.Nop()).Solve(context.Background(), built)
	require.NoError(t, err)

	sol, err := built.Decode(res.Values, res.Objective)
	require.NoError(t, err)

	// Nearest neighbor from the depot: 1 (d=1), then 2 (d=2), then 3.
	require.Equal(t, []int{0, 1, 2, 3, 0}, sol.Routes[0].Stops)
	require.InDelta(t, 1+2+3+4, sol.Routes[0].Distance, 1e-9)
	require.InDelta(t, res.Objective, sol.TotalDistance(), 1e-9)

	// The emitted assignment satisfies the edge model's constraint set.
	require.Empty(t, built.Model.Violations(res.Values))
}

func TestGreedySolveSplitsAcrossVehicles(t *testing.T) {
	p := &domain.Problem{
		Vehicles: 2,
		Distances: domain.DistanceMatrix{
			{0, 1, 2, 3, 4},
			{1, 0, 1, 5, 6},
			{2, 1, 0, 4, 5},
			{3, 5, 4, 0, 1},
			{4, 6, 5, 1, 0},
		},
	}
	built, err := formulation.Build(p)
	require.NoError(t, err)

	res, err := New(zerolog.Nop()).Solve(context.Background(), built)
	require.NoError(t, err)

	sol, err := built.Decode(res.Values, res.Objective)
	require.NoError(t, err)
	require.Len(t, sol.Routes, 2)

	visited := map[int]bool{}
	for _, r := range sol.Routes {
		for _, stop := range r.Stops {
			if stop != 0 {
				require.False(t, visited[stop], "stop %d visited twice", stop)
				visited[stop] = true
			}
		}
	}
	require.Len(t, visited, 4)
}

func TestGreedySolveRejectsOverload(t *testing.T) {
	p := &domain.Problem{
		Vehicles:  1,
		Distances: domain.DistanceMatrix{{0, 1, 2}, {1, 0, 1}, {2, 1, 0}},
		Capacity:  domain.UniformCapacity(3),
		Demands:   []int{0, 2, 2},
	}
	built, err := formulation.Build(p)
	require.NoError(t, err)

	_, err = New(zerolog.Nop()).Solve(context.Background(), built)
	require.ErrorIs(t, err, ports.ErrInfeasible)
}

func TestGreedySolveRejectsZeroDemandOverload(t *testing.T) {
	// Zero-demand stops still occupy one unit of the ordering range, so
	// three stops cannot share a vehicle whose capacity is one.
	p := &domain.Problem{
		Vehicles: 1,
		Distances: domain.DistanceMatrix{
			{0, 1, 2, 3},
			{1, 0, 1, 2},
			{2, 1, 0, 1},
			{3, 2, 1, 0},
		},
		Capacity: domain.UniformCapacity(1),
		Demands:  []int{0, 0, 0, 0},
	}
	built, err := formulation.Build(p)
	require.NoError(t, err)

	_, err = New(zerolog.Nop()).Solve(context.Background(), built)
	require.ErrorIs(t, err, ports.ErrInfeasible)
}

func TestGreedySolveZeroDemandWithinCapacity(t *testing.T) {
	p := &domain.Problem{
		Vehicles: 1,
		Distances: domain.DistanceMatrix{
			{0, 1, 2, 3},
			{1, 0, 1, 2},
			{2, 1, 0, 1},
			{3, 2, 1, 0},
		},
		Capacity: domain.UniformCapacity(3),
		Demands:  []int{0, 0, 0, 0},
	}
	built, err := formulation.Build(p)
	require.NoError(t, err)

	res, err := New(zerolog.Nop()).Solve(context.Background(), built)
	require.NoError(t, err)
	require.Empty(t, built.Model.Violations(res.Values))

	sol, err := built.Decode(res.Values, res.Objective)
	require.NoError(t, err)
	for _, load := range sol.Routes[0].Loads {
		require.LessOrEqual(t, load, 3)
	}
}

func TestGreedySolveRejectsStepVariants(t *testing.T) {
	p := &domain.Problem{
		Vehicles:  1,
		Distances: domain.DistanceMatrix{{0, 1, 2}, {1, 0, 1}, {2, 1, 0}},
		Trips:     []domain.TripRequest{{Origin: 1, Destination: 2, Quantity: 1}},
	}
	built, err := formulation.Build(p)
	require.NoError(t, err)

	_, err = New(zerolog.Nop()).Solve(context.Background(), built)
	require.Error(t, err)
}
