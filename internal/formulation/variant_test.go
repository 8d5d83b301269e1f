package formulation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vrp-model-service/internal/domain"
)

func matrix(n int) domain.DistanceMatrix {
	m := make(domain.DistanceMatrix, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			if i != j {
				m[i][j] = float64(1 + (i+j)%5)
			}
		}
	}
	return m
}

func TestSelectVariantTable(t *testing.T) {
	cases := []struct {
		name string
		p    domain.Problem
		want Variant
	}{
		{
			name: "no capacity routing",
			p:    domain.Problem{Vehicles: 2, Distances: matrix(4)},
			want: EdgeInfinite,
		},
		{
			name: "uniform capacity routing",
			p: domain.Problem{Vehicles: 2, Distances: matrix(4),
				Capacity: domain.UniformCapacity(10), Demands: []int{0, 1, 2, 3}},
			want: EdgeConstant,
		},
		{
			name: "per-vehicle capacity routing",
			p: domain.Problem{Vehicles: 2, Distances: matrix(4),
				Capacity: domain.PerVehicleCapacity([]int{12, 10}), Demands: []int{0, 1, 2, 3}},
			want: StepMultiCapacity,
		},
		{
			name: "pooling without capacity",
			p: domain.Problem{Vehicles: 1, Distances: matrix(4),
				Trips: []domain.TripRequest{{Origin: 1, Destination: 2, Quantity: 3}}},
			want: StepInfiniteRPP,
		},
		{
			name: "pooling with uniform capacity",
			p: domain.Problem{Vehicles: 1, Distances: matrix(4),
				Capacity: domain.UniformCapacity(4),
				Trips:    []domain.TripRequest{{Origin: 1, Destination: 2, Quantity: 3}}},
			want: StepCapacityRPP,
		},
		{
			name: "pooling with per-vehicle capacity",
			p: domain.Problem{Vehicles: 2, Distances: matrix(4),
				Capacity: domain.PerVehicleCapacity([]int{4, 6}),
				Trips:    []domain.TripRequest{{Origin: 1, Destination: 2, Quantity: 3}}},
			want: StepCapacityRPP,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Select(&tc.p)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestSelectRejectsCapacityWithoutDemands(t *testing.T) {
	p := domain.Problem{Vehicles: 1, Distances: matrix(3), Capacity: domain.UniformCapacity(5)}
	_, err := Select(&p)
	require.ErrorIs(t, err, ErrDemandsRequired)

	p.Capacity = domain.PerVehicleCapacity([]int{5})
	_, err = Select(&p)
	require.ErrorIs(t, err, ErrDemandsRequired)
}

func TestSelectRejectsSelfLoopTrip(t *testing.T) {
	p := domain.Problem{Vehicles: 1, Distances: matrix(3),
		Trips: []domain.TripRequest{{Origin: 1, Destination: 1, Quantity: 2}}}
	_, err := Select(&p)
	require.ErrorIs(t, err, ErrTripSelfLoop)
}

func TestSelectRejectsCapacityListShape(t *testing.T) {
	p := domain.Problem{Vehicles: 3, Distances: matrix(4),
		Capacity: domain.PerVehicleCapacity([]int{5, 5}), Demands: []int{0, 1, 1, 1}}
	_, err := Select(&p)
	require.ErrorIs(t, err, domain.ErrCapacityShape)
}
