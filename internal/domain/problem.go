package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for problem validation. Callers match with errors.Is.
var (
	ErrNoVehicles       = errors.New("problem has no vehicles")
	ErrNoLocations      = errors.New("problem has no locations")
	ErrMatrixShape      = errors.New("distance matrix is not square")
	ErrDemandShape      = errors.New("demand list does not match location count")
	ErrCapacityShape    = errors.New("capacity list does not match vehicle count")
	ErrTripOutOfRange   = errors.New("trip request references unknown location")
	ErrMixedFormulation = errors.New("problem mixes demands and trip requests")
)

// Square matrix of pairwise travel costs between locations.
// Entry [i][j] is the cost of travelling from location i to location j.
type DistanceMatrix [][]float64

// Number of locations covered by the matrix.
func (m DistanceMatrix) Size() int { return len(m) }

// Cost of travelling from location i to location j.
func (m DistanceMatrix) Between(i, j int) float64 { return m[i][j] }

// Largest entry in the matrix. Used to normalize quadratic objectives.
func (m DistanceMatrix) Max() float64 {
	max := 0.0
	for _, row := range m {
		for _, d := range row {
			if d > max {
				max = d
			}
		}
	}
	return max
}

func (m DistanceMatrix) validate() error {
	if len(m) == 0 {
		return ErrNoLocations
	}
	for i, row := range m {
		if len(row) != len(m) {
			return fmt.Errorf("%w: row %d has %d entries, want %d", ErrMatrixShape, i, len(row), len(m))
		}
	}
	return nil
}

// A single transport request in a ride-pooling problem: pick up Quantity
// at Origin and drop it off at Destination. Locations are indices into
// the distance matrix.
type TripRequest struct {
	Origin      int
	Destination int
	Quantity    int
}

// How vehicle capacity is bounded.
type CapacityKind int

const (
	// Vehicles carry unbounded load.
	CapacityNone CapacityKind = iota
	// Every vehicle shares one capacity value.
	CapacityUniform
	// Each vehicle has its own capacity value.
	CapacityPerVehicle
)

// Capacity bound for a fleet. Construct with one of the NoCapacity,
// UniformCapacity or PerVehicleCapacity helpers.
type CapacitySpec struct {
	Kind       CapacityKind
	Uniform    int
	PerVehicle []int
}

func NoCapacity() CapacitySpec { return CapacitySpec{Kind: CapacityNone} }

func UniformCapacity(c int) CapacitySpec {
	return CapacitySpec{Kind: CapacityUniform, Uniform: c}
}

func PerVehicleCapacity(caps []int) CapacitySpec {
	return CapacitySpec{Kind: CapacityPerVehicle, PerVehicle: caps}
}

// Capacity of vehicle k. Panics if k is out of range for a per-vehicle spec;
// validate the problem first.
func (c CapacitySpec) ForVehicle(k int) int {
	switch c.Kind {
	case CapacityUniform:
		return c.Uniform
	case CapacityPerVehicle:
		return c.PerVehicle[k]
	}
	return 0
}

// Whether any bound applies at all.
func (c CapacitySpec) Bounded() bool { return c.Kind != CapacityNone }

// A routing problem instance. Exactly one of Demands (depot-anchored
// capacitated routing, location 0 is the depot) or Trips (ride pooling,
// no depot) describes the service requirements. The distance matrix
// covers every location either form references.
type Problem struct {
	Vehicles  int
	Distances DistanceMatrix
	Capacity  CapacitySpec
	Demands   []int
	Trips     []TripRequest
}

// Whether this is a ride-pooling instance (trip requests, no depot).
func (p *Problem) IsPooling() bool { return len(p.Trips) > 0 }

// Number of locations in the instance.
func (p *Problem) NumLocations() int { return p.Distances.Size() }

// Demand at location i. For depot-anchored problems this is the declared
// demand. For ride pooling it is the net load change at i: the sum of
// quantities picked up there minus the sum dropped off there.
func (p *Problem) Demand(i int) int {
	if !p.IsPooling() {
		if i < len(p.Demands) {
			return p.Demands[i]
		}
		return 0
	}
	net := 0
	for _, t := range p.Trips {
		if t.Origin == i {
			net += t.Quantity
		}
		if t.Destination == i {
			net -= t.Quantity
		}
	}
	return net
}

// Check structural consistency of the instance.
func (p *Problem) Validate() error {
	if p.Vehicles <= 0 {
		return ErrNoVehicles
	}
	if err := p.Distances.validate(); err != nil {
		return err
	}
	if len(p.Demands) > 0 && len(p.Trips) > 0 {
		return ErrMixedFormulation
	}
	n := p.Distances.Size()
	if len(p.Demands) > 0 && len(p.Demands) != n {
		return fmt.Errorf("%w: %d demands for %d locations", ErrDemandShape, len(p.Demands), n)
	}
	for _, t := range p.Trips {
		if t.Origin < 0 || t.Origin >= n || t.Destination < 0 || t.Destination >= n {
			return fmt.Errorf("%w: (%d -> %d) with %d locations", ErrTripOutOfRange, t.Origin, t.Destination, n)
		}
	}
	if p.Capacity.Kind == CapacityPerVehicle && len(p.Capacity.PerVehicle) != p.Vehicles {
		return fmt.Errorf("%w: %d capacities for %d vehicles", ErrCapacityShape, len(p.Capacity.PerVehicle), p.Vehicles)
	}
	return nil
}
