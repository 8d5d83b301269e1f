package formulation

import (
	"errors"
	"fmt"

	"vrp-model-service/internal/domain"
)

// The five model variants. Edge variants index variables by arc, step
// variants by (vehicle, location, step) occupancy.
type Variant int

const (
	// Depot-anchored routing, unbounded vehicles, arc variables with
	// MTZ ordering.
	EdgeInfinite Variant = iota
	// Depot-anchored routing, one shared capacity, arc variables with
	// capacity-carrying MTZ ordering.
	EdgeConstant
	// Depot-anchored routing, per-vehicle capacities, step occupancy
	// variables with prefix capacity bounds.
	StepMultiCapacity
	// Ride pooling, unbounded vehicles, step occupancy variables with a
	// synthetic start location.
	StepInfiniteRPP
	// Ride pooling with per-vehicle capacities.
	StepCapacityRPP
)

func (v Variant) String() string {
	switch v {
	case EdgeInfinite:
		return "edge-infinite"
	case EdgeConstant:
		return "edge-constant"
	case StepMultiCapacity:
		return "step-multi-capacity"
	case StepInfiniteRPP:
		return "step-infinite-rpp"
	case StepCapacityRPP:
		return "step-capacity-rpp"
	}
	return "unknown"
}

var (
	// Capacity bounds were supplied for depot-anchored routing without a
	// demand list to bound against.
	ErrDemandsRequired = errors.New("capacitated routing requires a demand list")

	ErrTripSelfLoop = errors.New("trip origin equals destination")
)

// Map the problem's capacity shape and service mode to the variant that
// models it. Validation failures surface immediately; nothing is
// repaired silently.
func Select(p *domain.Problem) (Variant, error) {
	if err := p.Validate(); err != nil {
		return 0, fmt.Errorf("select formulation: %w", err)
	}
	for _, t := range p.Trips {
		if t.Origin == t.Destination {
			return 0, fmt.Errorf("select formulation: %w: location %d", ErrTripSelfLoop, t.Origin)
		}
	}

	if p.IsPooling() {
		if !p.Capacity.Bounded() {
			return StepInfiniteRPP, nil
		}
		return StepCapacityRPP, nil
	}

	switch p.Capacity.Kind {
	case domain.CapacityNone:
		return EdgeInfinite, nil
	case domain.CapacityUniform:
		if len(p.Demands) == 0 {
			return 0, fmt.Errorf("select formulation: %w", ErrDemandsRequired)
		}
		return EdgeConstant, nil
	case domain.CapacityPerVehicle:
		if len(p.Demands) == 0 {
			return 0, fmt.Errorf("select formulation: %w", ErrDemandsRequired)
		}
		return StepMultiCapacity, nil
	}
	return 0, fmt.Errorf("select formulation: unsupported capacity kind %d", p.Capacity.Kind)
}
