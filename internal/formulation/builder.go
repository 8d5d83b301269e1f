package formulation

import (
	"errors"
	"fmt"

	"vrp-model-service/internal/domain"
	"vrp-model-service/internal/model"
)

// A backend returned a minimal assignment in which some trip's pickup is
// not actually served before its dropoff. The trip incentive is soft, so
// this can happen even for assignments the backend calls optimal.
var ErrPrecedenceViolated = errors.New("decoded assignment does not realize every trip")

// Per-variant decoding hooks. Implementations walk a completed variable
// assignment; they never mutate it.
type builder interface {
	build() error

	// Per-vehicle first stop, -1 for a vehicle that serves nothing.
	// Locations are global problem indices.
	routeStarts(values map[string]float64) []int

	// Successor of cur in the decoded assignment, global indices.
	nextLocation(values map[string]float64, cur int) (int, bool)

	// Post-hoc feasibility of the assignment beyond the constraint set.
	// Only the ride-pooling variants check anything here.
	feasible(values map[string]float64) bool
}

// A compiled model ready for adapter rendering, together with the hooks
// needed to decode a backend assignment back into routes.
type Built struct {
	Problem *domain.Problem
	Variant Variant
	Model   *model.Model

	b builder
}

// Compile the problem into the variant the selector picks for it.
func Build(p *domain.Problem) (*Built, error) {
	v, err := Select(p)
	if err != nil {
		return nil, err
	}
	return BuildVariant(p, v)
}

// Compile the problem into a specific variant. Callers normally use
// Build; this exists so a variant can be forced for comparison runs.
func BuildVariant(p *domain.Problem, v Variant) (*Built, error) {
	bt := &Built{Problem: p, Variant: v, Model: model.New()}
	switch v {
	case EdgeInfinite:
		bt.b = &edgeBuilder{p: p, m: bt.Model}
	case EdgeConstant:
		bt.b = &edgeBuilder{p: p, m: bt.Model, capacity: p.Capacity.Uniform}
	case StepMultiCapacity:
		bt.b = newStepCVRPBuilder(p, bt.Model)
	case StepInfiniteRPP:
		bt.b = newRPPBuilder(p, bt.Model, false)
	case StepCapacityRPP:
		bt.b = newRPPBuilder(p, bt.Model, true)
	default:
		return nil, fmt.Errorf("build %s: unknown variant", v)
	}
	if err := bt.b.build(); err != nil {
		return nil, fmt.Errorf("build %s: %w", v, err)
	}
	return bt, nil
}

// Effective demand at a location for load bookkeeping. Depot-anchored
// problems treat a missing or zero demand as 1 so ordering variables
// always advance; pooling problems use the net pickup minus dropoff.
func effectiveDemand(p *domain.Problem, i int) int {
	if p.IsPooling() {
		return p.Demand(i)
	}
	if d := p.Demand(i); d > 1 {
		return d
	}
	return 1
}

// Reconstruct routes from a backend assignment. The assignment is first
// completed with the model's fixed variables, then checked against the
// variant's post-hoc feasibility rule, then walked vehicle by vehicle.
func (bt *Built) Decode(values map[string]float64, objective float64) (*domain.Solution, error) {
	full := bt.Model.Complete(values)

	if !bt.b.feasible(full) {
		return nil, fmt.Errorf("decode %s: %w", bt.Variant, ErrPrecedenceViolated)
	}

	pooling := bt.Problem.IsPooling()
	trackLoads := bt.Problem.Capacity.Bounded()
	starts := bt.b.routeStarts(full)

	sol := &domain.Solution{Objective: objective}
	for k := 0; k < bt.Problem.Vehicles; k++ {
		route := domain.Route{Vehicle: k}
		cur := -1
		if k < len(starts) {
			cur = starts[k]
		}

		prev := cur
		if !pooling {
			prev = 0
			route.Stops = append(route.Stops, 0)
			if trackLoads {
				route.Loads = append(route.Loads, 0)
			}
		}

		load := 0
		// Guard against malformed assignments that never close a route.
		for hops := 0; cur >= 0 && hops <= bt.Problem.NumLocations()+1; hops++ {
			route.Distance += bt.Problem.Distances.Between(prev, cur)
			route.Stops = append(route.Stops, cur)
			if trackLoads {
				if pooling || cur != 0 {
					load += effectiveDemand(bt.Problem, cur)
				}
				route.Loads = append(route.Loads, load)
			}

			if cur == 0 && !pooling {
				break
			}
			prev = cur
			next, ok := bt.b.nextLocation(full, cur)
			if !ok {
				break
			}
			cur = next
		}

		sol.Routes = append(sol.Routes, route)
	}
	return sol, nil
}
