package classic

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"vrp-model-service/internal/domain"
	"vrp-model-service/internal/formulation"
	"vrp-model-service/internal/model"
	"vrp-model-service/internal/ports"
)

// A greedy route-search backend for the edge-indexed variants. Stops are
// banded across vehicles by depot distance, then each vehicle's band is
// ordered nearest-neighbor. The result is emitted as an edge-variable
// assignment so it flows through the same decoding path as the exact
// backends. Step-indexed variants are out of reach for this heuristic.
type Backend struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Backend {
	return &Backend{log: log.With().Str("backend", "classic").Logger()}
}

func (b *Backend) Name() string { return "classic" }

func (b *Backend) Solve(_ context.Context, built *formulation.Built) (*ports.SolveResult, error) {
	if built.Variant != formulation.EdgeInfinite && built.Variant != formulation.EdgeConstant {
		return nil, fmt.Errorf("classic solve: variant %s not supported", built.Variant)
	}

	p := built.Problem
	n := p.NumLocations()

	stops := make([]int, 0, n-1)
	for i := 1; i < n; i++ {
		stops = append(stops, i)
	}

	// Band stops across vehicles by distance from the depot, nearest
	// band first. Ties break on index to stay deterministic.
	sort.Slice(stops, func(a, b int) bool {
		da, db := p.Distances.Between(0, stops[a]), p.Distances.Between(0, stops[b])
		if da != db {
			return da < db
		}
		return stops[a] < stops[b]
	})

	chunk := (len(stops) + p.Vehicles - 1) / p.Vehicles
	routes := make([][]int, p.Vehicles)
	for k := 0; k < p.Vehicles; k++ {
		lo := k * chunk
		if lo >= len(stops) {
			break
		}
		hi := lo + chunk
		if hi > len(stops) {
			hi = len(stops)
		}
		routes[k] = orderNearestNeighbor(p, stops[lo:hi])
	}

	if built.Variant == formulation.EdgeConstant {
		for k, route := range routes {
			// Sum the demand floor the ordering variables carry, not the
			// raw demands, so the check matches the model's u bounds.
			load := 0
			for _, i := range route {
				load += effectiveStopDemand(p, i)
			}
			if load > p.Capacity.ForVehicle(k) {
				b.log.Warn().Int("vehicle", k).Int("load", load).Msg("greedy banding exceeds capacity")
				return nil, ports.ErrInfeasible
			}
		}
	}

	values, objective := b.emit(p, routes, built.Variant == formulation.EdgeConstant)
	if violated := built.Model.Violations(values); len(violated) > 0 {
		b.log.Warn().Strs("constraints", violated).Msg("greedy assignment violates the model")
		return nil, ports.ErrInfeasible
	}
	return &ports.SolveResult{Values: values, Objective: objective}, nil
}

// Greedy nearest-neighbor ordering starting from the depot. Minimizes
// the immediate hop at each step; ties break on the lower index.
func orderNearestNeighbor(p *domain.Problem, band []int) []int {
	remaining := make(map[int]bool, len(band))
	for _, i := range band {
		remaining[i] = true
	}

	ordered := make([]int, 0, len(band))
	cur := 0
	for len(remaining) > 0 {
		best := -1
		bestDist := math.MaxFloat64
		for i := range remaining {
			d := p.Distances.Between(cur, i)
			if d < bestDist || (d == bestDist && (best == -1 || i < best)) {
				best = i
				bestDist = d
			}
		}
		ordered = append(ordered, best)
		delete(remaining, best)
		cur = best
	}
	return ordered
}

// Translate the routes into the edge model's variable assignment: one
// arc per hop, and ordering values that track cumulative load when the
// model's MTZ bound carries a capacity, plain visit order otherwise.
func (b *Backend) emit(p *domain.Problem, routes [][]int, capacitated bool) (map[string]float64, float64) {
	values := make(map[string]float64)
	objective := 0.0

	hop := func(from, to int) {
		values[model.EdgeVarName(from, to)] = 1
		objective += p.Distances.Between(from, to)
	}

	for _, route := range routes {
		if len(route) == 0 {
			continue
		}
		order := 0
		prev := 0
		for _, i := range route {
			hop(prev, i)
			if capacitated {
				order += effectiveStopDemand(p, i)
			} else {
				order++
			}
			values[model.OrderVarName(i)] = float64(order)
			prev = i
		}
		hop(prev, 0)
	}
	return values, objective
}

func effectiveStopDemand(p *domain.Problem, i int) int {
	if d := p.Demand(i); d > 1 {
		return d
	}
	return 1
}
