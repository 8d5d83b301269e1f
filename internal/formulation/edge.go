package formulation

import (
	"fmt"

	"vrp-model-service/internal/domain"
	"vrp-model-service/internal/model"
)

// Arc-indexed builder for depot-anchored routing. Location 0 is the
// depot. A zero capacity means unbounded vehicles; the MTZ ordering
// variables then bound sequencing with the location count instead of
// the capacity.
type edgeBuilder struct {
	p        *domain.Problem
	m        *model.Model
	capacity int
}

// MTZ big-M and ordering upper bound: the capacity when bounded, the
// location count otherwise.
func (b *edgeBuilder) bound() int {
	if b.capacity > 0 {
		return b.capacity
	}
	return b.p.NumLocations()
}

func (b *edgeBuilder) build() error {
	if err := b.createVars(); err != nil {
		return err
	}
	b.createObjective()
	b.createLocationConstraints()
	b.createVehicleConstraints()
	b.createSubtourConstraints()
	return b.simplify()
}

func (b *edgeBuilder) createVars() error {
	n := b.p.NumLocations()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if _, err := b.m.Binary(model.EdgeVarName(i, j)); err != nil {
				return err
			}
		}
	}
	upper := float64(b.bound())
	for i := 1; i < n; i++ {
		lower := 1.0
		if b.capacity > 0 {
			lower = float64(effectiveDemand(b.p, i))
		}
		if _, err := b.m.IntegerVar(model.OrderVarName(i), lower, upper); err != nil {
			return err
		}
	}
	return nil
}

func (b *edgeBuilder) createObjective() {
	n := b.p.NumLocations()
	obj := b.m.Objective()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			obj.AddTerm(b.p.Distances.Between(i, j), model.EdgeVarName(i, j))
		}
	}
}

// Every non-depot location is entered exactly once and left exactly once.
func (b *edgeBuilder) createLocationConstraints() {
	n := b.p.NumLocations()
	for i := 1; i < n; i++ {
		out := model.Constraint{Label: fmt.Sprintf("visit_out_%d", i), Sense: model.Equal, RHS: 1}
		in := model.Constraint{Label: fmt.Sprintf("visit_in_%d", i), Sense: model.Equal, RHS: 1}
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			out.Expr.AddTerm(1, model.EdgeVarName(i, j))
			in.Expr.AddTerm(1, model.EdgeVarName(j, i))
		}
		b.m.AddConstraint(out)
		b.m.AddConstraint(in)
	}
}

// The depot emits and absorbs exactly one route per vehicle.
func (b *edgeBuilder) createVehicleConstraints() {
	n := b.p.NumLocations()
	out := model.Constraint{Label: "depot_out", Sense: model.Equal, RHS: float64(b.p.Vehicles)}
	in := model.Constraint{Label: "depot_in", Sense: model.Equal, RHS: float64(b.p.Vehicles)}
	for i := 1; i < n; i++ {
		out.Expr.AddTerm(1, model.EdgeVarName(0, i))
		in.Expr.AddTerm(1, model.EdgeVarName(i, 0))
	}
	b.m.AddConstraint(out)
	b.m.AddConstraint(in)
}

// MTZ ordering: u[i] - u[j] + M*x[i][j] <= M - demand(j). With a real
// capacity as M this also forces u to track cumulative load, so no
// route prefix can exceed the capacity. Unbounded vehicles use the
// location count and a unit demand, which only eliminates subtours.
func (b *edgeBuilder) createSubtourConstraints() {
	n := b.p.NumLocations()
	m := float64(b.bound())
	for i := 1; i < n; i++ {
		for j := 1; j < n; j++ {
			if i == j {
				continue
			}
			rhs := m - 1
			if b.capacity > 0 {
				rhs = m - float64(effectiveDemand(b.p, j))
			}
			c := model.Constraint{
				Label: fmt.Sprintf("mtz_%d_%d", i, j),
				Sense: model.LessEqual,
				RHS:   rhs,
			}
			c.Expr.AddTerm(1, model.OrderVarName(i))
			c.Expr.AddTerm(-1, model.OrderVarName(j))
			c.Expr.AddTerm(m, model.EdgeVarName(i, j))
			b.m.AddConstraint(c)
		}
	}
}

// Self-loops never appear in a tour; pin the diagonal to zero so the
// adapter can drop those variables before the backend sees them.
func (b *edgeBuilder) simplify() error {
	for i := 0; i < b.p.NumLocations(); i++ {
		if err := b.m.Fix(model.EdgeVarName(i, i), 0); err != nil {
			return err
		}
	}
	return nil
}

func (b *edgeBuilder) routeStarts(values map[string]float64) []int {
	starts := make([]int, 0, b.p.Vehicles)
	for i := 1; i < b.p.NumLocations() && len(starts) < b.p.Vehicles; i++ {
		if values[model.EdgeVarName(0, i)] == 1 {
			starts = append(starts, i)
		}
	}
	for len(starts) < b.p.Vehicles {
		starts = append(starts, -1)
	}
	return starts
}

func (b *edgeBuilder) nextLocation(values map[string]float64, cur int) (int, bool) {
	for j := 0; j < b.p.NumLocations(); j++ {
		if values[model.EdgeVarName(cur, j)] == 1 {
			return j, true
		}
	}
	return 0, false
}

func (b *edgeBuilder) feasible(map[string]float64) bool { return true }
