package formulation

import (
	"fmt"

	"vrp-model-service/internal/domain"
	"vrp-model-service/internal/model"
)

// Keeps the normalization factor strictly above the largest distance so
// normalized coefficients stay below one.
const normalizationEpsilon = 0.0001

// State shared by the step-indexed builders: the discretized step count
// and the factor every distance coefficient is divided by. Step models
// feed penalty-based conversions downstream, so objective magnitude must
// stay bounded relative to constraint penalties.
type stepModel struct {
	p     *domain.Problem
	m     *model.Model
	steps int
	norm  float64
}

func newStepModel(p *domain.Problem, m *model.Model, steps int) stepModel {
	return stepModel{
		p:     p,
		m:     m,
		steps: steps,
		norm:  p.Distances.Max() + normalizationEpsilon,
	}
}

func (sm *stepModel) createVars(numLocations int) error {
	for k := 0; k < sm.p.Vehicles; k++ {
		for i := 0; i < numLocations; i++ {
			for s := 0; s < sm.steps; s++ {
				if _, err := sm.m.Binary(model.StepVarName(k, i, s)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Every location except index 0 (depot or synthetic start) is occupied
// exactly once across all vehicles and steps.
func (sm *stepModel) createLocationConstraints(numLocations int) {
	for i := 1; i < numLocations; i++ {
		c := model.Constraint{Label: fmt.Sprintf("visit_%d", i), Sense: model.Equal, RHS: 1}
		for k := 0; k < sm.p.Vehicles; k++ {
			for s := 0; s < sm.steps; s++ {
				c.Expr.AddTerm(1, model.StepVarName(k, i, s))
			}
		}
		sm.m.AddConstraint(c)
	}
}

// Cumulative demand over every step prefix stays within the vehicle's
// capacity. Bounding each prefix, not just the full route, keeps any
// partial route within the bound.
func (sm *stepModel) createCapacityConstraints(numLocations int, demand func(i int) int) {
	for k := 0; k < sm.p.Vehicles; k++ {
		limit := float64(sm.p.Capacity.ForVehicle(k))
		for cur := 1; cur < sm.steps; cur++ {
			c := model.Constraint{
				Label: fmt.Sprintf("capacity_%d_%d", k, cur),
				Sense: model.LessEqual,
				RHS:   limit,
			}
			for i := 1; i < numLocations; i++ {
				d := float64(demand(i))
				for s := 0; s <= cur; s++ {
					c.Expr.AddTerm(d, model.StepVarName(k, i, s))
				}
			}
			sm.m.AddConstraint(c)
		}
	}
}

// Find the location a vehicle occupies at a step, or -1.
func (sm *stepModel) locationAt(values map[string]float64, k, s, numLocations int) int {
	for i := 0; i < numLocations; i++ {
		if values[model.StepVarName(k, i, s)] == 1 {
			return i
		}
	}
	return -1
}

// Step-indexed builder for depot-anchored routing with per-vehicle
// capacities. Arc variables cannot carry a per-vehicle bound, so the
// route is discretized into steps and sequencing is inferred from
// consecutive-step co-occupancy, which makes the objective quadratic.
type stepCVRPBuilder struct {
	stepModel
}

func newStepCVRPBuilder(p *domain.Problem, m *model.Model) *stepCVRPBuilder {
	return &stepCVRPBuilder{stepModel: newStepModel(p, m, p.Distances.Size()+1)}
}

func (b *stepCVRPBuilder) build() error {
	n := b.p.NumLocations()
	if err := b.createVars(n); err != nil {
		return err
	}
	b.createObjective()
	b.createLocationConstraints(n)
	b.createVehicleConstraints()
	b.createCapacityConstraints(n, func(i int) int { return effectiveDemand(b.p, i) })
	return b.simplify()
}

func (b *stepCVRPBuilder) createObjective() {
	n := b.p.NumLocations()
	obj := b.m.Objective()
	for k := 0; k < b.p.Vehicles; k++ {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				coef := b.p.Distances.Between(i, j) / b.norm
				for s := 0; s < b.steps-1; s++ {
					obj.AddQuadTerm(coef, model.StepVarName(k, i, s), model.StepVarName(k, j, s+1))
				}
			}
		}
	}
}

// Each vehicle occupies exactly one location at every step.
func (b *stepCVRPBuilder) createVehicleConstraints() {
	n := b.p.NumLocations()
	for k := 0; k < b.p.Vehicles; k++ {
		for s := 0; s < b.steps; s++ {
			c := model.Constraint{Label: fmt.Sprintf("occupancy_%d_%d", k, s), Sense: model.Equal, RHS: 1}
			for i := 0; i < n; i++ {
				c.Expr.AddTerm(1, model.StepVarName(k, i, s))
			}
			b.m.AddConstraint(c)
		}
	}
}

// Every route starts and ends at the depot, so the first and last step
// occupancy is known up front.
func (b *stepCVRPBuilder) simplify() error {
	n := b.p.NumLocations()
	last := b.steps - 1
	for k := 0; k < b.p.Vehicles; k++ {
		if err := b.m.Fix(model.StepVarName(k, 0, 0), 1); err != nil {
			return err
		}
		if err := b.m.Fix(model.StepVarName(k, 0, last), 1); err != nil {
			return err
		}
		for i := 1; i < n; i++ {
			if err := b.m.Fix(model.StepVarName(k, i, 0), 0); err != nil {
				return err
			}
			if err := b.m.Fix(model.StepVarName(k, i, last), 0); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *stepCVRPBuilder) routeStarts(values map[string]float64) []int {
	n := b.p.NumLocations()
	starts := make([]int, b.p.Vehicles)
	for k := range starts {
		starts[k] = -1
		for s := 0; s < b.steps; s++ {
			if values[model.StepVarName(k, 0, s)] == 0 {
				starts[k] = b.locationAt(values, k, s, n)
				break
			}
		}
	}
	return starts
}

func (b *stepCVRPBuilder) nextLocation(values map[string]float64, cur int) (int, bool) {
	n := b.p.NumLocations()
	for k := 0; k < b.p.Vehicles; k++ {
		for s := 0; s < b.steps-1; s++ {
			if values[model.StepVarName(k, cur, s)] == 1 {
				next := b.locationAt(values, k, s+1, n)
				if next < 0 {
					return 0, false
				}
				return next, true
			}
		}
	}
	return 0, false
}

func (b *stepCVRPBuilder) feasible(map[string]float64) bool { return true }
