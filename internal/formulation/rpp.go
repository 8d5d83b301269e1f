package formulation

import (
	"fmt"
	"sort"

	"vrp-model-service/internal/domain"
	"vrp-model-service/internal/model"
)

// Step-indexed builder for ride pooling. There is no depot: a synthetic
// start location takes compact index 0 with zero cost to leave, and only
// locations referenced by some trip are modeled. The compact index of a
// real location is its position in used plus one; decoded routes are
// re-expanded to global indices before they leave this package.
type rppBuilder struct {
	stepModel
	capacitated bool

	// Sorted global indices of locations referenced by trips. Sorting
	// keeps variable layout deterministic across runs.
	used    []int
	compact map[int]int
}

func newRPPBuilder(p *domain.Problem, m *model.Model, capacitated bool) *rppBuilder {
	b := &rppBuilder{capacitated: capacitated, compact: make(map[int]int)}
	seen := make(map[int]bool)
	for _, t := range p.Trips {
		seen[t.Origin] = true
		seen[t.Destination] = true
	}
	for i := range seen {
		b.used = append(b.used, i)
	}
	sort.Ints(b.used)
	for c, g := range b.used {
		b.compact[g] = c + 1
	}

	// Enough steps for every pickup and dropoff once, plus the start.
	b.stepModel = newStepModel(p, m, 2*len(p.Trips)+1)
	return b
}

// Modeled locations: the synthetic start plus the used subset.
func (b *rppBuilder) numLocations() int { return len(b.used) + 1 }

func (b *rppBuilder) build() error {
	n := b.numLocations()
	if err := b.createVars(n); err != nil {
		return err
	}
	b.createObjective()
	b.createLocationConstraints(n)
	b.createVehicleConstraints()
	if b.capacitated {
		b.createCapacityConstraints(n, func(i int) int { return b.p.Demand(b.used[i-1]) })
	}
	return b.simplify()
}

// Travel cost between used locations, a penalty for re-entering the
// start before the final step, and a subtracted incentive for placing
// each trip's pickup on an earlier step than its dropoff. The incentive
// is soft: it stands in for hard precedence constraints that would need
// more variables, so decoded results must be re-validated.
func (b *rppBuilder) createObjective() {
	n := b.numLocations()
	obj := b.m.Objective()

	for k := 0; k < b.p.Vehicles; k++ {
		for i := 1; i < n; i++ {
			for j := 1; j < n; j++ {
				coef := b.p.Distances.Between(b.used[i-1], b.used[j-1]) / b.norm
				for s := 0; s < b.steps-1; s++ {
					obj.AddQuadTerm(coef, model.StepVarName(k, i, s), model.StepVarName(k, j, s+1))
				}
			}
		}

		// Weight 1 is the normalized maximum: returning to the start is
		// never cheaper than serving another location.
		for i := 1; i < n; i++ {
			for s := 0; s < b.steps-1; s++ {
				obj.AddQuadTerm(1, model.StepVarName(k, i, s), model.StepVarName(k, 0, s+1))
			}
		}

		for _, t := range b.p.Trips {
			ci, cj := b.compact[t.Origin], b.compact[t.Destination]
			for s1 := 0; s1 < b.steps-1; s1++ {
				for s2 := s1 + 1; s2 < b.steps; s2++ {
					obj.AddQuadTerm(-1, model.StepVarName(k, ci, s1), model.StepVarName(k, cj, s2))
				}
			}
		}
	}
}

// One location per vehicle per step, except the final step which is
// half-hot: a vehicle that has finished its trips simply has no
// occupancy there, halving the final step's variable freedom.
func (b *rppBuilder) createVehicleConstraints() {
	n := b.numLocations()
	final := b.steps - 1
	for k := 0; k < b.p.Vehicles; k++ {
		for s := 0; s < final; s++ {
			c := model.Constraint{Label: fmt.Sprintf("occupancy_%d_%d", k, s), Sense: model.Equal, RHS: 1}
			for i := 0; i < n; i++ {
				c.Expr.AddTerm(1, model.StepVarName(k, i, s))
			}
			b.m.AddConstraint(c)
		}

		c := model.Constraint{Label: fmt.Sprintf("occupancy_%d_final", k), Sense: model.LessEqual, RHS: 1}
		for i := 1; i < n; i++ {
			c.Expr.AddTerm(1, model.StepVarName(k, i, final))
		}
		b.m.AddConstraint(c)
	}
}

// Pin what is structurally known: every vehicle is at the start on step
// 0 and never on the final step; no route's first hop is a dropoff and
// no route ends on a pickup.
func (b *rppBuilder) simplify() error {
	n := b.numLocations()
	final := b.steps - 1
	for k := 0; k < b.p.Vehicles; k++ {
		if err := b.m.Fix(model.StepVarName(k, 0, 0), 1); err != nil {
			return err
		}
		for i := 1; i < n; i++ {
			if err := b.m.Fix(model.StepVarName(k, i, 0), 0); err != nil {
				return err
			}
		}
		if err := b.m.Fix(model.StepVarName(k, 0, final), 0); err != nil {
			return err
		}

		for _, t := range b.p.Trips {
			if err := b.m.Fix(model.StepVarName(k, b.compact[t.Destination], 1), 0); err != nil {
				return err
			}
			if err := b.m.Fix(model.StepVarName(k, b.compact[t.Origin], final), 0); err != nil {
				return err
			}
		}
	}
	return nil
}

// Global location a vehicle occupies at a step, or -1 when it is at the
// synthetic start or absent.
func (b *rppBuilder) globalAt(values map[string]float64, k, s int) int {
	c := b.locationAt(values, k, s, b.numLocations())
	if c <= 0 {
		return -1
	}
	return b.used[c-1]
}

func (b *rppBuilder) routeStarts(values map[string]float64) []int {
	starts := make([]int, b.p.Vehicles)
	for k := range starts {
		starts[k] = -1
		for s := 0; s < b.steps; s++ {
			if values[model.StepVarName(k, 0, s)] == 0 {
				starts[k] = b.globalAt(values, k, s)
				break
			}
		}
	}
	return starts
}

func (b *rppBuilder) nextLocation(values map[string]float64, cur int) (int, bool) {
	ci, ok := b.compact[cur]
	if !ok {
		return 0, false
	}
	for k := 0; k < b.p.Vehicles; k++ {
		for s := 0; s < b.steps-1; s++ {
			if values[model.StepVarName(k, ci, s)] == 1 {
				next := b.globalAt(values, k, s+1)
				if next < 0 {
					return 0, false
				}
				return next, true
			}
		}
	}
	return 0, false
}

// Post-hoc check that every trip's pickup really lands on an earlier
// step than its dropoff on the same vehicle. The objective only rewards
// this; a minimal assignment can still skip a trip.
func (b *rppBuilder) feasible(values map[string]float64) bool {
	for _, t := range b.p.Trips {
		ci, cj := b.compact[t.Origin], b.compact[t.Destination]
		served := false
		for k := 0; k < b.p.Vehicles && !served; k++ {
			for s1 := 0; s1 < b.steps-1 && !served; s1++ {
				if values[model.StepVarName(k, ci, s1)] != 1 {
					continue
				}
				for s2 := s1 + 1; s2 < b.steps; s2++ {
					if values[model.StepVarName(k, cj, s2)] == 1 {
						served = true
						break
					}
				}
			}
		}
		if !served {
			return false
		}
	}
	return true
}
