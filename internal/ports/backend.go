package ports

import (
	"context"
	"errors"

	"vrp-model-service/internal/formulation"
)

// The external solver reported that no assignment satisfies the model.
// Never retried here; surfaced straight to the caller.
var ErrInfeasible = errors.New("solver reported the model infeasible")

// Outcome of one backend solve: a variable assignment keyed by canonical
// variable name, plus the objective the backend reported for it. The
// assignment covers the variables the backend saw; fixed variables are
// re-inserted during decoding.
type SolveResult struct {
	Values    map[string]float64
	Objective float64
	Optimal   bool
}

// Contract for a solving backend. Render the compiled model into the
// native shape, run one synchronous solve, normalize the raw result.
type Backend interface {
	// Short identifier used in logs and run records.
	Name() string
	// Solve the compiled model. Returns ErrInfeasible when the backend
	// proves or reports infeasibility.
	Solve(ctx context.Context, built *formulation.Built) (*SolveResult, error)
}
