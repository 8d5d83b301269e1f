package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vrp-model-service/internal/domain"
	"vrp-model-service/internal/formulation"
	"vrp-model-service/internal/platform/obs"
	"vrp-model-service/internal/ports"
)

var ErrUnknownBackend = errors.New("unknown backend")

// Orchestrates one solve: compile the problem, hand the model to the
// requested backend, decode the assignment into routes, and record the
// run. Repository and cache are optional; a nil value skips that step.
type Solver struct {
	backends map[string]ports.Backend
	repo     ports.RunRepository
	cache    ports.SolutionCache
	cacheTTL time.Duration
	log      zerolog.Logger
}

func NewSolver(backends []ports.Backend, repo ports.RunRepository, cache ports.SolutionCache, cacheTTL time.Duration, log zerolog.Logger) *Solver {
	byName := make(map[string]ports.Backend, len(backends))
	for _, b := range backends {
		byName[b.Name()] = b
	}
	return &Solver{backends: byName, repo: repo, cache: cache, cacheTTL: cacheTTL, log: log}
}

// Names of the registered backends.
func (s *Solver) Backends() []string {
	names := make([]string, 0, len(s.backends))
	for name := range s.backends {
		names = append(names, name)
	}
	return names
}

// Solve compiles and solves the problem on the named backend.
func (s *Solver) Solve(ctx context.Context, p *domain.Problem, backendName string) (sol *domain.Solution, run *ports.SolveRun, err error) {
	defer obs.Time(ctx, "solve")(&err)

	backend, ok := s.backends[backendName]
	if !ok {
		return nil, nil, fmt.Errorf("solve: %w: %q", ErrUnknownBackend, backendName)
	}

	built, err := formulation.Build(p)
	if err != nil {
		return nil, nil, fmt.Errorf("solve: %w", err)
	}

	key := fingerprint(p, backendName)
	if s.cache != nil {
		cached, hit, cerr := s.cache.Get(ctx, key)
		if cerr != nil {
			// Cache trouble is not fatal; solve anyway.
			s.log.Warn().Err(cerr).Msg("solution cache lookup failed")
		} else if hit {
			s.log.Info().Str("backend", backendName).Str("variant", built.Variant.String()).Msg("solution cache hit")
			return cached, nil, nil
		}
	}

	start := time.Now()
	result, err := backend.Solve(ctx, built)
	if err != nil {
		return nil, nil, fmt.Errorf("solve on %s: %w", backendName, err)
	}

	sol, err = built.Decode(result.Values, result.Objective)
	if err != nil {
		return nil, nil, fmt.Errorf("solve on %s: %w", backendName, err)
	}

	run = &ports.SolveRun{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Variant:       built.Variant.String(),
		Backend:       backendName,
		Vehicles:      p.Vehicles,
		Locations:     p.NumLocations(),
		Variables:     built.Model.NumVariables(),
		Constraints:   len(built.Model.Constraints()),
		Objective:     sol.Objective,
		TotalDistance: sol.TotalDistance(),
		DurationMS:    time.Since(start).Milliseconds(),
		Routes:        sol.Routes,
	}

	if s.repo != nil {
		if rerr := s.repo.SaveRun(ctx, run); rerr != nil {
			s.log.Warn().Err(rerr).Str("run_id", run.ID).Msg("failed to persist solve run")
		}
	}
	if s.cache != nil {
		if cerr := s.cache.Put(ctx, key, sol, s.cacheTTL); cerr != nil {
			s.log.Warn().Err(cerr).Msg("failed to cache solution")
		}
	}

	s.log.Info().
		Str("run_id", run.ID).
		Str("backend", backendName).
		Str("variant", built.Variant.String()).
		Float64("objective", sol.Objective).
		Float64("total_distance", sol.TotalDistance()).
		Int64("duration_ms", run.DurationMS).
		Msg("solve finished")
	return sol, run, nil
}

// Stable cache key over the parts of the problem that shape the model.
func fingerprint(p *domain.Problem, backend string) string {
	h := sha256.New()
	fmt.Fprintf(h, "b=%s;v=%d;c=%d/%d/%v;d=%v;t=%v;", backend, p.Vehicles, p.Capacity.Kind, p.Capacity.Uniform, p.Capacity.PerVehicle, p.Demands, p.Trips)
	for _, row := range p.Distances {
		fmt.Fprintf(h, "%v;", row)
	}
	return hex.EncodeToString(h.Sum(nil))
}
