package ports

import (
	"context"
	"errors"
	"time"

	"vrp-model-service/internal/domain"
)

// Returned by GetRun when no run carries the requested id.
var ErrRunNotFound = errors.New("solve run not found")

// Persistent record of one solve run.
type SolveRun struct {
	ID            string
	CreatedAt     time.Time
	Variant       string
	Backend       string
	Vehicles      int
	Locations     int
	Variables     int
	Constraints   int
	Objective     float64
	TotalDistance float64
	DurationMS    int64
	Routes        []domain.Route
}

// Port: a boundary for persisting and retrieving solve runs.
type RunRepository interface {
	SaveRun(ctx context.Context, run *SolveRun) error
	GetRun(ctx context.Context, id string) (*SolveRun, error)
	ListRuns(ctx context.Context, limit int) ([]*SolveRun, error)
}

// Port: a boundary for caching decoded solutions keyed by a problem
// fingerprint.
type SolutionCache interface {
	Get(ctx context.Context, key string) (*domain.Solution, bool, error)
	Put(ctx context.Context, key string, sol *domain.Solution, ttl time.Duration) error
}
