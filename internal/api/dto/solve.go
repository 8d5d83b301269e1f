package dto

import (
	"encoding/json"
	"errors"
	"time"

	"vrp-model-service/internal/domain"
	"vrp-model-service/internal/ports"
)

// Capacity accepts either a single number (one shared bound) or a list
// (one bound per vehicle). Absent means unbounded.
type Capacity struct {
	Uniform    *int
	PerVehicle []int
}

func (c *Capacity) UnmarshalJSON(b []byte) error {
	var uniform int
	if err := json.Unmarshal(b, &uniform); err == nil {
		c.Uniform = &uniform
		return nil
	}
	var list []int
	if err := json.Unmarshal(b, &list); err == nil {
		c.PerVehicle = list
		return nil
	}
	return errors.New("capacity must be a number or a list of numbers")
}

func (c *Capacity) spec() domain.CapacitySpec {
	switch {
	case c == nil:
		return domain.NoCapacity()
	case c.Uniform != nil:
		return domain.UniformCapacity(*c.Uniform)
	default:
		return domain.PerVehicleCapacity(c.PerVehicle)
	}
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Trip struct {
	Origin      int `json:"origin"`
	Destination int `json:"destination"`
	Quantity    int `json:"quantity"`
}

// SolveRequest describes one problem instance. Locations come either as
// an explicit distance matrix or as points plus a metric name.
type SolveRequest struct {
	Backend  string      `json:"backend"`
	Vehicles int         `json:"vehicles"`
	Capacity *Capacity   `json:"capacity"`
	Demands  []int       `json:"demands"`
	Trips    []Trip      `json:"trips"`
	Matrix   [][]float64 `json:"matrix"`
	Points   []Point     `json:"points"`
	Metric   string      `json:"metric"`
}

// Problem converts the request into a domain instance, minus the
// distance matrix when points were sent instead.
func (r *SolveRequest) Problem() (*domain.Problem, error) {
	if len(r.Matrix) > 0 && len(r.Points) > 0 {
		return nil, errors.New("send either matrix or points, not both")
	}
	if len(r.Matrix) == 0 && len(r.Points) == 0 {
		return nil, errors.New("matrix or points is required")
	}

	p := &domain.Problem{
		Vehicles: r.Vehicles,
		Capacity: r.Capacity.spec(),
		Demands:  r.Demands,
	}
	for _, t := range r.Trips {
		p.Trips = append(p.Trips, domain.TripRequest{
			Origin:      t.Origin,
			Destination: t.Destination,
			Quantity:    t.Quantity,
		})
	}
	if len(r.Matrix) > 0 {
		p.Distances = domain.DistanceMatrix(r.Matrix)
	}
	return p, nil
}

// PortPoints converts the request points for a matrix provider.
func (r *SolveRequest) PortPoints() []ports.Point {
	pts := make([]ports.Point, 0, len(r.Points))
	for _, p := range r.Points {
		pts = append(pts, ports.Point{X: p.X, Y: p.Y})
	}
	return pts
}

type RouteResponse struct {
	Vehicle  int     `json:"vehicle"`
	Stops    []int   `json:"stops"`
	Loads    []int   `json:"loads,omitempty"`
	Distance float64 `json:"distance"`
}

type SolveResponse struct {
	RunID         string          `json:"run_id,omitempty"`
	Backend       string          `json:"backend"`
	Variant       string          `json:"variant,omitempty"`
	Objective     float64         `json:"objective"`
	TotalDistance float64         `json:"total_distance"`
	DurationMS    int64           `json:"duration_ms,omitempty"`
	Cached        bool            `json:"cached"`
	Routes        []RouteResponse `json:"routes"`
}

func NewSolveResponse(backend string, sol *domain.Solution, run *ports.SolveRun) SolveResponse {
	res := SolveResponse{
		Backend:       backend,
		Objective:     sol.Objective,
		TotalDistance: sol.TotalDistance(),
		Cached:        run == nil,
		Routes:        routeResponses(sol.Routes),
	}
	if run != nil {
		res.RunID = run.ID
		res.Variant = run.Variant
		res.DurationMS = run.DurationMS
	}
	return res
}

type RunResponse struct {
	ID            string          `json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	Variant       string          `json:"variant"`
	Backend       string          `json:"backend"`
	Vehicles      int             `json:"vehicles"`
	Locations     int             `json:"locations"`
	Variables     int             `json:"variables"`
	Constraints   int             `json:"constraints"`
	Objective     float64         `json:"objective"`
	TotalDistance float64         `json:"total_distance"`
	DurationMS    int64           `json:"duration_ms"`
	Routes        []RouteResponse `json:"routes"`
}

type ListRunsResponse struct {
	Runs []RunResponse `json:"runs"`
}

func NewRunResponse(run *ports.SolveRun) RunResponse {
	return RunResponse{
		ID:            run.ID,
		CreatedAt:     run.CreatedAt,
		Variant:       run.Variant,
		Backend:       run.Backend,
		Vehicles:      run.Vehicles,
		Locations:     run.Locations,
		Variables:     run.Variables,
		Constraints:   run.Constraints,
		Objective:     run.Objective,
		TotalDistance: run.TotalDistance,
		DurationMS:    run.DurationMS,
		Routes:        routeResponses(run.Routes),
	}
}

func routeResponses(routes []domain.Route) []RouteResponse {
	out := make([]RouteResponse, 0, len(routes))
	for _, r := range routes {
		out = append(out, RouteResponse{
			Vehicle:  r.Vehicle,
			Stops:    r.Stops,
			Loads:    r.Loads,
			Distance: r.Distance,
		})
	}
	return out
}

type BackendsResponse struct {
	Backends []string `json:"backends"`
}

// human-readable error body shared by the handlers
type ErrorResponse struct {
	Error string `json:"error"`
}
