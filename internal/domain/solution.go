package domain

// The ordered stops travelled by one vehicle, with the load carried after
// each stop and the total distance of the leg sequence.
type Route struct {
	Vehicle  int
	Stops    []int
	Loads    []int
	Distance float64
}

// A decoded routing solution. Routes is indexed by vehicle; vehicles that
// serve nothing get an empty (or depot-only) route. Objective is the value
// reported by the backend for the rendered model, which may be normalized
// and so differ from TotalDistance.
type Solution struct {
	Routes    []Route
	Objective float64
}

// Sum of per-route distances in matrix units.
func (s *Solution) TotalDistance() float64 {
	total := 0.0
	for _, r := range s.Routes {
		total += r.Distance
	}
	return total
}
