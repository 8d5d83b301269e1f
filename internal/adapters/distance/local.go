package distance

import (
	"context"
	"fmt"
	"math"

	"vrp-model-service/internal/domain"
	"vrp-model-service/internal/ports"
)

// Metric names accepted by NewLocalProvider.
const (
	MetricManhattan = "manhattan"
	MetricEuclidean = "euclidean"
	MetricHaversine = "haversine"
)

const earthRadiusMeters = 6371000

// LocalProvider computes a pairwise distance matrix in-process from a
// point metric. No external calls, so it ignores context cancellation.
type LocalProvider struct {
	metric string
	fn     func(a, b ports.Point) float64
}

func NewLocalProvider(metric string) (*LocalProvider, error) {
	var fn func(a, b ports.Point) float64
	switch metric {
	case MetricManhattan:
		fn = manhattan
	case MetricEuclidean:
		fn = euclidean
	case MetricHaversine:
		fn = haversine
	default:
		return nil, fmt.Errorf("unknown distance metric %q", metric)
	}
	return &LocalProvider{metric: metric, fn: fn}, nil
}

func (p *LocalProvider) Matrix(_ context.Context, points []ports.Point) (domain.DistanceMatrix, error) {
	n := len(points)
	if n == 0 {
		return nil, domain.ErrNoLocations
	}
	m := make(domain.DistanceMatrix, n)
	for i := range points {
		m[i] = make([]float64, n)
		for j := range points {
			if i != j {
				m[i][j] = p.fn(points[i], points[j])
			}
		}
	}
	return m, nil
}

func manhattan(a, b ports.Point) float64 {
	return math.Abs(a.X-b.X) + math.Abs(a.Y-b.Y)
}

func euclidean(a, b ports.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// haversine treats X as longitude and Y as latitude, in degrees, and
// returns the great-circle distance in meters.
func haversine(a, b ports.Point) float64 {
	lat1 := a.Y * math.Pi / 180
	lat2 := b.Y * math.Pi / 180
	dLat := (b.Y - a.Y) * math.Pi / 180
	dLon := (b.X - a.X) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
