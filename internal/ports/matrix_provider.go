package ports

import (
	"context"

	"vrp-model-service/internal/domain"
)

// A 2-D point. Interpretation (planar units vs lon/lat) depends on the
// provider computing the matrix.
type Point struct {
	X float64
	Y float64
}

// Contract for turning coordinates into a full pairwise distance matrix.
// Local implementations are pure; remote ones call a routing service.
type MatrixProvider interface {
	Matrix(ctx context.Context, points []Point) (domain.DistanceMatrix, error)
}
