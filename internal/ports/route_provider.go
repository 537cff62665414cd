package ports

import (
	"context"

	"fleetsim/internal/domain"
)

// Travel estimate for a single leg between two locations.
type RouteEstimate struct {
	DurationSeconds float64
	DistanceMeters  float64
}

// Contract for retrieving road-route estimates between locations.
//
// Implementations are expected to degrade gracefully: a transient backend
// failure is recovered with a deterministic local estimate, not surfaced as
// an error. Errors are reserved for programming mistakes (bad arguments).
type RouteProvider interface {
	// GetRoute returns duration and distance for origin -> destination.
	GetRoute(ctx context.Context, origin, destination domain.Location) (RouteEstimate, error)

	// GetDurationMatrix returns pairwise travel times in seconds for the
	// given points, square with a zero diagonal. Fewer than two points yields
	// a 1x1 zero matrix.
	GetDurationMatrix(ctx context.Context, points []domain.Location) ([][]float64, error)
}
