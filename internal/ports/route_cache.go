package ports

import (
	"context"

	"fleetsim/internal/domain"
)

// Optional persistent cache for route-leg estimates, keyed by coordinate
// pair. Providers consult it before calling the external routing service.
// A cache miss is (zero value, false, nil error).
type RouteCache interface {
	Get(ctx context.Context, origin, destination domain.Location) (RouteEstimate, bool, error)
	Put(ctx context.Context, origin, destination domain.Location, est RouteEstimate) error
}
