package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fleetsim/internal/domain"
	"fleetsim/internal/platform/obs"
	"fleetsim/internal/ports"
)

// SQLRouteCache is a SQL-backed cache for route-leg estimates, keyed by the
// coordinate pair. Coordinates are rendered at fixed precision so lookups by
// equal locations always hit the same row.
type SQLRouteCache struct {
	DB *sql.DB
}

func NewSQLRouteCache(db *sql.DB) *SQLRouteCache {
	return &SQLRouteCache{DB: db}
}

// InitSchema creates the cache table when it does not exist.
func (s *SQLRouteCache) InitSchema(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}
	q := `
	CREATE TABLE IF NOT EXISTS route_cache (
		origin      TEXT NOT NULL,
		destination TEXT NOT NULL,
		duration_s  DOUBLE PRECISION NOT NULL,
		distance_m  DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (origin, destination)
	);
	`
	if _, err := s.DB.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("route cache: init schema: %w", err)
	}
	return nil
}

func pointKey(l domain.Location) string {
	return fmt.Sprintf("%.6f,%.6f", l.Lat, l.Lon)
}

func (s *SQLRouteCache) Get(ctx context.Context, origin, destination domain.Location) (_ ports.RouteEstimate, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	if s.DB == nil {
		return ports.RouteEstimate{}, false, errors.New("route cache: db is nil")
	}

	q := `
	SELECT duration_s, distance_m
	FROM route_cache
	WHERE origin = $1 AND destination = $2;
	`

	var est ports.RouteEstimate
	row := s.DB.QueryRowContext(ctx, q, pointKey(origin), pointKey(destination))
	if err := row.Scan(&est.DurationSeconds, &est.DistanceMeters); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.RouteEstimate{}, false, nil
		}
		return ports.RouteEstimate{}, false, fmt.Errorf("route cache: get: %w", err)
	}
	return est, true, nil
}

func (s *SQLRouteCache) Put(ctx context.Context, origin, destination domain.Location, est ports.RouteEstimate) (err error) {
	defer obs.Time(ctx, "route.cache.Put")(&err)

	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}

	q := `
	INSERT INTO route_cache (origin, destination, duration_s, distance_m)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (origin, destination)
	DO UPDATE SET duration_s = EXCLUDED.duration_s, distance_m = EXCLUDED.distance_m;
	`

	if _, err := s.DB.ExecContext(ctx, q, pointKey(origin), pointKey(destination), est.DurationSeconds, est.DistanceMeters); err != nil {
		return fmt.Errorf("route cache: put: %w", err)
	}
	return nil
}
