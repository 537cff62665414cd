package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fleetsim/internal/domain"
	"fleetsim/internal/ports"
)

// RedisRouteCache stores route-leg estimates in Redis with a TTL.
// Values are encoded as "duration_s|distance_m".
type RedisRouteCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisRouteCache(client *redis.Client, ttl time.Duration) *RedisRouteCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisRouteCache{Client: client, TTL: ttl}
}

func legCacheKey(origin, destination domain.Location) string {
	return "route:" + pointKey(origin) + "|" + pointKey(destination)
}

func (r *RedisRouteCache) Get(ctx context.Context, origin, destination domain.Location) (ports.RouteEstimate, bool, error) {
	if r.Client == nil {
		return ports.RouteEstimate{}, false, errors.New("route cache: redis client is nil")
	}

	val, err := r.Client.Get(ctx, legCacheKey(origin, destination)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ports.RouteEstimate{}, false, nil
		}
		return ports.RouteEstimate{}, false, fmt.Errorf("route cache: get: %w", err)
	}

	var est ports.RouteEstimate
	if _, err := fmt.Sscanf(val, "%f|%f", &est.DurationSeconds, &est.DistanceMeters); err != nil {
		return ports.RouteEstimate{}, false, fmt.Errorf("route cache: decode %q: %w", val, err)
	}
	return est, true, nil
}

func (r *RedisRouteCache) Put(ctx context.Context, origin, destination domain.Location, est ports.RouteEstimate) error {
	if r.Client == nil {
		return errors.New("route cache: redis client is nil")
	}

	val := fmt.Sprintf("%f|%f", est.DurationSeconds, est.DistanceMeters)
	if err := r.Client.Set(ctx, legCacheKey(origin, destination), val, r.TTL).Err(); err != nil {
		return fmt.Errorf("route cache: put: %w", err)
	}
	return nil
}
