package routing

import (
	"context"
	"fmt"

	"fleetsim/internal/domain"
	"fleetsim/internal/ports"
)

type MockLeg struct {
	From, To domain.Location
	Seconds  float64
	Meters   float64
}

// MockRouteProvider serves fixed per-leg estimates for tests. Unknown legs
// are an error so tests notice missing fixtures.
type MockRouteProvider struct {
	m map[string]ports.RouteEstimate
}

func legKey(a, b domain.Location) string {
	return fmt.Sprintf("%f,%f|%f,%f", a.Lat, a.Lon, b.Lat, b.Lon)
}

func NewMockRouteProvider(legs []MockLeg) *MockRouteProvider {
	m := make(map[string]ports.RouteEstimate, len(legs))
	for _, l := range legs {
		m[legKey(l.From, l.To)] = ports.RouteEstimate{DurationSeconds: l.Seconds, DistanceMeters: l.Meters}
	}
	return &MockRouteProvider{m: m}
}

func (p *MockRouteProvider) GetRoute(ctx context.Context, origin, destination domain.Location) (ports.RouteEstimate, error) {
	r, ok := p.m[legKey(origin, destination)]
	if !ok {
		return ports.RouteEstimate{}, fmt.Errorf("missing leg %v -> %v", origin, destination)
	}
	return r, nil
}

func (p *MockRouteProvider) GetDurationMatrix(ctx context.Context, points []domain.Location) ([][]float64, error) {
	if len(points) < 2 {
		return [][]float64{{0}}, nil
	}
	mat := make([][]float64, len(points))
	for i := range mat {
		mat[i] = make([]float64, len(points))
		for j := range mat[i] {
			if i == j {
				continue
			}
			r, ok := p.m[legKey(points[i], points[j])]
			if !ok {
				return nil, fmt.Errorf("missing leg %v -> %v", points[i], points[j])
			}
			mat[i][j] = r.DurationSeconds
		}
	}
	return mat, nil
}
