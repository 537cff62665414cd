package routing

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fleetsim/internal/domain"
	"fleetsim/internal/ports"
)

var (
	testOrigin      = domain.Location{Lat: 19.07, Lon: 72.87}
	testDestination = domain.Location{Lat: 19.08, Lon: 72.88}
)

type memRouteCache struct {
	entries map[string]ports.RouteEstimate
}

func newMemRouteCache() *memRouteCache {
	return &memRouteCache{entries: make(map[string]ports.RouteEstimate)}
}

func cacheKey(origin, destination domain.Location) string {
	return fmt.Sprintf("%f,%f|%f,%f", origin.Lat, origin.Lon, destination.Lat, destination.Lon)
}

func (m *memRouteCache) Get(_ context.Context, origin, destination domain.Location) (ports.RouteEstimate, bool, error) {
	est, ok := m.entries[cacheKey(origin, destination)]
	return est, ok, nil
}

func (m *memRouteCache) Put(_ context.Context, origin, destination domain.Location, est ports.RouteEstimate) error {
	m.entries[cacheKey(origin, destination)] = est
	return nil
}

func TestGetRouteParsesBackendResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/route/v1/driving/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"Ok","routes":[{"duration":321.5,"distance":2500.0}]}`))
	}))
	defer srv.Close()

	p := NewOSRMProvider(srv.URL, time.Second, nil)
	est, err := p.GetRoute(context.Background(), testOrigin, testDestination)
	if err != nil {
		t.Fatalf("GetRoute: %v", err)
	}
	if est.DurationSeconds != 321.5 || est.DistanceMeters != 2500.0 {
		t.Fatalf("estimate = %+v, want 321.5s/2500m", est)
	}
}

func TestGetRouteFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewOSRMProvider(srv.URL, time.Second, nil)
	est, err := p.GetRoute(context.Background(), testOrigin, testDestination)
	if err != nil {
		t.Fatalf("GetRoute must not surface backend errors, got %v", err)
	}

	wantDist := testOrigin.HaversineMeters(testDestination)
	if math.Abs(est.DistanceMeters-wantDist) > 1e-6 {
		t.Fatalf("distance = %f, want haversine %f", est.DistanceMeters, wantDist)
	}
	if math.Abs(est.DurationSeconds-wantDist/fallbackSpeedMPS) > 1e-6 {
		t.Fatalf("duration = %f, want %f", est.DurationSeconds, wantDist/fallbackSpeedMPS)
	}
}

func TestGetRouteFallsBackWhenUnreachable(t *testing.T) {
	// Reserved TEST-NET-1 address, nothing listens there.
	p := NewOSRMProvider("http://192.0.2.1:5000", 50*time.Millisecond, nil)
	est, err := p.GetRoute(context.Background(), testOrigin, testDestination)
	if err != nil {
		t.Fatalf("GetRoute: %v", err)
	}
	if est.DistanceMeters <= 0 || est.DurationSeconds <= 0 {
		t.Fatalf("fallback estimate = %+v, want positive values", est)
	}
}

func TestGetDurationMatrixParsesTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"Ok","durations":[[0,120],[110,0]]}`))
	}))
	defer srv.Close()

	p := NewOSRMProvider(srv.URL, time.Second, nil)
	mat, err := p.GetDurationMatrix(context.Background(), []domain.Location{testOrigin, testDestination})
	if err != nil {
		t.Fatalf("GetDurationMatrix: %v", err)
	}
	if mat[0][1] != 120 || mat[1][0] != 110 {
		t.Fatalf("matrix = %v, want backend durations", mat)
	}
}

func TestGetDurationMatrixFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewOSRMProvider(srv.URL, time.Second, nil)
	points := []domain.Location{testOrigin, testDestination}
	mat, err := p.GetDurationMatrix(context.Background(), points)
	if err != nil {
		t.Fatalf("GetDurationMatrix: %v", err)
	}

	if len(mat) != 2 || len(mat[0]) != 2 || len(mat[1]) != 2 {
		t.Fatalf("matrix shape = %v, want 2x2", mat)
	}
	if mat[0][0] != 0 || mat[1][1] != 0 {
		t.Fatalf("diagonal = %f/%f, want zeros", mat[0][0], mat[1][1])
	}
	want := testOrigin.HaversineMeters(testDestination) / fallbackSpeedMPS
	if math.Abs(mat[0][1]-want) > 1e-6 {
		t.Fatalf("mat[0][1] = %f, want %f", mat[0][1], want)
	}
	if mat[0][1] != mat[1][0] {
		t.Fatalf("fallback matrix not symmetric: %f vs %f", mat[0][1], mat[1][0])
	}
}

func TestGetDurationMatrixSinglePoint(t *testing.T) {
	p := NewOSRMProvider("http://localhost:5000", time.Second, nil)
	mat, err := p.GetDurationMatrix(context.Background(), []domain.Location{testOrigin})
	if err != nil {
		t.Fatalf("GetDurationMatrix: %v", err)
	}
	if len(mat) != 1 || len(mat[0]) != 1 || mat[0][0] != 0 {
		t.Fatalf("matrix = %v, want [[0]]", mat)
	}
}

func TestGetDurationMatrixRejectsPartialTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"Ok","durations":[[0,null],[110,0]]}`))
	}))
	defer srv.Close()

	p := NewOSRMProvider(srv.URL, time.Second, nil)
	mat, err := p.GetDurationMatrix(context.Background(), []domain.Location{testOrigin, testDestination})
	if err != nil {
		t.Fatalf("GetDurationMatrix: %v", err)
	}
	// Unreachable cells poison the table, so the haversine fallback applies.
	if mat[0][1] <= 0 {
		t.Fatalf("mat[0][1] = %f, want positive fallback duration", mat[0][1])
	}
}

func TestGetRouteUsesCache(t *testing.T) {
	var backendCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backendCalls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"Ok","routes":[{"duration":100,"distance":1000}]}`))
	}))
	defer srv.Close()

	cache := newMemRouteCache()
	p := NewOSRMProvider(srv.URL, time.Second, cache)

	for i := 0; i < 3; i++ {
		est, err := p.GetRoute(context.Background(), testOrigin, testDestination)
		if err != nil {
			t.Fatalf("GetRoute %d: %v", i, err)
		}
		if est.DurationSeconds != 100 {
			t.Fatalf("GetRoute %d duration = %f, want 100", i, est.DurationSeconds)
		}
	}
	if backendCalls != 1 {
		t.Fatalf("backend calls = %d, want 1 (rest served from cache)", backendCalls)
	}
}
