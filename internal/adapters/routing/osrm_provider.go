package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"fleetsim/internal/domain"
	"fleetsim/internal/platform/obs"
	"fleetsim/internal/ports"
)

// Average road speed assumed when the routing backend is unavailable:
// 40 km/h, expressed in meters per second.
const fallbackSpeedMPS = 11.11

// OSRMProvider implements RouteProvider against an OSRM HTTP server.
//
// Every lookup degrades to a deterministic haversine estimate when the
// backend is unreachable, slow, or returns a malformed body, so callers in
// the simulation hot path never observe an external failure. An optional
// RouteCache is consulted before issuing route calls; only genuine backend
// results are written back.
//
// The provider is safe for concurrent use.
type OSRMProvider struct {
	session *http.Client
	baseURL string
	cache   ports.RouteCache
}

func NewOSRMProvider(baseURL string, timeout time.Duration, cache ports.RouteCache) *OSRMProvider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &OSRMProvider{
		session: &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   cache,
	}
}

type osrmRouteResponse struct {
	Routes []struct {
		Duration float64 `json:"duration"`
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

type osrmTableResponse struct {
	Durations [][]*float64 `json:"durations"`
}

// coords renders locations as OSRM "lon,lat;lon,lat" path segments.
func coords(points []domain.Location) string {
	parts := make([]string, 0, len(points))
	for _, p := range points {
		parts = append(parts, fmt.Sprintf("%f,%f", p.Lon, p.Lat))
	}
	return strings.Join(parts, ";")
}

// GetRoute returns duration and distance for a single leg. Failures fall
// back to the haversine estimate and are never returned as errors.
func (o *OSRMProvider) GetRoute(ctx context.Context, origin, destination domain.Location) (_ ports.RouteEstimate, err error) {
	defer obs.Time(ctx, "osrm.GetRoute")(&err)

	if o.cache != nil {
		if est, ok, cerr := o.cache.Get(ctx, origin, destination); cerr != nil {
			log.Printf("component=routing op=cache_get err=%v", cerr)
		} else if ok {
			return est, nil
		}
	}

	est, fetchErr := o.fetchRoute(ctx, origin, destination)
	if fetchErr != nil {
		log.Printf("component=routing op=route fallback=haversine err=%v", fetchErr)
		return fallbackEstimate(origin, destination), nil
	}

	if o.cache != nil {
		if cerr := o.cache.Put(ctx, origin, destination, est); cerr != nil {
			log.Printf("component=routing op=cache_put err=%v", cerr)
		}
	}
	return est, nil
}

func (o *OSRMProvider) fetchRoute(ctx context.Context, origin, destination domain.Location) (ports.RouteEstimate, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%s?overview=false&steps=false&annotations=false",
		o.baseURL, coords([]domain.Location{origin, destination}))

	resp, err := o.doWithRetry(ctx, url)
	if err != nil {
		return ports.RouteEstimate{}, fmt.Errorf("route request: %w", err)
	}
	defer resp.Body.Close()

	var decoded osrmRouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.RouteEstimate{}, fmt.Errorf("decode route response: %w", err)
	}
	if len(decoded.Routes) == 0 {
		return ports.RouteEstimate{}, fmt.Errorf("route response has no routes")
	}

	return ports.RouteEstimate{
		DurationSeconds: decoded.Routes[0].Duration,
		DistanceMeters:  decoded.Routes[0].Distance,
	}, nil
}

// GetDurationMatrix returns pairwise travel times via the OSRM table
// endpoint, falling back to a full pairwise haversine matrix.
func (o *OSRMProvider) GetDurationMatrix(ctx context.Context, points []domain.Location) (_ [][]float64, err error) {
	defer obs.Time(ctx, "osrm.GetDurationMatrix")(&err)

	if len(points) < 2 {
		return [][]float64{{0}}, nil
	}

	mat, fetchErr := o.fetchTable(ctx, points)
	if fetchErr != nil {
		log.Printf("component=routing op=table fallback=haversine err=%v", fetchErr)
		return FallbackDurationMatrix(points), nil
	}
	return mat, nil
}

func (o *OSRMProvider) fetchTable(ctx context.Context, points []domain.Location) ([][]float64, error) {
	url := fmt.Sprintf("%s/table/v1/driving/%s?annotations=duration", o.baseURL, coords(points))

	resp, err := o.doWithRetry(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("table request: %w", err)
	}
	defer resp.Body.Close()

	var decoded osrmTableResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode table response: %w", err)
	}
	if len(decoded.Durations) != len(points) {
		return nil, fmt.Errorf("table returned %d rows for %d points", len(decoded.Durations), len(points))
	}

	mat := make([][]float64, len(points))
	for i, row := range decoded.Durations {
		if len(row) != len(points) {
			return nil, fmt.Errorf("table row %d has %d columns for %d points", i, len(row), len(points))
		}
		mat[i] = make([]float64, len(points))
		for j, cell := range row {
			if cell == nil {
				return nil, fmt.Errorf("table cell [%d][%d] is unreachable", i, j)
			}
			mat[i][j] = *cell
		}
	}
	return mat, nil
}

func fallbackEstimate(origin, destination domain.Location) ports.RouteEstimate {
	dist := origin.HaversineMeters(destination)
	var dur float64
	if dist > 0 {
		dur = dist / fallbackSpeedMPS
	}
	return ports.RouteEstimate{DurationSeconds: dur, DistanceMeters: dist}
}

// FallbackDurationMatrix builds the deterministic pairwise haversine matrix
// used when the table endpoint is unavailable. Diagonal entries are zero.
func FallbackDurationMatrix(points []domain.Location) [][]float64 {
	n := len(points)
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
		for j := range mat[i] {
			if i == j {
				continue
			}
			mat[i][j] = points[i].HaversineMeters(points[j]) / fallbackSpeedMPS
		}
	}
	return mat
}
