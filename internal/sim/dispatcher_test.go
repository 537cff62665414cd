package sim

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fleetsim/internal/adapters/routing"
	"fleetsim/internal/domain"
	"fleetsim/internal/solver"
)

func newTestDispatcher(s *Simulator) *Dispatcher {
	return NewDispatcher(s, nil, nil, domain.Location{Lat: 19.075983, Lon: 72.877655}, time.Second, time.Second)
}

func TestDispatcherAssignsNearestPickup(t *testing.T) {
	s := NewSimulator()
	d := domain.NewDriver("driver_0", domain.Location{Lat: 19.07, Lon: 72.87}, 10)
	if err := s.AddDriver(d); err != nil {
		t.Fatalf("add driver: %v", err)
	}

	// far is listed first so the scan has to prefer the closer pickup.
	far := domain.NewPackage("pkg_far",
		domain.Location{Lat: 19.115, Lon: 72.87}, // ~5 km north
		domain.Location{Lat: 19.12, Lon: 72.88}, 1)
	near := domain.NewPackage("pkg_near",
		domain.Location{Lat: 19.0745, Lon: 72.87}, // ~500 m north
		domain.Location{Lat: 19.08, Lon: 72.88}, 1)
	for _, p := range []*domain.Package{far, near} {
		if err := s.AddPackage(p); err != nil {
			t.Fatalf("add package: %v", err)
		}
	}

	disp := newTestDispatcher(s)
	if err := disp.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	snap := s.Snapshot()
	for _, p := range snap.Packages {
		switch p.ID {
		case "pkg_near":
			if p.Status != domain.PackageAssigned || p.AssignedTo != "driver_0" {
				t.Fatalf("near package = %s/%s, want assigned/driver_0", p.Status, p.AssignedTo)
			}
		case "pkg_far":
			if p.Status != domain.PackagePending {
				t.Fatalf("far package = %s, want pending", p.Status)
			}
		}
	}
	for _, drv := range snap.Drivers {
		if drv.ID == "driver_0" && drv.Status != domain.DriverEnRoute {
			t.Fatalf("driver status = %s, want en_route", drv.Status)
		}
	}
}

func TestDispatcherNeverDoubleAssignsPackage(t *testing.T) {
	s := NewSimulator()
	base := domain.Location{Lat: 19.07, Lon: 72.87}
	for _, id := range []string{"driver_0", "driver_1"} {
		if err := s.AddDriver(domain.NewDriver(id, base, 10)); err != nil {
			t.Fatalf("add driver: %v", err)
		}
	}
	pkg := domain.NewPackage("pkg_1",
		domain.Location{Lat: 19.08, Lon: 72.88},
		domain.Location{Lat: 19.09, Lon: 72.89}, 1)
	if err := s.AddPackage(pkg); err != nil {
		t.Fatalf("add package: %v", err)
	}

	disp := newTestDispatcher(s)
	if err := disp.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	snap := s.Snapshot()
	var enRoute int
	for _, drv := range snap.Drivers {
		if drv.Status == domain.DriverEnRoute {
			enRoute++
		}
	}
	if enRoute != 1 {
		t.Fatalf("en_route drivers = %d, want exactly 1", enRoute)
	}
}

func TestDispatcherOneDriverTwoPackages(t *testing.T) {
	s := NewSimulator()
	if err := s.AddDriver(domain.NewDriver("driver_0", domain.Location{Lat: 19.07, Lon: 72.87}, 10)); err != nil {
		t.Fatalf("add driver: %v", err)
	}
	for _, id := range []string{"pkg_1", "pkg_2"} {
		pkg := domain.NewPackage(id,
			domain.Location{Lat: 19.08, Lon: 72.88},
			domain.Location{Lat: 19.09, Lon: 72.89}, 1)
		if err := s.AddPackage(pkg); err != nil {
			t.Fatalf("add package: %v", err)
		}
	}

	disp := newTestDispatcher(s)
	if err := disp.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	snap := s.Snapshot()
	var assigned, pendingCount int
	for _, p := range snap.Packages {
		switch p.Status {
		case domain.PackageAssigned:
			assigned++
		case domain.PackagePending:
			pendingCount++
		}
	}
	if assigned != 1 || pendingCount != 1 {
		t.Fatalf("assigned=%d pending=%d, want 1/1", assigned, pendingCount)
	}
}

func TestDispatcherTickNoopWithoutWork(t *testing.T) {
	s := NewSimulator()
	disp := newTestDispatcher(s)

	// Empty world.
	if err := disp.Tick(context.Background()); err != nil {
		t.Fatalf("tick on empty world: %v", err)
	}

	// Pending package but no drivers.
	pkg := domain.NewPackage("pkg_1",
		domain.Location{Lat: 19.08, Lon: 72.88},
		domain.Location{Lat: 19.09, Lon: 72.89}, 1)
	if err := s.AddPackage(pkg); err != nil {
		t.Fatalf("add package: %v", err)
	}
	if err := disp.Tick(context.Background()); err != nil {
		t.Fatalf("tick without drivers: %v", err)
	}
	if pkg.Status != domain.PackagePending {
		t.Fatalf("package status = %s, want pending", pkg.Status)
	}
}

func TestPlanToursCoversAllPendingPickups(t *testing.T) {
	s := NewSimulator()
	depot := domain.Location{Lat: 19.075983, Lon: 72.877655}
	for _, id := range []string{"driver_0", "driver_1"} {
		if err := s.AddDriver(domain.NewDriver(id, depot, 10)); err != nil {
			t.Fatalf("add driver: %v", err)
		}
	}

	pickups := []domain.Location{
		{Lat: 19.08, Lon: 72.88},
		{Lat: 19.09, Lon: 72.89},
		{Lat: 19.10, Lon: 72.90},
	}
	for i, pu := range pickups {
		pkg := domain.NewPackage(fmt.Sprintf("pkg_%d", i+1), pu, domain.Location{Lat: 19.12, Lon: 72.92}, 1)
		if err := s.AddPackage(pkg); err != nil {
			t.Fatalf("add package: %v", err)
		}
	}

	// Fixture legs for every ordered point pair in [depot, pickups...].
	points := append([]domain.Location{depot}, pickups...)
	var legs []routing.MockLeg
	for i, a := range points {
		for j, b := range points {
			if i == j {
				continue
			}
			legs = append(legs, routing.MockLeg{From: a, To: b, Seconds: a.HaversineMeters(b) / 11.11})
		}
	}
	provider := routing.NewMockRouteProvider(legs)

	disp := NewDispatcher(s, provider, solver.NewGreedySolver(), depot, time.Second, time.Second)
	plan, err := disp.PlanTours(context.Background())
	if err != nil {
		t.Fatalf("plan tours: %v", err)
	}

	if len(plan.Points) != len(points) {
		t.Fatalf("plan points = %d, want %d", len(plan.Points), len(points))
	}
	if len(plan.Tours) != 2 {
		t.Fatalf("tours = %d, want one per driver", len(plan.Tours))
	}

	visited := map[int]int{}
	for _, tour := range plan.Tours {
		if len(tour) == 0 || tour[0] != 0 {
			t.Fatalf("tour %v does not start at the depot", tour)
		}
		for _, node := range tour[1:] {
			visited[node]++
		}
	}
	for node := 1; node < len(points); node++ {
		if visited[node] != 1 {
			t.Fatalf("pickup node %d visited %d times, want exactly once (%v)", node, visited[node], plan.Tours)
		}
	}
}

func TestDispatcherTickIdempotentOnBusyFleet(t *testing.T) {
	s := NewSimulator()
	if err := s.AddDriver(domain.NewDriver("driver_0", domain.Location{Lat: 19.07, Lon: 72.87}, 10)); err != nil {
		t.Fatalf("add driver: %v", err)
	}
	pkg := domain.NewPackage("pkg_1",
		domain.Location{Lat: 19.08, Lon: 72.88},
		domain.Location{Lat: 19.09, Lon: 72.89}, 1)
	if err := s.AddPackage(pkg); err != nil {
		t.Fatalf("add package: %v", err)
	}

	disp := newTestDispatcher(s)
	for i := 0; i < 3; i++ {
		if err := disp.Tick(context.Background()); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	if pkg.AssignedTo != "driver_0" {
		t.Fatalf("assigned to %q, want driver_0", pkg.AssignedTo)
	}
	if pkg.Status != domain.PackageAssigned {
		t.Fatalf("status = %s after repeated ticks, want assigned", pkg.Status)
	}
}
