package sim

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"fleetsim/internal/domain"
)

// Snapshot is an immutable point-in-time view of the world. Entries are deep
// copies; consumers can read them freely but mutations never reach the
// simulation.
type Snapshot struct {
	Time     time.Time         `json:"time"`
	Drivers  []*domain.Driver  `json:"drivers"`
	Packages []*domain.Package `json:"packages"`
}

// Simulator owns the authoritative fleet state and advances it in discrete
// ticks. All mutation goes through methods holding the write lock for the
// whole tick body, so the dispatcher and reporting loops always observe a
// consistent world.
type Simulator struct {
	mu        sync.RWMutex
	now       time.Time
	tickCount uint64

	drivers    []*domain.Driver
	packages   []*domain.Package
	driverIdx  map[string]*domain.Driver
	packageIdx map[string]*domain.Package
}

func NewSimulator() *Simulator {
	return &Simulator{
		now:        time.Now().UTC(),
		driverIdx:  make(map[string]*domain.Driver),
		packageIdx: make(map[string]*domain.Package),
	}
}

// AddDriver registers a driver with the world. IDs must be unique.
func (s *Simulator) AddDriver(d *domain.Driver) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d == nil {
		return fmt.Errorf("add driver: driver must be non-nil")
	}
	if _, ok := s.driverIdx[d.ID]; ok {
		return fmt.Errorf("add driver: duplicate id %q", d.ID)
	}
	s.drivers = append(s.drivers, d)
	s.driverIdx[d.ID] = d
	return nil
}

// AddPackage registers a package with the world. IDs must be unique.
func (s *Simulator) AddPackage(p *domain.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p == nil {
		return fmt.Errorf("add package: package must be non-nil")
	}
	if _, ok := s.packageIdx[p.ID]; ok {
		return fmt.Errorf("add package: duplicate id %q", p.ID)
	}
	s.packages = append(s.packages, p)
	s.packageIdx[p.ID] = p
	return nil
}

// SubmitOrder creates a pending package for a runtime order.
func (s *Simulator) SubmitOrder(pickup, dropoff domain.Location, priority int) (*domain.Package, error) {
	pkg := domain.NewPackage("pkg_"+uuid.NewString(), pickup, dropoff, priority)
	if err := s.AddPackage(pkg); err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}
	return pkg.Clone(), nil
}

// CreateDemoOrders seeds a couple of nearby demo packages.
func (s *Simulator) CreateDemoOrders() error {
	demo := []*domain.Package{
		domain.NewPackage("pkg_1",
			domain.Location{Lat: 19.07283, Lon: 72.88261},
			domain.Location{Lat: 19.08283, Lon: 72.89261}, 1),
		domain.NewPackage("pkg_2",
			domain.Location{Lat: 19.06283, Lon: 72.87261},
			domain.Location{Lat: 19.09283, Lon: 72.90261}, 1),
	}
	for _, p := range demo {
		if err := s.AddPackage(p); err != nil {
			return fmt.Errorf("create demo orders: %w", err)
		}
	}
	return nil
}

// Tick advances logical time by dt and moves every driver. A fault while
// advancing one driver is logged and does not stop the others; arrival
// events drive package pickup/dropoff transitions.
func (s *Simulator) Tick(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.now = s.now.Add(dt)
	s.tickCount++

	for _, d := range s.drivers {
		arrival, carried, err := advanceDriver(d, dt.Seconds())
		if err != nil {
			log.Printf("component=simulator tick=%d op=advance err=%v", s.tickCount, err)
			continue
		}
		if arrival != nil {
			s.handleArrival(d, *arrival, carried)
		}
	}
}

// advanceDriver isolates a single driver's motion update so one panicking
// driver cannot halt the fleet. The carried package ids are captured before
// the move because route completion clears them.
func advanceDriver(d *domain.Driver, dtSeconds float64) (arrival *domain.Location, carried []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("advance driver: %v", r)
		}
	}()
	carried = append([]string(nil), d.PackageIDs...)
	arrival = d.Advance(dtSeconds)
	return arrival, carried, nil
}

// handleArrival maps a waypoint arrival onto package lifecycle transitions:
// reaching an assigned package's pickup puts it in transit, reaching its
// dropoff delivers it. Transition refusals are logged, never fatal.
func (s *Simulator) handleArrival(d *domain.Driver, at domain.Location, carried []string) {
	for _, id := range carried {
		pkg, ok := s.packageIdx[id]
		if !ok {
			log.Printf("component=simulator driver=%s op=arrival unknown_package=%s", d.ID, id)
			continue
		}
		switch {
		case pkg.Status == domain.PackageAssigned && at.SamePoint(pkg.Pickup):
			if err := pkg.MarkInTransit(); err != nil {
				log.Printf("component=simulator driver=%s package=%s err=%v", d.ID, pkg.ID, err)
				continue
			}
			log.Printf("component=simulator driver=%s package=%s event=picked_up", d.ID, pkg.ID)
		case pkg.Status == domain.PackageInTransit && at.SamePoint(pkg.Dropoff):
			if err := pkg.MarkDelivered(); err != nil {
				log.Printf("component=simulator driver=%s package=%s err=%v", d.ID, pkg.ID, err)
				continue
			}
			log.Printf("component=simulator driver=%s package=%s event=delivered", d.ID, pkg.ID)
		}
	}
}

// Assign gives an idle driver a route serving one pending package. State is
// re-validated under the lock, so an assignment computed from a stale
// snapshot cannot double-book a driver or a package.
func (s *Simulator) Assign(driverID, packageID string, waypoints []domain.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.driverIdx[driverID]
	if !ok {
		return fmt.Errorf("assign: unknown driver %q", driverID)
	}
	pkg, ok := s.packageIdx[packageID]
	if !ok {
		return fmt.Errorf("assign: unknown package %q", packageID)
	}
	if pkg.Status != domain.PackagePending {
		return fmt.Errorf("assign: package %s is %s: %w", pkg.ID, pkg.Status, domain.ErrInvalidTransition)
	}

	if err := d.AssignRoute(waypoints, []string{packageID}); err != nil {
		return fmt.Errorf("assign: %w", err)
	}
	if err := pkg.MarkAssigned(driverID); err != nil {
		// Cannot happen after the pending check; unwind the route anyway.
		d.ClearRoute()
		return fmt.Errorf("assign: %w", err)
	}
	return nil
}

// Snapshot returns a deep copy of the current world state.
func (s *Simulator) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Time:     s.now,
		Drivers:  make([]*domain.Driver, 0, len(s.drivers)),
		Packages: make([]*domain.Package, 0, len(s.packages)),
	}
	for _, d := range s.drivers {
		snap.Drivers = append(snap.Drivers, d.Clone())
	}
	for _, p := range s.packages {
		snap.Packages = append(snap.Packages, p.Clone())
	}
	return snap
}

// TickCount returns the number of motion ticks processed so far.
func (s *Simulator) TickCount() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tickCount
}

// Run drives the motion loop until the context is cancelled. Each wall-clock
// tick advances simulated time by the same amount.
func (s *Simulator) Run(ctx context.Context, tick time.Duration) {
	log.Printf("component=simulator event=started tick=%s", tick)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("component=simulator event=stopped")
			return
		case <-ticker.C:
			s.Tick(tick)
		}
	}
}
