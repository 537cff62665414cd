package sim

import (
	"context"
	"fmt"
	"log"
	"time"

	"fleetsim/internal/domain"
	"fleetsim/internal/platform/obs"
	"fleetsim/internal/ports"
)

// Dispatcher bridges idle drivers and pending packages. Every poll interval
// it takes a snapshot, greedily matches each idle driver to its nearest
// pending pickup, and commits the assignments back through the simulator.
type Dispatcher struct {
	sim     *Simulator
	routing ports.RouteProvider
	solver  ports.RouteSolver
	depot   domain.Location

	interval    time.Duration
	callTimeout time.Duration
	tick        uint64
}

func NewDispatcher(s *Simulator, routing ports.RouteProvider, solver ports.RouteSolver, depot domain.Location, interval, callTimeout time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = time.Second
	}
	if callTimeout <= 0 {
		callTimeout = 5 * time.Second
	}
	return &Dispatcher{
		sim:         s,
		routing:     routing,
		solver:      solver,
		depot:       depot,
		interval:    interval,
		callTimeout: callTimeout,
	}
}

// Run polls until the context is cancelled. A fault inside one tick is
// contained and logged; the next interval retries from a fresh snapshot.
func (d *Dispatcher) Run(ctx context.Context) {
	log.Printf("component=dispatcher event=started interval=%s", d.interval)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("component=dispatcher event=stopped")
			return
		case <-ticker.C:
			d.safeTick(ctx)
		}
	}
}

func (d *Dispatcher) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("component=dispatcher tick=%d event=tick_panic err=%v", d.tick, r)
		}
	}()
	if err := d.Tick(ctx); err != nil {
		log.Printf("component=dispatcher tick=%d event=tick_failed err=%v", d.tick, err)
	}
}

// Tick runs one dispatch pass. With no idle drivers or no pending packages
// it mutates nothing. Assignment is greedy and per-driver sequential: each
// idle driver, in world enumeration order, takes the pending package with
// the nearest pickup; taken packages leave the pool immediately so one
// package can never go to two drivers within a tick.
func (d *Dispatcher) Tick(ctx context.Context) error {
	d.tick++
	ctx = obs.WithTick(ctx, d.tick)

	snap := d.sim.Snapshot()

	var idle []*domain.Driver
	for _, drv := range snap.Drivers {
		if drv.Status == domain.DriverIdle {
			idle = append(idle, drv)
		}
	}
	pending := make([]*domain.Package, 0)
	for _, p := range snap.Packages {
		if p.Status == domain.PackagePending {
			pending = append(pending, p)
		}
	}
	if len(idle) == 0 || len(pending) == 0 {
		return nil
	}

	for _, drv := range idle {
		if len(pending) == 0 {
			break
		}

		// Nearest pickup by great-circle distance; linear scan, first of
		// equals wins so ties follow the original package order.
		best := 0
		bestDist := drv.Location.HaversineMeters(pending[0].Pickup)
		for i := 1; i < len(pending); i++ {
			if dist := drv.Location.HaversineMeters(pending[i].Pickup); dist < bestDist {
				best = i
				bestDist = dist
			}
		}
		pkg := pending[best]
		pending = append(pending[:best], pending[best+1:]...)

		d.fetchLegEstimates(ctx, drv, pkg)

		waypoints := []domain.Location{drv.Location, pkg.Pickup, pkg.Dropoff}
		if err := d.sim.Assign(drv.ID, pkg.ID, waypoints); err != nil {
			log.Printf("component=dispatcher tick=%d driver=%s package=%s event=assign_rejected err=%v",
				d.tick, drv.ID, pkg.ID, err)
			continue
		}
		log.Printf("component=dispatcher tick=%d driver=%s package=%s pickup_dist_m=%.0f event=assigned",
			d.tick, drv.ID, pkg.ID, bestDist)
	}
	return nil
}

// fetchLegEstimates asks the routing backend for the driver->pickup and
// pickup->dropoff legs. The results are informational: assigned waypoints
// stay the straight-line stops, and a routing failure never blocks the
// assignment.
func (d *Dispatcher) fetchLegEstimates(ctx context.Context, drv *domain.Driver, pkg *domain.Package) {
	if d.routing == nil {
		return
	}
	legCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	fetchLeg, err := d.routing.GetRoute(legCtx, drv.Location, pkg.Pickup)
	if err != nil {
		log.Printf("component=dispatcher tick=%d driver=%s package=%s leg=fetch err=%v", d.tick, drv.ID, pkg.ID, err)
		return
	}
	deliverLeg, err := d.routing.GetRoute(legCtx, pkg.Pickup, pkg.Dropoff)
	if err != nil {
		log.Printf("component=dispatcher tick=%d driver=%s package=%s leg=deliver err=%v", d.tick, drv.ID, pkg.ID, err)
		return
	}
	log.Printf("component=dispatcher tick=%d driver=%s package=%s fetch_s=%.0f deliver_s=%.0f total_m=%.0f",
		d.tick, drv.ID, pkg.ID, fetchLeg.DurationSeconds, deliverLeg.DurationSeconds,
		fetchLeg.DistanceMeters+deliverLeg.DistanceMeters)
}

// TourPlan is the result of a batch planning pass: balanced multi-vehicle
// tours over the pending pickups, expressed as indices into Points.
type TourPlan struct {
	Points []domain.Location `json:"points"`
	Tours  [][]int           `json:"tours"`
}

// PlanTours builds a duration matrix over [depot, pending pickups...] and
// asks the solver for balanced tours, one per driver. Read-only: the plan is
// advisory and does not mutate the world.
func (d *Dispatcher) PlanTours(ctx context.Context) (*TourPlan, error) {
	if d.routing == nil || d.solver == nil {
		return nil, fmt.Errorf("plan tours: routing and solver must be configured")
	}

	ctx, cancel := context.WithTimeout(obs.WithTick(ctx, d.tick), d.callTimeout)
	defer cancel()

	snap := d.sim.Snapshot()

	points := []domain.Location{d.depot}
	for _, p := range snap.Packages {
		if p.Status == domain.PackagePending {
			points = append(points, p.Pickup)
		}
	}

	vehicles := len(snap.Drivers)
	if vehicles == 0 {
		vehicles = 1
	}

	mat, err := d.routing.GetDurationMatrix(ctx, points)
	if err != nil {
		return nil, fmt.Errorf("plan tours: duration matrix: %w", err)
	}
	tours, err := d.solver.Solve(ctx, mat, vehicles, 0)
	if err != nil {
		return nil, fmt.Errorf("plan tours: solve: %w", err)
	}
	return &TourPlan{Points: points, Tours: tours}, nil
}
