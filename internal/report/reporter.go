package report

import (
	"log"
	"sync"
	"time"

	"fleetsim/internal/domain"
	"fleetsim/internal/sim"
)

// Reporter writes periodic fleet status summaries to the log. It only ever
// reads snapshots and rate-limits itself, so schedule triggers and HTTP
// polls can fire as often as they like.
type Reporter struct {
	sim *sim.Simulator

	mu          sync.Mutex
	minInterval time.Duration
	lastEmit    time.Time
}

func NewReporter(s *sim.Simulator, minInterval time.Duration) *Reporter {
	if minInterval <= 0 {
		minInterval = 5 * time.Second
	}
	return &Reporter{sim: s, minInterval: minInterval}
}

// Emit logs the current fleet and package summary. Calls inside the minimum
// interval are dropped.
func (r *Reporter) Emit() {
	r.mu.Lock()
	if time.Since(r.lastEmit) < r.minInterval {
		r.mu.Unlock()
		return
	}
	r.lastEmit = time.Now()
	r.mu.Unlock()

	snap := r.sim.Snapshot()

	active := 0
	for _, d := range snap.Drivers {
		if d.Status != domain.DriverIdle {
			active++
		}
		log.Printf("component=report driver=%s status=%s lat=%.5f lon=%.5f stops_left=%d",
			d.ID, d.Status, d.Location.Lat, d.Location.Lon, len(d.Route))
	}

	counts := map[domain.PackageStatus]int{}
	for _, p := range snap.Packages {
		counts[p.Status]++
		log.Printf("component=report package=%s status=%s driver=%s",
			p.ID, p.Status, orUnassigned(p.AssignedTo))
	}

	log.Printf("component=report time=%s active_drivers=%d/%d pending=%d assigned=%d in_transit=%d delivered=%d",
		snap.Time.Format(time.RFC3339), active, len(snap.Drivers),
		counts[domain.PackagePending], counts[domain.PackageAssigned],
		counts[domain.PackageInTransit], counts[domain.PackageDelivered])
}

func orUnassigned(s string) string {
	if s == "" {
		return "unassigned"
	}
	return s
}
