package domain

import (
	"errors"
	"fmt"
)

// ErrDriverBusy is returned when a route is assigned to a driver that is
// already working one. Reassignment while en route is rejected rather than
// silently dropping the in-flight packages.
var ErrDriverBusy = errors.New("driver already has an active route")

// DriverStatus is the motion state of a driver.
// Delivering is reserved for a future stop-and-handover model.
type DriverStatus string

const (
	DriverIdle       DriverStatus = "idle"
	DriverEnRoute    DriverStatus = "en_route"
	DriverDelivering DriverStatus = "delivering"
)

// Driver is a simulated vehicle moving along an assigned sequence of
// waypoints. Invariants: status is Idle iff no waypoints remain; the route
// cursor never exceeds len(Route).
type Driver struct {
	ID         string       `json:"id"`
	Location   Location     `json:"location"`
	Status     DriverStatus `json:"status"`
	PackageIDs []string     `json:"package_ids,omitempty"`
	Route      []Location   `json:"route,omitempty"`
	SpeedMPS   float64      `json:"speed_mps"`

	cursor int
}

// Waypoint arrival threshold in meters. Below this the remaining distance is
// considered noise and the driver snaps onto the waypoint.
const arrivalThresholdMeters = 1.0

func NewDriver(id string, start Location, speedMPS float64) *Driver {
	return &Driver{
		ID:       id,
		Location: start,
		Status:   DriverIdle,
		SpeedMPS: speedMPS,
	}
}

// AssignRoute gives the driver a fresh route and the packages it serves.
// The driver must be idle; see ErrDriverBusy.
func (d *Driver) AssignRoute(waypoints []Location, packageIDs []string) error {
	if len(waypoints) == 0 {
		return fmt.Errorf("assign route: driver %s: waypoints must be non-empty", d.ID)
	}
	if d.Status != DriverIdle {
		return fmt.Errorf("assign route: driver %s is %s: %w", d.ID, d.Status, ErrDriverBusy)
	}
	d.Route = waypoints
	d.cursor = 0
	d.PackageIDs = packageIDs
	d.Status = DriverEnRoute
	return nil
}

// ClearRoute drops any remaining waypoints and returns the driver to idle.
func (d *Driver) ClearRoute() {
	d.Route = nil
	d.cursor = 0
	d.PackageIDs = nil
	d.Status = DriverIdle
}

// Advance moves the driver for dt seconds of simulated time. If the step
// reaches the next waypoint the driver snaps onto it and the waypoint is
// returned as an arrival event; at most one waypoint is consumed per tick.
// A driver whose route is exhausted resets itself to idle. The update is
// deterministic: identical state and dt always produce identical results.
func (d *Driver) Advance(dtSeconds float64) (arrival *Location) {
	if len(d.Route) == 0 || d.cursor >= len(d.Route) {
		if d.Status != DriverIdle {
			d.ClearRoute()
		}
		return nil
	}

	target := d.Route[d.cursor]
	dist := d.Location.HaversineMeters(target)
	step := d.SpeedMPS * dtSeconds

	if step >= dist || dist < arrivalThresholdMeters {
		// Snap exactly onto the waypoint so arrival matching can use
		// coordinate equality.
		d.Location = target
		d.cursor++
		if d.cursor >= len(d.Route) {
			loc := d.Location
			d.ClearRoute()
			d.Location = loc
		}
		return &target
	}

	// Planar interpolation toward the waypoint. Per-tick distances are
	// small, so skipping true great-circle interpolation is fine.
	f := step / dist
	d.Location = Location{
		Lat: d.Location.Lat + (target.Lat-d.Location.Lat)*f,
		Lon: d.Location.Lon + (target.Lon-d.Location.Lon)*f,
	}
	return nil
}

// RemainingWaypoints returns the part of the route not yet reached.
func (d *Driver) RemainingWaypoints() []Location {
	if d.cursor >= len(d.Route) {
		return nil
	}
	return d.Route[d.cursor:]
}

// Clone returns an independent copy for snapshot consumers. The remaining
// route is copied so readers cannot alias the live slice.
func (d *Driver) Clone() *Driver {
	cp := *d
	cp.Route = append([]Location(nil), d.RemainingWaypoints()...)
	cp.cursor = 0
	cp.PackageIDs = append([]string(nil), d.PackageIDs...)
	return &cp
}
