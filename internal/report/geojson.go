package report

import (
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"fleetsim/internal/domain"
	"fleetsim/internal/sim"
)

// MapBuilder renders world snapshots as a GeoJSON feature collection for a
// browser map: drivers as points, remaining driver routes and package
// pickup->dropoff legs as line strings. Regeneration is rate-limited
// independently of how often the collection is requested.
type MapBuilder struct {
	sim *sim.Simulator

	mu          sync.Mutex
	minInterval time.Duration
	lastBuild   time.Time
	cached      []byte
}

func NewMapBuilder(s *sim.Simulator, minInterval time.Duration) *MapBuilder {
	if minInterval <= 0 {
		minInterval = 2 * time.Second
	}
	return &MapBuilder{sim: s, minInterval: minInterval}
}

// GeoJSON returns the serialized feature collection, rebuilding it at most
// once per interval.
func (m *MapBuilder) GeoJSON() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil && time.Since(m.lastBuild) < m.minInterval {
		return m.cached, nil
	}

	fc := BuildFeatureCollection(m.sim.Snapshot())
	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, err
	}
	m.cached = data
	m.lastBuild = time.Now()
	return data, nil
}

func point(l domain.Location) orb.Point {
	return orb.Point{l.Lon, l.Lat}
}

// BuildFeatureCollection converts a snapshot into GeoJSON features. Pure;
// never mutates the snapshot.
func BuildFeatureCollection(snap sim.Snapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, d := range snap.Drivers {
		f := geojson.NewFeature(point(d.Location))
		f.Properties["kind"] = "driver"
		f.Properties["id"] = d.ID
		f.Properties["status"] = string(d.Status)
		fc.Append(f)

		if len(d.Route) > 1 {
			line := make(orb.LineString, 0, len(d.Route)+1)
			line = append(line, point(d.Location))
			for _, wp := range d.Route {
				line = append(line, point(wp))
			}
			rf := geojson.NewFeature(line)
			rf.Properties["kind"] = "route"
			rf.Properties["driver"] = d.ID
			fc.Append(rf)
		}
	}

	for _, p := range snap.Packages {
		pf := geojson.NewFeature(point(p.Pickup))
		pf.Properties["kind"] = "pickup"
		pf.Properties["id"] = p.ID
		pf.Properties["status"] = string(p.Status)
		fc.Append(pf)

		df := geojson.NewFeature(point(p.Dropoff))
		df.Properties["kind"] = "dropoff"
		df.Properties["id"] = p.ID
		df.Properties["status"] = string(p.Status)
		fc.Append(df)

		lf := geojson.NewFeature(orb.LineString{point(p.Pickup), point(p.Dropoff)})
		lf.Properties["kind"] = "leg"
		lf.Properties["id"] = p.ID
		fc.Append(lf)
	}

	return fc
}
