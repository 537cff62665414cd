package domain

import (
	"math"
	"testing"
)

func TestHaversineZeroForSamePoint(t *testing.T) {
	a := Location{Lat: 19.0, Lon: 72.0}
	if d := a.HaversineMeters(a); d != 0 {
		t.Fatalf("distance to self = %f, want 0", d)
	}
}

func TestHaversineSymmetric(t *testing.T) {
	a := Location{Lat: 19.0, Lon: 72.0}
	b := Location{Lat: 18.52, Lon: 73.85}

	ab := a.HaversineMeters(b)
	ba := b.HaversineMeters(a)
	if math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("asymmetric distance: a->b=%f b->a=%f", ab, ba)
	}
}

func TestHaversineSmallDelta(t *testing.T) {
	a := Location{Lat: 19.0, Lon: 72.0}
	b := Location{Lat: 19.0001, Lon: 72.0001}

	d := a.HaversineMeters(b)
	if d <= 0 {
		t.Fatalf("distance = %f, want > 0", d)
	}
	// ~15m for these deltas; anything over 200m means broken math.
	if d >= 200 {
		t.Fatalf("distance = %f, want < 200", d)
	}
}

func TestHaversineIgnoresAddress(t *testing.T) {
	a := Location{Lat: 19.0, Lon: 72.0, Address: "depot"}
	b := Location{Lat: 19.0, Lon: 72.0}
	if d := a.HaversineMeters(b); d != 0 {
		t.Fatalf("distance = %f, want 0 regardless of address", d)
	}
	if !a.SamePoint(b) {
		t.Fatal("SamePoint should ignore address")
	}
}
