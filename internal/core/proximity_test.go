package core

import (
	"math"
	"testing"
)

func TestNearbyBoundaryExclusive(t *testing.T) {
	roster, rec := newTestReconciler()
	const r = 100.0
	eps := 1e-6
	rec.Snapshot([]Update{
		{ID: "edge", DisplayName: "edge", Position: pos(r, 0)},
		{ID: "inside", DisplayName: "inside", Position: pos(0, r-eps)},
		{ID: "diag", DisplayName: "diag", Position: pos(60, 80)},
	}, t0)

	got := Nearby(roster, selfID, Position{}, r)
	if len(got) != 1 || got[0].ID != "inside" {
		t.Fatalf("nearby = %+v, want only inside", got)
	}
}

func TestNearbyExcludesOfflineAndSelf(t *testing.T) {
	roster, rec := newTestReconciler()
	rec.Snapshot([]Update{
		{ID: "a", DisplayName: "a", Position: pos(1, 1)},
		{ID: "b", DisplayName: "b", Position: pos(2, 2)},
	}, t0)
	rec.Leave("b", "")

	got := Nearby(roster, "a", Position{}, 50)
	if len(got) != 0 {
		t.Fatalf("nearby = %+v, want none", got)
	}
	if got := Nearby(roster, selfID, Position{}, 0); len(got) != 0 {
		t.Fatalf("zero radius returned %+v", got)
	}
}

func inRange(g *Gate, origin Position, radius float64, id string) bool {
	for _, p := range g.Within(origin, radius) {
		if p.ID == id {
			return true
		}
	}
	return false
}

func TestGateTracksRosterAndOrigin(t *testing.T) {
	roster, rec := newTestReconciler()
	gate := NewGate(roster, selfID)
	rec.Snapshot([]Update{{ID: "a", DisplayName: "a", Position: pos(100, 0)}}, t0)

	if inRange(gate, Position{}, RadiusObject, "a") {
		t.Fatalf("a should be out of object range")
	}
	if !inRange(gate, Position{X: 60}, RadiusObject, "a") {
		t.Fatalf("origin change not picked up")
	}

	rec.Move(Update{ID: "a", Position: pos(500, 500)}, t0)
	if inRange(gate, Position{X: 60}, RadiusObject, "a") {
		t.Fatalf("roster change not picked up")
	}

	origin := Position{X: 500, Y: 500 - RadiusVideo + 1}
	if !inRange(gate, origin, RadiusVideo, "a") || !inRange(gate, origin, RadiusChat, "a") {
		t.Fatalf("radius-specific caches interfere")
	}
	if d := origin.DistanceTo(Position{X: 500, Y: 500}); math.Abs(d-(RadiusVideo-1)) > 1e-9 {
		t.Fatalf("distance = %v", d)
	}
}

func TestGateCacheIsBounded(t *testing.T) {
	roster, rec := newTestReconciler()
	gate := NewGate(roster, selfID, 120)
	rec.Snapshot([]Update{{ID: "a", DisplayName: "a", Position: pos(10, 0)}}, t0)

	for i := 1; i <= 1000; i++ {
		gate.Within(Position{}, float64(i))
	}
	for i := 0; i < 100; i++ {
		if got := gate.Within(Position{}, math.NaN()); len(got) != 0 {
			t.Fatalf("NaN radius matched %+v", got)
		}
	}
	if got := gate.Within(Position{}, math.Inf(1)); len(got) != 0 {
		t.Fatalf("infinite radius matched %+v", got)
	}

	// chat, video, object, the configured 120, and one shared slot.
	if n := gate.cached(); n > 5 {
		t.Fatalf("gate caches %d results", n)
	}
	if !inRange(gate, Position{}, 120, "a") || !inRange(gate, Position{}, 11, "a") || inRange(gate, Position{}, 10, "a") {
		t.Fatalf("bounded cache returned wrong results")
	}
}
