package core

import "math"

// Proximity radii used by the features that consume the gate.
const (
	RadiusChat   = 200.0
	RadiusVideo  = 150.0
	RadiusObject = 50.0
)

// Nearby returns online participants strictly closer than radius to origin, ordered by id.
// selfID is always excluded.
func Nearby(roster *Roster, selfID string, origin Position, radius float64) []Participant {
	out := make([]Participant, 0)
	if radius <= 0 {
		return out
	}
	for _, p := range roster.Online() {
		if p.ID == selfID {
			continue
		}
		if p.Position.DistanceTo(origin) < radius {
			out = append(out, p)
		}
	}
	return out
}

type gateKey struct {
	version uint64
	origin  Position
	radius  float64
}

// Gate memoizes Nearby per radius. A cached result is reused only while the roster
// version and the origin are unchanged, so it never lags behind its inputs.
// The feature radii keep one entry each; any other radius shares a single slot.
type Gate struct {
	roster *Roster
	selfID string
	pinned map[float64]*gateEntry
	adhoc  gateEntry
}

type gateEntry struct {
	key    gateKey
	valid  bool
	result []Participant
}

// NewGate creates a gate over roster for the local participant selfID. radii are cached
// next to RadiusChat, RadiusVideo and RadiusObject.
func NewGate(roster *Roster, selfID string, radii ...float64) *Gate {
	g := &Gate{roster: roster, selfID: selfID, pinned: make(map[float64]*gateEntry)}
	for _, r := range append([]float64{RadiusChat, RadiusVideo, RadiusObject}, radii...) {
		if r > 0 && !math.IsInf(r, 0) {
			g.pinned[r] = &gateEntry{}
		}
	}
	return g
}

// Within returns participants within radius of origin. A radius that is not a positive
// finite number matches nobody.
func (g *Gate) Within(origin Position, radius float64) []Participant {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return []Participant{}
	}
	key := gateKey{version: g.roster.Version(), origin: origin, radius: radius}
	e, ok := g.pinned[radius]
	if !ok {
		e = &g.adhoc
	}
	if e.valid && e.key == key {
		return cloneParticipants(e.result)
	}
	result := Nearby(g.roster, g.selfID, origin, radius)
	*e = gateEntry{key: key, valid: true, result: result}
	return cloneParticipants(result)
}

// cached reports how many results the gate holds.
func (g *Gate) cached() int {
	n := 0
	if g.adhoc.valid {
		n++
	}
	for _, e := range g.pinned {
		if e.valid {
			n++
		}
	}
	return n
}

func cloneParticipants(in []Participant) []Participant {
	out := make([]Participant, len(in))
	copy(out, in)
	return out
}
