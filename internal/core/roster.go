package core

import (
	"sort"
	"time"
)

// Roster is the in-memory store of remote participants for exactly one room.
// Only the Reconciler mutates it; everything else reads.
type Roster struct {
	roomID   string
	entries  map[string]*Participant
	lastSeen map[string]time.Time
	version  uint64
}

// NewRoster creates an empty roster scoped to roomID.
func NewRoster(roomID string) *Roster {
	return &Roster{
		roomID:   roomID,
		entries:  make(map[string]*Participant),
		lastSeen: make(map[string]time.Time),
	}
}

// RoomID returns the room this roster belongs to.
func (r *Roster) RoomID() string {
	return r.roomID
}

// Version increases every time the roster content changes.
func (r *Roster) Version() uint64 {
	return r.version
}

// Len returns the number of known participants, online or not.
func (r *Roster) Len() int {
	return len(r.entries)
}

// Get returns a copy of the participant with the given id.
func (r *Roster) Get(id string) (Participant, bool) {
	p, ok := r.entries[id]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

// Snapshot returns copies of all participants ordered by id.
func (r *Roster) Snapshot() []Participant {
	out := make([]Participant, 0, len(r.entries))
	for _, p := range r.entries {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Online returns copies of online participants ordered by id.
func (r *Roster) Online() []Participant {
	out := make([]Participant, 0, len(r.entries))
	for _, p := range r.entries {
		if p.Online() {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// reset discards every entry and rescopes the roster to roomID.
func (r *Roster) reset(roomID string) {
	r.roomID = roomID
	r.entries = make(map[string]*Participant)
	r.lastSeen = make(map[string]time.Time)
	r.version++
}

// put stores p and reports whether the stored value changed.
func (r *Roster) put(p Participant) bool {
	if cur, ok := r.entries[p.ID]; ok && *cur == p {
		return false
	}
	stored := p
	r.entries[p.ID] = &stored
	r.version++
	return true
}

func (r *Roster) touch(id string, now time.Time) {
	r.lastSeen[id] = now
}
