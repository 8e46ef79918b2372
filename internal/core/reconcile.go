package core

import (
	"time"

	"github.com/rs/zerolog"
)

// Reconciler merges inbound roster events into a Roster.
// Every method fails closed: invalid input is skipped, never reported as an error.
// Each method returns the ids whose stored state changed.
type Reconciler struct {
	roster *Roster
	selfID string
	log    *zerolog.Logger
}

// NewReconciler binds a reconciler to roster on behalf of the local participant selfID.
func NewReconciler(roster *Roster, selfID string, logger *zerolog.Logger) *Reconciler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Reconciler{roster: roster, selfID: selfID, log: logger}
}

func (r *Reconciler) ignored(id string) bool {
	return id == "" || id == r.selfID
}

// Snapshot applies a full roster snapshot. Listed participants become online;
// online participants missing from the list become offline.
func (r *Reconciler) Snapshot(updates []Update, now time.Time) []string {
	var changed []string
	listed := make(map[string]struct{}, len(updates))
	for _, u := range updates {
		if r.ignored(u.ID) {
			r.log.Debug().Str("participant_id", u.ID).Msg("snapshot entry skipped")
			continue
		}
		listed[u.ID] = struct{}{}
		next, ok := r.roster.Get(u.ID)
		if !ok {
			next = Participant{ID: u.ID}
		}
		mergeDisplay(&next, u)
		next.Status = StatusOnline
		next.RoomID = r.roster.roomID
		r.roster.touch(u.ID, now)
		if r.roster.put(next) {
			changed = append(changed, u.ID)
		}
	}
	return append(changed, r.demoteMissing(listed)...)
}

// Join applies an authoritative upsert for one participant.
func (r *Reconciler) Join(u Update, now time.Time) []string {
	if r.ignored(u.ID) {
		return nil
	}
	prev, _ := r.roster.Get(u.ID)
	next := Participant{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		AvatarRef:   u.AvatarRef,
		Position:    prev.Position,
		Facing:      u.Facing,
		Status:      StatusOnline,
		RoomID:      r.roster.roomID,
	}
	if u.Position != nil {
		next.Position = *u.Position
	}
	r.roster.touch(u.ID, now)
	if r.roster.put(next) {
		return []string{u.ID}
	}
	return nil
}

// Leave marks a participant offline. A leave for the local participant is ignored.
// Unknown ids are recorded as offline only when a display name is supplied.
func (r *Reconciler) Leave(id, displayName string) []string {
	if r.ignored(id) {
		return nil
	}
	next, ok := r.roster.Get(id)
	if !ok {
		if displayName == "" {
			return nil
		}
		next = Participant{ID: id, DisplayName: displayName, RoomID: r.roster.roomID}
	}
	next.Status = StatusOffline
	if r.roster.put(next) {
		return []string{id}
	}
	return nil
}

// Positions applies a bulk position snapshot. Listed participants become online with the
// new position; online participants missing from the list are demoted, offline ones stay put.
func (r *Reconciler) Positions(updates []Update, now time.Time) []string {
	var changed []string
	listed := make(map[string]struct{}, len(updates))
	for _, u := range updates {
		if r.ignored(u.ID) {
			continue
		}
		// A listed id is present even when its entry is unusable.
		listed[u.ID] = struct{}{}
		if u.Position == nil {
			r.log.Debug().Str("participant_id", u.ID).Msg("position entry without position dropped")
			continue
		}
		next, ok := r.roster.Get(u.ID)
		if !ok {
			if u.DisplayName == "" {
				r.log.Debug().Str("participant_id", u.ID).Msg("position for unknown participant ignored")
				continue
			}
			next = Participant{ID: u.ID}
		}
		mergeDisplay(&next, u)
		next.Status = StatusOnline
		next.RoomID = r.roster.roomID
		r.roster.touch(u.ID, now)
		if r.roster.put(next) {
			changed = append(changed, u.ID)
		}
	}
	return append(changed, r.demoteMissing(listed)...)
}

// Move patches position and facing of a single participant. It never changes status,
// so a delta arriving after a leave cannot bring the participant back online.
func (r *Reconciler) Move(u Update, now time.Time) []string {
	if r.ignored(u.ID) || u.Position == nil {
		return nil
	}
	next, ok := r.roster.Get(u.ID)
	if !ok {
		if u.DisplayName == "" {
			r.log.Debug().Str("participant_id", u.ID).Msg("movement for unknown participant ignored")
			return nil
		}
		next = Participant{ID: u.ID, Status: StatusOnline, RoomID: r.roster.roomID}
	}
	mergeDisplay(&next, u)
	r.roster.touch(u.ID, now)
	if r.roster.put(next) {
		return []string{u.ID}
	}
	return nil
}

// DemoteStale marks online participants offline when nothing was heard from them for longer
// than after. A zero or negative after disables the check.
func (r *Reconciler) DemoteStale(now time.Time, after time.Duration) []string {
	if after <= 0 {
		return nil
	}
	var changed []string
	for id, p := range r.roster.entries {
		if !p.Online() {
			continue
		}
		if seen, ok := r.roster.lastSeen[id]; ok && now.Sub(seen) <= after {
			continue
		}
		next := *p
		next.Status = StatusOffline
		if r.roster.put(next) {
			changed = append(changed, id)
		}
	}
	return changed
}

func (r *Reconciler) demoteMissing(listed map[string]struct{}) []string {
	var changed []string
	for id, p := range r.roster.entries {
		if _, ok := listed[id]; ok || !p.Online() {
			continue
		}
		next := *p
		next.Status = StatusOffline
		if r.roster.put(next) {
			changed = append(changed, id)
		}
	}
	return changed
}

// mergeDisplay copies the fields present in u onto p.
func mergeDisplay(p *Participant, u Update) {
	if u.DisplayName != "" {
		p.DisplayName = u.DisplayName
	}
	if u.AvatarRef != "" {
		p.AvatarRef = u.AvatarRef
	}
	if u.Position != nil {
		p.Position = *u.Position
	}
	if u.Facing != "" {
		p.Facing = u.Facing
	}
}
