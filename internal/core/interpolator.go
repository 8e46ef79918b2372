package core

import (
	"math"
	"time"
)

const (
	// DefaultTweenDuration is how long a remote participant glides towards a new target.
	DefaultTweenDuration = 100 * time.Millisecond
	// DefaultSnapEpsilon is the per-axis distance under which updates snap instead of gliding.
	DefaultSnapEpsilon = 1.0
)

type tween struct {
	from     Position
	to       Position
	start    time.Time
	duration time.Duration
}

func (tw tween) at(now time.Time) Position {
	if tw.duration <= 0 {
		return tw.to
	}
	elapsed := now.Sub(tw.start)
	if elapsed <= 0 {
		return tw.from
	}
	if elapsed >= tw.duration {
		return tw.to
	}
	f := float64(elapsed) / float64(tw.duration)
	return Position{
		X: tw.from.X + (tw.to.X-tw.from.X)*f,
		Y: tw.from.Y + (tw.to.Y-tw.from.Y)*f,
	}
}

func (tw tween) done(now time.Time) bool {
	return now.Sub(tw.start) >= tw.duration
}

// Interpolator smooths rendered positions of remote participants.
// There is at most one tween per participant; a newer target replaces the running one.
type Interpolator struct {
	duration time.Duration
	epsilon  float64
	tracks   map[string]tween
}

// NewInterpolator creates an interpolator. Non-positive arguments select the defaults.
func NewInterpolator(duration time.Duration, epsilon float64) *Interpolator {
	if duration <= 0 {
		duration = DefaultTweenDuration
	}
	if epsilon <= 0 {
		epsilon = DefaultSnapEpsilon
	}
	return &Interpolator{
		duration: duration,
		epsilon:  epsilon,
		tracks:   make(map[string]tween),
	}
}

// Target sets a new target for id and reports whether id is gliding towards it.
// The first target seen for a participant is always snapped to, and repeating the
// current target leaves a running tween alone.
func (ip *Interpolator) Target(id string, target Position, now time.Time) bool {
	cur, ok := ip.tracks[id]
	if !ok {
		ip.tracks[id] = tween{from: target, to: target, start: now}
		return false
	}
	if cur.to == target {
		return ip.Animating(id, now)
	}
	rendered := cur.at(now)
	if math.Abs(rendered.X-target.X) <= ip.epsilon && math.Abs(rendered.Y-target.Y) <= ip.epsilon {
		ip.tracks[id] = tween{from: target, to: target, start: now}
		return false
	}
	ip.tracks[id] = tween{from: rendered, to: target, start: now, duration: ip.duration}
	return true
}

// Rendered returns the on-screen position of id at now.
func (ip *Interpolator) Rendered(id string, now time.Time) (Position, bool) {
	tw, ok := ip.tracks[id]
	if !ok {
		return Position{}, false
	}
	return tw.at(now), true
}

// Animating reports whether id has an unfinished tween at now.
func (ip *Interpolator) Animating(id string, now time.Time) bool {
	tw, ok := ip.tracks[id]
	return ok && tw.duration > 0 && !tw.done(now)
}

// Reset cancels every tween.
func (ip *Interpolator) Reset() {
	ip.tracks = make(map[string]tween)
}
