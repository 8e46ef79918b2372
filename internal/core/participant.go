package core

import (
	"math"
	"time"
)

// Status is the connection status of a participant as last reported by the session server.
type Status int

const (
	// StatusOffline marks a participant that left or disappeared from the session.
	StatusOffline Status = iota
	// StatusOnline marks a participant currently connected to the session.
	StatusOnline
)

func (s Status) String() string {
	switch s {
	case StatusOnline:
		return "online"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Position is a point in scene coordinates.
type Position struct {
	X float64
	Y float64
}

// DistanceTo returns the Euclidean distance between two positions.
func (p Position) DistanceTo(o Position) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Participant is a remote member of the current session.
type Participant struct {
	ID          string
	DisplayName string
	AvatarRef   string
	Position    Position
	Facing      string
	Status      Status
	RoomID      string
}

// Online reports whether the participant is connected.
func (p Participant) Online() bool {
	return p.Status == StatusOnline
}

// Update carries partial participant knowledge from one inbound event.
// Empty strings and a nil Position mean "not present in the payload".
type Update struct {
	ID          string
	DisplayName string
	AvatarRef   string
	Position    *Position
	Facing      string
}

// Self is the local participant. It is never stored in the roster.
type Self struct {
	Participant
	LastBroadcastPosition Position
	LastBroadcastAt       time.Time
}
