package core

import "time"

// DefaultBroadcastThreshold is the travel distance, in scene units, between two movement broadcasts.
const DefaultBroadcastThreshold = 5.0

// boundsMargin keeps the avatar fully inside the scene.
const boundsMargin = 20.0

// Input is the directional input state sampled on a scene tick.
type Input struct {
	Up    bool
	Down  bool
	Left  bool
	Right bool
}

// Idle reports whether no direction is pressed.
func (in Input) Idle() bool {
	return !in.Up && !in.Down && !in.Left && !in.Right
}

// Bounds limits self movement. The zero value means unbounded.
type Bounds struct {
	Width  float64
	Height float64
}

func (b Bounds) clamp(p Position) Position {
	if b.Width > 0 {
		p.X = clamp(p.X, boundsMargin, b.Width-boundsMargin)
	}
	if b.Height > 0 {
		p.Y = clamp(p.Y, boundsMargin, b.Height-boundsMargin)
	}
	return p
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SelfMoved is the outbound movement notification for the local participant.
type SelfMoved struct {
	Position  Position
	Direction string
}

// BroadcasterConfig tunes the movement broadcaster.
type BroadcasterConfig struct {
	Speed     float64 // scene units per second
	Threshold float64
	Bounds    Bounds
}

// Broadcaster owns Self and decides when its movement is worth sending.
// Outbound rate is bounded to one event per Threshold units of travel plus one on stop.
type Broadcaster struct {
	cfg     BroadcasterConfig
	self    Self
	moving  bool
	lastDir string
}

// NewBroadcaster starts tracking self at its current position. The starting position counts
// as already broadcast, since the join handshake carries it.
func NewBroadcaster(self Participant, cfg BroadcasterConfig) *Broadcaster {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultBroadcastThreshold
	}
	self.Position = cfg.Bounds.clamp(self.Position)
	if self.Facing == "" {
		self.Facing = "idle-down"
	}
	return &Broadcaster{
		cfg:     cfg,
		self:    Self{Participant: self, LastBroadcastPosition: self.Position},
		lastDir: "down",
	}
}

// Self returns a copy of the local participant state.
func (b *Broadcaster) Self() Self {
	return b.self
}

// Tick integrates one scene tick of input over dt and returns the event to send, if any.
func (b *Broadcaster) Tick(in Input, dt time.Duration, now time.Time) (SelfMoved, bool) {
	if in.Idle() {
		return b.Step(b.self.Position, "", now)
	}
	step := b.cfg.Speed * dt.Seconds()
	pos := b.self.Position
	dir := ""
	switch {
	case in.Left:
		pos.X -= step
		dir = "left"
	case in.Right:
		pos.X += step
		dir = "right"
	}
	switch {
	case in.Up:
		pos.Y -= step
		dir = "up"
	case in.Down:
		pos.Y += step
		dir = "down"
	}
	return b.Step(b.cfg.Bounds.clamp(pos), dir, now)
}

// Step records Self at pos heading in dir ("" when input is idle).
// A moving step is emitted once the distance from the last broadcast exceeds the threshold.
// The first idle step after movement is always emitted with an idle direction tag.
func (b *Broadcaster) Step(pos Position, dir string, now time.Time) (SelfMoved, bool) {
	if dir == "" {
		if !b.moving {
			return SelfMoved{}, false
		}
		b.moving = false
		b.self.Facing = "idle-" + b.lastDir
		return b.emit(now), true
	}

	b.moving = true
	b.lastDir = dir
	b.self.Facing = "walk-" + dir
	if pos == b.self.Position {
		return SelfMoved{}, false
	}
	b.self.Position = pos
	if pos.DistanceTo(b.self.LastBroadcastPosition) <= b.cfg.Threshold {
		return SelfMoved{}, false
	}
	return b.emit(now), true
}

// Teleport places Self at pos without emitting; the next broadcast is measured from pos.
func (b *Broadcaster) Teleport(pos Position) {
	pos = b.cfg.Bounds.clamp(pos)
	b.self.Position = pos
	b.self.LastBroadcastPosition = pos
}

// SetRoom rescopes Self to a new room.
func (b *Broadcaster) SetRoom(roomID string) {
	b.self.RoomID = roomID
}

func (b *Broadcaster) emit(now time.Time) SelfMoved {
	b.self.LastBroadcastPosition = b.self.Position
	b.self.LastBroadcastAt = now
	return SelfMoved{Position: b.self.Position, Direction: b.self.Facing}
}
