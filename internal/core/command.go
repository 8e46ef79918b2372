package core

import "time"

// CommandKind describes what was delivered to the engine.
type CommandKind int

const (
	// CommandRosterSnapshot carries the full list of connected participants.
	CommandRosterSnapshot CommandKind = iota
	// CommandJoin carries one participant that just connected.
	CommandJoin
	// CommandLeave carries the id of a participant that disconnected.
	CommandLeave
	// CommandPositions carries the periodic bulk position snapshot.
	CommandPositions
	// CommandMove carries one participant's movement delta.
	CommandMove
	// CommandTyping reports that a remote participant is typing.
	CommandTyping
	// CommandReaction reports a remote participant's reaction.
	CommandReaction
	// CommandRoomInfo carries room occupancy.
	CommandRoomInfo
	// CommandConnectivity reports channel connect/disconnect.
	CommandConnectivity
	// CommandRejected reports a terminal rejection by the server.
	CommandRejected
	// CommandInput replaces the local directional input state.
	CommandInput
	// CommandLocalTyping reports a local keystroke in the chat box.
	CommandLocalTyping
	// CommandSendChat sends a chat message.
	CommandSendChat
	// CommandSendReaction sends a reaction.
	CommandSendReaction
	// CommandSwitchRoom discards all room state and joins another room.
	CommandSwitchRoom
	// CommandView requests a read-only view of the engine state.
	CommandView
	// CommandNearby requests a proximity query.
	CommandNearby

	commandTypingDue
)

// RoomInfo describes occupancy of the current room.
type RoomInfo struct {
	Room         string
	CurrentUsers int
	MaxUsers     int
}

// Command is one item on the engine's single event queue.
type Command struct {
	Kind        CommandKind
	Updates     []Update
	Update      Update
	ID          string
	DisplayName string
	Text        string
	Room        string
	Connected   bool
	Input       Input
	RoomInfo    RoomInfo
	Radius      float64
	Error       *CoreError

	view   chan View
	nearby chan []Participant
}

// RenderedParticipant is a participant with its interpolated on-screen position.
type RenderedParticipant struct {
	Participant
	Rendered Position
	Gliding  bool
}

// View is a consistent read-only copy of engine state.
type View struct {
	At           time.Time
	Self         Self
	Participants []RenderedParticipant
	Version      uint64
	Connected    bool
	Rejected     *CoreError
	RoomInfo     RoomInfo
	Typing       []string
	Reactions    map[string]string
}
