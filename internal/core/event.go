package core

// EventKind is a notification the engine emits to the surrounding application.
type EventKind int

const (
	// EventRosterChanged notifies that participants changed.
	EventRosterChanged EventKind = iota
	// EventConnectivity notifies about channel connect/disconnect.
	EventConnectivity
	// EventRejected notifies about a terminal session rejection.
	EventRejected
	// EventTyping notifies that a typing indicator started or stopped.
	EventTyping
	// EventReaction notifies that a reaction appeared or expired.
	EventReaction
	// EventRoomInfo notifies about room occupancy.
	EventRoomInfo
	// EventRoomSwitched notifies that room state was discarded for a new room.
	EventRoomSwitched
)

// Event describes what happened inside the engine.
type Event struct {
	Kind      EventKind
	Room      string
	IDs       []string
	Subject   string
	Reaction  string
	Active    bool
	Connected bool
	RoomInfo  RoomInfo
	Error     *CoreError
}

// OutboundKind is a message the engine wants sent over the event channel.
type OutboundKind int

const (
	// OutboundHello announces self and joins a room.
	OutboundHello OutboundKind = iota
	// OutboundSelfMoved broadcasts self movement.
	OutboundSelfMoved
	// OutboundTyping announces local typing.
	OutboundTyping
	// OutboundChat sends a chat message.
	OutboundChat
	// OutboundReaction sends a reaction.
	OutboundReaction
)

// Outbound is a message for the event channel.
type Outbound struct {
	Kind     OutboundKind
	Self     Participant
	Moved    SelfMoved
	Text     string
	Reaction string
}
