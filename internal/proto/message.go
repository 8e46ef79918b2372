package proto

import "encoding/json"

// Envelope wraps every message on the event channel, in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	ProtocolVersion = 1

	// Server to client.
	TypeRosterSnapshot    = "roster-snapshot"
	TypeParticipantJoined = "participant-joined"
	TypeParticipantLeft   = "participant-left"
	TypePositionsSnapshot = "positions-snapshot"
	TypeParticipantMoved  = "participant-moved"
	TypeChatMessage       = "chat-message"
	TypeReaction          = "reaction"
	TypeTyping            = "typing"
	TypeRoomInfo          = "room-info"
	TypeRoomFull          = "room-full"
	TypeJoinRejected      = "join-rejected"
	TypeKicked            = "kicked"

	// Client to server.
	TypeHello    = "hello"
	TypeSelfMove = "self-moved"
)

// Point is a scene coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Participant describes a session member as sent by the server.
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	Position    *Point `json:"position,omitempty"`
	Facing      string `json:"facing,omitempty"`
	Room        string `json:"room,omitempty"`
}

// RosterSnapshotData lists every connected participant.
type RosterSnapshotData struct {
	Participants []Participant `json:"participants"`
}

// ParticipantLeftData identifies a participant that disconnected.
type ParticipantLeftData struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
}

// TypingData notifies that a participant is typing.
type TypingData struct {
	ID string `json:"id"`
}

// ReactionData carries a reaction. ID is empty on the client to server direction.
type ReactionData struct {
	ID       string `json:"id,omitempty"`
	Reaction string `json:"reaction"`
}

// ChatMessageData is a chat line. Its content is opaque to presence tracking.
type ChatMessageData struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
	TS   int64  `json:"ts,omitempty"`
}

// RoomInfoData describes occupancy of a room.
type RoomInfoData struct {
	Room         string `json:"room"`
	CurrentUsers int    `json:"currentUsers"`
	MaxUsers     int    `json:"maxUsers"`
}

// RejectData explains a terminal rejection (room full, duplicate identity, kick).
type RejectData struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// HelloData introduces the local participant and joins a room.
type HelloData struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar,omitempty"`
	Room        string `json:"room"`
	Position    Point  `json:"position"`
	Token       string `json:"token,omitempty"`
	Protocol    int    `json:"protocol,omitempty"`
}

// SelfMovedData broadcasts the local participant's movement.
type SelfMovedData struct {
	Position  Point  `json:"position"`
	Direction string `json:"direction"`
}
