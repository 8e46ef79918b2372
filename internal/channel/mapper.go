package channel

import (
	"fmt"

	"github.com/vovakirdan/wirespace/internal/core"
	"github.com/vovakirdan/wirespace/internal/proto"
)

// inboundToCommand maps a server message to an engine command.
// The bool is false for messages the engine does not consume.
func inboundToCommand(env proto.Envelope) (core.Command, bool, error) {
	switch env.Type {
	case proto.TypeRosterSnapshot:
		snap, err := proto.Decode[proto.RosterSnapshotData](env)
		if err != nil {
			return core.Command{}, false, err
		}
		return core.Command{Kind: core.CommandRosterSnapshot, Updates: toUpdates(snap.Participants)}, true, nil
	case proto.TypeParticipantJoined:
		p, err := decodeWithID[proto.Participant](env, func(p proto.Participant) string { return p.ID })
		if err != nil {
			return core.Command{}, false, err
		}
		return core.Command{Kind: core.CommandJoin, Update: toUpdate(p)}, true, nil
	case proto.TypeParticipantLeft:
		left, err := decodeWithID[proto.ParticipantLeftData](env, func(l proto.ParticipantLeftData) string { return l.ID })
		if err != nil {
			return core.Command{}, false, err
		}
		return core.Command{Kind: core.CommandLeave, ID: left.ID, DisplayName: left.DisplayName}, true, nil
	case proto.TypePositionsSnapshot:
		ps, err := proto.Decode[[]proto.Participant](env)
		if err != nil {
			return core.Command{}, false, err
		}
		return core.Command{Kind: core.CommandPositions, Updates: toUpdates(ps)}, true, nil
	case proto.TypeParticipantMoved:
		p, err := decodeWithID[proto.Participant](env, func(p proto.Participant) string { return p.ID })
		if err != nil {
			return core.Command{}, false, err
		}
		if p.Position == nil {
			return core.Command{}, false, proto.ErrMalformed
		}
		return core.Command{Kind: core.CommandMove, Update: toUpdate(p)}, true, nil
	case proto.TypeTyping:
		typing, err := decodeWithID[proto.TypingData](env, func(d proto.TypingData) string { return d.ID })
		if err != nil {
			return core.Command{}, false, err
		}
		return core.Command{Kind: core.CommandTyping, ID: typing.ID}, true, nil
	case proto.TypeReaction:
		r, err := decodeWithID[proto.ReactionData](env, func(d proto.ReactionData) string { return d.ID })
		if err != nil {
			return core.Command{}, false, err
		}
		return core.Command{Kind: core.CommandReaction, ID: r.ID, Text: r.Reaction}, true, nil
	case proto.TypeRoomInfo:
		info, err := proto.Decode[proto.RoomInfoData](env)
		if err != nil {
			return core.Command{}, false, err
		}
		return core.Command{Kind: core.CommandRoomInfo, RoomInfo: core.RoomInfo{
			Room:         info.Room,
			CurrentUsers: info.CurrentUsers,
			MaxUsers:     info.MaxUsers,
		}}, true, nil
	case proto.TypeRoomFull, proto.TypeJoinRejected, proto.TypeKicked:
		return core.Command{Kind: core.CommandRejected, Error: rejection(env)}, true, nil
	default:
		return core.Command{}, false, nil
	}
}

// rejection never fails: a terminal condition is reported even when its payload is unreadable.
func rejection(env proto.Envelope) *core.CoreError {
	var data proto.RejectData
	if len(env.Data) > 0 {
		data, _ = proto.Decode[proto.RejectData](env)
	}
	code := data.Code
	switch env.Type {
	case proto.TypeRoomFull:
		code = core.ErrCodeRoomFull
	case proto.TypeKicked:
		code = core.ErrCodeKicked
	default:
		if code == "" {
			code = core.ErrCodeJoinFailed
		}
	}
	msg := data.Message
	if msg == "" {
		msg = env.Type
	}
	return core.NewCoreError(code, msg)
}

func decodeWithID[T any](env proto.Envelope, id func(T) string) (T, error) {
	v, err := proto.Decode[T](env)
	if err != nil {
		return v, err
	}
	if id(v) == "" {
		return v, proto.ErrMalformed
	}
	return v, nil
}

func toUpdates(ps []proto.Participant) []core.Update {
	out := make([]core.Update, 0, len(ps))
	for _, p := range ps {
		out = append(out, toUpdate(p))
	}
	return out
}

func toUpdate(p proto.Participant) core.Update {
	u := core.Update{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		AvatarRef:   p.Avatar,
		Facing:      p.Facing,
	}
	if p.Position != nil {
		u.Position = &core.Position{X: p.Position.X, Y: p.Position.Y}
	}
	return u
}

// outboundToEnvelope maps an engine message to the wire. token is attached to hello.
func outboundToEnvelope(out core.Outbound, token string) (proto.Envelope, error) {
	switch out.Kind {
	case core.OutboundHello:
		return proto.Encode(proto.TypeHello, proto.HelloData{
			ID:          out.Self.ID,
			DisplayName: out.Self.DisplayName,
			Avatar:      out.Self.AvatarRef,
			Room:        out.Self.RoomID,
			Position:    proto.Point{X: out.Self.Position.X, Y: out.Self.Position.Y},
			Token:       token,
			Protocol:    proto.ProtocolVersion,
		})
	case core.OutboundSelfMoved:
		return proto.Encode(proto.TypeSelfMove, proto.SelfMovedData{
			Position:  proto.Point{X: out.Moved.Position.X, Y: out.Moved.Position.Y},
			Direction: out.Moved.Direction,
		})
	case core.OutboundTyping:
		return proto.Encode(proto.TypeTyping, nil)
	case core.OutboundChat:
		return proto.Encode(proto.TypeChatMessage, proto.ChatMessageData{Text: out.Text})
	case core.OutboundReaction:
		return proto.Encode(proto.TypeReaction, proto.ReactionData{Reaction: out.Reaction})
	default:
		return proto.Envelope{}, fmt.Errorf("unknown outbound kind %d", out.Kind)
	}
}
