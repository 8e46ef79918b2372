package http

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirespace/internal/core"
)

// Engine is the part of the presence engine the API reads and drives.
type Engine interface {
	Deliver(ctx context.Context, cmd core.Command) error
	View(ctx context.Context) (core.View, error)
	Nearby(ctx context.Context, radius float64) ([]core.Participant, error)
}

// InspectHandlers serve the engine state and accept local control input.
type InspectHandlers struct {
	engine Engine
	radii  Radii
	log    *zerolog.Logger
}

// NewInspectHandlers creates a new handlers instance.
func NewInspectHandlers(engine Engine, radii Radii, logger *zerolog.Logger) *InspectHandlers {
	return &InspectHandlers{engine: engine, radii: radii, log: logger}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// PointResponse is a scene coordinate.
type PointResponse struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ParticipantResponse describes one roster entry.
type ParticipantResponse struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"displayName"`
	Avatar      string         `json:"avatar,omitempty"`
	Position    PointResponse  `json:"position"`
	Rendered    *PointResponse `json:"rendered,omitempty"`
	Gliding     bool           `json:"gliding,omitempty"`
	Facing      string         `json:"facing,omitempty"`
	Status      string         `json:"status"`
}

// RosterResponse is the body of GET /api/roster.
type RosterResponse struct {
	Room         string                `json:"room"`
	Version      uint64                `json:"version"`
	Connected    bool                  `json:"connected"`
	Rejected     *ErrorResponse        `json:"rejected,omitempty"`
	Participants []ParticipantResponse `json:"participants"`
}

// SelfResponse is the body of GET /api/self.
type SelfResponse struct {
	ParticipantResponse
	LastBroadcast   PointResponse `json:"lastBroadcast"`
	LastBroadcastAt time.Time     `json:"lastBroadcastAt"`
}

// SignalsResponse is the body of GET /api/signals.
type SignalsResponse struct {
	Typing    []string          `json:"typing"`
	Reactions map[string]string `json:"reactions"`
}

// InputRequest sets the held movement directions.
type InputRequest struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// TextRequest carries a chat line or a reaction.
type TextRequest struct {
	Text string `json:"text" binding:"required"`
}

// RoomRequest switches rooms.
type RoomRequest struct {
	Room string `json:"room" binding:"required"`
}

// Roster returns every known participant.
// GET /api/roster
func (h *InspectHandlers) Roster(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}

	resp := RosterResponse{
		Room:         v.Self.RoomID,
		Version:      v.Version,
		Connected:    v.Connected,
		Participants: make([]ParticipantResponse, 0, len(v.Participants)),
	}
	if v.Rejected != nil {
		resp.Rejected = &ErrorResponse{Error: v.Rejected.Message, Code: v.Rejected.Code}
	}
	for _, p := range v.Participants {
		pr := participantResponse(p.Participant)
		pr.Rendered = &PointResponse{X: p.Rendered.X, Y: p.Rendered.Y}
		pr.Gliding = p.Gliding
		resp.Participants = append(resp.Participants, pr)
	}
	c.JSON(http.StatusOK, resp)
}

// Nearby returns online participants strictly inside a radius around Self.
// GET /api/nearby?radius=120 or ?purpose=chat|video|object
func (h *InspectHandlers) Nearby(c *gin.Context) {
	radius, err := h.radius(c.Query("radius"), c.DefaultQuery("purpose", "chat"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ps, err := h.engine.Nearby(c.Request.Context(), radius)
	if err != nil {
		h.engineError(c, err)
		return
	}

	out := make([]ParticipantResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, participantResponse(p))
	}
	c.JSON(http.StatusOK, out)
}

// Self returns the local participant.
// GET /api/self
func (h *InspectHandlers) Self(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SelfResponse{
		ParticipantResponse: participantResponse(v.Self.Participant),
		LastBroadcast:       PointResponse{X: v.Self.LastBroadcastPosition.X, Y: v.Self.LastBroadcastPosition.Y},
		LastBroadcastAt:     v.Self.LastBroadcastAt,
	})
}

// Signals returns who is typing and the active reactions.
// GET /api/signals
func (h *InspectHandlers) Signals(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	typing := v.Typing
	if typing == nil {
		typing = []string{}
	}
	c.JSON(http.StatusOK, SignalsResponse{Typing: typing, Reactions: v.Reactions})
}

// Input replaces the held movement directions.
// POST /api/input
func (h *InspectHandlers) Input(c *gin.Context) {
	var req InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid input request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	h.deliver(c, core.Command{Kind: core.CommandInput, Input: core.Input{
		Up: req.Up, Down: req.Down, Left: req.Left, Right: req.Right,
	}})
}

// Chat sends a chat line.
// POST /api/chat
func (h *InspectHandlers) Chat(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "text is required"})
		return
	}
	h.deliver(c, core.Command{Kind: core.CommandSendChat, Text: req.Text})
}

// Reaction shows and broadcasts a reaction.
// POST /api/reaction
func (h *InspectHandlers) Reaction(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "text is required"})
		return
	}
	h.deliver(c, core.Command{Kind: core.CommandSendReaction, Text: req.Text})
}

// Typing reports local typing activity.
// POST /api/typing
func (h *InspectHandlers) Typing(c *gin.Context) {
	h.deliver(c, core.Command{Kind: core.CommandLocalTyping})
}

// SwitchRoom leaves the current room and joins another.
// POST /api/room
func (h *InspectHandlers) SwitchRoom(c *gin.Context) {
	var req RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room is required"})
		return
	}
	h.deliver(c, core.Command{Kind: core.CommandSwitchRoom, Room: req.Room})
}

func (h *InspectHandlers) view(c *gin.Context) (core.View, bool) {
	v, err := h.engine.View(c.Request.Context())
	if err != nil {
		h.engineError(c, err)
		return core.View{}, false
	}
	return v, true
}

func (h *InspectHandlers) deliver(c *gin.Context, cmd core.Command) {
	if err := h.engine.Deliver(c.Request.Context(), cmd); err != nil {
		h.engineError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *InspectHandlers) engineError(c *gin.Context, err error) {
	if errors.Is(err, core.ErrClosed) {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "engine stopped"})
		return
	}
	h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("engine request failed")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

func (h *InspectHandlers) radius(raw, purpose string) (float64, error) {
	if raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			return 0, errors.New("radius must be a positive number")
		}
		return r, nil
	}
	switch purpose {
	case "chat":
		return h.radii.Chat, nil
	case "video":
		return h.radii.Video, nil
	case "object":
		return h.radii.Object, nil
	default:
		return 0, errors.New("purpose must be chat, video or object")
	}
}

func participantResponse(p core.Participant) ParticipantResponse {
	return ParticipantResponse{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Avatar:      p.AvatarRef,
		Position:    PointResponse{X: p.Position.X, Y: p.Position.Y},
		Facing:      p.Facing,
		Status:      p.Status.String(),
	}
}
