package core

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirespace/internal/signal"
)

// Config tunes the engine. Self.Position is the spawn point used at start and after a room switch.
type Config struct {
	Self           Participant
	TickInterval   time.Duration
	Broadcaster    BroadcasterConfig
	TweenDuration  time.Duration
	SnapEpsilon    float64
	TypingTTL      time.Duration
	ReactionTTL    time.Duration
	TypingDebounce time.Duration
	StaleAfter     time.Duration
	// Radii are proximity radii queried often enough to keep their own cache entry.
	Radii []float64
}

// Engine owns the roster, Self, tweens and ephemeral signals of one session.
// All state is mutated on the goroutine running Run; other goroutines talk to it
// through commands, so no locks guard the roster.
type Engine struct {
	cfg   Config
	clock clock.Clock
	log   *zerolog.Logger

	commands chan Command
	events   chan Event
	outbound chan Outbound
	done     chan struct{}

	roster      *Roster
	reconciler  *Reconciler
	broadcaster *Broadcaster
	interp      *Interpolator
	gate        *Gate
	typing      *signal.Tracker[struct{}]
	reactions   *signal.Tracker[string]
	typingOut   *signal.Debouncer

	input         Input
	lastTick      time.Time
	typingPending bool
	connected     bool
	rejected      *CoreError
	roomInfo      RoomInfo
}

// NewEngine builds an engine. clk may be nil to use the wall clock.
func NewEngine(cfg Config, clk clock.Clock, logger *zerolog.Logger) *Engine {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if cfg.TypingTTL <= 0 {
		cfg.TypingTTL = signal.TypingTTL
	}
	if cfg.ReactionTTL <= 0 {
		cfg.ReactionTTL = signal.ReactionTTL
	}
	if cfg.TypingDebounce <= 0 {
		cfg.TypingDebounce = signal.TypingDebounce
	}

	e := &Engine{
		cfg:      cfg,
		clock:    clk,
		log:      logger,
		commands: make(chan Command, 256),
		events:   make(chan Event, 64),
		outbound: make(chan Outbound, 64),
		done:     make(chan struct{}),
	}
	e.roster = NewRoster(cfg.Self.RoomID)
	e.reconciler = NewReconciler(e.roster, cfg.Self.ID, logger)
	e.broadcaster = NewBroadcaster(cfg.Self, cfg.Broadcaster)
	e.interp = NewInterpolator(cfg.TweenDuration, cfg.SnapEpsilon)
	e.gate = NewGate(e.roster, cfg.Self.ID, cfg.Radii...)
	e.typing = signal.NewTracker(clk, cfg.TypingTTL, func(c signal.Change[struct{}]) {
		e.emit(Event{Kind: EventTyping, Subject: c.Subject, Active: c.Active})
	})
	e.reactions = signal.NewTracker(clk, cfg.ReactionTTL, func(c signal.Change[string]) {
		e.emit(Event{Kind: EventReaction, Subject: c.Subject, Reaction: c.Value, Active: c.Active})
	})
	e.typingOut = signal.NewDebouncer(clk, cfg.TypingDebounce, func() {
		// Hop back onto the event queue; connectivity is only readable there.
		_ = e.Deliver(context.Background(), Command{Kind: commandTypingDue})
	})
	return e
}

// Events returns the notification stream. Slow readers lose events.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Outbound returns messages to be written to the event channel.
func (e *Engine) Outbound() <-chan Outbound {
	return e.outbound
}

// Done is closed once the engine has been torn down.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Deliver queues cmd on the engine's event queue.
func (e *Engine) Deliver(ctx context.Context, cmd Command) error {
	select {
	case <-e.done:
		return ErrClosed
	default:
	}
	select {
	case e.commands <- cmd:
		return nil
	case <-e.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// View returns a consistent copy of the engine state.
func (e *Engine) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := e.Deliver(ctx, Command{Kind: CommandView, view: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-e.done:
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// Nearby returns online participants strictly within radius of Self.
func (e *Engine) Nearby(ctx context.Context, radius float64) ([]Participant, error) {
	reply := make(chan []Participant, 1)
	if err := e.Deliver(ctx, Command{Kind: CommandNearby, Radius: radius, nearby: reply}); err != nil {
		return nil, err
	}
	select {
	case ps := <-reply:
		return ps, nil
	case <-e.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run processes commands and scene ticks until ctx is cancelled, then tears everything down.
func (e *Engine) Run(ctx context.Context) {
	var tick <-chan time.Time
	if e.cfg.TickInterval > 0 {
		ticker := e.clock.Ticker(e.cfg.TickInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	e.lastTick = e.clock.Now()

	defer e.teardown()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tick:
			e.handleTick(now)
		case cmd := <-e.commands:
			e.handle(cmd)
		}
	}
}

func (e *Engine) teardown() {
	e.typing.Close()
	e.reactions.Close()
	e.typingOut.Stop()
	e.interp.Reset()
	e.roster.reset("")
	close(e.done)
	e.log.Debug().Msg("presence engine stopped")
}

func (e *Engine) handle(cmd Command) {
	now := e.clock.Now()
	switch cmd.Kind {
	case CommandRosterSnapshot:
		e.rosterChanged(e.reconciler.Snapshot(cmd.Updates, now), now)
	case CommandJoin:
		e.rosterChanged(e.reconciler.Join(cmd.Update, now), now)
	case CommandLeave:
		e.rosterChanged(e.reconciler.Leave(cmd.ID, cmd.DisplayName), now)
		if cmd.ID != e.cfg.Self.ID {
			e.typing.Clear(cmd.ID)
			e.reactions.Clear(cmd.ID)
		}
	case CommandPositions:
		e.rosterChanged(e.reconciler.Positions(cmd.Updates, now), now)
	case CommandMove:
		e.rosterChanged(e.reconciler.Move(cmd.Update, now), now)
	case CommandTyping:
		if cmd.ID != "" && cmd.ID != e.cfg.Self.ID {
			e.typing.Signal(cmd.ID, struct{}{})
		}
	case CommandReaction:
		if cmd.ID != "" && cmd.Text != "" {
			e.reactions.Signal(cmd.ID, cmd.Text)
		}
	case CommandRoomInfo:
		e.roomInfo = cmd.RoomInfo
		e.emit(Event{Kind: EventRoomInfo, Room: cmd.RoomInfo.Room, RoomInfo: cmd.RoomInfo})
	case CommandConnectivity:
		e.setConnected(cmd.Connected)
	case CommandRejected:
		e.reject(cmd.Error)
	case CommandInput:
		e.input = cmd.Input
	case CommandLocalTyping:
		if e.active() {
			e.typingPending = true
			e.typingOut.Trigger()
		}
	case commandTypingDue:
		if e.typingPending {
			e.typingPending = false
			e.send(Outbound{Kind: OutboundTyping})
		}
	case CommandSendChat:
		if cmd.Text != "" {
			e.send(Outbound{Kind: OutboundChat, Text: cmd.Text})
		}
	case CommandSendReaction:
		if cmd.Text == "" {
			return
		}
		e.send(Outbound{Kind: OutboundReaction, Reaction: cmd.Text})
		e.reactions.Signal(e.cfg.Self.ID, cmd.Text)
	case CommandSwitchRoom:
		e.switchRoom(cmd.Room)
	case CommandView:
		cmd.view <- e.view(now)
	case CommandNearby:
		cmd.nearby <- e.gate.Within(e.broadcaster.Self().Position, cmd.Radius)
	default:
		e.log.Warn().Int("kind", int(cmd.Kind)).Msg("unknown command")
	}
}

func (e *Engine) handleTick(now time.Time) {
	dt := now.Sub(e.lastTick)
	e.lastTick = now

	if moved, ok := e.broadcaster.Tick(e.input, dt, now); ok {
		e.send(Outbound{Kind: OutboundSelfMoved, Moved: moved})
	}
	if e.cfg.StaleAfter > 0 {
		if ids := e.reconciler.DemoteStale(now, e.cfg.StaleAfter); len(ids) > 0 {
			e.log.Info().Strs("participant_ids", ids).Msg("stale participants demoted")
			e.rosterChanged(ids, now)
		}
	}
}

func (e *Engine) rosterChanged(ids []string, now time.Time) {
	if len(ids) == 0 {
		return
	}
	for _, id := range ids {
		if p, ok := e.roster.Get(id); ok {
			e.interp.Target(id, p.Position, now)
		}
	}
	e.emit(Event{Kind: EventRosterChanged, Room: e.roster.RoomID(), IDs: ids})
}

func (e *Engine) setConnected(connected bool) {
	if e.connected == connected {
		return
	}
	e.connected = connected
	// Whatever the previous session did not write is stale; hello must lead the next one.
	e.drainOutbound()
	e.log.Info().Bool("connected", connected).Msg("event channel connectivity changed")
	e.emit(Event{Kind: EventConnectivity, Connected: connected})
	if connected {
		e.hello()
	}
}

func (e *Engine) reject(cerr *CoreError) {
	if cerr == nil {
		cerr = NewCoreError(ErrCodeJoinFailed, "join failed")
	}
	if e.rejected != nil {
		return
	}
	e.rejected = cerr
	e.typingOut.Stop()
	e.log.Error().Str("code", cerr.Code).Str("reason", cerr.Message).Msg("session rejected")
	e.emit(Event{Kind: EventRejected, Room: e.roster.RoomID(), Error: cerr})
}

func (e *Engine) switchRoom(room string) {
	if room == "" || e.rejected != nil {
		return
	}
	e.roster.reset(room)
	e.interp.Reset()
	e.typing.Reset()
	e.reactions.Reset()
	e.typingOut.Cancel()
	e.typingPending = false
	e.broadcaster.SetRoom(room)
	e.broadcaster.Teleport(e.cfg.Self.Position)
	e.cfg.Self.RoomID = room
	e.roomInfo = RoomInfo{}
	e.log.Info().Str("room", room).Msg("switched room")
	e.emit(Event{Kind: EventRoomSwitched, Room: room})
	e.hello()
}

func (e *Engine) hello() {
	e.send(Outbound{Kind: OutboundHello, Self: e.broadcaster.Self().Participant})
}

func (e *Engine) active() bool {
	return e.connected && e.rejected == nil
}

// send queues an outbound message unless the channel is down or the session was rejected.
func (e *Engine) send(out Outbound) {
	if !e.active() {
		return
	}
	select {
	case e.outbound <- out:
	default:
		e.log.Warn().Int("kind", int(out.Kind)).Msg("outbound queue full, message dropped")
	}
}

func (e *Engine) drainOutbound() {
	for {
		select {
		case <-e.outbound:
		default:
			return
		}
	}
}

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		// Drop if slow consumer.
	}
}

func (e *Engine) view(now time.Time) View {
	v := View{
		At:        now,
		Self:      e.broadcaster.Self(),
		Version:   e.roster.Version(),
		Connected: e.connected,
		Rejected:  e.rejected,
		RoomInfo:  e.roomInfo,
		Typing:    e.typing.Subjects(),
		Reactions: make(map[string]string),
	}
	for _, p := range e.roster.Snapshot() {
		rendered, ok := e.interp.Rendered(p.ID, now)
		if !ok {
			rendered = p.Position
		}
		v.Participants = append(v.Participants, RenderedParticipant{
			Participant: p,
			Rendered:    rendered,
			Gliding:     e.interp.Animating(p.ID, now),
		})
	}
	for _, id := range e.reactions.Subjects() {
		if r, ok := e.reactions.Get(id); ok {
			v.Reactions[id] = r
		}
	}
	return v
}
