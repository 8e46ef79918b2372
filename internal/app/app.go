package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirespace/internal/channel"
	"github.com/vovakirdan/wirespace/internal/config"
	"github.com/vovakirdan/wirespace/internal/core"
	"github.com/vovakirdan/wirespace/internal/identity"
	"github.com/vovakirdan/wirespace/internal/proto"
	"github.com/vovakirdan/wirespace/internal/store"
	"github.com/vovakirdan/wirespace/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/wirespace/internal/transport/http"
)

// Hooks receive what the engine and the channel report. Nil hooks are skipped.
type Hooks struct {
	OnEvent func(core.Event)
	OnChat  func(proto.ChatMessageData)
}

// App wires together the engine, the event channel and the inspection server.
type App struct {
	engine          *core.Engine
	client          *channel.Client
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	identity        identity.Identity
	room            string
	hooks           Hooks
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, hooks Hooks, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DBPath).Msg("database initialized")

	id, err := resolve(ctx, st, cfg, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	engine := core.NewEngine(EngineConfig(cfg, id), nil, logger)

	client := channel.New(channel.Config{
		URL:                 cfg.ServerURL,
		Token:               cfg.Token,
		ReconnectMaxElapsed: cfg.ReconnectMaxElapsed,
	}, engine, hooks.OnChat, logger)

	var server *stdhttp.Server
	if cfg.InspectAddr != "" {
		server = transporthttp.NewServer(engine, transporthttp.Options{
			Addr: cfg.InspectAddr,
			Radii: transporthttp.Radii{
				Chat:   cfg.ChatRadius,
				Video:  cfg.VideoRadius,
				Object: cfg.ObjectRadius,
			},
		}, logger)
	}

	return &App{
		engine:          engine,
		client:          client,
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		identity:        id,
		room:            cfg.Room,
		hooks:           hooks,
		log:             logger,
	}, nil
}

// Inspect resolves the local identity and returns every stored setting. With forget, the
// stored identity is discarded first, so a new participant id is generated.
func Inspect(ctx context.Context, cfg *config.Config, forget bool, logger *zerolog.Logger) (identity.Identity, []*store.Setting, error) {
	st, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return identity.Identity{}, nil, fmt.Errorf("init store: %w", err)
	}
	defer st.Close()

	if forget {
		if err := identityService(st, cfg, logger).Forget(ctx); err != nil {
			return identity.Identity{}, nil, fmt.Errorf("forget identity: %w", err)
		}
		logger.Info().Msg("stored identity discarded")
	}

	id, err := resolve(ctx, st, cfg, logger)
	if err != nil {
		return identity.Identity{}, nil, err
	}
	settings, err := st.ListSettings(ctx)
	if err != nil {
		return identity.Identity{}, nil, err
	}
	return id, settings, nil
}

func identityService(st store.Store, cfg *config.Config, logger *zerolog.Logger) *identity.Service {
	return identity.NewService(st, identity.TokenConfig{Secret: []byte(cfg.TokenSecret)}, logger)
}

func resolve(ctx context.Context, st store.Store, cfg *config.Config, logger *zerolog.Logger) (identity.Identity, error) {
	id, err := identityService(st, cfg, logger).Resolve(ctx, identity.Options{
		DisplayName: cfg.DisplayName,
		AvatarRef:   cfg.Avatar,
		Token:       cfg.Token,
	})
	if err != nil {
		return identity.Identity{}, fmt.Errorf("resolve identity: %w", err)
	}
	return id, nil
}

// EngineConfig maps client configuration onto the presence engine.
// Self starts in the middle of the scene.
func EngineConfig(cfg *config.Config, id identity.Identity) core.Config {
	return core.Config{
		Self: core.Participant{
			ID:          id.ID,
			DisplayName: id.DisplayName,
			AvatarRef:   id.AvatarRef,
			Position:    core.Position{X: cfg.SceneWidth / 2, Y: cfg.SceneHeight / 2},
			Status:      core.StatusOnline,
			RoomID:      cfg.Room,
		},
		TickInterval: cfg.TickInterval,
		Broadcaster: core.BroadcasterConfig{
			Speed:     cfg.MoveSpeed,
			Threshold: cfg.BroadcastThreshold,
			Bounds:    core.Bounds{Width: cfg.SceneWidth, Height: cfg.SceneHeight},
		},
		TweenDuration:  cfg.InterpDuration,
		SnapEpsilon:    cfg.InterpEpsilon,
		TypingTTL:      cfg.TypingTTL,
		ReactionTTL:    cfg.ReactionTTL,
		TypingDebounce: cfg.TypingDebounce,
		StaleAfter:     cfg.StaleAfter,
		Radii:          []float64{cfg.ChatRadius, cfg.VideoRadius, cfg.ObjectRadius},
	}
}

// Engine exposes the presence engine for local controllers.
func (a *App) Engine() *core.Engine {
	return a.engine
}

// Identity returns the resolved local participant.
func (a *App) Identity() identity.Identity {
	return a.identity
}

// Run drives the session until ctx is cancelled or the server rejects it.
// A rejection is returned as a *core.CoreError.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	engineCtx, stopEngine := context.WithCancel(context.Background())
	forwarded := make(chan struct{})
	defer func() {
		// A view round-trip lets the engine apply what the channel already queued.
		flushCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		_, _ = a.engine.View(flushCtx)
		cancel()

		stopEngine()
		<-a.engine.Done()
		<-forwarded
	}()
	go a.engine.Run(engineCtx)
	go func() {
		defer close(forwarded)
		a.forwardEvents()
	}()

	serverErr := make(chan error, 1)
	if a.server != nil {
		go func() {
			a.log.Info().Str("addr", a.server.Addr).Msg("inspection api listening")
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				serverErr <- err
				return
			}
			serverErr <- nil
		}()
		defer a.shutdownServer()
	}

	a.log.Info().
		Str("participant_id", a.identity.ID).
		Str("room", a.room).
		Msg("joining session")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	clientErr := make(chan error, 1)
	go func() {
		clientErr <- a.client.Run(runCtx)
	}()

	select {
	case err := <-clientErr:
		return err
	case err := <-serverErr:
		cancel()
		<-clientErr
		if err != nil {
			return fmt.Errorf("inspection api: %w", err)
		}
		return nil
	}
}

// forwardEvents hands engine events to the hook until the engine stops, then drains what is left.
func (a *App) forwardEvents() {
	for {
		select {
		case ev := <-a.engine.Events():
			a.onEvent(ev)
		case <-a.engine.Done():
			for {
				select {
				case ev := <-a.engine.Events():
					a.onEvent(ev)
				default:
					return
				}
			}
		}
	}
}

func (a *App) onEvent(ev core.Event) {
	if a.hooks.OnEvent != nil {
		a.hooks.OnEvent(ev)
	}
}

func (a *App) shutdownServer() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	a.log.Info().Msg("shutting down inspection api")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Warn().Err(err).Msg("inspection api shutdown")
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
