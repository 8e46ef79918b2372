// Package channel connects the presence engine to the session server over a websocket.
package channel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirespace/internal/core"
	"github.com/vovakirdan/wirespace/internal/proto"
)

// Config describes how to reach the session server.
type Config struct {
	URL                 string
	Token               string
	ReconnectMaxElapsed time.Duration
	InitialBackoff      time.Duration
	MaxBackoff          time.Duration
	MaxMessageBytes     int64
}

// Engine is the part of the presence engine the channel drives.
type Engine interface {
	Deliver(ctx context.Context, cmd core.Command) error
	Outbound() <-chan core.Outbound
	Done() <-chan struct{}
}

// ChatHandler receives chat lines, which the engine does not interpret.
type ChatHandler func(proto.ChatMessageData)

// Client keeps a websocket session open, reconnecting until the server rejects the session
// or the context ends.
type Client struct {
	cfg    Config
	engine Engine
	onChat ChatHandler
	log    *zerolog.Logger
}

// New creates a channel client for engine.
func New(cfg Config, engine Engine, onChat ChatHandler, logger *zerolog.Logger) *Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 10 * time.Second
	}
	return &Client{cfg: cfg, engine: engine, onChat: onChat, log: logger}
}

// Run connects and serves sessions until ctx ends, the engine stops, the server rejects
// the session, or reconnecting gives up. A rejection is returned as a *core.CoreError.
// After a lost session Run waits before redialling; the wait grows until a session
// delivers its first inbound message.
func (c *Client) Run(ctx context.Context) error {
	session := c.newBackOff()
	for {
		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		err = c.serve(ctx, conn, session.Reset)
		if errors.Is(err, core.ErrRejected) {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-c.engine.Done():
			return nil
		default:
		}

		wait := session.NextBackOff()
		c.log.Warn().Err(err).Dur("retry_in", wait).Msg("event channel lost, reconnecting")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-c.engine.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (c *Client) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialBackoff
	b.MaxInterval = c.cfg.MaxBackoff
	return b
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	opts := []backoff.RetryOption{
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.log.Warn().Err(err).Dur("retry_in", next).Str("url", c.cfg.URL).Msg("dial event channel")
		}),
	}
	if c.cfg.ReconnectMaxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(c.cfg.ReconnectMaxElapsed))
	}

	conn, err := backoff.Retry(ctx, func() (*websocket.Conn, error) {
		header := http.Header{}
		if c.cfg.Token != "" {
			header.Set("Authorization", "Bearer "+c.cfg.Token)
		}
		conn, _, err := websocket.Dial(ctx, c.cfg.URL, &websocket.DialOptions{HTTPHeader: header})
		if err != nil {
			return nil, err
		}
		return conn, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	if c.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(c.cfg.MaxMessageBytes)
	}
	return conn, nil
}

// serve runs one connected session and reports why it ended. healthy is called once,
// when the first inbound message arrives.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn, healthy func()) error {
	defer conn.Close(websocket.StatusInternalError, "internal error")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := c.engine.Deliver(ctx, core.Command{Kind: core.CommandConnectivity, Connected: true}); err != nil {
		return err
	}
	c.log.Info().Str("url", c.cfg.URL).Msg("event channel connected")

	errCh := make(chan error, 2)
	go func() {
		errCh <- c.readLoop(ctx, conn, healthy)
	}()
	go func() {
		errCh <- c.writeLoop(ctx, conn)
	}()

	err := <-errCh
	cancel() // stop the other goroutine
	<-errCh

	// Report the disconnect even though ctx is gone; the roster stays as last known.
	_ = c.engine.Deliver(context.Background(), core.Command{Kind: core.CommandConnectivity, Connected: false})

	status := websocket.StatusNormalClosure
	reason := "closing"
	if errors.Is(err, core.ErrRejected) {
		reason = "rejected"
	}
	conn.Close(status, reason)

	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, healthy func()) error {
	for {
		var env proto.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return io.EOF
			}
			return err
		}
		if healthy != nil {
			healthy()
			healthy = nil
		}

		if env.Type == proto.TypeChatMessage {
			c.handleChat(env)
			continue
		}

		cmd, ok, err := inboundToCommand(env)
		if err != nil {
			c.log.Debug().Err(err).Str("event", env.Type).Msg("malformed event dropped")
			continue
		}
		if !ok {
			c.log.Debug().Str("event", env.Type).Msg("unhandled event")
			continue
		}
		if err := c.engine.Deliver(ctx, cmd); err != nil {
			return err
		}
		if cmd.Kind == core.CommandRejected {
			return cmd.Error
		}
	}
}

func (c *Client) handleChat(env proto.Envelope) {
	if c.onChat == nil {
		return
	}
	msg, err := proto.Decode[proto.ChatMessageData](env)
	if err != nil {
		c.log.Debug().Err(err).Msg("malformed chat message dropped")
		return
	}
	c.onChat(msg)
}

func (c *Client) writeLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		select {
		case out := <-c.engine.Outbound():
			env, err := outboundToEnvelope(out, c.cfg.Token)
			if err != nil {
				c.log.Error().Err(err).Msg("encode outbound")
				continue
			}
			if err := wsjson.Write(ctx, conn, env); err != nil {
				return err
			}
		case <-c.engine.Done():
			return core.ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
