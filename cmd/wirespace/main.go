package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirespace/internal/app"
	"github.com/vovakirdan/wirespace/internal/config"
	"github.com/vovakirdan/wirespace/internal/core"
	"github.com/vovakirdan/wirespace/internal/identity"
	"github.com/vovakirdan/wirespace/internal/log"
	"github.com/vovakirdan/wirespace/internal/proto"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	overrides  config.Config
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}

	root := &cobra.Command{
		Use:          "wirespace",
		Short:        "Presence and movement client for shared 2D spaces",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "config file path (default ./wirespace.yaml)")
	pf.StringVar(&f.overrides.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&f.overrides.DBPath, "db", "", "local database path")
	pf.StringVar(&f.overrides.DisplayName, "name", "", "display name")
	pf.StringVar(&f.overrides.Avatar, "avatar", "", "avatar reference")
	pf.StringVar(&f.overrides.Token, "token", "", "session token from the auth provider")

	root.AddCommand(newRunCmd(f), newWhoamiCmd(f), newTokenCmd(f), newVersionCmd())
	return root
}

// load resolves configuration with flag overrides applied last. Logs go to the command's stderr.
func (f *rootFlags) load(cmd *cobra.Command) (config.Config, *zerolog.Logger, error) {
	bootLogger := log.NewWithWriter(f.overrides.LogLevel, cmd.ErrOrStderr())
	cfg, path, err := config.Load(bootLogger, f.configPath)
	if err != nil {
		return cfg, bootLogger, err
	}
	cfg.UpdateFrom(f.overrides)

	logger := log.NewWithWriter(cfg.LogLevel, cmd.ErrOrStderr())
	logger.Debug().Str("config", path).Msg("configuration loaded")
	return cfg, logger, nil
}

func newRunCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Join a room and drive the local participant from stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := f.load(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			application, err := app.New(ctx, &cfg, app.Hooks{
				OnEvent: func(ev core.Event) { printEvent(out, ev) },
				OnChat: func(m proto.ChatMessageData) {
					fmt.Fprintf(out, "[chat] %s: %s\n", m.ID, m.Text)
				},
			}, logger)
			if err != nil {
				return err
			}

			go func() {
				if err := readCommands(ctx, cmd.InOrStdin(), application.Engine()); err != nil && !errors.Is(err, context.Canceled) {
					logger.Warn().Err(err).Msg("stdin controller stopped")
				}
			}()

			logger.Info().Str("server", cfg.ServerURL).Str("room", cfg.Room).Msg("starting wirespace")
			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("wirespace stopped")
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.overrides.ServerURL, "server", "", "event channel websocket URL")
	fl.StringVar(&f.overrides.Room, "room", "", "room to join")
	fl.StringVar(&f.overrides.InspectAddr, "inspect", "", "listen address of the local inspection API, empty to disable")
	fl.DurationVar(&f.overrides.StaleAfter, "stale-after", 0, "demote participants silent for this long, 0 disables")
	return cmd
}

func newWhoamiCmd(f *rootFlags) *cobra.Command {
	var forget bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Print the local participant identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := f.load(cmd)
			if err != nil {
				return err
			}
			id, settings, err := app.Inspect(cmd.Context(), &cfg, forget, logger)
			if err != nil {
				return err
			}
			source := "local"
			if id.FromToken {
				source = "token"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:      %s (%s)\nname:    %s\navatar:  %s\n", id.ID, source, id.DisplayName, id.AvatarRef)
			if len(settings) > 0 {
				fmt.Fprintln(out, "stored:")
				for _, st := range settings {
					fmt.Fprintf(out, "  %-16s %s\n", st.Key, st.Value)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&forget, "forget", false, "discard the stored identity and generate a new participant id")
	return cmd
}

// newTokenCmd mints session tokens for local development servers that share token_secret.
func newTokenCmd(f *rootFlags) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a development session token with token_secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := f.load(cmd)
			if err != nil {
				return err
			}
			if cfg.TokenSecret == "" {
				return errors.New("token_secret is not configured")
			}
			if subject == "" {
				return errors.New("--sub is required")
			}
			token, err := identity.GenerateToken(identity.TokenConfig{
				Secret: []byte(cfg.TokenSecret),
				TTL:    ttl,
			}, subject, cfg.DisplayName)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "", "participant id to put in the token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wirespace %s (protocol %d)\n", version, proto.ProtocolVersion)
		},
	}
}
