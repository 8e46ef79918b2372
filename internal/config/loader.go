package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envConfigDefaultPath = "WIRESPACE_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "wirespace.yaml"
)

// Load builds configuration from defaults, optional config file, env vars, and returns the resolved path.
// Precedence: defaults < config file < env vars < caller overrides.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix("WIRESPACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
			// try reading again in case it was just written
			if readErr := v.ReadInConfig(); readErr != nil && logger != nil {
				logger.Warn().Err(readErr).Str("path", configPath).Msg("failed to read config after writing default")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, configPath, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("server_url", cfg.ServerURL)
	v.SetDefault("room", cfg.Room)
	v.SetDefault("display_name", cfg.DisplayName)
	v.SetDefault("avatar", cfg.Avatar)
	v.SetDefault("token", cfg.Token)
	v.SetDefault("token_secret", cfg.TokenSecret)
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("inspect_addr", cfg.InspectAddr)
	v.SetDefault("tick_interval", cfg.TickInterval)
	v.SetDefault("move_speed", cfg.MoveSpeed)
	v.SetDefault("scene_width", cfg.SceneWidth)
	v.SetDefault("scene_height", cfg.SceneHeight)
	v.SetDefault("broadcast_threshold", cfg.BroadcastThreshold)
	v.SetDefault("interp_duration", cfg.InterpDuration)
	v.SetDefault("interp_epsilon", cfg.InterpEpsilon)
	v.SetDefault("typing_ttl", cfg.TypingTTL)
	v.SetDefault("reaction_ttl", cfg.ReactionTTL)
	v.SetDefault("typing_debounce", cfg.TypingDebounce)
	v.SetDefault("chat_radius", cfg.ChatRadius)
	v.SetDefault("video_radius", cfg.VideoRadius)
	v.SetDefault("object_radius", cfg.ObjectRadius)
	v.SetDefault("stale_after", cfg.StaleAfter)
	v.SetDefault("reconnect_max_elapsed", cfg.ReconnectMaxElapsed)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
