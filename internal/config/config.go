package config

import (
	"time"

	"github.com/vovakirdan/wirespace/internal/core"
	"github.com/vovakirdan/wirespace/internal/signal"
)

// Config holds client configuration values.
type Config struct {
	ServerURL   string `mapstructure:"server_url" yaml:"server_url"`
	Room        string `mapstructure:"room" yaml:"room"`
	DisplayName string `mapstructure:"display_name" yaml:"display_name"`
	Avatar      string `mapstructure:"avatar" yaml:"avatar"`
	Token       string `mapstructure:"token" yaml:"token"`
	TokenSecret string `mapstructure:"token_secret" yaml:"token_secret"`
	DBPath      string `mapstructure:"db_path" yaml:"db_path"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	InspectAddr string `mapstructure:"inspect_addr" yaml:"inspect_addr"`

	TickInterval       time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"`
	MoveSpeed          float64       `mapstructure:"move_speed" yaml:"move_speed"`
	SceneWidth         float64       `mapstructure:"scene_width" yaml:"scene_width"`
	SceneHeight        float64       `mapstructure:"scene_height" yaml:"scene_height"`
	BroadcastThreshold float64       `mapstructure:"broadcast_threshold" yaml:"broadcast_threshold"`

	InterpDuration time.Duration `mapstructure:"interp_duration" yaml:"interp_duration"`
	InterpEpsilon  float64       `mapstructure:"interp_epsilon" yaml:"interp_epsilon"`

	TypingTTL      time.Duration `mapstructure:"typing_ttl" yaml:"typing_ttl"`
	ReactionTTL    time.Duration `mapstructure:"reaction_ttl" yaml:"reaction_ttl"`
	TypingDebounce time.Duration `mapstructure:"typing_debounce" yaml:"typing_debounce"`

	ChatRadius   float64 `mapstructure:"chat_radius" yaml:"chat_radius"`
	VideoRadius  float64 `mapstructure:"video_radius" yaml:"video_radius"`
	ObjectRadius float64 `mapstructure:"object_radius" yaml:"object_radius"`

	// StaleAfter demotes silent participants to offline; 0 disables it.
	StaleAfter          time.Duration `mapstructure:"stale_after" yaml:"stale_after"`
	ReconnectMaxElapsed time.Duration `mapstructure:"reconnect_max_elapsed" yaml:"reconnect_max_elapsed"`
	ShutdownTimeout     time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		ServerURL:          "ws://localhost:8080/ws",
		Room:               "lobby",
		DBPath:             "wirespace.db",
		LogLevel:           "info",
		TickInterval:       16 * time.Millisecond,
		MoveSpeed:          160,
		SceneWidth:         1280,
		SceneHeight:        960,
		BroadcastThreshold: core.DefaultBroadcastThreshold,
		InterpDuration:     core.DefaultTweenDuration,
		InterpEpsilon:      core.DefaultSnapEpsilon,
		TypingTTL:          signal.TypingTTL,
		ReactionTTL:        signal.ReactionTTL,
		TypingDebounce:     signal.TypingDebounce,
		ChatRadius:         core.RadiusChat,
		VideoRadius:        core.RadiusVideo,
		ObjectRadius:       core.RadiusObject,
		ShutdownTimeout:    5 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	setString(&c.ServerURL, other.ServerURL)
	setString(&c.Room, other.Room)
	setString(&c.DisplayName, other.DisplayName)
	setString(&c.Avatar, other.Avatar)
	setString(&c.Token, other.Token)
	setString(&c.TokenSecret, other.TokenSecret)
	setString(&c.DBPath, other.DBPath)
	setString(&c.LogLevel, other.LogLevel)
	setString(&c.InspectAddr, other.InspectAddr)
	if other.TickInterval != 0 {
		c.TickInterval = other.TickInterval
	}
	if other.MoveSpeed != 0 {
		c.MoveSpeed = other.MoveSpeed
	}
	if other.StaleAfter != 0 {
		c.StaleAfter = other.StaleAfter
	}
	if other.ReconnectMaxElapsed != 0 {
		c.ReconnectMaxElapsed = other.ReconnectMaxElapsed
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
