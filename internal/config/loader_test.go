package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wirespace.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved path = %s, want %s", resolved, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wirespace.yaml")
	data := "room: garden\nmove_speed: 90\ntyping_ttl: 5s\nstale_after: 30s\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("WIRESPACE_ROOM", "rooftop")
	t.Setenv("WIRESPACE_CHAT_RADIUS", "250")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Room != "rooftop" {
		t.Errorf("env should override file: room = %s", cfg.Room)
	}
	if cfg.MoveSpeed != 90 {
		t.Errorf("move_speed = %v, want 90", cfg.MoveSpeed)
	}
	if cfg.TypingTTL != 5*time.Second || cfg.StaleAfter != 30*time.Second {
		t.Errorf("durations not parsed: typing_ttl=%v stale_after=%v", cfg.TypingTTL, cfg.StaleAfter)
	}
	if cfg.ChatRadius != 250 {
		t.Errorf("chat_radius = %v, want 250", cfg.ChatRadius)
	}
	if cfg.VideoRadius != 150 {
		t.Errorf("video_radius default lost: %v", cfg.VideoRadius)
	}

	cfg.UpdateFrom(Config{Room: "attic", DisplayName: "alice"})
	if cfg.Room != "attic" || cfg.DisplayName != "alice" || cfg.ServerURL == "" {
		t.Errorf("UpdateFrom: %+v", cfg)
	}
}
