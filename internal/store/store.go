package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("not found")

// Setting is a persisted local value, such as the participant id or display name.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// SettingStore defines persistence operations for local settings.
type SettingStore interface {
	// GetSetting returns the setting stored under key, or ErrNotFound.
	GetSetting(ctx context.Context, key string) (*Setting, error)

	// SetSetting inserts or replaces the value stored under key.
	SetSetting(ctx context.Context, key, value string) error

	// DeleteSetting removes key. Deleting a missing key is not an error.
	DeleteSetting(ctx context.Context, key string) error

	// ListSettings returns all settings ordered by key.
	ListSettings(ctx context.Context) ([]*Setting, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	SettingStore

	// Close closes the underlying database connection.
	Close() error
}
