// Package identity resolves who the local participant is.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirespace/internal/store"
)

// Setting keys persisted in the local store.
const (
	KeyParticipantID = "participant_id"
	KeyDisplayName   = "display_name"
	KeyAvatar        = "avatar"
)

// Identity is the resolved local participant.
type Identity struct {
	ID          string
	DisplayName string
	AvatarRef   string
	// FromToken is set when ID came from a session token subject.
	FromToken bool
}

// Options are caller-provided values that take precedence over stored ones.
type Options struct {
	DisplayName string
	AvatarRef   string
	Token       string
}

// Service resolves and persists the local identity.
type Service struct {
	store  store.SettingStore
	tokens TokenConfig
	log    *zerolog.Logger
}

// NewService creates an identity service backed by st.
func NewService(st store.SettingStore, tokens TokenConfig, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{store: st, tokens: tokens, log: logger}
}

// Resolve determines the participant id and profile.
// Precedence for the id: token subject, then the stored id, then a freshly generated one.
// Precedence for the profile: opts, then token claims, then stored values.
func (s *Service) Resolve(ctx context.Context, opts Options) (Identity, error) {
	var id Identity

	if opts.Token != "" {
		claims, err := ParseToken(s.tokens, opts.Token)
		if err != nil {
			return Identity{}, err
		}
		id.ID = claims.Subject
		id.DisplayName = claims.Name
		id.AvatarRef = claims.Avatar
		id.FromToken = true
	} else {
		stored, err := s.participantID(ctx)
		if err != nil {
			return Identity{}, err
		}
		id.ID = stored
	}

	if id.DisplayName == "" {
		name, err := s.get(ctx, KeyDisplayName)
		if err != nil {
			return Identity{}, err
		}
		id.DisplayName = name
	}
	if id.AvatarRef == "" {
		avatar, err := s.get(ctx, KeyAvatar)
		if err != nil {
			return Identity{}, err
		}
		id.AvatarRef = avatar
	}

	if opts.DisplayName != "" && opts.DisplayName != id.DisplayName {
		id.DisplayName = opts.DisplayName
		if err := s.store.SetSetting(ctx, KeyDisplayName, id.DisplayName); err != nil {
			return Identity{}, fmt.Errorf("save display name: %w", err)
		}
	}
	if opts.AvatarRef != "" && opts.AvatarRef != id.AvatarRef {
		id.AvatarRef = opts.AvatarRef
		if err := s.store.SetSetting(ctx, KeyAvatar, id.AvatarRef); err != nil {
			return Identity{}, fmt.Errorf("save avatar: %w", err)
		}
	}

	if id.DisplayName == "" {
		id.DisplayName = defaultName(id.ID)
	}

	s.log.Debug().
		Str("participant_id", id.ID).
		Str("display_name", id.DisplayName).
		Bool("from_token", id.FromToken).
		Msg("identity resolved")
	return id, nil
}

// Forget removes every stored identity value; the next Resolve generates a new id.
func (s *Service) Forget(ctx context.Context) error {
	for _, key := range []string{KeyParticipantID, KeyDisplayName, KeyAvatar} {
		if err := s.store.DeleteSetting(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) participantID(ctx context.Context) (string, error) {
	id, err := s.get(ctx, KeyParticipantID)
	if err != nil || id != "" {
		return id, err
	}

	id = uuid.NewString()
	if err := s.store.SetSetting(ctx, KeyParticipantID, id); err != nil {
		return "", fmt.Errorf("save participant id: %w", err)
	}
	s.log.Info().Str("participant_id", id).Msg("generated participant id")
	return id, nil
}

// get returns "" for missing keys.
func (s *Service) get(ctx context.Context, key string) (string, error) {
	st, err := s.store.GetSetting(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return st.Value, nil
}

func defaultName(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return "guest-" + id
}
