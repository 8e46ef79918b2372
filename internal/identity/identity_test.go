package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/wirespace/internal/store/sqlite"
)

func newTestService(t *testing.T, tokens TokenConfig) *Service {
	t.Helper()
	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewService(st, tokens, nil)
}

func TestResolveGeneratesAndPersistsID(t *testing.T) {
	s := newTestService(t, TokenConfig{})
	ctx := context.Background()

	first, err := s.Resolve(ctx, Options{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := uuid.Parse(first.ID); err != nil {
		t.Fatalf("expected uuid id, got %q", first.ID)
	}
	if first.DisplayName != "guest-"+first.ID[:8] {
		t.Fatalf("unexpected default name %q", first.DisplayName)
	}

	second, err := s.Resolve(ctx, Options{DisplayName: "alice", AvatarRef: "cat"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("id changed between runs: %s != %s", second.ID, first.ID)
	}

	third, err := s.Resolve(ctx, Options{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if third.DisplayName != "alice" || third.AvatarRef != "cat" {
		t.Fatalf("profile not persisted: %+v", third)
	}

	if err := s.Forget(ctx); err != nil {
		t.Fatalf("forget: %v", err)
	}
	fresh, err := s.Resolve(ctx, Options{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if fresh.ID == first.ID {
		t.Fatal("expected a new id after Forget")
	}
}

func TestResolveFromToken(t *testing.T) {
	cfg := TokenConfig{Secret: []byte("secret"), Issuer: "auth", Audience: "wirespace", TTL: time.Hour}
	s := newTestService(t, cfg)
	ctx := context.Background()

	token, err := GenerateToken(cfg, "user-42", "bob")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	id, err := s.Resolve(ctx, Options{Token: token})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id.ID != "user-42" || id.DisplayName != "bob" || !id.FromToken {
		t.Fatalf("unexpected identity: %+v", id)
	}

	id, err = s.Resolve(ctx, Options{Token: token, DisplayName: "bobby"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id.DisplayName != "bobby" {
		t.Fatalf("explicit name should win, got %q", id.DisplayName)
	}
}

func TestParseToken(t *testing.T) {
	signer := TokenConfig{Secret: []byte("secret"), Issuer: "auth", Audience: "wirespace", TTL: time.Hour}
	valid, err := GenerateToken(signer, "user-1", "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	expired, err := GenerateToken(TokenConfig{Secret: []byte("secret"), TTL: -time.Minute}, "user-1", "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	noSubject, err := GenerateToken(signer, "", "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	tests := []struct {
		name    string
		cfg     TokenConfig
		token   string
		wantErr bool
	}{
		{name: "verified", cfg: signer, token: valid},
		{name: "unverified without secret", cfg: TokenConfig{}, token: valid},
		{name: "wrong secret", cfg: TokenConfig{Secret: []byte("other")}, token: valid, wantErr: true},
		{name: "wrong audience", cfg: TokenConfig{Secret: []byte("secret"), Audience: "other"}, token: valid, wantErr: true},
		{name: "wrong issuer", cfg: TokenConfig{Secret: []byte("secret"), Issuer: "other"}, token: valid, wantErr: true},
		{name: "expired", cfg: TokenConfig{Secret: []byte("secret")}, token: expired, wantErr: true},
		{name: "no subject", cfg: signer, token: noSubject, wantErr: true},
		{name: "garbage", cfg: TokenConfig{}, token: "not-a-token", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseToken(tt.cfg, tt.token)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Fatalf("expected ErrInvalidToken, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if claims.Subject != "user-1" || claims.Name != "alice" {
				t.Fatalf("unexpected claims: %+v", claims)
			}
		})
	}
}
