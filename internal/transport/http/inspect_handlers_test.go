package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirespace/internal/core"
)

func newTestRouter(t *testing.T) (*gin.Engine, *core.Engine, context.Context) {
	t.Helper()

	engine := core.NewEngine(core.Config{
		Self: core.Participant{ID: "me", DisplayName: "Me", RoomID: "lobby", Position: core.Position{X: 100, Y: 100}},
	}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go engine.Run(ctx)

	disabledLogger := zerolog.New(nil)
	router := NewRouter(engine, Radii{Chat: 200, Video: 150, Object: 50}, &disabledLogger)

	p := func(x, y float64) *core.Position { return &core.Position{X: x, Y: y} }
	err := engine.Deliver(ctx, core.Command{Kind: core.CommandRosterSnapshot, Updates: []core.Update{
		{ID: "a", DisplayName: "alice", Position: p(100, 150)},
		{ID: "b", DisplayName: "bob", Position: p(100, 280)},
		{ID: "c", DisplayName: "carol", Position: p(100, 400)},
	}})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if err := engine.Deliver(ctx, core.Command{Kind: core.CommandLeave, ID: "c"}); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	return router, engine, ctx
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealth(t *testing.T) {
	router, _, _ := newTestRouter(t)
	resp := do(t, router, http.MethodGet, "/health", "")
	if resp.Code != http.StatusOK || resp.Body.String() != "ok" {
		t.Fatalf("unexpected health response %d %q", resp.Code, resp.Body.String())
	}
}

func TestRoster(t *testing.T) {
	router, _, _ := newTestRouter(t)

	resp := do(t, router, http.MethodGet, "/api/roster", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var roster RosterResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &roster); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if roster.Room != "lobby" || len(roster.Participants) != 3 {
		t.Fatalf("unexpected roster: %+v", roster)
	}
	if roster.Participants[2].ID != "c" || roster.Participants[2].Status != "offline" {
		t.Errorf("expected carol offline, got %+v", roster.Participants[2])
	}
	if roster.Participants[0].Rendered == nil || roster.Participants[0].Rendered.Y != 150 {
		t.Errorf("expected first snapshot to snap, got %+v", roster.Participants[0].Rendered)
	}
}

func TestNearby(t *testing.T) {
	router, _, _ := newTestRouter(t)

	tests := []struct {
		name   string
		query  string
		status int
		ids    []string
	}{
		{name: "chat radius", query: "", status: http.StatusOK, ids: []string{"a", "b"}},
		{name: "object radius is exclusive", query: "?purpose=object", status: http.StatusOK, ids: []string{}},
		{name: "explicit radius", query: "?radius=51", status: http.StatusOK, ids: []string{"a"}},
		{name: "offline excluded", query: "?radius=1000", status: http.StatusOK, ids: []string{"a", "b"}},
		{name: "bad radius", query: "?radius=-3", status: http.StatusBadRequest},
		{name: "NaN radius", query: "?radius=NaN", status: http.StatusBadRequest},
		{name: "infinite radius", query: "?radius=Inf", status: http.StatusBadRequest},
		{name: "bad purpose", query: "?purpose=voice", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, router, http.MethodGet, "/api/nearby"+tt.query, "")
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, resp.Code, resp.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			var ps []ParticipantResponse
			if err := json.Unmarshal(resp.Body.Bytes(), &ps); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if len(ps) != len(tt.ids) {
				t.Fatalf("expected %v, got %+v", tt.ids, ps)
			}
			for i, id := range tt.ids {
				if ps[i].ID != id {
					t.Errorf("expected %s at %d, got %s", id, i, ps[i].ID)
				}
			}
		})
	}
}

func TestControl(t *testing.T) {
	router, engine, ctx := newTestRouter(t)

	if resp := do(t, router, http.MethodPost, "/api/chat", `{}`); resp.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty chat, got %d", resp.Code)
	}
	if resp := do(t, router, http.MethodPost, "/api/reaction", `{"text":"🎉"}`); resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}
	if resp := do(t, router, http.MethodPost, "/api/input", `{"up":true}`); resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}

	resp := do(t, router, http.MethodGet, "/api/signals", "")
	var signals SignalsResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &signals); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if signals.Reactions["me"] != "🎉" || len(signals.Typing) != 0 {
		t.Errorf("unexpected signals: %+v", signals)
	}

	if resp := do(t, router, http.MethodPost, "/api/room", `{"room":"garden"}`); resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}
	v, err := engine.View(ctx)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if v.Self.RoomID != "garden" || len(v.Participants) != 0 {
		t.Errorf("room switch not applied: room=%s participants=%d", v.Self.RoomID, len(v.Participants))
	}

	resp = do(t, router, http.MethodGet, "/api/self", "")
	var self SelfResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &self); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if self.ID != "me" || self.Position.X != 100 {
		t.Errorf("unexpected self: %+v", self)
	}
}

func TestEngineStopped(t *testing.T) {
	engine := core.NewEngine(core.Config{Self: core.Participant{ID: "me"}}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go engine.Run(ctx)
	cancel()
	<-engine.Done()

	disabledLogger := zerolog.New(nil)
	router := NewRouter(engine, Radii{Chat: 200}, &disabledLogger)
	if resp := do(t, router, http.MethodGet, "/api/roster", ""); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}
