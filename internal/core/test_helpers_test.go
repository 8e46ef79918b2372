package core

import (
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan Event, kind EventKind) Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return Event{}
}

func mustOutbound(t *testing.T, ch <-chan Outbound, kind OutboundKind) Outbound {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case out := <-ch:
			if out.Kind == kind {
				return out
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected outbound kind %v not received", kind)
	return Outbound{}
}

func pos(x, y float64) *Position {
	return &Position{X: x, Y: y}
}

func mustStatus(t *testing.T, r *Roster, id string, want Status) {
	t.Helper()
	p, ok := r.Get(id)
	if !ok {
		t.Fatalf("participant %s missing", id)
	}
	if p.Status != want {
		t.Fatalf("participant %s status = %v, want %v", id, p.Status, want)
	}
}
