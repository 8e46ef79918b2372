package core

import (
	"testing"
	"time"
)

func TestInterpolatorRetargetMidTween(t *testing.T) {
	ip := NewInterpolator(0, 0)

	ip.Target("p", Position{X: 10, Y: 10}, t0)
	if !ip.Target("p", Position{X: 10, Y: 40}, t0) {
		t.Fatalf("30 unit jump should tween")
	}
	if got, _ := ip.Rendered("p", t0); got != (Position{X: 10, Y: 10}) {
		t.Fatalf("tween start = %+v", got)
	}

	mid := t0.Add(50 * time.Millisecond)
	if got, _ := ip.Rendered("p", mid); got != (Position{X: 10, Y: 25}) {
		t.Fatalf("mid tween = %+v, want 10,25", got)
	}
	if !ip.Animating("p", mid) {
		t.Fatalf("expected running tween")
	}

	if !ip.Target("p", Position{X: 10, Y: 41}, mid) {
		t.Fatalf("retarget should restart tween")
	}
	if got, _ := ip.Rendered("p", mid); got != (Position{X: 10, Y: 25}) {
		t.Fatalf("restart must begin at rendered position, got %+v", got)
	}
	if got, _ := ip.Rendered("p", mid.Add(50*time.Millisecond)); got != (Position{X: 10, Y: 33}) {
		t.Fatalf("restarted tween half way = %+v, want 10,33", got)
	}
	end := mid.Add(100 * time.Millisecond)
	if got, _ := ip.Rendered("p", end); got != (Position{X: 10, Y: 41}) {
		t.Fatalf("tween end = %+v", got)
	}
	if ip.Animating("p", end) {
		t.Fatalf("tween should be finished")
	}
}

func TestInterpolatorSnapsSmallDeltas(t *testing.T) {
	ip := NewInterpolator(0, 0)
	ip.Target("p", Position{X: 10, Y: 10}, t0)

	if ip.Target("p", Position{X: 11, Y: 10.5}, t0) {
		t.Fatalf("delta within epsilon should snap")
	}
	if got, _ := ip.Rendered("p", t0); got != (Position{X: 11, Y: 10.5}) {
		t.Fatalf("snap = %+v", got)
	}
}

func TestInterpolatorSameTargetKeepsTween(t *testing.T) {
	ip := NewInterpolator(0, 0)
	ip.Target("p", Position{}, t0)
	ip.Target("p", Position{X: 100}, t0)

	mid := t0.Add(50 * time.Millisecond)
	ip.Target("p", Position{X: 100}, mid)
	if got, _ := ip.Rendered("p", t0.Add(100*time.Millisecond)); got != (Position{X: 100}) {
		t.Fatalf("repeated target restarted tween: %+v", got)
	}
}

func TestInterpolatorUnknown(t *testing.T) {
	ip := NewInterpolator(0, 0)
	if _, ok := ip.Rendered("nobody", t0); ok {
		t.Fatalf("unknown participant rendered")
	}
	ip.Target("p", Position{X: 1}, t0)
	ip.Reset()
	if _, ok := ip.Rendered("p", t0); ok {
		t.Fatalf("reset kept track")
	}
}
