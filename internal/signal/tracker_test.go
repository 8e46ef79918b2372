package signal

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func eventually(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// settle gives timer callbacks started by the mock clock a chance to run.
func settle() {
	time.Sleep(20 * time.Millisecond)
}

func TestTypingRefreshExtendsWindow(t *testing.T) {
	mock := clock.NewMock()
	tr := NewTracker[struct{}](mock, TypingTTL, nil)
	defer tr.Close()

	tr.Signal("u", struct{}{})
	mock.Add(2500 * time.Millisecond)
	tr.Signal("u", struct{}{})

	mock.Add(1500 * time.Millisecond) // t=4000ms
	settle()
	if !tr.Active("u") {
		t.Fatalf("refreshed signal expired early")
	}

	mock.Add(1000 * time.Millisecond) // t=5000ms, 2500ms after refresh
	settle()
	if !tr.Active("u") {
		t.Fatalf("refreshed signal expired before its window")
	}

	mock.Add(500 * time.Millisecond) // t=5500ms
	if !eventually(t, func() bool { return !tr.Active("u") }) {
		t.Fatalf("refreshed signal never expired")
	}
}

func TestTypingExpiresWithoutRefresh(t *testing.T) {
	mock := clock.NewMock()
	tr := NewTracker[struct{}](mock, TypingTTL, nil)
	defer tr.Close()

	tr.Signal("u", struct{}{})
	mock.Add(2999 * time.Millisecond)
	settle()
	if !tr.Active("u") {
		t.Fatalf("signal cleared before 3000ms")
	}

	mock.Add(time.Millisecond)
	if !eventually(t, func() bool { return !tr.Active("u") }) {
		t.Fatalf("signal not cleared at 3000ms")
	}
}

func TestReactionReplacesValue(t *testing.T) {
	mock := clock.NewMock()

	var mu sync.Mutex
	var changes []Change[string]
	tr := NewTracker(mock, ReactionTTL, func(c Change[string]) {
		mu.Lock()
		changes = append(changes, c)
		mu.Unlock()
	})
	defer tr.Close()

	tr.Signal("u", "👋")
	tr.Signal("u", "👍")
	if v, _ := tr.Get("u"); v != "👍" {
		t.Fatalf("value = %q, want latest reaction", v)
	}
	if got := tr.Subjects(); len(got) != 1 {
		t.Fatalf("subjects = %v, reactions must not stack", got)
	}

	mock.Add(ReactionTTL)
	ok := eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changes) == 3
	})
	if !ok {
		t.Fatalf("expected 2 activations and 1 expiry, got %+v", changes)
	}
	mu.Lock()
	last := changes[2]
	mu.Unlock()
	if last.Active || last.Subject != "u" || last.Value != "👍" {
		t.Fatalf("unexpected expiry change: %+v", last)
	}
}

func TestClearAndEmptySubject(t *testing.T) {
	tr := NewTracker[struct{}](clock.NewMock(), TypingTTL, nil)
	defer tr.Close()

	tr.Signal("", struct{}{})
	if len(tr.Subjects()) != 0 {
		t.Fatalf("empty subject tracked")
	}
	tr.Signal("u", struct{}{})
	tr.Clear("u")
	if tr.Active("u") {
		t.Fatalf("clear kept signal")
	}
}

func TestCloseCancelsTimers(t *testing.T) {
	mock := clock.NewMock()
	fired := make(chan Change[struct{}], 4)
	tr := NewTracker(mock, TypingTTL, func(c Change[struct{}]) {
		if !c.Active {
			fired <- c
		}
	})

	tr.Signal("a", struct{}{})
	tr.Signal("b", struct{}{})
	tr.Close()
	mock.Add(10 * time.Second)
	settle()

	select {
	case c := <-fired:
		t.Fatalf("expiry after close: %+v", c)
	default:
	}
	tr.Signal("c", struct{}{})
	if tr.Active("c") {
		t.Fatalf("signal accepted after close")
	}
}

func TestResetKeepsTrackerUsable(t *testing.T) {
	tr := NewTracker[string](clock.NewMock(), ReactionTTL, nil)
	defer tr.Close()

	tr.Signal("a", "x")
	tr.Reset()
	if tr.Active("a") {
		t.Fatalf("reset kept signal")
	}
	tr.Signal("a", "y")
	if !tr.Active("a") {
		t.Fatalf("tracker unusable after reset")
	}
}

func TestChangesFollowStateOrder(t *testing.T) {
	mock := clock.NewMock()
	var mu sync.Mutex
	active := make(map[string]bool)
	tr := NewTracker(mock, TypingTTL, func(c Change[struct{}]) {
		mu.Lock()
		active[c.Subject] = c.Active
		mu.Unlock()
	})
	defer tr.Close()

	// Refreshes race with expiries fired by the mock clock; the last change delivered
	// must always agree with the tracker state.
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		tr.Signal("u", struct{}{})
		wg.Add(1)
		go func() {
			defer wg.Done()
			mock.Add(TypingTTL)
		}()
		tr.Signal("u", struct{}{})
	}
	wg.Wait()
	settle()

	state := tr.Active("u")
	mu.Lock()
	last := active["u"]
	mu.Unlock()
	if last != state {
		t.Fatalf("last change active=%v, tracker active=%v", last, state)
	}
}
