package signal

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// TypingDebounce delays outbound typing notifications while keystrokes keep coming.
const TypingDebounce = 300 * time.Millisecond

// Debouncer runs fn once delay has passed since the last Trigger.
type Debouncer struct {
	mu     sync.Mutex
	clock  clock.Clock
	delay  time.Duration
	fn     func()
	timer  *clock.Timer
	gen    uint64
	closed bool
}

// NewDebouncer creates a debouncer for fn.
func NewDebouncer(clk clock.Clock, delay time.Duration, fn func()) *Debouncer {
	if clk == nil {
		clk = clock.New()
	}
	return &Debouncer{clock: clk, delay: delay, fn: fn}
}

// Trigger (re)starts the delay.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.closed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// Cancel drops a pending call. Later Triggers work as usual.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Stop cancels a pending call and disables the debouncer.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.closed = true
}
