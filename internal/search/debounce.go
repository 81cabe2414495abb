package search

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before a typed query is evaluated.
const DefaultDebounce = 180 * time.Millisecond

// Debouncer coalesces bursts of calls so only the last scheduled callback runs,
// once the delay has elapsed without another Schedule.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// Handle identifies one scheduled callback.
type Handle struct {
	d   *Debouncer
	gen uint64
}

// NewDebouncer returns a debouncer with the given delay. Non-positive delays
// fall back to DefaultDebounce.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay}
}

// Delay reports the quiet period.
func (d *Debouncer) Delay() time.Duration { return d.delay }

// Schedule cancels any pending callback and arranges for fn to run after the delay.
func (d *Debouncer) Schedule(fn func()) Handle {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.gen != gen {
			// superseded after the timer already fired
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
	return Handle{d: d, gen: gen}
}

// Cancel drops whatever callback is pending.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.gen++
}

// Pending reports whether a callback is waiting to run.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Cancel stops the callback if it is still the pending one. Cancelling a
// handle that already ran or was superseded is a no-op.
func (h Handle) Cancel() {
	if h.d == nil {
		return
	}
	h.d.mu.Lock()
	defer h.d.mu.Unlock()
	if h.d.gen != h.gen {
		return
	}
	h.d.stopLocked()
	h.d.gen++
}
