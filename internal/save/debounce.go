package save

import (
	"sync"
	"time"

	"listaris/internal/clock"
)

// Debouncer runs fn once triggers have been quiet for delay. Each Trigger
// cancels and reschedules the pending run. When maxWait is positive a pending
// run is never pushed further than maxWait past the first trigger, so a
// steady stream of triggers still gets written.
type Debouncer struct {
	mu      sync.Mutex
	clock   clock.Clock
	delay   time.Duration
	maxWait time.Duration
	fn      func()

	timer   *time.Timer
	gen     uint64
	first   time.Time
	stopped bool
}

// NewDebouncer measures maxWait against clk; a nil clk uses the wall clock.
func NewDebouncer(clk clock.Clock, delay, maxWait time.Duration, fn func()) *Debouncer {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Debouncer{clock: clk, delay: delay, maxWait: maxWait, fn: fn}
}

func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	now := d.clock.Now()
	if d.timer == nil {
		d.first = now
	} else {
		d.timer.Stop()
	}
	wait := d.delay
	if d.maxWait > 0 {
		if left := d.maxWait - now.Sub(d.first); left < wait {
			wait = max(left, 0)
		}
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(wait, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// Pending reports whether a run is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Cancel drops the pending run, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

// Stop cancels the pending run and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

func (d *Debouncer) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}
