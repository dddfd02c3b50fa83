package save

import (
	"sync/atomic"
	"testing"
	"time"

	"listaris/internal/clock"
)

func TestDebouncerCoalescesTriggers(t *testing.T) {
	var runs atomic.Int32
	done := make(chan struct{}, 4)
	d := NewDebouncer(nil, 40*time.Millisecond, 0, func() {
		runs.Add(1)
		done <- struct{}{}
	})

	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}
	if !d.Pending() {
		t.Fatalf("expected a pending run")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("debounced run never fired")
	}
	time.Sleep(80 * time.Millisecond)
	if got := runs.Load(); got != 1 {
		t.Fatalf("expected exactly one run got %d", got)
	}
	if d.Pending() {
		t.Fatalf("expected nothing pending after the run")
	}
}

func TestDebouncerMaxWait(t *testing.T) {
	done := make(chan time.Time, 1)
	d := NewDebouncer(nil, 50*time.Millisecond, 120*time.Millisecond, func() {
		select {
		case done <- time.Now():
		default:
		}
	})

	start := time.Now()
	stop := time.After(600 * time.Millisecond)
loop:
	for {
		select {
		case fired := <-done:
			if fired.Sub(start) > 450*time.Millisecond {
				t.Fatalf("max wait not honored, fired after %v", fired.Sub(start))
			}
			break loop
		case <-stop:
			t.Fatalf("continuous triggers starved the debouncer")
		default:
			d.Trigger()
			time.Sleep(10 * time.Millisecond)
		}
	}
	d.Stop()
}

func TestDebouncerCancelAndStop(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(nil, 20*time.Millisecond, 0, func() { runs.Add(1) })

	d.Trigger()
	d.Cancel()
	time.Sleep(60 * time.Millisecond)
	if runs.Load() != 0 {
		t.Fatalf("cancelled run fired")
	}

	d.Stop()
	d.Trigger()
	time.Sleep(60 * time.Millisecond)
	if runs.Load() != 0 || d.Pending() {
		t.Fatalf("stopped debouncer must ignore triggers")
	}
}

func TestDebouncerMaxWaitFollowsClock(t *testing.T) {
	clk := clock.NewManual(testNow)
	done := make(chan struct{}, 1)
	d := NewDebouncer(clk, time.Hour, 5*time.Second, func() { done <- struct{}{} })
	defer d.Stop()

	d.Trigger()
	clk.Advance(3 * time.Second)
	d.Trigger()
	select {
	case <-done:
		t.Fatalf("fired before max wait elapsed on the clock")
	case <-time.After(30 * time.Millisecond):
	}

	clk.Advance(2 * time.Second)
	d.Trigger()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a run once max wait elapsed on the clock")
	}
}
