package game

import "time"

// Boost is the time-boxed coin multiplier window. The zero value is idle.
type Boost struct {
	ActiveUntil   time.Time
	CooldownUntil time.Time
}

func (b Boost) Active(now time.Time) bool {
	return now.Before(b.ActiveUntil)
}

func (b Boost) CoolingDown(now time.Time) bool {
	return now.Before(b.CooldownUntil)
}

// Activate starts a new window at now. It is rejected while the previous
// window is active or cooling down.
func (b Boost) Activate(now time.Time) (Boost, bool) {
	if b.Active(now) || b.CoolingDown(now) {
		return b, false
	}
	return Boost{
		ActiveUntil:   now.Add(BoostDuration),
		CooldownUntil: now.Add(BoostCooldown),
	}, true
}

func (b Boost) Multiplier(now time.Time) float64 {
	if b.Active(now) {
		return BoostMultiplier
	}
	return 1
}

// Remaining returns how long the active window and the cooldown still run.
func (b Boost) Remaining(now time.Time) (active, cooldown time.Duration) {
	if b.Active(now) {
		active = b.ActiveUntil.Sub(now)
	}
	if b.CoolingDown(now) {
		cooldown = b.CooldownUntil.Sub(now)
	}
	return active, cooldown
}
