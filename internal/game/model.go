package game

import (
	"math"
	"time"
)

const (
	// PrestigeThreshold is the coin amount worth the first prestige point.
	PrestigeThreshold = 25_000.0
	// PrestigeMultiplierRate is the permanent bonus granted per prestige point.
	PrestigeMultiplierRate = 0.06

	BoostMultiplier = 1.35
	BoostDuration   = 20 * time.Second
	BoostCooldown   = 65 * time.Second

	// BaseClickValue is the coin value of a manual click before bonuses.
	BaseClickValue = 1.0
)

// PrestigeMultiplier is 1 + prestige * PrestigeMultiplierRate.
func PrestigeMultiplier(prestige int64) float64 {
	return 1 + float64(prestige)*PrestigeMultiplierRate
}

// PrestigeGain returns floor(sqrt(coins / PrestigeThreshold)).
func PrestigeGain(coins float64) int64 {
	if coins <= 0 || math.IsNaN(coins) {
		return 0
	}
	return int64(math.Floor(math.Sqrt(coins / PrestigeThreshold)))
}

// UnixMillis converts t to the millisecond epoch used by saves.
func UnixMillis(t time.Time) int64 {
	return t.UnixMilli()
}
