package game

import (
	"time"

	"listaris/internal/content"
)

// BuildingState is a building definition plus the number of units owned.
type BuildingState struct {
	*content.Building
	Count int
}

// GameState is the whole simulation state. It is treated as immutable: the
// reducer returns a new value and never writes through shared slices.
type GameState struct {
	Coins       float64
	Sparks      float64
	Buildings   []BuildingState
	Upgrades    []string
	TotalClicks float64
	Prestige    int64
	LastSavedAt int64
}

// Default returns the all-zero state for cat, stamped with now.
func Default(cat *content.Catalog, now time.Time) GameState {
	buildings := make([]BuildingState, len(cat.Buildings))
	for i := range cat.Buildings {
		buildings[i] = BuildingState{Building: &cat.Buildings[i]}
	}
	return GameState{
		Buildings:   buildings,
		Upgrades:    []string{},
		LastSavedAt: UnixMillis(now),
	}
}

// Building returns the state of the building with the given id.
func (s GameState) Building(id string) (BuildingState, bool) {
	for _, b := range s.Buildings {
		if b.ID == id {
			return b, true
		}
	}
	return BuildingState{}, false
}

// Owns reports whether upgrade id has been purchased.
func (s GameState) Owns(upgradeID string) bool {
	for _, id := range s.Upgrades {
		if id == upgradeID {
			return true
		}
	}
	return false
}

// TotalBuildings is the sum of all building counts.
func (s GameState) TotalBuildings() int {
	total := 0
	for _, b := range s.Buildings {
		total += b.Count
	}
	return total
}

// UnlockedBuildings returns the buildings visible to the player: those whose
// unlock threshold has been reached or that are already owned.
func (s GameState) UnlockedBuildings() []BuildingState {
	out := make([]BuildingState, 0, len(s.Buildings))
	for _, b := range s.Buildings {
		if s.Coins >= b.UnlockAt || b.Count > 0 {
			out = append(out, b)
		}
	}
	return out
}

// NextLockedBuilding returns the hidden building with the lowest unlock
// threshold.
func (s GameState) NextLockedBuilding() (BuildingState, bool) {
	var next BuildingState
	found := false
	for _, b := range s.Buildings {
		if s.Coins >= b.UnlockAt || b.Count > 0 {
			continue
		}
		if !found || b.UnlockAt < next.UnlockAt {
			next, found = b, true
		}
	}
	return next, found
}
