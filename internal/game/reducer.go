package game

import (
	"time"

	"listaris/internal/content"
)

// Action is a state transition request handled by Reducer.Reduce.
type Action interface {
	Name() string
}

// AddCoins adds Amount coins. Amount may be fractional.
type AddCoins struct{ Amount float64 }

func (AddCoins) Name() string { return "addCoins" }

type AddSparks struct{ Amount float64 }

func (AddSparks) Name() string { return "addSparks" }

// AddClicks adds fractional passive clicks to the click counter.
type AddClicks struct{ Amount float64 }

func (AddClicks) Name() string { return "addClicks" }

// RegisterClick counts one manual click.
type RegisterClick struct{}

func (RegisterClick) Name() string { return "registerClick" }

type BuyBuilding struct{ ID string }

func (BuyBuilding) Name() string { return "buyBuilding" }

type BuyUpgrade struct{ ID string }

func (BuyUpgrade) Name() string { return "buyUpgrade" }

// LoadState replaces the state with an already validated payload.
type LoadState struct{ State GameState }

func (LoadState) Name() string { return "loadState" }

// Reset discards all progress, prestige included.
type Reset struct{ At time.Time }

func (Reset) Name() string { return "reset" }

// Prestige discards progress and adds Gain to the prestige points.
type Prestige struct {
	Gain int64
	At   time.Time
}

func (Prestige) Name() string { return "prestige" }

// UpdateSaveTimestamp records a completed write. Timestamp is in ms.
type UpdateSaveTimestamp struct{ Timestamp int64 }

func (UpdateSaveTimestamp) Name() string { return "updateSaveTimestamp" }

// Reducer applies actions against a fixed catalog.
type Reducer struct {
	cat *content.Catalog
}

func NewReducer(cat *content.Catalog) *Reducer {
	return &Reducer{cat: cat}
}

func (r *Reducer) Catalog() *content.Catalog {
	return r.cat
}

// Reduce returns the state after applying a. Rejected purchases and unknown
// action types return s itself.
func (r *Reducer) Reduce(s GameState, a Action) GameState {
	switch a := a.(type) {
	case AddCoins:
		s.Coins += a.Amount
		return s
	case AddSparks:
		s.Sparks += a.Amount
		return s
	case AddClicks:
		s.TotalClicks += a.Amount
		return s
	case RegisterClick:
		s.TotalClicks++
		return s
	case BuyBuilding:
		return r.buyBuilding(s, a.ID)
	case BuyUpgrade:
		return r.buyUpgrade(s, a.ID)
	case LoadState:
		return a.State
	case Reset:
		return Default(r.cat, a.At)
	case Prestige:
		next := Default(r.cat, a.At)
		next.Prestige = s.Prestige + a.Gain
		return next
	case UpdateSaveTimestamp:
		s.LastSavedAt = a.Timestamp
		return s
	default:
		return s
	}
}

func (r *Reducer) buyBuilding(s GameState, id string) GameState {
	// Buildings are held in table order.
	idx := r.cat.BuildingIndex(id)
	if idx < 0 || idx >= len(s.Buildings) || s.Buildings[idx].ID != id {
		return s
	}
	b := s.Buildings[idx]
	cost := PurchaseCost(b.Building, b.Count)
	sparkCost := SparkCost(b.Building, b.Count)
	if s.Coins < cost || s.Sparks < sparkCost {
		return s
	}

	buildings := make([]BuildingState, len(s.Buildings))
	copy(buildings, s.Buildings)
	buildings[idx].Count++

	s.Coins -= cost
	s.Sparks -= sparkCost
	s.Buildings = buildings
	return s
}

func (r *Reducer) buyUpgrade(s GameState, id string) GameState {
	if !r.CanBuyUpgrade(s, id) {
		return s
	}
	u, _ := r.cat.Upgrade(id)

	upgrades := make([]string, len(s.Upgrades), len(s.Upgrades)+1)
	copy(upgrades, s.Upgrades)

	s.Coins -= u.Cost
	s.Sparks -= u.SparkCost
	s.Upgrades = append(upgrades, id)
	return s
}

// CanBuyBuilding reports whether BuyBuilding{id} would succeed.
func (r *Reducer) CanBuyBuilding(s GameState, id string) bool {
	b, ok := s.Building(id)
	if !ok {
		return false
	}
	return s.Coins >= PurchaseCost(b.Building, b.Count) && s.Sparks >= SparkCost(b.Building, b.Count)
}

// CanBuyUpgrade reports whether BuyUpgrade{id} would succeed.
func (r *Reducer) CanBuyUpgrade(s GameState, id string) bool {
	if s.Owns(id) {
		return false
	}
	u, ok := r.cat.Upgrade(id)
	if !ok {
		return false
	}
	if s.Coins < u.Cost || s.Sparks < u.SparkCost || s.Coins < u.UnlockAt {
		return false
	}
	return MeetsRequirement(s, u)
}

// MeetsRequirement checks the building-count prerequisites of u only.
func MeetsRequirement(s GameState, u *content.Upgrade) bool {
	if u.RequiresBuildings > 0 && u.TargetBuildingID != "" {
		target, _ := s.Building(u.TargetBuildingID)
		if target.Count < u.RequiresBuildings {
			return false
		}
	}
	if u.RequiresTotalBuildings > 0 && s.TotalBuildings() < u.RequiresTotalBuildings {
		return false
	}
	return true
}
