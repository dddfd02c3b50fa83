package session

import (
	"listaris/internal/game"
)

// View is the JSON shape shared by the API, the remote client and the CLI.
type View struct {
	SessionID          string            `json:"session_id"`
	Coins              float64           `json:"coins"`
	Sparks             float64           `json:"sparks"`
	TotalClicks        float64           `json:"total_clicks"`
	Prestige           int64             `json:"prestige"`
	LastSavedAt        int64             `json:"last_saved_at"`
	CoinsPerSec        float64           `json:"coins_per_sec"`
	SparksPerSec       float64           `json:"sparks_per_sec"`
	ClickValue         float64           `json:"click_value"`
	AutoClicksPerSec   float64           `json:"auto_clicks_per_sec"`
	PrestigeMultiplier float64           `json:"prestige_multiplier"`
	PrestigeGain       int64             `json:"prestige_gain"`
	PrestigeThreshold  float64           `json:"prestige_threshold"`
	TotalBuildings     int               `json:"total_buildings"`
	Boost              BoostView         `json:"boost"`
	Buildings          []BuildingView    `json:"buildings"`
	NextBuilding       *LockedView       `json:"next_building,omitempty"`
	Upgrades           []UpgradeView     `json:"upgrades"`
	Achievements       []AchievementView `json:"achievements"`
}

type BoostView struct {
	Active      bool    `json:"active"`
	Multiplier  float64 `json:"multiplier"`
	ActiveMs    int64   `json:"active_ms"`
	CooldownMs  int64   `json:"cooldown_ms"`
	CanActivate bool    `json:"can_activate"`
}

type BuildingView struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Desc               string  `json:"desc"`
	Chapter            int     `json:"chapter"`
	Count              int     `json:"count"`
	Cost               float64 `json:"cost"`
	SparkCost          float64 `json:"spark_cost,omitempty"`
	IncomePerUnit      float64 `json:"income_per_unit"`
	TotalIncome        float64 `json:"total_income"`
	SparkIncomePerUnit float64 `json:"spark_income_per_unit,omitempty"`
	SparkTotalIncome   float64 `json:"spark_total_income,omitempty"`
	Affordable         bool    `json:"affordable"`
}

// LockedView teases the next hidden building.
type LockedView struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	UnlockAt float64 `json:"unlock_at"`
}

type UpgradeView struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Desc       string  `json:"desc"`
	Cost       float64 `json:"cost"`
	SparkCost  float64 `json:"spark_cost,omitempty"`
	Target     string  `json:"target,omitempty"`
	Owned      bool    `json:"owned"`
	Unlocked   bool    `json:"unlocked"`
	Affordable bool    `json:"affordable"`
}

type AchievementView struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Metric      string  `json:"metric"`
	Target      float64 `json:"target"`
	Progress    float64 `json:"progress"`
	Ratio       float64 `json:"ratio"`
	Unlocked    bool    `json:"unlocked"`
}

// NewView renders snap. Buildings are limited to the unlocked ones; upgrades
// are listed in table order with their availability flags.
func NewView(r *game.Reducer, snap Snapshot) View {
	st, m := snap.State, snap.Metrics
	activeLeft, cooldownLeft := snap.Boost.Remaining(snap.Now)

	v := View{
		SessionID:          snap.SessionID,
		Coins:              st.Coins,
		Sparks:             st.Sparks,
		TotalClicks:        st.TotalClicks,
		Prestige:           st.Prestige,
		LastSavedAt:        st.LastSavedAt,
		CoinsPerSec:        m.CoinsPerSec,
		SparksPerSec:       m.SparksPerSec,
		ClickValue:         m.EffectiveClickValue,
		AutoClicksPerSec:   m.AutoClicksPerSec,
		PrestigeMultiplier: m.PrestigeMultiplier,
		PrestigeGain:       m.PrestigeGain,
		PrestigeThreshold:  game.PrestigeThreshold,
		TotalBuildings:     m.TotalBuildings,
		Boost: BoostView{
			Active:      activeLeft > 0,
			Multiplier:  m.BoostMultiplier,
			ActiveMs:    activeLeft.Milliseconds(),
			CooldownMs:  cooldownLeft.Milliseconds(),
			CanActivate: activeLeft <= 0 && cooldownLeft <= 0,
		},
	}

	for _, b := range st.UnlockedBuildings() {
		inc := m.Income[b.ID]
		v.Buildings = append(v.Buildings, BuildingView{
			ID:                 b.ID,
			Name:               b.Name,
			Desc:               b.Desc,
			Chapter:            b.Chapter,
			Count:              b.Count,
			Cost:               game.PurchaseCost(b.Building, b.Count),
			SparkCost:          game.SparkCost(b.Building, b.Count),
			IncomePerUnit:      inc.IncomePerUnit,
			TotalIncome:        inc.TotalIncome,
			SparkIncomePerUnit: inc.SparkIncomePerUnit,
			SparkTotalIncome:   inc.SparkTotalIncome,
			Affordable:         r.CanBuyBuilding(st, b.ID),
		})
	}
	if next, ok := st.NextLockedBuilding(); ok {
		v.NextBuilding = &LockedView{ID: next.ID, Name: next.Name, UnlockAt: next.UnlockAt}
	}

	cat := r.Catalog()
	for i := range cat.Upgrades {
		u := &cat.Upgrades[i]
		owned := st.Owns(u.ID)
		v.Upgrades = append(v.Upgrades, UpgradeView{
			ID:         u.ID,
			Name:       u.Name,
			Desc:       u.Desc,
			Cost:       u.Cost,
			SparkCost:  u.SparkCost,
			Target:     u.TargetBuildingID,
			Owned:      owned,
			Unlocked:   owned || (st.Coins >= u.UnlockAt && game.MeetsRequirement(st, u)),
			Affordable: r.CanBuyUpgrade(st, u.ID),
		})
	}

	for _, a := range game.Achievements(cat, st, m) {
		v.Achievements = append(v.Achievements, AchievementView{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			Metric:      a.Metric,
			Target:      a.Target,
			Progress:    a.Progress,
			Ratio:       a.Ratio,
			Unlocked:    a.Unlocked,
		})
	}
	return v
}
