package game

import (
	"slices"
	"time"

	"listaris/internal/content"
)

// BuildingIncome is the per-unit and total output of one building.
type BuildingIncome struct {
	IncomePerUnit      float64 `json:"income_per_unit"`
	TotalIncome        float64 `json:"total_income"`
	SparkIncomePerUnit float64 `json:"spark_income_per_unit"`
	SparkTotalIncome   float64 `json:"spark_total_income"`
}

// BonusIndex holds every upgrade-derived sum for one owned-upgrade set.
// Bonuses add up; they never compound.
type BonusIndex struct {
	Owned                  map[string]struct{}
	BuildingIncome         map[string]float64
	BuildingSpark          map[string]float64
	GlobalIncomeMultiplier float64
	GlobalSparkMultiplier  float64
	ClickBonus             float64
	UpgradeAutoClicks      float64
}

// NewBonusIndex scans the upgrade table once for the owned ids.
func NewBonusIndex(cat *content.Catalog, owned []string) *BonusIndex {
	idx := &BonusIndex{
		Owned:          make(map[string]struct{}, len(owned)),
		BuildingIncome: make(map[string]float64),
		BuildingSpark:  make(map[string]float64),
		ClickBonus:     BaseClickValue,
	}
	for _, id := range owned {
		idx.Owned[id] = struct{}{}
	}
	for i := range cat.Upgrades {
		u := &cat.Upgrades[i]
		if _, ok := idx.Owned[u.ID]; !ok {
			continue
		}
		if u.Global() {
			idx.GlobalIncomeMultiplier += u.IncomeMultiplier
			idx.GlobalSparkMultiplier += u.SparkMultiplier
		} else {
			idx.BuildingIncome[u.TargetBuildingID] += u.IncomeMultiplier
			idx.BuildingSpark[u.TargetBuildingID] += u.SparkMultiplier
		}
		idx.ClickBonus += u.ClickBonus
		idx.UpgradeAutoClicks += u.AutoClicks
	}
	return idx
}

// Metrics are derived from a GameState and never stored.
type Metrics struct {
	OwnedUpgrades          map[string]struct{}
	GlobalIncomeMultiplier float64
	GlobalSparkMultiplier  float64
	ClickBonus             float64
	AutoClicksPerSec       float64
	PrestigeMultiplier     float64
	BoostMultiplier        float64
	EffectiveClickValue    float64
	Income                 map[string]BuildingIncome
	CoinsPerSec            float64
	SparksPerSec           float64
	PrestigeGain           int64
	TotalBuildings         int
}

// Calculator recomputes Metrics, caching the BonusIndex until the owned
// upgrade set changes. It is not safe for concurrent use.
type Calculator struct {
	cat      *content.Catalog
	index    *BonusIndex
	indexFor []string
}

func NewCalculator(cat *content.Catalog) *Calculator {
	return &Calculator{cat: cat}
}

// Index returns the bonus index for owned, rebuilding it if needed.
func (c *Calculator) Index(owned []string) *BonusIndex {
	if c.index == nil || !slices.Equal(c.indexFor, owned) {
		c.index = NewBonusIndex(c.cat, owned)
		c.indexFor = slices.Clone(owned)
	}
	return c.index
}

// Compute derives all metrics for s under the given boost multiplier.
func (c *Calculator) Compute(s GameState, boostMult float64) Metrics {
	idx := c.Index(s.Upgrades)
	prestigeMult := PrestigeMultiplier(s.Prestige)

	m := Metrics{
		OwnedUpgrades:          idx.Owned,
		GlobalIncomeMultiplier: idx.GlobalIncomeMultiplier,
		GlobalSparkMultiplier:  idx.GlobalSparkMultiplier,
		ClickBonus:             idx.ClickBonus,
		AutoClicksPerSec:       idx.UpgradeAutoClicks,
		PrestigeMultiplier:     prestigeMult,
		BoostMultiplier:        boostMult,
		Income:                 make(map[string]BuildingIncome, len(s.Buildings)),
		PrestigeGain:           PrestigeGain(s.Coins),
	}
	m.EffectiveClickValue = m.ClickBonus * prestigeMult * boostMult

	for _, b := range s.Buildings {
		m.AutoClicksPerSec += b.BaseAutoClicks * float64(b.Count)
		m.TotalBuildings += b.Count

		unit := UnitIncome(b.Building, idx.BuildingIncome[b.ID]+idx.GlobalIncomeMultiplier, prestigeMult, boostMult)
		sparkUnit := UnitSparkIncome(b.Building, idx.BuildingSpark[b.ID]+idx.GlobalSparkMultiplier, prestigeMult)
		inc := BuildingIncome{
			IncomePerUnit:      unit,
			TotalIncome:        unit * float64(b.Count),
			SparkIncomePerUnit: sparkUnit,
			SparkTotalIncome:   sparkUnit * float64(b.Count),
		}
		m.Income[b.ID] = inc
		m.CoinsPerSec += inc.TotalIncome
		m.SparksPerSec += inc.SparkTotalIncome
	}
	return m
}

// Gains is what one fixed-rate tick adds to the state.
type Gains struct {
	Coins  float64
	Sparks float64
	Clicks float64
}

// TickGains scales the per-second rates in m down to one slice of duration
// slice. Auto clicks earn coins at the effective click value.
func TickGains(m Metrics, slice time.Duration) Gains {
	f := slice.Seconds()
	return Gains{
		Coins:  m.CoinsPerSec*f + m.AutoClicksPerSec*m.EffectiveClickValue*f,
		Sparks: m.SparksPerSec * f,
		Clicks: m.AutoClicksPerSec * f,
	}
}

// Actions converts gains into reducer actions, skipping empty spark and click
// accruals.
func (g Gains) Actions() []Action {
	out := []Action{AddCoins{Amount: g.Coins}}
	if g.Sparks > 0 {
		out = append(out, AddSparks{Amount: g.Sparks})
	}
	if g.Clicks > 0 {
		out = append(out, AddClicks{Amount: g.Clicks})
	}
	return out
}
