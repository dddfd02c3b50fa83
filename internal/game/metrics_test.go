package game

import (
	"strings"
	"testing"
	"time"

	"listaris/internal/content"
)

func stateWith(cat *content.Catalog, counts map[string]int, upgrades ...string) GameState {
	s := Default(cat, testStart)
	for i := range s.Buildings {
		s.Buildings[i].Count = counts[s.Buildings[i].ID]
	}
	s.Upgrades = append([]string{}, upgrades...)
	return s
}

func TestComputeBaseRates(t *testing.T) {
	cat := content.Default()
	calc := NewCalculator(cat)
	s := stateWith(cat, map[string]int{"lumen-forge": 10, "astro-platform": 2})

	m := calc.Compute(s, 1)
	if !approx(m.CoinsPerSec, 10*0.3+2*5.5) {
		t.Fatalf("unexpected coins/sec %v", m.CoinsPerSec)
	}
	if !approx(m.SparksPerSec, 2*0.05) {
		t.Fatalf("unexpected sparks/sec %v", m.SparksPerSec)
	}
	if m.ClickBonus != 1 || m.EffectiveClickValue != 1 {
		t.Fatalf("expected base click value 1 got %v/%v", m.ClickBonus, m.EffectiveClickValue)
	}
	if m.TotalBuildings != 12 {
		t.Fatalf("expected 12 buildings got %d", m.TotalBuildings)
	}
	forge := m.Income["lumen-forge"]
	if !approx(forge.IncomePerUnit, 0.3) || !approx(forge.TotalIncome, 3) {
		t.Fatalf("unexpected forge income %+v", forge)
	}
}

func TestBonusesAreAdditive(t *testing.T) {
	doc := `
buildings:
  - {id: mill, base_income: 10, cost_base: 1, cost_exp: 1.5}
upgrades:
  - {id: a, cost: 1, target_building_id: mill, income_multiplier: 0.1}
  - {id: b, cost: 1, target_building_id: mill, income_multiplier: 0.1}
  - {id: c, cost: 1, target_building_id: mill, income_multiplier: 0.1}
`
	cat, err := content.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	calc := NewCalculator(cat)
	s := stateWith(cat, map[string]int{"mill": 1}, "a", "b", "c")

	m := calc.Compute(s, 1)
	if !approx(m.Income["mill"].IncomePerUnit, 13) {
		t.Fatalf("expected 10 * 1.30 = 13 got %v", m.Income["mill"].IncomePerUnit)
	}
}

func TestComputeUpgradeEffects(t *testing.T) {
	cat := content.Default()
	calc := NewCalculator(cat)
	s := stateWith(cat,
		map[string]int{"crystal-archive": 2, "drone-swarm": 1},
		"crystal-lens", "spark-resonance", "lumen-symphony", "pulse-mantra", "drone-autonomy",
	)
	s.Prestige = 5

	m := calc.Compute(s, 1)
	if !approx(m.GlobalIncomeMultiplier, 0.2) || !approx(m.GlobalSparkMultiplier, 0.35) {
		t.Fatalf("unexpected global multipliers %v/%v", m.GlobalIncomeMultiplier, m.GlobalSparkMultiplier)
	}
	if !approx(m.ClickBonus, 3) {
		t.Fatalf("expected click bonus 3 got %v", m.ClickBonus)
	}
	if !approx(m.AutoClicksPerSec, 0.8+1.5) {
		t.Fatalf("expected 2.3 auto clicks got %v", m.AutoClicksPerSec)
	}
	if !approx(m.EffectiveClickValue, 3*1.3) {
		t.Fatalf("unexpected effective click %v", m.EffectiveClickValue)
	}
	archive := m.Income["crystal-archive"]
	if !approx(archive.IncomePerUnit, 16*(1+0.4+0.2)*1.3) {
		t.Fatalf("unexpected archive income %v", archive.IncomePerUnit)
	}
	if !approx(archive.SparkTotalIncome, 2*0.15*(1+0.3+0.35)*1.3) {
		t.Fatalf("unexpected archive sparks %v", archive.SparkTotalIncome)
	}
	if _, ok := m.OwnedUpgrades["crystal-lens"]; !ok {
		t.Fatalf("expected owned-upgrade set to contain crystal-lens")
	}
}

func TestBoostOnlyAffectsCoins(t *testing.T) {
	cat := content.Default()
	calc := NewCalculator(cat)
	s := stateWith(cat, map[string]int{"holo-market": 3})

	plain := calc.Compute(s, 1)
	boosted := calc.Compute(s, BoostMultiplier)
	if !approx(boosted.CoinsPerSec, plain.CoinsPerSec*BoostMultiplier) {
		t.Fatalf("boost should scale coins: %v vs %v", boosted.CoinsPerSec, plain.CoinsPerSec)
	}
	if boosted.SparksPerSec != plain.SparksPerSec {
		t.Fatalf("boost must not touch sparks: %v vs %v", boosted.SparksPerSec, plain.SparksPerSec)
	}
	if !approx(boosted.EffectiveClickValue, BoostMultiplier) {
		t.Fatalf("boost should scale clicks, got %v", boosted.EffectiveClickValue)
	}
}

func TestCalculatorRebuildsIndexOnlyOnChange(t *testing.T) {
	cat := content.Default()
	calc := NewCalculator(cat)
	owned := []string{"pulse-mantra"}

	first := calc.Index(owned)
	if again := calc.Index([]string{"pulse-mantra"}); again != first {
		t.Fatalf("expected cached index for an equal upgrade set")
	}
	owned = append(owned, "pulse-choir")
	rebuilt := calc.Index(owned)
	if rebuilt == first {
		t.Fatalf("expected a rebuilt index after the set changed")
	}
	if !approx(rebuilt.ClickBonus, 7) {
		t.Fatalf("expected click bonus 7 got %v", rebuilt.ClickBonus)
	}
}

func TestTickGains(t *testing.T) {
	g := TickGains(Metrics{CoinsPerSec: 50, EffectiveClickValue: 1}, 100*time.Millisecond)
	if !approx(g.Coins, 5) || g.Sparks != 0 || g.Clicks != 0 {
		t.Fatalf("expected 5 coins per tick got %+v", g)
	}
	if acts := g.Actions(); len(acts) != 1 {
		t.Fatalf("expected a single AddCoins action got %d", len(acts))
	}

	g = TickGains(Metrics{CoinsPerSec: 10, SparksPerSec: 2, AutoClicksPerSec: 3, EffectiveClickValue: 4}, 100*time.Millisecond)
	if !approx(g.Coins, 1+1.2) || !approx(g.Sparks, 0.2) || !approx(g.Clicks, 0.3) {
		t.Fatalf("unexpected gains %+v", g)
	}
	if acts := g.Actions(); len(acts) != 3 {
		t.Fatalf("expected coins, sparks and clicks actions got %d", len(acts))
	}
}

func TestPrestigeGainMetric(t *testing.T) {
	cat := content.Default()
	s := Default(cat, testStart)
	s.Coins = 100_000
	if m := NewCalculator(cat).Compute(s, 1); m.PrestigeGain != 2 {
		t.Fatalf("expected gain 2 got %d", m.PrestigeGain)
	}
}

func TestAchievementProgress(t *testing.T) {
	cat := content.Default()
	s := stateWith(cat, map[string]int{"lumen-forge": 8}, "pulse-mantra")
	s.Coins = 60
	s.TotalClicks = 40
	s.Sparks = 3
	s.Prestige = 1
	m := NewCalculator(cat).Compute(s, 1)

	tests := []struct {
		metric string
		want   float64
	}{
		{metric: content.MetricCoins, want: 60},
		{metric: content.MetricClicks, want: 40},
		{metric: content.MetricBuildings, want: 8},
		{metric: content.MetricUpgrades, want: 1},
		{metric: content.MetricCoinsPerSec, want: m.CoinsPerSec},
		{metric: content.MetricSparks, want: 3},
		{metric: content.MetricPrestige, want: 1},
		{metric: "luck", want: 0},
	}
	for _, tc := range tests {
		if got := Progress(tc.metric, s, m); !approx(got, tc.want) {
			t.Fatalf("metric %s got %v want %v", tc.metric, got, tc.want)
		}
	}

	status := Achievements(cat, s, m)
	byID := make(map[string]AchievementStatus, len(status))
	for _, a := range status {
		byID[a.ID] = a
	}
	if !byID["first-scroll"].Unlocked || !byID["camp-master"].Unlocked || !byID["first-radiance"].Unlocked {
		t.Fatalf("expected coin, building and prestige achievements unlocked")
	}
	if clicks := byID["steady-hands"]; clicks.Unlocked || !approx(clicks.Ratio, 0.4) {
		t.Fatalf("unexpected click achievement %+v", clicks)
	}
}
