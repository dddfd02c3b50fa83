package game

import "listaris/internal/content"

// Progress maps a named metric to its current value. Unknown metrics are 0.
func Progress(metric string, s GameState, m Metrics) float64 {
	switch metric {
	case content.MetricCoins:
		return s.Coins
	case content.MetricClicks:
		return s.TotalClicks
	case content.MetricBuildings:
		return float64(s.TotalBuildings())
	case content.MetricUpgrades:
		return float64(len(s.Upgrades))
	case content.MetricCoinsPerSec:
		return m.CoinsPerSec
	case content.MetricSparks:
		return s.Sparks
	case content.MetricPrestige:
		return float64(s.Prestige)
	default:
		return 0
	}
}

type AchievementStatus struct {
	*content.Achievement
	Progress float64
	Ratio    float64
	Unlocked bool
}

func Achievements(cat *content.Catalog, s GameState, m Metrics) []AchievementStatus {
	out := make([]AchievementStatus, 0, len(cat.Achievements))
	for i := range cat.Achievements {
		a := &cat.Achievements[i]
		p := Progress(a.Metric, s, m)
		ratio := 1.0
		if a.Target > 0 {
			ratio = min(p/a.Target, 1)
		}
		out = append(out, AchievementStatus{
			Achievement: a,
			Progress:    p,
			Ratio:       ratio,
			Unlocked:    p >= a.Target,
		})
	}
	return out
}
