package game

import (
	"math"

	"listaris/internal/content"
)

// PurchaseCost is floor(costBase * costExp^count).
func PurchaseCost(def *content.Building, count int) float64 {
	return math.Floor(def.CostBase * math.Pow(def.CostExp, float64(count)))
}

// SparkCost is floor(sparkCostBase * sparkCostExp^count), or 0 for buildings
// priced in coins only.
func SparkCost(def *content.Building, count int) float64 {
	if !def.HasSparkCost() {
		return 0
	}
	return math.Floor(def.SparkCostBase * math.Pow(def.SparkCostExp, float64(count)))
}

// UnitIncome is the coins per second produced by one unit. bonus is the sum of
// the building-specific and global income bonuses.
func UnitIncome(def *content.Building, bonus, prestigeMult, boostMult float64) float64 {
	return def.BaseIncome * (1 + bonus) * prestigeMult * boostMult
}

// UnitSparkIncome mirrors UnitIncome for sparks. The boost never applies.
func UnitSparkIncome(def *content.Building, sparkBonus, prestigeMult float64) float64 {
	return def.BaseSparkIncome * (1 + sparkBonus) * prestigeMult
}
