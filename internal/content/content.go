package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"
)

// Metric names understood by achievement progress lookups.
const (
	MetricCoins       = "coins"
	MetricClicks      = "clicks"
	MetricBuildings   = "buildings"
	MetricUpgrades    = "upgrades"
	MetricCoinsPerSec = "coinsPerSec"
	MetricSparks      = "sparks"
	MetricPrestige    = "prestige"
)

var (
	ErrUnknownID    = errors.New("unknown id")
	ErrInvalidTable = errors.New("invalid content table")
)

//go:embed tables.yaml
var embeddedTables []byte

// Building is an immutable building definition.
type Building struct {
	ID              string  `yaml:"id" json:"id"`
	Name            string  `yaml:"name" json:"name"`
	Desc            string  `yaml:"desc" json:"desc"`
	BaseIncome      float64 `yaml:"base_income" json:"base_income"`
	BaseSparkIncome float64 `yaml:"base_spark_income" json:"base_spark_income,omitempty"`
	BaseAutoClicks  float64 `yaml:"base_auto_clicks" json:"base_auto_clicks,omitempty"`
	CostBase        float64 `yaml:"cost_base" json:"cost_base"`
	CostExp         float64 `yaml:"cost_exp" json:"cost_exp"`
	SparkCostBase   float64 `yaml:"spark_cost_base" json:"spark_cost_base,omitempty"`
	SparkCostExp    float64 `yaml:"spark_cost_exp" json:"spark_cost_exp,omitempty"`
	Chapter         int     `yaml:"chapter" json:"chapter"`
	UnlockAt        float64 `yaml:"unlock_at" json:"unlock_at"`
}

// HasSparkCost reports whether the building is also priced in sparks.
func (b *Building) HasSparkCost() bool {
	return b.SparkCostBase > 0 && b.SparkCostExp > 0
}

// Upgrade is an immutable one-time purchase. An empty TargetBuildingID makes
// the bonus global.
type Upgrade struct {
	ID                     string  `yaml:"id" json:"id"`
	Name                   string  `yaml:"name" json:"name"`
	Desc                   string  `yaml:"desc" json:"desc"`
	Cost                   float64 `yaml:"cost" json:"cost"`
	SparkCost              float64 `yaml:"spark_cost" json:"spark_cost,omitempty"`
	UnlockAt               float64 `yaml:"unlock_at" json:"unlock_at"`
	TargetBuildingID       string  `yaml:"target_building_id" json:"target_building_id,omitempty"`
	IncomeMultiplier       float64 `yaml:"income_multiplier" json:"income_multiplier,omitempty"`
	SparkMultiplier        float64 `yaml:"spark_multiplier" json:"spark_multiplier,omitempty"`
	ClickBonus             float64 `yaml:"click_bonus" json:"click_bonus,omitempty"`
	AutoClicks             float64 `yaml:"auto_clicks" json:"auto_clicks,omitempty"`
	RequiresBuildings      int     `yaml:"requires_buildings" json:"requires_buildings,omitempty"`
	RequiresTotalBuildings int     `yaml:"requires_total_buildings" json:"requires_total_buildings,omitempty"`
}

// Global reports whether the upgrade applies to every building.
func (u *Upgrade) Global() bool {
	return u.TargetBuildingID == ""
}

type Achievement struct {
	ID          string  `yaml:"id" json:"id"`
	Title       string  `yaml:"title" json:"title"`
	Description string  `yaml:"description" json:"description"`
	Target      float64 `yaml:"target" json:"target"`
	Metric      string  `yaml:"metric" json:"metric"`
}

// FAQItem is one question shown by the lore screen.
type FAQItem struct {
	ID       string `yaml:"id" json:"id"`
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

// Catalog holds the static tables. It is read-only after Load.
type Catalog struct {
	Buildings    []Building    `yaml:"buildings" json:"buildings"`
	Upgrades     []Upgrade     `yaml:"upgrades" json:"upgrades"`
	Achievements []Achievement `yaml:"achievements" json:"achievements"`
	Story        []string      `yaml:"story" json:"story,omitempty"`
	FAQ          []FAQItem     `yaml:"faq" json:"faq,omitempty"`

	buildingIdx map[string]int
	upgradeIdx  map[string]int
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	defaultOnce.Do(func() {
		cat, err := Load(bytes.NewReader(embeddedTables))
		if err != nil {
			panic(fmt.Sprintf("embedded content tables: %v", err))
		}
		defaultCatalog = cat
	})
	return defaultCatalog
}

// Load parses and validates a YAML table document.
func Load(r io.Reader) (*Catalog, error) {
	var cat Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}
	if err := cat.index(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// LoadFile reads tables from path, or returns Default when path is empty.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tables: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (c *Catalog) index() error {
	c.buildingIdx = make(map[string]int, len(c.Buildings))
	c.upgradeIdx = make(map[string]int, len(c.Upgrades))

	for i := range c.Buildings {
		b := &c.Buildings[i]
		if strings.TrimSpace(b.ID) == "" {
			return fmt.Errorf("%w: building #%d has no id", ErrInvalidTable, i)
		}
		if _, dup := c.buildingIdx[b.ID]; dup {
			return fmt.Errorf("%w: duplicate building %q", ErrInvalidTable, b.ID)
		}
		if b.CostBase <= 0 || b.CostExp <= 1 {
			return fmt.Errorf("%w: building %q needs cost_base > 0 and cost_exp > 1", ErrInvalidTable, b.ID)
		}
		if (b.SparkCostBase > 0) != (b.SparkCostExp > 0) {
			return fmt.Errorf("%w: building %q sets only one spark cost parameter", ErrInvalidTable, b.ID)
		}
		if b.BaseIncome < 0 || b.BaseSparkIncome < 0 || b.BaseAutoClicks < 0 || b.UnlockAt < 0 {
			return fmt.Errorf("%w: building %q has a negative rate", ErrInvalidTable, b.ID)
		}
		c.buildingIdx[b.ID] = i
	}

	for i := range c.Upgrades {
		u := &c.Upgrades[i]
		if strings.TrimSpace(u.ID) == "" {
			return fmt.Errorf("%w: upgrade #%d has no id", ErrInvalidTable, i)
		}
		if _, dup := c.upgradeIdx[u.ID]; dup {
			return fmt.Errorf("%w: duplicate upgrade %q", ErrInvalidTable, u.ID)
		}
		if u.Cost < 0 || u.SparkCost < 0 || u.UnlockAt < 0 {
			return fmt.Errorf("%w: upgrade %q has a negative price", ErrInvalidTable, u.ID)
		}
		if u.TargetBuildingID != "" {
			if _, ok := c.buildingIdx[u.TargetBuildingID]; !ok {
				return fmt.Errorf("%w: upgrade %q targets unknown building %q", ErrInvalidTable, u.ID, u.TargetBuildingID)
			}
		}
		c.upgradeIdx[u.ID] = i
	}

	seen := make(map[string]struct{}, len(c.Achievements))
	for _, a := range c.Achievements {
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("%w: duplicate achievement %q", ErrInvalidTable, a.ID)
		}
		seen[a.ID] = struct{}{}
		if !KnownMetric(a.Metric) {
			return fmt.Errorf("%w: achievement %q uses unknown metric %q", ErrInvalidTable, a.ID, a.Metric)
		}
	}

	faq := make(map[string]struct{}, len(c.FAQ))
	for i, q := range c.FAQ {
		if strings.TrimSpace(q.ID) == "" || strings.TrimSpace(q.Question) == "" {
			return fmt.Errorf("%w: faq #%d needs an id and a question", ErrInvalidTable, i)
		}
		if _, dup := faq[q.ID]; dup {
			return fmt.Errorf("%w: duplicate faq %q", ErrInvalidTable, q.ID)
		}
		faq[q.ID] = struct{}{}
	}
	return nil
}

func KnownMetric(metric string) bool {
	switch metric {
	case MetricCoins, MetricClicks, MetricBuildings, MetricUpgrades, MetricCoinsPerSec, MetricSparks, MetricPrestige:
		return true
	default:
		return false
	}
}

// Building returns the definition with the given id.
func (c *Catalog) Building(id string) (*Building, bool) {
	i, ok := c.buildingIdx[id]
	if !ok {
		return nil, false
	}
	return &c.Buildings[i], true
}

// BuildingIndex returns the table position of a building, or -1.
func (c *Catalog) BuildingIndex(id string) int {
	i, ok := c.buildingIdx[id]
	if !ok {
		return -1
	}
	return i
}

func (c *Catalog) Upgrade(id string) (*Upgrade, bool) {
	i, ok := c.upgradeIdx[id]
	if !ok {
		return nil, false
	}
	return &c.Upgrades[i], true
}

// Suggest returns the known building or upgrade id closest to id, or "" when
// nothing is near enough to be a plausible typo.
func (c *Catalog) Suggest(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return ""
	}
	best := ""
	bestDist := math.MaxInt
	consider := func(cand string) {
		dist := levenshtein.ComputeDistance(id, cand)
		if dist < bestDist {
			best, bestDist = cand, dist
		}
	}
	for _, b := range c.Buildings {
		consider(b.ID)
	}
	for _, u := range c.Upgrades {
		consider(u.ID)
	}
	if bestDist > suggestLimit(len(best)) {
		return ""
	}
	return best
}

func suggestLimit(n int) int {
	switch {
	case n <= 4:
		return 1
	case n <= 10:
		return 2
	default:
		return 4
	}
}
