package content

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCatalogTables(t *testing.T) {
	cat := Default()
	if len(cat.Buildings) != 9 {
		t.Fatalf("expected 9 buildings got %d", len(cat.Buildings))
	}
	forge, ok := cat.Building("lumen-forge")
	if !ok {
		t.Fatalf("expected lumen-forge in catalog")
	}
	if forge.CostBase != 12 || forge.CostExp != 1.15 {
		t.Fatalf("unexpected lumen-forge price curve: %+v", forge)
	}
	if forge.HasSparkCost() {
		t.Fatalf("lumen-forge should not cost sparks")
	}
	station, _ := cat.Building("spark-station")
	if !station.HasSparkCost() {
		t.Fatalf("spark-station should cost sparks")
	}

	night, ok := cat.Upgrade("night-shift")
	if !ok {
		t.Fatalf("expected night-shift upgrade")
	}
	if night.Cost != 1600 || night.UnlockAt != 1000 || night.RequiresTotalBuildings != 10 || !night.Global() {
		t.Fatalf("unexpected night-shift definition: %+v", night)
	}
	if cat.BuildingIndex("gravity-temple") != 8 {
		t.Fatalf("expected gravity-temple last, got %d", cat.BuildingIndex("gravity-temple"))
	}
	if cat.BuildingIndex("nope") != -1 {
		t.Fatalf("expected -1 for unknown building")
	}
	if len(cat.Story) == 0 || len(cat.FAQ) == 0 {
		t.Fatalf("expected story and faq tables, got %d/%d", len(cat.Story), len(cat.FAQ))
	}
}

func TestLoadRejectsInvalidTables(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "duplicate building",
			doc: `
buildings:
  - {id: a, cost_base: 1, cost_exp: 1.1}
  - {id: a, cost_base: 1, cost_exp: 1.1}
`,
		},
		{
			name: "flat price curve",
			doc: `
buildings:
  - {id: a, cost_base: 1, cost_exp: 1}
`,
		},
		{
			name: "half spark cost",
			doc: `
buildings:
  - {id: a, cost_base: 1, cost_exp: 1.1, spark_cost_base: 3}
`,
		},
		{
			name: "unknown target",
			doc: `
buildings:
  - {id: a, cost_base: 1, cost_exp: 1.1}
upgrades:
  - {id: u, cost: 1, target_building_id: b}
`,
		},
		{
			name: "unknown metric",
			doc: `
achievements:
  - {id: x, target: 1, metric: luck}
`,
		},
		{
			name: "duplicate faq",
			doc: `
faq:
  - {id: q, question: one}
  - {id: q, question: two}
`,
		},
		{
			name: "faq without question",
			doc: `
faq:
  - {id: q, answer: nothing asked}
`,
		},
	}
	for _, tc := range tests {
		_, err := Load(strings.NewReader(tc.doc))
		if !errors.Is(err, ErrInvalidTable) {
			t.Fatalf("%s: expected ErrInvalidTable got %v", tc.name, err)
		}
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("buildings:\n  - {id: a, cost_base: 1, cost_exp: 1.1, colour: red}\n"))
	if err == nil {
		t.Fatalf("expected unknown yaml field to fail")
	}
}

func TestSuggest(t *testing.T) {
	cat := Default()
	tests := []struct {
		in   string
		want string
	}{
		{in: "lumen-forg", want: "lumen-forge"},
		{in: "Night-Shift", want: "night-shift"},
		{in: "luminray", want: "luminary"},
		{in: "zzzzzzzzzzzzzzzzzzz", want: ""},
		{in: "", want: ""},
	}
	for _, tc := range tests {
		if got := cat.Suggest(tc.in); got != tc.want {
			t.Fatalf("Suggest(%q) got %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestLoadFile(t *testing.T) {
	cat, err := LoadFile("")
	if err != nil || cat != Default() {
		t.Fatalf("empty path should return the embedded tables, err=%v", err)
	}

	path := filepath.Join(t.TempDir(), "tables.yaml")
	if err := os.WriteFile(path, embeddedTables, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cat, err = LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if len(cat.Buildings) != len(Default().Buildings) {
		t.Fatalf("expected the same tables from disk")
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
