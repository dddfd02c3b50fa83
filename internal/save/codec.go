package save

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"listaris/internal/content"
	"listaris/internal/game"
)

// Record is the persisted JSON shape. Buildings carry only id and count; every
// other building field comes from the running catalog.
type Record struct {
	Coins       float64          `json:"coins"`
	Sparks      float64          `json:"sparks"`
	Buildings   []BuildingRecord `json:"buildings"`
	Upgrades    []string         `json:"upgrades"`
	TotalClicks float64          `json:"totalClicks"`
	Prestige    int64            `json:"prestige"`
	LastSavedAt int64            `json:"lastSavedAt"`
}

type BuildingRecord struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func Encode(s game.GameState) ([]byte, error) {
	rec := Record{
		Coins:       s.Coins,
		Sparks:      s.Sparks,
		Buildings:   make([]BuildingRecord, len(s.Buildings)),
		Upgrades:    s.Upgrades,
		TotalClicks: s.TotalClicks,
		Prestige:    s.Prestige,
		LastSavedAt: s.LastSavedAt,
	}
	if rec.Upgrades == nil {
		rec.Upgrades = []string{}
	}
	for i, b := range s.Buildings {
		rec.Buildings[i] = BuildingRecord{ID: b.ID, Count: b.Count}
	}
	return json.Marshal(rec)
}

// Hydrate rebuilds a state from a saved blob, field by field. Missing or
// malformed fields fall back to their defaults; only a blob that is not a JSON
// object at all is rejected with ErrCorrupt.
func Hydrate(cat *content.Catalog, raw []byte, now time.Time) (game.GameState, error) {
	if !gjson.ValidBytes(raw) {
		return game.GameState{}, ErrCorrupt
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return game.GameState{}, ErrCorrupt
	}

	s := game.Default(cat, now)
	s.Coins = numberOr(doc.Get("coins"), 0)
	s.Sparks = numberOr(doc.Get("sparks"), 0)
	s.TotalClicks = numberOr(doc.Get("totalClicks"), 0)
	s.Prestige = int64(wholeOr(doc.Get("prestige"), 0, maxExactInt))
	s.LastSavedAt = int64(wholeOr(doc.Get("lastSavedAt"), float64(now.UnixMilli()), maxExactInt))

	if saved := doc.Get("buildings"); saved.IsArray() {
		counts := make(map[string]int)
		saved.ForEach(func(_, item gjson.Result) bool {
			id := item.Get("id")
			if id.Type != gjson.String {
				return true
			}
			if _, seen := counts[id.Str]; !seen {
				counts[id.Str] = int(wholeOr(item.Get("count"), 0, math.MaxInt32))
			}
			return true
		})
		for i := range s.Buildings {
			s.Buildings[i].Count = counts[s.Buildings[i].ID]
		}
	}

	if saved := doc.Get("upgrades"); saved.IsArray() {
		seen := make(map[string]struct{})
		saved.ForEach(func(_, item gjson.Result) bool {
			if item.Type != gjson.String {
				return true
			}
			if _, dup := seen[item.Str]; dup {
				return true
			}
			if _, known := cat.Upgrade(item.Str); !known {
				return true
			}
			seen[item.Str] = struct{}{}
			s.Upgrades = append(s.Upgrades, item.Str)
			return true
		})
	}
	return s, nil
}

// numberOr coerces numbers and numeric strings. Anything else, including
// negative or non-finite values, yields fallback.
func numberOr(v gjson.Result, fallback float64) float64 {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return fallback
		}
		f = parsed
	default:
		return fallback
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return fallback
	}
	return f
}

// maxExactInt is the largest integer a float64 holds without rounding.
const maxExactInt = 1 << 53

// wholeOr is numberOr truncated to a whole number. Values above limit cannot
// be converted to the target integer type and yield fallback.
func wholeOr(v gjson.Result, fallback, limit float64) float64 {
	f := math.Floor(numberOr(v, fallback))
	if f > limit {
		return fallback
	}
	return f
}

// Load reads the save under key. A missing save starts a fresh game; an
// unreadable or corrupt one is logged and replaced by a fresh game.
func Load(ctx context.Context, store Store, key string, cat *content.Catalog, now time.Time, log *slog.Logger) game.GameState {
	if log == nil {
		log = slog.Default()
	}
	raw, err := store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warn("save read failed, starting fresh", "key", key, "err", err)
		}
		return game.Default(cat, now)
	}
	s, err := Hydrate(cat, raw, now)
	if err != nil {
		log.Warn("save unreadable, starting fresh", "key", key, "err", err)
		return game.Default(cat, now)
	}
	return s
}

// Write stamps s with now, stores it and returns the stamp in ms.
func Write(ctx context.Context, store Store, key string, s game.GameState, now time.Time) (int64, error) {
	s.LastSavedAt = now.UnixMilli()
	body, err := Encode(s)
	if err != nil {
		return 0, fmt.Errorf("encode save: %w", err)
	}
	if err := store.Put(ctx, key, body); err != nil {
		return 0, fmt.Errorf("store save %q: %w", key, err)
	}
	return s.LastSavedAt, nil
}
