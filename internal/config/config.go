package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config covers both binaries. The server reads Addr and HeartbeatEvery; the
// CLI reads ServerURL.
type Config struct {
	Store       string
	SaveDir     string
	SQLitePath  string
	DatabaseURL string
	SaveKey     string
	ContentPath string

	Addr      string
	ServerURL string

	TickEvery      time.Duration
	ClockEvery     time.Duration
	SaveDebounce   time.Duration
	SaveMaxWait    time.Duration
	ClickCooldown  time.Duration
	HeartbeatEvery time.Duration

	LogLevel slog.Level
}

func LoadFromEnv() (Config, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("LISTARIS_ADDR", ":8080")
	}

	cfg := Config{
		Store:          strings.ToLower(envDefault("LISTARIS_STORE", StoreFile)),
		SaveDir:        strings.TrimSpace(os.Getenv("LISTARIS_SAVE_DIR")),
		SQLitePath:     strings.TrimSpace(os.Getenv("LISTARIS_SQLITE_PATH")),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SaveKey:        envDefault("LISTARIS_SAVE_KEY", "listaris.save.v3"),
		ContentPath:    strings.TrimSpace(os.Getenv("LISTARIS_CONTENT_PATH")),
		Addr:           addr,
		ServerURL:      strings.TrimRight(strings.TrimSpace(os.Getenv("LISTARIS_SERVER_URL")), "/"),
		TickEvery:      envDurationDefault("LISTARIS_TICK_EVERY", 100*time.Millisecond),
		ClockEvery:     envDurationDefault("LISTARIS_CLOCK_EVERY", time.Second),
		SaveDebounce:   envDurationDefault("LISTARIS_SAVE_DEBOUNCE", 600*time.Millisecond),
		SaveMaxWait:    envDurationDefault("LISTARIS_SAVE_MAX_WAIT", 5*time.Second),
		ClickCooldown:  envDurationDefault("LISTARIS_CLICK_COOLDOWN", 80*time.Millisecond),
		HeartbeatEvery: envDurationDefault("LISTARIS_HEARTBEAT_EVERY", time.Second),
		LogLevel:       envLevelDefault("LISTARIS_LOG_LEVEL", slog.LevelWarn),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreFile, StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("LISTARIS_SQLITE_PATH is required for the sqlite store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown LISTARIS_STORE %q (want file, memory, sqlite or postgres)", c.Store)
	}
	if strings.TrimSpace(c.SaveKey) == "" {
		return fmt.Errorf("LISTARIS_SAVE_KEY must not be empty")
	}
	if c.TickEvery <= 0 || c.ClockEvery <= 0 || c.HeartbeatEvery <= 0 {
		return fmt.Errorf("tick, clock and heartbeat intervals must be > 0")
	}
	if c.SaveDebounce < 0 || c.SaveMaxWait < 0 || c.ClickCooldown < 0 {
		return fmt.Errorf("save debounce, save max wait and click cooldown must be >= 0")
	}
	return nil
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envLevelDefault(key string, fallback slog.Level) slog.Level {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return fallback
	}
	return lvl
}
