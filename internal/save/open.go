package save

import (
	"context"
	"fmt"
	"log/slog"

	"listaris/internal/config"
	"listaris/internal/db"
)

// Open builds the store selected by cfg.Store. The returned close func
// releases database handles and is safe to call for every store.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger) (Store, func(), error) {
	if log == nil {
		log = slog.Default()
	}
	noop := func() {}
	switch cfg.Store {
	case config.StoreMemory:
		return NewMemoryStore(), noop, nil
	case config.StoreFile:
		dir := cfg.SaveDir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, noop, err
			}
			dir = d
		}
		fs, err := NewFileStore(dir)
		if err != nil {
			return nil, noop, err
		}
		log.Debug("using file store", "dir", dir)
		return fs, noop, nil
	case config.StoreSQLite:
		st, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		log.Debug("using sqlite store", "path", cfg.SQLitePath)
		return st, func() {
			if err := st.Close(); err != nil {
				log.Warn("close sqlite store", "err", err)
			}
		}, nil
	case config.StorePostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		st, err := NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		log.Debug("using postgres store")
		return st, pool.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
