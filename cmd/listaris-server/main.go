package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"listaris/internal/api"
	"listaris/internal/config"
	"listaris/internal/content"
	"listaris/internal/save"
	"listaris/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: min(cfg.LogLevel, slog.LevelInfo)}))
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	cat, err := content.LoadFile(cfg.ContentPath)
	if err != nil {
		return err
	}
	store, closeStore, err := save.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	sess, err := session.Open(ctx, session.Options{
		Catalog:       cat,
		Store:         store,
		Key:           cfg.SaveKey,
		Logger:        logger,
		TickEvery:     cfg.TickEvery,
		ClockEvery:    cfg.ClockEvery,
		SaveDebounce:  cfg.SaveDebounce,
		SaveMaxWait:   cfg.SaveMaxWait,
		ClickCooldown: cfg.ClickCooldown,
	})
	if err != nil {
		return err
	}

	hub := api.NewHub(logger)
	server := api.New(logger, sess, hub)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.Run(runCtx)
	}()
	go hub.Run(runCtx)
	go server.Heartbeat(runCtx, cfg.HeartbeatEvery)

	go func() {
		<-runCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("listaris server listening", "addr", cfg.Addr, "store", cfg.Store, "session_id", sess.ID())
	serveErr := httpServer.ListenAndServe()
	if errors.Is(serveErr, http.ErrServerClosed) {
		serveErr = nil
	}

	cancelRun()
	<-done

	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sess.SaveNow(saveCtx); err != nil {
		logger.Error("final save failed", "err", err)
		if serveErr == nil {
			serveErr = err
		}
	} else {
		logger.Info("final save written", "key", cfg.SaveKey)
	}
	return serveErr
}
