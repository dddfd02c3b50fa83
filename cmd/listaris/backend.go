package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"listaris/internal/config"
	"listaris/internal/content"
	"listaris/internal/remote"
	"listaris/internal/save"
	"listaris/internal/session"
)

// backend is what every command talks to: a local session over the
// configured store, or a listaris-server over HTTP.
type backend interface {
	State(ctx context.Context) (session.View, error)
	Catalog(ctx context.Context) (*content.Catalog, error)
	Achievements(ctx context.Context) ([]session.AchievementView, error)
	Click(ctx context.Context) (remote.Result, error)
	BuyBuilding(ctx context.Context, id string) (remote.Result, error)
	BuyUpgrade(ctx context.Context, id string) (remote.Result, error)
	Boost(ctx context.Context) (remote.Result, error)
	Prestige(ctx context.Context) (remote.Result, error)
	Reset(ctx context.Context) (remote.Result, error)
	// Start begins background income where the backend owns it.
	Start(ctx context.Context)
	Close(ctx context.Context) error
}

func openBackend(ctx context.Context, cfg config.Config, serverURL string, log *slog.Logger) (backend, error) {
	if serverURL != "" {
		return remoteBackend{Client: remote.NewClient(serverURL)}, nil
	}
	cat, err := content.LoadFile(cfg.ContentPath)
	if err != nil {
		return nil, err
	}
	store, closeStore, err := save.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	sess, err := session.Open(ctx, session.Options{
		Catalog:       cat,
		Store:         store,
		Key:           cfg.SaveKey,
		Logger:        log,
		TickEvery:     cfg.TickEvery,
		ClockEvery:    cfg.ClockEvery,
		SaveDebounce:  cfg.SaveDebounce,
		SaveMaxWait:   cfg.SaveMaxWait,
		ClickCooldown: cfg.ClickCooldown,
	})
	if err != nil {
		closeStore()
		return nil, err
	}
	return &localBackend{sess: sess, closeStore: closeStore}, nil
}

type remoteBackend struct {
	*remote.Client
}

func (remoteBackend) Start(context.Context) {}

func (remoteBackend) Close(context.Context) error { return nil }

type localBackend struct {
	sess       *session.Session
	closeStore func()

	mu   sync.Mutex
	stop context.CancelFunc
	done chan struct{}
}

func (l *localBackend) State(context.Context) (session.View, error) {
	return l.sess.View(), nil
}

func (l *localBackend) Achievements(context.Context) ([]session.AchievementView, error) {
	return l.sess.View().Achievements, nil
}

func (l *localBackend) Catalog(context.Context) (*content.Catalog, error) {
	return l.sess.Catalog(), nil
}

func (l *localBackend) Click(context.Context) (remote.Result, error) {
	click, ok := l.sess.Click()
	res := l.result(ok)
	if ok {
		res.Click = &click
	}
	return res, nil
}

func (l *localBackend) BuyBuilding(_ context.Context, id string) (remote.Result, error) {
	ok, err := l.sess.BuyBuilding(id)
	if err != nil {
		return remote.Result{}, err
	}
	return l.result(ok), nil
}

func (l *localBackend) BuyUpgrade(_ context.Context, id string) (remote.Result, error) {
	ok, err := l.sess.BuyUpgrade(id)
	if err != nil {
		return remote.Result{}, err
	}
	return l.result(ok), nil
}

func (l *localBackend) Boost(context.Context) (remote.Result, error) {
	return l.result(l.sess.ActivateBoost()), nil
}

func (l *localBackend) Prestige(context.Context) (remote.Result, error) {
	gain, ok := l.sess.Prestige()
	res := l.result(ok)
	res.Gain = gain
	return res, nil
}

func (l *localBackend) Reset(context.Context) (remote.Result, error) {
	l.sess.Reset()
	return l.result(true), nil
}

func (l *localBackend) result(accepted bool) remote.Result {
	return remote.Result{Accepted: accepted, State: l.sess.View()}
}

func (l *localBackend) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	l.stop = cancel
	l.done = make(chan struct{})
	go func() {
		defer close(l.done)
		l.sess.Run(runCtx)
	}()
}

// Close stops income, writes the final state and releases the store.
func (l *localBackend) Close(ctx context.Context) error {
	l.mu.Lock()
	if l.stop != nil {
		l.stop()
		<-l.done
		l.stop = nil
	}
	l.mu.Unlock()
	err := l.sess.SaveNow(ctx)
	l.closeStore()
	return err
}

// suggestionFor returns a likely intended id for an unknown-id error.
func suggestionFor(ctx context.Context, b backend, err error, id string) string {
	var apiErr *remote.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Suggestion
	}
	if !errors.Is(err, session.ErrUnknownBuilding) && !errors.Is(err, session.ErrUnknownUpgrade) {
		return ""
	}
	cat, cerr := b.Catalog(ctx)
	if cerr != nil {
		return ""
	}
	return cat.Suggest(id)
}
