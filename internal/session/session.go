package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"listaris/internal/clock"
	"listaris/internal/content"
	"listaris/internal/game"
	"listaris/internal/save"
)

var (
	ErrUnknownBuilding = errors.New("unknown building")
	ErrUnknownUpgrade  = errors.New("unknown upgrade")
)

const (
	defaultTickEvery     = 100 * time.Millisecond
	defaultClockEvery    = time.Second
	defaultSaveDebounce  = 600 * time.Millisecond
	defaultSaveMaxWait   = 5 * time.Second
	defaultClickCooldown = 80 * time.Millisecond
	saveTimeout          = 10 * time.Second
)

type Options struct {
	Catalog *content.Catalog
	Store   save.Store
	Key     string
	Clock   clock.Clock
	Logger  *slog.Logger

	TickEvery     time.Duration
	ClockEvery    time.Duration
	SaveDebounce  time.Duration
	SaveMaxWait   time.Duration
	ClickCooldown time.Duration
}

// Session owns one live game: the state, the boost window, the display clock,
// the debounced saver and the click limiter. All mutation goes through
// Dispatch.
type Session struct {
	id    string
	key   string
	store save.Store
	clock clock.Clock
	log   *slog.Logger

	tickEvery  time.Duration
	clockEvery time.Duration

	reducer *game.Reducer
	saver   *save.Debouncer
	// writeMu orders writes so a slow store never lets an older snapshot
	// land after a newer one.
	writeMu sync.Mutex

	mu         sync.Mutex
	state      game.GameState
	calc       *game.Calculator
	boost      game.Boost
	now        time.Time
	clicks     *rate.Limiter
	particleID int64
}

// Click is an accepted manual click. ID increases with every click and keys
// the floating value shown by the UI.
type Click struct {
	ID    int64   `json:"id"`
	Value float64 `json:"value"`
}

// Snapshot is a consistent copy of everything a view needs.
type Snapshot struct {
	SessionID string
	State     game.GameState
	Metrics   game.Metrics
	Boost     game.Boost
	Now       time.Time
}

// Open loads the save under opts.Key and returns a ready session. Run must be
// called to accrue income.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("session: store is required")
	}
	if opts.Catalog == nil {
		opts.Catalog = content.Default()
	}
	if opts.Key == "" {
		opts.Key = save.DefaultKey
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	opts.TickEvery = durationOr(opts.TickEvery, defaultTickEvery)
	opts.ClockEvery = durationOr(opts.ClockEvery, defaultClockEvery)
	opts.SaveDebounce = durationOr(opts.SaveDebounce, defaultSaveDebounce)
	opts.SaveMaxWait = durationOr(opts.SaveMaxWait, defaultSaveMaxWait)
	opts.ClickCooldown = durationOr(opts.ClickCooldown, defaultClickCooldown)

	now := opts.Clock.Now()
	s := &Session{
		id:         uuid.NewString(),
		key:        opts.Key,
		store:      opts.Store,
		clock:      opts.Clock,
		log:        opts.Logger,
		tickEvery:  opts.TickEvery,
		clockEvery: opts.ClockEvery,
		reducer:    game.NewReducer(opts.Catalog),
		calc:       game.NewCalculator(opts.Catalog),
		now:        now,
		clicks:     rate.NewLimiter(rate.Every(opts.ClickCooldown), 1),
	}
	s.state = save.Load(ctx, opts.Store, opts.Key, opts.Catalog, now, opts.Logger)
	s.saver = save.NewDebouncer(s.clock, opts.SaveDebounce, opts.SaveMaxWait, s.debouncedSave)
	return s, nil
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Catalog() *content.Catalog {
	return s.reducer.Catalog()
}

// Dispatch applies a and reports whether the state changed. Progress changes
// schedule a debounced save.
func (s *Session) Dispatch(a game.Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatchLocked(a)
}

func (s *Session) dispatchLocked(a game.Action) bool {
	prev := s.state
	s.state = s.reducer.Reduce(prev, a)
	if !progressChanged(prev, s.state) {
		return prev.LastSavedAt != s.state.LastSavedAt
	}
	s.saver.Trigger()
	return true
}

// progressChanged ignores LastSavedAt so recording a write never schedules
// another one.
func progressChanged(a, b game.GameState) bool {
	if a.Coins != b.Coins || a.Sparks != b.Sparks || a.TotalClicks != b.TotalClicks || a.Prestige != b.Prestige {
		return true
	}
	if !slices.Equal(a.Upgrades, b.Upgrades) {
		return true
	}
	return !slices.EqualFunc(a.Buildings, b.Buildings, func(x, y game.BuildingState) bool {
		return x.ID == y.ID && x.Count == y.Count
	})
}

// Click earns one effective click value. Clicks closer together than the
// cooldown are dropped.
func (s *Session) Click() (Click, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	if !s.clicks.AllowN(now, 1) {
		return Click{}, false
	}
	m := s.calc.Compute(s.state, s.boost.Multiplier(now))
	s.dispatchLocked(game.AddCoins{Amount: m.EffectiveClickValue})
	s.dispatchLocked(game.RegisterClick{})
	s.particleID++
	return Click{ID: s.particleID, Value: m.EffectiveClickValue}, true
}

// BuyBuilding reports whether the purchase went through. Only unknown ids are
// errors; unaffordable purchases return false.
func (s *Session) BuyBuilding(id string) (bool, error) {
	if _, ok := s.Catalog().Building(id); !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownBuilding, id)
	}
	return s.Dispatch(game.BuyBuilding{ID: id}), nil
}

func (s *Session) BuyUpgrade(id string) (bool, error) {
	if _, ok := s.Catalog().Upgrade(id); !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownUpgrade, id)
	}
	return s.Dispatch(game.BuyUpgrade{ID: id}), nil
}

// ActivateBoost opens a boost window unless one is active or cooling down.
func (s *Session) ActivateBoost() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	next, ok := s.boost.Activate(now)
	if !ok {
		return false
	}
	s.boost = next
	s.now = now
	return true
}

// Prestige converts the current run into prestige points. It returns the
// points gained, or false when the run is below the threshold.
func (s *Session) Prestige() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gain := game.PrestigeGain(s.state.Coins)
	if gain <= 0 {
		return 0, false
	}
	s.dispatchLocked(game.Prestige{Gain: gain, At: s.clock.Now()})
	return gain, true
}

// Reset wipes all progress including prestige and clears the boost window.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boost = game.Boost{}
	s.dispatchLocked(game.Reset{At: s.clock.Now()})
}

// Tick applies one income slice using rates derived from the current state.
func (s *Session) Tick() game.Gains {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.calc.Compute(s.state, s.boost.Multiplier(s.clock.Now()))
	gains := game.TickGains(m, s.tickEvery)
	for _, a := range gains.Actions() {
		s.dispatchLocked(a)
	}
	return gains
}

// RefreshClock moves the display clock used for boost countdowns.
func (s *Session) RefreshClock() {
	s.mu.Lock()
	s.now = s.clock.Now()
	s.mu.Unlock()
}

// Run drives income and the display clock until ctx is done. A pending
// debounced save is dropped on exit; callers that need the last state on disk
// call SaveNow.
func (s *Session) Run(ctx context.Context) {
	income := time.NewTicker(s.tickEvery)
	defer income.Stop()
	display := time.NewTicker(s.clockEvery)
	defer display.Stop()
	defer s.saver.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-income.C:
			s.Tick()
		case <-display.C:
			s.RefreshClock()
		}
	}
}

// SaveNow writes the current state synchronously and cancels any pending
// debounced save.
func (s *Session) SaveNow(ctx context.Context) error {
	s.saver.Cancel()
	return s.write(ctx)
}

func (s *Session) debouncedSave() {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.write(ctx); err != nil {
		s.log.Warn("debounced save failed", "key", s.key, "err", err)
	}
}

func (s *Session) write(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	ts, err := save.Write(ctx, s.store, s.key, state, s.clock.Now())
	if err != nil {
		return err
	}
	s.Dispatch(game.UpdateSaveTimestamp{Timestamp: ts})
	s.log.Debug("saved", "key", s.key, "coins", state.Coins)
	return nil
}

// Snapshot returns copies of the state and derived metrics. Boost countdowns
// should be read against Now, which only moves with RefreshClock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		SessionID: s.id,
		State:     s.state,
		Metrics:   s.calc.Compute(s.state, s.boost.Multiplier(s.clock.Now())),
		Boost:     s.boost,
		Now:       s.now,
	}
}

func (s *Session) View() View {
	snap := s.Snapshot()
	return NewView(s.reducer, snap)
}
