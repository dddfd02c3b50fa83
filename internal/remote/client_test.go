package remote

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"listaris/internal/api"
	"listaris/internal/clock"
	"listaris/internal/game"
	"listaris/internal/save"
	"listaris/internal/session"
)

func newTestServer(t *testing.T) (*Client, *session.Session) {
	t.Helper()
	sess, err := session.Open(context.Background(), session.Options{
		Store: save.NewMemoryStore(),
		Clock: clock.NewManual(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := api.NewHub(nil)
	go hub.Run(ctx)

	ts := httptest.NewServer(api.New(nil, sess, hub).Handler())
	t.Cleanup(ts.Close)
	return NewClient(ts.URL + "/"), sess
}

func TestClientRoundTrip(t *testing.T) {
	c, sess := newTestServer(t)
	ctx := context.Background()

	view, err := c.State(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if view.SessionID != sess.ID() || view.Coins != 0 {
		t.Fatalf("unexpected view %+v", view)
	}

	res, err := c.Click(ctx)
	if err != nil || !res.Accepted || res.Click == nil || res.Click.ID != 1 {
		t.Fatalf("unexpected click result %+v err=%v", res, err)
	}
	if res.State.Coins != 1 {
		t.Fatalf("expected 1 coin after click got %v", res.State.Coins)
	}

	sess.Dispatch(game.AddCoins{Amount: 50})
	res, err = c.BuyBuilding(ctx, "lumen-forge")
	if err != nil || !res.Accepted {
		t.Fatalf("expected purchase %+v err=%v", res, err)
	}

	res, err = c.Boost(ctx)
	if err != nil || !res.Accepted || !res.State.Boost.Active {
		t.Fatalf("expected boost %+v err=%v", res.State.Boost, err)
	}

	res, err = c.Prestige(ctx)
	if err != nil || res.Accepted {
		t.Fatalf("expected prestige blocked %+v err=%v", res, err)
	}

	res, err = c.Reset(ctx)
	if err != nil || !res.Accepted || res.State.TotalBuildings != 0 {
		t.Fatalf("expected reset %+v err=%v", res, err)
	}
}

func TestClientCatalogAndAchievements(t *testing.T) {
	c, sess := newTestServer(t)
	ctx := context.Background()

	cat, err := c.Catalog(ctx)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(cat.Buildings) != len(sess.Catalog().Buildings) || len(cat.Upgrades) != len(sess.Catalog().Upgrades) {
		t.Fatalf("catalog mismatch")
	}
	list, err := c.Achievements(ctx)
	if err != nil || len(list) != len(sess.Catalog().Achievements) {
		t.Fatalf("unexpected achievements %d err=%v", len(list), err)
	}
}

func TestClientUnknownID(t *testing.T) {
	c, _ := newTestServer(t)
	_, err := c.BuyUpgrade(context.Background(), "pulse-mantraa")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Suggestion != "pulse-mantra" {
		t.Fatalf("expected suggestion got %+v", apiErr)
	}
}
