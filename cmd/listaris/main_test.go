package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"listaris/internal/config"
	"listaris/internal/game"
	"listaris/internal/session"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0"},
		{in: 0.34, want: "0.3"},
		{in: 12, want: "12"},
		{in: 999.99, want: "999.9"},
		{in: 1500, want: "1.50K"},
		{in: 2_500_000, want: "2.50M"},
		{in: -4200, want: "-4.20K"},
		{in: 3e18, want: "3.00Qi"},
	}
	for _, tc := range tests {
		if got := formatAmount(tc.in); got != tc.want {
			t.Fatalf("formatAmount(%v): want %q got %q", tc.in, tc.want, got)
		}
	}
}

func TestCommaAndTruncate(t *testing.T) {
	if got := comma(1234567); got != "1,234,567" {
		t.Fatalf("unexpected comma output %q", got)
	}
	if got := comma(-1000); got != "-1,000" {
		t.Fatalf("unexpected negative comma output %q", got)
	}
	if got := truncate("Crystal Archive", 10); got != "Crystal..." {
		t.Fatalf("unexpected truncate output %q", got)
	}
	if got := progressBar(0.5, 10); got != "[#####.....]  50%" {
		t.Fatalf("unexpected progress bar %q", got)
	}
}

func TestRenderLore(t *testing.T) {
	b := openLocal(t)
	cat, err := b.Catalog(context.Background())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	var out bytes.Buffer
	renderLore(&out, cat)
	text := out.String()
	if !strings.Contains(text, cat.Story[0]) || !strings.Contains(text, cat.FAQ[0].Question) {
		t.Fatalf("expected story and faq in output, got %q", text)
	}
	if err := b.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func openLocal(t *testing.T) *localBackend {
	t.Helper()
	cfg := config.Config{
		Store:          config.StoreMemory,
		SaveKey:        "listaris.save.v3",
		TickEvery:      100 * time.Millisecond,
		ClockEvery:     time.Second,
		SaveDebounce:   600 * time.Millisecond,
		SaveMaxWait:    5 * time.Second,
		ClickCooldown:  time.Millisecond,
		HeartbeatEvery: time.Second,
	}
	b, err := openBackend(context.Background(), cfg, "", nil)
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	local, ok := b.(*localBackend)
	if !ok {
		t.Fatalf("expected a local backend got %T", b)
	}
	return local
}

func TestLocalBackend(t *testing.T) {
	ctx := context.Background()
	b := openLocal(t)

	res, err := b.Click(ctx)
	if err != nil || !res.Accepted || res.Click == nil || res.State.Coins != 1 {
		t.Fatalf("unexpected click %+v err=%v", res, err)
	}

	list, err := b.Achievements(ctx)
	if err != nil || len(list) != len(b.sess.Catalog().Achievements) {
		t.Fatalf("expected every achievement listed, got %d err=%v", len(list), err)
	}

	_, err = b.BuyBuilding(ctx, "lumen-forj")
	if !errors.Is(err, session.ErrUnknownBuilding) {
		t.Fatalf("expected ErrUnknownBuilding got %v", err)
	}
	if hint := suggestionFor(ctx, b, err, "lumen-forj"); hint != "lumen-forge" {
		t.Fatalf("expected lumen-forge suggestion got %q", hint)
	}
	wrapped := unknownIDError(ctx, b, err, "lumen-forj")
	if !strings.Contains(wrapped.Error(), `did you mean "lumen-forge"`) {
		t.Fatalf("unexpected error text %q", wrapped)
	}

	b.sess.Dispatch(game.AddCoins{Amount: 30_000})
	res, err = b.Prestige(ctx)
	if err != nil || !res.Accepted || res.Gain != 1 || res.State.Prestige != 1 {
		t.Fatalf("unexpected prestige %+v err=%v", res, err)
	}

	b.Start(ctx)
	if err := b.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestPlayModelKeys(t *testing.T) {
	ctx := context.Background()
	b := openLocal(t)
	b.sess.Dispatch(game.AddCoins{Amount: 100})
	m := newPlayModel(ctx, b)

	msg := m.fetch()()
	next, _ := m.Update(msg)
	m = next.(playModel)
	if !m.loaded || m.view.Coins != 100 {
		t.Fatalf("expected loaded view with 100 coins got %+v", m.view)
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(playModel)
	if cmd == nil {
		t.Fatalf("expected a buy command for the selected building")
	}
	next, _ = m.Update(cmd())
	m = next.(playModel)
	if m.view.TotalBuildings != 1 || !m.flashGood {
		t.Fatalf("expected forge bought, got %d buildings flash=%q", m.view.TotalBuildings, m.flash)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(playModel)
	if m.pane != paneUpgrades || m.cursor != 0 {
		t.Fatalf("expected upgrade pane got %v/%d", m.pane, m.cursor)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(playModel)
	if n := len(visibleUpgrades(m.view)); m.cursor >= max(n, 1) {
		t.Fatalf("cursor escaped the list: %d of %d", m.cursor, n)
	}

	if !strings.Contains(m.View(), "LISTARIS") {
		t.Fatalf("expected a rendered title")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	if err := b.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}
