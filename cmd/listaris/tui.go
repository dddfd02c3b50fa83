package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"listaris/internal/remote"
	"listaris/internal/session"
)

const (
	refreshEvery = 200 * time.Millisecond
	flashFor     = 2 * time.Second
)

type pane int

const (
	paneBuildings pane = iota
	paneUpgrades
)

type keyMap struct {
	Click    key.Binding
	Buy      key.Binding
	Up       key.Binding
	Down     key.Binding
	Switch   key.Binding
	Boost    key.Binding
	Prestige key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Click, k.Buy, k.Switch, k.Boost, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Click, k.Buy, k.Up, k.Down},
		{k.Switch, k.Boost, k.Prestige},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Click:    key.NewBinding(key.WithKeys(" ", "c"), key.WithHelp("space", "click")),
	Buy:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "buy")),
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Switch:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "buildings/upgrades")),
	Boost:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "boost")),
	Prestige: key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "prestige")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "save & quit")),
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	goodStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	paneStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	dimPaneStyle  = paneStyle.BorderForeground(lipgloss.Color("238"))
)

type viewMsg struct {
	view session.View
	err  error
}

type actionMsg struct {
	label string
	res   remote.Result
	err   error
}

type refreshTick struct{}

type playModel struct {
	ctx    context.Context
	b      backend
	keys   keyMap
	help   help.Model
	view   session.View
	loaded bool
	err    error

	pane   pane
	cursor int

	flash      string
	flashGood  bool
	flashUntil time.Time
}

func newPlayModel(ctx context.Context, b backend) playModel {
	return playModel{ctx: ctx, b: b, keys: keys, help: help.New()}
}

func (m playModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(), scheduleRefresh())
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshEvery, func(time.Time) tea.Msg { return refreshTick{} })
}

func (m playModel) fetch() tea.Cmd {
	return func() tea.Msg {
		v, err := m.b.State(m.ctx)
		return viewMsg{view: v, err: err}
	}
}

func (m playModel) act(label string, fn func(ctx context.Context) (remote.Result, error)) tea.Cmd {
	return func() tea.Msg {
		res, err := fn(m.ctx)
		return actionMsg{label: label, res: res, err: err}
	}
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case refreshTick:
		return m, tea.Batch(m.fetch(), scheduleRefresh())
	case viewMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.view, m.loaded = msg.view, true
		m.clampCursor()
		return m, nil
	case actionMsg:
		return m.handleAction(msg), nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m playModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Click):
		return m, m.act("click", m.b.Click)
	case key.Matches(msg, m.keys.Boost):
		return m, m.act("boost", m.b.Boost)
	case key.Matches(msg, m.keys.Prestige):
		return m, m.act("prestige", m.b.Prestige)
	case key.Matches(msg, m.keys.Switch):
		if m.pane == paneBuildings {
			m.pane = paneUpgrades
		} else {
			m.pane = paneBuildings
		}
		m.cursor = 0
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		m.cursor++
		m.clampCursor()
	case key.Matches(msg, m.keys.Buy):
		return m, m.buySelected()
	}
	return m, nil
}

func (m playModel) buySelected() tea.Cmd {
	if m.pane == paneBuildings {
		if m.cursor >= len(m.view.Buildings) {
			return nil
		}
		id := m.view.Buildings[m.cursor].ID
		return m.act("buy "+id, func(ctx context.Context) (remote.Result, error) {
			return m.b.BuyBuilding(ctx, id)
		})
	}
	list := visibleUpgrades(m.view)
	if m.cursor >= len(list) {
		return nil
	}
	id := list[m.cursor].ID
	return m.act("upgrade "+id, func(ctx context.Context) (remote.Result, error) {
		return m.b.BuyUpgrade(ctx, id)
	})
}

func (m playModel) handleAction(msg actionMsg) playModel {
	m.flashUntil = time.Now().Add(flashFor)
	if msg.err != nil {
		m.flash, m.flashGood = msg.label+": "+msg.err.Error(), false
		return m
	}
	m.view, m.loaded = msg.res.State, true
	m.clampCursor()
	switch {
	case !msg.res.Accepted && msg.label == "click":
		// cooldown drop, not worth a message
		m.flashUntil = time.Time{}
	case !msg.res.Accepted:
		m.flash, m.flashGood = msg.label+": not now", false
	case msg.res.Click != nil:
		m.flash, m.flashGood = fmt.Sprintf("+%s", formatAmount(msg.res.Click.Value)), true
	case msg.res.Gain > 0:
		m.flash, m.flashGood = fmt.Sprintf("prestige +%d", msg.res.Gain), true
	default:
		m.flash, m.flashGood = msg.label+": done", true
	}
	return m
}

func (m *playModel) clampCursor() {
	n := len(m.view.Buildings)
	if m.pane == paneUpgrades {
		n = len(visibleUpgrades(m.view))
	}
	if m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func visibleUpgrades(v session.View) []session.UpgradeView {
	out := make([]session.UpgradeView, 0, len(v.Upgrades))
	for _, u := range v.Upgrades {
		if u.Unlocked && !u.Owned {
			out = append(out, u)
		}
	}
	return out
}

func (m playModel) View() string {
	if !m.loaded {
		if m.err != nil {
			return badStyle.Render("error: "+m.err.Error()) + "\n"
		}
		return "loading...\n"
	}
	v := m.view
	var b strings.Builder

	b.WriteString(titleStyle.Render("LISTARIS") + "  " + labelStyle.Render("session "+shortID(v.SessionID)) + "\n\n")
	b.WriteString(fmt.Sprintf("%s %s   %s %s/s   %s %s\n",
		labelStyle.Render("coins"), formatAmount(v.Coins),
		labelStyle.Render("income"), formatAmount(v.CoinsPerSec),
		labelStyle.Render("click"), formatAmount(v.ClickValue)))
	if v.Sparks > 0 || v.SparksPerSec > 0 {
		b.WriteString(fmt.Sprintf("%s %s (+%s/s)   ", labelStyle.Render("sparks"), formatAmount(v.Sparks), formatAmount(v.SparksPerSec)))
	}
	b.WriteString(fmt.Sprintf("%s %d (x%.2f)", labelStyle.Render("prestige"), v.Prestige, v.PrestigeMultiplier))
	if v.PrestigeGain > 0 {
		b.WriteString(goodStyle.Render(fmt.Sprintf("  +%d ready", v.PrestigeGain)))
	}
	b.WriteString("\n" + labelStyle.Render("boost") + " " + m.boostText() + "\n\n")

	left, right := dimPaneStyle, dimPaneStyle
	if m.pane == paneBuildings {
		left = paneStyle
	} else {
		right = paneStyle
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		left.Render(m.buildingsPane()),
		right.Render(m.upgradesPane()),
	))
	b.WriteString("\n")

	if m.flash != "" && time.Now().Before(m.flashUntil) {
		style := badStyle
		if m.flashGood {
			style = goodStyle
		}
		b.WriteString(style.Render(m.flash) + "\n")
	} else {
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(badStyle.Render("sync error: "+m.err.Error()) + "\n")
	}
	b.WriteString(m.help.View(m.keys) + "\n")
	return b.String()
}

func (m playModel) boostText() string {
	bv := m.view.Boost
	switch {
	case bv.Active:
		return goodStyle.Render(fmt.Sprintf("x%.2f for %s", bv.Multiplier, msDuration(bv.ActiveMs)))
	case bv.CooldownMs > 0:
		return warnStyle.Render("cooldown " + msDuration(bv.CooldownMs))
	default:
		return "ready"
	}
}

func (m playModel) buildingsPane() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Buildings") + "\n")
	for i, bv := range m.view.Buildings {
		cost := formatAmount(bv.Cost)
		if bv.SparkCost > 0 {
			cost += "+" + formatAmount(bv.SparkCost) + "sp"
		}
		costStyle := badStyle
		if bv.Affordable {
			costStyle = goodStyle
		}
		line := fmt.Sprintf("%-18s %4d  %s", truncate(bv.Name, 18), bv.Count, costStyle.Render(fmt.Sprintf("%10s", cost)))
		if m.pane == paneBuildings && i == m.cursor {
			line = selectedStyle.Render(fmt.Sprintf("%-18s %4d  %10s", truncate(bv.Name, 18), bv.Count, cost))
		}
		b.WriteString(line + "\n")
	}
	if next := m.view.NextBuilding; next != nil {
		b.WriteString(labelStyle.Render(fmt.Sprintf("next: %s at %s", next.Name, formatAmount(next.UnlockAt))))
	}
	return b.String()
}

func (m playModel) upgradesPane() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Upgrades") + "\n")
	list := visibleUpgrades(m.view)
	if len(list) == 0 {
		b.WriteString(labelStyle.Render("nothing available"))
		return b.String()
	}
	for i, u := range list {
		cost := formatAmount(u.Cost)
		costStyle := badStyle
		if u.Affordable {
			costStyle = goodStyle
		}
		line := fmt.Sprintf("%-20s %s", truncate(u.Name, 20), costStyle.Render(fmt.Sprintf("%10s", cost)))
		if m.pane == paneUpgrades && i == m.cursor {
			line = selectedStyle.Render(fmt.Sprintf("%-20s %10s", truncate(u.Name, 20), cost))
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (a *app) newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Open the interactive terminal game",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.New("play needs an interactive terminal")
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			b, err := openBackend(ctx, a.cfg, strings.TrimRight(strings.TrimSpace(a.serverURL), "/"), a.log)
			if err != nil {
				return err
			}
			b.Start(ctx)

			_, runErr := tea.NewProgram(newPlayModel(ctx, b), tea.WithAltScreen(), tea.WithContext(ctx)).Run()

			saveCtx, saveCancel := context.WithTimeout(context.Background(), commandTimeout)
			defer saveCancel()
			if err := b.Close(saveCtx); err != nil {
				a.log.Warn("final save failed", "err", err)
				if runErr == nil {
					runErr = err
				}
			}
			if runErr == nil {
				printSuccess("Progress saved. See you soon.")
			}
			return runErr
		},
	}
}
