package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"listaris/internal/content"
	"listaris/internal/remote"
	"listaris/internal/session"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
	muted       = color.New(color.FgHiBlack)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func confirm(question string) (bool, error) {
	fmt.Printf("%s (y/n) [n]: ", question)
	text, err := stdinReader.ReadString('\n')
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "y", "yes":
		return true, nil
	default:
		printInfo("Cancelled.")
		return false, nil
	}
}

func renderStatus(v session.View) {
	accent.Println("\n== LISTARIS ==")
	fmt.Printf("Coins:        %s\n", formatAmount(v.Coins))
	fmt.Printf("Income:       %s/s\n", formatAmount(v.CoinsPerSec))
	if v.Sparks > 0 || v.SparksPerSec > 0 {
		fmt.Printf("Sparks:       %s (+%s/s)\n", formatAmount(v.Sparks), formatAmount(v.SparksPerSec))
	}
	fmt.Printf("Click value:  %s\n", formatAmount(v.ClickValue))
	if v.AutoClicksPerSec > 0 {
		fmt.Printf("Auto clicks:  %s/s\n", formatAmount(v.AutoClicksPerSec))
	}
	fmt.Printf("Clicks:       %s\n", comma(int64(v.TotalClicks)))
	fmt.Printf("Prestige:     %d (x%.2f)", v.Prestige, v.PrestigeMultiplier)
	if v.PrestigeGain > 0 {
		success.Printf("  +%d ready", v.PrestigeGain)
	}
	fmt.Println()
	fmt.Printf("Boost:        %s\n", boostLabel(v.Boost))
	if v.LastSavedAt > 0 {
		muted.Printf("Saved:        %s\n", time.UnixMilli(v.LastSavedAt).Local().Format("2006-01-02 15:04:05"))
	}

	fmt.Println()
	renderBuildings(v)
}

func renderBuildings(v session.View) {
	accent.Println("Buildings")
	if len(v.Buildings) == 0 {
		printInfo("Nothing unlocked yet.")
	} else {
		fmt.Printf("%-16s %-18s %6s %12s %12s\n", "ID", "NAME", "OWNED", "COST", "INCOME/S")
		for _, b := range v.Buildings {
			cost := formatAmount(b.Cost)
			if b.SparkCost > 0 {
				cost += " +" + formatAmount(b.SparkCost) + "sp"
			}
			costText := danger.Sprintf("%12s", cost)
			if b.Affordable {
				costText = success.Sprintf("%12s", cost)
			}
			fmt.Printf("%-16s %-18s %6d %s %12s\n",
				b.ID,
				truncate(b.Name, 18),
				b.Count,
				costText,
				formatAmount(b.TotalIncome),
			)
		}
	}
	if v.NextBuilding != nil {
		muted.Printf("Next: %s unlocks at %s coins\n", v.NextBuilding.Name, formatAmount(v.NextBuilding.UnlockAt))
	}
	fmt.Println()
}

func renderUpgrades(v session.View) {
	accent.Println("\n== UPGRADES ==")
	shown := 0
	fmt.Printf("%-18s %-22s %12s %-8s\n", "ID", "NAME", "COST", "STATUS")
	for _, u := range v.Upgrades {
		if !u.Unlocked {
			continue
		}
		shown++
		var status string
		switch {
		case u.Owned:
			status = muted.Sprint("owned")
		case u.Affordable:
			status = success.Sprint("buy")
		default:
			status = danger.Sprint("short")
		}
		cost := formatAmount(u.Cost)
		if u.SparkCost > 0 {
			cost += " +" + formatAmount(u.SparkCost) + "sp"
		}
		fmt.Printf("%-18s %-22s %12s %s\n", u.ID, truncate(u.Name, 22), cost, status)
	}
	if shown == 0 {
		printInfo("No upgrades unlocked yet.")
	}
	fmt.Println()
}

func renderAchievements(list []session.AchievementView) {
	accent.Println("\n== ACHIEVEMENTS ==")
	done := 0
	for _, a := range list {
		mark := muted.Sprint("[ ]")
		if a.Unlocked {
			mark = success.Sprint("[x]")
			done++
		}
		fmt.Printf("%s %-22s %s %s\n", mark, truncate(a.Title, 22), progressBar(a.Ratio, 20), muted.Sprint(a.Description))
	}
	fmt.Printf("\n%d/%d unlocked\n\n", done, len(list))
}

func renderCatalog(cat *content.Catalog) {
	accent.Println("\n== BUILDINGS ==")
	fmt.Printf("%-16s %-18s %3s %10s %10s %10s\n", "ID", "NAME", "CH", "BASE COST", "INCOME", "UNLOCK")
	for _, b := range cat.Buildings {
		fmt.Printf("%-16s %-18s %3d %10s %10s %10s\n",
			b.ID, truncate(b.Name, 18), b.Chapter,
			formatAmount(b.CostBase), formatAmount(b.BaseIncome), formatAmount(b.UnlockAt))
	}
	accent.Println("\n== UPGRADES ==")
	fmt.Printf("%-18s %-22s %10s %-16s\n", "ID", "NAME", "COST", "TARGET")
	for _, u := range cat.Upgrades {
		target := u.TargetBuildingID
		if target == "" {
			target = "all"
		}
		fmt.Printf("%-18s %-22s %10s %-16s\n", u.ID, truncate(u.Name, 22), formatAmount(u.Cost), target)
	}
	fmt.Println()
}

func renderLore(w io.Writer, cat *content.Catalog) {
	if len(cat.Story) > 0 {
		accent.Fprintln(w, "\n== CHRONICLE ==")
		for _, p := range cat.Story {
			fmt.Fprintf(w, "%s\n\n", p)
		}
	}
	if len(cat.FAQ) > 0 {
		accent.Fprintln(w, "== FAQ ==")
		for _, q := range cat.FAQ {
			neutral.Fprintln(w, q.Question)
			muted.Fprintf(w, "  %s\n\n", q.Answer)
		}
	}
}

func renderBoost(res remote.Result) {
	if res.Accepted {
		printSuccess(fmt.Sprintf("Boost active: x%.2f income for %s.", res.State.Boost.Multiplier, msDuration(res.State.Boost.ActiveMs)))
		return
	}
	printWarn("Boost unavailable: " + boostLabel(res.State.Boost))
}

func boostLabel(b session.BoostView) string {
	switch {
	case b.Active:
		return success.Sprintf("active x%.2f, %s left", b.Multiplier, msDuration(b.ActiveMs))
	case b.CooldownMs > 0:
		return warn.Sprintf("cooling down, %s", msDuration(b.CooldownMs))
	default:
		return "ready"
	}
}

func msDuration(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).Round(time.Second).String()
}

func progressBar(ratio float64, width int) string {
	ratio = math.Max(0, math.Min(1, ratio))
	filled := int(math.Round(ratio * float64(width)))
	bar := strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
	return fmt.Sprintf("[%s] %3.0f%%", bar, ratio*100)
}

var amountSuffixes = []string{"", "K", "M", "B", "T", "Qa", "Qi"}

// formatAmount prints small values with one decimal and large values with a
// short-scale suffix.
func formatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	if v < 1000 {
		return sign + strconv.FormatFloat(math.Floor(v*10)/10, 'f', -1, 64)
	}
	i := 0
	for v >= 1000 && i < len(amountSuffixes)-1 {
		v /= 1000
		i++
	}
	return fmt.Sprintf("%s%.2f%s", sign, v, amountSuffixes[i])
}

func comma(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
