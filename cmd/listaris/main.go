package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"listaris/internal/config"
	"listaris/internal/remote"
)

const commandTimeout = 30 * time.Second

type app struct {
	cfg       config.Config
	log       *slog.Logger
	serverURL string
}

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	a := &app{cfg: cfg, log: logger, serverURL: cfg.ServerURL}

	root := &cobra.Command{
		Use:          "listaris",
		Short:        "Grow a city of light leaves from your terminal",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.serverURL, "server", a.serverURL, "listaris-server base URL; empty plays locally")

	root.AddCommand(
		a.newStatusCmd(),
		a.newClickCmd(),
		a.newBuyCmd(),
		a.newUpgradeCmd(),
		a.newBoostCmd(),
		a.newPrestigeCmd(),
		a.newResetCmd(),
		a.newAchievementsCmd(),
		a.newCatalogCmd(),
		a.newLoreCmd(),
		a.newPlayCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// withBackend opens the backend, runs fn and always closes it so local
// progress is written before the command returns.
func (a *app) withBackend(cmd *cobra.Command, fn func(ctx context.Context, b backend) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()
	b, err := openBackend(ctx, a.cfg, strings.TrimRight(strings.TrimSpace(a.serverURL), "/"), a.log)
	if err != nil {
		return err
	}
	runErr := fn(ctx, b)
	if err := b.Close(ctx); err != nil {
		if runErr == nil {
			return fmt.Errorf("save: %w", err)
		}
		a.log.Warn("final save failed", "err", err)
	}
	return runErr
}

func (a *app) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show coins, income and visible buildings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd, func(ctx context.Context, b backend) error {
				v, err := b.State(ctx)
				if err != nil {
					return err
				}
				renderStatus(v)
				return nil
			})
		},
	}
}

func (a *app) newClickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "click [times]",
		Short: "Tap the city for coins",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			times := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 || n > 100 {
					return fmt.Errorf("times must be a whole number between 1 and 100")
				}
				times = n
			}
			return a.withBackend(cmd, func(ctx context.Context, b backend) error {
				var earned float64
				var last remote.Result
				accepted := 0
				for i := 0; i < times; i++ {
					if i > 0 {
						time.Sleep(a.cfg.ClickCooldown)
					}
					res, err := b.Click(ctx)
					if err != nil {
						return err
					}
					last = res
					if res.Accepted && res.Click != nil {
						earned += res.Click.Value
						accepted++
					}
				}
				if accepted == 0 {
					printWarn("Click ignored, too fast.")
					return nil
				}
				printSuccess(fmt.Sprintf("+%s coins from %d click(s). Balance: %s", formatAmount(earned), accepted, formatAmount(last.State.Coins)))
				return nil
			})
		},
	}
}

func (a *app) newBuyCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "buy <building-id>",
		Short: "Buy one or more units of a building",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be >= 1")
			}
			id := strings.ToLower(strings.TrimSpace(args[0]))
			return a.withBackend(cmd, func(ctx context.Context, b backend) error {
				bought := 0
				var last remote.Result
				for i := 0; i < count; i++ {
					res, err := b.BuyBuilding(ctx, id)
					if err != nil {
						return unknownIDError(ctx, b, err, id)
					}
					last = res
					if !res.Accepted {
						break
					}
					bought++
				}
				if bought == 0 {
					printWarn(fmt.Sprintf("Cannot afford %s yet.", id))
					return nil
				}
				printSuccess(fmt.Sprintf("Bought %d x %s. Balance: %s", bought, id, formatAmount(last.State.Coins)))
				if bought < count {
					printWarn(fmt.Sprintf("Stopped after %d, out of coins.", bought))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "how many units to buy")
	return cmd
}

func (a *app) newUpgradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade [upgrade-id]",
		Short: "Buy an upgrade, or list them when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd, func(ctx context.Context, b backend) error {
				if len(args) == 0 {
					v, err := b.State(ctx)
					if err != nil {
						return err
					}
					renderUpgrades(v)
					return nil
				}
				id := strings.ToLower(strings.TrimSpace(args[0]))
				res, err := b.BuyUpgrade(ctx, id)
				if err != nil {
					return unknownIDError(ctx, b, err, id)
				}
				if !res.Accepted {
					printWarn(fmt.Sprintf("Upgrade %s is owned, locked or unaffordable.", id))
					return nil
				}
				printSuccess(fmt.Sprintf("Upgrade %s active. Income: %s/s", id, formatAmount(res.State.CoinsPerSec)))
				return nil
			})
		},
	}
}

func (a *app) newBoostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "boost",
		Short: "Start a temporary income boost",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd, func(ctx context.Context, b backend) error {
				res, err := b.Boost(ctx)
				if err != nil {
					return err
				}
				renderBoost(res)
				return nil
			})
		},
	}
}

func (a *app) newPrestigeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "prestige",
		Short: "Trade this run for permanent prestige points",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd, func(ctx context.Context, b backend) error {
				v, err := b.State(ctx)
				if err != nil {
					return err
				}
				if v.PrestigeGain <= 0 {
					printWarn(fmt.Sprintf("Prestige needs %s coins, you have %s.", formatAmount(v.PrestigeThreshold), formatAmount(v.Coins)))
					return nil
				}
				if !yes {
					ok, err := confirm(fmt.Sprintf("Reset this run for +%d prestige?", v.PrestigeGain))
					if err != nil || !ok {
						return err
					}
				}
				res, err := b.Prestige(ctx)
				if err != nil {
					return err
				}
				if !res.Accepted {
					printWarn("Prestige was not accepted.")
					return nil
				}
				printSuccess(fmt.Sprintf("+%d prestige. Multiplier now x%.2f", res.Gain, res.State.PrestigeMultiplier))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func (a *app) newResetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe all progress, prestige included",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := confirm("Wipe everything, prestige included?")
				if err != nil || !ok {
					return err
				}
			}
			return a.withBackend(cmd, func(ctx context.Context, b backend) error {
				if _, err := b.Reset(ctx); err != nil {
					return err
				}
				printSuccess("Progress wiped.")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func (a *app) newAchievementsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "achievements",
		Short: "Show achievement progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd, func(ctx context.Context, b backend) error {
				list, err := b.Achievements(ctx)
				if err != nil {
					return err
				}
				renderAchievements(list)
				return nil
			})
		},
	}
}

func (a *app) newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List every building and upgrade",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd, func(ctx context.Context, b backend) error {
				cat, err := b.Catalog(ctx)
				if err != nil {
					return err
				}
				renderCatalog(cat)
				return nil
			})
		},
	}
}

func (a *app) newLoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lore",
		Short: "Read the city's story and the FAQ",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd, func(ctx context.Context, b backend) error {
				cat, err := b.Catalog(ctx)
				if err != nil {
					return err
				}
				renderLore(os.Stdout, cat)
				return nil
			})
		},
	}
}

func unknownIDError(ctx context.Context, b backend, err error, id string) error {
	if hint := suggestionFor(ctx, b, err, id); hint != "" {
		return fmt.Errorf("%w (did you mean %q?)", err, hint)
	}
	return err
}
