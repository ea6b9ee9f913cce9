package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Raghuak/algo-trading-ui/internal/app"
	"github.com/Raghuak/algo-trading-ui/internal/derive"
	"github.com/Raghuak/algo-trading-ui/internal/models"
	"github.com/Raghuak/algo-trading-ui/internal/store"
	"github.com/Raghuak/algo-trading-ui/pkg/utils"
)

var (
	badgeNormal = color.New(color.FgGreen)
	badgeWarn   = color.New(color.FgYellow)
	badgeBreach = color.New(color.FgRed, color.Bold)
)

func newRunCmd(c *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the dashboard pipeline and print throttled snapshots",
		Example: `  dashboard run
  dashboard run --synthetic
  dashboard run --endpoint wss://feed.example.com/stream
  dashboard run --duration 30s --pnl absolute`,
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint, _ := cmd.Flags().GetString("endpoint")
			synthetic, _ := cmd.Flags().GetBool("synthetic")
			duration, _ := cmd.Flags().GetDuration("duration")
			pnlMode, _ := cmd.Flags().GetString("pnl")

			cfg := c.Config
			if endpoint != "" {
				cfg.Feed.Endpoint = endpoint
			}
			if synthetic {
				cfg.Feed.Synthetic = true
			}

			a, err := app.New(cfg, c.Logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if pnlMode == string(models.DisplayAbsolute) {
				a.SetDisplayMode(models.DisplayAbsolute)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if duration > 0 {
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			c.Logger.Info().
				Str("session", string(utils.GetMarketStatus())).
				Bool("synthetic", cfg.Feed.UseSynthetic()).
				Msg("Starting dashboard")

			snapshots := a.Subscribe("cli")
			if err := a.Start(ctx); err != nil {
				return fmt.Errorf("starting pipeline: %w", err)
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			out := cmd.OutOrStdout()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-sigCh:
					return nil
				case snap, ok := <-snapshots:
					if !ok {
						return nil
					}
					fmt.Fprintln(out, renderSnapshot(snap, a.DisplayMode()))
				}
			}
		},
	}

	cmd.Flags().String("endpoint", "", "websocket feed endpoint (overrides config)")
	cmd.Flags().Bool("synthetic", false, "force the synthetic feed")
	cmd.Flags().Duration("duration", 0, "stop after this long (0 = run until interrupted)")
	cmd.Flags().String("pnl", "percent", "P&L display mode: percent or absolute")

	return cmd
}

// renderSnapshot formats one published snapshot as a status line.
func renderSnapshot(snap store.Snapshot, mode models.DisplayMode) string {
	var b strings.Builder

	b.WriteString(snap.Taken.Format("15:04:05.000"))
	for _, inst := range snap.Instruments {
		view := snap.ByInst[inst]
		fmt.Fprintf(&b, "  %s %.2f", inst, view.Price)
	}

	trades := 0
	pnl := 0.0
	for _, inst := range snap.Instruments {
		for _, t := range snap.ByInst[inst].Trades {
			trades++
			pnl += derive.TradePnLAbsolute(t)
		}
	}
	if mode == models.DisplayAbsolute {
		fmt.Fprintf(&b, "  trades %d  P&L %s", trades, utils.FormatIndianCurrency(pnl))
	} else {
		fmt.Fprintf(&b, "  trades %d  P&L %s", trades, utils.FormatPercent(avgPnLPercent(snap)))
	}

	fmt.Fprintf(&b, "  loss %s  margin %.1f%%  %s",
		utils.FormatIndianCurrency(snap.Risk.DailyLoss),
		snap.Risk.MarginUsed,
		riskBadge(snap.RiskLevel))

	return b.String()
}

// avgPnLPercent averages percentage P&L across all open trades.
func avgPnLPercent(snap store.Snapshot) float64 {
	sum := 0.0
	n := 0
	for _, inst := range snap.Instruments {
		for _, t := range snap.ByInst[inst].Trades {
			sum += derive.TradePnLPercent(t)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func riskBadge(level models.RiskLevel) string {
	switch level {
	case models.RiskBreach:
		return badgeBreach.Sprint(level.String())
	case models.RiskWarn:
		return badgeWarn.Sprint(level.String())
	default:
		return badgeNormal.Sprint(level.String())
	}
}
