package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Raghuak/algo-trading-ui/internal/app"
	"github.com/Raghuak/algo-trading-ui/internal/export"
)

func newExportCmd(c *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Capture a session and export signals, trades and logs as CSV",
		Example: `  dashboard export --out ./session
  dashboard export --duration 30s --out /tmp/capture`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir, _ := cmd.Flags().GetString("out")
			duration, _ := cmd.Flags().GetDuration("duration")

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}

			a, err := app.New(c.Config, c.Logger)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(context.Background(), duration)
			defer cancel()

			if err := a.Start(ctx); err != nil {
				return fmt.Errorf("starting pipeline: %w", err)
			}
			<-ctx.Done()

			files := []struct {
				name string
				rows any
			}{
				{"signals.csv", a.ExportSignals()},
				{"trades.csv", a.ExportTrades()},
				{"logs.csv", a.ExportLogs()},
			}
			for _, f := range files {
				path := filepath.Join(outDir, f.name)
				if err := writeCSVFile(path, f.rows); err != nil {
					return fmt.Errorf("writing %s: %w", f.name, err)
				}
				c.Logger.Info().Str("file", path).Msg("Export written")
			}
			return nil
		},
	}

	cmd.Flags().String("out", ".", "output directory for CSV files")
	cmd.Flags().Duration("duration", 10*time.Second, "how long to capture before exporting")

	return cmd
}

func writeCSVFile(path string, rows any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return export.WriteCSV(rows, f)
}
