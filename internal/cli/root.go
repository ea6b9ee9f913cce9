// Package cli provides the command-line interface for the dashboard.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Raghuak/algo-trading-ui/internal/config"
	"github.com/Raghuak/algo-trading-ui/internal/logging"
)

// Version information
const (
	Version = "0.1.0"
)

// CLI holds the dependencies shared by all commands.
type CLI struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd creates the root command.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	c := &CLI{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Live market dashboard core",
		Long: `Dashboard ingests a live or synthetic market event feed, maintains
bounded per-instrument history, derives P&L and risk classifications,
and republishes a coalesced view at a fixed cadence.

Without a configured feed endpoint it runs a synthetic generator, so
'dashboard run' works out of the box.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				c.Logger = c.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newRunCmd(c))
	rootCmd.AddCommand(newExportCmd(c))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("dashboard %s\n", Version)
		},
	}
}
