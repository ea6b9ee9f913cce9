package main

import (
	"fmt"
	"os"

	"github.com/Raghuak/algo-trading-ui/internal/cli"
	"github.com/Raghuak/algo-trading-ui/internal/config"
	"github.com/Raghuak/algo-trading-ui/internal/logging"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger()

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
