// Package cmd implements the stocklens command line.
package cmd

import (
	"fmt"
	"os"

	"StockLens/internal/config"
	"StockLens/internal/logger"
	"StockLens/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "stocklens",
	Short: "StockLens - daily stock data ingestion and analytics",
	Long: `StockLens - daily stock data ingestion and analytics

Commands:
    ingest [SYMBOL...]   fetch, validate and store daily bars
    run                  scheduler daemon with /metrics
    seed                 load deterministic sample data
    symbols              list tracked symbols
    bars SYMBOL          recent bars, newest first
    summary SYMBOL       52-week range and average close
    compare A B          relative performance over a window
    insights SYMBOL      trend, momentum and recommendation
    remove SYMBOL        delete a symbol and its bars
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command and prints a structured payload on failure.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(os.Stderr, err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", model.ErrBadRequest, err)
	})

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(barsCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(removeCmd)
}

// initConfig loads and validates the config, then sets up logging.
func initConfig() error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if err := logger.Init(c.Log, os.Stderr); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	cfg = c
	log.Debug().Str("config", cfgFile).Str("store", c.Store.Driver).Msg("Config loaded")
	return nil
}

// exactArgs reports an argument count mismatch as a bad request.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", model.ErrBadRequest, err)
		}
		return nil
	}
}
