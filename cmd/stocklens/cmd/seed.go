package cmd

import (
	"time"

	"StockLens/internal/collector"

	"github.com/spf13/cobra"
)

var (
	seedPeriod string
	seedValue  uint64
)

var seedCmd = &cobra.Command{
	Use:   "seed [SYMBOL...]",
	Short: "Load deterministic sample data",
	Long: `Ingest generated random-walk bars for the universe (or the given symbols),
ignoring the configured data provider. The same seed always yields the same
prices.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		seed := cfg.DataSource.Seed
		if cmd.Flags().Changed("seed") {
			seed = seedValue
		}
		return ingestWith(cmd, collector.NewSyntheticFetcher(seed, time.Now()), seedPeriod, args)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPeriod, "period", string(collector.Period1Y), "history period")
	seedCmd.Flags().Uint64Var(&seedValue, "seed", 0, "random seed; defaults to data_source.seed")
}
