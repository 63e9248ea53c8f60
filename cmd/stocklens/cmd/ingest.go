package cmd

import (
	"fmt"

	"StockLens/internal/collector"
	"StockLens/internal/ingest"
	"StockLens/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var ingestPeriod string

var ingestCmd = &cobra.Command{
	Use:   "ingest [SYMBOL...]",
	Short: "Fetch and store daily bars",
	Long: `Fetch daily bars from the configured provider, validate them, recompute
derived metrics and upsert them. Without arguments the whole configured
universe is ingested.

Examples:
  stocklens ingest                 # whole universe
  stocklens ingest AAPL MSFT       # selected symbols
  stocklens ingest TSLA --period 5y`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestPeriod, "period", "", "history period (1mo 3mo 6mo 1y 2y 5y max); defaults to data_source.period")
}

func runIngest(cmd *cobra.Command, args []string) error {
	fetcher, err := buildFetcher(cfg)
	if err != nil {
		return err
	}
	return ingestWith(cmd, fetcher, ingestPeriod, args)
}

// ingestWith runs one ingestion and prints its report. It fails only when
// every requested symbol failed.
func ingestWith(cmd *cobra.Command, fetcher collector.Fetcher, periodFlag string, tickers []string) error {
	ctx := cmd.Context()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	deps, err := buildPipeline(ctx, cfg, st, fetcher, nil)
	if err != nil {
		return err
	}
	defer deps.Close()

	period := deps.period
	if periodFlag != "" {
		if period, err = collector.ParsePeriod(periodFlag); err != nil {
			return fmt.Errorf("%w: %v", model.ErrBadRequest, err)
		}
	}

	var report *ingest.Report
	if len(tickers) == 0 {
		report = deps.pipeline.IngestAll(ctx, period)
	} else {
		report = deps.pipeline.IngestSymbols(ctx, tickers, period)
	}
	if err := printJSON(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	if report.Failed > 0 && report.Succeeded == 0 {
		first := report.Failures()[0]
		if first.Err != nil {
			return fmt.Errorf("all %d symbols failed: %w", report.Failed, first.Err)
		}
		return fmt.Errorf("all %d symbols failed: %s", report.Failed, first.Error)
	}
	if report.Failed > 0 {
		log.Warn().Str("run_id", report.RunID).Int("failed", report.Failed).Msg("Ingestion finished with failures")
	}
	return nil
}
