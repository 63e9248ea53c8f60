package cmd

import (
	"context"
	"strings"

	"StockLens/internal/analytics"

	"github.com/spf13/cobra"
)

var (
	barsLimit      int
	compareWindow  int
	insightsWindow int
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "List tracked symbols",
	Args:  exactArgs(0),
	RunE: withService(func(ctx context.Context, svc *analytics.Service, args []string) (any, error) {
		return svc.Symbols(ctx)
	}),
}

var barsCmd = &cobra.Command{
	Use:   "bars SYMBOL",
	Short: "Show recent daily bars, newest first",
	Args:  exactArgs(1),
	RunE: withService(func(ctx context.Context, svc *analytics.Service, args []string) (any, error) {
		return svc.Bars(ctx, args[0], barsLimit)
	}),
}

var summaryCmd = &cobra.Command{
	Use:   "summary SYMBOL",
	Short: "Show the latest price, 52-week range and average close",
	Args:  exactArgs(1),
	RunE: withService(func(ctx context.Context, svc *analytics.Service, args []string) (any, error) {
		return svc.Summary(ctx, args[0])
	}),
}

var compareCmd = &cobra.Command{
	Use:   "compare SYMBOL1 SYMBOL2",
	Short: "Compare two symbols over the most recent bars",
	Args:  exactArgs(2),
	RunE: withService(func(ctx context.Context, svc *analytics.Service, args []string) (any, error) {
		return svc.Compare(ctx, args[0], args[1], compareWindow)
	}),
}

var insightsCmd = &cobra.Command{
	Use:   "insights SYMBOL",
	Short: "Show trend, momentum and a recommendation",
	Args:  exactArgs(1),
	RunE: withService(func(ctx context.Context, svc *analytics.Service, args []string) (any, error) {
		return svc.Insights(ctx, args[0], insightsWindow)
	}),
}

var removeCmd = &cobra.Command{
	Use:   "remove SYMBOL",
	Short: "Delete a symbol and all of its bars",
	Args:  exactArgs(1),
	RunE: withService(func(ctx context.Context, svc *analytics.Service, args []string) (any, error) {
		if err := svc.Remove(ctx, args[0]); err != nil {
			return nil, err
		}
		return map[string]string{"removed": strings.ToUpper(strings.TrimSpace(args[0]))}, nil
	}),
}

func init() {
	barsCmd.Flags().IntVar(&barsLimit, "limit", analytics.DefaultBarsLimit, "number of bars")
	compareCmd.Flags().IntVar(&compareWindow, "window", analytics.DefaultCompareWindow, "number of recent bars")
	insightsCmd.Flags().IntVar(&insightsWindow, "window", analytics.DefaultInsightsWindow, "number of recent bars")
}

type queryFunc func(ctx context.Context, svc *analytics.Service, args []string) (any, error)

// withService opens the store, runs q and prints its result as JSON.
func withService(q queryFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		out, err := q(ctx, analytics.NewService(st), args)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	}
}
