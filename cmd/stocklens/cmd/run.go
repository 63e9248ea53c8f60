package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"StockLens/internal/metrics"
	"StockLens/internal/notifier"
	"StockLens/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ingestion scheduler",
	Long: `Run ingestion on schedule.ingest_cron until interrupted, exposing
Prometheus metrics on metrics.listen. Run reports go to Telegram when a bot
token is configured. Ctrl+C stops the daemon after the current run.`,
	Args: exactArgs(0),
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	fetcher, err := buildFetcher(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.New(reg)

	deps, err := buildPipeline(ctx, cfg, st, fetcher, rec)
	if err != nil {
		return err
	}
	defer deps.Close()

	var n notifier.Notifier = notifier.Noop{}
	if cfg.Telegram.Enabled() {
		n = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		log.Info().Msg("Telegram reports enabled")
	}

	sched := scheduler.NewScheduler(ctx, deps.pipeline, n, deps.period)
	if err := sched.Register(cfg.Schedule.IngestCron); err != nil {
		return err
	}

	metricsCtx, cancelMetrics := context.WithCancel(ctx)
	defer cancelMetrics()
	go func() {
		if err := metrics.Serve(metricsCtx, cfg.Metrics.Listen, reg); err != nil {
			log.Error().Err(err).Msg("Metrics listener failed")
		}
	}()

	sched.Start()
	if cfg.Schedule.RunOnStart {
		log.Info().Msg("Run on start enabled, ingesting now")
		go sched.RunNow()
	}

	log.Info().Str("cron", cfg.Schedule.IngestCron).Msg("StockLens is running, press Ctrl+C to stop")
	<-ctx.Done()

	log.Info().Msg("Shutdown signal received, stopping")
	sched.Stop()
	return nil
}
