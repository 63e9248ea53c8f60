package scheduler

import (
	"context"
	"fmt"
	"sync"

	"StockLens/internal/collector"
	"StockLens/internal/ingest"
	"StockLens/internal/notifier"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Ingester is the part of ingest.Pipeline the scheduler drives.
type Ingester interface {
	IngestAll(ctx context.Context, period collector.Period) *ingest.Report
}

// Scheduler runs universe ingestion on a cron schedule and reports each run.
type Scheduler struct {
	Cron     *cron.Cron
	Ingester Ingester
	Notifier notifier.Notifier
	Period   collector.Period
	Ctx      context.Context

	running sync.Mutex
}

// NewScheduler creates a new Scheduler. Cron specs carry a seconds field.
func NewScheduler(ctx context.Context, ing Ingester, n notifier.Notifier, period collector.Period) *Scheduler {
	if n == nil {
		n = notifier.Noop{}
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Ingester: ing,
		Notifier: n,
		Period:   period,
		Ctx:      ctx,
	}
}

// Register adds the ingestion task.
func (s *Scheduler) Register(ingestCron string) error {
	if _, err := s.Cron.AddFunc(ingestCron, s.ingestTask); err != nil {
		return fmt.Errorf("register ingest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("Scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("Scheduler stopped")
}

// RunNow executes the ingestion task immediately (RUN_ON_START / manual trigger).
func (s *Scheduler) RunNow() *ingest.Report {
	return s.run()
}

func (s *Scheduler) ingestTask() {
	s.run()
}

// run skips a tick while the previous run is still in progress.
func (s *Scheduler) run() *ingest.Report {
	if !s.running.TryLock() {
		log.Warn().Msg("Previous ingestion still running, skipping")
		return nil
	}
	defer s.running.Unlock()

	log.Info().Str("period", string(s.Period)).Msg("Running scheduled ingestion")
	report := s.Ingester.IngestAll(s.Ctx, s.Period)
	s.trySend(notifier.FormatIngestReport(report))
	return report
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.Send(s.Ctx, text); err != nil {
		log.Error().Err(err).Msg("Failed to send notification")
	}
}
