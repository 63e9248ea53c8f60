package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"StockLens/internal/collector"
	"StockLens/internal/ingest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIngester struct {
	mu      sync.Mutex
	periods []collector.Period
	started chan struct{}
	block   chan struct{}
}

func (f *fakeIngester) IngestAll(_ context.Context, period collector.Period) *ingest.Report {
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.periods = append(f.periods, period)
	return &ingest.Report{RunID: "r", Period: period, Succeeded: 1}
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (c *captureNotifier) Send(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, text)
	return nil
}

func TestRunNow_IngestsAndNotifies(t *testing.T) {
	ing := &fakeIngester{}
	n := &captureNotifier{}
	s := NewScheduler(context.Background(), ing, n, collector.Period1Mo)

	report := s.RunNow()

	require.NotNil(t, report)
	assert.Equal(t, []collector.Period{collector.Period1Mo}, ing.periods)
	require.Len(t, n.sent, 1)
	assert.Contains(t, n.sent[0], "Succeeded: 1")
}

func TestRunNow_SkipsOverlappingRuns(t *testing.T) {
	ing := &fakeIngester{started: make(chan struct{}), block: make(chan struct{})}
	s := NewScheduler(context.Background(), ing, nil, collector.Period1Y)

	done := make(chan struct{})
	go func() {
		s.RunNow()
		close(done)
	}()
	select {
	case <-ing.started:
	case <-time.After(time.Second):
		t.Fatal("first run did not start")
	}

	assert.Nil(t, s.RunNow())
	close(ing.block)
	<-done
	assert.Len(t, ing.periods, 1)
}

func TestRegister(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeIngester{}, nil, collector.Period1Y)
	require.NoError(t, s.Register("0 0 22 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)
	assert.Error(t, s.Register("not a cron"))
}
