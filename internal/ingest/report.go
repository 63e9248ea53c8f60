package ingest

import (
	"time"

	"StockLens/internal/collector"
)

// Status is the outcome of one symbol within a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// SymbolResult reports the ingestion of one symbol.
type SymbolResult struct {
	Symbol   string        `json:"symbol"`
	Status   Status        `json:"status"`
	Fetched  int           `json:"fetched"`
	Rejected int           `json:"rejected"`
	Created  int           `json:"created"`
	Updated  int           `json:"updated"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`

	Err error `json:"-"`
}

// Upserted is the number of rows written.
func (r SymbolResult) Upserted() int { return r.Created + r.Updated }

// Report summarizes one ingestion run.
type Report struct {
	RunID      string           `json:"run_id"`
	Period     collector.Period `json:"period"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Results    []SymbolResult   `json:"results"`
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
}

// Failures returns the failed results in run order.
func (r *Report) Failures() []SymbolResult {
	var out []SymbolResult
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			out = append(out, res)
		}
	}
	return out
}

// Totals sums the row counts over all results.
func (r *Report) Totals() (created, updated, rejected int) {
	for _, res := range r.Results {
		created += res.Created
		updated += res.Updated
		rejected += res.Rejected
	}
	return created, updated, rejected
}

// Elapsed is the wall time of the run.
func (r *Report) Elapsed() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }
