package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"StockLens/internal/ingest"
)

// FormatIngestReport renders a run report as a Telegram HTML message.
func FormatIngestReport(r *ingest.Report) string {
	var b strings.Builder

	icon := "✅"
	if r.Failed > 0 {
		icon = "⚠️"
	}
	b.WriteString(fmt.Sprintf("%s <b>StockLens ingestion</b> | %s\n\n", icon, r.StartedAt.Format("2006-01-02 15:04")))

	created, updated, rejected := r.Totals()
	b.WriteString(fmt.Sprintf("Period: %s | Symbols: %d\n", r.Period, len(r.Results)))
	b.WriteString(fmt.Sprintf("Succeeded: %d | Failed: %d\n", r.Succeeded, r.Failed))
	b.WriteString(fmt.Sprintf("Bars created: %d | updated: %d | rejected: %d\n", created, updated, rejected))
	b.WriteString(fmt.Sprintf("Elapsed: %s\n", r.Elapsed().Round(time.Millisecond)))

	if failures := r.Failures(); len(failures) > 0 {
		b.WriteString("\n❌ <b>Failures:</b>\n")
		for _, f := range failures {
			b.WriteString(fmt.Sprintf("  %s: %s\n", f.Symbol, html.EscapeString(f.Error)))
		}
	}

	b.WriteString(fmt.Sprintf("\n<code>%s</code>", r.RunID))
	return b.String()
}
